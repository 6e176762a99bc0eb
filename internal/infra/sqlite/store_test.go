package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/holiman/uint256"

	"github.com/feeflow-network/feeflow/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func addr(t *testing.T, s string) domain.Address {
	t.Helper()
	a, err := domain.ParseAddress(s)
	if err != nil {
		t.Fatalf("ParseAddress(%q): %v", s, err)
	}
	return a
}

func testState(t *testing.T) domain.LedgerState {
	t.Helper()
	holder := addr(t, "0x1111111111111111111111111111111111111111")
	pair := addr(t, "0x2222222222222222222222222222222222222222")
	keeper := addr(t, "0x3333333333333333333333333333333333333333")

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return domain.LedgerState{
		Accounts: []domain.AccountState{
			{Address: holder, Account: domain.Account{
				Balance:       uint256.NewInt(5000),
				LastNonZeroAt: now,
				RewardDebt:    uint256.NewInt(42),
				Accrued:       uint256.NewInt(7),
				LastClaimAt:   now.Add(time.Hour),
			}},
			{Address: pair, Account: domain.Account{
				Balance:             uint256.NewInt(100000),
				ExcludedFromTax:     true,
				ExcludedFromRewards: true,
				RewardDebt:          uint256.NewInt(0),
				Accrued:             uint256.NewInt(0),
			}},
		},
		BaseBalances: []domain.BaseBalance{
			{Address: holder, Amount: uint256.NewInt(120)},
		},
		Pairs:             []domain.Address{pair},
		Keepers:           []domain.Address{keeper},
		TotalSupply:       uint256.NewInt(1_000_000),
		TaxVault:          uint256.NewInt(321),
		RewardVault:       uint256.NewInt(654),
		AccRewardPerShare: uint256.MustFromDecimal("123456789123456789"),
		EligibleSupply:    uint256.NewInt(5000),
		TotalDistributed:  uint256.NewInt(900),
		TotalClaimed:      uint256.NewInt(246),
		Escrow:            uint256.NewInt(11),
		Params: domain.Params{
			BuyTaxBps:     300,
			SellTaxBps:    500,
			Split:         domain.SplitConfig{Reward: 6000, Burn: 1000, Marketing: 2000, Team: 1000},
			BurnFromInput: true,
			MinBalance:    uint256.NewInt(100),
			MinHoldTime:   24 * time.Hour,
			ClaimCooldown: 6 * time.Hour,
		},
	}
}

func TestLoadLedger_Empty(t *testing.T) {
	db := openTestDB(t)
	_, ok, err := db.LoadLedger()
	if err != nil {
		t.Fatalf("LoadLedger: %v", err)
	}
	if ok {
		t.Error("LoadLedger on fresh db reported a snapshot")
	}
}

func TestSaveLoadLedger_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	want := testState(t)

	if err := db.SaveLedger(want); err != nil {
		t.Fatalf("SaveLedger: %v", err)
	}
	got, ok, err := db.LoadLedger()
	if err != nil {
		t.Fatalf("LoadLedger: %v", err)
	}
	if !ok {
		t.Fatal("LoadLedger reported no snapshot after save")
	}

	if got.TotalSupply.Cmp(want.TotalSupply) != 0 {
		t.Errorf("TotalSupply = %s, want %s", got.TotalSupply.Dec(), want.TotalSupply.Dec())
	}
	if got.TaxVault.Cmp(want.TaxVault) != 0 {
		t.Errorf("TaxVault = %s, want %s", got.TaxVault.Dec(), want.TaxVault.Dec())
	}
	if got.AccRewardPerShare.Cmp(want.AccRewardPerShare) != 0 {
		t.Errorf("AccRewardPerShare = %s, want %s", got.AccRewardPerShare.Dec(), want.AccRewardPerShare.Dec())
	}
	if got.Escrow.Cmp(want.Escrow) != 0 {
		t.Errorf("Escrow = %s, want %s", got.Escrow.Dec(), want.Escrow.Dec())
	}
	if got.Params.BuyTaxBps != 300 || got.Params.SellTaxBps != 500 {
		t.Errorf("Params taxes = %d/%d, want 300/500", got.Params.BuyTaxBps, got.Params.SellTaxBps)
	}
	if got.Params.MinBalance.Uint64() != 100 {
		t.Errorf("Params.MinBalance = %s, want 100", got.Params.MinBalance.Dec())
	}
	if got.Params.Split != want.Params.Split {
		t.Errorf("Params.Split = %+v, want %+v", got.Params.Split, want.Params.Split)
	}
	if !got.Params.BurnFromInput {
		t.Error("Params.BurnFromInput lost")
	}
	if got.Params.MinHoldTime != want.Params.MinHoldTime {
		t.Errorf("Params.MinHoldTime = %s, want %s", got.Params.MinHoldTime, want.Params.MinHoldTime)
	}

	if len(got.Accounts) != len(want.Accounts) {
		t.Fatalf("Accounts len = %d, want %d", len(got.Accounts), len(want.Accounts))
	}
	byAddr := make(map[domain.Address]domain.Account)
	for _, as := range got.Accounts {
		byAddr[as.Address] = as.Account
	}
	holder := addr(t, "0x1111111111111111111111111111111111111111")
	ha, ok2 := byAddr[holder]
	if !ok2 {
		t.Fatal("holder account missing after round trip")
	}
	if ha.Balance.Uint64() != 5000 {
		t.Errorf("holder balance = %s, want 5000", ha.Balance.Dec())
	}
	if ha.RewardDebt.Uint64() != 42 || ha.Accrued.Uint64() != 7 {
		t.Errorf("holder debt/accrued = %s/%s, want 42/7", ha.RewardDebt.Dec(), ha.Accrued.Dec())
	}
	if ha.LastClaimAt.IsZero() {
		t.Error("holder LastClaimAt lost")
	}

	pairAddr := addr(t, "0x2222222222222222222222222222222222222222")
	pa := byAddr[pairAddr]
	if !pa.ExcludedFromTax || !pa.ExcludedFromRewards {
		t.Error("pair exclusion flags lost")
	}
	if !pa.LastClaimAt.IsZero() || !pa.LastNonZeroAt.IsZero() {
		t.Error("pair zero timestamps should stay zero")
	}

	if len(got.Pairs) != 1 || got.Pairs[0] != pairAddr {
		t.Errorf("Pairs = %v", got.Pairs)
	}
	if len(got.Keepers) != 1 {
		t.Errorf("Keepers = %v", got.Keepers)
	}
	if len(got.BaseBalances) != 1 || got.BaseBalances[0].Amount.Uint64() != 120 {
		t.Errorf("BaseBalances = %v", got.BaseBalances)
	}
}

func TestSaveLedger_Replaces(t *testing.T) {
	db := openTestDB(t)
	st := testState(t)
	if err := db.SaveLedger(st); err != nil {
		t.Fatalf("SaveLedger: %v", err)
	}

	st.Accounts = st.Accounts[:1]
	st.TaxVault = uint256.NewInt(999)
	if err := db.SaveLedger(st); err != nil {
		t.Fatalf("SaveLedger second: %v", err)
	}

	got, _, err := db.LoadLedger()
	if err != nil {
		t.Fatalf("LoadLedger: %v", err)
	}
	if len(got.Accounts) != 1 {
		t.Errorf("Accounts len = %d, want 1 after replace", len(got.Accounts))
	}
	if got.TaxVault.Uint64() != 999 {
		t.Errorf("TaxVault = %s, want 999", got.TaxVault.Dec())
	}
}

func TestJournal_AppendAndRecent(t *testing.T) {
	db := openTestDB(t)
	j, err := NewJournal(db, nil)
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}

	from := addr(t, "0x1111111111111111111111111111111111111111")
	to := addr(t, "0x2222222222222222222222222222222222222222")

	j.Append(domain.Event{
		Type:      domain.EvTransferExecuted,
		Timestamp: time.Now(),
		From:      from,
		To:        to,
		Amount:    uint256.NewInt(1000),
		Kind:      domain.KindSell,
	})
	j.Append(domain.Event{
		Type:      domain.EvProcessed,
		Timestamp: time.Now(),
		AmountIn:  uint256.NewInt(1000),
		AmountOut: uint256.NewInt(900),
		ToReward:  uint256.NewInt(600),
		ToBurn:    uint256.NewInt(100),
	})

	events, err := j.RecentEvents(10)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("RecentEvents len = %d, want 2", len(events))
	}
	// Newest first.
	if events[0].Type != domain.EvProcessed {
		t.Errorf("events[0].Type = %s, want %s", events[0].Type, domain.EvProcessed)
	}
	if events[0].ToReward.Uint64() != 600 {
		t.Errorf("ToReward = %s, want 600", events[0].ToReward.Dec())
	}
	if events[1].From != from || events[1].Amount.Uint64() != 1000 {
		t.Errorf("transfer event mangled: %+v", events[1])
	}
	if events[0].ID == "" || events[1].ID == events[0].ID {
		t.Error("journal must assign unique event IDs")
	}
}

func TestJournal_SequenceResumes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	j, err := NewJournal(db, nil)
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}
	j.Append(domain.Event{Type: domain.EvRewardClaimed, Timestamp: time.Now(), Amount: uint256.NewInt(5)})
	db.Close()

	db2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()
	j2, err := NewJournal(db2, nil)
	if err != nil {
		t.Fatalf("NewJournal after reopen: %v", err)
	}
	j2.Append(domain.Event{Type: domain.EvRewardClaimed, Timestamp: time.Now(), Amount: uint256.NewInt(6)})

	events, err := j2.RecentEvents(10)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("RecentEvents len = %d, want 2", len(events))
	}
	if events[0].Amount.Uint64() != 6 {
		t.Errorf("newest event amount = %s, want 6", events[0].Amount.Dec())
	}
}
