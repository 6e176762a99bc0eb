package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/holiman/uint256"

	"github.com/feeflow-network/feeflow/internal/domain"
	"github.com/feeflow-network/feeflow/internal/infra/swap"
)

// seedVault routes exactly amount tokens into the tax vault via a taxed sell.
// At the fixture's 5% sell rate, selling 20×amount collects amount.
func (f *fixture) seedVault(t *testing.T, amount uint64) {
	t.Helper()
	f.fund(t, keeper, 20*amount)
	if err := f.eng.Transfer(keeper, pairAddr, uint256.NewInt(20*amount)); err != nil {
		t.Fatalf("seed sell: %v", err)
	}
	if got := f.eng.TaxVaultBalance().Uint64(); got != amount {
		t.Fatalf("vault seeded with %d, want %d", got, amount)
	}
}

func (f *fixture) deadline() time.Time { return f.clock.Now().Add(time.Minute) }

func TestProcess_BurnFromInputSplit(t *testing.T) {
	f := newFixture(t)
	f.fund(t, alice, 4_000)
	f.seedVault(t, 1_000)

	res, err := f.eng.Process(context.Background(), owner, uint256.NewInt(1_000), nil, f.deadline())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	// 10% of the input burns in kind; the remaining 900 swap 1:1 and divide
	// over the residual 9000 bps.
	checks := []struct {
		name string
		got  *uint256.Int
		want uint64
	}{
		{"AmountIn", res.AmountIn, 1_000},
		{"AmountOut", res.AmountOut, 900},
		{"ToBurn", res.ToBurn, 100},
		{"ToReward", res.ToReward, 600},
		{"ToMarketing", res.ToMarketing, 200},
		{"ToTeam", res.ToTeam, 100},
	}
	for _, c := range checks {
		if c.got.Uint64() != c.want {
			t.Errorf("%s = %s, want %d", c.name, c.got.Dec(), c.want)
		}
	}

	if got := f.eng.TaxVaultBalance(); !got.IsZero() {
		t.Errorf("tax vault = %s after full drain, want 0", got.Dec())
	}
	wantBalance(t, f.eng, domain.DeadAddress, 100)
	if got := f.eng.BaseBalanceOf(marketing).Uint64(); got != 200 {
		t.Errorf("marketing proceeds = %d, want 200", got)
	}
	if got := f.eng.BaseBalanceOf(team).Uint64(); got != 100 {
		t.Errorf("team proceeds = %d, want 100", got)
	}
	if got := f.eng.Stats().RewardVault.Uint64(); got != 600 {
		t.Errorf("reward vault = %d, want 600", got)
	}
}

func TestProcess_PostSwapBurn(t *testing.T) {
	f := newFixture(t)
	if err := f.eng.SetBurnFromInput(owner, false); err != nil {
		t.Fatalf("SetBurnFromInput: %v", err)
	}
	f.fund(t, alice, 4_000)
	f.seedVault(t, 1_000)

	res, err := f.eng.Process(context.Background(), owner, uint256.NewInt(1_000), nil, f.deadline())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	// All 1000 tokens swap; every share comes out of the proceeds.
	if res.AmountOut.Uint64() != 1_000 {
		t.Fatalf("AmountOut = %s, want 1000", res.AmountOut.Dec())
	}
	if res.ToReward.Uint64() != 600 || res.ToBurn.Uint64() != 100 ||
		res.ToMarketing.Uint64() != 200 || res.ToTeam.Uint64() != 100 {
		t.Errorf("split = %s/%s/%s/%s, want 600/100/200/100",
			res.ToReward.Dec(), res.ToBurn.Dec(), res.ToMarketing.Dec(), res.ToTeam.Dec())
	}

	// Proceeds burn is base-asset, not tokens: the dead address token balance
	// stays flat and its base balance carries the burn.
	wantBalance(t, f.eng, domain.DeadAddress, 0)
	if got := f.eng.BaseBalanceOf(domain.DeadAddress).Uint64(); got != 100 {
		t.Errorf("dead base balance = %d, want 100", got)
	}
}

func TestProcess_TeamCollectsDust(t *testing.T) {
	f := newFixture(t)
	if err := f.eng.SetBurnFromInput(owner, false); err != nil {
		t.Fatalf("SetBurnFromInput: %v", err)
	}
	f.fund(t, alice, 4_000)
	f.seedVault(t, 1_000)

	// 999 does not divide evenly over the split; the remainder lands on team.
	res, err := f.eng.Process(context.Background(), owner, uint256.NewInt(999), nil, f.deadline())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	sum := new(uint256.Int).Add(res.ToReward, res.ToBurn)
	sum.Add(sum, res.ToMarketing)
	sum.Add(sum, res.ToTeam)
	if sum.Cmp(res.AmountOut) != 0 {
		t.Errorf("shares sum to %s, want %s (no dust lost)", sum.Dec(), res.AmountOut.Dec())
	}
	if res.ToTeam.Uint64() < res.AmountOut.Uint64()/10 {
		t.Errorf("ToTeam = %s, want at least the 1000 bps floor", res.ToTeam.Dec())
	}
}

func TestProcess_Authorization(t *testing.T) {
	f := newFixture(t)
	f.seedVault(t, 1_000)

	if _, err := f.eng.Process(context.Background(), alice, uint256.NewInt(100), nil, f.deadline()); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("Process by stranger: error = %v, want ErrUnauthorized", err)
	}

	if err := f.eng.SetKeeper(owner, keeper, true); err != nil {
		t.Fatalf("SetKeeper: %v", err)
	}
	if _, err := f.eng.Process(context.Background(), keeper, uint256.NewInt(100), nil, f.deadline()); err != nil {
		t.Errorf("Process by keeper: %v", err)
	}

	if err := f.eng.SetKeeper(owner, keeper, false); err != nil {
		t.Fatalf("revoke keeper: %v", err)
	}
	if _, err := f.eng.Process(context.Background(), keeper, uint256.NewInt(100), nil, f.deadline()); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("Process by revoked keeper: error = %v, want ErrUnauthorized", err)
	}
}

func TestProcess_InputValidation(t *testing.T) {
	f := newFixture(t)
	f.seedVault(t, 1_000)

	if _, err := f.eng.Process(context.Background(), owner, nil, nil, f.deadline()); !errors.Is(err, domain.ErrAmountZero) {
		t.Errorf("nil amount: error = %v, want ErrAmountZero", err)
	}
	if _, err := f.eng.Process(context.Background(), owner, uint256.NewInt(0), nil, f.deadline()); !errors.Is(err, domain.ErrAmountZero) {
		t.Errorf("zero amount: error = %v, want ErrAmountZero", err)
	}
	if _, err := f.eng.Process(context.Background(), owner, uint256.NewInt(1_001), nil, f.deadline()); !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Errorf("over vault: error = %v, want ErrInsufficientBalance", err)
	}
	if got := f.eng.TaxVaultBalance().Uint64(); got != 1_000 {
		t.Errorf("vault = %d after rejected calls, want 1000", got)
	}
}

func TestProcess_SwapFailureLeavesVaultUntouched(t *testing.T) {
	f := newFixture(t)
	f.fund(t, alice, 4_000)
	f.seedVault(t, 1_000)
	f.eng.swap = &swap.Failing{Err: errors.New("pool drained")}

	before := f.eng.Stats()
	_, err := f.eng.Process(context.Background(), owner, uint256.NewInt(1_000), nil, f.deadline())
	if err == nil {
		t.Fatal("Process succeeded through a failing swap")
	}

	after := f.eng.Stats()
	if after.TaxVault.Cmp(before.TaxVault) != 0 {
		t.Errorf("tax vault = %s, want %s unchanged", after.TaxVault.Dec(), before.TaxVault.Dec())
	}
	if after.RewardVault.Cmp(before.RewardVault) != 0 ||
		after.AccRewardPerShare.Cmp(before.AccRewardPerShare) != 0 ||
		after.TotalDistributed.Cmp(before.TotalDistributed) != 0 ||
		after.Escrow.Cmp(before.Escrow) != 0 {
		t.Error("reward state mutated by a failed batch")
	}
	wantBalance(t, f.eng, domain.DeadAddress, 0)
	if got := f.eng.BaseBalanceOf(marketing); !got.IsZero() {
		t.Errorf("marketing credited %s by a failed batch", got.Dec())
	}

	// The vault is still intact, so a retry with a working swap succeeds.
	f.eng.swap = mustFixedRate(t, f)
	if _, err := f.eng.Process(context.Background(), owner, uint256.NewInt(1_000), nil, f.deadline()); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func mustFixedRate(t *testing.T, f *fixture) *swap.FixedRate {
	t.Helper()
	sw, err := swap.NewFixedRate(1, 1, f.clock)
	if err != nil {
		t.Fatalf("NewFixedRate: %v", err)
	}
	return sw
}

func TestProcess_SlippageAborts(t *testing.T) {
	f := newFixture(t)
	f.fund(t, alice, 4_000)
	f.seedVault(t, 1_000)

	// 900 tokens reach the swap at 1:1; demanding 901 out must abort.
	_, err := f.eng.Process(context.Background(), owner, uint256.NewInt(1_000), uint256.NewInt(901), f.deadline())
	if !errors.Is(err, domain.ErrSlippageExceeded) {
		t.Fatalf("error = %v, want ErrSlippageExceeded", err)
	}
	if got := f.eng.TaxVaultBalance().Uint64(); got != 1_000 {
		t.Errorf("vault = %d after slippage abort, want 1000", got)
	}
}

func TestProcess_DeadlineAborts(t *testing.T) {
	f := newFixture(t)
	f.seedVault(t, 1_000)

	past := f.clock.Now().Add(-time.Second)
	_, err := f.eng.Process(context.Background(), owner, uint256.NewInt(1_000), nil, past)
	if !errors.Is(err, domain.ErrDeadlineExpired) {
		t.Fatalf("error = %v, want ErrDeadlineExpired", err)
	}
}

func TestProcess_DoubleDrainFails(t *testing.T) {
	f := newFixture(t)
	f.fund(t, alice, 4_000)
	f.seedVault(t, 1_000)

	if _, err := f.eng.Process(context.Background(), owner, uint256.NewInt(1_000), nil, f.deadline()); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	_, err := f.eng.Process(context.Background(), owner, uint256.NewInt(1_000), nil, f.deadline())
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Errorf("second drain of the same tranche: error = %v, want ErrInsufficientBalance", err)
	}
}

// reentrantSwap calls back into Process from inside the swap, the way a
// malicious pool hook would.
type reentrantSwap struct {
	eng      *Engine
	innerErr error
}

func (r *reentrantSwap) Swap(ctx context.Context, amountIn, minOut *uint256.Int, deadline time.Time) (*uint256.Int, error) {
	_, r.innerErr = r.eng.Process(ctx, owner, uint256.NewInt(1), nil, deadline)
	return amountIn.Clone(), nil
}

func TestProcess_ReentrancyBlocked(t *testing.T) {
	f := newFixture(t)
	f.fund(t, alice, 4_000)
	f.seedVault(t, 1_000)

	re := &reentrantSwap{eng: f.eng}
	f.eng.swap = re

	if _, err := f.eng.Process(context.Background(), owner, uint256.NewInt(1_000), nil, f.deadline()); err != nil {
		t.Fatalf("outer batch: %v", err)
	}
	if !errors.Is(re.innerErr, domain.ErrProcessingBusy) {
		t.Errorf("re-entrant batch: error = %v, want ErrProcessingBusy", re.innerErr)
	}
}

func TestProcess_EscrowWithNoEligibleHolders(t *testing.T) {
	f := newFixture(t)
	// After the seed sell every token sits with excluded accounts, so the
	// eligible supply is zero.
	f.seedVault(t, 1_000)
	if err := f.eng.SetExcludedFromRewards(owner, keeper, true); err != nil {
		t.Fatalf("exclude keeper: %v", err)
	}

	if _, err := f.eng.Process(context.Background(), owner, uint256.NewInt(1_000), nil, f.deadline()); err != nil {
		t.Fatalf("Process: %v", err)
	}
	st := f.eng.Stats()
	if st.Escrow.Uint64() != 600 {
		t.Fatalf("Escrow = %d, want 600", st.Escrow.Uint64())
	}
	if !st.AccRewardPerShare.IsZero() {
		t.Errorf("accumulator advanced with zero eligible supply: %s", st.AccRewardPerShare.Dec())
	}
	if st.TotalDistributed.Uint64() != 0 {
		t.Errorf("TotalDistributed = %d, want 0 while escrowed", st.TotalDistributed.Uint64())
	}
	// The funds sit in the reward vault awaiting the next distribution.
	if st.RewardVault.Uint64() != 600 {
		t.Errorf("RewardVault = %d, want 600", st.RewardVault.Uint64())
	}

	// A new eligible holder appears; the next batch folds the escrow in.
	f.fund(t, alice, 2_000)
	f.seedVault(t, 1_000)
	if _, err := f.eng.Process(context.Background(), owner, uint256.NewInt(1_000), nil, f.deadline()); err != nil {
		t.Fatalf("second batch: %v", err)
	}
	st = f.eng.Stats()
	if !st.Escrow.IsZero() {
		t.Errorf("Escrow = %d after fold, want 0", st.Escrow.Uint64())
	}
	if st.TotalDistributed.Uint64() != 1_200 {
		t.Errorf("TotalDistributed = %d, want 1200 (600 escrowed + 600 new)", st.TotalDistributed.Uint64())
	}
	if got := f.eng.Pending(alice).Uint64(); got != 1_200 {
		t.Errorf("alice pending = %d, want the full 1200 as sole holder", got)
	}
}
