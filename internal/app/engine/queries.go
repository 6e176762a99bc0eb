package engine

import (
	"github.com/holiman/uint256"

	"github.com/feeflow-network/feeflow/internal/domain"
)

// ─── Read Queries ───────────────────────────────────────────────────────────
// Reads never block on external calls and never mutate ledger state.

// Owner returns the ledger's owner address.
func (e *Engine) Owner() domain.Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.owner
}

// BalanceOf returns addr's token balance (zero for unknown accounts).
func (e *Engine) BalanceOf(addr domain.Address) *uint256.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if a, ok := e.accounts[addr]; ok {
		return a.Balance.Clone()
	}
	return uint256.NewInt(0)
}

// BaseBalanceOf returns the base-asset funds credited to addr by processing
// splits and paid claims.
func (e *Engine) BaseBalanceOf(addr domain.Address) *uint256.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if b, ok := e.baseBalances[addr]; ok {
		return b.Clone()
	}
	return uint256.NewInt(0)
}

// AccountOf returns a copy of addr's full account state, or nil if the
// account has never been touched.
func (e *Engine) AccountOf(addr domain.Address) *domain.Account {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, ok := e.accounts[addr]
	if !ok {
		return nil
	}
	cp := *a
	cp.Balance = a.Balance.Clone()
	cp.RewardDebt = a.RewardDebt.Clone()
	cp.Accrued = a.Accrued.Clone()
	return &cp
}

// TaxVaultBalance returns the un-swapped tax tokens awaiting processing.
func (e *Engine) TaxVaultBalance() *uint256.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.taxVault.Clone()
}

// IsPair reports whether addr is a registered AMM pair.
func (e *Engine) IsPair(addr domain.Address) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pairs[addr]
}

// Stats is a read-only snapshot of the global ledger counters.
type Stats struct {
	TotalSupply       *uint256.Int `json:"total_supply"`
	TaxVault          *uint256.Int `json:"tax_vault"`
	RewardVault       *uint256.Int `json:"reward_vault"`
	EligibleSupply    *uint256.Int `json:"eligible_supply"`
	AccRewardPerShare *uint256.Int `json:"acc_reward_per_share"`
	TotalDistributed  *uint256.Int `json:"total_distributed"`
	TotalClaimed      *uint256.Int `json:"total_claimed"`
	Escrow            *uint256.Int `json:"escrow"`
	Holders           int          `json:"holders"`
}

// Stats returns the current global counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		TotalSupply:       e.totalSupply.Clone(),
		TaxVault:          e.taxVault.Clone(),
		RewardVault:       e.rewardVault.Clone(),
		EligibleSupply:    e.eligibleSupply.Clone(),
		AccRewardPerShare: e.accPerShare.Clone(),
		TotalDistributed:  e.totalDistributed.Clone(),
		TotalClaimed:      e.totalClaimed.Clone(),
		Escrow:            e.escrow.Clone(),
		Holders:           len(e.accounts),
	}
}

// ─── Snapshot / Restore ─────────────────────────────────────────────────────
// The engine is authoritative in memory; the daemon persists snapshots and
// restores them at startup so the ledger survives restarts.

// Snapshot copies the complete ledger state.
func (e *Engine) Snapshot() domain.LedgerState {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := domain.LedgerState{
		TotalSupply:       e.totalSupply.Clone(),
		TaxVault:          e.taxVault.Clone(),
		RewardVault:       e.rewardVault.Clone(),
		AccRewardPerShare: e.accPerShare.Clone(),
		EligibleSupply:    e.eligibleSupply.Clone(),
		TotalDistributed:  e.totalDistributed.Clone(),
		TotalClaimed:      e.totalClaimed.Clone(),
		Escrow:            e.escrow.Clone(),
		Params:            e.params,
	}
	s.Params.MinBalance = e.params.MinBalance.Clone()

	for addr, a := range e.accounts {
		cp := *a
		cp.Balance = a.Balance.Clone()
		cp.RewardDebt = a.RewardDebt.Clone()
		cp.Accrued = a.Accrued.Clone()
		s.Accounts = append(s.Accounts, domain.AccountState{Address: addr, Account: cp})
	}
	for addr, b := range e.baseBalances {
		s.BaseBalances = append(s.BaseBalances, domain.BaseBalance{Address: addr, Amount: b.Clone()})
	}
	for p := range e.pairs {
		s.Pairs = append(s.Pairs, p)
	}
	for k := range e.keepers {
		s.Keepers = append(s.Keepers, k)
	}
	return s
}

// Restore replaces the ledger state with a previously taken snapshot.
func (e *Engine) Restore(s domain.LedgerState) error {
	if err := s.Params.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.accounts = make(map[domain.Address]*domain.Account, len(s.Accounts))
	for _, as := range s.Accounts {
		a := as.Account
		a.Balance = as.Account.Balance.Clone()
		a.RewardDebt = as.Account.RewardDebt.Clone()
		a.Accrued = as.Account.Accrued.Clone()
		e.accounts[as.Address] = &a
	}
	e.baseBalances = make(map[domain.Address]*uint256.Int, len(s.BaseBalances))
	for _, bb := range s.BaseBalances {
		e.baseBalances[bb.Address] = bb.Amount.Clone()
	}
	e.pairs = make(map[domain.Address]bool, len(s.Pairs))
	for _, p := range s.Pairs {
		e.pairs[p] = true
	}
	e.keepers = make(map[domain.Address]bool, len(s.Keepers))
	for _, k := range s.Keepers {
		e.keepers[k] = true
	}

	e.totalSupply = s.TotalSupply.Clone()
	e.taxVault = s.TaxVault.Clone()
	e.rewardVault = s.RewardVault.Clone()
	e.accPerShare = s.AccRewardPerShare.Clone()
	e.eligibleSupply = s.EligibleSupply.Clone()
	e.totalDistributed = s.TotalDistributed.Clone()
	e.totalClaimed = s.TotalClaimed.Clone()
	e.escrow = s.Escrow.Clone()
	e.params = s.Params
	e.params.MinBalance = s.Params.MinBalance.Clone()
	e.updateGauges()
	return nil
}
