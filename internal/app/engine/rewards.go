package engine

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/feeflow-network/feeflow/internal/domain"
	"github.com/feeflow-network/feeflow/internal/infra/observability"
)

// ─── Reward Ledger ──────────────────────────────────────────────────────────
// Reward-per-share accrual: the global accumulator advances by
// amount*SCALE/eligibleSupply per distribution, and each holder's claim is
// balance*(acc-debt)/SCALE plus the remainder settled on balance changes.
// No iteration over holders ever happens on the distribution path.

// distribution is the precomputed, not-yet-committed effect of one reward
// deposit on the global accrual state.
type distribution struct {
	acc    *uint256.Int // new accumulator value
	total  *uint256.Int // amount actually distributed now
	escrow *uint256.Int // new escrow value
}

// previewDistribute computes the accrual effect of depositing amount without
// mutating anything, so the caller can fold it into a larger atomic commit.
// If no holder is currently eligible the amount is escrowed, never lost, and
// folds into the next distribution. Caller holds e.mu.
func (e *Engine) previewDistribute(amount *uint256.Int) (distribution, error) {
	if amount.IsZero() {
		return distribution{acc: e.accPerShare, total: uint256.NewInt(0), escrow: e.escrow}, nil
	}
	total, err := domain.SafeAdd(amount, e.escrow)
	if err != nil {
		return distribution{}, err
	}
	if e.eligibleSupply.IsZero() {
		return distribution{acc: e.accPerShare, total: uint256.NewInt(0), escrow: total}, nil
	}
	delta, err := domain.MulDiv(total, domain.AccScale, e.eligibleSupply)
	if err != nil {
		return distribution{}, err
	}
	acc, err := domain.SafeAdd(e.accPerShare, delta)
	if err != nil {
		return distribution{}, err
	}
	return distribution{acc: acc, total: total, escrow: uint256.NewInt(0)}, nil
}

// applyDistribute commits a previewed distribution. Caller holds e.mu.
func (e *Engine) applyDistribute(d distribution) {
	e.accPerShare = d.acc
	e.escrow = d.escrow
	if d.total.IsZero() {
		return
	}
	e.totalDistributed = new(uint256.Int).Add(e.totalDistributed, d.total)
	e.emit(domain.Event{Type: domain.EvRewardDistributed, Amount: d.total.Clone()})
	observability.Distributions.Inc()
}

// pendingLocked computes the holder's claimable amount. Pure; caller holds e.mu.
func (e *Engine) pendingLocked(a *domain.Account) *uint256.Int {
	if a == nil || a.ExcludedFromRewards {
		return uint256.NewInt(0)
	}
	delta := new(uint256.Int).Sub(e.accPerShare, a.RewardDebt)
	pending := a.Accrued.Clone()
	if !delta.IsZero() && !a.Balance.IsZero() {
		earned, err := domain.MulDiv(a.Balance, delta, domain.AccScale)
		if err == nil {
			pending = new(uint256.Int).Add(pending, earned)
		}
	}
	return pending
}

// Pending returns the unclaimed reward for holder. Safe to call for any
// address, including unknown ones, and never mutates state.
func (e *Engine) Pending(holder domain.Address) *uint256.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pendingLocked(e.accounts[holder])
}

// Claim pays out the caller's pending rewards from the reward vault.
//
// Eligibility gates run in fixed order so failures report deterministically:
// exclusion, minimum balance, hold time (first claim), cooldown (repeat
// claims), then empty pending. A failed claim leaves every checkpoint
// bit-for-bit unchanged.
func (e *Engine) Claim(caller domain.Address) (*uint256.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a := e.account(caller)
	now := e.clock.Now()

	if a.ExcludedFromRewards {
		observability.ClaimRejections.WithLabelValues("excluded").Inc()
		return nil, domain.ErrExcludedFromRewards
	}
	if a.Balance.Lt(e.params.MinBalance) {
		observability.ClaimRejections.WithLabelValues("min_balance").Inc()
		return nil, fmt.Errorf("%w: balance %s, minimum %s", domain.ErrMinBalanceNotMet, a.Balance.Dec(), e.params.MinBalance.Dec())
	}
	if a.LastClaimAt.IsZero() {
		if held := now.Sub(a.LastNonZeroAt); held < e.params.MinHoldTime {
			observability.ClaimRejections.WithLabelValues("hold_time").Inc()
			return nil, fmt.Errorf("%w: held %s of %s", domain.ErrHoldTimeNotMet, held, e.params.MinHoldTime)
		}
	} else {
		if since := now.Sub(a.LastClaimAt); since < e.params.ClaimCooldown {
			observability.ClaimRejections.WithLabelValues("cooldown").Inc()
			return nil, fmt.Errorf("%w: %s of %s elapsed", domain.ErrClaimCooldownActive, since, e.params.ClaimCooldown)
		}
	}

	pending := e.pendingLocked(a)
	if pending.IsZero() {
		observability.ClaimRejections.WithLabelValues("nothing").Inc()
		return nil, domain.ErrNothingToClaim
	}

	vault, err := domain.SafeSub(e.rewardVault, pending)
	if err != nil {
		return nil, fmt.Errorf("%w: reward vault %s, claim %s", domain.ErrInsufficientBalance, e.rewardVault.Dec(), pending.Dec())
	}

	// Settle: all of this commits together or the claim has already failed.
	e.rewardVault = vault
	e.creditBase(caller, pending)
	e.totalClaimed = new(uint256.Int).Add(e.totalClaimed, pending)
	a.Accrued = uint256.NewInt(0)
	a.RewardDebt = e.accPerShare.Clone()
	a.LastClaimAt = now

	e.emit(domain.Event{Type: domain.EvRewardClaimed, From: caller, Amount: pending.Clone()})
	observability.ClaimsTotal.Inc()
	return pending, nil
}
