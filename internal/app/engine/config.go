package engine

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"github.com/feeflow-network/feeflow/internal/domain"
)

// ─── Owner Configuration Surface ────────────────────────────────────────────
// Every setter is owner-gated and validates before committing. Rejected
// changes leave the running parameters untouched.

func (e *Engine) requireOwner(caller domain.Address) error {
	if caller != e.owner {
		return domain.ErrUnauthorized
	}
	return nil
}

// SetTaxes updates the buy and sell tax rates.
func (e *Engine) SetTaxes(caller domain.Address, buy, sell domain.Bps) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if !buy.Valid() || !sell.Valid() {
		return fmt.Errorf("%w: tax bps above %d", domain.ErrInvalidConfiguration, domain.BpsDenominator)
	}
	e.params.BuyTaxBps, e.params.SellTaxBps = buy, sell
	return nil
}

// SetPair registers or unregisters an AMM pair address.
func (e *Engine) SetPair(caller, pair domain.Address, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if pair.IsZero() {
		return fmt.Errorf("%w: pair address is zero", domain.ErrInvalidConfiguration)
	}
	if enabled {
		e.pairs[pair] = true
	} else {
		delete(e.pairs, pair)
	}
	return nil
}

// SetExcludedFromTax marks addr as never taxed on either leg.
func (e *Engine) SetExcludedFromTax(caller, addr domain.Address, excluded bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.account(addr).ExcludedFromTax = excluded
	return nil
}

// SetExcludedFromRewards toggles reward eligibility for addr.
//
// Excluding settles the holder's accrual up to now (kept, claimable again
// after re-inclusion) and removes the balance from eligibleSupply; including
// re-snapshots the accumulator so no accrual applies retroactively.
func (e *Engine) SetExcludedFromRewards(caller, addr domain.Address, excluded bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	a := e.account(addr)
	if a.ExcludedFromRewards == excluded {
		return nil
	}
	if excluded {
		e.settle(a)
		a.ExcludedFromRewards = true
		e.eligibleSupply = new(uint256.Int).Sub(e.eligibleSupply, a.Balance)
	} else {
		a.ExcludedFromRewards = false
		a.RewardDebt = e.accPerShare.Clone()
		e.eligibleSupply = new(uint256.Int).Add(e.eligibleSupply, a.Balance)
	}
	e.updateGauges()
	return nil
}

// SetKeeper grants or revokes the keeper role for addr.
func (e *Engine) SetKeeper(caller, addr domain.Address, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if enabled {
		e.keepers[addr] = true
	} else {
		delete(e.keepers, addr)
	}
	return nil
}

// SetMinBalance updates the minimum balance required to claim.
func (e *Engine) SetMinBalance(caller domain.Address, min *uint256.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if min == nil {
		min = uint256.NewInt(0)
	}
	e.params.MinBalance = min.Clone()
	return nil
}

// SetMinHoldTime updates the hold duration required before a first claim.
func (e *Engine) SetMinHoldTime(caller domain.Address, d time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if d < 0 {
		return fmt.Errorf("%w: negative hold time", domain.ErrInvalidConfiguration)
	}
	e.params.MinHoldTime = d
	return nil
}

// SetClaimCooldown updates the interval enforced between claims.
func (e *Engine) SetClaimCooldown(caller domain.Address, d time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if d < 0 {
		return fmt.Errorf("%w: negative cooldown", domain.ErrInvalidConfiguration)
	}
	e.params.ClaimCooldown = d
	return nil
}

// SetSplit replaces the proceeds split. The shares must sum to 10000 bps.
func (e *Engine) SetSplit(caller domain.Address, split domain.SplitConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := split.Validate(); err != nil {
		return err
	}
	e.params.Split = split
	return nil
}

// SetBurnFromInput selects between the raw-token burn carve-out and the
// post-swap proceeds burn.
func (e *Engine) SetBurnFromInput(caller domain.Address, v bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.params.BurnFromInput = v
	return nil
}

// Params returns a copy of the current parameters.
func (e *Engine) Params() domain.Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.params
	p.MinBalance = e.params.MinBalance.Clone()
	return p
}
