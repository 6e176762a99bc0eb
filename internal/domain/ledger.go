package domain

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"
)

// ─── Engine Parameters ──────────────────────────────────────────────────────

// Params are the owner-tunable ledger parameters.
type Params struct {
	BuyTaxBps  Bps
	SellTaxBps Bps

	// Split of each processed batch across destination vaults.
	Split SplitConfig

	// BurnFromInput selects the burn policy: when true the burn share is
	// carved out of the raw tax tokens before the swap and sent to the dead
	// address; when false it is taken from the swapped proceeds.
	BurnFromInput bool

	// Claim eligibility gates.
	MinBalance    *uint256.Int
	MinHoldTime   time.Duration
	ClaimCooldown time.Duration
}

// Validate checks parameter ranges.
func (p Params) Validate() error {
	if !p.BuyTaxBps.Valid() {
		return fmt.Errorf("%w: buy tax %d bps exceeds %d", ErrInvalidConfiguration, p.BuyTaxBps, BpsDenominator)
	}
	if !p.SellTaxBps.Valid() {
		return fmt.Errorf("%w: sell tax %d bps exceeds %d", ErrInvalidConfiguration, p.SellTaxBps, BpsDenominator)
	}
	if err := p.Split.Validate(); err != nil {
		return err
	}
	if p.MinHoldTime < 0 || p.ClaimCooldown < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidConfiguration)
	}
	return nil
}

// ─── Ledger State ───────────────────────────────────────────────────────────
// The engine is authoritative in memory; LedgerState is the full serializable
// form used by the store for snapshots and by the daemon for restarts.

// AccountState pairs an address with its account for persistence.
type AccountState struct {
	Address Address
	Account Account
}

// BaseBalance pairs a destination address with its base-asset funds.
type BaseBalance struct {
	Address Address
	Amount  *uint256.Int
}

// LedgerState is the complete serializable ledger state.
type LedgerState struct {
	Accounts     []AccountState
	BaseBalances []BaseBalance
	Pairs        []Address
	Keepers      []Address

	TotalSupply       *uint256.Int
	TaxVault          *uint256.Int
	RewardVault       *uint256.Int
	AccRewardPerShare *uint256.Int
	EligibleSupply    *uint256.Int
	TotalDistributed  *uint256.Int
	TotalClaimed      *uint256.Int
	Escrow            *uint256.Int

	Params Params
}
