// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture — it depends on nothing
// but the arithmetic library.
package domain

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/holiman/uint256"
)

// ─── Addresses ──────────────────────────────────────────────────────────────

// AddressLength is the byte length of an account address.
const AddressLength = 20

// Address identifies an account on the ledger.
type Address [AddressLength]byte

// Well-known addresses.
var (
	// ZeroAddress is the all-zero address. Never holds a balance.
	ZeroAddress = Address{}

	// DeadAddress receives burned tokens. Always excluded from rewards.
	DeadAddress = mustParseAddress("0x000000000000000000000000000000000000dEaD")
)

// ParseAddress parses a 0x-prefixed 40-digit hex string into an Address.
func ParseAddress(s string) (Address, error) {
	var a Address
	h := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(h) != AddressLength*2 {
		return a, fmt.Errorf("address %q: want %d hex digits, got %d", s, AddressLength*2, len(h))
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return a, fmt.Errorf("address %q: %w", s, err)
	}
	copy(a[:], b)
	return a, nil
}

func mustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String formats the address as 0x-prefixed lowercase hex.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether the address is the zero address.
func (a Address) IsZero() bool { return a == ZeroAddress }

// ─── Basis Points ───────────────────────────────────────────────────────────

// Bps is a fee or split ratio expressed in basis points (1/10000).
type Bps uint16

// BpsDenominator is the full scale for basis-point ratios: 10000 bps = 100%.
const BpsDenominator = 10_000

// Valid reports whether the ratio is at most 100%.
func (b Bps) Valid() bool { return b <= BpsDenominator }

// SplitConfig describes how swapped tax proceeds are divided across the
// destination vaults. The four shares must sum to exactly BpsDenominator.
type SplitConfig struct {
	Reward    Bps `json:"reward_bps"`
	Burn      Bps `json:"burn_bps"`
	Marketing Bps `json:"marketing_bps"`
	Team      Bps `json:"team_bps"`
}

// Validate checks that the split covers exactly 100%.
func (s SplitConfig) Validate() error {
	sum := int(s.Reward) + int(s.Burn) + int(s.Marketing) + int(s.Team)
	if sum != BpsDenominator {
		return fmt.Errorf("%w: split bps sum to %d, want %d", ErrInvalidConfiguration, sum, BpsDenominator)
	}
	return nil
}

// ─── Accounts ───────────────────────────────────────────────────────────────

// Account is the per-holder ledger state. Accounts are created implicitly,
// zero-valued, on first balance change.
type Account struct {
	Balance             *uint256.Int `json:"balance"`
	ExcludedFromTax     bool         `json:"excluded_from_tax"`
	ExcludedFromRewards bool         `json:"excluded_from_rewards"`

	// LastNonZeroAt is the start of the current hold window. It resets on a
	// zero→nonzero transition and on any balance decrease that leaves the
	// balance nonzero; reaching exactly zero does not touch it.
	LastNonZeroAt time.Time `json:"last_non_zero_at"`

	// RewardDebt snapshots the global accumulator at the last settlement.
	RewardDebt *uint256.Int `json:"reward_debt"`

	// Accrued carries rewards settled on balance changes but not yet claimed.
	Accrued *uint256.Int `json:"accrued"`

	// LastClaimAt is the last successful claim; zero time means never claimed.
	LastClaimAt time.Time `json:"last_claim_at"`
}

// NewAccount returns a zero-valued account.
func NewAccount() *Account {
	return &Account{
		Balance:    uint256.NewInt(0),
		RewardDebt: uint256.NewInt(0),
		Accrued:    uint256.NewInt(0),
	}
}

// ─── Transfer Classification ────────────────────────────────────────────────

// TransferKind classifies a transfer leg for tax purposes.
type TransferKind string

const (
	// KindBuy is a transfer out of a registered AMM pair to a wallet.
	KindBuy TransferKind = "BUY"
	// KindSell is a transfer from a wallet into a registered AMM pair.
	KindSell TransferKind = "SELL"
	// KindWallet is an ordinary untaxed wallet-to-wallet (or pair-to-pair) leg.
	KindWallet TransferKind = "WALLET"
	// KindExempt is a leg touching a tax-exempt party.
	KindExempt TransferKind = "EXEMPT"
)

// Taxed reports whether transfers of this kind carry tax.
func (k TransferKind) Taxed() bool { return k == KindBuy || k == KindSell }
