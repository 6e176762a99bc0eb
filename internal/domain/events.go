package domain

import (
	"time"

	"github.com/holiman/uint256"
)

// ─── Ledger Events ──────────────────────────────────────────────────────────
// Every committed state change emits one event. Events are journaled by the
// infrastructure layer and read back by external tooling.

// EventType names a ledger event.
type EventType string

const (
	EvTransferExecuted  EventType = "TRANSFER_EXECUTED"
	EvTaxCollected      EventType = "TAX_COLLECTED"
	EvProcessed         EventType = "PROCESSED"
	EvRewardDistributed EventType = "REWARD_DISTRIBUTED"
	EvRewardClaimed     EventType = "REWARD_CLAIMED"
)

// Event is a journaled ledger event. ID is assigned by the journal.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// Endpoints; unused fields are the zero address.
	From Address `json:"from,omitempty"`
	To   Address `json:"to,omitempty"`

	// Primary amount: transferred, collected, distributed, or claimed.
	Amount *uint256.Int `json:"amount,omitempty"`

	// Transfer classification (transfer and tax events only).
	Kind TransferKind `json:"kind,omitempty"`

	// Processed batch breakdown (EvProcessed only).
	AmountIn    *uint256.Int `json:"amount_in,omitempty"`
	AmountOut   *uint256.Int `json:"amount_out,omitempty"`
	ToReward    *uint256.Int `json:"to_reward,omitempty"`
	ToBurn      *uint256.Int `json:"to_burn,omitempty"`
	ToMarketing *uint256.Int `json:"to_marketing,omitempty"`
	ToTeam      *uint256.Int `json:"to_team,omitempty"`
}

// EventSink receives committed events. Implementations must not fail the
// originating operation; journaling is best-effort after commit.
type EventSink interface {
	Append(ev Event)
}
