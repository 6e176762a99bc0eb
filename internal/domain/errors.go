package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency. Every terminal
// failure carries a distinguishable kind so calling tooling can branch on
// cause instead of string-matching.

var (
	// Access control
	ErrUnauthorized = errors.New("caller is not owner or keeper")

	// Transfer / processing errors
	ErrAmountZero          = errors.New("amount must be nonzero")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrSlippageExceeded    = errors.New("swap output below minimum")
	ErrDeadlineExpired     = errors.New("swap deadline expired")
	ErrProcessingBusy      = errors.New("a processing batch is already in flight")

	// Claim eligibility errors
	ErrExcludedFromRewards = errors.New("account is excluded from rewards")
	ErrMinBalanceNotMet    = errors.New("balance below claim minimum")
	ErrHoldTimeNotMet      = errors.New("minimum hold time not reached")
	ErrClaimCooldownActive = errors.New("claim cooldown still active")
	ErrNothingToClaim      = errors.New("no pending rewards")

	// Configuration errors
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// Arithmetic errors
	ErrOverflow = errors.New("arithmetic overflow")
)
