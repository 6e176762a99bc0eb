package domain

import (
	"context"
	"time"

	"github.com/holiman/uint256"
)

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; the engine depends on them.

// SwapService converts tax tokens into the base asset at prevailing market
// price. It is untrusted external code: any error is fatal to the enclosing
// operation, and implementations must enforce minAmountOut and deadline
// themselves (returning ErrSlippageExceeded / ErrDeadlineExpired).
type SwapService interface {
	Swap(ctx context.Context, amountIn, minAmountOut *uint256.Int, deadline time.Time) (*uint256.Int, error)
}
