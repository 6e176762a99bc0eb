// Package swap provides SwapService implementations. The engine treats the
// swap as untrusted external code: implementations enforce the caller's
// minimum output and deadline, and any error aborts the enclosing batch.
package swap

import (
	"context"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"

	"github.com/feeflow-network/feeflow/internal/domain"
)

// ─── Fixed-Rate Swapper ─────────────────────────────────────────────────────

// FixedRate converts tax tokens to the base asset at a constant
// numerator/denominator rate. Used by dev and simulation deployments where
// no live market is attached.
type FixedRate struct {
	num   *uint256.Int
	den   *uint256.Int
	clock clockwork.Clock
}

// NewFixedRate builds a fixed-rate swapper paying num/den base units per
// token. den must be nonzero.
func NewFixedRate(num, den uint64, clock clockwork.Clock) (*FixedRate, error) {
	if den == 0 {
		return nil, fmt.Errorf("%w: zero rate denominator", domain.ErrInvalidConfiguration)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &FixedRate{num: uint256.NewInt(num), den: uint256.NewInt(den), clock: clock}, nil
}

// Swap converts amountIn at the fixed rate, honoring deadline and minAmountOut.
func (f *FixedRate) Swap(ctx context.Context, amountIn, minAmountOut *uint256.Int, deadline time.Time) (*uint256.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !deadline.IsZero() && f.clock.Now().After(deadline) {
		return nil, domain.ErrDeadlineExpired
	}
	out, err := domain.MulDiv(amountIn, f.num, f.den)
	if err != nil {
		return nil, err
	}
	if minAmountOut != nil && out.Lt(minAmountOut) {
		return nil, fmt.Errorf("%w: output %s, minimum %s", domain.ErrSlippageExceeded, out.Dec(), minAmountOut.Dec())
	}
	return out, nil
}

// ─── Failing Swapper ────────────────────────────────────────────────────────

// Failing always returns the configured error. It stands in for an invalid
// or unreachable router when exercising atomic-failure paths.
type Failing struct {
	Err error
}

// Swap fails unconditionally.
func (f *Failing) Swap(context.Context, *uint256.Int, *uint256.Int, time.Time) (*uint256.Int, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return nil, fmt.Errorf("swap router unreachable")
}
