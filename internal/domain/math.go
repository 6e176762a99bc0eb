package domain

import (
	"fmt"

	"github.com/holiman/uint256"
)

// ─── Checked Arithmetic ─────────────────────────────────────────────────────
// Token economics treats overflow as a fatal, revert-worthy condition, never
// wraparound. All mutating paths go through these helpers.

// AccScale is the fixed-point scale of the reward-per-share accumulator.
var AccScale = uint256.MustFromDecimal("1000000000000000000") // 1e18

// SafeAdd returns a+b, or ErrOverflow if the sum does not fit in 256 bits.
func SafeAdd(a, b *uint256.Int) (*uint256.Int, error) {
	sum, carry := new(uint256.Int).AddOverflow(a, b)
	if carry {
		return nil, fmt.Errorf("%w: %s + %s", ErrOverflow, a.Dec(), b.Dec())
	}
	return sum, nil
}

// SafeSub returns a-b, or ErrOverflow if b > a.
func SafeSub(a, b *uint256.Int) (*uint256.Int, error) {
	diff, borrow := new(uint256.Int).SubOverflow(a, b)
	if borrow {
		return nil, fmt.Errorf("%w: %s - %s", ErrOverflow, a.Dec(), b.Dec())
	}
	return diff, nil
}

// MulDiv returns a*b/d with a 512-bit intermediate product, or ErrOverflow
// if the quotient does not fit in 256 bits. d must be nonzero.
func MulDiv(a, b, d *uint256.Int) (*uint256.Int, error) {
	q, overflow := new(uint256.Int).MulDivOverflow(a, b, d)
	if overflow {
		return nil, fmt.Errorf("%w: %s * %s / %s", ErrOverflow, a.Dec(), b.Dec(), d.Dec())
	}
	return q, nil
}

// MulBps returns amount*bps/10000, truncating toward zero. Tiny amounts that
// truncate to zero simply carry zero tax — there is no special-cased minimum.
func MulBps(amount *uint256.Int, bps Bps) (*uint256.Int, error) {
	return MulDiv(amount, uint256.NewInt(uint64(bps)), uint256.NewInt(BpsDenominator))
}
