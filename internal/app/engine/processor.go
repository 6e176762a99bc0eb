package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"github.com/feeflow-network/feeflow/internal/domain"
	"github.com/feeflow-network/feeflow/internal/infra/observability"
)

// ─── Tax Processor ──────────────────────────────────────────────────────────

// ProcessResult is the committed breakdown of one processed batch.
type ProcessResult struct {
	AmountIn    *uint256.Int `json:"amount_in"`
	AmountOut   *uint256.Int `json:"amount_out"`
	ToReward    *uint256.Int `json:"to_reward"`
	ToBurn      *uint256.Int `json:"to_burn"`
	ToMarketing *uint256.Int `json:"to_marketing"`
	ToTeam      *uint256.Int `json:"to_team"`
}

// Process drains maxAmount of collected tax tokens through the swap service
// and splits the proceeds across the destination vaults.
//
// The swap is untrusted external code, so Process follows a strict
// call-then-verify boundary: everything is computed on a snapshot, the lock
// is not held across the external call, and no ledger state mutates until
// the swap has returned successfully. A swap failure of any kind leaves the
// vault byte-for-byte unchanged.
func (e *Engine) Process(ctx context.Context, caller domain.Address, maxAmount, minOut *uint256.Int, deadline time.Time) (*ProcessResult, error) {
	e.mu.Lock()

	if caller != e.owner && !e.keepers[caller] {
		e.mu.Unlock()
		return nil, domain.ErrUnauthorized
	}
	if maxAmount == nil || maxAmount.IsZero() {
		e.mu.Unlock()
		return nil, domain.ErrAmountZero
	}
	if e.processing {
		e.mu.Unlock()
		return nil, domain.ErrProcessingBusy
	}
	if e.taxVault.Lt(maxAmount) {
		// No silent clamping: stale amounts are the keeper's problem.
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: tax vault holds %s, requested %s", domain.ErrInsufficientBalance, e.taxVault.Dec(), maxAmount.Dec())
	}

	split := e.params.Split
	burnFromInput := e.params.BurnFromInput

	burnIn := uint256.NewInt(0)
	if burnFromInput {
		var err error
		burnIn, err = domain.MulBps(maxAmount, split.Burn)
		if err != nil {
			e.mu.Unlock()
			return nil, err
		}
	}
	swapIn := new(uint256.Int).Sub(maxAmount, burnIn)

	if e.swap == nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: no swap service configured", domain.ErrInvalidConfiguration)
	}

	// External call with the lock released; the processing flag keeps any
	// other batch (and the swap service calling back into Process) out
	// until this one commits or aborts.
	e.processing = true
	e.mu.Unlock()

	out := uint256.NewInt(0)
	var swapErr error
	if !swapIn.IsZero() {
		out, swapErr = e.swap.Swap(ctx, swapIn, minOut, deadline)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.processing = false

	if swapErr != nil {
		observability.ProcessFailures.Inc()
		return nil, fmt.Errorf("swap %s tokens: %w", swapIn.Dec(), swapErr)
	}

	// Verify post-conditions before committing. Transfers may have run while
	// the swap was in flight, but they only ever grow the vault.
	if e.taxVault.Lt(maxAmount) {
		return nil, fmt.Errorf("%w: tax vault shrank below %s during swap", domain.ErrInsufficientBalance, maxAmount.Dec())
	}

	res, err := splitProceeds(out, split, burnFromInput, burnIn)
	if err != nil {
		return nil, err
	}
	res.AmountIn = maxAmount.Clone()

	dist, err := e.previewDistribute(res.ToReward)
	if err != nil {
		return nil, err
	}

	// Commit: drain, burn, credit, and advance the accumulator in one step.
	// The reward vault balance and the accumulator must move together or
	// claims desync from funds. Nothing below can fail.
	e.taxVault = new(uint256.Int).Sub(e.taxVault, maxAmount)
	if !burnIn.IsZero() {
		dead := e.account(domain.DeadAddress)
		e.settle(dead)
		e.applyBalance(dead, new(uint256.Int).Add(dead.Balance, burnIn))
	}
	e.rewardVault = new(uint256.Int).Add(e.rewardVault, res.ToReward)
	e.applyDistribute(dist)
	e.creditBase(e.marketing, res.ToMarketing)
	e.creditBase(e.team, res.ToTeam)
	if !burnFromInput && !res.ToBurn.IsZero() {
		e.creditBase(domain.DeadAddress, res.ToBurn)
	}

	e.emit(domain.Event{
		Type:        domain.EvProcessed,
		AmountIn:    res.AmountIn.Clone(),
		AmountOut:   res.AmountOut.Clone(),
		ToReward:    res.ToReward.Clone(),
		ToBurn:      res.ToBurn.Clone(),
		ToMarketing: res.ToMarketing.Clone(),
		ToTeam:      res.ToTeam.Clone(),
	})
	observability.ProcessedBatches.Inc()
	e.updateGauges()
	return res, nil
}

// splitProceeds divides the swapped output across reward, burn, marketing,
// and team shares. Rounding dust always accrues to the last-computed
// destination (team) so nothing is silently lost.
//
// Under the burn-from-input policy the burn share never reaches the swap, so
// the output is divided over the remaining basis points.
func splitProceeds(out *uint256.Int, split domain.SplitConfig, burnFromInput bool, burnIn *uint256.Int) (*ProcessResult, error) {
	res := &ProcessResult{
		AmountOut:   out.Clone(),
		ToReward:    uint256.NewInt(0),
		ToBurn:      uint256.NewInt(0),
		ToMarketing: uint256.NewInt(0),
		ToTeam:      uint256.NewInt(0),
	}

	denom := uint256.NewInt(domain.BpsDenominator)
	if burnFromInput {
		res.ToBurn = burnIn.Clone()
		rem := domain.BpsDenominator - int(split.Burn)
		if rem == 0 {
			// Everything burned in kind; no proceeds to divide.
			return res, nil
		}
		denom = uint256.NewInt(uint64(rem))
	}

	reward, err := domain.MulDiv(out, uint256.NewInt(uint64(split.Reward)), denom)
	if err != nil {
		return nil, err
	}
	marketing, err := domain.MulDiv(out, uint256.NewInt(uint64(split.Marketing)), denom)
	if err != nil {
		return nil, err
	}
	res.ToReward = reward
	res.ToMarketing = marketing

	rest := new(uint256.Int).Sub(out, reward)
	rest.Sub(rest, marketing)

	if !burnFromInput {
		burn, err := domain.MulDiv(out, uint256.NewInt(uint64(split.Burn)), denom)
		if err != nil {
			return nil, err
		}
		res.ToBurn = burn
		rest.Sub(rest, burn)
	}
	res.ToTeam = rest
	return res, nil
}
