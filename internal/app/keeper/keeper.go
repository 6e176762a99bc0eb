// Package keeper runs the automatic batch processor. It watches the tax
// vault and drains it through the engine's Process operation whenever the
// collected amount crosses a threshold, so the vault never needs a manual
// keeper on healthy deployments.
package keeper

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"

	"github.com/feeflow-network/feeflow/internal/app/engine"
	"github.com/feeflow-network/feeflow/internal/domain"
)

// Config controls the automatic processor.
type Config struct {
	// Caller must hold the keeper role (or be the owner) on the engine.
	Caller domain.Address

	// Threshold is the vault balance that triggers a batch.
	Threshold *uint256.Int

	// MaxBatch caps the amount drained per batch. Zero or nil means the
	// whole vault.
	MaxBatch *uint256.Int

	// Interval between vault checks.
	Interval time.Duration

	// Deadline applied to each batch's swap.
	Deadline time.Duration
}

// DefaultConfig returns conservative keeper defaults.
func DefaultConfig() Config {
	return Config{
		Threshold: uint256.NewInt(0),
		Interval:  time.Minute,
		Deadline:  time.Minute,
	}
}

// Keeper periodically drains the tax vault.
type Keeper struct {
	cfg   Config
	eng   *engine.Engine
	clock clockwork.Clock
	log   *slog.Logger

	processed atomic.Int64
	failed    atomic.Int64
}

// New creates a keeper over the engine. clock and log may be nil.
func New(cfg Config, eng *engine.Engine, clock clockwork.Clock, log *slog.Logger) *Keeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Deadline <= 0 {
		cfg.Deadline = time.Minute
	}
	if cfg.Threshold == nil {
		cfg.Threshold = uint256.NewInt(0)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Keeper{cfg: cfg, eng: eng, clock: clock, log: log}
}

// Run checks the vault every interval until ctx is canceled. Batch failures
// are logged and retried on the next tick.
func (k *Keeper) Run(ctx context.Context) {
	ticker := k.clock.NewTicker(k.cfg.Interval)
	defer ticker.Stop()
	k.log.Info("keeper started",
		"interval", k.cfg.Interval,
		"threshold", k.cfg.Threshold.Dec())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			k.runOnce(ctx)
		}
	}
}

// runOnce drains one batch if the vault has crossed the threshold.
func (k *Keeper) runOnce(ctx context.Context) {
	vault := k.eng.TaxVaultBalance()
	if vault.IsZero() || vault.Lt(k.cfg.Threshold) {
		return
	}
	amount := vault
	if k.cfg.MaxBatch != nil && !k.cfg.MaxBatch.IsZero() && amount.Gt(k.cfg.MaxBatch) {
		amount = k.cfg.MaxBatch.Clone()
	}

	deadline := k.clock.Now().Add(k.cfg.Deadline)
	res, err := k.eng.Process(ctx, k.cfg.Caller, amount, nil, deadline)
	if err != nil {
		k.failed.Add(1)
		k.log.Error("automatic batch failed", "amount", amount.Dec(), "err", err)
		return
	}
	k.processed.Add(1)
	k.log.Info("batch processed",
		"amount_in", res.AmountIn.Dec(),
		"amount_out", res.AmountOut.Dec(),
		"to_reward", res.ToReward.Dec())
}

// Processed returns the number of batches committed so far.
func (k *Keeper) Processed() int64 { return k.processed.Load() }

// Failed returns the number of batches that aborted.
func (k *Keeper) Failed() int64 { return k.failed.Load() }
