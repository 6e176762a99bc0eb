package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"
	"github.com/lmittmann/tint"

	"github.com/feeflow-network/feeflow/internal/api"
	"github.com/feeflow-network/feeflow/internal/app/engine"
	"github.com/feeflow-network/feeflow/internal/app/keeper"
	"github.com/feeflow-network/feeflow/internal/domain"
	"github.com/feeflow-network/feeflow/internal/infra/sqlite"
	"github.com/feeflow-network/feeflow/internal/infra/swap"
)

// ─── Daemon ─────────────────────────────────────────────────────────────────

// Daemon owns the running engine, its storage, and the HTTP server.
type Daemon struct {
	cfg Config
	log *slog.Logger

	eng     *engine.Engine
	db      *sqlite.DB
	journal *sqlite.Journal
	keeper  *keeper.Keeper
	server  *http.Server
}

// New assembles a daemon from config: it opens the snapshot store, restores
// the last persisted ledger if one exists, and mounts the HTTP API.
func New(cfg Config) (*Daemon, error) {
	log := NewLogger(cfg.Log)

	owner, err := domain.ParseAddress(cfg.Engine.Owner)
	if err != nil {
		return nil, fmt.Errorf("engine.owner: %w", err)
	}
	params, err := engineParams(cfg)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Storage.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := sqlite.Open(filepath.Join(cfg.Storage.Path, "ledger.db"))
	if err != nil {
		return nil, fmt.Errorf("open ledger store: %w", err)
	}
	journal, err := sqlite.NewJournal(db, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open event journal: %w", err)
	}

	sw, err := swap.NewFixedRate(cfg.Swap.RateNum, cfg.Swap.RateDen, nil)
	if err != nil {
		db.Close()
		return nil, err
	}

	ecfg := engine.Config{
		Owner:  owner,
		Params: params,
		Swap:   sw,
		Sink:   journal,
		Clock:  clockwork.NewRealClock(),
	}
	if cfg.Engine.Marketing != "" {
		if ecfg.Marketing, err = domain.ParseAddress(cfg.Engine.Marketing); err != nil {
			db.Close()
			return nil, fmt.Errorf("engine.marketing: %w", err)
		}
	}
	if cfg.Engine.Team != "" {
		if ecfg.Team, err = domain.ParseAddress(cfg.Engine.Team); err != nil {
			db.Close()
			return nil, fmt.Errorf("engine.team: %w", err)
		}
	}

	// The initial supply only mints on a genesis boot; a restored snapshot
	// replaces the whole ledger including supply.
	state, restored, err := db.LoadLedger()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load ledger snapshot: %w", err)
	}
	if !restored {
		supply, err := uint256.FromDecimal(cfg.Engine.InitialSupply)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("engine.initial_supply: %w", err)
		}
		ecfg.InitialSupply = supply
	}

	eng, err := engine.New(ecfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	if restored {
		if err := eng.Restore(state); err != nil {
			db.Close()
			return nil, fmt.Errorf("restore ledger snapshot: %w", err)
		}
		log.Info("ledger restored from snapshot",
			"holders", len(state.Accounts),
			"tax_vault", state.TaxVault.Dec())
	} else {
		log.Info("ledger initialized at genesis", "initial_supply", cfg.Engine.InitialSupply)
	}

	srv := api.NewServer(eng, journal)
	if cfg.API.Metrics {
		srv.EnableMetrics()
	}

	var kpr *keeper.Keeper
	if cfg.Keeper.Enabled {
		kpr, err = buildKeeper(cfg.Keeper, eng, log)
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Daemon{
		cfg:     cfg,
		log:     log,
		eng:     eng,
		db:      db,
		journal: journal,
		keeper:  kpr,
		server: &http.Server{
			Addr:              cfg.API.Addr(),
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Engine exposes the running engine, mainly for tests.
func (d *Daemon) Engine() *engine.Engine { return d.eng }

// Run serves the API until ctx is canceled, snapshotting the ledger on a
// fixed interval and once more on shutdown.
func (d *Daemon) Run(ctx context.Context) error {
	if d.keeper != nil {
		go d.keeper.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		d.log.Info("api listening", "addr", d.cfg.API.Addr())
		if err := d.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ticker := time.NewTicker(d.cfg.Storage.SnapshotEvery())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.persist()
		case err := <-errCh:
			d.db.Close()
			return fmt.Errorf("api server: %w", err)
		case <-ctx.Done():
			shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := d.server.Shutdown(shutCtx)
			cancel()
			d.persist()
			d.db.Close()
			d.log.Info("daemon stopped")
			return err
		}
	}
}

// persist writes the current ledger snapshot; failures are logged, not fatal,
// since the in-memory ledger remains authoritative.
func (d *Daemon) persist() {
	if err := d.db.SaveLedger(d.eng.Snapshot()); err != nil {
		d.log.Error("snapshot save failed", "err", err)
	}
}

// buildKeeper assembles the automatic batch processor from config.
func buildKeeper(cfg KeeperConfig, eng *engine.Engine, log *slog.Logger) (*keeper.Keeper, error) {
	kcfg := keeper.DefaultConfig()
	addr, err := domain.ParseAddress(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("keeper.address: %w", err)
	}
	kcfg.Caller = addr
	if cfg.Threshold != "" {
		if kcfg.Threshold, err = uint256.FromDecimal(cfg.Threshold); err != nil {
			return nil, fmt.Errorf("keeper.threshold: %w", err)
		}
	}
	if cfg.MaxBatch != "" {
		if kcfg.MaxBatch, err = uint256.FromDecimal(cfg.MaxBatch); err != nil {
			return nil, fmt.Errorf("keeper.max_batch: %w", err)
		}
	}
	if cfg.Interval != "" {
		if kcfg.Interval, err = time.ParseDuration(cfg.Interval); err != nil {
			return nil, fmt.Errorf("keeper.interval: %w", err)
		}
	}
	// The configured address is granted the keeper role at boot so batches
	// are authorized without a manual admin call.
	if err := eng.SetKeeper(eng.Owner(), addr, true); err != nil {
		return nil, err
	}
	return keeper.New(kcfg, eng, clockwork.NewRealClock(), log), nil
}

// engineParams builds domain.Params from the config sections.
func engineParams(cfg Config) (domain.Params, error) {
	minBalance, err := uint256.FromDecimal(orZero(cfg.Engine.MinBalance))
	if err != nil {
		return domain.Params{}, fmt.Errorf("engine.min_balance: %w", err)
	}
	holdTime, err := time.ParseDuration(cfg.Engine.MinHoldTime)
	if err != nil {
		return domain.Params{}, fmt.Errorf("engine.min_hold_time: %w", err)
	}
	cooldown, err := time.ParseDuration(cfg.Engine.ClaimCooldown)
	if err != nil {
		return domain.Params{}, fmt.Errorf("engine.claim_cooldown: %w", err)
	}
	return domain.Params{
		BuyTaxBps:  domain.Bps(cfg.Engine.BuyTaxBps),
		SellTaxBps: domain.Bps(cfg.Engine.SellTaxBps),
		Split: domain.SplitConfig{
			Reward:    domain.Bps(cfg.Split.Reward),
			Burn:      domain.Bps(cfg.Split.Burn),
			Marketing: domain.Bps(cfg.Split.Marketing),
			Team:      domain.Bps(cfg.Split.Team),
		},
		BurnFromInput: cfg.Engine.BurnFromInput,
		MinBalance:    minBalance,
		MinHoldTime:   holdTime,
		ClaimCooldown: cooldown,
	}, nil
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// ─── Logging ────────────────────────────────────────────────────────────────

// NewLogger builds the daemon's structured logger from config.
func NewLogger(cfg LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	}))
}
