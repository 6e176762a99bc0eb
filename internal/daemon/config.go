// Package daemon wires the engine, storage, swap, and HTTP server into the
// long-running feeflowd process.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// ─── Configuration ──────────────────────────────────────────────────────────

// Config is the feeflowd daemon configuration, loaded from TOML.
type Config struct {
	API     APIConfig     `toml:"api"`
	Engine  EngineConfig  `toml:"engine"`
	Split   SplitSection  `toml:"split"`
	Swap    SwapConfig    `toml:"swap"`
	Keeper  KeeperConfig  `toml:"keeper"`
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
}

// APIConfig configures the HTTP server.
type APIConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Metrics bool   `toml:"metrics"`
}

// Addr returns the host:port listen address.
func (a APIConfig) Addr() string { return fmt.Sprintf("%s:%d", a.Host, a.Port) }

// EngineConfig configures the ledger parameters and the privileged addresses.
type EngineConfig struct {
	Owner         string `toml:"owner"`
	Marketing     string `toml:"marketing"`
	Team          string `toml:"team"`
	InitialSupply string `toml:"initial_supply"`

	BuyTaxBps  uint16 `toml:"buy_tax_bps"`
	SellTaxBps uint16 `toml:"sell_tax_bps"`

	BurnFromInput bool   `toml:"burn_from_input"`
	MinBalance    string `toml:"min_balance"`
	MinHoldTime   string `toml:"min_hold_time"`
	ClaimCooldown string `toml:"claim_cooldown"`
}

// SplitSection configures the proceeds split in basis points.
type SplitSection struct {
	Reward    uint16 `toml:"reward"`
	Burn      uint16 `toml:"burn"`
	Marketing uint16 `toml:"marketing"`
	Team      uint16 `toml:"team"`
}

// SwapConfig configures the fixed-rate swap service.
type SwapConfig struct {
	RateNum uint64 `toml:"rate_num"`
	RateDen uint64 `toml:"rate_den"`
}

// KeeperConfig configures the automatic batch processor. Disabled unless an
// address is set; the address must hold the keeper role on the engine.
type KeeperConfig struct {
	Enabled   bool   `toml:"enabled"`
	Address   string `toml:"address"`
	Threshold string `toml:"threshold"`
	MaxBatch  string `toml:"max_batch"`
	Interval  string `toml:"interval"`
}

// StorageConfig configures snapshot persistence.
type StorageConfig struct {
	Path             string `toml:"path"`
	SnapshotInterval string `toml:"snapshot_interval"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text or json
}

// DefaultConfig returns the built-in defaults. Addresses are intentionally
// empty: the operator must set owner before the daemon will start.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:    "127.0.0.1",
			Port:    8337,
			Metrics: true,
		},
		Engine: EngineConfig{
			InitialSupply: "1000000000000000000000000",
			BuyTaxBps:     300,
			SellTaxBps:    500,
			BurnFromInput: true,
			MinBalance:    "0",
			MinHoldTime:   "24h",
			ClaimCooldown: "6h",
		},
		Split: SplitSection{
			Reward:    6000,
			Burn:      1000,
			Marketing: 2000,
			Team:      1000,
		},
		Swap: SwapConfig{
			RateNum: 1,
			RateDen: 1,
		},
		Keeper: KeeperConfig{
			Enabled:   false,
			Threshold: "0",
			Interval:  "1m",
		},
		Storage: StorageConfig{
			Path:             defaultDataDir(),
			SnapshotInterval: "30s",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a TOML config file over the defaults. A missing file returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// SnapshotEvery parses the snapshot interval, defaulting to 30s.
func (c StorageConfig) SnapshotEvery() time.Duration {
	d, err := time.ParseDuration(c.SnapshotInterval)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".feeflow"
	}
	return filepath.Join(home, ".feeflow")
}
