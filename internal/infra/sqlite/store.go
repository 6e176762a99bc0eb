// Package sqlite provides the durable store for the ledger engine:
// full-state snapshots (accounts, vaults, global accumulators, parameters)
// and the append-only event journal.
//
// The engine is authoritative in memory. The daemon saves a snapshot after
// committed mutations and restores the latest one at startup.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	_ "modernc.org/sqlite"

	"github.com/feeflow-network/feeflow/internal/domain"
)

// DB wraps the sqlite handle.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database and applies migrations.
func Open(path string) (*DB, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// Serial writer; the engine is single-writer by design.
	sqldb.SetMaxOpenConns(1)

	d := &DB{db: sqldb}
	for _, stmt := range migrations() {
		if _, err := sqldb.Exec(stmt); err != nil {
			sqldb.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return d, nil
}

// Close closes the underlying handle.
func (d *DB) Close() error { return d.db.Close() }

// migrations returns the schema statements. Each string is a single SQL
// statement (SQLite executes one at a time).
func migrations() []string {
	return []string{
		// Per-holder ledger state. Amounts are 256-bit decimals stored as TEXT.
		`CREATE TABLE IF NOT EXISTS accounts (
			address          TEXT PRIMARY KEY,
			balance          TEXT NOT NULL DEFAULT '0',
			excluded_tax     INTEGER NOT NULL DEFAULT 0,
			excluded_rewards INTEGER NOT NULL DEFAULT 0,
			last_non_zero_at TEXT,
			reward_debt      TEXT NOT NULL DEFAULT '0',
			accrued          TEXT NOT NULL DEFAULT '0',
			last_claim_at    TEXT
		)`,

		// Base-asset funds credited to destinations and claimants.
		`CREATE TABLE IF NOT EXISTS base_balances (
			address TEXT PRIMARY KEY,
			amount  TEXT NOT NULL DEFAULT '0'
		)`,

		// Registered AMM pairs and keeper grants.
		`CREATE TABLE IF NOT EXISTS pairs (address TEXT PRIMARY KEY)`,
		`CREATE TABLE IF NOT EXISTS keepers (address TEXT PRIMARY KEY)`,

		// Single-row global state: vaults, accumulators, parameters.
		`CREATE TABLE IF NOT EXISTS globals (
			id                INTEGER PRIMARY KEY CHECK (id = 1),
			total_supply      TEXT NOT NULL DEFAULT '0',
			tax_vault         TEXT NOT NULL DEFAULT '0',
			reward_vault      TEXT NOT NULL DEFAULT '0',
			acc_per_share     TEXT NOT NULL DEFAULT '0',
			eligible_supply   TEXT NOT NULL DEFAULT '0',
			total_distributed TEXT NOT NULL DEFAULT '0',
			total_claimed     TEXT NOT NULL DEFAULT '0',
			escrow            TEXT NOT NULL DEFAULT '0',
			buy_tax_bps       INTEGER NOT NULL DEFAULT 0,
			sell_tax_bps      INTEGER NOT NULL DEFAULT 0,
			reward_bps        INTEGER NOT NULL DEFAULT 10000,
			burn_bps          INTEGER NOT NULL DEFAULT 0,
			marketing_bps     INTEGER NOT NULL DEFAULT 0,
			team_bps          INTEGER NOT NULL DEFAULT 0,
			burn_from_input   INTEGER NOT NULL DEFAULT 0,
			min_balance       TEXT NOT NULL DEFAULT '0',
			min_hold_sec      INTEGER NOT NULL DEFAULT 0,
			cooldown_sec      INTEGER NOT NULL DEFAULT 0,
			updated_at        TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		// Append-only event journal.
		`CREATE TABLE IF NOT EXISTS events (
			id           TEXT PRIMARY KEY,
			type         TEXT NOT NULL,
			ts           TEXT NOT NULL,
			from_addr    TEXT,
			to_addr      TEXT,
			amount       TEXT,
			kind         TEXT,
			amount_in    TEXT,
			amount_out   TEXT,
			to_reward    TEXT,
			to_burn      TEXT,
			to_marketing TEXT,
			to_team      TEXT,
			seq          INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_type ON events(type)`,
		`CREATE INDEX IF NOT EXISTS idx_events_seq ON events(seq)`,
	}
}

// ─── Snapshot Persistence ───────────────────────────────────────────────────

// SaveLedger replaces the stored snapshot with st, in one transaction.
func (d *DB) SaveLedger(st domain.LedgerState) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"accounts", "base_balances", "pairs", "keepers"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return err
		}
	}

	for _, as := range st.Accounts {
		a := as.Account
		if _, err := tx.Exec(`
			INSERT INTO accounts (address, balance, excluded_tax, excluded_rewards, last_non_zero_at, reward_debt, accrued, last_claim_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, as.Address.String(), a.Balance.Dec(), boolInt(a.ExcludedFromTax), boolInt(a.ExcludedFromRewards),
			timeStr(a.LastNonZeroAt), a.RewardDebt.Dec(), a.Accrued.Dec(), timeStr(a.LastClaimAt)); err != nil {
			return err
		}
	}
	for _, bb := range st.BaseBalances {
		if _, err := tx.Exec(`INSERT INTO base_balances (address, amount) VALUES (?, ?)`,
			bb.Address.String(), bb.Amount.Dec()); err != nil {
			return err
		}
	}
	for _, p := range st.Pairs {
		if _, err := tx.Exec(`INSERT INTO pairs (address) VALUES (?)`, p.String()); err != nil {
			return err
		}
	}
	for _, k := range st.Keepers {
		if _, err := tx.Exec(`INSERT INTO keepers (address) VALUES (?)`, k.String()); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO globals (id, total_supply, tax_vault, reward_vault, acc_per_share, eligible_supply,
			total_distributed, total_claimed, escrow,
			buy_tax_bps, sell_tax_bps, reward_bps, burn_bps, marketing_bps, team_bps,
			burn_from_input, min_balance, min_hold_sec, cooldown_sec, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(id) DO UPDATE SET
			total_supply      = excluded.total_supply,
			tax_vault         = excluded.tax_vault,
			reward_vault      = excluded.reward_vault,
			acc_per_share     = excluded.acc_per_share,
			eligible_supply   = excluded.eligible_supply,
			total_distributed = excluded.total_distributed,
			total_claimed     = excluded.total_claimed,
			escrow            = excluded.escrow,
			buy_tax_bps       = excluded.buy_tax_bps,
			sell_tax_bps      = excluded.sell_tax_bps,
			reward_bps        = excluded.reward_bps,
			burn_bps          = excluded.burn_bps,
			marketing_bps     = excluded.marketing_bps,
			team_bps          = excluded.team_bps,
			burn_from_input   = excluded.burn_from_input,
			min_balance       = excluded.min_balance,
			min_hold_sec      = excluded.min_hold_sec,
			cooldown_sec      = excluded.cooldown_sec,
			updated_at        = datetime('now')
	`, st.TotalSupply.Dec(), st.TaxVault.Dec(), st.RewardVault.Dec(), st.AccRewardPerShare.Dec(),
		st.EligibleSupply.Dec(), st.TotalDistributed.Dec(), st.TotalClaimed.Dec(), st.Escrow.Dec(),
		st.Params.BuyTaxBps, st.Params.SellTaxBps,
		st.Params.Split.Reward, st.Params.Split.Burn, st.Params.Split.Marketing, st.Params.Split.Team,
		boolInt(st.Params.BurnFromInput), st.Params.MinBalance.Dec(),
		int64(st.Params.MinHoldTime/time.Second), int64(st.Params.ClaimCooldown/time.Second)); err != nil {
		return err
	}

	return tx.Commit()
}

// LoadLedger reads the stored snapshot. ok is false when no snapshot has
// ever been saved.
func (d *DB) LoadLedger() (st domain.LedgerState, ok bool, err error) {
	var (
		totalSupply, taxVault, rewardVault, accPerShare      string
		eligible, distributed, claimed, escrow, minBalance   string
		buyBps, sellBps, rewardBps, burnBps, mktBps, teamBps int
		burnFromInput                                        int
		holdSec, cooldownSec                                 int64
	)
	err = d.db.QueryRow(`
		SELECT total_supply, tax_vault, reward_vault, acc_per_share, eligible_supply,
			total_distributed, total_claimed, escrow,
			buy_tax_bps, sell_tax_bps, reward_bps, burn_bps, marketing_bps, team_bps,
			burn_from_input, min_balance, min_hold_sec, cooldown_sec
		FROM globals WHERE id = 1
	`).Scan(&totalSupply, &taxVault, &rewardVault, &accPerShare, &eligible,
		&distributed, &claimed, &escrow,
		&buyBps, &sellBps, &rewardBps, &burnBps, &mktBps, &teamBps,
		&burnFromInput, &minBalance, &holdSec, &cooldownSec)
	if err == sql.ErrNoRows {
		return domain.LedgerState{}, false, nil
	}
	if err != nil {
		return domain.LedgerState{}, false, err
	}

	if st.TotalSupply, err = parseAmount(totalSupply); err != nil {
		return st, false, err
	}
	if st.TaxVault, err = parseAmount(taxVault); err != nil {
		return st, false, err
	}
	if st.RewardVault, err = parseAmount(rewardVault); err != nil {
		return st, false, err
	}
	if st.AccRewardPerShare, err = parseAmount(accPerShare); err != nil {
		return st, false, err
	}
	if st.EligibleSupply, err = parseAmount(eligible); err != nil {
		return st, false, err
	}
	if st.TotalDistributed, err = parseAmount(distributed); err != nil {
		return st, false, err
	}
	if st.TotalClaimed, err = parseAmount(claimed); err != nil {
		return st, false, err
	}
	if st.Escrow, err = parseAmount(escrow); err != nil {
		return st, false, err
	}

	st.Params = domain.Params{
		BuyTaxBps:  domain.Bps(buyBps),
		SellTaxBps: domain.Bps(sellBps),
		Split: domain.SplitConfig{
			Reward:    domain.Bps(rewardBps),
			Burn:      domain.Bps(burnBps),
			Marketing: domain.Bps(mktBps),
			Team:      domain.Bps(teamBps),
		},
		BurnFromInput: burnFromInput == 1,
		MinHoldTime:   time.Duration(holdSec) * time.Second,
		ClaimCooldown: time.Duration(cooldownSec) * time.Second,
	}
	if st.Params.MinBalance, err = parseAmount(minBalance); err != nil {
		return st, false, err
	}

	if st.Accounts, err = d.loadAccounts(); err != nil {
		return st, false, err
	}
	if st.BaseBalances, err = d.loadBaseBalances(); err != nil {
		return st, false, err
	}
	if st.Pairs, err = d.loadAddrs(`SELECT address FROM pairs`); err != nil {
		return st, false, err
	}
	if st.Keepers, err = d.loadAddrs(`SELECT address FROM keepers`); err != nil {
		return st, false, err
	}
	return st, true, nil
}

func (d *DB) loadAccounts() ([]domain.AccountState, error) {
	rows, err := d.db.Query(`
		SELECT address, balance, excluded_tax, excluded_rewards, last_non_zero_at, reward_debt, accrued, last_claim_at
		FROM accounts
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AccountState
	for rows.Next() {
		var (
			addrStr, balance, debt, accrued string
			exTax, exRewards                int
			nonZeroAt, claimAt              sql.NullString
		)
		if err := rows.Scan(&addrStr, &balance, &exTax, &exRewards, &nonZeroAt, &debt, &accrued, &claimAt); err != nil {
			return nil, err
		}
		addr, err := domain.ParseAddress(addrStr)
		if err != nil {
			return nil, err
		}
		a := domain.Account{
			ExcludedFromTax:     exTax == 1,
			ExcludedFromRewards: exRewards == 1,
			LastNonZeroAt:       parseTime(nonZeroAt),
			LastClaimAt:         parseTime(claimAt),
		}
		if a.Balance, err = parseAmount(balance); err != nil {
			return nil, err
		}
		if a.RewardDebt, err = parseAmount(debt); err != nil {
			return nil, err
		}
		if a.Accrued, err = parseAmount(accrued); err != nil {
			return nil, err
		}
		out = append(out, domain.AccountState{Address: addr, Account: a})
	}
	return out, rows.Err()
}

func (d *DB) loadBaseBalances() ([]domain.BaseBalance, error) {
	rows, err := d.db.Query(`SELECT address, amount FROM base_balances`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.BaseBalance
	for rows.Next() {
		var addrStr, amount string
		if err := rows.Scan(&addrStr, &amount); err != nil {
			return nil, err
		}
		addr, err := domain.ParseAddress(addrStr)
		if err != nil {
			return nil, err
		}
		amt, err := parseAmount(amount)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.BaseBalance{Address: addr, Amount: amt})
	}
	return out, rows.Err()
}

func (d *DB) loadAddrs(query string) ([]domain.Address, error) {
	rows, err := d.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Address
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		addr, err := domain.ParseAddress(s)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, rows.Err()
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func timeStr(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s.String)
	return t
}

func parseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return uint256.NewInt(0), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("amount %q: %w", s, err)
	}
	return v, nil
}
