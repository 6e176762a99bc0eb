package sqlite

import (
	"database/sql"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/feeflow-network/feeflow/internal/domain"
)

// ─── Event Journal ──────────────────────────────────────────────────────────

// Journal is the append-only event sink backed by the events table.
// Journaling happens after the engine has committed, so a write failure is
// logged and dropped rather than failing the originating operation.
type Journal struct {
	db  *DB
	log *slog.Logger
	seq atomic.Int64
}

// NewJournal builds a journal over the store. The sequence counter resumes
// from the highest persisted value.
func NewJournal(db *DB, log *slog.Logger) (*Journal, error) {
	j := &Journal{db: db, log: log}
	if log == nil {
		j.log = slog.Default()
	}
	var max sql.NullInt64
	if err := db.db.QueryRow(`SELECT MAX(seq) FROM events`).Scan(&max); err != nil {
		return nil, err
	}
	if max.Valid {
		j.seq.Store(max.Int64)
	}
	return j, nil
}

// Append journals one committed event.
func (j *Journal) Append(ev domain.Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	_, err := j.db.db.Exec(`
		INSERT INTO events (id, type, ts, from_addr, to_addr, amount, kind,
			amount_in, amount_out, to_reward, to_burn, to_marketing, to_team, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.ID, string(ev.Type), ev.Timestamp.UTC().Format(time.RFC3339Nano),
		addrStr(ev.From), addrStr(ev.To), amountStr(ev.Amount), string(ev.Kind),
		amountStr(ev.AmountIn), amountStr(ev.AmountOut), amountStr(ev.ToReward),
		amountStr(ev.ToBurn), amountStr(ev.ToMarketing), amountStr(ev.ToTeam),
		j.seq.Add(1))
	if err != nil {
		j.log.Error("journal append failed", "type", ev.Type, "err", err)
	}
}

// RecentEvents returns up to limit events, newest first.
func (j *Journal) RecentEvents(limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.db.Query(`
		SELECT id, type, ts, from_addr, to_addr, amount, kind,
			amount_in, amount_out, to_reward, to_burn, to_marketing, to_team
		FROM events ORDER BY seq DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		var (
			ev                            domain.Event
			ts                            string
			evType, kind                  string
			from, to                      sql.NullString
			amount, in, outAmt            sql.NullString
			reward, burn, marketing, team sql.NullString
		)
		if err := rows.Scan(&ev.ID, &evType, &ts, &from, &to, &amount, &kind,
			&in, &outAmt, &reward, &burn, &marketing, &team); err != nil {
			return nil, err
		}
		ev.Type = domain.EventType(evType)
		ev.Kind = domain.TransferKind(kind)
		ev.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		if ev.From, err = scanAddr(from); err != nil {
			return nil, err
		}
		if ev.To, err = scanAddr(to); err != nil {
			return nil, err
		}
		if ev.Amount, err = scanAmount(amount); err != nil {
			return nil, err
		}
		if ev.AmountIn, err = scanAmount(in); err != nil {
			return nil, err
		}
		if ev.AmountOut, err = scanAmount(outAmt); err != nil {
			return nil, err
		}
		if ev.ToReward, err = scanAmount(reward); err != nil {
			return nil, err
		}
		if ev.ToBurn, err = scanAmount(burn); err != nil {
			return nil, err
		}
		if ev.ToMarketing, err = scanAmount(marketing); err != nil {
			return nil, err
		}
		if ev.ToTeam, err = scanAmount(team); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// ─── Scan Helpers ───────────────────────────────────────────────────────────

func addrStr(a domain.Address) any {
	if a.IsZero() {
		return nil
	}
	return a.String()
}

func amountStr(v *uint256.Int) any {
	if v == nil {
		return nil
	}
	return v.Dec()
}

func scanAddr(s sql.NullString) (domain.Address, error) {
	if !s.Valid || s.String == "" {
		return domain.ZeroAddress, nil
	}
	return domain.ParseAddress(s.String)
}

func scanAmount(s sql.NullString) (*uint256.Int, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	return parseAmount(s.String)
}
