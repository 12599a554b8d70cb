package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// SQLite persists monetary values as decimal strings so no binary float ever
// touches a stored amount.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	// WAL keeps audit appends from blocking stats reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) DailyStats(date string) (DailyStats, error) {
	var (
		s        DailyStats
		buy, sel string
	)
	row := j.db.QueryRow(
		`SELECT date, buy_amount, sell_amount, trade_count FROM daily_stats WHERE date = ?`, date)
	err := row.Scan(&s.Date, &buy, &sel, &s.TradeCount)
	if err == sql.ErrNoRows {
		return DailyStats{}, fmt.Errorf("%w: %s", ErrNoStats, date)
	}
	if err != nil {
		return DailyStats{}, fmt.Errorf("read stats %s: %w", date, err)
	}
	if s.BuyAmount, err = decimal.NewFromString(buy); err != nil {
		return DailyStats{}, fmt.Errorf("parse buy amount %q: %w", buy, err)
	}
	if s.SellAmount, err = decimal.NewFromString(sel); err != nil {
		return DailyStats{}, fmt.Errorf("parse sell amount %q: %w", sel, err)
	}
	return s, nil
}

func (j *SQLite) UpsertDailyStats(s DailyStats) error {
	_, err := j.db.Exec(`
		INSERT INTO daily_stats (date, buy_amount, sell_amount, trade_count)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			buy_amount = excluded.buy_amount,
			sell_amount = excluded.sell_amount,
			trade_count = excluded.trade_count`,
		s.Date, s.BuyAmount.String(), s.SellAmount.String(), s.TradeCount,
	)
	if err != nil {
		return fmt.Errorf("upsert stats %s: %w", s.Date, err)
	}
	return nil
}

func (j *SQLite) AppendAudit(e AuditEntry) error {
	_, err := j.db.Exec(`
		INSERT INTO audit_log
		(id, timestamp, symbol, quantity, price, trade_type, is_buy, decision, reason, user)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.UTC().Format(time.RFC3339Nano), e.Symbol, e.Quantity,
		e.Price.String(), e.TradeType, e.IsBuy, e.Decision, e.Reason, e.User,
	)
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

func (j *SQLite) AuditByDate(date string) ([]AuditEntry, error) {
	rows, err := j.db.Query(`
		SELECT id, timestamp, symbol, quantity, price, trade_type, is_buy, decision, reason, user
		FROM audit_log
		WHERE substr(timestamp, 1, 10) = ?
		ORDER BY timestamp DESC`, date)
	if err != nil {
		return nil, fmt.Errorf("list audit %s: %w", date, err)
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var (
			e         AuditEntry
			ts, price string
		)
		if err := rows.Scan(&e.ID, &ts, &e.Symbol, &e.Quantity, &price,
			&e.TradeType, &e.IsBuy, &e.Decision, &e.Reason, &e.User); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse audit timestamp %q: %w", ts, err)
		}
		if e.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse audit price %q: %w", price, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
