// journal/journal.go
package journal

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the day key used for daily statistics and audit filtering.
// Dates are rendered in the engine's reference timezone before storage.
const DateFormat = "2006-01-02"

// ErrNoStats is returned by DailyStats when no record exists for a date yet.
var ErrNoStats = errors.New("journal: no stats for date")

// DailyStats is the cumulative record for one calendar day. Exactly one
// record exists per date; Reset zeroes it in place rather than deleting it.
type DailyStats struct {
	Date       string          `json:"date"`
	BuyAmount  decimal.Decimal `json:"buy_amount"`
	SellAmount decimal.Decimal `json:"sell_amount"`
	TradeCount int             `json:"trade_count"`
}

// NewDailyStats returns a zeroed record for the given day key.
func NewDailyStats(date string) DailyStats {
	return DailyStats{
		Date:       date,
		BuyAmount:  decimal.Zero,
		SellAmount: decimal.Zero,
	}
}

// AuditEntry records one admission decision or reset event. Entries are
// append-only; nothing in this system updates or deletes them.
type AuditEntry struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Symbol    string          `json:"symbol"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	TradeType string          `json:"trade_type"`
	IsBuy     bool            `json:"is_buy"`
	Decision  string          `json:"decision"` // "Allowed", "Blocked" or "Reset"
	Reason    string          `json:"reason"`
	User      string          `json:"user"`
}

// Journal is the persistence port for daily statistics and the audit trail.
// Implementations only need single-record atomicity.
type Journal interface {
	DailyStats(date string) (DailyStats, error)
	UpsertDailyStats(DailyStats) error
	AppendAudit(AuditEntry) error
	AuditByDate(date string) ([]AuditEntry, error)
	Close() error
}
