package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestSQLiteDailyStatsMissing(t *testing.T) {
	t.Parallel()
	j := newTestSQLite(t)

	_, err := j.DailyStats("2026-03-10")
	assert.ErrorIs(t, err, ErrNoStats)
}

func TestSQLiteDailyStatsUpsert(t *testing.T) {
	t.Parallel()
	j := newTestSQLite(t)

	s := DailyStats{
		Date:       "2026-03-10",
		BuyAmount:  decimal.RequireFromString("15000.50"),
		SellAmount: decimal.NewFromInt(200),
		TradeCount: 3,
	}
	require.NoError(t, j.UpsertDailyStats(s))

	got, err := j.DailyStats("2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, s.Date, got.Date)
	assert.True(t, got.BuyAmount.Equal(s.BuyAmount), "buy %s", got.BuyAmount)
	assert.True(t, got.SellAmount.Equal(s.SellAmount))
	assert.Equal(t, 3, got.TradeCount)

	// Upsert replaces in place; still exactly one record per date.
	s.BuyAmount = decimal.Zero
	s.TradeCount = 0
	require.NoError(t, j.UpsertDailyStats(s))

	got, err = j.DailyStats("2026-03-10")
	require.NoError(t, err)
	assert.True(t, got.BuyAmount.IsZero())
	assert.Zero(t, got.TradeCount)
}

func TestSQLiteAuditAppendAndList(t *testing.T) {
	t.Parallel()
	j := newTestSQLite(t)

	base := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	entries := []AuditEntry{
		{ID: "01A", Timestamp: base, Symbol: "INFY", Quantity: 10, Price: decimal.NewFromInt(1500),
			TradeType: "Intraday", IsBuy: true, Decision: "Allowed", User: "tester"},
		{ID: "01B", Timestamp: base.Add(time.Hour), Symbol: "TCS", Quantity: 5, Price: decimal.Zero,
			TradeType: "Intraday", IsBuy: false, Decision: "Blocked", Reason: "Insufficient holdings for sell.", User: "tester"},
		{ID: "01C", Timestamp: base.Add(26 * time.Hour), Symbol: "", Quantity: 0, Price: decimal.Zero,
			TradeType: "None", Decision: "Reset", Reason: "Manual or scheduled reset", User: "system"},
	}
	for _, e := range entries {
		require.NoError(t, j.AppendAudit(e))
	}

	day1, err := j.AuditByDate("2026-03-10")
	require.NoError(t, err)
	require.Len(t, day1, 2)
	// Newest first.
	assert.Equal(t, "01B", day1[0].ID)
	assert.Equal(t, "Blocked", day1[0].Decision)
	assert.Equal(t, "01A", day1[1].ID)
	assert.True(t, day1[1].Price.Equal(decimal.NewFromInt(1500)))
	assert.True(t, day1[1].IsBuy)

	day2, err := j.AuditByDate("2026-03-11")
	require.NoError(t, err)
	require.Len(t, day2, 1)
	assert.Equal(t, "Reset", day2[0].Decision)

	empty, err := j.AuditByDate("2026-03-12")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryMatchesSQLiteContract(t *testing.T) {
	t.Parallel()
	m := NewMemory()

	_, err := m.DailyStats("2026-03-10")
	assert.ErrorIs(t, err, ErrNoStats)

	require.NoError(t, m.UpsertDailyStats(NewDailyStats("2026-03-10")))
	got, err := m.DailyStats("2026-03-10")
	require.NoError(t, err)
	assert.True(t, got.BuyAmount.IsZero())

	e := AuditEntry{ID: "01A", Timestamp: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC), Decision: "Allowed"}
	require.NoError(t, m.AppendAudit(e))

	listed, err := m.AuditByDate("2026-03-10")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "01A", listed[0].ID)
}
