package journal

import (
	"fmt"
	"sync"
)

// Memory is an in-process Journal for tests and ephemeral runs. It mirrors
// the SQLite store's contract, including ErrNoStats on first access.
type Memory struct {
	mu    sync.Mutex
	stats map[string]DailyStats
	audit []AuditEntry

	// FailNext forces the next write to fail, for persistence-fault tests.
	FailNext error
}

func NewMemory() *Memory {
	return &Memory{stats: make(map[string]DailyStats)}
}

func (m *Memory) takeFault() error {
	err := m.FailNext
	m.FailNext = nil
	return err
}

func (m *Memory) DailyStats(date string) (DailyStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stats[date]
	if !ok {
		return DailyStats{}, fmt.Errorf("%w: %s", ErrNoStats, date)
	}
	return s, nil
}

func (m *Memory) UpsertDailyStats(s DailyStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFault(); err != nil {
		return err
	}
	m.stats[s.Date] = s
	return nil
}

func (m *Memory) AppendAudit(e AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFault(); err != nil {
		return err
	}
	m.audit = append(m.audit, e)
	return nil
}

func (m *Memory) AuditByDate(date string) ([]AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []AuditEntry
	for _, e := range m.audit {
		if e.Timestamp.UTC().Format(DateFormat) == date {
			out = append(out, e)
		}
	}
	// newest first, matching the SQLite store
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Audit returns every recorded entry in append order.
func (m *Memory) Audit() []AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]AuditEntry, len(m.audit))
	copy(out, m.audit)
	return out
}

func (m *Memory) Close() error { return nil }
