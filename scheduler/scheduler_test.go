package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingResetter struct {
	calls atomic.Int64
	fired chan struct{}
	err   error
}

func (r *countingResetter) ResetDailyLimits(user string) error {
	r.calls.Add(1)
	select {
	case r.fired <- struct{}{}:
	default:
	}
	return r.err
}

func TestNextMidnight(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("IST", int((5*time.Hour + 30*time.Minute).Seconds()))

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "midday",
			now:  time.Date(2026, 3, 10, 12, 0, 0, 0, loc),
			want: time.Date(2026, 3, 11, 0, 0, 0, 0, loc),
		},
		{
			name: "just before midnight",
			now:  time.Date(2026, 3, 10, 23, 59, 59, 0, loc),
			want: time.Date(2026, 3, 11, 0, 0, 0, 0, loc),
		},
		{
			name: "exactly midnight rolls to next day",
			now:  time.Date(2026, 3, 11, 0, 0, 0, 0, loc),
			want: time.Date(2026, 3, 12, 0, 0, 0, 0, loc),
		},
		{
			name: "month boundary",
			now:  time.Date(2026, 3, 31, 18, 0, 0, 0, loc),
			want: time.Date(2026, 4, 1, 0, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := NextMidnight(tt.now, loc)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
		})
	}
}

func TestNextMidnightUsesReferenceZone(t *testing.T) {
	t.Parallel()

	ist := time.FixedZone("IST", 19800)
	// 20:00 UTC is already 01:30 next day in IST; the boundary must follow IST.
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	got := NextMidnight(now, ist)
	assert.True(t, got.Equal(time.Date(2026, 3, 12, 0, 0, 0, 0, ist)), "got %v", got)
}

func TestRunFiresResetAtBoundary(t *testing.T) {
	t.Parallel()

	r := &countingResetter{fired: make(chan struct{}, 1)}
	s := New(r, time.UTC, zap.NewNop())

	// Pin "now" just before midnight so the first cycle fires almost at once.
	s.now = func() time.Time {
		return time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC).Add(-10 * time.Millisecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-r.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("reset did not fire")
	}
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, r.calls.Load(), int64(1))
}

func TestRunCancelDuringSleepSkipsReset(t *testing.T) {
	t.Parallel()

	r := &countingResetter{fired: make(chan struct{}, 1)}
	s := New(r, time.UTC, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Real midnight is far away; cancelling must abort the wait immediately.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
	assert.Zero(t, r.calls.Load())
}

func TestRunContinuesAfterResetFailure(t *testing.T) {
	t.Parallel()

	r := &countingResetter{fired: make(chan struct{}, 1), err: errors.New("store down")}
	s := New(r, time.UTC, zap.NewNop())
	s.now = func() time.Time {
		return time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC).Add(-5 * time.Millisecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Wait for at least two cycles: a failure must not kill the loop.
	require.Eventually(t, func() bool { return r.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
