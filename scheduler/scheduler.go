// Package scheduler fires the daily-limit reset at midnight in the engine's
// reference timezone.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Resetter is the single operation the scheduler drives. It is the same path
// exposed to manual operators.
type Resetter interface {
	ResetDailyLimits(user string) error
}

// Scheduler sleeps until the next midnight boundary, invokes the reset, and
// repeats. A cancelled context aborts the wait without resetting.
type Scheduler struct {
	resetter Resetter
	loc      *time.Location
	log      *zap.Logger

	now func() time.Time
}

func New(r Resetter, loc *time.Location, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{resetter: r, loc: loc, log: log, now: time.Now}
}

// NextMidnight returns the first instant of the next calendar day in loc.
func NextMidnight(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}

// Run loops until ctx is cancelled. A failed reset is logged and the loop
// continues to the next cycle.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		next := NextMidnight(s.now(), s.loc)
		wait := next.Sub(s.now())
		s.log.Info("waiting for next daily reset",
			zap.Time("next", next),
			zap.Duration("wait", wait))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if err := s.resetter.ResetDailyLimits("system"); err != nil {
			s.log.Error("scheduled reset failed", zap.Error(err))
			continue
		}
		s.log.Info("daily stats reset at midnight", zap.String("tz", s.loc.String()))
	}
}
