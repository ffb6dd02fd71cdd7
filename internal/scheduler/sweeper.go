package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/staffbot/internal/health"
)

// Sweeper drops expired block and alert entries on a fixed interval.
// Reads already evict lazily; this only bounds memory.
type Sweeper struct {
	Logger   *zap.Logger
	Tracker  *health.Tracker
	Interval time.Duration
	Now      func() time.Time
}

func NewSweeper(logger *zap.Logger, t *health.Tracker, interval time.Duration) *Sweeper {
	if interval < 0 {
		interval = 0
	}
	return &Sweeper{Logger: logger, Tracker: t, Interval: interval, Now: time.Now}
}

// Run sweeps each tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	if s.Interval == 0 {
		s.Logger.Info("sweeper_disabled")
		return
	}
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("sweeper_stopped")
			return
		case <-t.C:
			s.runOnce()
		}
	}
}

func (s *Sweeper) runOnce() {
	if n := s.Tracker.Sweep(s.Now()); n > 0 {
		s.Logger.Debug("health_swept", zap.Int("removed", n))
	}
}
