package retention

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// MidnightScheduler runs Job once at start and then at every UTC midnight.
type MidnightScheduler struct {
	Job    func(ctx context.Context) error
	Logger *zap.Logger

	now func() time.Time
}

// Start launches the schedule. The returned channel is closed once ctx is
// cancelled and a running job has returned.
func (m *MidnightScheduler) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		// Run immediately once at startup
		m.runOnce(ctx)

		for {
			timer := time.NewTimer(time.Until(nextMidnight(m.clock())))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				m.runOnce(ctx)
			}
		}
	}()
	return done
}

func (m *MidnightScheduler) runOnce(ctx context.Context) {
	if err := m.Job(ctx); err != nil && ctx.Err() == nil {
		m.logger().Warn("scheduled job failed", zap.Error(err))
	}
}

func (m *MidnightScheduler) clock() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}

func (m *MidnightScheduler) logger() *zap.Logger {
	if m.Logger == nil {
		return zap.NewNop()
	}
	return m.Logger
}

// nextMidnight returns the first UTC midnight strictly after t.
func nextMidnight(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
}

// Deleter removes messages received before a cutoff.
type Deleter interface {
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// PruneJob returns a job deleting messages older than keep.
func PruneJob(store Deleter, keep time.Duration, logger *zap.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		cutoff := time.Now().Add(-keep)
		n, err := store.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			return err
		}
		logger.Info("pruned old messages", zap.Int64("deleted", n), zap.Time("before", cutoff))
		return nil
	}
}
