package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RebuildFunc is invoked on every refresh interval.
type RebuildFunc func(ctx context.Context) error

// Options tune the refresh loop.
type Options struct {
	Interval     time.Duration
	StartupDelay time.Duration
}

// Scheduler drives periodic manifest rebuilds while the server runs. A
// failed rebuild is logged and the previous manifest stays in place until
// the next tick.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Scheduler{opts: opts, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Run blocks, invoking the rebuild function at each interval until ctx is
// cancelled.
func (s *Scheduler) Run(ctx context.Context, rebuild RebuildFunc) error {
	if s.opts.StartupDelay > 0 {
		timer := time.NewTimer(s.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		s.logger.Debug().Msg("executing scheduled manifest rebuild")
		if err := rebuild(ctx); err != nil {
			s.logger.Error().Err(err).Msg("manifest rebuild failed; keeping previous manifest")
		}
	}
}
