package scheduler

import (
	"context"
	"log/slog"
	"time"

	"rollcall/internal/platform/sl"
	"rollcall/internal/ports/input"
	"rollcall/internal/ports/output"
)

const sweepLease = "sweep-expired"

// Sweeper expires tickets whose event is over.
type Sweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (*input.SweepResult, error)
}

// Scheduler runs the expiry sweep periodically. With a lease, only the
// instance holding it sweeps during an interval; without one, or when the
// lease store fails, every instance sweeps. The sweep is idempotent so
// overlap only costs work.
type Scheduler struct {
	sweeper  Sweeper
	lease    output.Lease
	interval time.Duration
	log      *slog.Logger
	now      func() time.Time
}

type Option func(*Scheduler)

func WithLease(l output.Lease) Option {
	return func(s *Scheduler) { s.lease = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func New(sweeper Sweeper, interval time.Duration, log *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		sweeper:  sweeper,
		interval: interval,
		log:      log.With(sl.Module("scheduler")),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps every interval until ctx ends.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.log.Info("sweeper started", slog.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one sweep if this instance may. It reports whether it swept.
func (s *Scheduler) Tick(ctx context.Context) bool {
	if s.lease != nil {
		// Shorter than the interval so the next tick can take it again.
		ok, err := s.lease.Acquire(ctx, sweepLease, s.interval*9/10)
		switch {
		case err != nil:
			s.log.Warn("sweep lease unavailable, sweeping anyway", sl.Err(err))
		case !ok:
			s.log.Debug("sweep lease held elsewhere")
			return false
		}
	}

	started := time.Now()
	res, err := s.sweeper.SweepExpired(ctx, s.now().UTC())
	if err != nil {
		s.log.Error("sweep expired tickets", sl.Err(err))
		return true
	}
	s.log.Info("sweep done",
		slog.Int("processed", res.Processed),
		slog.Int("backfilled", res.Backfilled),
		slog.Duration("took", time.Since(started)),
	)
	return true
}
