package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"rollcall/internal/domain"
	"rollcall/internal/domain/entities"
	"rollcall/internal/infrastructure/memory"
	"rollcall/internal/infrastructure/token"
	"rollcall/internal/platform/sentinel"
	"rollcall/internal/ports/output"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	store *memory.Store
	svc   *Service
	clock *clock
}

func newFixture(t testing.TB, opts ...Option) *fixture {
	t.Helper()
	codec, err := token.NewCodec(testSecret)
	require.NoError(t, err)

	store := memory.NewStore()
	c := &clock{now: time.Date(2026, 6, 12, 18, 0, 0, 0, time.UTC)}
	base := []Option{
		WithClock(c.Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithRetry(3, time.Millisecond),
	}
	svc := New(store, store.Participations(), store.Events(), codec, append(base, opts...)...)
	return &fixture{store: store, svc: svc, clock: c}
}

func (f *fixture) event(t testing.TB, capacity int, endsAt time.Time) *entities.Event {
	t.Helper()
	e := &entities.Event{Title: "Atelier couture", Capacity: capacity, EndsAt: endsAt}
	require.NoError(t, f.svc.CreateEvent(context.Background(), e))
	return e
}

// recorder collects notifications in memory.
type recorder struct {
	mu    sync.Mutex
	notes []output.Notification
}

func (r *recorder) Notify(_ context.Context, n output.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
	return nil
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.notes))
	for _, n := range r.notes {
		out = append(out, n.Kind)
	}
	return out
}

// flakyTx fails the first n transactions with a store conflict.
type flakyTx struct {
	output.Transactor
	mu    sync.Mutex
	fails int
	calls int
}

func (f *flakyTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.fails
	f.mu.Unlock()
	return f.Transactor.WithinTx(ctx, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return err
		}
		if fail {
			return sentinel.ErrConflict
		}
		return nil
	})
}

// conflictingEvents fails the first n capacity updates with a store conflict.
type conflictingEvents struct {
	output.EventRepository
	mu    sync.Mutex
	fails int
	calls int
}

func (c *conflictingEvents) UpdateCapacity(ctx context.Context, id string, capacity int) error {
	c.mu.Lock()
	c.calls++
	fail := c.calls <= c.fails
	c.mu.Unlock()
	if fail {
		return fmt.Errorf("update capacity: %w", sentinel.ErrConflict)
	}
	return c.EventRepository.UpdateCapacity(ctx, id, capacity)
}

// racingPromotions loses the first n promotions to a concurrent writer
// (every one when n is negative). lose runs before the conflict is reported.
type racingPromotions struct {
	output.ParticipationRepository
	mu    sync.Mutex
	fails int
	calls int
	lose  func(ctx context.Context)
}

func (r *racingPromotions) Promote(ctx context.Context, id string, ticket entities.Ticket, now time.Time) error {
	r.mu.Lock()
	r.calls++
	fail := r.fails < 0 || r.calls <= r.fails
	r.mu.Unlock()
	if fail {
		if r.lose != nil {
			r.lose(ctx)
		}
		return sentinel.ErrConflict
	}
	return r.ParticipationRepository.Promote(ctx, id, ticket, now)
}

// newServiceOver builds a service on store with the given repositories in
// front of it.
func newServiceOver(t testing.TB, store *memory.Store, events output.EventRepository, parts output.ParticipationRepository) *Service {
	t.Helper()
	codec, err := token.NewCodec(testSecret)
	require.NoError(t, err)
	return New(store, parts, events, codec,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithRetry(3, time.Millisecond),
	)
}

type ServiceSuite struct {
	suite.Suite
	f   *fixture
	ctx context.Context
}

func (s *ServiceSuite) SetupTest() {
	s.f = newFixture(s.T())
	s.ctx = context.Background()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) TestUnitOfWorkRetriesConflicts() {
	codec, err := token.NewCodec(testSecret)
	s.Require().NoError(err)

	s.Run("succeeds after transient conflicts and rolls back failed attempts", func() {
		store := memory.NewStore()
		tx := &flakyTx{Transactor: store, fails: 2}
		svc := New(tx, store.Participations(), store.Events(), codec, WithRetry(3, time.Millisecond))
		e := &entities.Event{Title: "t", Capacity: 1}
		s.Require().NoError(svc.CreateEvent(s.ctx, e))

		res, err := svc.Register(s.ctx, e.ID, "u1")
		s.Require().NoError(err)
		s.Equal(domain.StatusRegistered, res.Status)
		s.Equal(3, tx.calls)

		got, err := store.Events().FindByID(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Equal(1, got.RegisteredCount)
	})

	s.Run("exhausted budget surfaces as conflict", func() {
		store := memory.NewStore()
		tx := &flakyTx{Transactor: store, fails: 10}
		svc := New(tx, store.Participations(), store.Events(), codec, WithRetry(3, time.Millisecond))
		e := &entities.Event{Title: "t", Capacity: 1}
		s.Require().NoError(svc.CreateEvent(s.ctx, e))

		_, err := svc.Register(s.ctx, e.ID, "u1")
		s.Require().ErrorIs(err, domain.ErrConflict)
		s.Equal(3, tx.calls)

		_, err = store.Participations().FindByEventIDAndUserID(s.ctx, e.ID, "u1")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("business errors are not retried", func() {
		store := memory.NewStore()
		tx := &flakyTx{Transactor: store}
		svc := New(tx, store.Participations(), store.Events(), codec, WithRetry(3, time.Millisecond))

		_, err := svc.Register(s.ctx, "missing", "u1")
		s.Require().ErrorIs(err, domain.ErrEventNotFound)
		s.Equal(1, tx.calls)
	})
}

func (s *ServiceSuite) TestCancelledContextLeavesNoTrace() {
	e := s.f.event(s.T(), 1, time.Time{})
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.f.svc.Register(ctx, e.ID, "u1")
	s.Require().Error(err)
	s.True(errors.Is(err, context.Canceled))

	got, err := s.f.svc.GetEvent(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Zero(got.RegisteredCount)
}
