package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rollcall/internal/domain"
	"rollcall/internal/domain/entities"
	"rollcall/internal/infrastructure/metrics"
	"rollcall/internal/platform/sentinel"
	"rollcall/internal/platform/sl"
	"rollcall/internal/ports/input"
	"rollcall/internal/ports/output"
)

var (
	_ input.ParticipationUseCase = (*Service)(nil)
	_ input.EventUseCase         = (*Service)(nil)
)

const (
	defaultTicketGrace    = 2 * time.Hour
	defaultSweepBatch     = 100
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 20 * time.Millisecond
	reserveAttempts       = 5
)

// Service coordinates registration, cancellation with waitlist promotion,
// ticket lifecycle and attendance scans. Every mutating operation is one
// store transaction, retried with backoff when the store reports a conflict.
type Service struct {
	tx             output.Transactor
	participations output.ParticipationRepository
	events         output.EventRepository
	tokens         output.TokenCodec

	notifier output.Notifier
	throttle output.ScanThrottle
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	now      func() time.Time

	grace          time.Duration
	sweepBatch     int
	maxAttempts    int
	initialBackoff time.Duration
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithNotifier(n output.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithScanThrottle limits scans per (scanner, event). Without it scans are
// never throttled.
func WithScanThrottle(t output.ScanThrottle) Option {
	return func(s *Service) {
		s.throttle = t
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithTicketGrace sets how long after the event end a ticket stays valid.
func WithTicketGrace(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.grace = d
		}
	}
}

// WithSweepBatch bounds how many tickets one sweep transaction expires.
func WithSweepBatch(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.sweepBatch = n
		}
	}
}

// WithRetry sets the attempt budget of one operation and the first backoff
// interval between attempts.
func WithRetry(maxAttempts int, initial time.Duration) Option {
	return func(s *Service) {
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
		if initial > 0 {
			s.initialBackoff = initial
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// New constructs a Service.
func New(
	tx output.Transactor,
	participations output.ParticipationRepository,
	events output.EventRepository,
	tokens output.TokenCodec,
	opts ...Option,
) *Service {
	s := &Service{
		tx:             tx,
		participations: participations,
		events:         events,
		tokens:         tokens,
		logger:         slog.Default(),
		tracer:         otel.Tracer("rollcall/application"),
		now:            time.Now,
		grace:          defaultTicketGrace,
		sweepBatch:     defaultSweepBatch,
		maxAttempts:    defaultMaxAttempts,
		initialBackoff: defaultInitialBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// unitOfWork runs fn in a transaction and reruns it while the store reports
// a retryable failure. fn must reset any state it accumulates: it may run
// several times. An exhausted budget surfaces as domain.ErrConflict.
func (s *Service) unitOfWork(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.initialBackoff
	eb.MaxInterval = 20 * s.initialBackoff
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(s.maxAttempts-1)), ctx)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		if attempt > 1 {
			s.logger.DebugContext(ctx, "retrying after store conflict", sl.Module("application"), "op", op, "attempt", attempt)
			if s.metrics != nil {
				s.metrics.IncrementRetry(op)
			}
		}
		err := s.tx.WithinTx(ctx, fn)
		if err == nil || sentinel.Retryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, policy)
	if err != nil && sentinel.Retryable(err) {
		return fmt.Errorf("%w: %d attempts: %v", domain.ErrConflict, attempt, err)
	}
	return err
}

func (s *Service) start(ctx context.Context, name, eventID, userID string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("event.id", eventID)}
	if userID != "" {
		attrs = append(attrs, attribute.String("user.id", userID))
	}
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// finish records the outcome of op on the span, the metrics and the log.
// Business-rule failures are expected and logged at debug level.
func (s *Service) finish(ctx context.Context, span trace.Span, op string, started time.Time, err error) {
	defer span.End()
	outcome := "ok"
	if err != nil {
		outcome = domain.Code(err)
		if outcome == "" {
			outcome = "error"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, outcome, started)
	}
	switch {
	case err == nil:
	case outcome == "error" || errors.Is(err, domain.ErrConflict):
		s.logger.ErrorContext(ctx, "operation failed", sl.Module("application"), "op", op, sl.Err(err))
	default:
		s.logger.DebugContext(ctx, "operation rejected", sl.Module("application"), "op", op, "code", outcome)
	}
}

// notify hands notes to the notifier after commit. Delivery failures are
// logged and never undo the operation.
func (s *Service) notify(ctx context.Context, notes ...output.Notification) {
	if s.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, n := range notes {
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.logger.WarnContext(ctx, "notification failed",
				sl.Module("application"),
				"kind", n.Kind,
				"event_id", n.EventID,
				"user_id", n.UserID,
				sl.Err(err),
			)
		}
	}
}

func (s *Service) note(kind string, p *entities.Participation, title string) output.Notification {
	n := output.Notification{
		Kind:       kind,
		EventID:    p.EventID,
		EventTitle: title,
		UserID:     p.UserID,
		Status:     p.Status,
		OccurredAt: s.now(),
	}
	if p.Ticket != nil && !p.Ticket.Used {
		n.Token = p.Ticket.Token
	}
	return n
}

func (s *Service) loadEvent(ctx context.Context, eventID string) (*entities.Event, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, domain.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	return event, nil
}

// reserveSlot takes one slot of the event. Optimistic stores may lose the
// compare-and-swap to a concurrent writer; the reservation is then attempted
// again against the fresh count.
func (s *Service) reserveSlot(ctx context.Context, eventID string) (bool, error) {
	for range reserveAttempts {
		ok, err := s.events.ReserveSlot(ctx, eventID)
		if errors.Is(err, domain.ErrCapacityRaceLost) {
			continue
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, domain.ErrEventNotFound
		}
		if err != nil {
			return false, fmt.Errorf("reserve slot: %w", err)
		}
		return ok, nil
	}
	return false, fmt.Errorf("reserve slot: %w", sentinel.ErrConflict)
}
