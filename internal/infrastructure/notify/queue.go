package notify

import (
	"context"
	"log/slog"
	"time"

	"rollcall/internal/platform/sl"
	"rollcall/internal/ports/output"
)

const (
	defaultQueueSize = 256
	deliverTimeout   = 10 * time.Second
)

var _ output.Notifier = (*Queue)(nil)

// DropCounter counts notifications the queue had to discard.
type DropCounter interface {
	IncrementDropped()
}

// Queue decouples the engine from slow delivery channels. Notify never
// blocks: when the buffer is full the notification is dropped and logged.
type Queue struct {
	next    output.Notifier
	inbox   chan output.Notification
	log     *slog.Logger
	dropped DropCounter
}

func NewQueue(next output.Notifier, size int, log *slog.Logger, dropped DropCounter) *Queue {
	if size <= 0 {
		size = defaultQueueSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &Queue{
		next:    next,
		inbox:   make(chan output.Notification, size),
		log:     log.With(sl.Module("notify.queue")),
		dropped: dropped,
	}
}

func (q *Queue) Notify(ctx context.Context, n output.Notification) error {
	select {
	case q.inbox <- n:
	default:
		if q.dropped != nil {
			q.dropped.IncrementDropped()
		}
		q.log.WarnContext(ctx, "queue full, notification dropped",
			slog.String("kind", n.Kind),
			slog.String("event_id", n.EventID),
			slog.String("user_id", n.UserID),
		)
	}
	return nil
}

// Run delivers queued notifications until ctx is done, then flushes what is
// still buffered and returns nil.
func (q *Queue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			q.drain()
			return nil
		case n := <-q.inbox:
			q.deliver(context.WithoutCancel(ctx), n)
		}
	}
}

func (q *Queue) drain() {
	for {
		select {
		case n := <-q.inbox:
			q.deliver(context.Background(), n)
		default:
			return
		}
	}
}

func (q *Queue) deliver(ctx context.Context, n output.Notification) {
	ctx, cancel := context.WithTimeout(ctx, deliverTimeout)
	defer cancel()
	if err := q.next.Notify(ctx, n); err != nil {
		q.log.Warn("deliver notification",
			slog.String("kind", n.Kind),
			slog.String("event_id", n.EventID),
			slog.String("user_id", n.UserID),
			sl.Err(err),
		)
	}
}
