package notify

import (
	"context"
	"errors"
	"log/slog"

	"rollcall/internal/platform/sl"
	"rollcall/internal/ports/output"
)

// Fanout delivers each notification to every channel. One failing channel
// does not stop the others.
type Fanout []output.Notifier

func (f Fanout) Notify(ctx context.Context, n output.Notification) error {
	var errs []error
	for _, next := range f {
		if err := next.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes notifications to the log. It is the channel of last
// resort when nothing else is configured.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With(sl.Module("notify.log"))}
}

func (l *LogNotifier) Notify(ctx context.Context, n output.Notification) error {
	l.log.InfoContext(ctx, "participation changed",
		slog.String("kind", n.Kind),
		slog.String("event_id", n.EventID),
		slog.String("user_id", n.UserID),
		slog.String("status", n.Status),
		sl.Secret("token", n.Token),
	)
	return nil
}
