package output

import (
	"context"
	"time"

	"rollcall/internal/domain/entities"
)

// EventRepository reads events and owns their per-event counters.
type EventRepository interface {
	Create(ctx context.Context, event *entities.Event) error
	FindByID(ctx context.Context, id string) (*entities.Event, error)
	// UpdateSchedule sets title and end time.
	UpdateSchedule(ctx context.Context, id, title string, endsAt time.Time) error
	// UpdateCapacity sets the capacity only if it stays unlimited or at least
	// the registered count, else sentinel.ErrInvalidState.
	UpdateCapacity(ctx context.Context, id string, capacity int) error
	// ReserveSlot atomically increments the registered count if a slot is
	// free. A store using optimistic compare-and-swap may return
	// domain.ErrCapacityRaceLost when the count moved underneath it.
	ReserveSlot(ctx context.Context, id string) (bool, error)
	// ReleaseSlot decrements the registered count, never below zero.
	ReleaseSlot(ctx context.Context, id string) error
	// NextSequence atomically hands out the next waitlist sequence.
	NextSequence(ctx context.Context, id string) (int64, error)
}
