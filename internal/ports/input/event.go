package input

import (
	"context"
	"time"

	"rollcall/internal/domain/entities"
)

type EventUseCase interface {
	CreateEvent(ctx context.Context, event *entities.Event) error
	GetEvent(ctx context.Context, id string) (*entities.Event, error)
	RescheduleEvent(ctx context.Context, id, title string, endsAt time.Time) error
	// UpdateCapacity changes the capacity and returns the user IDs promoted
	// from the waitlist to fill new slots.
	UpdateCapacity(ctx context.Context, id string, capacity int) ([]string, error)
}
