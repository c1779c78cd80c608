package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/domain/entities"
	"rollcall/internal/platform/sentinel"
)

type EventRepo struct {
	s *Store
}

func (r *EventRepo) Create(ctx context.Context, event *entities.Event) error {
	defer r.s.lock(ctx)()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if _, ok := r.s.events[event.ID]; ok {
		return sentinel.ErrDuplicate
	}
	now := r.s.now()
	event.CreatedAt = now
	event.UpdatedAt = now
	r.s.events[event.ID] = *event
	return nil
}

func (r *EventRepo) FindByID(ctx context.Context, id string) (*entities.Event, error) {
	defer r.s.lock(ctx)()
	e, ok := r.s.events[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &e, nil
}

func (r *EventRepo) UpdateSchedule(ctx context.Context, id, title string, endsAt time.Time) error {
	defer r.s.lock(ctx)()
	e, ok := r.s.events[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	e.Title = title
	e.EndsAt = endsAt
	e.UpdatedAt = r.s.now()
	r.s.events[id] = e
	return nil
}

func (r *EventRepo) UpdateCapacity(ctx context.Context, id string, capacity int) error {
	defer r.s.lock(ctx)()
	e, ok := r.s.events[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if capacity > 0 && capacity < e.RegisteredCount {
		return sentinel.ErrInvalidState
	}
	e.Capacity = capacity
	e.UpdatedAt = r.s.now()
	r.s.events[id] = e
	return nil
}

func (r *EventRepo) ReserveSlot(ctx context.Context, id string) (bool, error) {
	defer r.s.lock(ctx)()
	e, ok := r.s.events[id]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if !e.HasFreeSlot() {
		return false, nil
	}
	e.RegisteredCount++
	r.s.events[id] = e
	return true, nil
}

func (r *EventRepo) ReleaseSlot(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	e, ok := r.s.events[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if e.RegisteredCount > 0 {
		e.RegisteredCount--
	}
	r.s.events[id] = e
	return nil
}

func (r *EventRepo) NextSequence(ctx context.Context, id string) (int64, error) {
	defer r.s.lock(ctx)()
	e, ok := r.s.events[id]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	e.WaitlistSeq++
	r.s.events[id] = e
	return e.WaitlistSeq, nil
}
