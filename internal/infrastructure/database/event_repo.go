package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"rollcall/internal/domain/entities"
	"rollcall/internal/platform/sentinel"
	"rollcall/internal/ports/output"
)

var _ output.EventRepository = (*EventRepository)(nil)

type EventRepository struct {
	s *Store
}

func (r *EventRepository) Create(ctx context.Context, event *entities.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	err := r.s.db(ctx).QueryRow(ctx, `
		INSERT INTO events (id, title, capacity, ends_at)
		VALUES ($1, $2, $3, $4)
		RETURNING registered_count, waitlist_seq, created_at, updated_at`,
		event.ID, event.Title, event.Capacity, nullTime(event.EndsAt),
	).Scan(&event.RegisteredCount, &event.WaitlistSeq, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return mapErr(fmt.Errorf("create event: %w", err))
	}
	return nil
}

func (r *EventRepository) FindByID(ctx context.Context, id string) (*entities.Event, error) {
	e, err := scanEvent(r.s.db(ctx).QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(fmt.Errorf("get event by id: %w", err))
	}
	return e, nil
}

func (r *EventRepository) UpdateSchedule(ctx context.Context, id, title string, endsAt time.Time) error {
	tag, err := r.s.db(ctx).Exec(ctx, `
		UPDATE events SET title = $2, ends_at = $3, updated_at = now()
		WHERE id = $1`,
		id, title, nullTime(endsAt),
	)
	if err != nil {
		return mapErr(fmt.Errorf("update schedule: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (r *EventRepository) UpdateCapacity(ctx context.Context, id string, capacity int) error {
	tag, err := r.s.db(ctx).Exec(ctx, `
		UPDATE events SET capacity = $2::integer, updated_at = now()
		WHERE id = $1 AND ($2::integer = 0 OR registered_count <= $2::integer)`,
		id, capacity,
	)
	if err != nil {
		return mapErr(fmt.Errorf("update capacity: %w", err))
	}
	if tag.RowsAffected() == 0 {
		if err := r.exists(ctx, id); err != nil {
			return err
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (r *EventRepository) ReserveSlot(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.s.db(ctx).QueryRow(ctx, `
		UPDATE events SET registered_count = registered_count + 1, updated_at = now()
		WHERE id = $1 AND (capacity = 0 OR registered_count < capacity)
		RETURNING registered_count`,
		id,
	).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, r.exists(ctx, id)
	}
	if err != nil {
		return false, mapErr(fmt.Errorf("reserve slot: %w", err))
	}
	return true, nil
}

func (r *EventRepository) ReleaseSlot(ctx context.Context, id string) error {
	tag, err := r.s.db(ctx).Exec(ctx, `
		UPDATE events SET registered_count = GREATEST(registered_count - 1, 0), updated_at = now()
		WHERE id = $1`,
		id,
	)
	if err != nil {
		return mapErr(fmt.Errorf("release slot: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (r *EventRepository) NextSequence(ctx context.Context, id string) (int64, error) {
	var seq int64
	err := r.s.db(ctx).QueryRow(ctx, `
		UPDATE events SET waitlist_seq = waitlist_seq + 1
		WHERE id = $1
		RETURNING waitlist_seq`,
		id,
	).Scan(&seq)
	if err != nil {
		return 0, mapErr(fmt.Errorf("next sequence: %w", err))
	}
	return seq, nil
}

func (r *EventRepository) exists(ctx context.Context, id string) error {
	var one int
	err := r.s.db(ctx).QueryRow(ctx, `SELECT 1 FROM events WHERE id = $1`, id).Scan(&one)
	if err != nil {
		return mapErr(fmt.Errorf("event exists: %w", err))
	}
	return nil
}
