package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rollcall/internal/domain"
	"rollcall/internal/domain/entities"
	"rollcall/internal/platform/sentinel"
	"rollcall/internal/ports/output"
)

func (s *Service) CreateEvent(ctx context.Context, event *entities.Event) error {
	if event.Capacity < 0 {
		return domain.Fail("create_event", event.ID, "", domain.ErrInvalidCapacity)
	}
	event.Title = strings.TrimSpace(event.Title)
	event.RegisteredCount = 0
	event.WaitlistSeq = 0
	if err := s.events.Create(ctx, event); err != nil {
		return domain.Fail("create_event", event.ID, "", fmt.Errorf("create event: %w", err))
	}
	return nil
}

func (s *Service) GetEvent(ctx context.Context, id string) (*entities.Event, error) {
	event, err := s.loadEvent(ctx, id)
	if err != nil {
		return nil, domain.Fail("get_event", id, "", err)
	}
	return event, nil
}

// RescheduleEvent changes title and end time. Unused tickets follow the new
// end time.
func (s *Service) RescheduleEvent(ctx context.Context, id, title string, endsAt time.Time) error {
	const op = "reschedule"
	started := time.Now()
	ctx, span := s.start(ctx, "event.Reschedule", id, "")

	err := s.unitOfWork(ctx, op, func(ctx context.Context) error {
		event, err := s.loadEvent(ctx, id)
		if err != nil {
			return err
		}
		if title = strings.TrimSpace(title); title == "" {
			title = event.Title
		}
		if err := s.events.UpdateSchedule(ctx, id, title, endsAt); err != nil {
			return fmt.Errorf("update schedule: %w", err)
		}
		if endsAt.Equal(event.EndsAt) {
			return nil
		}
		if _, err := s.participations.UpdateTicketExpiry(ctx, id, s.expiryFor(endsAt)); err != nil {
			return fmt.Errorf("update ticket expiry: %w", err)
		}
		return nil
	})
	s.finish(ctx, span, op, started, err)
	return domain.Fail(op, id, "", err)
}

// UpdateCapacity changes the capacity of an event. It refuses to go below
// the registered count; extra slots are filled from the waitlist in
// sequence order. It returns the promoted user IDs.
func (s *Service) UpdateCapacity(ctx context.Context, id string, capacity int) ([]string, error) {
	const op = "update_capacity"
	if capacity < 0 {
		return nil, domain.Fail(op, id, "", domain.ErrInvalidCapacity)
	}
	started := time.Now()
	ctx, span := s.start(ctx, "event.UpdateCapacity", id, "")

	var (
		promoted []string
		notes    []output.Notification
	)
	err := s.unitOfWork(ctx, op, func(ctx context.Context) error {
		promoted, notes = promoted[:0], notes[:0]

		err := s.events.UpdateCapacity(ctx, id, capacity)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return domain.ErrEventNotFound
		case errors.Is(err, sentinel.ErrInvalidState):
			return domain.ErrCannotReduceCapacity
		case err != nil:
			return fmt.Errorf("update capacity: %w", err)
		}

		event, err := s.loadEvent(ctx, id)
		if err != nil {
			return err
		}
		for {
			p, err := s.promoteNext(ctx, event)
			if err != nil {
				return err
			}
			if p == nil {
				return nil
			}
			promoted = append(promoted, p.UserID)
			notes = append(notes, s.note(output.KindPromoted, p, event.Title))
		}
	})
	s.finish(ctx, span, op, started, err)
	if err != nil {
		return nil, domain.Fail(op, id, "", err)
	}

	if s.metrics != nil {
		s.metrics.IncrementPromotions(len(promoted))
	}
	s.notify(ctx, notes...)
	return promoted, nil
}
