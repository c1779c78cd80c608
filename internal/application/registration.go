package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rollcall/internal/domain"
	"rollcall/internal/domain/entities"
	"rollcall/internal/platform/sentinel"
	"rollcall/internal/ports/input"
	"rollcall/internal/ports/output"
)

// Register adds userID to the event: registered with a ticket while a slot
// is free, waitlisted with the next sequence otherwise. The caller has
// already decided that the user may register.
func (s *Service) Register(ctx context.Context, eventID, userID string) (*input.RegisterResult, error) {
	const op = "register"
	started := time.Now()
	ctx, span := s.start(ctx, "participation.Register", eventID, userID)

	var (
		res  *input.RegisterResult
		note output.Notification
	)
	err := s.unitOfWork(ctx, op, func(ctx context.Context) error {
		event, err := s.loadEvent(ctx, eventID)
		if err != nil {
			return err
		}

		_, err = s.participations.FindByEventIDAndUserID(ctx, eventID, userID)
		switch {
		case err == nil:
			return domain.ErrAlreadyRegistered
		case !errors.Is(err, sentinel.ErrNotFound):
			return fmt.Errorf("find participation: %w", err)
		}

		reserved, err := s.reserveSlot(ctx, eventID)
		if err != nil {
			return err
		}

		p := &entities.Participation{EventID: eventID, UserID: userID}
		kind := output.KindRegistered
		if reserved {
			ticket, err := s.Issue(eventID, userID, event.EndsAt)
			if err != nil {
				return err
			}
			p.Status = domain.StatusRegistered
			p.Ticket = ticket
		} else {
			seq, err := s.events.NextSequence(ctx, eventID)
			if err != nil {
				return fmt.Errorf("next sequence: %w", err)
			}
			p.Status = domain.StatusWaitlisted
			p.Sequence = seq
			kind = output.KindWaitlisted
		}

		if err := s.participations.Create(ctx, p); err != nil {
			if errors.Is(err, sentinel.ErrDuplicate) {
				return domain.ErrAlreadyRegistered
			}
			return fmt.Errorf("create participation: %w", err)
		}

		res = &input.RegisterResult{Status: p.Status, Sequence: p.Sequence, Ticket: p.Ticket}
		note = s.note(kind, p, event.Title)
		return nil
	})
	s.finish(ctx, span, op, started, err)
	if err != nil {
		return nil, domain.Fail(op, eventID, userID, err)
	}

	s.notify(ctx, note)
	return res, nil
}
