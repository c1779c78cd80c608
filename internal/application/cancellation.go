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

// Cancel removes the user's participation whatever its status. Freeing a
// registered slot promotes the head of the waitlist in the same
// transaction.
func (s *Service) Cancel(ctx context.Context, eventID, userID string) (*input.CancelResult, error) {
	const op = "cancel"
	started := time.Now()
	ctx, span := s.start(ctx, "participation.Cancel", eventID, userID)

	var (
		res   *input.CancelResult
		notes []output.Notification
	)
	err := s.unitOfWork(ctx, op, func(ctx context.Context) error {
		notes = notes[:0]

		deleted, err := s.participations.Delete(ctx, eventID, userID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.ErrNotRegistered
		}
		if err != nil {
			return fmt.Errorf("delete participation: %w", err)
		}
		res = &input.CancelResult{Status: deleted.Status}
		cancelled := s.note(output.KindCancelled, deleted, "")
		cancelled.Token = ""
		notes = append(notes, cancelled)

		if !deleted.IsRegistered() {
			return nil
		}
		if err := s.events.ReleaseSlot(ctx, eventID); err != nil {
			return fmt.Errorf("release slot: %w", err)
		}

		event, err := s.loadEvent(ctx, eventID)
		if err != nil {
			return err
		}
		promoted, err := s.promoteNext(ctx, event)
		if err != nil {
			return err
		}
		if promoted != nil {
			res.PromotedUserID = promoted.UserID
			notes = append(notes, s.note(output.KindPromoted, promoted, event.Title))
		}
		return nil
	})
	s.finish(ctx, span, op, started, err)
	if err != nil {
		return nil, domain.Fail(op, eventID, userID, err)
	}

	if res.PromotedUserID != "" && s.metrics != nil {
		s.metrics.IncrementPromotions(1)
	}
	s.notify(ctx, notes...)
	return res, nil
}

// promoteNext moves the oldest waitlisted participant into a free slot with
// a fresh ticket. It returns nil when the waitlist is empty or no slot is
// free. A candidate that changed underneath the lookup is skipped for the
// next one, up to the attempt budget.
func (s *Service) promoteNext(ctx context.Context, event *entities.Event) (*entities.Participation, error) {
	for range s.maxAttempts {
		candidate, err := s.participations.FindOldestWaitlisted(ctx, event.ID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("find waitlist head: %w", err)
		}

		reserved, err := s.reserveSlot(ctx, event.ID)
		if err != nil {
			return nil, err
		}
		if !reserved {
			return nil, nil
		}

		ticket, err := s.Issue(event.ID, candidate.UserID, event.EndsAt)
		if err != nil {
			return nil, err
		}
		err = s.participations.Promote(ctx, candidate.ID, *ticket, s.now())
		if err == nil {
			candidate.Status = domain.StatusRegistered
			candidate.Ticket = ticket
			return candidate, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return nil, fmt.Errorf("promote: %w", err)
		}
		if err := s.events.ReleaseSlot(ctx, event.ID); err != nil {
			return nil, fmt.Errorf("release slot: %w", err)
		}
	}
	return nil, domain.ErrConflict
}
