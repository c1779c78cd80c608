package application

import (
	"context"
	"fmt"
	"time"

	"rollcall/internal/domain"
	"rollcall/internal/domain/entities"
	"rollcall/internal/ports/input"
	"rollcall/internal/ports/output"
)

// Issue mints a ticket for (eventID, userID). Its expiry is the event end
// plus the grace period, or nil while the end is unknown. Issue does not
// persist anything; storing the ticket replaces any previous one.
func (s *Service) Issue(eventID, userID string, eventEnd time.Time) (*entities.Ticket, error) {
	issuedAt := s.now().UTC().Truncate(time.Millisecond)
	token, err := s.tokens.Generate(eventID, userID, issuedAt)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &entities.Ticket{
		Token:     token,
		IssuedAt:  issuedAt,
		ExpiresAt: s.expiryFor(eventEnd),
	}, nil
}

func (s *Service) expiryFor(eventEnd time.Time) *time.Time {
	if eventEnd.IsZero() {
		return nil
	}
	exp := eventEnd.Add(s.grace).UTC()
	return &exp
}

// SweepExpired consumes every unused ticket whose expiry passed before now,
// on behalf of the system. Tickets still missing an expiry get one first if
// their event end is known. Statuses are left untouched, and running it
// twice in a row processes nothing the second time.
func (s *Service) SweepExpired(ctx context.Context, now time.Time) (*input.SweepResult, error) {
	const op = "sweep"
	started := time.Now()
	ctx, span := s.start(ctx, "tickets.SweepExpired", "", "")

	res := &input.SweepResult{}
	var notes []output.Notification
	err := s.unitOfWork(ctx, op, func(ctx context.Context) error {
		n, err := s.participations.BackfillTicketExpiry(ctx, s.grace)
		if err != nil {
			return fmt.Errorf("backfill expiry: %w", err)
		}
		res.Backfilled = n
		return nil
	})

	for err == nil {
		var batch []output.Notification
		var found int
		err = s.unitOfWork(ctx, op, func(ctx context.Context) error {
			batch = batch[:0]
			expired, err := s.participations.FindExpiredTickets(ctx, now, s.sweepBatch)
			if err != nil {
				return fmt.Errorf("find expired: %w", err)
			}
			found = len(expired)
			for i := range expired {
				p := &expired[i]
				changed, err := s.participations.ExpireTicket(ctx, p.ID, now, domain.SystemExpiry)
				if err != nil {
					return fmt.Errorf("expire ticket: %w", err)
				}
				if changed {
					n := s.note(output.KindTicketExpired, p, "")
					n.Token = ""
					batch = append(batch, n)
				}
			}
			return nil
		})
		if err != nil {
			break
		}
		res.Processed += len(batch)
		notes = append(notes, batch...)
		if found < s.sweepBatch || len(batch) == 0 {
			break
		}
	}
	s.finish(ctx, span, op, started, err)
	if err != nil {
		return nil, domain.Fail(op, "", "", err)
	}

	if s.metrics != nil {
		s.metrics.IncrementExpired(res.Processed)
	}
	if res.Processed > 0 || res.Backfilled > 0 {
		s.logger.InfoContext(ctx, "ticket sweep done", "processed", res.Processed, "backfilled", res.Backfilled)
	}
	s.notify(ctx, notes...)
	return res, nil
}
