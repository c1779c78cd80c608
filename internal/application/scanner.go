package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rollcall/internal/domain"
	"rollcall/internal/domain/entities"
	"rollcall/internal/platform/sentinel"
	"rollcall/internal/platform/sl"
	"rollcall/internal/ports/input"
	"rollcall/internal/ports/output"
)

// Scan admits the holder of token to the event and records attendance on
// behalf of scannedBy. Checks run in a fixed order: unknown token, already
// attended, expired, already used.
func (s *Service) Scan(ctx context.Context, eventID, token, scannedBy string) (*input.ScanResult, error) {
	const op = "scan"
	started := time.Now()
	ctx, span := s.start(ctx, "attendance.Scan", eventID, "")

	var (
		res   *input.ScanResult
		notes []output.Notification
	)
	err := s.allowScan(ctx, eventID, scannedBy)
	if err == nil && !s.tokens.WellFormed(token) {
		err = domain.ErrInvalidToken
	}
	if err == nil {
		err = s.unitOfWork(ctx, op, func(ctx context.Context) error {
			notes = notes[:0]
			p, err := s.findByToken(ctx, eventID, token)
			if err != nil {
				return err
			}

			now := s.now()
			if err := p.CheckScannable(now); err != nil {
				return err
			}

			err = s.participations.MarkAttended(ctx, p.ID, now, scannedBy)
			if errors.Is(err, sentinel.ErrConflict) {
				// Someone else wrote first: report what they left behind.
				fresh, ferr := s.findByToken(ctx, eventID, token)
				if ferr != nil {
					return ferr
				}
				if cerr := fresh.CheckScannable(now); cerr != nil {
					return cerr
				}
				return err
			}
			if err != nil {
				return fmt.Errorf("mark attended: %w", err)
			}
			p.Status = domain.StatusAttended
			p.AttendedAt = &now
			p.AttendedBy = scannedBy
			res = &input.ScanResult{UserID: p.UserID, AttendedAt: now}
			note := s.note(output.KindAttended, p, "")
			note.Token = ""
			notes = append(notes, note)

			// The counter tracks registered records only: the freed slot
			// goes to the head of the waitlist.
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
	}
	s.finish(ctx, span, op, started, err)
	if err != nil {
		return nil, domain.Fail(op, eventID, "", err)
	}

	if res.PromotedUserID != "" && s.metrics != nil {
		s.metrics.IncrementPromotions(1)
	}
	s.notify(ctx, notes...)
	return res, nil
}

// findByToken resolves a token to its participation and checks that the
// token was minted for that participation.
func (s *Service) findByToken(ctx context.Context, eventID, token string) (*entities.Participation, error) {
	p, err := s.participations.FindByEventIDAndToken(ctx, eventID, token)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("find by token: %w", err)
	}
	if p.Ticket == nil || !s.tokens.Verify(token, eventID, p.UserID, p.Ticket.IssuedAt) {
		return nil, domain.ErrInvalidToken
	}
	return p, nil
}

// allowScan applies the scan throttle. A throttle that cannot answer lets
// the scan through.
func (s *Service) allowScan(ctx context.Context, eventID, scannedBy string) error {
	if s.throttle == nil || scannedBy == "" {
		return nil
	}
	ok, err := s.throttle.Allow(ctx, scannedBy, eventID)
	if err != nil {
		s.logger.WarnContext(ctx, "scan throttle unavailable", sl.Module("application"), "event_id", eventID, sl.Err(err))
		return nil
	}
	if !ok {
		return domain.ErrScanThrottled
	}
	return nil
}
