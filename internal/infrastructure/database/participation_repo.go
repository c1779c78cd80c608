package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/domain/entities"
	"rollcall/internal/platform/sentinel"
	"rollcall/internal/ports/output"
)

var _ output.ParticipationRepository = (*ParticipationRepository)(nil)

type ParticipationRepository struct {
	s *Store
}

func (r *ParticipationRepository) Create(ctx context.Context, p *entities.Participation) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	token, issuedAt, expiresAt, used, usedAt, usedBy := ticketArgs(p.Ticket)
	err := r.s.db(ctx).QueryRow(ctx, `
		INSERT INTO participations (id, event_id, user_id, status, sequence,
			ticket_token, ticket_issued_at, ticket_expires_at, ticket_used, ticket_used_at, ticket_used_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`,
		p.ID, p.EventID, p.UserID, p.Status, p.Sequence,
		token, issuedAt, expiresAt, used, usedAt, usedBy,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return mapErr(fmt.Errorf("create participation: %w", err))
	}
	return nil
}

func (r *ParticipationRepository) FindByEventIDAndUserID(ctx context.Context, eventID, userID string) (*entities.Participation, error) {
	p, err := scanParticipation(r.s.db(ctx).QueryRow(ctx,
		`SELECT `+participationColumns+` FROM participations WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	))
	if err != nil {
		return nil, mapErr(fmt.Errorf("get participation by user: %w", err))
	}
	return p, nil
}

func (r *ParticipationRepository) FindByEventIDAndToken(ctx context.Context, eventID, token string) (*entities.Participation, error) {
	p, err := scanParticipation(r.s.db(ctx).QueryRow(ctx,
		`SELECT `+participationColumns+` FROM participations WHERE event_id = $1 AND ticket_token = $2`,
		eventID, token,
	))
	if err != nil {
		return nil, mapErr(fmt.Errorf("get participation by token: %w", err))
	}
	return p, nil
}

func (r *ParticipationRepository) FindByEventID(ctx context.Context, eventID string) ([]entities.Participation, error) {
	rows, err := r.s.db(ctx).Query(ctx, `
		SELECT `+participationColumns+` FROM participations
		WHERE event_id = $1
		ORDER BY CASE status WHEN 'attended' THEN 0 WHEN 'registered' THEN 1 ELSE 2 END, sequence, created_at`,
		eventID,
	)
	if err != nil {
		return nil, mapErr(fmt.Errorf("list participations: %w", err))
	}
	list, err := collectParticipations(rows)
	if err != nil {
		return nil, mapErr(fmt.Errorf("list participations: %w", err))
	}
	return list, nil
}

// FindOldestWaitlisted locks the head of the waitlist until the end of the
// transaction.
func (r *ParticipationRepository) FindOldestWaitlisted(ctx context.Context, eventID string) (*entities.Participation, error) {
	p, err := scanParticipation(r.s.db(ctx).QueryRow(ctx, `
		SELECT `+participationColumns+` FROM participations
		WHERE event_id = $1 AND status = 'waitlisted'
		ORDER BY sequence
		LIMIT 1
		FOR UPDATE`,
		eventID,
	))
	if err != nil {
		return nil, mapErr(fmt.Errorf("get waitlist head: %w", err))
	}
	return p, nil
}

func (r *ParticipationRepository) Delete(ctx context.Context, eventID, userID string) (*entities.Participation, error) {
	p, err := scanParticipation(r.s.db(ctx).QueryRow(ctx, `
		DELETE FROM participations WHERE event_id = $1 AND user_id = $2
		RETURNING `+participationColumns,
		eventID, userID,
	))
	if err != nil {
		return nil, mapErr(fmt.Errorf("delete participation: %w", err))
	}
	return p, nil
}

func (r *ParticipationRepository) Promote(ctx context.Context, id string, ticket entities.Ticket, now time.Time) error {
	tag, err := r.s.db(ctx).Exec(ctx, `
		UPDATE participations SET
			status = 'registered',
			ticket_token = $2, ticket_issued_at = $3, ticket_expires_at = $4,
			ticket_used = FALSE, ticket_used_at = NULL, ticket_used_by = '',
			updated_at = $5
		WHERE id = $1 AND status = 'waitlisted'`,
		id, ticket.Token, ticket.IssuedAt, ticket.ExpiresAt, now,
	)
	if err != nil {
		return mapErr(fmt.Errorf("promote participation: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (r *ParticipationRepository) MarkAttended(ctx context.Context, id string, at time.Time, by string) error {
	tag, err := r.s.db(ctx).Exec(ctx, `
		UPDATE participations SET
			status = 'attended', attended_at = $2, attended_by = $3,
			ticket_used = TRUE, ticket_used_at = $2, ticket_used_by = $3,
			updated_at = $2
		WHERE id = $1 AND status = 'registered' AND ticket_token IS NOT NULL AND ticket_used = FALSE`,
		id, at, by,
	)
	if err != nil {
		return mapErr(fmt.Errorf("mark attended: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (r *ParticipationRepository) BackfillTicketExpiry(ctx context.Context, grace time.Duration) (int, error) {
	tag, err := r.s.db(ctx).Exec(ctx, `
		UPDATE participations p SET
			ticket_expires_at = e.ends_at + make_interval(secs => $1::double precision),
			updated_at = now()
		FROM events e
		WHERE p.event_id = e.id
			AND e.ends_at IS NOT NULL
			AND p.status = 'registered'
			AND p.ticket_token IS NOT NULL
			AND p.ticket_used = FALSE
			AND p.ticket_expires_at IS NULL`,
		grace.Seconds(),
	)
	if err != nil {
		return 0, mapErr(fmt.Errorf("backfill ticket expiry: %w", err))
	}
	return int(tag.RowsAffected()), nil
}

func (r *ParticipationRepository) UpdateTicketExpiry(ctx context.Context, eventID string, expiresAt *time.Time) (int, error) {
	tag, err := r.s.db(ctx).Exec(ctx, `
		UPDATE participations SET ticket_expires_at = $2, updated_at = now()
		WHERE event_id = $1 AND status = 'registered' AND ticket_token IS NOT NULL AND ticket_used = FALSE`,
		eventID, expiresAt,
	)
	if err != nil {
		return 0, mapErr(fmt.Errorf("update ticket expiry: %w", err))
	}
	return int(tag.RowsAffected()), nil
}

func (r *ParticipationRepository) FindExpiredTickets(ctx context.Context, now time.Time, limit int) ([]entities.Participation, error) {
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	rows, err := r.s.db(ctx).Query(ctx, `
		SELECT `+participationColumns+` FROM participations
		WHERE status = 'registered' AND ticket_used = FALSE AND ticket_expires_at < $1
		ORDER BY ticket_expires_at
		LIMIT $2`,
		now, lim,
	)
	if err != nil {
		return nil, mapErr(fmt.Errorf("find expired tickets: %w", err))
	}
	list, err := collectParticipations(rows)
	if err != nil {
		return nil, mapErr(fmt.Errorf("find expired tickets: %w", err))
	}
	return list, nil
}

func (r *ParticipationRepository) ExpireTicket(ctx context.Context, id string, now time.Time, by string) (bool, error) {
	tag, err := r.s.db(ctx).Exec(ctx, `
		UPDATE participations SET
			ticket_used = TRUE, ticket_used_at = $2, ticket_used_by = $3, updated_at = $2
		WHERE id = $1 AND status = 'registered' AND ticket_used = FALSE AND ticket_expires_at < $2`,
		id, now, by,
	)
	if err != nil {
		return false, mapErr(fmt.Errorf("expire ticket: %w", err))
	}
	return tag.RowsAffected() == 1, nil
}
