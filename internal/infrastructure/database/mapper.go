package database

import (
	"time"

	"github.com/jackc/pgx/v5"

	"rollcall/internal/domain/entities"
)

const eventColumns = `id, title, capacity, ends_at, registered_count, waitlist_seq, created_at, updated_at`

const participationColumns = `id, event_id, user_id, status, sequence,
	ticket_token, ticket_issued_at, ticket_expires_at, ticket_used, ticket_used_at, ticket_used_by,
	attended_at, attended_by, created_at, updated_at`

// nullTime maps the zero time to NULL.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func scanEvent(row pgx.Row) (*entities.Event, error) {
	var (
		e      entities.Event
		endsAt *time.Time
	)
	err := row.Scan(&e.ID, &e.Title, &e.Capacity, &endsAt, &e.RegisteredCount, &e.WaitlistSeq, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.EndsAt = derefTime(endsAt)
	return &e, nil
}

func scanParticipation(row pgx.Row) (*entities.Participation, error) {
	var (
		p        entities.Participation
		token    *string
		issuedAt *time.Time
		t        entities.Ticket
	)
	err := row.Scan(
		&p.ID, &p.EventID, &p.UserID, &p.Status, &p.Sequence,
		&token, &issuedAt, &t.ExpiresAt, &t.Used, &t.UsedAt, &t.UsedBy,
		&p.AttendedAt, &p.AttendedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if token != nil {
		t.Token = *token
		t.IssuedAt = derefTime(issuedAt).UTC()
		p.Ticket = &t
	}
	return &p, nil
}

func collectParticipations(rows pgx.Rows) ([]entities.Participation, error) {
	defer rows.Close()
	out := make([]entities.Participation, 0)
	for rows.Next() {
		p, err := scanParticipation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// ticketArgs flattens an optional ticket into column values.
func ticketArgs(t *entities.Ticket) (token *string, issuedAt, expiresAt *time.Time, used bool, usedAt *time.Time, usedBy string) {
	if t == nil {
		return nil, nil, nil, false, nil, ""
	}
	return &t.Token, &t.IssuedAt, t.ExpiresAt, t.Used, t.UsedAt, t.UsedBy
}
