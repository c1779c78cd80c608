package output

import (
	"context"
	"time"

	"rollcall/internal/domain/entities"
)

// Transactor runs a unit of work atomically. Repository calls made with the
// ctx handed to fn join the transaction; nested calls reuse it.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ParticipationRepository persists participation records. Lookups return
// sentinel.ErrNotFound when nothing matches; conditional writes return
// sentinel.ErrConflict when their precondition no longer holds.
type ParticipationRepository interface {
	// Create inserts p and fills ID/CreatedAt/UpdatedAt. A second record for
	// the same (event, user) fails with sentinel.ErrDuplicate.
	Create(ctx context.Context, p *entities.Participation) error
	FindByEventIDAndUserID(ctx context.Context, eventID, userID string) (*entities.Participation, error)
	FindByEventIDAndToken(ctx context.Context, eventID, token string) (*entities.Participation, error)
	// FindByEventID lists an event's participations ordered by status then sequence.
	FindByEventID(ctx context.Context, eventID string) ([]entities.Participation, error)
	// FindOldestWaitlisted returns the waitlisted record with the lowest sequence.
	FindOldestWaitlisted(ctx context.Context, eventID string) (*entities.Participation, error)
	// Delete removes the (event, user) record and returns it as it was.
	Delete(ctx context.Context, eventID, userID string) (*entities.Participation, error)
	// Promote flips a record to registered with a fresh ticket, only if it is
	// still waitlisted.
	Promote(ctx context.Context, id string, ticket entities.Ticket, now time.Time) error
	// MarkAttended records attendance and consumes the ticket, only if the
	// record is registered and its ticket unused.
	MarkAttended(ctx context.Context, id string, at time.Time, by string) error
	// BackfillTicketExpiry sets expiry = event end + grace on unused tickets of
	// registered records that have no expiry while their event end is known.
	BackfillTicketExpiry(ctx context.Context, grace time.Duration) (int, error)
	// UpdateTicketExpiry re-anchors the expiry of the event's unused tickets
	// on registered records, after the event end moved. nil clears it.
	UpdateTicketExpiry(ctx context.Context, eventID string, expiresAt *time.Time) (int, error)
	// FindExpiredTickets lists registered records whose unused ticket expired before now.
	FindExpiredTickets(ctx context.Context, now time.Time, limit int) ([]entities.Participation, error)
	// ExpireTicket marks the ticket used by the given consumer, only if it is
	// still unused and expired before now. It reports whether a row changed.
	ExpireTicket(ctx context.Context, id string, now time.Time, by string) (bool, error)
}
