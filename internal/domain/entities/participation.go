package entities

import (
	"time"

	"rollcall/internal/domain"
)

// Participation is one person's relationship to one event.
type Participation struct {
	ID         string
	EventID    string
	UserID     string
	Status     string
	Sequence   int64
	Ticket     *Ticket
	AttendedAt *time.Time
	AttendedBy string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Ticket is the single-use admission credential embedded in a participation.
type Ticket struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt *time.Time // nil = computed lazily once the event end is known
	Used      bool
	UsedAt    *time.Time
	UsedBy    string
}

func (p *Participation) IsRegistered() bool { return p.Status == domain.StatusRegistered }
func (p *Participation) IsWaitlisted() bool { return p.Status == domain.StatusWaitlisted }
func (p *Participation) IsAttended() bool   { return p.Status == domain.StatusAttended }

// ExpiredAt reports whether the ticket expiry lies strictly before now.
func (t *Ticket) ExpiredAt(now time.Time) bool {
	return t != nil && t.ExpiresAt != nil && t.ExpiresAt.Before(now)
}

// CheckScannable runs the ordered admission checks for a participation
// presented at the door: attended, then expired, then used.
func (p *Participation) CheckScannable(now time.Time) error {
	switch {
	case p.IsAttended():
		return domain.ErrAlreadyAttended
	case p.Ticket == nil || !p.IsRegistered():
		return domain.ErrInvalidToken
	case p.Ticket.ExpiredAt(now):
		return domain.ErrTicketExpired
	case p.Ticket.Used:
		return domain.ErrTicketAlreadyUsed
	}
	return nil
}
