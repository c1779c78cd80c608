package mongodb

import (
	"time"

	"rollcall/internal/domain/entities"
)

type eventDoc struct {
	ID              string     `bson:"_id"`
	Title           string     `bson:"title"`
	Capacity        int        `bson:"capacity"`
	EndsAt          *time.Time `bson:"ends_at"`
	RegisteredCount int        `bson:"registered_count"`
	WaitlistSeq     int64      `bson:"waitlist_seq"`
	CreatedAt       time.Time  `bson:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at"`
}

type ticketDoc struct {
	Token     string     `bson:"token"`
	IssuedAt  time.Time  `bson:"issued_at"`
	ExpiresAt *time.Time `bson:"expires_at"`
	Used      bool       `bson:"used"`
	UsedAt    *time.Time `bson:"used_at,omitempty"`
	UsedBy    string     `bson:"used_by,omitempty"`
}

type participationDoc struct {
	ID         string     `bson:"_id"`
	EventID    string     `bson:"event_id"`
	UserID     string     `bson:"user_id"`
	Status     string     `bson:"status"`
	Sequence   int64      `bson:"sequence"`
	Ticket     *ticketDoc `bson:"ticket,omitempty"`
	AttendedAt *time.Time `bson:"attended_at,omitempty"`
	AttendedBy string     `bson:"attended_by,omitempty"`
	CreatedAt  time.Time  `bson:"created_at"`
	UpdatedAt  time.Time  `bson:"updated_at"`
}

func eventToDoc(e *entities.Event) eventDoc {
	d := eventDoc{
		ID:              e.ID,
		Title:           e.Title,
		Capacity:        e.Capacity,
		RegisteredCount: e.RegisteredCount,
		WaitlistSeq:     e.WaitlistSeq,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
	if !e.EndsAt.IsZero() {
		endsAt := e.EndsAt
		d.EndsAt = &endsAt
	}
	return d
}

func eventToDomain(d eventDoc) *entities.Event {
	e := &entities.Event{
		ID:              d.ID,
		Title:           d.Title,
		Capacity:        d.Capacity,
		RegisteredCount: d.RegisteredCount,
		WaitlistSeq:     d.WaitlistSeq,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	if d.EndsAt != nil {
		e.EndsAt = *d.EndsAt
	}
	return e
}

func ticketToDoc(t *entities.Ticket) *ticketDoc {
	if t == nil {
		return nil
	}
	return &ticketDoc{
		Token:     t.Token,
		IssuedAt:  t.IssuedAt,
		ExpiresAt: t.ExpiresAt,
		Used:      t.Used,
		UsedAt:    t.UsedAt,
		UsedBy:    t.UsedBy,
	}
}

func participationToDoc(p *entities.Participation) participationDoc {
	return participationDoc{
		ID:         p.ID,
		EventID:    p.EventID,
		UserID:     p.UserID,
		Status:     p.Status,
		Sequence:   p.Sequence,
		Ticket:     ticketToDoc(p.Ticket),
		AttendedAt: p.AttendedAt,
		AttendedBy: p.AttendedBy,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func participationToDomain(d participationDoc) entities.Participation {
	p := entities.Participation{
		ID:         d.ID,
		EventID:    d.EventID,
		UserID:     d.UserID,
		Status:     d.Status,
		Sequence:   d.Sequence,
		AttendedAt: d.AttendedAt,
		AttendedBy: d.AttendedBy,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
	if d.Ticket != nil {
		p.Ticket = &entities.Ticket{
			Token:     d.Ticket.Token,
			IssuedAt:  d.Ticket.IssuedAt.UTC(),
			ExpiresAt: d.Ticket.ExpiresAt,
			Used:      d.Ticket.Used,
			UsedAt:    d.Ticket.UsedAt,
			UsedBy:    d.Ticket.UsedBy,
		}
	}
	return p
}
