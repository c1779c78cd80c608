package api

import (
	"net/http"
	"time"

	"rollcall/internal/domain/entities"
	"rollcall/internal/ports/input"
)

type createEventRequest struct {
	ID       string     `json:"id,omitempty" validate:"omitempty,max=64"`
	Title    string     `json:"title" validate:"required,max=200"`
	Capacity int        `json:"capacity"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
}

func (c *createEventRequest) Bind(_ *http.Request) error {
	return validateStruct(c)
}

type rescheduleRequest struct {
	Title  string    `json:"title,omitempty" validate:"max=200"`
	EndsAt time.Time `json:"ends_at" validate:"required"`
}

func (c *rescheduleRequest) Bind(_ *http.Request) error {
	return validateStruct(c)
}

type capacityRequest struct {
	Capacity *int `json:"capacity" validate:"required"`
}

func (c *capacityRequest) Bind(_ *http.Request) error {
	return validateStruct(c)
}

// registerRequest carries the caller's authorization verdict; the engine
// does not decide who may register.
type registerRequest struct {
	UserID      string `json:"user_id" validate:"required,max=128"`
	CanRegister *bool  `json:"can_register" validate:"required"`
}

func (c *registerRequest) Bind(_ *http.Request) error {
	return validateStruct(c)
}

type scanRequest struct {
	Token     string `json:"token" validate:"required"`
	ScannedBy string `json:"scanned_by" validate:"required,max=128"`
}

func (c *scanRequest) Bind(_ *http.Request) error {
	return validateStruct(c)
}

type eventView struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Capacity        int        `json:"capacity"`
	EndsAt          *time.Time `json:"ends_at,omitempty"`
	RegisteredCount int        `json:"registered_count"`
	CreatedAt       time.Time  `json:"created_at"`
}

func newEventView(e *entities.Event) eventView {
	v := eventView{
		ID:              e.ID,
		Title:           e.Title,
		Capacity:        e.Capacity,
		RegisteredCount: e.RegisteredCount,
		CreatedAt:       e.CreatedAt,
	}
	if !e.EndsAt.IsZero() {
		endsAt := e.EndsAt
		v.EndsAt = &endsAt
	}
	return v
}

type ticketView struct {
	Token     string     `json:"token,omitempty"`
	IssuedAt  time.Time  `json:"issued_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Used      bool       `json:"used"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	UsedBy    string     `json:"used_by,omitempty"`
}

type participationView struct {
	UserID     string      `json:"user_id"`
	Status     string      `json:"status"`
	Sequence   int64       `json:"sequence,omitempty"`
	Ticket     *ticketView `json:"ticket,omitempty"`
	AttendedAt *time.Time  `json:"attended_at,omitempty"`
	AttendedBy string      `json:"attended_by,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// newParticipationView shows ticket metadata. The token itself is only
// shown when withToken is set, i.e. to the ticket holder.
func newParticipationView(p *entities.Participation, withToken bool) participationView {
	v := participationView{
		UserID:     p.UserID,
		Status:     p.Status,
		Sequence:   p.Sequence,
		AttendedAt: p.AttendedAt,
		AttendedBy: p.AttendedBy,
		CreatedAt:  p.CreatedAt,
	}
	if t := p.Ticket; t != nil {
		v.Ticket = &ticketView{
			IssuedAt:  t.IssuedAt,
			ExpiresAt: t.ExpiresAt,
			Used:      t.Used,
			UsedAt:    t.UsedAt,
			UsedBy:    t.UsedBy,
		}
		if withToken && !t.Used {
			v.Ticket.Token = t.Token
		}
	}
	return v
}

type registerView struct {
	Status   string      `json:"status"`
	Sequence int64       `json:"sequence,omitempty"`
	Ticket   *ticketView `json:"ticket,omitempty"`
}

func newRegisterView(res *input.RegisterResult) registerView {
	v := registerView{Status: res.Status, Sequence: res.Sequence}
	if t := res.Ticket; t != nil {
		v.Ticket = &ticketView{Token: t.Token, IssuedAt: t.IssuedAt, ExpiresAt: t.ExpiresAt}
	}
	return v
}
