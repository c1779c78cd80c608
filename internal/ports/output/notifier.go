package output

//go:generate mockgen -source=notifier.go -destination=mocks/notifier.go -package=mocks

import (
	"context"
	"time"
)

// Notification kinds.
const (
	KindRegistered    = "registered"
	KindWaitlisted    = "waitlisted"
	KindPromoted      = "promoted"
	KindTicketExpired = "ticket-expired"
	KindAttended      = "attended"
	KindCancelled     = "cancelled"
)

// Notification describes a participation change worth telling someone about.
type Notification struct {
	Kind       string    `json:"kind"`
	EventID    string    `json:"event_id"`
	EventTitle string    `json:"event_title,omitempty"`
	UserID     string    `json:"user_id"`
	Status     string    `json:"status,omitempty"`
	Token      string    `json:"-"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier delivers notifications. Callers treat delivery as best effort.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
