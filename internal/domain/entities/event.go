package entities

import "time"

// Unlimited reports whether the event has no capacity bound.
func (e *Event) Unlimited() bool {
	return e.Capacity <= 0
}

// HasFreeSlot reports whether one more participant fits.
func (e *Event) HasFreeSlot() bool {
	return e.Unlimited() || e.RegisteredCount < e.Capacity
}

// Event is the slice of the event entity the participation engine reads and
// the per-event counters it maintains.
type Event struct {
	ID              string
	Title           string
	Capacity        int       // 0 = unlimited
	EndsAt          time.Time // zero = not known yet
	RegisteredCount int
	WaitlistSeq     int64 // last waitlist sequence handed out
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
