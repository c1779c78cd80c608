package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors.
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrAlreadyRegistered    = errors.New("participant already registered")
	ErrNotRegistered        = errors.New("participant not registered")
	ErrCapacityRaceLost     = errors.New("capacity race lost")
	ErrInvalidToken         = errors.New("invalid ticket token")
	ErrTicketExpired        = errors.New("ticket expired")
	ErrTicketAlreadyUsed    = errors.New("ticket already used")
	ErrAlreadyAttended      = errors.New("attendance already recorded")
	ErrConflict             = errors.New("concurrent update conflict")
	ErrCannotReduceCapacity = errors.New("capacity cannot go below registered count")
	ErrInvalidCapacity      = errors.New("capacity must be zero or positive")
	ErrNotAuthorized        = errors.New("not authorized to register")
	ErrScanThrottled        = errors.New("too many scans, wait a moment")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrEventNotFound, "event_not_found"},
	{ErrAlreadyRegistered, "already_registered"},
	{ErrNotRegistered, "not_registered"},
	{ErrCapacityRaceLost, "capacity_race_lost"},
	{ErrInvalidToken, "invalid_token"},
	{ErrTicketExpired, "ticket_expired"},
	{ErrTicketAlreadyUsed, "ticket_already_used"},
	{ErrAlreadyAttended, "already_attended"},
	{ErrCannotReduceCapacity, "cannot_reduce_capacity"},
	{ErrInvalidCapacity, "invalid_capacity"},
	{ErrNotAuthorized, "not_authorized"},
	{ErrScanThrottled, "scan_throttled"},
	{ErrConflict, "conflict"},
}

// Code returns the stable code of the first domain error found in err's chain,
// or "" when err carries none.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}

// ParticipationError carries the operation and the (event, user) pair a
// failure relates to, so callers can build user-facing messages.
type ParticipationError struct {
	Op      string
	EventID string
	UserID  string
	Err     error
}

func (e *ParticipationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.EventID != "" {
		fmt.Fprintf(&b, " event=%s", e.EventID)
	}
	if e.UserID != "" {
		fmt.Fprintf(&b, " user=%s", e.UserID)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *ParticipationError) Unwrap() error { return e.Err }

// Fail wraps err with operation context. A nil err stays nil.
func Fail(op, eventID, userID string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ParticipationError
	if errors.As(err, &pe) {
		return err
	}
	return &ParticipationError{Op: op, EventID: eventID, UserID: userID, Err: err}
}
