package output

//go:generate mockgen -source=coordination.go -destination=mocks/coordination.go -package=mocks

import (
	"context"
	"time"
)

// Lease grants exclusive, time-bounded ownership of a named job across
// instances.
type Lease interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
}

// ScanThrottle limits how often one scanner may scan at one event.
type ScanThrottle interface {
	// Allow reports whether the scanner may scan now, and starts a new window
	// when it may.
	Allow(ctx context.Context, scannerID, eventID string) (bool, error)
}

// TokenCodec mints and checks ticket tokens.
type TokenCodec interface {
	Generate(eventID, userID string, issuedAt time.Time) (string, error)
	// WellFormed checks the token shape without any store lookup.
	WellFormed(token string) bool
	// Verify checks that token was minted for (eventID, userID, issuedAt).
	Verify(token, eventID, userID string, issuedAt time.Time) bool
}
