package input

import (
	"context"
	"time"

	"rollcall/internal/domain/entities"
)

type RegisterResult struct {
	Status   string
	Sequence int64
	Ticket   *entities.Ticket // nil while waitlisted
}

type CancelResult struct {
	Status         string // status the cancelled record had
	PromotedUserID string // "" when nobody was promoted
}

type ScanResult struct {
	UserID     string
	AttendedAt time.Time
	// PromotedUserID is set when the slot freed by the scan went to the
	// waitlist.
	PromotedUserID string
}

type SweepResult struct {
	Processed  int
	Backfilled int
}

type ParticipationUseCase interface {
	Register(ctx context.Context, eventID, userID string) (*RegisterResult, error)
	Cancel(ctx context.Context, eventID, userID string) (*CancelResult, error)
	Scan(ctx context.Context, eventID, token, scannedBy string) (*ScanResult, error)
	SweepExpired(ctx context.Context, now time.Time) (*SweepResult, error)
	ListParticipants(ctx context.Context, eventID string) ([]entities.Participation, error)
	GetParticipation(ctx context.Context, eventID, userID string) (*entities.Participation, error)
}
