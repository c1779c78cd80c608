package application

import (
	"context"
	"errors"
	"fmt"

	"rollcall/internal/domain"
	"rollcall/internal/domain/entities"
	"rollcall/internal/platform/sentinel"
)

// ListParticipants returns the event's participations, registered and
// attended first, then the waitlist in sequence order.
func (s *Service) ListParticipants(ctx context.Context, eventID string) ([]entities.Participation, error) {
	if _, err := s.loadEvent(ctx, eventID); err != nil {
		return nil, domain.Fail("list_participants", eventID, "", err)
	}
	list, err := s.participations.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, domain.Fail("list_participants", eventID, "", fmt.Errorf("find participations: %w", err))
	}
	return list, nil
}

func (s *Service) GetParticipation(ctx context.Context, eventID, userID string) (*entities.Participation, error) {
	p, err := s.participations.FindByEventIDAndUserID(ctx, eventID, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, domain.Fail("get_participation", eventID, userID, domain.ErrNotRegistered)
	}
	if err != nil {
		return nil, domain.Fail("get_participation", eventID, userID, fmt.Errorf("find participation: %w", err))
	}
	return p, nil
}
