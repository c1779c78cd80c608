// Package memory is an in-process store for tests and local runs. Every
// transaction holds one store-wide lock, so it is serializable by
// construction; it does not aim at per-event parallelism.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"rollcall/internal/domain"
	"rollcall/internal/domain/entities"
	"rollcall/internal/ports/output"
)

var (
	_ output.Transactor              = (*Store)(nil)
	_ output.ParticipationRepository = (*ParticipationRepo)(nil)
	_ output.EventRepository         = (*EventRepo)(nil)
)

type txKey struct{}

type Store struct {
	mu             sync.Mutex
	events         map[string]entities.Event
	participations map[string]entities.Participation
	now            func() time.Time
}

func NewStore() *Store {
	return &Store{
		events:         make(map[string]entities.Event),
		participations: make(map[string]entities.Participation),
		now:            time.Now,
	}
}

// Events returns the event repository backed by s.
func (s *Store) Events() *EventRepo { return &EventRepo{s: s} }

// Participations returns the participation repository backed by s.
func (s *Store) Participations() *ParticipationRepo { return &ParticipationRepo{s: s} }

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithinTx runs fn under the store lock and restores the previous state when
// fn fails or ctx is cancelled before it returns.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	events := maps.Clone(s.events)
	participations := maps.Clone(s.participations)

	err := fn(context.WithValue(ctx, txKey{}, s))
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.events = events
		s.participations = participations
	}
	return err
}

func (s *Store) findUser(eventID, userID string) (entities.Participation, bool) {
	for _, p := range s.participations {
		if p.EventID == eventID && p.UserID == userID {
			return p, true
		}
	}
	return entities.Participation{}, false
}

func expirable(p entities.Participation, now time.Time) bool {
	return p.Status == domain.StatusRegistered && p.Ticket != nil && !p.Ticket.Used && p.Ticket.ExpiredAt(now)
}

func statusRank(status string) int {
	switch status {
	case domain.StatusAttended:
		return 0
	case domain.StatusRegistered:
		return 1
	default:
		return 2
	}
}

func clone(p entities.Participation) entities.Participation {
	p.Ticket = cloneTicket(p.Ticket)
	return p
}

func cloneTicket(t *entities.Ticket) *entities.Ticket {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
