package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/domain"
	"rollcall/internal/domain/entities"
	"rollcall/internal/platform/sentinel"
)

type ParticipationRepo struct {
	s *Store
}

func (r *ParticipationRepo) Create(ctx context.Context, p *entities.Participation) error {
	defer r.s.lock(ctx)()
	for _, existing := range r.s.participations {
		if existing.EventID == p.EventID && existing.UserID == p.UserID {
			return sentinel.ErrDuplicate
		}
	}
	now := r.s.now()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	r.s.participations[p.ID] = clone(*p)
	return nil
}

func (r *ParticipationRepo) FindByEventIDAndUserID(ctx context.Context, eventID, userID string) (*entities.Participation, error) {
	defer r.s.lock(ctx)()
	p, ok := r.s.findUser(eventID, userID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := clone(p)
	return &out, nil
}

func (r *ParticipationRepo) FindByEventIDAndToken(ctx context.Context, eventID, token string) (*entities.Participation, error) {
	defer r.s.lock(ctx)()
	for _, p := range r.s.participations {
		if p.EventID == eventID && p.Ticket != nil && p.Ticket.Token == token {
			out := clone(p)
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (r *ParticipationRepo) FindByEventID(ctx context.Context, eventID string) ([]entities.Participation, error) {
	defer r.s.lock(ctx)()
	out := make([]entities.Participation, 0)
	for _, p := range r.s.participations {
		if p.EventID == eventID {
			out = append(out, clone(p))
		}
	}
	slices.SortFunc(out, func(a, b entities.Participation) int {
		return cmp.Or(
			cmp.Compare(statusRank(a.Status), statusRank(b.Status)),
			cmp.Compare(a.Sequence, b.Sequence),
			a.CreatedAt.Compare(b.CreatedAt),
		)
	})
	return out, nil
}

func (r *ParticipationRepo) FindOldestWaitlisted(ctx context.Context, eventID string) (*entities.Participation, error) {
	defer r.s.lock(ctx)()
	var oldest *entities.Participation
	for _, p := range r.s.participations {
		if p.EventID != eventID || p.Status != domain.StatusWaitlisted {
			continue
		}
		if oldest == nil || p.Sequence < oldest.Sequence {
			c := clone(p)
			oldest = &c
		}
	}
	if oldest == nil {
		return nil, sentinel.ErrNotFound
	}
	return oldest, nil
}

func (r *ParticipationRepo) Delete(ctx context.Context, eventID, userID string) (*entities.Participation, error) {
	defer r.s.lock(ctx)()
	p, ok := r.s.findUser(eventID, userID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	delete(r.s.participations, p.ID)
	out := clone(p)
	return &out, nil
}

func (r *ParticipationRepo) Promote(ctx context.Context, id string, ticket entities.Ticket, now time.Time) error {
	defer r.s.lock(ctx)()
	p, ok := r.s.participations[id]
	if !ok || p.Status != domain.StatusWaitlisted {
		return sentinel.ErrConflict
	}
	p.Status = domain.StatusRegistered
	p.Ticket = cloneTicket(&ticket)
	p.UpdatedAt = now
	r.s.participations[id] = p
	return nil
}

func (r *ParticipationRepo) MarkAttended(ctx context.Context, id string, at time.Time, by string) error {
	defer r.s.lock(ctx)()
	p, ok := r.s.participations[id]
	if !ok || p.Status != domain.StatusRegistered || p.Ticket == nil || p.Ticket.Used {
		return sentinel.ErrConflict
	}
	t := cloneTicket(p.Ticket)
	t.Used = true
	t.UsedAt = &at
	t.UsedBy = by
	p.Ticket = t
	p.Status = domain.StatusAttended
	p.AttendedAt = &at
	p.AttendedBy = by
	p.UpdatedAt = at
	r.s.participations[id] = p
	return nil
}

func (r *ParticipationRepo) BackfillTicketExpiry(ctx context.Context, grace time.Duration) (int, error) {
	defer r.s.lock(ctx)()
	n := 0
	for id, p := range r.s.participations {
		if p.Status != domain.StatusRegistered || p.Ticket == nil || p.Ticket.Used || p.Ticket.ExpiresAt != nil {
			continue
		}
		e, ok := r.s.events[p.EventID]
		if !ok || e.EndsAt.IsZero() {
			continue
		}
		t := cloneTicket(p.Ticket)
		expires := e.EndsAt.Add(grace)
		t.ExpiresAt = &expires
		p.Ticket = t
		p.UpdatedAt = r.s.now()
		r.s.participations[id] = p
		n++
	}
	return n, nil
}

func (r *ParticipationRepo) UpdateTicketExpiry(ctx context.Context, eventID string, expiresAt *time.Time) (int, error) {
	defer r.s.lock(ctx)()
	n := 0
	for id, p := range r.s.participations {
		if p.EventID != eventID || p.Status != domain.StatusRegistered || p.Ticket == nil || p.Ticket.Used {
			continue
		}
		t := cloneTicket(p.Ticket)
		t.ExpiresAt = nil
		if expiresAt != nil {
			e := *expiresAt
			t.ExpiresAt = &e
		}
		p.Ticket = t
		p.UpdatedAt = r.s.now()
		r.s.participations[id] = p
		n++
	}
	return n, nil
}

func (r *ParticipationRepo) FindExpiredTickets(ctx context.Context, now time.Time, limit int) ([]entities.Participation, error) {
	defer r.s.lock(ctx)()
	out := make([]entities.Participation, 0)
	for _, p := range r.s.participations {
		if expirable(p, now) {
			out = append(out, clone(p))
		}
	}
	slices.SortFunc(out, func(a, b entities.Participation) int {
		return a.Ticket.ExpiresAt.Compare(*b.Ticket.ExpiresAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ParticipationRepo) ExpireTicket(ctx context.Context, id string, now time.Time, by string) (bool, error) {
	defer r.s.lock(ctx)()
	p, ok := r.s.participations[id]
	if !ok || !expirable(p, now) {
		return false, nil
	}
	t := cloneTicket(p.Ticket)
	t.Used = true
	t.UsedAt = &now
	t.UsedBy = by
	p.Ticket = t
	p.UpdatedAt = now
	r.s.participations[id] = p
	return true, nil
}
