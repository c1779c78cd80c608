package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rollcall/internal/domain"
	"rollcall/internal/domain/entities"
	"rollcall/internal/platform/sentinel"
)

type StoreSuite struct {
	suite.Suite
	store  *Store
	events *EventRepo
	parts  *ParticipationRepo
	ctx    context.Context
}

func (s *StoreSuite) SetupTest() {
	s.store = NewStore()
	s.events = s.store.Events()
	s.parts = s.store.Participations()
	s.ctx = context.Background()
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) createEvent(capacity int, endsAt time.Time) *entities.Event {
	e := &entities.Event{Title: "Soirée jeux", Capacity: capacity, EndsAt: endsAt}
	s.Require().NoError(s.events.Create(s.ctx, e))
	return e
}

func (s *StoreSuite) TestReserveSlot() {
	s.Run("stops at capacity", func() {
		e := s.createEvent(2, time.Time{})
		for range 2 {
			ok, err := s.events.ReserveSlot(s.ctx, e.ID)
			s.Require().NoError(err)
			s.True(ok)
		}
		ok, err := s.events.ReserveSlot(s.ctx, e.ID)
		s.Require().NoError(err)
		s.False(ok)

		got, err := s.events.FindByID(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Equal(2, got.RegisteredCount)
	})

	s.Run("unlimited never refuses", func() {
		e := s.createEvent(0, time.Time{})
		for range 50 {
			ok, err := s.events.ReserveSlot(s.ctx, e.ID)
			s.Require().NoError(err)
			s.True(ok)
		}
	})

	s.Run("release never goes below zero", func() {
		e := s.createEvent(1, time.Time{})
		s.Require().NoError(s.events.ReleaseSlot(s.ctx, e.ID))
		got, err := s.events.FindByID(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Zero(got.RegisteredCount)
	})

	s.Run("unknown event", func() {
		_, err := s.events.ReserveSlot(s.ctx, "missing")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *StoreSuite) TestUpdateCapacity() {
	e := s.createEvent(3, time.Time{})
	for range 2 {
		_, err := s.events.ReserveSlot(s.ctx, e.ID)
		s.Require().NoError(err)
	}

	s.ErrorIs(s.events.UpdateCapacity(s.ctx, e.ID, 1), sentinel.ErrInvalidState)
	s.NoError(s.events.UpdateCapacity(s.ctx, e.ID, 2))
	s.NoError(s.events.UpdateCapacity(s.ctx, e.ID, 0))
}

func (s *StoreSuite) TestCreateDuplicate() {
	e := s.createEvent(0, time.Time{})
	s.Require().NoError(s.parts.Create(s.ctx, &entities.Participation{EventID: e.ID, UserID: "u1", Status: domain.StatusRegistered}))

	err := s.parts.Create(s.ctx, &entities.Participation{EventID: e.ID, UserID: "u1", Status: domain.StatusWaitlisted})
	s.ErrorIs(err, sentinel.ErrDuplicate)
}

func (s *StoreSuite) TestWithinTxRollsBack() {
	e := s.createEvent(1, time.Time{})
	boom := errors.New("boom")

	err := s.store.WithinTx(s.ctx, func(ctx context.Context) error {
		ok, err := s.events.ReserveSlot(ctx, e.ID)
		s.Require().NoError(err)
		s.Require().True(ok)
		s.Require().NoError(s.parts.Create(ctx, &entities.Participation{EventID: e.ID, UserID: "u1", Status: domain.StatusRegistered}))
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.events.FindByID(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Zero(got.RegisteredCount)
	_, err = s.parts.FindByEventIDAndUserID(s.ctx, e.ID, "u1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreSuite) TestWithinTxNested() {
	e := s.createEvent(0, time.Time{})
	err := s.store.WithinTx(s.ctx, func(ctx context.Context) error {
		return s.store.WithinTx(ctx, func(ctx context.Context) error {
			_, err := s.events.NextSequence(ctx, e.ID)
			return err
		})
	})
	s.Require().NoError(err)

	got, err := s.events.FindByID(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), got.WaitlistSeq)
}

func (s *StoreSuite) TestWaitlistOrdering() {
	e := s.createEvent(1, time.Time{})
	s.Require().NoError(s.parts.Create(s.ctx, &entities.Participation{EventID: e.ID, UserID: "a", Status: domain.StatusRegistered, Ticket: &entities.Ticket{Token: "ta"}}))
	for _, u := range []string{"x", "y", "z"} {
		seq, err := s.events.NextSequence(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Require().NoError(s.parts.Create(s.ctx, &entities.Participation{EventID: e.ID, UserID: u, Status: domain.StatusWaitlisted, Sequence: seq}))
	}

	oldest, err := s.parts.FindOldestWaitlisted(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal("x", oldest.UserID)

	list, err := s.parts.FindByEventID(s.ctx, e.ID)
	s.Require().NoError(err)
	var users []string
	for _, p := range list {
		users = append(users, p.UserID)
	}
	s.Equal([]string{"a", "x", "y", "z"}, users)
}

func (s *StoreSuite) TestPromoteIsConditional() {
	e := s.createEvent(1, time.Time{})
	p := &entities.Participation{EventID: e.ID, UserID: "x", Status: domain.StatusWaitlisted, Sequence: 1}
	s.Require().NoError(s.parts.Create(s.ctx, p))

	now := time.Now()
	s.Require().NoError(s.parts.Promote(s.ctx, p.ID, entities.Ticket{Token: "tok", IssuedAt: now}, now))
	s.ErrorIs(s.parts.Promote(s.ctx, p.ID, entities.Ticket{Token: "tok2", IssuedAt: now}, now), sentinel.ErrConflict)

	got, err := s.parts.FindByEventIDAndToken(s.ctx, e.ID, "tok")
	s.Require().NoError(err)
	s.Equal(domain.StatusRegistered, got.Status)
	s.Equal(int64(1), got.Sequence)
}

func (s *StoreSuite) TestMarkAttendedOnce() {
	e := s.createEvent(0, time.Time{})
	p := &entities.Participation{EventID: e.ID, UserID: "u", Status: domain.StatusRegistered, Ticket: &entities.Ticket{Token: "tok"}}
	s.Require().NoError(s.parts.Create(s.ctx, p))

	at := time.Now()
	s.Require().NoError(s.parts.MarkAttended(s.ctx, p.ID, at, "door"))
	s.ErrorIs(s.parts.MarkAttended(s.ctx, p.ID, at, "door"), sentinel.ErrConflict)

	got, err := s.parts.FindByEventIDAndUserID(s.ctx, e.ID, "u")
	s.Require().NoError(err)
	s.Equal(domain.StatusAttended, got.Status)
	s.True(got.Ticket.Used)
	s.Equal("door", got.Ticket.UsedBy)
	s.Equal("door", got.AttendedBy)
}

func (s *StoreSuite) TestExpiry() {
	endsAt := time.Date(2026, 5, 1, 22, 0, 0, 0, time.UTC)
	e := s.createEvent(0, endsAt)
	p := &entities.Participation{EventID: e.ID, UserID: "u", Status: domain.StatusRegistered, Ticket: &entities.Ticket{Token: "tok"}}
	s.Require().NoError(s.parts.Create(s.ctx, p))

	n, err := s.parts.BackfillTicketExpiry(s.ctx, 2*time.Hour)
	s.Require().NoError(err)
	s.Equal(1, n)
	n, err = s.parts.BackfillTicketExpiry(s.ctx, 2*time.Hour)
	s.Require().NoError(err)
	s.Zero(n)

	before := endsAt.Add(2 * time.Hour)
	expired, err := s.parts.FindExpiredTickets(s.ctx, before, 10)
	s.Require().NoError(err)
	s.Empty(expired, "expiry is strict")

	after := before.Add(time.Second)
	expired, err = s.parts.FindExpiredTickets(s.ctx, after, 10)
	s.Require().NoError(err)
	s.Len(expired, 1)

	changed, err := s.parts.ExpireTicket(s.ctx, p.ID, after, domain.SystemExpiry)
	s.Require().NoError(err)
	s.True(changed)
	changed, err = s.parts.ExpireTicket(s.ctx, p.ID, after, domain.SystemExpiry)
	s.Require().NoError(err)
	s.False(changed)

	got, err := s.parts.FindByEventIDAndUserID(s.ctx, e.ID, "u")
	s.Require().NoError(err)
	s.Equal(domain.StatusRegistered, got.Status)
	s.Equal(domain.SystemExpiry, got.Ticket.UsedBy)
}

func (s *StoreSuite) TestReturnedRecordsAreCopies() {
	e := s.createEvent(0, time.Time{})
	s.Require().NoError(s.parts.Create(s.ctx, &entities.Participation{EventID: e.ID, UserID: "u", Status: domain.StatusRegistered, Ticket: &entities.Ticket{Token: "tok"}}))

	got, err := s.parts.FindByEventIDAndUserID(s.ctx, e.ID, "u")
	s.Require().NoError(err)
	got.Ticket.Used = true

	again, err := s.parts.FindByEventIDAndUserID(s.ctx, e.ID, "u")
	s.Require().NoError(err)
	s.False(again.Ticket.Used)
}
