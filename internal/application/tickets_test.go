package application

import (
	"time"

	"rollcall/internal/domain"
	"rollcall/internal/ports/output"
)

func (s *ServiceSuite) TestExpiryScenario() {
	rec := &recorder{}
	s.f = newFixture(s.T(), WithNotifier(rec), WithTicketGrace(2*time.Hour))
	endsAt := s.f.clock.Now().Add(time.Hour)
	e := s.f.event(s.T(), 0, endsAt)

	res, err := s.f.svc.Register(s.ctx, e.ID, "u")
	s.Require().NoError(err)
	s.Require().NotNil(res.Ticket.ExpiresAt)
	expiresAt := *res.Ticket.ExpiresAt

	s.Run("nothing expires at the boundary", func() {
		sweep, err := s.f.svc.SweepExpired(s.ctx, expiresAt)
		s.Require().NoError(err)
		s.Zero(sweep.Processed)
	})

	later := expiresAt.Add(time.Second)
	s.f.clock.Set(later)

	sweep, err := s.f.svc.SweepExpired(s.ctx, later)
	s.Require().NoError(err)
	s.Equal(1, sweep.Processed)

	again, err := s.f.svc.SweepExpired(s.ctx, later)
	s.Require().NoError(err)
	s.Zero(again.Processed)

	p, err := s.f.svc.GetParticipation(s.ctx, e.ID, "u")
	s.Require().NoError(err)
	s.Equal(domain.StatusRegistered, p.Status)
	s.True(p.Ticket.Used)
	s.Equal(domain.SystemExpiry, p.Ticket.UsedBy)

	_, err = s.f.svc.Scan(s.ctx, e.ID, res.Ticket.Token, "door")
	s.ErrorIs(err, domain.ErrTicketExpired)

	s.Contains(rec.kinds(), output.KindTicketExpired)
}

func (s *ServiceSuite) TestSweepBackfillsMissingExpiry() {
	e := s.f.event(s.T(), 0, time.Time{})
	res, err := s.f.svc.Register(s.ctx, e.ID, "u")
	s.Require().NoError(err)
	s.Nil(res.Ticket.ExpiresAt)

	endsAt := s.f.clock.Now().Add(time.Hour)
	s.Require().NoError(s.f.store.Events().UpdateSchedule(s.ctx, e.ID, e.Title, endsAt))

	sweep, err := s.f.svc.SweepExpired(s.ctx, s.f.clock.Now())
	s.Require().NoError(err)
	s.Equal(1, sweep.Backfilled)
	s.Zero(sweep.Processed)

	p, err := s.f.svc.GetParticipation(s.ctx, e.ID, "u")
	s.Require().NoError(err)
	s.Require().NotNil(p.Ticket.ExpiresAt)
	s.True(p.Ticket.ExpiresAt.Equal(endsAt.Add(2 * time.Hour)))
}

func (s *ServiceSuite) TestSweepRunsInBatches() {
	s.f = newFixture(s.T(), WithSweepBatch(2))
	endsAt := s.f.clock.Now().Add(-3 * time.Hour)
	e := s.f.event(s.T(), 0, endsAt)
	for _, u := range []string{"a", "b", "c", "d", "e"} {
		_, err := s.f.svc.Register(s.ctx, e.ID, u)
		s.Require().NoError(err)
	}

	sweep, err := s.f.svc.SweepExpired(s.ctx, s.f.clock.Now())
	s.Require().NoError(err)
	s.Equal(5, sweep.Processed)
}

func (s *ServiceSuite) TestSweepLeavesAttendedAlone() {
	endsAt := s.f.clock.Now().Add(time.Hour)
	e := s.f.event(s.T(), 0, endsAt)
	res, err := s.f.svc.Register(s.ctx, e.ID, "u")
	s.Require().NoError(err)
	_, err = s.f.svc.Scan(s.ctx, e.ID, res.Ticket.Token, "door")
	s.Require().NoError(err)

	sweep, err := s.f.svc.SweepExpired(s.ctx, endsAt.Add(24*time.Hour))
	s.Require().NoError(err)
	s.Zero(sweep.Processed)

	p, err := s.f.svc.GetParticipation(s.ctx, e.ID, "u")
	s.Require().NoError(err)
	s.Equal("door", p.Ticket.UsedBy)
}

func (s *ServiceSuite) TestIssue() {
	endsAt := time.Date(2026, 6, 12, 23, 0, 0, 0, time.UTC)
	t, err := s.f.svc.Issue("e1", "u1", endsAt)
	s.Require().NoError(err)
	s.Require().NotNil(t.ExpiresAt)
	s.True(t.ExpiresAt.Equal(endsAt.Add(2 * time.Hour)))
	s.False(t.Used)
	s.Equal(t.IssuedAt, t.IssuedAt.Truncate(time.Millisecond))

	other, err := s.f.svc.Issue("e1", "u1", endsAt)
	s.Require().NoError(err)
	s.NotEqual(t.Token, other.Token)
}
