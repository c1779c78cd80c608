package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"rollcall/internal/domain"
	"rollcall/internal/ports/output/mocks"
)

func (s *ServiceSuite) TestScan() {
	endsAt := s.f.clock.Now().Add(2 * time.Hour)

	s.Run("records attendance once", func() {
		e := s.f.event(s.T(), 0, endsAt)
		res, err := s.f.svc.Register(s.ctx, e.ID, "u")
		s.Require().NoError(err)

		scan, err := s.f.svc.Scan(s.ctx, e.ID, res.Ticket.Token, "door-2")
		s.Require().NoError(err)
		s.Equal("u", scan.UserID)

		p, err := s.f.svc.GetParticipation(s.ctx, e.ID, "u")
		s.Require().NoError(err)
		s.Equal(domain.StatusAttended, p.Status)
		s.Equal("door-2", p.AttendedBy)
		s.True(p.Ticket.Used)
		s.Equal("door-2", p.Ticket.UsedBy)

		ev, err := s.f.svc.GetEvent(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Zero(ev.RegisteredCount)

		s.f.clock.Set(s.f.clock.Now().Add(time.Minute))
		_, err = s.f.svc.Scan(s.ctx, e.ID, res.Ticket.Token, "door-2")
		s.ErrorIs(err, domain.ErrAlreadyAttended)

		again, err := s.f.svc.GetParticipation(s.ctx, e.ID, "u")
		s.Require().NoError(err)
		s.True(again.AttendedAt.Equal(*p.AttendedAt))
	})

	s.Run("malformed token", func() {
		e := s.f.event(s.T(), 0, endsAt)
		_, err := s.f.svc.Scan(s.ctx, e.ID, "not-a-token", "door")
		s.ErrorIs(err, domain.ErrInvalidToken)
	})

	s.Run("token of another event", func() {
		e1 := s.f.event(s.T(), 0, endsAt)
		e2 := s.f.event(s.T(), 0, endsAt)
		res, err := s.f.svc.Register(s.ctx, e1.ID, "u")
		s.Require().NoError(err)

		_, err = s.f.svc.Scan(s.ctx, e2.ID, res.Ticket.Token, "door")
		s.ErrorIs(err, domain.ErrInvalidToken)
	})

	s.Run("cancelled participant", func() {
		e := s.f.event(s.T(), 0, endsAt)
		res, err := s.f.svc.Register(s.ctx, e.ID, "u")
		s.Require().NoError(err)
		_, err = s.f.svc.Cancel(s.ctx, e.ID, "u")
		s.Require().NoError(err)

		_, err = s.f.svc.Scan(s.ctx, e.ID, res.Ticket.Token, "door")
		s.ErrorIs(err, domain.ErrInvalidToken)
	})

	s.Run("freed slot goes to the waitlist head", func() {
		e := s.f.event(s.T(), 1, endsAt)
		a, err := s.f.svc.Register(s.ctx, e.ID, "a")
		s.Require().NoError(err)
		_, err = s.f.svc.Register(s.ctx, e.ID, "b")
		s.Require().NoError(err)

		scan, err := s.f.svc.Scan(s.ctx, e.ID, a.Ticket.Token, "door")
		s.Require().NoError(err)
		s.Equal("b", scan.PromotedUserID)

		b, err := s.f.svc.GetParticipation(s.ctx, e.ID, "b")
		s.Require().NoError(err)
		s.Equal(domain.StatusRegistered, b.Status)
		s.Require().NotNil(b.Ticket)

		late, err := s.f.svc.Register(s.ctx, e.ID, "d")
		s.Require().NoError(err)
		s.Equal(domain.StatusWaitlisted, late.Status)

		ev, err := s.f.svc.GetEvent(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Equal(1, ev.RegisteredCount)
	})

	s.Run("ticket replaced on promotion", func() {
		e := s.f.event(s.T(), 1, endsAt)
		a, err := s.f.svc.Register(s.ctx, e.ID, "a")
		s.Require().NoError(err)
		_, err = s.f.svc.Register(s.ctx, e.ID, "b")
		s.Require().NoError(err)
		_, err = s.f.svc.Cancel(s.ctx, e.ID, "a")
		s.Require().NoError(err)

		_, err = s.f.svc.Scan(s.ctx, e.ID, a.Ticket.Token, "door")
		s.ErrorIs(err, domain.ErrInvalidToken)
	})
}

func TestScan_Throttle(t *testing.T) {
	ctrl := gomock.NewController(t)
	throttle := mocks.NewMockScanThrottle(ctrl)

	f := newFixture(t, WithScanThrottle(throttle))
	e := f.event(t, 0, time.Time{})
	res, err := f.svc.Register(context.Background(), e.ID, "u")
	require.NoError(t, err)

	t.Run("throttled", func(t *testing.T) {
		throttle.EXPECT().Allow(gomock.Any(), "door", e.ID).Return(false, nil)
		_, err := f.svc.Scan(context.Background(), e.ID, res.Ticket.Token, "door")
		assert.ErrorIs(t, err, domain.ErrScanThrottled)
	})

	t.Run("throttle outage lets scans through", func(t *testing.T) {
		throttle.EXPECT().Allow(gomock.Any(), "door", e.ID).Return(false, errors.New("redis down"))
		_, err := f.svc.Scan(context.Background(), e.ID, res.Ticket.Token, "door")
		assert.NoError(t, err)
	})
}

func TestScan_ConcurrentScansAdmitOnce(t *testing.T) {
	f := newFixture(t)
	e := f.event(t, 0, time.Time{})
	res, err := f.svc.Register(context.Background(), e.ID, "u")
	require.NoError(t, err)

	const n = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted, attended := 0, 0
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Scan(context.Background(), e.ID, res.Ticket.Token, "door")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				admitted++
			case errors.Is(err, domain.ErrAlreadyAttended):
				attended++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, admitted)
	assert.Equal(t, n-1, attended)
}
