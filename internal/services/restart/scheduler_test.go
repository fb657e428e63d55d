package restart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tkserver/internal/dependencies/mocks"
	"github.com/mcoot/tkserver/internal/testutil"
)

// recorder collects action invocations in order
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) action(name string, err error) Action {
	return ActionFunc(func(context.Context) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, name)
		return err
	})
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type SchedulerSuite struct {
	suite.Suite
	clock     *mocks.MockClock
	rec       *recorder
	scheduler *Scheduler
	ctx       context.Context
}

func TestSchedulerSuite(t *testing.T) {
	suite.Run(t, new(SchedulerSuite))
}

func (s *SchedulerSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.rec = &recorder{}
	s.scheduler = s.newScheduler(nil, nil)
	s.ctx = context.Background()
}

func (s *SchedulerSuite) newScheduler(stopErr, startErr error) *Scheduler {
	sch := New(s.clock, s.rec.action("stop", stopErr), s.rec.action("start", startErr), DefaultConfig(), testutil.NopLogger())
	sch.sleep = func(context.Context, time.Duration) error { return nil }
	return sch
}

// SetInterval tests

func (s *SchedulerSuite) TestSetIntervalSetsDeadline() {
	for _, d := range []time.Duration{time.Second, 5 * time.Minute, 6 * time.Hour, 48 * time.Hour} {
		next, err := s.scheduler.SetInterval(d)
		s.Require().NoError(err)
		s.Equal(s.clock.Now().Add(d), next)

		peek, ok := s.scheduler.PeekNextDeadline()
		s.True(ok)
		s.Equal(next, peek)
		s.Equal(d, s.scheduler.Schedule().Interval)
	}
}

func (s *SchedulerSuite) TestSetIntervalRejectsNonPositive() {
	_, err := s.scheduler.SetInterval(0)
	s.ErrorIs(err, ErrInvalidInterval)
	_, err = s.scheduler.SetInterval(-time.Minute)
	s.ErrorIs(err, ErrInvalidInterval)

	_, ok := s.scheduler.PeekNextDeadline()
	s.False(ok)
}

func (s *SchedulerSuite) TestNothingScheduledByDefault() {
	_, ok := s.scheduler.PeekNextDeadline()
	s.False(ok)
	s.False(s.scheduler.Schedule().Active())
	s.False(s.scheduler.Tick(s.ctx))
	s.Empty(s.rec.Calls())
}

// Tick tests

func (s *SchedulerSuite) TestTickBeforeDeadlineDoesNothing() {
	_, _ = s.scheduler.SetInterval(time.Hour)
	s.clock.Advance(59 * time.Minute)

	s.False(s.scheduler.Tick(s.ctx))
	s.Empty(s.rec.Calls())
}

func (s *SchedulerSuite) TestTickAtDeadlineFiresOnce() {
	_, _ = s.scheduler.SetInterval(time.Hour)
	s.clock.Advance(time.Hour)

	s.True(s.scheduler.Tick(s.ctx))
	s.Equal([]string{"stop", "start"}, s.rec.Calls())

	s.False(s.scheduler.Tick(s.ctx))
	s.Equal([]string{"stop", "start"}, s.rec.Calls())
}

func (s *SchedulerSuite) TestDeadlineAdvancesFromFiringTime() {
	for _, d := range []time.Duration{time.Minute, time.Hour, 24 * time.Hour} {
		_, _ = s.scheduler.SetInterval(d)
		// the loop notices late
		s.clock.Advance(d + 7*time.Second)
		firedAt := s.clock.Now()

		s.Require().True(s.scheduler.Tick(s.ctx))

		next, ok := s.scheduler.PeekNextDeadline()
		s.Require().True(ok)
		s.Equal(firedAt.Add(d), next)
	}
}

func (s *SchedulerSuite) TestCancelBeforeDeadlinePreventsFiring() {
	_, _ = s.scheduler.SetInterval(time.Minute)
	s.scheduler.Cancel()

	for i := 0; i < 5; i++ {
		s.clock.Advance(time.Minute)
		s.False(s.scheduler.Tick(s.ctx))
	}
	s.Empty(s.rec.Calls())

	_, ok := s.scheduler.PeekNextDeadline()
	s.False(ok)
}

func (s *SchedulerSuite) TestNewIntervalAfterCancelResumes() {
	_, _ = s.scheduler.SetInterval(time.Minute)
	s.scheduler.Cancel()
	_, _ = s.scheduler.SetInterval(2 * time.Minute)

	s.clock.Advance(2 * time.Minute)
	s.True(s.scheduler.Tick(s.ctx))
}

func (s *SchedulerSuite) TestCancelDuringGraceStopsRescheduling() {
	s.scheduler.sleep = func(context.Context, time.Duration) error {
		s.scheduler.Cancel()
		return nil
	}
	_, _ = s.scheduler.SetInterval(time.Minute)
	s.clock.Advance(time.Minute)

	s.True(s.scheduler.Tick(s.ctx))
	s.Equal([]string{"stop", "start"}, s.rec.Calls())

	_, ok := s.scheduler.PeekNextDeadline()
	s.False(ok)
}

func (s *SchedulerSuite) TestGraceUsesConfiguredDuration() {
	var waited time.Duration
	s.scheduler.sleep = func(_ context.Context, d time.Duration) error {
		waited = d
		return nil
	}
	_, _ = s.scheduler.SetInterval(time.Minute)
	s.clock.Advance(time.Minute)

	s.scheduler.Tick(s.ctx)
	s.Equal(60*time.Second, waited)
}

func (s *SchedulerSuite) TestStopFailureSkipsStartButKeepsSchedule() {
	s.scheduler = s.newScheduler(errors.New("stopserver missing"), nil)
	_, _ = s.scheduler.SetInterval(time.Minute)
	s.clock.Advance(time.Minute)

	s.True(s.scheduler.Tick(s.ctx))
	s.Equal([]string{"stop"}, s.rec.Calls())

	next, ok := s.scheduler.PeekNextDeadline()
	s.True(ok)
	s.Equal(s.clock.Now().Add(time.Minute), next)
}

func (s *SchedulerSuite) TestStartFailureKeepsSchedule() {
	s.scheduler = s.newScheduler(nil, errors.New("startserver missing"))
	_, _ = s.scheduler.SetInterval(time.Minute)
	s.clock.Advance(time.Minute)

	s.True(s.scheduler.Tick(s.ctx))
	s.Equal([]string{"stop", "start"}, s.rec.Calls())

	// next cycle still fires
	s.clock.Advance(time.Minute)
	s.True(s.scheduler.Tick(s.ctx))
	s.Len(s.rec.Calls(), 4)
}

// Run tests

func (s *SchedulerSuite) TestRunDrivesTicks() {
	_, _ = s.scheduler.SetInterval(time.Minute)
	s.clock.Advance(time.Minute)

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() { done <- s.scheduler.Run(ctx) }()

	s.Eventually(func() bool {
		return len(s.rec.Calls()) == 2
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	s.Require().NoError(<-done)
	s.Equal([]string{"stop", "start"}, s.rec.Calls())
}

func TestSleepContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sleepContext(ctx, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
