package restart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mcoot/tkserver/internal/dependencies/clock"
	"github.com/mcoot/tkserver/internal/metrics"
	"github.com/mcoot/tkserver/internal/model"
)

// Errors
var (
	ErrInvalidInterval = errors.New("invalid restart interval")
	ErrActionFailed    = errors.New("restart action failed")
)

// Config holds configuration for the restart scheduler
type Config struct {
	// Tick is how often the loop checks the deadline (cron granularity is one second)
	Tick time.Duration
	// Grace is the wait between the stop and start actions
	Grace time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Tick:  time.Second,
		Grace: 60 * time.Second,
	}
}

// Scheduler owns the periodic restart schedule. The interval and the next
// deadline are always read and written together under mu.
type Scheduler struct {
	clock  clock.Clock
	stop   Action
	start  Action
	cfg    Config
	logger *slog.Logger

	// sleep waits out the grace period; replaced in tests
	sleep func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

// New creates a Scheduler with nothing scheduled
func New(clk clock.Clock, stop, start Action, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultConfig().Tick
	}
	return &Scheduler{
		clock:  clk,
		stop:   stop,
		start:  start,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "restart")),
		sleep:  sleepContext,
	}
}

// SetInterval schedules a restart every d, the first one at now+d
func (s *Scheduler) SetInterval(d time.Duration) (time.Time, error) {
	if d <= 0 {
		return time.Time{}, ErrInvalidInterval
	}

	s.mu.Lock()
	s.interval = d
	s.next = s.clock.Now().Add(d)
	next := s.next
	s.mu.Unlock()

	s.logger.Info("restart interval set",
		slog.Duration("interval", d),
		slog.Time("next_restart", next))
	return next, nil
}

// Cancel clears the schedule
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	s.interval = 0
	s.next = time.Time{}
	s.mu.Unlock()

	s.logger.Info("restart scheduling canceled")
}

// PeekNextDeadline returns the next restart time, if one is scheduled
func (s *Scheduler) PeekNextDeadline() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.interval <= 0 || s.next.IsZero() {
		return time.Time{}, false
	}
	return s.next, true
}

// Schedule returns a consistent copy of the interval and deadline
func (s *Scheduler) Schedule() model.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.Schedule{Interval: s.interval, NextDeadline: s.next}
}

// Tick fires a restart if the deadline has passed and reports whether it did.
// Actions run without holding the lock so operators can still read or
// cancel the schedule during the grace period.
func (s *Scheduler) Tick(ctx context.Context) bool {
	s.mu.Lock()
	due := s.interval > 0 && !s.next.IsZero() && !s.clock.Now().Before(s.next)
	s.mu.Unlock()

	if !due {
		return false
	}

	s.logger.Info("restart time reached, executing restart")
	metrics.RestartsFired.Inc()
	s.restart(ctx)

	s.mu.Lock()
	if s.interval > 0 {
		s.next = s.clock.Now().Add(s.interval)
	}
	next := s.next
	s.mu.Unlock()

	if !next.IsZero() {
		s.logger.Info("next restart scheduled", slog.Time("next_restart", next))
	}
	return true
}

// restart runs stop, waits out the grace period, then runs start.
// A failed stop skips the start so two game servers never run at once.
func (s *Scheduler) restart(ctx context.Context) {
	if err := s.stop.Run(ctx); err != nil {
		metrics.RestartActionFailures.WithLabelValues("stop").Inc()
		s.logger.Error("restart error", slog.String("action", "stop"), slog.String("error", err.Error()))
		return
	}

	if err := s.sleep(ctx, s.cfg.Grace); err != nil {
		s.logger.Warn("grace period interrupted, starting server early", slog.String("error", err.Error()))
	}

	// the hosted server is down at this point; bring it back even if we are shutting down
	if err := s.start.Run(context.WithoutCancel(ctx)); err != nil {
		metrics.RestartActionFailures.WithLabelValues("start").Inc()
		s.logger.Error("restart error", slog.String("action", "start"), slog.String("error", err.Error()))
		return
	}

	s.logger.Info("restart completed")
}

// Run drives Tick from a cron entry until ctx is done. Overlapping ticks
// are skipped while a restart is still in its grace period.
func (s *Scheduler) Run(ctx context.Context) error {
	logger := cronLogger{s.logger}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	spec := fmt.Sprintf("@every %s", s.cfg.Tick)
	if _, err := c.AddFunc(spec, func() { s.Tick(ctx) }); err != nil {
		return fmt.Errorf("schedule restart tick: %w", err)
	}

	c.Start()
	s.logger.Info("restart watcher started", slog.Duration("tick", s.cfg.Tick))

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("restart watcher stopped")
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// cronLogger routes cron's own logging into slog
type cronLogger struct {
	logger *slog.Logger
}

// Info logs at debug level; cron reports every skipped tick here
func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

// Error logs at error level
func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{slog.String("error", err.Error())}, keysAndValues...)...)
}
