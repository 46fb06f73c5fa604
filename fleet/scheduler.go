package fleet

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/taskcluster/agent-retention/runtime"
)

// DefaultCheckSchedule checks agents once a minute, which is the
// granularity retention decisions are made at.
const DefaultCheckSchedule = "@every 1m"

// Scheduler runs Fleet.CheckAll on a cron schedule.
type Scheduler struct {
	fleet    *Fleet
	schedule string
	monitor  runtime.Monitor
	cron     *cron.Cron

	mu      sync.Mutex
	running bool
	entry   cron.EntryID
	cancel  context.CancelFunc
}

// NewScheduler creates a Scheduler for fleet, an empty schedule uses
// DefaultCheckSchedule. Invalid schedules are returned as errors.
func NewScheduler(fleet *Fleet, schedule string, monitor runtime.Monitor) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultCheckSchedule
	}
	parser := cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)
	if _, err := parser.Parse(schedule); err != nil {
		return nil, errors.Wrapf(err, "invalid check schedule '%s'", schedule)
	}
	return &Scheduler{
		fleet:    fleet,
		schedule: schedule,
		monitor:  monitor.WithPrefix("scheduler"),
		// Overlapping ticks are skipped, an agent is only checked by one tick
		cron: cron.New(cron.WithParser(parser), cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
		)),
	}, nil
}

// Start checking agents on schedule, until ctx is cancelled or Stop() is
// called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	entry, err := s.cron.AddFunc(s.schedule, func() { s.tick(ctx) })
	if err != nil {
		cancel()
		return errors.Wrap(err, "failed to schedule checks")
	}
	s.entry = entry
	s.cron.Start()
	s.running = true
	s.cancel = cancel
	s.monitor.Infof("checking agents on schedule '%s'", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	s.monitor.Time("tick", func() {
		failed := s.fleet.CheckAll(ctx)
		if failed > 0 {
			s.monitor.Warnf("%d agent checks failed", failed)
		}
	})
}

// Stop the scheduler and wait for a running check to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.cron.Remove(s.entry)
	s.cancel()
	s.running = false
	s.monitor.Info("scheduler stopped")
}

// IsRunning returns true if the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the time of the next check, nil if not running
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
