package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"QuoteKeeper/internal/collector"
	"QuoteKeeper/internal/config"
	"QuoteKeeper/internal/logging"
	"QuoteKeeper/internal/model"
	"QuoteKeeper/internal/notifier"
)

// State is the scheduler's view of the daily job.
type State int32

const (
	StateIdle State = iota
	StateDue
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateDue:
		return "due"
	case StateRunning:
		return "running"
	default:
		return "idle"
	}
}

// Scheduler fires the collector once a day.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Ctx       context.Context

	logger *zap.Logger
	entry  cron.EntryID
	state  atomic.Int32
	runs   sync.WaitGroup
}

// NewScheduler creates a new Scheduler. Runs use ctx, so cancelling it stops
// a run in progress after the current symbol.
func NewScheduler(ctx context.Context, col *collector.Collector, logger *zap.Logger) *Scheduler {
	logger = logger.Named("scheduler")
	cl := logging.NewCronLogger(logger)
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		Collector: col,
		Ctx:       ctx,
		logger:    logger,
	}
}

// Register schedules the daily run at dailyAt (HH:MM, local time).
func (s *Scheduler) Register(dailyAt string) error {
	hour, minute, err := config.ParseDailyAt(dailyAt)
	if err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	spec := fmt.Sprintf("0 %d %d * * *", minute, hour)
	id, err := s.Cron.AddFunc(spec, s.dailyTask)
	if err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	s.entry = id
	s.logger.Info("daily task registered", zap.String("at", dailyAt), zap.String("spec", spec))
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info("scheduler started", zap.Time("next", s.Next()))
}

// Stop stops the cron scheduler and waits for every run in flight, whether
// cron started it or not.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.runs.Wait()
	s.logger.Info("scheduler stopped")
}

// State returns the current state.
func (s *Scheduler) State() State { return State(s.state.Load()) }

// Next returns the next due time of the daily task, or the zero time if none
// is registered or the scheduler has not started.
func (s *Scheduler) Next() time.Time {
	if s.entry == 0 {
		return time.Time{}
	}
	return s.Cron.Entry(s.entry).Next
}

// RunNow triggers a run outside the schedule and waits for it. If a run is
// already in progress the caller joins it.
func (s *Scheduler) RunNow(trigger model.TriggerType) *model.RunReport {
	s.runs.Add(1)
	defer s.runs.Done()
	s.state.Store(int32(StateRunning))
	defer s.state.Store(int32(StateIdle))

	report, shared := s.Collector.Trigger(s.Ctx, trigger)
	if shared {
		s.logger.Debug("joined run in progress", zap.String("run_id", report.RunID), zap.String("trigger", string(trigger)))
	}
	return report
}

// RunAsync starts RunNow in the background. The run is registered before
// RunAsync returns, so a later Stop waits for it.
func (s *Scheduler) RunAsync(trigger model.TriggerType) {
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		s.RunNow(trigger)
	}()
}

func (s *Scheduler) dailyTask() {
	s.state.Store(int32(StateDue))
	s.logger.Info("daily task due")
	s.RunNow(model.TriggerDaily)
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/status":
		return notifier.FormatStatus(s.Collector.Latest(), s.State().String(), s.Next())
	case "/run":
		if s.Collector.Running() {
			return "A run is already in progress."
		}
		s.RunAsync(model.TriggerTelegram)
		return "Run started."
	default:
		return "Available commands:\n• /status\n• /run"
	}
}
