package collector

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"QuoteKeeper/internal/model"
	"QuoteKeeper/internal/publisher"
)

// Collector runs the fetcher over the watchlist, one symbol at a time.
type Collector struct {
	Fetcher   Fetcher
	Watchlist []model.WatchEntry
	Publisher publisher.Publisher
	Notifier  RunNotifier

	logger  *zap.Logger
	group   singleflight.Group
	running atomic.Bool
	mu      sync.RWMutex
	latest  *model.RunReport
	now     func() time.Time
}

// Option configures optional collaborators.
type Option func(*Collector)

func WithPublisher(p publisher.Publisher) Option {
	return func(c *Collector) { c.Publisher = p }
}

func WithNotifier(n RunNotifier) Option {
	return func(c *Collector) { c.Notifier = n }
}

// NewCollector creates a new Collector. The watchlist is copied.
func NewCollector(fetcher Fetcher, watchlist []model.WatchEntry, logger *zap.Logger, opts ...Option) *Collector {
	c := &Collector{
		Fetcher:   fetcher,
		Watchlist: append([]model.WatchEntry(nil), watchlist...),
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CollectAll fetches every watchlist entry in order. A failed symbol never
// stops the loop; only ctx cancellation does.
func (c *Collector) CollectAll(ctx context.Context, trigger model.TriggerType) *model.RunReport {
	c.running.Store(true)
	defer c.running.Store(false)

	report := &model.RunReport{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		StartedAt: c.now(),
		Results:   make([]model.Result, 0, len(c.Watchlist)),
	}
	log := c.logger.With(zap.String("run_id", report.RunID), zap.String("trigger", string(trigger)))
	log.Debug("starting to fetch data for all stocks", zap.Int("symbols", len(c.Watchlist)))

	for i, w := range c.Watchlist {
		if ctx.Err() != nil {
			log.Warn("run cancelled", zap.Int("remaining", len(c.Watchlist)-i), zap.Error(ctx.Err()))
			break
		}
		report.Results = append(report.Results, c.Fetcher.Fetch(ctx, w))
	}
	report.FinishedAt = c.now()
	log.Debug("finished fetching data for all stocks")

	c.publish(ctx, log, report)
	c.notify(ctx, log, report)

	c.mu.Lock()
	c.latest = report
	c.mu.Unlock()

	log.Info("run complete",
		zap.Int("stored", report.Count(model.OutcomeStored)),
		zap.Int("skipped", report.Count(model.OutcomeSkipped)),
		zap.Int("store_failed", report.Count(model.OutcomeStoreFailed)),
		zap.Duration("took", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report
}

// Trigger runs CollectAll unless a run is already in flight, in which case
// the caller waits for that run and receives its report. shared is true
// when the report came from another caller's run.
func (c *Collector) Trigger(ctx context.Context, trigger model.TriggerType) (report *model.RunReport, shared bool) {
	v, _, shared := c.group.Do("collect", func() (interface{}, error) {
		return c.CollectAll(ctx, trigger), nil
	})
	return v.(*model.RunReport), shared
}

// Running reports whether a run is in progress.
func (c *Collector) Running() bool { return c.running.Load() }

// Latest returns the most recent finished run, or nil.
func (c *Collector) Latest() *model.RunReport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest
}

func (c *Collector) publish(ctx context.Context, log *zap.Logger, report *model.RunReport) {
	if c.Publisher == nil {
		return
	}
	for _, obs := range report.Stored() {
		evt := publisher.QuoteEvent{
			EventType:   publisher.EventQuoteStored,
			RunID:       report.RunID,
			Observation: obs,
			Timestamp:   c.now(),
		}
		if err := c.Publisher.Publish(ctx, evt); err != nil {
			log.Warn("publish quote event failed", zap.String("symbol", obs.Symbol), zap.Error(err))
		}
	}
}

func (c *Collector) notify(ctx context.Context, log *zap.Logger, report *model.RunReport) {
	if c.Notifier == nil {
		return
	}
	if err := c.Notifier.NotifyRun(ctx, report); err != nil {
		log.Error("send run summary failed", zap.Error(err))
	}
}
