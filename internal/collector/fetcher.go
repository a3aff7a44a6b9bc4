package collector

import (
	"context"

	"QuoteKeeper/internal/model"
)

// Fetcher fetches and stores the quote for one watchlist entry. It reports
// failures through the Result instead of returning an error.
type Fetcher interface {
	Fetch(ctx context.Context, w model.WatchEntry) model.Result
}

// RunNotifier is told about every finished run.
type RunNotifier interface {
	NotifyRun(ctx context.Context, report *model.RunReport) error
}
