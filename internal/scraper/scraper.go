// Package scraper reads quotes from the rendered finance quote page and
// hands each one to the store.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"QuoteKeeper/internal/browser"
	"QuoteKeeper/internal/config"
	"QuoteKeeper/internal/model"
	"QuoteKeeper/internal/recorder"
)

var (
	// ErrElementNotFound means a required element did not appear in time.
	ErrElementNotFound = errors.New("element not found")
	// ErrNoDigits means the price text contained no digits.
	ErrNoDigits = errors.New("no digits")
	// ErrFetch covers every other failure while loading or reading the page.
	ErrFetch = errors.New("fetch failed")
)

// Scraper fetches one quote per call, each in its own browser instance.
type Scraper struct {
	src      config.SourceConfig
	launcher browser.Launcher
	store    recorder.Store
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a Scraper.
func New(src config.SourceConfig, launcher browser.Launcher, store recorder.Store, logger *zap.Logger) *Scraper {
	return &Scraper{
		src:      src,
		launcher: launcher,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

// QuoteURL returns the quote page address for w.
func (s *Scraper) QuoteURL(w model.WatchEntry) string {
	return fmt.Sprintf("%s/%s:%s?hl=%s",
		s.src.BaseURL, url.PathEscape(w.Symbol), url.PathEscape(w.Exchange), url.QueryEscape(s.src.Language))
}

// Fetch scrapes the quote for w and stores it. It never returns an error:
// every failure is logged and reported through the Result, so one bad symbol
// cannot stop the caller from moving on to the next.
func (s *Scraper) Fetch(ctx context.Context, w model.WatchEntry) model.Result {
	start := s.now()
	res := model.Result{Symbol: w.Symbol, Exchange: w.Exchange, StartedAt: start}
	log := s.logger.With(zap.String("symbol", w.Symbol), zap.String("exchange", w.Exchange))
	log.Debug("fetching stock data")

	obs, err := s.scrape(ctx, w, log)
	if err != nil {
		log.Error("error fetching stock data", zap.Error(err))
		res.Fail(model.OutcomeSkipped, err)
		res.Duration = s.now().Sub(start)
		return res
	}
	res.Observation = obs

	log.Info("quote scraped",
		zap.String("company", obs.CompanyName),
		zap.Stringer("price", obs.Price),
		zap.String("change", obs.Change),
	)

	// The store logs its own failures.
	if err := s.store.Store(ctx, w.Symbol, obs.CompanyName, obs.Price); err != nil {
		res.Fail(model.OutcomeStoreFailed, err)
	} else {
		res.Outcome = model.OutcomeStored
	}
	res.Duration = s.now().Sub(start)
	return res
}

// scrape owns the browser for one symbol. The page is closed on every path,
// including a panic inside the driver.
func (s *Scraper) scrape(ctx context.Context, w model.WatchEntry, log *zap.Logger) (obs *model.Observation, err error) {
	defer func() {
		if r := recover(); r != nil {
			obs, err = nil, fmt.Errorf("%w: panic: %v", ErrFetch, r)
		}
	}()

	page, err := s.launcher.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer page.Close()

	u := s.QuoteURL(w)
	log.Debug("fetching url", zap.String("url", u))
	if err := page.Navigate(ctx, u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	name, err := s.required(ctx, page, "company name", s.src.NameSelector)
	if err != nil {
		return nil, err
	}
	log.Debug("company name", zap.String("company", name))

	priceText, err := s.required(ctx, page, "price", s.src.PriceSelector)
	if err != nil {
		return nil, err
	}
	log.Debug("stock price", zap.String("text", priceText))

	price, err := ParsePrice(priceText)
	if err != nil {
		return nil, err
	}

	change, err := s.optional(ctx, page, s.src.ChangeSelector)
	if err != nil {
		log.Debug("stock change element not found", zap.Error(err))
		change = model.ChangeUnavailable
	}

	return &model.Observation{
		CapturedAt:  s.now(),
		Symbol:      w.Symbol,
		Exchange:    w.Exchange,
		CompanyName: name,
		Price:       price,
		Change:      change,
	}, nil
}

func (s *Scraper) required(ctx context.Context, page browser.Page, what, selector string) (string, error) {
	text, err := page.Text(ctx, selector, s.src.ElementTimeout)
	if err == nil {
		return text, nil
	}
	if errors.Is(err, browser.ErrTimeout) {
		return "", fmt.Errorf("%w: %s: %v", ErrElementNotFound, what, err)
	}
	return "", fmt.Errorf("%w: %s: %v", ErrFetch, what, err)
}

// optional reads an element whose absence is not fatal. A driver panic is
// turned into an error so the caller can fall back.
func (s *Scraper) optional(ctx context.Context, page browser.Page, selector string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: panic: %v", ErrFetch, r)
		}
	}()
	return page.Text(ctx, selector, s.src.ElementTimeout)
}
