package scraper

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"QuoteKeeper/internal/browser"
	"QuoteKeeper/internal/config"
	"QuoteKeeper/internal/model"
	"QuoteKeeper/internal/recorder"
)

var testSource = config.SourceConfig{
	BaseURL:        "https://www.google.com/finance/quote",
	Language:       "en",
	ElementTimeout: 10 * time.Second,
	NameSelector:   ".zzDege",
	PriceSelector:  ".YMlKec.fxKbKc",
	ChangeSelector: "span.P2Luy.Ez2loe.ZYVHBb",
}

var aapl = model.WatchEntry{Symbol: "AAPL", Exchange: "NASDAQ"}

// decimalEq matches a decimal.Decimal by value rather than representation.
type decimalEq struct{ want decimal.Decimal }

func (m decimalEq) Matches(x any) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(m.want)
}

func (m decimalEq) String() string { return fmt.Sprintf("is decimal %s", m.want) }

type fixture struct {
	launcher *browser.MockLauncher
	page     *browser.MockPage
	store    *recorder.MockStore
	logs     *observer.ObservedLogs
	scraper  *Scraper
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	core, logs := observer.New(zapcore.DebugLevel)

	f := &fixture{
		launcher: browser.NewMockLauncher(ctrl),
		page:     browser.NewMockPage(ctrl),
		store:    recorder.NewMockStore(ctrl),
		logs:     logs,
	}
	f.scraper = New(testSource, f.launcher, f.store, zap.New(core))
	return f
}

// openPage expects one launch, one navigation and exactly one Close.
func (f *fixture) openPage() {
	f.launcher.EXPECT().Open(gomock.Any()).Return(f.page, nil)
	f.page.EXPECT().Navigate(gomock.Any(), "https://www.google.com/finance/quote/AAPL:NASDAQ?hl=en").Return(nil)
	f.page.EXPECT().Close().Return(nil).Times(1)
}

func (f *fixture) text(selector, text string, err error) *gomock.Call {
	return f.page.EXPECT().Text(gomock.Any(), selector, 10*time.Second).Return(text, err)
}

func (f *fixture) errorLines() int {
	return f.logs.FilterLevelExact(zapcore.ErrorLevel).Len()
}

func TestFetch_StoresQuote(t *testing.T) {
	f := newFixture(t)
	f.openPage()
	f.text(".zzDege", "Apple Inc.", nil)
	f.text(".YMlKec.fxKbKc", "$175.23", nil)
	f.text("span.P2Luy.Ez2loe.ZYVHBb", "+1.02%", nil)
	f.store.EXPECT().Store(gomock.Any(), "AAPL", "Apple Inc.", decimalEq{decimal.RequireFromString("175.23")}).Return(nil)

	res := f.scraper.Fetch(context.Background(), aapl)

	assert.Equal(t, model.OutcomeStored, res.Outcome)
	require.NoError(t, res.Err)
	require.NotNil(t, res.Observation)
	assert.Equal(t, "Apple Inc.", res.Observation.CompanyName)
	assert.Equal(t, "+1.02%", res.Observation.Change)
	assert.True(t, decimal.RequireFromString("175.23").Equal(res.Observation.Price))
	assert.Zero(t, f.errorLines())
	assert.Equal(t, 1, f.logs.FilterMessage("quote scraped").Len())
}

func TestFetch_MissingChangeStillStores(t *testing.T) {
	f := newFixture(t)
	f.openPage()
	f.text(".zzDege", "Apple Inc.", nil)
	f.text(".YMlKec.fxKbKc", "17523", nil)
	f.text("span.P2Luy.Ez2loe.ZYVHBb", "", browser.ErrTimeout)
	f.store.EXPECT().Store(gomock.Any(), "AAPL", "Apple Inc.", decimalEq{decimal.RequireFromString("175.23")}).Return(nil)

	res := f.scraper.Fetch(context.Background(), aapl)

	assert.Equal(t, model.OutcomeStored, res.Outcome)
	assert.Equal(t, model.ChangeUnavailable, res.Observation.Change)
	assert.Zero(t, f.errorLines())
}

func TestFetch_ChangeLookupPanicFallsBack(t *testing.T) {
	f := newFixture(t)
	f.openPage()
	f.text(".zzDege", "Apple Inc.", nil)
	f.text(".YMlKec.fxKbKc", "$175.23", nil)
	f.page.EXPECT().Text(gomock.Any(), "span.P2Luy.Ez2loe.ZYVHBb", gomock.Any()).
		DoAndReturn(func(context.Context, string, time.Duration) (string, error) {
			panic("cdp: node detached")
		})
	f.store.EXPECT().Store(gomock.Any(), "AAPL", "Apple Inc.", decimalEq{decimal.RequireFromString("175.23")}).Return(nil)

	res := f.scraper.Fetch(context.Background(), aapl)

	assert.Equal(t, model.OutcomeStored, res.Outcome)
	assert.Equal(t, model.ChangeUnavailable, res.Observation.Change)
	assert.Zero(t, f.errorLines())
}

func TestFetch_MissingNameSkipsSymbol(t *testing.T) {
	f := newFixture(t)
	f.openPage()
	f.text(".zzDege", "", fmt.Errorf("%w: \".zzDege\" after 10s", browser.ErrTimeout))
	// no Store expectation: any call fails the test

	res := f.scraper.Fetch(context.Background(), aapl)

	assert.Equal(t, model.OutcomeSkipped, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrElementNotFound)
	assert.Nil(t, res.Observation)
	assert.Equal(t, 1, f.errorLines())
}

func TestFetch_MissingPriceSkipsSymbol(t *testing.T) {
	f := newFixture(t)
	f.openPage()
	f.text(".zzDege", "Apple Inc.", nil)
	f.text(".YMlKec.fxKbKc", "", browser.ErrTimeout)

	res := f.scraper.Fetch(context.Background(), aapl)

	assert.Equal(t, model.OutcomeSkipped, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrElementNotFound)
}

func TestFetch_PriceWithoutDigitsSkipsSymbol(t *testing.T) {
	f := newFixture(t)
	f.openPage()
	f.text(".zzDege", "Apple Inc.", nil)
	f.text(".YMlKec.fxKbKc", "$--.--", nil)

	res := f.scraper.Fetch(context.Background(), aapl)

	assert.Equal(t, model.OutcomeSkipped, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrNoDigits)
}

func TestFetch_NavigationError(t *testing.T) {
	f := newFixture(t)
	f.launcher.EXPECT().Open(gomock.Any()).Return(f.page, nil)
	f.page.EXPECT().Navigate(gomock.Any(), gomock.Any()).Return(errors.New("net::ERR_NAME_NOT_RESOLVED"))
	f.page.EXPECT().Close().Return(nil).Times(1)

	res := f.scraper.Fetch(context.Background(), aapl)

	assert.Equal(t, model.OutcomeSkipped, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrFetch)
	assert.Equal(t, 1, f.errorLines())
}

func TestFetch_LaunchFailure(t *testing.T) {
	f := newFixture(t)
	f.launcher.EXPECT().Open(gomock.Any()).Return(nil, errors.New("exec: \"google-chrome\": executable file not found"))

	res := f.scraper.Fetch(context.Background(), aapl)

	assert.Equal(t, model.OutcomeSkipped, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrFetch)
}

func TestFetch_DriverPanicIsContained(t *testing.T) {
	f := newFixture(t)
	f.openPage()
	f.page.EXPECT().Text(gomock.Any(), ".zzDege", gomock.Any()).
		DoAndReturn(func(context.Context, string, time.Duration) (string, error) {
			panic("websocket: close 1006")
		})

	res := f.scraper.Fetch(context.Background(), aapl)

	assert.Equal(t, model.OutcomeSkipped, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrFetch)
	assert.Contains(t, res.Reason, "websocket: close 1006")
}

func TestFetch_StoreFailureIsReported(t *testing.T) {
	f := newFixture(t)
	f.openPage()
	f.text(".zzDege", "Apple Inc.", nil)
	f.text(".YMlKec.fxKbKc", "$175.23", nil)
	f.text("span.P2Luy.Ez2loe.ZYVHBb", "-0.40%", nil)
	f.store.EXPECT().Store(gomock.Any(), "AAPL", "Apple Inc.", gomock.Any()).
		Return(fmt.Errorf("%w: connection refused", recorder.ErrConnect))

	res := f.scraper.Fetch(context.Background(), aapl)

	assert.Equal(t, model.OutcomeStoreFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, recorder.ErrConnect)
	assert.NotNil(t, res.Observation)
	assert.Zero(t, f.errorLines(), "the store logs its own failure")
}

func TestQuoteURL(t *testing.T) {
	s := New(testSource, nil, nil, zap.NewNop())
	assert.Equal(t, "https://www.google.com/finance/quote/BRK.B:NYSE?hl=en",
		s.QuoteURL(model.WatchEntry{Symbol: "BRK.B", Exchange: "NYSE"}))
}
