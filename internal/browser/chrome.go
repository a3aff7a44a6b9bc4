package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"QuoteKeeper/internal/config"
)

// Chrome launches a fresh Chrome process for every Open call.
type Chrome struct {
	opts   []chromedp.ExecAllocatorOption
	logger *zap.Logger
}

var _ Launcher = (*Chrome)(nil)

// NewChrome builds a launcher with the fixed flags the quote scraper needs:
// headless, no GPU, no sandbox and no /dev/shm usage.
func NewChrome(cfg config.BrowserConfig, proxy string, logger *zap.Logger) *Chrome {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if proxy != "" {
		opts = append(opts, chromedp.ProxyServer(proxy))
	}
	return &Chrome{opts: opts, logger: logger.Named("chrome")}
}

// Open starts the browser and returns its first tab.
func (c *Chrome) Open(ctx context.Context) (Page, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, c.opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(c.logger.Sugar().Debugf),
		chromedp.WithErrorf(c.logger.Sugar().Debugf),
	)

	// An empty Run starts the browser process.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	c.logger.Debug("browser started")

	return &chromePage{ctx: tabCtx, cancelTab: cancelTab, cancelAlloc: cancelAlloc, logger: c.logger}, nil
}

type chromePage struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	once        sync.Once
	logger      *zap.Logger
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	stop := context.AfterFunc(ctx, p.cancelTab)
	defer stop()

	if err := chromedp.Run(p.ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (p *chromePage) Text(ctx context.Context, selector string, timeout time.Duration) (string, error) {
	stop := context.AfterFunc(ctx, p.cancelTab)
	defer stop()

	waitCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	var text string
	err := chromedp.Run(waitCtx, chromedp.Text(selector, &text, chromedp.ByQuery, chromedp.NodeReady))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %q after %s", ErrTimeout, selector, timeout)
		}
		return "", fmt.Errorf("read %q: %w", selector, err)
	}
	return text, nil
}

// Close cancels the tab context, which closes the browser, then releases the allocator.
func (p *chromePage) Close() error {
	p.once.Do(func() {
		p.cancelTab()
		p.cancelAlloc()
		p.logger.Debug("browser closed")
	})
	return nil
}
