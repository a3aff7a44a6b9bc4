// Package browser drives a headless Chrome instance over the DevTools protocol.
package browser

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned when an element does not appear within the wait timeout.
var ErrTimeout = errors.New("element wait timed out")

// Launcher starts an isolated browser instance.
//
//go:generate mockgen -destination=mock_browser.go -package=browser . Launcher,Page
type Launcher interface {
	Open(ctx context.Context) (Page, error)
}

// Page is a single tab in a running browser. Close terminates the browser
// process that backs it and is safe to call more than once.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// Text waits up to timeout for the first node matching the CSS selector
	// to be present and returns its text content.
	Text(ctx context.Context, selector string, timeout time.Duration) (string, error)
	Close() error
}
