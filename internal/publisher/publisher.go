// Package publisher fans stored observations out to optional event sinks.
package publisher

import (
	"context"
	"errors"
	"time"

	"QuoteKeeper/internal/model"
)

// QuoteEvent is the payload written to every sink.
type QuoteEvent struct {
	EventType   string            `json:"event_type"`
	RunID       string            `json:"run_id"`
	Observation model.Observation `json:"observation"`
	Timestamp   time.Time         `json:"timestamp"`
}

const EventQuoteStored = "QUOTE_STORED"

// Publisher delivers quote events somewhere outside the process.
type Publisher interface {
	Publish(ctx context.Context, evt QuoteEvent) error
	Close() error
}

// Multi publishes to every sink in turn. A failing sink does not stop
// delivery to the others; all failures are returned joined.
type Multi struct {
	sinks []Publisher
}

func NewMulti(sinks ...Publisher) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) Publish(ctx context.Context, evt QuoteEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
