package recorder

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrConnect is returned when no database connection could be established.
	ErrConnect = errors.New("database connection failed")
	// ErrInsert is returned when the observation row could not be written.
	ErrInsert = errors.New("insert observation failed")
)

// Store persists one observation row per call.
//
//go:generate mockgen -destination=mock_recorder.go -package=recorder . Store
type Store interface {
	Store(ctx context.Context, symbol, description string, amount decimal.Decimal) error
}
