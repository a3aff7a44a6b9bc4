package recorder

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Noop discards observations. It is used when database.driver is "none".
type Noop struct {
	logger *zap.Logger
}

func NewNoop(logger *zap.Logger) *Noop { return &Noop{logger: logger} }

func (n *Noop) Store(_ context.Context, symbol, description string, amount decimal.Decimal) error {
	n.logger.Debug("noop store", zap.String("symbol", symbol), zap.String("description", description), zap.Stringer("amount", amount))
	return nil
}
