package recorder

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"QuoteKeeper/internal/config"
)

// OpenFunc opens a database handle. sql.Open satisfies it.
type OpenFunc func(driverName, dataSourceName string) (*sql.DB, error)

// Gateway writes observations to the stock_prices table. Every Store call
// opens its own connection and closes it before returning; no pool is kept
// between calls.
type Gateway struct {
	driver string
	dsn    string
	insert string
	open   OpenFunc
	logger *zap.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithOpener replaces sql.Open, mainly for tests.
func WithOpener(open OpenFunc) Option {
	return func(g *Gateway) { g.open = open }
}

// NewGateway creates a gateway for the configured driver. It does not connect.
func NewGateway(cfg config.DatabaseConfig, logger *zap.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		driver: cfg.Driver,
		dsn:    cfg.DSN(),
		insert: insertStatement(cfg.Driver),
		open:   sql.Open,
		logger: logger.With(zap.String("driver", cfg.Driver)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// insertStatement returns the insert for the driver's placeholder style.
// The row timestamp is evaluated by the database server.
func insertStatement(driver string) string {
	if driver == "postgres" {
		return `INSERT INTO stock_prices (date, stock_code, description, amount)
			VALUES (CURRENT_TIMESTAMP, $1, $2, $3)`
	}
	return `INSERT INTO stock_prices (date, stock_code, description, amount)
		VALUES (CURRENT_TIMESTAMP, ?, ?, ?)`
}

// Store inserts one observation row. Failures are logged here exactly once
// and returned wrapped in ErrConnect or ErrInsert; nothing is retried.
func (g *Gateway) Store(ctx context.Context, symbol, description string, amount decimal.Decimal) error {
	db, err := g.open(g.driver, g.dsn)
	if err != nil {
		g.logger.Error("database connection failed", zap.String("symbol", symbol), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		g.logger.Error("database connection failed", zap.String("symbol", symbol), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}
	g.logger.Debug("connected to database")

	if _, err := db.ExecContext(ctx, g.insert, symbol, description, amount); err != nil {
		g.logger.Error("insert observation failed", zap.String("symbol", symbol), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrInsert, err)
	}

	g.logger.Debug("observation inserted",
		zap.String("symbol", symbol),
		zap.String("description", description),
		zap.Stringer("amount", amount),
	)
	return nil
}
