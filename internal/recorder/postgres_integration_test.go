package recorder

import (
	"context"
	"database/sql"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"QuoteKeeper/internal/config"
)

// startPostgres runs a disposable PostgreSQL container with the reference
// schema applied and returns a gateway config pointing at it.
func startPostgres(t *testing.T) (config.DatabaseConfig, *sql.DB) {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("stock_data"),
		tcpostgres.WithUsername("quotes"),
		tcpostgres.WithPassword("quotes"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := config.DatabaseConfig{
		Driver:   "postgres",
		Host:     host,
		Port:     port.Int(),
		User:     "quotes",
		Password: "quotes",
		Name:     "stock_data",
		SSLMode:  "disable",
	}

	db, err := sql.Open("postgres", cfg.DSN())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	require.NoError(t, err)

	_, filename, _, _ := runtime.Caller(0)
	migrationsPath := filepath.Join(filepath.Dir(filename), "..", "..", "db", "migrations", "postgres")
	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	require.NoError(t, err)
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return cfg, db
}

func TestGateway_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cfg, db := startPostgres(t)
	g := NewGateway(cfg, zap.NewNop())

	require.NoError(t, g.Store(context.Background(), "AAPL", "Apple Inc.", decimal.RequireFromString("175.23")))

	var code, desc string
	var amount decimal.Decimal
	var capturedAt time.Time
	err := db.QueryRow(`SELECT date, stock_code, description, amount FROM stock_prices`).
		Scan(&capturedAt, &code, &desc, &amount)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", code)
	assert.Equal(t, "Apple Inc.", desc)
	assert.True(t, decimal.RequireFromString("175.23").Equal(amount))
	assert.WithinDuration(t, time.Now(), capturedAt, time.Minute)
}
