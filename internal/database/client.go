package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/orgtrail/orgtrail-go/internal/config"
	"github.com/orgtrail/orgtrail-go/internal/logging"
)

// ErrNotFound marks lookups for entities that do not exist. Callers treat
// it as a normal result, not a fault.
var ErrNotFound = errors.New("not found")

// Pool abstracts pgxpool.Pool so store components can be tested against
// a mock (pgxmock implements this interface).
type Pool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Close()
}

// Client is the write-side store handle. Every component that mutates the
// store receives one explicitly; there is no ambient global connection.
type Client struct {
	pool   Pool
	logger *logging.Logger
}

// Connect creates a client from storage configuration and verifies
// connectivity. Connection failure is a fatal configuration error.
func Connect(ctx context.Context, cfg config.StorageConfig) (*Client, error) {
	if cfg.Host == "" || cfg.Database == "" || cfg.User == "" {
		return nil, fmt.Errorf("postgres credentials missing: host=%s, db=%s, user=%s", cfg.Host, cfg.Database, cfg.User)
	}

	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	logger := logging.With("component", "postgres")
	logger.Info("postgres client connected", "host", cfg.Host, "port", cfg.Port, "database", cfg.Database)

	return &Client{pool: pool, logger: logger}, nil
}

// NewClient wraps an existing pool. Used by tests with a mock pool.
func NewClient(pool Pool) *Client {
	return &Client{pool: pool, logger: logging.With("component", "postgres")}
}

// Pool exposes the underlying pool to store components.
func (c *Client) Pool() Pool { return c.pool }

// Close closes the connection pool.
func (c *Client) Close() {
	c.pool.Close()
	c.logger.Info("postgres client closed")
}

// HealthCheck verifies connectivity.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres health check failed: %w", err)
	}
	return nil
}

// OpenRead opens the read-side handle used by the query engine and the
// name-resolution layer. It rides on the pgx stdlib driver so both sides
// share one driver implementation.
func OpenRead(cfg config.StorageConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
