package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect establishes a PostgreSQL connection pool with retry logic.
// Uses a linearly growing backoff so several services restarting at once do
// not hammer the database.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	connConfig, err := poolConfig(cfg, "")
	if err != nil {
		return nil, err
	}
	return connectWithRetry(ctx, connConfig, cfg)
}

// ConnectTo opens a pool against a specific database on the same server the
// configured connection string points at. Used for per-tenant databases,
// which share the host and credentials of the control plane but differ in
// database name.
func ConnectTo(ctx context.Context, cfg Config, database string) (*pgxpool.Pool, error) {
	if database == "" {
		return nil, ErrEmptyDatabaseName
	}
	connConfig, err := poolConfig(cfg, database)
	if err != nil {
		return nil, err
	}
	return connectWithRetry(ctx, connConfig, cfg)
}

func poolConfig(cfg Config, database string) (*pgxpool.Config, error) {
	connConfig, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDBConfig, err)
	}
	if database != "" {
		connConfig.ConnConfig.Database = database
	}
	connConfig.MaxConns = cfg.MaxOpenConns
	connConfig.MinConns = cfg.MaxIdleConns
	connConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	connConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	connConfig.MaxConnLifetime = cfg.MaxConnLifetime
	return connConfig, nil
}

func connectWithRetry(ctx context.Context, connConfig *pgxpool.Config, cfg Config) (*pgxpool.Pool, error) {
	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := range attempts {
		pool, err := pgxpool.NewWithConfig(ctx, connConfig)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(i+1) * cfg.RetryInterval)
			continue
		}

		// Ping to catch authentication and missing-database errors up front.
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			lastErr = err
			time.Sleep(time.Duration(i+1) * cfg.RetryInterval)
			continue
		}

		return pool, nil
	}

	return nil, errors.Join(ErrFailedToOpenDBConnection, lastErr)
}
