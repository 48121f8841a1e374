package dbpool

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/tmskit/pkg/pg"
)

// Querier is the narrow query surface business code receives for a tenant
// database: parameterized queries and transaction scopes, nothing else. It
// is deliberately free of any tenant schema knowledge.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Pool is an open connection pool to one physical database.
// *pgxpool.Pool satisfies it.
type Pool interface {
	Querier
	Ping(ctx context.Context) error
	Close()
}

// Opener opens a pool for the named physical database. Injected into the
// Manager so tests can run without a database server.
type Opener func(ctx context.Context, database string) (Pool, error)

// PgxOpener returns an Opener that connects to the named database on the
// server the pg config points at. Connection failures, including a database
// that does not exist, surface as ErrConnectionFailed so callers can
// distinguish them from authorization problems.
func PgxOpener(cfg pg.Config) Opener {
	return func(ctx context.Context, database string) (Pool, error) {
		pool, err := pg.ConnectTo(ctx, cfg, database)
		if err != nil {
			return nil, errors.Join(ErrConnectionFailed, err)
		}
		return pool, nil
	}
}
