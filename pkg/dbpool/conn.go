package dbpool

import (
	"context"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Conn is a handle to one tenant's pool. Every operation refreshes the
// entry's last-used time and is counted as in-flight so idle eviction never
// closes a pool with work executing against it. A Conn held across an idle
// eviction stays usable: the next operation re-resolves a fresh pool through
// the manager instead of failing on the closed one. Rows and transactions
// that outlive the call keep holding pool connections; pgxpool's Close
// blocks until those are released.
type Conn struct {
	m        *Manager
	database string
	entry    atomic.Pointer[entry]
}

func newConn(m *Manager, e *entry) *Conn {
	c := &Conn{m: m, database: e.database}
	c.entry.Store(e)
	return c
}

// Database returns the physical database name this handle is bound to.
func (c *Conn) Database() string {
	return c.database
}

// lease pins a live entry for one operation. When the cached entry has been
// evicted it asks the manager for the current one, which reopens the pool if
// needed.
func (c *Conn) lease(ctx context.Context) (*entry, func(), error) {
	for range 3 {
		e := c.entry.Load()
		if done, ok := e.begin(); ok {
			return e, done, nil
		}

		fresh, err := c.m.Get(ctx, c.database)
		if err != nil {
			return nil, nil, err
		}
		c.entry.Store(fresh.entry.Load())
	}
	return nil, nil, ErrManagerClosed
}

func (c *Conn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	e, done, err := c.lease(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	return e.pool.Query(ctx, sql, args...)
}

func (c *Conn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	e, done, err := c.lease(ctx)
	if err != nil {
		return errRow{err: err}
	}
	defer done()
	return e.pool.QueryRow(ctx, sql, args...)
}

func (c *Conn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	e, done, err := c.lease(ctx)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	defer done()
	return e.pool.Exec(ctx, sql, args...)
}

func (c *Conn) Begin(ctx context.Context) (pgx.Tx, error) {
	e, done, err := c.lease(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	return e.pool.Begin(ctx)
}

// Ping verifies the underlying pool is reachable.
func (c *Conn) Ping(ctx context.Context) error {
	e, done, err := c.lease(ctx)
	if err != nil {
		return err
	}
	defer done()
	return e.pool.Ping(ctx)
}

// errRow carries a lease failure to the Scan call, mirroring how pgx defers
// QueryRow errors.
type errRow struct{ err error }

func (r errRow) Scan(dest ...any) error { return r.err }

var _ Querier = (*Conn)(nil)
