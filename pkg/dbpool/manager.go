package dbpool

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Manager owns one lazily-created pool per physical tenant database.
//
// Database names arrive from externally-controlled channels (decoded tokens,
// headers) on every request, so the first access to a freshly provisioned
// tenant can be a burst of concurrent requests. The manager collapses those
// into exactly one pool creation per name via singleflight; every caller
// receives the same pool or the same failure.
type Manager struct {
	open        Opener
	openTimeout time.Duration
	log         *slog.Logger

	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]*entry
	closed  bool
}

// entry pairs a pool with its usage bookkeeping.
type entry struct {
	database string
	pool     Pool
	lastUsed atomic.Int64 // unix nanos of last use
	inflight atomic.Int64 // operations currently executing

	mu      sync.Mutex // serializes begin against eviction
	evicted bool
}

func (e *entry) touch() {
	e.lastUsed.Store(time.Now().UnixNano())
}

// begin registers an operation against the entry's pool. It fails once the
// entry has been evicted, so a long-held Conn never runs a query against a
// pool that CloseIdle or CloseAll has closed under it.
func (e *entry) begin() (func(), bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.evicted {
		return nil, false
	}
	e.touch()
	e.inflight.Add(1)
	return func() {
		e.touch()
		e.inflight.Add(-1)
	}, true
}

// Option configures the Manager.
type Option func(*Manager)

// WithOpenTimeout bounds each pool creation. Default 10s.
func WithOpenTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.openTimeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewManager creates a pool manager using the given opener.
func NewManager(open Opener, opts ...Option) *Manager {
	m := &Manager{
		open:        open,
		openTimeout: 10 * time.Second,
		log:         slog.Default(),
		entries:     make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the pool for the named database, creating it on first use.
// Concurrent first-time callers for the same name share one creation.
func (m *Manager) Get(ctx context.Context, database string) (*Conn, error) {
	if database == "" {
		return nil, ErrEmptyDatabaseName
	}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil, ErrManagerClosed
	}
	if e, ok := m.entries[database]; ok {
		m.mu.RUnlock()
		e.touch()
		return newConn(m, e), nil
	}
	m.mu.RUnlock()

	v, err, _ := m.group.Do(database, func() (any, error) {
		// Recheck under the write path: a previous flight may have stored
		// the entry between our read miss and this call.
		m.mu.RLock()
		if e, ok := m.entries[database]; ok {
			m.mu.RUnlock()
			return e, nil
		}
		closed := m.closed
		m.mu.RUnlock()
		if closed {
			return nil, ErrManagerClosed
		}

		openCtx, cancel := context.WithTimeout(ctx, m.openTimeout)
		defer cancel()

		pool, err := m.open(openCtx, database)
		if err != nil {
			return nil, err
		}

		e := &entry{database: database, pool: pool}
		e.touch()

		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			pool.Close()
			return nil, ErrManagerClosed
		}
		m.entries[database] = e
		m.mu.Unlock()

		m.log.InfoContext(ctx, "opened tenant database pool", "database", database)
		return e, nil
	})
	if err != nil {
		return nil, err
	}

	e := v.(*entry)
	e.touch()
	return newConn(m, e), nil
}

// Len reports the number of live pools.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// CloseIdle closes and evicts pools untouched for longer than maxIdle.
// Safe to call repeatedly and concurrently with active use; a pool with an
// in-flight operation is never evicted regardless of its last-used time.
func (m *Manager) CloseIdle(maxIdle time.Duration) {
	cutoff := time.Now().Add(-maxIdle).UnixNano()

	var evicted []*entry
	m.mu.Lock()
	for name, e := range m.entries {
		// The entry lock closes the window between sampling inflight and
		// marking the entry evicted; begin on a held Conn either lands
		// before the sample or observes the eviction and re-resolves.
		e.mu.Lock()
		if e.inflight.Load() == 0 && e.lastUsed.Load() < cutoff {
			e.evicted = true
			delete(m.entries, name)
			evicted = append(evicted, e)
		}
		e.mu.Unlock()
	}
	m.mu.Unlock()

	for _, e := range evicted {
		e.pool.Close()
		m.log.Info("evicted idle tenant database pool", "database", e.database)
	}
}

// CloseAll closes every pool at process shutdown. It waits up to
// drainTimeout for in-flight operations to finish, then closes
// unconditionally. The manager accepts no further Get calls.
func (m *Manager) CloseAll(drainTimeout time.Duration) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	entries := make([]*entry, 0, len(m.entries))
	for name, e := range m.entries {
		e.mu.Lock()
		e.evicted = true
		e.mu.Unlock()
		delete(m.entries, name)
		entries = append(entries, e)
	}
	m.mu.Unlock()

	deadline := time.Now().Add(drainTimeout)
	for _, e := range entries {
		for e.inflight.Load() > 0 && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		e.pool.Close()
	}
}

// StartEvictor runs CloseIdle on a fixed interval until ctx is cancelled.
func (m *Manager) StartEvictor(ctx context.Context, interval, maxIdle time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.CloseIdle(maxIdle)
			case <-ctx.Done():
				return
			}
		}
	}()
}
