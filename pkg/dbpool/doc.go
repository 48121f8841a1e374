// Package dbpool manages one connection pool per physical tenant database.
//
// Pools are created lazily on first access, deduplicated under concurrency
// (N concurrent first-time requests for one database open exactly one pool),
// reused across requests, evicted after a configurable idle period, and
// drained on shutdown. Business code talks to the narrow [Querier] surface;
// the pgx driver is wired in through [PgxOpener] and never leaks into the
// tenant schema layer.
package dbpool
