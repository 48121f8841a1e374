package dbpool

import "errors"

var (
	// ErrConnectionFailed is returned when the target physical database is
	// unreachable or does not exist. Distinct from authorization failures so
	// callers can decide between retry and reject.
	ErrConnectionFailed = errors.New("dbpool: failed to connect to database")

	// ErrEmptyDatabaseName is returned for a Get with no database name.
	ErrEmptyDatabaseName = errors.New("dbpool: empty database name")

	// ErrManagerClosed is returned once CloseAll has been called.
	ErrManagerClosed = errors.New("dbpool: manager is closed")
)
