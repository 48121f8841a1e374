package dbname

import "errors"

var (
	// ErrEmptyName is returned when sanitization leaves nothing usable.
	ErrEmptyName = errors.New("dbname: label sanitizes to an empty identifier")

	// ErrReservedName is returned for labels colliding with reserved
	// database names.
	ErrReservedName = errors.New("dbname: label collides with a reserved database name")
)
