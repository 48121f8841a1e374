package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when a tenant cannot be found.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrDuplicateDatabase is returned when inserting a tenant whose
	// database name or slug is already registered.
	ErrDuplicateDatabase = errors.New("tenant database name already registered")

	// ErrNoTenantContext is returned by the context accessors when request
	// handling reaches tenant-scoped code without a resolved tenant.
	// Downstream must treat it as unauthenticated, never as permission to
	// fall back to any default database.
	ErrNoTenantContext = errors.New("no tenant in request context")

	// ErrInactiveTenant is returned when a resolved tenant is deactivated.
	ErrInactiveTenant = errors.New("tenant is inactive")
)
