package tenant

import (
	"context"
	"time"
)

// Status is a tenant lifecycle status.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Tenant represents one customer organization backed by its own physical
// database. ID, Slug, and DatabaseName are immutable after creation.
type Tenant struct {
	ID             int64      `json:"id"`
	Slug           string     `json:"slug"`
	DatabaseName   string     `json:"database_name"`
	Name           string     `json:"name"`
	ContactEmail   string     `json:"contact_email"`
	Status         Status     `json:"status"`
	Plan           string     `json:"plan"`
	LogoURL        string     `json:"logo_url,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
}

// Active reports whether the tenant may serve traffic.
func (t *Tenant) Active() bool {
	return t.Status == StatusActive
}

// ProfileUpdate carries the mutable display fields of a tenant. Nil fields
// are left unchanged.
type ProfileUpdate struct {
	Name         *string
	ContactEmail *string
	Plan         *string
	LogoURL      *string
}

// Registry is the control-plane store of record for tenant existence. It is
// the single writer of tenant rows; every other component only reads.
//
// Database names are globally unique and never reused: the registry has no
// delete operation, deactivation is the only removal path, so a database
// name can never be re-assigned to a different organization and inherit a
// cached pool pointing at the old tenant's data.
type Registry interface {
	// FindBySlug returns the tenant with the given URL slug.
	// Returns ErrTenantNotFound if no tenant matches.
	FindBySlug(ctx context.Context, slug string) (*Tenant, error)

	// FindByID returns the tenant with the given registry id.
	FindByID(ctx context.Context, id int64) (*Tenant, error)

	// FindByDatabase returns the tenant owning the given physical database.
	FindByDatabase(ctx context.Context, database string) (*Tenant, error)

	// ListActive returns all active tenants ordered by id ascending.
	ListActive(ctx context.Context) ([]*Tenant, error)

	// Insert stores a new tenant and returns it with its assigned id.
	// Returns ErrDuplicateDatabase if the database name or slug is taken.
	Insert(ctx context.Context, t *Tenant) (*Tenant, error)

	// UpdateStatus sets the lifecycle status.
	UpdateStatus(ctx context.Context, id int64, status Status) error

	// UpdateProfile applies the non-nil fields of the update.
	UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) error

	// TouchAccess records the time a tenant last served a request.
	// Best-effort; callers may ignore the error.
	TouchAccess(ctx context.Context, id int64) error
}
