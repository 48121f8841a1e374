package tenant

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tmskit/pkg/pg"
)

const tenantColumns = `id, slug, database_name, name, contact_email, status, plan,
	COALESCE(logo_url, ''), created_at, last_accessed_at`

// PgRegistry is the pgx-backed Registry against the control-plane database.
type PgRegistry struct {
	pool *pgxpool.Pool
}

// NewPgRegistry creates a registry store; assumes migrations already created
// the tenants table.
func NewPgRegistry(pool *pgxpool.Pool) *PgRegistry {
	return &PgRegistry{pool: pool}
}

func (s *PgRegistry) FindBySlug(ctx context.Context, slug string) (*Tenant, error) {
	query := fmt.Sprintf(`SELECT %s FROM tenants WHERE slug = $1`, tenantColumns)
	return s.queryOne(ctx, query, slug)
}

func (s *PgRegistry) FindByID(ctx context.Context, id int64) (*Tenant, error) {
	query := fmt.Sprintf(`SELECT %s FROM tenants WHERE id = $1`, tenantColumns)
	return s.queryOne(ctx, query, id)
}

func (s *PgRegistry) FindByDatabase(ctx context.Context, database string) (*Tenant, error) {
	query := fmt.Sprintf(`SELECT %s FROM tenants WHERE database_name = $1`, tenantColumns)
	return s.queryOne(ctx, query, database)
}

func (s *PgRegistry) ListActive(ctx context.Context) ([]*Tenant, error) {
	query := fmt.Sprintf(`SELECT %s FROM tenants WHERE status = $1 ORDER BY id ASC`, tenantColumns)

	rows, err := s.pool.Query(ctx, query, StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (s *PgRegistry) Insert(ctx context.Context, t *Tenant) (*Tenant, error) {
	query := fmt.Sprintf(`
		INSERT INTO tenants (slug, database_name, name, contact_email, status, plan, logo_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NOW())
		RETURNING %s`, tenantColumns)

	row := s.pool.QueryRow(ctx, query,
		t.Slug, t.DatabaseName, t.Name, t.ContactEmail, t.Status, t.Plan, t.LogoURL)

	out, err := scanTenant(row)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateDatabase
		}
		return nil, err
	}
	return out, nil
}

// InsertTx inserts using an existing control-plane transaction, so tenant
// registration and invitation consumption commit or roll back together.
func (s *PgRegistry) InsertTx(ctx context.Context, tx pgx.Tx, t *Tenant) (*Tenant, error) {
	query := fmt.Sprintf(`
		INSERT INTO tenants (slug, database_name, name, contact_email, status, plan, logo_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NOW())
		RETURNING %s`, tenantColumns)

	row := tx.QueryRow(ctx, query,
		t.Slug, t.DatabaseName, t.Name, t.ContactEmail, t.Status, t.Plan, t.LogoURL)

	out, err := scanTenant(row)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateDatabase
		}
		return nil, err
	}
	return out, nil
}

func (s *PgRegistry) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := s.pool.Exec(ctx, `UPDATE tenants SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

func (s *PgRegistry) UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tenants SET
			name          = COALESCE($2, name),
			contact_email = COALESCE($3, contact_email),
			plan          = COALESCE($4, plan),
			logo_url      = COALESCE($5, logo_url)
		WHERE id = $1`,
		id, update.Name, update.ContactEmail, update.Plan, update.LogoURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

func (s *PgRegistry) TouchAccess(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `UPDATE tenants SET last_accessed_at = NOW() WHERE id = $1`, id)
	return err
}

// Pool exposes the underlying control-plane pool for components that open
// transactions spanning registry and invitation writes.
func (s *PgRegistry) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *PgRegistry) queryOne(ctx context.Context, query string, arg any) (*Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return t, nil
}

func scanTenant(row pgx.Row) (*Tenant, error) {
	var t Tenant
	if err := row.Scan(
		&t.ID, &t.Slug, &t.DatabaseName, &t.Name, &t.ContactEmail,
		&t.Status, &t.Plan, &t.LogoURL, &t.CreatedAt, &t.LastAccessedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

var _ Registry = (*PgRegistry)(nil)
