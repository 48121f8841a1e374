package provisioning

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tmskit/pkg/pg"
	"github.com/dmitrymomot/tmskit/pkg/tenant"
)

// ControlPlane is the provisioning service's view of the shared control-plane
// store: invitation lifecycle plus the atomic finalization step that
// registers a tenant and consumes its invitation as one unit.
type ControlPlane interface {
	// CreateInvitation stores a new invitation.
	CreateInvitation(ctx context.Context, inv *Invitation) error

	// GetInvitation returns the invitation with the given token, or
	// ErrInvalidToken if no such token exists.
	GetInvitation(ctx context.Context, token string) (*Invitation, error)

	// ListPendingInvitations returns unconsumed, unexpired invitations.
	ListPendingInvitations(ctx context.Context) ([]*Invitation, error)

	// DatabaseNameTaken reports whether a tenant already owns the name.
	DatabaseNameTaken(ctx context.Context, database string) (bool, error)

	// Finalize registers the tenant and marks the invitation consumed in
	// one transaction. The consume is a compare-and-set: of two concurrent
	// calls with the same token, exactly one succeeds and the other fails
	// with ErrInvalidToken. Returns the registered tenant with its id.
	Finalize(ctx context.Context, token string, t *tenant.Tenant) (*tenant.Tenant, error)
}

// PgControlPlane implements ControlPlane against the control-plane database.
type PgControlPlane struct {
	pool     *pgxpool.Pool
	registry *tenant.PgRegistry
}

// NewPgControlPlane creates the pgx-backed control plane store.
func NewPgControlPlane(pool *pgxpool.Pool) *PgControlPlane {
	return &PgControlPlane{pool: pool, registry: tenant.NewPgRegistry(pool)}
}

// Registry exposes the tenant registry sharing this control-plane pool.
func (cp *PgControlPlane) Registry() *tenant.PgRegistry {
	return cp.registry
}

const invitationColumns = `id, token, email, label, created_at, expires_at, consumed, consumed_at, tenant_id`

func (cp *PgControlPlane) CreateInvitation(ctx context.Context, inv *Invitation) error {
	_, err := cp.pool.Exec(ctx, `
		INSERT INTO tenant_invitations (id, token, email, label, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		inv.ID, inv.Token, inv.Email, inv.Label, inv.CreatedAt, inv.ExpiresAt)
	return err
}

func (cp *PgControlPlane) GetInvitation(ctx context.Context, token string) (*Invitation, error) {
	row := cp.pool.QueryRow(ctx,
		`SELECT `+invitationColumns+` FROM tenant_invitations WHERE token = $1`, token)

	inv, err := scanInvitation(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return inv, nil
}

func (cp *PgControlPlane) ListPendingInvitations(ctx context.Context) ([]*Invitation, error) {
	rows, err := cp.pool.Query(ctx, `
		SELECT `+invitationColumns+`
		FROM tenant_invitations
		WHERE NOT consumed AND expires_at > NOW()
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invs []*Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	return invs, rows.Err()
}

func (cp *PgControlPlane) DatabaseNameTaken(ctx context.Context, database string) (bool, error) {
	var taken bool
	err := cp.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tenants WHERE database_name = $1)`, database).Scan(&taken)
	return taken, err
}

// Finalize runs the single control-plane transaction closing a provisioning
// attempt: insert the tenant row, then consume the invitation with a
// compare-and-set guarded by the same transaction. A crash before commit
// leaves neither a registered tenant nor a spent token, so a retry remains
// possible and no registered-but-unconsumed gap can occur.
func (cp *PgControlPlane) Finalize(ctx context.Context, token string, t *tenant.Tenant) (*tenant.Tenant, error) {
	tx, err := cp.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	registered, err := cp.registry.InsertTx(ctx, tx, t)
	if err != nil {
		return nil, err
	}

	// The WHERE clause re-checks validity at the moment of consumption;
	// a concurrent transaction that already consumed the token makes this
	// update match zero rows.
	tag, err := tx.Exec(ctx, `
		UPDATE tenant_invitations
		SET consumed = TRUE, consumed_at = NOW(), tenant_id = $2
		WHERE token = $1 AND NOT consumed AND expires_at > NOW()`,
		token, registered.ID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrInvalidToken
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return registered, nil
}

func scanInvitation(row pgx.Row) (*Invitation, error) {
	var inv Invitation
	var consumedAt *time.Time
	var tenantID *int64
	if err := row.Scan(
		&inv.ID, &inv.Token, &inv.Email, &inv.Label, &inv.CreatedAt,
		&inv.ExpiresAt, &inv.Consumed, &consumedAt, &tenantID,
	); err != nil {
		return nil, err
	}
	inv.ConsumedAt = consumedAt
	inv.TenantID = tenantID
	return &inv, nil
}

var _ ControlPlane = (*PgControlPlane)(nil)
