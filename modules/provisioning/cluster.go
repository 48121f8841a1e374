package provisioning

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/tmskit/pkg/dbname"
	"github.com/dmitrymomot/tmskit/pkg/pg"
)

// AdminAccount carries the first administrative user of a new tenant.
type AdminAccount struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Cluster performs the physical steps of provisioning against the database
// server: database creation, baseline schema application, and the first
// admin account insert. Split from the Service so tests can run the workflow
// without a server.
type Cluster interface {
	// CreateDatabase creates the physical database.
	CreateDatabase(ctx context.Context, database string) error

	// ApplyBaseline applies the versioned baseline schema to a freshly
	// created tenant database.
	ApplyBaseline(ctx context.Context, database string) error

	// CreateAdminAccount inserts the first administrative user directly
	// into the tenant database and returns its id.
	CreateAdminAccount(ctx context.Context, database string, account AdminAccount) (int64, error)
}

// PgCluster implements Cluster with pgx against the server the control-plane
// config points at.
type PgCluster struct {
	pool       *pgxpool.Pool // control-plane pool, used for CREATE DATABASE
	cfg        pg.Config
	baseline   string // goose migrations dir holding the baseline schema
	bcryptCost int
	log        *slog.Logger
}

// ClusterOption configures PgCluster.
type ClusterOption func(*PgCluster)

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) ClusterOption {
	return func(c *PgCluster) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			c.bcryptCost = cost
		}
	}
}

// WithClusterLogger sets a custom logger.
func WithClusterLogger(log *slog.Logger) ClusterOption {
	return func(c *PgCluster) {
		if log != nil {
			c.log = log
		}
	}
}

// NewPgCluster creates cluster operations using the control-plane pool and
// config. baselineDir is the goose migrations directory applied to every new
// tenant database.
func NewPgCluster(pool *pgxpool.Pool, cfg pg.Config, baselineDir string, opts ...ClusterOption) *PgCluster {
	c := &PgCluster{
		pool:       pool,
		cfg:        cfg,
		baseline:   baselineDir,
		bcryptCost: bcrypt.DefaultCost,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *PgCluster) CreateDatabase(ctx context.Context, database string) error {
	if !dbname.Valid(database) {
		return ErrInvalidName
	}

	// CREATE DATABASE takes no bind parameters; the name has passed the
	// identifier charset check and is additionally quoted.
	quoted := pgx.Identifier{database}.Sanitize()
	if _, err := c.pool.Exec(ctx, "CREATE DATABASE "+quoted); err != nil {
		if pg.IsDuplicateDatabaseError(err) {
			return ErrNameConflict
		}
		return errors.Join(ErrProvisioningFailed, err)
	}

	c.log.InfoContext(ctx, "created tenant database", "database", database)
	return nil
}

func (c *PgCluster) ApplyBaseline(ctx context.Context, database string) error {
	pool, err := pg.ConnectTo(ctx, c.cfg, database)
	if err != nil {
		return errors.Join(ErrProvisioningFailed, err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, c.baseline, "schema_migrations", c.log); err != nil {
		return errors.Join(ErrProvisioningFailed, err)
	}

	c.log.InfoContext(ctx, "applied baseline schema", "database", database)
	return nil
}

func (c *PgCluster) CreateAdminAccount(ctx context.Context, database string, account AdminAccount) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(account.Password), c.bcryptCost)
	if err != nil {
		return 0, errors.Join(ErrProvisioningFailed, err)
	}

	pool, err := pg.ConnectTo(ctx, c.cfg, database)
	if err != nil {
		return 0, errors.Join(ErrProvisioningFailed, err)
	}
	defer pool.Close()

	var id int64
	err = pool.QueryRow(ctx, `
		INSERT INTO users (name, email, username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, 'admin', NOW())
		RETURNING id`,
		account.Name, account.Email, account.Username, hash).Scan(&id)
	if err != nil {
		return 0, errors.Join(ErrProvisioningFailed, err)
	}

	c.log.InfoContext(ctx, "created tenant admin account", "database", database, "user_id", id)
	return id, nil
}

var _ Cluster = (*PgCluster)(nil)
