package provisioning

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/tmskit/pkg/dbname"
	"github.com/dmitrymomot/tmskit/pkg/jwt"
	"github.com/dmitrymomot/tmskit/pkg/tenant"
)

// Config holds provisioning timeouts and defaults.
type Config struct {
	InvitationTTL time.Duration `env:"PROVISIONING_INVITATION_TTL" envDefault:"48h"` // InvitationTTL is the validity window of issued invitations.
	CreateTimeout time.Duration `env:"PROVISIONING_CREATE_TIMEOUT" envDefault:"30s"` // CreateTimeout bounds physical database creation.
	SchemaTimeout time.Duration `env:"PROVISIONING_SCHEMA_TIMEOUT" envDefault:"60s"` // SchemaTimeout bounds baseline schema application.
	SessionTTL    time.Duration `env:"PROVISIONING_SESSION_TTL" envDefault:"24h"`    // SessionTTL is the lifetime of the session credential returned on success.
	DefaultPlan   string        `env:"PROVISIONING_DEFAULT_PLAN" envDefault:"standard"`
}

// Request is the provisioning entry point payload.
type Request struct {
	Token             string       `json:"token"`
	OrganizationLabel string       `json:"organizationLabel"`
	ContactEmail      string       `json:"contactEmail"`
	Admin             AdminAccount `json:"adminAccount"`
}

// Result is returned on successful provisioning. The session credential lets
// the new admin proceed without a second login round-trip.
type Result struct {
	Tenant struct {
		ID           int64  `json:"id"`
		DatabaseName string `json:"databaseName"`
		DisplayName  string `json:"displayName"`
	} `json:"tenant"`
	Admin struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	} `json:"adminAccount"`
	SessionCredential string `json:"sessionCredential"`
}

// Service drives the provisioning workflow: one invitation token in, one
// isolated, schema-initialized, admin-seeded tenant out.
//
// Durable side effects are ordered so that every failure leaves a
// recoverable state. The physical database and its schema exist before
// anything is written to the control plane; registration and token
// consumption then commit as one transaction. A crash at any point leaves at
// worst an orphaned empty database, never a registered tenant with a live
// token or a spent token without a tenant.
type Service struct {
	cp      ControlPlane
	cluster Cluster
	jwt     *jwt.Service
	cfg     Config
	log     *slog.Logger
}

// NewService assembles the provisioning service.
func NewService(cp ControlPlane, cluster Cluster, jwtSvc *jwt.Service, cfg Config, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{cp: cp, cluster: cluster, jwt: jwtSvc, cfg: cfg, log: log}
}

// Invite issues a new single-use invitation for the given contact.
func (s *Service) Invite(ctx context.Context, email, label string) (*Invitation, error) {
	inv, err := NewInvitation(email, label, s.cfg.InvitationTTL)
	if err != nil {
		return nil, err
	}
	if err := s.cp.CreateInvitation(ctx, inv); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "issued tenant invitation", "email", email, "expires_at", inv.ExpiresAt)
	return inv, nil
}

// PendingInvitations lists unconsumed, unexpired invitations.
func (s *Service) PendingInvitations(ctx context.Context) ([]*Invitation, error) {
	return s.cp.ListPendingInvitations(ctx)
}

// Provision creates a new isolated tenant from a valid invitation token.
func (s *Service) Provision(ctx context.Context, req Request) (*Result, error) {
	// Fast pre-check of the token. The authoritative check is the
	// compare-and-set inside Finalize; this one only spares the cluster
	// work for obviously dead tokens.
	inv, err := s.cp.GetInvitation(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	if !inv.ValidAt(time.Now()) {
		return nil, ErrInvalidToken
	}

	database, err := dbname.Derive(req.OrganizationLabel)
	if err != nil {
		return nil, errors.Join(ErrInvalidName, err)
	}

	taken, err := s.cp.DatabaseNameTaken(ctx, database)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, s.conflictError(ctx, req.Token)
	}

	// Physical steps. Nothing durable has touched the control plane yet,
	// so a failure here simply abandons the attempt.
	createCtx, cancelCreate := context.WithTimeout(ctx, s.cfg.CreateTimeout)
	defer cancelCreate()
	if err := s.cluster.CreateDatabase(createCtx, database); err != nil {
		if errors.Is(err, ErrNameConflict) {
			return nil, s.conflictError(ctx, req.Token)
		}
		return nil, err
	}

	schemaCtx, cancelSchema := context.WithTimeout(ctx, s.cfg.SchemaTimeout)
	defer cancelSchema()
	if err := s.cluster.ApplyBaseline(schemaCtx, database); err != nil {
		// The orphaned empty database holds no tenant data; operators can
		// drop it and the caller can retry.
		s.log.ErrorContext(ctx, "baseline schema failed, orphan database left behind",
			"database", database, "error", err)
		return nil, err
	}

	adminID, err := s.cluster.CreateAdminAccount(ctx, database, req.Admin)
	if err != nil {
		s.log.ErrorContext(ctx, "admin account creation failed, orphan database left behind",
			"database", database, "error", err)
		return nil, err
	}

	// Durability point: tenant registration and token consumption commit
	// together. Only after this does the resolver see the tenant.
	registered, err := s.cp.Finalize(ctx, req.Token, &tenant.Tenant{
		Slug:         strings.ReplaceAll(dbname.Sanitize(req.OrganizationLabel), "_", "-"),
		DatabaseName: database,
		Name:         req.OrganizationLabel,
		ContactEmail: req.ContactEmail,
		Status:       tenant.StatusActive,
		Plan:         s.cfg.DefaultPlan,
	})
	if err != nil {
		if errors.Is(err, tenant.ErrDuplicateDatabase) {
			return nil, s.conflictError(ctx, req.Token)
		}
		return nil, err
	}

	credential, err := s.sessionCredential(adminID, registered)
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "tenant provisioned",
		"tenant_id", registered.ID, "database", database, "admin_id", adminID)

	var res Result
	res.Tenant.ID = registered.ID
	res.Tenant.DatabaseName = registered.DatabaseName
	res.Tenant.DisplayName = registered.Name
	res.Admin.ID = adminID
	res.Admin.Username = req.Admin.Username
	res.SessionCredential = credential
	return &res, nil
}

// conflictError classifies a database-name collision. A collision can mean
// two different organizations chose the same label, but it can also mean the
// same invitation was submitted twice and the other attempt already won: the
// winner provisioned the very database this attempt derived. Re-reading the
// invitation tells the two apart. A spent or vanished token reports
// ErrInvalidToken; only a still-live token reports ErrNameConflict, which
// callers may retry with an adjusted label.
func (s *Service) conflictError(ctx context.Context, token string) error {
	inv, err := s.cp.GetInvitation(ctx, token)
	switch {
	case errors.Is(err, ErrInvalidToken):
		return ErrInvalidToken
	case err != nil:
		return ErrNameConflict
	case inv.Consumed:
		return ErrInvalidToken
	default:
		return ErrNameConflict
	}
}

// sessionCredential issues a ready-to-use JWT for the new admin, bound to
// the new tenant.
func (s *Service) sessionCredential(adminID int64, t *tenant.Tenant) (string, error) {
	now := time.Now()
	return s.jwt.Generate(tenant.Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   strconv.FormatInt(adminID, 10),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.cfg.SessionTTL).Unix(),
		},
		DatabaseName:   t.DatabaseName,
		OrganisationID: t.ID,
	})
}
