package registry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/tenantd/tenantd/pkg/domain"
	"github.com/tenantd/tenantd/pkg/repository"
)

// DefaultStoreTimeout bounds every registry store access.
const DefaultStoreTimeout = 5 * time.Second

// Config holds registry configuration.
type Config struct {
	// StoreTimeout is applied to every store access.
	StoreTimeout time.Duration
	// RevocationWindow is how long revocation entries written at
	// deactivation must outlive the newest token (the access token TTL).
	RevocationWindow time.Duration
}

// Registry owns the mapping from organization names to partitions. It is
// the only component that creates, resolves, or locks partitions;
// everything downstream works against a resolved handle.
type Registry struct {
	config      Config
	db          *sql.DB
	orgs        *repository.OrganizationsRepository
	admins      *repository.AdminsRepository
	revocations *repository.RevocationsRepository
}

// New creates a new registry.
func New(config Config, db *sql.DB, orgs *repository.OrganizationsRepository, admins *repository.AdminsRepository, revocations *repository.RevocationsRepository) *Registry {
	if config.StoreTimeout == 0 {
		config.StoreTimeout = DefaultStoreTimeout
	}
	return &Registry{
		config:      config,
		db:          db,
		orgs:        orgs,
		admins:      admins,
		revocations: revocations,
	}
}

// Register derives the partition identifier from the display name,
// provisions the schema with its tables, writes the registry row, and
// seeds the admin credential, all in one transaction. Either everything
// is visible afterwards or nothing is; a duplicate identifier fails with
// domain.ErrConflict (enforced by the unique index, so concurrent
// registrations across instances serialize in the store).
func (r *Registry) Register(ctx context.Context, displayName string, admin *domain.AdminCredential) (*domain.Organization, error) {
	slug, err := DeriveSlug(displayName)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	org := &domain.Organization{
		ID:         uuid.New(),
		Name:       displayName,
		Slug:       slug,
		SchemaName: SchemaName(slug),
		CreatedAt:  now,
	}
	partition := &domain.Partition{OrgID: slug, Schema: org.SchemaName}

	ctx, cancel := context.WithTimeout(ctx, r.config.StoreTimeout)
	defer cancel()

	// Fast-fail on a taken identifier before provisioning starts. The
	// unique index remains the guarantee under concurrent registrations.
	taken, err := r.orgs.ExistsBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrConflict
	}

	err = repository.Tx(ctx, r.db, func(tx *sql.Tx) error {
		if err := r.orgs.CreateTx(ctx, tx, org); err != nil {
			return err
		}
		if err := provisionSchema(ctx, tx, org.SchemaName); err != nil {
			if repository.IsUniqueViolation(err) {
				return domain.ErrConflict
			}
			return repository.MapError(err)
		}
		return r.admins.CreateTx(ctx, tx, partition, admin)
	})
	if err != nil {
		return nil, err
	}

	return org, nil
}

// Resolve maps a partition identifier to its handle. Unknown and
// deactivated organizations both fail with domain.ErrNotFound. Reads are
// lock-free and safe to run concurrently with registrations.
func (r *Registry) Resolve(ctx context.Context, orgID string) (*domain.Partition, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.StoreTimeout)
	defer cancel()

	org, err := r.orgs.GetBySlug(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !org.IsActive() {
		return nil, domain.ErrNotFound
	}

	return &domain.Partition{OrgID: org.Slug, Schema: org.SchemaName}, nil
}

// Get returns the registry record for an organization.
func (r *Registry) Get(ctx context.Context, orgID string) (*domain.Organization, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.StoreTimeout)
	defer cancel()

	return r.orgs.GetBySlug(ctx, orgID)
}

// Deactivate locks an organization: the registry row is marked, every
// credential version issued so far is revoked, and the schema is
// retained untouched. The identifier stays registered forever, so it can
// never be reissued to another organization.
func (r *Registry) Deactivate(ctx context.Context, orgID string) error {
	partition, err := r.Resolve(ctx, orgID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.StoreTimeout)
	defer cancel()

	return repository.Tx(ctx, r.db, func(tx *sql.Tx) error {
		if err := r.orgs.DeactivateTx(ctx, tx, orgID); err != nil {
			return err
		}
		maxVersion, err := r.admins.MaxCredVersionTx(ctx, tx, partition)
		if err != nil {
			return err
		}
		expiresAt := time.Now().Add(r.config.RevocationWindow)
		return r.revocations.RevokeAllForOrgTx(ctx, tx, orgID, maxVersion, expiresAt)
	})
}

// provisionSchema creates the partition schema and its tables. Runs
// inside the registration transaction so a failed registration leaves no
// orphan schema behind.
func provisionSchema(ctx context.Context, tx *sql.Tx, schemaName string) error {
	ident := pq.QuoteIdentifier(schemaName)

	stmts := []string{
		fmt.Sprintf(`CREATE SCHEMA %s`, ident),
		fmt.Sprintf(`
			CREATE TABLE %s.admins (
				id UUID PRIMARY KEY,
				email TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				active BOOLEAN NOT NULL DEFAULT TRUE,
				cred_version INTEGER NOT NULL DEFAULT 1,
				mfa_enabled BOOLEAN NOT NULL DEFAULT FALSE,
				failed_login_attempts INTEGER NOT NULL DEFAULT 0,
				locked_until TIMESTAMPTZ,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)`, ident),
		fmt.Sprintf(`
			CREATE TABLE %s.admin_mfa_secrets (
				id UUID PRIMARY KEY,
				admin_id UUID NOT NULL UNIQUE REFERENCES %s.admins(id),
				secret_encrypted TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL,
				last_used_at TIMESTAMPTZ
			)`, ident, ident),
		fmt.Sprintf(`
			CREATE TABLE %s.records (
				id UUID PRIMARY KEY,
				title TEXT NOT NULL,
				body TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)`, ident),
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
