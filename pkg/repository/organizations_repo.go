package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tenantd/tenantd/pkg/domain"
)

// OrganizationsRepository handles the master registry of organizations.
type OrganizationsRepository struct {
	db      *sql.DB
	timeout time.Duration
}

// NewOrganizationsRepository creates a new organizations repository.
// Standalone calls are bounded by timeout and surface
// domain.ErrUnavailable when the store does not answer in time.
func NewOrganizationsRepository(db *sql.DB, timeout time.Duration) *OrganizationsRepository {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &OrganizationsRepository{db: db, timeout: timeout}
}

// CreateTx inserts an organization row within a transaction. A duplicate
// slug surfaces as domain.ErrConflict; the unique index on slug is the
// store-level guarantee that at most one partition exists per identifier,
// regardless of how many service instances race on registration.
func (r *OrganizationsRepository) CreateTx(ctx context.Context, q Querier, org *domain.Organization) error {
	query := `
		INSERT INTO organizations (id, name, slug, schema_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := q.ExecContext(ctx, query,
		org.ID, org.Name, org.Slug, org.SchemaName, org.CreatedAt,
	)
	if IsUniqueViolation(err) {
		return domain.ErrConflict
	}
	return MapError(err)
}

// GetBySlug retrieves an organization by its partition identifier.
// Deactivated organizations are still returned; callers decide whether a
// locked org is acceptable.
func (r *OrganizationsRepository) GetBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, name, slug, schema_name, created_at, deactivated_at
		FROM organizations
		WHERE slug = $1
	`
	org := &domain.Organization{}
	err := r.db.QueryRowContext(ctx, query, slug).Scan(
		&org.ID, &org.Name, &org.Slug, &org.SchemaName,
		&org.CreatedAt, &org.DeactivatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, MapError(err)
	}
	return org, nil
}

// ExistsBySlug reports whether a slug is already registered.
func (r *OrganizationsRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT EXISTS(SELECT 1 FROM organizations WHERE slug = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, slug).Scan(&exists); err != nil {
		return false, MapError(err)
	}
	return exists, nil
}

// DeactivateTx locks an organization within a transaction. The row is
// retained so the slug can never be reissued.
func (r *OrganizationsRepository) DeactivateTx(ctx context.Context, q Querier, slug string) error {
	query := `
		UPDATE organizations
		SET deactivated_at = NOW()
		WHERE slug = $1 AND deactivated_at IS NULL
	`
	result, err := q.ExecContext(ctx, query, slug)
	if err != nil {
		return MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}
