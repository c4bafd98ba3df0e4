package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/tenantd/tenantd/pkg/domain"
)

// qualify builds a schema-qualified table reference for a partition.
// All partition-scoped SQL goes through this; nothing else concatenates
// schema names.
func qualify(p *domain.Partition, table string) string {
	return pq.QuoteIdentifier(p.Schema) + "." + pq.QuoteIdentifier(table)
}

// AdminsRepository handles admin credentials stored inside an
// organization's partition. Every method takes the partition handle the
// caller was authorized for.
type AdminsRepository struct {
	db      *sql.DB
	timeout time.Duration
}

// NewAdminsRepository creates a new admins repository. Standalone calls
// are bounded by timeout; Tx variants run under the caller's deadline.
func NewAdminsRepository(db *sql.DB, timeout time.Duration) *AdminsRepository {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &AdminsRepository{db: db, timeout: timeout}
}

// CreateTx inserts an admin credential within a transaction.
func (r *AdminsRepository) CreateTx(ctx context.Context, q Querier, p *domain.Partition, admin *domain.AdminCredential) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, email, password_hash, active, cred_version, mfa_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, qualify(p, "admins"))
	_, err := q.ExecContext(ctx, query,
		admin.ID, admin.Email, admin.PasswordHash, admin.Active,
		admin.CredVersion, admin.MFAEnabled, admin.CreatedAt, admin.UpdatedAt,
	)
	return MapError(err)
}

// GetByEmail retrieves an admin credential by email.
func (r *AdminsRepository) GetByEmail(ctx context.Context, p *domain.Partition, email string) (*domain.AdminCredential, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT id, email, password_hash, active, cred_version, mfa_enabled,
		       failed_login_attempts, locked_until, created_at, updated_at
		FROM %s
		WHERE email = $1
	`, qualify(p, "admins"))
	return r.scanAdmin(r.db.QueryRowContext(ctx, query, email))
}

// GetByID retrieves an admin credential by ID.
func (r *AdminsRepository) GetByID(ctx context.Context, p *domain.Partition, id uuid.UUID) (*domain.AdminCredential, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT id, email, password_hash, active, cred_version, mfa_enabled,
		       failed_login_attempts, locked_until, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, qualify(p, "admins"))
	return r.scanAdmin(r.db.QueryRowContext(ctx, query, id))
}

func (r *AdminsRepository) scanAdmin(row *sql.Row) (*domain.AdminCredential, error) {
	admin := &domain.AdminCredential{}
	err := row.Scan(
		&admin.ID, &admin.Email, &admin.PasswordHash, &admin.Active,
		&admin.CredVersion, &admin.MFAEnabled, &admin.FailedLoginAttempts,
		&admin.LockedUntil, &admin.CreatedAt, &admin.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAdminNotFound
	}
	if err != nil {
		return nil, MapError(err)
	}
	return admin, nil
}

// UpdatePasswordTx replaces the password hash and bumps the credential
// version in one statement, returning the new version.
func (r *AdminsRepository) UpdatePasswordTx(ctx context.Context, q Querier, p *domain.Partition, adminID uuid.UUID, newHash string) (int, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET password_hash = $1, cred_version = cred_version + 1, updated_at = NOW()
		WHERE id = $2
		RETURNING cred_version
	`, qualify(p, "admins"))
	var version int
	err := q.QueryRowContext(ctx, query, newHash, adminID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrAdminNotFound
	}
	if err != nil {
		return 0, MapError(err)
	}
	return version, nil
}

// SetActiveTx flips the active flag within a transaction.
func (r *AdminsRepository) SetActiveTx(ctx context.Context, q Querier, p *domain.Partition, adminID uuid.UUID, active bool) error {
	query := fmt.Sprintf(`
		UPDATE %s SET active = $1, updated_at = NOW() WHERE id = $2
	`, qualify(p, "admins"))
	result, err := q.ExecContext(ctx, query, active, adminID)
	if err != nil {
		return MapError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if rows == 0 {
		return domain.ErrAdminNotFound
	}
	return nil
}

// SetMFAEnabled flips the MFA flag.
func (r *AdminsRepository) SetMFAEnabled(ctx context.Context, p *domain.Partition, adminID uuid.UUID, enabled bool) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		UPDATE %s SET mfa_enabled = $1, updated_at = NOW() WHERE id = $2
	`, qualify(p, "admins"))
	result, err := r.db.ExecContext(ctx, query, enabled, adminID)
	if err != nil {
		return MapError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if rows == 0 {
		return domain.ErrAdminNotFound
	}
	return nil
}

// IncrementFailedLoginAttempts bumps the failure counter and locks the
// account once maxAttempts is reached.
func (r *AdminsRepository) IncrementFailedLoginAttempts(ctx context.Context, p *domain.Partition, adminID uuid.UUID, lockout time.Duration, maxAttempts int) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		UPDATE %s
		SET failed_login_attempts = failed_login_attempts + 1,
		    locked_until = CASE
		        WHEN failed_login_attempts + 1 >= $1 THEN NOW() + $2::interval
		        ELSE locked_until
		    END,
		    updated_at = NOW()
		WHERE id = $3
	`, qualify(p, "admins"))
	_, err := r.db.ExecContext(ctx, query, maxAttempts, lockout.String(), adminID)
	return MapError(err)
}

// ResetFailedLoginAttempts clears the failure counter after a successful login.
func (r *AdminsRepository) ResetFailedLoginAttempts(ctx context.Context, p *domain.Partition, adminID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		UPDATE %s
		SET failed_login_attempts = 0, locked_until = NULL, updated_at = NOW()
		WHERE id = $1
	`, qualify(p, "admins"))
	_, err := r.db.ExecContext(ctx, query, adminID)
	return MapError(err)
}

// MaxCredVersionTx returns the highest credential version present in the
// partition. Deactivation revokes every version up to this one.
func (r *AdminsRepository) MaxCredVersionTx(ctx context.Context, q Querier, p *domain.Partition) (int, error) {
	query := fmt.Sprintf(`SELECT COALESCE(MAX(cred_version), 0) FROM %s`, qualify(p, "admins"))
	var version int
	if err := q.QueryRowContext(ctx, query).Scan(&version); err != nil {
		return 0, MapError(err)
	}
	return version, nil
}

// GetMFASecret retrieves the admin's encrypted TOTP secret.
func (r *AdminsRepository) GetMFASecret(ctx context.Context, p *domain.Partition, adminID uuid.UUID) (*domain.AdminMFASecret, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT id, admin_id, secret_encrypted, created_at, last_used_at
		FROM %s
		WHERE admin_id = $1
	`, qualify(p, "admin_mfa_secrets"))
	secret := &domain.AdminMFASecret{}
	err := r.db.QueryRowContext(ctx, query, adminID).Scan(
		&secret.ID, &secret.AdminID, &secret.SecretEncrypted,
		&secret.CreatedAt, &secret.LastUsedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAdminNotFound
	}
	if err != nil {
		return nil, MapError(err)
	}
	return secret, nil
}

// UpsertMFASecret stores a new encrypted TOTP secret, replacing any
// previous enrollment.
func (r *AdminsRepository) UpsertMFASecret(ctx context.Context, p *domain.Partition, secret *domain.AdminMFASecret) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		INSERT INTO %s (id, admin_id, secret_encrypted, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (admin_id) DO UPDATE
		SET id = EXCLUDED.id, secret_encrypted = EXCLUDED.secret_encrypted,
		    created_at = EXCLUDED.created_at, last_used_at = NULL
	`, qualify(p, "admin_mfa_secrets"))
	_, err := r.db.ExecContext(ctx, query,
		secret.ID, secret.AdminID, secret.SecretEncrypted, secret.CreatedAt,
	)
	return MapError(err)
}

// TouchMFASecret records a successful TOTP verification.
func (r *AdminsRepository) TouchMFASecret(ctx context.Context, p *domain.Partition, adminID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		UPDATE %s SET last_used_at = NOW() WHERE admin_id = $1
	`, qualify(p, "admin_mfa_secrets"))
	_, err := r.db.ExecContext(ctx, query, adminID)
	return MapError(err)
}
