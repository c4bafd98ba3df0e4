package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/tenantd/tenantd/pkg/domain"
)

// RevocationsRepository is the revocation ledger: a small master-schema
// side table consulted on every token validation. Writes are idempotent
// single-row inserts, so once Revoke returns, any subsequent lookup on
// the same connection pool observes the entry.
type RevocationsRepository struct {
	db      *sql.DB
	timeout time.Duration
}

// NewRevocationsRepository creates a new revocations repository.
// Standalone calls are bounded by timeout; a ledger that does not
// answer in time surfaces domain.ErrUnavailable, never a verdict.
func NewRevocationsRepository(db *sql.DB, timeout time.Duration) *RevocationsRepository {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &RevocationsRepository{db: db, timeout: timeout}
}

// Revoke records a revocation. expiresAt is the natural expiry of the
// newest token the entry can affect; the entry is prunable after that.
// Revoking an already-revoked key is a no-op.
func (r *RevocationsRepository) Revoke(ctx context.Context, key, orgID string, expiresAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.RevokeTx(ctx, r.db, key, orgID, expiresAt)
}

// RevokeTx records a revocation within a transaction.
func (r *RevocationsRepository) RevokeTx(ctx context.Context, q Querier, key, orgID string, expiresAt time.Time) error {
	query := `
		INSERT INTO revocations (key, org_id, revoked_at, expires_at)
		VALUES ($1, $2, NOW(), $3)
		ON CONFLICT (key) DO NOTHING
	`
	_, err := q.ExecContext(ctx, query, key, orgID, expiresAt)
	return MapError(err)
}

// IsRevoked reports whether any of the given keys has a ledger entry.
func (r *RevocationsRepository) IsRevoked(ctx context.Context, keys ...string) (bool, error) {
	if len(keys) == 0 {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT EXISTS(SELECT 1 FROM revocations WHERE key = ANY($1))`
	var revoked bool
	if err := r.db.QueryRowContext(ctx, query, pq.Array(keys)).Scan(&revoked); err != nil {
		return false, MapError(err)
	}
	return revoked, nil
}

// RevokeAllForOrgTx revokes every credential version of an organization
// up to and including maxVersion. Used at deactivation.
func (r *RevocationsRepository) RevokeAllForOrgTx(ctx context.Context, q Querier, orgID string, maxVersion int, expiresAt time.Time) error {
	for v := 1; v <= maxVersion; v++ {
		if err := r.RevokeTx(ctx, q, domain.CredVersionKey(orgID, v), orgID, expiresAt); err != nil {
			return err
		}
	}
	return nil
}

// Prune deletes entries whose revoked tokens have all naturally expired.
func (r *RevocationsRepository) Prune(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `DELETE FROM revocations WHERE expires_at < NOW()`)
	if err != nil {
		return 0, MapError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, MapError(err)
	}
	return rows, nil
}
