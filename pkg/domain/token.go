package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TenantContext is the request-scoped identity produced by token
// validation: which organization the caller may act in and which admin
// is acting. It is never persisted.
type TenantContext struct {
	OrgID       string
	AdminID     uuid.UUID
	CredVersion int
}

// RevocationEntry records an explicitly invalidated token or credential
// version. Entries are write-once and pruned after the revoked token's
// natural expiry window has passed.
type RevocationEntry struct {
	Key       string
	OrgID     string
	RevokedAt time.Time
	ExpiresAt time.Time
}

// CredVersionKey builds the ledger key for an (organization,
// credential-version) pair. Revoking it invalidates every token minted
// against that version.
func CredVersionKey(orgID string, credVersion int) string {
	return fmt.Sprintf("ver:%s:%d", orgID, credVersion)
}

// TokenKey builds the ledger key for a single token identifier.
func TokenKey(jti string) string {
	return "jti:" + jti
}

// IssuedToken is the bearer credential handed back to a client. The token
// itself is self-contained; nothing here is stored server-side.
type IssuedToken struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int
	ExpiresAt   time.Time
}

// Record is a minimal tenant-scoped business object living inside an
// organization's partition.
type Record struct {
	ID        uuid.UUID
	Title     string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
