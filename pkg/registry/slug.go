package registry

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tenantd/tenantd/pkg/domain"
)

const (
	slugMinLength = 3
	// Leaves room for the schema prefix within Postgres's 63-byte
	// identifier limit.
	slugMaxLength = 59

	schemaPrefix = "org_"
)

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// DeriveSlug normalizes an organization display name into its canonical
// partition identifier: lowercase with everything outside [a-z0-9]
// removed. "Acme Corp" becomes "acmecorp". The derivation is
// deterministic, so two display names that normalize identically are a
// registration conflict, never two partitions.
func DeriveSlug(displayName string) (string, error) {
	slug := slugStrip.ReplaceAllString(strings.ToLower(strings.TrimSpace(displayName)), "")

	if len(slug) < slugMinLength {
		return "", fmt.Errorf("%w: organization name must contain at least %d letters or digits", domain.ErrValidation, slugMinLength)
	}
	if len(slug) > slugMaxLength {
		return "", fmt.Errorf("%w: organization name is too long (max %d characters after normalization)", domain.ErrValidation, slugMaxLength)
	}

	return slug, nil
}

// SchemaName returns the Postgres schema name for a partition identifier.
func SchemaName(slug string) string {
	return schemaPrefix + slug
}
