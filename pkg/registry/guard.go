package registry

import (
	"context"

	"github.com/tenantd/tenantd/pkg/domain"
)

// Resolver resolves a partition identifier to a partition handle.
// Satisfied by *Registry; tests substitute fakes.
type Resolver interface {
	Resolve(ctx context.Context, orgID string) (*domain.Partition, error)
}

// Guard is the single choke point between an authenticated caller and a
// partition: it checks that the organization named by the request target
// is the one bound to the caller's token, then resolves the handle. No
// other code path hands out partition handles during request handling.
type Guard struct {
	resolver Resolver
}

// NewGuard creates a new authorization guard.
func NewGuard(resolver Resolver) *Guard {
	return &Guard{resolver: resolver}
}

// Authorize accepts or rejects an operation against requestedOrgID. The
// requested identifier must come from the request path, never from a
// client-supplied body field. A mismatch fails with domain.ErrForbidden
// regardless of how valid the token otherwise is.
func (g *Guard) Authorize(ctx context.Context, tc domain.TenantContext, requestedOrgID string) (*domain.Partition, error) {
	if requestedOrgID == "" {
		return nil, domain.ErrValidation
	}
	if tc.OrgID != requestedOrgID {
		return nil, domain.ErrForbidden
	}
	return g.resolver.Resolve(ctx, requestedOrgID)
}
