package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/tenantd/tenantd/pkg/domain"
)

// fakeResolver resolves a fixed set of partitions without a database.
type fakeResolver struct {
	partitions map[string]*domain.Partition
	calls      int
}

func (f *fakeResolver) Resolve(ctx context.Context, orgID string) (*domain.Partition, error) {
	f.calls++
	p, ok := f.partitions[orgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func newFakeResolver(slugs ...string) *fakeResolver {
	partitions := make(map[string]*domain.Partition, len(slugs))
	for _, slug := range slugs {
		partitions[slug] = &domain.Partition{OrgID: slug, Schema: SchemaName(slug)}
	}
	return &fakeResolver{partitions: partitions}
}

func TestGuard_Authorize_MatchingOrg(t *testing.T) {
	guard := NewGuard(newFakeResolver("acmecorp"))
	tc := domain.TenantContext{OrgID: "acmecorp", AdminID: uuid.New(), CredVersion: 1}

	p, err := guard.Authorize(context.Background(), tc, "acmecorp")
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if p.OrgID != "acmecorp" {
		t.Errorf("partition OrgID = %q, want %q", p.OrgID, "acmecorp")
	}
	if p.Schema != "org_acmecorp" {
		t.Errorf("partition Schema = %q, want %q", p.Schema, "org_acmecorp")
	}
}

func TestGuard_Authorize_CrossTenantDenied(t *testing.T) {
	// A fully valid token for one org must never reach another org's
	// partition, so the resolver must not even be consulted.
	resolver := newFakeResolver("acmecorp", "globex")
	guard := NewGuard(resolver)
	tc := domain.TenantContext{OrgID: "acmecorp", AdminID: uuid.New(), CredVersion: 1}

	_, err := guard.Authorize(context.Background(), tc, "globex")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("error = %v, want ErrForbidden", err)
	}
	if resolver.calls != 0 {
		t.Errorf("resolver consulted %d times on a cross-tenant request, want 0", resolver.calls)
	}
}

func TestGuard_Authorize_UnknownOrg(t *testing.T) {
	guard := NewGuard(newFakeResolver())
	tc := domain.TenantContext{OrgID: "acmecorp", AdminID: uuid.New(), CredVersion: 1}

	_, err := guard.Authorize(context.Background(), tc, "acmecorp")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestGuard_Authorize_EmptyRequestedOrg(t *testing.T) {
	guard := NewGuard(newFakeResolver("acmecorp"))
	tc := domain.TenantContext{OrgID: "acmecorp", AdminID: uuid.New(), CredVersion: 1}

	_, err := guard.Authorize(context.Background(), tc, "")
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}
