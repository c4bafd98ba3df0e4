package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tenantd/tenantd/internal/httputil"
	"github.com/tenantd/tenantd/pkg/registry"
)

// TenantGuard creates middleware that authorizes the authenticated
// tenant context against the organization named in the URL path. On
// success the resolved partition handle is placed on the request;
// partition-scoped handlers read it from there and nowhere else.
// Must run after Auth.
func TenantGuard(guard *registry.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc, ok := GetTenantContext(r.Context())
			if !ok {
				httputil.Error(w, http.StatusUnauthorized, "missing authorization")
				return
			}

			requested := chi.URLParam(r, "org")
			partition, err := guard.Authorize(r.Context(), *tc, requested)
			if err != nil {
				httputil.DomainError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), PartitionKey, partition)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
