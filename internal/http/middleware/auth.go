package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tenantd/tenantd/internal/httputil"
	"github.com/tenantd/tenantd/pkg/auth"
	"github.com/tenantd/tenantd/pkg/domain"
)

type contextKey string

const (
	// TenantContextKey is the context key for the authenticated tenant context.
	TenantContextKey contextKey = "tenant_context"
	// ClaimsKey is the context key for the token claims.
	ClaimsKey contextKey = "claims"
	// PartitionKey is the context key for the resolved partition handle.
	PartitionKey contextKey = "partition"
)

// Auth creates middleware that validates bearer tokens and places the
// extracted tenant context on the request. The tenant context is the
// only identity downstream handlers see; they never reparse the token.
func Auth(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				httputil.Error(w, http.StatusUnauthorized, "missing authorization")
				return
			}

			tc, claims, err := tokens.Extract(r.Context(), tokenString)
			if err != nil {
				httputil.DomainError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), TenantContextKey, tc)
			ctx = context.WithValue(ctx, ClaimsKey, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// GetTenantContext extracts the tenant context from the request context.
func GetTenantContext(ctx context.Context) (*domain.TenantContext, bool) {
	tc, ok := ctx.Value(TenantContextKey).(*domain.TenantContext)
	return tc, ok
}

// GetClaims extracts the token claims from the request context.
func GetClaims(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*auth.Claims)
	return claims, ok
}

// GetPartition extracts the resolved partition from the request context.
func GetPartition(ctx context.Context) (*domain.Partition, bool) {
	p, ok := ctx.Value(PartitionKey).(*domain.Partition)
	return p, ok
}
