package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tenantd/tenantd/pkg/auth"
	"github.com/tenantd/tenantd/pkg/domain"
)

// fakeLedger is an in-memory revocation ledger for middleware tests.
type fakeLedger struct {
	revoked map[string]bool
	err     error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{revoked: make(map[string]bool)}
}

func (f *fakeLedger) Revoke(ctx context.Context, key, orgID string, expiresAt time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.revoked[key] = true
	return nil
}

func (f *fakeLedger) IsRevoked(ctx context.Context, keys ...string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, k := range keys {
		if f.revoked[k] {
			return true, nil
		}
	}
	return false, nil
}

func newTestTokenService(ledger auth.RevocationLedger) *auth.TokenService {
	return auth.NewTokenService(auth.TokenConfig{
		JWTSecret: []byte("test-secret"),
		Issuer:    "tenantd",
	}, ledger)
}

func TestAuth_ValidToken(t *testing.T) {
	tokens := newTestTokenService(newFakeLedger())
	adminID := uuid.New()

	issued, err := tokens.Issue("acmecorp", adminID, 1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	var gotTC *domain.TenantContext
	handler := Auth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTC, _ = GetTenantContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/v1/orgs/acmecorp", nil)
	req.Header.Set("Authorization", "Bearer "+issued.AccessToken)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotTC == nil {
		t.Fatal("tenant context should be on the request")
	}
	if gotTC.OrgID != "acmecorp" || gotTC.AdminID != adminID {
		t.Errorf("tenant context = %+v", gotTC)
	}
}

func TestAuth_Rejections(t *testing.T) {
	ledger := newFakeLedger()
	tokens := newTestTokenService(ledger)

	issued, err := tokens.Issue("acmecorp", uuid.New(), 1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if err := tokens.Revoke(context.Background(), "acmecorp", 1); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{name: "missing header", authHeader: "", wantStatus: http.StatusUnauthorized},
		{name: "not bearer", authHeader: "Basic dXNlcjpwYXNz", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", authHeader: "Bearer not.a.jwt", wantStatus: http.StatusUnauthorized},
		{name: "revoked token", authHeader: "Bearer " + issued.AccessToken, wantStatus: http.StatusUnauthorized},
	}

	handler := Auth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/v1/orgs/acmecorp", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestAuth_LedgerUnavailable(t *testing.T) {
	ledger := newFakeLedger()
	tokens := newTestTokenService(ledger)

	issued, err := tokens.Issue("acmecorp", uuid.New(), 1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	ledger.err = domain.ErrUnavailable

	handler := Auth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/v1/orgs/acmecorp", nil)
	req.Header.Set("Authorization", "Bearer "+issued.AccessToken)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	// A ledger outage is a 503, not a 401: the token was never judged.
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}
