package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tenantd/tenantd/pkg/domain"
)

// fakeLedger is an in-memory RevocationLedger for tests.
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

func newTestTokenService(ledger RevocationLedger) *TokenService {
	return NewTokenService(TokenConfig{
		JWTSecret:      []byte("test-secret"),
		Issuer:         "tenantd",
		AccessTokenTTL: 15 * time.Minute,
	}, ledger)
}

func TestTokenService_IssueExtract_RoundTrip(t *testing.T) {
	svc := newTestTokenService(newFakeLedger())
	adminID := uuid.New()

	issued, err := svc.Issue("acmecorp", adminID, 3)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if issued.TokenType != "Bearer" {
		t.Errorf("TokenType = %q, want %q", issued.TokenType, "Bearer")
	}
	if issued.ExpiresIn != int((15 * time.Minute).Seconds()) {
		t.Errorf("ExpiresIn = %d, want %d", issued.ExpiresIn, 900)
	}

	tc, claims, err := svc.Extract(context.Background(), issued.AccessToken)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if tc.OrgID != "acmecorp" {
		t.Errorf("OrgID = %q, want %q", tc.OrgID, "acmecorp")
	}
	if tc.AdminID != adminID {
		t.Errorf("AdminID = %v, want %v", tc.AdminID, adminID)
	}
	if tc.CredVersion != 3 {
		t.Errorf("CredVersion = %d, want %d", tc.CredVersion, 3)
	}
	if claims.ID == "" {
		t.Error("claims should carry a token ID")
	}
}

func TestTokenService_Extract_Tampered(t *testing.T) {
	svc := newTestTokenService(newFakeLedger())

	issued, err := svc.Issue("acmecorp", uuid.New(), 1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.jwt"},
		{name: "truncated signature", token: issued.AccessToken[:len(issued.AccessToken)-5]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Extract(context.Background(), tt.token)
			if !errors.Is(err, domain.ErrAuthentication) {
				t.Errorf("Extract error = %v, want ErrAuthentication", err)
			}
		})
	}
}

func TestTokenService_Extract_WrongSecret(t *testing.T) {
	svc := newTestTokenService(newFakeLedger())
	other := NewTokenService(TokenConfig{
		JWTSecret: []byte("different-secret"),
		Issuer:    "tenantd",
	}, newFakeLedger())

	issued, err := other.Issue("acmecorp", uuid.New(), 1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, _, err := svc.Extract(context.Background(), issued.AccessToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("Extract error = %v, want ErrInvalidToken", err)
	}
}

func TestTokenService_Extract_ExpiryBoundary(t *testing.T) {
	svc := newTestTokenService(newFakeLedger())
	now := time.Now()

	// A token whose expiry equals the current instant is already expired.
	sign := func(expiresAt time.Time) string {
		claims := Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
				Issuer:    "tenantd",
				ID:        uuid.NewString(),
			},
			OrgID:       "acmecorp",
			CredVersion: 1,
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		if err != nil {
			t.Fatalf("sign failed: %v", err)
		}
		return signed
	}

	if _, _, err := svc.Extract(context.Background(), sign(now)); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("token expiring now: error = %v, want ErrInvalidToken", err)
	}
	if _, _, err := svc.Extract(context.Background(), sign(now.Add(-time.Minute))); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("expired token: error = %v, want ErrInvalidToken", err)
	}
	if _, _, err := svc.Extract(context.Background(), sign(now.Add(time.Minute))); err != nil {
		t.Errorf("live token: unexpected error = %v", err)
	}
}

func TestTokenService_Revoke_CredVersion(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestTokenService(ledger)
	ctx := context.Background()
	adminID := uuid.New()

	oldToken, err := svc.Issue("acmecorp", adminID, 1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if err := svc.Revoke(ctx, "acmecorp", 1); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	if _, _, err := svc.Extract(ctx, oldToken.AccessToken); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Errorf("old-version token: error = %v, want ErrTokenRevoked", err)
	}

	// A token minted under the bumped version is unaffected.
	newToken, err := svc.Issue("acmecorp", adminID, 2)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, _, err := svc.Extract(ctx, newToken.AccessToken); err != nil {
		t.Errorf("new-version token: unexpected error = %v", err)
	}

	// Same version in a different organization is unaffected.
	otherToken, err := svc.Issue("globex", adminID, 1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, _, err := svc.Extract(ctx, otherToken.AccessToken); err != nil {
		t.Errorf("other-org token: unexpected error = %v", err)
	}
}

func TestTokenService_Revoke_Idempotent(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestTokenService(ledger)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.Revoke(ctx, "acmecorp", 1); err != nil {
			t.Fatalf("Revoke attempt %d failed: %v", i+1, err)
		}
	}

	revoked, err := ledger.IsRevoked(ctx, domain.CredVersionKey("acmecorp", 1))
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if !revoked {
		t.Error("version should be revoked")
	}
}

func TestTokenService_RevokeToken_SingleJTI(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestTokenService(ledger)
	ctx := context.Background()
	adminID := uuid.New()

	first, err := svc.Issue("acmecorp", adminID, 1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	second, err := svc.Issue("acmecorp", adminID, 1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	_, firstClaims, err := svc.Extract(ctx, first.AccessToken)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if err := svc.RevokeToken(ctx, firstClaims.ID, "acmecorp", first.ExpiresAt); err != nil {
		t.Fatalf("RevokeToken failed: %v", err)
	}

	if _, _, err := svc.Extract(ctx, first.AccessToken); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Errorf("revoked token: error = %v, want ErrTokenRevoked", err)
	}
	if _, _, err := svc.Extract(ctx, second.AccessToken); err != nil {
		t.Errorf("sibling token: unexpected error = %v", err)
	}
}

func TestTokenService_Extract_LedgerUnavailable(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestTokenService(ledger)

	issued, err := svc.Issue("acmecorp", uuid.New(), 1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	ledger.err = domain.ErrUnavailable

	_, _, err = svc.Extract(context.Background(), issued.AccessToken)
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Errorf("Extract error = %v, want ErrUnavailable", err)
	}
	if errors.Is(err, domain.ErrAuthentication) {
		t.Error("ledger outage must not read as an authentication failure")
	}
}

func TestTokenService_MFAChallenge(t *testing.T) {
	svc := newTestTokenService(newFakeLedger())
	ctx := context.Background()
	adminID := uuid.New()

	challenge, err := svc.IssueMFAChallenge("acmecorp", adminID, 1)
	if err != nil {
		t.Fatalf("IssueMFAChallenge failed: %v", err)
	}

	// A challenge token is not an access token.
	if _, _, err := svc.Extract(ctx, challenge); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("Extract of challenge token: error = %v, want ErrInvalidToken", err)
	}

	claims, err := svc.ValidateMFAChallenge(ctx, challenge)
	if err != nil {
		t.Fatalf("ValidateMFAChallenge failed: %v", err)
	}
	if claims.OrgID != "acmecorp" {
		t.Errorf("OrgID = %q, want %q", claims.OrgID, "acmecorp")
	}
	if claims.Subject != adminID.String() {
		t.Errorf("Subject = %q, want %q", claims.Subject, adminID.String())
	}

	// An access token is not a challenge token.
	issued, err := svc.Issue("acmecorp", adminID, 1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := svc.ValidateMFAChallenge(ctx, issued.AccessToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("ValidateMFAChallenge of access token: error = %v, want ErrInvalidToken", err)
	}
}
