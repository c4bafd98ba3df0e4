package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tenantd/tenantd/pkg/domain"
)

// Default token lifetimes
const (
	DefaultAccessTokenTTL = 15 * time.Minute

	// MFA challenge tokens are short-lived by design of the login flow:
	// password is verified, the code exchange must follow promptly.
	mfaChallengeTTL = 5 * time.Minute
)

// TokenConfig holds token issuance configuration.
type TokenConfig struct {
	JWTSecret      []byte
	Issuer         string
	AccessTokenTTL time.Duration
}

// RevocationLedger records revoked credential versions and token IDs.
// Implemented by repository.RevocationsRepository; tests substitute an
// in-memory fake.
type RevocationLedger interface {
	Revoke(ctx context.Context, key, orgID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, keys ...string) (bool, error)
}

// TokenService issues and validates tenant access tokens.
type TokenService struct {
	config TokenConfig
	ledger RevocationLedger
}

// NewTokenService creates a new token service.
func NewTokenService(config TokenConfig, ledger RevocationLedger) *TokenService {
	if config.AccessTokenTTL == 0 {
		config.AccessTokenTTL = DefaultAccessTokenTTL
	}
	return &TokenService{
		config: config,
		ledger: ledger,
	}
}

// AccessTokenTTL returns the access token TTL.
func (s *TokenService) AccessTokenTTL() time.Duration {
	return s.config.AccessTokenTTL
}

// Claims represents the claims in a tenant access token.
type Claims struct {
	jwt.RegisteredClaims
	OrgID       string `json:"org_id"`
	CredVersion int    `json:"cred_ver"`
	MFAPending  bool   `json:"mfa_pending,omitempty"`
}

// Issue creates a signed access token for an admin of the given
// organization. The token is self-contained: org, subject, credential
// version, and a unique ID for targeted revocation.
func (s *TokenService) Issue(orgID string, adminID uuid.UUID, credVersion int) (*domain.IssuedToken, error) {
	now := time.Now()
	expiresAt := now.Add(s.config.AccessTokenTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    s.config.Issuer,
			ID:        uuid.NewString(),
		},
		OrgID:       orgID,
		CredVersion: credVersion,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.config.JWTSecret)
	if err != nil {
		return nil, err
	}

	return &domain.IssuedToken{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.config.AccessTokenTTL.Seconds()),
		ExpiresAt:   expiresAt,
	}, nil
}

// Extract validates a bearer token and returns the tenant context it
// carries. Signature, expiry, and the revocation ledger are all
// checked; a token that fails any of them is refused. Ledger
// unavailability surfaces as domain.ErrUnavailable, never as an
// authentication failure.
func (s *TokenService) Extract(ctx context.Context, tokenString string) (*domain.TenantContext, *Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, nil, err
	}

	// A challenge token proves only that the password step passed.
	if claims.MFAPending {
		return nil, nil, domain.ErrInvalidToken
	}

	adminID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, nil, domain.ErrInvalidToken
	}

	revoked, err := s.ledger.IsRevoked(ctx,
		domain.TokenKey(claims.ID),
		domain.CredVersionKey(claims.OrgID, claims.CredVersion),
	)
	if err != nil {
		return nil, nil, err
	}
	if revoked {
		return nil, nil, domain.ErrTokenRevoked
	}

	return &domain.TenantContext{
		OrgID:       claims.OrgID,
		AdminID:     adminID,
		CredVersion: claims.CredVersion,
	}, claims, nil
}

// Revoke invalidates every outstanding token carrying the given
// credential version. Idempotent.
func (s *TokenService) Revoke(ctx context.Context, orgID string, credVersion int) error {
	expiresAt := time.Now().Add(s.config.AccessTokenTTL)
	return s.ledger.Revoke(ctx, domain.CredVersionKey(orgID, credVersion), orgID, expiresAt)
}

// RevokeToken invalidates a single token by its ID. The ledger entry
// expires with the token itself.
func (s *TokenService) RevokeToken(ctx context.Context, jti, orgID string, expiresAt time.Time) error {
	return s.ledger.Revoke(ctx, domain.TokenKey(jti), orgID, expiresAt)
}

// IssueMFAChallenge creates a short-lived token proving the password
// step of a login succeeded. It grants no tenant access; Extract
// refuses it.
func (s *TokenService) IssueMFAChallenge(orgID string, adminID uuid.UUID, credVersion int) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(mfaChallengeTTL)),
			Issuer:    s.config.Issuer,
			ID:        uuid.NewString(),
		},
		OrgID:       orgID,
		CredVersion: credVersion,
		MFAPending:  true,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.config.JWTSecret)
}

// ValidateMFAChallenge validates a challenge token and returns its
// claims. Only tokens marked pending are accepted here.
func (s *TokenService) ValidateMFAChallenge(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if !claims.MFAPending {
		return nil, domain.ErrInvalidToken
	}

	revoked, err := s.ledger.IsRevoked(ctx, domain.CredVersionKey(claims.OrgID, claims.CredVersion))
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, domain.ErrTokenRevoked
	}

	return claims, nil
}

func (s *TokenService) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return s.config.JWTSecret, nil
	}, jwt.WithIssuer(s.config.Issuer))
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	if claims.OrgID == "" || claims.ID == "" {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}
