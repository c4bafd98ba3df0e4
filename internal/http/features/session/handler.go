package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/tenantd/tenantd/internal/http/middleware"
	"github.com/tenantd/tenantd/internal/httputil"
	"github.com/tenantd/tenantd/pkg/auth"
	"github.com/tenantd/tenantd/pkg/domain"
	"github.com/tenantd/tenantd/pkg/registry"
)

// authenticator is the slice of the login service the handler touches.
// Tests substitute fakes.
type authenticator interface {
	Authenticate(ctx context.Context, p *domain.Partition, email, password string) (*domain.AdminCredential, error)
}

// Handler handles login, MFA verification, and logout.
type Handler struct {
	logger   *slog.Logger
	registry registry.Resolver
	login    authenticator
	tokens   *auth.TokenService
	mfa      *auth.MFAService
}

// NewHandler creates a new session handler.
func NewHandler(logger *slog.Logger, reg *registry.Registry, login *auth.LoginService, tokens *auth.TokenService, mfa *auth.MFAService) *Handler {
	return &Handler{
		logger:   logger,
		registry: reg,
		login:    login,
		tokens:   tokens,
		mfa:      mfa,
	}
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Org      string `json:"org"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse represents a successful token issuance.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// MFAChallengeResponse is returned when the password step passed but a
// TOTP code is still required.
type MFAChallengeResponse struct {
	MFARequired    bool   `json:"mfa_required"`
	ChallengeToken string `json:"challenge_token"`
}

// MFAVerifyRequest represents the second step of an MFA login.
type MFAVerifyRequest struct {
	ChallengeToken string `json:"challenge_token"`
	Code           string `json:"code"`
}

// Login authenticates an admin against their organization's partition.
// POST /v1/auth/login
//
// Unknown organization, unknown email, and wrong password all produce
// the same response.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Org == "" || req.Email == "" || req.Password == "" {
		httputil.Error(w, http.StatusBadRequest, "org, email, and password are required")
		return
	}

	partition, err := h.registry.Resolve(r.Context(), req.Org)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			httputil.DomainError(w, domain.ErrInvalidCredentials)
			return
		}
		httputil.DomainError(w, err)
		return
	}

	admin, err := h.login.Authenticate(r.Context(), partition, req.Email, req.Password)
	if err != nil {
		httputil.DomainError(w, err)
		return
	}

	if admin.MFAEnabled {
		// An admin enrolled while the service had an MFA key configured;
		// without one the verify step cannot run, so fail here instead of
		// issuing a challenge that dead-ends.
		if h.mfa == nil {
			h.logger.Error("admin requires mfa but no mfa service is configured", "org", partition.OrgID)
			httputil.Error(w, http.StatusServiceUnavailable, "mfa is not available")
			return
		}
		challenge, err := h.tokens.IssueMFAChallenge(partition.OrgID, admin.ID, admin.CredVersion)
		if err != nil {
			h.logger.Error("failed to issue MFA challenge", "org", partition.OrgID, "error", err)
			httputil.Error(w, http.StatusInternalServerError, "internal server error")
			return
		}
		httputil.JSON(w, http.StatusOK, MFAChallengeResponse{
			MFARequired:    true,
			ChallengeToken: challenge,
		})
		return
	}

	h.issueToken(w, partition.OrgID, admin.ID, admin.CredVersion)
}

// VerifyMFA completes an MFA login by exchanging a challenge token and
// a TOTP code for an access token.
// POST /v1/auth/mfa/verify
func (h *Handler) VerifyMFA(w http.ResponseWriter, r *http.Request) {
	var req MFAVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ChallengeToken == "" || req.Code == "" {
		httputil.Error(w, http.StatusBadRequest, "challenge_token and code are required")
		return
	}
	if h.mfa == nil {
		httputil.Error(w, http.StatusNotFound, "mfa is not configured")
		return
	}

	claims, err := h.tokens.ValidateMFAChallenge(r.Context(), req.ChallengeToken)
	if err != nil {
		httputil.DomainError(w, err)
		return
	}

	adminID, err := uuid.Parse(claims.Subject)
	if err != nil {
		httputil.DomainError(w, domain.ErrInvalidToken)
		return
	}

	// The organization may have been deactivated between the two steps.
	partition, err := h.registry.Resolve(r.Context(), claims.OrgID)
	if err != nil {
		httputil.DomainError(w, err)
		return
	}

	valid, err := h.mfa.Verify(r.Context(), partition, adminID, req.Code)
	if err != nil {
		httputil.DomainError(w, err)
		return
	}
	if !valid {
		httputil.DomainError(w, domain.ErrInvalidMFACode)
		return
	}

	h.issueToken(w, partition.OrgID, adminID, claims.CredVersion)
}

// Logout revokes the presented token by its ID. Requires
// authentication; idempotent.
// POST /v1/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "missing authorization")
		return
	}

	if err := h.tokens.RevokeToken(r.Context(), claims.ID, claims.OrgID, claims.ExpiresAt.Time); err != nil {
		httputil.DomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) issueToken(w http.ResponseWriter, orgID string, adminID uuid.UUID, credVersion int) {
	issued, err := h.tokens.Issue(orgID, adminID, credVersion)
	if err != nil {
		h.logger.Error("failed to issue token", "org", orgID, "error", err)
		httputil.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httputil.JSON(w, http.StatusOK, TokenResponse{
		AccessToken: issued.AccessToken,
		TokenType:   issued.TokenType,
		ExpiresIn:   issued.ExpiresIn,
	})
}
