package org

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tenantd/tenantd/internal/httputil"
	"github.com/tenantd/tenantd/internal/notification"
	"github.com/tenantd/tenantd/pkg/auth"
	"github.com/tenantd/tenantd/pkg/domain"
	"github.com/tenantd/tenantd/pkg/registry"
)

const (
	minOrgNameLength = 3
	maxOrgNameLength = 200
)

// Handler handles organization lifecycle endpoints.
type Handler struct {
	logger         *slog.Logger
	registry       *registry.Registry
	policy         *auth.PasswordPolicy
	emailValidator *auth.EmailValidator
	emails         *notification.EmailService
}

// NewHandler creates a new organization handler.
func NewHandler(logger *slog.Logger, reg *registry.Registry, policy *auth.PasswordPolicy, emailValidator *auth.EmailValidator, emails *notification.EmailService) *Handler {
	return &Handler{
		logger:         logger,
		registry:       reg,
		policy:         policy,
		emailValidator: emailValidator,
		emails:         emails,
	}
}

// RegisterRequest represents an organization provisioning request.
type RegisterRequest struct {
	Name          string `json:"name"`
	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`
}

// OrgResponse represents an organization in API responses.
type OrgResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	CreatedAt time.Time  `json:"created_at"`
	Active    bool       `json:"active"`
	LockedAt  *time.Time `json:"locked_at,omitempty"`
}

func orgResponse(org *domain.Organization) OrgResponse {
	return OrgResponse{
		ID:        org.ID.String(),
		Name:      org.Name,
		Slug:      org.Slug,
		CreatedAt: org.CreatedAt,
		Active:    org.IsActive(),
		LockedAt:  org.DeactivatedAt,
	}
}

// Register provisions a new organization with its seeded admin.
// POST /v1/orgs
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := auth.CleanName(req.Name)
	if err := auth.ValidateStringLength("name", name, minOrgNameLength, maxOrgNameLength); err != nil {
		httputil.DomainError(w, err)
		return
	}
	if err := h.emailValidator.Validate(req.AdminEmail); err != nil {
		httputil.DomainError(w, err)
		return
	}
	if err := h.policy.Validate(req.AdminPassword); err != nil {
		httputil.DomainError(w, err)
		return
	}

	hash, err := auth.HashPassword(req.AdminPassword)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	now := time.Now()
	admin := &domain.AdminCredential{
		ID:           uuid.New(),
		Email:        auth.NormalizeEmail(req.AdminEmail),
		PasswordHash: hash,
		Active:       true,
		CredVersion:  1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	org, err := h.registry.Register(r.Context(), name, admin)
	if err != nil {
		httputil.DomainError(w, err)
		return
	}

	h.logger.Info("organization provisioned", "slug", org.Slug)

	if h.emails != nil {
		go func() {
			if err := h.emails.SendWelcomeEmail(admin.Email, org.Name, org.Slug); err != nil {
				h.logger.Error("failed to send welcome email", "slug", org.Slug, "error", err)
			}
		}()
	}

	httputil.JSON(w, http.StatusCreated, orgResponse(org))
}

// Get returns the registry record for the caller's organization.
// GET /v1/orgs/{org}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	org, err := h.registry.Get(r.Context(), chi.URLParam(r, "org"))
	if err != nil {
		httputil.DomainError(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, orgResponse(org))
}

// Deactivate locks the caller's organization and revokes every
// outstanding credential version.
// DELETE /v1/orgs/{org}
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "org")

	if err := h.registry.Deactivate(r.Context(), slug); err != nil {
		httputil.DomainError(w, err)
		return
	}

	h.logger.Info("organization deactivated", "slug", slug)
	w.WriteHeader(http.StatusNoContent)
}
