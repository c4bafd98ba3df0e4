package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tenantd/tenantd/internal/http/middleware"
	"github.com/tenantd/tenantd/internal/httputil"
	"github.com/tenantd/tenantd/internal/notification"
	"github.com/tenantd/tenantd/pkg/auth"
	"github.com/tenantd/tenantd/pkg/repository"
)

// Handler handles authenticated admin credential management.
type Handler struct {
	logger *slog.Logger
	login  *auth.LoginService
	mfa    *auth.MFAService
	admins *repository.AdminsRepository
	emails *notification.EmailService
}

// NewHandler creates a new admin handler.
func NewHandler(logger *slog.Logger, login *auth.LoginService, mfa *auth.MFAService, admins *repository.AdminsRepository, emails *notification.EmailService) *Handler {
	return &Handler{
		logger: logger,
		login:  login,
		mfa:    mfa,
		admins: admins,
		emails: emails,
	}
}

// ChangePasswordRequest represents a password change request.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePasswordResponse reports the credential version after a change.
type ChangePasswordResponse struct {
	CredVersion int `json:"cred_version"`
}

// MFAEnableRequest represents an MFA enable request.
type MFAEnableRequest struct {
	Code string `json:"code"`
}

// ChangePassword rotates the admin password. Every token minted under
// the previous password stops working.
// POST /v1/orgs/{org}/admin/password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	partition, ok := middleware.GetPartition(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "missing authorization")
		return
	}
	tc, ok := middleware.GetTenantContext(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "missing authorization")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		httputil.Error(w, http.StatusBadRequest, "current_password and new_password are required")
		return
	}

	newVersion, err := h.login.ChangePassword(r.Context(), partition, tc.AdminID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		httputil.DomainError(w, err)
		return
	}

	h.logger.Info("admin password changed", "org", partition.OrgID)

	if h.emails != nil {
		if admin, err := h.admins.GetByID(r.Context(), partition, tc.AdminID); err == nil {
			go func() {
				if err := h.emails.SendPasswordChangedEmail(admin.Email); err != nil {
					h.logger.Error("failed to send password change notice", "org", partition.OrgID, "error", err)
				}
			}()
		}
	}

	httputil.JSON(w, http.StatusOK, ChangePasswordResponse{CredVersion: newVersion})
}

// Deactivate turns off the authenticated admin's credential and revokes
// its current version, invalidating every outstanding token. The
// organization itself stays active.
// DELETE /v1/orgs/{org}/admin
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	partition, ok := middleware.GetPartition(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "missing authorization")
		return
	}
	tc, ok := middleware.GetTenantContext(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "missing authorization")
		return
	}

	if err := h.login.DeactivateAdmin(r.Context(), partition, tc.AdminID); err != nil {
		httputil.DomainError(w, err)
		return
	}

	h.logger.Info("admin deactivated", "org", partition.OrgID)
	w.WriteHeader(http.StatusNoContent)
}

// SetupMFA starts TOTP enrollment for the authenticated admin.
// POST /v1/orgs/{org}/admin/mfa/setup
func (h *Handler) SetupMFA(w http.ResponseWriter, r *http.Request) {
	if h.mfa == nil {
		httputil.Error(w, http.StatusNotFound, "mfa is not configured")
		return
	}

	partition, ok := middleware.GetPartition(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "missing authorization")
		return
	}
	tc, ok := middleware.GetTenantContext(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "missing authorization")
		return
	}

	setup, err := h.mfa.Setup(r.Context(), partition, tc.AdminID)
	if err != nil {
		httputil.DomainError(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, setup)
}

// EnableMFA confirms TOTP enrollment with a valid code and turns
// enforcement on.
// POST /v1/orgs/{org}/admin/mfa/enable
func (h *Handler) EnableMFA(w http.ResponseWriter, r *http.Request) {
	if h.mfa == nil {
		httputil.Error(w, http.StatusNotFound, "mfa is not configured")
		return
	}

	partition, ok := middleware.GetPartition(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "missing authorization")
		return
	}
	tc, ok := middleware.GetTenantContext(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "missing authorization")
		return
	}

	var req MFAEnableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		httputil.Error(w, http.StatusBadRequest, "code is required")
		return
	}

	if err := h.mfa.Enable(r.Context(), partition, tc.AdminID, req.Code); err != nil {
		httputil.DomainError(w, err)
		return
	}

	h.logger.Info("admin mfa enabled", "org", partition.OrgID)
	w.WriteHeader(http.StatusNoContent)
}
