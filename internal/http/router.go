package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tenantd/tenantd/internal/config"
	"github.com/tenantd/tenantd/internal/http/features/admin"
	"github.com/tenantd/tenantd/internal/http/features/org"
	"github.com/tenantd/tenantd/internal/http/features/records"
	"github.com/tenantd/tenantd/internal/http/features/session"
	"github.com/tenantd/tenantd/internal/http/middleware"
	"github.com/tenantd/tenantd/internal/httputil"
	"github.com/tenantd/tenantd/internal/notification"
	"github.com/tenantd/tenantd/pkg/auth"
	"github.com/tenantd/tenantd/pkg/registry"
	"github.com/tenantd/tenantd/pkg/repository"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger          *slog.Logger
	Registry        *registry.Registry
	Guard           *registry.Guard
	TokenService    *auth.TokenService
	LoginService    *auth.LoginService
	MFAService      *auth.MFAService
	EmailService    *notification.EmailService
	PasswordPolicy  *auth.PasswordPolicy
	EmailValidator  *auth.EmailValidator
	AdminsRepo      *repository.AdminsRepository
	RecordsRepo     *repository.RecordsRepository
	RateLimitConfig config.RateLimitConfig
	SecurityHeaders config.SecurityHeadersConfig
	Validation      config.ValidationConfig
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.Validation.MaxRequestBodySize))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	rateLimiters := middleware.CreateRateLimiters(cfg.RateLimitConfig, cfg.Logger)
	authn := middleware.Auth(cfg.TokenService)
	guard := middleware.TenantGuard(cfg.Guard)

	// Provisioning and login share the strict rate class.
	orgHandler := org.NewHandler(cfg.Logger, cfg.Registry, cfg.PasswordPolicy, cfg.EmailValidator, cfg.EmailService)
	sessionHandler := session.NewHandler(cfg.Logger, cfg.Registry, cfg.LoginService, cfg.TokenService, cfg.MFAService)
	r.Group(func(r chi.Router) {
		r.Use(rateLimiters["auth"])
		r.Post("/v1/orgs", orgHandler.Register)
		r.Post("/v1/auth/login", sessionHandler.Login)
		r.Post("/v1/auth/mfa/verify", sessionHandler.VerifyMFA)
	})
	r.With(authn).Post("/v1/auth/logout", sessionHandler.Logout)

	// Partition-scoped routes: token first, then the guard matches the
	// token's organization against the path.
	adminHandler := admin.NewHandler(cfg.Logger, cfg.LoginService, cfg.MFAService, cfg.AdminsRepo, cfg.EmailService)
	recordsHandler := records.NewHandler(cfg.Logger, cfg.RecordsRepo)
	r.Route("/v1/orgs/{org}", func(r chi.Router) {
		r.Use(authn)
		r.Use(guard)

		r.Group(func(r chi.Router) {
			r.Use(rateLimiters["read"])
			r.Get("/", orgHandler.Get)
			r.Get("/records", recordsHandler.List)
			r.Get("/records/{id}", recordsHandler.Get)
		})

		r.Group(func(r chi.Router) {
			r.Use(rateLimiters["mutate"])
			r.Delete("/", orgHandler.Deactivate)
			r.Post("/admin/password", adminHandler.ChangePassword)
			r.Delete("/admin", adminHandler.Deactivate)
			r.Post("/admin/mfa/setup", adminHandler.SetupMFA)
			r.Post("/admin/mfa/enable", adminHandler.EnableMFA)
			r.Post("/records", recordsHandler.Create)
		})
	})

	return r
}
