package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tenantd/tenantd/internal/config"
	httpserver "github.com/tenantd/tenantd/internal/http"
	"github.com/tenantd/tenantd/internal/notification"
	"github.com/tenantd/tenantd/pkg/auth"
	"github.com/tenantd/tenantd/pkg/registry"
	"github.com/tenantd/tenantd/pkg/repository"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Connect to database
	db, err := repository.NewDB(repository.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("connected to database")

	// Initialize repositories
	orgsRepo := repository.NewOrganizationsRepository(db, cfg.StoreTimeout)
	adminsRepo := repository.NewAdminsRepository(db, cfg.StoreTimeout)
	revocationsRepo := repository.NewRevocationsRepository(db, cfg.StoreTimeout)
	recordsRepo := repository.NewRecordsRepository(db, cfg.StoreTimeout)

	// Initialize services
	reg := registry.New(registry.Config{
		StoreTimeout:     cfg.StoreTimeout,
		RevocationWindow: cfg.AccessTokenTTL,
	}, db, orgsRepo, adminsRepo, revocationsRepo)
	guard := registry.NewGuard(reg)

	tokenService := auth.NewTokenService(auth.TokenConfig{
		JWTSecret:      []byte(cfg.JWTSecret),
		Issuer:         cfg.JWTIssuer,
		AccessTokenTTL: cfg.AccessTokenTTL,
	}, revocationsRepo)

	passwordPolicy := auth.NewPasswordPolicy(cfg.PasswordPolicy)
	emailValidator := auth.NewEmailValidator(cfg.Validation)
	loginService := auth.NewLoginService(auth.LoginConfig{
		AccessTokenTTL: cfg.AccessTokenTTL,
		StoreTimeout:   cfg.StoreTimeout,
	}, db, adminsRepo, revocationsRepo, passwordPolicy)

	// Initialize email service if configured
	var emailService *notification.EmailService
	if cfg.HasSMTP() {
		emailService = notification.NewEmailService(notification.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
		})
		logger.Info("email service enabled")
	}

	// Initialize MFA service if configured
	var mfaService *auth.MFAService
	if cfg.HasMFA() {
		encryptionKey, err := hex.DecodeString(cfg.MFAEncryptionKey)
		if err != nil || len(encryptionKey) != 32 {
			logger.Error("MFA_ENCRYPTION_KEY must be 64-char hex (32 bytes)")
			os.Exit(1)
		}

		mfaService = auth.NewMFAService(auth.MFAConfig{
			Issuer:        cfg.JWTIssuer,
			EncryptionKey: encryptionKey,
		}, adminsRepo)
		logger.Info("MFA service enabled")
	}

	// Prune expired revocation entries in the background.
	pruneCtx, stopPrune := context.WithCancel(context.Background())
	defer stopPrune()
	go pruneRevocations(pruneCtx, logger, revocationsRepo, cfg.AccessTokenTTL)

	// Create router
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:          logger,
		Registry:        reg,
		Guard:           guard,
		TokenService:    tokenService,
		LoginService:    loginService,
		MFAService:      mfaService,
		EmailService:    emailService,
		PasswordPolicy:  passwordPolicy,
		EmailValidator:  emailValidator,
		AdminsRepo:      adminsRepo,
		RecordsRepo:     recordsRepo,
		RateLimitConfig: cfg.RateLimit,
		SecurityHeaders: cfg.SecurityHeaders,
		Validation:      cfg.Validation,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

// pruneRevocations periodically deletes ledger entries whose tokens
// have all naturally expired.
func pruneRevocations(ctx context.Context, logger *slog.Logger, revocations *repository.RevocationsRepository, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned, err := revocations.Prune(ctx)
			if err != nil {
				logger.Error("failed to prune revocations", "error", err)
				continue
			}
			if pruned > 0 {
				logger.Info("pruned revocation entries", "count", pruned)
			}
		}
	}
}
