package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tenantd/tenantd/pkg/domain"
	"github.com/tenantd/tenantd/pkg/repository"
)

// Lockout parameters
const (
	maxFailedAttempts = 5
	lockoutDuration   = 15 * time.Minute
)

// LoginConfig holds login configuration.
type LoginConfig struct {
	// AccessTokenTTL bounds how long a revocation entry for a replaced
	// credential version must outlive the change.
	AccessTokenTTL time.Duration
	// StoreTimeout bounds the credential-change transactions.
	StoreTimeout time.Duration
}

// LoginService verifies admin credentials and manages password changes.
type LoginService struct {
	config      LoginConfig
	db          *sql.DB
	admins      *repository.AdminsRepository
	revocations *repository.RevocationsRepository
	policy      *PasswordPolicy
}

// NewLoginService creates a new login service.
func NewLoginService(config LoginConfig, db *sql.DB, admins *repository.AdminsRepository, revocations *repository.RevocationsRepository, policy *PasswordPolicy) *LoginService {
	if config.AccessTokenTTL == 0 {
		config.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if config.StoreTimeout == 0 {
		config.StoreTimeout = repository.DefaultStoreTimeout
	}
	return &LoginService{
		config:      config,
		db:          db,
		admins:      admins,
		revocations: revocations,
		policy:      policy,
	}
}

// Authenticate verifies an email/password pair against the partition's
// admin credentials. Unknown email and wrong password are
// indistinguishable to the caller; lockout and inactive states are
// reported only after the account is identified.
func (s *LoginService) Authenticate(ctx context.Context, p *domain.Partition, email, password string) (*domain.AdminCredential, error) {
	admin, err := s.admins.GetByEmail(ctx, p, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrAdminNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if admin.IsLocked() {
		return nil, domain.ErrAccountLocked
	}
	if !admin.Active {
		return nil, domain.ErrAccountInactive
	}

	if !VerifyPassword(password, admin.PasswordHash) {
		if err := s.admins.IncrementFailedLoginAttempts(ctx, p, admin.ID, lockoutDuration, maxFailedAttempts); err != nil {
			return nil, err
		}
		return nil, domain.ErrInvalidCredentials
	}

	if admin.FailedLoginAttempts > 0 || admin.LockedUntil != nil {
		if err := s.admins.ResetFailedLoginAttempts(ctx, p, admin.ID); err != nil {
			return nil, err
		}
	}

	return admin, nil
}

// ChangePassword replaces an admin's password. The version bump and the
// revocation of the replaced version commit together, so no token
// minted under the old password survives the change.
func (s *LoginService) ChangePassword(ctx context.Context, p *domain.Partition, adminID uuid.UUID, currentPassword, newPassword string) (int, error) {
	admin, err := s.admins.GetByID(ctx, p, adminID)
	if err != nil {
		return 0, err
	}

	if !VerifyPassword(currentPassword, admin.PasswordHash) {
		return 0, domain.ErrInvalidCredentials
	}

	if err := s.policy.Validate(newPassword); err != nil {
		return 0, err
	}

	newHash, err := HashPassword(newPassword)
	if err != nil {
		return 0, err
	}

	expiresAt := time.Now().Add(s.config.AccessTokenTTL)

	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	var newVersion int
	err = repository.Tx(ctx, s.db, func(tx *sql.Tx) error {
		newVersion, err = s.admins.UpdatePasswordTx(ctx, tx, p, adminID, newHash)
		if err != nil {
			return err
		}
		return s.revocations.RevokeTx(ctx, tx, domain.CredVersionKey(p.OrgID, admin.CredVersion), p.OrgID, expiresAt)
	})
	if err != nil {
		return 0, err
	}

	return newVersion, nil
}

// DeactivateAdmin turns off an admin credential and revokes its current
// version in the same transaction, so tokens minted for the credential
// stop working the moment the flag flips. Deactivating an already
// inactive admin is a no-op.
func (s *LoginService) DeactivateAdmin(ctx context.Context, p *domain.Partition, adminID uuid.UUID) error {
	admin, err := s.admins.GetByID(ctx, p, adminID)
	if err != nil {
		return err
	}
	if !admin.Active {
		return nil
	}

	expiresAt := time.Now().Add(s.config.AccessTokenTTL)

	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	return repository.Tx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.admins.SetActiveTx(ctx, tx, p, adminID, false); err != nil {
			return err
		}
		return s.revocations.RevokeTx(ctx, tx, domain.CredVersionKey(p.OrgID, admin.CredVersion), p.OrgID, expiresAt)
	})
}
