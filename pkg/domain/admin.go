package domain

import (
	"time"

	"github.com/google/uuid"
)

// AdminCredential is the admin account stored inside an organization's
// partition. CredVersion increments on every password change; tokens
// minted against an older version are rejected once that version is
// revoked.
type AdminCredential struct {
	ID                  uuid.UUID
	Email               string
	PasswordHash        string
	Active              bool
	CredVersion         int
	MFAEnabled          bool
	FailedLoginAttempts int
	LockedUntil         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsLocked returns true if the account is currently locked.
func (a *AdminCredential) IsLocked() bool {
	if a.LockedUntil == nil {
		return false
	}
	return time.Now().Before(*a.LockedUntil)
}

// AdminMFASecret stores an admin's encrypted TOTP secret inside the
// organization's partition.
type AdminMFASecret struct {
	ID              uuid.UUID
	AdminID         uuid.UUID
	SecretEncrypted string
	CreatedAt       time.Time
	LastUsedAt      *time.Time
}

// MFASetup is returned from TOTP enrollment. The plaintext secret and
// QR code are shown once and never stored.
type MFASetup struct {
	Secret        string `json:"secret"`
	QRCodeDataURI string `json:"qr_code_data_uri"`
}
