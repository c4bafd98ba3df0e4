package auth

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/tenantd/tenantd/pkg/domain"
	"github.com/tenantd/tenantd/pkg/repository"
)

// TOTP parameters
const (
	totpPeriod = 30
	totpWindow = 1 // Allow ±30 seconds clock drift
)

// MFAConfig contains configuration for the MFA service.
type MFAConfig struct {
	Issuer        string // shown in authenticator apps
	EncryptionKey []byte // 32 bytes for AES-256
}

// MFAService handles TOTP enrollment and verification for partition
// admins. Secrets are stored AES-256-GCM encrypted inside the
// organization's partition.
type MFAService struct {
	config MFAConfig
	admins *repository.AdminsRepository
}

// NewMFAService creates a new MFA service.
func NewMFAService(config MFAConfig, admins *repository.AdminsRepository) *MFAService {
	return &MFAService{
		config: config,
		admins: admins,
	}
}

// Setup generates a TOTP secret for an admin and stores it encrypted.
// MFA is not enforced until Enable confirms the admin can produce a
// valid code. Re-running Setup replaces any unconfirmed enrollment.
func (s *MFAService) Setup(ctx context.Context, p *domain.Partition, adminID uuid.UUID) (*domain.MFASetup, error) {
	admin, err := s.admins.GetByID(ctx, p, adminID)
	if err != nil {
		return nil, err
	}
	if admin.MFAEnabled {
		return nil, fmt.Errorf("%w: mfa is already enabled", domain.ErrConflict)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.config.Issuer,
		AccountName: admin.Email,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	var qrBuf bytes.Buffer
	img, err := key.Image(200, 200)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code image: %w", err)
	}
	if err := png.Encode(&qrBuf, img); err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	qrDataURI := fmt.Sprintf("data:image/png;base64,%s", base64.StdEncoding.EncodeToString(qrBuf.Bytes()))

	encryptedSecret, err := s.encryptSecret(key.Secret())
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt TOTP secret: %w", err)
	}

	secret := &domain.AdminMFASecret{
		ID:              uuid.New(),
		AdminID:         adminID,
		SecretEncrypted: encryptedSecret,
		CreatedAt:       time.Now(),
	}
	if err := s.admins.UpsertMFASecret(ctx, p, secret); err != nil {
		return nil, err
	}

	return &domain.MFASetup{
		Secret:        key.Secret(),
		QRCodeDataURI: qrDataURI,
	}, nil
}

// Enable verifies a TOTP code against the enrolled secret and turns MFA
// enforcement on for the admin.
func (s *MFAService) Enable(ctx context.Context, p *domain.Partition, adminID uuid.UUID, code string) error {
	valid, err := s.Verify(ctx, p, adminID, code)
	if err != nil {
		return err
	}
	if !valid {
		return domain.ErrInvalidMFACode
	}
	return s.admins.SetMFAEnabled(ctx, p, adminID, true)
}

// Verify checks a TOTP code against the admin's enrolled secret.
func (s *MFAService) Verify(ctx context.Context, p *domain.Partition, adminID uuid.UUID, code string) (bool, error) {
	secret, err := s.admins.GetMFASecret(ctx, p, adminID)
	if err != nil {
		return false, err
	}

	decrypted, err := s.decryptSecret(secret.SecretEncrypted)
	if err != nil {
		return false, fmt.Errorf("failed to decrypt TOTP secret: %w", err)
	}

	valid, err := totp.ValidateCustom(code, decrypted, time.Now(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpWindow,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false, fmt.Errorf("failed to validate TOTP code: %w", err)
	}

	if valid {
		if err := s.admins.TouchMFASecret(ctx, p, adminID); err != nil {
			return false, err
		}
	}

	return valid, nil
}

// encryptSecret encrypts a plaintext secret using AES-256-GCM.
func (s *MFAService) encryptSecret(plaintext string) (string, error) {
	block, err := aes.NewCipher(s.config.EncryptionKey)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decryptSecret decrypts an encrypted secret using AES-256-GCM.
func (s *MFAService) decryptSecret(encrypted string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	block, err := aes.NewCipher(s.config.EncryptionKey)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	if len(ciphertext) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}

	return string(plaintext), nil
}
