package auth

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/tenantd/tenantd/internal/config"
	"github.com/tenantd/tenantd/pkg/domain"
)

// Disposable email domains to block (can be extended)
var disposableDomains = map[string]bool{
	"tempmail.com":      true,
	"10minutemail.com":  true,
	"guerrillamail.com": true,
	"mailinator.com":    true,
	"throwaway.email":   true,
}

// Email validation regex (stricter than RFC 5322 for practical use)
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

const maxEmailLength = 254 // RFC 5321

// EmailValidator validates admin email addresses per the configured
// validation settings.
type EmailValidator struct {
	strict          bool
	blockDisposable bool
}

// NewEmailValidator creates an EmailValidator from config.
func NewEmailValidator(cfg config.ValidationConfig) *EmailValidator {
	return &EmailValidator{
		strict:          cfg.StrictEmailValidation,
		blockDisposable: cfg.BlockDisposableEmail,
	}
}

// Validate checks an email address for format and length. Failures
// carry domain.ErrValidation.
func (v *EmailValidator) Validate(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email address is required", domain.ErrValidation)
	}

	if len(email) > maxEmailLength {
		return fmt.Errorf("%w: email address is too long (max %d characters)", domain.ErrValidation, maxEmailLength)
	}

	normalized := NormalizeEmail(email)

	// mail.ParseAddress for basic RFC 5322 compliance
	addr, err := mail.ParseAddress(normalized)
	if err != nil {
		return fmt.Errorf("%w: invalid email address format", domain.ErrValidation)
	}

	if v.strict && !emailRegex.MatchString(addr.Address) {
		return fmt.Errorf("%w: invalid email address format", domain.ErrValidation)
	}

	if v.blockDisposable {
		if disposableDomains[strings.ToLower(emailDomain(addr.Address))] {
			return fmt.Errorf("%w: disposable email addresses are not allowed", domain.ErrValidation)
		}
	}

	return nil
}

// NormalizeEmail normalizes an email address by lowercasing and trimming.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailDomain(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}
