package auth

import (
	"fmt"
	"html"
	"strings"
	"unicode"

	"github.com/tenantd/tenantd/pkg/domain"
)

// SanitizeName sanitizes a free-text name field (record titles).
// Unicode-friendly.
func SanitizeName(name string) string {
	return html.EscapeString(CleanName(name))
}

// CleanName trims and strips control characters without rewriting any
// remaining text. Organization names go through this one: the entity
// text SanitizeName produces for "&" or "<" would otherwise leak into
// the derived partition identifier.
func CleanName(name string) string {
	return removeControlChars(strings.TrimSpace(name))
}

// ValidateStringLength validates that a field is within the given
// length bounds. Failures carry domain.ErrValidation.
func ValidateStringLength(field, value string, min, max int) error {
	length := len(value)

	if min > 0 && length < min {
		return fmt.Errorf("%w: %s must be at least %d characters long", domain.ErrValidation, field, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%w: %s must be at most %d characters long", domain.ErrValidation, field, max)
	}

	return nil
}

// removeControlChars removes control characters except newline,
// carriage return, and tab.
func removeControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
