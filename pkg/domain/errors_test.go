package domain

import (
	"errors"
	"testing"
)

func TestAuthErrors_CollapseToErrAuthentication(t *testing.T) {
	authFailures := []error{
		ErrInvalidCredentials,
		ErrInvalidToken,
		ErrTokenRevoked,
		ErrAccountLocked,
		ErrAccountInactive,
		ErrMFARequired,
		ErrInvalidMFACode,
	}

	for _, err := range authFailures {
		if !errors.Is(err, ErrAuthentication) {
			t.Errorf("%v should match ErrAuthentication", err)
		}
	}
}

func TestAuthErrors_DoNotMatchOtherCategories(t *testing.T) {
	if errors.Is(ErrInvalidToken, ErrForbidden) {
		t.Error("ErrInvalidToken should not match ErrForbidden")
	}
	if errors.Is(ErrConflict, ErrAuthentication) {
		t.Error("ErrConflict should not match ErrAuthentication")
	}
	if errors.Is(ErrNotFound, ErrAuthentication) {
		t.Error("ErrNotFound should not match ErrAuthentication")
	}
}

func TestPartitionErrors_AreNotFound(t *testing.T) {
	if !errors.Is(ErrAdminNotFound, ErrNotFound) {
		t.Error("ErrAdminNotFound should match ErrNotFound")
	}
	if !errors.Is(ErrRecordNotFound, ErrNotFound) {
		t.Error("ErrRecordNotFound should match ErrNotFound")
	}
}
