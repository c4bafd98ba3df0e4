package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/tenantd/tenantd/internal/config"
	"github.com/tenantd/tenantd/pkg/domain"
)

func TestEmailValidator_Validate(t *testing.T) {
	strict := NewEmailValidator(config.ValidationConfig{StrictEmailValidation: true})

	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "valid simple", email: "admin@example.com", wantErr: false},
		{name: "valid with plus", email: "admin+tag@example.com", wantErr: false},
		{name: "valid subdomain", email: "admin@mail.example.com", wantErr: false},
		{name: "uppercase normalized", email: "Admin@Example.COM", wantErr: false},
		{name: "empty", email: "", wantErr: true},
		{name: "missing at", email: "adminexample.com", wantErr: true},
		{name: "missing domain", email: "admin@", wantErr: true},
		{name: "missing local part", email: "@example.com", wantErr: true},
		{name: "spaces", email: "admin @example.com", wantErr: true},
		{name: "too long", email: strings.Repeat("a", 250) + "@example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := strict.Validate(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrValidation) {
				t.Errorf("validation failures should carry ErrValidation, got %v", err)
			}
		})
	}
}

func TestEmailValidator_BlockDisposable(t *testing.T) {
	blocking := NewEmailValidator(config.ValidationConfig{
		StrictEmailValidation: true,
		BlockDisposableEmail:  true,
	})
	permissive := NewEmailValidator(config.ValidationConfig{
		StrictEmailValidation: true,
	})

	disposable := "someone@mailinator.com"

	if err := blocking.Validate(disposable); err == nil {
		t.Error("blocking validator should reject disposable domains")
	}
	if err := permissive.Validate(disposable); err != nil {
		t.Errorf("permissive validator should accept disposable domains, got %v", err)
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "Admin@Example.COM", want: "admin@example.com"},
		{input: "  admin@example.com  ", want: "admin@example.com"},
		{input: "admin@example.com", want: "admin@example.com"},
	}

	for _, tt := range tests {
		if got := NormalizeEmail(tt.input); got != tt.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
