package auth

import (
	"errors"
	"testing"

	"github.com/tenantd/tenantd/pkg/domain"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "Acme Corp", want: "Acme Corp"},
		{name: "trimmed", input: "  Acme Corp  ", want: "Acme Corp"},
		{name: "html escaped", input: "<script>alert(1)</script>", want: "&lt;script&gt;alert(1)&lt;/script&gt;"},
		{name: "control chars removed", input: "Acme\x00Corp", want: "AcmeCorp"},
		{name: "unicode preserved", input: "Société Générale", want: "Société Générale"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeName(tt.input); got != tt.want {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "Acme Corp", want: "Acme Corp"},
		{name: "trimmed", input: "  Acme Corp  ", want: "Acme Corp"},
		{name: "ampersand preserved", input: "Acme & Co", want: "Acme & Co"},
		{name: "angle brackets preserved", input: "<Acme> Co", want: "<Acme> Co"},
		{name: "control chars removed", input: "Acme\x00Corp", want: "AcmeCorp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanName(tt.input); got != tt.want {
				t.Errorf("CleanName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateStringLength(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		min     int
		max     int
		wantErr bool
	}{
		{name: "within bounds", value: "hello", min: 1, max: 10, wantErr: false},
		{name: "too short", value: "hi", min: 3, max: 10, wantErr: true},
		{name: "too long", value: "hello world", min: 1, max: 5, wantErr: true},
		{name: "no bounds", value: "anything", min: 0, max: 0, wantErr: false},
		{name: "exact min", value: "abc", min: 3, max: 10, wantErr: false},
		{name: "exact max", value: "abcde", min: 1, max: 5, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStringLength("field", tt.value, tt.min, tt.max)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStringLength(%q, %d, %d) error = %v, wantErr %v", tt.value, tt.min, tt.max, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrValidation) {
				t.Errorf("length failures should carry ErrValidation, got %v", err)
			}
		})
	}
}
