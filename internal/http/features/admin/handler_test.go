package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/tenantd/tenantd/internal/http/middleware"
	"github.com/tenantd/tenantd/pkg/domain"
)

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	tc := &domain.TenantContext{OrgID: "acmecorp", AdminID: uuid.New(), CredVersion: 1}
	partition := &domain.Partition{OrgID: "acmecorp", Schema: "org_acmecorp"}
	ctx := context.WithValue(req.Context(), middleware.TenantContextKey, tc)
	ctx = context.WithValue(ctx, middleware.PartitionKey, partition)
	return req.WithContext(ctx)
}

func TestChangePassword_Validation(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "empty body",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "current_password and new_password are required",
		},
		{
			name:           "missing new password",
			body:           `{"current_password": "oldpassword"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "current_password and new_password are required",
		},
		{
			name:           "invalid json",
			body:           `{invalid}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid request body",
		},
	}

	handler := &Handler{}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := authedRequest(http.MethodPost, "/v1/orgs/acmecorp/admin/password", tt.body)
			rec := httptest.NewRecorder()

			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Validation should have failed before reaching the service")
				}
			}()

			handler.ChangePassword(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Errorf("Status code = %d, want %d", rec.Code, tt.expectedStatus)
			}

			var response map[string]string
			json.NewDecoder(rec.Body).Decode(&response)
			if response["error"] != tt.expectedError {
				t.Errorf("Error = %q, want %q", response["error"], tt.expectedError)
			}
		})
	}
}

func TestChangePassword_NoPartition(t *testing.T) {
	handler := &Handler{}

	req := httptest.NewRequest(http.MethodPost, "/v1/orgs/acmecorp/admin/password", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()

	handler.ChangePassword(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestDeactivate_NoPartition(t *testing.T) {
	handler := &Handler{}

	req := httptest.NewRequest(http.MethodDelete, "/v1/orgs/acmecorp/admin", nil)
	rec := httptest.NewRecorder()

	handler.Deactivate(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestSetupMFA_NotConfigured(t *testing.T) {
	handler := &Handler{}

	req := authedRequest(http.MethodPost, "/v1/orgs/acmecorp/admin/mfa/setup", "")
	rec := httptest.NewRecorder()

	handler.SetupMFA(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestEnableMFA_NotConfigured(t *testing.T) {
	handler := &Handler{}

	req := authedRequest(http.MethodPost, "/v1/orgs/acmecorp/admin/mfa/enable", `{"code": "123456"}`)
	rec := httptest.NewRecorder()

	handler.EnableMFA(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
