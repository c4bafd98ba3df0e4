package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tenantd/tenantd/pkg/domain"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// DomainError maps a domain error to its HTTP response. Authentication
// failures all read the same on the wire; store outages are reported as
// 503 so clients can retry.
func DomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrConflict):
		Error(w, http.StatusConflict, "resource already exists")
	case errors.Is(err, domain.ErrNotFound):
		Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrAuthentication):
		Error(w, http.StatusUnauthorized, "authentication failed")
	case errors.Is(err, domain.ErrForbidden):
		Error(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrUnavailable):
		Error(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		Error(w, http.StatusInternalServerError, "internal server error")
	}
}
