package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Strob0t/DealerForge/internal/domain"
)

// HTTPStatus maps a domain error to its HTTP status code. Unknown errors
// are internal errors.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrTenantSuspended):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicError returns the status and the message that may be shown to the
// client for err. Internal error text is never exposed.
func PublicError(err error) (int, string) {
	status := HTTPStatus(err)
	if msg, ok := domain.PublicMessage(err); ok {
		return status, msg
	}
	switch status {
	case http.StatusInternalServerError:
		return status, "internal server error"
	case http.StatusUnauthorized:
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return status, domain.ErrInvalidCredentials.Error()
		}
		return status, domain.ErrUnauthenticated.Error()
	case http.StatusPaymentRequired:
		return status, domain.ErrTenantSuspended.Error()
	case http.StatusForbidden:
		if errors.Is(err, domain.ErrInvalidToken) {
			return status, domain.ErrInvalidToken.Error()
		}
		return status, domain.ErrForbidden.Error()
	case http.StatusNotFound:
		return status, domain.ErrNotFound.Error()
	case http.StatusConflict:
		return status, domain.ErrConflict.Error()
	default:
		return status, domain.ErrValidation.Error()
	}
}

// WriteError writes err as a JSON error body.
func WriteError(w http.ResponseWriter, err error) {
	status, msg := PublicError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
