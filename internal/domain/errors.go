// Package domain provides shared domain-level sentinel errors.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound indicates the requested entity does not exist or is not
// visible to the caller's tenant. The two cases are indistinguishable.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates the operation lost a race or hit a uniqueness rule.
var ErrConflict = errors.New("conflict")

// ErrValidation indicates malformed or semantically invalid input.
var ErrValidation = errors.New("validation failed")

// ErrUnauthenticated indicates a missing or malformed credential header.
var ErrUnauthenticated = errors.New("authentication required")

// ErrInvalidToken indicates a token that failed signature or expiry checks.
var ErrInvalidToken = errors.New("invalid or expired token")

// ErrTenantSuspended indicates the caller's tenant is blocked or gone.
var ErrTenantSuspended = errors.New("tenant suspended")

// ErrForbidden indicates the caller lacks the privilege for the operation.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidCredentials indicates a failed username/password check.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Error carries a message that is safe to show to API clients alongside
// one of the sentinel errors above.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// Invalid returns an ErrValidation with a client-facing message.
func Invalid(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

// Conflict returns an ErrConflict with a client-facing message.
func Conflict(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Msg: fmt.Sprintf(format, args...)}
}

// PublicMessage returns the client-facing message carried by err, if any.
func PublicMessage(err error) (string, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Msg, true
	}
	return "", false
}

// ValidateDate checks that s is empty or a calendar date in YYYY-MM-DD form.
func ValidateDate(field, s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return Invalid("%s must be a date in YYYY-MM-DD format", field)
	}
	return nil
}
