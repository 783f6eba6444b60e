package linkauth

import (
	"errors"
	"fmt"
)

// Resolution failures surfaced to callers. The first three are user-input
// class: the caller prompts again. ErrDuplicateIdentity and ErrNotFound are
// store-consistency class: the caller re-resolves. ErrStoreUnavailable is
// infrastructure class and retryable; it is never reported as one of the
// others.
var (
	ErrEmailTaken        = errors.New("email already taken")
	ErrNoSuchUser        = errors.New("no user found")
	ErrBadPassword       = errors.New("wrong password")
	ErrDuplicateIdentity = errors.New("identity already claimed")
	ErrNotFound          = errors.New("not found")
	ErrStoreUnavailable  = errors.New("store unavailable")

	ErrUnknownProvider = errors.New("unknown provider")
	ErrLastIdentity    = errors.New("cannot remove the last identity method")
)

// Error codes attached to AuthError responses by the HTTP layer.
const (
	ErrCodeEmailTaken   = "email_taken"
	ErrCodeNoSuchUser   = "no_such_user"
	ErrCodeBadPassword  = "bad_password"
	ErrCodeInvalidEmail = "invalid_email"
	ErrCodeWeakPassword = "weak_password"
	ErrCodeMissingField = "missing_field"
	ErrCodeStoreFailure = "store_failure"
)

// AuthError is the caller-facing failure shape used by the HTTP handlers.
// The exact message strings are a UI concern; clients should branch on Code.
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *AuthError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAuthError creates an AuthError with the given code, message and field.
func NewAuthError(code, message, field string) *AuthError {
	return &AuthError{Code: code, Message: message, Field: field}
}

// authErrorFor maps a resolution failure to its caller-facing shape.
func authErrorFor(err error) *AuthError {
	switch {
	case errors.Is(err, ErrEmailTaken):
		return NewAuthError(ErrCodeEmailTaken, "That email is already taken.", "email")
	case errors.Is(err, ErrNoSuchUser):
		return NewAuthError(ErrCodeNoSuchUser, "No user found.", "email")
	case errors.Is(err, ErrBadPassword):
		return NewAuthError(ErrCodeBadPassword, "Oops! Wrong password.", "password")
	default:
		return NewAuthError(ErrCodeStoreFailure, "Authentication is temporarily unavailable.", "")
	}
}
