package session

import (
	"errors"

	"github.com/abacus-app/abacus/internal/model"
)

// Client-side validation messages.
const (
	MsgFieldsRequired = "All fields are required."
	MsgPasswordLength = "Password must be at least 6 characters."
)

// ValidationError is a rejection raised before any remote call.
type ValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// asAuthError keeps AuthErrors and wraps anything else as a federated failure.
func asAuthError(err error) *model.AuthError {
	var authErr *model.AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	return &model.AuthError{
		Code:    model.AuthCodeFederatedFailed,
		Message: "Federated sign-in failed.",
		Err:     err,
	}
}
