package model

import "fmt"

// Auth error codes. They are stable strings that clients can branch on.
const (
	AuthCodeEmailInUse        = "auth/email-already-in-use"
	AuthCodeWeakPassword      = "auth/weak-password"
	AuthCodeInvalidEmail      = "auth/invalid-email"
	AuthCodeInvalidCredential = "auth/invalid-credential"
	AuthCodeFederatedFailed   = "auth/federated-failed"
	AuthCodeFederatedDisabled = "auth/federated-disabled"
	AuthCodeUnauthenticated   = "auth/unauthenticated"
)

// MinPasswordLength is the shortest password accepted at sign-up.
const MinPasswordLength = 6

// AuthError is returned when a credential operation is rejected.
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// NewAuthError creates an AuthError with the given code and message.
func NewAuthError(code, message string) *AuthError {
	return &AuthError{Code: code, Message: message}
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Unwrap returns the underlying cause, if any.
func (e *AuthError) Unwrap() error {
	return e.Err
}
