// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/abacus-app/abacus/internal/model"
)

// ErrorResponse is the error envelope of every failed request.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SignUpRequest represents the request body for a credential sign-up.
type SignUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// LoginRequest represents the request body for a credential sign-in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned when a session is issued.
type SessionResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Identity  *model.Principal `json:"identity"`
}

// StateResponse reports the identity behind the request; Identity is null
// when signed out.
type StateResponse struct {
	Identity *model.Principal `json:"identity"`
}

// FederatedStartResponse is the first leg of a polled consent flow.
type FederatedStartResponse struct {
	URL       string    `json:"url"`
	State     string    `json:"state"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PendingResponse is returned while a consent flow is outstanding.
type PendingResponse struct {
	Status string `json:"status"`
}

// ProfileRequest represents the request body for writing a profile.
type ProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// HistoryRequest represents a record to append.
type HistoryRequest struct {
	Operand1  *float64        `json:"operand1"`
	Operand2  *float64        `json:"operand2"`
	Operation model.Operation `json:"operation"`
	Currency  model.Currency  `json:"currency"`
	Result    string          `json:"result"`
}

// HistoryListResponse lists the records of the signed-in user, newest first.
type HistoryListResponse struct {
	Data []*model.CalculationRecord `json:"data"`
}

// ViewResponse describes a routed view and the identity it renders for.
type ViewResponse struct {
	View          string           `json:"view"`
	Path          string           `json:"path"`
	Identity      *model.Principal `json:"identity,omitempty"`
	AvatarInitial string           `json:"avatar_initial,omitempty"`
}
