// Package handler provides HTTP request handlers.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/abacus-app/abacus/internal/calc"
	"github.com/abacus-app/abacus/internal/handler/dto"
	"github.com/abacus-app/abacus/internal/model"
	"github.com/abacus-app/abacus/internal/repository"
)

// Handler serves the fallback routes.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes the error envelope.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: dto.ErrorDetail{Code: code, Message: message}})
}

// decodeJSON decodes the request body into dst. It writes the error
// response itself and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	return true
}

// authStatus maps auth error codes to HTTP statuses.
var authStatus = map[string]int{
	model.AuthCodeEmailInUse:        http.StatusConflict,
	model.AuthCodeWeakPassword:      http.StatusBadRequest,
	model.AuthCodeInvalidEmail:      http.StatusBadRequest,
	model.AuthCodeInvalidCredential: http.StatusUnauthorized,
	model.AuthCodeUnauthenticated:   http.StatusUnauthorized,
	model.AuthCodeFederatedFailed:   http.StatusUnauthorized,
	model.AuthCodeFederatedDisabled: http.StatusNotImplemented,
}

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		calcErr *calc.Error
		authErr *model.AuthError
	)

	switch {
	case errors.As(err, &calcErr):
		writeError(w, http.StatusBadRequest, calcErr.Code, calcErr.Message)
	case errors.As(err, &authErr):
		status, ok := authStatus[authErr.Code]
		if !ok {
			status = http.StatusUnauthorized
		}
		writeError(w, status, authErr.Code, authErr.Message)
	case errors.Is(err, repository.ErrProfileNotFound):
		writeError(w, http.StatusNotFound, "PROFILE_NOT_FOUND", "Profile not found")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "TIMEOUT", "The request timed out")
	case errors.Is(err, context.Canceled):
		// The client is gone; nothing useful can be written.
		logger.Debug("request cancelled")
	default:
		logger.Error("internal_error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
