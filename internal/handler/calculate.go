package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/abacus-app/abacus/internal/calc"
)

// Calculator runs compute requests.
type Calculator interface {
	Calculate(ctx context.Context, req calc.Request) (*calc.Response, error)
}

// CalculateHandler serves the compute endpoint.
type CalculateHandler struct {
	svc    Calculator
	logger *slog.Logger
}

// NewCalculateHandler creates a new CalculateHandler.
func NewCalculateHandler(svc Calculator, logger *slog.Logger) *CalculateHandler {
	return &CalculateHandler{svc: svc, logger: logger}
}

// Calculate handles POST /api/v1/calculate.
func (h *CalculateHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req calc.Request
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.svc.Calculate(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
