package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abacus-app/abacus/internal/auth"
	"github.com/abacus-app/abacus/internal/handler/dto"
	"github.com/abacus-app/abacus/internal/history"
	"github.com/abacus-app/abacus/internal/model"
)

// HistoryLedger is the per-user record collection.
type HistoryLedger interface {
	Append(ctx context.Context, ownerID string, entry history.Entry) (*model.CalculationRecord, error)
	List(ctx context.Context, ownerID string) ([]*model.CalculationRecord, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// HistoryHandler serves the history of the signed-in user.
type HistoryHandler struct {
	ledger HistoryLedger
	logger *slog.Logger
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(ledger HistoryLedger, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{ledger: ledger, logger: logger}
}

// List handles GET /api/v1/history.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.ledger.List(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.HistoryListResponse{Data: records})
}

// Append handles POST /api/v1/history.
func (h *HistoryHandler) Append(w http.ResponseWriter, r *http.Request) {
	var req dto.HistoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Operand1 == nil || req.Operand2 == nil || req.Result == "" {
		writeError(w, http.StatusBadRequest, "INVALID_RECORD", "operand1, operand2 and result are required")
		return
	}
	if !req.Operation.IsValid() {
		writeError(w, http.StatusBadRequest, "INVALID_RECORD", "Invalid operation")
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = model.CurrencyUSD
	}
	if currency != model.CurrencyUSD && currency != model.CurrencyEUR {
		writeError(w, http.StatusBadRequest, "INVALID_RECORD", "Invalid currency")
		return
	}

	rec, err := h.ledger.Append(r.Context(), auth.UserIDFromContext(r.Context()), history.Entry{
		Operand1:  *req.Operand1,
		Operand2:  *req.Operand2,
		Operation: req.Operation,
		Currency:  currency,
		Result:    req.Result,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// Delete handles DELETE /api/v1/history/{id}. Deleting a missing record
// succeeds.
func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.Delete(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
