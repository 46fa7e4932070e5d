package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/abacus-app/abacus/internal/calc"
	"github.com/abacus-app/abacus/internal/handler/dto"
	"github.com/abacus-app/abacus/internal/history"
	"github.com/abacus-app/abacus/internal/model"
	"github.com/abacus-app/abacus/internal/session"
)

// Calculate calls the remote compute endpoint. Rejections are *calc.Error.
func (c *Client) Calculate(ctx context.Context, req calc.Request) (*calc.Response, error) {
	var resp calc.Response
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/calculate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AppendHistory stores a record for the signed-in user.
func (c *Client) AppendHistory(ctx context.Context, entry history.Entry) (*model.CalculationRecord, error) {
	var rec model.CalculationRecord
	_, err := c.do(ctx, http.MethodPost, "/api/v1/history", dto.HistoryRequest{
		Operand1:  &entry.Operand1,
		Operand2:  &entry.Operand2,
		Operation: entry.Operation,
		Currency:  entry.Currency,
		Result:    entry.Result,
	}, &rec)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListHistory returns the records of the signed-in user, newest first.
func (c *Client) ListHistory(ctx context.Context) ([]*model.CalculationRecord, error) {
	var resp dto.HistoryListResponse
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/history", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// DeleteHistory removes one record. A missing id is not an error.
func (c *Client) DeleteHistory(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/v1/history/"+url.PathEscape(id), nil, nil)
	return err
}

// CalculateAndRecord computes req and, when state is signed in, appends the
// result to the history. A failed append still returns the result.
func (c *Client) CalculateAndRecord(ctx context.Context, state session.State, req calc.Request) (*calc.Response, *model.CalculationRecord, error) {
	resp, err := c.Calculate(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	if !state.IsSignedIn() {
		return resp, nil, nil
	}

	entry := history.Entry{
		Operation: req.Operation,
		Currency:  req.Currency,
		Result:    resp.Result,
	}
	if req.Operand1 != nil {
		entry.Operand1 = *req.Operand1
	}
	if req.Operand2 != nil {
		entry.Operand2 = *req.Operand2
	}

	rec, err := c.AppendHistory(ctx, entry)
	if err != nil {
		return resp, nil, fmt.Errorf("record history: %w", err)
	}
	return resp, rec, nil
}
