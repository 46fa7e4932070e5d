package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/abacus-app/abacus/internal/calc"
	"github.com/abacus-app/abacus/internal/client"
	"github.com/abacus-app/abacus/internal/handler/dto"
	"github.com/abacus-app/abacus/internal/model"
)

// fakeServer answers the handful of endpoints the commands touch. A
// non-empty principal means the stored token is valid.
type fakeServer struct {
	mu        sync.Mutex
	principal *model.Principal
	records   []*model.CalculationRecord
	deleted   []string
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/api/v1/auth/state":
		_ = json.NewEncoder(w).Encode(dto.StateResponse{Identity: f.principal})
	case r.URL.Path == "/api/v1/profile":
		_ = json.NewEncoder(w).Encode(model.Profile{FirstName: "Ada", LastName: "Lovelace", Email: f.principal.Email})
	case r.URL.Path == "/api/v1/calculate":
		var req calc.Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp, err := calc.New(calc.Options{}).Compute(req)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: dto.ErrorDetail{Code: calc.ErrorCodeInvalidArgument, Message: err.Error()}})
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	case r.URL.Path == "/api/v1/history" && r.Method == http.MethodPost:
		var req dto.HistoryRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		rec := &model.CalculationRecord{
			ID:        "2024-05-01T10:20:30.123Z",
			Operand1:  *req.Operand1,
			Operand2:  *req.Operand2,
			Operation: req.Operation,
			Currency:  req.Currency,
			Result:    req.Result,
		}
		f.records = append(f.records, rec)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(rec)
	case r.URL.Path == "/api/v1/history":
		_ = json.NewEncoder(w).Encode(dto.HistoryListResponse{Data: f.records})
	case strings.HasPrefix(r.URL.Path, "/api/v1/history/"):
		f.deleted = append(f.deleted, strings.TrimPrefix(r.URL.Path, "/api/v1/history/"))
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func run(t *testing.T, f *fakeServer, signedIn bool, args ...string) string {
	t.Helper()

	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	tokens := &client.MemoryTokenStore{}
	if signedIn {
		_ = tokens.Save("tok-1")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var out bytes.Buffer
	a := &app{
		out:    &out,
		logger: logger,
		client: client.New(srv.URL, client.WithTokenStore(tokens), client.WithLogger(logger)),
	}

	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("abacus %v: %v", args, err)
	}
	return out.String()
}

func ada() *model.Principal {
	return &model.Principal{UserID: "u1", Email: "ada@example.com", DisplayName: "Ada Lovelace"}
}

func TestCalc(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		want     string
		recorded int
	}{
		{"usd", []string{"calc", "1000", "add", "234.5"}, "Result: $1,234.50\n", 1},
		{"eur alias", []string{"calc", "10", "/", "4", "--currency", "eur"}, "Result: 2,50\u00a0€\n", 1},
		{"bad operand", []string{"calc", "abc", "add", "1"}, "Please enter a valid number for Number 1.\n", 0},
		{"bad second operand", []string{"calc", "1", "add", ""}, "Please enter a valid number for Number 2.\n", 0},
		{"non-finite operand", []string{"calc", "NaN", "add", "1"}, "Please enter a valid number for Number 1.\n", 0},
		{"division by zero", []string{"calc", "1", "divide", "0"}, "Error calling the calculate function: Division by zero\n", 0},
		{"unknown operation", []string{"calc", "1", "pow", "2"}, "Error calling the calculate function: Invalid operation\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeServer{principal: ada()}
			if got := run(t, f, true, tt.args...); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
			if len(f.records) != tt.recorded {
				t.Errorf("recorded %d entries, want %d", len(f.records), tt.recorded)
			}
		})
	}
}

func TestGuardedCommandsWhenSignedOut(t *testing.T) {
	for _, args := range [][]string{{"calc", "1", "add", "2"}, {"history"}, {"whoami"}} {
		got := run(t, &fakeServer{}, false, args...)
		if !strings.Contains(got, "You are not signed in.") {
			t.Errorf("abacus %v: output = %q", args, got)
		}
	}
}

func TestLoginWhenSignedIn(t *testing.T) {
	got := run(t, &fakeServer{principal: ada()}, true, "login", "--email", "ada@example.com", "--password", "secret1")
	if got != "Already signed in as Ada Lovelace.\n" {
		t.Errorf("output = %q", got)
	}
}

func TestSignUpValidation(t *testing.T) {
	got := run(t, &fakeServer{}, false, "signup", "--email", "ada@example.com", "--password", "123", "--first-name", "Ada", "--last-name", "Lovelace")
	if got != "Password must be at least 6 characters.\n" {
		t.Errorf("output = %q", got)
	}

	got = run(t, &fakeServer{}, false, "signup", "--email", "ada@example.com", "--password", "secret1")
	if got != "All fields are required.\n" {
		t.Errorf("output = %q", got)
	}
}

func TestWhoami(t *testing.T) {
	got := run(t, &fakeServer{principal: ada()}, true, "whoami")
	want := "[A] Ada Lovelace\nEmail: ada@example.com\n"
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestHistory(t *testing.T) {
	f := &fakeServer{principal: ada()}

	if got := run(t, f, true, "history"); got != "No history available.\n" {
		t.Errorf("empty history output = %q", got)
	}

	f.records = []*model.CalculationRecord{{
		ID: "2024-05-01T10:20:30.123Z", Operand1: 2, Operand2: 3,
		Operation: model.OperationMultiply, Currency: model.CurrencyUSD, Result: "$6.00",
	}}
	want := "2024-05-01T10:20:30.123Z  2 multiply 3 = $6.00 (USD)\n"
	if got := run(t, f, true, "history"); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	got := run(t, f, true, "history", "delete", "2024-05-01T10:20:30.123Z")
	if got != "History entry deleted successfully.\n" {
		t.Errorf("delete output = %q", got)
	}
	if len(f.deleted) != 1 || f.deleted[0] != "2024-05-01T10:20:30.123Z" {
		t.Errorf("deleted = %v", f.deleted)
	}
}

func TestParseOperation(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]model.Operation{
		"+": model.OperationAdd, "-": model.OperationSubtract, "x": model.OperationMultiply,
		"*": model.OperationMultiply, "/": model.OperationDivide, "Divide": model.OperationDivide,
	} {
		if got := parseOperation(in); got != want {
			t.Errorf("parseOperation(%q) = %q, want %q", in, got, want)
		}
	}
}
