package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/abacus-app/abacus/internal/calc"
	"github.com/abacus-app/abacus/internal/metrics"
	"github.com/abacus-app/abacus/internal/model"
)

func ptr(v float64) *float64 { return &v }

func newTestService(opts calc.Options) (*CalculatorService, *metrics.InMemoryRecorder) {
	rec := metrics.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCalculatorService(opts, rec, logger), rec
}

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		req        calc.Request
		want       string
		wantErr    string
		wantMetric string
	}{
		{
			name:       "add_usd",
			req:        calc.Request{Operand1: ptr(1200), Operand2: ptr(34.5), Operation: model.OperationAdd, Currency: model.CurrencyUSD},
			want:       "$1,234.50",
			wantMetric: "add/" + metrics.StatusSuccess,
		},
		{
			name:       "zero_operand_accepted",
			req:        calc.Request{Operand1: ptr(0), Operand2: ptr(5), Operation: model.OperationSubtract},
			want:       "-$5.00",
			wantMetric: "subtract/" + metrics.StatusSuccess,
		},
		{
			name:       "divide_by_zero",
			req:        calc.Request{Operand1: ptr(1), Operand2: ptr(0), Operation: model.OperationDivide},
			wantErr:    calc.MsgDivisionByZero,
			wantMetric: "divide/" + metrics.StatusRejected,
		},
		{
			name:       "unknown_operation",
			req:        calc.Request{Operand1: ptr(1), Operand2: ptr(2), Operation: "modulo"},
			wantErr:    calc.MsgInvalidOperation,
			wantMetric: "invalid/" + metrics.StatusRejected,
		},
		{
			name:       "missing_operand",
			req:        calc.Request{Operand1: ptr(1), Operation: model.OperationAdd},
			wantErr:    calc.MsgMissingInput,
			wantMetric: "add/" + metrics.StatusRejected,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			svc, rec := newTestService(calc.Options{})
			resp, err := svc.Calculate(context.Background(), test.req)

			if test.wantErr != "" {
				var calcErr *calc.Error
				if !errors.As(err, &calcErr) || calcErr.Message != test.wantErr {
					t.Fatalf("expected %q, got %v", test.wantErr, err)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if resp.Result != test.want {
					t.Errorf("Result = %q, want %q", resp.Result, test.want)
				}
			}

			snap := rec.Snapshot()
			if snap.Calculations[test.wantMetric] != 1 {
				t.Errorf("expected metric %q to be 1, got %v", test.wantMetric, snap.Calculations)
			}
			if snap.CalculationDurationCount != 1 {
				t.Errorf("expected one duration observation, got %d", snap.CalculationDurationCount)
			}
		})
	}
}

func TestCalculate_LegacyFalsyZero(t *testing.T) {
	svc, _ := newTestService(calc.Options{LegacyFalsyZero: true})

	_, err := svc.Calculate(context.Background(), calc.Request{
		Operand1:  ptr(0),
		Operand2:  ptr(5),
		Operation: model.OperationAdd,
	})
	if !calc.IsInvalidArgument(err) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestCalculate_CancelledContext(t *testing.T) {
	svc, rec := newTestService(calc.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Calculate(ctx, calc.Request{Operand1: ptr(1), Operand2: ptr(2), Operation: model.OperationAdd})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(rec.Snapshot().Calculations) != 0 {
		t.Error("cancelled requests should not be counted")
	}
}
