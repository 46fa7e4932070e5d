// Package service provides business logic for the application.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/abacus-app/abacus/internal/calc"
	"github.com/abacus-app/abacus/internal/metrics"
)

// operationLabel bounds the metric label set for unknown operations.
const operationLabel = "invalid"

// CalculatorService runs compute requests with instrumentation.
type CalculatorService struct {
	calc    *calc.Calculator
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// NewCalculatorService creates a new CalculatorService.
func NewCalculatorService(opts calc.Options, recorder metrics.Recorder, logger *slog.Logger) *CalculatorService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CalculatorService{
		calc:    calc.New(opts),
		metrics: recorder,
		logger:  logger,
		now:     time.Now,
	}
}

// Calculate validates and computes req. Rejections are *calc.Error values;
// a cancelled context is returned as-is.
func (s *CalculatorService) Calculate(ctx context.Context, req calc.Request) (*calc.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := s.now()
	resp, err := s.calc.Compute(req)
	s.metrics.ObserveCalculationDuration(s.now().Sub(start))

	label := string(req.Operation)
	if !req.Operation.IsValid() {
		label = operationLabel
	}

	switch {
	case err == nil:
		s.metrics.IncCalculation(label, metrics.StatusSuccess)
	case calc.IsInvalidArgument(err):
		s.metrics.IncCalculation(label, metrics.StatusRejected)
		s.logger.Debug("calculation rejected",
			slog.String("request", req.String()),
			slog.String("reason", err.Error()),
		)
	default:
		s.metrics.IncCalculation(label, metrics.StatusError)
		s.logger.Error("calculation failed",
			slog.String("request", req.String()),
			slog.String("error", err.Error()),
		)
	}

	return resp, err
}
