// Package history implements the per-user calculation history ledger.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abacus-app/abacus/internal/metrics"
	"github.com/abacus-app/abacus/internal/model"
)

// Store persists records scoped by owner.
type Store interface {
	UpsertHistory(ctx context.Context, rec *model.CalculationRecord) error
	ListHistory(ctx context.Context, userID string) ([]*model.CalculationRecord, error)
	DeleteHistory(ctx context.Context, userID, id string) (bool, error)
}

// Entry is the caller-supplied part of a record.
type Entry struct {
	Operand1  float64
	Operand2  float64
	Operation model.Operation
	Currency  model.Currency
	Result    string
}

// Ledger appends, lists and deletes records for the signed-in owner.
// Every operation is a no-op for an empty owner.
type Ledger struct {
	store   Store
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the key clock.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m metrics.Recorder) Option {
	return func(l *Ledger) { l.metrics = m }
}

// New creates a Ledger over store.
func New(store Store, logger *slog.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		store:   store,
		metrics: metrics.NewNoop(),
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append writes entry under ownerID keyed by the current time.
// Returns nil, nil when ownerID is empty.
func (l *Ledger) Append(ctx context.Context, ownerID string, entry Entry) (*model.CalculationRecord, error) {
	if ownerID == "" {
		return nil, nil
	}

	at := l.now().UTC()
	rec := &model.CalculationRecord{
		ID:        model.HistoryKey(at),
		UserID:    ownerID,
		Operand1:  entry.Operand1,
		Operand2:  entry.Operand2,
		Operation: entry.Operation,
		Currency:  entry.Currency,
		Result:    entry.Result,
		CreatedAt: at,
	}

	if err := l.store.UpsertHistory(ctx, rec); err != nil {
		return nil, fmt.Errorf("append history: %w", err)
	}

	l.metrics.IncHistoryAppended()
	l.logger.Debug("history appended",
		slog.String("user_id", ownerID),
		slog.String("id", rec.ID),
	)
	return rec, nil
}

// List returns all records of ownerID, newest first.
func (l *Ledger) List(ctx context.Context, ownerID string) ([]*model.CalculationRecord, error) {
	if ownerID == "" {
		return []*model.CalculationRecord{}, nil
	}

	records, err := l.store.ListHistory(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	SortNewestFirst(records)
	return records, nil
}

// Delete removes one record. A missing id is not an error.
func (l *Ledger) Delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" || id == "" {
		return nil
	}

	deleted, err := l.store.DeleteHistory(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	if deleted {
		l.metrics.IncHistoryDeleted()
	}
	return nil
}
