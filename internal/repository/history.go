package repository

import (
	"context"
	"fmt"

	"github.com/abacus-app/abacus/internal/model"
)

// UpsertHistory writes a record under its owner. A record with the same key
// is overwritten.
func (r *Repository) UpsertHistory(ctx context.Context, rec *model.CalculationRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO calculation_history (user_id, id, operand1, operand2, operation, currency, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, id) DO UPDATE SET
			operand1 = EXCLUDED.operand1,
			operand2 = EXCLUDED.operand2,
			operation = EXCLUDED.operation,
			currency = EXCLUDED.currency,
			result = EXCLUDED.result,
			created_at = EXCLUDED.created_at
	`,
		rec.UserID,
		rec.ID,
		rec.Operand1,
		rec.Operand2,
		string(rec.Operation),
		string(rec.Currency),
		rec.Result,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert history record: %w", err)
	}
	return nil
}

// ListHistory returns every record of a user, newest key first.
func (r *Repository) ListHistory(ctx context.Context, userID string) ([]*model.CalculationRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, operand1, operand2, operation, currency, result, created_at
		FROM calculation_history
		WHERE user_id = $1
		ORDER BY id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	records := make([]*model.CalculationRecord, 0)
	for rows.Next() {
		var rec model.CalculationRecord
		var op, currency string
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.Operand1,
			&rec.Operand2,
			&op,
			&currency,
			&rec.Result,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		rec.Operation = model.Operation(op)
		rec.Currency = model.Currency(currency)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}

	return records, nil
}

// DeleteHistory removes one record. Returns false if nothing matched.
func (r *Repository) DeleteHistory(ctx context.Context, userID, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM calculation_history
		WHERE user_id = $1 AND id = $2
	`, userID, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete history record: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
