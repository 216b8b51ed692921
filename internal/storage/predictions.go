package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/finsight/internal/model"
)

const defaultHistoryLimit = 50

// SavePredictions appends churn predictions to the history.
// Records without a timestamp are stamped with the current time.
func (s *Store) SavePredictions(ctx context.Context, records []model.PredictionRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePredictions(records); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(`
		INSERT INTO predictions (
			customer_id, churn_probability, confidence, risk_category, source, predicted_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := s.now().UTC()
	for _, rec := range records {
		predictedAt := rec.PredictedAt
		if predictedAt.IsZero() {
			predictedAt = now
		}
		riskCategory := rec.RiskCategory
		if riskCategory == "" {
			riskCategory = model.ChurnRiskLevel(rec.ChurnProbability)
		}
		source := rec.Source
		if source == "" {
			source = model.SourceLive
		}

		if _, err := stmt.ExecContext(ctx,
			rec.CustomerID,
			rec.ChurnProbability,
			rec.Confidence,
			riskCategory,
			string(source),
			predictedAt.UTC(),
		); err != nil {
			return fmt.Errorf("failed to insert prediction for %s: %w", rec.CustomerID, err)
		}
	}

	return tx.Commit()
}

// PredictionHistory returns the most recent predictions, newest first.
// An empty customerID returns history across all customers.
func (s *Store) PredictionHistory(ctx context.Context, customerID string, limit int) ([]model.PredictionRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	query := `SELECT id, customer_id, churn_probability, confidence, risk_category, source, predicted_at
		FROM predictions`
	args := []any{}
	if customerID != "" {
		query += ` WHERE customer_id = ?`
		args = append(args, customerID)
	}
	query += ` ORDER BY predicted_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.PredictionRecord
	for rows.Next() {
		var (
			rec    model.PredictionRecord
			source string
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.CustomerID,
			&rec.ChurnProbability,
			&rec.Confidence,
			&rec.RiskCategory,
			&source,
			&rec.PredictedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		rec.Source = model.PredictionSource(source)
		records = append(records, rec)
	}

	return records, rows.Err()
}
