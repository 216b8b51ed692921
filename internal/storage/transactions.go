package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/finsight/internal/model"
	"github.com/Veraticus/finsight/internal/service"
)

// SaveTransactions stores imported transactions and reports how many were
// new. Transactions without an ID get a content derived one, so importing
// the same statement twice is a no-op.
func (s *Store) SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateTransactions(transactions); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(s.dialect.insertIgnore(
		"transactions",
		"id, customer_id, transaction_date, amount, category, merchant, payment_method, location, description, is_fraud",
		"?, ?, ?, ?, ?, ?, ?, ?, ?, ?",
	)))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, txn := range transactions {
		if txn.TransactionID == "" {
			txn.TransactionID = txn.GenerateID()
		}

		result, err := stmt.ExecContext(ctx,
			txn.TransactionID,
			txn.CustomerID,
			txn.Date.UTC(),
			txn.Amount,
			string(txn.Category),
			txn.Merchant,
			string(txn.PaymentMethod),
			txn.Location,
			txn.Description,
			txn.IsFraud,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert transaction %s: %w", txn.TransactionID, err)
		}
		if n, err := result.RowsAffected(); err == nil && n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transactions: %w", err)
	}
	return inserted, nil
}

// GetTransactions returns stored transactions matching filter, oldest first.
func (s *Store) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, fmt.Errorf("%w: end date %v is before start date %v", ErrInvalidDateRange, *filter.EndDate, *filter.StartDate)
	}

	var (
		where []string
		args  []any
	)
	if filter.CustomerID != "" {
		where = append(where, "customer_id = ?")
		args = append(args, filter.CustomerID)
	}
	if filter.StartDate != nil {
		where = append(where, "transaction_date >= ?")
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		where = append(where, "transaction_date <= ?")
		args = append(args, filter.EndDate.UTC())
	}

	query := `SELECT id, customer_id, transaction_date, amount, category, merchant,
		payment_method, location, description, is_fraud
		FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY transaction_date ASC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		var txn model.Transaction
		var date time.Time
		var category, merchant, method, location, description *string
		if err := rows.Scan(
			&txn.TransactionID,
			&txn.CustomerID,
			&date,
			&txn.Amount,
			&category,
			&merchant,
			&method,
			&location,
			&description,
			&txn.IsFraud,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		txn.Date = model.NewTimestamp(date.UTC())
		txn.Category = model.Category(deref(category))
		txn.Merchant = deref(merchant)
		txn.PaymentMethod = model.PaymentMode(deref(method))
		txn.Location = deref(location)
		txn.Description = deref(description)
		transactions = append(transactions, txn)
	}

	return transactions, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
