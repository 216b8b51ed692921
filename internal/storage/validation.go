// Package storage persists view snapshots, prediction history and imported
// transactions in sqlite, postgres or mysql.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/finsight/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidDateRange   = errors.New("start date must be before end date")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidPrediction  = errors.New("invalid prediction")
	ErrUnknownDriver      = errors.New("unknown storage driver")
	ErrInvalidDSN         = errors.New("invalid dsn")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransactions validates a slice of transactions.
func validateTransactions(transactions []model.Transaction) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}

	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if strings.TrimSpace(txn.CustomerID) == "" {
		return fmt.Errorf("%w: missing customer ID", ErrInvalidTransaction)
	}
	return nil
}

// validatePredictions validates prediction records before insert.
func validatePredictions(records []model.PredictionRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("%w: predictions", ErrEmptySlice)
	}
	for i, rec := range records {
		if strings.TrimSpace(rec.CustomerID) == "" {
			return fmt.Errorf("prediction at index %d: %w: missing customer ID", i, ErrInvalidPrediction)
		}
		if rec.ChurnProbability < 0 || rec.ChurnProbability > 1 {
			return fmt.Errorf("prediction at index %d: %w: probability must be between 0 and 1", i, ErrInvalidPrediction)
		}
		if rec.Confidence < 0 || rec.Confidence > 1 {
			return fmt.Errorf("prediction at index %d: %w: confidence must be between 0 and 1", i, ErrInvalidPrediction)
		}
	}
	return nil
}
