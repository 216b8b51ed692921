// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/finsight/internal/model"
)

// InferenceAPI is the contract of the external inference service.
type InferenceAPI interface {
	// Service health
	Health(ctx context.Context) (*model.Health, error)
	DetailedHealth(ctx context.Context) (*model.DetailedHealth, error)
	Ready(ctx context.Context) (*model.Readiness, error)
	Live(ctx context.Context) (*model.Liveness, error)

	// Customer data
	ListCustomers(ctx context.Context, query model.CustomerQuery) (*model.CustomerPage, error)
	GetCustomer(ctx context.Context, customerID string) (*model.CustomerDetail, error)
	CustomerTransactions(ctx context.Context, customerID string, query model.TransactionQuery) (*model.TransactionPage, error)

	// Analytics
	CustomerAnalytics(ctx context.Context) (*model.CustomerAnalytics, error)
	TransactionAnalytics(ctx context.Context, days int) (*model.TransactionAnalytics, error)

	// Inference
	PredictChurn(ctx context.Context, req model.ChurnPredictionRequest) (*model.ChurnPrediction, error)
	PredictChurnBatch(ctx context.Context, reqs []model.ChurnPredictionRequest) (*model.ChurnBatchResponse, error)
	PredictSegment(ctx context.Context, req model.ChurnPredictionRequest) (*model.SegmentPrediction, error)
	DetectFraud(ctx context.Context, tx model.TransactionInput) (*model.FraudPrediction, error)
	SubmitBatchProcess(ctx context.Context, req model.BatchProcessRequest) (*model.BatchProcessResponse, error)
	Explain(ctx context.Context, customerID, modelType string) (*model.ModelExplanation, error)
	Metrics(ctx context.Context) (*model.InferenceMetrics, error)

	// Model management
	ModelsStatus(ctx context.Context) (*model.ModelsStatus, error)
	ReloadModels(ctx context.Context) (*model.ReloadResponse, error)

	// Probe issues an arbitrary request and reports what came back.
	Probe(ctx context.Context, method, path string, body any) model.ProbeResult
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Snapshots of view payloads, used as last-known-good data.
	SaveSnapshot(ctx context.Context, kind string, payload any) error
	LoadSnapshot(ctx context.Context, kind string, dest any) (time.Time, error)

	// Prediction history
	SavePredictions(ctx context.Context, records []model.PredictionRecord) error
	PredictionHistory(ctx context.Context, customerID string, limit int) ([]model.PredictionRecord, error)

	// Imported statement transactions
	SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)

	Migrate(ctx context.Context) error
	Close() error
}

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	CustomerID string
	Limit      int
}

// Cache stores encoded responses for a bounded time.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// ChurnReport is a scored customer roster ready for export.
type ChurnReport struct {
	GeneratedAt time.Time
	Predictions map[string]model.ChurnPrediction
	Customers   []model.Customer
	Summary     model.ChurnBatchSummary
}

// ReportWriter exports a churn report to an external destination.
type ReportWriter interface {
	Write(ctx context.Context, report *ChurnReport) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	// RetryIf decides whether a failed attempt is retried. Nil retries
	// everything not explicitly marked permanent.
	RetryIf      func(error) bool
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Jitter spreads each delay by up to this fraction in either direction.
	Jitter float64
}
