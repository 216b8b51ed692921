package model

import (
	"crypto/sha256"
	"fmt"
)

// Category is a merchant category understood by the fraud model.
type Category string

// Known transaction categories.
const (
	CategoryGrocery       Category = "grocery"
	CategoryRestaurant    Category = "restaurant"
	CategoryGas           Category = "gas"
	CategoryRetail        Category = "retail"
	CategoryEntertainment Category = "entertainment"
	CategoryHealthcare    Category = "healthcare"
	CategoryUtilities     Category = "utilities"
	CategoryTransport     Category = "transport"
	CategoryBanking       Category = "banking"
	CategoryIncome        Category = "income"
)

// PaymentMode is the instrument used for a transaction.
type PaymentMode string

// Known payment modes.
const (
	ModeCreditCard   PaymentMode = "Credit Card"
	ModeDebitCard    PaymentMode = "Debit Card"
	ModeBankTransfer PaymentMode = "Bank Transfer"
	ModeUPI          PaymentMode = "UPI"
	ModeCash         PaymentMode = "Cash"
	ModeCheck        PaymentMode = "Check"
)

// Transaction is a single customer transaction, either returned by the
// inference service or imported from a local statement.
type Transaction struct {
	Date          Timestamp   `json:"transaction_date"`
	TransactionID string      `json:"transaction_id"`
	CustomerID    string      `json:"customer_id"`
	Category      Category    `json:"category,omitempty"`
	Merchant      string      `json:"merchant,omitempty"`
	PaymentMethod PaymentMode `json:"payment_method,omitempty"`
	Location      string      `json:"location,omitempty"`
	Description   string      `json:"description,omitempty"`
	Amount        float64     `json:"amount"`
	IsFraud       bool        `json:"is_fraud"`
}

// GenerateID derives a stable identifier for transactions that arrive
// without one, so repeated imports deduplicate.
func (t *Transaction) GenerateID() string {
	data := fmt.Sprintf("%s:%s:%.2f:%s",
		t.CustomerID,
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.Merchant)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash[:8])
}

// TransactionPage is one page of a customer's transaction history.
type TransactionPage struct {
	Pagination   Pagination    `json:"pagination"`
	Transactions []Transaction `json:"transactions"`
}

// TransactionQuery filters a customer's transaction history.
type TransactionQuery struct {
	IsFraud   *bool
	AmountMin *float64
	AmountMax *float64
	Category  Category
	DateFrom  string `validate:"omitempty,datetime=2006-01-02"`
	DateTo    string `validate:"omitempty,datetime=2006-01-02"`
	Page      int    `validate:"omitempty,min=1"`
	PageSize  int    `validate:"omitempty,min=1,max=1000"`
}

// TransactionInput is a transaction submitted for fraud scoring.
type TransactionInput struct {
	TransactionDate Timestamp   `json:"transaction_date" validate:"required"`
	CustomerID      string      `json:"customer_id" validate:"required"`
	Merchant        string      `json:"merchant" validate:"required"`
	Category        Category    `json:"category" validate:"required,oneof=grocery restaurant gas retail entertainment healthcare utilities transport banking income"`
	Mode            PaymentMode `json:"mode" validate:"required,oneof='Credit Card' 'Debit Card' 'Bank Transfer' UPI Cash Check"`
	Location        string      `json:"location" validate:"required"`
	Remarks         string      `json:"remarks,omitempty"`
	Amount          float64     `json:"amount"`
}

// FraudPrediction is the fraud model's verdict for one transaction.
type FraudPrediction struct {
	TransactionID    *string  `json:"transaction_id"`
	CustomerID       string   `json:"customer_id"`
	RiskFactors      []string `json:"risk_factors"`
	FraudProbability float64  `json:"fraud_probability"`
	AnomalyScore     float64  `json:"anomaly_score"`
	FraudPrediction  bool     `json:"fraud_prediction"`
}
