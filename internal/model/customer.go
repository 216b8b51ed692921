// Package model defines the data shapes exchanged with the inference service.
package model

// Segment is the categorical customer label assigned by the inference service.
type Segment string

// Known segments.
const (
	SegmentHighValue       Segment = "High Value"
	SegmentGrowthPotential Segment = "Growth Potential"
	SegmentAtRisk          Segment = "At Risk"
	SegmentNewCustomer     Segment = "New Customer"
	SegmentLoyal           Segment = "Loyal"
)

// RiskLevel is the categorical churn or fraud risk assigned to a customer.
type RiskLevel string

// Known risk levels.
const (
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// HighRiskThreshold is the churn probability above which a customer counts
// as high risk in overview metrics.
const HighRiskThreshold = 0.7

// Customer is a customer record with its RFM aggregates and model outputs.
type Customer struct {
	CustomerID               string    `json:"customer_id"`
	Name                     string    `json:"name,omitempty"`
	Email                    string    `json:"email,omitempty"`
	Phone                    string    `json:"phone,omitempty"`
	Location                 string    `json:"location,omitempty"`
	AccountType              string    `json:"account_type,omitempty"`
	JoinDate                 string    `json:"join_date,omitempty"`
	Segment                  Segment   `json:"segment,omitempty"`
	RiskLevel                RiskLevel `json:"risk_level,omitempty"`
	ChurnRisk                string    `json:"churn_risk,omitempty"`
	Age                      int       `json:"age,omitempty"`
	CreditScore              int       `json:"credit_score,omitempty"`
	AnnualIncome             float64   `json:"annual_income,omitempty"`
	DaysSinceLastTransaction int       `json:"days_since_last_transaction"`
	TotalTransactions        int       `json:"total_transactions"`
	AvgTransactionAmount     float64   `json:"avg_transaction_amount"`
	TotalAmount              float64   `json:"total_amount"`
	ChurnProbability         float64   `json:"churn_probability"`
}

// ChurnRequest builds a churn scoring request from the customer's aggregates.
func (c Customer) ChurnRequest() ChurnPredictionRequest {
	return ChurnPredictionRequest{
		CustomerID:               c.CustomerID,
		DaysSinceLastTransaction: c.DaysSinceLastTransaction,
		TotalTransactions:        c.TotalTransactions,
		AvgTransactionAmount:     c.AvgTransactionAmount,
		TotalAmount:              c.TotalAmount,
	}
}

// Pagination describes one page of a paged listing.
type Pagination struct {
	Page              int  `json:"page"`
	PageSize          int  `json:"page_size"`
	TotalCustomers    int  `json:"total_customers,omitempty"`
	TotalTransactions int  `json:"total_transactions,omitempty"`
	TotalPages        int  `json:"total_pages"`
	HasNext           bool `json:"has_next"`
	HasPrev           bool `json:"has_prev"`
}

// CustomerPage is one page of the customer listing.
type CustomerPage struct {
	Pagination *Pagination `json:"pagination,omitempty"`
	Customers  []Customer  `json:"customers"`
}

// CustomerQuery filters the customer listing. Zero values are omitted.
type CustomerQuery struct {
	Search    string    `validate:"omitempty,max=128"`
	Location  string    `validate:"omitempty,max=128"`
	RiskLevel RiskLevel `validate:"omitempty,oneof=Low Medium High Critical"`
	Page      int       `validate:"omitempty,min=1"`
	PageSize  int       `validate:"omitempty,min=1,max=500"`
	AgeMin    int       `validate:"omitempty,min=18,max=100"`
	AgeMax    int       `validate:"omitempty,min=18,max=100,gtefield=AgeMin"`
}

// DateRange bounds a customer's transaction history.
type DateRange struct {
	FirstTransaction *Timestamp `json:"first_transaction"`
	LastTransaction  *Timestamp `json:"last_transaction"`
}

// TransactionSummary aggregates a single customer's transactions.
type TransactionSummary struct {
	TopCategories     map[string]int     `json:"top_categories"`
	MonthlySpending   map[string]float64 `json:"monthly_spending"`
	DateRange         DateRange          `json:"date_range"`
	TotalTransactions int                `json:"total_transactions"`
	TotalAmount       float64            `json:"total_amount"`
	AvgAmount         float64            `json:"avg_amount"`
}

// CustomerDetail is the full record for a single customer.
type CustomerDetail struct {
	Features           map[string]any     `json:"features"`
	Customer           Customer           `json:"customer"`
	TransactionSummary TransactionSummary `json:"transaction_summary"`
}
