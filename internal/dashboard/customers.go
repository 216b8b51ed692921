package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/Veraticus/finsight/internal/model"
)

const churnListSize = 50

// Churn risk band bounds used by the churn page.
const (
	churnHighBound = 0.7
	churnLowBound  = 0.4
)

// CustomerAnalyticsView is the customer analytics page.
type CustomerAnalyticsView struct {
	Analytics *model.CustomerAnalytics `json:"analytics,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

// CustomerAnalytics loads aggregate customer analytics, with a banner on
// failure.
func (b *Builder) CustomerAnalytics(ctx context.Context) *CustomerAnalyticsView {
	analytics, err := b.api.CustomerAnalytics(ctx)
	if err != nil {
		b.logger.Error("Failed to load customer analytics", "error", err)
		return &CustomerAnalyticsView{Error: bannerMessage(err)}
	}
	return &CustomerAnalyticsView{Analytics: analytics}
}

// CustomerView is a single customer with recent transactions.
type CustomerView struct {
	Detail       *model.CustomerDetail `json:"detail,omitempty"`
	Error        string                `json:"error,omitempty"`
	Transactions []model.Transaction   `json:"transactions"`
	NotFound     bool                  `json:"not_found,omitempty"`
}

// Customer loads one customer and the first page of its transactions. An
// unknown id sets NotFound instead of the load failure banner. A failed
// transaction load leaves the list empty.
func (b *Builder) Customer(ctx context.Context, customerID string, query model.TransactionQuery) *CustomerView {
	detail, err := b.api.GetCustomer(ctx, customerID)
	if errors.Is(err, common.ErrNotFound) {
		b.logger.Info("Customer not found", "customer_id", customerID)
		return &CustomerView{Error: MsgCustomerNotFound, NotFound: true, Transactions: []model.Transaction{}}
	}
	if err != nil {
		b.logger.Error("Failed to load customer", "customer_id", customerID, "error", err)
		return &CustomerView{Error: bannerMessage(err), Transactions: []model.Transaction{}}
	}

	view := &CustomerView{Detail: detail, Transactions: []model.Transaction{}}
	page, err := b.api.CustomerTransactions(ctx, customerID, query)
	if err != nil {
		b.logger.Warn("Failed to load transactions", "customer_id", customerID, "error", err)
		return view
	}
	view.Transactions = page.Transactions
	return view
}

// RiskBands counts customers in each churn risk band.
type RiskBands struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// ChurnView is the churn prediction page's customer list.
type ChurnView struct {
	Error               string           `json:"error,omitempty"`
	Customers           []model.Customer `json:"customers"`
	Bands               RiskBands        `json:"bands"`
	TotalCustomers      int              `json:"total_customers"`
	AvgChurnProbability float64          `json:"avg_churn_probability"`
}

// Churn loads the customer list and groups it into risk bands.
func (b *Builder) Churn(ctx context.Context, query model.CustomerQuery) *ChurnView {
	page, err := b.api.ListCustomers(ctx, query)
	if err != nil {
		b.logger.Error("Failed to load customers", "error", err)
		return &ChurnView{Error: bannerMessage(err), Customers: []model.Customer{}}
	}

	customers := page.Customers
	view := &ChurnView{
		Customers:      customers[:min(len(customers), churnListSize)],
		Bands:          Bands(customers),
		TotalCustomers: len(customers),
	}
	view.AvgChurnProbability = ComputeOverviewMetrics(customers).AvgChurnProbability
	return view
}

// Bands splits customers into high (>0.7), medium (0.4 to 0.7) and low
// (<0.4) churn risk.
func Bands(customers []model.Customer) RiskBands {
	var bands RiskBands
	for _, c := range customers {
		switch p := c.ChurnProbability; {
		case p > churnHighBound:
			bands.High++
		case p >= churnLowBound:
			bands.Medium++
		default:
			bands.Low++
		}
	}
	return bands
}

// PredictionView is a single churn prediction and how it was produced.
type PredictionView struct {
	Source     model.PredictionSource `json:"source"`
	Notice     string                 `json:"notice,omitempty"`
	Prediction model.ChurnPrediction  `json:"prediction"`
}

func (b *Builder) record(ctx context.Context, source model.PredictionSource, predictions ...model.ChurnPrediction) {
	if b.store == nil || len(predictions) == 0 {
		return
	}
	now := b.now().UTC().Truncate(time.Second)
	records := make([]model.PredictionRecord, 0, len(predictions))
	for _, p := range predictions {
		records = append(records, model.PredictionRecord{
			PredictedAt:      now,
			CustomerID:       p.CustomerID,
			RiskCategory:     p.RiskCategory,
			Source:           source,
			ChurnProbability: p.ChurnProbability,
			Confidence:       p.Confidence,
		})
	}
	if err := b.store.SavePredictions(ctx, records); err != nil {
		b.logger.Warn("Failed to save prediction history", "count", len(records), "error", err)
	}
}
