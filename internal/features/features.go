// Package features derives customer-level RFM features from raw
// transactions so locally imported statements can be scored by the churn
// model.
package features

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/Veraticus/finsight/internal/model"
	"github.com/shopspring/decimal"
)

// DefaultLookbackDays bounds how far before the reference date transactions
// are considered.
const DefaultLookbackDays = 90

const day = 24 * time.Hour

// Size bands for transaction size ratios, by absolute amount.
const (
	smallTransactionLimit  = 50
	mediumTransactionLimit = 200
)

// Customer holds the engineered features of one customer.
type Customer struct {
	CustomerID           string  `json:"customer_id"`
	MostFrequentCategory string  `json:"most_frequent_category"`
	MostUsedPaymentMode  string  `json:"most_used_payment_mode"`
	MostCommonLocation   string  `json:"most_common_location"`
	TopMerchant          string  `json:"top_merchant"`
	DaysSinceLast        int     `json:"days_since_last_transaction"`
	DaysSinceFirst       int     `json:"days_since_first_transaction"`
	LifetimeDays         int     `json:"customer_lifetime_days"`
	TotalTransactions    int     `json:"total_transactions"`
	UniqueMerchants      int     `json:"unique_merchants"`
	UniqueCategories     int     `json:"unique_categories"`
	UniqueLocations      int     `json:"unique_locations"`
	PaymentModeDiversity int     `json:"payment_mode_diversity"`
	ExpenseCount         int     `json:"expense_transaction_count"`
	IncomeCount          int     `json:"income_transaction_count"`
	TransactionsPerMonth float64 `json:"avg_transactions_per_month"`
	TotalAmount          float64 `json:"total_amount"`
	AvgAmount            float64 `json:"avg_transaction_amount"`
	MedianAmount         float64 `json:"median_transaction_amount"`
	StdAmount            float64 `json:"std_transaction_amount"`
	MinAmount            float64 `json:"min_transaction_amount"`
	MaxAmount            float64 `json:"max_transaction_amount"`
	TotalExpenses        float64 `json:"total_expenses"`
	TotalIncome          float64 `json:"total_income"`
	NetCashFlow          float64 `json:"net_cash_flow"`
	IncomeExpenseRatio   float64 `json:"income_expense_ratio"`
	SavingsRate          float64 `json:"savings_rate"`
	WeekendRatio         float64 `json:"weekend_transaction_ratio"`
	MerchantLoyalty      float64 `json:"merchant_loyalty_score"`
	SpendingTrend        float64 `json:"monthly_spending_trend"`
	SpendingVolatility   float64 `json:"spending_volatility"`
	SmallRatio           float64 `json:"small_transaction_ratio"`
	MediumRatio          float64 `json:"medium_transaction_ratio"`
	LargeRatio           float64 `json:"large_transaction_ratio"`
}

// ChurnRequest converts the features into a churn scoring request. The four
// core RFM inputs are sent as fields, a selection of the rest as extras.
func (c Customer) ChurnRequest() model.ChurnPredictionRequest {
	return model.ChurnPredictionRequest{
		CustomerID:               c.CustomerID,
		DaysSinceLastTransaction: c.DaysSinceLast,
		TotalTransactions:        c.TotalTransactions,
		AvgTransactionAmount:     c.AvgAmount,
		TotalAmount:              c.TotalAmount,
		Features: map[string]float64{
			"unique_merchants":           float64(c.UniqueMerchants),
			"location_diversity":         float64(c.UniqueLocations),
			"payment_mode_diversity":     float64(c.PaymentModeDiversity),
			"avg_transactions_per_month": c.TransactionsPerMonth,
			"weekend_transaction_ratio":  c.WeekendRatio,
			"spending_volatility":        c.SpendingVolatility,
		},
	}
}

// Engineer computes features over a lookback window.
type Engineer struct {
	LookbackDays int
}

// NewEngineer returns an engineer with the given window; values below one
// select DefaultLookbackDays.
func NewEngineer(lookbackDays int) *Engineer {
	if lookbackDays < 1 {
		lookbackDays = DefaultLookbackDays
	}
	return &Engineer{LookbackDays: lookbackDays}
}

// Customers groups txns by customer and computes each customer's features
// relative to reference. A zero reference uses the latest transaction date.
// Results are ordered by customer id.
func (e *Engineer) Customers(txns []model.Transaction, reference time.Time) []Customer {
	if len(txns) == 0 {
		return nil
	}

	if reference.IsZero() {
		for _, t := range txns {
			if t.Date.After(reference) {
				reference = t.Date.Time
			}
		}
	}
	cutoff := reference.AddDate(0, 0, -e.LookbackDays)

	byCustomer := make(map[string][]model.Transaction)
	for _, t := range txns {
		if t.Date.Before(cutoff) || t.Date.After(reference) {
			continue
		}
		byCustomer[t.CustomerID] = append(byCustomer[t.CustomerID], t)
	}

	out := make([]Customer, 0, len(byCustomer))
	for id, list := range byCustomer {
		slices.SortStableFunc(list, func(a, b model.Transaction) int {
			return a.Date.Compare(b.Date.Time)
		})
		out = append(out, customerFeatures(id, list, reference))
	}
	slices.SortFunc(out, func(a, b Customer) int {
		return cmp.Compare(a.CustomerID, b.CustomerID)
	})
	return out
}

// customerFeatures expects list sorted by date and non-empty.
func customerFeatures(id string, list []model.Transaction, reference time.Time) Customer {
	first, last := list[0].Date.Time, list[len(list)-1].Date.Time
	n := len(list)

	c := Customer{
		CustomerID:        id,
		DaysSinceLast:     wholeDays(reference.Sub(last)),
		DaysSinceFirst:    wholeDays(reference.Sub(first)),
		LifetimeDays:      wholeDays(last.Sub(first)),
		TotalTransactions: n,
	}
	if c.LifetimeDays > 0 {
		c.TransactionsPerMonth = float64(n) / (float64(c.LifetimeDays) / 30)
	}

	amounts := make([]float64, 0, n)
	merchants, categories, locations, modes := counter{}, counter{}, counter{}, counter{}
	total, income, expenses := decimal.Zero, decimal.Zero, decimal.Zero
	var weekend, small, medium, large int

	for _, t := range list {
		amounts = append(amounts, t.Amount)
		amt := decimal.NewFromFloat(t.Amount)
		total = total.Add(amt)
		switch {
		case t.Amount > 0:
			income = income.Add(amt)
			c.IncomeCount++
		case t.Amount < 0:
			expenses = expenses.Add(amt)
			c.ExpenseCount++
		}

		merchants.add(t.Merchant)
		categories.add(string(t.Category))
		locations.add(t.Location)
		modes.add(string(t.PaymentMethod))

		if wd := t.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekend++
		}
		switch abs := math.Abs(t.Amount); {
		case abs < smallTransactionLimit:
			small++
		case abs < mediumTransactionLimit:
			medium++
		default:
			large++
		}
	}

	c.TotalAmount = total.InexactFloat64()
	c.AvgAmount = total.Div(decimal.NewFromInt(int64(n))).InexactFloat64()
	c.MedianAmount = median(amounts)
	c.StdAmount = sampleStd(amounts)
	c.MinAmount = slices.Min(amounts)
	c.MaxAmount = slices.Max(amounts)

	c.TotalIncome = income.InexactFloat64()
	c.TotalExpenses = expenses.InexactFloat64()
	if c.IncomeCount > 0 && c.ExpenseCount > 0 {
		net := income.Add(expenses)
		c.NetCashFlow = net.InexactFloat64()
		c.IncomeExpenseRatio = income.Div(expenses.Abs()).InexactFloat64()
		c.SavingsRate = net.Div(income).InexactFloat64()
	}

	c.UniqueMerchants = merchants.distinct()
	c.UniqueCategories = categories.distinct()
	c.UniqueLocations = locations.distinct()
	c.PaymentModeDiversity = modes.distinct()
	c.MostFrequentCategory = categories.top()
	c.MostUsedPaymentMode = modes.top()
	c.MostCommonLocation = locations.top()
	c.TopMerchant = merchants.top()
	if c.TopMerchant != "" {
		c.MerchantLoyalty = float64(merchants[c.TopMerchant]) / float64(n)
	}

	c.WeekendRatio = float64(weekend) / float64(n)
	c.SmallRatio = float64(small) / float64(n)
	c.MediumRatio = float64(medium) / float64(n)
	c.LargeRatio = float64(large) / float64(n)

	monthly := monthlySums(list)
	if len(monthly) >= 2 {
		c.SpendingTrend = slope(monthly)
		c.SpendingVolatility = populationStd(monthly)
	}

	return c
}

func wholeDays(d time.Duration) int {
	return int(math.Floor(float64(d) / float64(day)))
}

// counter tallies non-empty values.
type counter map[string]int

func (c counter) add(v string) {
	if v != "" {
		c[v]++
	}
}

func (c counter) distinct() int {
	return len(c)
}

// top returns the most frequent value, the lexically smallest on ties.
func (c counter) top() string {
	var best string
	for v, n := range c {
		if n > c[best] || (n == c[best] && v < best) {
			best = v
		}
	}
	return best
}

// monthlySums returns the amount total of each calendar month in order.
func monthlySums(list []model.Transaction) []float64 {
	var sums []float64
	var current string
	for _, t := range list {
		key := t.Date.Format("2006-01")
		if key != current {
			sums = append(sums, 0)
			current = key
		}
		sums[len(sums)-1] += t.Amount
	}
	return sums
}

func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStd is the n-1 standard deviation; zero below two values.
func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

func populationStd(values []float64) float64 {
	m := mean(values)
	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(values)))
}

// slope is the least-squares slope of values against their index.
func slope(values []float64) float64 {
	n := float64(len(values))
	var sx, sy, sxy, sxx float64
	for i, y := range values {
		x := float64(i)
		sx += x
		sy += y
		sxy += x * y
		sxx += x * x
	}
	denom := n*sxx - sx*sx
	if denom == 0 {
		return 0
	}
	return (n*sxy - sx*sy) / denom
}
