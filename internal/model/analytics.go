package model

// CustomerDemographics summarizes the customer base.
type CustomerDemographics struct {
	AgeDistribution         map[string]float64 `json:"age_distribution"`
	LocationDistribution    map[string]int     `json:"location_distribution"`
	AccountTypeDistribution map[string]int     `json:"account_type_distribution"`
	CreditScoreDistribution map[string]int     `json:"credit_score_distribution"`
	TotalCustomers          int                `json:"total_customers"`
}

// TransactionOverview summarizes all transactions for customer analytics.
type TransactionOverview struct {
	TransactionByCategory map[string]int     `json:"transaction_by_category"`
	TransactionsByMonth   map[string]float64 `json:"transactions_by_month"`
	PaymentMethods        map[string]int     `json:"payment_methods"`
	TotalTransactions     int                `json:"total_transactions"`
	TotalVolume           float64            `json:"total_volume"`
	AvgTransactionAmount  float64            `json:"avg_transaction_amount"`
	FraudRate             float64            `json:"fraud_rate"`
}

// CustomerActivity summarizes per-customer activity.
type CustomerActivity struct {
	TopCustomersByVolume         []map[string]any `json:"top_customers_by_volume"`
	TopCustomersByFrequency      []map[string]any `json:"top_customers_by_frequency"`
	CustomerActivityDistribution map[string]int   `json:"customer_activity_distribution"`
	AvgTransactionsPerCustomer   float64          `json:"avg_transactions_per_customer"`
}

// CustomerAnalytics is the aggregate customer analytics payload.
type CustomerAnalytics struct {
	GeneratedAt      Timestamp            `json:"generated_at"`
	Demographics     CustomerDemographics `json:"demographics"`
	Transactions     TransactionOverview  `json:"transactions"`
	CustomerActivity CustomerActivity     `json:"customer_activity"`
}

// AnalyticsPeriod bounds a transaction analytics window.
type AnalyticsPeriod struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Days      int    `json:"days"`
}

// TransactionSummaryStats is the headline block of transaction analytics.
type TransactionSummaryStats struct {
	TotalTransactions    int     `json:"total_transactions"`
	TotalVolume          float64 `json:"total_volume"`
	AvgTransactionAmount float64 `json:"avg_transaction_amount"`
	FraudTransactions    int     `json:"fraud_transactions"`
	FraudRate            float64 `json:"fraud_rate"`
	UniqueCustomers      int     `json:"unique_customers"`
	UniqueMerchants      int     `json:"unique_merchants"`
}

// DailyTrend is one day of transaction activity.
type DailyTrend struct {
	Date             string  `json:"date"`
	TransactionCount int     `json:"transaction_count"`
	TotalAmount      float64 `json:"total_amount"`
	AvgAmount        float64 `json:"avg_amount"`
	FraudCount       int     `json:"fraud_count"`
}

// CategoryBreakdown is activity for one merchant category.
type CategoryBreakdown struct {
	Category         string  `json:"category"`
	TransactionCount int     `json:"transaction_count"`
	TotalAmount      float64 `json:"total_amount"`
	AvgAmount        float64 `json:"avg_amount"`
	FraudCount       int     `json:"fraud_count"`
}

// TimePatterns counts transactions by hour of day and day of week.
type TimePatterns struct {
	Hourly map[string]int `json:"hourly"`
	Weekly map[string]int `json:"weekly"`
}

// TransactionAnalytics is the aggregate transaction analytics payload.
type TransactionAnalytics struct {
	TopMerchants      map[string]int          `json:"top_merchants"`
	PaymentMethods    map[string]int          `json:"payment_methods"`
	Period            AnalyticsPeriod         `json:"period"`
	DailyTrends       []DailyTrend            `json:"daily_trends"`
	CategoryBreakdown []CategoryBreakdown     `json:"category_breakdown"`
	TimePatterns      TimePatterns            `json:"time_patterns"`
	Summary           TransactionSummaryStats `json:"summary"`
}
