package model

// ChurnPredictionRequest carries the RFM inputs for churn scoring.
type ChurnPredictionRequest struct {
	Features                 map[string]float64 `json:"features,omitempty"`
	CustomerID               string             `json:"customer_id" validate:"required"`
	DaysSinceLastTransaction int                `json:"days_since_last_transaction" validate:"min=0"`
	TotalTransactions        int                `json:"total_transactions" validate:"min=0"`
	AvgTransactionAmount     float64            `json:"avg_transaction_amount"`
	TotalAmount              float64            `json:"total_amount"`
}

// ChurnPrediction is the churn model output for one customer.
type ChurnPrediction struct {
	FeaturesImportance map[string]float64 `json:"features_importance,omitempty"`
	CustomerID         string             `json:"customer_id"`
	RiskLevel          RiskLevel          `json:"risk_level,omitempty"`
	RiskCategory       string             `json:"risk_category,omitempty"`
	ChurnProbability   float64            `json:"churn_probability"`
	Confidence         float64            `json:"confidence"`
	ChurnPrediction    bool               `json:"churn_prediction"`
}

// ChurnBatchRequest is the body of a batch churn request.
type ChurnBatchRequest struct {
	Customers []ChurnPredictionRequest `json:"customers" validate:"required,min=1,dive"`
}

// ChurnBatchSummary aggregates a batch of churn predictions.
type ChurnBatchSummary struct {
	TotalCustomers      int     `json:"total_customers"`
	PredictedChurners   int     `json:"predicted_churners"`
	AvgChurnProbability float64 `json:"avg_churn_probability"`
	HighRiskCustomers   int     `json:"high_risk_customers"`
}

// ChurnBatchResponse is the result of a batch churn request.
type ChurnBatchResponse struct {
	Predictions []ChurnPrediction `json:"predictions"`
	Summary     ChurnBatchSummary `json:"summary"`
}

// SegmentPrediction is the segmentation model output for one customer.
type SegmentPrediction struct {
	Characteristics map[string]any `json:"characteristics"`
	CustomerID      string         `json:"customer_id"`
	SegmentName     string         `json:"segment_name"`
	SegmentID       int            `json:"segment_id"`
	Confidence      float64        `json:"confidence"`
}

// FeatureContribution is one feature's share of an explained prediction.
type FeatureContribution struct {
	FeatureName  string  `json:"feature_name"`
	FeatureValue float64 `json:"feature_value"`
	Contribution float64 `json:"contribution"`
	Importance   float64 `json:"importance"`
}

// ModelExplanation explains a single prediction.
type ModelExplanation struct {
	Probability          []float64             `json:"probability"`
	FeatureContributions []FeatureContribution `json:"feature_contributions"`
	ExplanationSummary   string                `json:"explanation_summary"`
	Prediction           bool                  `json:"prediction"`
}

// ChurnRiskLevel maps a churn probability to its display band.
func ChurnRiskLevel(probability float64) string {
	switch {
	case probability >= 0.7:
		return "High Risk"
	case probability >= 0.4:
		return "Medium Risk"
	default:
		return "Low Risk"
	}
}
