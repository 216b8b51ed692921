package model

import (
	"encoding/json"
	"time"
)

// ProbeResult is the outcome of an ad hoc request against any endpoint.
// Either Data or Error is set; StatusCode is zero when no response arrived.
type ProbeResult struct {
	Data         json.RawMessage `json:"data,omitempty"`
	Method       string          `json:"method"`
	Path         string          `json:"path"`
	Error        string          `json:"error,omitempty"`
	StatusCode   int             `json:"status_code,omitempty"`
	ResponseTime time.Duration   `json:"-"`
}

// ResponseTimeMs reports the latency in milliseconds.
func (p ProbeResult) ResponseTimeMs() float64 {
	return float64(p.ResponseTime) / float64(time.Millisecond)
}

// MarshalJSON adds the latency in milliseconds.
func (p ProbeResult) MarshalJSON() ([]byte, error) {
	type alias ProbeResult
	return json.Marshal(struct {
		alias
		ResponseTimeMs float64 `json:"response_time_ms"`
	}{alias: alias(p), ResponseTimeMs: p.ResponseTimeMs()})
}

// OK reports whether the probe received a 2xx response.
func (p ProbeResult) OK() bool {
	return p.Error == "" && p.StatusCode >= 200 && p.StatusCode < 300
}

// PredictionSource records where a stored prediction came from.
type PredictionSource string

// Prediction sources.
const (
	SourceLive      PredictionSource = "live"
	SourceHeuristic PredictionSource = "heuristic"
	SourceProfile   PredictionSource = "profile"
)

// PredictionRecord is a churn prediction kept in local history.
type PredictionRecord struct {
	PredictedAt      time.Time        `json:"predicted_at"`
	CustomerID       string           `json:"customer_id"`
	RiskCategory     string           `json:"risk_category"`
	Source           PredictionSource `json:"source"`
	ID               int64            `json:"id"`
	ChurnProbability float64          `json:"churn_probability"`
	Confidence       float64          `json:"confidence"`
}
