package model

// Health is the basic health report of the inference service.
type Health struct {
	ModelsLoaded map[string]bool `json:"models_loaded"`
	Timestamp    Timestamp       `json:"timestamp"`
	Status       string          `json:"status"`
	Version      string          `json:"version"`
}

// Healthy reports whether the service declared itself healthy.
func (h Health) Healthy() bool {
	return h.Status == "healthy"
}

// ModelLoadState reports whether one model is loaded.
type ModelLoadState struct {
	LastTrained *Timestamp `json:"last_trained"`
	Loaded      bool       `json:"loaded"`
}

// DetailedHealth adds host and model details to Health.
type DetailedHealth struct {
	SystemMetrics map[string]float64        `json:"system_metrics,omitempty"`
	ModelsStatus  map[string]ModelLoadState `json:"models_status,omitempty"`
	Environment   map[string]string         `json:"environment,omitempty"`
	Timestamp     Timestamp                 `json:"timestamp"`
	Status        string                    `json:"status"`
	Version       string                    `json:"version,omitempty"`
	Error         string                    `json:"error,omitempty"`
}

// Readiness is the readiness probe result.
type Readiness struct {
	Services map[string]bool `json:"services"`
	Status   string          `json:"status"`
}

// Ready reports whether every dependent service is ready.
func (r Readiness) Ready() bool {
	return r.Status == "ready"
}

// Liveness is the liveness probe result.
type Liveness struct {
	Timestamp Timestamp `json:"timestamp"`
	Status    string    `json:"status"`
}

// ModelsStatus lists which models are loaded.
type ModelsStatus struct {
	Models       map[string]bool `json:"models"`
	Timestamp    Timestamp       `json:"timestamp"`
	TotalModels  int             `json:"total_models"`
	LoadedModels int             `json:"loaded_models"`
}

// ReloadResponse acknowledges a model reload request.
type ReloadResponse struct {
	Timestamp Timestamp `json:"timestamp"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
}

// InferenceMetricsSnapshot holds the operational counters of the service.
type InferenceMetricsSnapshot struct {
	ModelAccuracy         map[string]float64 `json:"model_accuracy"`
	TotalPredictionsToday int                `json:"total_predictions_today"`
	AvgResponseTimeMs     float64            `json:"avg_response_time_ms"`
	ErrorRate             float64            `json:"error_rate"`
	HighRiskAlerts        int                `json:"high_risk_alerts"`
	UptimeHours           float64            `json:"uptime_hours"`
}

// InferenceMetrics is the metrics endpoint payload.
type InferenceMetrics struct {
	Timestamp Timestamp                `json:"timestamp"`
	Status    string                   `json:"status"`
	Metrics   InferenceMetricsSnapshot `json:"metrics"`
}

// BatchProcessRequest asks the service to process a data source offline.
type BatchProcessRequest struct {
	Parameters     map[string]any `json:"parameters,omitempty"`
	DataSource     string         `json:"data_source" validate:"required"`
	ProcessingType string         `json:"processing_type" validate:"required,oneof=churn segment fraud"`
}

// BatchProcessResponse acknowledges a batch job.
type BatchProcessResponse struct {
	JobID             string `json:"job_id"`
	Status            string `json:"status"`
	Message           string `json:"message"`
	EstimatedDuration string `json:"estimated_duration"`
}
