package dashboard

import (
	"context"
	"fmt"

	"github.com/Veraticus/finsight/internal/content"
	"github.com/Veraticus/finsight/internal/fallback"
	"github.com/Veraticus/finsight/internal/model"
)

const segmentationPageSize = 500

// SegmentActivity is the observed customer mix.
type SegmentActivity struct {
	Segments   []Slice `json:"segments"`
	RiskLevels []Slice `json:"risk_levels"`
	Customers  int     `json:"customers"`
}

// SegmentationView is the segmentation page: the observed segment mix and
// the RFM segment profiles.
type SegmentationView struct {
	Profiles content.Segmentation `json:"profiles"`
	Provenance
	Activity SegmentActivity `json:"activity"`
}

// Segmentation summarizes the segment mix of the customer base.
func (b *Builder) Segmentation(ctx context.Context) *SegmentationView {
	activity, prov := resolve(ctx, b, "segmentation",
		func(ctx context.Context) (SegmentActivity, error) {
			page, err := b.api.ListCustomers(ctx, model.CustomerQuery{PageSize: segmentationPageSize})
			if err != nil {
				return SegmentActivity{}, err
			}
			return segmentActivity(page.Customers), nil
		},
		func() SegmentActivity {
			return segmentActivity(fallback.SampleCustomers(b.cfg.SampleSize, b.cfg.SampleSeed))
		},
	)
	return &SegmentationView{Profiles: b.library.Segmentation, Provenance: prov, Activity: activity}
}

func segmentActivity(customers []model.Customer) SegmentActivity {
	return SegmentActivity{
		Customers:  len(customers),
		Segments:   Distribution(customers, func(c model.Customer) string { return string(c.Segment) }),
		RiskLevels: Distribution(customers, func(c model.Customer) string { return string(c.RiskLevel) }),
	}
}

// ModelActivity is the observed state of the deployed models.
type ModelActivity struct {
	Loaded            map[string]bool    `json:"loaded,omitempty"`
	Accuracy          map[string]float64 `json:"accuracy,omitempty"`
	PredictionsToday  int                `json:"predictions_today"`
	AvgResponseTimeMs float64            `json:"avg_response_time_ms"`
	ErrorRate         float64            `json:"error_rate"`
	UptimeHours       float64            `json:"uptime_hours"`
}

// ModelSummary is a model card with its observed state.
type ModelSummary struct {
	Loaded *bool `json:"loaded,omitempty"`
	content.ModelCard
}

// DriftRow is a drift metric with a status per model.
type DriftRow struct {
	Status map[string]string `json:"status"`
	content.DriftMetric
}

// ModelInsightsView is the model insights page.
type ModelInsightsView struct {
	Models []ModelSummary          `json:"models"`
	Trends []content.AccuracyTrend `json:"trends"`
	Drift  []DriftRow              `json:"drift"`
	Bands  []content.ChurnRiskBand `json:"churn_risk_bands"`
	Live   ModelActivity           `json:"live"`
	Provenance
}

// ModelInsights merges live model status and metrics into the model cards.
func (b *Builder) ModelInsights(ctx context.Context) *ModelInsightsView {
	activity, prov := resolve(ctx, b, "model-insights",
		func(ctx context.Context) (ModelActivity, error) {
			status, err := b.api.ModelsStatus(ctx)
			if err != nil {
				return ModelActivity{}, err
			}
			activity := ModelActivity{Loaded: status.Models}
			if metrics, err := b.api.Metrics(ctx); err == nil {
				m := metrics.Metrics
				activity.Accuracy = m.ModelAccuracy
				activity.PredictionsToday = m.TotalPredictionsToday
				activity.AvgResponseTimeMs = m.AvgResponseTimeMs
				activity.ErrorRate = m.ErrorRate
				activity.UptimeHours = m.UptimeHours
			} else {
				b.logger.Debug("Inference metrics unavailable", "error", err)
			}
			return activity, nil
		},
		func() ModelActivity { return ModelActivity{} },
	)

	insights := b.library.Models
	view := &ModelInsightsView{
		Trends:     insights.Trends,
		Bands:      insights.ChurnRiskBands,
		Live:       activity,
		Provenance: prov,
		Models:     make([]ModelSummary, 0, len(insights.Models)),
		Drift:      make([]DriftRow, 0, len(insights.Drift)),
	}

	for _, card := range insights.Models {
		summary := ModelSummary{ModelCard: card}
		if loaded, ok := activity.Loaded[card.Key]; ok {
			summary.Loaded = &loaded
			if !loaded {
				summary.Status = "error"
			}
		}
		if acc, ok := activity.Accuracy[card.Key]; ok {
			summary.Accuracy = AsPercent(acc)
		}
		view.Models = append(view.Models, summary)
	}

	for _, d := range insights.Drift {
		view.Drift = append(view.Drift, DriftRow{
			DriftMetric: d,
			Status: map[string]string{
				"churn":        content.DriftStatus(d.Churn, d.Threshold),
				"fraud":        content.DriftStatus(d.Fraud, d.Threshold),
				"segmentation": content.DriftStatus(d.Segmentation, d.Threshold),
			},
		})
	}

	return view
}

// AsPercent converts a ratio in [0, 1] to a percentage; larger values are
// assumed to be percentages already.
func AsPercent(v float64) float64 {
	if v <= 1 {
		return v * 100
	}
	return v
}

// FeatureEngineeringView is the feature engineering page, optionally with
// the feature contributions behind one customer's prediction.
type FeatureEngineeringView struct {
	Explanation *model.ModelExplanation `json:"explanation,omitempty"`
	CustomerID  string                  `json:"customer_id,omitempty"`
	Error       string                  `json:"error,omitempty"`
	Catalog     content.FeatureCatalog  `json:"catalog"`
}

// FeatureEngineering returns the feature catalogue. With a customerID it
// also asks the service to explain that customer's modelType prediction.
func (b *Builder) FeatureEngineering(ctx context.Context, customerID, modelType string) *FeatureEngineeringView {
	view := &FeatureEngineeringView{Catalog: b.library.Features, CustomerID: customerID}
	if customerID == "" {
		return view
	}
	if modelType == "" {
		modelType = "churn"
	}

	explanation, err := b.api.Explain(ctx, customerID, modelType)
	if err != nil {
		b.logger.Warn("Explanation unavailable", "customer_id", customerID, "model_type", modelType, "error", err)
		view.Error = fmt.Sprintf("Could not explain the %s prediction for %s.", modelType, customerID)
		return view
	}
	view.Explanation = explanation
	return view
}

// EndpointGroup is the API catalogue entries of one group.
type EndpointGroup struct {
	Name      string             `json:"name"`
	Endpoints []content.Endpoint `json:"endpoints"`
}

// APIDocumentationView is the API documentation page.
type APIDocumentationView struct {
	Groups []EndpointGroup `json:"groups"`
}

// APIDocumentation groups the endpoint catalogue in display order.
func (b *Builder) APIDocumentation() *APIDocumentationView {
	names := b.library.EndpointGroups()
	view := &APIDocumentationView{Groups: make([]EndpointGroup, 0, len(names))}
	for _, name := range names {
		group := EndpointGroup{Name: name}
		for _, e := range b.library.Endpoints {
			if e.Group == name {
				group.Endpoints = append(group.Endpoints, e)
			}
		}
		view.Groups = append(view.Groups, group)
	}
	return view
}
