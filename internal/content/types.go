package content

// Hub is the documentation landing page and its guides.
type Hub struct {
	Title       string   `yaml:"title" json:"title" validate:"required"`
	Description string   `yaml:"description" json:"description"`
	Updates     []Update `yaml:"updates" json:"updates" validate:"dive"`
	Pages       []Page   `yaml:"pages" json:"pages" validate:"required,min=1,dive"`
}

// Update is a dated entry in the hub's recent updates list.
type Update struct {
	Title       string `yaml:"title" json:"title" validate:"required"`
	Date        string `yaml:"date" json:"date" validate:"required,datetime=2006-01-02"`
	Description string `yaml:"description" json:"description"`
}

// Page is one documentation guide.
type Page struct {
	Slug        string    `yaml:"slug" json:"slug" validate:"required"`
	Title       string    `yaml:"title" json:"title" validate:"required"`
	Description string    `yaml:"description" json:"description"`
	Topics      []string  `yaml:"topics" json:"topics"`
	Sections    []Section `yaml:"sections" json:"sections,omitempty" validate:"dive"`
}

// Section is a headed block of a page with optional example commands.
type Section struct {
	Heading  string   `yaml:"heading" json:"heading" validate:"required"`
	Body     string   `yaml:"body" json:"body"`
	Commands []string `yaml:"commands" json:"commands,omitempty"`
}

// Navigation groups every dashboard view under a titled section.
type Navigation struct {
	Brand    Brand        `yaml:"brand" json:"brand"`
	Sections []NavSection `yaml:"sections" json:"sections" validate:"required,min=1,dive"`
}

// Brand is the product name shown above the navigation.
type Brand struct {
	Name     string `yaml:"name" json:"name"`
	Icon     string `yaml:"icon" json:"icon"`
	Subtitle string `yaml:"subtitle" json:"subtitle"`
}

// NavSection is a titled group of navigation items.
type NavSection struct {
	Title string    `yaml:"title" json:"title" validate:"required"`
	Items []NavItem `yaml:"items" json:"items" validate:"required,min=1,dive"`
}

// NavItem links to one view by key.
type NavItem struct {
	Name        string `yaml:"name" json:"name" validate:"required"`
	Icon        string `yaml:"icon" json:"icon"`
	Key         string `yaml:"key" json:"key" validate:"required"`
	Description string `yaml:"description" json:"description"`
}

// Item returns the navigation entry with key.
func (n Navigation) Item(key string) (NavItem, bool) {
	for _, s := range n.Sections {
		for _, item := range s.Items {
			if item.Key == key {
				return item, true
			}
		}
	}
	return NavItem{}, false
}

// Endpoint documents one inference service route.
type Endpoint struct {
	Group           string      `yaml:"group" json:"group" validate:"required"`
	Method          string      `yaml:"method" json:"method" validate:"required,oneof=GET POST PUT DELETE"`
	Path            string      `yaml:"path" json:"path" validate:"required,startswith=/"`
	Description     string      `yaml:"description" json:"description"`
	Parameters      []Parameter `yaml:"parameters" json:"parameters,omitempty" validate:"dive"`
	ExampleRequest  string      `yaml:"example_request" json:"example_request,omitempty"`
	ExampleResponse string      `yaml:"example_response" json:"example_response,omitempty"`
}

// Parameter is a path or query parameter of an endpoint.
type Parameter struct {
	Name        string `yaml:"name" json:"name" validate:"required"`
	In          string `yaml:"in" json:"in" validate:"oneof=path query"`
	Type        string `yaml:"type" json:"type"`
	Description string `yaml:"description" json:"description"`
	Required    bool   `yaml:"required" json:"required"`
}

// Troubleshooting is the catalogue of known issues.
type Troubleshooting struct {
	Categories []IssueCategory `yaml:"categories" json:"categories" validate:"dive"`
	Issues     []Issue         `yaml:"issues" json:"issues" validate:"dive"`
}

// IssueCategory labels a group of issues.
type IssueCategory struct {
	Value string `yaml:"value" json:"value" validate:"required"`
	Label string `yaml:"label" json:"label"`
}

// Issue is a known problem with its symptoms and remedies.
type Issue struct {
	Title     string     `yaml:"title" json:"title" validate:"required"`
	Category  string     `yaml:"category" json:"category" validate:"required"`
	Severity  string     `yaml:"severity" json:"severity" validate:"oneof=critical high medium low"`
	Problem   string     `yaml:"problem" json:"problem"`
	Symptoms  []string   `yaml:"symptoms" json:"symptoms"`
	Solutions []Solution `yaml:"solutions" json:"solutions" validate:"dive"`
	Related   []string   `yaml:"related" json:"related,omitempty"`
	ID        int        `yaml:"id" json:"id" validate:"required"`
}

// Solution is one remedy step.
type Solution struct {
	Step        string `yaml:"step" json:"step" validate:"required"`
	Command     string `yaml:"command" json:"command,omitempty"`
	Description string `yaml:"description" json:"description"`
}

// Release is one changelog entry.
type Release struct {
	Version     string   `yaml:"version" json:"version" validate:"required"`
	Date        string   `yaml:"date" json:"date" validate:"required,datetime=2006-01-02"`
	Type        string   `yaml:"type" json:"type" validate:"oneof=major minor patch"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	Changes     []Change `yaml:"changes" json:"changes" validate:"dive"`
}

// Change is one item of a release.
type Change struct {
	Type        string   `yaml:"type" json:"type" validate:"oneof=added improved fixed deprecated removed"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	Details     []string `yaml:"details" json:"details"`
}

// FraudMonitoring is the reference data behind the fraud view.
type FraudMonitoring struct {
	Metrics          FraudMetrics     `yaml:"metrics" json:"metrics"`
	RiskDistribution []RiskShare      `yaml:"risk_distribution" json:"risk_distribution"`
	HourlyTrends     []FraudTrend     `yaml:"hourly_trends" json:"hourly_trends"`
	Detectors        []FraudDetector  `yaml:"detectors" json:"detectors"`
	RiskFactors      []FraudRiskScore `yaml:"risk_factors" json:"risk_factors"`
	Alerts           []FraudAlert     `yaml:"alerts" json:"alerts" validate:"dive"`
}

// FraudMetrics are headline fraud monitoring counters.
type FraudMetrics struct {
	TotalTransactions    int     `yaml:"total_transactions" json:"total_transactions"`
	FlaggedTransactions  int     `yaml:"flagged_transactions" json:"flagged_transactions"`
	ConfirmedFraud       int     `yaml:"confirmed_fraud" json:"confirmed_fraud"`
	FalsePositives       int     `yaml:"false_positives" json:"false_positives"`
	Accuracy             float64 `yaml:"accuracy" json:"accuracy"`
	DetectionTimeSeconds float64 `yaml:"detection_time_seconds" json:"detection_time_seconds"`
}

// RiskShare is the share of transactions at one risk level.
type RiskShare struct {
	Level      string  `yaml:"level" json:"level"`
	Percentage float64 `yaml:"percentage" json:"percentage"`
}

// FraudTrend is flagged and confirmed fraud in one time bucket.
type FraudTrend struct {
	Time      string  `yaml:"time" json:"time"`
	Flagged   int     `yaml:"flagged" json:"flagged"`
	Confirmed int     `yaml:"confirmed" json:"confirmed"`
	Amount    float64 `yaml:"amount" json:"amount"`
}

// FraudDetector reports one detection technique's performance.
type FraudDetector struct {
	Name              string  `yaml:"name" json:"name"`
	Accuracy          float64 `yaml:"accuracy" json:"accuracy"`
	FalsePositiveRate float64 `yaml:"false_positive_rate" json:"false_positive_rate"`
	DetectionRate     float64 `yaml:"detection_rate" json:"detection_rate"`
}

// FraudRiskScore is the weight of one risk factor.
type FraudRiskScore struct {
	Factor      string  `yaml:"factor" json:"factor"`
	Description string  `yaml:"description" json:"description"`
	Weight      float64 `yaml:"weight" json:"weight" validate:"gte=0,lte=1"`
}

// FraudAlert is a flagged transaction awaiting or past review.
type FraudAlert struct {
	ID        string  `yaml:"id" json:"id" validate:"required"`
	Customer  string  `yaml:"customer" json:"customer"`
	Reason    string  `yaml:"reason" json:"reason"`
	Status    string  `yaml:"status" json:"status"`
	Priority  string  `yaml:"priority" json:"priority" validate:"oneof=critical high medium low"`
	Timestamp string  `yaml:"timestamp" json:"timestamp"`
	RiskScore float64 `yaml:"risk_score" json:"risk_score" validate:"gte=0,lte=1"`
	Amount    float64 `yaml:"amount" json:"amount"`
}

// Segmentation is the reference data behind the segmentation view.
type Segmentation struct {
	Segments   []SegmentProfile   `yaml:"segments" json:"segments" validate:"required,dive"`
	Behavioral []BehavioralGroup  `yaml:"behavioral" json:"behavioral"`
	Migrations []SegmentMigration `yaml:"migrations" json:"migrations"`
	RFMScores  []RFMScore         `yaml:"rfm_scores" json:"rfm_scores"`
}

// SegmentProfile describes one RFM segment.
type SegmentProfile struct {
	Name            string   `yaml:"name" json:"name" validate:"required"`
	Description     string   `yaml:"description" json:"description"`
	Color           string   `yaml:"color" json:"color" validate:"omitempty,hexcolor"`
	Characteristics []string `yaml:"characteristics" json:"characteristics"`
	Size            int      `yaml:"size" json:"size"`
	Percentage      float64  `yaml:"percentage" json:"percentage"`
	AvgCLV          float64  `yaml:"avg_clv" json:"avg_clv"`
	AvgRecency      float64  `yaml:"avg_recency" json:"avg_recency"`
	AvgFrequency    float64  `yaml:"avg_frequency" json:"avg_frequency"`
	AvgMonetary     float64  `yaml:"avg_monetary" json:"avg_monetary"`
	Retention       float64  `yaml:"retention" json:"retention"`
	Satisfaction    float64  `yaml:"satisfaction" json:"satisfaction"`
}

// BehavioralGroup is a behaviour-based customer cluster.
type BehavioralGroup struct {
	Name       string  `yaml:"name" json:"name"`
	Size       int     `yaml:"size" json:"size"`
	Percentage float64 `yaml:"percentage" json:"percentage"`
}

// SegmentMigration counts customers moving between segments.
type SegmentMigration struct {
	From       string  `yaml:"from" json:"from"`
	To         string  `yaml:"to" json:"to"`
	Count      int     `yaml:"count" json:"count"`
	Percentage float64 `yaml:"percentage" json:"percentage"`
}

// RFMScore is the population score of one RFM dimension.
type RFMScore struct {
	Dimension   string `yaml:"dimension" json:"dimension"`
	Description string `yaml:"description" json:"description"`
	Score       int    `yaml:"score" json:"score"`
}

// ModelInsights is the reference data behind the model insights view.
type ModelInsights struct {
	Models         []ModelCard     `yaml:"models" json:"models" validate:"required,dive"`
	Trends         []AccuracyTrend `yaml:"trends" json:"trends"`
	Drift          []DriftMetric   `yaml:"drift" json:"drift"`
	ChurnRiskBands []ChurnRiskBand `yaml:"churn_risk_bands" json:"churn_risk_bands"`
}

// Model returns the card for key.
func (m ModelInsights) Model(key string) (ModelCard, bool) {
	for _, card := range m.Models {
		if card.Key == key {
			return card, true
		}
	}
	return ModelCard{}, false
}

// ModelCard summarizes one model's evaluation.
type ModelCard struct {
	Key            string              `yaml:"key" json:"key" validate:"required"`
	Name           string              `yaml:"name" json:"name"`
	Status         string              `yaml:"status" json:"status" validate:"oneof=healthy warning error"`
	LastTrained    string              `yaml:"last_trained" json:"last_trained" validate:"datetime=2006-01-02"`
	Features       []FeatureImportance `yaml:"features" json:"features"`
	Accuracy       float64             `yaml:"accuracy" json:"accuracy"`
	Precision      float64             `yaml:"precision" json:"precision"`
	Recall         float64             `yaml:"recall" json:"recall"`
	F1Score        float64             `yaml:"f1_score" json:"f1_score"`
	AUC            float64             `yaml:"auc" json:"auc"`
	Predictions    int                 `yaml:"predictions" json:"predictions"`
	FalsePositives int                 `yaml:"false_positives" json:"false_positives"`
	FalseNegatives int                 `yaml:"false_negatives" json:"false_negatives"`
}

// FeatureImportance is one model input and its weight.
type FeatureImportance struct {
	Feature     string  `yaml:"feature" json:"feature"`
	Description string  `yaml:"description" json:"description"`
	Importance  float64 `yaml:"importance" json:"importance"`
}

// AccuracyTrend is each model's accuracy in one period.
type AccuracyTrend struct {
	Period       string  `yaml:"period" json:"period"`
	Churn        float64 `yaml:"churn" json:"churn"`
	Fraud        float64 `yaml:"fraud" json:"fraud"`
	Segmentation float64 `yaml:"segmentation" json:"segmentation"`
}

// DriftMetric is one drift measure per model against its alert threshold.
type DriftMetric struct {
	Metric       string  `yaml:"metric" json:"metric"`
	Churn        float64 `yaml:"churn" json:"churn"`
	Fraud        float64 `yaml:"fraud" json:"fraud"`
	Segmentation float64 `yaml:"segmentation" json:"segmentation"`
	Threshold    float64 `yaml:"threshold" json:"threshold"`
}

// DriftStatus grades value against threshold: "alert" above it, "watch"
// above 80% of it, otherwise "ok".
func DriftStatus(value, threshold float64) string {
	switch {
	case value > threshold:
		return "alert"
	case value > threshold*0.8:
		return "watch"
	default:
		return "ok"
	}
}

// ChurnRiskBand is the population share of one churn risk band.
type ChurnRiskBand struct {
	Name       string  `yaml:"name" json:"name"`
	Percentage float64 `yaml:"percentage" json:"percentage"`
	Count      int     `yaml:"count" json:"count"`
}

// FeatureCatalog documents the engineered model inputs.
type FeatureCatalog struct {
	Categories []FeatureCategory `yaml:"categories" json:"categories" validate:"required,dive"`
	Pipeline   []PipelineStage   `yaml:"pipeline" json:"pipeline" validate:"dive"`
}

// FeatureCategory groups related features.
type FeatureCategory struct {
	Name     string        `yaml:"name" json:"name" validate:"required"`
	Features []FeatureInfo `yaml:"features" json:"features" validate:"dive"`
}

// FeatureInfo documents one feature.
type FeatureInfo struct {
	Name           string   `yaml:"name" json:"name" validate:"required"`
	Description    string   `yaml:"description" json:"description"`
	Type           string   `yaml:"type" json:"type" validate:"oneof=numerical categorical datetime derived"`
	DataType       string   `yaml:"data_type" json:"data_type"`
	Transformation string   `yaml:"transformation" json:"transformation"`
	Examples       []string `yaml:"examples" json:"examples"`
	Importance     float64  `yaml:"importance" json:"importance" validate:"gte=0,lte=1"`
}

// PipelineStage is one step of the feature pipeline.
type PipelineStage struct {
	Name     string `yaml:"name" json:"name" validate:"required"`
	Status   string `yaml:"status" json:"status" validate:"oneof=completed running pending failed"`
	Duration string `yaml:"duration" json:"duration,omitempty"`
}

// All returns every feature across categories.
func (c FeatureCatalog) All() []FeatureInfo {
	var out []FeatureInfo
	for _, cat := range c.Categories {
		out = append(out, cat.Features...)
	}
	return out
}
