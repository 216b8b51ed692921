package dashboard

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Veraticus/finsight/internal/model"
)

// AtRiskThreshold is the churn probability above which a customer is listed
// on the overview's at-risk table.
const AtRiskThreshold = 0.6

const atRiskListSize = 10

// OverviewMetrics are the headline cards of the executive overview.
type OverviewMetrics struct {
	TotalCustomers      int     `json:"total_customers"`
	TotalRevenue        float64 `json:"total_revenue"`
	AvgChurnProbability float64 `json:"avg_churn_probability"`
	HighRiskCustomers   int     `json:"high_risk_customers"`
}

// Slice is one bucket of a distribution.
type Slice struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// OverviewView is the executive overview page.
type OverviewView struct {
	GeneratedAt         time.Time                       `json:"generated_at"`
	Health              *model.Health                   `json:"health,omitempty"`
	Inference           *model.InferenceMetricsSnapshot `json:"inference,omitempty"`
	Error               string                          `json:"error,omitempty"`
	ServiceStatus       string                          `json:"service_status"`
	SegmentDistribution []Slice                         `json:"segment_distribution"`
	RiskDistribution    []Slice                         `json:"risk_distribution"`
	AtRisk              []model.Customer                `json:"at_risk"`
	Metrics             OverviewMetrics                 `json:"metrics"`
}

// Overview loads service health, the customer list and inference metrics
// concurrently. Only a failed customer load sets the banner.
func (b *Builder) Overview(ctx context.Context) *OverviewView {
	var (
		wg        sync.WaitGroup
		health    *model.Health
		healthErr error
		page      *model.CustomerPage
		listErr   error
		metrics   *model.InferenceMetrics
		metricErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		health, healthErr = b.api.Health(ctx)
	}()
	go func() {
		defer wg.Done()
		page, listErr = b.api.ListCustomers(ctx, model.CustomerQuery{})
	}()
	go func() {
		defer wg.Done()
		metrics, metricErr = b.api.Metrics(ctx)
	}()
	wg.Wait()

	view := &OverviewView{
		GeneratedAt:         b.now(),
		ServiceStatus:       "unreachable",
		SegmentDistribution: []Slice{},
		RiskDistribution:    []Slice{},
		AtRisk:              []model.Customer{},
	}

	if healthErr != nil {
		b.logger.Warn("Health check failed", "error", healthErr)
	} else {
		view.Health = health
		view.ServiceStatus = health.Status
	}
	if metricErr != nil {
		b.logger.Debug("Inference metrics unavailable", "error", metricErr)
	} else {
		view.Inference = &metrics.Metrics
	}

	if listErr != nil {
		b.logger.Error("Failed to load customers", "error", listErr)
		view.Error = bannerMessage(listErr)
		return view
	}

	customers := page.Customers
	view.Metrics = ComputeOverviewMetrics(customers)
	view.SegmentDistribution = Distribution(customers, func(c model.Customer) string { return string(c.Segment) })
	view.RiskDistribution = Distribution(customers, func(c model.Customer) string { return string(c.RiskLevel) })
	view.AtRisk = atRisk(customers, AtRiskThreshold, atRiskListSize)

	return view
}

// ComputeOverviewMetrics derives the headline metrics from a customer list.
func ComputeOverviewMetrics(customers []model.Customer) OverviewMetrics {
	m := OverviewMetrics{TotalCustomers: len(customers)}
	if len(customers) == 0 {
		return m
	}

	var churnSum float64
	for _, c := range customers {
		m.TotalRevenue += c.TotalAmount
		churnSum += c.ChurnProbability
		if c.ChurnProbability > model.HighRiskThreshold {
			m.HighRiskCustomers++
		}
	}
	m.AvgChurnProbability = churnSum / float64(len(customers))

	return m
}

// Distribution counts customers by key, labelling empty keys "Unknown".
// Buckets are ordered by descending count, then name.
func Distribution(customers []model.Customer, key func(model.Customer) string) []Slice {
	counts := make(map[string]int)
	for _, c := range customers {
		k := key(c)
		if k == "" {
			k = "Unknown"
		}
		counts[k]++
	}

	out := make([]Slice, 0, len(counts))
	for name, n := range counts {
		out = append(out, Slice{
			Name:       name,
			Count:      n,
			Percentage: float64(n) / float64(len(customers)) * 100,
		})
	}
	slices.SortFunc(out, func(a, b Slice) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// atRisk returns up to limit customers above threshold in listing order.
func atRisk(customers []model.Customer, threshold float64, limit int) []model.Customer {
	out := make([]model.Customer, 0, limit)
	for _, c := range customers {
		if len(out) == limit {
			break
		}
		if c.ChurnProbability > threshold {
			out = append(out, c)
		}
	}
	return out
}
