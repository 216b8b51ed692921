package content

import (
	"testing"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadLibrary(t *testing.T) *Library {
	t.Helper()
	lib, err := Load()
	require.NoError(t, err)
	return lib
}

func TestLoad(t *testing.T) {
	lib := loadLibrary(t)

	assert.Equal(t, []string{"setup", "implementation", "deployment", "churn-prediction", "troubleshooting", "changelog"}, lib.Slugs())
	assert.Len(t, lib.Navigation.Sections, 3)
	assert.Len(t, lib.Troubleshooting.Issues, 6)
	assert.Len(t, lib.Changelog, 5)
	assert.Equal(t, "0.0.9", lib.Changelog[0].Version)
	assert.Len(t, lib.Segmentation.Segments, 6)
	assert.Len(t, lib.Fraud.Alerts, 4)
	assert.Len(t, lib.Features.All(), 10)
	assert.Equal(t, 1247891, lib.Fraud.Metrics.TotalTransactions)
}

func TestDefaultIsShared(t *testing.T) {
	a, err := Default()
	require.NoError(t, err)
	b, err := Default()
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestSegmentShares(t *testing.T) {
	lib := loadLibrary(t)

	var size int
	var share float64
	for _, s := range lib.Segmentation.Segments {
		size += s.Size
		share += s.Percentage
	}
	assert.Equal(t, 8200, size)
	assert.InDelta(t, 100, share, 0.1)
}

func TestEndpointsCoverClientRoutes(t *testing.T) {
	lib := loadLibrary(t)

	routes := map[string]bool{}
	for _, e := range lib.Endpoints {
		routes[e.Method+" "+e.Path] = true
	}
	for _, want := range []string{
		"GET /health",
		"GET /health/detailed",
		"GET /ready",
		"GET /live",
		"GET /models/status",
		"POST /models/reload",
		"GET /api/v1/customers",
		"GET /api/v1/customers/{customer_id}",
		"GET /api/v1/customers/{customer_id}/transactions",
		"GET /api/v1/analytics/customers",
		"GET /api/v1/analytics/transactions",
		"POST /api/v1/inference/churn-score",
		"POST /api/v1/inference/churn-batch",
		"POST /api/v1/inference/segment",
		"POST /api/v1/inference/fraud-detection",
		"POST /api/v1/inference/batch-process",
		"GET /api/v1/inference/explain",
		"GET /api/v1/inference/metrics",
	} {
		assert.True(t, routes[want], want)
	}
	assert.Equal(t, []string{"Health", "Models", "Customers", "Analytics", "Inference"}, lib.EndpointGroups())
}

func TestPage(t *testing.T) {
	lib := loadLibrary(t)

	page, err := lib.Page(" Churn-Prediction ")
	require.NoError(t, err)
	assert.Equal(t, "Churn Prediction Guide", page.Title)
	assert.NotEmpty(t, page.Sections)

	_, err = lib.Page("missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestIssues(t *testing.T) {
	lib := loadLibrary(t)

	tests := []struct {
		name     string
		category string
		pattern  string
		want     []int
	}{
		{name: "everything", want: []int{1, 2, 3, 4, 5, 6}},
		{name: "all category", category: "all", want: []int{1, 2, 3, 4, 5, 6}},
		{name: "by category", category: "database", want: []int{3}},
		{name: "by symptom or step", pattern: "timeout", want: []int{3, 4, 5}},
		{name: "case insensitive", pattern: "UNAUTHORIZED", want: []int{6}},
		{name: "category and pattern", category: "api", pattern: "memory", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues, err := lib.Issues(tt.category, tt.pattern)
			require.NoError(t, err)
			var ids []int
			for _, i := range issues {
				ids = append(ids, i.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestSearch(t *testing.T) {
	lib := loadLibrary(t)

	hits, err := lib.Search("fallback")
	require.NoError(t, err)
	var pages []string
	for _, h := range hits {
		if h.Kind == KindPage {
			pages = append(pages, h.Ref)
		}
	}
	assert.Equal(t, []string{"setup", "churn-prediction"}, pages)

	hits, err = lib.Search("explain")
	require.NoError(t, err)
	assert.Contains(t, hits, Hit{
		Kind:    KindEndpoint,
		Ref:     "GET /api/v1/inference/explain",
		Title:   "GET /api/v1/inference/explain",
		Summary: "Feature contributions behind one prediction",
	})

	hits, err = lib.Search("volatility")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, KindFeature, hits[0].Kind)

	_, err = lib.Search("(")
	require.Error(t, err)
	var userErr *common.UserError
	assert.ErrorAs(t, err, &userErr)
}

func TestNavigationItem(t *testing.T) {
	lib := loadLibrary(t)

	item, ok := lib.Navigation.Item("fraud")
	require.True(t, ok)
	assert.Equal(t, "Fraud Detection", item.Name)

	_, ok = lib.Navigation.Item("customer-management")
	assert.False(t, ok)
}

func TestModelCards(t *testing.T) {
	lib := loadLibrary(t)

	churn, ok := lib.Models.Model("churn")
	require.True(t, ok)
	assert.InDelta(t, 87.3, churn.Accuracy, 1e-9)
	assert.Len(t, churn.Features, 7)

	seg, ok := lib.Models.Model("segmentation")
	require.True(t, ok)
	assert.Equal(t, "warning", seg.Status)
}

func TestDriftStatus(t *testing.T) {
	assert.Equal(t, "alert", DriftStatus(0.25, 0.2))
	assert.Equal(t, "watch", DriftStatus(0.18, 0.2))
	assert.Equal(t, "ok", DriftStatus(0.12, 0.2))
}
