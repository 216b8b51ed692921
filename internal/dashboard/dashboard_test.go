package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/Veraticus/finsight/internal/config"
	"github.com/Veraticus/finsight/internal/content"
	"github.com/Veraticus/finsight/internal/fallback"
	"github.com/Veraticus/finsight/internal/inference"
	"github.com/Veraticus/finsight/internal/model"
	"github.com/Veraticus/finsight/internal/service"
	"github.com/Veraticus/finsight/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct {
	service.InferenceAPI
	mock.Mock
}

func (m *mockAPI) Health(ctx context.Context) (*model.Health, error) {
	args := m.Called(ctx)
	if h, ok := args.Get(0).(*model.Health); ok {
		return h, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) Metrics(ctx context.Context) (*model.InferenceMetrics, error) {
	args := m.Called(ctx)
	if metrics, ok := args.Get(0).(*model.InferenceMetrics); ok {
		return metrics, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) ListCustomers(ctx context.Context, query model.CustomerQuery) (*model.CustomerPage, error) {
	args := m.Called(ctx, query)
	if page, ok := args.Get(0).(*model.CustomerPage); ok {
		return page, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) GetCustomer(ctx context.Context, customerID string) (*model.CustomerDetail, error) {
	args := m.Called(ctx, customerID)
	if detail, ok := args.Get(0).(*model.CustomerDetail); ok {
		return detail, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) CustomerTransactions(ctx context.Context, customerID string, query model.TransactionQuery) (*model.TransactionPage, error) {
	args := m.Called(ctx, customerID, query)
	if page, ok := args.Get(0).(*model.TransactionPage); ok {
		return page, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) CustomerAnalytics(ctx context.Context) (*model.CustomerAnalytics, error) {
	args := m.Called(ctx)
	if a, ok := args.Get(0).(*model.CustomerAnalytics); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) TransactionAnalytics(ctx context.Context, days int) (*model.TransactionAnalytics, error) {
	args := m.Called(ctx, days)
	if a, ok := args.Get(0).(*model.TransactionAnalytics); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) PredictChurn(ctx context.Context, req model.ChurnPredictionRequest) (*model.ChurnPrediction, error) {
	args := m.Called(ctx, req)
	if p, ok := args.Get(0).(*model.ChurnPrediction); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) PredictChurnBatch(ctx context.Context, reqs []model.ChurnPredictionRequest) (*model.ChurnBatchResponse, error) {
	args := m.Called(ctx, reqs)
	if resp, ok := args.Get(0).(*model.ChurnBatchResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) ModelsStatus(ctx context.Context) (*model.ModelsStatus, error) {
	args := m.Called(ctx)
	if s, ok := args.Get(0).(*model.ModelsStatus); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) Explain(ctx context.Context, customerID, modelType string) (*model.ModelExplanation, error) {
	args := m.Called(ctx, customerID, modelType)
	if e, ok := args.Get(0).(*model.ModelExplanation); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

var (
	errDown  = fmt.Errorf("%w: connection refused", common.ErrUnavailable)
	fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
)

func library(t *testing.T) *content.Library {
	t.Helper()
	lib, err := content.Default()
	require.NoError(t, err)
	return lib
}

func testStore(t *testing.T) *storage.Store {
	t.Helper()
	ctx := context.Background()
	store, err := storage.Open(ctx, storage.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newBuilder(t *testing.T, api service.InferenceAPI, opts ...Option) *Builder {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(api, library(t), opts...)
}

func sampleRoster() []model.Customer {
	return []model.Customer{
		{CustomerID: "A", ChurnProbability: 0.8, Segment: model.SegmentHighValue, RiskLevel: model.RiskHigh, TotalAmount: 100},
		{CustomerID: "B", ChurnProbability: 0.65, Segment: model.SegmentAtRisk, RiskLevel: model.RiskMedium, TotalAmount: -50},
		{CustomerID: "C", ChurnProbability: 0.2, Segment: model.SegmentHighValue, RiskLevel: model.RiskLow, TotalAmount: 200},
		{CustomerID: "D", ChurnProbability: 0.71, TotalAmount: 0},
	}
}

func TestOverview(t *testing.T) {
	api := &mockAPI{}
	api.On("Health", mock.Anything).Return(&model.Health{Status: "healthy"}, nil)
	api.On("ListCustomers", mock.Anything, model.CustomerQuery{}).Return(&model.CustomerPage{Customers: sampleRoster()}, nil)
	api.On("Metrics", mock.Anything).Return(&model.InferenceMetrics{Metrics: model.InferenceMetricsSnapshot{HighRiskAlerts: 3}}, nil)

	view := newBuilder(t, api).Overview(context.Background())

	assert.Empty(t, view.Error)
	assert.Equal(t, "healthy", view.ServiceStatus)
	assert.Equal(t, fixedNow, view.GeneratedAt)
	require.NotNil(t, view.Inference)
	assert.Equal(t, 3, view.Inference.HighRiskAlerts)

	assert.Equal(t, 4, view.Metrics.TotalCustomers)
	assert.InDelta(t, 250, view.Metrics.TotalRevenue, 1e-9)
	assert.InDelta(t, 0.59, view.Metrics.AvgChurnProbability, 1e-9)
	assert.Equal(t, 2, view.Metrics.HighRiskCustomers)

	assert.Equal(t, []Slice{
		{Name: "High Value", Count: 2, Percentage: 50},
		{Name: "At Risk", Count: 1, Percentage: 25},
		{Name: "Unknown", Count: 1, Percentage: 25},
	}, view.SegmentDistribution)
	assert.Len(t, view.RiskDistribution, 4)

	var ids []string
	for _, c := range view.AtRisk {
		ids = append(ids, c.CustomerID)
	}
	assert.Equal(t, []string{"A", "B", "D"}, ids)
	api.AssertExpectations(t)
}

func TestOverviewBanner(t *testing.T) {
	tests := []struct {
		name    string
		listErr error
		want    string
	}{
		{name: "unexpected format", listErr: fmt.Errorf("%w: junk", common.ErrUnexpectedFormat), want: MsgUnexpectedFormat},
		{name: "service down", listErr: errDown, want: MsgLoadFailed},
		{name: "any other failure", listErr: errors.New("boom"), want: MsgLoadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockAPI{}
			api.On("Health", mock.Anything).Return(nil, errDown)
			api.On("ListCustomers", mock.Anything, mock.Anything).Return(nil, tt.listErr)
			api.On("Metrics", mock.Anything).Return(nil, errDown)

			view := newBuilder(t, api).Overview(context.Background())
			assert.Equal(t, tt.want, view.Error)
			assert.Equal(t, "unreachable", view.ServiceStatus)
			assert.Nil(t, view.Health)
			assert.Zero(t, view.Metrics)
			assert.Empty(t, view.AtRisk)
		})
	}
}

func TestComputeOverviewMetricsEmpty(t *testing.T) {
	assert.Equal(t, OverviewMetrics{}, ComputeOverviewMetrics(nil))
	assert.Empty(t, Distribution(nil, func(c model.Customer) string { return c.CustomerID }))
}

func TestChurn(t *testing.T) {
	api := &mockAPI{}
	api.On("ListCustomers", mock.Anything, model.CustomerQuery{RiskLevel: model.RiskHigh}).
		Return(&model.CustomerPage{Customers: sampleRoster()}, nil)

	view := newBuilder(t, api).Churn(context.Background(), model.CustomerQuery{RiskLevel: model.RiskHigh})
	assert.Empty(t, view.Error)
	assert.Equal(t, 4, view.TotalCustomers)
	assert.Len(t, view.Customers, 4)
	assert.Equal(t, RiskBands{High: 2, Medium: 1, Low: 1}, view.Bands)

	down := &mockAPI{}
	down.On("ListCustomers", mock.Anything, mock.Anything).Return(nil, errDown)
	view = newBuilder(t, down).Churn(context.Background(), model.CustomerQuery{})
	assert.Equal(t, MsgLoadFailed, view.Error)
	assert.NotNil(t, view.Customers)
}

func TestBandsBoundaries(t *testing.T) {
	customers := []model.Customer{
		{ChurnProbability: 0.7}, {ChurnProbability: 0.4}, {ChurnProbability: 0.39}, {ChurnProbability: 0.71},
	}
	assert.Equal(t, RiskBands{High: 1, Medium: 2, Low: 1}, Bands(customers))
}

func TestCustomerAnalytics(t *testing.T) {
	api := &mockAPI{}
	api.On("CustomerAnalytics", mock.Anything).
		Return(&model.CustomerAnalytics{Demographics: model.CustomerDemographics{TotalCustomers: 9}}, nil).Once()
	api.On("CustomerAnalytics", mock.Anything).Return(nil, errDown).Once()

	b := newBuilder(t, api)
	view := b.CustomerAnalytics(context.Background())
	require.NotNil(t, view.Analytics)
	assert.Equal(t, 9, view.Analytics.Demographics.TotalCustomers)

	view = b.CustomerAnalytics(context.Background())
	assert.Nil(t, view.Analytics)
	assert.Equal(t, MsgLoadFailed, view.Error)
}

func TestCustomer(t *testing.T) {
	api := &mockAPI{}
	api.On("GetCustomer", mock.Anything, "CUST_1").
		Return(&model.CustomerDetail{Customer: model.Customer{CustomerID: "CUST_1"}}, nil)
	api.On("CustomerTransactions", mock.Anything, "CUST_1", model.TransactionQuery{PageSize: 5}).
		Return(nil, errDown)
	api.On("GetCustomer", mock.Anything, "CUST_404").Return(nil, common.ErrNotFound)

	b := newBuilder(t, api)
	view := b.Customer(context.Background(), "CUST_1", model.TransactionQuery{PageSize: 5})
	assert.Empty(t, view.Error)
	require.NotNil(t, view.Detail)
	assert.Empty(t, view.Transactions)

	view = b.Customer(context.Background(), "CUST_404", model.TransactionQuery{})
	assert.Equal(t, MsgCustomerNotFound, view.Error)
	assert.True(t, view.NotFound)
	assert.Nil(t, view.Detail)

	api.On("GetCustomer", mock.Anything, "CUST_DOWN").Return(nil, errDown)
	view = b.Customer(context.Background(), "CUST_DOWN", model.TransactionQuery{})
	assert.Equal(t, MsgLoadFailed, view.Error)
	assert.False(t, view.NotFound)
}

func TestPredictChurn(t *testing.T) {
	ctx := context.Background()
	req := model.ChurnPredictionRequest{
		CustomerID:               "CUST_1",
		DaysSinceLastTransaction: 90,
		TotalTransactions:        3,
		AvgTransactionAmount:     20,
		TotalAmount:              -100,
	}

	t.Run("live", func(t *testing.T) {
		store := testStore(t)
		api := &mockAPI{}
		api.On("PredictChurn", mock.Anything, req).
			Return(&model.ChurnPrediction{CustomerID: "CUST_1", ChurnProbability: 0.42, Confidence: 0.9}, nil)

		view, err := newBuilder(t, api, WithStorage(store)).PredictChurn(ctx, req, nil)
		require.NoError(t, err)
		assert.Equal(t, model.SourceLive, view.Source)
		assert.Empty(t, view.Notice)

		history, err := store.PredictionHistory(ctx, "CUST_1", 10)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, model.SourceLive, history[0].Source)
		assert.InDelta(t, 0.42, history[0].ChurnProbability, 1e-9)
	})

	t.Run("heuristic", func(t *testing.T) {
		store := testStore(t)
		api := &mockAPI{}
		api.On("PredictChurn", mock.Anything, req).Return(nil, errDown)

		view, err := newBuilder(t, api, WithStorage(store)).PredictChurn(ctx, req, nil)
		require.NoError(t, err)
		assert.Equal(t, model.SourceHeuristic, view.Source)
		assert.NotEmpty(t, view.Notice)
		// 0.1 + 0.3 recency + 0.25 frequency + 0.2 average
		assert.InDelta(t, 0.85, view.Prediction.ChurnProbability, 1e-9)
		assert.InDelta(t, fallback.FallbackConfidence, view.Prediction.Confidence, 1e-9)

		history, err := store.PredictionHistory(ctx, "CUST_1", 10)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, model.SourceHeuristic, history[0].Source)
	})

	t.Run("profile", func(t *testing.T) {
		api := &mockAPI{}
		api.On("PredictChurn", mock.Anything, req).Return(nil, errDown)
		profile := &model.Customer{CustomerID: "CUST_1", ChurnProbability: 0.33}

		view, err := newBuilder(t, api).PredictChurn(ctx, req, profile)
		require.NoError(t, err)
		assert.Equal(t, model.SourceProfile, view.Source)
		assert.InDelta(t, 0.33, view.Prediction.ChurnProbability, 1e-9)
		assert.Equal(t, "Low Risk", view.Prediction.RiskCategory)
	})

	t.Run("local validation failure is returned", func(t *testing.T) {
		api := &mockAPI{}
		api.On("PredictChurn", mock.Anything, mock.Anything).
			Return(nil, common.NewValidationError(errors.New("customer_id required")))

		_, err := newBuilder(t, api).PredictChurn(ctx, model.ChurnPredictionRequest{}, nil)
		assert.ErrorIs(t, err, common.ErrBadRequest)
		assert.True(t, common.IsValidation(err))
	})

	t.Run("service rejection falls back", func(t *testing.T) {
		api := &mockAPI{}
		api.On("PredictChurn", mock.Anything, req).
			Return(nil, &inference.APIError{StatusCode: http.StatusUnprocessableEntity, Message: "field required"})

		view, err := newBuilder(t, api).PredictChurn(ctx, req, nil)
		require.NoError(t, err)
		assert.Equal(t, model.SourceHeuristic, view.Source)
		assert.NotEmpty(t, view.Notice)
	})
}

func TestScoreBatch(t *testing.T) {
	reqs := make([]model.ChurnPredictionRequest, 5)
	for i := range reqs {
		reqs[i] = model.ChurnPredictionRequest{CustomerID: fmt.Sprintf("C%d", i), DaysSinceLastTransaction: 10, TotalTransactions: 20, AvgTransactionAmount: 100}
	}

	live := func(ids ...string) *model.ChurnBatchResponse {
		resp := &model.ChurnBatchResponse{}
		for _, id := range ids {
			resp.Predictions = append(resp.Predictions, model.ChurnPrediction{CustomerID: id, ChurnProbability: 0.8, ChurnPrediction: true, Confidence: 0.9})
		}
		return resp
	}

	api := &mockAPI{}
	api.On("PredictChurnBatch", mock.Anything, reqs[0:2]).Return(live("C0", "C1"), nil)
	api.On("PredictChurnBatch", mock.Anything, reqs[2:4]).Return(nil, errDown)
	api.On("PredictChurnBatch", mock.Anything, reqs[4:5]).Return(live("C4"), nil)

	store := testStore(t)
	var progress []int
	result, err := newBuilder(t, api, WithStorage(store)).
		ScoreBatch(context.Background(), reqs, 2, func(done int) { progress = append(progress, done) })
	require.NoError(t, err)

	assert.Equal(t, []int{2, 4, 5}, progress)
	assert.Equal(t, 2, result.Fallbacks)
	require.Len(t, result.Predictions, 5)
	assert.Equal(t, "C2", result.Predictions[2].CustomerID)
	assert.InDelta(t, 0.1, result.Predictions[2].ChurnProbability, 1e-9)

	assert.Equal(t, 5, result.Summary.TotalCustomers)
	assert.Equal(t, 3, result.Summary.PredictedChurners)
	assert.Equal(t, 3, result.Summary.HighRiskCustomers)
	assert.InDelta(t, (0.8*3+0.1*2)/5, result.Summary.AvgChurnProbability, 1e-9)

	history, err := store.PredictionHistory(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Len(t, history, 5)
}

func TestScoreBatchStopsOnInvalidInput(t *testing.T) {
	api := &mockAPI{}
	api.On("PredictChurnBatch", mock.Anything, mock.Anything).
		Return(nil, common.NewValidationError(errors.New("customer_id required")))

	_, err := newBuilder(t, api).ScoreBatch(context.Background(), []model.ChurnPredictionRequest{{CustomerID: "C"}}, 0, nil)
	assert.ErrorIs(t, err, common.ErrBadRequest)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = newBuilder(t, api).ScoreBatch(ctx, []model.ChurnPredictionRequest{{CustomerID: "C"}}, 0, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScoreBatchFallsBackOnServiceRejection(t *testing.T) {
	api := &mockAPI{}
	api.On("PredictChurnBatch", mock.Anything, mock.Anything).
		Return(nil, &inference.APIError{StatusCode: http.StatusBadRequest, Message: "bad payload"})

	reqs := []model.ChurnPredictionRequest{{CustomerID: "C", DaysSinceLastTransaction: 90, TotalTransactions: 2}}
	result, err := newBuilder(t, api).ScoreBatch(context.Background(), reqs, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Fallbacks)
	require.Len(t, result.Predictions, 1)
	assert.Equal(t, "C", result.Predictions[0].CustomerID)
}

func TestTransactionAnalyticsFallback(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	liveAnalytics := &model.TransactionAnalytics{
		Period:  model.AnalyticsPeriod{Days: 7},
		Summary: model.TransactionSummaryStats{TotalTransactions: 123},
	}

	api := &mockAPI{}
	api.On("TransactionAnalytics", mock.Anything, 7).Return(liveAnalytics, nil).Once()
	api.On("TransactionAnalytics", mock.Anything, 7).Return(nil, errDown)
	api.On("TransactionAnalytics", mock.Anything, 14).Return(nil, errDown)

	b := newBuilder(t, api, WithStorage(store))

	view, err := b.TransactionAnalytics(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, view.Source)
	assert.Nil(t, view.AsOf)

	view, err = b.TransactionAnalytics(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, SourceSnapshot, view.Source)
	assert.NotNil(t, view.AsOf)
	assert.NotEmpty(t, view.Notice)
	assert.Equal(t, 123, view.Analytics.Summary.TotalTransactions)

	view, err = b.TransactionAnalytics(ctx, 14)
	require.NoError(t, err)
	assert.Equal(t, SourceSample, view.Source)
	assert.Equal(t, fallback.SampleTransactionAnalytics(14, fixedNow, fallback.DefaultSeed), view.Analytics)
}

func TestTransactionAnalyticsDays(t *testing.T) {
	api := &mockAPI{}
	api.On("TransactionAnalytics", mock.Anything, 30).Return(&model.TransactionAnalytics{}, nil)

	b := newBuilder(t, api)
	view, err := b.TransactionAnalytics(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, view.Source)

	for _, days := range []int{-1, 366} {
		_, err := b.TransactionAnalytics(context.Background(), days)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrBadRequest)
		assert.Equal(t, "days must be between 1 and 365", common.UserMessage(err, ""))
	}
}

func TestFraud(t *testing.T) {
	analytics := &model.TransactionAnalytics{
		Period:  model.AnalyticsPeriod{Days: 2},
		Summary: model.TransactionSummaryStats{TotalTransactions: 300, FraudTransactions: 6, FraudRate: 0.02, TotalVolume: 4500},
		DailyTrends: []model.DailyTrend{
			{Date: "2024-06-14", TransactionCount: 100, FraudCount: 1},
			{Date: "2024-06-15", TransactionCount: 0, FraudCount: 0},
		},
		CategoryBreakdown: []model.CategoryBreakdown{
			{Category: "grocery", FraudCount: 1},
			{Category: "retail", FraudCount: 4},
			{Category: "gas", FraudCount: 1},
		},
	}

	api := &mockAPI{}
	api.On("TransactionAnalytics", mock.Anything, 2).Return(analytics, nil)
	api.On("Metrics", mock.Anything).Return(&model.InferenceMetrics{Metrics: model.InferenceMetricsSnapshot{HighRiskAlerts: 7}}, nil)

	view, err := newBuilder(t, api).Fraud(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, view.Source)
	assert.Equal(t, 7, view.Activity.HighRiskAlerts)
	assert.Equal(t, 6, view.Activity.FraudTransactions)
	assert.Equal(t, []FraudDay{
		{Date: "2024-06-14", Transactions: 100, Fraud: 1, Rate: 0.01},
		{Date: "2024-06-15"},
	}, view.Activity.Daily)
	assert.Equal(t, []string{"retail", "grocery", "gas"}, []string{
		view.Activity.Categories[0].Category,
		view.Activity.Categories[1].Category,
		view.Activity.Categories[2].Category,
	})
	assert.Len(t, view.Reference.Detectors, 6)

	// Sorting must not reorder the caller's analytics.
	assert.Equal(t, "grocery", analytics.CategoryBreakdown[0].Category)
}

func TestFraudSample(t *testing.T) {
	api := &mockAPI{}
	api.On("TransactionAnalytics", mock.Anything, 30).Return(nil, errDown)

	view, err := newBuilder(t, api).Fraud(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, SourceSample, view.Source)
	assert.Equal(t, 30, view.Activity.Days)
	assert.Len(t, view.Activity.Daily, 30)
	assert.Positive(t, view.Activity.Transactions)
}

func TestSegmentation(t *testing.T) {
	api := &mockAPI{}
	api.On("ListCustomers", mock.Anything, model.CustomerQuery{PageSize: segmentationPageSize}).
		Return(&model.CustomerPage{Customers: sampleRoster()}, nil).Once()
	api.On("ListCustomers", mock.Anything, mock.Anything).Return(nil, errDown)

	cfg := DefaultConfig()
	cfg.SampleSize = 50
	b := newBuilder(t, api, WithConfig(cfg))

	view := b.Segmentation(context.Background())
	assert.Equal(t, SourceLive, view.Source)
	assert.Equal(t, 4, view.Activity.Customers)
	assert.Len(t, view.Profiles.Segments, 6)

	view = b.Segmentation(context.Background())
	assert.Equal(t, SourceSample, view.Source)
	assert.Equal(t, 50, view.Activity.Customers)
	var total int
	for _, s := range view.Activity.Segments {
		total += s.Count
	}
	assert.Equal(t, 50, total)
}

func TestModelInsights(t *testing.T) {
	api := &mockAPI{}
	api.On("ModelsStatus", mock.Anything).Return(&model.ModelsStatus{
		Models: map[string]bool{"churn": true, "fraud": true, "segmentation": false},
	}, nil).Once()
	api.On("Metrics", mock.Anything).Return(&model.InferenceMetrics{Metrics: model.InferenceMetricsSnapshot{
		ModelAccuracy:         map[string]float64{"churn": 0.9},
		TotalPredictionsToday: 1200,
	}}, nil)
	api.On("ModelsStatus", mock.Anything).Return(nil, errDown)

	b := newBuilder(t, api)
	view := b.ModelInsights(context.Background())
	assert.Equal(t, SourceLive, view.Source)
	assert.Equal(t, 1200, view.Live.PredictionsToday)
	require.Len(t, view.Models, 3)

	byKey := map[string]ModelSummary{}
	for _, m := range view.Models {
		byKey[m.Key] = m
	}
	assert.InDelta(t, 90, byKey["churn"].Accuracy, 1e-9)
	assert.InDelta(t, 92.1, byKey["fraud"].Accuracy, 1e-9)
	require.NotNil(t, byKey["segmentation"].Loaded)
	assert.False(t, *byKey["segmentation"].Loaded)
	assert.Equal(t, "error", byKey["segmentation"].Status)

	require.NotEmpty(t, view.Drift)
	for _, d := range view.Drift {
		assert.Len(t, d.Status, 3)
	}

	view = b.ModelInsights(context.Background())
	assert.Equal(t, SourceSample, view.Source)
	for _, m := range view.Models {
		assert.Nil(t, m.Loaded)
	}
}

func TestAsPercent(t *testing.T) {
	assert.InDelta(t, 87.5, AsPercent(0.875), 1e-9)
	assert.InDelta(t, 87.5, AsPercent(87.5), 1e-9)
}

func TestFeatureEngineering(t *testing.T) {
	api := &mockAPI{}
	api.On("Explain", mock.Anything, "CUST_1", "churn").Return(&model.ModelExplanation{ExplanationSummary: "recency"}, nil)
	api.On("Explain", mock.Anything, "CUST_2", "fraud").Return(nil, errDown)

	b := newBuilder(t, api)

	view := b.FeatureEngineering(context.Background(), "", "")
	assert.Nil(t, view.Explanation)
	assert.Len(t, view.Catalog.Categories, 3)

	view = b.FeatureEngineering(context.Background(), "CUST_1", "")
	require.NotNil(t, view.Explanation)
	assert.Equal(t, "recency", view.Explanation.ExplanationSummary)

	view = b.FeatureEngineering(context.Background(), "CUST_2", "fraud")
	assert.Nil(t, view.Explanation)
	assert.Contains(t, view.Error, "CUST_2")
}

func TestAPIDocumentation(t *testing.T) {
	b := newBuilder(t, &mockAPI{})
	view := b.APIDocumentation()

	require.Len(t, view.Groups, 5)
	var total int
	for _, g := range view.Groups {
		assert.NotEmpty(t, g.Endpoints, g.Name)
		total += len(g.Endpoints)
	}
	assert.Equal(t, len(b.Library().Endpoints), total)
}

func TestWithConfig(t *testing.T) {
	b := New(&mockAPI{}, library(t), WithConfig(config.DashboardConfig{SampleSize: 5, SampleSeed: 7, AnalyticsDays: 10}))
	days, err := b.analyticsDays(0)
	require.NoError(t, err)
	assert.Equal(t, 10, days)
}
