package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/Veraticus/finsight/internal/content"
	"github.com/Veraticus/finsight/internal/dashboard"
	"github.com/Veraticus/finsight/internal/model"
	"github.com/Veraticus/finsight/internal/service"
	"github.com/Veraticus/finsight/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

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

func (m *mockAPI) GetCustomer(ctx context.Context, customerID string) (*model.CustomerDetail, error) {
	args := m.Called(ctx, customerID)
	if d, ok := args.Get(0).(*model.CustomerDetail); ok {
		return d, args.Error(1)
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

func (m *mockAPI) Probe(ctx context.Context, method, path string, body any) model.ProbeResult {
	args := m.Called(ctx, method, path, body)
	return args.Get(0).(model.ProbeResult)
}

var errDown = fmt.Errorf("%w: connection refused", common.ErrUnavailable)

func newTestServer(t *testing.T, api *mockAPI, opts ...Option) http.Handler {
	t.Helper()
	lib, err := content.Default()
	require.NoError(t, err)

	var dashOpts []dashboard.Option
	srv := &Server{}
	for _, opt := range opts {
		opt(srv)
	}
	if srv.store != nil {
		dashOpts = append(dashOpts, dashboard.WithStorage(srv.store))
	}
	dashOpts = append(dashOpts, dashboard.WithClock(func() time.Time {
		return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	}))

	builder := dashboard.New(api, lib, dashOpts...)
	return New(api, builder, opts...).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, &mockAPI{}, WithVersion("1.2.3"))

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "1.2.3", body["version"])
	assert.Equal(t, false, body["storage"])
}

func TestTraceID(t *testing.T) {
	h := newTestServer(t, &mockAPI{})

	rec := do(t, h, http.MethodGet, "/api/v1/navigation", "", HeaderTraceID, "trace-123")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "trace-123", rec.Header().Get(HeaderTraceID))

	rec = do(t, h, http.MethodGet, "/api/v1/navigation", "")
	assert.Len(t, rec.Header().Get(HeaderTraceID), 36)
}

func TestOverview(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		api := &mockAPI{}
		api.On("Health", mock.Anything).Return(&model.Health{Status: "healthy"}, nil)
		api.On("Metrics", mock.Anything).Return(nil, errDown)
		api.On("ListCustomers", mock.Anything, mock.Anything).Return(&model.CustomerPage{Customers: []model.Customer{
			{CustomerID: "A", ChurnProbability: 0.9, TotalAmount: 10},
		}}, nil)

		rec := do(t, newTestServer(t, api), http.MethodGet, "/api/v1/views/overview", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		view := decode[dashboard.OverviewView](t, rec)
		assert.Equal(t, 1, view.Metrics.HighRiskCustomers)
		assert.Equal(t, "healthy", view.ServiceStatus)
	})

	t.Run("banner", func(t *testing.T) {
		api := &mockAPI{}
		api.On("Health", mock.Anything).Return(nil, errDown)
		api.On("Metrics", mock.Anything).Return(nil, errDown)
		api.On("ListCustomers", mock.Anything, mock.Anything).Return(nil, errDown)

		rec := do(t, newTestServer(t, api), http.MethodGet, "/api/v1/views/overview", "")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		view := decode[dashboard.OverviewView](t, rec)
		assert.Equal(t, dashboard.MsgLoadFailed, view.Error)
	})
}

func TestChurnQueryValidation(t *testing.T) {
	rec := do(t, newTestServer(t, &mockAPI{}), http.MethodGet, "/api/v1/views/churn?risk_level=Extreme", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidInput, decode[ErrorResponse](t, rec).Code)
}

func TestTransactionAnalytics(t *testing.T) {
	api := &mockAPI{}
	api.On("TransactionAnalytics", mock.Anything, 7).Return(nil, errDown)
	h := newTestServer(t, api)

	rec := do(t, h, http.MethodGet, "/api/v1/views/transaction-analytics?days=7", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	view := decode[map[string]any](t, rec)
	assert.Equal(t, "sample", view["source"])

	rec = do(t, h, http.MethodGet, "/api/v1/views/transaction-analytics?days=999", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, CodeInvalidInput, resp.Code)
	assert.Equal(t, "days must be between 1 and 365", resp.Message)
	assert.NotEmpty(t, resp.TraceID)

	rec = do(t, h, http.MethodGet, "/api/v1/views/transaction-analytics?days=soon", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredictChurn(t *testing.T) {
	api := &mockAPI{}
	api.On("PredictChurn", mock.Anything, mock.Anything).Return(nil, errDown)
	h := newTestServer(t, api)

	rec := do(t, h, http.MethodPost, "/api/v1/views/churn/predict",
		`{"customer_id":"CUST_1","days_since_last_transaction":5,"total_transactions":40,"avg_transaction_amount":120,"total_amount":900,"churn_probability":0.61}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	view := decode[dashboard.PredictionView](t, rec)
	assert.Equal(t, model.SourceProfile, view.Source)
	assert.InDelta(t, 0.61, view.Prediction.ChurnProbability, 1e-9)

	rec = do(t, h, http.MethodPost, "/api/v1/views/churn/predict",
		`{"customer_id":"CUST_2","days_since_last_transaction":5,"total_transactions":40,"avg_transaction_amount":120,"total_amount":900}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	view = decode[dashboard.PredictionView](t, rec)
	assert.Equal(t, model.SourceHeuristic, view.Source)
	assert.InDelta(t, 0.1, view.Prediction.ChurnProbability, 1e-9)

	rec = do(t, h, http.MethodPost, "/api/v1/views/churn/predict", `{"customer_id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/views/churn/predict", `{"customer_id":"C","churn_probability":1.5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredictChurnServiceRejection(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "bad request", err: fmt.Errorf("%w: POST /predict/churn: invalid payload", common.ErrBadRequest)},
		{name: "unprocessable", err: fmt.Errorf("%w: POST /predict/churn: field required", common.ErrBadRequest)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockAPI{}
			api.On("PredictChurn", mock.Anything, mock.Anything).Return(nil, tt.err)
			h := newTestServer(t, api)

			rec := do(t, h, http.MethodPost, "/api/v1/views/churn/predict",
				`{"customer_id":"CUST_3","days_since_last_transaction":5,"total_transactions":40,"avg_transaction_amount":120,"total_amount":900}`)
			assert.Equal(t, http.StatusOK, rec.Code)
			view := decode[dashboard.PredictionView](t, rec)
			assert.Equal(t, model.SourceHeuristic, view.Source)
			require.NotNil(t, view.Prediction)
			assert.InDelta(t, 0.1, view.Prediction.ChurnProbability, 1e-9)
		})
	}
}

func TestCustomerView(t *testing.T) {
	api := &mockAPI{}
	api.On("GetCustomer", mock.Anything, "CUST_1").
		Return(&model.CustomerDetail{Customer: model.Customer{CustomerID: "CUST_1"}}, nil)
	api.On("CustomerTransactions", mock.Anything, "CUST_1", mock.Anything).
		Return(&model.TransactionPage{Transactions: []model.Transaction{{TransactionID: "TX_1"}}}, nil)
	api.On("GetCustomer", mock.Anything, "CUST_404").
		Return(nil, fmt.Errorf("%w: GET /customers/CUST_404", common.ErrNotFound))
	api.On("GetCustomer", mock.Anything, "CUST_DOWN").Return(nil, errDown)
	h := newTestServer(t, api)

	tests := []struct {
		name      string
		id        string
		wantCode  int
		wantError string
		notFound  bool
	}{
		{name: "found", id: "CUST_1", wantCode: http.StatusOK},
		{name: "unknown customer", id: "CUST_404", wantCode: http.StatusNotFound, wantError: dashboard.MsgCustomerNotFound, notFound: true},
		{name: "service down", id: "CUST_DOWN", wantCode: http.StatusBadGateway, wantError: dashboard.MsgLoadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/api/v1/views/customers/"+tt.id, "")
			assert.Equal(t, tt.wantCode, rec.Code)
			view := decode[dashboard.CustomerView](t, rec)
			assert.Equal(t, tt.wantError, view.Error)
			assert.Equal(t, tt.notFound, view.NotFound)
		})
	}
}

func TestDocs(t *testing.T) {
	h := newTestServer(t, &mockAPI{})

	rec := do(t, h, http.MethodGet, "/api/v1/docs", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/docs/setup", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "setup", decode[content.Page](t, rec).Slug)

	rec = do(t, h, http.MethodGet, "/api/v1/docs/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, decode[ErrorResponse](t, rec).Code)

	rec = do(t, h, http.MethodGet, "/api/v1/changelog", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]content.Release](t, rec), 5)
}

func TestTroubleshootingAndSearch(t *testing.T) {
	h := newTestServer(t, &mockAPI{})

	rec := do(t, h, http.MethodGet, "/api/v1/troubleshooting?category=database", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Issues []content.Issue `json:"issues"`
	}](t, rec)
	require.Len(t, body.Issues, 1)
	assert.Equal(t, 3, body.Issues[0].ID)

	rec = do(t, h, http.MethodGet, "/api/v1/search", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/search?q=%28", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Message, "invalid search pattern")

	rec = do(t, h, http.MethodGet, "/api/v1/search?q=volatility", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEndpointsCatalog(t *testing.T) {
	rec := do(t, newTestServer(t, &mockAPI{}), http.MethodGet, "/api/v1/endpoints", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	view := decode[dashboard.APIDocumentationView](t, rec)
	assert.Len(t, view.Groups, 5)
}

func TestProbe(t *testing.T) {
	api := &mockAPI{}
	api.On("Probe", mock.Anything, "GET", "/health", nil).
		Return(model.ProbeResult{Method: "GET", Path: "/health", StatusCode: 200, Data: json.RawMessage(`{"status":"healthy"}`)})
	h := newTestServer(t, api)

	rec := do(t, h, http.MethodPost, "/api/v1/probe", `{"method":"GET","path":"/health"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.InDelta(t, 200, body["status_code"], 0)

	rec = do(t, h, http.MethodPost, "/api/v1/probe", `{"method":"GET","path":"health"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	api.AssertExpectations(t)
}

func TestPredictionHistory(t *testing.T) {
	rec := do(t, newTestServer(t, &mockAPI{}), http.MethodGet, "/api/v1/history/predictions", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, CodeStorageOff, decode[ErrorResponse](t, rec).Code)

	ctx := context.Background()
	store, err := storage.Open(ctx, storage.DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.SavePredictions(ctx, []model.PredictionRecord{
		{CustomerID: "CUST_1", ChurnProbability: 0.4, Confidence: 0.9},
		{CustomerID: "CUST_2", ChurnProbability: 0.8, Confidence: 0.9},
	}))

	h := newTestServer(t, &mockAPI{}, WithStorage(store))
	rec = do(t, h, http.MethodGet, "/api/v1/history/predictions?customer_id=CUST_2", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Predictions []model.PredictionRecord `json:"predictions"`
	}](t, rec)
	require.Len(t, body.Predictions, 1)
	assert.Equal(t, "CUST_2", body.Predictions[0].CustomerID)

	rec = do(t, h, http.MethodGet, "/api/v1/history/predictions?limit=0&customer_id=none", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"predictions":[]`)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, &mockAPI{})
	do(t, h, http.MethodGet, "/api/v1/navigation", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "finsight_server_http_requests_total")
}
