package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/finsight/internal/dashboard"
	"github.com/Veraticus/finsight/internal/model"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	home, err := os.MkdirTemp("", "finsight-home")
	if err != nil {
		panic(err)
	}
	_ = os.Setenv("HOME", home)
	code := m.Run()
	_ = os.RemoveAll(home)
	os.Exit(code)
}

// runCLI executes the root command against baseURL with a fresh viper and
// returns stdout. Tests that need their own config or database set HOME.
func runCLI(t *testing.T, baseURL string, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--base-url", baseURL, "--log-level", "error"}, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

// fakeService serves canned responses by path; unknown paths fail with 500.
func fakeService(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"detail":"model not loaded"}`)
			return
		}
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func decodeJSON[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "http://localhost:8000", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "finsight version dev")
}

func TestHealth(t *testing.T) {
	srv := fakeService(t, map[string]string{
		"/health": `{"status":"healthy","version":"1.4.0","timestamp":"2026-10-19T09:00:00","models_loaded":{"churn":true,"fraud":false}}`,
	})

	out, err := runCLI(t, srv.URL, "--storage-driver", "none", "health", "-o", "json")
	require.NoError(t, err)
	health := decodeJSON[model.Health](t, out)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "1.4.0", health.Version)
	assert.False(t, health.ModelsLoaded["fraud"])

	out, err = runCLI(t, srv.URL, "--storage-driver", "none", "health")
	require.NoError(t, err)
	assert.Contains(t, out, "healthy")
	assert.Contains(t, out, "not loaded")
}

func TestHealthUnavailable(t *testing.T) {
	srv := fakeService(t, nil)
	_, err := runCLI(t, srv.URL, "--storage-driver", "none", "health")
	require.Error(t, err)
}

func TestDashboardBanner(t *testing.T) {
	srv := fakeService(t, nil)

	out, err := runCLI(t, srv.URL, "--storage-driver", "none", "dashboard", "overview")
	require.ErrorIs(t, err, errBanner)
	assert.Contains(t, out, dashboard.MsgLoadFailed)

	out, err = runCLI(t, srv.URL, "--storage-driver", "none", "dashboard", "churn", "-o", "json")
	require.ErrorIs(t, err, errBanner)
	view := decodeJSON[dashboard.ChurnView](t, out)
	assert.Equal(t, dashboard.MsgLoadFailed, view.Error)
	assert.Empty(t, view.Customers)
}

func TestDashboardFallback(t *testing.T) {
	srv := fakeService(t, nil)

	out, err := runCLI(t, srv.URL, "--storage-driver", "none", "dashboard", "segmentation", "-o", "json")
	require.NoError(t, err)
	view := decodeJSON[dashboard.SegmentationView](t, out)
	assert.Equal(t, dashboard.SourceSample, view.Source)
	assert.NotEmpty(t, view.Notice)
	assert.Equal(t, 1000, view.Activity.Customers)

	out, err = runCLI(t, srv.URL, "--storage-driver", "none", "dashboard", "fraud")
	require.NoError(t, err)
	assert.Contains(t, out, "Showing sample data")
}

func TestDashboardDaysValidation(t *testing.T) {
	srv := fakeService(t, nil)
	_, err := runCLI(t, srv.URL, "--storage-driver", "none", "dashboard", "transaction-analytics", "--days", "999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "days")
}

func TestChurnScoreFallback(t *testing.T) {
	srv := fakeService(t, nil)

	tests := []struct {
		name       string
		args       []string
		wantSource model.PredictionSource
		wantProb   float64
	}{
		{
			name:       "heuristic",
			args:       []string{"--customer-id", "CUST_1", "--days", "90", "--transactions", "3", "--avg-amount", "20", "--total", "60"},
			wantSource: model.SourceHeuristic,
			wantProb:   0.85,
		},
		{
			name:       "known probability",
			args:       []string{"--customer-id", "CUST_1", "--probability", "0.61"},
			wantSource: model.SourceProfile,
			wantProb:   0.61,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--storage-driver", "none", "churn", "score", "-o", "json"}, tt.args...)
			out, err := runCLI(t, srv.URL, args...)
			require.NoError(t, err)
			view := decodeJSON[dashboard.PredictionView](t, out)
			assert.Equal(t, tt.wantSource, view.Source)
			assert.InDelta(t, tt.wantProb, view.Prediction.ChurnProbability, 1e-9)
			assert.NotEmpty(t, view.Notice)
		})
	}
}

func TestChurnScoreRequiresCustomer(t *testing.T) {
	_, err := runCLI(t, "http://localhost:8000", "--storage-driver", "none", "churn", "score")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "customer-id")
}

func TestImportScoresAndRecordsHistory(t *testing.T) {
	srv := fakeService(t, map[string]string{
		"/api/v1/inference/churn-batch": `{"predictions":[
			{"customer_id":"CUST_A","churn_probability":0.72,"churn_prediction":true,"confidence":0.9,"risk_category":"High Risk"},
			{"customer_id":"CUST_B","churn_probability":0.12,"churn_prediction":false,"confidence":0.8,"risk_category":"Low Risk"}
		],"summary":{"total_customers":2}}`,
	})
	home := t.TempDir()
	t.Setenv("HOME", home)

	csvPath := filepath.Join(home, "transactions.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(`customer_id,transaction_date,amount,merchant,category
CUST_A,2026-09-01,-42.50,Corner Market,grocery
CUST_A,2026-09-20,-18.00,Fuel Stop,gas
CUST_B,2026-10-01,-120.00,Electronics Hub,retail
CUST_B,2026-10-02,2500.00,Payroll,income
`), 0o600))

	out, err := runCLI(t, srv.URL, "import", csvPath, "-o", "json")
	require.NoError(t, err)
	result := decodeJSON[dashboard.BatchResult](t, out)
	require.Len(t, result.Predictions, 2)
	assert.Equal(t, 0, result.Fallbacks)
	assert.Equal(t, 1, result.Summary.HighRiskCustomers)

	out, err = runCLI(t, srv.URL, "history", "--customer-id", "CUST_A", "-o", "json")
	require.NoError(t, err)
	records := decodeJSON[[]model.PredictionRecord](t, out)
	require.Len(t, records, 1)
	assert.Equal(t, model.SourceLive, records[0].Source)
	assert.InDelta(t, 0.72, records[0].ChurnProbability, 1e-9)

	out, err = runCLI(t, srv.URL, "import", "--from-store", "--no-score", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "CUST_B")
}

func TestImportRejectsUnknownFileType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statement.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o600))

	_, err := runCLI(t, "http://localhost:8000", "--storage-driver", "none", "import", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestHistoryNeedsStorage(t *testing.T) {
	_, err := runCLI(t, "http://localhost:8000", "--storage-driver", "none", "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage")
}

func TestDocsWorkOffline(t *testing.T) {
	out, err := runCLI(t, "http://localhost:1", "docs", "show", "setup")
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	_, err = runCLI(t, "http://localhost:1", "docs", "show", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available:")

	_, err = runCLI(t, "http://localhost:1", "docs", "search", "(")
	require.Error(t, err)

	out, err = runCLI(t, "http://localhost:1", "docs", "troubleshoot", "--category", "database", "-o", "json")
	require.NoError(t, err)
	issues := decodeJSON[[]map[string]any](t, out)
	require.NotEmpty(t, issues)
	for _, issue := range issues {
		assert.Equal(t, "database", issue["category"])
	}
}

func TestConfigShowMasksSecrets(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "finsight")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
cache:
  redis:
    password: hunter2
storage:
  driver: postgres
  dsn: postgres://app:hunter2@db:5432/finsight
`), 0o600))

	out, err := runCLI(t, "http://localhost:8000", "config", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, masked)
	assert.Contains(t, out, "driver: postgres")
}

func TestMaskSecrets(t *testing.T) {
	got := maskSecrets(map[string]any{
		"storage": map[string]any{"driver": "sqlite", "dsn": "/home/me/finsight.db"},
		"sheets":  map[string]any{"client_secret": "s3cret", "client_id": "id"},
		"cache":   map[string]any{"redis": map[string]any{"password": ""}},
	})

	assert.Equal(t, "/home/me/finsight.db", got["storage"].(map[string]any)["dsn"])
	assert.Equal(t, masked, got["sheets"].(map[string]any)["client_secret"])
	assert.Equal(t, "id", got["sheets"].(map[string]any)["client_id"])
	assert.Equal(t, "", got["cache"].(map[string]any)["redis"].(map[string]any)["password"])
}

func TestGendocs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "docs")
	_, err := runCLI(t, "http://localhost:8000", "gendocs", dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "finsight.md"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "finsight_dashboard_overview.md"))
	require.NoError(t, err)
}
