//go:build integration

package sheets

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterIntegration(t *testing.T) {
	path := os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH")
	if path == "" {
		t.Skip("Service account path not available")
	}
	if _, err := os.Stat(path); err != nil {
		t.Skipf("Service account file not readable: %s", path)
	}

	cfg := DefaultConfig()
	cfg.ServiceAccountPath = path
	cfg.SpreadsheetID = os.Getenv("GOOGLE_SHEETS_TEST_SPREADSHEET_ID")
	cfg.SpreadsheetName = "Churn Report - Integration"

	ctx := context.Background()
	writer, err := NewWriter(ctx, cfg, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	require.NoError(t, err)
	require.NoError(t, writer.Write(ctx, testReport()))
}
