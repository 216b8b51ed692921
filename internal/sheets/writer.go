package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/Veraticus/finsight/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Writer implements service.ReportWriter for Google Sheets.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a Google Sheets report writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return newWriter(srv, config, logger), nil
}

func newWriter(srv *sheets.Service, config Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{service: srv, config: config, logger: logger}
}

// Write replaces the spreadsheet's contents with the report.
func (w *Writer) Write(ctx context.Context, report *service.ChurnReport) error {
	data := BuildTabData(report)
	w.logger.Info("Starting report export",
		"customers", len(data.Customers),
		"generated_at", report.GeneratedAt.Format(time.RFC3339))

	retryOpts := service.RetryOptions{
		MaxAttempts:  max(w.config.RetryAttempts, 1),
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
		RetryIf:      retryableAPIError,
	}

	var sheetIDs map[string]int64
	spreadsheetID := w.config.SpreadsheetID
	err := common.WithRetry(ctx, func() error {
		var err error
		spreadsheetID, sheetIDs, err = w.getOrCreateSpreadsheet(ctx, spreadsheetID)
		return err
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if err := w.clearTabs(ctx, spreadsheetID); err != nil {
		return fmt.Errorf("failed to clear spreadsheet: %w", err)
	}

	values := data.Values()
	err = common.WithRetry(ctx, func() error {
		return w.writeData(ctx, spreadsheetID, values)
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return w.applyFormatting(ctx, spreadsheetID, sheetIDs, len(values[TabCustomers]))
		}, retryOpts)
		if err != nil {
			w.logger.Warn("Failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("Report export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values[TabCustomers])-1)
	return nil
}

func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		oauthConfig := OAuth2Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			TokenFile:    config.TokenFile,
		}
		token := &oauth2.Token{RefreshToken: config.RefreshToken, TokenType: "Bearer"}
		if config.RefreshToken == "" {
			stored, err := LoadToken(config.TokenFile)
			if err != nil {
				return nil, fmt.Errorf("no refresh token configured and token file unreadable (run `finsight export sheets --auth`): %w", err)
			}
			token = stored
		}
		tokenSource = oauthConfig.clientConfig().TokenSource(ctx, token)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return srv, nil
}

// getOrCreateSpreadsheet returns the spreadsheet id and the sheet id of
// every tab, adding any tab that is missing.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context, spreadsheetID string) (string, map[string]int64, error) {
	if spreadsheetID == "" {
		spreadsheet := &sheets.Spreadsheet{
			Properties: &sheets.SpreadsheetProperties{
				Title:    w.config.SpreadsheetName,
				TimeZone: w.config.TimeZone,
			},
		}
		for _, title := range Tabs {
			spreadsheet.Sheets = append(spreadsheet.Sheets, &sheets.Sheet{
				Properties: &sheets.SheetProperties{Title: title},
			})
		}

		created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
		if err != nil {
			return "", nil, fmt.Errorf("unable to create spreadsheet: %w", err)
		}
		w.logger.Info("Created new spreadsheet", "id", created.SpreadsheetId, "url", created.SpreadsheetUrl)
		return created.SpreadsheetId, sheetIDs(created), nil
	}

	existing, err := w.service.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("unable to access spreadsheet %s: %w", spreadsheetID, err)
	}
	ids := sheetIDs(existing)

	var add []*sheets.Request
	for _, title := range Tabs {
		if _, ok := ids[title]; !ok {
			add = append(add, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: title}},
			})
		}
	}
	if len(add) == 0 {
		return spreadsheetID, ids, nil
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: add,
	}).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("unable to add tabs: %w", err)
	}
	for _, reply := range resp.Replies {
		if reply.AddSheet != nil && reply.AddSheet.Properties != nil {
			ids[reply.AddSheet.Properties.Title] = reply.AddSheet.Properties.SheetId
		}
	}
	return spreadsheetID, ids, nil
}

// retryableAPIError retries quota and server errors from the Sheets API.
// Other API errors are permanent; transport errors are retried.
func retryableAPIError(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	return !errors.Is(err, context.Canceled)
}

func sheetIDs(s *sheets.Spreadsheet) map[string]int64 {
	ids := make(map[string]int64, len(s.Sheets))
	for _, sheet := range s.Sheets {
		if sheet.Properties != nil {
			ids[sheet.Properties.Title] = sheet.Properties.SheetId
		}
	}
	return ids
}

func (w *Writer) clearTabs(ctx context.Context, spreadsheetID string) error {
	ranges := make([]string, 0, len(Tabs))
	for _, title := range Tabs {
		ranges = append(ranges, tabRange(title, "A:Z"))
	}
	_, err := w.service.Spreadsheets.Values.BatchClear(spreadsheetID, &sheets.BatchClearValuesRequest{
		Ranges: ranges,
	}).Context(ctx).Do()
	return err
}

// writeData writes every tab, splitting long tabs into BatchSize row blocks.
func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values map[string][][]any) error {
	for _, title := range Tabs {
		rows := values[title]
		for i := 0; i < len(rows); i += w.config.BatchSize {
			batch := rows[i:min(i+w.config.BatchSize, len(rows))]
			_, err := w.service.Spreadsheets.Values.BatchUpdate(spreadsheetID, &sheets.BatchUpdateValuesRequest{
				ValueInputOption: "USER_ENTERED",
				Data: []*sheets.ValueRange{{
					Range:  tabRange(title, fmt.Sprintf("A%d", i+1)),
					Values: batch,
				}},
			}).Context(ctx).Do()
			if err != nil {
				return fmt.Errorf("failed to write %s batch starting at row %d: %w", title, i+1, err)
			}
			w.logger.Debug("Wrote batch", "tab", title, "start_row", i+1, "rows", len(batch))
		}
	}
	return nil
}

func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, ids map[string]int64, customerRows int) error {
	customers := ids[TabCustomers]
	requests := []*sheets.Request{
		boldRange(ids[TabSummary], 0, 1, 0, 2, 16),
		boldRange(customers, 0, 1, 0, 10, 0),
		boldRange(ids[TabBands], 0, 1, 0, 3, 0),
		boldRange(ids[TabSegments], 0, 1, 0, 5, 0),
		numberFormat(customers, 1, customerRows, 4, 5, "CURRENCY", "$#,##0.00"),
		numberFormat(customers, 1, customerRows, 5, 6, "PERCENT", "0.0%"),
		numberFormat(customers, 1, customerRows, 7, 8, "PERCENT", "0.0%"),
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        customers,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}
	for _, title := range Tabs {
		requests = append(requests, &sheets.Request{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    ids[title],
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   10,
				},
			},
		})
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}

func boldRange(sheetID int64, startRow, endRow, startCol, endCol int, fontSize int64) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    int64(startRow),
				EndRowIndex:      int64(endRow),
				StartColumnIndex: int64(startCol),
				EndColumnIndex:   int64(endCol),
			},
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{
					TextFormat: &sheets.TextFormat{Bold: true, FontSize: fontSize},
				},
			},
			Fields: "userEnteredFormat.textFormat",
		},
	}
}

func numberFormat(sheetID int64, startRow, endRow, startCol, endCol int, kind, pattern string) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    int64(startRow),
				EndRowIndex:      int64(max(endRow, startRow+1)),
				StartColumnIndex: int64(startCol),
				EndColumnIndex:   int64(endCol),
			},
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{
					NumberFormat: &sheets.NumberFormat{Type: kind, Pattern: pattern},
				},
			},
			Fields: "userEnteredFormat.numberFormat",
		},
	}
}

func tabRange(title, cells string) string {
	return fmt.Sprintf("'%s'!%s", title, cells)
}
