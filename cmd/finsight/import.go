package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/finsight/internal/cli"
	"github.com/Veraticus/finsight/internal/dashboard"
	"github.com/Veraticus/finsight/internal/features"
	"github.com/Veraticus/finsight/internal/model"
	"github.com/Veraticus/finsight/internal/ofx"
	"github.com/Veraticus/finsight/internal/service"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [FILE...]",
		Short: "Import statements and score the customers in them",
		Long: `Import OFX/QFX statements or CSV exports, derive churn features per
customer and score them in chunks. Transactions are kept in storage so a
later run can rescore them with --from-store.`,
		Example: `  finsight import statement.ofx --customer-id CUST_000042
  finsight import transactions.csv --lookback 180
  finsight import --from-store --since 2026-01-01`,
		RunE: withApp(runImport),
	}

	f := cmd.Flags()
	f.String("customer-id", "", "attribute OFX transactions to this customer instead of the account number")
	f.Int("lookback", features.DefaultLookbackDays, "feature lookback window in days")
	f.Int("chunk-size", dashboard.DefaultChunkSize, "customers per scoring request")
	f.Bool("no-score", false, "only import, do not score")
	f.Bool("from-store", false, "score transactions already in storage instead of files")
	f.String("since", "", "with --from-store, only transactions on or after this date (YYYY-MM-DD)")
	return cmd
}

func runImport(cmd *cobra.Command, args []string, a *app) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	f := cmd.Flags()
	fromStore, _ := f.GetBool("from-store")

	var txns []model.Transaction
	switch {
	case fromStore:
		if a.store == nil {
			return errors.New("--from-store needs storage; set storage.driver")
		}
		filter := service.TransactionFilter{}
		if since, _ := f.GetString("since"); since != "" {
			t, err := time.Parse("2006-01-02", since)
			if err != nil {
				return fmt.Errorf("--since: %w", err)
			}
			filter.StartDate = &t
		}
		var err error
		if txns, err = a.store.GetTransactions(ctx, filter); err != nil {
			return err
		}
	case len(args) == 0:
		return errors.New("no files given; pass statement files or --from-store")
	default:
		customerID, _ := f.GetString("customer-id")
		for _, path := range args {
			parsed, err := readStatement(ctx, path, customerID, a)
			if err != nil {
				return err
			}
			txns = append(txns, parsed...)
		}
		if a.store != nil && len(txns) > 0 {
			saved, err := a.store.SaveTransactions(ctx, txns)
			if err != nil {
				return fmt.Errorf("failed to save transactions: %w", err)
			}
			a.logger.Info("Saved imported transactions", "new", saved, "total", len(txns))
		}
	}

	if len(txns) == 0 {
		_, err := fmt.Fprintln(out, cli.FormatWarning("No transactions found."))
		return err
	}

	lookback, _ := f.GetInt("lookback")
	customers := features.NewEngineer(lookback).Customers(txns, time.Time{})
	if _, err := fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatInfo(fmt.Sprintf("%d transactions, %d customers", len(txns), len(customers)))); err != nil {
		return err
	}

	if noScore, _ := f.GetBool("no-score"); noScore || len(customers) == 0 {
		return render(cmd, customers, func(w io.Writer) error { return printFeatures(w, customers) })
	}

	reqs := make([]model.ChurnPredictionRequest, 0, len(customers))
	for _, c := range customers {
		reqs = append(reqs, c.ChurnRequest())
	}

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Scoring", "Predictions scored so far are kept in history.")
	ctx, stop := handler.HandleInterrupts(ctx)
	defer stop()

	chunkSize, _ := f.GetInt("chunk-size")
	progress := cli.NewProgress(cmd.ErrOrStderr(), len(reqs), "Scoring customers")
	result, err := a.builder.ScoreBatch(ctx, reqs, chunkSize, progress.Set)
	progress.Finish()
	if err != nil {
		if handler.WasInterrupted() {
			return nil
		}
		return err
	}

	return render(cmd, result, func(w io.Writer) error {
		if result.Fallbacks > 0 {
			fmt.Fprintln(w, cli.FormatWarning(fmt.Sprintf(
				"%d of %d customers scored by the rule-based estimate; the service was unavailable.",
				result.Fallbacks, len(result.Predictions))))
		}
		return printBatchResult(w, result)
	})
}

// readStatement parses one file by extension.
func readStatement(ctx context.Context, path, customerID string, a *app) ([]model.Transaction, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	var txns []model.Transaction
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".ofx", ".qfx":
		opts := []ofx.Option{ofx.WithLogger(a.logger)}
		if customerID != "" {
			opts = append(opts, ofx.WithCustomerID(customerID))
		}
		txns, err = ofx.NewParser(opts...).ParseFile(ctx, file)
	case ".csv":
		txns, err = features.ReadCSV(file)
	default:
		return nil, fmt.Errorf("unsupported file type %q (want .ofx, .qfx or .csv)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	a.logger.Debug("Parsed statement", "file", path, "transactions", len(txns))
	return txns, nil
}

func printFeatures(w io.Writer, customers []features.Customer) error {
	rows := make([][]string, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, []string{
			c.CustomerID,
			fmt.Sprintf("%d", c.DaysSinceLast),
			fmt.Sprintf("%d", c.TotalTransactions),
			dashboard.FormatCurrency(c.AvgAmount),
			dashboard.FormatCurrency(c.TotalAmount),
			c.MostFrequentCategory,
		})
	}
	_, err := fmt.Fprintln(w, cli.Table(
		[]string{"Customer", "Days idle", "Transactions", "Avg", "Total", "Top category"}, rows, nil))
	return err
}

func printBatchResult(w io.Writer, result *dashboard.BatchResult) error {
	s := result.Summary
	if _, err := fmt.Fprintln(w, cli.RenderBox("Churn scores", cli.KeyValues([][2]string{
		{"Customers", dashboard.FormatNumber(s.TotalCustomers)},
		{"Predicted churners", dashboard.FormatNumber(s.PredictedChurners)},
		{"High risk", dashboard.FormatNumber(s.HighRiskCustomers)},
		{"Avg churn probability", dashboard.FormatPercent(s.AvgChurnProbability)},
	}))); err != nil {
		return err
	}

	rows := make([][]string, 0, len(result.Predictions))
	for _, p := range result.Predictions {
		rows = append(rows, []string{
			p.CustomerID,
			dashboard.FormatPercent(p.ChurnProbability),
			model.ChurnRiskLevel(p.ChurnProbability),
			dashboard.FormatPercent(p.Confidence),
		})
	}
	_, err := fmt.Fprintln(w, cli.Table([]string{"Customer", "Churn", "Risk", "Confidence"}, rows, riskCell(2)))
	return err
}
