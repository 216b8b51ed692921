package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/Veraticus/finsight/internal/cli"
	"github.com/Veraticus/finsight/internal/dashboard"
	"github.com/Veraticus/finsight/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash"},
		Short:   "Print a dashboard page",
		Long: `Print one dashboard page. Customer pages show an error banner and exit
non-zero when the service fails; analytics pages fall back to the last
stored snapshot or to sample data and say so.`,
	}

	cmd.AddCommand(
		pageCmd("overview", "Executive overview", func(cmd *cobra.Command, a *app) error {
			view := a.builder.Overview(cmd.Context())
			return renderBanner(cmd, view, view.Error, func(w io.Writer) error { return printOverview(w, view) })
		}),
		pageCmd("customer-analytics", "Customer analytics", func(cmd *cobra.Command, a *app) error {
			view := a.builder.CustomerAnalytics(cmd.Context())
			return renderBanner(cmd, view, view.Error, func(w io.Writer) error { return printCustomerAnalytics(w, view.Analytics) })
		}),
		daysPageCmd("transaction-analytics", "Transaction analytics", func(cmd *cobra.Command, a *app, days int) error {
			view, err := a.builder.TransactionAnalytics(cmd.Context(), days)
			if err != nil {
				return err
			}
			return render(cmd, view, func(w io.Writer) error {
				printNotice(w, view.Provenance)
				return printTransactionAnalytics(w, view.Analytics)
			})
		}),
		churnPageCmd(),
		daysPageCmd("fraud", "Fraud detection", func(cmd *cobra.Command, a *app, days int) error {
			view, err := a.builder.Fraud(cmd.Context(), days)
			if err != nil {
				return err
			}
			return render(cmd, view, func(w io.Writer) error {
				printNotice(w, view.Provenance)
				return printFraud(w, view)
			})
		}),
		pageCmd("segmentation", "Customer segmentation", func(cmd *cobra.Command, a *app) error {
			view := a.builder.Segmentation(cmd.Context())
			return render(cmd, view, func(w io.Writer) error {
				printNotice(w, view.Provenance)
				return printSegmentation(w, view)
			})
		}),
		pageCmd("model-insights", "Model insights", func(cmd *cobra.Command, a *app) error {
			view := a.builder.ModelInsights(cmd.Context())
			return render(cmd, view, func(w io.Writer) error {
				printNotice(w, view.Provenance)
				return printModelInsights(w, view)
			})
		}),
		featureEngineeringCmd(),
		&cobra.Command{
			Use:   "api-documentation",
			Short: "API endpoint catalogue",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
				view := a.builder.APIDocumentation()
				return render(cmd, view, func(w io.Writer) error { return printEndpoints(w, view) })
			}),
		},
	)

	return cmd
}

func pageCmd(use, short string, run func(cmd *cobra.Command, a *app) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			return run(cmd, a)
		}),
	}
}

func daysPageCmd(use, short string, run func(cmd *cobra.Command, a *app, days int) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			days, _ := cmd.Flags().GetInt("days")
			return run(cmd, a, days)
		}),
	}
	cmd.Flags().Int("days", 0, fmt.Sprintf("analytics window in days, 1 to %d (default from config)", dashboard.MaxAnalyticsDays))
	return cmd
}

func churnPageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "churn",
		Short: "Churn prediction",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			query, err := customerQueryFromFlags(cmd)
			if err != nil {
				return err
			}
			view := a.builder.Churn(cmd.Context(), query)
			return renderBanner(cmd, view, view.Error, func(w io.Writer) error {
				pairs := [][2]string{
					{"Customers", dashboard.FormatNumber(view.TotalCustomers)},
					{"Avg churn probability", dashboard.FormatPercent(view.AvgChurnProbability)},
					{"High risk", cli.RiskStyle("High").Render(strconv.Itoa(view.Bands.High))},
					{"Medium risk", cli.RiskStyle("Medium").Render(strconv.Itoa(view.Bands.Medium))},
					{"Low risk", cli.RiskStyle("Low").Render(strconv.Itoa(view.Bands.Low))},
				}
				if _, err := fmt.Fprintln(w, cli.RenderBox("Churn Prediction", cli.KeyValues(pairs))); err != nil {
					return err
				}
				return printCustomers(w, view.Customers)
			})
		}),
	}
	addCustomerQueryFlags(cmd)
	return cmd
}

func featureEngineeringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feature-engineering",
		Short: "Feature catalogue, optionally explaining one customer",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			customerID, _ := cmd.Flags().GetString("customer-id")
			modelType, _ := cmd.Flags().GetString("model")
			view := a.builder.FeatureEngineering(cmd.Context(), customerID, modelType)
			return renderBanner(cmd, view, view.Error, func(w io.Writer) error {
				for _, cat := range view.Catalog.Categories {
					rows := make([][]string, 0, len(cat.Features))
					for _, f := range cat.Features {
						rows = append(rows, []string{f.Name, f.Type, f.Transformation, fmt.Sprintf("%.2f", f.Importance)})
					}
					if _, err := fmt.Fprintf(w, "%s\n%s\n", cli.FormatTitle(cat.Name),
						cli.Table([]string{"Feature", "Type", "Transformation", "Importance"}, rows, nil)); err != nil {
						return err
					}
				}
				if view.Explanation != nil {
					return printExplanation(w, view.CustomerID, view.Explanation)
				}
				return nil
			})
		}),
	}
	cmd.Flags().String("customer-id", "", "explain this customer's prediction")
	cmd.Flags().String("model", "churn", "model to explain (churn, fraud, segmentation)")
	return cmd
}

// renderBanner renders a banner view. A set banner is printed and turned
// into errBanner so the process exits non-zero.
func renderBanner(cmd *cobra.Command, view any, banner string, table func(w io.Writer) error) error {
	if err := render(cmd, view, func(w io.Writer) error {
		if banner != "" {
			_, err := fmt.Fprintln(w, cli.FormatError(banner))
			return err
		}
		return table(w)
	}); err != nil {
		return err
	}
	if banner != "" {
		return errBanner
	}
	return nil
}

func printNotice(w io.Writer, prov dashboard.Provenance) {
	if prov.Notice != "" {
		fmt.Fprintln(w, cli.FormatWarning(prov.Notice))
	}
}

func riskCell(col int) func(row, c int, value string) *lipgloss.Style {
	return func(_, c int, value string) *lipgloss.Style {
		if c != col {
			return nil
		}
		style := cli.RiskStyle(value)
		return &style
	}
}

func printCustomers(w io.Writer, customers []model.Customer) error {
	rows := make([][]string, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, []string{
			c.CustomerID,
			c.Name,
			string(c.Segment),
			string(c.RiskLevel),
			dashboard.FormatPercent(c.ChurnProbability),
			strconv.Itoa(c.DaysSinceLastTransaction),
			dashboard.FormatCurrency(c.TotalAmount),
		})
	}
	_, err := fmt.Fprintln(w, cli.Table(
		[]string{"Customer", "Name", "Segment", "Risk", "Churn", "Days idle", "Total"},
		rows, riskCell(3)))
	return err
}

func printSlices(w io.Writer, title string, buckets []dashboard.Slice) error {
	rows := make([][]string, 0, len(buckets))
	for _, s := range buckets {
		rows = append(rows, []string{s.Name, strconv.Itoa(s.Count), fmt.Sprintf("%.1f%%", s.Percentage)})
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", cli.FormatTitle(title), cli.Table([]string{"Name", "Customers", "Share"}, rows, nil))
	return err
}

func printOverview(w io.Writer, view *dashboard.OverviewView) error {
	m := view.Metrics
	pairs := [][2]string{
		{"Service", cli.StatusStyle(view.ServiceStatus).Render(view.ServiceStatus)},
		{"Customers", dashboard.FormatNumber(m.TotalCustomers)},
		{"Revenue", dashboard.FormatCurrency(m.TotalRevenue)},
		{"Avg churn probability", dashboard.FormatPercent(m.AvgChurnProbability)},
		{"High risk customers", dashboard.FormatNumber(m.HighRiskCustomers)},
	}
	if view.Inference != nil {
		pairs = append(pairs,
			[2]string{"Predictions today", dashboard.FormatNumber(view.Inference.TotalPredictionsToday)},
			[2]string{"High risk alerts", dashboard.FormatNumber(view.Inference.HighRiskAlerts)},
		)
	}
	if _, err := fmt.Fprintln(w, cli.RenderBox(cli.ChartIcon+" Executive Overview", cli.KeyValues(pairs))); err != nil {
		return err
	}
	if err := printSlices(w, "Segments", view.SegmentDistribution); err != nil {
		return err
	}
	if err := printSlices(w, "Risk levels", view.RiskDistribution); err != nil {
		return err
	}
	if len(view.AtRisk) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, cli.FormatTitle("At-risk customers")); err != nil {
		return err
	}
	return printCustomers(w, view.AtRisk)
}

func countRows[V int | float64](m map[string]V, format func(V) string) [][]string {
	rows := make([][]string, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		rows = append(rows, []string{k, format(m[k])})
	}
	return rows
}

func printCustomerAnalytics(w io.Writer, a *model.CustomerAnalytics) error {
	tx := a.Transactions
	pairs := [][2]string{
		{"Customers", dashboard.FormatNumber(a.Demographics.TotalCustomers)},
		{"Transactions", dashboard.FormatNumber(tx.TotalTransactions)},
		{"Volume", dashboard.FormatCurrency(tx.TotalVolume)},
		{"Avg amount", dashboard.FormatCurrency(tx.AvgTransactionAmount)},
		{"Fraud rate", dashboard.FormatPercent(tx.FraudRate)},
		{"Avg transactions per customer", fmt.Sprintf("%.1f", a.CustomerActivity.AvgTransactionsPerCustomer)},
	}
	if _, err := fmt.Fprintln(w, cli.RenderBox("Customer Analytics", cli.KeyValues(pairs))); err != nil {
		return err
	}

	sections := []struct {
		title string
		rows  [][]string
	}{
		{"Locations", countRows(a.Demographics.LocationDistribution, strconv.Itoa)},
		{"Account types", countRows(a.Demographics.AccountTypeDistribution, strconv.Itoa)},
		{"Categories", countRows(tx.TransactionByCategory, strconv.Itoa)},
		{"Payment methods", countRows(tx.PaymentMethods, strconv.Itoa)},
	}
	for _, s := range sections {
		if len(s.rows) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s\n%s\n", cli.FormatTitle(s.title), cli.Table([]string{"Name", "Count"}, s.rows, nil)); err != nil {
			return err
		}
	}
	return nil
}

func printTransactionAnalytics(w io.Writer, a *model.TransactionAnalytics) error {
	s := a.Summary
	pairs := [][2]string{
		{"Period", fmt.Sprintf("%s to %s (%d days)", a.Period.StartDate, a.Period.EndDate, a.Period.Days)},
		{"Transactions", dashboard.FormatNumber(s.TotalTransactions)},
		{"Volume", dashboard.FormatCurrency(s.TotalVolume)},
		{"Avg amount", dashboard.FormatCurrency(s.AvgTransactionAmount)},
		{"Fraud", fmt.Sprintf("%s (%s)", dashboard.FormatNumber(s.FraudTransactions), dashboard.FormatPercent(s.FraudRate))},
		{"Customers", dashboard.FormatNumber(s.UniqueCustomers)},
		{"Merchants", dashboard.FormatNumber(s.UniqueMerchants)},
	}
	if _, err := fmt.Fprintln(w, cli.RenderBox("Transaction Analytics", cli.KeyValues(pairs))); err != nil {
		return err
	}

	rows := make([][]string, 0, len(a.CategoryBreakdown))
	for _, c := range a.CategoryBreakdown {
		rows = append(rows, []string{
			c.Category,
			dashboard.FormatNumber(c.TransactionCount),
			dashboard.FormatCurrency(c.TotalAmount),
			dashboard.FormatCurrency(c.AvgAmount),
			strconv.Itoa(c.FraudCount),
		})
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", cli.FormatTitle("Categories"),
		cli.Table([]string{"Category", "Count", "Total", "Avg", "Fraud"}, rows, nil))
	return err
}

func printFraud(w io.Writer, view *dashboard.FraudView) error {
	act := view.Activity
	pairs := [][2]string{
		{"Window", fmt.Sprintf("%d days", act.Days)},
		{"Transactions", dashboard.FormatNumber(act.Transactions)},
		{"Fraudulent", dashboard.FormatNumber(act.FraudTransactions)},
		{"Fraud rate", dashboard.FormatPercent(act.FraudRate)},
		{"High risk alerts", dashboard.FormatNumber(act.HighRiskAlerts)},
		{"Volume", dashboard.FormatCurrency(act.Volume)},
	}
	if _, err := fmt.Fprintln(w, cli.RenderBox("Fraud Detection", cli.KeyValues(pairs))); err != nil {
		return err
	}

	detectors := make([][]string, 0, len(view.Reference.Detectors))
	for _, d := range view.Reference.Detectors {
		detectors = append(detectors, []string{
			d.Name,
			fmt.Sprintf("%.1f%%", dashboard.AsPercent(d.Accuracy)),
			fmt.Sprintf("%.1f%%", dashboard.AsPercent(d.FalsePositiveRate)),
			fmt.Sprintf("%.1f%%", dashboard.AsPercent(d.DetectionRate)),
		})
	}
	if _, err := fmt.Fprintf(w, "%s\n%s\n", cli.FormatTitle("Detectors"),
		cli.Table([]string{"Detector", "Accuracy", "False positives", "Detection"}, detectors, nil)); err != nil {
		return err
	}

	alerts := make([][]string, 0, len(view.Reference.Alerts))
	for _, a := range view.Reference.Alerts {
		alerts = append(alerts, []string{a.ID, a.Customer, a.Reason, a.Priority, a.Status, dashboard.FormatCurrency(a.Amount)})
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", cli.FormatTitle("Alerts"),
		cli.Table([]string{"Alert", "Customer", "Reason", "Priority", "Status", "Amount"}, alerts, riskCell(3)))
	return err
}

func printSegmentation(w io.Writer, view *dashboard.SegmentationView) error {
	if err := printSlices(w, fmt.Sprintf("Observed segments (%d customers)", view.Activity.Customers), view.Activity.Segments); err != nil {
		return err
	}
	rows := make([][]string, 0, len(view.Profiles.Segments))
	for _, p := range view.Profiles.Segments {
		rows = append(rows, []string{
			p.Name,
			dashboard.FormatNumber(p.Size),
			fmt.Sprintf("%.1f%%", p.Percentage),
			dashboard.FormatCurrency(p.AvgCLV),
			fmt.Sprintf("%.0f%%", dashboard.AsPercent(p.Retention)),
		})
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", cli.FormatTitle("RFM segment profiles"),
		cli.Table([]string{"Segment", "Size", "Share", "Avg CLV", "Retention"}, rows, nil))
	return err
}

func printModelInsights(w io.Writer, view *dashboard.ModelInsightsView) error {
	rows := make([][]string, 0, len(view.Models))
	for _, m := range view.Models {
		loaded := "-"
		if m.Loaded != nil {
			loaded = loadedLabel(*m.Loaded)
		}
		rows = append(rows, []string{
			m.Name,
			cli.StatusStyle(m.Status).Render(m.Status),
			loaded,
			fmt.Sprintf("%.1f%%", dashboard.AsPercent(m.Accuracy)),
			fmt.Sprintf("%.3f", m.F1Score),
			m.LastTrained,
		})
	}
	if _, err := fmt.Fprintln(w, cli.Table([]string{"Model", "Status", "Loaded", "Accuracy", "F1", "Trained"}, rows, nil)); err != nil {
		return err
	}

	drift := make([][]string, 0, len(view.Drift))
	for _, d := range view.Drift {
		drift = append(drift, []string{
			d.Metric,
			fmt.Sprintf("%.3f %s", d.Churn, d.Status["churn"]),
			fmt.Sprintf("%.3f %s", d.Fraud, d.Status["fraud"]),
			fmt.Sprintf("%.3f %s", d.Segmentation, d.Status["segmentation"]),
			fmt.Sprintf("%.3f", d.Threshold),
		})
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", cli.FormatTitle("Drift"),
		cli.Table([]string{"Metric", "Churn", "Fraud", "Segmentation", "Threshold"}, drift, nil))
	return err
}

func printEndpoints(w io.Writer, view *dashboard.APIDocumentationView) error {
	for _, g := range view.Groups {
		rows := make([][]string, 0, len(g.Endpoints))
		for _, e := range g.Endpoints {
			rows = append(rows, []string{e.Method, e.Path, e.Description})
		}
		if _, err := fmt.Fprintf(w, "%s\n%s\n", cli.FormatTitle(g.Name),
			cli.Table([]string{"Method", "Path", "Description"}, rows, nil)); err != nil {
			return err
		}
	}
	return nil
}

func printExplanation(w io.Writer, customerID string, e *model.ModelExplanation) error {
	rows := make([][]string, 0, len(e.FeatureContributions))
	for _, c := range e.FeatureContributions {
		rows = append(rows, []string{
			c.FeatureName,
			strconv.FormatFloat(c.FeatureValue, 'f', -1, 64),
			fmt.Sprintf("%+.4f", c.Contribution),
			fmt.Sprintf("%.4f", c.Importance),
		})
	}
	probs := make([]string, 0, len(e.Probability))
	for _, p := range e.Probability {
		probs = append(probs, fmt.Sprintf("%.3f", p))
	}
	_, err := fmt.Fprintf(w, "%s\n%s\nPrediction: %t  Probability: [%s]\n%s\n",
		cli.FormatTitle("Explanation for "+customerID),
		e.ExplanationSummary,
		e.Prediction, strings.Join(probs, ", "),
		cli.Table([]string{"Feature", "Value", "Contribution", "Importance"}, rows, nil))
	return err
}
