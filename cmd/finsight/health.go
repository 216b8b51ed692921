package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/Veraticus/finsight/internal/cli"
	"github.com/Veraticus/finsight/internal/dashboard"
	"github.com/Veraticus/finsight/internal/model"
	"github.com/spf13/cobra"
)

func healthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check inference service health",
		Long: `Check the inference service. With --detailed the host metrics and the
load state of every model are shown, along with readiness and liveness.`,
		Args: cobra.NoArgs,
		RunE: withApp(runHealth),
	}
	cmd.Flags().Bool("detailed", false, "show detailed health, readiness and liveness")
	return cmd
}

func runHealth(cmd *cobra.Command, _ []string, a *app) error {
	ctx := cmd.Context()
	detailed, _ := cmd.Flags().GetBool("detailed")

	if !detailed {
		health, err := a.api.Health(ctx)
		if err != nil {
			return err
		}
		return render(cmd, health, func(w io.Writer) error {
			pairs := [][2]string{
				{"Status", cli.StatusStyle(health.Status).Render(health.Status)},
				{"Version", health.Version},
				{"Checked", health.Timestamp.Format("2006-01-02 15:04:05")},
			}
			for _, name := range slices.Sorted(maps.Keys(health.ModelsLoaded)) {
				pairs = append(pairs, [2]string{"Model " + name, loadedLabel(health.ModelsLoaded[name])})
			}
			_, err := fmt.Fprintln(w, cli.RenderBox("Inference Service", cli.KeyValues(pairs)))
			return err
		})
	}

	report := struct {
		Detailed  *model.DetailedHealth `json:"detailed"`
		Readiness *model.Readiness      `json:"readiness,omitempty"`
		Liveness  *model.Liveness       `json:"liveness,omitempty"`
	}{}

	var err error
	if report.Detailed, err = a.api.DetailedHealth(ctx); err != nil {
		return err
	}
	if report.Readiness, err = a.api.Ready(ctx); err != nil {
		a.logger.Warn("Readiness probe failed", "error", err)
	}
	if report.Liveness, err = a.api.Live(ctx); err != nil {
		a.logger.Warn("Liveness probe failed", "error", err)
	}

	return render(cmd, report, func(w io.Writer) error {
		d := report.Detailed
		pairs := [][2]string{
			{"Status", cli.StatusStyle(d.Status).Render(d.Status)},
			{"Version", d.Version},
		}
		if report.Readiness != nil {
			pairs = append(pairs, [2]string{"Ready", cli.StatusStyle(report.Readiness.Status).Render(report.Readiness.Status)})
		}
		if report.Liveness != nil {
			pairs = append(pairs, [2]string{"Live", cli.StatusStyle(report.Liveness.Status).Render(report.Liveness.Status)})
		}
		for _, k := range slices.Sorted(maps.Keys(d.SystemMetrics)) {
			pairs = append(pairs, [2]string{k, fmt.Sprintf("%.1f", d.SystemMetrics[k])})
		}
		if _, err := fmt.Fprintln(w, cli.RenderBox("Inference Service", cli.KeyValues(pairs))); err != nil {
			return err
		}

		rows := make([][]string, 0, len(d.ModelsStatus))
		for _, name := range slices.Sorted(maps.Keys(d.ModelsStatus)) {
			state := d.ModelsStatus[name]
			trained := "-"
			if state.LastTrained != nil {
				trained = state.LastTrained.Format("2006-01-02")
			}
			rows = append(rows, []string{name, loadedLabel(state.Loaded), trained})
		}
		_, err := fmt.Fprintln(w, cli.Table([]string{"Model", "State", "Last trained"}, rows, nil))
		return err
	})
}

func loadedLabel(loaded bool) string {
	if loaded {
		return cli.SuccessStyle.Render("loaded")
	}
	return cli.ErrorStyle.Render("not loaded")
}

func modelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Inspect and reload inference models",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show which models are loaded",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			status, err := a.api.ModelsStatus(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd, status, func(w io.Writer) error {
				rows := make([][]string, 0, len(status.Models))
				for _, name := range slices.Sorted(maps.Keys(status.Models)) {
					rows = append(rows, []string{name, loadedLabel(status.Models[name])})
				}
				_, err := fmt.Fprintf(w, "%s\n%d of %d models loaded\n",
					cli.Table([]string{"Model", "State"}, rows, nil), status.LoadedModels, status.TotalModels)
				return err
			})
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reload",
		Short: "Ask the service to reload its models",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			resp, err := a.api.ReloadModels(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd, resp, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, cli.FormatSuccess(resp.Message))
				return err
			})
		}),
	})

	return cmd
}

func metricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Show inference service metrics",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			metrics, err := a.api.Metrics(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd, metrics, func(w io.Writer) error {
				m := metrics.Metrics
				pairs := [][2]string{
					{"Predictions today", dashboard.FormatNumber(m.TotalPredictionsToday)},
					{"Avg response time", fmt.Sprintf("%.1f ms", m.AvgResponseTimeMs)},
					{"Error rate", dashboard.FormatPercent(m.ErrorRate)},
					{"High risk alerts", dashboard.FormatNumber(m.HighRiskAlerts)},
					{"Uptime", fmt.Sprintf("%.1f h", m.UptimeHours)},
				}
				for _, name := range slices.Sorted(maps.Keys(m.ModelAccuracy)) {
					pairs = append(pairs, [2]string{"Accuracy " + name, fmt.Sprintf("%.1f%%", dashboard.AsPercent(m.ModelAccuracy[name]))})
				}
				_, err := fmt.Fprintln(w, cli.RenderBox("Inference Metrics", cli.KeyValues(pairs)))
				return err
			})
		}),
	}
}

func probeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe METHOD PATH",
		Short: "Send an ad hoc request to any service endpoint",
		Long: `Send a request to any inference service endpoint and show the status
code, latency and response body. Failures are reported, not returned.`,
		Example: `  finsight probe GET /health
  finsight probe POST /api/v1/inference/churn-score --body '{"customer_id":"CUST_000001"}'`,
		Args: cobra.ExactArgs(2),
		RunE: withApp(runProbe),
	}
	cmd.Flags().String("body", "", "JSON request body")
	return cmd
}

func runProbe(cmd *cobra.Command, args []string, a *app) error {
	method := strings.ToUpper(args[0])
	path := args[1]
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var body any
	if raw, _ := cmd.Flags().GetString("body"); raw != "" {
		if !json.Valid([]byte(raw)) {
			return fmt.Errorf("--body is not valid JSON")
		}
		body = json.RawMessage(raw)
	}

	result := a.api.Probe(cmd.Context(), method, path, body)
	return render(cmd, result, func(w io.Writer) error {
		status := cli.SuccessStyle.Render(fmt.Sprintf("%d", result.StatusCode))
		if result.Error != "" {
			status = cli.ErrorStyle.Render(fmt.Sprintf("%d %s", result.StatusCode, result.Error))
		}
		if _, err := fmt.Fprintf(w, "%s %s → %s (%.0f ms)\n", method, path, status, result.ResponseTimeMs()); err != nil {
			return err
		}
		if len(result.Data) > 0 {
			var pretty any
			if err := json.Unmarshal(result.Data, &pretty); err == nil {
				return printJSON(w, pretty)
			}
			_, err := fmt.Fprintln(w, string(result.Data))
			return err
		}
		return nil
	})
}
