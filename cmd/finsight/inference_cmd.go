package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/Veraticus/finsight/internal/cli"
	"github.com/Veraticus/finsight/internal/dashboard"
	"github.com/Veraticus/finsight/internal/model"
	"github.com/spf13/cobra"
)

func addChurnRequestFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("customer-id", "", "customer identifier (required)")
	f.Int("days", 0, "days since the last transaction")
	f.Int("transactions", 0, "total transaction count")
	f.Float64("avg-amount", 0, "average transaction amount")
	f.Float64("total", 0, "total transaction amount")
	_ = cmd.MarkFlagRequired("customer-id")
}

func churnRequestFromFlags(cmd *cobra.Command) model.ChurnPredictionRequest {
	f := cmd.Flags()
	req := model.ChurnPredictionRequest{}
	req.CustomerID, _ = f.GetString("customer-id")
	req.DaysSinceLastTransaction, _ = f.GetInt("days")
	req.TotalTransactions, _ = f.GetInt("transactions")
	req.AvgTransactionAmount, _ = f.GetFloat64("avg-amount")
	req.TotalAmount, _ = f.GetFloat64("total")
	return req
}

func churnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "churn",
		Short: "Score churn risk",
	}

	score := &cobra.Command{
		Use:   "score",
		Short: "Score one customer's churn risk",
		Long: `Score one customer's churn risk. When the service is unavailable the
customer's known probability (--probability) is reused, otherwise a
rule-based estimate is shown.`,
		Example: `  finsight churn score --customer-id CUST_000042 --days 45 --transactions 12 --avg-amount 80 --total 960`,
		Args:    cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			req := churnRequestFromFlags(cmd)

			var profile *model.Customer
			if cmd.Flags().Changed("probability") {
				p, _ := cmd.Flags().GetFloat64("probability")
				if p < 0 || p > 1 {
					return fmt.Errorf("--probability must be between 0 and 1")
				}
				profile = &model.Customer{
					CustomerID:               req.CustomerID,
					DaysSinceLastTransaction: req.DaysSinceLastTransaction,
					TotalTransactions:        req.TotalTransactions,
					AvgTransactionAmount:     req.AvgTransactionAmount,
					TotalAmount:              req.TotalAmount,
					ChurnProbability:         p,
				}
			}

			view, err := a.builder.PredictChurn(cmd.Context(), req, profile)
			if err != nil {
				return err
			}
			return render(cmd, view, func(w io.Writer) error {
				if view.Notice != "" {
					fmt.Fprintln(w, cli.FormatWarning(view.Notice))
				}
				return printChurnPrediction(w, view.Prediction, view.Source)
			})
		}),
	}
	addChurnRequestFlags(score)
	score.Flags().Float64("probability", 0, "known churn probability used when the service is down")

	cmd.AddCommand(score)
	return cmd
}

func printChurnPrediction(w io.Writer, p model.ChurnPrediction, source model.PredictionSource) error {
	band := model.ChurnRiskLevel(p.ChurnProbability)
	pairs := [][2]string{
		{"Churn probability", dashboard.FormatPercent(p.ChurnProbability)},
		{"Risk", cli.RiskStyle(band).Render(band)},
		{"Will churn", fmt.Sprintf("%t", p.ChurnPrediction)},
		{"Confidence", dashboard.FormatPercent(p.Confidence)},
		{"Source", string(source)},
	}
	for _, name := range slices.Sorted(maps.Keys(p.FeaturesImportance)) {
		pairs = append(pairs, [2]string{name, fmt.Sprintf("%.3f", p.FeaturesImportance[name])})
	}
	_, err := fmt.Fprintln(w, cli.RenderBox(p.CustomerID, cli.KeyValues(pairs)))
	return err
}

func segmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segment",
		Short: "Predict a customer's segment",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			seg, err := a.api.PredictSegment(cmd.Context(), churnRequestFromFlags(cmd))
			if err != nil {
				return err
			}
			return render(cmd, seg, func(w io.Writer) error {
				pairs := [][2]string{
					{"Segment", fmt.Sprintf("%s (#%d)", seg.SegmentName, seg.SegmentID)},
					{"Confidence", dashboard.FormatPercent(seg.Confidence)},
				}
				for _, k := range slices.Sorted(maps.Keys(seg.Characteristics)) {
					pairs = append(pairs, [2]string{k, fmt.Sprint(seg.Characteristics[k])})
				}
				_, err := fmt.Fprintln(w, cli.RenderBox(seg.CustomerID, cli.KeyValues(pairs)))
				return err
			})
		}),
	}
	addChurnRequestFlags(cmd)
	return cmd
}

func fraudCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fraud",
		Short: "Score transactions for fraud",
	}

	check := &cobra.Command{
		Use:     "check",
		Short:   "Score one transaction for fraud",
		Example: `  finsight fraud check --customer-id CUST_000042 --amount 2400 --merchant "Electronics Hub" --category retail --mode "Credit Card" --location Austin`,
		Args:    cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			tx, err := transactionInputFromFlags(cmd)
			if err != nil {
				return err
			}
			verdict, err := a.api.DetectFraud(cmd.Context(), tx)
			if err != nil {
				return err
			}
			return render(cmd, verdict, func(w io.Writer) error {
				label := cli.SuccessStyle.Render("legitimate")
				if verdict.FraudPrediction {
					label = cli.ErrorStyle.Render("fraud")
				}
				pairs := [][2]string{
					{"Verdict", label},
					{"Fraud probability", dashboard.FormatPercent(verdict.FraudProbability)},
					{"Anomaly score", fmt.Sprintf("%.3f", verdict.AnomalyScore)},
				}
				if len(verdict.RiskFactors) > 0 {
					pairs = append(pairs, [2]string{"Risk factors", strings.Join(verdict.RiskFactors, ", ")})
				}
				_, err := fmt.Fprintln(w, cli.RenderBox(verdict.CustomerID, cli.KeyValues(pairs)))
				return err
			})
		}),
	}
	f := check.Flags()
	f.String("customer-id", "", "customer identifier")
	f.Float64("amount", 0, "transaction amount")
	f.String("merchant", "", "merchant name")
	f.String("category", "", "merchant category (grocery, restaurant, gas, retail, ...)")
	f.String("mode", string(model.ModeCreditCard), "payment mode")
	f.String("location", "", "transaction location")
	f.String("remarks", "", "free-text remarks")
	f.String("date", "", "transaction time (default: now)")
	for _, name := range []string{"customer-id", "amount", "merchant", "category", "location"} {
		_ = check.MarkFlagRequired(name)
	}

	cmd.AddCommand(check)
	return cmd
}

func transactionInputFromFlags(cmd *cobra.Command) (model.TransactionInput, error) {
	f := cmd.Flags()
	tx := model.TransactionInput{TransactionDate: model.NewTimestamp(time.Now().UTC())}
	tx.CustomerID, _ = f.GetString("customer-id")
	tx.Amount, _ = f.GetFloat64("amount")
	tx.Merchant, _ = f.GetString("merchant")
	tx.Location, _ = f.GetString("location")
	tx.Remarks, _ = f.GetString("remarks")

	category, _ := f.GetString("category")
	tx.Category = model.Category(strings.ToLower(category))
	mode, _ := f.GetString("mode")
	tx.Mode = model.PaymentMode(mode)

	if date, _ := f.GetString("date"); date != "" {
		ts, err := model.ParseTimestamp(date)
		if err != nil {
			return tx, fmt.Errorf("--date: %w", err)
		}
		tx.TransactionDate = ts
	}
	return tx, nil
}

func explainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain CUSTOMER_ID",
		Short: "Explain a model's prediction for one customer",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			modelType, _ := cmd.Flags().GetString("model")
			explanation, err := a.api.Explain(cmd.Context(), args[0], modelType)
			if err != nil {
				return err
			}
			return render(cmd, explanation, func(w io.Writer) error {
				return printExplanation(w, args[0], explanation)
			})
		}),
	}
	cmd.Flags().String("model", "churn", "model to explain (churn, fraud, segmentation)")
	return cmd
}

func batchProcessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch-process",
		Short: "Submit a server-side batch job",
		Example: `  finsight batch-process --type churn --source s3://bucket/customers.csv
  finsight batch-process --type fraud --source warehouse.transactions --params '{"since":"2026-01-01"}'`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			f := cmd.Flags()
			req := model.BatchProcessRequest{}
			req.ProcessingType, _ = f.GetString("type")
			req.DataSource, _ = f.GetString("source")
			if raw, _ := f.GetString("params"); raw != "" {
				if err := json.Unmarshal([]byte(raw), &req.Parameters); err != nil {
					return fmt.Errorf("--params must be a JSON object: %w", err)
				}
			}

			job, err := a.api.SubmitBatchProcess(cmd.Context(), req)
			if err != nil {
				return err
			}
			return render(cmd, job, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, cli.RenderBox("Batch job submitted", cli.KeyValues([][2]string{
					{"Job", job.JobID},
					{"Status", job.Status},
					{"Estimated duration", job.EstimatedDuration},
					{"Message", job.Message},
				})))
				return err
			})
		}),
	}
	cmd.Flags().String("type", "", "processing type (churn, segment, fraud)")
	cmd.Flags().String("source", "", "data source the service should read")
	cmd.Flags().String("params", "", "extra parameters as a JSON object")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show locally recorded churn predictions",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			if a.store == nil {
				return errors.New("prediction history needs storage; set storage.driver")
			}
			customerID, _ := cmd.Flags().GetString("customer-id")
			limit, _ := cmd.Flags().GetInt("limit")

			records, err := a.store.PredictionHistory(cmd.Context(), customerID, limit)
			if err != nil {
				return err
			}
			if records == nil {
				records = []model.PredictionRecord{}
			}
			return render(cmd, records, func(w io.Writer) error {
				if len(records) == 0 {
					_, err := fmt.Fprintln(w, cli.FormatInfo("No predictions recorded yet."))
					return err
				}
				rows := make([][]string, 0, len(records))
				for _, r := range records {
					rows = append(rows, []string{
						r.PredictedAt.Local().Format("2006-01-02 15:04"),
						r.CustomerID,
						dashboard.FormatPercent(r.ChurnProbability),
						model.ChurnRiskLevel(r.ChurnProbability),
						string(r.Source),
					})
				}
				_, err := fmt.Fprintln(w, cli.Table(
					[]string{"When", "Customer", "Churn", "Risk", "Source"}, rows, riskCell(3)))
				return err
			})
		}),
	}
	cmd.Flags().String("customer-id", "", "only this customer")
	cmd.Flags().Int("limit", 50, "maximum records")
	return cmd
}
