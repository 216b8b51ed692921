package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/Veraticus/finsight/internal/fallback"
	"github.com/Veraticus/finsight/internal/model"
	"github.com/Veraticus/finsight/internal/service"
)

// DefaultChunkSize is the number of customers sent per batch request.
const DefaultChunkSize = 100

// PredictChurn scores one customer. When the service fails or rejects the
// request, a known customer profile keeps its stored probability and
// anything else is scored by the local heuristic. Requests that fail local
// validation are returned as errors.
func (b *Builder) PredictChurn(ctx context.Context, req model.ChurnPredictionRequest, profile *model.Customer) (*PredictionView, error) {
	prediction, err := b.api.PredictChurn(ctx, req)
	if err == nil {
		b.record(ctx, model.SourceLive, *prediction)
		return &PredictionView{Source: model.SourceLive, Prediction: *prediction}, nil
	}
	if common.IsValidation(err) || errors.Is(err, context.Canceled) {
		return nil, err
	}
	b.logger.Warn("Churn prediction failed, using fallback", "customer_id", req.CustomerID, "error", err)

	view := &PredictionView{
		Source:     model.SourceHeuristic,
		Prediction: fallback.HeuristicChurn(req),
		Notice:     "Inference service unavailable. Showing a rule-based estimate.",
	}
	if profile != nil {
		view.Source = model.SourceProfile
		view.Prediction = fallback.ProfileChurn(*profile)
		view.Notice = "Inference service unavailable. Showing the customer's last known churn probability."
	}
	b.record(ctx, view.Source, view.Prediction)

	return view, nil
}

// BatchResult is the outcome of scoring many customers.
type BatchResult struct {
	Predictions []model.ChurnPrediction `json:"predictions"`
	Summary     model.ChurnBatchSummary `json:"summary"`
	Fallbacks   int                     `json:"fallbacks"`
}

// ScoreBatch scores reqs in sequential chunks of chunkSize. Chunks the
// service fails or rejects are scored by the heuristic; local validation
// failures stop the run. progress, when set, receives the number of requests finished
// after each chunk.
func (b *Builder) ScoreBatch(ctx context.Context, reqs []model.ChurnPredictionRequest, chunkSize int, progress func(done int)) (*BatchResult, error) {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}

	result := &BatchResult{Predictions: make([]model.ChurnPrediction, 0, len(reqs))}
	for start := 0; start < len(reqs); start += chunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunk := reqs[start:min(start+chunkSize, len(reqs))]

		resp, err := b.api.PredictChurnBatch(ctx, chunk)
		switch {
		case err == nil:
			result.Predictions = append(result.Predictions, resp.Predictions...)
			b.record(ctx, model.SourceLive, resp.Predictions...)
		case common.IsValidation(err), errors.Is(err, context.Canceled):
			return nil, fmt.Errorf("batch starting at %d: %w", start, err)
		default:
			b.logger.Warn("Batch scoring failed, using heuristic", "offset", start, "size", len(chunk), "error", err)
			scored := make([]model.ChurnPrediction, 0, len(chunk))
			for _, req := range chunk {
				scored = append(scored, fallback.HeuristicChurn(req))
			}
			result.Predictions = append(result.Predictions, scored...)
			result.Fallbacks += len(chunk)
			b.record(ctx, model.SourceHeuristic, scored...)
		}

		if progress != nil {
			progress(start + len(chunk))
		}
	}

	result.Summary = Summarize(result.Predictions)
	return result, nil
}

// Summarize aggregates predictions. High risk means a probability of at
// least 0.7, matching the High Risk band.
func Summarize(predictions []model.ChurnPrediction) model.ChurnBatchSummary {
	s := model.ChurnBatchSummary{TotalCustomers: len(predictions)}
	if len(predictions) == 0 {
		return s
	}
	var sum float64
	for _, p := range predictions {
		sum += p.ChurnProbability
		if p.ChurnPrediction {
			s.PredictedChurners++
		}
		if p.ChurnProbability >= model.HighRiskThreshold {
			s.HighRiskCustomers++
		}
	}
	s.AvgChurnProbability = sum / float64(len(predictions))
	return s
}

// ChurnReport scores every customer matching query and returns the roster
// with its predictions.
func (b *Builder) ChurnReport(ctx context.Context, query model.CustomerQuery, chunkSize int, progress func(done int)) (*service.ChurnReport, error) {
	page, err := b.api.ListCustomers(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	reqs := make([]model.ChurnPredictionRequest, 0, len(page.Customers))
	for _, c := range page.Customers {
		reqs = append(reqs, c.ChurnRequest())
	}
	batch, err := b.ScoreBatch(ctx, reqs, chunkSize, progress)
	if err != nil {
		return nil, err
	}

	report := &service.ChurnReport{
		GeneratedAt: b.now(),
		Customers:   page.Customers,
		Predictions: make(map[string]model.ChurnPrediction, len(batch.Predictions)),
		Summary:     batch.Summary,
	}
	for _, p := range batch.Predictions {
		report.Predictions[p.CustomerID] = p
	}
	return report, nil
}

// Export builds a churn report and hands it to w.
func (b *Builder) Export(ctx context.Context, w service.ReportWriter, query model.CustomerQuery, chunkSize int, progress func(done int)) (*service.ChurnReport, error) {
	report, err := b.ChurnReport(ctx, query, chunkSize, progress)
	if err != nil {
		return nil, err
	}
	if err := w.Write(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	b.logger.Info("Exported churn report", "customers", len(report.Customers), "high_risk", report.Summary.HighRiskCustomers)
	return report, nil
}
