package inference

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/Veraticus/finsight/internal/model"
)

const inferencePrefix = "/api/v1/inference"

// PredictChurn scores one customer.
func (c *Client) PredictChurn(ctx context.Context, req model.ChurnPredictionRequest) (*model.ChurnPrediction, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var out model.ChurnPrediction
	if err := c.post(ctx, inferencePrefix+"/churn-score", inferencePrefix+"/churn-score", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PredictChurnBatch scores several customers in one request.
func (c *Client) PredictChurnBatch(ctx context.Context, reqs []model.ChurnPredictionRequest) (*model.ChurnBatchResponse, error) {
	body := model.ChurnBatchRequest{Customers: reqs}
	if err := validateRequest(body); err != nil {
		return nil, err
	}

	var out model.ChurnBatchResponse
	if err := c.post(ctx, inferencePrefix+"/churn-batch", inferencePrefix+"/churn-batch", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PredictSegment assigns a customer to a segment.
func (c *Client) PredictSegment(ctx context.Context, req model.ChurnPredictionRequest) (*model.SegmentPrediction, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var out model.SegmentPrediction
	if err := c.post(ctx, inferencePrefix+"/segment", inferencePrefix+"/segment", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DetectFraud scores one transaction for fraud.
func (c *Client) DetectFraud(ctx context.Context, tx model.TransactionInput) (*model.FraudPrediction, error) {
	if err := validateRequest(tx); err != nil {
		return nil, err
	}

	var out model.FraudPrediction
	if err := c.post(ctx, inferencePrefix+"/fraud-detection", inferencePrefix+"/fraud-detection", tx, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitBatchProcess queues an offline processing job.
func (c *Client) SubmitBatchProcess(ctx context.Context, req model.BatchProcessRequest) (*model.BatchProcessResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var out model.BatchProcessResponse
	if err := c.post(ctx, inferencePrefix+"/batch-process", inferencePrefix+"/batch-process", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Explain returns the feature contributions behind a prediction.
// modelType defaults to "churn", the only type the service explains.
func (c *Client) Explain(ctx context.Context, customerID, modelType string) (*model.ModelExplanation, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, common.NewValidationError(errCustomerIDRequired)
	}
	if modelType == "" {
		modelType = "churn"
	}

	var out model.ModelExplanation
	cl := call{
		method: http.MethodGet,
		route:  inferencePrefix + "/explain",
		path:   inferencePrefix + "/explain",
		query: url.Values{
			"customer_id": []string{customerID},
			"model_type":  []string{modelType},
		},
	}
	if err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
