package inference

import (
	"context"

	"github.com/Veraticus/finsight/internal/model"
)

// Health returns the basic health report.
func (c *Client) Health(ctx context.Context) (*model.Health, error) {
	var out model.Health
	if err := c.get(ctx, "/health", "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DetailedHealth returns health with host metrics and per-model state.
func (c *Client) DetailedHealth(ctx context.Context) (*model.DetailedHealth, error) {
	var out model.DetailedHealth
	if err := c.get(ctx, "/health/detailed", "/health/detailed", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ready returns the readiness probe.
func (c *Client) Ready(ctx context.Context) (*model.Readiness, error) {
	var out model.Readiness
	if err := c.get(ctx, "/ready", "/ready", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Live returns the liveness probe.
func (c *Client) Live(ctx context.Context) (*model.Liveness, error) {
	var out model.Liveness
	if err := c.get(ctx, "/live", "/live", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ModelsStatus lists which models the service has loaded.
func (c *Client) ModelsStatus(ctx context.Context) (*model.ModelsStatus, error) {
	var out model.ModelsStatus
	if err := c.get(ctx, "/models/status", "/models/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReloadModels asks the service to reload its models from disk.
func (c *Client) ReloadModels(ctx context.Context) (*model.ReloadResponse, error) {
	var out model.ReloadResponse
	if err := c.post(ctx, "/models/reload", "/models/reload", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Metrics returns the service's operational counters.
func (c *Client) Metrics(ctx context.Context) (*model.InferenceMetrics, error) {
	var out model.InferenceMetrics
	if err := c.get(ctx, "/api/v1/inference/metrics", "/api/v1/inference/metrics", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
