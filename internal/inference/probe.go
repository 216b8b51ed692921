package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/finsight/internal/model"
	"github.com/google/uuid"
)

// Probe sends an arbitrary request to the service and reports the outcome
// instead of failing. Path is relative to the base URL.
func (c *Client) Probe(ctx context.Context, method, path string, body any) model.ProbeResult {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	result := model.ProbeResult{Method: method, Path: path}

	if !strings.HasPrefix(path, "/") {
		result.Error = fmt.Sprintf("path must start with /, got %q", path)
		return result
	}

	var reader io.Reader
	if body != nil && method != http.MethodGet {
		payload, err := json.Marshal(body)
		if err != nil {
			result.Error = fmt.Sprintf("encoding body: %v", err)
			return result
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	req.Header.Set(HeaderRequestID, uuid.NewString())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	result.ResponseTime = time.Since(start)
	if err != nil {
		observe(method, "probe", "error", result.ResponseTime)
		if errors.Is(err, context.DeadlineExceeded) {
			result.Error = "request timed out"
		} else {
			result.Error = err.Error()
		}
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	observe(method, "probe", fmt.Sprint(resp.StatusCode), result.ResponseTime)
	result.StatusCode = resp.StatusCode

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		result.Error = fmt.Sprintf("reading response: %v", err)
		return result
	}
	result.Data = rawJSON(data)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Error = fmt.Sprintf("status %d: %s", resp.StatusCode, errorMessage(resp.StatusCode, data))
	}
	return result
}

// rawJSON returns data unchanged when it is valid JSON and as a JSON
// string otherwise.
func rawJSON(data []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	quoted, err := json.Marshal(string(trimmed))
	if err != nil {
		return nil
	}
	return quoted
}
