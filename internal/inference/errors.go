package inference

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Veraticus/finsight/internal/common"
)

// maxErrorBody bounds how much of an error body is kept for messages.
const maxErrorBody = 512

// APIError is a non-2xx response from the inference service.
type APIError struct {
	Method     string
	Path       string
	Message    string
	RequestID  string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("inference API error (status %d) %s %s: %s", e.StatusCode, e.Method, e.Path, e.Message)
}

// Is maps status codes onto the shared sentinel errors.
func (e *APIError) Is(target error) bool {
	switch target {
	case common.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case common.ErrUnavailable:
		return e.StatusCode == http.StatusServiceUnavailable ||
			e.StatusCode == http.StatusBadGateway ||
			e.StatusCode == http.StatusGatewayTimeout
	case common.ErrRateLimit:
		return e.StatusCode == http.StatusTooManyRequests
	case common.ErrBadRequest:
		return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
	}
	return false
}

// Temporary reports whether repeating the request could succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

func newAPIError(method, path, requestID string, status int, body []byte) *APIError {
	return &APIError{
		Method:     method,
		Path:       path,
		RequestID:  requestID,
		StatusCode: status,
		Message:    errorMessage(status, body),
	}
}

// errorMessage extracts a readable message from FastAPI style
// {"detail": ...} or {"error": ..., "message": ...} bodies.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if len(payload.Detail) > 0 {
			var detail string
			if json.Unmarshal(payload.Detail, &detail) == nil {
				return detail
			}
			var compact bytes.Buffer
			if json.Compact(&compact, payload.Detail) == nil {
				return truncate(compact.String())
			}
		}
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return truncate(text)
	}
	return http.StatusText(status)
}

func truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	return s[:maxErrorBody] + "..."
}
