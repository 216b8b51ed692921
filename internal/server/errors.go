package server

import (
	"errors"
	"net/http"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/gin-gonic/gin"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeInvalidInput = "APP_INVALID_INPUT"
	CodeNotFound     = "APP_NOT_FOUND"
	CodeUnavailable  = "APP_UPSTREAM_UNAVAILABLE"
	CodeStorageOff   = "APP_STORAGE_DISABLED"
	CodeInternal     = "APP_INTERNAL"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// errorStatus maps an error onto an HTTP status and code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrBadRequest):
		return http.StatusBadRequest, CodeInvalidInput
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, common.ErrStorageDisabled):
		return http.StatusServiceUnavailable, CodeStorageOff
	case errors.Is(err, common.ErrUnavailable):
		return http.StatusBadGateway, CodeUnavailable
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func (s *Server) writeError(c *gin.Context, err error, message string) {
	status, code := errorStatus(err)
	resp := ErrorResponse{
		Code:    code,
		Message: common.UserMessage(err, message),
		TraceID: traceID(c),
	}
	if s.exposeDetails {
		resp.Details = err.Error()
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error(message, "error", err, "trace_id", resp.TraceID)
	}
	c.JSON(status, resp)
}

func (s *Server) badRequest(c *gin.Context, message string, err error) {
	resp := ErrorResponse{Code: CodeInvalidInput, Message: message, TraceID: traceID(c)}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}
