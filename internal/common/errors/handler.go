// internal/common/errors/handler.go
package errors

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorHandler turns any error into a StandardError response.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// ErrorBody is the JSON shape written for every failed request.
type ErrorBody struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Errors    map[string]string      `json:"errors,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Respond logs err and writes the mapped status and body, aborting the gin chain.
func (h *ErrorHandler) Respond(c *gin.Context, err error) {
	stdErr := h.Normalize(err)
	status := HTTPStatus(stdErr.Code)

	h.logError(c, stdErr, status)

	c.AbortWithStatusJSON(status, ErrorBody{
		Code:      stdErr.Code,
		Message:   stdErr.Message,
		Details:   publicDetails(stdErr),
		Retryable: stdErr.Retryable,
		Errors:    stdErr.Fields,
		Metadata:  publicMetadata(stdErr),
	})
}

// Normalize ensures we always have a StandardError.
func (h *ErrorHandler) Normalize(err error) *StandardError {
	if stdErr, ok := As(err); ok {
		return stdErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewNetworkError("request", err)
	}
	return &StandardError{
		Code:      ErrCodeInternalError,
		Message:   GenericFailureMessage,
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func (h *ErrorHandler) logError(c *gin.Context, stdErr *StandardError, status int) {
	fields := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
		"status":        status,
		"method":        c.Request.Method,
		"path":          c.FullPath(),
	}
	if requestID, ok := c.Get("requestId"); ok {
		fields["requestId"] = requestID
	}

	if status >= 500 {
		h.logger.Error("request failed", fields)
		return
	}
	h.logger.Warn("request rejected", fields)
}

// Internal details of server-side failures stay in the logs.
func publicDetails(stdErr *StandardError) string {
	switch stdErr.Code {
	case ErrCodeInternalError, ErrCodeNetworkError, ErrCodeUploadFailed:
		return ""
	default:
		return stdErr.Details
	}
}

func publicMetadata(stdErr *StandardError) map[string]interface{} {
	if stdErr.Code == ErrCodeOTPResendCooldown {
		return stdErr.Metadata
	}
	return nil
}
