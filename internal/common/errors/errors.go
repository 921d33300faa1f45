// Package errors provides the standardized error model used across the service.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Local, field-scoped, fixed by the user.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Backend unreachable, non-2xx, or a success=false envelope.
	ErrCodeNetworkError    ErrorCode = "NETWORK_ERROR"
	ErrCodeRequestRejected ErrorCode = "REQUEST_REJECTED"
	ErrCodeUploadFailed    ErrorCode = "UPLOAD_FAILED"

	// Required upstream draft data is missing; the flow must restart.
	ErrCodeSessionExpired ErrorCode = "SESSION_EXPIRED"

	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeRequestInFlight   ErrorCode = "REQUEST_IN_FLIGHT"
	ErrCodeOTPResendCooldown ErrorCode = "OTP_RESEND_COOLDOWN"

	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// GenericFailureMessage is shown when the backend gives no usable message.
const GenericFailureMessage = "Something went wrong. Please try again."

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Fields    map[string]string      `json:"errors,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches another *StandardError by code, so sentinel-style checks work:
// errors.Is(err, &StandardError{Code: ErrCodeSessionExpired}).
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError creates a field-scoped validation error. fields maps
// field name to the message shown inline next to it.
func NewValidationError(fields map[string]string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Please correct the highlighted fields",
		Details:   fmt.Sprintf("%d invalid field(s)", len(fields)),
		Retryable: true,
		Fields:    fields,
		Timestamp: time.Now().UTC(),
	}
}

// NewFieldValidationError is NewValidationError for a single field.
func NewFieldValidationError(field, message string) *StandardError {
	return NewValidationError(map[string]string{field: message})
}

// NewNetworkError creates a retryable error for an unreachable or failing backend call.
func NewNetworkError(operation string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeNetworkError,
		Message:   GenericFailureMessage,
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, details),
		Retryable: true,
		Metadata:  map[string]interface{}{"operation": operation},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewRequestRejectedError wraps a success=false backend envelope. The backend
// message is surfaced as-is; an empty one falls back to GenericFailureMessage.
func NewRequestRejectedError(operation, message string) *StandardError {
	if strings.TrimSpace(message) == "" {
		message = GenericFailureMessage
	}
	return &StandardError{
		Code:      ErrCodeRequestRejected,
		Message:   message,
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: true,
		Metadata:  map[string]interface{}{"operation": operation},
		Timestamp: time.Now().UTC(),
	}
}

// NewUploadFailedError creates the generic upload error; the whole upload must be redone.
func NewUploadFailedError(err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeUploadFailed,
		Message:   "File upload failed. Please upload the file again.",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewSessionExpiredError is returned when a later step is reached without the data of an earlier one.
func NewSessionExpiredError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionExpired,
		Message:   "Your session has expired. Please start your application again.",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidTransitionError reports an operation that the current wizard state does not accept.
func NewInvalidTransitionError(state, operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTransition,
		Message:   "This step is not available right now",
		Details:   fmt.Sprintf("state: %s, operation: %s", state, operation),
		Retryable: false,
		Metadata:  map[string]interface{}{"state": state, "operation": operation},
		Timestamp: time.Now().UTC(),
	}
}

// NewRequestInFlightError rejects a second trigger while a step is pending.
func NewRequestInFlightError(pending string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRequestInFlight,
		Message:   "Your previous request is still being processed",
		Details:   fmt.Sprintf("pending: %s", pending),
		Retryable: true,
		Metadata:  map[string]interface{}{"pending": pending},
		Timestamp: time.Now().UTC(),
	}
}

// NewOTPResendCooldownError rejects a resend before the cooldown elapsed.
func NewOTPResendCooldownError(remaining time.Duration) *StandardError {
	seconds := int((remaining + time.Second - 1) / time.Second)
	return &StandardError{
		Code:      ErrCodeOTPResendCooldown,
		Message:   fmt.Sprintf("You can request a new OTP in %d seconds", seconds),
		Retryable: true,
		Metadata:  map[string]interface{}{"retryAfterSeconds": seconds},
		Timestamp: time.Now().UTC(),
	}
}

func NewUnauthorizedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthorized,
		Message:   "Missing or invalid session",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotFoundError(resource string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeInternalError,
		Message:   GenericFailureMessage,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// As extracts a *StandardError from err's chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := As(err)
	return ok && stdErr.Code == code
}

// HTTPStatus maps an error code to the response status used by the API.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed:
		return http.StatusUnprocessableEntity
	case ErrCodeSessionExpired:
		return http.StatusPreconditionFailed
	case ErrCodeInvalidTransition, ErrCodeRequestInFlight:
		return http.StatusConflict
	case ErrCodeOTPResendCooldown:
		return http.StatusTooManyRequests
	case ErrCodeNetworkError, ErrCodeRequestRejected, ErrCodeUploadFailed:
		return http.StatusBadGateway
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeValidationFailed:
		return "VALIDATION"
	case ErrCodeNetworkError, ErrCodeRequestRejected, ErrCodeUploadFailed:
		return "NETWORK"
	case ErrCodeSessionExpired, ErrCodeUnauthorized:
		return "SESSION"
	case ErrCodeInvalidTransition, ErrCodeRequestInFlight, ErrCodeOTPResendCooldown:
		return "FLOW"
	default:
		return "OTHER"
	}
}
