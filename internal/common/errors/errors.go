// Package errors provides standardized error handling for the chatbot HTTP API.
package errors

import (
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
	ErrCodeInvalidInput          ErrorCode = "INVALID_INPUT"
	ErrCodeAuthenticationFailed  ErrorCode = "AUTHENTICATION_FAILED"
	ErrCodeForbidden             ErrorCode = "FORBIDDEN"
	ErrCodeNotImplemented        ErrorCode = "NOT_IMPLEMENTED"
	ErrCodeIntentParsingFailed   ErrorCode = "INTENT_PARSING_FAILED"
	ErrCodeIntentAPITimeout      ErrorCode = "INTENT_API_TIMEOUT"
	ErrCodeLLMTimeout            ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMSynthesisFailed    ErrorCode = "LLM_SYNTHESIS_FAILED"
	ErrCodeContentBlocked        ErrorCode = "CONTENT_BLOCKED"
	ErrCodeRateLimited           ErrorCode = "RATE_LIMITED"
	ErrCodeFinancialDataFailed   ErrorCode = "FINANCIAL_DATA_UNAVAILABLE"
	ErrCodeQueryExecutionFailed  ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeCacheOperationFailed  ErrorCode = "CACHE_OPERATION_FAILED"
	ErrCodeDatabaseConnectFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 2. Error Constructors
// ==========================

// NewInvalidInputError carries the localized validation text as its message.
func NewInvalidInputError(message string) *StandardError {
	return newError(ErrCodeInvalidInput, message, "", false)
}

// NewAuthenticationError creates a non-retryable auth error.
func NewAuthenticationError(message string) *StandardError {
	return newError(ErrCodeAuthenticationFailed, message, "", false)
}

// NewForbiddenError is returned when a non-admin calls an admin route.
func NewForbiddenError() *StandardError {
	return newError(ErrCodeForbidden, "Unauthorized", "", false)
}

func NewNotImplementedError(message string) *StandardError {
	return newError(ErrCodeNotImplemented, message, "", false)
}

// NewIntentParsingFailedError creates a retryable intent parsing error.
func NewIntentParsingFailedError(err error) *StandardError {
	return newError(ErrCodeIntentParsingFailed, "Intent parsing API error", err.Error(), true)
}

// NewIntentAPITimeoutError creates a retryable intent API timeout error.
func NewIntentAPITimeoutError() *StandardError {
	return newError(ErrCodeIntentAPITimeout, "Intent parsing API timeout", "API call exceeded timeout threshold", true)
}

// NewLLMTimeoutError creates a retryable LLM timeout error.
func NewLLMTimeoutError() *StandardError {
	return newError(ErrCodeLLMTimeout, "Gemini request timeout", "generation exceeded timeout threshold", true)
}

// NewLLMSynthesisFailedError creates a retryable generation error.
func NewLLMSynthesisFailedError(err error) *StandardError {
	return newError(ErrCodeLLMSynthesisFailed, "Gemini API error", err.Error(), true)
}

// NewContentBlockedError is not retryable: the same prompt is blocked again.
func NewContentBlockedError(reason string) *StandardError {
	return newError(ErrCodeContentBlocked, "Content blocked by safety filters", reason, false)
}

func NewRateLimitedError(details string) *StandardError {
	return newError(ErrCodeRateLimited, "Generation rate limit reached", details, true)
}

func NewFinancialDataError(err error) *StandardError {
	return newError(ErrCodeFinancialDataFailed, "Financial data unavailable", err.Error(), true)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

func NewCacheOperationError(operation string, err error) *StandardError {
	return newError(ErrCodeCacheOperationFailed, "Cache operation failed",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectFailed, "Database connection error", err.Error(), true)
}

func NewInternalError(message string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return newError(ErrCodeInternal, message, details, false)
}

// ==========================
// 3. Utility Functions
// ==========================

// HTTPStatus maps an error code to the status returned to API callers.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeAuthenticationFailed:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeNotImplemented:
		return http.StatusNotImplemented
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// GetRetryCount returns the recommended retry count for upstream calls.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeIntentParsingFailed,
		ErrCodeLLMSynthesisFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseConnectFailed:
		return 3
	case ErrCodeIntentAPITimeout,
		ErrCodeRateLimited:
		return 2
	case ErrCodeLLMTimeout:
		return 1
	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "AUTH") || code == ErrCodeForbidden:
		return "AUTH"
	case strings.Contains(codeStr, "INPUT") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "FINANCIAL"):
		return "DATABASE"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "INTENT") || strings.Contains(codeStr, "LLM") ||
		strings.Contains(codeStr, "BLOCKED") || strings.Contains(codeStr, "RATE"):
		return "AI"
	default:
		return "OTHER"
	}
}
