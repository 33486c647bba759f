// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
)

// ErrorHandler turns errors into the JSON failure envelope used by the API.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// envelope is the body written for every failed request.
type envelope struct {
	Success bool      `json:"success"`
	Error   string    `json:"error"`
	Code    ErrorCode `json:"code,omitempty"`
}

// HandleHTTPError normalizes err, logs it and writes the failure envelope.
func (h *ErrorHandler) HandleHTTPError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := Normalize(err)
	h.logError(r, stdErr)

	WriteJSON(w, HTTPStatus(stdErr.Code), envelope{
		Success: false,
		Error:   stdErr.Message,
		Code:    stdErr.Code,
	})
}

// Normalize ensures we always have a StandardError
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError("Unexpected error", err)
}

func (h *ErrorHandler) logError(r *http.Request, stdErr *StandardError) {
	fields := map[string]interface{}{
		"method":        r.Method,
		"path":          r.URL.Path,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}

	if HTTPStatus(stdErr.Code) >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields)
		return
	}
	h.logger.Warn("request rejected", fields)
}

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
