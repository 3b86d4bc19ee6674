// Package errors provides the structured error types surfaced at the HTTP boundary.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for clients and for status mapping.
type Code string

const (
	CodeValidation  Code = "VALIDATION_ERROR"
	CodeParameter   Code = "INVALID_PARAMETER"
	CodeService     Code = "SERVICE_ERROR"
	CodeMetricFetch Code = "METRIC_FETCH_ERROR"
	CodeInternal    Code = "INTERNAL_ERROR"
)

// Error is a structured error with context.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	// Metric names the telemetry metric that failed, if any.
	Metric string `json:"metric,omitempty"`
	Cause  error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Validation creates an error for rejected input values.
func Validation(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

// Parameter creates an error for a missing or malformed request parameter.
func Parameter(name, message string) *Error {
	return &Error{Code: CodeParameter, Message: fmt.Sprintf("%s: %s", name, message)}
}

// Service wraps a pricing catalog failure.
func Service(message string, cause error) *Error {
	return &Error{Code: CodeService, Message: message, Cause: cause}
}

// MetricFetch wraps a telemetry failure for a single metric.
func MetricFetch(metric string, cause error) *Error {
	return &Error{
		Code:    CodeMetricFetch,
		Message: fmt.Sprintf("Error fetching %s metrics", metric),
		Metric:  metric,
		Cause:   cause,
	}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	e, ok := As(err)
	return ok && e.Code == code
}

// HTTPStatus maps an error to the status code returned to clients.
func HTTPStatus(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeParameter:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
