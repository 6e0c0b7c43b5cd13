package server

import (
	"maps"
	"net/http"
)

// Error codes carried in the response envelope.
const (
	CodeBadRequest         = "BAD_REQUEST"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeQueryFailed        = "QUERY_FAILED"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeInternal           = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeTimeout            = "TIMEOUT"
)

// BaseAPIError provides a basic implementation of IAPIError.
type BaseAPIError struct {
	code       string
	message    string
	httpStatus int
	details    map[string]any
}

// NewBaseAPIError creates a new base API error.
func NewBaseAPIError(code, message string, httpStatus int) *BaseAPIError {
	return &BaseAPIError{
		code:       code,
		message:    message,
		httpStatus: httpStatus,
		details:    make(map[string]any),
	}
}

// ErrorCode returns the error code.
func (e *BaseAPIError) ErrorCode() string {
	return e.code
}

// Message returns the error message.
func (e *BaseAPIError) Message() string {
	return e.message
}

// HTTPStatus returns the HTTP status code.
func (e *BaseAPIError) HTTPStatus() int {
	return e.httpStatus
}

// Details returns a copy of the error details, or nil when there are none.
func (e *BaseAPIError) Details() map[string]any {
	if len(e.details) == 0 {
		return nil
	}
	return maps.Clone(e.details)
}

// WithDetails adds details to the error.
func (e *BaseAPIError) WithDetails(key string, value any) *BaseAPIError {
	e.details[key] = value
	return e
}

func (e *BaseAPIError) Error() string {
	if e == nil {
		return ""
	}
	if e.code == "" {
		return e.message
	}
	return e.code + ": " + e.message
}

// NewBadRequestError creates a 400 error for malformed requests.
func NewBadRequestError(message string) *BaseAPIError {
	return NewBaseAPIError(CodeBadRequest, message, http.StatusBadRequest)
}

// NewValidationFailedError creates a 400 error for requests that decode but fail validation.
func NewValidationFailedError(message string) *BaseAPIError {
	return NewBaseAPIError(CodeValidationFailed, message, http.StatusBadRequest)
}

// NewNotFoundError creates a 404 error.
func NewNotFoundError(resource string) *BaseAPIError {
	return NewBaseAPIError(CodeNotFound, resource+" not found", http.StatusNotFound)
}

// NewQueryFailedError creates a 422 error for queries the database rejected.
func NewQueryFailedError(message string) *BaseAPIError {
	if message == "" {
		message = "Query execution failed"
	}
	return NewBaseAPIError(CodeQueryFailed, message, http.StatusUnprocessableEntity)
}

// NewTooManyRequestsError creates a 429 error.
func NewTooManyRequestsError(message string) *BaseAPIError {
	if message == "" {
		message = "Rate limit exceeded"
	}
	return NewBaseAPIError(CodeTooManyRequests, message, http.StatusTooManyRequests)
}

// NewInternalServerError creates a 500 error.
func NewInternalServerError(message string) *BaseAPIError {
	if message == "" {
		message = "An internal error occurred"
	}
	return NewBaseAPIError(CodeInternal, message, http.StatusInternalServerError)
}

// NewServiceUnavailableError creates a 503 error.
func NewServiceUnavailableError(message string) *BaseAPIError {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	return NewBaseAPIError(CodeServiceUnavailable, message, http.StatusServiceUnavailable)
}

// NewTimeoutError creates a 504 error for queries that ran past their deadline.
func NewTimeoutError(message string) *BaseAPIError {
	if message == "" {
		message = "Request timed out"
	}
	return NewBaseAPIError(CodeTimeout, message, http.StatusGatewayTimeout)
}

var _ IAPIError = (*BaseAPIError)(nil)
