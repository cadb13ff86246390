package http

import (
	"fmt"
	"net/http"
)

// Error codes carried in the response body.
const (
	CodeBadRequest  = "ERR_BAD_REQUEST"
	CodeNotFound    = "ERR_NOT_FOUND"
	CodeRateLimited = "ERR_RATE_LIMITED"
	CodeUpstream    = "ERR_UPSTREAM"
	CodeInternal    = "ERR_INTERNAL"
)

// AppError is an error with a client-facing code and HTTP status. The
// wrapped Err is logged, never serialized.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithError wraps an underlying error.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// WithField names the request field at fault.
func (e *AppError) WithField(field string) *AppError {
	e.Field = field
	return e
}

func newAppError(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

func NotFoundError(message string) *AppError {
	return newAppError(http.StatusNotFound, CodeNotFound, message)
}

func NotFoundErrorf(format string, a ...interface{}) *AppError {
	return NotFoundError(fmt.Sprintf(format, a...))
}

func BadRequestError(message string) *AppError {
	return newAppError(http.StatusBadRequest, CodeBadRequest, message)
}

// UpstreamError reports a failed dependency: the snapshot source, the
// quote API or the archive.
func UpstreamError(message string) *AppError {
	return newAppError(http.StatusBadGateway, CodeUpstream, message)
}

func RateLimitedError(message string) *AppError {
	return newAppError(http.StatusTooManyRequests, CodeRateLimited, message)
}

func InternalError(message string) *AppError {
	return newAppError(http.StatusInternalServerError, CodeInternal, message)
}
