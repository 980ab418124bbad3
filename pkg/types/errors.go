package types

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorCode categorizes SDK errors
type ErrorCode string

const (
	ErrCodeUnknown        ErrorCode = "unknown"
	ErrCodeAuthentication ErrorCode = "authentication"
	ErrCodeRateLimit      ErrorCode = "rate_limit"
	ErrCodeInvalidRequest ErrorCode = "invalid_request"
	ErrCodeNotFound       ErrorCode = "not_found"
	ErrCodeConflict       ErrorCode = "conflict"
	ErrCodeServerError    ErrorCode = "server_error"
	ErrCodeTimeout        ErrorCode = "timeout"
	ErrCodeNetwork        ErrorCode = "network"
	ErrCodeCanceled       ErrorCode = "canceled"
	ErrCodeStreamRead     ErrorCode = "stream_read"
	ErrCodeStreamConsumed ErrorCode = "stream_consumed"
	ErrCodeDecode         ErrorCode = "decode"
)

var (
	// ErrMissingAPIKey is returned when a client is built without credentials.
	ErrMissingAPIKey = errors.New("infactory: API key is required")

	// ErrMissingID is returned before any request is made when a resource ID is empty.
	ErrMissingID = errors.New("infactory: resource ID is required")
)

// Coded is implemented by errors that know their own ErrorCode.
type Coded interface {
	ErrorCode() ErrorCode
}

// APIError is a non-2xx response from the Infactory API
type APIError struct {
	StatusCode int
	Message    string
	Type       string
	Code       string
	RawBody    string
	RequestID  string
	RetryAfter time.Duration
	Timestamp  time.Time
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("API error %d: %s (request_id=%s)", e.StatusCode, e.Message, e.RequestID)
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// ErrorCode maps the HTTP status onto the SDK taxonomy
func (e *APIError) ErrorCode() ErrorCode {
	return ClassifyHTTPStatus(e.StatusCode)
}

// IsRetryable reports whether the request may succeed if sent again
func (e *APIError) IsRetryable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// errorBody covers the two error shapes the API produces:
// {"error": {"type", "message", "code"}} and {"detail": "..."} / {"detail": [...]}.
type errorBody struct {
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

// ParseAPIError creates an APIError from a status code and response body
func ParseAPIError(statusCode int, body string) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		RawBody:    body,
		Timestamp:  time.Now(),
	}

	var parsed errorBody
	if err := json.Unmarshal([]byte(body), &parsed); err == nil {
		switch {
		case parsed.Error != nil:
			apiErr.Message = parsed.Error.Message
			apiErr.Type = parsed.Error.Type
			apiErr.Code = parsed.Error.Code
		case len(parsed.Detail) > 0:
			var detail string
			if json.Unmarshal(parsed.Detail, &detail) == nil {
				apiErr.Message = detail
			} else {
				apiErr.Message = string(parsed.Detail)
			}
		case parsed.Message != "":
			apiErr.Message = parsed.Message
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(body)
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}
	return apiErr
}

// ClassifyHTTPStatus determines the error code for an HTTP status
func ClassifyHTTPStatus(statusCode int) ErrorCode {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrCodeAuthentication
	case http.StatusTooManyRequests:
		return ErrCodeRateLimit
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrCodeInvalidRequest
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusConflict:
		return ErrCodeConflict
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ErrCodeTimeout
	}
	if statusCode >= 500 {
		return ErrCodeServerError
	}
	return ErrCodeUnknown
}

// ErrorInfo is the error arm of a normalized response. It serializes cleanly
// and keeps the original error reachable through errors.Is / errors.As.
type ErrorInfo struct {
	Message string          `json:"message"`
	Code    ErrorCode       `json:"code"`
	Status  int             `json:"status,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`

	cause error
}

func (e *ErrorInfo) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (status=%d, code=%s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("%s (code=%s)", e.Message, e.Code)
}

// Unwrap returns the original error for errors.Is/As
func (e *ErrorInfo) Unwrap() error {
	return e.cause
}

// ToErrorInfo converts any error into an ErrorInfo. A nil error yields nil.
func ToErrorInfo(err error) *ErrorInfo {
	if err == nil {
		return nil
	}

	var info *ErrorInfo
	if errors.As(err, &info) {
		return info
	}

	out := &ErrorInfo{Message: err.Error(), Code: ErrCodeUnknown, cause: err}

	var apiErr *APIError
	var coded Coded
	switch {
	case errors.As(err, &apiErr):
		out.Message = apiErr.Message
		out.Status = apiErr.StatusCode
		out.Code = apiErr.ErrorCode()
		if json.Valid([]byte(apiErr.RawBody)) {
			out.Details = json.RawMessage(apiErr.RawBody)
		}
	case errors.As(err, &coded):
		out.Code = coded.ErrorCode()
	case errors.Is(err, context.DeadlineExceeded):
		out.Code = ErrCodeTimeout
	case errors.Is(err, context.Canceled):
		out.Code = ErrCodeCanceled
	case errors.Is(err, ErrMissingID), errors.Is(err, ErrMissingAPIKey):
		out.Code = ErrCodeInvalidRequest
	}
	return out
}
