package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeNoLinkedAccount     = "NO_LINKED_ACCOUNT"
	ErrCodeTokenUnavailable    = "TOKEN_UNAVAILABLE"
	ErrCodeAccountNotFound     = "ACCOUNT_NOT_FOUND"
	ErrCodeUpstream            = "UPSTREAM_ERROR"
	ErrCodeProfilePrivate      = "PROFILE_PRIVATE"
	ErrCodeAuthFailed          = "AUTH_FAILED"
	ErrCodeExtractionExhausted = "EXTRACTION_EXHAUSTED"
	ErrCodeSessionExpired      = "SESSION_EXPIRED"
	ErrCodeForbiddenHost       = "FORBIDDEN_HOST"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeRateLimited         = "RATE_LIMITED"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeBrowserCrash        = "BROWSER_CRASH"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FeedError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
// UpstreamStatus is set only for ErrCodeUpstream and records the HTTP status
// the upstream API answered with.
type FeedError struct {
	Code           string
	Message        string
	UpstreamStatus int
	Err            error // wrapped original error
}

func (e *FeedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

// NewFeedError creates a new FeedError.
func NewFeedError(code, message string, err error) *FeedError {
	return &FeedError{Code: code, Message: message, Err: err}
}

// NewUpstreamError wraps an upstream API failure, keeping the upstream
// message and HTTP status for the caller. The caller decides whether to
// retry; nothing here does.
func NewUpstreamError(message string, status int, err error) *FeedError {
	return &FeedError{Code: ErrCodeUpstream, Message: message, UpstreamStatus: status, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *FeedError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}
