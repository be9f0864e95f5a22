package models

import "fmt"

// Error codes used in API responses, control notifications and internal
// error handling.
const (
	// Resolution failures. Terminal for the current attempt and never retried.
	ErrCodeElementNotFound = "ELEMENT_NOT_FOUND"
	ErrCodeNoURLAttribute  = "NO_URL_ATTRIBUTE"
	ErrCodeURLResolution   = "URL_RESOLUTION_ERROR"

	// Page loading failures.
	ErrCodeTimeout      = "SCRAPE_TIMEOUT"
	ErrCodeNavigation   = "NAVIGATION_FAILED"
	ErrCodeBrowserCrash = "BROWSER_CRASH"

	ErrCodeOpenFailed   = "OPEN_FAILED"
	ErrCodeStore        = "STORE_FAILED"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// RetryHint is appended to resolution failures shown to the user.
const RetryHint = "Try updating the XPath with Alt+Click."

// Sentinels for errors.Is. Matching is by code, so any *Error carrying the
// same code matches regardless of message or wrapped cause.
var (
	ErrElementNotFound = &Error{Code: ErrCodeElementNotFound, Message: "Element not found"}
	ErrNoURLAttribute  = &Error{Code: ErrCodeNoURLAttribute, Message: "No video URL found"}
	ErrURLResolution   = &Error{Code: ErrCodeURLResolution, Message: "Invalid video URL"}
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// Error is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type Error struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new Error.
func NewError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// IsResolution reports whether the error belongs to the resolution family
// (element, attribute or URL failures).
func (e *Error) IsResolution() bool {
	switch e.Code {
	case ErrCodeElementNotFound, ErrCodeNoURLAttribute, ErrCodeURLResolution:
		return true
	}
	return false
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *Error) ToDetail() *ErrorDetail {
	d := &ErrorDetail{Code: e.Code, Message: e.Message}
	if e.IsResolution() {
		d.Hint = RetryHint
	}
	return d
}
