// Package apierr defines the normalized error shape surfaced by the SDK.
//
// Every failure that crosses the SDK boundary is an *Error carrying a Kind
// from the fixed taxonomy below, a human-readable message, and (for HTTP
// failures) the status code and any structured details echoed from the
// server. Callers branch on Kind via IsKind rather than on status codes.
package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

// Kind classifies an SDK error.
type Kind string

const (
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindTokenExpired       Kind = "TOKEN_EXPIRED"
	KindTokenRequired      Kind = "TOKEN_REQUIRED"
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindTokenRefreshFailed Kind = "TOKEN_REFRESH_FAILED"
	KindNetworkError       Kind = "NETWORK_ERROR"
	KindTimeoutError       Kind = "TIMEOUT_ERROR"
	KindValidationError    Kind = "VALIDATION_ERROR"
	KindServerError        Kind = "SERVER_ERROR"
	KindServiceUnavailable Kind = "SERVICE_UNAVAILABLE"
	KindUnknownError       Kind = "UNKNOWN_ERROR"
)

// knownKinds guards against trusting arbitrary server-supplied codes.
var knownKinds = map[Kind]struct{}{
	KindUnauthorized:       {},
	KindTokenExpired:       {},
	KindTokenRequired:      {},
	KindInvalidCredentials: {},
	KindTokenRefreshFailed: {},
	KindNetworkError:       {},
	KindTimeoutError:       {},
	KindValidationError:    {},
	KindServerError:        {},
	KindServiceUnavailable: {},
	KindUnknownError:       {},
}

// Error is the normalized error surfaced at the SDK boundary.
type Error struct {
	Kind    Kind
	Message string
	// Status is the HTTP status code, or 0 for non-HTTP failures.
	Status int
	// Details carries structured fields echoed from the server, if any.
	Details map[string]any
}

// Compile-time check that *Error implements error.
var _ error = (*Error)(nil)

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New creates an Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err (or any error it wraps) is an *Error of the
// given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}

// serverError is the wire shape of error bodies returned by the API.
type serverError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// FromResponse normalizes a non-2xx HTTP response into an *Error. The body
// must already be read; a recognized server-supplied code takes precedence
// over the status-derived kind.
func FromResponse(resp *http.Response, body []byte) *Error {
	e := &Error{
		Kind:    kindForStatus(resp.StatusCode),
		Message: http.StatusText(resp.StatusCode),
		Status:  resp.StatusCode,
	}

	var se serverError
	if err := json.Unmarshal(body, &se); err == nil {
		if se.Message != "" {
			e.Message = se.Message
		}
		if _, ok := knownKinds[Kind(se.Code)]; ok {
			e.Kind = Kind(se.Code)
		}
		e.Details = se.Details
	}

	return e
}

// FromError normalizes a transport-level failure into an *Error. An *Error
// already present in the chain (e.g. produced inside a RoundTripper and
// wrapped by *url.Error) passes through unchanged.
func FromError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeoutError, Message: err.Error()}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeoutError, Message: err.Error()}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &Error{Kind: KindNetworkError, Message: urlErr.Error()}
	}

	return &Error{Kind: KindUnknownError, Message: err.Error()}
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindValidationError
	case status == http.StatusServiceUnavailable:
		return KindServiceUnavailable
	case status >= 500:
		return KindServerError
	default:
		return KindUnknownError
	}
}
