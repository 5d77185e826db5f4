package vaultsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ============================================================================
// Error Taxonomy
// ============================================================================
//
// Every failure the SDK produces is one of the typed errors below. Callers
// branch with errors.As:
//
//	var apiErr *vaultsdk.APIError
//	if errors.As(err, &apiErr) && apiErr.StatusCode == 403 { ... }
//
// None of these errors ever carry a token value, so all of them are safe
// to log verbatim.

// NetworkError reports a connection-level failure: refused connections,
// per-attempt timeouts, TLS handshake failures. These are the only errors
// the retrier consumes; one surfacing to the caller means the retry budget
// is exhausted.
type NetworkError struct {
	// Op describes the request that failed, e.g. "PUT v1/secret/hello".
	Op string

	// Attempts is the total number of attempts made, including the first.
	Attempts int

	// Err is the last underlying transport error.
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("vaultsdk: %s failed after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *NetworkError) Unwrap() error { return e.Err }

// TransportError reports a malformed HTTP exchange: a response body that
// could not be read, or a non-2xx status whose body is not the service's
// error shape. Not retryable.
type TransportError struct {
	// StatusCode is the HTTP status, or 0 when the body never arrived.
	StatusCode int

	// Err is the underlying read or decode failure.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("vaultsdk: unreadable error response [HTTP %d]: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("vaultsdk: transport failure: %v", e.Err)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports a 2xx response whose body is not well-formed JSON.
// It signals a protocol mismatch, never a transient condition.
type ParseError struct {
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("vaultsdk: malformed response body: %v", e.Err)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ParseError) Unwrap() error { return e.Err }

// EnvelopeError reports a well-formed response that is missing a section
// the calling operation requires (for example a login response without an
// auth block). Not retryable.
type EnvelopeError struct {
	// Field is the missing section, e.g. "auth" or "auth.client_token".
	Field string
}

// Error implements the error interface.
func (e *EnvelopeError) Error() string {
	return fmt.Sprintf("vaultsdk: response envelope is missing %q", e.Field)
}

// APIError is the service rejecting the request: bad credentials, missing
// permissions, unknown backend paths. It carries the server-reported
// message list from the errors array of the response body.
type APIError struct {
	// StatusCode is the HTTP status the service answered with.
	StatusCode int

	// Messages is the server-reported error list. May be empty when the
	// service answered with a bare error envelope.
	Messages []string

	// Attempts is the number of attempts made. Greater than 1 only when
	// the final status was retryable (5xx) and the budget ran out.
	Attempts int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("vaultsdk: server returned HTTP %d", e.StatusCode)
	if len(e.Messages) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(e.Messages, "; "))
	}
	if e.Attempts > 1 {
		msg = fmt.Sprintf("%s (after %d attempts)", msg, e.Attempts)
	}
	return msg
}

// NotFoundError reports a read of a secret path that does not exist.
// Distinguished from APIError so callers can branch on "secret absent"
// without string matching.
type NotFoundError struct {
	Path string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("vaultsdk: no value found at %q", e.Path)
}

// errorEnvelope is the service's error response shape: a top-level errors
// array of strings.
type errorEnvelope struct {
	Errors []string `json:"errors"`
}

// parseErrorResponse converts a non-2xx response body into a typed error.
// A decodable error envelope becomes an APIError carrying the server's
// message list; anything else becomes a TransportError, since a body we
// cannot interpret tells us nothing about whether the request was wrong.
func parseErrorResponse(statusCode int, body []byte, attempts int) error {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &TransportError{StatusCode: statusCode, Err: err}
	}

	return &APIError{
		StatusCode: statusCode,
		Messages:   envelope.Errors,
		Attempts:   attempts,
	}
}

// retryableStatus reports whether a status code is worth another attempt.
// Only server-side failures are. Retrying a 400 would just repeat a
// request the service has already said is wrong.
func retryableStatus(code int) bool {
	switch {
	case code >= http.StatusInternalServerError:
		return true
	default:
		return false
	}
}
