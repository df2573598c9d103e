// Package apierror defines the gateway's internal error taxonomy and its
// mapping to HTTP statuses and response bodies.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a gateway error.
type Kind string

// Error kinds, in taxonomy order.
const (
	KindInvalidRequest       Kind = "invalid_request"
	KindModelNotFound        Kind = "model_not_found"
	KindPipelineNotFound     Kind = "pipeline_not_found"
	KindUnsupportedOperation Kind = "unsupported_operation"
	KindUpstreamAuth         Kind = "upstream_auth"
	KindUpstreamRateLimited  Kind = "upstream_rate_limited"
	KindUpstreamServer       Kind = "upstream_server"
	KindUpstreamTimeout      Kind = "upstream_timeout"
	KindConfigInvalid        Kind = "config_invalid"
	KindInternal             Kind = "internal"
)

// Error is the gateway error type. Provider and Model are optional context
// identifying where in the fallback chain the error arose.
type Error struct {
	Kind     Kind
	Message  string
	Provider string
	Model    string
	// Cause is the wrapped underlying error, if any.
	Cause error
}

// New constructs an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error of the given kind around an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// WithModel returns a copy of the error annotated with the model key and
// provider type it arose from.
func (e *Error) WithModel(provider, model string) *Error {
	cp := *e
	cp.Provider = provider
	cp.Model = model
	return &cp
}

// HTTPStatus maps the error kind to the status returned to the client.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidRequest, KindUnsupportedOperation:
		return http.StatusBadRequest
	case KindModelNotFound, KindPipelineNotFound:
		return http.StatusNotFound
	case KindUpstreamAuth, KindUpstreamServer:
		return http.StatusBadGateway
	case KindUpstreamRateLimited:
		return http.StatusTooManyRequests
	case KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the model router may fall through to the next
// candidate after this error. Network errors, upstream 5xx and upstream 429
// are retryable; everything else fails the request immediately.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindUpstreamRateLimited, KindUpstreamServer, KindUpstreamTimeout:
		return true
	default:
		return false
	}
}

// Body is the JSON error payload returned to clients.
type Body struct {
	Error BodyDetail `json:"error"`
}

// BodyDetail is the inner object of the error payload.
type BodyDetail struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// ToBody converts the error to its wire representation.
func (e *Error) ToBody() Body {
	return Body{Error: BodyDetail{
		Type:     string(e.Kind),
		Message:  e.Message,
		Provider: e.Provider,
		Model:    e.Model,
	}}
}

// FromError coerces any error into an *Error, defaulting to KindInternal.
func FromError(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Kind: KindInternal, Message: err.Error(), Cause: err}
}

// FromUpstreamStatus classifies an upstream HTTP status into the taxonomy.
// 401/403 map to upstream auth, 429 to rate limiting, 5xx to upstream server
// errors, and any other non-2xx status to an invalid request.
func FromUpstreamStatus(status int, provider, body string) *Error {
	var kind Kind
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindUpstreamAuth
	case status == http.StatusTooManyRequests:
		kind = KindUpstreamRateLimited
	case status >= 500:
		kind = KindUpstreamServer
	default:
		kind = KindInvalidRequest
	}
	e := New(kind, "upstream returned status %d: %s", status, truncate(body, 512))
	e.Provider = provider
	return e
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
