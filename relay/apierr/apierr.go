// Package apierr defines the failure taxonomy shared by adaptors, strategies
// and the routing layer. Adaptors and strategies never swallow these errors;
// the routing layer is the single place that maps them to HTTP statuses.
package apierr

import (
	"fmt"
	"net/http"

	"github.com/Laisky/errors/v2"

	"github.com/polyrelay/polyrelay/relay/model"
)

// Kind classifies a gateway failure.
type Kind int

const (
	// KindConfiguration covers missing or invalid backend credentials,
	// surfaced before any provider call.
	KindConfiguration Kind = iota + 1
	// KindModelNotFound means no strategy or provider serves the model id.
	KindModelNotFound
	// KindUnsupportedFeature means the request asked for a capability the
	// resolved provider lacks (for example tools), detected during payload
	// preparation, never after a network call.
	KindUnsupportedFeature
	// KindAPIConnection is a transport-level failure reaching the provider.
	KindAPIConnection
	// KindAuthentication is an upstream credential rejection.
	KindAuthentication
	// KindRateLimit is upstream throttling.
	KindRateLimit
	// KindAPIRequest is an upstream 4xx for a malformed or invalid payload.
	KindAPIRequest
	// KindAPIServer is an upstream 5xx.
	KindAPIServer
	// KindStreaming is a failure while consuming a provider stream mid-flight.
	KindStreaming
	// KindValidation is a canonical-request construction failure: the body
	// parsed but violates the canonical invariants. Surfaced before routing.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration_error"
	case KindModelNotFound:
		return "model_not_found"
	case KindUnsupportedFeature:
		return "unsupported_feature"
	case KindAPIConnection:
		return "api_connection_error"
	case KindAuthentication:
		return "authentication_error"
	case KindRateLimit:
		return "rate_limit_error"
	case KindAPIRequest, KindValidation:
		return "invalid_request_error"
	case KindAPIServer:
		return "api_error"
	case KindStreaming:
		return "streaming_error"
	default:
		return "internal_error"
	}
}

// StatusCode maps the kind to the HTTP status the routing layer responds with.
func (k Kind) StatusCode() int {
	switch k {
	case KindConfiguration:
		return http.StatusInternalServerError
	case KindModelNotFound:
		return http.StatusNotFound
	case KindUnsupportedFeature:
		return http.StatusBadRequest
	case KindAPIConnection:
		return http.StatusBadGateway
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindAPIRequest:
		return http.StatusBadRequest
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindAPIServer, KindStreaming:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified gateway failure.
type Error struct {
	Kind    Kind
	Message string
	Code    string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a classified error.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error.
func Wrap(cause error, kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// WithCode attaches a machine-readable code for the wire error body.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// From extracts a classified error, defaulting to the given kind when the
// chain carries none.
func From(err error, fallback Kind) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Wrap(err, fallback, "%s", err.Error())
}

// KindOf reports the kind in the chain, or zero when uncategorized.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}

// ToWire converts any error into the structured wire body plus HTTP status.
func ToWire(err error) *model.ErrorWithStatusCode {
	ae := From(err, KindAPIServer)
	code := ae.Code
	if code == "" {
		code = ae.Kind.String()
	}
	return &model.ErrorWithStatusCode{
		StatusCode: ae.Kind.StatusCode(),
		Error: model.Error{
			Message:  ae.Message,
			Type:     ae.Kind.String(),
			Code:     code,
			RawError: err,
		},
	}
}
