// Package apierrors defines the classified error taxonomy for the
// storefront GraphQL access layer. Every failure that leaves the request
// pipeline is one of these; raw transport or protocol errors never escape.
package apierrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Kind classifies a failure into one of the taxonomy variants.
type Kind string

const (
	// KindValidation covers bad input rejected by the upstream API.
	KindValidation Kind = "validation"

	// KindNotFound covers missing remote resources (HTTP 404).
	KindNotFound Kind = "not_found"

	// KindUpstream covers remote 5xx responses, connection failures, and
	// GraphQL errors without a more specific classification.
	KindUpstream Kind = "upstream"

	// KindTimeout covers calls abandoned after the request deadline.
	KindTimeout Kind = "timeout"

	// KindRateLimit covers HTTP 429 responses from the upstream API.
	KindRateLimit Kind = "rate_limit"

	// KindAuthentication covers HTTP 401 / GraphQL UNAUTHENTICATED.
	KindAuthentication Kind = "authentication"

	// KindAuthorization covers HTTP 403 / GraphQL FORBIDDEN.
	KindAuthorization Kind = "authorization"

	// KindInternal covers programming defects and unrecognized failures.
	// It is the only non-operational kind.
	KindInternal Kind = "internal"
)

// Stable machine-readable codes, one per kind plus the breaker rejection.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeUpstream        = "UPSTREAM_ERROR"
	CodeTimeout         = "GATEWAY_TIMEOUT"
	CodeRateLimit       = "RATE_LIMITED"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeInternal        = "INTERNAL_ERROR"
	CodeCircuitOpen     = "CIRCUIT_OPEN"
)

// ClassifiedError is the structured error carried out of the pipeline.
// It is immutable once constructed; downstream stages never re-classify.
// Context must hold non-sensitive values only: never credentials, cookie
// values, or raw upstream payloads.
type ClassifiedError struct {
	Kind       Kind
	Code       string
	HTTPStatus int // status hint for rendering layers
	Message    string
	Context    map[string]string
	TraceID    string
	Timestamp  time.Time

	// Retryable is set at construction from the failure source: true for
	// network-level failures (connection errors, 5xx, timeouts), false for
	// everything else including all GraphQL-level errors.
	Retryable bool

	err error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Kind, e.Code, e.Message, e.err)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Code, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ClassifiedError) Unwrap() error {
	return e.err
}

// Operational reports whether the error is an expected failure mode.
// Only KindInternal indicates a programming defect.
func (e *ClassifiedError) Operational() bool {
	return e.Kind != KindInternal
}

// WithContext returns the error with an extra context field set.
// Callers are responsible for keeping values non-sensitive.
func (e *ClassifiedError) WithContext(key, value string) *ClassifiedError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// New builds a ClassifiedError of the given kind with taxonomy defaults
// for code and HTTP status hint.
func New(kind Kind, message, traceID string) *ClassifiedError {
	return &ClassifiedError{
		Kind:       kind,
		Code:       codeFor(kind),
		HTTPStatus: statusHintFor(kind),
		Message:    message,
		TraceID:    traceID,
		Timestamp:  time.Now().UTC(),
	}
}

// FromHTTPStatus classifies a raw HTTP response status from the upstream
// GraphQL endpoint. Statuses >= 500 are retryable network-level failures;
// unlisted 4xx statuses classify as validation failures.
func FromHTTPStatus(status int, traceID string) *ClassifiedError {
	var e *ClassifiedError
	switch {
	case status == http.StatusUnauthorized:
		e = New(KindAuthentication, "upstream rejected credentials", traceID)
	case status == http.StatusForbidden:
		e = New(KindAuthorization, "upstream denied access", traceID)
	case status == http.StatusNotFound:
		e = New(KindNotFound, "remote resource not found", traceID)
	case status == http.StatusTooManyRequests:
		e = New(KindRateLimit, "upstream rate limit exceeded", traceID)
	case status >= 500:
		e = New(KindUpstream, fmt.Sprintf("upstream returned status %d", status), traceID)
		e.Retryable = true
	case status >= 400:
		e = New(KindValidation, fmt.Sprintf("upstream rejected request with status %d", status), traceID)
	default:
		e = New(KindInternal, fmt.Sprintf("unexpected upstream status %d", status), traceID)
	}
	return e.WithContext("http_status", fmt.Sprintf("%d", status))
}

// FromGraphQLCode classifies a GraphQL error by its extensions code.
// GraphQL-level errors are never retryable.
func FromGraphQLCode(code, message, traceID string) *ClassifiedError {
	var e *ClassifiedError
	switch code {
	case "UNAUTHENTICATED":
		e = New(KindAuthentication, message, traceID)
	case "FORBIDDEN":
		e = New(KindAuthorization, message, traceID)
	case "BAD_USER_INPUT", "GRAPHQL_VALIDATION_FAILED":
		e = New(KindValidation, message, traceID)
	default:
		e = New(KindUpstream, message, traceID)
	}
	if code != "" {
		e.WithContext("graphql_code", code)
	}
	return e
}

// FromTransport classifies an error returned by the HTTP transport itself
// (connection refused, DNS failure, deadline exceeded). Transport failures
// are network-level and therefore retryable.
func FromTransport(err error, traceID string) *ClassifiedError {
	var e *ClassifiedError
	if isTimeout(err) {
		e = New(KindTimeout, "upstream call timed out", traceID)
	} else {
		e = New(KindUpstream, "upstream call failed", traceID)
	}
	e.Retryable = true
	e.err = err
	return e
}

// CircuitOpen builds the classified rejection returned when the circuit
// breaker short-circuits a call. It is an upstream error so callers need
// no separate code path, but it carries its own code and is not retryable.
func CircuitOpen(traceID string) *ClassifiedError {
	e := New(KindUpstream, "circuit open: upstream temporarily unavailable", traceID)
	e.Code = CodeCircuitOpen
	e.HTTPStatus = http.StatusServiceUnavailable
	return e
}

// Internal wraps an unrecognized failure as a programming-defect error.
func Internal(err error, traceID string) *ClassifiedError {
	e := New(KindInternal, "internal error", traceID)
	e.err = err
	return e
}

// Ensure converts any error into a ClassifiedError. Already-classified
// errors pass through unchanged; anything else becomes KindInternal.
func Ensure(err error, traceID string) *ClassifiedError {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}
	return Internal(err, traceID)
}

// IsRetryable reports whether err is a classified network-level failure
// eligible for the pipeline's retry stage.
func IsRetryable(err error) bool {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}

// KindOf returns the kind of a classified error, or KindInternal for
// anything unclassified.
func KindOf(err error) Kind {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}

func codeFor(kind Kind) string {
	switch kind {
	case KindValidation:
		return CodeValidation
	case KindNotFound:
		return CodeNotFound
	case KindUpstream:
		return CodeUpstream
	case KindTimeout:
		return CodeTimeout
	case KindRateLimit:
		return CodeRateLimit
	case KindAuthentication:
		return CodeUnauthenticated
	case KindAuthorization:
		return CodeForbidden
	default:
		return CodeInternal
	}
}

func statusHintFor(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream:
		return http.StatusBadGateway
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// isTimeout matches both net.Error timeouts and errors whose text marks
// them as timeouts (the upstream SDK wraps some without a typed cause).
func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	if errors.As(err, &t) && t.Timeout() {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}
