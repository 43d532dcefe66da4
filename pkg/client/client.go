// Package client implements the resilient GraphQL request pipeline:
// structured logging, error classification, circuit breaking, retry with
// backoff, per-attempt timeouts, and authentication/cookie injection
// around a single outbound GraphQL call.
//
// A Client is request-scoped: construct one per inbound HTTP request with
// that request's RequestContext, sharing the process-wide circuit breaker.
// Credentials and collected cookies therefore never bleed across requests.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/commercekit/storefront-graphql-client/pkg/apierrors"
	"github.com/commercekit/storefront-graphql-client/pkg/breaker"
	"github.com/commercekit/storefront-graphql-client/pkg/logging"
)

// Operation identifies a GraphQL operation: its name (used for logging,
// metrics, and cache keys) and the full query/mutation document.
type Operation struct {
	Name     string
	Document string
}

// Config holds the client configuration. All values come from process
// configuration; nothing here is per-request.
type Config struct {
	// Endpoint is the remote GraphQL endpoint URL.
	Endpoint string

	// BearerToken is the process-wide API credential sent as an
	// Authorization header. Never logged.
	BearerToken string

	// RequestTimeout bounds each transport attempt. The worst-case
	// latency of one logical call is RequestTimeout * (1 + MaxRetries)
	// plus backoff delays.
	RequestTimeout time.Duration

	// MaxRetries is the number of retry attempts after the first try.
	// Only network-level failures (connection errors, 5xx) are retried.
	MaxRetries int

	// InitialBackoff is the delay before the first retry; it doubles per
	// attempt up to MaxBackoff, with jitter.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff.
	MaxBackoff time.Duration

	// CookieAllowList names the inbound cookies forwarded upstream.
	// Anything not listed is never forwarded.
	CookieAllowList []string
}

// DefaultConfig returns a safe default configuration for the given
// endpoint and credential.
func DefaultConfig(endpoint, bearerToken string) Config {
	return Config{
		Endpoint:        endpoint,
		BearerToken:     bearerToken,
		RequestTimeout:  10 * time.Second,
		MaxRetries:      2,
		InitialBackoff:  250 * time.Millisecond,
		MaxBackoff:      5 * time.Second,
		CookieAllowList: []string{"sf_session", "sf_anon_id", "cart_id"},
	}
}

// Client executes GraphQL operations through the resilience pipeline.
// One Client serves one inbound request.
type Client struct {
	httpClient *http.Client
	cfg        Config
	breaker    *breaker.Breaker[json.RawMessage]
	rc         *RequestContext
	logger     zerolog.Logger
}

// New creates a request-scoped client. The breaker is the process-wide
// instance shared across all requests; rc may be nil for callers outside
// an HTTP request (a fresh context with a generated trace id is used).
func New(cfg Config, br *breaker.Breaker[json.RawMessage], rc *RequestContext) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if br == nil {
		return nil, fmt.Errorf("circuit breaker is required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 250 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	if rc == nil {
		rc = NewRequestContext()
	}

	return &Client{
		httpClient: &http.Client{},
		cfg:        cfg,
		breaker:    br,
		rc:         rc,
		logger:     logging.WithTrace(logging.NewLogger("graphql-client"), rc.TraceID),
	}, nil
}

// Context returns the request context the client was built with.
func (c *Client) Context() *RequestContext {
	return c.rc
}

// Query executes a GraphQL query and decodes the data payload into T.
// On any failure path the returned error is a *apierrors.ClassifiedError;
// raw transport errors never escape.
func Query[T any](ctx context.Context, c *Client, op Operation, variables map[string]any) (T, error) {
	return run[T](ctx, c, op, variables)
}

// Mutate executes a GraphQL mutation. Same contract as Query.
func Mutate[T any](ctx context.Context, c *Client, op Operation, variables map[string]any) (T, error) {
	return run[T](ctx, c, op, variables)
}

func run[T any](ctx context.Context, c *Client, op Operation, variables map[string]any) (T, error) {
	var result T

	data, err := c.Execute(ctx, op, variables)
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return result, apierrors.Internal(
			fmt.Errorf("decode %s response: %w", op.Name, err), c.rc.TraceID,
		).WithContext("operation", op.Name)
	}
	return result, nil
}

// Execute runs one logical GraphQL call through the full pipeline and
// returns the raw data payload. Stage order: logging, classification,
// circuit breaker, then retry with per-attempt timeout, auth/cookie
// injection, and transport.
func (c *Client) Execute(ctx context.Context, op Operation, variables map[string]any) (json.RawMessage, error) {
	start := time.Now()

	// Parameter key names only; values may be sensitive.
	c.logger.Debug().
		Str("operation", op.Name).
		Strs("variable_keys", variableKeys(variables)).
		Msg("Executing GraphQL operation")

	data, err := c.breaker.Execute(func() (json.RawMessage, error) {
		return c.callWithRetry(ctx, op, variables)
	})

	duration := time.Since(start)
	graphqlRequestDuration.WithLabelValues(op.Name).Observe(duration.Seconds())

	if err != nil {
		if breaker.IsOpenRejection(err) {
			err = apierrors.CircuitOpen(c.rc.TraceID).WithContext("operation", op.Name)
		}
		ce := apierrors.Ensure(err, c.rc.TraceID)

		graphqlRequestsTotal.WithLabelValues(op.Name, "error").Inc()
		graphqlErrorsTotal.WithLabelValues(string(ce.Kind)).Inc()

		evt := c.logger.Warn()
		if !ce.Operational() {
			evt = c.logger.Error()
		}
		evt.Str("operation", op.Name).
			Dur("duration", duration).
			Str("kind", string(ce.Kind)).
			Str("code", ce.Code).
			Msg("GraphQL operation failed")

		return nil, ce
	}

	graphqlRequestsTotal.WithLabelValues(op.Name, "ok").Inc()
	c.logger.Info().
		Str("operation", op.Name).
		Dur("duration", duration).
		Msg("GraphQL operation completed")

	return data, nil
}

// variableKeys returns the sorted variable names for logging.
func variableKeys(variables map[string]any) []string {
	keys := make([]string, 0, len(variables))
	for k := range variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
