package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/commercekit/storefront-graphql-client/pkg/apierrors"
)

// maxResponseBytes bounds upstream response bodies; anything larger is a
// protocol violation from the storefront API's perspective.
const maxResponseBytes = 8 << 20

type graphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// doAttempt performs one transport attempt: header and allow-listed cookie
// injection, the HTTP POST bounded by the per-attempt timeout, Set-Cookie
// capture into the request context, and response classification. A
// response carrying any GraphQL errors fails the attempt; partial data is
// discarded (errors take precedence).
func (c *Client) doAttempt(ctx context.Context, op Operation, variables map[string]any) (json.RawMessage, error) {
	payload, err := json.Marshal(graphQLRequest{
		Query:         op.Document,
		OperationName: op.Name,
		Variables:     variables,
	})
	if err != nil {
		return nil, apierrors.Internal(fmt.Errorf("encode %s request: %w", op.Name, err), c.rc.TraceID)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, apierrors.Internal(fmt.Errorf("build %s request: %w", op.Name, err), c.rc.TraceID)
	}

	c.injectHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierrors.FromTransport(err, c.rc.TraceID).
			WithContext("operation", op.Name)
	}
	defer resp.Body.Close()

	// One-way handoff: collected regardless of outcome, applied to the
	// outbound response by the calling layer.
	c.rc.AddResponseCookies(resp.Cookies())

	if resp.StatusCode != http.StatusOK {
		return nil, apierrors.FromHTTPStatus(resp.StatusCode, c.rc.TraceID).
			WithContext("operation", op.Name)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apierrors.FromTransport(err, c.rc.TraceID).
			WithContext("operation", op.Name)
	}

	var parsed graphQLResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apierrors.Internal(fmt.Errorf("parse %s response: %w", op.Name, err), c.rc.TraceID).
			WithContext("operation", op.Name)
	}

	if len(parsed.Errors) > 0 {
		first := parsed.Errors[0]
		return nil, apierrors.FromGraphQLCode(first.Extensions.Code, first.Message, c.rc.TraceID).
			WithContext("operation", op.Name)
	}

	if len(parsed.Data) == 0 || string(parsed.Data) == "null" {
		return nil, apierrors.FromGraphQLCode("", "upstream returned no data", c.rc.TraceID).
			WithContext("operation", op.Name)
	}

	return parsed.Data, nil
}

// injectHeaders attaches the bearer credential, locale and trace headers,
// and the allow-listed subset of inbound cookies. Arbitrary cookies are
// never forwarded.
func (c *Client) injectHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.cfg.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.BearerToken)
	}
	if c.rc.Locale != "" {
		req.Header.Set("Accept-Language", c.rc.Locale)
	}
	if c.rc.Currency != "" {
		req.Header.Set("X-Storefront-Currency", c.rc.Currency)
	}
	if c.rc.TraceID != "" {
		req.Header.Set("X-Trace-Id", c.rc.TraceID)
	}
	if c.rc.UserAgent != "" {
		req.Header.Set("User-Agent", c.rc.UserAgent)
	}

	for _, name := range c.cfg.CookieAllowList {
		if value, ok := c.rc.Cookies[name]; ok {
			req.AddCookie(&http.Cookie{Name: name, Value: value})
		}
	}
}
