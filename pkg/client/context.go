package client

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// RequestContext carries per-inbound-request state through the pipeline:
// correlation id, locale/currency, client identity, and the inbound
// cookies the auth stage may forward. It is created once per inbound HTTP
// request by middleware and threaded by reference; the cache never holds
// onto it.
//
// Response cookies set by the upstream API are collected here and applied
// to the outbound HTTP response by the calling layer. The pipeline itself
// never touches the response.
type RequestContext struct {
	TraceID   string
	Locale    string
	Currency  string
	UserAgent string
	IP        string

	// Cookies maps inbound cookie names to values. Only names on the
	// client's allow-list are ever forwarded upstream.
	Cookies map[string]string

	// CookieHeader is the raw inbound Cookie header, kept for callers
	// that need the unparsed form.
	CookieHeader string

	mu              sync.Mutex
	responseCookies []*http.Cookie
}

// NewRequestContext returns a context with a generated trace id and
// sensible defaults. Middleware normally fills in the remaining fields
// from the inbound request.
func NewRequestContext() *RequestContext {
	return &RequestContext{
		TraceID: uuid.NewString(),
		Locale:  "en-US",
		Cookies: make(map[string]string),
	}
}

// AddResponseCookies records Set-Cookie values received from the upstream
// API for the calling layer to apply to its outbound response.
func (rc *RequestContext) AddResponseCookies(cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.responseCookies = append(rc.responseCookies, cookies...)
}

// ResponseCookies returns the cookies collected so far.
func (rc *RequestContext) ResponseCookies() []*http.Cookie {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	out := make([]*http.Cookie, len(rc.responseCookies))
	copy(out, rc.responseCookies)
	return out
}
