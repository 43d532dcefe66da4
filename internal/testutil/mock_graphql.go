// Package testutil provides testing utilities for the storefront GraphQL
// client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior of a mock GraphQL response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Cookies    []*http.Cookie
	Delay      time.Duration
}

// MockGraphQL is a configurable mock GraphQL server for testing. It
// dispatches on the operationName of the incoming request body.
type MockGraphQL struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	failures map[string]*failureScript

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
	LastCookies       []*http.Cookie
	LastOperation     string
	LastVariableKeys  []string
}

type failureScript struct {
	remaining int
	fail      MockResponse
	then      MockResponse
}

type postedOperation struct {
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
	Query         string         `json:"query"`
}

// NewMockGraphQL creates a new mock GraphQL server.
func NewMockGraphQL() *MockGraphQL {
	mock := &MockGraphQL{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
		failures: make(map[string]*failureScript),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var op postedOperation
		_ = json.NewDecoder(r.Body).Decode(&op)

		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.LastCookies = r.Cookies()
		mock.LastOperation = op.OperationName
		mock.LastVariableKeys = mock.LastVariableKeys[:0]
		for k := range op.Variables {
			mock.LastVariableKeys = append(mock.LastVariableKeys, k)
		}

		// Scripted failures consume before any configured handler runs.
		if script, ok := mock.failures[op.OperationName]; ok {
			var resp MockResponse
			if script.remaining > 0 {
				script.remaining--
				resp = script.fail
			} else {
				resp = script.then
			}
			mock.mu.Unlock()
			writeMockResponse(w, resp)
			return
		}
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[op.OperationName]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockGraphQL) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockGraphQL) Close() {
	m.server.Close()
}

// Reset clears all tracking counters and scripted behavior.
func (m *MockGraphQL) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequestHeader = nil
	m.LastCookies = nil
	m.LastOperation = ""
	m.LastVariableKeys = nil
	m.handlers = make(map[string]func(w http.ResponseWriter, r *http.Request))
	m.failures = make(map[string]*failureScript)
}

// SetHandler sets a custom handler for a specific operation name.
func (m *MockGraphQL) SetHandler(operation string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[operation] = handler
}

// SetResponse configures a fixed response for an operation.
func (m *MockGraphQL) SetResponse(operation string, resp MockResponse) {
	m.SetHandler(operation, func(w http.ResponseWriter, r *http.Request) {
		writeMockResponse(w, resp)
	})
}

// FailThenSucceed makes an operation return fail for the first n requests
// and then ok for every request after.
func (m *MockGraphQL) FailThenSucceed(operation string, n int, fail, ok MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[operation] = &failureScript{remaining: n, fail: fail, then: ok}
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockGraphQL) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// defaultHandler answers any unconfigured operation with an empty object.
func (m *MockGraphQL) defaultHandler(w http.ResponseWriter, r *http.Request) {
	writeMockResponse(w, NewDataResponse(`{"ok":true}`))
}

func writeMockResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	for _, cookie := range resp.Cookies {
		http.SetCookie(w, cookie)
	}
	if resp.StatusCode == 0 {
		resp.StatusCode = http.StatusOK
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewDataResponse creates a 200 response with the given data payload.
func NewDataResponse(dataJSON string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       fmt.Sprintf(`{"data":%s}`, dataJSON),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewGraphQLErrorResponse creates a 200 response carrying a GraphQL error
// with the given extensions code.
func NewGraphQLErrorResponse(code, message string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body: fmt.Sprintf(`{"data":null,"errors":[{"message":%q,"extensions":{"code":%q}}]}`,
			message, code),
		Headers: map[string]string{"Content-Type": "application/json"},
	}
}

// NewPartialDataResponse creates a 200 response carrying both partial data
// and a GraphQL error.
func NewPartialDataResponse(dataJSON, code, message string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body: fmt.Sprintf(`{"data":%s,"errors":[{"message":%q,"extensions":{"code":%q}}]}`,
			dataJSON, message, code),
		Headers: map[string]string{"Content-Type": "application/json"},
	}
}

// NewStatusResponse creates a plain HTTP response with the given status.
func NewStatusResponse(status int) MockResponse {
	return MockResponse{
		StatusCode: status,
		Body:       fmt.Sprintf(`{"error":"status %d"}`, status),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}
