// Package testutil provides testing utilities for the Sequoia client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

// RequestRecord captures one request seen by the mock service.
type RequestRecord struct {
	Method string
	Path   string
	Query  string
	Header http.Header
}

// MockSequoia is a configurable mock Sequoia platform for testing: it can
// play the service registry, the identity service and any number of data
// services from one httptest server.
type MockSequoia struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	// Tracking
	requests []RequestRecord
}

// NewMockSequoia creates a new mock Sequoia server.
func NewMockSequoia() *MockSequoia {
	mock := &MockSequoia{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requests = append(mock.requests, RequestRecord{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
		})
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, `{"error": "Not Found", "message": "no handler for %s"}`, r.URL.Path)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockSequoia) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockSequoia) Close() {
	m.server.Close()
}

// Reset clears all tracked requests.
func (m *MockSequoia) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

// RequestCount returns the number of requests seen so far.
func (m *MockSequoia) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// Requests returns a copy of the tracked requests.
func (m *MockSequoia) Requests() []RequestRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records := make([]RequestRecord, len(m.requests))
	copy(records, m.requests)
	return records
}

// Handle registers a handler for an exact path.
func (m *MockSequoia) Handle(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// HandleJSON registers a handler returning a fixed JSON body.
func (m *MockSequoia) HandleJSON(path string, statusCode int, body string) {
	m.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		fmt.Fprint(w, body)
	})
}

// ServeRegistry registers the service registry document at path, mapping
// every named service (plus the identity service) to this server.
func (m *MockSequoia) ServeRegistry(path string, serviceNames ...string) {
	services := `{"name": "identity", "location": "` + m.server.URL + `"}`
	for _, name := range serviceNames {
		services += fmt.Sprintf(`, {"name": %q, "location": %q}`, name, m.server.URL)
	}
	m.HandleJSON(path, http.StatusOK, `{"services": [`+services+`]}`)
}

// ServeToken registers the identity token endpoint returning a static
// bearer token.
func (m *MockSequoia) ServeToken() {
	m.HandleJSON("/oauth/token", http.StatusOK,
		`{"access_token": "mock-token", "token_type": "bearer", "expires_in": 3600}`)
}

// ServeDescriptor registers the descriptor endpoint with the given raw
// descriptor document.
func (m *MockSequoia) ServeDescriptor(body string) {
	m.HandleJSON("/descriptor/raw", http.StatusOK, body)
}
