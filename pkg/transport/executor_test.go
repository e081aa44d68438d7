package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
)

func TestExecutor_Get(t *testing.T) {
	var gotRequest *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequest = r.Clone(r.Context())
		w.Write([]byte(`{"contents":[]}`))
	}))
	defer server.Close()

	exec := New(Config{UserAgent: "test-agent/1.0"})

	params := url.Values{}
	params.Set("owner", "test")
	body, err := exec.Get(context.Background(), server.URL+"/data/contents?include=assets", params, "contents")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(body) != `{"contents":[]}` {
		t.Errorf("Body = %s, want canned payload", body)
	}

	if got := gotRequest.Header.Get("User-Agent"); got != "test-agent/1.0" {
		t.Errorf("User-Agent = %q, want %q", got, "test-agent/1.0")
	}
	if got := gotRequest.Header.Get("Accept"); got != "application/json" {
		t.Errorf("Accept = %q, want %q", got, "application/json")
	}
	query := gotRequest.URL.Query()
	if got := query.Get("owner"); got != "test" {
		t.Errorf("owner param = %q, want %q", got, "test")
	}
	if got := query.Get("include"); got != "assets" {
		t.Errorf("include param lost during merge: %q", got)
	}
}

func TestExecutor_PostSetsContentType(t *testing.T) {
	var gotContentType string
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	exec := New(Config{})

	payload := `{"contents":[{"name":"c1"}]}`
	if _, err := exec.Post(context.Background(), server.URL+"/data/contents/", []byte(payload), nil, "contents"); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	if gotContentType != "application/vnd.piksel+json" {
		t.Errorf("Content-Type = %q, want %q", gotContentType, "application/vnd.piksel+json")
	}
	if gotBody != payload {
		t.Errorf("Body = %q, want %q", gotBody, payload)
	}
}

func TestExecutor_PutForwardsHeaders(t *testing.T) {
	var gotIfMatch string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIfMatch = r.Header.Get("If-Match")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	exec := New(Config{})

	headers := http.Header{}
	headers.Set("If-Match", `"3"`)
	if _, err := exec.Put(context.Background(), server.URL+"/data/contents/test:c1", []byte(`{}`), nil, headers, "contents"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if gotIfMatch != `"3"` {
		t.Errorf("If-Match = %q, want %q", gotIfMatch, `"3"`)
	}
}

func TestExecutor_ClientErrorNotRetried(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Not Found","message":"resource does not exist"}`))
	}))
	defer server.Close()

	exec := New(Config{})

	_, err := exec.Get(context.Background(), server.URL+"/data/contents/test:c1", nil, "contents")
	if err == nil {
		t.Fatal("Get on 404 succeeded, want error")
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Error type = %T, want *HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", httpErr.StatusCode)
	}
	if httpErr.Class != ErrorClassClient {
		t.Errorf("Class = %q, want %q", httpErr.Class, ErrorClassClient)
	}
	if httpErr.Message != "resource does not exist" {
		t.Errorf("Message = %q, want service message", httpErr.Message)
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("Requests = %d, want exactly 1 for a client error", got)
	}
}

func TestExecutor_ServerErrorRetried(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"contents":[]}`))
	}))
	defer server.Close()

	exec := New(Config{})

	body, err := exec.Get(context.Background(), server.URL+"/data/contents", nil, "contents")
	if err != nil {
		t.Fatalf("Get failed after retry: %v", err)
	}
	if string(body) != `{"contents":[]}` {
		t.Errorf("Body = %s, want canned payload", body)
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("Requests = %d, want 2", got)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		statusCode int
		expected   string
	}{
		{
			name:       "service error payload",
			body:       `{"error":"Precondition Failed","message":"document cannot be changed - versions do not match"}`,
			statusCode: 412,
			expected:   "document cannot be changed - versions do not match",
		},
		{
			name:       "non-JSON body falls back to status text",
			body:       "upstream blew up",
			statusCode: 502,
			expected:   "Bad Gateway",
		},
		{
			name:       "JSON without message falls back to status text",
			body:       `{"error":"Not Found"}`,
			statusCode: 404,
			expected:   "Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorMessage([]byte(tt.body), tt.statusCode); got != tt.expected {
				t.Errorf("errorMessage = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestBuildTarget(t *testing.T) {
	params := url.Values{}
	params.Set("owner", "test")

	target, err := buildTarget("http://metadata.test/data/contents?include=assets", params)
	if err != nil {
		t.Fatalf("buildTarget failed: %v", err)
	}

	u, err := url.Parse(target)
	if err != nil {
		t.Fatalf("parse target: %v", err)
	}
	query := u.Query()
	if got := query.Get("include"); got != "assets" {
		t.Errorf("include = %q, want preserved", got)
	}
	if got := query.Get("owner"); got != "test" {
		t.Errorf("owner = %q, want merged", got)
	}
}

func TestBuildTarget_NoParams(t *testing.T) {
	raw := "http://metadata.test/data/contents?include=assets"
	target, err := buildTarget(raw, nil)
	if err != nil {
		t.Fatalf("buildTarget failed: %v", err)
	}
	if target != raw {
		t.Errorf("Target = %q, want untouched %q", target, raw)
	}
}
