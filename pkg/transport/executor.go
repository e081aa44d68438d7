// Package transport provides the authenticated HTTP executor used by the
// Sequoia client, with retry, error classification, and request metrics.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jose-oc/sequoia-client-go/pkg/logging"
	"github.com/rs/zerolog"
)

// DefaultTimeout is the per-request timeout applied when no HTTP client is supplied.
const DefaultTimeout = 30 * time.Second

// Config holds the executor configuration.
type Config struct {
	// HTTPClient performs the requests. Supply an OAuth2-authenticated client
	// for client-grant access; defaults to a plain client with DefaultTimeout.
	HTTPClient *http.Client

	// UserAgent is sent on every request.
	UserAgent string

	// Timeout overrides the default timeout when HTTPClient is nil.
	Timeout time.Duration
}

// Executor performs HTTP requests against Sequoia services.
// Timeout and retry policy live here; callers never retry.
type Executor struct {
	httpClient *http.Client
	userAgent  string
	logger     zerolog.Logger
}

// New creates a new executor.
func New(cfg Config) *Executor {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "sequoia-client-go/0.1.0"
	}

	return &Executor{
		httpClient: httpClient,
		userAgent:  userAgent,
		logger:     logging.NewLogger("transport"),
	}
}

// Get performs a GET request and returns the response body.
func (e *Executor) Get(ctx context.Context, rawURL string, params url.Values, resourceName string) ([]byte, error) {
	return e.do(ctx, http.MethodGet, rawURL, params, nil, nil, resourceName)
}

// Post performs a POST request with a JSON body and returns the response body.
func (e *Executor) Post(ctx context.Context, rawURL string, body []byte, params url.Values, resourceName string) ([]byte, error) {
	return e.do(ctx, http.MethodPost, rawURL, params, body, nil, resourceName)
}

// Put performs a PUT request with a JSON body and optional extra headers.
func (e *Executor) Put(ctx context.Context, rawURL string, body []byte, params url.Values, headers http.Header, resourceName string) ([]byte, error) {
	return e.do(ctx, http.MethodPut, rawURL, params, body, headers, resourceName)
}

// Delete performs a DELETE request and returns the response body.
func (e *Executor) Delete(ctx context.Context, rawURL string, params url.Values, resourceName string) ([]byte, error) {
	return e.do(ctx, http.MethodDelete, rawURL, params, nil, nil, resourceName)
}

// do builds the request target, executes it with retry, and returns the body.
func (e *Executor) do(ctx context.Context, method, rawURL string, params url.Values, body []byte, headers http.Header, resourceName string) ([]byte, error) {
	target, err := buildTarget(rawURL, params)
	if err != nil {
		return nil, fmt.Errorf("build request target: %w", err)
	}

	startTime := time.Now()
	defer func() {
		sequoiaRequestDuration.WithLabelValues(resourceName).Observe(time.Since(startTime).Seconds())
	}()

	e.logger.Debug().
		Str("method", method).
		Str("url", target).
		Str("resource", resourceName).
		Msg("Executing Sequoia request")

	var respBody []byte

	retryErr := retryWithBackoff(ctx, func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, reqErr := http.NewRequestWithContext(ctx, method, target, bodyReader)
		if reqErr != nil {
			return fmt.Errorf("create request: %w", reqErr)
		}

		req.Header.Set("User-Agent", e.userAgent)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/vnd.piksel+json")
		}
		for key, values := range headers {
			for _, value := range values {
				req.Header.Set(key, value)
			}
		}

		resp, doErr := e.httpClient.Do(req)
		if doErr != nil {
			e.logger.Error().Err(doErr).Str("url", target).Msg("HTTP request failed")
			sequoiaErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			sequoiaRequestsTotal.WithLabelValues(resourceName, "network_error").Inc()
			return &HTTPError{
				Class:   ErrorClassNetwork,
				URL:     target,
				Message: "request failed",
				Err:     doErr,
			}
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			sequoiaErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return &HTTPError{
				Class:   ErrorClassNetwork,
				URL:     target,
				Message: "read response body",
				Err:     readErr,
			}
		}

		sequoiaRequestsTotal.WithLabelValues(resourceName, fmt.Sprintf("%d", resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 {
			class := classifyStatus(resp.StatusCode)
			sequoiaErrorsTotal.WithLabelValues(string(class)).Inc()

			e.logger.Warn().
				Str("url", target).
				Int("status_code", resp.StatusCode).
				Str("error_class", string(class)).
				Msg("Sequoia request error")

			return &HTTPError{
				StatusCode: resp.StatusCode,
				Class:      class,
				URL:        target,
				Message:    errorMessage(data, resp.StatusCode),
				Body:       data,
			}
		}

		respBody = data
		return nil
	}, classifyError)

	if retryErr != nil {
		return nil, retryErr
	}

	return respBody, nil
}

// buildTarget merges the caller-level parameters into the raw URL's query string.
func buildTarget(rawURL string, params url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	if len(params) > 0 {
		query := u.Query()
		for key, values := range params {
			for _, value := range values {
				query.Add(key, value)
			}
		}
		u.RawQuery = query.Encode()
	}

	return u.String(), nil
}

// classifyError maps an error from a single attempt to its ErrorClass.
func classifyError(err error) ErrorClass {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Class
	}
	return ErrorClassNetwork
}

// errorMessage extracts the service error message from a response body.
func errorMessage(body []byte, statusCode int) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return http.StatusText(statusCode)
}
