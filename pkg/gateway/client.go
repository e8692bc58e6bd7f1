// Package gateway is the typed JSON-over-HTTPS boundary to the
// AllerSafe backend. It is the only package that issues network calls.
// Every call distinguishes three outcomes: success with payload, a
// backend-reported failure with a structured detail message, and a
// transport failure. Retry policy belongs to callers; this layer never
// retries.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rippinkwards/allersafe/pkg/allersafe"
)

const defaultHTTPTimeout = 10 * time.Second

// CredentialSource provides the bearer credential attached to
// authenticated calls. *allersafe.Session implements it.
type CredentialSource interface {
	Token() string
}

// Config holds gateway configuration
type Config struct {
	// BaseURL is the backend origin, e.g. "https://api.allersafe.app"
	// (required)
	BaseURL string

	// Credentials supplies the bearer token for authenticated calls.
	// May be nil for unauthenticated use (public menu lookups).
	Credentials CredentialSource

	// HTTPClient is an optional HTTP client.
	// If nil, a default client with 10s timeout is used.
	HTTPClient *http.Client

	// Logger is used for structured logging (default: NoopLogger)
	Logger allersafe.Logger

	// Metrics tracks gateway calls (default: NoopMetrics)
	Metrics allersafe.Metrics
}

// Client is a stateless typed client for the AllerSafe backend API
type Client struct {
	baseURL     string
	credentials CredentialSource
	httpClient  *http.Client
	logger      allersafe.Logger
	metrics     allersafe.Metrics
}

// NewClient creates a backend gateway client
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, &allersafe.ValidationError{Field: "base_url", Reason: "backend base URL is required"}
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = &allersafe.NoopLogger{}
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = &allersafe.NoopMetrics{}
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		credentials: cfg.Credentials,
		httpClient:  httpClient,
		logger:      logger,
		metrics:     metrics,
	}, nil
}

// errorDetail is the backend's structured failure payload
type errorDetail struct {
	Detail string `json:"detail"`
}

// do issues one request and decodes the response into out (unless out
// is nil). Non-2xx responses become *allersafe.BackendError carrying
// the backend's detail; everything else that goes wrong on the wire
// becomes *allersafe.TransportError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	startTime := time.Now()

	var reqBody io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &allersafe.TransportError{Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &allersafe.TransportError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.credentials != nil {
		if token := c.credentials.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordGatewayCall(path, "transport_error", time.Since(startTime))
		return &allersafe.TransportError{Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		c.metrics.RecordGatewayCall(path, "transport_error", time.Since(startTime))
		return &allersafe.TransportError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		var detail errorDetail
		_ = json.Unmarshal(raw, &detail)
		c.metrics.RecordGatewayCall(path, "backend_error", time.Since(startTime))
		c.logger.Debug("backend rejected request",
			allersafe.Field{Key: "path", Value: path},
			allersafe.Field{Key: "status", Value: res.StatusCode},
		)
		return &allersafe.BackendError{StatusCode: res.StatusCode, Detail: detail.Detail}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			c.metrics.RecordGatewayCall(path, "transport_error", time.Since(startTime))
			return &allersafe.TransportError{Err: fmt.Errorf("failed to parse response: %w", err)}
		}
	}

	c.metrics.RecordGatewayCall(path, "success", time.Since(startTime))
	return nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}
