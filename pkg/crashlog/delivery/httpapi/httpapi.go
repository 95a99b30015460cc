// Package httpapi provides a delivery client that posts messages and
// installations as JSON to the remote telemetry API.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/strongdm/ai-cxdb-crashlog/pkg/crashlog"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 5 * time.Second

// ErrNoEndpoint is returned by New when no endpoint is configured.
var ErrNoEndpoint = errors.New("httpapi: endpoint is required")

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("httpapi: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("httpapi: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Option configures the HTTP client.
type Option func(*config)

type config struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	gzip       bool
	userAgent  string
}

// WithEndpoint sets the API base URL, e.g. "https://api.example.com".
func WithEndpoint(endpoint string) Option {
	return func(c *config) {
		c.endpoint = strings.TrimRight(endpoint, "/")
	}
}

// WithHTTPClient uses client instead of a new http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-request timeout (default: 5s).
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithGzip compresses request bodies.
func WithGzip() Option {
	return func(c *config) {
		c.gzip = true
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *config) {
		c.userAgent = ua
	}
}

// client posts JSON payloads to the API.
type client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	gzip       bool
	userAgent  string
}

// New creates a client authenticating with apiKey.
func New(apiKey string, opts ...Option) (crashlog.DeliveryClient, error) {
	cfg := &config{
		timeout:   DefaultTimeout,
		userAgent: crashlog.UserAgent(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.endpoint == "" {
		return nil, ErrNoEndpoint
	}
	if _, err := url.Parse(cfg.endpoint); err != nil {
		return nil, fmt.Errorf("httpapi: parse endpoint: %w", err)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{}
	}
	return &client{
		apiKey:     apiKey,
		endpoint:   cfg.endpoint,
		httpClient: cfg.httpClient,
		timeout:    cfg.timeout,
		gzip:       cfg.gzip,
		userAgent:  cfg.userAgent,
	}, nil
}

// Factory returns a crashlog.DeliveryFactory building clients with opts.
func Factory(opts ...Option) crashlog.DeliveryFactory {
	return func(apiKey string) (crashlog.DeliveryClient, error) {
		return New(apiKey, opts...)
	}
}

// Send posts msg to /v3/messages/{logID}.
func (c *client) Send(ctx context.Context, logID string, msg *crashlog.TelemetryMessage) error {
	return c.post(ctx, "/v3/messages/"+url.PathEscape(logID), msg)
}

// RegisterInstallation posts inst to /v3/installations/{logID}.
func (c *client) RegisterInstallation(ctx context.Context, logID string, inst *crashlog.Installation) error {
	return c.post(ctx, "/v3/installations/"+url.PathEscape(logID), inst)
}

func (c *client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("httpapi: encode payload: %w", err)
	}

	if c.gzip {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(body); err != nil {
			return fmt.Errorf("httpapi: compress payload: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("httpapi: compress payload: %w", err)
		}
		body = buf.Bytes()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.endpoint + path + "?" + url.Values{"api_key": {c.apiKey}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("httpapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.gzip {
		req.Header.Set("Content-Encoding", "gzip")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpapi: post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Close releases idle connections.
func (c *client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
