// Package backend provides the JSON API client that audited entities
// persist through.
package backend

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "entityaudit/internal/errors"
	"entityaudit/internal/logger"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "entityaudit"
)

// Config configures a Client.
type Config struct {
	BaseURL            string
	Headers            map[string]string
	UserAgent          string
	Logging            bool
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// Client talks JSON to a single remote API rooted at BaseURL.
type Client struct {
	name       string
	baseURL    string
	headers    http.Header
	logging    bool
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client built from Config. Timeout and
// InsecureSkipVerify are then the caller's responsibility.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client. It fails when cfg has no base URL.
func New(name string, cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, apperrors.BaseURLNotDefined(name)
	}

	headers := http.Header{}
	headers.Set("Accept", "application/json")
	headers.Set("Content-Type", "application/json")
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	headers.Set("User-Agent", userAgent)
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}

	c := &Client{
		name:    name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		headers: headers,
		logging: cfg.Logging,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = newHTTPClient(cfg)
	}
	return c, nil
}

// MustNew is New for package-level wiring. It panics on error.
func MustNew(name string, cfg Config, opts ...Option) *Client {
	c, err := New(name, cfg, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func newHTTPClient(cfg Config) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed dev backends
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// Name returns the name the client was created with.
func (c *Client) Name() string { return c.name }

// BaseURL returns the base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Response is a successful backend response.
type Response struct {
	StatusCode int
	Header     http.Header
	Raw        []byte
	// Body is the decoded JSON body, nil when the response had none.
	Body any
}

// Decode unmarshals the raw body into v.
func (r *Response) Decode(v any) error {
	if len(r.Raw) == 0 {
		return nil
	}
	return json.Unmarshal(r.Raw, v)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Get issues a GET for path relative to the base URL.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Put issues a PUT with body encoded as JSON.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

// Post issues a POST with body encoded as JSON.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Patch issues a PATCH with body encoded as JSON.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, body)
}

// Delete issues a DELETE for path.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// Do sends a request and decodes the JSON response. A nil body sends no
// request body.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	url := c.url(path)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s %s body: %w", method, url, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range c.headers {
		req.Header[k] = append([]string(nil), v...)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(method, url, 0, time.Since(start), err)
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log(method, url, resp.StatusCode, time.Since(start), err)
		return nil, fmt.Errorf("reading %s %s response: %w", method, url, err)
	}
	c.log(method, url, resp.StatusCode, time.Since(start), nil)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: method, URL: url, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Raw: raw}
	if len(bytes.TrimSpace(raw)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&out.Body); err != nil {
			return nil, fmt.Errorf("decoding %s %s response: %w", method, url, err)
		}
	}
	return out, nil
}

func (c *Client) url(path string) string {
	path = strings.TrimLeft(path, "/")
	if path == "" {
		return c.baseURL
	}
	return c.baseURL + "/" + path
}

func (c *Client) log(method, url string, status int, elapsed time.Duration, err error) {
	if !c.logging {
		return
	}
	if err != nil {
		logger.Get().Warnw("backend request failed",
			"client", c.name,
			"method", method,
			"url", url,
			"status", status,
			"latency", elapsed.String(),
			"error", err,
		)
		return
	}
	logger.Get().Infow("backend request",
		"client", c.name,
		"method", method,
		"url", url,
		"status", status,
		"latency", elapsed.String(),
	)
}
