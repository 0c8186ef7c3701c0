package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/adminkit-dev/adminkit/internal/util"
)

const defaultTimeout = 30 * time.Second

// ResponseInterceptor inspects every response before it is handed back to the
// caller. Implementations must not modify the response.
type ResponseInterceptor interface {
	Handle(resp *Response)
}

// InterceptorFunc adapts a function to ResponseInterceptor
type InterceptorFunc func(resp *Response)

func (f InterceptorFunc) Handle(resp *Response) { f(resp) }

// Response is the raw HTTP response as seen by interceptors
type Response struct {
	Method     string
	Path       string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client represents an HTTP client for the admin API
type Client struct {
	baseURL      string
	httpClient   *http.Client
	logger       zerolog.Logger
	interceptors []ResponseInterceptor
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request tracing
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithInsecureSkipVerify accepts self-signed certificates
func WithInsecureSkipVerify() Option {
	return func(c *Client) {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
		c.httpClient = &http.Client{
			Timeout:   c.httpClient.Timeout,
			Transport: transport,
		}
	}
}

// New creates a new API client for baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// BaseURL returns the server URL requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Use registers interceptors; they run in registration order on every response
func (c *Client) Use(interceptors ...ResponseInterceptor) {
	c.interceptors = append(c.interceptors, interceptors...)
}

// Get sends a GET request with params encoded in the query string
func (c *Client) Get(ctx context.Context, path string, params map[string]string) (*Envelope, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, path)
}

// Post sends a POST request with body encoded as JSON
func (c *Client) Post(ctx context.Context, path string, body any) (*Envelope, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path)
}

func (c *Client) do(req *http.Request, path string) (*Envelope, error) {
	requestID := util.UUID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Method: req.Method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: req.Method, Path: path, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("path", path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("HTTP response")

	c.intercept(&Response{
		Method:     req.Method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	})

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &TransportError{
			Method:     req.Method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	env, err := DecodeEnvelope(body)
	if err != nil {
		return nil, &TransportError{Method: req.Method, Path: path, StatusCode: resp.StatusCode, Body: string(body), Err: err}
	}
	return env, nil
}

// intercept hands each interceptor its own copy of the body so none of them
// can change what the caller decodes.
func (c *Client) intercept(resp *Response) {
	for _, ic := range c.interceptors {
		view := *resp
		view.Body = bytes.Clone(resp.Body)
		ic.Handle(&view)
	}
}
