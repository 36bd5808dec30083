// Package http composes and sends API requests. It owns the transport
// adapter and the response interpreter; resource semantics live in
// internal/client.
package http

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fivetwenty-io/gitlab-client/internal/constants"
	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
)

// Static errors for err113 compliance.
var (
	ErrNoResponse = errors.New("transport returned no response")
)

// Request is an API request relative to the base URL.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
}

// Response is an uninterpreted API response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	// Cached is set when the response was replayed from the cache.
	Cached bool
}

// Client composes requests and hands them to a gitlab.Transport.
// It holds no per-request state and is safe for concurrent use.
type Client struct {
	baseURL   string
	token     string
	userAgent string
	timeout   time.Duration
	transport gitlab.Transport
	logger    gitlab.Logger
	debug     bool
	cache     gitlab.Cache
	cacheTTL  time.Duration

	// interceptors holds the user chain until NewClient prepends logging.
	interceptors *gitlab.InterceptorChain

	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger gitlab.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithTransport replaces the default transport.
func WithTransport(transport gitlab.Transport) Option {
	return func(c *Client) {
		c.transport = transport
	}
}

// WithCache enables response caching for GET requests.
func WithCache(cache gitlab.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithInterceptors runs chain around every request.
func WithInterceptors(chain *gitlab.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// WithRetryConfig enables retries on the default transport.
func WithRetryConfig(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.retryMax = maxRetries
		c.retryWaitMin = waitMin
		c.retryWaitMax = waitMax
	}
}

// NewClient creates a new client for baseURL.
func NewClient(baseURL, token string, opts ...Option) *Client {
	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		token:        token,
		userAgent:    constants.DefaultUserAgent,
		timeout:      constants.DefaultRequestTimeout,
		cacheTTL:     constants.DefaultCacheTTL,
		retryMax:     constants.DefaultRetryMax,
		retryWaitMin: constants.DefaultRetryWaitMin,
		retryWaitMax: constants.DefaultRetryWaitMax,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.transport == nil {
		transportOpts := []TransportOption{
			WithTransportRetry(client.retryMax, client.retryWaitMin, client.retryWaitMax),
		}

		if client.debug && client.retryMax > 0 {
			transportOpts = append(transportOpts, WithTransportLogger(client.logger))
		}

		client.transport = NewTransport(transportOpts...)
	}

	chain := gitlab.NewInterceptorChain()
	if client.debug && client.logger != nil {
		chain.AddRequestInterceptor(gitlab.LoggingInterceptor(client.logger))
		chain.AddResponseInterceptor(gitlab.LoggingResponseInterceptor(client.logger))
	}

	client.interceptors = chain.Extend(client.interceptors)

	return client
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends a request and returns the raw response. The only errors are
// local encoding or interceptor failures and *gitlab.Error values of
// KindHTTPRequest; HTTP error statuses are returned as responses.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL := c.buildURL(req.Path, req.Query)

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	transportReq := &gitlab.TransportRequest{
		Method:  req.Method,
		URL:     fullURL,
		Headers: c.headers(req.Headers, body != nil),
		Body:    body,
	}

	err = c.interceptors.ExecuteRequestInterceptors(ctx, transportReq)
	if err != nil {
		return nil, err
	}

	cacheKey := c.cacheKey(req.Method, fullURL)
	if cached := c.lookupCache(ctx, req.Method, cacheKey); cached != nil {
		err = c.interceptors.ExecuteResponseInterceptors(ctx, transportReq, cached, nil)
		if err != nil {
			return nil, err
		}

		return &Response{StatusCode: cached.StatusCode, Headers: cached.Headers, Body: cached.Body, Cached: true}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	transportResp, sendErr := c.send(ctx, transportReq)

	// A send failure wins over an interceptor failure.
	err = c.interceptors.ExecuteResponseInterceptors(ctx, transportReq, transportResp, sendErr)
	if sendErr != nil {
		return nil, sendErr
	}

	if err != nil {
		return nil, err
	}

	c.updateCache(ctx, req.Method, cacheKey, transportResp)

	return &Response{
		StatusCode: transportResp.StatusCode,
		Headers:    transportResp.Headers,
		Body:       transportResp.Body,
	}, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path, Query: query})
}

type sendOutcome struct {
	resp *gitlab.TransportResponse
	err  error
}

// send runs the transport and resolves on the deadline even when the
// transport ignores its context.
func (c *Client) send(ctx context.Context, req *gitlab.TransportRequest) (*gitlab.TransportResponse, error) {
	done := make(chan sendOutcome, 1)

	go func() {
		resp, err := c.transport.Send(ctx, req)
		done <- sendOutcome{resp: resp, err: err}
	}()

	select {
	case outcome := <-done:
		if outcome.err != nil {
			return nil, normalizeTransportError(outcome.err)
		}

		if outcome.resp == nil {
			return nil, gitlab.NewHTTPRequestError(ErrNoResponse)
		}

		return outcome.resp, nil
	case <-ctx.Done():
		return nil, gitlab.NewHTTPRequestError(abortReason(ctx.Err()))
	}
}

func abortReason(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timeout: %w", err)
	}

	return fmt.Errorf("request aborted: %w", err)
}

func normalizeTransportError(err error) error {
	gitlabErr, ok := gitlab.AsError(err)
	if ok && gitlabErr.Kind == gitlab.KindHTTPRequest {
		return gitlabErr
	}

	return gitlab.NewHTTPRequestError(err)
}

func (c *Client) buildURL(path string, query url.Values) string {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	return fullURL
}

func (c *Client) headers(custom map[string]string, hasBody bool) http.Header {
	headers := make(http.Header)
	headers.Set("Accept", constants.ContentTypeJSON)
	headers.Set("User-Agent", c.userAgent)

	if c.token != "" {
		headers.Set(constants.HeaderPrivateToken, c.token)
	}

	if hasBody {
		headers.Set("Content-Type", constants.ContentTypeJSON)
	}

	for key, value := range custom {
		headers.Set(key, value)
	}

	return headers
}

func encodeBody(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}

	if raw, ok := body.([]byte); ok {
		return raw, nil
	}

	var buf bytes.Buffer

	err := json.NewEncoder(&buf).Encode(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// cacheKey scopes entries by token so clients sharing a backend never see
// each other's responses.
func (c *Client) cacheKey(method, fullURL string) string {
	sum := sha256.Sum256([]byte(c.token))

	return method + " " + fullURL + "#" + hex.EncodeToString(sum[:8])
}

func (c *Client) lookupCache(ctx context.Context, method, key string) *gitlab.TransportResponse {
	if c.cache == nil || method != http.MethodGet {
		return nil
	}

	entry, err := c.cache.Get(ctx, key)
	if err != nil {
		return nil
	}

	headers := make(http.Header)
	headers.Set(constants.HeaderCache, "HIT")

	return &gitlab.TransportResponse{
		StatusCode: constants.HTTPStatusOK,
		Headers:    headers,
		Body:       entry.Data,
	}
}

func (c *Client) updateCache(ctx context.Context, method, key string, resp *gitlab.TransportResponse) {
	if c.cache == nil || !IsSuccess(resp.StatusCode) {
		return
	}

	var err error

	if method == http.MethodGet {
		err = c.cache.Set(ctx, key, &gitlab.CacheEntry{
			Data:      resp.Body,
			ExpiresAt: time.Now().Add(c.cacheTTL),
			ETag:      resp.Headers.Get("ETag"),
		})
	} else {
		err = c.cache.Clear(ctx)
	}

	if err != nil && c.logger != nil {
		c.logger.Warn("Cache update failed", map[string]interface{}{
			"method": method,
			"error":  err.Error(),
		})
	}
}
