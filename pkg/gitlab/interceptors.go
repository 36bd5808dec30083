package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/fivetwenty-io/gitlab-client/internal/constants"
)

const metadataStartTime = "start_time"

// RequestInterceptor is called before a request is sent. Returning an error
// aborts the request before it reaches the cache or the transport.
type RequestInterceptor func(ctx context.Context, req *TransportRequest) error

// ResponseInterceptor is called once the request has an outcome: either
// resp is set, or err holds the normalized transport failure.
type ResponseInterceptor func(ctx context.Context, req *TransportRequest, resp *TransportResponse, err error) error

// InterceptorChain runs interceptors in the order they were added. Build it
// before handing it to a client; the chain is read concurrently afterwards.
type InterceptorChain struct {
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// NewInterceptorChain creates an empty chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{}
}

// AddRequestInterceptor appends a request interceptor.
func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) *InterceptorChain {
	c.requestInterceptors = append(c.requestInterceptors, interceptor)

	return c
}

// AddResponseInterceptor appends a response interceptor.
func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) *InterceptorChain {
	c.responseInterceptors = append(c.responseInterceptors, interceptor)

	return c
}

// Extend appends every interceptor of other. A nil other is a no-op.
func (c *InterceptorChain) Extend(other *InterceptorChain) *InterceptorChain {
	if other == nil {
		return c
	}

	c.requestInterceptors = append(c.requestInterceptors, other.requestInterceptors...)
	c.responseInterceptors = append(c.responseInterceptors, other.responseInterceptors...)

	return c
}

// Len returns the number of interceptors in the chain.
func (c *InterceptorChain) Len() int {
	if c == nil {
		return 0
	}

	return len(c.requestInterceptors) + len(c.responseInterceptors)
}

// ExecuteRequestInterceptors runs the request interceptors, stopping at the
// first error.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, req *TransportRequest) error {
	if c == nil {
		return nil
	}

	for _, interceptor := range c.requestInterceptors {
		err := interceptor(ctx, req)
		if err != nil {
			return fmt.Errorf("request interceptor failed: %w", err)
		}
	}

	return nil
}

// ExecuteResponseInterceptors runs the response interceptors, stopping at
// the first error.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, req *TransportRequest, resp *TransportResponse, sendErr error) error {
	if c == nil {
		return nil
	}

	for _, interceptor := range c.responseInterceptors {
		err := interceptor(ctx, req, resp, sendErr)
		if err != nil {
			return fmt.Errorf("response interceptor failed: %w", err)
		}
	}

	return nil
}

// LoggingInterceptor logs every outgoing request at debug level.
func LoggingInterceptor(logger Logger) RequestInterceptor {
	return func(_ context.Context, req *TransportRequest) error {
		markStart(req)

		logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    req.URL,
		})

		return nil
	}
}

// LoggingResponseInterceptor logs responses at debug level and transport
// failures at error level.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	return func(_ context.Context, req *TransportRequest, resp *TransportResponse, sendErr error) error {
		fields := map[string]interface{}{
			"method": req.Method,
			"url":    req.URL,
		}

		if start, ok := req.Metadata[metadataStartTime].(time.Time); ok {
			fields["duration"] = time.Since(start).String()
		}

		if sendErr != nil {
			fields["error"] = sendErr.Error()
			logger.Error("HTTP Request Failed", fields)

			return nil
		}

		fields["status_code"] = resp.StatusCode
		if resp.Headers.Get(constants.HeaderCache) != "" {
			fields["cache"] = "hit"
		}

		logger.Debug("HTTP Response", fields)

		return nil
	}
}

// HeaderInterceptor sets fixed headers on every request, replacing any
// value the client composed.
func HeaderInterceptor(headers map[string]string) RequestInterceptor {
	return func(_ context.Context, req *TransportRequest) error {
		if req.Headers == nil {
			req.Headers = make(http.Header)
		}

		for key, value := range headers {
			req.Headers.Set(key, value)
		}

		return nil
	}
}

// Metrics aggregates the calls made to one endpoint.
type Metrics struct {
	TotalRequests   int64
	TotalErrors     int64
	TotalLatency    time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time
}

// MetricsCollector aggregates call metrics per "METHOD URL-path" endpoint.
// It is safe for concurrent use.
type MetricsCollector struct {
	mutex    sync.Mutex
	metrics  map[string]*Metrics
	onChange func(endpoint string, metrics Metrics)
}

// NewMetricsCollector creates an empty collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics: make(map[string]*Metrics),
	}
}

// SetOnChange registers a callback invoked with a snapshot after every
// recorded call.
func (m *MetricsCollector) SetOnChange(fn func(endpoint string, metrics Metrics)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.onChange = fn
}

// GetMetrics returns a snapshot for endpoint, or false when no call to it
// was recorded.
func (m *MetricsCollector) GetMetrics(endpoint string) (Metrics, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	metrics, ok := m.metrics[endpoint]
	if !ok {
		return Metrics{}, false
	}

	return *metrics, true
}

// Endpoints returns the endpoints with recorded calls.
func (m *MetricsCollector) Endpoints() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	endpoints := make([]string, 0, len(m.metrics))
	for endpoint := range m.metrics {
		endpoints = append(endpoints, endpoint)
	}

	return endpoints
}

// Interceptors returns the request and response hooks that feed m.
func (m *MetricsCollector) Interceptors() *InterceptorChain {
	return NewInterceptorChain().
		AddRequestInterceptor(func(_ context.Context, req *TransportRequest) error {
			markStart(req)

			return nil
		}).
		AddResponseInterceptor(func(_ context.Context, req *TransportRequest, resp *TransportResponse, sendErr error) error {
			m.record(req, resp, sendErr)

			return nil
		})
}

func (m *MetricsCollector) record(req *TransportRequest, resp *TransportResponse, sendErr error) {
	endpoint := req.Method + " " + endpointPath(req.URL)

	m.mutex.Lock()

	metrics, ok := m.metrics[endpoint]
	if !ok {
		metrics = &Metrics{}
		m.metrics[endpoint] = metrics
	}

	metrics.TotalRequests++
	metrics.LastRequestTime = time.Now()

	if start, ok := req.Metadata[metadataStartTime].(time.Time); ok {
		metrics.TotalLatency += time.Since(start)
		metrics.AverageLatency = metrics.TotalLatency / time.Duration(metrics.TotalRequests)
	}

	if sendErr != nil || resp == nil || resp.StatusCode >= constants.HTTPStatusMultipleChoices {
		metrics.TotalErrors++
	}

	snapshot := *metrics
	onChange := m.onChange

	m.mutex.Unlock()

	if onChange != nil {
		onChange(endpoint, snapshot)
	}
}

func markStart(req *TransportRequest) {
	if req.Metadata == nil {
		req.Metadata = make(map[string]interface{})
	}

	if _, ok := req.Metadata[metadataStartTime]; !ok {
		req.Metadata[metadataStartTime] = time.Now()
	}
}

// endpointPath strips scheme, host and query so metrics group by path.
func endpointPath(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	return parsed.EscapedPath()
}
