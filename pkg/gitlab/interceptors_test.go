package gitlab_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
)

type recordingLogger struct {
	mutex   sync.Mutex
	entries []string
}

func (l *recordingLogger) add(level, msg string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.entries = append(l.entries, level+" "+msg)
}

func (l *recordingLogger) Debug(msg string, _ map[string]interface{}) { l.add("debug", msg) }
func (l *recordingLogger) Info(msg string, _ map[string]interface{})  { l.add("info", msg) }
func (l *recordingLogger) Warn(msg string, _ map[string]interface{})  { l.add("warn", msg) }
func (l *recordingLogger) Error(msg string, _ map[string]interface{}) { l.add("error", msg) }

func TestInterceptorChain_Order(t *testing.T) {
	t.Parallel()

	var executionOrder []string

	first := gitlab.NewInterceptorChain().
		AddRequestInterceptor(func(context.Context, *gitlab.TransportRequest) error {
			executionOrder = append(executionOrder, "first request")

			return nil
		}).
		AddResponseInterceptor(func(context.Context, *gitlab.TransportRequest, *gitlab.TransportResponse, error) error {
			executionOrder = append(executionOrder, "first response")

			return nil
		})

	second := gitlab.NewInterceptorChain().
		AddRequestInterceptor(func(context.Context, *gitlab.TransportRequest) error {
			executionOrder = append(executionOrder, "second request")

			return nil
		})

	chain := first.Extend(second).Extend(nil)
	assert.Equal(t, 3, chain.Len())

	ctx := context.Background()
	req := &gitlab.TransportRequest{Method: http.MethodGet, URL: "https://gitlab.example.com/api/v4/projects"}

	require.NoError(t, chain.ExecuteRequestInterceptors(ctx, req))
	require.NoError(t, chain.ExecuteResponseInterceptors(ctx, req, &gitlab.TransportResponse{StatusCode: http.StatusOK}, nil))

	assert.Equal(t, []string{"first request", "second request", "first response"}, executionOrder)
}

func TestInterceptorChain_StopsAtFirstError(t *testing.T) {
	t.Parallel()

	errBlocked := errors.New("blocked")
	called := false

	chain := gitlab.NewInterceptorChain().
		AddRequestInterceptor(func(context.Context, *gitlab.TransportRequest) error { return errBlocked }).
		AddRequestInterceptor(func(context.Context, *gitlab.TransportRequest) error {
			called = true

			return nil
		})

	err := chain.ExecuteRequestInterceptors(context.Background(), &gitlab.TransportRequest{})
	require.ErrorIs(t, err, errBlocked)
	assert.Contains(t, err.Error(), "request interceptor failed")
	assert.False(t, called)
}

func TestInterceptorChain_Nil(t *testing.T) {
	t.Parallel()

	var chain *gitlab.InterceptorChain

	assert.Equal(t, 0, chain.Len())
	require.NoError(t, chain.ExecuteRequestInterceptors(context.Background(), &gitlab.TransportRequest{}))
	require.NoError(t, chain.ExecuteResponseInterceptors(context.Background(), &gitlab.TransportRequest{}, nil, nil))
}

func TestHeaderInterceptor(t *testing.T) {
	t.Parallel()

	interceptor := gitlab.HeaderInterceptor(map[string]string{
		"X-Custom-Header": "custom-value",
		"User-Agent":      "ci-bot",
	})

	req := &gitlab.TransportRequest{Headers: http.Header{"User-Agent": []string{"gitlab-client-go"}}}
	require.NoError(t, interceptor(context.Background(), req))

	assert.Equal(t, "custom-value", req.Headers.Get("X-Custom-Header"))
	assert.Equal(t, "ci-bot", req.Headers.Get("User-Agent"))

	empty := &gitlab.TransportRequest{}
	require.NoError(t, interceptor(context.Background(), empty))
	assert.Equal(t, "custom-value", empty.Headers.Get("X-Custom-Header"))
}

func TestLoggingInterceptors(t *testing.T) {
	t.Parallel()

	logger := &recordingLogger{}
	ctx := context.Background()
	req := &gitlab.TransportRequest{Method: http.MethodGet, URL: "https://gitlab.example.com/api/v4/user"}

	require.NoError(t, gitlab.LoggingInterceptor(logger)(ctx, req))
	assert.Contains(t, req.Metadata, "start_time")

	response := gitlab.LoggingResponseInterceptor(logger)
	require.NoError(t, response(ctx, req, &gitlab.TransportResponse{StatusCode: http.StatusOK}, nil))
	require.NoError(t, response(ctx, req, nil, gitlab.NewHTTPRequestError(errors.New("connection refused"))))

	assert.Equal(t, []string{"debug HTTP Request", "debug HTTP Response", "error HTTP Request Failed"}, logger.entries)
}

func TestMetricsCollector(t *testing.T) {
	t.Parallel()

	collector := gitlab.NewMetricsCollector()

	var (
		notifiedEndpoint string
		notifiedMetrics  gitlab.Metrics
	)

	collector.SetOnChange(func(endpoint string, metrics gitlab.Metrics) {
		notifiedEndpoint = endpoint
		notifiedMetrics = metrics
	})

	chain := collector.Interceptors()
	ctx := context.Background()

	calls := []struct {
		status int
		err    error
	}{
		{status: http.StatusOK},
		{status: http.StatusNotFound},
		{err: gitlab.NewHTTPRequestError(errors.New("socket hang up"))},
	}

	for _, call := range calls {
		req := &gitlab.TransportRequest{Method: http.MethodGet, URL: "https://gitlab.example.com/api/v4/projects/group%2Fdemo?page=2"}
		require.NoError(t, chain.ExecuteRequestInterceptors(ctx, req))

		var resp *gitlab.TransportResponse
		if call.err == nil {
			resp = &gitlab.TransportResponse{StatusCode: call.status}
		}

		require.NoError(t, chain.ExecuteResponseInterceptors(ctx, req, resp, call.err))
	}

	endpoint := "GET /api/v4/projects/group%2Fdemo"
	assert.Equal(t, []string{endpoint}, collector.Endpoints())

	metrics, ok := collector.GetMetrics(endpoint)
	require.True(t, ok)
	assert.Equal(t, int64(3), metrics.TotalRequests)
	assert.Equal(t, int64(2), metrics.TotalErrors)
	assert.False(t, metrics.LastRequestTime.IsZero())
	assert.Equal(t, endpoint, notifiedEndpoint)
	assert.Equal(t, metrics, notifiedMetrics)

	_, ok = collector.GetMetrics("GET /api/v4/users")
	assert.False(t, ok)
}

func TestMetricsCollector_Concurrent(t *testing.T) {
	t.Parallel()

	collector := gitlab.NewMetricsCollector()
	chain := collector.Interceptors()

	var wg sync.WaitGroup

	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			req := &gitlab.TransportRequest{Method: http.MethodGet, URL: "https://gitlab.example.com/api/v4/version"}
			_ = chain.ExecuteRequestInterceptors(context.Background(), req)
			_ = chain.ExecuteResponseInterceptors(context.Background(), req, &gitlab.TransportResponse{StatusCode: http.StatusOK}, nil)
		}()
	}

	wg.Wait()

	metrics, ok := collector.GetMetrics("GET /api/v4/version")
	require.True(t, ok)
	assert.Equal(t, int64(20), metrics.TotalRequests)
}
