package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fivetwenty-io/gitlab-client/internal/constants"
	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
	"github.com/hashicorp/go-retryablehttp"
)

// Transport is the default gitlab.Transport, backed by go-retryablehttp.
//
// Retries are off unless configured; non-2xx responses are always handed
// back with their body so the interpreter can classify them.
type Transport struct {
	client *retryablehttp.Client
}

// TransportOption configures a Transport.
type TransportOption func(*retryablehttp.Client)

// WithTransportRetry enables retries of transient failures.
func WithTransportRetry(maxRetries int, waitMin, waitMax time.Duration) TransportOption {
	return func(client *retryablehttp.Client) {
		client.RetryMax = maxRetries
		client.RetryWaitMin = waitMin
		client.RetryWaitMax = waitMax
	}
}

// WithTransportLogger routes retryablehttp's own logs to logger.
func WithTransportLogger(logger gitlab.Logger) TransportOption {
	return func(client *retryablehttp.Client) {
		if logger != nil {
			client.Logger = &leveledLogger{logger: logger}
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(httpClient *http.Client) TransportOption {
	return func(client *retryablehttp.Client) {
		client.HTTPClient = httpClient
	}
}

// NewTransport creates a transport.
func NewTransport(opts ...TransportOption) *Transport {
	client := retryablehttp.NewClient()
	client.RetryMax = constants.DefaultRetryMax
	client.RetryWaitMin = constants.DefaultRetryWaitMin
	client.RetryWaitMax = constants.DefaultRetryWaitMax
	client.Logger = nil
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	for _, opt := range opts {
		opt(client)
	}

	return &Transport{client: client}
}

// Send implements gitlab.Transport.
func (t *Transport) Send(ctx context.Context, req *gitlab.TransportRequest) (*gitlab.TransportResponse, error) {
	var body interface{}
	if req.Body != nil {
		body = req.Body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, gitlab.NewHTTPRequestError(fmt.Errorf("creating request: %w", err))
	}

	for key, values := range req.Headers {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, gitlab.NewHTTPRequestError(err)
	}

	if httpResp == nil {
		return nil, gitlab.NewHTTPRequestError(ErrNoResponse)
	}

	defer func() {
		_ = httpResp.Body.Close()
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, gitlab.NewHTTPRequestError(fmt.Errorf("reading response body: %w", err))
	}

	return &gitlab.TransportResponse{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}, nil
}

// leveledLogger adapts gitlab.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger gitlab.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, toFields(keysAndValues))
}

func toFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	return fields
}
