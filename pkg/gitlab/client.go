package gitlab

import (
	"context"
	"net/http"
	"time"
)

// ResourceClient is the fixed operation set every resource exposes.
// Operations a resource does not support fail with ErrUnsupportedOperation
// before any request is sent.
type ResourceClient interface {
	// Name returns the resource name, e.g. "projects".
	Name() string
	// Descriptor returns the static description the client was built from.
	Descriptor() ResourceDescriptor

	// List returns one page of the collection. A page past the end is an
	// empty slice, not an error.
	List(ctx context.Context, params Params, opts *ListOptions) ([]Record, error)
	// Get returns a single record, or nil with no error when the API
	// answers 404.
	Get(ctx context.Context, params Params) (Record, error)
	Create(ctx context.Context, params Params) (Record, error)
	Update(ctx context.Context, params Params) (Record, error)
	// Remove returns the deleted record when the API echoes it. A 204 No
	// Content yields a nil record; the nil error is the confirmation.
	Remove(ctx context.Context, params Params) (Record, error)
	// Call runs a custom operation. Binary operations return []byte.
	Call(ctx context.Context, name string, params Params) (any, error)
}

// RepositoriesClient adds typed accessors for the repository operations.
type RepositoriesClient interface {
	ResourceClient

	// GetBlob returns the raw content of a file at a commit, branch or tag.
	GetBlob(ctx context.Context, params Params) ([]byte, error)
	GetTree(ctx context.Context, params Params, opts *ListOptions) ([]Record, error)
	ListBranches(ctx context.Context, params Params, opts *ListOptions) ([]Record, error)
	GetBranch(ctx context.Context, params Params) (Record, error)
}

// ResourceClients provides access to the registered resource clients.
type ResourceClients interface {
	Projects() ResourceClient
	Issues() ResourceClient
	Repositories() RepositoriesClient
	Users() ResourceClient
	Milestones() ResourceClient
	// Resource looks up a resource client by name.
	Resource(name string) (ResourceClient, bool)
}

// InfoClient provides access to account and instance information.
type InfoClient interface {
	CurrentUser(ctx context.Context) (Record, error)
	Version(ctx context.Context) (Record, error)
}

// Client is the root object callers interact with.
type Client interface {
	ResourceClients
	InfoClient
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// TransportRequest is a fully composed HTTP request.
type TransportRequest struct {
	Method string
	// URL includes scheme, host, path and query string.
	URL     string
	Headers http.Header
	Body    []byte
	// Metadata carries interceptor state between the request and response
	// hooks. Transports ignore it.
	Metadata map[string]interface{}
}

// TransportResponse is the uninterpreted result of a request.
type TransportResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Transport sends a single request. Implementations must not interpret the
// body, and must report any failure to obtain a response as an error; the
// request deadline is carried by ctx.
type Transport interface {
	Send(ctx context.Context, req *TransportRequest) (*TransportResponse, error)
}

// Config represents client configuration for building a Client.
//
// Only APIEndpoint is required. The configuration is copied at construction
// and shared read-only by every resource client.
type Config struct {
	// APIEndpoint: base URL including the API prefix, e.g.
	// "https://gitlab.com/api/v4". gitlabclient.New trims a trailing slash
	// and adds "https://" if no scheme is present.
	APIEndpoint string
	// Token: personal access token sent as the PRIVATE-TOKEN header.
	Token string
	// RequestTimeout bounds each call. Zero uses the default (30s).
	RequestTimeout time.Duration

	// RetryMax: number of retries for transient failures. Zero (the
	// default) disables retries so every failure surfaces to the caller.
	RetryMax int
	// RetryWaitMin and RetryWaitMax bound the backoff when RetryMax > 0.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// Debug: enables request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger used by the HTTP layer.
	Logger Logger
	// UserAgent: overrides the default User-Agent header.
	UserAgent string

	// Transport replaces the default HTTP transport, e.g. with a fake in tests.
	Transport Transport

	// Cache enables caching of successful GET responses.
	Cache Cache
	// CacheTTL is the lifetime of cached responses. Zero uses the default.
	CacheTTL time.Duration

	// Interceptors run around every request, after the client's own
	// logging interceptors when Debug is set.
	Interceptors *InterceptorChain
}
