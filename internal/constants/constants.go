package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultRequestTimeout is the default per-request timeout.
	DefaultRequestTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits. The core client does not retry unless RetryMax is set explicitly.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 0

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 30 * time.Second
)

// HTTP status codes commonly used.
const (
	// HTTPStatusOK represents a successful HTTP response.
	HTTPStatusOK = 200

	// HTTPStatusMultipleChoices is the first status outside the success range.
	HTTPStatusMultipleChoices = 300

	// HTTPStatusNotFound is the only status a get translates to an absent result.
	HTTPStatusNotFound = 404
)

// Pagination limits.
const (
	// DefaultPageSize is the page size the API applies when per_page is omitted.
	DefaultPageSize = 20

	// MaxPageSize is the largest per_page the API honours.
	MaxPageSize = 100
)

// Query parameter names.
const (
	// ParamPage is the 1-based page query parameter.
	ParamPage = "page"

	// ParamPerPage is the page size query parameter.
	ParamPerPage = "per_page"
)

// Headers.
const (
	// HeaderPrivateToken carries the personal access token.
	HeaderPrivateToken = "PRIVATE-TOKEN"

	// HeaderCache marks responses replayed from the response cache.
	HeaderCache = "X-Gitlab-Client-Cache"

	// DefaultUserAgent is sent unless overridden.
	DefaultUserAgent = "gitlab-client-go"

	// ContentTypeJSON is the exchange format of the API.
	ContentTypeJSON = "application/json"
)

// Normalized error names.
const (
	// ErrorNamePrefix is prepended to every normalized error name.
	ErrorNamePrefix = "Gitlab"

	// ErrorNameHTTPRequest names transport failures.
	ErrorNameHTTPRequest = "HttpRequestError"

	// ErrorNameJSONResponseFormat names decode failures.
	ErrorNameJSONResponseFormat = "JSONResponseFormatError"

	// ErrorNameAPI names API errors whose payload carries no name.
	ErrorNameAPI = "APIError"
)

// Cache constants.
const (
	// DefaultCacheSize is the default cache size limit.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default cache time-to-live.
	DefaultCacheTTL = 1 * time.Minute

	// DefaultNATSBucket is the default JetStream KV bucket.
	DefaultNATSBucket = "gitlab_client_cache"
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"

	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2
)

// Issue state events.
const (
	// StateEventClose closes an issue.
	StateEventClose = "close"

	// StateEventReopen reopens an issue.
	StateEventReopen = "reopen"

	// StateOpened is the state of an open issue.
	StateOpened = "opened"

	// StateClosed is the state of a closed issue.
	StateClosed = "closed"
)

// Display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// DescriptionDisplayLength is the default length for displaying descriptions.
	DescriptionDisplayLength = 60
)
