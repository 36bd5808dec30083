package gitlab

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/gitlab-client/internal/constants"
)

// ErrorKind discriminates the three failure universes of a call.
type ErrorKind int

const (
	// KindHTTPRequest is a transport failure: no HTTP response was obtained.
	KindHTTPRequest ErrorKind = iota + 1
	// KindJSONResponseFormat is a response whose body could not be decoded.
	KindJSONResponseFormat
	// KindAPI is a decodable response with a non-2xx status.
	KindAPI
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case KindHTTPRequest:
		return constants.ErrorNameHTTPRequest
	case KindJSONResponseFormat:
		return constants.ErrorNameJSONResponseFormat
	case KindAPI:
		return constants.ErrorNameAPI
	default:
		return "UnknownError"
	}
}

// ErrorData holds the response body that produced an Error.
//
// ResBody is the raw body text for decode failures, the decoded value for
// API errors and nil for transport failures.
type ErrorData struct {
	ResBody any `json:"resBody" yaml:"resBody"`
}

// Error is the normalized error returned for every failed call.
type Error struct {
	Kind    ErrorKind `json:"-"                    yaml:"-"`
	Name    string    `json:"name"                 yaml:"name"`
	Message string    `json:"message"              yaml:"message"`
	// StatusCode is zero when no HTTP response was received.
	StatusCode int       `json:"statusCode,omitempty" yaml:"statusCode,omitempty"`
	Data       ErrorData `json:"data"                 yaml:"data"`
	// Errors lists the structured sub-errors of an API error. It is non-nil
	// (possibly empty) for KindAPI and nil otherwise.
	Errors []any `json:"errors,omitempty" yaml:"errors,omitempty"`
	Cause  error `json:"-"                yaml:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	if e.HasStatusCode() {
		return fmt.Sprintf("%s: %s (status: %d)", e.Name, e.Message, e.StatusCode)
	}

	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HasStatusCode reports whether an HTTP response was received.
func (e *Error) HasStatusCode() bool {
	return e.StatusCode != 0
}

// NewHTTPRequestError wraps a transport failure.
func NewHTTPRequestError(cause error) *Error {
	message := "http request failed"
	if cause != nil {
		message = cause.Error()
	}

	return &Error{
		Kind:    KindHTTPRequest,
		Name:    constants.ErrorNamePrefix + constants.ErrorNameHTTPRequest,
		Message: message,
		Cause:   cause,
	}
}

// NewJSONResponseFormatError reports a body that failed to decode.
func NewJSONResponseFormatError(statusCode int, rawBody []byte, cause error) *Error {
	message := "invalid JSON response"
	if cause != nil {
		message = cause.Error()
	}

	return &Error{
		Kind:       KindJSONResponseFormat,
		Name:       constants.ErrorNamePrefix + constants.ErrorNameJSONResponseFormat,
		Message:    message,
		StatusCode: statusCode,
		Data:       ErrorData{ResBody: string(rawBody)},
		Cause:      cause,
	}
}

// NewAPIError builds an API error from a decoded error payload.
//
// The name comes from the payload's "name" field, the message from its
// "message" field and the sub-errors from its "errors" array.
func NewAPIError(statusCode int, decoded any) *Error {
	apiErr := &Error{
		Kind:       KindAPI,
		Name:       constants.ErrorNamePrefix + constants.ErrorNameAPI,
		StatusCode: statusCode,
		Data:       ErrorData{ResBody: decoded},
		Errors:     []any{},
	}

	payload, _ := decoded.(map[string]any)

	if name, ok := payload["name"].(string); ok && name != "" {
		apiErr.Name = constants.ErrorNamePrefix + name
	}

	apiErr.Message = payloadMessage(payload["message"])
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode))
	}

	if subErrors, ok := payload["errors"].([]any); ok {
		apiErr.Errors = subErrors
	}

	return apiErr
}

// payloadMessage renders the message field. Validation failures carry an
// object keyed by field, which is rendered as compact JSON.
func payloadMessage(message any) string {
	switch msg := message.(type) {
	case nil:
		return ""
	case string:
		return msg
	default:
		encoded, err := marshalCompact(msg)
		if err != nil {
			return fmt.Sprint(msg)
		}

		return encoded
	}
}

// AsError extracts the normalized error from an error chain.
func AsError(err error) (*Error, bool) {
	gitlabErr := &Error{}
	if errors.As(err, &gitlabErr) {
		return gitlabErr, true
	}

	return nil, false
}

// IsHTTPRequestError checks if the error is a transport failure.
func IsHTTPRequestError(err error) bool {
	gitlabErr, ok := AsError(err)

	return ok && gitlabErr.Kind == KindHTTPRequest
}

// IsJSONResponseFormatError checks if the error is a decode failure.
func IsJSONResponseFormatError(err error) bool {
	gitlabErr, ok := AsError(err)

	return ok && gitlabErr.Kind == KindJSONResponseFormat
}

// IsAPIError checks if the error was reported by the API.
func IsAPIError(err error) bool {
	gitlabErr, ok := AsError(err)

	return ok && gitlabErr.Kind == KindAPI
}

// IsNotFound checks if the error is an API not found error.
func IsNotFound(err error) bool {
	return hasAPIStatus(err, http.StatusNotFound)
}

// IsUnauthorized checks if the error is an API unauthorized error.
func IsUnauthorized(err error) bool {
	return hasAPIStatus(err, http.StatusUnauthorized)
}

// IsForbidden checks if the error is an API forbidden error.
func IsForbidden(err error) bool {
	return hasAPIStatus(err, http.StatusForbidden)
}

func hasAPIStatus(err error, statusCode int) bool {
	gitlabErr, ok := AsError(err)

	return ok && gitlabErr.Kind == KindAPI && gitlabErr.StatusCode == statusCode
}

// Static errors for err113 compliance.
var (
	ErrConfigRequired       = errors.New("config is required")
	ErrAPIEndpointRequired  = errors.New("API endpoint is required")
	ErrUnsupportedOperation = errors.New("operation not supported by resource")
	ErrUnknownOperation     = errors.New("unknown custom operation")
	ErrMissingPathParameter = errors.New("missing path parameter")
	ErrUnknownResource      = errors.New("unknown resource")
	ErrCacheDisabled        = errors.New("cache disabled")
	ErrKeyNotFound          = errors.New("key not found")
	ErrEntryExpired         = errors.New("entry expired")
)
