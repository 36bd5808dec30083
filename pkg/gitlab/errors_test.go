package gitlab_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
)

var errConnectionReset = errors.New("connection reset by peer")

func TestNewHTTPRequestError(t *testing.T) {
	t.Parallel()

	err := gitlab.NewHTTPRequestError(errConnectionReset)

	assert.Equal(t, gitlab.KindHTTPRequest, err.Kind)
	assert.Equal(t, "GitlabHttpRequestError", err.Name)
	assert.Equal(t, "connection reset by peer", err.Message)
	assert.False(t, err.HasStatusCode())
	assert.Nil(t, err.Data.ResBody)
	assert.Nil(t, err.Errors)
	require.ErrorIs(t, err, errConnectionReset)
	assert.Equal(t, "GitlabHttpRequestError: connection reset by peer", err.Error())
}

func TestNewJSONResponseFormatError(t *testing.T) {
	t.Parallel()

	err := gitlab.NewJSONResponseFormatError(200, []byte("{w"), errConnectionReset)

	assert.Equal(t, gitlab.KindJSONResponseFormat, err.Kind)
	assert.Equal(t, "GitlabJSONResponseFormatError", err.Name)
	assert.Equal(t, 200, err.StatusCode)
	assert.Equal(t, "{w", err.Data.ResBody)
	assert.Contains(t, err.Error(), "(status: 200)")
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestNewAPIError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		decoded     any
		wantName    string
		wantMessage string
		wantErrors  []any
	}{
		{
			name:        "named payload",
			status:      403,
			decoded:     map[string]any{"name": "MockError", "message": "Mock error message", "errors": []any{map[string]any{"field": "test"}}},
			wantName:    "GitlabMockError",
			wantMessage: "Mock error message",
			wantErrors:  []any{map[string]any{"field": "test"}},
		},
		{
			name:        "unnamed payload",
			status:      404,
			decoded:     map[string]any{"message": "404 Project Not Found"},
			wantName:    "GitlabAPIError",
			wantMessage: "404 Project Not Found",
			wantErrors:  []any{},
		},
		{
			name:        "object message",
			status:      400,
			decoded:     map[string]any{"message": map[string]any{"title": []any{"can't be blank"}}},
			wantName:    "GitlabAPIError",
			wantMessage: `{"title":["can't be blank"]}`,
			wantErrors:  []any{},
		},
		{
			name:        "error field only",
			status:      400,
			decoded:     map[string]any{"error": "title is missing"},
			wantName:    "GitlabAPIError",
			wantMessage: "400 Bad Request",
			wantErrors:  []any{},
		},
		{
			name:        "null body",
			status:      502,
			decoded:     nil,
			wantName:    "GitlabAPIError",
			wantMessage: "502 Bad Gateway",
			wantErrors:  []any{},
		},
		{
			name:        "array body",
			status:      409,
			decoded:     []any{"conflict"},
			wantName:    "GitlabAPIError",
			wantMessage: "409 Conflict",
			wantErrors:  []any{},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			err := gitlab.NewAPIError(testCase.status, testCase.decoded)

			assert.Equal(t, gitlab.KindAPI, err.Kind)
			assert.Equal(t, testCase.wantName, err.Name)
			assert.Equal(t, testCase.wantMessage, err.Message)
			assert.Equal(t, testCase.status, err.StatusCode)
			assert.Equal(t, testCase.decoded, err.Data.ResBody)
			assert.Equal(t, testCase.wantErrors, err.Errors)
		})
	}
}

func TestErrorClassifiers(t *testing.T) {
	t.Parallel()

	notFound := fmt.Errorf("getting projects: %w", gitlab.NewAPIError(404, nil))
	unauthorized := gitlab.NewAPIError(401, nil)
	forbidden := gitlab.NewAPIError(403, nil)
	transport := gitlab.NewHTTPRequestError(errConnectionReset)
	format := gitlab.NewJSONResponseFormatError(404, []byte("<html>"), nil)

	assert.True(t, gitlab.IsNotFound(notFound))
	assert.True(t, gitlab.IsAPIError(notFound))
	assert.False(t, gitlab.IsNotFound(format))
	assert.True(t, gitlab.IsUnauthorized(unauthorized))
	assert.True(t, gitlab.IsForbidden(forbidden))
	assert.True(t, gitlab.IsHTTPRequestError(transport))
	assert.True(t, gitlab.IsJSONResponseFormatError(format))
	assert.False(t, gitlab.IsAPIError(errConnectionReset))

	gitlabErr, ok := gitlab.AsError(notFound)
	require.True(t, ok)
	assert.Equal(t, 404, gitlabErr.StatusCode)

	_, ok = gitlab.AsError(errConnectionReset)
	assert.False(t, ok)
}

func TestErrorKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "HttpRequestError", gitlab.KindHTTPRequest.String())
	assert.Equal(t, "JSONResponseFormatError", gitlab.KindJSONResponseFormat.String())
	assert.Equal(t, "APIError", gitlab.KindAPI.String())
	assert.Equal(t, "UnknownError", gitlab.ErrorKind(0).String())
}
