package http_test

import (
	"encoding/json"
	"testing"

	gitlabhttp "github.com/fivetwenty-io/gitlab-client/internal/http"
	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		want    any
		wantErr bool
	}{
		{name: "object", body: `{"id":7}`, want: map[string]any{"id": json.Number("7")}},
		{name: "array", body: `[1,2]`, want: []any{json.Number("1"), json.Number("2")}},
		{name: "empty body is null", body: "", want: nil},
		{name: "whitespace body is null", body: " \n\t", want: nil},
		{name: "literal null", body: "null", want: nil},
		{name: "malformed", body: "{w", wantErr: true},
		{name: "trailing data", body: `{"id":1} {"id":2}`, wantErr: true},
		{name: "trailing garbage", body: `{"id":1}x`, wantErr: true},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got, err := gitlabhttp.Decode([]byte(testCase.body))
			if testCase.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, testCase.want, got)
		})
	}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestInterpret(t *testing.T) {
	t.Parallel()

	t.Run("undecodable body on success", func(t *testing.T) {
		t.Parallel()

		_, err := gitlabhttp.Interpret(&gitlabhttp.Response{StatusCode: 200, Body: []byte("{w")})
		require.Error(t, err)

		gitlabErr, ok := gitlab.AsError(err)
		require.True(t, ok)
		assert.Equal(t, gitlab.KindJSONResponseFormat, gitlabErr.Kind)
		assert.Equal(t, "GitlabJSONResponseFormatError", gitlabErr.Name)
		assert.Equal(t, 200, gitlabErr.StatusCode)
		assert.Equal(t, "{w", gitlabErr.Data.ResBody)
	})

	t.Run("undecodable body on error status", func(t *testing.T) {
		t.Parallel()

		_, err := gitlabhttp.Interpret(&gitlabhttp.Response{StatusCode: 502, Body: []byte("<html>Bad Gateway</html>")})

		gitlabErr, ok := gitlab.AsError(err)
		require.True(t, ok)
		assert.Equal(t, gitlab.KindJSONResponseFormat, gitlabErr.Kind)
		assert.Equal(t, 502, gitlabErr.StatusCode)
		assert.Equal(t, "<html>Bad Gateway</html>", gitlabErr.Data.ResBody)
	})

	t.Run("named api error", func(t *testing.T) {
		t.Parallel()

		body := `{"name":"MockError","message":"Mock error message","errors":[{"field":"test"}]}`

		_, err := gitlabhttp.Interpret(&gitlabhttp.Response{StatusCode: 403, Body: []byte(body)})

		gitlabErr, ok := gitlab.AsError(err)
		require.True(t, ok)
		assert.Equal(t, gitlab.KindAPI, gitlabErr.Kind)
		assert.Equal(t, "GitlabMockError", gitlabErr.Name)
		assert.Equal(t, "Mock error message", gitlabErr.Message)
		assert.Equal(t, 403, gitlabErr.StatusCode)
		assert.Equal(t, []any{map[string]any{"field": "test"}}, gitlabErr.Errors)

		resBody, ok := gitlabErr.Data.ResBody.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "MockError", resBody["name"])
	})

	t.Run("unnamed api error", func(t *testing.T) {
		t.Parallel()

		_, err := gitlabhttp.Interpret(&gitlabhttp.Response{StatusCode: 404, Body: []byte(`{"message":"404 Project Not Found"}`)})

		gitlabErr, ok := gitlab.AsError(err)
		require.True(t, ok)
		assert.Equal(t, "GitlabAPIError", gitlabErr.Name)
		assert.Equal(t, "404 Project Not Found", gitlabErr.Message)
		assert.NotNil(t, gitlabErr.Errors)
		assert.Empty(t, gitlabErr.Errors)
		assert.True(t, gitlab.IsNotFound(err))
	})

	t.Run("validation message object", func(t *testing.T) {
		t.Parallel()

		_, err := gitlabhttp.Interpret(&gitlabhttp.Response{StatusCode: 400, Body: []byte(`{"message":{"title":["can't be blank"]}}`)})

		gitlabErr, ok := gitlab.AsError(err)
		require.True(t, ok)
		assert.Equal(t, `{"title":["can't be blank"]}`, gitlabErr.Message)
	})

	t.Run("empty error body", func(t *testing.T) {
		t.Parallel()

		_, err := gitlabhttp.Interpret(&gitlabhttp.Response{StatusCode: 401})

		gitlabErr, ok := gitlab.AsError(err)
		require.True(t, ok)
		assert.Equal(t, gitlab.KindAPI, gitlabErr.Kind)
		assert.Equal(t, "401 Unauthorized", gitlabErr.Message)
		assert.Nil(t, gitlabErr.Data.ResBody)
		assert.True(t, gitlab.IsUnauthorized(err))
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		value, err := gitlabhttp.Interpret(&gitlabhttp.Response{StatusCode: 201, Body: []byte(`{"iid":3}`)})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"iid": json.Number("3")}, value)
	})

	t.Run("empty success", func(t *testing.T) {
		t.Parallel()

		value, err := gitlabhttp.Interpret(&gitlabhttp.Response{StatusCode: 204})
		require.NoError(t, err)
		assert.Nil(t, value)
	})
}

func TestIsSuccess(t *testing.T) {
	t.Parallel()

	assert.True(t, gitlabhttp.IsSuccess(200))
	assert.True(t, gitlabhttp.IsSuccess(299))
	assert.False(t, gitlabhttp.IsSuccess(199))
	assert.False(t, gitlabhttp.IsSuccess(300))
	assert.False(t, gitlabhttp.IsSuccess(404))
}
