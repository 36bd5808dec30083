package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/gitlab-client/internal/constants"
	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
)

func TestParseID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "valid", input: "42", want: 42},
		{name: "zero", input: "0", wantErr: true},
		{name: "negative", input: "-3", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseID(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, constants.ErrInvalidID)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColumnTitle(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ID", columnTitle("id"))
	assert.Equal(t, "Project ID", columnTitle("project_id"))
	assert.Equal(t, "Path With Namespace", columnTitle("path_with_namespace"))
}

func TestDisplayValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, constants.NotAvailable, displayValue(nil))
	assert.Equal(t, constants.NotAvailable, displayValue(""))
	assert.Equal(t, "bug, ui", displayValue([]any{"bug", "ui"}))
	assert.Equal(t, "{id, name}", displayValue(map[string]any{"name": "x", "id": 1}))
	assert.Equal(t, "7", displayValue(json.Number("7")))
	assert.Equal(t, "true", displayValue(true))
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "one two", truncate("one\ntwo", 10))
}

func TestFormatError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: "Error: boom",
		},
		{
			name: "api error",
			err:  gitlab.NewAPIError(403, map[string]any{"message": "403 Forbidden"}),
			want: "Error: GitlabAPIError (HTTP 403): 403 Forbidden",
		},
		{
			name: "wrapped transport error",
			err:  errors.Join(errors.New("failed to list projects"), gitlab.NewHTTPRequestError(errors.New("connection refused"))),
			want: "Error: GitlabHttpRequestError: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, FormatError(tt.err))
		})
	}
}

func TestRenderRecords_Empty(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	require.NoError(t, renderRecords(&out, nil, projectColumns))
	assert.Equal(t, "No results found\n", out.String())
}

func TestRenderRecord(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	record := gitlab.Record{"id": json.Number("1"), "name": "demo"}
	require.NoError(t, renderRecord(&out, record, []string{"id", "name", "web_url"}))

	assert.Contains(t, out.String(), "demo")
	assert.Contains(t, out.String(), constants.NotAvailable)
}

func TestNormalizeForYAML(t *testing.T) {
	t.Parallel()

	value := normalizeForYAML(gitlab.Record{
		"id":     json.Number("12"),
		"weight": json.Number("1.5"),
		"labels": []any{json.Number("3")},
	})

	normalized, ok := value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(12), normalized["id"])
	assert.InDelta(t, 1.5, normalized["weight"], 0.0001)
	assert.Equal(t, []any{int64(3)}, normalized["labels"])
}

func TestPrintStructured(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	var out bytes.Buffer

	handled, err := printStructured(&out, gitlab.Record{"id": json.Number("1")})
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Empty(t, out.String())

	viper.Set("output", constants.FormatJSON)

	handled, err = printStructured(&out, gitlab.Record{"id": json.Number("1")})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.JSONEq(t, `{"id": 1}`, out.String())

	out.Reset()
	viper.Set("output", constants.FormatYAML)

	handled, err = printStructured(&out, gitlab.Record{"id": json.Number("1")})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "id: 1\n", out.String())

	viper.Set("output", "xml")

	handled, err = printStructured(&out, nil)
	assert.True(t, handled)
	require.ErrorIs(t, err, constants.ErrUnsupportedOutput)
}
