package client

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
)

func TestExpandPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		template string
		params   gitlab.Params
		wantPath string
		wantRest gitlab.Params
		wantErr  error
	}{
		{
			name:     "no placeholders",
			template: "/projects",
			params:   gitlab.Params{"search": "demo"},
			wantPath: "/projects",
			wantRest: gitlab.Params{"search": "demo"},
		},
		{
			name:     "nested placeholders consume params",
			template: "/projects/:id/issues/:issue_id",
			params:   gitlab.Params{"id": 5, "issue_id": json.Number("7"), "title": "x"},
			wantPath: "/projects/5/issues/7",
			wantRest: gitlab.Params{"title": "x"},
		},
		{
			name:     "values are escaped",
			template: "/projects/:id/repository/branches/:branch",
			params:   gitlab.Params{"id": "group/sub/demo", "branch": "feature/login"},
			wantPath: "/projects/group%2Fsub%2Fdemo/repository/branches/feature%2Flogin",
			wantRest: gitlab.Params{},
		},
		{
			name:     "missing placeholder",
			template: "/projects/:id",
			params:   gitlab.Params{"name": "demo"},
			wantErr:  gitlab.ErrMissingPathParameter,
		},
		{
			name:     "nil placeholder",
			template: "/projects/:id",
			params:   gitlab.Params{"id": nil},
			wantErr:  gitlab.ErrMissingPathParameter,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			path, rest, err := expandPath(testCase.template, testCase.params)
			if testCase.wantErr != nil {
				require.ErrorIs(t, err, testCase.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, testCase.wantPath, path)
			assert.Equal(t, testCase.wantRest, rest)
		})
	}
}

func TestExpandPath_DoesNotMutateParams(t *testing.T) {
	t.Parallel()

	params := gitlab.Params{"id": 1, "title": "x"}

	_, _, err := expandPath("/projects/:id", params)
	require.NoError(t, err)
	assert.Equal(t, gitlab.Params{"id": 1, "title": "x"}, params)
}

func TestToQuery(t *testing.T) {
	t.Parallel()

	assert.Nil(t, toQuery(nil))

	query := toQuery(gitlab.Params{
		"labels":   []string{"bug", "p1"},
		"scope":    []any{"all", 2},
		"archived": false,
		"skip":     nil,
	})

	assert.Equal(t, url.Values{
		"labels":   {"bug", "p1"},
		"scope":    {"all", "2"},
		"archived": {"false"},
	}, query)
}
