package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/gitlab-client/internal/constants"
	"github.com/fivetwenty-io/gitlab-client/internal/gitlabtest"
	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
)

const testToken = "glpat-cli-test"

// runCommand points viper at server and executes cmd with args. The
// commands read global viper state, so callers must not run in parallel.
func runCommand(t *testing.T, server *gitlabtest.Server, output string, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("api", server.APIURL())
	viper.Set("token", testToken)
	viper.Set("output", output)

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&out)
	// A nil slice would make cobra fall back to os.Args.
	cmd.SetArgs(append([]string{}, args...))

	err := cmd.Execute()

	return out.String(), err
}

func decodeJSON(t *testing.T, data string, target any) {
	t.Helper()

	decoder := json.NewDecoder(bytes.NewBufferString(data))
	decoder.UseNumber()
	require.NoError(t, decoder.Decode(target))
}

func TestCLI_Projects(t *testing.T) {
	server := gitlabtest.NewServer(gitlabtest.WithToken(testToken))
	defer server.Close()

	out, err := runCommand(t, server, constants.FormatJSON, NewProjectsCommand(), "list", "--per-page", "2")
	require.NoError(t, err)

	var projects []map[string]any
	decodeJSON(t, out, &projects)
	assert.Len(t, projects, 2)

	out, err = runCommand(t, server, constants.FormatTable, NewProjectsCommand(), "get", gitlabtest.ProjectPath)
	require.NoError(t, err)
	assert.Contains(t, out, gitlabtest.ProjectPath)
	assert.Contains(t, out, gitlabtest.DefaultBranch)

	_, err = runCommand(t, server, constants.FormatTable, NewProjectsCommand(), "get", "group/missing")
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestCLI_IssueLifecycle(t *testing.T) {
	server := gitlabtest.NewServer(gitlabtest.WithToken(testToken))
	defer server.Close()

	_, err := runCommand(t, server, constants.FormatJSON, NewIssuesCommand(), "create", gitlabtest.ProjectPath)
	require.ErrorIs(t, err, ErrTitleRequired)

	out, err := runCommand(t, server, constants.FormatJSON, NewIssuesCommand(),
		"create", gitlabtest.ProjectPath, "--title", "Broken build", "--labels", "bug,ci")
	require.NoError(t, err)

	var issue map[string]any
	decodeJSON(t, out, &issue)
	assert.Equal(t, json.Number("1"), issue["iid"])
	assert.Equal(t, []any{"bug", "ci"}, issue["labels"])

	_, err = runCommand(t, server, constants.FormatJSON, NewIssuesCommand(), "update", gitlabtest.ProjectPath, "1")
	require.ErrorIs(t, err, constants.ErrNothingToUpdate)

	out, err = runCommand(t, server, constants.FormatJSON, NewIssuesCommand(), "close", gitlabtest.ProjectPath, "1")
	require.NoError(t, err)
	decodeJSON(t, out, &issue)
	assert.Equal(t, constants.StateClosed, issue["state"])

	out, err = runCommand(t, server, constants.FormatJSON, NewIssuesCommand(),
		"list", gitlabtest.ProjectPath, "--state", constants.StateOpened)
	require.NoError(t, err)

	var issues []map[string]any
	decodeJSON(t, out, &issues)
	assert.Empty(t, issues)

	_, err = runCommand(t, server, constants.FormatJSON, NewIssuesCommand(), "remove", gitlabtest.ProjectPath, "1")
	require.Error(t, err)
	assert.True(t, gitlab.IsForbidden(err))
	assert.Equal(t, "Error: GitlabAPIError (HTTP 403): 403 Forbidden", FormatError(err))

	_, err = runCommand(t, server, constants.FormatJSON, NewIssuesCommand(), "get", gitlabtest.ProjectPath, "99")
	require.ErrorIs(t, err, ErrIssueNotFound)

	_, err = runCommand(t, server, constants.FormatJSON, NewIssuesCommand(), "get", gitlabtest.ProjectPath, "abc")
	require.ErrorIs(t, err, constants.ErrInvalidID)
}

func TestCLI_Repository(t *testing.T) {
	server := gitlabtest.NewServer(gitlabtest.WithToken(testToken))
	defer server.Close()

	out, err := runCommand(t, server, constants.FormatTable, NewRepositoryCommand(),
		"blob", gitlabtest.ProjectPath, gitlabtest.BlobSHA)
	require.NoError(t, err)
	assert.Equal(t, gitlabtest.BlobContent, out)

	target := filepath.Join(t.TempDir(), "README.md")

	_, err = runCommand(t, server, constants.FormatTable, NewRepositoryCommand(),
		"blob", gitlabtest.ProjectPath, gitlabtest.BlobSHA, "--out", target)
	require.NoError(t, err)

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, gitlabtest.BlobContent, string(content))

	out, err = runCommand(t, server, constants.FormatTable, NewRepositoryCommand(), "tree", gitlabtest.ProjectPath)
	require.NoError(t, err)
	assert.Contains(t, out, "README.md")

	out, err = runCommand(t, server, constants.FormatJSON, NewRepositoryCommand(), "branches", gitlabtest.ProjectPath)
	require.NoError(t, err)

	var branches []map[string]any
	decodeJSON(t, out, &branches)
	require.Len(t, branches, 2)
	assert.Equal(t, gitlabtest.DefaultBranch, branches[0]["name"])
}

func TestCLI_User(t *testing.T) {
	server := gitlabtest.NewServer(gitlabtest.WithToken(testToken))
	defer server.Close()

	out, err := runCommand(t, server, constants.FormatYAML, NewUserCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "username: "+gitlabtest.CurrentUsername)
}

func TestCLI_Unauthorized(t *testing.T) {
	server := gitlabtest.NewServer(gitlabtest.WithToken("another-token"))
	defer server.Close()

	_, err := runCommand(t, server, constants.FormatJSON, NewUserCommand())
	require.Error(t, err)
	assert.True(t, gitlab.IsUnauthorized(err))
}

func TestCreateClient_RequiresAPI(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	client, closeClient, err := CreateClient(t.Context())
	require.ErrorIs(t, err, constants.ErrNoAPIConfigured)
	assert.Nil(t, client)
	require.NotNil(t, closeClient)
	assert.NotPanics(t, closeClient)
}

func TestCreateClient_Closer(t *testing.T) {
	t.Cleanup(viper.Reset)

	for _, backend := range []string{"", string(gitlab.CacheTypeMemory)} {
		viper.Reset()
		viper.Set("api", "https://gitlab.example.com/api/v4")
		viper.Set("cache", backend)

		client, closeClient, err := CreateClient(t.Context())
		require.NoError(t, err, backend)
		assert.NotNil(t, client, backend)
		assert.NotPanics(t, closeClient, backend)
	}
}

func TestCreateClient_InvalidHeader(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("api", "https://gitlab.example.com/api/v4")
	viper.Set("header", []string{"no-separator"})

	_, _, err := CreateClient(t.Context())
	require.ErrorIs(t, err, ErrInvalidHeader)
}

func TestCLI_HeaderFlag(t *testing.T) {
	server := gitlabtest.NewServer(gitlabtest.WithToken(testToken))
	defer server.Close()

	cmd := NewUserCommand()

	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("api", server.APIURL())
	viper.Set("token", testToken)
	// Extra headers are applied after the token, so they can replace it.
	viper.Set("header", []string{constants.HeaderPrivateToken + "=not-the-token"})

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.True(t, gitlab.IsUnauthorized(err))
}

func TestCLI_ConfigShow(t *testing.T) {
	server := gitlabtest.NewServer()
	defer server.Close()

	out, err := runCommand(t, server, constants.FormatTable, NewConfigCommand(), "show")
	require.NoError(t, err)
	assert.Contains(t, out, server.APIURL())
	assert.Contains(t, out, constants.MaskedSecret)
	assert.Contains(t, out, constants.NotAvailable)
	assert.NotContains(t, out, testToken)

	out, err = runCommand(t, server, constants.FormatJSON, NewConfigCommand(), "show")
	require.NoError(t, err)

	var shown Config

	decodeJSON(t, out, &shown)
	assert.Equal(t, server.APIURL(), shown.API)
	assert.Equal(t, constants.MaskedSecret, shown.Token)
}

func TestCreateCache(t *testing.T) {
	cache, err := createCache(&Config{})
	require.NoError(t, err)
	assert.Nil(t, cache)

	cache, err = createCache(&Config{Cache: string(gitlab.CacheTypeMemory)})
	require.NoError(t, err)
	assert.NotNil(t, cache)

	_, err = createCache(&Config{Cache: "redis"})
	require.ErrorIs(t, err, constants.ErrUnsupportedBackend)
}
