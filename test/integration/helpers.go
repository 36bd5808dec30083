//go:build integration

// Package integration runs the gitlab binary against a live GitLab instance.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	API        string
	Token      string
	Project    string
	BinaryPath string
	Verbose    bool
}

// LoadTestConfig loads configuration from environment variables. GITLAB_API
// and GITLAB_TOKEN are read by the binary itself as well.
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		API:        os.Getenv("GITLAB_API"),
		Token:      os.Getenv("GITLAB_TOKEN"),
		Project:    os.Getenv("GITLAB_TEST_PROJECT"),
		BinaryPath: binaryPath(),
		Verbose:    os.Getenv("GITLAB_VERBOSE") == "true",
	}
}

func binaryPath() string {
	if path := os.Getenv("GITLAB_BINARY_PATH"); path != "" {
		return path
	}

	for _, candidate := range []string{"../../gitlab", "./gitlab", "../gitlab"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "gitlab"
}

// SkipIfMissingConfig skips the test when no instance is configured.
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.API == "" || config.Token == "" {
		t.Skip("GITLAB_API or GITLAB_TOKEN not set, skipping integration test")
	}

	if config.Project == "" {
		t.Skip("GITLAB_TEST_PROJECT not set, skipping integration test")
	}

	if _, err := exec.LookPath(config.BinaryPath); err != nil {
		t.Skipf("gitlab binary not found at %s, skipping integration test", config.BinaryPath)
	}
}

// CommandRunner runs the gitlab binary.
type CommandRunner struct {
	config *TestConfig
	t      *testing.T
}

// NewCommandRunner creates a new command runner.
func NewCommandRunner(t *testing.T, config *TestConfig) *CommandRunner {
	t.Helper()

	return &CommandRunner{config: config, t: t}
}

// Run executes a command and returns its output.
func (runner *CommandRunner) Run(args ...string) (string, string, error) {
	cmd := exec.Command(runner.config.BinaryPath, args...)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BinaryPath, strings.Join(args, " "))
	}

	err := cmd.Run()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout.String(), stderr.String())
	}

	return stdout.String(), stderr.String(), err
}

// RunJSON executes a command with JSON output and decodes the result.
func (runner *CommandRunner) RunJSON(target any, args ...string) {
	runner.t.Helper()

	stdout, stderr, err := runner.Run(append(args, "--output", "json")...)
	require.NoError(runner.t, err, "command %v failed: %s", args, stderr)

	decoder := json.NewDecoder(strings.NewReader(stdout))
	decoder.UseNumber()
	require.NoError(runner.t, decoder.Decode(target), "output is not JSON: %s", stdout)
}

// GenerateTestName creates a unique resource name.
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
