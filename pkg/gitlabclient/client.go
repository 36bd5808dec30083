package gitlabclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/gitlab-client/internal/client"
	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
)

// New creates a new GitLab API client.
//
// The endpoint is normalized: a trailing slash is removed and "https://" is
// added when no scheme is present. The caller's config is not modified.
func New(ctx context.Context, config *gitlab.Config) (gitlab.Client, error) {
	if config == nil {
		return nil, gitlab.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, gitlab.ErrAPIEndpointRequired
	}

	normalized := *config
	normalized.APIEndpoint = NormalizeEndpoint(config.APIEndpoint)

	gitlabClient, err := client.New(ctx, &normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return gitlabClient, nil
}

// NewWithEndpoint creates an unauthenticated client.
func NewWithEndpoint(ctx context.Context, endpoint string) (gitlab.Client, error) {
	return New(ctx, &gitlab.Config{
		APIEndpoint: endpoint,
	})
}

// NewWithToken creates a client authenticating with a personal access token.
func NewWithToken(ctx context.Context, endpoint, token string) (gitlab.Client, error) {
	return New(ctx, &gitlab.Config{
		APIEndpoint: endpoint,
		Token:       token,
	})
}

// NormalizeEndpoint trims a trailing slash and defaults the scheme to https.
func NormalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSuffix(strings.TrimSpace(endpoint), "/")
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	return endpoint
}
