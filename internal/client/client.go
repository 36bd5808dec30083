package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/fivetwenty-io/gitlab-client/internal/constants"
	"github.com/fivetwenty-io/gitlab-client/internal/http"
	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
)

// Static errors for err113 compliance.
var (
	ErrUnexpectedShape = errors.New("unexpected response shape")
)

// Client implements the gitlab.Client interface.
type Client struct {
	httpClient *http.Client
	baseURL    string

	resources    map[string]gitlab.ResourceClient
	projects     *ResourceClient
	issues       *ResourceClient
	repositories *RepositoriesClient
	users        *ResourceClient
	milestones   *ResourceClient
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *gitlab.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.RequestTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.RequestTimeout))
	}

	if config.Transport != nil {
		httpOpts = append(httpOpts, http.WithTransport(config.Transport))
	}

	if config.Cache != nil {
		httpOpts = append(httpOpts, http.WithCache(config.Cache, config.CacheTTL))
	}

	if config.Interceptors.Len() > 0 {
		httpOpts = append(httpOpts, http.WithInterceptors(config.Interceptors))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

// New creates a new GitLab API client. The config is read once; later
// changes to it have no effect on the client.
func New(_ context.Context, config *gitlab.Config) (*Client, error) {
	if config == nil {
		return nil, gitlab.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, gitlab.ErrAPIEndpointRequired
	}

	httpClient := http.NewClient(config.APIEndpoint, config.Token, createHTTPClientOptions(config)...)

	client := &Client{
		httpClient: httpClient,
		baseURL:    httpClient.BaseURL(),
	}

	client.initializeResourceClients()

	return client, nil
}

func (c *Client) initializeResourceClients() {
	c.resources = make(map[string]gitlab.ResourceClient)

	for _, descriptor := range Descriptors() {
		var resource gitlab.ResourceClient

		switch descriptor.Name {
		case ResourceRepositories:
			c.repositories = NewRepositoriesClient(c.httpClient, descriptor)
			resource = c.repositories
		default:
			generic := NewResourceClient(c.httpClient, descriptor)
			resource = generic

			switch descriptor.Name {
			case ResourceProjects:
				c.projects = generic
			case ResourceIssues:
				c.issues = generic
			case ResourceUsers:
				c.users = generic
			case ResourceMilestones:
				c.milestones = generic
			}
		}

		c.resources[descriptor.Name] = resource
	}
}

// BaseURL returns the normalized API endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CurrentUser implements gitlab.InfoClient.CurrentUser.
func (c *Client) CurrentUser(ctx context.Context) (gitlab.Record, error) {
	return c.getRecord(ctx, "/user", "current user")
}

// Version implements gitlab.InfoClient.Version.
func (c *Client) Version(ctx context.Context) (gitlab.Record, error) {
	return c.getRecord(ctx, "/version", "version")
}

func (c *Client) getRecord(ctx context.Context, path, what string) (gitlab.Record, error) {
	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", what, err)
	}

	value, err := http.Interpret(resp)
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", what, err)
	}

	record, err := toRecord(resp, value)
	if err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", what, err)
	}

	return record, nil
}

// Resource client accessors

// Projects implements gitlab.ResourceClients.Projects.
func (c *Client) Projects() gitlab.ResourceClient {
	return c.projects
}

// Issues implements gitlab.ResourceClients.Issues.
func (c *Client) Issues() gitlab.ResourceClient {
	return c.issues
}

// Repositories implements gitlab.ResourceClients.Repositories.
func (c *Client) Repositories() gitlab.RepositoriesClient {
	return c.repositories
}

// Users implements gitlab.ResourceClients.Users.
func (c *Client) Users() gitlab.ResourceClient {
	return c.users
}

// Milestones implements gitlab.ResourceClients.Milestones.
func (c *Client) Milestones() gitlab.ResourceClient {
	return c.milestones
}

// Resource implements gitlab.ResourceClients.Resource.
func (c *Client) Resource(name string) (gitlab.ResourceClient, bool) {
	resource, ok := c.resources[name]

	return resource, ok
}
