package client

import (
	"context"
	"fmt"

	internalhttp "github.com/fivetwenty-io/gitlab-client/internal/http"
	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
)

// RepositoriesClient implements gitlab.RepositoriesClient.
type RepositoriesClient struct {
	*ResourceClient
}

// NewRepositoriesClient creates a new repositories client.
func NewRepositoriesClient(httpClient *internalhttp.Client, descriptor gitlab.ResourceDescriptor) *RepositoriesClient {
	return &RepositoriesClient{
		ResourceClient: NewResourceClient(httpClient, descriptor),
	}
}

// GetBlob implements gitlab.RepositoriesClient.GetBlob.
func (c *RepositoriesClient) GetBlob(ctx context.Context, params gitlab.Params) ([]byte, error) {
	result, err := c.Call(ctx, OperationGetBlob, params)
	if err != nil {
		return nil, err
	}

	content, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: blob content is %T", ErrUnexpectedShape, result)
	}

	return content, nil
}

// GetTree implements gitlab.RepositoriesClient.GetTree.
func (c *RepositoriesClient) GetTree(ctx context.Context, params gitlab.Params, opts *gitlab.ListOptions) ([]gitlab.Record, error) {
	return c.callList(ctx, OperationGetTree, opts.Merge(params))
}

// ListBranches implements gitlab.RepositoriesClient.ListBranches.
func (c *RepositoriesClient) ListBranches(ctx context.Context, params gitlab.Params, opts *gitlab.ListOptions) ([]gitlab.Record, error) {
	return c.callList(ctx, OperationListBranches, opts.Merge(params))
}

// GetBranch implements gitlab.RepositoriesClient.GetBranch.
func (c *RepositoriesClient) GetBranch(ctx context.Context, params gitlab.Params) (gitlab.Record, error) {
	result, err := c.Call(ctx, OperationGetBranch, params)
	if err != nil {
		return nil, err
	}

	record, ok := result.(gitlab.Record)
	if !ok {
		return nil, fmt.Errorf("%w: branch is %T", ErrUnexpectedShape, result)
	}

	return record, nil
}

func (c *RepositoriesClient) callList(ctx context.Context, name string, params gitlab.Params) ([]gitlab.Record, error) {
	result, err := c.Call(ctx, name, params)
	if err != nil {
		return nil, err
	}

	records, ok := result.([]gitlab.Record)
	if !ok {
		return nil, fmt.Errorf("%w: %s returned %T", ErrUnexpectedShape, name, result)
	}

	return records, nil
}
