package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/fivetwenty-io/gitlab-client/internal/constants"
	internalhttp "github.com/fivetwenty-io/gitlab-client/internal/http"
	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
)

// ResourceClient implements gitlab.ResourceClient for any descriptor.
type ResourceClient struct {
	httpClient *internalhttp.Client
	descriptor gitlab.ResourceDescriptor
}

// NewResourceClient creates a resource client bound to a descriptor.
func NewResourceClient(httpClient *internalhttp.Client, descriptor gitlab.ResourceDescriptor) *ResourceClient {
	return &ResourceClient{
		httpClient: httpClient,
		descriptor: descriptor,
	}
}

// Name implements gitlab.ResourceClient.Name.
func (c *ResourceClient) Name() string {
	return c.descriptor.Name
}

// Descriptor implements gitlab.ResourceClient.Descriptor.
func (c *ResourceClient) Descriptor() gitlab.ResourceDescriptor {
	return c.descriptor
}

// List implements gitlab.ResourceClient.List.
func (c *ResourceClient) List(ctx context.Context, params gitlab.Params, opts *gitlab.ListOptions) ([]gitlab.Record, error) {
	err := c.require(gitlab.OperationList)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, http.MethodGet, c.descriptor.CollectionPath, opts.Merge(params))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", c.descriptor.Name, err)
	}

	value, err := internalhttp.Interpret(resp)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", c.descriptor.Name, err)
	}

	records, err := toRecords(resp, value)
	if err != nil {
		return nil, fmt.Errorf("parsing %s list response: %w", c.descriptor.Name, err)
	}

	return records, nil
}

// Get implements gitlab.ResourceClient.Get. A 404 answer yields a nil
// record and no error.
func (c *ResourceClient) Get(ctx context.Context, params gitlab.Params) (gitlab.Record, error) {
	err := c.require(gitlab.OperationGet)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, http.MethodGet, c.descriptor.MemberPath(), params)
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", c.descriptor.Name, err)
	}

	value, err := internalhttp.Interpret(resp)
	if err != nil {
		if isAbsent(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("getting %s: %w", c.descriptor.Name, err)
	}

	record, err := toRecord(resp, value)
	if err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", c.descriptor.Name, err)
	}

	return record, nil
}

// Create implements gitlab.ResourceClient.Create.
func (c *ResourceClient) Create(ctx context.Context, params gitlab.Params) (gitlab.Record, error) {
	return c.write(ctx, gitlab.OperationCreate, http.MethodPost, c.descriptor.CollectionPath, params, "creating")
}

// Update implements gitlab.ResourceClient.Update.
func (c *ResourceClient) Update(ctx context.Context, params gitlab.Params) (gitlab.Record, error) {
	return c.write(ctx, gitlab.OperationUpdate, http.MethodPut, c.descriptor.MemberPath(), params, "updating")
}

// Remove implements gitlab.ResourceClient.Remove. Callers must treat a nil
// error as the deletion confirmation, since empty responses carry no record.
func (c *ResourceClient) Remove(ctx context.Context, params gitlab.Params) (gitlab.Record, error) {
	err := c.require(gitlab.OperationRemove)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, http.MethodDelete, c.descriptor.MemberPath(), params)
	if err != nil {
		return nil, fmt.Errorf("removing %s: %w", c.descriptor.Name, err)
	}

	value, err := internalhttp.Interpret(resp)
	if err != nil {
		return nil, fmt.Errorf("removing %s: %w", c.descriptor.Name, err)
	}

	// Most deletions answer 204; only an echoed object is returned.
	if object, ok := value.(map[string]any); ok {
		return gitlab.Record(object), nil
	}

	return nil, nil
}

// Call implements gitlab.ResourceClient.Call.
func (c *ResourceClient) Call(ctx context.Context, name string, params gitlab.Params) (any, error) {
	operation, ok := c.descriptor.CustomOperation(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", gitlab.ErrUnknownOperation, c.descriptor.Name, name)
	}

	resp, err := c.send(ctx, operation.Method, c.descriptor.CollectionPath+operation.Path, params)
	if err != nil {
		return nil, fmt.Errorf("calling %s.%s: %w", c.descriptor.Name, name, err)
	}

	if operation.Response == gitlab.ResponseBinary && internalhttp.IsSuccess(resp.StatusCode) {
		return resp.Body, nil
	}

	value, err := internalhttp.Interpret(resp)
	if err != nil {
		return nil, fmt.Errorf("calling %s.%s: %w", c.descriptor.Name, name, err)
	}

	return toResult(value), nil
}

func (c *ResourceClient) write(ctx context.Context, op gitlab.Operation, method, template string, params gitlab.Params, verb string) (gitlab.Record, error) {
	err := c.require(op)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, method, template, params)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", verb, c.descriptor.Name, err)
	}

	value, err := internalhttp.Interpret(resp)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", verb, c.descriptor.Name, err)
	}

	record, err := toRecord(resp, value)
	if err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", c.descriptor.Name, err)
	}

	return record, nil
}

func (c *ResourceClient) require(op gitlab.Operation) error {
	if !c.descriptor.Supports(op) {
		return fmt.Errorf("%w: %s.%s", gitlab.ErrUnsupportedOperation, c.descriptor.Name, op)
	}

	return nil
}

// send expands the path template and routes the leftover params to the
// query string or the JSON body depending on the method.
func (c *ResourceClient) send(ctx context.Context, method, template string, params gitlab.Params) (*internalhttp.Response, error) {
	path, rest, err := expandPath(template, params)
	if err != nil {
		return nil, err
	}

	req := &internalhttp.Request{
		Method: method,
		Path:   path,
	}

	switch method {
	case http.MethodPost, http.MethodPut:
		req.Body = map[string]any(rest)
	default:
		req.Query = toQuery(rest)
	}

	return c.httpClient.Do(ctx, req)
}

// expandPath substitutes ":name" segments with the matching params and
// returns the params not consumed.
func expandPath(template string, params gitlab.Params) (string, gitlab.Params, error) {
	rest := params.Clone()
	segments := strings.Split(template, "/")

	for i, segment := range segments {
		if !strings.HasPrefix(segment, ":") {
			continue
		}

		key := segment[1:]

		value, ok := rest[key]
		if !ok || value == nil || formatValue(value) == "" {
			return "", nil, fmt.Errorf("%w: %s", gitlab.ErrMissingPathParameter, key)
		}

		segments[i] = url.PathEscape(formatValue(value))

		delete(rest, key)
	}

	return strings.Join(segments, "/"), rest, nil
}

func toQuery(params gitlab.Params) url.Values {
	if len(params) == 0 {
		return nil
	}

	query := url.Values{}

	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		switch value := params[key].(type) {
		case nil:
			continue
		case []string:
			for _, item := range value {
				query.Add(key, item)
			}
		case []any:
			for _, item := range value {
				query.Add(key, formatValue(item))
			}
		default:
			query.Set(key, formatValue(value))
		}
	}

	return query
}

func formatValue(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case json.Number:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}

// isAbsent reports whether a get should resolve to "no such record".
func isAbsent(err error) bool {
	gitlabErr, ok := gitlab.AsError(err)

	return ok && gitlabErr.Kind == gitlab.KindAPI && gitlabErr.StatusCode == constants.HTTPStatusNotFound
}

func toRecord(resp *internalhttp.Response, value any) (gitlab.Record, error) {
	object, ok := value.(map[string]any)
	if !ok {
		return nil, gitlab.NewJSONResponseFormatError(resp.StatusCode, resp.Body, fmt.Errorf("%w: expected object", ErrUnexpectedShape))
	}

	return gitlab.Record(object), nil
}

func toRecords(resp *internalhttp.Response, value any) ([]gitlab.Record, error) {
	items, ok := value.([]any)
	if !ok {
		return nil, gitlab.NewJSONResponseFormatError(resp.StatusCode, resp.Body, fmt.Errorf("%w: expected array", ErrUnexpectedShape))
	}

	records := make([]gitlab.Record, 0, len(items))

	for _, item := range items {
		object, ok := item.(map[string]any)
		if !ok {
			return nil, gitlab.NewJSONResponseFormatError(resp.StatusCode, resp.Body, fmt.Errorf("%w: expected array of objects", ErrUnexpectedShape))
		}

		records = append(records, gitlab.Record(object))
	}

	return records, nil
}

// toResult converts decoded objects to records so callers of Call can
// type-assert to gitlab.Record or []gitlab.Record.
func toResult(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return gitlab.Record(typed)
	case []any:
		records := make([]gitlab.Record, 0, len(typed))

		for _, item := range typed {
			object, ok := item.(map[string]any)
			if !ok {
				return typed
			}

			records = append(records, gitlab.Record(object))
		}

		return records
	default:
		return typed
	}
}
