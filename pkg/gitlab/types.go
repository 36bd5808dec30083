package gitlab

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"strconv"

	"github.com/fivetwenty-io/gitlab-client/internal/constants"
)

// Record is a single decoded resource. Numbers are kept as json.Number so
// large ids survive decoding.
type Record map[string]any

// ID returns the record's "id" field as an integer.
func (r Record) ID() (int64, bool) {
	return r.Int("id")
}

// Int returns a numeric field as an integer.
func (r Record) Int(key string) (int64, bool) {
	switch value := r[key].(type) {
	case json.Number:
		n, err := value.Int64()

		return n, err == nil
	case float64:
		return int64(value), true
	case int:
		return int64(value), true
	case int64:
		return value, true
	case string:
		n, err := strconv.ParseInt(value, 10, 64)

		return n, err == nil
	default:
		return 0, false
	}
}

// String returns a string field, or "" when missing or not a string.
func (r Record) String(key string) string {
	value, _ := r[key].(string)

	return value
}

// Params maps parameter names to values. Keys matching a path placeholder
// are substituted into the URL; the rest become query or body parameters.
type Params map[string]any

// Clone returns a shallow copy of the params.
func (p Params) Clone() Params {
	cloned := make(Params, len(p))
	maps.Copy(cloned, p)

	return cloned
}

// ListOptions holds pagination options for list operations.
type ListOptions struct {
	// Page is 1-based. Zero or negative uses the API default.
	Page int
	// PerPage is clamped to the API maximum. Zero or negative uses the API default.
	PerPage int
}

// NewListOptions creates empty list options.
func NewListOptions() *ListOptions {
	return &ListOptions{}
}

// WithPage sets the page.
func (o *ListOptions) WithPage(page int) *ListOptions {
	o.Page = page

	return o
}

// WithPerPage sets the page size.
func (o *ListOptions) WithPerPage(perPage int) *ListOptions {
	o.PerPage = perPage

	return o
}

// ToValues converts the options to query parameters.
func (o *ListOptions) ToValues() url.Values {
	values := url.Values{}
	if o == nil {
		return values
	}

	if o.Page > 0 {
		values.Set(constants.ParamPage, strconv.Itoa(o.Page))
	}

	if o.PerPage > 0 {
		values.Set(constants.ParamPerPage, strconv.Itoa(min(o.PerPage, constants.MaxPageSize)))
	}

	return values
}

// Merge returns params with the pagination options applied on top.
func (o *ListOptions) Merge(params Params) Params {
	merged := params.Clone()
	if o == nil {
		return merged
	}

	for key, values := range o.ToValues() {
		merged[key] = values[0]
	}

	return merged
}

// Operation names one of the canonical resource operations.
type Operation string

// Canonical operations.
const (
	OperationList   Operation = "list"
	OperationGet    Operation = "get"
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationRemove Operation = "remove"
)

// CRUDOperations is the full canonical operation set.
var CRUDOperations = []Operation{OperationList, OperationGet, OperationCreate, OperationUpdate, OperationRemove}

// ResponseType declares how a custom operation's successful body is returned.
type ResponseType int

const (
	// ResponseJSON decodes the body.
	ResponseJSON ResponseType = iota
	// ResponseBinary returns the raw body bytes.
	ResponseBinary
)

// CustomOperation is a resource operation outside the canonical five.
type CustomOperation struct {
	Name   string
	Method string
	// Path is appended to the resource's collection path and may contain
	// placeholders.
	Path     string
	Response ResponseType
}

// ResourceDescriptor statically describes a resource kind.
type ResourceDescriptor struct {
	Name string
	// CollectionPath is the collection URL template, e.g. "/projects/:id/issues".
	CollectionPath string
	// IDKey names the parameter identifying a member; the member path is
	// CollectionPath + "/:" + IDKey.
	IDKey      string
	Operations []Operation
	Custom     []CustomOperation
}

// Supports reports whether the resource offers a canonical operation.
func (d ResourceDescriptor) Supports(op Operation) bool {
	for _, supported := range d.Operations {
		if supported == op {
			return true
		}
	}

	return false
}

// CustomOperation looks up a custom operation by name.
func (d ResourceDescriptor) CustomOperation(name string) (CustomOperation, bool) {
	for _, custom := range d.Custom {
		if custom.Name == name {
			return custom, true
		}
	}

	return CustomOperation{}, false
}

// MemberPath returns the member URL template.
func (d ResourceDescriptor) MemberPath() string {
	return d.CollectionPath + "/:" + d.IDKey
}

func marshalCompact(value any) (string, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encoding value: %w", err)
	}

	return string(encoded), nil
}
