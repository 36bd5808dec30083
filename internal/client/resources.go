package client

import (
	"net/http"

	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
)

// Resource names.
const (
	ResourceProjects     = "projects"
	ResourceIssues       = "issues"
	ResourceRepositories = "repositories"
	ResourceUsers        = "users"
	ResourceMilestones   = "milestones"
)

// Repository custom operations.
const (
	OperationGetBlob      = "getBlob"
	OperationGetTree      = "getTree"
	OperationListBranches = "listBranches"
	OperationGetBranch    = "getBranch"
)

// Descriptors returns the registered resource catalogue.
func Descriptors() []gitlab.ResourceDescriptor {
	return []gitlab.ResourceDescriptor{
		{
			Name:           ResourceProjects,
			CollectionPath: "/projects",
			IDKey:          "id",
			Operations:     gitlab.CRUDOperations,
		},
		{
			Name:           ResourceIssues,
			CollectionPath: "/projects/:id/issues",
			IDKey:          "issue_id",
			Operations:     gitlab.CRUDOperations,
		},
		{
			Name:           ResourceRepositories,
			CollectionPath: "/projects/:id/repository",
			IDKey:          "sha",
			Custom: []gitlab.CustomOperation{
				{Name: OperationGetBlob, Method: http.MethodGet, Path: "/blobs/:sha", Response: gitlab.ResponseBinary},
				{Name: OperationGetTree, Method: http.MethodGet, Path: "/tree"},
				{Name: OperationListBranches, Method: http.MethodGet, Path: "/branches"},
				{Name: OperationGetBranch, Method: http.MethodGet, Path: "/branches/:branch"},
			},
		},
		{
			Name:           ResourceUsers,
			CollectionPath: "/users",
			IDKey:          "id",
			Operations:     []gitlab.Operation{gitlab.OperationList, gitlab.OperationGet},
		},
		{
			Name:           ResourceMilestones,
			CollectionPath: "/projects/:id/milestones",
			IDKey:          "milestone_id",
			Operations: []gitlab.Operation{
				gitlab.OperationList, gitlab.OperationGet, gitlab.OperationCreate, gitlab.OperationUpdate,
			},
		},
	}
}
