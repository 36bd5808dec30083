package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
)

var (
	projectColumns = []string{"id", "path_with_namespace", "visibility", "default_branch"}
	projectFields  = []string{"id", "name", "path_with_namespace", "description", "visibility", "default_branch", "web_url"}
)

// NewProjectsCommand creates the projects command group.
func NewProjectsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project", "p"},
		Short:   "Manage projects",
		Long:    "List and inspect GitLab projects",
	}

	cmd.AddCommand(newProjectsListCommand())
	cmd.AddCommand(newProjectsGetCommand())

	return cmd
}

func newProjectsListCommand() *cobra.Command {
	var (
		page    int
		perPage int
		search  string
		owned   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Long:  "List projects visible to the authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, closeClient, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			defer closeClient()

			params := gitlab.Params{}
			if search != "" {
				params["search"] = search
			}

			if owned {
				params["owned"] = true
			}

			projects, err := client.Projects().List(ctx, params, gitlab.NewListOptions().WithPage(page).WithPerPage(perPage))
			if err != nil {
				return fmt.Errorf("failed to list projects: %w", err)
			}

			out := cmd.OutOrStdout()

			handled, err := printStructured(out, projects)
			if handled {
				return err
			}

			return renderRecords(out, projects, projectColumns)
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "results per page (max 100)")
	cmd.Flags().StringVar(&search, "search", "", "filter by name")
	cmd.Flags().BoolVar(&owned, "owned", false, "only projects owned by the current user")

	return cmd
}

func newProjectsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get PROJECT",
		Short: "Get project details",
		Long:  "Display a project by numeric ID or namespace path (group/project)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, closeClient, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			defer closeClient()

			project, err := client.Projects().Get(ctx, gitlab.Params{"id": args[0]})
			if err != nil {
				return fmt.Errorf("failed to get project: %w", err)
			}

			if project == nil {
				return fmt.Errorf("%w: %s", ErrProjectNotFound, args[0])
			}

			out := cmd.OutOrStdout()

			handled, err := printStructured(out, project)
			if handled {
				return err
			}

			return renderRecord(out, project, projectFields)
		},
	}
}
