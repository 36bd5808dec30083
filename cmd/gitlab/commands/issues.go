package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/gitlab-client/internal/constants"
	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
)

var (
	issueColumns = []string{"iid", "title", "state", "labels"}
	issueFields  = []string{"id", "iid", "project_id", "title", "description", "state", "labels", "web_url"}
)

// NewIssuesCommand creates the issues command group.
func NewIssuesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "issues",
		Aliases: []string{"issue", "i"},
		Short:   "Manage issues",
		Long:    "List, create, update, close and remove project issues",
	}

	cmd.AddCommand(newIssuesListCommand())
	cmd.AddCommand(newIssuesGetCommand())
	cmd.AddCommand(newIssuesCreateCommand())
	cmd.AddCommand(newIssuesUpdateCommand())
	cmd.AddCommand(newIssuesCloseCommand())
	cmd.AddCommand(newIssuesRemoveCommand())

	return cmd
}

func newIssuesListCommand() *cobra.Command {
	var (
		page    int
		perPage int
		state   string
		labels  []string
	)

	cmd := &cobra.Command{
		Use:   "list PROJECT",
		Short: "List issues",
		Long:  "List the issues of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, closeClient, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			defer closeClient()

			params := gitlab.Params{"id": args[0]}
			if state != "" {
				params["state"] = state
			}

			if len(labels) > 0 {
				params["labels"] = strings.Join(labels, ",")
			}

			issues, err := client.Issues().List(ctx, params, gitlab.NewListOptions().WithPage(page).WithPerPage(perPage))
			if err != nil {
				return fmt.Errorf("failed to list issues: %w", err)
			}

			out := cmd.OutOrStdout()

			handled, err := printStructured(out, issues)
			if handled {
				return err
			}

			return renderRecords(out, issues, issueColumns)
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "results per page (max 100)")
	cmd.Flags().StringVar(&state, "state", "", "filter by state (opened, closed, all)")
	cmd.Flags().StringSliceVar(&labels, "labels", nil, "filter by labels")

	return cmd
}

func newIssuesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get PROJECT ISSUE_IID",
		Short: "Get issue details",
		Long:  "Display a single issue by its project-scoped IID",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			iid, err := parseID(args[1])
			if err != nil {
				return err
			}

			ctx := context.Background()

			client, closeClient, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			defer closeClient()

			issue, err := client.Issues().Get(ctx, gitlab.Params{"id": args[0], "issue_id": iid})
			if err != nil {
				return fmt.Errorf("failed to get issue: %w", err)
			}

			if issue == nil {
				return fmt.Errorf("%w: %s#%d", ErrIssueNotFound, args[0], iid)
			}

			return printIssue(cmd, issue)
		},
	}
}

func newIssuesCreateCommand() *cobra.Command {
	var (
		title       string
		description string
		labels      []string
	)

	cmd := &cobra.Command{
		Use:   "create PROJECT",
		Short: "Create an issue",
		Long:  "Open a new issue in a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" {
				return ErrTitleRequired
			}

			ctx := context.Background()

			client, closeClient, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			defer closeClient()

			params := gitlab.Params{"id": args[0], "title": title}
			if description != "" {
				params["description"] = description
			}

			if len(labels) > 0 {
				params["labels"] = strings.Join(labels, ",")
			}

			issue, err := client.Issues().Create(ctx, params)
			if err != nil {
				return fmt.Errorf("failed to create issue: %w", err)
			}

			return printIssue(cmd, issue)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "issue title")
	cmd.Flags().StringVar(&description, "description", "", "issue description")
	cmd.Flags().StringSliceVar(&labels, "labels", nil, "labels to apply")

	return cmd
}

func newIssuesUpdateCommand() *cobra.Command {
	var (
		title       string
		description string
		labels      []string
		stateEvent  string
	)

	cmd := &cobra.Command{
		Use:   "update PROJECT ISSUE_IID",
		Short: "Update an issue",
		Long:  "Change the title, description, labels or state of an issue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			iid, err := parseID(args[1])
			if err != nil {
				return err
			}

			params := gitlab.Params{}

			if cmd.Flags().Changed("title") {
				params["title"] = title
			}

			if cmd.Flags().Changed("description") {
				params["description"] = description
			}

			if cmd.Flags().Changed("labels") {
				params["labels"] = strings.Join(labels, ",")
			}

			if stateEvent != "" {
				params["state_event"] = stateEvent
			}

			if len(params) == 0 {
				return constants.ErrNothingToUpdate
			}

			return updateIssue(cmd, args[0], iid, params)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringSliceVar(&labels, "labels", nil, "replace labels")
	cmd.Flags().StringVar(&stateEvent, "state-event", "", "state transition (close, reopen)")

	return cmd
}

func newIssuesCloseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "close PROJECT ISSUE_IID",
		Short: "Close an issue",
		Long:  "Close an open issue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			iid, err := parseID(args[1])
			if err != nil {
				return err
			}

			return updateIssue(cmd, args[0], iid, gitlab.Params{"state_event": constants.StateEventClose})
		},
	}
}

func newIssuesRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove PROJECT ISSUE_IID",
		Aliases: []string{"rm", "delete"},
		Short:   "Remove an issue",
		Long:    "Delete an issue. Only administrators and project owners may delete issues",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			iid, err := parseID(args[1])
			if err != nil {
				return err
			}

			ctx := context.Background()

			client, closeClient, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			defer closeClient()

			_, err = client.Issues().Remove(ctx, gitlab.Params{"id": args[0], "issue_id": iid})
			if err != nil {
				return fmt.Errorf("failed to remove issue: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed issue %s#%d\n", args[0], iid)

			return nil
		},
	}
}

func updateIssue(cmd *cobra.Command, project string, iid int64, params gitlab.Params) error {
	ctx := context.Background()

	client, closeClient, err := CreateClient(ctx)
	if err != nil {
		return err
	}

	defer closeClient()

	params["id"] = project
	params["issue_id"] = iid

	issue, err := client.Issues().Update(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to update issue: %w", err)
	}

	return printIssue(cmd, issue)
}

func printIssue(cmd *cobra.Command, issue gitlab.Record) error {
	out := cmd.OutOrStdout()

	handled, err := printStructured(out, issue)
	if handled {
		return err
	}

	return renderRecord(out, issue, issueFields)
}
