package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/gitlab-client/internal/constants"
	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
)

var (
	treeColumns   = []string{"type", "path", "mode", "id"}
	branchColumns = []string{"name", "default", "protected"}
)

// NewRepositoryCommand creates the repository command group.
func NewRepositoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "repository",
		Aliases: []string{"repo", "r"},
		Short:   "Read repository content",
		Long:    "Read blobs, trees and branches of a project repository",
	}

	cmd.AddCommand(newRepositoryBlobCommand())
	cmd.AddCommand(newRepositoryTreeCommand())
	cmd.AddCommand(newRepositoryBranchesCommand())

	return cmd
}

func newRepositoryBlobCommand() *cobra.Command {
	var (
		filePath   string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "blob PROJECT SHA",
		Short: "Download a blob",
		Long:  "Write the raw content of a blob to stdout or a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, closeClient, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			defer closeClient()

			params := gitlab.Params{"id": args[0], "sha": args[1]}
			if filePath != "" {
				params["filepath"] = filePath
			}

			content, err := client.Repositories().GetBlob(ctx, params)
			if err != nil {
				return fmt.Errorf("failed to get blob: %w", err)
			}

			if outputFile != "" {
				err = os.WriteFile(outputFile, content, constants.ConfigFilePerm)
				if err != nil {
					return fmt.Errorf("failed to write %s: %w", outputFile, err)
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", len(content), outputFile)

				return nil
			}

			_, err = cmd.OutOrStdout().Write(content)
			if err != nil {
				return fmt.Errorf("failed to write blob: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&filePath, "filepath", "", "path of the file in the repository")
	cmd.Flags().StringVarP(&outputFile, "out", "f", "", "write to file instead of stdout")

	return cmd
}

func newRepositoryTreeCommand() *cobra.Command {
	var (
		ref       string
		path      string
		recursive bool
	)

	cmd := &cobra.Command{
		Use:   "tree PROJECT",
		Short: "List repository files",
		Long:  "List files and directories of a repository tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, closeClient, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			defer closeClient()

			params := gitlab.Params{"id": args[0]}
			if ref != "" {
				params["ref"] = ref
			}

			if path != "" {
				params["path"] = path
			}

			if recursive {
				params["recursive"] = true
			}

			entries, err := client.Repositories().GetTree(ctx, params, nil)
			if err != nil {
				return fmt.Errorf("failed to get tree: %w", err)
			}

			out := cmd.OutOrStdout()

			handled, err := printStructured(out, entries)
			if handled {
				return err
			}

			return renderRecords(out, entries, treeColumns)
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "", "branch, tag or commit")
	cmd.Flags().StringVar(&path, "path", "", "subdirectory to list")
	cmd.Flags().BoolVar(&recursive, "recursive", false, "list recursively")

	return cmd
}

func newRepositoryBranchesCommand() *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "branches PROJECT",
		Short: "List branches",
		Long:  "List the branches of a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, closeClient, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			defer closeClient()

			params := gitlab.Params{"id": args[0]}
			if search != "" {
				params["search"] = search
			}

			branches, err := client.Repositories().ListBranches(ctx, params, nil)
			if err != nil {
				return fmt.Errorf("failed to list branches: %w", err)
			}

			out := cmd.OutOrStdout()

			handled, err := printStructured(out, branches)
			if handled {
				return err
			}

			return renderRecords(out, branches, branchColumns)
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "filter by name")

	return cmd
}
