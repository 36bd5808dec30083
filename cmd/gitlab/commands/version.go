package commands

import (
	"context"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// VersionInfo describes the CLI build and, optionally, the server.
type VersionInfo struct {
	Version       string `json:"version"                  yaml:"version"`
	Commit        string `json:"commit"                   yaml:"commit"`
	Built         string `json:"built"                    yaml:"built"`
	ServerVersion string `json:"server_version,omitempty" yaml:"server_version,omitempty"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	var server bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display version information about the GitLab CLI and optionally the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			versionInfo := VersionInfo{
				Version: version,
				Commit:  commit,
				Built:   date,
			}

			if server {
				ctx := context.Background()

				client, closeClient, err := CreateClient(ctx)
				if err != nil {
					return err
				}

				defer closeClient()

				serverInfo, err := client.Version(ctx)
				if err != nil {
					return fmt.Errorf("failed to get server version: %w", err)
				}

				versionInfo.ServerVersion = serverInfo.String("version")
			}

			out := cmd.OutOrStdout()

			handled, err := printStructured(out, versionInfo)
			if handled {
				return err
			}

			table := tablewriter.NewWriter(out)
			table.Header("Property", "Value")
			_ = table.Append("Version", version)
			_ = table.Append("Commit", commit)
			_ = table.Append("Built", date)

			if versionInfo.ServerVersion != "" {
				_ = table.Append("Server Version", versionInfo.ServerVersion)
			}

			if err := table.Render(); err != nil {
				return fmt.Errorf("failed to render table: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&server, "server", false, "also query the GitLab server version")

	return cmd
}
