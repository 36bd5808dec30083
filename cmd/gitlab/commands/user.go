package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var userFields = []string{"id", "username", "name", "state", "web_url"}

// NewUserCommand creates the user command.
func NewUserCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "user",
		Aliases: []string{"whoami"},
		Short:   "Show the current user",
		Long:    "Display the user the configured token belongs to",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, closeClient, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			defer closeClient()

			user, err := client.CurrentUser(ctx)
			if err != nil {
				return fmt.Errorf("failed to get current user: %w", err)
			}

			out := cmd.OutOrStdout()

			handled, err := printStructured(out, user)
			if handled {
				return err
			}

			return renderRecord(out, user, userFields)
		},
	}
}
