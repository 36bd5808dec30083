package commands

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/fivetwenty-io/gitlab-client/internal/constants"
	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
	"github.com/fivetwenty-io/gitlab-client/pkg/gitlabclient"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Login to GitLab",
		Long:  "Verify a personal access token against a GitLab API endpoint and save both",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			reader := bufio.NewReader(cmd.InOrStdin())

			apiEndpoint := viper.GetString("api")
			if apiEndpoint == "" {
				_, _ = fmt.Fprint(out, "API endpoint (e.g. https://gitlab.com/api/v4): ")
				apiEndpoint, _ = reader.ReadString('\n')
				apiEndpoint = strings.TrimSpace(apiEndpoint)
			}

			if apiEndpoint == "" {
				return constants.ErrNoAPIConfigured
			}

			token := viper.GetString("token")
			if token == "" {
				_, _ = fmt.Fprint(out, "Personal access token: ")

				tokenBytes, err := term.ReadPassword(int(syscall.Stdin))
				if err != nil {
					return fmt.Errorf("failed to read token: %w", err)
				}

				_, _ = fmt.Fprintln(out)
				token = strings.TrimSpace(string(tokenBytes))
			}

			if token == "" {
				return constants.ErrEmptyToken
			}

			timeout := viper.GetDuration("timeout")
			if timeout <= 0 {
				timeout = constants.ShortHTTPTimeout
			}

			ctx := context.Background()

			client, err := gitlabclient.New(ctx, &gitlab.Config{
				APIEndpoint:    apiEndpoint,
				Token:          token,
				RequestTimeout: timeout,
			})
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			user, err := client.CurrentUser(ctx)
			if err != nil {
				return fmt.Errorf("failed to verify token: %w", err)
			}

			viper.Set("api", gitlabclient.NormalizeEndpoint(apiEndpoint))
			viper.Set("token", token)

			err = saveConfigStruct(loadConfig())
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(out, "Logged in to %s as %s\n", viper.GetString("api"), user.String("username"))

			return nil
		},
	}
}
