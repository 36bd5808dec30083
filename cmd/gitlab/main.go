package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/gitlab-client/cmd/gitlab/commands"
	"github.com/fivetwenty-io/gitlab-client/internal/constants"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gitlab",
		Short: "GitLab REST API CLI",
		Long: `A command-line interface for the GitLab REST API (v4).

Browse projects, manage issues and read repository content from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.gitlab-client/config.yml)")
	flags.StringP("api", "a", "", "API endpoint URL, e.g. https://gitlab.com/api/v4")
	flags.StringP("token", "t", "", "personal access token")
	flags.Duration("timeout", constants.DefaultRequestTimeout, "per-request timeout")
	flags.StringP("output", "o", constants.FormatTable, "output format (table, json, yaml)")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.String("cache", "none", "response cache backend (none, memory, nats, tiered)")
	flags.String("nats-url", "", "NATS server URL for the nats and tiered cache backends")
	flags.StringSlice("header", nil, "extra request header as KEY=VALUE (repeatable)")

	for _, name := range []string{"config", "api", "token", "timeout", "output", "verbose", "cache", "nats-url", "header"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewLoginCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewProjectsCommand())
	rootCmd.AddCommand(commands.NewIssuesCommand())
	rootCmd.AddCommand(commands.NewRepositoryCommand())
	rootCmd.AddCommand(commands.NewUserCommand())

	return rootCmd
}

func initConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		configDir, err := commands.ConfigDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		viper.AddConfigPath(configDir)
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("GITLAB")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", filepath.Clean(viper.ConfigFileUsed()))
		}
	}
}

func main() {
	cobra.OnInitialize(initConfig)

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, commands.FormatError(err))
		os.Exit(1)
	}
}
