package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/gitlab-client/internal/constants"
	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
	"github.com/fivetwenty-io/gitlab-client/pkg/gitlabclient"
)

// Config represents the persisted CLI configuration.
type Config struct {
	API     string        `json:"api,omitempty"      yaml:"api,omitempty"`
	Token   string        `json:"token,omitempty"    yaml:"token,omitempty"`
	Output  string        `json:"output,omitempty"   yaml:"output,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty"  yaml:"timeout,omitempty"`
	Cache   string        `json:"cache,omitempty"    yaml:"cache,omitempty"`
	NATSURL string        `json:"nats_url,omitempty" yaml:"nats_url,omitempty"`
}

// settableKeys maps config keys accepted by 'config set' to viper keys.
var settableKeys = map[string]string{
	"api":      "api",
	"token":    "token",
	"output":   "output",
	"timeout":  "timeout",
	"cache":    "cache",
	"nats_url": "nats-url",
}

// ConfigDir returns the CLI configuration directory, creating it if needed.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".gitlab-client")

	err = os.MkdirAll(configDir, constants.ConfigDirPerm)
	if err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the persisted GitLab CLI configuration",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration with the token masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			if config.Token != "" {
				config.Token = constants.MaskedSecret
			}

			out := cmd.OutOrStdout()

			switch outputFormat() {
			case constants.FormatJSON:
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")

				return encoder.Encode(config)
			case constants.FormatYAML:
				return yaml.NewEncoder(out).Encode(config)
			default:
				table := tablewriter.NewWriter(out)
				table.Header("Property", "Value")
				_ = table.Append("API", displayValue(config.API))
				_ = table.Append("Token", displayValue(config.Token))
				_ = table.Append("Output", displayValue(config.Output))
				_ = table.Append("Timeout", config.Timeout.String())
				_ = table.Append("Cache", displayValue(config.Cache))
				_ = table.Append("NATS URL", displayValue(config.NATSURL))

				if err := table.Render(); err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}
			}

			return nil
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Persist a configuration value (api, token, output, timeout, cache, nats_url)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			viperKey, ok := settableKeys[key]
			if !ok {
				return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
			}

			if viperKey == "timeout" {
				if _, err := time.ParseDuration(value); err != nil {
					return fmt.Errorf("invalid timeout %q: %w", value, err)
				}
			}

			viper.Set(viperKey, value)

			err := saveConfigStruct(loadConfig())
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", key)

			return nil
		},
	}
}

func loadConfig() *Config {
	return &Config{
		API:     viper.GetString("api"),
		Token:   viper.GetString("token"),
		Output:  viper.GetString("output"),
		Timeout: viper.GetDuration("timeout"),
		Cache:   viper.GetString("cache"),
		NATSURL: viper.GetString("nats-url"),
	}
}

func saveConfigStruct(config *Config) error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configDir, err := ConfigDir()
		if err != nil {
			return err
		}

		configFile = filepath.Join(configDir, "config.yml")
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CreateClient builds a client from flags, environment and config file.
// The returned func releases the response cache and must be called once
// the client is no longer needed.
func CreateClient(ctx context.Context) (gitlab.Client, func(), error) {
	noop := func() {}

	config := loadConfig()
	if config.API == "" {
		return nil, noop, constants.ErrNoAPIConfigured
	}

	clientConfig := &gitlab.Config{
		APIEndpoint:    config.API,
		Token:          config.Token,
		RequestTimeout: config.Timeout,
	}

	if viper.GetBool("verbose") {
		logger, err := NewLogger(true)
		if err != nil {
			return nil, noop, err
		}

		clientConfig.Logger = logger
		clientConfig.Debug = true
	}

	headers, err := parseHeaders(viper.GetStringSlice("header"))
	if err != nil {
		return nil, noop, err
	}

	if len(headers) > 0 {
		clientConfig.Interceptors = gitlab.NewInterceptorChain().
			AddRequestInterceptor(gitlab.HeaderInterceptor(headers))
	}

	cache, err := createCache(config)
	if err != nil {
		return nil, noop, err
	}

	clientConfig.Cache = cache
	closeCache := cacheCloser(cache)

	client, err := gitlabclient.New(ctx, clientConfig)
	if err != nil {
		closeCache()

		return nil, noop, fmt.Errorf("failed to create client: %w", err)
	}

	return client, closeCache, nil
}

// parseHeaders turns KEY=VALUE pairs into a header map.
func parseHeaders(pairs []string) (map[string]string, error) {
	headers := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")

		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidHeader, pair)
		}

		headers[key] = strings.TrimSpace(value)
	}

	return headers, nil
}

func cacheCloser(cache gitlab.Cache) func() {
	closer, ok := cache.(interface{ Close() })
	if !ok {
		return func() {}
	}

	return closer.Close
}

func createCache(config *Config) (gitlab.Cache, error) {
	switch config.Cache {
	case "", string(gitlab.CacheTypeNone):
		return nil, nil
	case string(gitlab.CacheTypeMemory):
		return gitlab.NewCacheFromConfig(gitlab.DefaultCacheConfig())
	case string(gitlab.CacheTypeNATS), string(gitlab.CacheTypeTiered):
		cache, err := gitlab.NewCacheFromConfig(&gitlab.CacheConfig{
			Type: gitlab.CacheType(config.Cache),
			NATS: &gitlab.NATSKVConfig{URL: config.NATSURL},
			TTL:  constants.DefaultCacheTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create NATS cache: %w", err)
		}

		return cache, nil
	default:
		return nil, fmt.Errorf("%w: %s", constants.ErrUnsupportedBackend, config.Cache)
	}
}
