// Command infactory is a small command line client for the Infactory API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/infactory-io/infactory-go/pkg/config"
	"github.com/infactory-io/infactory-go/pkg/infactory"
	"github.com/infactory-io/infactory-go/pkg/logging"
)

var (
	configPath string
	apiKey     string
	baseURL    string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:           "infactory",
	Short:         "Command line client for the Infactory API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default ~/.infactory/config.yaml)")
	flags.StringVar(&apiKey, "api-key", "", "API key (overrides "+config.EnvAPIKey+")")
	flags.StringVar(&baseURL, "base-url", "", "API base URL (overrides "+config.EnvBaseURL+")")
	flags.BoolVar(&debug, "debug", false, "enable debug logging")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig merges the config file, environment and command line flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyFlags(cfg)
	return cfg, nil
}

func applyFlags(cfg *config.Config) {
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if debug {
		cfg.Debug = true
	}
}

// newClient builds an API client and a logger for one command run. The
// caller syncs the logger.
func newClient() (*infactory.Client, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := logging.NewLogger(cfg.Debug)
	client, err := infactory.NewClient(infactory.WithConfig(cfg), infactory.WithLogger(logger))
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return client, logger, nil
}
