package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/infactory-io/infactory-go/pkg/auth"
	"github.com/infactory-io/infactory-go/pkg/config"
)

var configForce bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config file")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file from the current flags and environment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			p, err := config.DefaultPath()
			if err != nil {
				return err
			}
			path = p
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		cfg := config.Default()
		if err := cfg.ApplyEnv(); err != nil {
			return err
		}
		applyFlags(cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.Save(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		key := auth.MaskToken(cfg.APIKey)
		if key == "" {
			key = "(not set)"
		}
		fmt.Printf("api_key:     %s\n", key)
		fmt.Printf("base_url:    %s\n", cfg.BaseURL)
		fmt.Printf("timeout:     %s\n", cfg.Timeout)
		fmt.Printf("max_retries: %d\n", cfg.MaxRetries)
		return nil
	},
}
