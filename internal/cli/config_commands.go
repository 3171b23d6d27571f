package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/imgshelf/imgshelf/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show imgshelf configuration",
	}

	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigPathCmd())
	return configCmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the merged configuration from:
  1. Configuration file (~/.config/imgshelf/config)
  2. Environment variables (` + config.EnvAPIURL + `, ` + config.EnvToken + `, ` + config.EnvPageSize + `)
  3. Command-line flags (--api-url, --token, --page-size)

Priority: flags > environment > config file > defaults`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			cfg, err := config.LoadConfig(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg.MergeEnv()
			cfg.MergeWithFlags(apiBaseURL, token, pageSize)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Server:")
			fmt.Fprintf(out, "  Base URL:    %s\n", cfg.APIBaseURL)
			fmt.Fprintf(out, "  Timeout:     %s\n", cfg.Timeout)
			fmt.Fprintf(out, "  Retry max:   %d\n", cfg.RetryMax)
			fmt.Fprintln(out, "Session:")
			if cfg.Token != "" {
				// Never print any part of the token.
				fmt.Fprintf(out, "  User:        %s\n  Token:       <set (%d chars)>\n", cfg.Username, len(cfg.Token))
			} else {
				fmt.Fprintln(out, "  Token:       <not set>")
			}
			fmt.Fprintln(out, "Browser:")
			fmt.Fprintf(out, "  Page size:   %d\n", cfg.PageSize)
			fmt.Fprintf(out, "  Batch limit: %d bytes\n", cfg.UploadCeilingBytes)
			fmt.Fprintln(out, "Proxy:")
			fmt.Fprintf(out, "  Mode:        %s\n", cfg.ProxyMode)
			if cfg.ProxyHost != "" {
				fmt.Fprintf(out, "  Host:        %s:%d\n", cfg.ProxyHost, cfg.ProxyPort)
			}

			fmt.Fprintf(out, "\nConfiguration file: %s\n", path)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				fmt.Fprintln(out, "  (file does not exist - using defaults)")
			}
			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
