package cli

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/imgshelf/imgshelf/internal/config"
)

// newLoginCmd creates the 'login' command.
func newLoginCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Long: `Sign in with a username and password. The password is read without
echo when stdin is a terminal, otherwise as the first line of stdin.

The returned token is stored in the config file ([session] section).

Example:
  imgshelf login --username alice
  echo "$PASSWORD" | imgshelf login --username alice`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			client, cfg, err := getAPIClient()
			if err != nil {
				return err
			}

			in := bufio.NewReader(cmd.InOrStdin())
			if username == "" {
				username = cfg.Username
			}
			if username == "" {
				username, err = promptLine(in, cmd.ErrOrStderr(), "Username: ")
				if err != nil {
					return fmt.Errorf("failed to read username: %w", err)
				}
			}
			if username == "" {
				return fmt.Errorf("username is required")
			}

			var password string
			if isTerminal(os.Stdin) {
				password, err = promptPassword(cmd.ErrOrStderr(), "Password: ")
			} else {
				password, err = promptLine(in, cmd.ErrOrStderr(), "")
			}
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}

			result, err := client.Login(GetContext(), username, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			path, err := configPath()
			if err != nil {
				return err
			}
			fileCfg, err := config.LoadConfig(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			fileCfg.Username = result.Username
			fileCfg.Token = result.Token
			if err := config.SaveConfig(fileCfg, path); err != nil {
				return err
			}

			logger.Debug().Str("user", result.Username).Str("config", path).Msg("session stored")
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", result.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (prompted when omitted)")
	return cmd
}

// newLogoutCmd creates the 'logout' command.
func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			cfg, err := config.LoadConfig(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.Token == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			cfg.ClearSession()
			if err := config.SaveConfig(cfg, path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}
