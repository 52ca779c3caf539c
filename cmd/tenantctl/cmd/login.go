package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var loginCookie string

func init() {
	loginCmd.Flags().StringVar(&loginCookie, "cookie", "", "Session cookie name (default \"session\")")
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the tenant API and session for later commands",
	Long: `Store the tenant API base URL and the session cookie value in
~/.config/tenantctl/config.yaml so later commands can omit --server and --session.

Examples:
  tenantctl login --server https://api.example.com --session 3f1c...`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig()
		if err != nil {
			return err
		}
		if value := strings.TrimSpace(serverFlag); value != "" {
			cfg.Server = value
		}
		if value := strings.TrimSpace(sessionFlag); value != "" {
			cfg.Session = value
		}
		if value := strings.TrimSpace(loginCookie); value != "" {
			cfg.SessionCookie = value
		}
		if cfg.Server == "" || cfg.Session == "" {
			return fmt.Errorf("both --server and --session are required on first login")
		}
		if err := SaveConfig(cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s saved %s\n", okFmt("OK"), ConfigPath())
		return nil
	},
}
