// Package cmd implements the tenantctl CLI commands.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	// Version is set at build time
	Version = "0.1.0"

	// Global flags
	outputFormat string
	serverFlag   string
	sessionFlag  string
	timeoutFlag  time.Duration
	verboseFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "tenantctl",
	Short: "Inspect tenant sessions from the terminal",
	Long: `tenantctl drives the tenant session gate against a tenant API.

It hydrates the session behind a cookie, lists the tenants it can enter,
switches tenants and renders routes the same way the web shell does,
including access-denied screens and their support messages.`,
	Version:      Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Tenant API base URL (default from config or TENANTCTL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&sessionFlag, "session", "", "Session cookie value (default from config or TENANTCTL_SESSION)")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 10*time.Second, "Tenant API request timeout")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log tenant API traffic to stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func cliLogger(stderr io.Writer) *slog.Logger {
	if !verboseFlag {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// formatOutput writes data as json or yaml; table output is handled by each command.
func formatOutput(w io.Writer, data any) error {
	switch outputFormat {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case "yaml":
		// Round-trip through JSON so yaml keys follow the json tags.
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	case "table", "":
		return nil
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
}
