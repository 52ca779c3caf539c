package cmd

import (
	"fmt"
	"strings"

	httpadapter "tenantgate/contexts/identity-access/tenant-session/adapters/http"
	"tenantgate/contexts/identity-access/tenant-session/application/shell"
	"tenantgate/contexts/identity-access/tenant-session/application/views"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(switchCmd)
}

var openCmd = &cobra.Command{
	Use:   "open <route>",
	Short: "Render a route the way the web shell would",
	Long: `Render a route for the session. Tenant routes (/t/<slug>/...) switch the
session's active tenant first.

Examples:
  tenantctl open /t/aef/events
  tenantctl open /tenants -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		route := strings.TrimSpace(args[0])
		if !strings.HasPrefix(route, "/") {
			return fmt.Errorf("route must be an absolute path, got %q", route)
		}
		return openAndRender(cmd, route)
	},
}

var switchCmd = &cobra.Command{
	Use:   "switch <slug>",
	Short: "Switch the session to a tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return openAndRender(cmd, shell.TenantRoutePrefix+strings.TrimSpace(args[0])+"/")
	},
}

func openAndRender(cmd *cobra.Command, route string) error {
	s, _, err := openShell(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	view := s.Open(cmd.Context(), route, "")
	if outputFormat != "table" {
		if err := formatOutput(cmd.OutOrStdout(), httpadapter.ViewToDTO(view)); err != nil {
			return err
		}
	} else {
		renderView(cmd.OutOrStdout(), view)
	}
	switch view.Kind {
	case views.KindForbidden, views.KindError:
		return fmt.Errorf("%s: %s", route, view.Kind)
	}
	return nil
}
