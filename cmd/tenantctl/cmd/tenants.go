package cmd

import (
	httpadapter "tenantgate/contexts/identity-access/tenant-session/adapters/http"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(tenantsCmd)
}

var tenantsCmd = &cobra.Command{
	Use:   "tenants",
	Short: "List tenants the session can enter",
	Long: `List tenant memberships of the session. The active tenant is marked with *.

Examples:
  tenantctl tenants
  tenantctl tenants -o yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := openShell(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		tenants := s.Store().RefreshTenants(cmd.Context())
		if outputFormat != "table" {
			return formatOutput(cmd.OutOrStdout(), httpadapter.TenantsToDTO(tenants))
		}
		return renderTenants(cmd.OutOrStdout(), tenants, s.Store().Snapshot().ActiveTenant)
	},
}
