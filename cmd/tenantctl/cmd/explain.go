package cmd

import (
	"fmt"
	"net/http"
	"strings"

	httpadapter "tenantgate/contexts/identity-access/tenant-session/adapters/http"
	"tenantgate/contexts/identity-access/tenant-session/application/views"
	"tenantgate/contexts/identity-access/tenant-session/domain/entities"

	"github.com/spf13/cobra"
)

var (
	explainStatus     int
	explainCode       string
	explainMessage    string
	explainRequestID  string
	explainService    string
	explainPermission string
)

func init() {
	explainCmd.Flags().IntVar(&explainStatus, "status", http.StatusForbidden, "HTTP status of the failed call")
	explainCmd.Flags().StringVar(&explainCode, "code", "", "Error code of the failed call")
	explainCmd.Flags().StringVar(&explainMessage, "message", "", "Error message of the failed call")
	explainCmd.Flags().StringVar(&explainRequestID, "request-id", "", "Request ID of the failed call")
	explainCmd.Flags().StringVar(&explainService, "service", "", "Service that refused the call")
	explainCmd.Flags().StringVar(&explainPermission, "permission", "", "Permission the call required")
	rootCmd.AddCommand(explainCmd)
}

var explainCmd = &cobra.Command{
	Use:   "explain <route>",
	Short: "Show the access-denied screen and support message for a failed call",
	Long: `Open a route, report a failed API call against it and print what the user
would see, followed by the support message they could copy.

Examples:
  tenantctl explain /t/aef/events --status 403 --message "Missing events.read" --request-id req-42
  tenantctl explain /t/aef/events --code FORBIDDEN --service voting --permission events.read`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		route := strings.TrimSpace(args[0])
		s, _, err := openShell(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		s.Open(cmd.Context(), route, "")
		details := map[string]any{}
		if explainService != "" {
			details["service"] = explainService
		}
		if explainPermission != "" {
			details["required_permission"] = explainPermission
		}
		denial := s.Report(cmd.Context(), &entities.APIError{
			Status:    explainStatus,
			Code:      explainCode,
			Message:   explainMessage,
			RequestID: explainRequestID,
			Details:   details,
		}, entities.Fallback{})
		if denial == nil {
			return fmt.Errorf("status %d with code %q is not an access denial", explainStatus, explainCode)
		}

		view := s.Presenter().Render(views.Ready("", nil))
		if outputFormat != "table" {
			return formatOutput(cmd.OutOrStdout(), httpadapter.ViewToDTO(view))
		}
		renderView(cmd.OutOrStdout(), view)
		message, err := s.Presenter().SupportMessage()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n%s\n", labelFmt("Support message:"), dimFmt(message))
		return nil
	},
}
