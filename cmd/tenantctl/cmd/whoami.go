package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

type whoamiOutput struct {
	UserID       string          `json:"user_id" yaml:"user_id"`
	Email        string          `json:"email" yaml:"email"`
	DisplayName  string          `json:"display_name" yaml:"display_name"`
	ActiveTenant string          `json:"active_tenant,omitempty" yaml:"active_tenant,omitempty"`
	LastTenant   string          `json:"last_tenant,omitempty" yaml:"last_tenant,omitempty"`
	Pending      []pendingOutput `json:"pending_applications" yaml:"pending_applications"`
}

type pendingOutput struct {
	TenantSlug  string    `json:"tenant_slug" yaml:"tenant_slug"`
	DisplayName string    `json:"display_name" yaml:"display_name"`
	SubmittedAt time.Time `json:"submitted_at" yaml:"submitted_at"`
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the user behind the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, profile, err := openShell(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		out := whoamiOutput{
			UserID:      profile.User.UserID,
			Email:       profile.User.Email,
			DisplayName: profile.User.DisplayName,
			LastTenant:  profile.LastTenantSlug,
			Pending:     []pendingOutput{},
		}
		if active := s.Store().Snapshot().ActiveTenant; active != nil {
			out.ActiveTenant = active.Slug
		}
		for _, item := range profile.PendingApplications {
			out.Pending = append(out.Pending, pendingOutput{
				TenantSlug:  item.TenantSlug,
				DisplayName: item.DisplayName,
				SubmittedAt: item.SubmittedAt,
			})
		}
		if outputFormat != "table" {
			return formatOutput(cmd.OutOrStdout(), out)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s %s <%s>\n", labelFmt("User:"), out.DisplayName, out.Email)
		fmt.Fprintf(w, "%s %s\n", labelFmt("ID:"), out.UserID)
		if out.ActiveTenant != "" {
			fmt.Fprintf(w, "%s %s\n", labelFmt("Active tenant:"), okFmt(out.ActiveTenant))
		}
		if out.LastTenant != "" {
			fmt.Fprintf(w, "%s %s\n", labelFmt("Last tenant:"), out.LastTenant)
		}
		if len(out.Pending) > 0 {
			slugs := make([]string, 0, len(out.Pending))
			for _, item := range out.Pending {
				slugs = append(slugs, item.TenantSlug)
			}
			fmt.Fprintf(w, "%s %s\n", labelFmt("Pending applications:"), warnFmt(strings.Join(slugs, ", ")))
		}
		return nil
	},
}
