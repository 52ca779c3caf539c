package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"tenantgate/contexts/identity-access/tenant-session/application/views"
	"tenantgate/contexts/identity-access/tenant-session/domain/entities"

	"github.com/fatih/color"
)

var (
	okFmt    = color.New(color.FgGreen, color.Bold).SprintFunc()
	warnFmt  = color.New(color.FgYellow).SprintFunc()
	errFmt   = color.New(color.FgRed, color.Bold).SprintFunc()
	linkFmt  = color.New(color.FgCyan).SprintFunc()
	dimFmt   = color.New(color.Faint).SprintFunc()
	labelFmt = color.New(color.Bold).SprintFunc()
)

func renderView(w io.Writer, view views.View) {
	switch view.Kind {
	case views.KindReady:
		fmt.Fprintf(w, "%s tenant %s is active\n", okFmt("READY"), view.Slug)
	case views.KindLoading:
		fmt.Fprintf(w, "%s switching to %s\n", warnFmt("LOADING"), view.Slug)
	case views.KindRedirect:
		fmt.Fprintf(w, "%s %s\n", linkFmt("REDIRECT"), view.Location)
	case views.KindNone:
		fmt.Fprintf(w, "%s\n", dimFmt("nothing to render for a signed-out session"))
	case views.KindForbidden:
		fmt.Fprintf(w, "%s %s\n", errFmt("FORBIDDEN"), view.Message)
	case views.KindError:
		fmt.Fprintf(w, "%s %s\n", errFmt("ERROR"), view.Message)
	case views.KindDenied:
		renderDenial(w, view.Denial)
	default:
		fmt.Fprintf(w, "%s\n", view.Kind)
	}
	renderActions(w, view.Actions)
}

func renderDenial(w io.Writer, screen *views.DenialScreen) {
	if screen == nil {
		return
	}
	fmt.Fprintf(w, "%s\n", errFmt(strings.ToUpper(screen.Title)))
	fmt.Fprintf(w, "  %s %s\n", labelFmt("Reason:"), screen.Reason)
	fmt.Fprintf(w, "  %s %s\n", labelFmt("Path:"), screen.Path)
	requestID := screen.RequestID
	if requestID == "" {
		requestID = dimFmt("unavailable")
	}
	fmt.Fprintf(w, "  %s %s\n", labelFmt("Request ID:"), requestID)
	for _, line := range [][2]string{
		{"Service:", screen.Service},
		{"Tenant:", screen.Tenant},
		{"Required permission:", screen.RequiredPermission},
	} {
		if line[1] != "" {
			fmt.Fprintf(w, "  %s %s\n", labelFmt(line[0]), line[1])
		}
	}
}

func renderActions(w io.Writer, actions []views.Action) {
	if len(actions) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, action := range actions {
		fmt.Fprintf(w, "  %s %s\n", linkFmt("→ "+action.Label), dimFmt(action.Href))
	}
}

func renderTenants(w io.Writer, tenants []entities.TenantSummary, active *entities.ActiveTenant) error {
	if len(tenants) == 0 {
		fmt.Fprintln(w, dimFmt("no tenant memberships"))
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tSLUG\tNAME\tROLE\tSTATUS")
	for _, tenant := range tenants {
		marker := ""
		if active != nil && active.Slug == tenant.Slug {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", marker, tenant.Slug, tenant.DisplayName, tenant.BaseRole, tenant.Status)
	}
	return tw.Flush()
}
