package cmd

import (
	"context"
	"log/slog"
	"net/http"

	httpadapter "tenantgate/contexts/identity-access/tenant-session/adapters/http"
	"tenantgate/contexts/identity-access/tenant-session/application/shell"
	"tenantgate/contexts/identity-access/tenant-session/ports"

	"github.com/spf13/cobra"
)

// newTenantAPI builds the upstream client; tests replace it.
var newTenantAPI = func(server string, cookie string, session string, logger *slog.Logger) ports.TenantAPI {
	return httpadapter.NewClient(server,
		httpadapter.WithHTTPClient(&http.Client{Timeout: timeoutFlag}),
		httpadapter.WithSession(cookie, session),
		httpadapter.WithClientLogger(logger),
	)
}

// openShell builds a terminal shell for the configured session and hydrates it.
func openShell(ctx context.Context, cmd *cobra.Command) (*shell.Shell, ports.EntryProfile, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, ports.EntryProfile{}, err
	}
	server, err := resolveServer(cfg)
	if err != nil {
		return nil, ports.EntryProfile{}, err
	}
	session, err := resolveSession(cfg)
	if err != nil {
		return nil, ports.EntryProfile{}, err
	}
	cookie := cfg.SessionCookie
	if cookie == "" {
		cookie = httpadapter.DefaultSessionCookie
	}

	logger := cliLogger(cmd.ErrOrStderr())
	s := shell.New(session, shell.Dependencies{
		API:         newTenantAPI(server, cookie, session, logger),
		Logger:      logger,
		LoginPath:   cfg.LoginPath,
		ChooserPath: cfg.ChooserPath,
	})
	profile, err := s.Hydrate(ctx)
	if err != nil {
		s.Close()
		return nil, ports.EntryProfile{}, describeError(err)
	}
	return s, profile, nil
}
