package httpadapter

import (
	"context"
	"log/slog"
	"strings"

	application "tenantgate/contexts/identity-access/tenant-session/application"
	"tenantgate/contexts/identity-access/tenant-session/application/denials"
	"tenantgate/contexts/identity-access/tenant-session/application/presenter"
	"tenantgate/contexts/identity-access/tenant-session/application/shell"
	"tenantgate/contexts/identity-access/tenant-session/application/views"
	"tenantgate/contexts/identity-access/tenant-session/domain/entities"
	domainerrors "tenantgate/contexts/identity-access/tenant-session/domain/errors"
	httptransport "tenantgate/contexts/identity-access/tenant-session/transport/http"
)

// Handler maps BFF HTTP DTOs onto the per-session shell.
type Handler struct {
	Shells *shell.Manager
	Logger *slog.Logger
}

// OpenRouteHandler renders route for the session. userID comes from the
// upstream session guard and authenticates a shell that was not hydrated yet.
func (h Handler) OpenRouteHandler(
	ctx context.Context,
	sessionID string,
	userID string,
	route string,
) (httptransport.ViewResponse, error) {
	s, err := h.authenticatedShell(sessionID, userID)
	if err != nil {
		return httptransport.ViewResponse{}, err
	}

	view := s.Open(ctx, route, "")
	application.ResolveLogger(h.Logger).Debug("tenant route rendered",
		"event", "tenant_session_http_route_rendered",
		"module", "identity-access/tenant-session",
		"layer", "transport",
		"session_id", sessionID,
		"route", route,
		"kind", string(view.Kind),
	)
	return ViewToDTO(view), nil
}

func (h Handler) SessionHandler(_ context.Context, sessionID string) (httptransport.SessionResponse, error) {
	s, err := h.shellFor(sessionID)
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return SessionToDTO(s), nil
}

func (h Handler) RefreshTenantsHandler(ctx context.Context, sessionID string) (httptransport.RefreshTenantsResponse, error) {
	s, err := h.shellFor(sessionID)
	if err != nil {
		return httptransport.RefreshTenantsResponse{}, err
	}
	return httptransport.RefreshTenantsResponse{Tenants: TenantsToDTO(s.Store().RefreshTenants(ctx))}, nil
}

func (h Handler) HydrateHandler(ctx context.Context, sessionID string) (httptransport.HydrateResponse, error) {
	if strings.TrimSpace(sessionID) == "" || h.Shells == nil {
		return httptransport.HydrateResponse{}, domainerrors.ErrUnauthenticated
	}
	s := h.Shells.Get(sessionID)
	profile, err := s.Hydrate(ctx)
	if err != nil {
		application.ResolveLogger(h.Logger).Warn("session hydrate failed",
			"event", "tenant_session_http_hydrate_failed",
			"module", "identity-access/tenant-session",
			"layer", "transport",
			"session_id", sessionID,
			"error", err.Error(),
		)
		return httptransport.HydrateResponse{}, err
	}
	response := httptransport.HydrateResponse{
		User:                userToDTO(profile.User),
		LastTenantSlug:      profile.LastTenantSlug,
		PendingApplications: []httptransport.PendingApplicationDTO{},
		Session:             SessionToDTO(s),
	}
	for _, item := range profile.PendingApplications {
		response.PendingApplications = append(response.PendingApplications, httptransport.PendingApplicationDTO{
			TenantSlug:  item.TenantSlug,
			DisplayName: item.DisplayName,
			SubmittedAt: item.SubmittedAt,
		})
	}
	return response, nil
}

func (h Handler) LogoutHandler(_ context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return domainerrors.ErrUnauthenticated
	}
	h.Shells.Remove(sessionID)
	return nil
}

// ReportDenialHandler feeds a failed data fetch to the session's registry.
func (h Handler) ReportDenialHandler(
	ctx context.Context,
	sessionID string,
	userID string,
	request httptransport.ReportDenialRequest,
) (httptransport.ReportDenialResponse, error) {
	s, err := h.authenticatedShell(sessionID, userID)
	if err != nil {
		return httptransport.ReportDenialResponse{}, err
	}
	if strings.TrimSpace(request.Route) != "" {
		ctx = denials.WithRoute(ctx, request.Route)
	}
	denial := s.Report(ctx, &entities.APIError{
		Status:    request.Status,
		Code:      request.Code,
		Kind:      request.Kind,
		Message:   request.Message,
		RequestID: request.RequestID,
		Details:   request.Details,
	}, entities.Fallback{})
	if denial == nil {
		return httptransport.ReportDenialResponse{Denied: false}, nil
	}
	return httptransport.ReportDenialResponse{
		Denied:    true,
		Presented: s.Presenter().Denial() == denial,
		Denial:    denialToDTO(s.Presenter().Screen(denial)),
	}, nil
}

func (h Handler) CopySupportMessageHandler(ctx context.Context, sessionID string) (httptransport.CopyResponse, error) {
	s, err := h.shellFor(sessionID)
	if err != nil {
		return httptransport.CopyResponse{}, err
	}
	result, err := s.Presenter().CopySupportMessage(ctx)
	if err != nil {
		return httptransport.CopyResponse{}, err
	}
	return copyToDTO(result), nil
}

func (h Handler) CopyRequestIDHandler(ctx context.Context, sessionID string) (httptransport.CopyResponse, error) {
	s, err := h.shellFor(sessionID)
	if err != nil {
		return httptransport.CopyResponse{}, err
	}
	result, err := s.Presenter().CopyRequestID(ctx)
	if err != nil {
		return httptransport.CopyResponse{}, err
	}
	return copyToDTO(result), nil
}

// shellFor returns the existing shell of sessionID. Unknown sessions are
// unauthenticated; only hydrate or a guard-authenticated user creates shells.
func (h Handler) shellFor(sessionID string) (*shell.Shell, error) {
	if strings.TrimSpace(sessionID) == "" || h.Shells == nil {
		return nil, domainerrors.ErrUnauthenticated
	}
	s, ok := h.Shells.Lookup(sessionID)
	if !ok {
		return nil, domainerrors.ErrUnauthenticated
	}
	return s, nil
}

// authenticatedShell is shellFor, except that a user set by the upstream
// session guard creates the shell and authenticates it.
func (h Handler) authenticatedShell(sessionID string, userID string) (*shell.Shell, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return h.shellFor(sessionID)
	}
	if strings.TrimSpace(sessionID) == "" || h.Shells == nil {
		return nil, domainerrors.ErrUnauthenticated
	}
	s := h.Shells.Get(sessionID)
	if s.User() == nil {
		s.SetUser(entities.UserInfo{UserID: userID})
	}
	return s, nil
}

// ViewToDTO converts a rendered view into its JSON shape.
func ViewToDTO(view views.View) httptransport.ViewResponse {
	response := httptransport.ViewResponse{
		Kind:     string(view.Kind),
		Location: view.Location,
		Message:  view.Message,
		Slug:     view.Slug,
		Denial:   denialToDTO(view.Denial),
	}
	for _, action := range view.Actions {
		response.Actions = append(response.Actions, httptransport.ActionDTO{
			ID:    action.ID,
			Label: action.Label,
			Href:  action.Href,
		})
	}
	return response
}

func denialToDTO(screen *views.DenialScreen) *httptransport.DenialScreenDTO {
	if screen == nil {
		return nil
	}
	return &httptransport.DenialScreenDTO{
		Title:              screen.Title,
		Reason:             screen.Reason,
		Source:             screen.Source,
		Path:               screen.Path,
		RequestID:          screen.RequestID,
		Service:            screen.Service,
		Tenant:             screen.Tenant,
		RequiredPermission: screen.RequiredPermission,
	}
}

func SessionToDTO(s *shell.Shell) httptransport.SessionResponse {
	snapshot := s.Store().Snapshot()
	response := httptransport.SessionResponse{
		SessionID:        s.ID(),
		State:            string(snapshot.State),
		ErrorMessage:     snapshot.ErrorMessage,
		AvailableTenants: TenantsToDTO(snapshot.AvailableTenants),
	}
	if user := s.User(); user != nil {
		response.UserID = user.UserID
	}
	response.ActiveTenant = activeTenantToDTO(snapshot.ActiveTenant)
	return response
}

func activeTenantToDTO(active *entities.ActiveTenant) *httptransport.ActiveTenantDTO {
	if active == nil {
		return nil
	}
	return &httptransport.ActiveTenantDTO{
		TenantID:    active.TenantID,
		Slug:        active.Slug,
		DisplayName: active.DisplayName,
		BaseRole:    active.BaseRole,
	}
}

func TenantsToDTO(items []entities.TenantSummary) []httptransport.TenantSummaryDTO {
	out := make([]httptransport.TenantSummaryDTO, 0, len(items))
	for _, item := range items {
		out = append(out, httptransport.TenantSummaryDTO{
			TenantID:    item.TenantID,
			Slug:        item.Slug,
			DisplayName: item.DisplayName,
			Status:      item.Status,
			BaseRole:    item.BaseRole,
		})
	}
	return out
}

func userToDTO(user entities.UserInfo) httptransport.UserDTO {
	return httptransport.UserDTO{
		UserID:       user.UserID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		Capabilities: append([]string{}, user.Capabilities...),
	}
}

func copyToDTO(result presenter.CopyResult) httptransport.CopyResponse {
	return httptransport.CopyResponse{Text: result.Text, Copied: result.Copied}
}
