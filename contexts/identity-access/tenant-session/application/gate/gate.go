package gate

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	application "tenantgate/contexts/identity-access/tenant-session/application"
	"tenantgate/contexts/identity-access/tenant-session/application/views"
	"tenantgate/contexts/identity-access/tenant-session/domain/entities"
	domainerrors "tenantgate/contexts/identity-access/tenant-session/domain/errors"
	"tenantgate/contexts/identity-access/tenant-session/ports"
)

const (
	DefaultLoginPath   = "/login"
	DefaultChooserPath = "/tenants"

	DefaultForbiddenMessage = "You do not have access to this tenant."
	DefaultErrorMessage     = "Something went wrong while opening this tenant."
)

// Switcher is the slice of the tenant session store the gate drives.
type Switcher interface {
	SwitchTenant(ctx context.Context, slug string) (bool, error)
	ActiveTenant() *entities.ActiveTenant
	State() entities.TenantState
	ErrorMessage() string
}

// RouteInput is what the router knows when a tenant route renders.
// User is nil until the session guard upstream has authenticated the request.
type RouteInput struct {
	Slug string
	Path string
	User *entities.UserInfo
}

type Config struct {
	LoginPath   string
	ChooserPath string
	Logger      *slog.Logger
	// OnProfile receives the rehydrated profile after a switch.
	OnProfile func(entities.UserInfo)
}

// Gate binds a route's tenant slug to the session store. At most one switch
// per slug is in flight, and a slug that settled is not retried until the
// slug changes.
type Gate struct {
	switcher    Switcher
	profiles    ports.ProfileRefresher
	loginPath   string
	chooserPath string
	logger      *slog.Logger
	onProfile   func(entities.UserInfo)

	mu       sync.Mutex
	slug     string
	state    entities.TenantState
	message  string
	inFlight map[string]struct{}
}

func New(switcher Switcher, profiles ports.ProfileRefresher, cfg Config) *Gate {
	loginPath := strings.TrimSpace(cfg.LoginPath)
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	chooserPath := strings.TrimSpace(cfg.ChooserPath)
	if chooserPath == "" {
		chooserPath = DefaultChooserPath
	}
	return &Gate{
		switcher:    switcher,
		profiles:    profiles,
		loginPath:   loginPath,
		chooserPath: chooserPath,
		logger:      application.ResolveLogger(cfg.Logger),
		onProfile:   cfg.OnProfile,
		state:       entities.TenantStateIdle,
		inFlight:    map[string]struct{}{},
	}
}

// Render evaluates the gate for one render of a tenant route. When a switch
// is needed it runs in the calling goroutine; renders that arrive while it is
// in flight get the loading view.
func (g *Gate) Render(ctx context.Context, in RouteInput) views.View {
	slug := entities.NormalizeSlug(in.Slug)
	if slug == "" {
		return views.Redirect(g.chooserPath)
	}
	if in.User == nil {
		return views.None()
	}

	g.mu.Lock()
	if slug != g.slug {
		g.slug = slug
		g.state = entities.TenantStateIdle
		g.message = ""
	}

	active := g.switcher.ActiveTenant()
	activeMatches := active != nil && entities.NormalizeSlug(active.Slug) == slug
	if g.state == entities.TenantStateReady && !activeMatches {
		// The session moved to another tenant underneath this route.
		g.state = entities.TenantStateIdle
	}
	_, switching := g.inFlight[slug]

	switch {
	case activeMatches && g.state == entities.TenantStateReady:
		g.mu.Unlock()
		return views.Ready(slug, nil)
	case activeMatches && g.state == entities.TenantStateIdle:
		g.state = entities.TenantStateReady
		g.mu.Unlock()
		g.rehydrate(ctx, slug)
		return views.Ready(slug, nil)
	case g.state.Terminal():
		view := g.viewLocked()
		g.mu.Unlock()
		return view
	case switching:
		g.state = entities.TenantStateSwitching
		g.mu.Unlock()
		return views.Loading(slug)
	}

	g.inFlight[slug] = struct{}{}
	g.state = entities.TenantStateSwitching
	g.message = ""
	g.mu.Unlock()

	return g.runSwitch(ctx, slug, in.Path)
}

// Snapshot returns the gate's local slug and state.
func (g *Gate) Snapshot() (string, entities.TenantState, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.slug, g.state, g.message
}

// Reset forgets every settled slug, e.g. after logout.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.slug = ""
	g.state = entities.TenantStateIdle
	g.message = ""
}

func (g *Gate) runSwitch(ctx context.Context, slug string, path string) views.View {
	defer func() {
		g.mu.Lock()
		delete(g.inFlight, slug)
		g.mu.Unlock()
	}()

	ok, err := g.switcher.SwitchTenant(ctx, slug)
	if err != nil {
		switch {
		case entities.ErrorCode(err) == domainerrors.CodeUnauthenticated || errors.Is(err, domainerrors.ErrUnauthenticated):
			g.commit(slug, entities.TenantStateIdle, "")
			g.logger.Info("tenant gate redirecting to login",
				"event", "tenant_gate_login_redirect",
				"module", "identity-access/tenant-session",
				"layer", "application",
				"slug", slug,
			)
			return views.Redirect(g.loginLocation(path))
		case entities.ErrorCode(err) == domainerrors.CodeTenantForbidden:
			message := messageOr(entities.ErrorMessage(err), DefaultForbiddenMessage)
			g.commit(slug, entities.TenantStateForbidden, message)
			return g.forbiddenView(slug, message)
		default:
			message := messageOr(entities.ErrorMessage(err), DefaultErrorMessage)
			g.commit(slug, entities.TenantStateError, message)
			g.logger.Error("tenant gate switch failed",
				"event", "tenant_gate_switch_failed",
				"module", "identity-access/tenant-session",
				"layer", "application",
				"slug", slug,
				"error", err.Error(),
			)
			return g.errorView(slug, message)
		}
	}

	if !ok {
		// The store settled a generic failure as error; keep its retry affordance.
		if g.switcher.State() == entities.TenantStateError {
			message := messageOr(g.switcher.ErrorMessage(), DefaultErrorMessage)
			g.commit(slug, entities.TenantStateError, message)
			return g.errorView(slug, message)
		}
		message := messageOr(g.switcher.ErrorMessage(), DefaultForbiddenMessage)
		g.commit(slug, entities.TenantStateForbidden, message)
		return g.forbiddenView(slug, message)
	}

	g.rehydrate(ctx, slug)
	g.commit(slug, entities.TenantStateReady, "")
	return views.Ready(slug, nil)
}

// commit applies a settled outcome unless the gate has moved to another slug.
func (g *Gate) commit(slug string, state entities.TenantState, message string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.slug != slug {
		g.logger.Debug("discarding stale tenant switch result",
			"event", "tenant_gate_stale_result_discarded",
			"module", "identity-access/tenant-session",
			"layer", "application",
			"slug", slug,
			"current_slug", g.slug,
			"state", string(state),
		)
		return
	}
	g.state = state
	g.message = message
}

func (g *Gate) rehydrate(ctx context.Context, slug string) {
	if g.profiles == nil {
		return
	}
	profile, err := g.profiles.RefreshProfile(ctx)
	if err != nil {
		g.logger.Warn("profile rehydration failed",
			"event", "tenant_gate_profile_refresh_failed",
			"module", "identity-access/tenant-session",
			"layer", "application",
			"slug", slug,
			"error", err.Error(),
		)
		return
	}
	if g.onProfile != nil {
		g.onProfile(profile)
	}
}

func (g *Gate) viewLocked() views.View {
	switch g.state {
	case entities.TenantStateReady:
		return views.Ready(g.slug, nil)
	case entities.TenantStateForbidden:
		return g.forbiddenView(g.slug, g.message)
	case entities.TenantStateError:
		return g.errorView(g.slug, g.message)
	default:
		return views.Loading(g.slug)
	}
}

func (g *Gate) forbiddenView(slug string, message string) views.View {
	return views.View{
		Kind:    views.KindForbidden,
		Slug:    slug,
		Message: message,
		Actions: []views.Action{{ID: "choose-tenant", Label: "Choose another tenant", Href: g.chooserPath}},
	}
}

func (g *Gate) errorView(slug string, message string) views.View {
	return views.View{
		Kind:    views.KindError,
		Slug:    slug,
		Message: message,
		Actions: []views.Action{{ID: "retry", Label: "Try again", Href: g.chooserPath}},
	}
}

func (g *Gate) loginLocation(path string) string {
	if strings.TrimSpace(path) == "" {
		return g.loginPath
	}
	return g.loginPath + "?next=" + url.QueryEscape(path)
}

func messageOr(message string, fallback string) string {
	if value := strings.TrimSpace(message); value != "" {
		return value
	}
	return fallback
}
