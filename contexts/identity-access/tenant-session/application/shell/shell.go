package shell

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	application "tenantgate/contexts/identity-access/tenant-session/application"
	"tenantgate/contexts/identity-access/tenant-session/application/denials"
	"tenantgate/contexts/identity-access/tenant-session/application/gate"
	"tenantgate/contexts/identity-access/tenant-session/application/presenter"
	"tenantgate/contexts/identity-access/tenant-session/application/session"
	"tenantgate/contexts/identity-access/tenant-session/application/views"
	"tenantgate/contexts/identity-access/tenant-session/domain/entities"
	"tenantgate/contexts/identity-access/tenant-session/ports"
)

// TenantRoutePrefix marks routes nested under a tenant slug, e.g. /t/aef/feed.
const TenantRoutePrefix = "/t/"

type Dependencies struct {
	API ports.TenantAPI
	// APIFactory, when set, builds a session-bound API for each shell the
	// Manager creates and takes precedence over API.
	APIFactory func(sessionID string) ports.TenantAPI
	Clipboard ports.Clipboard
	Journal   ports.DenialJournal
	IDs       ports.IDGenerator
	Clock     ports.Clock
	Recorder  ports.Recorder
	Logger    *slog.Logger

	LoginPath   string
	ChooserPath string
	HomePath    string
	// IdleTTL bounds how long the Manager keeps a shell without requests.
	IdleTTL time.Duration
}

// Shell is the application-root context of one authenticated session. It owns
// the session store and the denial registry and hands them to the gate and
// the presenter; nothing else writes tenant state.
type Shell struct {
	id        string
	store     *session.Store
	registry  *denials.Registry
	gate      *gate.Gate
	presenter *presenter.Presenter
	logger    *slog.Logger

	mu          sync.RWMutex
	user        *entities.UserInfo
	unsubscribe func()
}

func New(sessionID string, deps Dependencies) *Shell {
	logger := application.ResolveLogger(deps.Logger)
	s := &Shell{
		id:     sessionID,
		store:  session.NewStore(deps.API, logger, deps.Recorder),
		logger: logger,
	}
	s.presenter = presenter.New(presenter.Config{
		HomePath:    deps.HomePath,
		ChooserPath: deps.ChooserPath,
		Clipboard:   deps.Clipboard,
		Journal:     deps.Journal,
		IDs:         deps.IDs,
		Clock:       deps.Clock,
		Recorder:    deps.Recorder,
		Logger:      logger,
		Identity:    s.identity,
	})
	s.registry = denials.NewRegistry(
		denials.WithLocation(s.presenter.Route),
		denials.WithLogger(logger),
		denials.WithRecorder(deps.Recorder),
	)
	s.gate = gate.New(s.store, deps.API, gate.Config{
		LoginPath:   deps.LoginPath,
		ChooserPath: deps.ChooserPath,
		Logger:      logger,
		OnProfile:   s.SetUser,
	})
	s.unsubscribe = s.registry.Subscribe(s.presenter.Listen)
	return s
}

func (s *Shell) ID() string { return s.id }
func (s *Shell) Store() *session.Store { return s.store }
func (s *Shell) Registry() *denials.Registry { return s.registry }
func (s *Shell) Presenter() *presenter.Presenter { return s.presenter }
func (s *Shell) Gate() *gate.Gate { return s.gate }

// User returns a copy of the authenticated user, or nil.
func (s *Shell) User() *entities.UserInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	user := *s.user
	user.Capabilities = append([]string(nil), s.user.Capabilities...)
	return &user
}

func (s *Shell) SetUser(user entities.UserInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
}

// Hydrate loads the entry profile and authenticates the shell with its user.
func (s *Shell) Hydrate(ctx context.Context) (ports.EntryProfile, error) {
	profile, err := s.store.Hydrate(ctx)
	if err != nil {
		return ports.EntryProfile{}, err
	}
	s.SetUser(profile.User)
	return profile, nil
}

// Open renders route. Tenant routes go through the gate; every route goes
// through the presenter so a denial for it replaces the content.
func (s *Shell) Open(ctx context.Context, route string, title string) views.View {
	s.presenter.Navigate(route, title)
	ctx = denials.WithRoute(ctx, route)

	slug, tenantRoute := SlugFromRoute(route)
	content := views.Ready("", nil)
	if tenantRoute {
		content = s.gate.Render(ctx, gate.RouteInput{Slug: slug, Path: route, User: s.User()})
	}
	return s.presenter.Render(content)
}

// Report hands a data-fetch failure to the registry. Non-denials are ignored
// and nil is returned.
func (s *Shell) Report(ctx context.Context, err error, fallback entities.Fallback) *entities.AccessDenied {
	if fallback.Tenant == nil {
		if active := s.store.ActiveTenant(); active != nil {
			fallback.Tenant = &entities.TenantRef{ID: active.TenantID, Slug: active.Slug, Name: active.DisplayName}
		}
	}
	return s.registry.Report(ctx, err, fallback)
}

// Logout returns every component to its initial state. The presenter stays
// subscribed.
func (s *Shell) Logout() {
	s.store.Reset()
	s.gate.Reset()
	s.presenter.Reset()
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	s.logger.Info("tenant session logged out",
		"event", "tenant_session_logged_out",
		"module", "identity-access/tenant-session",
		"layer", "application",
		"session_id", s.id,
	)
}

// Close detaches the presenter from the registry.
func (s *Shell) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (s *Shell) identity() presenter.Identity {
	identity := presenter.Identity{SessionID: s.id}
	if user := s.User(); user != nil {
		identity.UserID = user.UserID
	}
	return identity
}

// SlugFromRoute extracts the tenant slug of a /t/{slug}/... route. The second
// result is false for routes outside the tenant tree.
func SlugFromRoute(route string) (string, bool) {
	path := route
	if parsed, err := url.Parse(route); err == nil {
		path = parsed.Path
	}
	if path == strings.TrimSuffix(TenantRoutePrefix, "/") {
		return "", true
	}
	if !strings.HasPrefix(path, TenantRoutePrefix) {
		return "", false
	}
	rest := strings.TrimPrefix(path, TenantRoutePrefix)
	slug, _, _ := strings.Cut(rest, "/")
	return slug, true
}
