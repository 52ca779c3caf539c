package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	application "tenantgate/contexts/identity-access/tenant-session/application"
	"tenantgate/contexts/identity-access/tenant-session/domain/entities"
	domainerrors "tenantgate/contexts/identity-access/tenant-session/domain/errors"
	"tenantgate/contexts/identity-access/tenant-session/ports"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultForbiddenMessage   = "You do not have access to this tenant."
	DefaultSwitchErrorMessage = "We could not switch to this tenant. Please try again."
	DefaultHydrateMessage     = "We could not load your tenants. Please try again."
)

// RefreshTimeout bounds a shared tenant-list fetch. The fetch is detached from
// the cancellation of the caller that started it.
const RefreshTimeout = 10 * time.Second

const (
	OutcomeReady           = "ready"
	OutcomeForbidden       = "forbidden"
	OutcomeError           = "error"
	OutcomeUnauthenticated = "unauthenticated"
)

// Snapshot is a consistent copy of the store read model.
type Snapshot struct {
	State            entities.TenantState
	ErrorMessage     string
	ActiveTenant     *entities.ActiveTenant
	AvailableTenants []entities.TenantSummary
	RequestedSlug    string
}

// Store is the single writer of the session's active tenant, tenant list and
// tenant state.
//
// Network operations (switch, refresh, hydrate) run one at a time under opMu;
// readers only take mu and never wait on the network.
type Store struct {
	api      ports.TenantAPI
	logger   *slog.Logger
	recorder ports.Recorder

	opMu    sync.Mutex
	refresh singleflight.Group

	mu            sync.RWMutex
	state         entities.TenantState
	errorMessage  string
	activeTenant  *entities.ActiveTenant
	tenants       []entities.TenantSummary
	requestedSlug string
}

func NewStore(api ports.TenantAPI, logger *slog.Logger, recorder ports.Recorder) *Store {
	return &Store{
		api:      api,
		logger:   application.ResolveLogger(logger),
		recorder: recorder,
		state:    entities.TenantStateIdle,
		tenants:  []entities.TenantSummary{},
	}
}

// SwitchTenant asks the backend to bind slug to the session and records the
// classified outcome. It reports true only when the session is now ready.
// A non-nil error is returned only for unauthenticated sessions, which callers
// resolve by redirecting to login. Concurrent calls are not deduplicated.
func (s *Store) SwitchTenant(ctx context.Context, slug string) (bool, error) {
	slug = entities.NormalizeSlug(slug)
	if slug == "" {
		return false, domainerrors.ErrInvalidSlug
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	s.state = entities.TenantStateSwitching
	s.errorMessage = ""
	s.requestedSlug = slug
	s.mu.Unlock()

	result, err := s.api.SwitchTenant(ctx, slug)
	if err == nil {
		active := result.ActiveTenant
		if strings.TrimSpace(active.Slug) == "" {
			active.Slug = slug
		}
		s.mu.Lock()
		s.state = entities.TenantStateReady
		s.activeTenant = &active
		s.mu.Unlock()

		s.record(OutcomeReady)
		s.logger.Info("tenant switch completed",
			"event", "tenant_session_switch_completed",
			"module", "identity-access/tenant-session",
			"layer", "application",
			"slug", slug,
			"tenant_id", active.TenantID,
			"redirect_hint", result.RedirectHint,
		)
		return true, nil
	}

	var apiErr *entities.APIError
	isAPIErr := errors.As(err, &apiErr)

	switch {
	case isAPIErr && apiErr.IsUnauthenticated():
		s.mu.Lock()
		s.state = entities.TenantStateIdle
		s.mu.Unlock()
		s.record(OutcomeUnauthenticated)
		s.logger.Warn("tenant switch rejected: session unauthenticated",
			"event", "tenant_session_switch_unauthenticated",
			"module", "identity-access/tenant-session",
			"layer", "application",
			"slug", slug,
		)
		return false, err
	case isAPIErr && apiErr.IsTenantForbidden():
		s.settleFailure(entities.TenantStateForbidden, messageOr(apiErr.Message, DefaultForbiddenMessage))
		s.record(OutcomeForbidden)
		s.logger.Warn("tenant switch forbidden",
			"event", "tenant_session_switch_forbidden",
			"module", "identity-access/tenant-session",
			"layer", "application",
			"slug", slug,
			"request_id", apiErr.RequestID,
		)
		return false, nil
	default:
		message := DefaultSwitchErrorMessage
		if isAPIErr {
			message = messageOr(apiErr.Message, DefaultSwitchErrorMessage)
		}
		s.settleFailure(entities.TenantStateError, message)
		s.record(OutcomeError)
		s.logger.Error("tenant switch failed",
			"event", "tenant_session_switch_failed",
			"module", "identity-access/tenant-session",
			"layer", "application",
			"slug", slug,
			"error", err.Error(),
		)
		return false, nil
	}
}

// RefreshTenants replaces the tenant list wholesale. Failures are logged and
// yield an empty list; the tenant state is never changed.
func (s *Store) RefreshTenants(ctx context.Context) []entities.TenantSummary {
	value, _, _ := s.refresh.Do("tenants", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), RefreshTimeout)
		defer cancel()

		s.opMu.Lock()
		defer s.opMu.Unlock()

		items, err := s.api.FetchSessionTenants(fetchCtx)
		if err != nil {
			if s.recorder != nil {
				s.recorder.RefreshFailed()
			}
			s.logger.Warn("tenant list refresh failed",
				"event", "tenant_session_refresh_failed",
				"module", "identity-access/tenant-session",
				"layer", "application",
				"error", err.Error(),
			)
			return []entities.TenantSummary{}, nil
		}

		items = entities.DedupeTenants(items)
		s.mu.Lock()
		s.tenants = items
		s.mu.Unlock()
		return items, nil
	})

	items, _ := value.([]entities.TenantSummary)
	return append([]entities.TenantSummary{}, items...)
}

// Hydrate seeds the store from the entry profile without going through the
// switch protocol.
func (s *Store) Hydrate(ctx context.Context) (ports.EntryProfile, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	s.state = entities.TenantStateLoading
	s.errorMessage = ""
	s.mu.Unlock()

	profile, err := s.api.FetchEntryProfile(ctx)
	if err != nil {
		var apiErr *entities.APIError
		if errors.As(err, &apiErr) && apiErr.IsUnauthenticated() {
			s.mu.Lock()
			s.state = entities.TenantStateIdle
			s.mu.Unlock()
			return ports.EntryProfile{}, err
		}
		s.settleFailure(entities.TenantStateError, DefaultHydrateMessage)
		s.logger.Error("entry profile hydration failed",
			"event", "tenant_session_hydrate_failed",
			"module", "identity-access/tenant-session",
			"layer", "application",
			"error", err.Error(),
		)
		return ports.EntryProfile{}, err
	}

	tenants := entities.DedupeTenants(profile.Memberships)
	s.mu.Lock()
	s.tenants = tenants
	switch {
	case profile.ActiveTenant != nil:
		active := *profile.ActiveTenant
		s.activeTenant = &active
		s.requestedSlug = active.Slug
		s.state = entities.TenantStateReady
	case len(tenants) == 0:
		s.state = entities.TenantStateNoMemberships
	default:
		s.state = entities.TenantStateIdle
	}
	state := s.state
	s.mu.Unlock()

	s.logger.Info("entry profile hydrated",
		"event", "tenant_session_hydrated",
		"module", "identity-access/tenant-session",
		"layer", "application",
		"user_id", profile.User.UserID,
		"membership_count", len(tenants),
		"state", string(state),
	)
	return profile, nil
}

func (s *Store) SetActiveTenant(active *entities.ActiveTenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if active == nil {
		s.activeTenant = nil
		return
	}
	value := *active
	s.activeTenant = &value
}

func (s *Store) SetAvailableTenants(items []entities.TenantSummary) {
	deduped := entities.DedupeTenants(items)
	s.mu.Lock()
	s.tenants = deduped
	s.mu.Unlock()
}

// SetState forces the state; unknown states are ignored.
func (s *Store) SetState(state entities.TenantState) {
	if !state.Valid() {
		s.logger.Warn("ignoring unknown tenant state",
			"event", "tenant_session_state_invalid",
			"module", "identity-access/tenant-session",
			"layer", "application",
			"state", string(state),
		)
		return
	}
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Reset returns the store to its initial tenantless state (logout).
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = entities.TenantStateIdle
	s.errorMessage = ""
	s.activeTenant = nil
	s.tenants = []entities.TenantSummary{}
	s.requestedSlug = ""
}

func (s *Store) State() entities.TenantState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) ErrorMessage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errorMessage
}

func (s *Store) ActiveTenant() *entities.ActiveTenant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeTenant == nil {
		return nil
	}
	value := *s.activeTenant
	return &value
}

func (s *Store) AvailableTenants() []entities.TenantSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.TenantSummary{}, s.tenants...)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := Snapshot{
		State:            s.state,
		ErrorMessage:     s.errorMessage,
		AvailableTenants: append([]entities.TenantSummary{}, s.tenants...),
		RequestedSlug:    s.requestedSlug,
	}
	if s.activeTenant != nil {
		value := *s.activeTenant
		out.ActiveTenant = &value
	}
	return out
}

func (s *Store) settleFailure(state entities.TenantState, message string) {
	s.mu.Lock()
	s.state = state
	s.errorMessage = message
	s.mu.Unlock()
}

func (s *Store) record(outcome string) {
	if s.recorder != nil {
		s.recorder.SwitchOutcome(outcome)
	}
}

func messageOr(message string, fallback string) string {
	if value := strings.TrimSpace(message); value != "" {
		return value
	}
	return fallback
}
