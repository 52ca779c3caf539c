package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"tenantgate/contexts/identity-access/tenant-session/adapters/memory"
	"tenantgate/contexts/identity-access/tenant-session/domain/entities"
	domainerrors "tenantgate/contexts/identity-access/tenant-session/domain/errors"
	"tenantgate/contexts/identity-access/tenant-session/ports"
)

type recordedStates struct {
	mu       sync.Mutex
	outcomes []string
	refresh  int
}

func (r *recordedStates) SwitchOutcome(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}
func (r *recordedStates) RefreshFailed()         { r.refresh++ }
func (r *recordedStates) DenialEmitted(string)   {}
func (r *recordedStates) DenialPresented(string) {}

// observingAPI exposes the store state seen while the switch call is in flight.
type observingAPI struct {
	*memory.Backend
	store    *Store
	observed entities.TenantState
}

func (o *observingAPI) SwitchTenant(ctx context.Context, slug string) (ports.SwitchResult, error) {
	o.observed = o.store.State()
	return o.Backend.SwitchTenant(ctx, slug)
}

func TestSwitchTenantSuccessDrivesReady(t *testing.T) {
	api := &observingAPI{Backend: memory.NewBackend()}
	recorder := &recordedStates{}
	store := NewStore(api, nil, recorder)
	api.store = store

	if store.State() != entities.TenantStateIdle {
		t.Fatalf("expected idle initial state, got %s", store.State())
	}

	ok, err := store.SwitchTenant(context.Background(), "aef")
	if err != nil {
		t.Fatalf("switch failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected switch to report ready")
	}
	if api.observed != entities.TenantStateSwitching {
		t.Fatalf("expected switching during call, got %s", api.observed)
	}
	if store.State() != entities.TenantStateReady {
		t.Fatalf("expected ready, got %s", store.State())
	}
	active := store.ActiveTenant()
	if active == nil || active.Slug != "aef" || active.TenantID != "tenant-uuid-1" {
		t.Fatalf("unexpected active tenant %+v", active)
	}
	if len(recorder.outcomes) != 1 || recorder.outcomes[0] != OutcomeReady {
		t.Fatalf("unexpected outcomes %v", recorder.outcomes)
	}
}

func TestSwitchTenantForbiddenKeepsServerMessage(t *testing.T) {
	store := NewStore(memory.NewBackend(), nil, nil)

	ok, err := store.SwitchTenant(context.Background(), "restricted")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected false for forbidden tenant")
	}
	if store.State() != entities.TenantStateForbidden {
		t.Fatalf("expected forbidden, got %s", store.State())
	}
	if store.ErrorMessage() != "Access denied to this tenant" {
		t.Fatalf("unexpected message %q", store.ErrorMessage())
	}
}

func TestSwitchTenantForbiddenByStatusUsesDefaultMessage(t *testing.T) {
	backend := memory.NewBackend()
	backend.FailSwitch("aef", &entities.APIError{Status: 403})
	store := NewStore(backend, nil, nil)

	if ok, _ := store.SwitchTenant(context.Background(), "aef"); ok {
		t.Fatalf("expected false")
	}
	if store.State() != entities.TenantStateForbidden {
		t.Fatalf("expected forbidden, got %s", store.State())
	}
	if store.ErrorMessage() != DefaultForbiddenMessage {
		t.Fatalf("unexpected message %q", store.ErrorMessage())
	}
}

func TestSwitchTenantGenericFailureDrivesError(t *testing.T) {
	backend := memory.NewBackend()
	backend.FailSwitch("aef", &entities.APIError{Status: 500, Message: "Server exploded"})
	store := NewStore(backend, nil, nil)

	if ok, err := store.SwitchTenant(context.Background(), "aef"); ok || err != nil {
		t.Fatalf("expected (false, nil), got (%v, %v)", ok, err)
	}
	if store.State() != entities.TenantStateError {
		t.Fatalf("expected error state, got %s", store.State())
	}
	if store.ErrorMessage() != "Server exploded" {
		t.Fatalf("unexpected message %q", store.ErrorMessage())
	}

	backend.FailSwitch("aef", &entities.APIError{Status: 500})
	store.SwitchTenant(context.Background(), "aef")
	if store.ErrorMessage() != DefaultSwitchErrorMessage {
		t.Fatalf("expected fallback message, got %q", store.ErrorMessage())
	}

	backend.FailSwitch("aef", errors.New("dial tcp: connection refused"))
	store.SwitchTenant(context.Background(), "aef")
	if store.ErrorMessage() != DefaultSwitchErrorMessage {
		t.Fatalf("raw transport text must not surface, got %q", store.ErrorMessage())
	}
}

func TestSwitchTenantClearsPreviousMessage(t *testing.T) {
	store := NewStore(memory.NewBackend(), nil, nil)
	store.SwitchTenant(context.Background(), "restricted")
	if store.ErrorMessage() == "" {
		t.Fatalf("expected forbidden message")
	}
	if ok, _ := store.SwitchTenant(context.Background(), "aef"); !ok {
		t.Fatalf("expected second switch to succeed")
	}
	if store.ErrorMessage() != "" {
		t.Fatalf("expected message cleared, got %q", store.ErrorMessage())
	}
}

func TestSwitchTenantUnauthenticatedReturnsError(t *testing.T) {
	backend := memory.NewBackend()
	backend.SignOut()
	store := NewStore(backend, nil, nil)

	ok, err := store.SwitchTenant(context.Background(), "aef")
	if ok {
		t.Fatalf("expected false")
	}
	if !errors.Is(err, domainerrors.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated error, got %v", err)
	}
	if store.State() != entities.TenantStateIdle {
		t.Fatalf("unauthenticated must not settle into a failure state, got %s", store.State())
	}
}

func TestSwitchTenantRejectsEmptySlug(t *testing.T) {
	backend := memory.NewBackend()
	store := NewStore(backend, nil, nil)
	if _, err := store.SwitchTenant(context.Background(), "  "); !errors.Is(err, domainerrors.ErrInvalidSlug) {
		t.Fatalf("expected invalid slug, got %v", err)
	}
	if store.State() != entities.TenantStateIdle {
		t.Fatalf("state must be untouched")
	}
}

func TestRefreshTenantsReplacesListWholesale(t *testing.T) {
	backend := memory.NewBackend()
	store := NewStore(backend, nil, nil)
	store.SetAvailableTenants([]entities.TenantSummary{{TenantID: "stale", Slug: "stale"}})
	store.SetState(entities.TenantStateForbidden)

	items := store.RefreshTenants(context.Background())
	if len(items) != 1 || items[0].Slug != "aef" {
		t.Fatalf("unexpected refreshed tenants %+v", items)
	}
	if got := store.AvailableTenants(); len(got) != 1 || got[0].Slug != "aef" {
		t.Fatalf("expected stored list replaced, got %+v", got)
	}
	if store.State() != entities.TenantStateForbidden {
		t.Fatalf("refresh must not change state")
	}
}

// cancelAwareAPI fails tenant fetches whose context is already done.
type cancelAwareAPI struct {
	*memory.Backend
}

func (c cancelAwareAPI) FetchSessionTenants(ctx context.Context) ([]entities.TenantSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.Backend.FetchSessionTenants(ctx)
}

func TestRefreshTenantsIgnoresCallerCancellation(t *testing.T) {
	recorder := &recordedStates{}
	store := NewStore(cancelAwareAPI{memory.NewBackend()}, nil, recorder)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := store.RefreshTenants(ctx)
	if len(items) != 1 || items[0].Slug != "aef" {
		t.Fatalf("expected the shared fetch to outlive the caller, got %+v", items)
	}
	if recorder.refresh != 0 {
		t.Fatalf("a cancelled caller must not record a refresh failure")
	}
}

func TestRefreshTenantsFailureReturnsEmptyList(t *testing.T) {
	backend := memory.NewBackend()
	backend.FailTenantList(&entities.APIError{Status: 503})
	recorder := &recordedStates{}
	store := NewStore(backend, nil, recorder)
	store.SetAvailableTenants([]entities.TenantSummary{{TenantID: "kept", Slug: "kept"}})
	store.SetState(entities.TenantStateReady)

	items := store.RefreshTenants(context.Background())
	if len(items) != 0 {
		t.Fatalf("expected empty list, got %+v", items)
	}
	if store.State() != entities.TenantStateReady {
		t.Fatalf("refresh failure must not change state, got %s", store.State())
	}
	if got := store.AvailableTenants(); len(got) != 1 {
		t.Fatalf("refresh failure must keep the previous list, got %+v", got)
	}
	if recorder.refresh != 1 {
		t.Fatalf("expected refresh failure recorded")
	}
}

func TestHydrateSeedsMembershipsAndNoMemberships(t *testing.T) {
	backend := memory.NewBackend()
	store := NewStore(backend, nil, nil)

	profile, err := store.Hydrate(context.Background())
	if err != nil {
		t.Fatalf("hydrate failed: %v", err)
	}
	if profile.User.UserID != "user-1" {
		t.Fatalf("unexpected user %+v", profile.User)
	}
	if store.State() != entities.TenantStateIdle || len(store.AvailableTenants()) != 1 {
		t.Fatalf("unexpected hydrated snapshot %+v", store.Snapshot())
	}

	backend.RemoveMemberships()
	if _, err := store.Hydrate(context.Background()); err != nil {
		t.Fatalf("hydrate failed: %v", err)
	}
	if store.State() != entities.TenantStateNoMemberships {
		t.Fatalf("expected no-memberships, got %s", store.State())
	}
}

func TestHydrateAdoptsServerActiveTenant(t *testing.T) {
	backend := memory.NewBackend()
	if _, err := backend.SwitchTenant(context.Background(), "aef"); err != nil {
		t.Fatalf("seed switch failed: %v", err)
	}
	store := NewStore(backend, nil, nil)

	if _, err := store.Hydrate(context.Background()); err != nil {
		t.Fatalf("hydrate failed: %v", err)
	}
	if store.State() != entities.TenantStateReady {
		t.Fatalf("expected ready, got %s", store.State())
	}
	if active := store.ActiveTenant(); active == nil || active.Slug != "aef" {
		t.Fatalf("unexpected active tenant %+v", active)
	}
}

func TestSettersAndReset(t *testing.T) {
	store := NewStore(memory.NewBackend(), nil, nil)
	store.SetActiveTenant(&entities.ActiveTenant{TenantID: "t-1", Slug: "aef"})
	store.SetState(entities.TenantStateReady)
	store.SetState(entities.TenantState("bogus"))
	store.SetAvailableTenants([]entities.TenantSummary{
		{TenantID: "t-1", Slug: "aef", DisplayName: "old"},
		{TenantID: "t-1", Slug: "aef", DisplayName: "new"},
	})

	snapshot := store.Snapshot()
	if snapshot.State != entities.TenantStateReady {
		t.Fatalf("invalid state must be ignored, got %s", snapshot.State)
	}
	if len(snapshot.AvailableTenants) != 1 || snapshot.AvailableTenants[0].DisplayName != "new" {
		t.Fatalf("expected tenant ids deduplicated, got %+v", snapshot.AvailableTenants)
	}

	snapshot.ActiveTenant.Slug = "mutated"
	if store.ActiveTenant().Slug != "aef" {
		t.Fatalf("snapshot must be a copy")
	}

	store.Reset()
	if store.ActiveTenant() != nil || store.State() != entities.TenantStateIdle || len(store.AvailableTenants()) != 0 {
		t.Fatalf("expected initial state after reset, got %+v", store.Snapshot())
	}
}
