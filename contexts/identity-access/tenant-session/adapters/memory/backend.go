package memory

import (
	"context"
	"net/http"
	"sync"

	"tenantgate/contexts/identity-access/tenant-session/domain/entities"
	domainerrors "tenantgate/contexts/identity-access/tenant-session/domain/errors"
	"tenantgate/contexts/identity-access/tenant-session/ports"
)

// Backend is an in-memory tenant API implementing ports.TenantAPI.
// It is intended for tests and local development wiring.
type Backend struct {
	mu sync.Mutex

	authenticated bool
	user          entities.UserInfo
	memberships   map[string]entities.TenantSummary
	capabilities  map[string][]string
	pending       []ports.PendingApplication
	active        *entities.ActiveTenant
	lastSlug      string

	switchFailures map[string]error
	listFailure    error
	profileFailure error
	entryFailure   error

	switchCalls  map[string]int
	profileCalls int
}

// NewBackend builds a deterministic backend seeded with one member tenant
// ("aef") and one tenant the user does not belong to ("restricted").
func NewBackend() *Backend {
	b := &Backend{
		authenticated: true,
		user: entities.UserInfo{
			UserID:      "user-1",
			Email:       "member@example.com",
			DisplayName: "Member One",
		},
		memberships:    map[string]entities.TenantSummary{},
		capabilities:   map[string][]string{},
		switchFailures: map[string]error{},
		switchCalls:    map[string]int{},
	}
	b.AddMembership(entities.TenantSummary{
		TenantID:    "tenant-uuid-1",
		Slug:        "aef",
		DisplayName: "AEF Community",
		Status:      "active",
		BaseRole:    "member",
	}, "feed.view", "events.view")
	return b
}

func (b *Backend) AddMembership(summary entities.TenantSummary, capabilities ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.memberships[summary.Slug] = summary
	b.capabilities[summary.Slug] = append([]string(nil), capabilities...)
}

func (b *Backend) RemoveMemberships() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.memberships = map[string]entities.TenantSummary{}
	b.capabilities = map[string][]string{}
}

func (b *Backend) AddPendingApplication(application ports.PendingApplication) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, application)
}

// FailSwitch makes every switch to slug fail with err until cleared with nil.
func (b *Backend) FailSwitch(slug string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.switchFailures, slug)
		return
	}
	b.switchFailures[slug] = err
}

func (b *Backend) FailTenantList(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listFailure = err
}

func (b *Backend) FailProfile(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.profileFailure = err
}

func (b *Backend) FailEntryProfile(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entryFailure = err
}

// SignOut invalidates the session; every call then fails as unauthenticated.
func (b *Backend) SignOut() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.authenticated = false
	b.active = nil
}

func (b *Backend) SwitchCalls(slug string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.switchCalls[slug]
}

func (b *Backend) ProfileCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.profileCalls
}

func (b *Backend) SwitchTenant(_ context.Context, slug string) (ports.SwitchResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.switchCalls[slug]++
	if !b.authenticated {
		return ports.SwitchResult{}, unauthenticated()
	}
	if err, ok := b.switchFailures[slug]; ok {
		return ports.SwitchResult{}, err
	}
	membership, ok := b.memberships[slug]
	if !ok {
		return ports.SwitchResult{}, &entities.APIError{
			Status:  http.StatusForbidden,
			Code:    domainerrors.CodeTenantForbidden,
			Message: "Access denied to this tenant",
		}
	}

	active := entities.ActiveTenant{
		TenantID:    membership.TenantID,
		Slug:        membership.Slug,
		DisplayName: membership.DisplayName,
		BaseRole:    membership.BaseRole,
	}
	b.active = &active
	b.lastSlug = slug
	return ports.SwitchResult{ActiveTenant: active, RedirectHint: "/t/" + slug + "/"}, nil
}

func (b *Backend) FetchSessionTenants(_ context.Context) ([]entities.TenantSummary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.authenticated {
		return nil, unauthenticated()
	}
	if b.listFailure != nil {
		return nil, b.listFailure
	}
	return b.membershipList(), nil
}

func (b *Backend) FetchEntryProfile(_ context.Context) (ports.EntryProfile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.authenticated {
		return ports.EntryProfile{}, unauthenticated()
	}
	if b.entryFailure != nil {
		return ports.EntryProfile{}, b.entryFailure
	}
	profile := ports.EntryProfile{
		User:                b.userLocked(),
		Memberships:         b.membershipList(),
		LastTenantSlug:      b.lastSlug,
		PendingApplications: append([]ports.PendingApplication(nil), b.pending...),
	}
	if b.active != nil {
		active := *b.active
		profile.ActiveTenant = &active
	}
	return profile, nil
}

func (b *Backend) RefreshProfile(_ context.Context) (entities.UserInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.profileCalls++
	if !b.authenticated {
		return entities.UserInfo{}, unauthenticated()
	}
	if b.profileFailure != nil {
		return entities.UserInfo{}, b.profileFailure
	}
	return b.userLocked(), nil
}

func (b *Backend) userLocked() entities.UserInfo {
	user := b.user
	user.Capabilities = nil
	if b.active != nil {
		user.Capabilities = append([]string(nil), b.capabilities[b.active.Slug]...)
	}
	return user
}

func (b *Backend) membershipList() []entities.TenantSummary {
	items := make([]entities.TenantSummary, 0, len(b.memberships))
	for _, item := range b.memberships {
		items = append(items, item)
	}
	return items
}

func unauthenticated() error {
	return &entities.APIError{
		Status:  http.StatusUnauthorized,
		Code:    domainerrors.CodeUnauthenticated,
		Message: "Session expired",
	}
}
