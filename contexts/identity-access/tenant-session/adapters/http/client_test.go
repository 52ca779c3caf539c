package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tenantgate/contexts/identity-access/tenant-session/application/session"
	"tenantgate/contexts/identity-access/tenant-session/domain/entities"
	domainerrors "tenantgate/contexts/identity-access/tenant-session/domain/errors"
)

func newUpstream(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestClientSwitchTenantForwardsSessionAndDecodes(t *testing.T) {
	var gotCookie, gotSlug string
	server := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != switchTenantPath || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if cookie, err := r.Cookie("sid"); err == nil {
			gotCookie = cookie.Value
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotSlug = body["slug"]
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"active_tenant":{"tenant_id":"tenant-uuid-1","slug":"aef","display_name":"AEF"},"redirect_to":"/t/aef/"}`))
	})

	client := NewClient(server.URL, WithSession("sid", "sess-1"))
	result, err := client.SwitchTenant(context.Background(), "aef")
	if err != nil {
		t.Fatalf("switch failed: %v", err)
	}
	if gotCookie != "sess-1" || gotSlug != "aef" {
		t.Fatalf("unexpected forwarded request cookie=%q slug=%q", gotCookie, gotSlug)
	}
	if result.ActiveTenant.TenantID != "tenant-uuid-1" || result.RedirectHint != "/t/aef/" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestClientDecodesTenantForbiddenBody(t *testing.T) {
	server := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":"TENANT_FORBIDDEN","message":"Access denied to this tenant","request_id":"req-9"}`))
	})

	store := session.NewStore(NewClient(server.URL), nil, nil)
	ok, err := store.SwitchTenant(context.Background(), "restricted")
	if ok || err != nil {
		t.Fatalf("expected (false, nil), got (%v, %v)", ok, err)
	}
	if store.State() != entities.TenantStateForbidden || store.ErrorMessage() != "Access denied to this tenant" {
		t.Fatalf("unexpected store snapshot %+v", store.Snapshot())
	}
}

func TestClientNestedErrorBodyNormalizes(t *testing.T) {
	server := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"request_id":"req-500","service":"voting"}}`))
	})

	_, err := NewClient(server.URL).FetchSessionTenants(context.Background())
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden-shaped error, got %v", err)
	}
	denial := entities.Normalize(err, entities.Fallback{Tenant: &entities.TenantRef{Slug: "aef", ID: "tenant-uuid-1"}})
	if denial == nil || denial.RequestID != "req-500" || denial.Service != "voting" {
		t.Fatalf("unexpected denial %+v", denial)
	}
}

func TestClientUsesRequestIDHeader(t *testing.T) {
	server := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(RequestIDHeader, "req-header")
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := NewClient(server.URL).RefreshProfile(context.Background())
	var apiErr *entities.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.RequestID != "req-header" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
	if !errors.Is(err, domainerrors.ErrUnauthenticated) {
		t.Fatalf("401 must classify as unauthenticated")
	}
}

func TestClientTransportFailureHidesRawText(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	store := session.NewStore(NewClient(url), nil, nil)
	store.SwitchTenant(context.Background(), "aef")
	if store.State() != entities.TenantStateError || store.ErrorMessage() != session.DefaultSwitchErrorMessage {
		t.Fatalf("unexpected store snapshot %+v", store.Snapshot())
	}
}

func TestClientFetchEntryProfile(t *testing.T) {
	server := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"user":{"user_id":"user-1","email":"a@example.com","capabilities":["feed.view"]},
			"memberships":[{"tenant_id":"tenant-uuid-1","slug":"aef","status":"active","base_role":"member"}],
			"last_tenant_slug":null,
			"pending_applications":[{"tenant_slug":"beta","display_name":"Beta"}]
		}`))
	})

	profile, err := NewClient(server.URL).FetchEntryProfile(context.Background())
	if err != nil {
		t.Fatalf("fetch entry profile: %v", err)
	}
	if profile.User.UserID != "user-1" || !profile.User.Can("feed.view") {
		t.Fatalf("unexpected user %+v", profile.User)
	}
	if len(profile.Memberships) != 1 || profile.LastTenantSlug != "" || profile.ActiveTenant != nil {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if len(profile.PendingApplications) != 1 || profile.PendingApplications[0].TenantSlug != "beta" {
		t.Fatalf("unexpected pending applications %+v", profile.PendingApplications)
	}
}
