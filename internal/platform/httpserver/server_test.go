package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tenantsession "tenantgate/contexts/identity-access/tenant-session"
	"tenantgate/contexts/identity-access/tenant-session/domain/entities"
	tenanthttp "tenantgate/contexts/identity-access/tenant-session/transport/http"
	"tenantgate/internal/platform/metrics"
)

func newTestServer() (*Server, tenantsession.Module) {
	module := tenantsession.NewInMemoryModule(nil, nil)
	reg, m := metrics.NewRegistry()
	return New(module, nil, ":0", Options{Metrics: m, Gatherer: reg}), module
}

func doRequest(t *testing.T, server *Server, method string, target string, body []byte, session string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if session != "" {
		req.AddCookie(&http.Cookie{Name: "session", Value: session})
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %T: %v body=%s", out, err, rr.Body.String())
	}
	return out
}

func TestTenantRouteRequiresSessionCookie(t *testing.T) {
	server, _ := newTestServer()

	rr := doRequest(t, server, http.MethodGet, "/t/aef/events", nil, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
	if body := decode[tenanthttp.ErrorResponse](t, rr); body.Code != "unauthenticated" {
		t.Fatalf("unexpected error body %+v", body)
	}
}

func TestHydrateThenOpenTenantRouteIsReady(t *testing.T) {
	server, module := newTestServer()

	rr := doRequest(t, server, http.MethodPost, "/session/hydrate", nil, "sess-1")
	if rr.Code != http.StatusOK {
		t.Fatalf("hydrate: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	hydrated := decode[tenanthttp.HydrateResponse](t, rr)
	if hydrated.User.UserID != "user-1" {
		t.Fatalf("unexpected hydrated user %+v", hydrated.User)
	}

	rr = doRequest(t, server, http.MethodGet, "/t/aef/events", nil, "sess-1")
	view := decode[tenanthttp.ViewResponse](t, rr)
	if rr.Code != http.StatusOK || view.Kind != "ready" || view.Slug != "aef" {
		t.Fatalf("expected ready view, got %d %+v", rr.Code, view)
	}
	if calls := module.Backend.SwitchCalls("aef"); calls != 1 {
		t.Fatalf("expected one switch call, got %d", calls)
	}

	rr = doRequest(t, server, http.MethodGet, "/session", nil, "sess-1")
	session := decode[tenanthttp.SessionResponse](t, rr)
	if session.State != "ready" || session.ActiveTenant == nil || session.ActiveTenant.Slug != "aef" {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestForbiddenTenantRendersForbiddenView(t *testing.T) {
	server, _ := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/t/restricted", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "sess-2"})
	req.Header.Set("X-User-Id", "user-1")
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	view := decode[tenanthttp.ViewResponse](t, rr)
	if view.Kind != "forbidden" || view.Message != "Access denied to this tenant" {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestReportDenialThenCopySupportMessage(t *testing.T) {
	server, module := newTestServer()
	doRequest(t, server, http.MethodPost, "/session/hydrate", nil, "sess-3")
	doRequest(t, server, http.MethodGet, "/t/aef/events", nil, "sess-3")

	rr := doRequest(t, server, http.MethodPost, "/support/copy-request-id", nil, "sess-3")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before any denial, got %d", rr.Code)
	}

	body := []byte(`{"status":403,"code":"FORBIDDEN","message":"Missing events.read","request_id":"req-42","details":{"service":"voting"},"route":"/t/aef/events"}`)
	rr = doRequest(t, server, http.MethodPost, "/session/denials", body, "sess-3")
	report := decode[tenanthttp.ReportDenialResponse](t, rr)
	if !report.Denied || !report.Presented || report.Denial == nil || report.Denial.RequestID != "req-42" {
		t.Fatalf("unexpected report %+v", report)
	}

	rr = doRequest(t, server, http.MethodGet, "/t/aef/events", nil, "sess-3")
	if view := decode[tenanthttp.ViewResponse](t, rr); view.Kind != "denied" || len(view.Actions) != 3 {
		t.Fatalf("re-rendering the denied route must keep the denial, got %+v", view)
	}
	rr = doRequest(t, server, http.MethodGet, "/t/aef/feed", nil, "sess-3")
	if view := decode[tenanthttp.ViewResponse](t, rr); view.Kind != "ready" {
		t.Fatalf("navigating away must clear the denial, got %+v", view)
	}

	doRequest(t, server, http.MethodGet, "/t/aef/events", nil, "sess-3")
	doRequest(t, server, http.MethodPost, "/session/denials", body, "sess-3")
	rr = doRequest(t, server, http.MethodPost, "/support/copy-message", nil, "sess-3")
	copied := decode[tenanthttp.CopyResponse](t, rr)
	if copied.Copied || !strings.Contains(copied.Text, "Request ID: req-42") {
		t.Fatalf("unexpected copy response %+v", copied)
	}
	if len(module.Journal.Denials()) != 2 {
		t.Fatalf("expected both presented denials journaled, got %d", len(module.Journal.Denials()))
	}
}

func TestReportDenialRejectsInvalidJSON(t *testing.T) {
	server, _ := newTestServer()
	rr := doRequest(t, server, http.MethodPost, "/session/denials", []byte("{"), "sess-4")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestViewsRequiresAbsoluteRoute(t *testing.T) {
	server, _ := newTestServer()
	rr := doRequest(t, server, http.MethodGet, "/views?route=tenants", nil, "sess-5")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestLogoutForgetsSession(t *testing.T) {
	server, module := newTestServer()
	doRequest(t, server, http.MethodPost, "/session/hydrate", nil, "sess-6")

	rr := doRequest(t, server, http.MethodPost, "/session/logout", nil, "sess-6")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if _, ok := module.Shells.Lookup("sess-6"); ok {
		t.Fatalf("expected shell removed on logout")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	server, _ := newTestServer()
	doRequest(t, server, http.MethodPost, "/session/hydrate", nil, "sess-7")
	doRequest(t, server, http.MethodGet, "/session", nil, "sess-7")

	rr := doRequest(t, server, http.MethodGet, "/healthz", nil, "")
	health := decode[tenanthttp.HealthResponse](t, rr)
	if health.Status != "ok" || health.Sessions != 1 {
		t.Fatalf("unexpected health %+v", health)
	}

	rr = doRequest(t, server, http.MethodGet, "/metrics", nil, "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `route="GET /session"`) {
		t.Fatalf("expected request histogram in scrape, body=%s", rr.Body.String())
	}
}

func TestUpstreamFailureHidesDebugText(t *testing.T) {
	server, module := newTestServer()
	module.Backend.FailEntryProfile(&entities.APIError{
		Status:  500,
		Message: "java.lang.NullPointerException at Foo.bar(Foo.java:42)",
	})

	rr := doRequest(t, server, http.MethodPost, "/session/hydrate", nil, "sess-8")
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d body=%s", rr.Code, rr.Body.String())
	}
	body := decode[tenanthttp.ErrorResponse](t, rr)
	if body.Code != "upstream_error" || body.Message != "upstream request failed" {
		t.Fatalf("unexpected error body %+v", body)
	}
	if strings.Contains(rr.Body.String(), "Foo.java") {
		t.Fatalf("response leaked upstream debug text: %s", rr.Body.String())
	}

	module.Backend.FailEntryProfile(&entities.APIError{Status: 503, Message: "Directory is under maintenance"})
	rr = doRequest(t, server, http.MethodPost, "/session/hydrate", nil, "sess-8")
	if body := decode[tenanthttp.ErrorResponse](t, rr); body.Message != "Directory is under maintenance" {
		t.Fatalf("expected plain upstream reason kept, got %+v", body)
	}
}

func TestUnknownCookiesDoNotCreateSessions(t *testing.T) {
	server, module := newTestServer()
	for i := 0; i < 50; i++ {
		rr := doRequest(t, server, http.MethodGet, "/session", nil, fmt.Sprintf("junk-%d", i))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for unknown session, got %d", rr.Code)
		}
	}
	if ids := module.Shells.Sessions(); len(ids) != 0 {
		t.Fatalf("expected no shells for unknown cookies, got %d", len(ids))
	}
}
