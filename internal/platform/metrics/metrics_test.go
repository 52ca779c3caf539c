package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounters(t *testing.T) {
	_, m := NewRegistry()

	m.SwitchOutcome("ready")
	m.SwitchOutcome("ready")
	m.SwitchOutcome("forbidden")
	m.RefreshFailed()
	m.DenialEmitted("api")
	m.DenialPresented("api")
	m.OutboxPublished()
	m.OutboxFailed()

	if got := testutil.ToFloat64(m.SwitchOutcomes.WithLabelValues("ready")); got != 2 {
		t.Fatalf("expected 2 ready outcomes, got %v", got)
	}
	if got := testutil.ToFloat64(m.SwitchOutcomes.WithLabelValues("forbidden")); got != 1 {
		t.Fatalf("expected 1 forbidden outcome, got %v", got)
	}
	if got := testutil.ToFloat64(m.RefreshFailures); got != 1 {
		t.Fatalf("expected 1 refresh failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.DenialsPresented.WithLabelValues("api")); got != 1 {
		t.Fatalf("expected 1 presented denial, got %v", got)
	}
	if testutil.ToFloat64(m.RelayPublished) != 1 || testutil.ToFloat64(m.RelayFailures) != 1 {
		t.Fatalf("expected relay counters to move")
	}
}

func TestHandlerForExposesRegistry(t *testing.T) {
	reg, m := NewRegistry()
	m.DenialEmitted("client")
	m.ObserveRequest("", http.StatusOK, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	HandlerFor(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	for _, want := range []string{
		`tenantgate_denials_emitted_total{source="client"} 1`,
		`tenantgate_http_request_duration_seconds_count{route="unmatched",status="200"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in scrape output", want)
		}
	}
}
