package bootstrap

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"tenantgate/internal/platform/config"
)

func TestNormalizeAddr(t *testing.T) {
	cases := map[string]string{
		"":      ":8080",
		" 9090": ":9090",
		":7000": ":7000",
	}
	for in, want := range cases {
		if got := normalizeAddr(in); got != want {
			t.Fatalf("normalizeAddr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildAPIInMemoryEmbedsRelay(t *testing.T) {
	app, err := buildAPI(config.Config{
		HTTPPort:            "0",
		SessionCookie:       "session",
		DenialTopic:         "access.denied",
		RelayPollInterval:   time.Second,
		EnableDenialJournal: true,
		EnableMetrics:       true,
		EnableInMemoryAPI:   true,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("build api: %v", err)
	}
	defer app.Close()

	if app.server == nil || app.relay == nil || app.kafka == nil {
		t.Fatalf("expected server, embedded relay and bus, got %+v", app)
	}
	if app.relay.Recorder == nil {
		t.Fatalf("expected relay metrics wired")
	}
}

func TestBuildAPIWithoutJournalSkipsRelay(t *testing.T) {
	app, err := buildAPI(config.Config{
		TenantAPIBaseURL: "http://upstream.invalid",
		TenantAPITimeout: time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("build api: %v", err)
	}
	if app.relay != nil || app.postgres != nil {
		t.Fatalf("expected no journal infrastructure, got %+v", app)
	}
}
