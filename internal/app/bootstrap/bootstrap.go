package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tenantsession "tenantgate/contexts/identity-access/tenant-session"
	httpadapter "tenantgate/contexts/identity-access/tenant-session/adapters/http"
	"tenantgate/contexts/identity-access/tenant-session/adapters/memory"
	postgresadapter "tenantgate/contexts/identity-access/tenant-session/adapters/postgres"
	"tenantgate/contexts/identity-access/tenant-session/application/workers"
	"tenantgate/contexts/identity-access/tenant-session/ports"
	"tenantgate/internal/platform/config"
	"tenantgate/internal/platform/db"
	"tenantgate/internal/platform/httpserver"
	"tenantgate/internal/platform/messaging"
	"tenantgate/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	kafka    *messaging.Kafka
	// relay drains the in-memory journal when no postgres worker owns the outbox.
	relay        *workers.DenialRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	kafka        *messaging.Kafka
	relay        workers.DenialRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	return buildAPI(cfg, logger)
}

func buildAPI(cfg config.Config, logger *slog.Logger) (*APIApp, error) {
	var (
		registry *prometheus.Registry
		m        *metrics.Metrics
		recorder ports.Recorder
	)
	if cfg.EnableMetrics {
		registry, m = metrics.NewRegistry()
		recorder = m
	}

	deps := tenantsession.Dependencies{
		Clock:          postgresadapter.SystemClock{},
		IDGenerator:    postgresadapter.UUIDGenerator{},
		Recorder:       recorder,
		Logger:         logger,
		LoginPath:      cfg.LoginPath,
		ChooserPath:    cfg.ChooserPath,
		HomePath:       cfg.HomePath,
		DenialTopic:    cfg.DenialTopic,
		RelayBatchSize: 100,
		SessionIdleTTL: cfg.SessionIdleTTL,
	}
	if cfg.EnableInMemoryAPI {
		deps.API = memory.NewBackend()
	} else {
		deps.APIFactory = upstreamFactory(cfg, logger)
	}

	app := &APIApp{pollInterval: cfg.RelayPollInterval, logger: logger}
	if cfg.EnableDenialJournal {
		if strings.TrimSpace(cfg.PostgresDSN) != "" {
			pg, err := db.Connect(cfg.PostgresDSN)
			if err != nil {
				return nil, err
			}
			if err := pg.Migrate(context.Background(), postgresadapter.Models()...); err != nil {
				_ = pg.Close()
				return nil, err
			}
			deps.Journal = postgresadapter.NewJournal(pg.DB, logger)
			app.postgres = pg
		} else {
			journal := memory.NewJournal()
			kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
			if err != nil {
				return nil, err
			}
			deps.Journal = journal
			deps.Outbox = journal
			deps.Publisher = kafka
			app.kafka = kafka
		}
	}

	module := tenantsession.NewModule(deps)
	if deps.Outbox != nil {
		relay := module.Relay
		if m != nil {
			relay.Recorder = m
		}
		app.relay = &relay
	}

	options := httpserver.Options{SessionCookie: cfg.SessionCookie}
	if m != nil {
		options.Metrics = m
		options.Gatherer = registry
	}
	app.server = httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort), options)
	return app, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(context.Background(), postgresadapter.Models()...); err != nil {
		_ = pg.Close()
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	journal := postgresadapter.NewJournal(pg.DB, logger)
	relay := workers.DenialRelay{
		Outbox:    journal,
		Publisher: kafka,
		Clock:     postgresadapter.SystemClock{},
		Topic:     cfg.DenialTopic,
		BatchSize: 100,
		Logger:    logger,
	}
	return &WorkerApp{
		postgres:     pg,
		kafka:        kafka,
		relay:        relay,
		pollInterval: cfg.RelayPollInterval,
		logger:       logger,
	}, nil
}

func upstreamFactory(cfg config.Config, logger *slog.Logger) func(sessionID string) ports.TenantAPI {
	client := &http.Client{Timeout: cfg.TenantAPITimeout}
	return func(sessionID string) ports.TenantAPI {
		return httpadapter.NewClient(cfg.TenantAPIBaseURL,
			httpadapter.WithHTTPClient(client),
			httpadapter.WithSession(cfg.SessionCookie, sessionID),
			httpadapter.WithClientLogger(logger),
		)
	}
}

func (a *APIApp) Run(ctx context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"embedded_relay", a.relay != nil,
		)
	}
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return a.server.Start(groupCtx)
	})
	if a.relay != nil {
		relay := *a.relay
		group.Go(func() error {
			if err := relay.Run(groupCtx, a.pollInterval); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return group.Wait()
}

func (a *APIApp) Close() error {
	var errs []error
	if a.kafka != nil {
		errs = append(errs, a.kafka.Close())
	}
	if a.postgres != nil {
		errs = append(errs, a.postgres.Close())
	}
	return errors.Join(errs...)
}

func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)
	if err := w.relay.Run(ctx, w.pollInterval); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (w *WorkerApp) Close() error {
	var errs []error
	if w.kafka != nil {
		errs = append(errs, w.kafka.Close())
	}
	if w.postgres != nil {
		errs = append(errs, w.postgres.Close())
	}
	return errors.Join(errs...)
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
