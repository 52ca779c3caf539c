package tenantsession

import (
	"log/slog"
	"time"

	httpadapter "tenantgate/contexts/identity-access/tenant-session/adapters/http"
	"tenantgate/contexts/identity-access/tenant-session/adapters/memory"
	"tenantgate/contexts/identity-access/tenant-session/application/shell"
	"tenantgate/contexts/identity-access/tenant-session/application/workers"
	"tenantgate/contexts/identity-access/tenant-session/ports"
)

// Module is the tenant-session composition root exposed to runtime wiring.
type Module struct {
	Handler httpadapter.Handler
	Shells  *shell.Manager
	Relay   workers.DenialRelay
	Backend *memory.Backend
	Journal *memory.Journal
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	API         ports.TenantAPI
	APIFactory  func(sessionID string) ports.TenantAPI
	Clipboard   ports.Clipboard
	Journal     ports.DenialJournal
	Outbox      ports.OutboxRepository
	Publisher   ports.EventPublisher
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Recorder    ports.Recorder
	Logger      *slog.Logger

	LoginPath      string
	ChooserPath    string
	HomePath       string
	DenialTopic    string
	RelayBatchSize int
	SessionIdleTTL time.Duration
}

// NewModule wires the session shells, the HTTP handler and the denial relay.
func NewModule(deps Dependencies) Module {
	shells := shell.NewManager(shell.Dependencies{
		API:         deps.API,
		APIFactory:  deps.APIFactory,
		Clipboard:   deps.Clipboard,
		Journal:     deps.Journal,
		IDs:         deps.IDGenerator,
		Clock:       deps.Clock,
		Recorder:    deps.Recorder,
		Logger:      deps.Logger,
		LoginPath:   deps.LoginPath,
		ChooserPath: deps.ChooserPath,
		HomePath:    deps.HomePath,
		IdleTTL:     deps.SessionIdleTTL,
	})
	return Module{
		Handler: httpadapter.Handler{
			Shells: shells,
			Logger: deps.Logger,
		},
		Shells: shells,
		Relay: workers.DenialRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Topic:     deps.DenialTopic,
			BatchSize: deps.RelayBatchSize,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule builds a development/testing module with in-memory adapters.
func NewInMemoryModule(logger *slog.Logger, publisher ports.EventPublisher) Module {
	backend := memory.NewBackend()
	journal := memory.NewJournal()
	module := NewModule(Dependencies{
		API:         backend,
		Journal:     journal,
		Outbox:      journal,
		Publisher:   publisher,
		Clock:       journal,
		IDGenerator: journal,
		Logger:      logger,
	})
	module.Backend = backend
	module.Journal = journal
	return module
}
