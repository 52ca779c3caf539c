package workers

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "tenantgate/contexts/identity-access/tenant-session/application"
	"tenantgate/contexts/identity-access/tenant-session/ports"
	"tenantgate/internal/shared/events"
)

const defaultRelayBatchSize = 100

// DenialRelay forwards journaled denials from the outbox to the event bus.
type DenialRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	Topic     string
	BatchSize int
	Recorder  ports.RelayRecorder
	Logger    *slog.Logger
}

func (r DenialRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = defaultRelayBatchSize
	}
	topic := strings.TrimSpace(r.Topic)
	if topic == "" {
		topic = events.EventTypeAccessDenied
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("denial outbox list failed",
			"event", "tenant_session_outbox_list_failed",
			"module", "identity-access/tenant-session",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		if err := r.Publisher.Publish(ctx, topic, row.PartitionKey, row.Payload); err != nil {
			if r.Recorder != nil {
				r.Recorder.OutboxFailed()
			}
			logger.Error("denial outbox publish failed",
				"event", "tenant_session_outbox_publish_failed",
				"module", "identity-access/tenant-session",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"topic", topic,
				"error", err.Error(),
			)
			return err
		}
		if r.Recorder != nil {
			r.Recorder.OutboxPublished()
		}
		if err := r.Outbox.MarkOutboxSent(ctx, row.OutboxID, now); err != nil {
			return err
		}
	}
	if len(pending) > 0 {
		logger.Info("denial outbox relayed",
			"event", "tenant_session_outbox_relayed",
			"module", "identity-access/tenant-session",
			"layer", "worker",
			"topic", topic,
			"count", len(pending),
		)
	}
	return nil
}

// Run relays on every tick until ctx is done.
func (r DenialRelay) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			application.ResolveLogger(r.Logger).Warn("denial relay tick failed",
				"event", "tenant_session_relay_tick_failed",
				"module", "identity-access/tenant-session",
				"layer", "worker",
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
