package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainerrors "tenantgate/contexts/identity-access/tenant-session/domain/errors"
	"tenantgate/contexts/identity-access/tenant-session/ports"
	"tenantgate/internal/shared/events"
	"tenantgate/internal/shared/outbox"

	"github.com/google/uuid"
)

// Journal is an in-memory denial journal implementing ports.DenialJournal,
// ports.OutboxRepository, ports.Clock and ports.IDGenerator.
type Journal struct {
	mu sync.RWMutex

	denials map[string]ports.DenialRecord
	outbox  map[string]outboxRow
	now     func() time.Time
}

type outboxRow struct {
	outbox.Message
	CreatedAt   time.Time
	PublishedAt *time.Time
}

func NewJournal() *Journal {
	return &Journal{
		denials: map[string]ports.DenialRecord{},
		outbox:  map[string]outboxRow{},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (j *Journal) RecordDenial(_ context.Context, record ports.DenialRecord) error {
	envelope := events.NewAccessDeniedEnvelope(record.DenialID, record.OccurredAt, payloadFromRecord(record))
	payload, err := envelope.Marshal()
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, exists := j.denials[record.DenialID]; exists {
		return nil
	}
	j.denials[record.DenialID] = record
	j.outbox[record.DenialID] = outboxRow{
		Message: outbox.Message{
			ID:           record.DenialID,
			EventType:    events.EventTypeAccessDenied,
			PartitionKey: partitionKey(record),
			Payload:      payload,
			Status:       outbox.StatusPending,
		},
		CreatedAt: record.OccurredAt,
	}
	return nil
}

func (j *Journal) Denials() []ports.DenialRecord {
	j.mu.RLock()
	defer j.mu.RUnlock()
	items := make([]ports.DenialRecord, 0, len(j.denials))
	for _, item := range j.denials {
		items = append(items, item)
	}
	sort.Slice(items, func(i, k int) bool { return items[i].OccurredAt.Before(items[k].OccurredAt) })
	return items
}

func (j *Journal) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	items := make([]ports.OutboxMessage, 0, len(j.outbox))
	for _, row := range j.outbox {
		if row.PublishedAt != nil {
			continue
		}
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.ID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt,
		})
	}
	sort.Slice(items, func(i, k int) bool { return items[i].CreatedAt.Before(items[k].CreatedAt) })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (j *Journal) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	row, ok := j.outbox[outboxID]
	if !ok {
		return nil
	}
	at := sentAt.UTC()
	row.PublishedAt = &at
	row.Status = outbox.StatusSent
	j.outbox[outboxID] = row
	return nil
}

func (j *Journal) Now() time.Time {
	return j.now()
}

func (j *Journal) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func payloadFromRecord(record ports.DenialRecord) events.AccessDeniedPayload {
	return events.AccessDeniedPayload{
		SessionID:          record.SessionID,
		UserID:             record.UserID,
		Source:             record.Source,
		Reason:             record.Reason,
		TenantID:           record.TenantID,
		TenantSlug:         record.TenantSlug,
		RequestID:          record.RequestID,
		RequiredPermission: record.RequiredPermission,
		Service:            record.Service,
		Path:               record.Path,
	}
}

func partitionKey(record ports.DenialRecord) string {
	if record.TenantID != "" {
		return record.TenantID
	}
	if record.TenantSlug != "" {
		return record.TenantSlug
	}
	return record.SessionID
}

// Clipboard records copied text. When Unavailable is set every copy fails
// the way a headless session does.
type Clipboard struct {
	mu          sync.Mutex
	Unavailable bool
	copied      []string
}

func (c *Clipboard) Copy(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Unavailable {
		return domainerrors.ErrClipboardUnavailable
	}
	c.copied = append(c.copied, text)
	return nil
}

func (c *Clipboard) Copied() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.copied...)
}
