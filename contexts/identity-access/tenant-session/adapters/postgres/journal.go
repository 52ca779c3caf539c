package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tenantgate/contexts/identity-access/tenant-session/ports"
	"tenantgate/internal/shared/events"
	"tenantgate/internal/shared/outbox"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Journal stores presented denials and their outbox events in one transaction.
type Journal struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewJournal(db *gorm.DB, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{
		db:     db,
		logger: logger,
	}
}

// Models lists the tables owned by the journal, for migrations.
func Models() []any {
	return []any{&denialModel{}, &outboxModel{}}
}

func (j *Journal) RecordDenial(ctx context.Context, record ports.DenialRecord) error {
	row := denialModelFromRecord(record)
	envelope := events.NewAccessDeniedEnvelope(row.DenialID, row.OccurredAt, payloadFromRecord(record))
	payload, err := envelope.Marshal()
	if err != nil {
		return j.logError("tenant_session_journal_marshal_failed", err, "denial_id", row.DenialID)
	}
	message := outboxModel{
		OutboxID:     row.DenialID,
		EventType:    events.EventTypeAccessDenied,
		PartitionKey: partitionKey(record),
		Payload:      payload,
		Status:       outbox.StatusPending,
		CreatedAt:    row.OccurredAt,
	}

	err = j.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		create := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "denial_id"}},
			DoNothing: true,
		}).Create(&row)
		if create.Error != nil {
			return create.Error
		}
		if create.RowsAffected == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "outbox_id"}},
			DoNothing: true,
		}).Create(&message).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return j.logError("tenant_session_journal_insert_failed", err, "denial_id", row.DenialID)
	}
	return nil
}

func (j *Journal) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := j.db.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, j.logError("tenant_session_journal_list_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (j *Journal) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := j.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outbox.StatusSent,
			"published_at": sentAt.UTC(),
		})
	if result.Error != nil {
		return j.logError("tenant_session_journal_mark_sent_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	return nil
}

func (j *Journal) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "identity-access/tenant-session",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	j.logger.Error("denial journal operation failed", fields...)
	return err
}

type denialModel struct {
	DenialID           string    `gorm:"column:denial_id;primaryKey"`
	SessionID          string    `gorm:"column:session_id"`
	UserID             string    `gorm:"column:user_id"`
	Source             string    `gorm:"column:source"`
	Reason             string    `gorm:"column:reason"`
	TenantID           string    `gorm:"column:tenant_id"`
	TenantSlug         string    `gorm:"column:tenant_slug"`
	RequestID          string    `gorm:"column:request_id;index"`
	RequiredPermission string    `gorm:"column:required_permission"`
	Service            string    `gorm:"column:service"`
	Path               string    `gorm:"column:path"`
	OccurredAt         time.Time `gorm:"column:occurred_at"`
}

func (denialModel) TableName() string {
	return "tenant_session_denials"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "tenant_session_outbox"
}

func denialModelFromRecord(record ports.DenialRecord) denialModel {
	occurredAt := record.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	return denialModel{
		DenialID:           strings.TrimSpace(record.DenialID),
		SessionID:          strings.TrimSpace(record.SessionID),
		UserID:             strings.TrimSpace(record.UserID),
		Source:             record.Source,
		Reason:             record.Reason,
		TenantID:           record.TenantID,
		TenantSlug:         record.TenantSlug,
		RequestID:          record.RequestID,
		RequiredPermission: record.RequiredPermission,
		Service:            record.Service,
		Path:               record.Path,
		OccurredAt:         occurredAt,
	}
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
	for _, value := range []string{record.TenantID, record.TenantSlug, record.SessionID} {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return record.DenialID
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.DenialJournal = (*Journal)(nil)
var _ ports.OutboxRepository = (*Journal)(nil)
