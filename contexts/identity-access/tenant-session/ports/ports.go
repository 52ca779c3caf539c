package ports

import (
	"context"
	"time"

	"tenantgate/contexts/identity-access/tenant-session/domain/entities"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// SwitchResult is the tenant API answer to a successful switch.
type SwitchResult struct {
	ActiveTenant entities.ActiveTenant
	RedirectHint string
}

// PendingApplication is a membership request the user is still waiting on.
type PendingApplication struct {
	TenantSlug  string
	DisplayName string
	SubmittedAt time.Time
}

// EntryProfile is the "who am I" answer used to seed the session.
type EntryProfile struct {
	User                entities.UserInfo
	Memberships         []entities.TenantSummary
	LastTenantSlug      string
	PendingApplications []PendingApplication
	ActiveTenant        *entities.ActiveTenant
}

// TenantAPI is the backend surface the tenant session core consumes.
// Failures must be returned as *entities.APIError (optionally wrapped).
type TenantAPI interface {
	SwitchTenant(ctx context.Context, slug string) (SwitchResult, error)
	FetchSessionTenants(ctx context.Context) ([]entities.TenantSummary, error)
	FetchEntryProfile(ctx context.Context) (EntryProfile, error)
	RefreshProfile(ctx context.Context) (entities.UserInfo, error)
}

// ProfileRefresher rehydrates tenant-scoped capabilities after a switch.
type ProfileRefresher interface {
	RefreshProfile(ctx context.Context) (entities.UserInfo, error)
}

// Clipboard copies text on behalf of the user. Implementations return
// domainerrors.ErrClipboardUnavailable when no clipboard can be reached.
type Clipboard interface {
	Copy(ctx context.Context, text string) error
}

// DenialRecord is one presented denial kept for support triage.
type DenialRecord struct {
	DenialID           string
	SessionID          string
	UserID             string
	Source             string
	Reason             string
	TenantID           string
	TenantSlug         string
	RequestID          string
	RequiredPermission string
	Service            string
	Path               string
	OccurredAt         time.Time
}

// DenialJournal persists presented denials together with their outbox event.
type DenialJournal interface {
	RecordDenial(ctx context.Context, record DenialRecord) error
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, payload []byte) error
}

// Recorder receives outcome counters. A nil Recorder disables recording.
type Recorder interface {
	SwitchOutcome(outcome string)
	RefreshFailed()
	DenialEmitted(source string)
	DenialPresented(source string)
}

// RelayRecorder receives outbox relay counters. A nil RelayRecorder disables recording.
type RelayRecorder interface {
	OutboxPublished()
	OutboxFailed()
}
