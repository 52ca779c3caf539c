package events

import (
	"encoding/json"
	"time"
)

const (
	EventTypeAccessDenied = "access.denied"
	SourceTenantSession   = "tenant-session"
)

// Envelope is the shared event shape published by the portal.
// Align fields with the platform canonical event contract.
type Envelope struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	SourceService  string    `json:"source_service"`
	OccurredAtUTC  time.Time `json:"occurred_at_utc"`
	CorrelationID  string    `json:"correlation_id"`
	EntityType     string    `json:"entity_type"`
	EntityID       string    `json:"entity_id"`
	PayloadVersion int       `json:"payload_version"`
	Payload        any       `json:"payload"`
}

// AccessDeniedPayload is the support-triage view of one presented denial.
// It never carries upstream details or raw error text beyond the reason.
type AccessDeniedPayload struct {
	SessionID          string `json:"session_id,omitempty"`
	UserID             string `json:"user_id,omitempty"`
	Source             string `json:"source"`
	Reason             string `json:"reason"`
	TenantID           string `json:"tenant_id,omitempty"`
	TenantSlug         string `json:"tenant_slug,omitempty"`
	RequestID          string `json:"request_id,omitempty"`
	RequiredPermission string `json:"required_permission,omitempty"`
	Service            string `json:"service,omitempty"`
	Path               string `json:"path,omitempty"`
}

// NewAccessDeniedEnvelope wraps payload; the request id doubles as correlation id.
func NewAccessDeniedEnvelope(eventID string, occurredAt time.Time, payload AccessDeniedPayload) Envelope {
	entityID := payload.TenantID
	if entityID == "" {
		entityID = payload.TenantSlug
	}
	return Envelope{
		EventID:        eventID,
		EventType:      EventTypeAccessDenied,
		SourceService:  SourceTenantSession,
		OccurredAtUTC:  occurredAt.UTC(),
		CorrelationID:  payload.RequestID,
		EntityType:     "tenant",
		EntityID:       entityID,
		PayloadVersion: 1,
		Payload:        payload,
	}
}

// Marshal encodes the envelope for the outbox.
func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
