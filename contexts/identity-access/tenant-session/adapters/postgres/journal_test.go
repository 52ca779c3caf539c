package postgresadapter

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"tenantgate/contexts/identity-access/tenant-session/ports"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	if !isUniqueViolation(wrapped) {
		t.Fatalf("expected wrapped 23505 to be a unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "42P01"}) {
		t.Fatalf("undefined table must not count as unique violation")
	}
	if isUniqueViolation(errors.New("boom")) {
		t.Fatalf("plain errors must not count as unique violation")
	}
}

func TestDenialModelFromRecordNormalizesFields(t *testing.T) {
	occurred := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	row := denialModelFromRecord(ports.DenialRecord{
		DenialID:   " d-1 ",
		SessionID:  "sess-1",
		TenantSlug: "aef",
		OccurredAt: occurred,
	})
	if row.DenialID != "d-1" {
		t.Fatalf("expected trimmed id, got %q", row.DenialID)
	}
	if row.OccurredAt.Location() != time.UTC || !row.OccurredAt.Equal(occurred) {
		t.Fatalf("expected UTC timestamp, got %v", row.OccurredAt)
	}
	if row := denialModelFromRecord(ports.DenialRecord{DenialID: "d-2"}); row.OccurredAt.IsZero() {
		t.Fatalf("expected default timestamp")
	}
}

func TestPartitionKeyPrefersTenant(t *testing.T) {
	cases := []struct {
		record ports.DenialRecord
		want   string
	}{
		{ports.DenialRecord{DenialID: "d", SessionID: "s", TenantSlug: "aef", TenantID: "tid"}, "tid"},
		{ports.DenialRecord{DenialID: "d", SessionID: "s", TenantSlug: "aef"}, "aef"},
		{ports.DenialRecord{DenialID: "d", SessionID: "s"}, "s"},
		{ports.DenialRecord{DenialID: "d"}, "d"},
	}
	for _, tc := range cases {
		if got := partitionKey(tc.record); got != tc.want {
			t.Fatalf("partitionKey(%+v) = %q, want %q", tc.record, got, tc.want)
		}
	}
}

func TestTableNames(t *testing.T) {
	if (denialModel{}).TableName() != "tenant_session_denials" || (outboxModel{}).TableName() != "tenant_session_outbox" {
		t.Fatalf("unexpected table names")
	}
	if len(Models()) != 2 {
		t.Fatalf("expected both journal tables registered for migration")
	}
}
