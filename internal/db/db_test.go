package db

import (
	"testing"
)

func TestEnsureSchemaIdempotent(t *testing.T) {
	database := NewTestDB(t)

	if err := EnsureSchema(database); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}

	var count int
	err := database.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'events', 'bookings', 'settings', 'revoked_tokens')`,
	).Scan(&count)
	if err != nil {
		t.Fatalf("counting tables: %v", err)
	}
	if count != 5 {
		t.Errorf("expected 5 tables, got %d", count)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	database := NewTestDB(t)

	_, err := database.Exec(
		`INSERT INTO bookings (id, user_id, event_id, tickets) VALUES ('b1', 'missing', 'missing', 1)`,
	)
	if err == nil {
		t.Error("expected foreign key violation")
	}
}

func TestNegativeInventoryRejected(t *testing.T) {
	database := NewTestDB(t)

	_, err := database.Exec(
		`INSERT INTO events (id, title, date, location, available_tickets) VALUES ('e1', 'Gig', CURRENT_TIMESTAMP, 'Hall', -1)`,
	)
	if err == nil {
		t.Error("expected check constraint violation")
	}
}
