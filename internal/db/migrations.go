package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: listing a user's bookings and an event's bookings.
	`CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings(user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_event ON bookings(event_id)`,
}

func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
