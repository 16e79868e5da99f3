package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Shrey5112/Event-Booking-Platform/internal/model"
)

// EventFields holds the organizer-editable attributes of an event.
type EventFields struct {
	Title       string
	Description string
	Date        time.Time
	Location    string
	Price       int64
}

const eventColumns = `id, title, description, date, location, price, available_tickets,
	thumbnail_mime, created_by, created_at, updated_at, deleted_at`

// CreateEvent creates a new event with its initial ticket capacity.
func CreateEvent(ctx context.Context, db *sql.DB, f EventFields, tickets int, createdBy string) (*model.Event, error) {
	if tickets < 0 {
		return nil, fmt.Errorf("tickets must not be negative: %w", model.ErrInvalid)
	}

	id := uuid.NewString()
	var creator any
	if createdBy != "" {
		creator = createdBy
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO events (id, title, description, date, location, price, available_tickets, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, f.Title, f.Description, f.Date.UTC(), f.Location, f.Price, tickets, creator,
	)
	if err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}

	return GetEvent(ctx, db, id)
}

// GetEvent returns an active (non-deleted) event by ID.
func GetEvent(ctx context.Context, db *sql.DB, id string) (*model.Event, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ? AND deleted_at IS NULL`, id,
	)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting event: %w", err)
	}
	return e, nil
}

// ListEvents returns all non-deleted events, soonest first.
func ListEvents(ctx context.Context, db *sql.DB) ([]model.Event, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE deleted_at IS NULL ORDER BY date, title`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// UpdateEvent updates an event's metadata. The ticket counter is not
// editable; it changes only when bookings are confirmed.
func UpdateEvent(ctx context.Context, db *sql.DB, id string, f EventFields) error {
	res, err := db.ExecContext(ctx,
		`UPDATE events SET title = ?, description = ?, date = ?, location = ?, price = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		f.Title, f.Description, f.Date.UTC(), f.Location, f.Price, id,
	)
	if err != nil {
		return fmt.Errorf("updating event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("event %s: %w", id, model.ErrNotFound)
	}
	return nil
}

// DeleteEvent soft-deletes an event. Its bookings stay in place but drop
// out of every listing.
func DeleteEvent(ctx context.Context, db *sql.DB, id string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE events SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("event %s: %w", id, model.ErrNotFound)
	}
	return nil
}

// SetEventThumbnail stores an event's thumbnail image.
func SetEventThumbnail(ctx context.Context, db *sql.DB, id string, image []byte, mime string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE events SET thumbnail = ?, thumbnail_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting event thumbnail: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("event %s: %w", id, model.ErrNotFound)
	}
	return nil
}

// GetEventThumbnail returns an event's thumbnail data and MIME type.
func GetEventThumbnail(ctx context.Context, db *sql.DB, id string) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT thumbnail, thumbnail_mime FROM events WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting event thumbnail: %w", err)
	}
	return image, mime.String, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*model.Event, error) {
	e := &model.Event{}
	var description, thumbMime, createdBy sql.NullString
	err := row.Scan(&e.ID, &e.Title, &description, &e.Date, &e.Location, &e.Price, &e.AvailableTickets,
		&thumbMime, &createdBy, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt)
	if err != nil {
		return nil, err
	}
	e.Description = description.String
	e.ThumbnailMime = thumbMime.String
	e.CreatedBy = createdBy.String
	return e, nil
}
