package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Shrey5112/Event-Booking-Platform/internal/model"
)

// bookingSelect joins a booking with its active event and its user. The
// event columns are NULL when the event has been soft-deleted.
const bookingSelect = `
SELECT b.id, b.user_id, b.event_id, b.tickets, b.status, b.created_at, b.updated_at,
       e.id, e.title, e.date, e.location, e.price, e.available_tickets,
       u.id, u.name, u.email, u.role
FROM bookings b
LEFT JOIN events e ON e.id = b.event_id AND e.deleted_at IS NULL
LEFT JOIN users u ON u.id = b.user_id`

// CreateBooking inserts a pending booking under the caller-chosen ID.
func CreateBooking(ctx context.Context, db *sql.DB, id, userID, eventID string, tickets int) (*model.Booking, error) {
	if tickets < 1 {
		return nil, fmt.Errorf("tickets must be at least 1: %w", model.ErrInvalid)
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO bookings (id, user_id, event_id, tickets, status) VALUES (?, ?, ?, ?, 'pending')`,
		id, userID, eventID, tickets,
	)
	if err != nil {
		return nil, fmt.Errorf("creating booking: %w", err)
	}

	return GetBooking(ctx, db, id)
}

// GetBooking returns a booking by ID with its event and user summaries.
func GetBooking(ctx context.Context, db *sql.DB, id string) (*model.Booking, error) {
	b, err := scanBooking(db.QueryRowContext(ctx, bookingSelect+` WHERE b.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting booking: %w", err)
	}
	return b, nil
}

// ListBookings returns bookings whose event is still active, newest first.
// An empty userID lists every user's bookings.
func ListBookings(ctx context.Context, db *sql.DB, userID string) ([]model.Booking, error) {
	query := bookingSelect + ` WHERE e.id IS NOT NULL`
	var args []any
	if userID != "" {
		query += ` AND b.user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY b.created_at DESC, b.id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// ConfirmBooking moves a pending booking to confirmed and takes its tickets
// from the event in a single transaction. Either both changes land or
// neither does.
func ConfirmBooking(ctx context.Context, db *sql.DB, id string) (*model.Booking, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Write first so the transaction holds the write lock before any read.
	var eventID string
	var tickets int
	err = tx.QueryRowContext(ctx,
		`UPDATE bookings SET status = 'confirmed', updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'pending'
		 RETURNING event_id, tickets`, id,
	).Scan(&eventID, &tickets)
	if err == sql.ErrNoRows {
		return nil, bookingStateError(ctx, tx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("confirming booking: %w", err)
	}

	if err := takeTickets(ctx, tx, eventID, tickets); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing confirmation: %w", err)
	}

	return GetBooking(ctx, db, id)
}

// CancelBooking marks a booking cancelled. Cancelling an already cancelled
// booking succeeds. Tickets are not returned to the event.
func CancelBooking(ctx context.Context, db *sql.DB, id string) (*model.Booking, error) {
	res, err := db.ExecContext(ctx,
		`UPDATE bookings SET status = 'cancelled', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("cancelling booking: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("booking %s: %w", id, model.ErrNotFound)
	}

	return GetBooking(ctx, db, id)
}

// takeTickets decrements an event's inventory by n, leaving it untouched
// when fewer than n tickets remain.
func takeTickets(ctx context.Context, tx *sql.Tx, eventID string, n int) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE events SET available_tickets = available_tickets - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL AND available_tickets >= ?`,
		n, eventID, n,
	)
	if err != nil {
		return fmt.Errorf("taking tickets: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 1 {
		return nil
	}

	var available int
	err = tx.QueryRowContext(ctx,
		`SELECT available_tickets FROM events WHERE id = ? AND deleted_at IS NULL`, eventID,
	).Scan(&available)
	if err == sql.ErrNoRows {
		return fmt.Errorf("event %s: %w", eventID, model.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking inventory: %w", err)
	}
	return fmt.Errorf("%d requested, %d available: %w", n, available, model.ErrInsufficientInventory)
}

func bookingStateError(ctx context.Context, tx *sql.Tx, id string) error {
	var status model.BookingStatus
	err := tx.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ?`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return fmt.Errorf("booking %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking booking status: %w", err)
	}
	return fmt.Errorf("booking is %s: %w", status, model.ErrConflict)
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	b := &model.Booking{}
	var (
		eventID, title, location      sql.NullString
		date                          sql.NullTime
		price, available              sql.NullInt64
		userID, name, email, userRole sql.NullString
	)
	err := row.Scan(&b.ID, &b.UserID, &b.EventID, &b.Tickets, &b.Status, &b.CreatedAt, &b.UpdatedAt,
		&eventID, &title, &date, &location, &price, &available,
		&userID, &name, &email, &userRole)
	if err != nil {
		return nil, err
	}

	if eventID.Valid {
		b.Event = &model.EventSummary{
			ID:               eventID.String,
			Title:            title.String,
			Date:             date.Time,
			Location:         location.String,
			Price:            price.Int64,
			AvailableTickets: int(available.Int64),
		}
	}
	if userID.Valid {
		b.User = &model.UserSummary{
			ID:    userID.String,
			Name:  name.String,
			Email: email.String,
			Role:  userRole.String,
		}
	}
	return b, nil
}
