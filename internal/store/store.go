package store

import (
	"context"
	"database/sql"

	"github.com/Shrey5112/Event-Booking-Platform/internal/model"
)

// SQL binds the package's functions to a database handle so it can be
// passed where a store interface is expected.
type SQL struct {
	DB *sql.DB
}

func (s SQL) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	return GetEvent(ctx, s.DB, id)
}

func (s SQL) CreateBooking(ctx context.Context, id, userID, eventID string, tickets int) (*model.Booking, error) {
	return CreateBooking(ctx, s.DB, id, userID, eventID, tickets)
}

func (s SQL) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	return GetBooking(ctx, s.DB, id)
}

func (s SQL) ConfirmBooking(ctx context.Context, id string) (*model.Booking, error) {
	return ConfirmBooking(ctx, s.DB, id)
}

func (s SQL) CancelBooking(ctx context.Context, id string) (*model.Booking, error) {
	return CancelBooking(ctx, s.DB, id)
}

func (s SQL) ListBookings(ctx context.Context, userID string) ([]model.Booking, error) {
	return ListBookings(ctx, s.DB, userID)
}
