package model

import "time"

// BookingStatus is the review state of a reservation.
type BookingStatus string

// Booking statuses.
const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled:
		return true
	}
	return false
}

// Booking is a request by a user to hold a number of tickets of an event.
type Booking struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	EventID   string        `json:"event_id"`
	Tickets   int           `json:"tickets"`
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	// Joined fields (not always populated).
	Event      *EventSummary `json:"event,omitempty"`
	User       *UserSummary  `json:"user,omitempty"`
	TotalPrice *int64        `json:"total_price,omitempty"`
}

// UserSummary is the user projection joined onto bookings.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Lifecycle actions carried by a BookingUpdate.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

// BookingUpdate is the transient notification published whenever a
// booking changes state. Its JSON form is the real-time wire format.
type BookingUpdate struct {
	UserID    string        `json:"userId"`
	BookingID string        `json:"bookingId"`
	Status    BookingStatus `json:"status"`
	EventID   string        `json:"eventId"`
	Action    string        `json:"action"`
}

// UpdateFor builds the lifecycle notification for b.
func UpdateFor(b *Booking, action string) BookingUpdate {
	return BookingUpdate{
		UserID:    b.UserID,
		BookingID: b.ID,
		Status:    b.Status,
		EventID:   b.EventID,
		Action:    action,
	}
}
