package model

import "time"

// Event is a capacity-limited event. AvailableTickets is the inventory
// counter; it only ever decreases, and only when a reservation is confirmed.
type Event struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	Date             time.Time  `json:"date"`
	Location         string     `json:"location"`
	Price            int64      `json:"price"`
	AvailableTickets int        `json:"available_tickets"`
	ThumbnailMime    string     `json:"thumbnail_mime,omitempty"`
	CreatedBy        string     `json:"created_by,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`
}

// EventSummary is the event projection joined onto bookings.
type EventSummary struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Date             time.Time `json:"date"`
	Location         string    `json:"location"`
	Price            int64     `json:"price"`
	AvailableTickets int       `json:"available_tickets"`
}
