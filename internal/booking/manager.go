// Package booking implements the reservation lifecycle: creating pending
// reservations, confirming them against event inventory, cancelling them,
// and announcing every state change on the lifecycle bus.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Shrey5112/Event-Booking-Platform/internal/metrics"
	"github.com/Shrey5112/Event-Booking-Platform/internal/model"
)

// Store is the persistence the manager needs. ConfirmBooking must flip
// pending to confirmed and take the tickets from the event atomically.
type Store interface {
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	CreateBooking(ctx context.Context, id, userID, eventID string, tickets int) (*model.Booking, error)
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	ConfirmBooking(ctx context.Context, id string) (*model.Booking, error)
	CancelBooking(ctx context.Context, id string) (*model.Booking, error)
	ListBookings(ctx context.Context, userID string) ([]model.Booking, error)
}

// Publisher receives lifecycle notifications.
type Publisher interface {
	Publish(ctx context.Context, update model.BookingUpdate) error
}

// Manager runs the reservation state machine.
//
//	pending --Confirm--> confirmed
//	pending --Cancel---> cancelled
//	confirmed --Cancel-> cancelled
//
// Operations on one reservation are serialized from commit through
// publish, so its notifications reach the bus in commit order. The
// serialization is per process; with a shared broker bus the order holds
// only while one instance handles writes.
type Manager struct {
	store   Store
	bus     Publisher
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	locks   keyLock
}

// NewManager creates a manager. logger and m may be nil.
func NewManager(store Store, bus Publisher, logger *slog.Logger, m *metrics.Metrics) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:   store,
		bus:     bus,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("github.com/Shrey5112/Event-Booking-Platform/internal/booking"),
	}
}

// Create reserves tickets of an event for the calling user. The result is
// pending; inventory is only taken on confirmation, so the availability
// check here is advisory.
func (m *Manager) Create(ctx context.Context, p model.Principal, eventID string, tickets int) (*model.Booking, error) {
	ctx, span := m.tracer.Start(ctx, "booking.Create", trace.WithAttributes(
		attribute.String("event.id", eventID),
		attribute.Int("booking.tickets", tickets),
	))
	defer span.End()

	b, err := m.create(ctx, p, eventID, tickets)
	m.observe(span, "create", err)
	return b, err
}

func (m *Manager) create(ctx context.Context, p model.Principal, eventID string, tickets int) (*model.Booking, error) {
	if !p.Authenticated() {
		return nil, model.ErrUnauthorized
	}
	if tickets < 1 {
		return nil, fmt.Errorf("tickets must be at least 1: %w", model.ErrInvalid)
	}

	ev, err := m.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, storeError(err)
	}
	if ev == nil {
		return nil, fmt.Errorf("event %s: %w", eventID, model.ErrNotFound)
	}
	if tickets > ev.AvailableTickets {
		return nil, fmt.Errorf("%d requested, %d available: %w", tickets, ev.AvailableTickets, model.ErrInsufficientInventory)
	}

	id := uuid.NewString()
	unlock := m.locks.Lock(id)
	defer unlock()

	b, err := m.store.CreateBooking(ctx, id, p.UserID, eventID, tickets)
	if err != nil {
		return nil, storeError(err)
	}
	withTotal(b)

	m.logger.Info("booking created", "booking", b.ID, "event", eventID, "user", p.UserID, "tickets", tickets)
	m.publish(ctx, b, model.ActionCreated)
	return b, nil
}

// Confirm approves a pending reservation and takes its tickets from the
// event. Admin only.
func (m *Manager) Confirm(ctx context.Context, p model.Principal, id string) (*model.Booking, error) {
	ctx, span := m.tracer.Start(ctx, "booking.Confirm", trace.WithAttributes(attribute.String("booking.id", id)))
	defer span.End()

	b, err := m.confirm(ctx, p, id)
	m.observe(span, "confirm", err)
	return b, err
}

func (m *Manager) confirm(ctx context.Context, p model.Principal, id string) (*model.Booking, error) {
	if !p.IsAdmin() {
		return nil, model.ErrUnauthorized
	}

	unlock := m.locks.Lock(id)
	defer unlock()

	b, err := m.store.ConfirmBooking(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if b == nil {
		return nil, fmt.Errorf("booking %s: %w", id, model.ErrNotFound)
	}
	withTotal(b)

	m.logger.Info("booking confirmed", "booking", id, "event", b.EventID, "tickets", b.Tickets, "by", p.UserID)
	m.publish(ctx, b, model.ActionUpdated)
	return b, nil
}

// Cancel cancels a reservation. Only its owner or an admin may cancel.
// Tickets taken by an earlier confirmation stay taken. Cancelling twice
// succeeds and notifies again.
func (m *Manager) Cancel(ctx context.Context, p model.Principal, id string) (*model.Booking, error) {
	ctx, span := m.tracer.Start(ctx, "booking.Cancel", trace.WithAttributes(attribute.String("booking.id", id)))
	defer span.End()

	b, err := m.cancel(ctx, p, id)
	m.observe(span, "cancel", err)
	return b, err
}

func (m *Manager) cancel(ctx context.Context, p model.Principal, id string) (*model.Booking, error) {
	if !p.Authenticated() {
		return nil, model.ErrUnauthorized
	}

	unlock := m.locks.Lock(id)
	defer unlock()

	existing, err := m.store.GetBooking(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if existing == nil {
		return nil, fmt.Errorf("booking %s: %w", id, model.ErrNotFound)
	}
	if existing.UserID != p.UserID && !p.IsAdmin() {
		return nil, fmt.Errorf("booking belongs to another user: %w", model.ErrUnauthorized)
	}

	b, err := m.store.CancelBooking(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if b == nil {
		return nil, fmt.Errorf("booking %s: %w", id, model.ErrNotFound)
	}
	withTotal(b)

	m.logger.Info("booking cancelled", "booking", id, "previous", existing.Status, "by", p.UserID)
	m.publish(ctx, b, model.ActionUpdated)
	return b, nil
}

// ListFor returns the caller's reservations for events that still exist.
func (m *Manager) ListFor(ctx context.Context, p model.Principal) ([]model.Booking, error) {
	if !p.Authenticated() {
		return nil, model.ErrUnauthorized
	}
	return m.list(ctx, p.UserID)
}

// ListAll returns every reservation for events that still exist. Admin only.
func (m *Manager) ListAll(ctx context.Context, p model.Principal) ([]model.Booking, error) {
	if !p.IsAdmin() {
		return nil, model.ErrUnauthorized
	}
	return m.list(ctx, "")
}

func (m *Manager) list(ctx context.Context, userID string) ([]model.Booking, error) {
	bookings, err := m.store.ListBookings(ctx, userID)
	if err != nil {
		return nil, storeError(err)
	}
	for i := range bookings {
		withTotal(&bookings[i])
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}
	return bookings, nil
}

// publish announces a committed change. Failures are logged and counted;
// the state change has already happened and stands.
func (m *Manager) publish(ctx context.Context, b *model.Booking, action string) {
	if m.bus == nil {
		return
	}
	update := model.UpdateFor(b, action)
	if err := m.bus.Publish(context.WithoutCancel(ctx), update); err != nil {
		m.logger.Error("publishing booking update", "booking", b.ID, "action", action, "status", b.Status, "error", err)
		m.metrics.BookingOp("publish", "error")
	}
}

func (m *Manager) observe(span trace.Span, op string, err error) {
	outcome := Outcome(err)
	m.metrics.BookingOp(op, outcome)
	span.SetAttributes(attribute.String("booking.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
}

// Outcome names the taxonomy class of err for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrInsufficientInventory):
		return "insufficient_inventory"
	case errors.Is(err, model.ErrConflict):
		return "conflict"
	case errors.Is(err, model.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, model.ErrInvalid):
		return "invalid"
	default:
		return "internal"
	}
}

// storeError passes taxonomy errors through and marks anything else
// internal.
func storeError(err error) error {
	if Outcome(err) != "internal" || errors.Is(err, model.ErrInternal) {
		return err
	}
	return fmt.Errorf("%w: %w", model.ErrInternal, err)
}

// withTotal prices b from its joined event. Free events total 0.
func withTotal(b *model.Booking) {
	if b.Event != nil {
		total := int64(b.Tickets) * b.Event.Price
		b.TotalPrice = &total
	}
}
