package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Shrey5112/Event-Booking-Platform/internal/booking"
	"github.com/Shrey5112/Event-Booking-Platform/internal/model"
	"github.com/Shrey5112/Event-Booking-Platform/internal/payment"
	"github.com/Shrey5112/Event-Booking-Platform/internal/store"
)

// BookingsHandler handles reservation and payment endpoints.
type BookingsHandler struct {
	Manager *booking.Manager
	DB      *sql.DB

	// Payments is nil when no payment provider is configured.
	Payments payment.Gateway

	// ClientOrigin is where payment redirects send the browser.
	ClientOrigin string
}

type createBookingRequest struct {
	Tickets int `json:"tickets"`
}

type checkoutRequest struct {
	EventID string `json:"eventId"`
	Tickets int    `json:"tickets"`
	Email   string `json:"email"`
}

type paymentResponse struct {
	Success     bool   `json:"success"`
	RedirectURL string `json:"redirectUrl"`
}

// Create handles POST /api/bookings/{eventId}.
func (h *BookingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b, err := h.Manager.Create(r.Context(), GetPrincipal(r.Context()), r.PathValue("eventId"), req.Tickets)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonMessage(w, http.StatusCreated, "Booking created", "booking", b)
}

// ListMine handles GET /api/bookings/user.
func (h *BookingsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.Manager.ListFor(r.Context(), GetPrincipal(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, bookings)
}

// ListAll handles GET /api/bookings/all.
func (h *BookingsHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.Manager.ListAll(r.Context(), GetPrincipal(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, bookings)
}

// Cancel handles PUT /api/bookings/{id}/cancel.
func (h *BookingsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	b, err := h.Manager.Cancel(r.Context(), GetPrincipal(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonMessage(w, http.StatusOK, "Booking cancelled", "booking", b)
}

// Confirm handles PUT /api/bookings/{id}/confirm.
func (h *BookingsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	b, err := h.Manager.Confirm(r.Context(), GetPrincipal(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonMessage(w, http.StatusOK, "Booking confirmed", "booking", b)
}

// Checkout handles POST /api/bookings/checkout. It opens a hosted
// payment session; no reservation is created or changed.
func (h *BookingsHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Payments == nil {
		jsonError(w, http.StatusServiceUnavailable, payment.ErrDisabled.Error())
		return
	}

	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	event, err := store.GetEvent(r.Context(), h.DB, req.EventID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if event == nil {
		jsonError(w, http.StatusNotFound, "event not found")
		return
	}

	p := GetPrincipal(r.Context())
	creq := payment.CheckoutRequest{
		Event:   event,
		Tickets: req.Tickets,
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		UserID:  p.UserID,
	}
	if err := creq.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.Payments.Checkout(r.Context(), creq)
	if err != nil {
		h.paymentError(w, r, "checkout failed", err)
		return
	}

	slog.Info("checkout session created", "user", p.UserID, "event", event.ID, "tickets", req.Tickets, "session", session.ID)
	jsonResponse(w, http.StatusOK, session)
}

// Pay handles POST /api/bookings/payment.
func (h *BookingsHandler) Pay(w http.ResponseWriter, r *http.Request) {
	if h.Payments == nil {
		jsonError(w, http.StatusServiceUnavailable, payment.ErrDisabled.Error())
		return
	}

	var req payment.ChargeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.Payments.Charge(r.Context(), req)
	if err != nil {
		h.paymentError(w, r, "payment failed", err)
		return
	}

	p := GetPrincipal(r.Context())
	slog.Info("payment processed", "user", p.UserID, "intent", result.PaymentIntentID, "status", result.Status)

	resp := paymentResponse{Success: result.Succeeded, RedirectURL: h.ClientOrigin + "/cancel"}
	if result.Succeeded {
		resp.RedirectURL = h.ClientOrigin + "/success"
	}
	jsonResponse(w, http.StatusOK, resp)
}

func (h *BookingsHandler) paymentError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, payment.ErrDisabled):
		jsonError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, model.ErrInvalid):
		jsonError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error(msg, "user", GetPrincipal(r.Context()).UserID, "error", err)
		jsonError(w, http.StatusBadGateway, msg)
	}
}
