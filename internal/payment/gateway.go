// Package payment takes ticket payments through an external gateway. The
// booking lifecycle never depends on payment state.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Shrey5112/Event-Booking-Platform/internal/model"
)

// ErrDisabled is returned when no gateway is configured.
var ErrDisabled = errors.New("payments are not configured")

// MinAmount is the smallest chargeable amount in minor units.
const MinAmount = 50

// DefaultCurrency is used when a charge names none.
const DefaultCurrency = "inr"

// Gateway takes payments.
type Gateway interface {
	// Charge confirms a payment with a client-collected payment method.
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	// Checkout opens a hosted checkout session for an event's tickets.
	Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

// ChargeRequest is a direct payment.
type ChargeRequest struct {
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	PaymentMethodID string `json:"paymentMethodId"`
	CustomerName    string `json:"customerName"`
	CustomerEmail   string `json:"customerEmail"`
}

// Validate checks the request and fills in the default currency.
func (r *ChargeRequest) Validate() error {
	if r.Amount < MinAmount {
		return fmt.Errorf("amount must be at least %d: %w", MinAmount, model.ErrInvalid)
	}
	r.Currency = strings.ToLower(strings.TrimSpace(r.Currency))
	if r.Currency == "" {
		r.Currency = DefaultCurrency
	}
	if r.PaymentMethodID == "" {
		return fmt.Errorf("paymentMethodId is required: %w", model.ErrInvalid)
	}
	if n := len([]rune(strings.TrimSpace(r.CustomerName))); n < 3 || n > 50 {
		return fmt.Errorf("customerName must be 3 to 50 characters: %w", model.ErrInvalid)
	}
	if err := model.ValidateEmail(r.CustomerEmail); err != nil {
		return fmt.Errorf("customerEmail: %w", model.ErrInvalid)
	}
	return nil
}

// ChargeResult reports a charge's outcome.
type ChargeResult struct {
	Succeeded       bool   `json:"success"`
	PaymentIntentID string `json:"paymentIntentId"`
	Status          string `json:"status"`
}

// CheckoutRequest asks for a hosted checkout of tickets of one event.
type CheckoutRequest struct {
	Event   *model.Event
	Tickets int
	Email   string
	UserID  string
}

// Validate checks the request against the event's current availability.
func (r CheckoutRequest) Validate() error {
	if r.Event == nil {
		return fmt.Errorf("event: %w", model.ErrNotFound)
	}
	if r.Tickets < 1 {
		return fmt.Errorf("tickets must be at least 1: %w", model.ErrInvalid)
	}
	if r.Tickets > r.Event.AvailableTickets {
		return model.ErrInsufficientInventory
	}
	if err := model.ValidateEmail(r.Email); err != nil {
		return fmt.Errorf("email: %w", model.ErrInvalid)
	}
	return nil
}

// CheckoutSession is where the client is sent to pay.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
