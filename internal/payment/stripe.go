package payment

import (
	"context"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/Shrey5112/Event-Booking-Platform/internal/config"
)

// Stripe is a Gateway backed by the Stripe API.
type Stripe struct {
	api        *client.API
	currency   string
	successURL string
	cancelURL  string
}

// NewStripe creates a Stripe gateway. backends may be nil to use Stripe's
// production endpoints.
func NewStripe(cfg config.Stripe, backends *stripe.Backends) *Stripe {
	api := &client.API{}
	api.Init(cfg.SecretKey, backends)

	currency := cfg.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Stripe{
		api:        api,
		currency:   currency,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
	}
}

// Charge creates and confirms a PaymentIntent.
func (s *Stripe) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount),
		Currency:           stripe.String(req.Currency),
		PaymentMethod:      stripe.String(req.PaymentMethodID),
		ConfirmationMethod: stripe.String(string(stripe.PaymentIntentConfirmationMethodAutomatic)),
		Confirm:            stripe.Bool(true),
		ReceiptEmail:       stripe.String(req.CustomerEmail),
		ReturnURL:          stripe.String(s.successURL),
	}
	params.Context = ctx
	params.AddMetadata("customerName", req.CustomerName)

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("creating payment intent: %w", err)
	}

	return &ChargeResult{
		Succeeded:       pi.Status == stripe.PaymentIntentStatusSucceeded,
		PaymentIntentID: pi.ID,
		Status:          string(pi.Status),
	}, nil
}

// Checkout creates a customer and a hosted checkout session priced from
// the event.
func (s *Stripe) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	custParams := &stripe.CustomerParams{Email: stripe.String(req.Email)}
	custParams.Context = ctx
	cust, err := s.api.Customers.New(custParams)
	if err != nil {
		return nil, fmt.Errorf("creating customer: %w", err)
	}

	ev := req.Event
	params := &stripe.CheckoutSessionParams{
		Customer:   stripe.String(cust.ID),
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(s.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(ev.Title),
					Description: stripe.String(ev.Location + " - " + ev.Date.Format("2 Jan 2006")),
				},
				UnitAmount: stripe.Int64(ev.Price),
			},
			Quantity: stripe.Int64(int64(req.Tickets)),
		}},
	}
	params.Context = ctx
	params.AddMetadata("userId", req.UserID)
	params.AddMetadata("eventId", ev.ID)
	params.AddMetadata("tickets", strconv.Itoa(req.Tickets))

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("creating checkout session: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}
