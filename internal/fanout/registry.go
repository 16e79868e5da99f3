// Package fanout routes booking lifecycle updates to live subscribers.
// Every subscriber listens on its own user channel; admins also listen on
// the shared admins channel.
package fanout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Shrey5112/Event-Booking-Platform/internal/metrics"
	"github.com/Shrey5112/Event-Booking-Platform/internal/model"
)

// Message types sent to subscribers.
const (
	TypeBookingUpdate = "booking:update"
	TypeAdminFeed     = "booking:adminFeed"
	TypeConnected     = "connected"
)

// AdminsChannel is the channel every admin subscription joins.
const AdminsChannel = "admins"

// DefaultQueueSize is the per-subscription buffer used when none is set.
const DefaultQueueSize = 64

// UserChannel returns the private channel of a user.
func UserChannel(userID string) string {
	return "user:" + userID
}

// Message is one item queued for a subscriber.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hello is the payload of the connected message.
type Hello struct {
	OK     bool   `json:"ok"`
	UserID string `json:"userId"`
}

// Verifier checks a credential and returns who it belongs to.
type Verifier interface {
	Verify(ctx context.Context, token string) (model.Principal, error)
}

// Registry tracks open subscriptions by channel.
type Registry struct {
	verifier  Verifier
	logger    *slog.Logger
	metrics   *metrics.Metrics
	queueSize int

	mu       sync.RWMutex
	channels map[string]map[*Subscription]struct{}
}

// Option configures a Registry.
type Option func(*Registry)

// WithQueueSize sets the per-subscription buffer.
func WithQueueSize(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.queueSize = n
		}
	}
}

// WithMetrics records connection and delivery counts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// NewRegistry creates an empty registry.
func NewRegistry(v Verifier, logger *slog.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		verifier:  v,
		logger:    logger,
		queueSize: DefaultQueueSize,
		channels:  make(map[string]map[*Subscription]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Connect verifies credential and opens a subscription bound to the
// caller's channels. The first queued message is the connected hello.
func (r *Registry) Connect(ctx context.Context, credential string) (*Subscription, error) {
	if credential == "" {
		return nil, fmt.Errorf("missing credential: %w", model.ErrUnauthorized)
	}
	p, err := r.verifier.Verify(ctx, credential)
	if err != nil {
		return nil, err
	}
	if !p.Authenticated() {
		return nil, fmt.Errorf("no identity: %w", model.ErrUnauthorized)
	}
	return r.Subscribe(p), nil
}

// Subscribe opens a subscription for an already verified principal.
func (r *Registry) Subscribe(p model.Principal) *Subscription {
	s := &Subscription{
		registry:  r,
		principal: p,
		messages:  make(chan Message, r.queueSize),
		channels:  []string{UserChannel(p.UserID)},
	}
	if p.IsAdmin() {
		s.channels = append(s.channels, AdminsChannel)
	}
	s.messages <- Message{Type: TypeConnected, Data: Hello{OK: true, UserID: p.UserID}}

	r.mu.Lock()
	for _, ch := range s.channels {
		subs, ok := r.channels[ch]
		if !ok {
			subs = make(map[*Subscription]struct{})
			r.channels[ch] = subs
		}
		subs[s] = struct{}{}
	}
	r.mu.Unlock()

	r.metrics.Connected(1)
	r.logger.Info("realtime subscriber connected", "user", p.UserID, "role", p.Role)
	return s
}

// Deliver queues update for the owner's channel and for the admins
// channel. Subscribers whose queue is full miss the message. It returns
// the number of messages queued.
func (r *Registry) Deliver(ctx context.Context, update model.BookingUpdate) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	queued := 0
	queued += r.sendLocked(UserChannel(update.UserID), Message{Type: TypeBookingUpdate, Data: update})
	queued += r.sendLocked(AdminsChannel, Message{Type: TypeAdminFeed, Data: update})
	r.metrics.Delivered(queued)
	return queued
}

func (r *Registry) sendLocked(channel string, msg Message) int {
	n := 0
	for s := range r.channels[channel] {
		select {
		case s.messages <- msg:
			n++
		default:
			r.metrics.Dropped()
			r.logger.Warn("realtime queue full, dropping message",
				"user", s.principal.UserID, "channel", channel, "type", msg.Type)
		}
	}
	return n
}

// Subscribers returns the number of subscriptions bound to channel.
func (r *Registry) Subscribers(channel string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[channel])
}

func (r *Registry) remove(s *Subscription) {
	r.mu.Lock()
	for _, ch := range s.channels {
		if subs, ok := r.channels[ch]; ok {
			delete(subs, s)
			if len(subs) == 0 {
				delete(r.channels, ch)
			}
		}
	}
	close(s.messages)
	r.mu.Unlock()

	r.metrics.Connected(-1)
	r.logger.Info("realtime subscriber disconnected", "user", s.principal.UserID)
}

// Subscription is one live connection's view of the registry.
type Subscription struct {
	registry  *Registry
	principal model.Principal
	channels  []string
	messages  chan Message
	closeOnce sync.Once
}

// Messages returns the subscriber's queue. It is closed by Close.
func (s *Subscription) Messages() <-chan Message {
	return s.messages
}

// Principal returns who the subscription belongs to.
func (s *Subscription) Principal() model.Principal {
	return s.principal
}

// Channels returns the channel names the subscription is bound to.
func (s *Subscription) Channels() []string {
	return append([]string(nil), s.channels...)
}

// Close unbinds the subscription from all its channels. Safe to call more
// than once.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() { s.registry.remove(s) })
}
