package bus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Shrey5112/Event-Booking-Platform/internal/model"
)

// DefaultQueueSize bounds the in-process queue when no size is given.
const DefaultQueueSize = 256

// Local is an in-process bus: a bounded queue drained by one dispatcher.
type Local struct {
	queue  chan model.BookingUpdate
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

// NewLocal creates an in-process bus holding up to size pending updates.
func NewLocal(size int, logger *slog.Logger) *Local {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{
		queue:  make(chan model.BookingUpdate, size),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Publish enqueues update, waiting for room if the queue is full.
func (l *Local) Publish(ctx context.Context, update model.BookingUpdate) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}

	select {
	case l.queue <- update:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run dispatches queued updates to h. After Close it delivers what is
// still queued and returns nil.
func (l *Local) Run(ctx context.Context, h Handler) error {
	for {
		select {
		case u := <-l.queue:
			h(ctx, u)
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			for {
				select {
				case u := <-l.queue:
					h(ctx, u)
				default:
					return nil
				}
			}
		}
	}
}

// Close stops accepting updates.
func (l *Local) Close() error {
	l.once.Do(func() { close(l.done) })
	return nil
}
