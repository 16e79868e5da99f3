// Package bus carries booking lifecycle updates from the reservation
// manager to the real-time fanout. The in-process bus serves a single
// instance; the AMQP and Kafka buses let several instances share one
// stream so every instance's subscribers see every update.
//
// Updates of one booking arrive in commit order only while a single
// instance writes bookings. The manager's per-booking lock is local to
// the process, so two instances changing the same booking may publish
// in either order.
package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Shrey5112/Event-Booking-Platform/internal/config"
	"github.com/Shrey5112/Event-Booking-Platform/internal/model"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("bus closed")

// Handler consumes updates. It is called from a single goroutine, in
// the order updates were published.
type Handler func(ctx context.Context, update model.BookingUpdate)

// Bus is a lifecycle update transport.
type Bus interface {
	Publish(ctx context.Context, update model.BookingUpdate) error
	// Run dispatches updates to h until ctx is cancelled or the bus is
	// closed.
	Run(ctx context.Context, h Handler) error
	Close() error
}

// Open creates the bus selected by cfg.Driver.
func Open(cfg config.Bus, logger *slog.Logger) (Bus, error) {
	switch cfg.Driver {
	case config.BusLocal, "":
		return NewLocal(cfg.QueueSize, logger), nil
	case config.BusAMQP:
		return DialAMQP(cfg.AMQPURL, logger)
	case config.BusKafka:
		return NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroup, logger), nil
	default:
		return nil, fmt.Errorf("unknown bus driver %q", cfg.Driver)
	}
}
