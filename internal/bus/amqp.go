package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Shrey5112/Event-Booking-Platform/internal/model"
)

// Exchange is the fanout exchange booking updates are published to.
const Exchange = "eventbooking.bookings"

// AMQP is a RabbitMQ bus. Each instance consumes through its own
// exclusive queue bound to a fanout exchange, so all instances receive
// every update.
type AMQP struct {
	conn   *amqp.Connection
	logger *slog.Logger

	mu sync.Mutex // guards ch for publishing
	ch *amqp.Channel
}

// DialAMQP connects to url and declares the exchange.
func DialAMQP(url string, logger *slog.Logger) (*AMQP, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		Exchange,
		amqp.ExchangeFanout,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declaring exchange: %w", err)
	}

	logger.Info("connected to RabbitMQ", "exchange", Exchange)
	return &AMQP{conn: conn, ch: ch, logger: logger}, nil
}

// Publish sends update to the exchange.
func (a *AMQP) Publish(ctx context.Context, update model.BookingUpdate) error {
	id, body, err := encode(update)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn.IsClosed() {
		return ErrClosed
	}
	err = a.ch.PublishWithContext(ctx,
		Exchange,
		"",    // routing key, ignored by fanout
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  ContentType,
			MessageId:    id,
			Timestamp:    time.Now(),
			DeliveryMode: amqp.Transient,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", Exchange, err)
	}
	return nil
}

// Run consumes from a fresh exclusive queue until ctx is done or the
// connection closes.
func (a *AMQP) Run(ctx context.Context, h Handler) error {
	ch, err := a.conn.Channel()
	if err != nil {
		return fmt.Errorf("opening consumer channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declaring queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", Exchange, false, nil); err != nil {
		return fmt.Errorf("binding queue: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",    // consumer tag
		true,  // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("registering consumer: %w", err)
	}

	a.logger.Info("consuming booking updates", "queue", q.Name)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			env, err := decode(msg.Body)
			if err != nil {
				a.logger.Warn("skipping malformed booking update", "message", msg.MessageId, "error", err)
				continue
			}
			h(ctx, env.Update)
		}
	}
}

// Close closes the connection. Consumers stop after it returns.
func (a *AMQP) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn.IsClosed() {
		return nil
	}
	return a.conn.Close()
}
