package bus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/Shrey5112/Event-Booking-Platform/internal/model"
)

// DefaultTopic is used when no Kafka topic is configured.
const DefaultTopic = "eventbooking.bookings"

// Kafka is a Kafka bus. Messages are keyed by booking ID, so updates of
// one booking share a partition and keep their order. Every instance
// reads with its own consumer group and sees the whole stream.
type Kafka struct {
	writer  *kafka.Writer
	brokers []string
	topic   string
	group   string
	logger  *slog.Logger
}

// NewKafka creates a Kafka bus. An empty group gets a unique name so the
// instance receives every update.
func NewKafka(brokers []string, topic, group string, logger *slog.Logger) *Kafka {
	if topic == "" {
		topic = DefaultTopic
	}
	if group == "" {
		group = "eventbooking-" + uuid.NewString()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Kafka{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           10 * time.Millisecond,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		brokers: brokers,
		topic:   topic,
		group:   group,
		logger:  logger,
	}
}

// Publish writes update to the topic.
func (k *Kafka) Publish(ctx context.Context, update model.BookingUpdate) error {
	id, body, err := encode(update)
	if err != nil {
		return err
	}
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(update.BookingID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte(ContentType)},
			{Key: "message-id", Value: []byte(id)},
		},
	})
	if errors.Is(err, io.ErrClosedPipe) {
		return ErrClosed
	}
	if err != nil {
		return fmt.Errorf("writing to %s: %w", k.topic, err)
	}
	return nil
}

// Run reads new messages from the topic until ctx is cancelled.
func (k *Kafka) Run(ctx context.Context, h Handler) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     k.brokers,
		Topic:       k.topic,
		GroupID:     k.group,
		StartOffset: kafka.LastOffset,
		MaxWait:     500 * time.Millisecond,
	})
	defer reader.Close()

	k.logger.Info("consuming booking updates", "topic", k.topic, "group", k.group)
	for {
		msg, err := reader.ReadMessage(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return fmt.Errorf("reading from %s: %w", k.topic, err)
		}
		env, err := decode(msg.Value)
		if err != nil {
			k.logger.Warn("skipping malformed booking update", "partition", msg.Partition, "offset", msg.Offset, "error", err)
			continue
		}
		h(ctx, env.Update)
	}
}

// Close flushes pending writes and closes the writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}
