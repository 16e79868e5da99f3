package bus

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shrey5112/Event-Booking-Platform/internal/model"
)

// These tests need a running broker and are skipped otherwise.

func TestAMQPRoundTrip(t *testing.T) {
	url := os.Getenv("EVENTBOOKING_TEST_AMQP_URL")
	if url == "" {
		t.Skip("EVENTBOOKING_TEST_AMQP_URL not set")
	}

	b, err := DialAMQP(url, nil)
	require.NoError(t, err)
	defer b.Close()

	testRoundTrip(t, b)
}

func TestKafkaRoundTrip(t *testing.T) {
	brokers := os.Getenv("EVENTBOOKING_TEST_KAFKA_BROKERS")
	if brokers == "" {
		t.Skip("EVENTBOOKING_TEST_KAFKA_BROKERS not set")
	}

	b := NewKafka(strings.Split(brokers, ","), "eventbooking-test", "", nil)
	defer b.Close()

	testRoundTrip(t, b)
}

func testRoundTrip(t *testing.T, b Bus) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	got := make(chan model.BookingUpdate, 1)
	go b.Run(ctx, func(_ context.Context, u model.BookingUpdate) {
		select {
		case got <- u:
		default:
		}
	})

	want := model.BookingUpdate{UserID: "u", BookingID: "b", Status: model.BookingPending, EventID: "e", Action: model.ActionCreated}

	// Consumers attach asynchronously; publish until one update arrives.
	tick := time.NewTicker(500 * time.Millisecond)
	defer tick.Stop()
	for {
		require.NoError(t, b.Publish(ctx, want))
		select {
		case u := <-got:
			assert.Equal(t, want, u)
			return
		case <-tick.C:
		case <-ctx.Done():
			t.Fatal("no update received")
		}
	}
}
