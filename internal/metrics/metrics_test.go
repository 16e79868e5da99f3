package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.BookingOp("confirm", "ok")
		m.Delivered(3)
		m.Dropped()
		m.Connected(1)
	})
}

func TestCounters(t *testing.T) {
	m := New()

	m.BookingOp("confirm", "ok")
	m.BookingOp("confirm", "ok")
	m.BookingOp("confirm", "conflict")
	m.Delivered(2)
	m.Dropped()
	m.Connected(1)
	m.Connected(1)
	m.Connected(-1)

	body := scrape(t, m)
	assert.Contains(t, body, `eventbooking_booking_operations_total{op="confirm",outcome="ok"} 2`)
	assert.Contains(t, body, `eventbooking_booking_operations_total{op="confirm",outcome="conflict"} 1`)
	assert.Contains(t, body, `eventbooking_realtime_deliveries_total{result="queued"} 2`)
	assert.Contains(t, body, `eventbooking_realtime_deliveries_total{result="dropped"} 1`)
	assert.Contains(t, body, `eventbooking_realtime_connections 1`)
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestHandler(t *testing.T) {
	m := New()
	m.BookingOp("create", "ok")

	assert.True(t, strings.Contains(scrape(t, m), "go_goroutines"))
}
