package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/Shrey5112/Event-Booking-Platform/internal/fanout"
	"github.com/Shrey5112/Event-Booking-Platform/internal/model"
)

// writeTimeout bounds a single websocket write to a slow client.
const writeTimeout = 10 * time.Second

// RealtimeHandler serves the websocket feed of booking updates.
type RealtimeHandler struct {
	Registry *fanout.Registry

	// OriginPatterns are the cross-origin hosts allowed to connect.
	OriginPatterns []string
}

// OriginPatterns turns a client origin URL into a websocket origin
// pattern. It returns nil for an empty or unparsable origin.
func OriginPatterns(clientOrigin string) []string {
	if clientOrigin == "" {
		return nil
	}
	u, err := url.Parse(clientOrigin)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}

// ServeHTTP handles GET /api/realtime/bookings. The credential is checked
// before the upgrade so a bad token gets a plain 401.
func (h *RealtimeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := tokenFromRequest(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}

	sub, err := h.Registry.Connect(r.Context(), token)
	if errors.Is(err, model.ErrUnauthorized) {
		jsonError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer sub.Close()

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.OriginPatterns})
	if err != nil {
		slog.Warn("websocket upgrade failed", "user", sub.Principal().UserID, "error", err)
		return
	}
	defer c.CloseNow()

	// Clients never send anything; CloseRead handles control frames and
	// cancels ctx once the peer goes away.
	ctx := c.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Messages():
			if !ok {
				c.Close(websocket.StatusGoingAway, "subscription closed")
				return
			}
			if err := write(ctx, c, msg); err != nil {
				slog.Warn("realtime write failed", "user", sub.Principal().UserID, "error", err)
				return
			}
		}
	}
}

func write(ctx context.Context, c *websocket.Conn, msg fanout.Message) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, c, msg)
}
