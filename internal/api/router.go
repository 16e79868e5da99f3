package api

import (
	"database/sql"
	"net/http"

	"github.com/rs/cors"

	"github.com/Shrey5112/Event-Booking-Platform/internal/booking"
	"github.com/Shrey5112/Event-Booking-Platform/internal/fanout"
	"github.com/Shrey5112/Event-Booking-Platform/internal/metrics"
	"github.com/Shrey5112/Event-Booking-Platform/internal/model"
	"github.com/Shrey5112/Event-Booking-Platform/internal/payment"
)

// Deps are the collaborators the router wires into its handlers.
type Deps struct {
	DB        *sql.DB
	JWTSecret string
	Verifier  Verifier
	Bookings  *booking.Manager
	Registry  *fanout.Registry
	Payments  payment.Gateway
	Metrics   *metrics.Metrics

	// ClientOrigin is the browser client's origin, allowed by CORS and
	// the websocket origin check.
	ClientOrigin  string
	SecureCookies bool
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: d.DB, JWTSecret: d.JWTSecret, SecureCookies: d.SecureCookies}
	usersHandler := &UsersHandler{DB: d.DB}
	eventsHandler := &EventsHandler{DB: d.DB}
	bookingsHandler := &BookingsHandler{
		Manager:      d.Bookings,
		DB:           d.DB,
		Payments:     d.Payments,
		ClientOrigin: d.ClientOrigin,
	}
	realtimeHandler := &RealtimeHandler{
		Registry:       d.Registry,
		OriginPatterns: OriginPatterns(d.ClientOrigin),
	}

	authMW := AuthMiddleware(d.Verifier)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public: account creation and login.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("GET /api/auth/me", authMW(http.HandlerFunc(authHandler.Me)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Events: read (public), write (admin).
	mux.HandleFunc("GET /api/events", eventsHandler.List)
	mux.HandleFunc("GET /api/events/{id}", eventsHandler.Get)
	mux.HandleFunc("GET /api/events/{id}/thumbnail", eventsHandler.GetThumbnail)
	mux.Handle("POST /api/events", authMW(requireAdmin(http.HandlerFunc(eventsHandler.Create))))
	mux.Handle("PUT /api/events/{id}", authMW(requireAdmin(http.HandlerFunc(eventsHandler.Update))))
	mux.Handle("DELETE /api/events/{id}", authMW(requireAdmin(http.HandlerFunc(eventsHandler.Delete))))
	mux.Handle("PUT /api/events/{id}/thumbnail", authMW(requireAdmin(http.HandlerFunc(eventsHandler.UploadThumbnail))))

	// Bookings. Ownership and admin checks live in the booking manager.
	mux.Handle("POST /api/bookings/checkout", authMW(http.HandlerFunc(bookingsHandler.Checkout)))
	mux.Handle("POST /api/bookings/payment", authMW(http.HandlerFunc(bookingsHandler.Pay)))
	mux.Handle("POST /api/bookings/{eventId}", authMW(http.HandlerFunc(bookingsHandler.Create)))
	mux.Handle("GET /api/bookings/user", authMW(http.HandlerFunc(bookingsHandler.ListMine)))
	mux.Handle("GET /api/bookings/all", authMW(http.HandlerFunc(bookingsHandler.ListAll)))
	mux.Handle("PUT /api/bookings/{id}/cancel", authMW(http.HandlerFunc(bookingsHandler.Cancel)))
	mux.Handle("PUT /api/bookings/{id}/confirm", authMW(http.HandlerFunc(bookingsHandler.Confirm)))

	// Real-time feed; authenticates itself before upgrading.
	mux.Handle("GET /api/realtime/bookings", realtimeHandler)

	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.DB.PingContext(r.Context()); err != nil {
			jsonError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if d.ClientOrigin == "" {
		return mux
	}
	return cors.New(cors.Options{
		AllowedOrigins:   []string{d.ClientOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(mux)
}
