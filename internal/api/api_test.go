package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/Shrey5112/Event-Booking-Platform/internal/auth"
	"github.com/Shrey5112/Event-Booking-Platform/internal/booking"
	"github.com/Shrey5112/Event-Booking-Platform/internal/bus"
	"github.com/Shrey5112/Event-Booking-Platform/internal/db"
	"github.com/Shrey5112/Event-Booking-Platform/internal/fanout"
	"github.com/Shrey5112/Event-Booking-Platform/internal/metrics"
	"github.com/Shrey5112/Event-Booking-Platform/internal/model"
	"github.com/Shrey5112/Event-Booking-Platform/internal/payment"
	"github.com/Shrey5112/Event-Booking-Platform/internal/store"
)

const testJWTSecret = "test-secret"

const testPassword = "password"

type testEnv struct {
	server     *httptest.Server
	db         *sql.DB
	adminToken string
}

type fakeGateway struct {
	charges   []payment.ChargeRequest
	checkouts []payment.CheckoutRequest
}

func (g *fakeGateway) Charge(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	g.charges = append(g.charges, req)
	return &payment.ChargeResult{Succeeded: true, PaymentIntentID: "pi_test", Status: "succeeded"}, nil
}

func (g *fakeGateway) Checkout(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	g.checkouts = append(g.checkouts, req)
	return &payment.CheckoutSession{ID: "cs_test", URL: "https://pay.example/cs_test"}, nil
}

func setupTestServer(t *testing.T, payments payment.Gateway) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)

	verifier := &auth.Verifier{Secret: testJWTSecret, DB: database}
	registry := fanout.NewRegistry(verifier, nil)
	local := bus.NewLocal(0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go local.Run(ctx, func(ctx context.Context, u model.BookingUpdate) {
		registry.Deliver(ctx, u)
	})
	t.Cleanup(func() {
		local.Close()
		cancel()
	})

	router := NewRouter(Deps{
		DB:        database,
		JWTSecret: testJWTSecret,
		Verifier:  verifier,
		Bookings:  booking.NewManager(store.SQL{DB: database}, local, nil, nil),
		Registry:  registry,
		Payments:  payments,
		Metrics:   metrics.New(),
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	env := &testEnv{server: server, db: database}
	env.adminToken = env.createUser(t, "Admin", "admin@example.com", model.RoleAdmin)
	return env
}

// createUser inserts a user and returns a session token for it.
func (e *testEnv) createUser(t *testing.T, name, email, role string) string {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	if _, err := store.CreateUser(context.Background(), e.db, name, email, hash, role); err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return login(t, e.server.URL, email, testPassword)
}

func login(t *testing.T, baseURL, email, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(baseURL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp loginResponse
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp.Token == "" {
		t.Fatal("empty token from login")
	}
	return loginResp.Token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do sends a JSON request and decodes the response into out, if given.
func do(t *testing.T, method, url, token string, body, out any) int {
	t.Helper()
	req, err := authRequest(method, url, token, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s response: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

type eventResponse struct {
	Message string      `json:"message"`
	Event   model.Event `json:"event"`
}

type bookingResponse struct {
	Message string        `json:"message"`
	Booking model.Booking `json:"booking"`
	Error   string        `json:"error"`
}

func (e *testEnv) createEvent(t *testing.T, title string, tickets int) model.Event {
	t.Helper()
	var resp eventResponse
	status := do(t, "POST", e.server.URL+"/api/events", e.adminToken, map[string]any{
		"title":             title,
		"description":       "An evening of music",
		"date":              "2030-01-02T18:00:00Z",
		"location":          "Main Hall",
		"price":             1500,
		"available_tickets": tickets,
	}, &resp)
	if status != http.StatusCreated {
		t.Fatalf("creating event: expected 201, got %d", status)
	}
	return resp.Event
}

func TestLoginEndpoint(t *testing.T) {
	env := setupTestServer(t, nil)

	// Test invalid credentials.
	body, _ := json.Marshal(map[string]string{"email": "admin@example.com", "password": "wrong"})
	resp, _ := http.Post(env.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Test valid credentials set the session cookie.
	body, _ = json.Marshal(map[string]string{"email": "admin@example.com", "password": testPassword})
	resp, err := http.Post(env.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == TokenCookie {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" || !cookie.HttpOnly {
		t.Errorf("expected http-only %s cookie, got %+v", TokenCookie, cookie)
	}
}

func TestRegisterAndMe(t *testing.T) {
	env := setupTestServer(t, nil)
	reg := map[string]string{"name": "Asha", "email": "Asha@Example.com", "password": "secret123"}

	if status := do(t, "POST", env.server.URL+"/api/auth/register", "", reg, nil); status != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", status)
	}
	if status := do(t, "POST", env.server.URL+"/api/auth/register", "", reg, nil); status != http.StatusBadRequest {
		t.Errorf("duplicate register: expected 400, got %d", status)
	}

	token := login(t, env.server.URL, "asha@example.com", "secret123")

	var me model.UserSummary
	if status := do(t, "GET", env.server.URL+"/api/auth/me", token, nil, &me); status != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", status)
	}
	if me.Email != "asha@example.com" || me.Role != model.RoleUser {
		t.Errorf("unexpected current user %+v", me)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	env := setupTestServer(t, nil)
	token := env.createUser(t, "Ravi", "ravi@example.com", model.RoleUser)

	if status := do(t, "POST", env.server.URL+"/api/auth/logout", token, nil, nil); status != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", status)
	}
	if status := do(t, "GET", env.server.URL+"/api/auth/me", token, nil, nil); status != http.StatusUnauthorized {
		t.Errorf("revoked token: expected 401, got %d", status)
	}
}

func TestEventsAPIFlow(t *testing.T) {
	env := setupTestServer(t, nil)
	event := env.createEvent(t, "Concert", 100)
	if event.ID == "" || event.AvailableTickets != 100 {
		t.Fatalf("unexpected event %+v", event)
	}

	// Listing is public.
	var events []model.Event
	if status := do(t, "GET", env.server.URL+"/api/events", "", nil, &events); status != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", status)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	var updated eventResponse
	status := do(t, "PUT", env.server.URL+"/api/events/"+event.ID, env.adminToken, map[string]any{
		"title":    "Concert (moved)",
		"date":     "2030-01-03",
		"location": "Open Air Stage",
		"price":    2000,
	}, &updated)
	if status != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", status)
	}
	if updated.Event.Location != "Open Air Stage" || updated.Event.AvailableTickets != 100 {
		t.Errorf("unexpected updated event %+v", updated.Event)
	}

	if status := do(t, "DELETE", env.server.URL+"/api/events/"+event.ID, env.adminToken, nil, nil); status != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", status)
	}
	if status := do(t, "GET", env.server.URL+"/api/events/"+event.ID, "", nil, nil); status != http.StatusNotFound {
		t.Errorf("deleted event: expected 404, got %d", status)
	}
}

func TestEventValidation(t *testing.T) {
	env := setupTestServer(t, nil)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing title", map[string]any{"date": "2030-01-02", "location": "Hall"}},
		{"bad date", map[string]any{"title": "A", "date": "next week", "location": "Hall"}},
		{"negative tickets", map[string]any{"title": "A", "date": "2030-01-02", "location": "Hall", "available_tickets": -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status := do(t, "POST", env.server.URL+"/api/events", env.adminToken, tt.body, nil); status != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", status)
			}
		})
	}
}

func TestBookingAPIFlow(t *testing.T) {
	env := setupTestServer(t, nil)
	event := env.createEvent(t, "Concert", 10)
	userToken := env.createUser(t, "Asha", "asha@example.com", model.RoleUser)

	var created bookingResponse
	status := do(t, "POST", env.server.URL+"/api/bookings/"+event.ID, userToken, map[string]int{"tickets": 3}, &created)
	if status != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", status)
	}
	if created.Booking.Status != model.BookingPending {
		t.Fatalf("expected pending booking, got %s", created.Booking.Status)
	}
	id := created.Booking.ID

	// Only admins confirm.
	if status := do(t, "PUT", env.server.URL+"/api/bookings/"+id+"/confirm", userToken, nil, nil); status != http.StatusForbidden {
		t.Errorf("user confirm: expected 403, got %d", status)
	}

	var confirmed bookingResponse
	if status := do(t, "PUT", env.server.URL+"/api/bookings/"+id+"/confirm", env.adminToken, nil, &confirmed); status != http.StatusOK {
		t.Fatalf("confirm: expected 200, got %d", status)
	}
	if confirmed.Booking.Status != model.BookingConfirmed {
		t.Errorf("expected confirmed, got %s", confirmed.Booking.Status)
	}

	var after model.Event
	do(t, "GET", env.server.URL+"/api/events/"+event.ID, "", nil, &after)
	if after.AvailableTickets != 7 {
		t.Errorf("expected 7 tickets left, got %d", after.AvailableTickets)
	}

	if status := do(t, "PUT", env.server.URL+"/api/bookings/"+id+"/confirm", env.adminToken, nil, nil); status != http.StatusConflict {
		t.Errorf("second confirm: expected 409, got %d", status)
	}

	var cancelled bookingResponse
	if status := do(t, "PUT", env.server.URL+"/api/bookings/"+id+"/cancel", userToken, nil, &cancelled); status != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d", status)
	}
	if cancelled.Booking.Status != model.BookingCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Booking.Status)
	}

	var mine []model.Booking
	if status := do(t, "GET", env.server.URL+"/api/bookings/user", userToken, nil, &mine); status != http.StatusOK {
		t.Fatalf("list mine: expected 200, got %d", status)
	}
	if len(mine) != 1 || mine[0].Event == nil || mine[0].Event.Title != "Concert" {
		t.Errorf("unexpected own bookings %+v", mine)
	}

	if status := do(t, "GET", env.server.URL+"/api/bookings/all", userToken, nil, nil); status != http.StatusForbidden {
		t.Errorf("user list all: expected 403, got %d", status)
	}
	var all []model.Booking
	if status := do(t, "GET", env.server.URL+"/api/bookings/all", env.adminToken, nil, &all); status != http.StatusOK {
		t.Fatalf("admin list all: expected 200, got %d", status)
	}
	if len(all) != 1 || all[0].User == nil || all[0].User.Email != "asha@example.com" {
		t.Errorf("unexpected all bookings %+v", all)
	}
}

func TestBookingErrors(t *testing.T) {
	env := setupTestServer(t, nil)
	event := env.createEvent(t, "Recital", 2)
	userToken := env.createUser(t, "Asha", "asha@example.com", model.RoleUser)
	otherToken := env.createUser(t, "Ravi", "ravi@example.com", model.RoleUser)

	var resp bookingResponse
	status := do(t, "POST", env.server.URL+"/api/bookings/"+event.ID, userToken, map[string]int{"tickets": 5}, &resp)
	if status != http.StatusBadRequest || resp.Error != "not enough tickets available" {
		t.Errorf("oversized booking: expected 400 not enough tickets, got %d %q", status, resp.Error)
	}

	if status := do(t, "POST", env.server.URL+"/api/bookings/missing", userToken, map[string]int{"tickets": 1}, nil); status != http.StatusNotFound {
		t.Errorf("unknown event: expected 404, got %d", status)
	}
	if status := do(t, "POST", env.server.URL+"/api/bookings/"+event.ID, userToken, map[string]int{"tickets": 0}, nil); status != http.StatusBadRequest {
		t.Errorf("zero tickets: expected 400, got %d", status)
	}

	do(t, "POST", env.server.URL+"/api/bookings/"+event.ID, userToken, map[string]int{"tickets": 1}, &resp)
	if status := do(t, "PUT", env.server.URL+"/api/bookings/"+resp.Booking.ID+"/cancel", otherToken, nil, nil); status != http.StatusForbidden {
		t.Errorf("cancel someone else's booking: expected 403, got %d", status)
	}
	if status := do(t, "PUT", env.server.URL+"/api/bookings/missing/cancel", userToken, nil, nil); status != http.StatusNotFound {
		t.Errorf("cancel unknown booking: expected 404, got %d", status)
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	env := setupTestServer(t, nil)

	routes := []struct{ method, path string }{
		{"GET", "/api/auth/me"},
		{"GET", "/api/users"},
		{"POST", "/api/events"},
		{"POST", "/api/bookings/some-event"},
		{"GET", "/api/bookings/user"},
		{"PUT", "/api/bookings/some-booking/confirm"},
	}
	for _, rt := range routes {
		if status := do(t, rt.method, env.server.URL+rt.path, "", nil, nil); status != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", rt.method, rt.path, status)
		}
	}

	if status := do(t, "GET", env.server.URL+"/api/auth/me", "not-a-token", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("garbage token: expected 401, got %d", status)
	}
}

func TestRoleBasedAccess(t *testing.T) {
	env := setupTestServer(t, nil)
	userToken := env.createUser(t, "Asha", "asha@example.com", model.RoleUser)

	if status := do(t, "POST", env.server.URL+"/api/events", userToken, map[string]any{
		"title": "Nope", "date": "2030-01-02", "location": "Hall",
	}, nil); status != http.StatusForbidden {
		t.Errorf("user creating event: expected 403, got %d", status)
	}
	if status := do(t, "GET", env.server.URL+"/api/users", userToken, nil, nil); status != http.StatusForbidden {
		t.Errorf("user listing users: expected 403, got %d", status)
	}

	// Promoting the user takes effect without a new login.
	var users []model.User
	do(t, "GET", env.server.URL+"/api/users", env.adminToken, nil, &users)
	var userID string
	for _, u := range users {
		if u.Email == "asha@example.com" {
			userID = u.ID
		}
	}
	if status := do(t, "PUT", env.server.URL+"/api/users/"+userID, env.adminToken, map[string]string{"role": model.RoleAdmin}, nil); status != http.StatusOK {
		t.Fatalf("promote: expected 200, got %d", status)
	}
	if status := do(t, "GET", env.server.URL+"/api/users", userToken, nil, nil); status != http.StatusOK {
		t.Errorf("promoted user listing users: expected 200, got %d", status)
	}
}

func TestThumbnailUpload(t *testing.T) {
	env := setupTestServer(t, nil)
	event := env.createEvent(t, "Gallery", 5)

	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for x := 0; x < 320; x++ {
		img.Set(x, 120, color.RGBA{R: 255, A: 255})
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("image", "poster.png")
	png.Encode(part, img)
	mw.Close()

	req, _ := http.NewRequest("PUT", env.server.URL+"/api/events/"+event.ID+"/thumbnail", &body)
	req.Header.Set("Authorization", "Bearer "+env.adminToken)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(env.server.URL + "/api/events/" + event.ID + "/thumbnail")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/jpeg" {
		t.Errorf("download: expected 200 image/jpeg, got %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
}

func TestPayments(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		env := setupTestServer(t, nil)
		if status := do(t, "POST", env.server.URL+"/api/bookings/payment", env.adminToken, map[string]any{}, nil); status != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", status)
		}
	})

	t.Run("charge and checkout", func(t *testing.T) {
		gateway := &fakeGateway{}
		env := setupTestServer(t, gateway)
		event := env.createEvent(t, "Concert", 3)
		userToken := env.createUser(t, "Asha", "asha@example.com", model.RoleUser)

		var paid paymentResponse
		status := do(t, "POST", env.server.URL+"/api/bookings/payment", userToken, map[string]any{
			"amount":          1500,
			"paymentMethodId": "pm_card_visa",
			"customerName":    "Asha Rao",
			"customerEmail":   "asha@example.com",
		}, &paid)
		if status != http.StatusOK || !paid.Success || !strings.HasSuffix(paid.RedirectURL, "/success") {
			t.Errorf("payment: unexpected %d %+v", status, paid)
		}
		if len(gateway.charges) != 1 || gateway.charges[0].Currency != payment.DefaultCurrency {
			t.Errorf("expected one charge in default currency, got %+v", gateway.charges)
		}

		if status := do(t, "POST", env.server.URL+"/api/bookings/payment", userToken, map[string]any{"amount": 10}, nil); status != http.StatusBadRequest {
			t.Errorf("invalid payment: expected 400, got %d", status)
		}

		var session payment.CheckoutSession
		status = do(t, "POST", env.server.URL+"/api/bookings/checkout", userToken, map[string]any{
			"eventId": event.ID, "tickets": 2, "email": "asha@example.com",
		}, &session)
		if status != http.StatusOK || session.URL == "" {
			t.Errorf("checkout: unexpected %d %+v", status, session)
		}
		if status := do(t, "POST", env.server.URL+"/api/bookings/checkout", userToken, map[string]any{
			"eventId": event.ID, "tickets": 4, "email": "asha@example.com",
		}, nil); status != http.StatusBadRequest {
			t.Errorf("oversized checkout: expected 400, got %d", status)
		}
		if len(gateway.checkouts) != 1 {
			t.Errorf("expected 1 checkout, got %d", len(gateway.checkouts))
		}
	})
}

type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func readMessage(t *testing.T, c *websocket.Conn) wsMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var msg wsMessage
	if err := wsjson.Read(ctx, c, &msg); err != nil {
		t.Fatalf("reading websocket message: %v", err)
	}
	return msg
}

func TestRealtimeFeed(t *testing.T) {
	env := setupTestServer(t, nil)
	event := env.createEvent(t, "Concert", 10)
	userToken := env.createUser(t, "Asha", "asha@example.com", model.RoleUser)
	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/api/realtime/bookings"
	ctx := context.Background()

	userConn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + userToken}},
	})
	if err != nil {
		t.Fatalf("user dial: %v", err)
	}
	defer userConn.CloseNow()

	adminConn, _, err := websocket.Dial(ctx, wsURL+"?token="+env.adminToken, nil)
	if err != nil {
		t.Fatalf("admin dial: %v", err)
	}
	defer adminConn.CloseNow()

	for _, c := range []*websocket.Conn{userConn, adminConn} {
		if msg := readMessage(t, c); msg.Type != fanout.TypeConnected {
			t.Fatalf("expected %s first, got %s", fanout.TypeConnected, msg.Type)
		}
	}

	var created bookingResponse
	if status := do(t, "POST", env.server.URL+"/api/bookings/"+event.ID, userToken, map[string]int{"tickets": 2}, &created); status != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", status)
	}

	msg := readMessage(t, userConn)
	if msg.Type != fanout.TypeBookingUpdate {
		t.Fatalf("user: expected %s, got %s", fanout.TypeBookingUpdate, msg.Type)
	}
	var update model.BookingUpdate
	json.Unmarshal(msg.Data, &update)
	want := model.BookingUpdate{
		UserID:    created.Booking.UserID,
		BookingID: created.Booking.ID,
		Status:    model.BookingPending,
		EventID:   event.ID,
		Action:    model.ActionCreated,
	}
	if update != want {
		t.Errorf("user update = %+v, want %+v", update, want)
	}

	msg = readMessage(t, adminConn)
	if msg.Type != fanout.TypeAdminFeed {
		t.Fatalf("admin: expected %s, got %s", fanout.TypeAdminFeed, msg.Type)
	}

	// Admin confirmation reaches the owner as an update.
	do(t, "PUT", env.server.URL+"/api/bookings/"+created.Booking.ID+"/confirm", env.adminToken, nil, nil)
	msg = readMessage(t, userConn)
	json.Unmarshal(msg.Data, &update)
	if update.Status != model.BookingConfirmed || update.Action != model.ActionUpdated {
		t.Errorf("expected confirmed update, got %+v", update)
	}
}

func TestRealtimeRejectsBadToken(t *testing.T) {
	env := setupTestServer(t, nil)
	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/api/realtime/bookings"

	for _, url := range []string{wsURL, wsURL + "?token=garbage"} {
		_, resp, err := websocket.Dial(context.Background(), url, nil)
		if err == nil {
			t.Fatalf("%s: expected dial to fail", url)
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s: expected 401 response, got %+v", url, resp)
		}
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := setupTestServer(t, nil)

	if status := do(t, "GET", env.server.URL+"/healthz", "", nil, nil); status != http.StatusOK {
		t.Errorf("healthz: expected 200, got %d", status)
	}

	resp, err := http.Get(env.server.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics: expected 200, got %d", resp.StatusCode)
	}
}
