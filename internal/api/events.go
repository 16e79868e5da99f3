package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Shrey5112/Event-Booking-Platform/internal/imaging"
	"github.com/Shrey5112/Event-Booking-Platform/internal/model"
	"github.com/Shrey5112/Event-Booking-Platform/internal/store"
)

// EventsHandler handles event endpoints. Reads are public, writes are
// admin only.
type EventsHandler struct {
	DB *sql.DB
}

type eventRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	Date             string `json:"date"`
	Location         string `json:"location"`
	Price            int64  `json:"price"`
	AvailableTickets int    `json:"available_tickets"`
}

// fields validates the request. Dates are RFC 3339 or plain YYYY-MM-DD.
func (req eventRequest) fields() (store.EventFields, string) {
	f := store.EventFields{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Location:    strings.TrimSpace(req.Location),
		Price:       req.Price,
	}
	if f.Title == "" {
		return f, "title required"
	}
	if f.Location == "" {
		return f, "location required"
	}
	if f.Price < 0 {
		return f, "price must not be negative"
	}

	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		date, err = time.Parse(time.DateOnly, req.Date)
	}
	if err != nil {
		return f, "date must be RFC 3339 or YYYY-MM-DD"
	}
	f.Date = date
	return f, ""
}

// List handles GET /api/events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := store.ListEvents(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	jsonResponse(w, http.StatusOK, events)
}

// Get handles GET /api/events/{id}.
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := store.GetEvent(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if event == nil {
		jsonError(w, http.StatusNotFound, "event not found")
		return
	}
	jsonResponse(w, http.StatusOK, event)
}

// Create handles POST /api/events.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f, problem := req.fields()
	if problem != "" {
		jsonError(w, http.StatusBadRequest, problem)
		return
	}
	if req.AvailableTickets < 0 {
		jsonError(w, http.StatusBadRequest, "available_tickets must not be negative")
		return
	}

	p := GetPrincipal(r.Context())
	event, err := store.CreateEvent(r.Context(), h.DB, f, req.AvailableTickets, p.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("event created", "user", p.UserID, "event", event.ID, "tickets", event.AvailableTickets)
	jsonMessage(w, http.StatusCreated, "Event created", "event", event)
}

// Update handles PUT /api/events/{id}. Ticket inventory is not editable
// here; it only moves when bookings are confirmed.
func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f, problem := req.fields()
	if problem != "" {
		jsonError(w, http.StatusBadRequest, problem)
		return
	}

	if err := store.UpdateEvent(r.Context(), h.DB, id, f); err != nil {
		writeError(w, r, err)
		return
	}

	event, err := store.GetEvent(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if event == nil {
		jsonError(w, http.StatusNotFound, "event not found")
		return
	}

	slog.Info("event updated", "user", GetPrincipal(r.Context()).UserID, "event", id)
	jsonMessage(w, http.StatusOK, "Event updated", "event", event)
}

// Delete handles DELETE /api/events/{id}.
func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := store.DeleteEvent(r.Context(), h.DB, id); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("event deleted", "user", GetPrincipal(r.Context()).UserID, "event", id)
	jsonMessage(w, http.StatusOK, "Event deleted", "", nil)
}

// UploadThumbnail handles PUT /api/events/{id}/thumbnail.
func (h *EventsHandler) UploadThumbnail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	thumb, err := imaging.MakeThumbnail(file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := store.SetEventThumbnail(r.Context(), h.DB, id, thumb.Data, thumb.MIME); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("event thumbnail uploaded", "user", GetPrincipal(r.Context()).UserID, "event", id, "bytes", len(thumb.Data))
	jsonMessage(w, http.StatusOK, "Thumbnail uploaded", "", nil)
}

// GetThumbnail handles GET /api/events/{id}/thumbnail.
func (h *EventsHandler) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	data, mime, err := store.GetEventThumbnail(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no thumbnail")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
