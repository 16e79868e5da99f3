package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Shrey5112/Event-Booking-Platform/internal/model"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// jsonMessage writes {"message": message, key: data}.
func jsonMessage(w http.ResponseWriter, status int, message, key string, data any) {
	body := map[string]any{"message": message}
	if key != "" {
		body[key] = data
	}
	jsonResponse(w, status, body)
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// writeError maps a taxonomy error to a response. Unauthorized becomes 403
// for a caller that is logged in and 401 otherwise.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		jsonError(w, http.StatusNotFound, "not found")
	case errors.Is(err, model.ErrInsufficientInventory):
		jsonError(w, http.StatusBadRequest, model.ErrInsufficientInventory.Error())
	case errors.Is(err, model.ErrConflict):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrInvalid):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrUnauthorized):
		if GetPrincipal(r.Context()).Authenticated() {
			jsonError(w, http.StatusForbidden, "insufficient permissions")
		} else {
			jsonError(w, http.StatusUnauthorized, "not authenticated")
		}
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
