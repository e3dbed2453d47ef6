package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	appErrors "github.com/unclebandit/collab-engine/internal/errors"
)

// WriteJSON encodes body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Error("failed to encode response", "error", err)
	}
}

// WriteError maps err to its status code and writes {"error": kind, "message": msg}.
func WriteError(w http.ResponseWriter, err error) {
	status := appErrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		slog.Default().Error("request failed", "error", err)
	}
	WriteJSON(w, status, map[string]string{
		"error":   string(appErrors.KindOf(err)),
		"message": appErrors.PublicMessage(err),
	})
}

// DecodeJSON reads the request body into dst, reporting malformed bodies as InvalidInput.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return appErrors.NewInvalidInput("invalid request body: %v", err)
	}
	return nil
}
