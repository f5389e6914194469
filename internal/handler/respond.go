package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/wg/internal/apperr"
	"github.com/dukerupert/wg/internal/model"
	"github.com/dukerupert/wg/internal/websocket"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto status codes. Unexpected errors are
// logged and answered without details.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var status int
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrInvalid):
		status = http.StatusUnprocessableEntity
	default:
		logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return false
	}
	return true
}

// pathID parses the named path value as an id, answering 400 on failure.
func pathID[T any](w http.ResponseWriter, r *http.Request, name string) (model.ID[T], bool) {
	id, err := model.ParseID[T](r.PathValue(name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + name})
		return id, false
	}
	return id, true
}

func includeDeleted(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("include_deleted"))
	return v
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type broadcaster struct {
	hub *websocket.Hub
}

func (b broadcaster) broadcast(entity, action, id string, listID model.ChoreListID) {
	if b.hub != nil {
		b.hub.Broadcast(websocket.NewMessage(entity, action, id, listID))
	}
}
