package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/wg/internal/auth"
	"github.com/dukerupert/wg/internal/chore"
	"github.com/dukerupert/wg/internal/metrics"
	"github.com/dukerupert/wg/internal/model"
	"github.com/dukerupert/wg/internal/websocket"
)

const defaultActivityLimit = 100

type ActivityHandler struct {
	broadcaster
	chores  *chore.Service
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewActivityHandler(cs *chore.Service, hub *websocket.Hub, m *metrics.Metrics, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{broadcaster: broadcaster{hub}, chores: cs, metrics: m, logger: logger}
}

// List handles GET /api/chore-lists/{id}/activities. limit=0 returns all.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID[model.ChoreList](w, r, "id")
	if !ok {
		return
	}
	limit := defaultActivityLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}
	acts, err := h.chores.ListActivities(listID, includeDeleted(r), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(acts))
}

func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID[model.ChoreList](w, r, "id")
	if !ok {
		return
	}
	var in chore.ActivityInput
	if !decodeJSON(w, r, &in) {
		return
	}
	a, err := h.chores.LogActivity(listID, auth.UserID(r.Context()), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.metrics.ActivityLogged()
	h.broadcast("chore_activity", "created", a.ID.String(), listID)
	writeJSON(w, http.StatusCreated, a)
}

func (h *ActivityHandler) Update(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID[model.ChoreList](w, r, "id")
	if !ok {
		return
	}
	id, ok := pathID[model.ChoreActivity](w, r, "activity_id")
	if !ok {
		return
	}
	var in chore.ActivityInput
	if !decodeJSON(w, r, &in) {
		return
	}
	a, err := h.chores.UpdateActivity(listID, auth.UserID(r.Context()), id, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.broadcast("chore_activity", "updated", id.String(), listID)
	writeJSON(w, http.StatusOK, a)
}

func (h *ActivityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID[model.ChoreList](w, r, "id")
	if !ok {
		return
	}
	id, ok := pathID[model.ChoreActivity](w, r, "activity_id")
	if !ok {
		return
	}
	if err := h.chores.DeleteActivity(listID, auth.UserID(r.Context()), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.broadcast("chore_activity", "deleted", id.String(), listID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ActivityHandler) Restore(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID[model.ChoreList](w, r, "id")
	if !ok {
		return
	}
	id, ok := pathID[model.ChoreActivity](w, r, "activity_id")
	if !ok {
		return
	}
	if err := h.chores.RestoreActivity(listID, auth.UserID(r.Context()), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.broadcast("chore_activity", "restored", id.String(), listID)
	w.WriteHeader(http.StatusNoContent)
}
