package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/wg/internal/chore"
	"github.com/dukerupert/wg/internal/model"
	"github.com/dukerupert/wg/internal/websocket"
)

type ChoreHandler struct {
	broadcaster
	chores *chore.Service
	logger *slog.Logger
}

func NewChoreHandler(cs *chore.Service, hub *websocket.Hub, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{broadcaster: broadcaster{hub}, chores: cs, logger: logger}
}

// List answers with every chore of the list and its due status for today.
func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID[model.ChoreList](w, r, "id")
	if !ok {
		return
	}
	chores, err := h.chores.ListChores(listID, includeDeleted(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(chores))
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID[model.ChoreList](w, r, "id")
	if !ok {
		return
	}
	var in chore.ChoreInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.chores.CreateChore(listID, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.broadcast("chore", "created", c.ID.String(), listID)
	writeJSON(w, http.StatusCreated, c)
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID[model.ChoreList](w, r, "id")
	if !ok {
		return
	}
	id, ok := pathID[model.Chore](w, r, "chore_id")
	if !ok {
		return
	}
	var in chore.ChoreInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.chores.UpdateChore(listID, id, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.broadcast("chore", "updated", id.String(), listID)
	writeJSON(w, http.StatusOK, c)
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID[model.ChoreList](w, r, "id")
	if !ok {
		return
	}
	id, ok := pathID[model.Chore](w, r, "chore_id")
	if !ok {
		return
	}
	if err := h.chores.DeleteChore(listID, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.broadcast("chore", "deleted", id.String(), listID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChoreHandler) Restore(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID[model.ChoreList](w, r, "id")
	if !ok {
		return
	}
	id, ok := pathID[model.Chore](w, r, "chore_id")
	if !ok {
		return
	}
	if err := h.chores.RestoreChore(listID, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.broadcast("chore", "restored", id.String(), listID)
	w.WriteHeader(http.StatusNoContent)
}
