package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/wg/internal/chore"
	"github.com/dukerupert/wg/internal/model"
	"github.com/dukerupert/wg/internal/scoring"
	"github.com/dukerupert/wg/internal/websocket"
)

type ChoreListHandler struct {
	broadcaster
	chores *chore.Service
	scores *scoring.Service
	logger *slog.Logger
}

func NewChoreListHandler(cs *chore.Service, ss *scoring.Service, hub *websocket.Hub, logger *slog.Logger) *ChoreListHandler {
	return &ChoreListHandler{broadcaster: broadcaster{hub}, chores: cs, scores: ss, logger: logger}
}

func (h *ChoreListHandler) List(w http.ResponseWriter, r *http.Request) {
	lists, err := h.chores.ListChoreLists(includeDeleted(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(lists))
}

func (h *ChoreListHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID[model.ChoreList](w, r, "id")
	if !ok {
		return
	}
	l, err := h.chores.GetChoreList(id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *ChoreListHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in chore.ChoreListInput
	if !decodeJSON(w, r, &in) {
		return
	}
	l, err := h.chores.CreateChoreList(in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.broadcast("chore_list", "created", l.ID.String(), l.ID)
	writeJSON(w, http.StatusCreated, l)
}

func (h *ChoreListHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID[model.ChoreList](w, r, "id")
	if !ok {
		return
	}
	var in chore.ChoreListInput
	if !decodeJSON(w, r, &in) {
		return
	}
	l, err := h.chores.UpdateChoreList(id, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.broadcast("chore_list", "updated", id.String(), id)
	writeJSON(w, http.StatusOK, l)
}

func (h *ChoreListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID[model.ChoreList](w, r, "id")
	if !ok {
		return
	}
	if err := h.chores.DeleteChoreList(id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.broadcast("chore_list", "deleted", id.String(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChoreListHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID[model.ChoreList](w, r, "id")
	if !ok {
		return
	}
	if err := h.chores.RestoreChoreList(id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.broadcast("chore_list", "restored", id.String(), id)
	w.WriteHeader(http.StatusNoContent)
}

// Scores handles GET /api/chore-lists/{id}/scores.
func (h *ChoreListHandler) Scores(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID[model.ChoreList](w, r, "id")
	if !ok {
		return
	}
	l, err := h.chores.GetChoreList(id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	result, err := h.scores.AdjustedScores(*l)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
