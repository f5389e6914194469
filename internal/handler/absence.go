package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/wg/internal/absence"
	"github.com/dukerupert/wg/internal/auth"
	"github.com/dukerupert/wg/internal/model"
	"github.com/dukerupert/wg/internal/websocket"
)

// AbsenceHandler broadcasts without a chore list since absences change the
// scores of every list.
type AbsenceHandler struct {
	broadcaster
	absences *absence.Service
	logger   *slog.Logger
}

func NewAbsenceHandler(as *absence.Service, hub *websocket.Hub, logger *slog.Logger) *AbsenceHandler {
	return &AbsenceHandler{broadcaster: broadcaster{hub}, absences: as, logger: logger}
}

// List answers with absences grouped by date, latest first.
func (h *AbsenceHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.absences.List(includeDeleted(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(groups))
}

func (h *AbsenceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in absence.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	a, err := h.absences.Create(auth.UserID(r.Context()), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.broadcast("absence", "created", a.ID.String(), model.ChoreListID{})
	writeJSON(w, http.StatusCreated, a)
}

func (h *AbsenceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID[model.Absence](w, r, "id")
	if !ok {
		return
	}
	var in absence.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	a, err := h.absences.Update(auth.UserID(r.Context()), id, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.broadcast("absence", "updated", id.String(), model.ChoreListID{})
	writeJSON(w, http.StatusOK, a)
}

func (h *AbsenceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID[model.Absence](w, r, "id")
	if !ok {
		return
	}
	if err := h.absences.Delete(auth.UserID(r.Context()), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.broadcast("absence", "deleted", id.String(), model.ChoreListID{})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AbsenceHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID[model.Absence](w, r, "id")
	if !ok {
		return
	}
	if err := h.absences.Restore(auth.UserID(r.Context()), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.broadcast("absence", "restored", id.String(), model.ChoreListID{})
	w.WriteHeader(http.StatusNoContent)
}
