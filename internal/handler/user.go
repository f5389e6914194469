package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/wg/internal/auth"
	"github.com/dukerupert/wg/internal/model"
	"github.com/dukerupert/wg/internal/websocket"
)

type UserHandler struct {
	broadcaster
	manager *auth.Manager
	logger  *slog.Logger
}

func NewUserHandler(m *auth.Manager, hub *websocket.Hub, logger *slog.Logger) *UserHandler {
	return &UserHandler{broadcaster: broadcaster{hub}, manager: m, logger: logger}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.manager.ListUsers(includeDeleted(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(users))
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in auth.UserInput
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := h.manager.CreateUser(in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.broadcast("user", "created", u.ID.String(), model.ChoreListID{})
	writeJSON(w, http.StatusCreated, u)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID[model.User](w, r, "id")
	if !ok {
		return
	}
	var in auth.UserInput
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := h.manager.UpdateUser(id, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.broadcast("user", "updated", id.String(), model.ChoreListID{})
	writeJSON(w, http.StatusOK, u)
}

// Delete deactivates the user and signs them out everywhere.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID[model.User](w, r, "id")
	if !ok {
		return
	}
	if err := h.manager.DeactivateUser(id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.broadcast("user", "deleted", id.String(), model.ChoreListID{})
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID[model.User](w, r, "id")
	if !ok {
		return
	}
	if err := h.manager.RestoreUser(id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.broadcast("user", "restored", id.String(), model.ChoreListID{})
	w.WriteHeader(http.StatusNoContent)
}
