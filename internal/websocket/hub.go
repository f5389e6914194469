package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dukerupert/wg/internal/model"
)

// Message tells clients that something on a chore list changed so they can
// refetch it. Changes that touch every list, like absences, carry no list id.
type Message struct {
	Type        string            `json:"type"`
	Entity      string            `json:"entity"`
	Action      string            `json:"action"`
	ID          string            `json:"id,omitempty"`
	ChoreListID *model.ChoreListID `json:"chore_list_id,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action, id string, listID model.ChoreListID) Message {
	msg := Message{
		Type:   entity + "_" + action,
		Entity: entity,
		Action: action,
		ID:     id,
	}
	if !listID.IsZero() {
		msg.ChoreListID = &listID
	}
	return msg
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast delivers msg to the clients watching its chore list. Messages
// without a list, and clients watching no particular list, match everything.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	var listID model.ChoreListID
	if msg.ChoreListID != nil {
		listID = *msg.ChoreListID
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !c.wants(listID) {
			continue
		}
		select {
		case c.send <- data:
		default:
			// buffer full, drop
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
