package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/wg/internal/model"
)

// HandleWebSocket upgrades an authenticated request and streams change
// notifications. The optional chore_list_id query parameter narrows the feed
// to one list.
func HandleWebSocket(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var listID model.ChoreListID
		if raw := r.URL.Query().Get("chore_list_id"); raw != "" {
			id, err := model.ParseID[model.ChoreList](raw)
			if err != nil {
				http.Error(w, "invalid chore_list_id", http.StatusBadRequest)
				return
			}
			listID = id
		}

		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}
		defer conn.CloseNow()

		NewClient(hub, conn, listID).Run(r.Context())
	}
}
