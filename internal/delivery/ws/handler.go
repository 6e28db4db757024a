package ws

import (
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/vidcatalog/internal/ports"
	"github.com/go-chi/chi/v5"
)

type snapshotMsg struct {
	Views int64 `json:"views"`
}

// LiveViewsHandler serves GET /channels/{channelID}/videos/{videoID}/views/live.
// The socket first receives {"views": n}, then one message per registered view.
func LiveViewsHandler(hub *Hub, catalog ports.CatalogService, log *logger.ZapLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID := chi.URLParam(r, "channelID")
		videoID := chi.URLParam(r, "videoID")

		views, err := catalog.GetViews(r.Context(), channelID, videoID)
		if err != nil {
			http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
			return
		}

		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the HTTP error
			return
		}

		// the writer goroutine does not exist yet, so this write is exclusive
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(snapshotMsg{Views: views}); err != nil {
			conn.Close()
			return
		}

		roomID := RoomID(channelID, videoID)
		hub.Register(roomID, conn)
		defer hub.Unregister(roomID, conn)

		log.Log(logger.LogEntry{
			Level:   "info",
			Message: "live views subscribed",
			Fields:  map[string]any{"channelID": channelID, "videoID": videoID},
		})

		// drain until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
