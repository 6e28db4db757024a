package delivery

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/vidcatalog/internal/ports"
	"github.com/go-chi/chi/v5"
)

type ViewsHandler struct {
	catalog ports.CatalogService
	log     *logger.ZapLogger
}

func NewViewsHandler(catalog ports.CatalogService, log *logger.ZapLogger) *ViewsHandler {
	return &ViewsHandler{
		catalog: catalog,
		log:     log,
	}
}

type viewsJSON struct {
	Views int64 `json:"views"`
}

// GET /channels/{channelID}/videos/{videoID}/views
func (h *ViewsHandler) Get(w http.ResponseWriter, r *http.Request) {
	n, err := h.catalog.GetViews(r.Context(), chi.URLParam(r, "channelID"), chi.URLParam(r, "videoID"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, viewsJSON{Views: n})
}

// POST /channels/{channelID}/videos/{videoID}/views/register
//
// The body is optional. A malformed body does not fail the request; the view
// is still counted without a viewer id.
func (h *ViewsHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ViewerID string `json:"viewer_id"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 4<<10)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.log.Log(logger.LogEntry{
			Level:   "warn",
			Message: "ignoring unreadable view body",
			Fields:  map[string]any{"requestID": RequestIDFromContext(r.Context())},
			Error:   err,
		})
		req.ViewerID = ""
	}

	err := h.catalog.RegisterView(r.Context(), chi.URLParam(r, "channelID"), chi.URLParam(r, "videoID"), req.ViewerID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
