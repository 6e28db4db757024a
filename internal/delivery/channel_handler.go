package delivery

import (
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/vidcatalog/internal/models"
	"github.com/Vovarama1992/vidcatalog/internal/ports"
	"github.com/go-chi/chi/v5"
)

type ChannelHandler struct {
	catalog ports.CatalogService
	log     *logger.ZapLogger
}

func NewChannelHandler(catalog ports.CatalogService, log *logger.ZapLogger) *ChannelHandler {
	return &ChannelHandler{
		catalog: catalog,
		log:     log,
	}
}

type channelJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

func toChannelJSON(ch models.Channel) channelJSON {
	return channelJSON{ID: ch.ID, Name: ch.Name, Owner: ch.Owner}
}

type idJSON struct {
	ID string `json:"id"`
}

// PUT /channels
func (h *ChannelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req channelJSON
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	id, err := h.catalog.CreateChannel(r.Context(), ports.CreateChannelInput{
		ID:    req.ID,
		Name:  req.Name,
		Owner: req.Owner,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "channel created",
		Fields:  map[string]any{"channelID": id, "owner": req.Owner},
	})

	writeJSON(w, http.StatusCreated, idJSON{ID: id})
}

// GET /channels?owner=
func (h *ChannelHandler) List(w http.ResponseWriter, r *http.Request) {
	var owner *string
	if q := r.URL.Query(); q.Has("owner") {
		v := q.Get("owner")
		owner = &v
	}

	list, err := h.catalog.ListChannels(r.Context(), owner)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	out := make([]channelJSON, 0, len(list))
	for _, ch := range list {
		out = append(out, toChannelJSON(ch))
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /channels/{channelID}
func (h *ChannelHandler) Get(w http.ResponseWriter, r *http.Request) {
	ch, err := h.catalog.GetChannel(r.Context(), chi.URLParam(r, "channelID"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toChannelJSON(*ch))
}

// DELETE /channels/{channelID}
func (h *ChannelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "channelID")
	if err := h.catalog.DeleteChannel(r.Context(), id); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
