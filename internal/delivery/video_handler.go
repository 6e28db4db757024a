package delivery

import (
	"net/http"
	"strconv"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/vidcatalog/internal/models"
	"github.com/Vovarama1992/vidcatalog/internal/ports"
	"github.com/Vovarama1992/vidcatalog/pkg/apperrors"
	"github.com/go-chi/chi/v5"
)

type VideoHandler struct {
	catalog ports.CatalogService
	log     *logger.ZapLogger
}

func NewVideoHandler(catalog ports.CatalogService, log *logger.ZapLogger) *VideoHandler {
	return &VideoHandler{
		catalog: catalog,
		log:     log,
	}
}

type videoJSON struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
}

func toVideoJSON(v models.Video) videoJSON {
	return videoJSON{
		ID:          v.ID,
		Title:       v.Title,
		Description: v.Description,
		Duration:    v.Duration,
	}
}

// PUT /channels/{channelID}/videos
func (h *VideoHandler) Add(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	var req videoJSON
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	id, err := h.catalog.AddVideo(r.Context(), channelID, ports.AddVideoInput{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		Duration:    req.Duration,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "video added",
		Fields:  map[string]any{"channelID": channelID, "videoID": id, "duration": req.Duration},
	})

	writeJSON(w, http.StatusCreated, idJSON{ID: id})
}

// GET /channels/{channelID}/videos?minDuration=
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	var minDuration *int
	if q := r.URL.Query(); q.Has("minDuration") {
		n, err := strconv.Atoi(q.Get("minDuration"))
		if err != nil {
			writeError(w, r, h.log, apperrors.Validation("Invalid input, minDuration must be a non-negative integer"))
			return
		}
		minDuration = &n
	}

	list, err := h.catalog.ListVideos(r.Context(), chi.URLParam(r, "channelID"), minDuration)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	out := make([]videoJSON, 0, len(list))
	for _, v := range list {
		out = append(out, toVideoJSON(v))
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /channels/{channelID}/videos/{videoID}
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.catalog.GetVideo(r.Context(), chi.URLParam(r, "channelID"), chi.URLParam(r, "videoID"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toVideoJSON(*v))
}

// DELETE /channels/{channelID}/videos/{videoID}
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.catalog.DeleteVideo(r.Context(), chi.URLParam(r, "channelID"), chi.URLParam(r, "videoID"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
