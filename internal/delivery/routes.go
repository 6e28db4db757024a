package delivery

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(
	r chi.Router,
	hChannels *ChannelHandler,
	hVideos *VideoHandler,
	hViews *ViewsHandler,
	hHealth *HealthHandler,
	liveViews http.HandlerFunc,
) {
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// probes
	r.Get("/health", hHealth.Live)
	r.Get("/ready", hHealth.Ready)

	r.Route("/channels", func(r chi.Router) {
		r.Put("/", hChannels.Create)
		r.Get("/", hChannels.List)
		r.Get("/{channelID}", hChannels.Get)
		r.Delete("/{channelID}", hChannels.Delete)

		r.Route("/{channelID}/videos", func(r chi.Router) {
			r.Put("/", hVideos.Add)
			r.Get("/", hVideos.List)
			r.Get("/{videoID}", hVideos.Get)
			r.Delete("/{videoID}", hVideos.Delete)

			r.Get("/{videoID}/views", hViews.Get)
			r.Post("/{videoID}/views/register", hViews.Register)
			if liveViews != nil {
				r.Get("/{videoID}/views/live", liveViews)
			}
		})
	})
}
