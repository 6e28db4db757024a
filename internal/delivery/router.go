package delivery

import (
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/vidcatalog/internal/ports"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterDeps struct {
	Catalog     ports.CatalogService
	Log         *logger.ZapLogger
	Metrics     *Metrics
	Health      map[string]ports.Pinger
	LiveViews   http.HandlerFunc
	CORSOrigins []string
}

// NewRouter builds the full HTTP surface: middleware, catalog routes, probes
// and /metrics.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r.Use(chimw.Recoverer)
	r.Use(RequestID)
	r.Use(AccessLog(d.Log, d.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "PUT", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	}))

	RegisterRoutes(r,
		NewChannelHandler(d.Catalog, d.Log),
		NewVideoHandler(d.Catalog, d.Log),
		NewViewsHandler(d.Catalog, d.Log),
		NewHealthHandler(d.Health, d.Log),
		d.LiveViews,
	)

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	return r
}
