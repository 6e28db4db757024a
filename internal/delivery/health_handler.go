package delivery

import (
	"context"
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/vidcatalog/internal/ports"
)

type HealthHandler struct {
	deps map[string]ports.Pinger
	log  *logger.ZapLogger
}

// NewHealthHandler takes the dependencies probed by /ready, keyed by name.
func NewHealthHandler(deps map[string]ports.Pinger, log *logger.ZapLogger) *HealthHandler {
	return &HealthHandler{deps: deps, log: log}
}

// GET /health
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

// GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			h.log.Log(logger.LogEntry{
				Level:   "warn",
				Message: "readiness probe failed",
				Fields:  map[string]any{"dependency": name},
				Error:   err,
			})
			writeMessage(w, http.StatusServiceUnavailable, name+" unavailable")
			return
		}
	}
	w.Write([]byte("ready"))
}
