package delivery

import (
	"encoding/json"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/vidcatalog/pkg/apperrors"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeError maps err onto the {"error": ...} envelope. Store failures are
// logged with their cause; the client only sees a generic message.
func writeError(w http.ResponseWriter, r *http.Request, log *logger.ZapLogger, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Log(logger.LogEntry{
			Level:   "error",
			Message: "request failed",
			Fields: map[string]any{
				"method":    r.Method,
				"path":      r.URL.Path,
				"requestID": RequestIDFromContext(r.Context()),
			},
			Error: err,
		})
	}
	writeMessage(w, status, apperrors.PublicMessage(err))
}

// decodeJSON reads a single JSON object from the body, capped at 1 MiB.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return apperrors.Validation("invalid json: " + err.Error())
	}
	return nil
}
