package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"boutique/internal/apperr"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// respondError writes the uniform error envelope. Untyped errors map to 500
// and only server-side failures are logged.
func respondError(w http.ResponseWriter, lg *zap.SugaredLogger, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError && lg != nil {
		lg.Errorw("request failed", "error", err)
	}
	respondJSON(w, status, map[string]string{"error": apperr.Message(err)})
}
