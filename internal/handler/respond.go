package handler

import (
	"encoding/json"
	"iter"
	"net/http"

	"beecam/internal/dto"
	"beecam/internal/logger"
)

// writeJSON sends v with the given status.
func writeJSON(w http.ResponseWriter, logger *logger.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, logger *logger.Logger, status int, msg string) {
	writeJSON(w, logger, status, dto.ErrorResponse{Error: msg})
}

// streamJSON sends a listing whose length is unknown up front. Headers go out
// immediately without Content-Length, so the server frames the body as
// chunks; every fragment is flushed as soon as it is produced and returning
// ends the body with the terminating chunk.
func streamJSON(w http.ResponseWriter, fragments iter.Seq[[]byte]) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}
	for fragment := range fragments {
		if _, err := w.Write(fragment); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// NotFoundHandler answers every unknown route.
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte("not found"))
}
