package handler

import (
	"errors"
	"net/http"
	"strconv"

	"beecam/internal/logger"
	"beecam/internal/service/query"
)

// BootsHandler lists the sessions below a root as a chunked JSON array.
func BootsHandler(svc *query.Service, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		root, err := query.ParseRoot(r.URL.Query().Get("root"))
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "bad root")
			return
		}

		fragments, err := svc.ListSessions(root)
		if err != nil {
			logger.Error("Error listing sessions of %s: %v", root, err)
			writeError(w, logger, http.StatusInternalServerError, "listing failed")
			return
		}
		streamJSON(w, fragments)
	}
}

// ImagesHandler lists the images of one session as a chunked JSON array.
func ImagesHandler(svc *query.Service, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("root") == "" || q.Get("boot") == "" {
			writeError(w, logger, http.StatusBadRequest, "missing root/boot")
			return
		}
		root, err := query.ParseRoot(q.Get("root"))
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "bad root")
			return
		}

		fragments, err := svc.ListImages(root, q.Get("boot"), q.Get("sub"))
		switch {
		case errors.Is(err, query.ErrBadParam):
			writeError(w, logger, http.StatusBadRequest, "bad boot/sub")
			return
		case err != nil:
			logger.Error("Error listing images: %v", err)
			writeError(w, logger, http.StatusInternalServerError, "listing failed")
			return
		}
		streamJSON(w, fragments)
	}
}

// FileHandler streams one artifact below the overlay roots.
func FileHandler(svc *query.Service, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := svc.OpenFile(r.URL.Query().Get("path"))
		switch {
		case errors.Is(err, query.ErrForbidden):
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		case errors.Is(err, query.ErrNotFound):
			http.Error(w, "not found", http.StatusNotFound)
			return
		case err != nil:
			logger.Error("Error opening file: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		defer f.Close()

		w.Header().Set("Content-Type", f.ContentType)
		w.Header().Set("Content-Length", strconv.FormatInt(f.Size, 10))
		w.Header().Set("Content-Disposition", "inline")
		w.WriteHeader(http.StatusOK)

		// A failed write ends the body early; the client sees the length mismatch.
		if n, err := f.StreamTo(w); err != nil {
			logger.Warning("Stream of %s stopped after %d of %d bytes: %v", f.Name, n, f.Size, err)
		}
	}
}
