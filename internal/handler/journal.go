package handler

import (
	"net/http"
	"strconv"

	"beecam/internal/logger"
	"beecam/internal/model"
	"beecam/internal/repository"
)

const defaultJournalLimit = 100

// JournalHandler lists journaled frames of ?boot=, or a per-boot summary
// when no boot is given.
func JournalHandler(repo repository.JournalRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			writeError(w, logger, http.StatusServiceUnavailable, "journal unavailable")
			return
		}

		q := r.URL.Query()
		if q.Get("boot") == "" {
			boots, err := repo.Boots()
			if err != nil {
				logger.Error("Error querying boots: %v", err)
				writeError(w, logger, http.StatusInternalServerError, "journal query failed")
				return
			}
			if boots == nil {
				boots = []model.BootSummary{}
			}
			writeJSON(w, logger, http.StatusOK, boots)
			return
		}

		boot, err := strconv.ParseUint(q.Get("boot"), 10, 32)
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "bad boot")
			return
		}
		frames, err := repo.FramesByBoot(uint32(boot), atoiDefault(q.Get("limit"), defaultJournalLimit))
		if err != nil {
			logger.Error("Error querying frames of boot %d: %v", boot, err)
			writeError(w, logger, http.StatusInternalServerError, "journal query failed")
			return
		}
		if frames == nil {
			frames = []model.FrameRecord{}
		}
		writeJSON(w, logger, http.StatusOK, frames)
	}
}

// JournalCropsHandler lists the crops journaled for ?frame=<id>.
func JournalCropsHandler(repo repository.JournalRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			writeError(w, logger, http.StatusServiceUnavailable, "journal unavailable")
			return
		}
		frameID, err := strconv.ParseInt(r.URL.Query().Get("frame"), 10, 64)
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "bad frame")
			return
		}
		crops, err := repo.CropsByFrame(frameID)
		if err != nil {
			logger.Error("Error querying crops of frame %d: %v", frameID, err)
			writeError(w, logger, http.StatusInternalServerError, "journal query failed")
			return
		}
		if crops == nil {
			crops = []model.CropRecord{}
		}
		writeJSON(w, logger, http.StatusOK, crops)
	}
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}
