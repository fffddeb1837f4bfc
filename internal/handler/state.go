package handler

import (
	"net/http"

	"beecam/internal/dto"
	"beecam/internal/logger"
	"beecam/internal/state"
)

// Publisher accepts live events.
type Publisher interface {
	Publish(event dto.LiveEvent)
}

// HealthHandler reports liveness.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// GetStateHandler returns the capture flags and detection counters.
func GetStateHandler(rt *state.Runtime, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, rt.Snapshot())
	}
}

// SetStateHandler toggles the infer and save flags from query or form
// values. Any value other than "0" switches a flag on; absent flags keep
// their state.
func SetStateHandler(rt *state.Runtime, hub Publisher, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeError(w, logger, http.StatusBadRequest, "bad form")
			return
		}
		if v, ok := flag(r, "infer"); ok {
			rt.SetInferEnabled(v)
		}
		if v, ok := flag(r, "save"); ok {
			rt.SetSaveEnabled(v)
		}

		snapshot := rt.Snapshot()
		logger.Info("State changed: infer=%t save=%t", snapshot.Infer, snapshot.Save)
		if hub != nil {
			hub.Publish(dto.LiveEvent{Type: dto.EventState, State: &snapshot})
		}
		writeJSON(w, logger, http.StatusOK, snapshot)
	}
}

func flag(r *http.Request, name string) (bool, bool) {
	values, ok := r.Form[name]
	if !ok || len(values) == 0 {
		return false, false
	}
	return values[0] != "0", true
}
