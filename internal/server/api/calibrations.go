package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/airsync/internal/store"
)

// CalibrationHandler serves stored calibration results.
type CalibrationHandler struct {
	store *store.Store
}

// NewCalibrationHandler creates a new CalibrationHandler with the given store.
func NewCalibrationHandler(s *store.Store) *CalibrationHandler {
	return &CalibrationHandler{store: s}
}

type calibrationResponse struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Data      json.RawMessage `json:"data"`
	CreatedAt string          `json:"created_at"`
}

// ServeHTTP handles GET /api/calibrations?kind= and returns the latest
// calibration of that kind.
func (h *CalibrationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	kind := r.URL.Query().Get("kind")
	if kind != store.KindWheel && kind != store.KindBounds {
		writeError(w, http.StatusBadRequest, "kind must be wheel or bounds")
		return
	}

	c, err := h.store.Calibrations().Latest(kind)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No calibration of this kind")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get calibration")
		return
	}

	writeJSON(w, http.StatusOK, calibrationResponse{
		ID:        c.ID,
		Kind:      c.Kind,
		Data:      c.Data,
		CreatedAt: c.CreatedAt.Format(timeFormat),
	})
}
