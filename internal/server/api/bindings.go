package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ayusman/airsync/internal/control"
	"github.com/ayusman/airsync/internal/store"
)

// BindingHandler handles HTTP requests for key binding resources. Changes
// to the mode of the running controller are applied to it immediately.
type BindingHandler struct {
	store      *store.Store
	controller func() control.Controller
	logger     *zap.Logger
}

// NewBindingHandler creates a BindingHandler. controller may be nil when
// no pipeline is running.
func NewBindingHandler(s *store.Store, controller func() control.Controller, logger *zap.Logger) *BindingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BindingHandler{store: s, controller: controller, logger: logger}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *BindingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/bindings or /api/bindings/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/bindings")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type bindingRequest struct {
	Mode string `json:"mode"`
	Slot string `json:"slot"`
	Key  string `json:"key"`
}

type bindingResponse struct {
	ID        string `json:"id"`
	Mode      string `json:"mode"`
	Slot      string `json:"slot"`
	Key       string `json:"key"`
	CreatedAt string `json:"created_at"`
}

type listBindingsResponse struct {
	Bindings []bindingResponse `json:"bindings"`
}

func toBindingResponse(b *store.Binding) bindingResponse {
	return bindingResponse{
		ID:        b.ID,
		Mode:      b.Mode,
		Slot:      b.Slot,
		Key:       b.Key,
		CreatedAt: b.CreatedAt.Format(timeFormat),
	}
}

// list handles GET /api/bindings. ?mode= filters by controller.
func (h *BindingHandler) list(w http.ResponseWriter, r *http.Request) {
	var (
		bindings []*store.Binding
		err      error
	)
	if mode := r.URL.Query().Get("mode"); mode != "" {
		bindings, err = h.store.Bindings().ListMode(mode)
	} else {
		bindings, err = h.store.Bindings().List()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bindings")
		return
	}

	response := listBindingsResponse{
		Bindings: make([]bindingResponse, 0, len(bindings)),
	}
	for _, b := range bindings {
		response.Bindings = append(response.Bindings, toBindingResponse(b))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/bindings/{id}.
func (h *BindingHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	b, err := h.store.Bindings().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}

	writeJSON(w, http.StatusOK, toBindingResponse(b))
}

// create handles POST /api/bindings.
func (h *BindingHandler) create(w http.ResponseWriter, r *http.Request) {
	var req bindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := control.ValidateBinding(req.Mode, req.Slot, req.Key); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b := &store.Binding{Mode: req.Mode, Slot: req.Slot, Key: req.Key}
	if err := h.store.Bindings().Create(b); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "Slot already bound for this mode")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create binding")
		return
	}

	h.apply(b.Mode, b.Slot, b.Key)
	writeJSON(w, http.StatusCreated, toBindingResponse(b))
}

// update handles PUT /api/bindings/{id}. Empty fields keep their value.
func (h *BindingHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	b, err := h.store.Bindings().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}

	var req bindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	old := *b
	if req.Mode != "" {
		b.Mode = req.Mode
	}
	if req.Slot != "" {
		b.Slot = req.Slot
	}
	if req.Key != "" {
		b.Key = req.Key
	}
	if err := control.ValidateBinding(b.Mode, b.Slot, b.Key); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Bindings().Update(b); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "Slot already bound for this mode")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update binding")
		return
	}

	if old.Mode != b.Mode || old.Slot != b.Slot {
		h.restore(old.Mode, old.Slot)
	}
	h.apply(b.Mode, b.Slot, b.Key)
	writeJSON(w, http.StatusOK, toBindingResponse(b))
}

// delete handles DELETE /api/bindings/{id}. The slot returns to its
// default key.
func (h *BindingHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	b, err := h.store.Bindings().GetByID(id)
	if err == nil {
		err = h.store.Bindings().Delete(id)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete binding")
		return
	}

	h.restore(b.Mode, b.Slot)
	w.WriteHeader(http.StatusNoContent)
}

func (h *BindingHandler) restore(mode, slot string) {
	if key, ok := control.DefaultKey(mode, slot); ok {
		h.apply(mode, slot, key)
	}
}

// apply rebinds the running controller when it plays mode.
func (h *BindingHandler) apply(mode, slot, key string) {
	if h.controller == nil {
		return
	}
	c := h.controller()
	if c == nil || c.Name() != mode {
		return
	}
	b, ok := c.(control.Bindable)
	if !ok {
		return
	}
	if err := b.Bind(slot, key); err != nil {
		h.logger.Warn("apply binding", zap.String("mode", mode), zap.String("slot", slot), zap.Error(err))
		return
	}
	h.logger.Info("binding applied", zap.String("mode", mode), zap.String("slot", slot), zap.String("key", key))
}
