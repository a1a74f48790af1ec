package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"net/http"
	"strings"

	"github.com/ayusman/airmouse/internal/config"
	"github.com/ayusman/airmouse/internal/store"
)

// SettingsHandler handles /api/settings and /api/settings/{key}.
// Persisted settings are validated against the base configuration before
// they are stored and take effect on the next start.
type SettingsHandler struct {
	store  *store.Store
	base   config.Config
	logger *slog.Logger
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(s *store.Store, base config.Config, logger *slog.Logger) *SettingsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsHandler{store: s, base: base, logger: logger}
}

type settingsResponse struct {
	Settings map[string]string `json:"settings"`
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/api/settings")
	key = strings.TrimPrefix(key, "/")

	if key == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w)
		case http.MethodPut:
			h.update(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, key)
	case http.MethodDelete:
		h.delete(w, key)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) list(w http.ResponseWriter) {
	all, err := h.store.Settings().All()
	if err != nil {
		h.logger.Error("failed to list settings", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to list settings")
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{Settings: all})
}

func (h *SettingsHandler) get(w http.ResponseWriter, key string) {
	value, err := h.store.Settings().Get(key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Setting not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get setting")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": value})
}

// update handles PUT /api/settings with a flat object of dotted keys. The
// merged settings must produce a valid configuration or nothing is stored.
func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "No settings given")
		return
	}

	current, err := h.store.Settings().All()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read settings")
		return
	}
	merged := maps.Clone(current)
	maps.Copy(merged, body)

	cfg := h.base
	if err := cfg.ApplySettings(merged); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := cfg.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Settings().SetAll(body); err != nil {
		h.logger.Error("failed to store settings", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to store settings")
		return
	}
	h.logger.Info("settings updated", "keys", len(body))

	writeJSON(w, http.StatusOK, settingsResponse{Settings: merged})
}

func (h *SettingsHandler) delete(w http.ResponseWriter, key string) {
	if err := h.store.Settings().Delete(key); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Setting not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete setting")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
