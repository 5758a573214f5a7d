package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"gameforge.gg/platform/internal/middleware"
	"gameforge.gg/platform/internal/models"
)

type UpdateSettingRequest struct {
	Value string `json:"value"`
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.ListSettings(r.Context())
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendJSON(w, http.StatusOK, Response{Success: true, Data: settings})
}

func (h *Handler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)
	key := mux.Vars(r)["key"]

	var req UpdateSettingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.sendError(w, r, err)
		return
	}

	if err := h.store.UpdateSetting(r.Context(), key, req.Value, claims.UserID); err != nil {
		h.sendError(w, r, err)
		return
	}

	h.logger.Info("Setting updated", "key", key, "by", claims.UserID)
	h.sendJSON(w, http.StatusOK, Response{Success: true, Message: "Setting updated successfully"})
}

// GetDashboardStats is the admin overview: location health and the state of
// both integrations.
func (h *Handler) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	locations, err := h.store.ListLocations(r.Context(), false)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	counts := map[models.LocationStatus]int{}
	active := 0
	for _, loc := range locations {
		if !loc.IsActive {
			continue
		}
		active++
		counts[loc.Status]++
	}

	h.sendJSON(w, http.StatusOK, Response{Success: true, Data: map[string]interface{}{
		"locations": map[string]int{
			"total":    len(locations),
			"active":   active,
			"online":   counts[models.LocationOnline],
			"degraded": counts[models.LocationDegraded],
			"offline":  counts[models.LocationOffline],
		},
		"integrations": h.portal.Status(r.Context()),
	}})
}
