package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"gameforge.gg/platform/internal/apperr"
	"gameforge.gg/platform/internal/fallback"
	"gameforge.gg/platform/internal/models"
)

type LocationRequest struct {
	Name     string `json:"name"`
	Region   string `json:"region"`
	Endpoint string `json:"endpoint"`
	IsActive *bool  `json:"is_active"`
}

func (req LocationRequest) location() models.Location {
	loc := models.Location{Name: req.Name, Region: req.Region, Endpoint: req.Endpoint, IsActive: true}
	if req.IsActive != nil {
		loc.IsActive = *req.IsActive
	}
	return loc
}

func locationID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, apperr.Validation("locationID", "Invalid location id")
	}
	return id, nil
}

// GetLocations is the public location list with the latest probe results.
// An unreachable datastore serves the last snapshot or the seeded list.
func (h *Handler) GetLocations(w http.ResponseWriter, r *http.Request) {
	locations, src, err := fallback.Read(r.Context(), h.policy, "locations", "public", func(ctx context.Context) ([]models.Location, error) {
		return h.store.ListLocations(ctx, true)
	}, fallback.StaticLocations)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendData(w, src, locations)
}

func (h *Handler) GetAllLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.store.ListLocations(r.Context(), false)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendJSON(w, http.StatusOK, Response{Success: true, Data: locations})
}

func (h *Handler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req LocationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.sendError(w, r, err)
		return
	}
	loc, err := h.store.CreateLocation(r.Context(), req.location())
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.logger.Info("Location created", "id", loc.ID, "name", loc.Name)
	h.sendJSON(w, http.StatusCreated, Response{Success: true, Data: loc})
}

func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := locationID(r)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	var req LocationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.sendError(w, r, err)
		return
	}
	loc := req.location()
	loc.ID = id
	updated, err := h.store.UpdateLocation(r.Context(), loc)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendJSON(w, http.StatusOK, Response{Success: true, Data: updated})
}

func (h *Handler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	id, err := locationID(r)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	if err := h.store.DeleteLocation(r.Context(), id); err != nil {
		h.sendError(w, r, err)
		return
	}
	h.logger.Info("Location deleted", "id", id)
	h.sendJSON(w, http.StatusOK, Response{Success: true, Message: "Location deleted"})
}

// SweepLocations runs one probe sweep synchronously and returns its tally.
func (h *Handler) SweepLocations(w http.ResponseWriter, r *http.Request) {
	if h.sweeper == nil {
		h.sendError(w, r, apperr.Misconfigured("handlers.SweepLocations", "location monitor"))
		return
	}
	res, err := h.sweeper.Sweep(r.Context())
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendJSON(w, http.StatusOK, Response{Success: true, Data: res})
}
