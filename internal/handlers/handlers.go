package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"gameforge.gg/platform/internal/apperr"
	"gameforge.gg/platform/internal/fallback"
	"gameforge.gg/platform/internal/middleware"
	"gameforge.gg/platform/internal/monitor"
	"gameforge.gg/platform/internal/portal"
	"gameforge.gg/platform/internal/store"
	"gameforge.gg/platform/pkg/logger"
)

const Version = "1.0.0"

// DataSourceHeader tells the frontend whether a read was served live or
// from fallback data. The body shape is the same either way.
const DataSourceHeader = "X-Data-Source"

type Handler struct {
	store     *store.Store
	portal    *portal.Service
	auth      *middleware.Authenticator
	sweeper   *monitor.Sweeper
	policy    *fallback.Policy
	ssoSecret string
	siteURL   string
	now       func() time.Time
	logger    *logger.Logger
}

type Deps struct {
	Store     *store.Store
	Portal    *portal.Service
	Auth      *middleware.Authenticator
	Sweeper   *monitor.Sweeper
	Policy    *fallback.Policy
	SSOSecret string
	SiteURL   string
}

func New(deps Deps, l *logger.Logger) *Handler {
	if l == nil {
		l = logger.New()
	}
	if deps.Policy == nil {
		deps.Policy = fallback.NewPolicy(nil, 0, l, nil)
	}
	return &Handler{
		store:     deps.Store,
		portal:    deps.Portal,
		auth:      deps.Auth,
		sweeper:   deps.Sweeper,
		policy:    deps.Policy,
		ssoSecret: deps.SSOSecret,
		siteURL:   deps.SiteURL,
		now:       time.Now,
		logger:    l,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

func (h *Handler) sendJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// sendData answers a read that may have been served from fallback data.
func (h *Handler) sendData(w http.ResponseWriter, src fallback.Source, data interface{}) {
	w.Header().Set(DataSourceHeader, string(src))
	h.sendJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

// sendError maps a classified error onto status, code and public message.
// Unclassified errors are logged and reported as internal errors.
func (h *Handler) sendError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	kind := apperr.KindOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "kind", kind.String(), "error", err,
			"request_id", middleware.RequestIDFromContext(r.Context()))
	}
	resp := Response{Success: false, Error: apperr.PublicMessage(err)}
	switch kind {
	case apperr.KindClientNotFound, apperr.KindMisconfigured, apperr.KindValidation:
		resp.Code = kind.String()
	case apperr.KindTransport, apperr.KindUnavailable:
		resp.Code = apperr.KindUnavailable.String()
	}
	h.sendJSON(w, status, resp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return apperr.Validation("decode", "Invalid request body")
	}
	return nil
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "connected"
	if h.store == nil {
		dbStatus = "disabled"
	} else if err := h.store.Ping(ctx); err != nil {
		dbStatus = "disconnected"
	}

	h.sendJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "GameForge API is running",
		Data: map[string]interface{}{
			"version":   Version,
			"timestamp": h.now().Format(time.RFC3339),
			"database":  dbStatus,
			"billing":   h.portal.BillingConfigured(),
		},
	})
}
