package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"gameforge.gg/platform/internal/middleware"
)

// Router builds the API route table. metrics may be nil.
func (h *Handler) Router(rl *middleware.RateLimiter, metrics http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(h.logger))
	if metrics != nil {
		r.Handle("/metrics", metrics).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()
	if rl != nil {
		api.Use(rl.Middleware)
	}

	// ============== PUBLIC ROUTES ==============
	api.HandleFunc("/health", h.HealthCheck).Methods("GET")
	api.HandleFunc("/products", h.GetProducts).Methods("GET")
	api.HandleFunc("/locations", h.GetLocations).Methods("GET")
	api.HandleFunc("/integrations/status", h.GetIntegrationStatus).Methods("GET")
	api.HandleFunc("/auth/login", h.Login).Methods("POST")
	api.HandleFunc("/client/login", h.ClientLogin).Methods("POST")
	api.HandleFunc("/client/lookup", h.ClientLookup).Methods("POST")
	api.HandleFunc("/client/sso", h.ClientSSO).Methods("GET")

	// ============== CLIENT PORTAL (client session) ==============
	client := api.PathPrefix("/client").Subrouter()
	client.Use(h.auth.ClientAuth)
	client.HandleFunc("/dashboard", h.GetClientDashboard).Methods("GET")
	client.HandleFunc("/services", h.GetClientServices).Methods("GET")
	client.HandleFunc("/invoices", h.GetClientInvoices).Methods("GET")
	client.HandleFunc("/tickets", h.GetClientTickets).Methods("GET")
	client.HandleFunc("/tickets", h.CreateTicket).Methods("POST")
	client.HandleFunc("/departments", h.GetDepartments).Methods("GET")
	client.HandleFunc("/servers", h.GetClientServers).Methods("GET")
	client.HandleFunc("/servers/{id}", h.GetClientServer).Methods("GET")
	client.HandleFunc("/servers/{id}/power", h.ServerPower).Methods("POST")
	client.HandleFunc("/servers/{id}/logs", h.GetServerLogs).Methods("GET")

	// ============== ADMIN PANEL (admin session) ==============
	authed := api.PathPrefix("/auth").Subrouter()
	authed.Use(h.auth.AdminAuth)
	authed.HandleFunc("/refresh", h.RefreshToken).Methods("POST")
	authed.HandleFunc("/password", h.ChangePassword).Methods("PUT")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(h.auth.AdminAuth, middleware.RequireRole(middleware.RoleAdmin))
	admin.HandleFunc("/dashboard/stats", h.GetDashboardStats).Methods("GET")
	admin.HandleFunc("/settings", h.GetSettings).Methods("GET")
	admin.HandleFunc("/settings/{key}", h.UpdateSetting).Methods("PUT")
	admin.HandleFunc("/locations", h.GetAllLocations).Methods("GET")
	admin.HandleFunc("/locations", h.CreateLocation).Methods("POST")
	admin.HandleFunc("/locations/sweep", h.SweepLocations).Methods("POST")
	admin.HandleFunc("/locations/{id}", h.UpdateLocation).Methods("PUT")
	admin.HandleFunc("/locations/{id}", h.DeleteLocation).Methods("DELETE")
	admin.HandleFunc("/sso-link", h.CreateSSOLink).Methods("POST")

	return r
}
