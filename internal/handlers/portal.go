package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"gameforge.gg/platform/internal/apperr"
	"gameforge.gg/platform/internal/fallback"
	"gameforge.gg/platform/internal/middleware"
	"gameforge.gg/platform/internal/models"
	"gameforge.gg/platform/internal/portal"
)

type ClientLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LookupRequest struct {
	Email string `json:"email"`
}

type PowerRequest struct {
	Action string `json:"action"`
}

func (h *Handler) sendSession(w http.ResponseWriter, client *models.ExternalClientIdentity, message string) {
	token, err := h.auth.IssueClientToken(client.ClientID, client.Email)
	if err != nil {
		h.logger.Error("Failed to generate client session", "error", err)
		h.sendJSON(w, http.StatusInternalServerError, Response{Success: false, Error: "Failed to generate token"})
		return
	}
	h.sendJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    map[string]interface{}{"token": token, "client": client},
	})
}

// ClientLogin validates portal credentials against billing and opens a session.
func (h *Handler) ClientLogin(w http.ResponseWriter, r *http.Request) {
	var req ClientLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.sendError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		h.sendJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Email and password are required"})
		return
	}

	client, err := h.portal.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendSession(w, client, "Login successful")
}

// ClientLookup is unauthenticated, so it only says whether a billing
// account exists. The identity itself is issued with a session.
func (h *Handler) ClientLookup(w http.ResponseWriter, r *http.Request) {
	var req LookupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.sendError(w, r, err)
		return
	}
	if _, err := h.portal.Lookup(r.Context(), req.Email); err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendJSON(w, http.StatusOK, Response{Success: true, Data: map[string]bool{"found": true}})
}

func sessionClient(r *http.Request) models.ExternalClientIdentity {
	claims := middleware.GetClientFromContext(r)
	if claims == nil {
		return models.ExternalClientIdentity{}
	}
	return models.ExternalClientIdentity{ClientID: claims.ClientID, Email: claims.Email}
}

// dashboardSource reports the most degraded source among the sections.
func dashboardSource(sources map[string]fallback.Source) fallback.Source {
	rank := map[fallback.Source]int{
		fallback.SourceLive:        0,
		fallback.SourcePlaceholder: 1,
		fallback.SourceSnapshot:    2,
		fallback.SourceStatic:      3,
	}
	worst := fallback.SourceLive
	for _, src := range sources {
		if rank[src] > rank[worst] {
			worst = src
		}
	}
	return worst
}

func (h *Handler) GetClientDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.portal.Dashboard(r.Context(), sessionClient(r))
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendData(w, dashboardSource(d.Sources), d)
}

func (h *Handler) GetClientServices(w http.ResponseWriter, r *http.Request) {
	services, src, err := h.portal.Services(r.Context(), sessionClient(r).ClientID)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendData(w, src, services)
}

func (h *Handler) GetClientInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, src, err := h.portal.Invoices(r.Context(), sessionClient(r).ClientID)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendData(w, src, invoices)
}

func (h *Handler) GetClientTickets(w http.ResponseWriter, r *http.Request) {
	tickets, src, err := h.portal.Tickets(r.Context(), sessionClient(r).ClientID)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendData(w, src, tickets)
}

func (h *Handler) GetDepartments(w http.ResponseWriter, r *http.Request) {
	departments, src, err := h.portal.Departments(r.Context())
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendData(w, src, departments)
}

// CreateTicket opens a support ticket. The email defaults to the session's
// and is always resolved to a billing client before the ticket is created.
func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var in portal.TicketInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.sendError(w, r, err)
		return
	}
	if strings.TrimSpace(in.Email) == "" {
		in.Email = sessionClient(r).Email
	}

	tid, err := h.portal.CreateTicket(r.Context(), in)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Ticket created",
		Data:    map[string]string{"ticket_id": tid},
	})
}

func (h *Handler) GetClientServers(w http.ResponseWriter, r *http.Request) {
	servers, src, err := h.portal.Servers(r.Context(), sessionClient(r).Email)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendData(w, src, servers)
}

func (h *Handler) GetClientServer(w http.ResponseWriter, r *http.Request) {
	server, src, err := h.portal.Server(r.Context(), sessionClient(r).Email, mux.Vars(r)["id"])
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendData(w, src, server)
}

func (h *Handler) ServerPower(w http.ResponseWriter, r *http.Request) {
	var req PowerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.sendError(w, r, err)
		return
	}
	id := mux.Vars(r)["id"]
	action := models.PowerAction(strings.ToLower(strings.TrimSpace(req.Action)))

	simulated, err := h.portal.Power(r.Context(), sessionClient(r).Email, id, action)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Power action sent",
		Data:    map[string]interface{}{"action": action, "simulated": simulated},
	})
}

func (h *Handler) GetServerLogs(w http.ResponseWriter, r *http.Request) {
	lines := 0
	if raw := r.URL.Query().Get("lines"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.sendError(w, r, apperr.Validation("handlers.GetServerLogs", "lines must be a number"))
			return
		}
		lines = n
	}
	logs, src, err := h.portal.Logs(r.Context(), sessionClient(r).Email, mux.Vars(r)["id"], lines)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendData(w, src, map[string]interface{}{"lines": logs})
}
