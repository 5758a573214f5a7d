package handlers

import (
	"net/http"
	"strings"

	"gameforge.gg/platform/internal/billing"
	"gameforge.gg/platform/pkg/logger"
)

type SSOLinkRequest struct {
	ClientID string `json:"client_id"`
}

// ClientSSO accepts a signed login link minted by billing and opens a
// portal session for the client it names.
func (h *Handler) ClientSSO(w http.ResponseWriter, r *http.Request) {
	handoff := billing.ParseHandoff(r.URL.Query())
	if err := handoff.Verify(h.ssoSecret, h.now()); err != nil {
		h.logger.Warn("SSO handoff rejected", "userid", handoff.UserID, "hash", logger.MaskSecret(handoff.Hash), "error", err)
		h.sendError(w, r, err)
		return
	}

	client, err := h.portal.ClientByID(r.Context(), handoff.UserID)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.logger.Info("SSO login", "client_id", client.ClientID)
	h.sendSession(w, client, "Login successful")
}

// CreateSSOLink mints a login link for a client, for support staff.
func (h *Handler) CreateSSOLink(w http.ResponseWriter, r *http.Request) {
	var req SSOLinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.sendError(w, r, err)
		return
	}
	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" {
		h.sendJSON(w, http.StatusBadRequest, Response{Success: false, Error: "client_id is required"})
		return
	}

	link, err := billing.NewLoginURL(h.siteURL, clientID, h.ssoSecret, h.now())
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendJSON(w, http.StatusOK, Response{Success: true, Data: map[string]string{"url": link}})
}
