package handlers

import "net/http"

// GetProducts backs the pricing page. It always answers; the source header
// says whether prices came from billing.
func (h *Handler) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, src, err := h.portal.Products(r.Context())
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendData(w, src, products)
}

func (h *Handler) GetIntegrationStatus(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, Response{Success: true, Data: h.portal.Status(r.Context())})
}
