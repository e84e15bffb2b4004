package checkout

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/danupratama/backend-kasir/internal/common"
)

// Handler exposes checkout over HTTP.
type Handler struct {
	Svc *Service
}

// Submit finalises the sale.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Svc.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, rec)
}

// Hold parks the sale as a backend draft while keeping the session.
func (h *Handler) Hold(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Svc.Hold(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, rec)
}
