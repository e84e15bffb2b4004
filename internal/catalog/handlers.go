package catalog

import (
	"net/http"
	"strconv"

	"github.com/danupratama/backend-kasir/internal/common"
)

// Handler exposes the product catalog.
type Handler struct {
	Svc *Service
}

// List returns a catalog page, or search results when a term is supplied.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if term := q.Get("search"); term != "" {
		products, err := h.Svc.Search(r.Context(), term)
		if err != nil {
			common.WriteError(w, err)
			return
		}
		common.JSONData(w, http.StatusOK, products)
		return
	}
	start, _ := strconv.Atoi(q.Get("start"))
	if start < 0 {
		start = 0
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	products, err := h.Svc.List(r.Context(), start, limit)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, products)
}
