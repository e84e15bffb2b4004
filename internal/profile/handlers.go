package profile

import (
	"net/http"

	"github.com/danupratama/backend-kasir/internal/common"
)

// Handler exposes the POS configuration to the cashier frontend.
type Handler struct {
	Svc *Service
}

// Get returns the combined POS configuration: profile, payment modes and tax
// rules in one response so the frontend boots with a single call.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.Svc.Profile(ctx)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	modes, err := h.Svc.Modes(ctx)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	rules, err := h.Svc.Rules(ctx)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{
		"profile":      p,
		"paymentModes": modes,
		"taxRules":     rules,
	})
}

// Refresh busts the configuration cache.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Refresh(r.Context()); err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{"refreshed": true})
}
