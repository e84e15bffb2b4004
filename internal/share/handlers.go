package share

import (
	"encoding/json"
	"net/http"

	"github.com/danupratama/backend-kasir/internal/common"
)

// Handler exposes receipt sharing over HTTP.
type Handler struct {
	Svc *Service
}

// Share queues a receipt delivery and returns immediately.
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	var payload ReceiptPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return
	}
	if err := h.Svc.Enqueue(r.Context(), payload); err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusAccepted, map[string]any{"queued": true})
}
