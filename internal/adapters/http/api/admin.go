package api

import (
	"net/http"

	"github.com/okian/lcarchive/pkg/logger"
)

// AdminHandler serves operator actions.
type AdminHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps Dependencies) *AdminHandler {
	return &AdminHandler{deps: deps}
}

type reloadResponse struct {
	Status string `json:"status"`
}

// HandleReload handles POST /admin/reload.
func (h *AdminHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Reload(r.Context()); err != nil {
		h.logger.Warn(r.Context(), "reload rejected",
			logger.String("request_id", GetRequestID(r.Context())),
			logger.Error(err),
		)
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, reloadResponse{Status: "reloaded"})
}
