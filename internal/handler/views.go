package handler

import (
	"net/http"

	"github.com/abacus-app/abacus/internal/auth"
	"github.com/abacus-app/abacus/internal/guard"
	"github.com/abacus-app/abacus/internal/handler/dto"
)

// ViewHandler describes routed views. Access is decided by the View
// middleware before it runs.
type ViewHandler struct{}

// NewViewHandler creates a new ViewHandler.
func NewViewHandler() *ViewHandler {
	return &ViewHandler{}
}

// Render returns a handler describing route.
func (h *ViewHandler) Render(route guard.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := dto.ViewResponse{View: route.Name, Path: route.Path}
		if p := auth.PrincipalFromContext(r.Context()); p != nil {
			resp.Identity = p
			resp.AvatarInitial = p.AvatarInitial()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
