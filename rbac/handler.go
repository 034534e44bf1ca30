package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smartpad/landing/backend/httpx"
)

// Handler exposes the caller's effective access.
type Handler struct {
	enforcer *Enforcer
}

// NewHandler creates an RBAC handler.
func NewHandler(enforcer *Enforcer) *Handler {
	return &Handler{enforcer: enforcer}
}

// Routes registers access inspection routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/me", h.describeCaller)
	return r
}

type accessResponse struct {
	Roles       []Role       `json:"roles"`
	Permissions []Permission `json:"permissions"`
}

func (h *Handler) describeCaller(w http.ResponseWriter, r *http.Request) {
	roles := h.enforcer.resolve(r)
	if len(roles) == 0 {
		httpx.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, accessResponse{
		Roles:       roles,
		Permissions: h.enforcer.Permissions(r),
	})
}
