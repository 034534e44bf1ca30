package rbac

import (
	"net/http"
	"sort"

	"github.com/smartpad/landing/backend/httpx"
)

// RoleResolver extracts roles for the current request context.
type RoleResolver func(r *http.Request) []Role

// Enforcer coordinates RBAC evaluation for HTTP handlers.
type Enforcer struct {
	resolve RoleResolver
}

// NewEnforcer constructs an RBAC enforcer with the provided resolver.
func NewEnforcer(resolver RoleResolver) *Enforcer {
	return &Enforcer{resolve: resolver}
}

// Authorize ensures the caller has one of the roles mapped to the supplied
// permission. Callers without any role are rejected with 401.
func (e *Enforcer) Authorize(permission Permission) func(http.Handler) http.Handler {
	allowed := RoleMatrix[permission]
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			roles := e.resolve(r)
			if len(roles) == 0 {
				httpx.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if hasIntersection(roles, allowed) {
				next.ServeHTTP(w, r)
				return
			}

			httpx.Error(w, http.StatusForbidden, "insufficient role membership")
		})
	}
}

// Permissions returns the permissions granted to the request's roles,
// sorted.
func (e *Enforcer) Permissions(r *http.Request) []Permission {
	roles := e.resolve(r)
	var out []Permission
	for perm, allowed := range RoleMatrix {
		if hasIntersection(roles, allowed) {
			out = append(out, perm)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func hasIntersection(userRoles, allowed []Role) bool {
	if len(userRoles) == 0 || len(allowed) == 0 {
		return false
	}
	roleSet := make(map[Role]struct{}, len(userRoles))
	for _, role := range userRoles {
		roleSet[role] = struct{}{}
	}
	for _, required := range allowed {
		if _, ok := roleSet[required]; ok {
			return true
		}
	}
	return false
}
