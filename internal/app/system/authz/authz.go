// Package authz enforces role-based access on routes that are already
// authenticated. Authorization failures are always 403; they never disguise
// themselves as 404s.
package authz

import (
	"net/http"

	"github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/tenant"
)

// RequireRole admits only principals whose role is in the allow list.
// Mount strictly inside RequireAuth; a request with no principal is rejected
// with 401 rather than panicking.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.FromContext(r.Context())
			if !ok {
				respond.Err(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if !allowed[p.Role] {
				respond.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireElevated admits admins and managers.
func RequireElevated(next http.Handler) http.Handler {
	return RequireRole(tenant.RoleAdmin, tenant.RoleManager)(next)
}

// CanManageUsers reports whether the principal may create, update, or remove
// team members.
func CanManageUsers(p auth.Principal) bool {
	return p.Elevated()
}

// CanAssignTasks reports whether the principal may assign tasks to others.
// Employees may only create tasks for themselves.
func CanAssignTasks(p auth.Principal) bool {
	return p.Elevated()
}

// CanViewAllTasks reports whether the principal sees the whole company's
// tasks. Employees see only tasks assigned to them.
func CanViewAllTasks(p auth.Principal) bool {
	return p.Elevated()
}
