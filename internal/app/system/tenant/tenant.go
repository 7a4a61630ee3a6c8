// Package tenant resolves the acting user's tenant context: the
// {userId, role, companyId} triple every request is scoped by.
//
// Users carry a list of company memberships plus a current-company pointer.
// Resolution is the only place that reads the membership array; nothing else
// in the codebase may derive a role or company from a user record directly.
package tenant

import (
	"errors"

	"github.com/crewdesk/crewdesk/internal/app/system/normalize"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNoActiveCompany is returned when a user's current company has no
// matching membership entry. This is a business error, distinct from
// authentication failure: the caller maps it to a 400, not a 401.
var ErrNoActiveCompany = errors.New("user has no active company")

// Roles.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

// ValidRole reports whether r is one of the three roles.
func ValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// Context is the resolved tenant context for one request.
type Context struct {
	UserID    primitive.ObjectID
	Role      string
	CompanyID primitive.ObjectID
}

// Elevated reports whether the role may act on resources beyond its own
// (admin and manager are both elevated for most checks).
func (c Context) Elevated() bool {
	return c.Role == RoleAdmin || c.Role == RoleManager
}

// Resolve derives the tenant context for the user's currently active company.
// It fails with ErrNoActiveCompany when the current-company pointer is unset,
// or when no membership entry matches it; there is no silent fallback role.
func Resolve(u *models.User) (Context, error) {
	if u == nil {
		return Context{}, errors.New("tenant: nil user")
	}
	if u.CurrentCompany == nil || u.CurrentCompany.IsZero() {
		return Context{}, ErrNoActiveCompany
	}
	m, ok := u.MembershipFor(*u.CurrentCompany)
	if !ok || !m.IsActive {
		return Context{}, ErrNoActiveCompany
	}
	return Context{
		UserID:    u.ID,
		Role:      normalize.Role(m.Role),
		CompanyID: m.CompanyID,
	}, nil
}
