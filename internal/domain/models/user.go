// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompanyMembership links a user to one company with a role.
// A user may belong to several companies; exactly one membership matches
// User.CurrentCompany at any time.
type CompanyMembership struct {
	CompanyID primitive.ObjectID `bson:"company_id" json:"company_id"`
	Role      string             `bson:"role" json:"role"` // admin | manager | employee
	IsActive  bool               `bson:"is_active" json:"is_active"`
	JoinedAt  time.Time          `bson:"joined_at" json:"joined_at"`
}

// User is an account that can hold memberships in multiple companies.
// Role and company are never stored flat on the user; they are resolved
// from Companies + CurrentCompany (see internal/app/system/tenant).
type User struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name           string              `bson:"name" json:"name"`
	NameCI         string              `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Email          string              `bson:"email" json:"email"`
	Username       string              `bson:"username,omitempty" json:"username,omitempty"`
	Password       string              `bson:"password" json:"-"` // bcrypt hash
	Phone          string              `bson:"phone,omitempty" json:"phone,omitempty"`
	Department     string              `bson:"department,omitempty" json:"department,omitempty"`
	ProfilePicture string              `bson:"profile_picture,omitempty" json:"profile_picture,omitempty"`
	Companies      []CompanyMembership `bson:"companies" json:"companies"`
	CurrentCompany *primitive.ObjectID `bson:"current_company,omitempty" json:"current_company,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// MembershipFor returns the membership entry for the given company, if any.
func (u *User) MembershipFor(companyID primitive.ObjectID) (CompanyMembership, bool) {
	for _, m := range u.Companies {
		if m.CompanyID == companyID {
			return m, true
		}
	}
	return CompanyMembership{}, false
}
