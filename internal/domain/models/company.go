// internal/domain/models/company.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Address is the postal address block on a company record.
type Address struct {
	Street  string `bson:"street,omitempty" json:"street,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
	ZipCode string `bson:"zip_code,omitempty" json:"zip_code,omitempty"`
}

// WorkingHours is a start/end pair in "HH:MM" local time.
type WorkingHours struct {
	Start string `bson:"start" json:"start"`
	End   string `bson:"end" json:"end"`
}

// CompanySettings carries per-tenant scheduling defaults.
type CompanySettings struct {
	Timezone     string       `bson:"timezone" json:"timezone"`
	WorkingHours WorkingHours `bson:"working_hours" json:"working_hours"`
	WorkingDays  []string     `bson:"working_days" json:"working_days"`
}

// Company is the tenant record; the unit of data isolation.
// Companies are created on signup (when the supplied company is a new name)
// or through invite flows, and are never deleted in-flow.
type Company struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Industry    string             `bson:"industry,omitempty" json:"industry,omitempty"`
	Website     string             `bson:"website,omitempty" json:"website,omitempty"`
	Address     Address            `bson:"address,omitempty" json:"address,omitempty"`
	Settings    CompanySettings    `bson:"settings" json:"settings"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// DefaultCompanySettings returns the settings applied to newly created tenants.
func DefaultCompanySettings() CompanySettings {
	return CompanySettings{
		Timezone:     "UTC",
		WorkingHours: WorkingHours{Start: "09:00", End: "17:00"},
		WorkingDays:  []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
	}
}
