// Package scope builds the tenant filters every store query starts from.
// Centralizing them here means a query cannot accidentally omit the company
// clause: stores compose their conditions on top of these, never from a bare
// bson.M.
package scope

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Company returns the base filter for all documents in a company.
func Company(companyID primitive.ObjectID) bson.M {
	return bson.M{"company_id": companyID}
}

// ByID returns the filter for one document within a company. A matching _id
// in another company yields no document, which callers present as not found.
func ByID(companyID, id primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "company_id": companyID}
}

// ForAssignee narrows a company filter to documents assigned to one user.
// Used to restrict employees to their own tasks.
func ForAssignee(companyID, userID primitive.ObjectID) bson.M {
	return bson.M{"company_id": companyID, "assigned_to": userID}
}

// Merge copies extra conditions into a scope filter and returns it. Extra
// keys must not include company_id or _id; the scope owns those.
func Merge(base bson.M, extra bson.M) bson.M {
	for k, v := range extra {
		base[k] = v
	}
	return base
}
