package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/tenant"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func requestAs(role string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/team", nil)
	p := auth.Principal{
		Context: tenant.Context{
			UserID:    primitive.NewObjectID(),
			Role:      role,
			CompanyID: primitive.NewObjectID(),
		},
	}
	return r.WithContext(auth.WithPrincipal(r.Context(), p))
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		role    string
		want    int
	}{
		{"admin on admin-only", []string{tenant.RoleAdmin}, tenant.RoleAdmin, http.StatusOK},
		{"manager on admin-only", []string{tenant.RoleAdmin}, tenant.RoleManager, http.StatusForbidden},
		{"manager on elevated", []string{tenant.RoleAdmin, tenant.RoleManager}, tenant.RoleManager, http.StatusOK},
		{"employee on elevated", []string{tenant.RoleAdmin, tenant.RoleManager}, tenant.RoleEmployee, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireRole(tt.allowed...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, requestAs(tt.role))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRequireRole_NoPrincipal(t *testing.T) {
	handler := RequireRole(tenant.RoleAdmin)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler should not run")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/team", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestPredicates(t *testing.T) {
	admin := auth.Principal{Context: tenant.Context{Role: tenant.RoleAdmin}}
	employee := auth.Principal{Context: tenant.Context{Role: tenant.RoleEmployee}}

	if !CanManageUsers(admin) || CanManageUsers(employee) {
		t.Error("CanManageUsers wrong")
	}
	if !CanAssignTasks(admin) || CanAssignTasks(employee) {
		t.Error("CanAssignTasks wrong")
	}
	if !CanViewAllTasks(admin) || CanViewAllTasks(employee) {
		t.Error("CanViewAllTasks wrong")
	}
}
