package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/crewdesk/crewdesk/internal/app/system/tenant"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// fakeLoader serves a fixed set of users and counts lookups so tests can
// observe caching behavior.
type fakeLoader struct {
	users map[primitive.ObjectID]*models.User
	calls atomic.Int64
}

func (f *fakeLoader) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.calls.Add(1)
	u, ok := f.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func activeUser() *models.User {
	companyID := primitive.NewObjectID()
	return &models.User{
		ID:    primitive.NewObjectID(),
		Name:  "Ann Smith",
		Email: "ann@example.com",
		Companies: []models.CompanyMembership{
			{CompanyID: companyID, Role: "manager", IsActive: true, JoinedAt: time.Now()},
		},
		CurrentCompany: &companyID,
	}
}

func newTestGate(t *testing.T, users ...*models.User) (*Gate, *TokenManager, *fakeLoader) {
	t.Helper()
	tm := testTokenManager(t)
	loader := &fakeLoader{users: make(map[primitive.ObjectID]*models.User)}
	for _, u := range users {
		loader.users[u.ID] = u
	}
	g := NewGate(tm, loader, 5*time.Minute, zap.NewNop())
	t.Cleanup(g.Close)
	return g, tm, loader
}

func requestWithToken(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func TestRequireAuth_AdmitsValidSession(t *testing.T) {
	u := activeUser()
	g, tm, _ := newTestGate(t, u)

	tok, err := tm.IssueSession(u.ID, u.Email, "manager", *u.CurrentCompany)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	var got Principal
	handler := g.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = MustFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithToken(tok))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got.UserID != u.ID {
		t.Errorf("principal UserID = %s, want %s", got.UserID.Hex(), u.ID.Hex())
	}
	if got.Role != tenant.RoleManager {
		t.Errorf("principal Role = %q", got.Role)
	}
	if got.CompanyID != *u.CurrentCompany {
		t.Errorf("principal CompanyID = %s", got.CompanyID.Hex())
	}
	if got.Name != "Ann Smith" || got.Email != "ann@example.com" {
		t.Errorf("principal identity = %q / %q", got.Name, got.Email)
	}
}

func TestRequireAuth_MissingToken(t *testing.T) {
	g, _, _ := newTestGate(t)
	rec := httptest.NewRecorder()
	g.RequireAuth(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler should not run")
	})).ServeHTTP(rec, requestWithToken(""))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuth_LinkTokenRejected(t *testing.T) {
	u := activeUser()
	g, tm, _ := newTestGate(t, u)

	tok, err := tm.IssueLink(PurposeReset, u.ID, u.Email)
	if err != nil {
		t.Fatalf("IssueLink: %v", err)
	}

	rec := httptest.NewRecorder()
	g.RequireAuth(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler should not run")
	})).ServeHTTP(rec, requestWithToken(tok))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuth_DeletedUser(t *testing.T) {
	u := activeUser()
	g, tm, _ := newTestGate(t) // loader has no users

	tok, _ := tm.IssueSession(u.ID, u.Email, "manager", *u.CurrentCompany)
	rec := httptest.NewRecorder()
	g.RequireAuth(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler should not run")
	})).ServeHTTP(rec, requestWithToken(tok))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuth_NoActiveCompanyIs400(t *testing.T) {
	companyID := primitive.NewObjectID()
	u := &models.User{
		ID:    primitive.NewObjectID(),
		Name:  "Drifting User",
		Email: "drift@example.com",
		Companies: []models.CompanyMembership{
			{CompanyID: companyID, Role: "employee", IsActive: false},
		},
		CurrentCompany: &companyID,
	}
	g, tm, _ := newTestGate(t, u)

	tok, _ := tm.IssueSession(u.ID, u.Email, "employee", companyID)
	rec := httptest.NewRecorder()
	g.RequireAuth(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler should not run")
	})).ServeHTTP(rec, requestWithToken(tok))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGate_CachesUserLookups(t *testing.T) {
	u := activeUser()
	g, tm, loader := newTestGate(t, u)

	tok, _ := tm.IssueSession(u.ID, u.Email, "manager", *u.CurrentCompany)
	handler := g.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestWithToken(tok))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}
	if got := loader.calls.Load(); got != 1 {
		t.Errorf("loader calls = %d, want 1 (cached)", got)
	}

	// Invalidation forces a fresh load.
	g.InvalidateUser(u.ID)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithToken(tok))
	if got := loader.calls.Load(); got != 2 {
		t.Errorf("loader calls after invalidate = %d, want 2", got)
	}
}

func TestTokenFromRequest_QueryFallback(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws?token=abc123", nil)
	if got := TokenFromRequest(r); got != "abc123" {
		t.Errorf("TokenFromRequest = %q, want abc123", got)
	}

	r.Header.Set("Authorization", "Bearer headertoken")
	if got := TokenFromRequest(r); got != "headertoken" {
		t.Errorf("header should win over query, got %q", got)
	}
}
