package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/tenant"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PrincipalFor builds the authenticated principal a gate would attach for the
// given user, resolving role and company from the user's memberships.
func PrincipalFor(t *testing.T, u models.User) auth.Principal {
	t.Helper()
	tc, err := tenant.Resolve(&u)
	if err != nil {
		t.Fatalf("test user has no resolvable tenant context: %v", err)
	}
	return auth.Principal{Context: tc, Name: u.Name, Email: u.Email}
}

// WithUser attaches the user's principal to the request context, bypassing
// the auth gate the way handler tests need.
func WithUser(t *testing.T, r *http.Request, u models.User) *http.Request {
	t.Helper()
	return r.WithContext(auth.WithPrincipal(r.Context(), PrincipalFor(t, u)))
}

// WithPrincipal attaches an explicit principal, for tests that need a caller
// who does not exist in the database.
func WithPrincipal(r *http.Request, userID, companyID primitive.ObjectID, role string) *http.Request {
	p := auth.Principal{
		Context: tenant.Context{UserID: userID, Role: role, CompanyID: companyID},
		Name:    "Test User",
		Email:   "test@example.com",
	}
	return r.WithContext(auth.WithPrincipal(r.Context(), p))
}

// NewJSONRequest creates a request with a JSON-encoded body.
func NewJSONRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		buf = bytes.NewReader(b)
	}
	r := httptest.NewRequest(method, target, buf)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// DecodeEnvelope decodes the standard response envelope from a recorder.
func DecodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding response envelope: %v (body: %s)", err, rec.Body.String())
	}
	return env
}

// DecodeData decodes the envelope's data field into out.
func DecodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding response envelope: %v (body: %s)", err, rec.Body.String())
	}
	if !env.Success {
		t.Fatalf("response not successful: %s", rec.Body.String())
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decoding response data: %v", err)
	}
}

// AssertStatus fails the test when the recorded status differs, printing the
// body for diagnosis.
func AssertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Errorf("status = %d, want %d (body: %s)", rec.Code, want, rec.Body.String())
	}
}
