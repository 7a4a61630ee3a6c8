package team_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	teamfeature "github.com/crewdesk/crewdesk/internal/app/features/team"
	"github.com/crewdesk/crewdesk/internal/app/realtime"
	companystore "github.com/crewdesk/crewdesk/internal/app/store/companies"
	notificationstore "github.com/crewdesk/crewdesk/internal/app/store/notifications"
	taskstore "github.com/crewdesk/crewdesk/internal/app/store/tasks"
	userstore "github.com/crewdesk/crewdesk/internal/app/store/users"
	"github.com/crewdesk/crewdesk/internal/app/system/mailer"
	"github.com/crewdesk/crewdesk/internal/app/system/notifier"
	"github.com/crewdesk/crewdesk/internal/app/system/outbox"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"github.com/crewdesk/crewdesk/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type mailRecorder struct {
	mu   sync.Mutex
	sent []mailer.Email
}

func (m *mailRecorder) Send(e mailer.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, e)
	return nil
}

func (m *mailRecorder) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, e := range m.sent {
		out = append(out, e.To)
	}
	return out
}

type teamEnv struct {
	handler       *teamfeature.Handler
	users         *userstore.Store
	tasks         *taskstore.Store
	notifications *notificationstore.Store
	mail          *mailRecorder
	out           *outbox.Dispatcher
	db            *mongo.Database
}

func setup(t *testing.T) *teamEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	mail := &mailRecorder{}
	out := outbox.New(1, zap.NewNop())
	t.Cleanup(out.Close)
	users := userstore.New(db)
	tasks := taskstore.New(db)
	notifications := notificationstore.New(db)
	hub := realtime.NewHub(zap.NewNop())

	h := teamfeature.NewHandler(
		users,
		tasks,
		companystore.New(db),
		notifier.New(notifications, hub, out, zap.NewNop()),
		hub,
		mail,
		mailer.Templates{BaseURL: "https://app.test"},
		out,
		nil,
		zap.NewNop(),
	)
	return &teamEnv{
		handler:       h,
		users:         users,
		tasks:         tasks,
		notifications: notifications,
		mail:          mail,
		out:           out,
		db:            db,
	}
}

func TestEmployees_WorkloadAndGrades(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	worker := fixtures.CreateEmployee(ctx, "Worker", "worker@example.com", company.ID)
	fixtures.CreateTaskWithStatus(ctx, "Done", models.TaskCompleted, company.ID, worker.ID, admin.ID)
	fixtures.CreateTask(ctx, "Open", company.ID, worker.ID, admin.ID)

	req := testutil.WithUser(t, httptest.NewRequest(http.MethodGet, "/api/team/employees", nil), admin)
	rec := httptest.NewRecorder()
	env.handler.HandleEmployees(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var members []struct {
		ID             string  `json:"id"`
		Role           string  `json:"role"`
		TotalTasks     int64   `json:"total_tasks"`
		CompletedTasks int64   `json:"completed_tasks"`
		CompletionRate float64 `json:"completion_rate"`
		Grade          string  `json:"grade"`
	}
	testutil.DecodeData(t, rec, &members)
	if len(members) != 2 {
		t.Fatalf("members = %d, want 2", len(members))
	}

	byID := make(map[string]int)
	for i, m := range members {
		byID[m.ID] = i
	}
	w := members[byID[worker.ID.Hex()]]
	if w.TotalTasks != 2 || w.CompletedTasks != 1 {
		t.Errorf("worker load = %+v", w)
	}
	if w.CompletionRate != 0.5 || w.Grade != "C" {
		t.Errorf("worker rate/grade = %v/%q, want 0.5/C", w.CompletionRate, w.Grade)
	}
	a := members[byID[admin.ID.Hex()]]
	if a.TotalTasks != 0 || a.Grade != "n/a" {
		t.Errorf("idle admin = %+v, want ungraded", a)
	}
}

func TestInvite_NewUser(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)

	req := testutil.WithUser(t, testutil.NewJSONRequest(t, http.MethodPost, "/api/team/invite", map[string]string{
		"email": "new@example.com",
		"name":  "New Hire",
		"role":  "manager",
	}), admin)
	rec := httptest.NewRecorder()
	env.handler.HandleInvite(rec, req)
	testutil.AssertStatus(t, rec, http.StatusCreated)

	created, err := env.users.GetByEmail(ctx, "new@example.com")
	if err != nil {
		t.Fatalf("invited user not created: %v", err)
	}
	m, ok := created.MembershipFor(company.ID)
	if !ok || !m.IsActive || m.Role != "manager" {
		t.Errorf("membership = %+v", m)
	}
	if created.Password == "" {
		t.Error("invited user has no password hash")
	}

	env.out.Close()
	got := env.mail.recipients()
	if len(got) != 1 || got[0] != "new@example.com" {
		t.Errorf("invite emails went to %v", got)
	}
}

func TestInvite_ExistingMember(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	fixtures.CreateEmployee(ctx, "Worker", "worker@example.com", company.ID)

	req := testutil.WithUser(t, testutil.NewJSONRequest(t, http.MethodPost, "/api/team/invite", map[string]string{
		"email": "worker@example.com",
	}), admin)
	rec := httptest.NewRecorder()
	env.handler.HandleInvite(rec, req)
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}

func TestInvite_ExistingUserJoinsCompany(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	other := fixtures.CreateCompany(ctx, "Other Co")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	outsider := fixtures.CreateEmployee(ctx, "Outsider", "outsider@example.com", other.ID)

	req := testutil.WithUser(t, testutil.NewJSONRequest(t, http.MethodPost, "/api/team/invite", map[string]string{
		"email": "outsider@example.com",
	}), admin)
	rec := httptest.NewRecorder()
	env.handler.HandleInvite(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	joined, err := env.users.GetByID(ctx, outsider.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	m, ok := joined.MembershipFor(company.ID)
	if !ok || !m.IsActive {
		t.Errorf("outsider membership in inviting company = %+v", m)
	}
}

func TestUpdateMember_Role(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	worker := fixtures.CreateEmployee(ctx, "Worker", "worker@example.com", company.ID)

	req := testutil.WithUser(t, testutil.NewJSONRequest(t, http.MethodPut, "/api/team/users/"+worker.ID.Hex(), map[string]string{
		"role": "manager",
	}), admin)
	req = testutil.WithChiURLParam(req, "id", worker.ID.Hex())
	rec := httptest.NewRecorder()
	env.handler.HandleUpdateMember(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var resp struct {
		Role string `json:"role"`
	}
	testutil.DecodeData(t, rec, &resp)
	if resp.Role != "manager" {
		t.Errorf("role = %q, want manager", resp.Role)
	}
}

func TestUpdateMember_DepartmentOnlyKeepsName(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	worker := fixtures.CreateEmployee(ctx, "Worker", "worker@example.com", company.ID)

	req := testutil.WithUser(t, testutil.NewJSONRequest(t, http.MethodPut, "/api/team/users/"+worker.ID.Hex(), map[string]string{
		"department": "Support",
	}), admin)
	req = testutil.WithChiURLParam(req, "id", worker.ID.Hex())
	rec := httptest.NewRecorder()
	env.handler.HandleUpdateMember(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var resp struct {
		Name       string `json:"name"`
		Department string `json:"department"`
	}
	testutil.DecodeData(t, rec, &resp)
	if resp.Department != "Support" {
		t.Errorf("department = %q, want Support", resp.Department)
	}
	if resp.Name != "Worker" {
		t.Errorf("name = %q, want unchanged", resp.Name)
	}
}

func TestDeleteMember(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	worker := fixtures.CreateEmployee(ctx, "Worker", "worker@example.com", company.ID)

	// Self-delete is forbidden.
	req := testutil.WithUser(t, httptest.NewRequest(http.MethodDelete, "/api/team/users/"+admin.ID.Hex(), nil), admin)
	req = testutil.WithChiURLParam(req, "id", admin.ID.Hex())
	rec := httptest.NewRecorder()
	env.handler.HandleDeleteMember(rec, req)
	testutil.AssertStatus(t, rec, http.StatusForbidden)

	// Removing someone else deactivates the membership.
	req = testutil.WithUser(t, httptest.NewRequest(http.MethodDelete, "/api/team/users/"+worker.ID.Hex(), nil), admin)
	req = testutil.WithChiURLParam(req, "id", worker.ID.Hex())
	rec = httptest.NewRecorder()
	env.handler.HandleDeleteMember(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	if _, err := env.users.GetCompanyMember(ctx, company.ID, worker.ID); err != mongo.ErrNoDocuments {
		t.Errorf("removed member still active: %v", err)
	}
}

func TestAssignTask(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	worker := fixtures.CreateEmployee(ctx, "Worker", "worker@example.com", company.ID)
	task := fixtures.CreateTask(ctx, "Handoff", company.ID, admin.ID, admin.ID)

	req := testutil.WithUser(t, testutil.NewJSONRequest(t, http.MethodPost, "/api/team/assign-task", map[string]string{
		"task_id":     task.ID.Hex(),
		"assigned_to": worker.ID.Hex(),
	}), admin)
	rec := httptest.NewRecorder()
	env.handler.HandleAssignTask(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var updated models.Task
	testutil.DecodeData(t, rec, &updated)
	if updated.AssignedTo != worker.ID {
		t.Errorf("AssignedTo = %v, want %v", updated.AssignedTo, worker.ID)
	}

	env.out.Close()
	n, err := env.notifications.UnreadCount(ctx, worker.ID)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if n != 1 {
		t.Errorf("assignee unread notifications = %d, want 1", n)
	}
}

func TestNotifyMeeting(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	worker := fixtures.CreateEmployee(ctx, "Worker", "worker@example.com", company.ID)

	req := testutil.WithUser(t, testutil.NewJSONRequest(t, http.MethodPost, "/api/team/notify-meeting", map[string]interface{}{
		"title":       "Sprint planning",
		"datetime":    "2026-09-07T10:00:00Z",
		"description": "Bring estimates",
	}), admin)
	rec := httptest.NewRecorder()
	env.handler.HandleNotifyMeeting(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	env.out.Close()

	// Both members get a reminder notification; only the non-organizer gets
	// the email.
	adminUnread, err := env.notifications.UnreadCount(ctx, admin.ID)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	workerUnread, err := env.notifications.UnreadCount(ctx, worker.ID)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if adminUnread != 1 || workerUnread != 1 {
		t.Errorf("unread = admin %d, worker %d, want 1 each", adminUnread, workerUnread)
	}

	got := env.mail.recipients()
	if len(got) != 1 || got[0] != "worker@example.com" {
		t.Errorf("meeting emails went to %v", got)
	}
}
