package tasks_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	tasksfeature "github.com/crewdesk/crewdesk/internal/app/features/tasks"
	"github.com/crewdesk/crewdesk/internal/app/realtime"
	notificationstore "github.com/crewdesk/crewdesk/internal/app/store/notifications"
	taskfilestore "github.com/crewdesk/crewdesk/internal/app/store/taskfiles"
	taskstore "github.com/crewdesk/crewdesk/internal/app/store/tasks"
	userstore "github.com/crewdesk/crewdesk/internal/app/store/users"
	"github.com/crewdesk/crewdesk/internal/app/system/notifier"
	"github.com/crewdesk/crewdesk/internal/app/system/outbox"
	"github.com/crewdesk/crewdesk/internal/app/system/storage"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"github.com/crewdesk/crewdesk/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type taskEnv struct {
	handler       *tasksfeature.Handler
	notifications *notificationstore.Store
	out           *outbox.Dispatcher
	db            *mongo.Database
}

func setup(t *testing.T) *taskEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	blobs, err := storage.NewLocal(t.TempDir(), "/files")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	out := outbox.New(1, zap.NewNop())
	t.Cleanup(out.Close)
	notifications := notificationstore.New(db)
	hub := realtime.NewHub(zap.NewNop())

	h := tasksfeature.NewHandler(
		taskstore.New(db),
		taskfilestore.New(db),
		userstore.New(db),
		blobs,
		notifier.New(notifications, hub, out, zap.NewNop()),
		hub,
		nil,
		zap.NewNop(),
	)
	return &taskEnv{handler: h, notifications: notifications, out: out, db: db}
}

func TestList_EmployeeSeesOnlyOwnTasks(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	worker := fixtures.CreateEmployee(ctx, "Worker", "worker@example.com", company.ID)
	fixtures.CreateTask(ctx, "Mine", company.ID, worker.ID, admin.ID)
	fixtures.CreateTask(ctx, "Not mine", company.ID, admin.ID, admin.ID)

	req := testutil.WithUser(t, httptest.NewRequest(http.MethodGet, "/api/tasks", nil), worker)
	rec := httptest.NewRecorder()
	env.handler.HandleList(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var resp struct {
		Tasks []models.Task `json:"tasks"`
		Total int64         `json:"total"`
	}
	testutil.DecodeData(t, rec, &resp)
	if resp.Total != 1 || len(resp.Tasks) != 1 {
		t.Fatalf("employee sees %d tasks (total %d), want 1", len(resp.Tasks), resp.Total)
	}
	if resp.Tasks[0].Title != "Mine" {
		t.Errorf("Title = %q, want Mine", resp.Tasks[0].Title)
	}

	// The admin sees both.
	req = testutil.WithUser(t, httptest.NewRequest(http.MethodGet, "/api/tasks", nil), admin)
	rec = httptest.NewRecorder()
	env.handler.HandleList(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)
	testutil.DecodeData(t, rec, &resp)
	if resp.Total != 2 {
		t.Errorf("admin sees total %d, want 2", resp.Total)
	}
}

func TestList_StatusFilter(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	fixtures.CreateTask(ctx, "Open", company.ID, admin.ID, admin.ID)
	fixtures.CreateTaskWithStatus(ctx, "Done", models.TaskCompleted, company.ID, admin.ID, admin.ID)

	req := testutil.WithUser(t, httptest.NewRequest(http.MethodGet, "/api/tasks?status=completed", nil), admin)
	rec := httptest.NewRecorder()
	env.handler.HandleList(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var resp struct {
		Tasks []models.Task `json:"tasks"`
	}
	testutil.DecodeData(t, rec, &resp)
	if len(resp.Tasks) != 1 || resp.Tasks[0].Title != "Done" {
		t.Errorf("filtered tasks = %+v, want only Done", resp.Tasks)
	}

	rec = httptest.NewRecorder()
	env.handler.HandleList(rec, testutil.WithUser(t, httptest.NewRequest(http.MethodGet, "/api/tasks?status=bogus", nil), admin))
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}

func TestCreate_AdminAssignsAndNotifies(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	worker := fixtures.CreateEmployee(ctx, "Worker", "worker@example.com", company.ID)

	req := testutil.WithUser(t, testutil.NewJSONRequest(t, http.MethodPost, "/api/tasks", map[string]string{
		"title":       "Ship it",
		"assigned_to": worker.ID.Hex(),
		"priority":    "high",
	}), admin)
	rec := httptest.NewRecorder()
	env.handler.HandleCreate(rec, req)
	testutil.AssertStatus(t, rec, http.StatusCreated)

	var task models.Task
	testutil.DecodeData(t, rec, &task)
	if task.AssignedTo != worker.ID || task.Priority != models.PriorityHigh {
		t.Errorf("task = %+v", task)
	}
	if task.Status != models.TaskPending {
		t.Errorf("Status = %q, want pending default", task.Status)
	}

	// Drain the outbox, then the assignee has an unread notification.
	env.out.Close()
	n, err := env.notifications.UnreadCount(ctx, worker.ID)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if n != 1 {
		t.Errorf("assignee unread notifications = %d, want 1", n)
	}
}

func TestCreate_EmployeeCannotAssignOthers(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	worker := fixtures.CreateEmployee(ctx, "Worker", "worker@example.com", company.ID)
	other := fixtures.CreateEmployee(ctx, "Other", "other@example.com", company.ID)

	req := testutil.WithUser(t, testutil.NewJSONRequest(t, http.MethodPost, "/api/tasks", map[string]string{
		"title":       "Delegated",
		"assigned_to": other.ID.Hex(),
	}), worker)
	rec := httptest.NewRecorder()
	env.handler.HandleCreate(rec, req)
	testutil.AssertStatus(t, rec, http.StatusForbidden)

	// Creating for themselves is fine.
	req = testutil.WithUser(t, testutil.NewJSONRequest(t, http.MethodPost, "/api/tasks", map[string]string{
		"title": "My own work",
	}), worker)
	rec = httptest.NewRecorder()
	env.handler.HandleCreate(rec, req)
	testutil.AssertStatus(t, rec, http.StatusCreated)
}

func TestCreate_AssigneeOutsideCompany(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	rival := fixtures.CreateCompany(ctx, "Rival Corp")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	outsider := fixtures.CreateEmployee(ctx, "Outsider", "out@example.com", rival.ID)

	req := testutil.WithUser(t, testutil.NewJSONRequest(t, http.MethodPost, "/api/tasks", map[string]string{
		"title":       "Leaked",
		"assigned_to": outsider.ID.Hex(),
	}), admin)
	rec := httptest.NewRecorder()
	env.handler.HandleCreate(rec, req)
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}

func TestGet_CrossTenantIsNotFound(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	companyA := fixtures.CreateCompany(ctx, "Company A")
	companyB := fixtures.CreateCompany(ctx, "Company B")
	adminA := fixtures.CreateAdmin(ctx, "A", "a@example.com", companyA.ID)
	adminB := fixtures.CreateAdmin(ctx, "B", "b@example.com", companyB.ID)
	task := fixtures.CreateTask(ctx, "Secret", companyA.ID, adminA.ID, adminA.ID)

	req := testutil.WithUser(t, httptest.NewRequest(http.MethodGet, "/api/tasks/"+task.ID.Hex(), nil), adminB)
	req = testutil.WithChiURLParam(req, "id", task.ID.Hex())
	rec := httptest.NewRecorder()
	env.handler.HandleGet(rec, req)
	testutil.AssertStatus(t, rec, http.StatusNotFound)
}

func TestGet_EmployeeForeignTaskIsForbidden(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	worker := fixtures.CreateEmployee(ctx, "Worker", "worker@example.com", company.ID)
	task := fixtures.CreateTask(ctx, "Boss work", company.ID, admin.ID, admin.ID)

	req := testutil.WithUser(t, httptest.NewRequest(http.MethodGet, "/api/tasks/"+task.ID.Hex(), nil), worker)
	req = testutil.WithChiURLParam(req, "id", task.ID.Hex())
	rec := httptest.NewRecorder()
	env.handler.HandleGet(rec, req)
	testutil.AssertStatus(t, rec, http.StatusForbidden)
}

func TestUpdate_EmployeeStatusOnly(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	worker := fixtures.CreateEmployee(ctx, "Worker", "worker@example.com", company.ID)
	task := fixtures.CreateTask(ctx, "Mine", company.ID, worker.ID, worker.ID)

	// Status moves are allowed.
	req := testutil.WithUser(t, testutil.NewJSONRequest(t, http.MethodPut, "/api/tasks/"+task.ID.Hex(), map[string]string{
		"status": models.TaskInProgress,
	}), worker)
	req = testutil.WithChiURLParam(req, "id", task.ID.Hex())
	rec := httptest.NewRecorder()
	env.handler.HandleUpdate(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var updated models.Task
	testutil.DecodeData(t, rec, &updated)
	if updated.Status != models.TaskInProgress {
		t.Errorf("Status = %q, want in-progress", updated.Status)
	}

	// Renaming is not.
	req = testutil.WithUser(t, testutil.NewJSONRequest(t, http.MethodPut, "/api/tasks/"+task.ID.Hex(), map[string]string{
		"title": "Renamed",
	}), worker)
	req = testutil.WithChiURLParam(req, "id", task.ID.Hex())
	rec = httptest.NewRecorder()
	env.handler.HandleUpdate(rec, req)
	testutil.AssertStatus(t, rec, http.StatusForbidden)
}

func TestUpdate_AdminReassignsAndNotifies(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	worker := fixtures.CreateEmployee(ctx, "Worker", "worker@example.com", company.ID)
	task := fixtures.CreateTask(ctx, "Handover", company.ID, admin.ID, admin.ID)

	req := testutil.WithUser(t, testutil.NewJSONRequest(t, http.MethodPut, "/api/tasks/"+task.ID.Hex(), map[string]string{
		"assigned_to": worker.ID.Hex(),
	}), admin)
	req = testutil.WithChiURLParam(req, "id", task.ID.Hex())
	rec := httptest.NewRecorder()
	env.handler.HandleUpdate(rec, req)
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
		t.Errorf("new assignee unread notifications = %d, want 1", n)
	}
}

func TestUpload_AndList(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	task := fixtures.CreateTask(ctx, "Deliverable", company.ID, admin.ID, admin.ID)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "report.pdf")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte("pdf bytes")); err != nil {
		t.Fatalf("writing part: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/"+task.ID.Hex()+"/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = testutil.WithUser(t, req, admin)
	req = testutil.WithChiURLParam(req, "id", task.ID.Hex())
	rec := httptest.NewRecorder()
	env.handler.HandleUploadFile(rec, req)
	testutil.AssertStatus(t, rec, http.StatusCreated)

	var file models.TaskFile
	testutil.DecodeData(t, rec, &file)
	if file.Filename != "report.pdf" || file.Size != int64(len("pdf bytes")) {
		t.Errorf("file = %+v", file)
	}
	if file.URL == "" {
		t.Error("file URL should point at the stored blob")
	}

	listReq := testutil.WithUser(t, httptest.NewRequest(http.MethodGet, "/api/tasks/"+task.ID.Hex()+"/files", nil), admin)
	listReq = testutil.WithChiURLParam(listReq, "id", task.ID.Hex())
	rec = httptest.NewRecorder()
	env.handler.HandleListFiles(rec, listReq)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var files []models.TaskFile
	testutil.DecodeData(t, rec, &files)
	if len(files) != 1 {
		t.Fatalf("files = %d, want 1", len(files))
	}
}
