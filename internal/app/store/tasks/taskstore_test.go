package taskstore_test

import (
	"testing"
	"time"

	taskstore "github.com/crewdesk/crewdesk/internal/app/store/tasks"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"github.com/crewdesk/crewdesk/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create_Defaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	emp := fixtures.CreateEmployee(ctx, "Ann", "ann@example.com", company.ID)

	created, err := store.Create(ctx, models.Task{
		Title:      "Ship the widget",
		AssignedTo: emp.ID,
		CreatedBy:  admin.ID,
		CompanyID:  company.ID,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Status != models.TaskPending {
		t.Errorf("Status = %q, want pending", created.Status)
	}
	if created.Priority != models.PriorityMedium {
		t.Errorf("Priority = %q, want medium", created.Priority)
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestStore_Create_StripsMarkup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)

	created, err := store.Create(ctx, models.Task{
		Title:       `Review <script>alert("x")</script>design`,
		Description: `<img src=x onerror=alert(1)>notes`,
		AssignedTo:  admin.ID,
		CreatedBy:   admin.ID,
		CompanyID:   company.ID,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Title != "Review design" {
		t.Errorf("Title = %q, markup should be stripped", created.Title)
	}
	if created.Description != "notes" {
		t.Errorf("Description = %q, markup should be stripped", created.Description)
	}
}

func TestStore_Get_TenantIsolation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	companyA := fixtures.CreateCompany(ctx, "Company A")
	companyB := fixtures.CreateCompany(ctx, "Company B")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", companyA.ID)
	task := fixtures.CreateTask(ctx, "A task", companyA.ID, admin.ID, admin.ID)

	if _, err := store.Get(ctx, companyA.ID, task.ID); err != nil {
		t.Fatalf("Get in own company failed: %v", err)
	}
	if _, err := store.Get(ctx, companyB.ID, task.ID); err != mongo.ErrNoDocuments {
		t.Errorf("cross-tenant Get = %v, want mongo.ErrNoDocuments", err)
	}
}

func TestStore_List_EmployeeRestriction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	ann := fixtures.CreateEmployee(ctx, "Ann", "ann@example.com", company.ID)
	bob := fixtures.CreateEmployee(ctx, "Bob", "bob@example.com", company.ID)

	fixtures.CreateTask(ctx, "Ann one", company.ID, ann.ID, admin.ID)
	fixtures.CreateTask(ctx, "Ann two", company.ID, ann.ID, admin.ID)
	fixtures.CreateTask(ctx, "Bob one", company.ID, bob.ID, admin.ID)

	all, total, err := store.List(ctx, company.ID, taskstore.ListFilter{}, nil)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Errorf("unrestricted list = %d/%d, want 3/3", len(all), total)
	}

	// An employee sees only their own tasks, even when the filter asks for
	// someone else's.
	mine, total, err := store.List(ctx, company.ID, taskstore.ListFilter{AssignedTo: &bob.ID}, &ann.ID)
	if err != nil {
		t.Fatalf("restricted List failed: %v", err)
	}
	if total != 2 {
		t.Errorf("restricted total = %d, want 2", total)
	}
	for _, task := range mine {
		if task.AssignedTo != ann.ID {
			t.Errorf("restricted list leaked task assigned to %s", task.AssignedTo.Hex())
		}
	}
}

func TestStore_List_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	fixtures.CreateTaskWithStatus(ctx, "Done task", models.TaskCompleted, company.ID, admin.ID, admin.ID)
	fixtures.CreateTask(ctx, "Open task", company.ID, admin.ID, admin.ID)

	done, total, err := store.List(ctx, company.ID, taskstore.ListFilter{Status: models.TaskCompleted}, nil)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(done) != 1 || done[0].Title != "Done task" {
		t.Errorf("status filter returned %d/%d", len(done), total)
	}

	found, total, err := store.List(ctx, company.ID, taskstore.ListFilter{Search: "open"}, nil)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(found) != 1 || found[0].Title != "Open task" {
		t.Errorf("search filter returned %d/%d", len(found), total)
	}
}

func TestStore_List_SearchIsLiteral(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	fixtures.CreateTask(ctx, "Audit phase (a+b)", company.ID, admin.ID, admin.ID)
	fixtures.CreateTask(ctx, "Audit phase ab", company.ID, admin.ID, admin.ID)

	// The search term is matched literally, not as a pattern, so "(a+b)"
	// must not match "ab".
	found, total, err := store.List(ctx, company.ID, taskstore.ListFilter{Search: "(a+b)"}, nil)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(found) != 1 || found[0].Title != "Audit phase (a+b)" {
		t.Errorf("literal search returned %d/%d", len(found), total)
	}
}

func TestStore_Apply(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	task := fixtures.CreateTask(ctx, "Original", company.ID, admin.ID, admin.ID)

	status := models.TaskInProgress
	title := "Renamed"
	updated, err := store.Apply(ctx, company.ID, task.ID, taskstore.Update{
		Title:  &title,
		Status: &status,
	}, nil)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if updated.Title != "Renamed" || updated.Status != models.TaskInProgress {
		t.Errorf("updated = %+v", updated)
	}
}

func TestStore_Apply_Submission(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	task := fixtures.CreateTask(ctx, "Deliverable", company.ID, admin.ID, admin.ID)

	url := "https://example.com/work.pdf"
	status := models.TaskCompleted
	updated, err := store.Apply(ctx, company.ID, task.ID, taskstore.Update{
		SubmissionURL: &url,
		Status:        &status,
	}, nil)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if updated.SubmissionURL != url {
		t.Errorf("SubmissionURL = %q", updated.SubmissionURL)
	}
	if updated.SubmittedAt == nil || updated.SubmittedAt.IsZero() {
		t.Error("SubmittedAt should be stamped when a submission URL is set")
	}
}

func TestStore_Apply_RestrictedToAssignee(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	worker := fixtures.CreateEmployee(ctx, "Worker", "worker@example.com", company.ID)
	other := fixtures.CreateEmployee(ctx, "Other", "other@example.com", company.ID)
	task := fixtures.CreateTask(ctx, "Mine", company.ID, worker.ID, worker.ID)

	status := models.TaskInProgress

	// The assignee can update their own task.
	if _, err := store.Apply(ctx, company.ID, task.ID, taskstore.Update{Status: &status}, &worker.ID); err != nil {
		t.Fatalf("assignee Apply failed: %v", err)
	}

	// Someone restricted to their own tasks cannot touch it.
	_, err := store.Apply(ctx, company.ID, task.ID, taskstore.Update{Status: &status}, &other.ID)
	if err != mongo.ErrNoDocuments {
		t.Errorf("restricted Apply on someone else's task = %v, want mongo.ErrNoDocuments", err)
	}
}

func TestStore_Apply_CrossTenant(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	companyA := fixtures.CreateCompany(ctx, "Company A")
	companyB := fixtures.CreateCompany(ctx, "Company B")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", companyA.ID)
	task := fixtures.CreateTask(ctx, "A task", companyA.ID, admin.ID, admin.ID)

	title := "Hijacked"
	_, err := store.Apply(ctx, companyB.ID, task.ID, taskstore.Update{Title: &title}, nil)
	if err != mongo.ErrNoDocuments {
		t.Errorf("cross-tenant Apply = %v, want mongo.ErrNoDocuments", err)
	}

	// The document is untouched.
	fresh, err := store.Get(ctx, companyA.ID, task.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fresh.Title != "A task" {
		t.Errorf("Title = %q, cross-tenant write leaked", fresh.Title)
	}
}

func TestStore_CompletionTimes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	fixtures.CreateTaskWithStatus(ctx, "Done", models.TaskCompleted, company.ID, admin.ID, admin.ID)
	fixtures.CreateTask(ctx, "Open", company.ID, admin.ID, admin.ID)

	stats, err := store.CompletionTimes(ctx, company.ID, nil)
	if err != nil {
		t.Fatalf("CompletionTimes failed: %v", err)
	}
	if stats.Completed != 1 {
		t.Errorf("Completed = %d, want 1", stats.Completed)
	}
	// Fixture completes the task one hour after creation.
	if stats.AvgHours < 0.9 || stats.AvgHours > 1.1 {
		t.Errorf("AvgHours = %f, want ~1", stats.AvgHours)
	}
}

func TestStore_Workload(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	ann := fixtures.CreateEmployee(ctx, "Ann", "ann@example.com", company.ID)
	fixtures.CreateTask(ctx, "One", company.ID, ann.ID, admin.ID)
	fixtures.CreateTask(ctx, "Two", company.ID, ann.ID, admin.ID)
	fixtures.CreateTaskWithStatus(ctx, "Three", models.TaskCompleted, company.ID, ann.ID, admin.ID)

	loads, err := store.Workload(ctx, company.ID)
	if err != nil {
		t.Fatalf("Workload failed: %v", err)
	}
	if len(loads) != 1 {
		t.Fatalf("got %d assignees, want 1", len(loads))
	}
	l := loads[0]
	if l.UserID != ann.ID || l.Pending != 2 || l.Completed != 1 || l.Total != 3 {
		t.Errorf("load = %+v", l)
	}
}

func TestStore_Trends_ZeroFills(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	fixtures.CreateTask(ctx, "Today", company.ID, admin.ID, admin.ID)

	buckets, err := store.Trends(ctx, company.ID, 7)
	if err != nil {
		t.Fatalf("Trends failed: %v", err)
	}
	if len(buckets) != 7 {
		t.Fatalf("got %d buckets, want 7", len(buckets))
	}
	today := time.Now().UTC().Format("2006-01-02")
	last := buckets[len(buckets)-1]
	if last.Date != today {
		t.Errorf("last bucket = %s, want %s", last.Date, today)
	}
	if last.Created != 1 {
		t.Errorf("today's created = %d, want 1", last.Created)
	}
}

func TestStore_CountByAssignee(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	ann := fixtures.CreateEmployee(ctx, "Ann", "ann@example.com", company.ID)
	fixtures.CreateTask(ctx, "One", company.ID, ann.ID, admin.ID)
	fixtures.CreateTaskWithStatus(ctx, "Done", models.TaskCompleted, company.ID, ann.ID, admin.ID)

	counts, err := store.CountByAssignee(ctx, company.ID)
	if err != nil {
		t.Fatalf("CountByAssignee failed: %v", err)
	}
	if counts[ann.ID] != 1 {
		t.Errorf("open count = %d, want 1 (completed excluded)", counts[ann.ID])
	}
	if _, ok := counts[primitive.NilObjectID]; ok {
		t.Error("unexpected nil-assignee bucket")
	}
}
