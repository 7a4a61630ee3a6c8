package chat_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chatfeature "github.com/crewdesk/crewdesk/internal/app/features/chat"
	"github.com/crewdesk/crewdesk/internal/app/realtime"
	messagestore "github.com/crewdesk/crewdesk/internal/app/store/messages"
	notificationstore "github.com/crewdesk/crewdesk/internal/app/store/notifications"
	userstore "github.com/crewdesk/crewdesk/internal/app/store/users"
	"github.com/crewdesk/crewdesk/internal/app/system/notifier"
	"github.com/crewdesk/crewdesk/internal/app/system/outbox"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"github.com/crewdesk/crewdesk/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type chatEnv struct {
	handler       *chatfeature.Handler
	messages      *messagestore.Store
	notifications *notificationstore.Store
	out           *outbox.Dispatcher
	db            *mongo.Database
}

func setup(t *testing.T) *chatEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	out := outbox.New(1, zap.NewNop())
	t.Cleanup(out.Close)
	messages := messagestore.New(db)
	notifications := notificationstore.New(db)
	hub := realtime.NewHub(zap.NewNop())

	h := chatfeature.NewHandler(
		messages,
		userstore.New(db),
		notifier.New(notifications, hub, out, zap.NewNop()),
		hub,
		nil,
		zap.NewNop(),
	)
	return &chatEnv{handler: h, messages: messages, notifications: notifications, out: out, db: db}
}

func TestSend_GroupMessage(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	ann := fixtures.CreateEmployee(ctx, "Ann", "ann@example.com", company.ID)

	req := testutil.WithUser(t, testutil.NewJSONRequest(t, http.MethodPost, "/api/chat/messages", map[string]string{
		"message": "hello everyone",
	}), ann)
	rec := httptest.NewRecorder()
	env.handler.HandleSend(rec, req)
	testutil.AssertStatus(t, rec, http.StatusCreated)

	var msg models.Message
	testutil.DecodeData(t, rec, &msg)
	if msg.RecipientID != nil {
		t.Error("group message should have no recipient")
	}
	if !msg.IsReadBy(ann.ID) {
		t.Error("sender should start with a read receipt")
	}
}

func TestSend_DirectMessageNotifiesRecipient(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	ann := fixtures.CreateEmployee(ctx, "Ann", "ann@example.com", company.ID)
	bob := fixtures.CreateEmployee(ctx, "Bob", "bob@example.com", company.ID)

	req := testutil.WithUser(t, testutil.NewJSONRequest(t, http.MethodPost, "/api/chat/messages", map[string]string{
		"message":      "just for you",
		"recipient_id": bob.ID.Hex(),
	}), ann)
	rec := httptest.NewRecorder()
	env.handler.HandleSend(rec, req)
	testutil.AssertStatus(t, rec, http.StatusCreated)

	env.out.Close()
	n, err := env.notifications.UnreadCount(ctx, bob.ID)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if n != 1 {
		t.Errorf("recipient unread notifications = %d, want 1", n)
	}
}

func TestSend_RecipientOutsideCompany(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	rival := fixtures.CreateCompany(ctx, "Rival Corp")
	ann := fixtures.CreateEmployee(ctx, "Ann", "ann@example.com", company.ID)
	outsider := fixtures.CreateEmployee(ctx, "Outsider", "out@example.com", rival.ID)

	req := testutil.WithUser(t, testutil.NewJSONRequest(t, http.MethodPost, "/api/chat/messages", map[string]string{
		"message":      "leak",
		"recipient_id": outsider.ID.Hex(),
	}), ann)
	rec := httptest.NewRecorder()
	env.handler.HandleSend(rec, req)
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}

func TestList_DirectThread(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	ann := fixtures.CreateEmployee(ctx, "Ann", "ann@example.com", company.ID)
	bob := fixtures.CreateEmployee(ctx, "Bob", "bob@example.com", company.ID)

	if _, err := env.messages.Create(ctx, models.Message{SenderID: ann.ID, RecipientID: &bob.ID, Body: "to bob", CompanyID: company.ID}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := env.messages.Create(ctx, models.Message{SenderID: ann.ID, Body: "group", CompanyID: company.ID}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	req := testutil.WithUser(t, httptest.NewRequest(http.MethodGet, "/api/chat/messages?recipient_id="+bob.ID.Hex(), nil), ann)
	rec := httptest.NewRecorder()
	env.handler.HandleList(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var msgs []models.Message
	testutil.DecodeData(t, rec, &msgs)
	if len(msgs) != 1 || msgs[0].Body != "to bob" {
		t.Errorf("direct thread = %+v, want only the DM", msgs)
	}
}

func TestEdit_NonSenderForbidden(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	ann := fixtures.CreateEmployee(ctx, "Ann", "ann@example.com", company.ID)
	bob := fixtures.CreateEmployee(ctx, "Bob", "bob@example.com", company.ID)
	msg := fixtures.CreateMessage(ctx, "original", company.ID, ann.ID)

	req := testutil.WithUser(t, testutil.NewJSONRequest(t, http.MethodPut, "/api/chat/messages/"+msg.ID.Hex(), map[string]string{
		"message": "hijacked",
	}), bob)
	req = testutil.WithChiURLParam(req, "id", msg.ID.Hex())
	rec := httptest.NewRecorder()
	env.handler.HandleEdit(rec, req)
	testutil.AssertStatus(t, rec, http.StatusForbidden)

	// The sender can edit, and the original body is kept.
	req = testutil.WithUser(t, testutil.NewJSONRequest(t, http.MethodPut, "/api/chat/messages/"+msg.ID.Hex(), map[string]string{
		"message": "fixed typo",
	}), ann)
	req = testutil.WithChiURLParam(req, "id", msg.ID.Hex())
	rec = httptest.NewRecorder()
	env.handler.HandleEdit(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var edited models.Message
	testutil.DecodeData(t, rec, &edited)
	if !edited.IsEdited || edited.OriginalBody != "original" || edited.Body != "fixed typo" {
		t.Errorf("edited = %+v", edited)
	}
}

func TestDelete_ElevatedCanDeleteOthers(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	ann := fixtures.CreateEmployee(ctx, "Ann", "ann@example.com", company.ID)
	bob := fixtures.CreateEmployee(ctx, "Bob", "bob@example.com", company.ID)
	msg := fixtures.CreateMessage(ctx, "regrettable", company.ID, ann.ID)

	// Another employee cannot.
	req := testutil.WithUser(t, httptest.NewRequest(http.MethodDelete, "/api/chat/messages/"+msg.ID.Hex(), nil), bob)
	req = testutil.WithChiURLParam(req, "id", msg.ID.Hex())
	rec := httptest.NewRecorder()
	env.handler.HandleDelete(rec, req)
	testutil.AssertStatus(t, rec, http.StatusForbidden)

	// An admin can.
	req = testutil.WithUser(t, httptest.NewRequest(http.MethodDelete, "/api/chat/messages/"+msg.ID.Hex(), nil), admin)
	req = testutil.WithChiURLParam(req, "id", msg.ID.Hex())
	rec = httptest.NewRecorder()
	env.handler.HandleDelete(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	fresh, err := env.messages.Get(ctx, company.ID, msg.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !fresh.IsDeleted || fresh.DeletedBy == nil || *fresh.DeletedBy != admin.ID {
		t.Errorf("tombstone = %+v", fresh)
	}
}

func TestReactions_AddAndRemove(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	ann := fixtures.CreateEmployee(ctx, "Ann", "ann@example.com", company.ID)
	bob := fixtures.CreateEmployee(ctx, "Bob", "bob@example.com", company.ID)
	msg := fixtures.CreateMessage(ctx, "nice work", company.ID, ann.ID)

	req := testutil.WithUser(t, testutil.NewJSONRequest(t, http.MethodPost, "/api/chat/messages/"+msg.ID.Hex()+"/reactions", map[string]string{
		"emoji": "🎉",
	}), bob)
	req = testutil.WithChiURLParam(req, "id", msg.ID.Hex())
	rec := httptest.NewRecorder()
	env.handler.HandleAddReaction(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var reacted models.Message
	testutil.DecodeData(t, rec, &reacted)
	if len(reacted.Reactions) != 1 || len(reacted.Reactions[0].UserIDs) != 1 {
		t.Fatalf("reactions = %+v", reacted.Reactions)
	}

	del := testutil.WithUser(t, httptest.NewRequest(http.MethodDelete, "/api/chat/messages/"+msg.ID.Hex()+"/reactions/🎉", nil), bob)
	del = testutil.WithChiURLParam(del, "id", msg.ID.Hex())
	del = testutil.WithChiURLParam(del, "emoji", "🎉")
	rec = httptest.NewRecorder()
	env.handler.HandleRemoveReaction(rec, del)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var cleared models.Message
	testutil.DecodeData(t, rec, &cleared)
	if len(cleared.Reactions) != 0 {
		t.Errorf("reactions after removal = %+v", cleared.Reactions)
	}
}

func TestReadAllAndUnreadCount(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	ann := fixtures.CreateEmployee(ctx, "Ann", "ann@example.com", company.ID)
	bob := fixtures.CreateEmployee(ctx, "Bob", "bob@example.com", company.ID)
	fixtures.CreateMessage(ctx, "one", company.ID, ann.ID)
	fixtures.CreateMessage(ctx, "two", company.ID, ann.ID)

	req := testutil.WithUser(t, httptest.NewRequest(http.MethodGet, "/api/chat/messages/unread-count", nil), bob)
	rec := httptest.NewRecorder()
	env.handler.HandleUnreadCount(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var count map[string]int64
	testutil.DecodeData(t, rec, &count)
	if count["unread"] != 2 {
		t.Errorf("unread = %d, want 2", count["unread"])
	}

	req = testutil.WithUser(t, httptest.NewRequest(http.MethodPut, "/api/chat/messages/read-all", nil), bob)
	rec = httptest.NewRecorder()
	env.handler.HandleReadAll(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var marked map[string]int64
	testutil.DecodeData(t, rec, &marked)
	if marked["marked"] != 2 {
		t.Errorf("marked = %d, want 2", marked["marked"])
	}
}

func TestPinnedFlow(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	admin := fixtures.CreateAdmin(ctx, "Boss", "boss@example.com", company.ID)
	msg := fixtures.CreateMessage(ctx, "important", company.ID, admin.ID)

	req := testutil.WithUser(t, testutil.NewJSONRequest(t, http.MethodPut, "/api/chat/messages/"+msg.ID.Hex()+"/pin", nil), admin)
	req = testutil.WithChiURLParam(req, "id", msg.ID.Hex())
	rec := httptest.NewRecorder()
	env.handler.HandlePin(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	listReq := testutil.WithUser(t, httptest.NewRequest(http.MethodGet, "/api/chat/messages/pinned", nil), admin)
	rec = httptest.NewRecorder()
	env.handler.HandlePinned(rec, listReq)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var pinned []models.Message
	testutil.DecodeData(t, rec, &pinned)
	if len(pinned) != 1 || !pinned[0].IsPinned {
		t.Errorf("pinned = %+v, want the one pinned message", pinned)
	}
}

func TestTeamMembers_ExcludesSelf(t *testing.T) {
	env := setup(t)
	fixtures := testutil.NewFixtures(t, env.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	company := fixtures.CreateCompany(ctx, "Acme Inc")
	ann := fixtures.CreateEmployee(ctx, "Ann", "ann@example.com", company.ID)
	fixtures.CreateManager(ctx, "Mia", "mia@example.com", company.ID)

	req := testutil.WithUser(t, httptest.NewRequest(http.MethodGet, "/api/chat/team-members", nil), ann)
	rec := httptest.NewRecorder()
	env.handler.HandleTeamMembers(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var members []struct {
		Name   string `json:"name"`
		Role   string `json:"role"`
		Online bool   `json:"online"`
	}
	testutil.DecodeData(t, rec, &members)
	if len(members) != 1 || members[0].Name != "Mia" || members[0].Role != "manager" {
		t.Errorf("members = %+v, want only Mia", members)
	}
	if members[0].Online {
		t.Error("nobody is connected, Online should be false")
	}
}
