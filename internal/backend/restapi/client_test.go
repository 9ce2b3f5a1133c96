package restapi_test

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"taskdesk/internal/backend/restapi"
	"taskdesk/internal/service"
	"taskdesk/internal/session"
	"taskdesk/internal/storage"
	"taskdesk/internal/testutil"
)

func loggedIn(t *testing.T, api *testutil.FakeAPI) *restapi.Client {
	t.Helper()
	api.AddUser("ada@example.com", "correct-horse")
	client := restapi.New(api.BaseURL())
	res, err := client.Login(context.Background(), "ada@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	client.UseTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: res.Token}))
	return client
}

func TestLogin(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.AddUser("ada@example.com", "correct-horse")
	client := restapi.New(api.BaseURL())

	res, err := client.Login(context.Background(), "ada@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Token == "" {
		t.Error("expected a token")
	}
	if res.User == nil || res.User.Email != "ada@example.com" || res.User.ID != "user-ada@example.com" {
		t.Errorf("unexpected user: %+v", res.User)
	}

	req := api.LastRequest()
	if req.Bearer != "" {
		t.Error("login must not send a bearer token")
	}
	if _, err := uuid.Parse(req.RequestID); err != nil {
		t.Errorf("expected a uuid request id, got %q", req.RequestID)
	}
}

func TestLogin_OmittedUser(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.AddUser("ada@example.com", "correct-horse")
	api.OmitUser = true
	client := restapi.New(api.BaseURL())

	res, err := client.Login(context.Background(), "ada@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.User != nil {
		t.Errorf("expected no user, got %+v", res.User)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.AddUser("ada@example.com", "correct-horse")
	client := restapi.New(api.BaseURL())

	_, err := client.Login(context.Background(), "ada@example.com", "wrong")
	if !errors.Is(err, service.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if msg := service.Message(err, ""); msg != "Invalid credentials" {
		t.Errorf("expected server message, got %q", msg)
	}
}

func TestSignup(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	client := restapi.New(api.BaseURL())

	if err := client.Signup(context.Background(), "new@example.com", "long-enough"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := api.LastRequest().Body["captcha"]; got != "1234" {
		t.Errorf("expected captcha 1234, got %v", got)
	}

	err := client.Signup(context.Background(), "new@example.com", "long-enough")
	if !errors.Is(err, service.ErrAuth) {
		t.Fatalf("expected ErrAuth for duplicate, got %v", err)
	}
	var apiErr *service.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict || apiErr.Message != "User already exists" {
		t.Errorf("unexpected error: %#v", err)
	}
}

func TestTasks_RequireTokenSource(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	client := restapi.New(api.BaseURL())

	if _, err := client.List(context.Background(), 1, 3); !errors.Is(err, service.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
	if len(api.Requests()) != 0 {
		t.Error("no request should be sent without a token source")
	}
}

func TestTasks_CRUD(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	client := loggedIn(t, api)
	ctx := context.Background()

	due := time.Date(2025, 3, 1, 7, 30, 0, 0, time.UTC)
	created, err := client.Create(ctx, service.TaskInput{Title: "Pay vendor", Status: service.StatusPending, DueDate: &due})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID == "" || created.Title != "Pay vendor" {
		t.Errorf("unexpected created task: %+v", created)
	}
	if got := api.LastRequest().Body["dueDate"]; got != "2025-03-01T07:30:00.000Z" {
		t.Errorf("unexpected wire due date %v", got)
	}
	if api.LastRequest().Bearer == "" {
		t.Error("task requests must carry a bearer token")
	}

	page, err := client.List(ctx, 1, 3)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page.Items) != 1 || page.TotalPages != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if got := page.Items[0]; got.DueDate == nil || !got.DueDate.Equal(due) || got.Status != service.StatusPending {
		t.Errorf("unexpected listed task: %+v", got)
	}

	updated, err := client.Update(ctx, created.ID, service.TaskInput{Title: "Pay vendor", Status: service.StatusCompleted})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.ID != created.ID || updated.Status != service.StatusCompleted || updated.DueDate != nil {
		t.Errorf("unexpected updated task: %+v", updated)
	}

	if err := client.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(api.Tasks()) != 0 {
		t.Error("expected task to be deleted")
	}
}

func TestList_DataEnvelope(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	client := loggedIn(t, api)
	api.DataEnvelope = true
	for _, title := range []string{"one", "two", "three", "four"} {
		api.AddTask(title, "", "")
	}

	page, err := client.List(context.Background(), 2, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 4 || page.TotalPages != 0 {
		t.Errorf("expected total only, got %+v", page)
	}
	if len(page.Items) != 1 || page.Items[0].Title != "four" || page.Items[0].Status != service.StatusPending {
		t.Errorf("unexpected items: %+v", page.Items)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, service.ErrAuth},
		{http.StatusForbidden, service.ErrAuth},
		{http.StatusNotFound, service.ErrNotFound},
		{http.StatusConflict, service.ErrConflict},
		{http.StatusBadRequest, service.ErrRejected},
		{http.StatusUnprocessableEntity, service.ErrRejected},
		{http.StatusInternalServerError, service.ErrTransport},
		{http.StatusBadGateway, service.ErrTransport},
	}

	api := testutil.NewFakeAPI(t)
	client := loggedIn(t, api)
	id := api.AddTask("one", "", "pending")

	for _, tt := range tests {
		api.FailNext(tt.status, "boom")
		_, err := client.Update(context.Background(), id, service.TaskInput{Title: "x"})
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: expected %v, got %v", tt.status, tt.want, err)
		}
		if service.Message(err, "") != "boom" {
			t.Errorf("status %d: expected server message, got %v", tt.status, err)
		}
	}
}

func TestUpdate_MissingTask(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	client := loggedIn(t, api)

	_, err := client.Update(context.Background(), "nope", service.TaskInput{Title: "x"})
	if !errors.Is(err, service.ErrNotFound) || !service.IsNotFoundOrConflict(err) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := client.Delete(context.Background(), "nope"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTransportError(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	client := restapi.New(api.BaseURL(), restapi.WithTimeout(time.Second))
	api.Close()

	_, err := client.Login(context.Background(), "ada@example.com", "correct-horse")
	if !errors.Is(err, service.ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	client := loggedIn(t, api)

	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := client.List(context.Background(), 1, 3); !errors.Is(err, service.ErrAuth) {
		t.Errorf("expected ErrAuth after logout, got %v", err)
	}
}

func TestSessionStoreAsTokenSource(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.AddUser("ada@example.com", "correct-horse")
	client := restapi.New(api.BaseURL())
	kv := storage.NewFile(filepath.Join(t.TempDir(), "cfg"))
	store := session.NewStore(client, kv, zerolog.Nop())
	client.UseTokenSource(store)

	// Without a session the token source fails before any request is sent.
	if _, err := client.List(context.Background(), 1, 3); !errors.Is(err, service.ErrAuth) {
		t.Fatalf("expected ErrAuth without a session, got %v", err)
	}
	if len(api.Requests()) != 0 {
		t.Errorf("expected no requests, got %+v", api.Requests())
	}

	if err := store.Login(context.Background(), "ada@example.com", "correct-horse"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := client.List(context.Background(), 1, 3); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if api.LastRequest().Bearer != store.CredentialToken() {
		t.Error("expected the session token as bearer")
	}

	if err := store.Logout(context.Background()); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if store.IsAuthenticated() {
		t.Error("expected logged out")
	}
}
