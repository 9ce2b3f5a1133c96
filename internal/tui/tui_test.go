package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"taskdesk/internal/app"
	"taskdesk/internal/config"
	"taskdesk/internal/service"
	"taskdesk/internal/storage"
	"taskdesk/internal/testutil"
)

func newTestModel(t *testing.T, svc *testutil.FakeService, login bool) *Model {
	t.Helper()
	svc.AddUser("ada@example.com", "correct-horse")
	cfg := config.Default(t.TempDir())
	a := app.Assemble(cfg, zerolog.Nop(), svc, svc, storage.NewFile(cfg.Dir))
	t.Cleanup(func() { a.Close() })
	if login {
		if err := a.Session.Login(context.Background(), "ada@example.com", "correct-horse"); err != nil {
			t.Fatalf("login failed: %v", err)
		}
	}
	m := New(context.Background(), a)
	drive(t, m, m.Init()())
	return m
}

// drive feeds msg to m and keeps feeding the results of the returned
// commands while they produce board messages.
func drive(t *testing.T, m *Model, msg tea.Msg) {
	t.Helper()
	for i := 0; msg != nil && i < 10; i++ {
		_, cmd := m.Update(msg)
		if cmd == nil {
			return
		}
		msg = cmd()
		switch msg.(type) {
		case restoredMsg, authDoneMsg, pageMsg, savedMsg, deletedMsg, loggedOutMsg:
		default:
			return
		}
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_UnauthenticatedShowsLogin(t *testing.T) {
	m := newTestModel(t, testutil.NewFakeService(), false)

	if m.screen != screenAuth {
		t.Fatalf("expected login screen, got %v", m.screen)
	}
	if !strings.Contains(m.View(), "Log in") {
		t.Errorf("expected login view, got %q", m.View())
	}
}

func TestModel_LoadingUntilRestored(t *testing.T) {
	svc := testutil.NewFakeService()
	cfg := config.Default(t.TempDir())
	a := app.Assemble(cfg, zerolog.Nop(), svc, svc, storage.NewFile(cfg.Dir))
	t.Cleanup(func() { a.Close() })
	m := New(context.Background(), a)

	if m.screen != screenLoading || !strings.Contains(m.View(), "Loading") {
		t.Errorf("expected loading screen before restore, got %q", m.View())
	}
	if len(svc.ListCalls) != 0 {
		t.Error("nothing should be fetched before restore")
	}
}

func TestModel_LoginFlow(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Pay vendor", "", service.StatusPending)
	m := newTestModel(t, svc, false)

	drive(t, m, key("ada@example.com"))
	drive(t, m, key("tab"))
	drive(t, m, key("correct-horse"))
	drive(t, m, key("enter"))

	if m.screen != screenTasks {
		t.Fatalf("expected task screen after login, got %v (status %q)", m.screen, m.status)
	}
	if !strings.Contains(m.View(), "Pay vendor") {
		t.Errorf("expected task in view, got %q", m.View())
	}
}

func TestModel_WrongPassword(t *testing.T) {
	m := newTestModel(t, testutil.NewFakeService(), false)

	drive(t, m, key("ada@example.com"))
	drive(t, m, key("tab"))
	drive(t, m, key("battery-staple"))
	drive(t, m, key("enter"))

	if m.screen != screenAuth {
		t.Errorf("expected to stay on login, got %v", m.screen)
	}
	if !m.statusErr || m.status != "Invalid credentials" {
		t.Errorf("expected error status, got %q", m.status)
	}
}

func TestModel_LoginValidation(t *testing.T) {
	svc := testutil.NewFakeService()
	m := newTestModel(t, svc, false)

	drive(t, m, key("tab"))
	drive(t, m, key("enter"))

	if !strings.Contains(m.View(), "Email is required") {
		t.Errorf("expected field error, got %q", m.View())
	}
}

func TestModel_AddTask(t *testing.T) {
	svc := testutil.NewFakeService()
	m := newTestModel(t, svc, true)

	drive(t, m, key("a"))
	if m.editor == nil {
		t.Fatal("expected form to open")
	}
	drive(t, m, key("Write report"))
	drive(t, m, key("enter"))

	if m.editor != nil {
		t.Error("form should close after saving")
	}
	if m.status != "Task added" {
		t.Errorf("expected success status, got %q", m.status)
	}
	tasks := svc.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Write report" {
		t.Errorf("unexpected tasks: %+v", tasks)
	}
}

func TestModel_AddTaskInvalid(t *testing.T) {
	svc := testutil.NewFakeService()
	m := newTestModel(t, svc, true)

	drive(t, m, key("a"))
	drive(t, m, key("enter"))

	if m.editor == nil {
		t.Fatal("form should stay open")
	}
	if !strings.Contains(m.View(), "Title is required") {
		t.Errorf("expected field error, got %q", m.View())
	}
	if len(svc.Tasks()) != 0 {
		t.Error("nothing should be created")
	}
}

func TestModel_DeleteConfirm(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Pay vendor", "", service.StatusPending)
	svc.AddTask("Call bank", "", service.StatusPending)
	m := newTestModel(t, svc, true)

	drive(t, m, key("d"))
	if m.confirm == nil || !strings.Contains(m.View(), "Delete this task?") {
		t.Fatalf("expected confirmation, got %q", m.View())
	}
	drive(t, m, key("n"))
	if len(svc.Tasks()) != 2 {
		t.Fatal("declining must not delete")
	}

	drive(t, m, key("j"))
	drive(t, m, key("d"))
	drive(t, m, key("y"))

	tasks := svc.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Pay vendor" {
		t.Errorf("unexpected tasks: %+v", tasks)
	}
	if m.cursor != 0 {
		t.Errorf("cursor should be clamped, got %d", m.cursor)
	}
}

func TestModel_MenuAndPaging(t *testing.T) {
	svc := testutil.NewFakeService()
	for _, title := range []string{"a", "b", "c", "d"} {
		svc.AddTask(title, "", service.StatusPending)
	}
	m := newTestModel(t, svc, true)

	drive(t, m, key("enter"))
	if id, ok := m.ctrl.OpenMenu(); !ok || id != "task-1" {
		t.Errorf("expected menu for task-1, got %q %v", id, ok)
	}

	drive(t, m, key("l"))
	if got := m.ctrl.View().Page; got != 2 {
		t.Errorf("expected page 2, got %d", got)
	}
	if _, ok := m.ctrl.OpenMenu(); ok {
		t.Error("menu should close when its row leaves the page")
	}

	calls := len(svc.ListCalls)
	drive(t, m, key("l"))
	if len(svc.ListCalls) != calls {
		t.Error("paging past the last page must not fetch")
	}
}

func TestModel_Logout(t *testing.T) {
	svc := testutil.NewFakeService()
	m := newTestModel(t, svc, true)

	drive(t, m, key("L"))

	if m.screen != screenAuth {
		t.Errorf("expected login screen after logout, got %v", m.screen)
	}
	if m.app.Session.IsAuthenticated() {
		t.Error("session should be cleared")
	}
}

func TestModel_RevokedSession(t *testing.T) {
	svc := testutil.NewFakeService()
	m := newTestModel(t, svc, true)
	svc.ListErr = &service.APIError{StatusCode: 401, Kind: service.ErrAuth}

	drive(t, m, key("r"))

	if m.screen != screenAuth {
		t.Errorf("expected login screen, got %v", m.screen)
	}
	if m.status != msgSessionExpired {
		t.Errorf("unexpected status %q", m.status)
	}
}
