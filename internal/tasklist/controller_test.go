package tasklist_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"taskdesk/internal/notify"
	"taskdesk/internal/service"
	"taskdesk/internal/taskform"
	"taskdesk/internal/tasklist"
	"taskdesk/internal/testutil"
)

func newController(svc service.TaskService) (*tasklist.Controller, *testutil.Recorder) {
	rec := &testutil.Recorder{}
	return tasklist.New(svc, taskform.New(), rec, zerolog.Nop()), rec
}

func seed(svc *testutil.FakeService, n int) []service.Task {
	titles := []string{"one", "two", "three", "four", "five", "six", "seven"}
	var out []service.Task
	for i := 0; i < n; i++ {
		out = append(out, svc.AddTask(titles[i], "", service.StatusPending))
	}
	return out
}

var yes = tasklist.ConfirmFunc(func(context.Context, tasklist.Confirmation) (bool, error) { return true, nil })

func TestFetchPage_ComputesTotalPages(t *testing.T) {
	svc := testutil.NewFakeService()
	seed(svc, 4)
	c, _ := newController(svc)

	if err := c.FetchPage(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := c.View()
	if len(v.Items) != 3 || v.Page != 1 || v.TotalPages != 2 {
		t.Errorf("unexpected view: %+v", v)
	}
	if c.Phase() != tasklist.PhaseLoaded {
		t.Errorf("expected loaded, got %s", c.Phase())
	}
	if v.RowNumber(0) != 1 || v.RowNumber(2) != 3 {
		t.Errorf("unexpected row numbers")
	}

	svc.ReportTotalPages = true
	if err := c.FetchPage(context.Background(), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v = c.View()
	if len(v.Items) != 1 || v.TotalPages != 2 || v.RowNumber(0) != 4 {
		t.Errorf("unexpected view from explicit page count: %+v", v)
	}
}

func TestFetchPage_EmptyDefaultsToOnePage(t *testing.T) {
	c, _ := newController(testutil.NewFakeService())
	if err := c.FetchPage(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v := c.View(); v.TotalPages != 1 || len(v.Items) != 0 {
		t.Errorf("unexpected view: %+v", v)
	}
}

type oversizedService struct {
	*testutil.FakeService
}

func (s oversizedService) List(ctx context.Context, page, pageSize int) (service.PageResult, error) {
	res, err := s.FakeService.List(ctx, page, 10)
	res.Total = 0
	return res, err
}

func TestFetchPage_TruncatesToPageSize(t *testing.T) {
	svc := testutil.NewFakeService()
	seed(svc, 5)
	c, _ := newController(oversizedService{svc})

	if err := c.FetchPage(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v := c.View(); len(v.Items) != tasklist.PageSize || v.TotalPages != 1 {
		t.Errorf("unexpected view: %+v", v)
	}
}

func TestFetchPage_FailureKeepsView(t *testing.T) {
	svc := testutil.NewFakeService()
	seed(svc, 4)
	c, rec := newController(svc)
	c.FetchPage(context.Background(), 1)

	svc.ListErr = &service.APIError{StatusCode: 500, Kind: service.ErrTransport}
	if err := c.FetchPage(context.Background(), 2); !errors.Is(err, service.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if c.Phase() != tasklist.PhaseError {
		t.Errorf("expected error phase, got %s", c.Phase())
	}
	v := c.View()
	if v.Page != 1 || len(v.Items) != 3 || v.Items[0].Title != "one" {
		t.Errorf("previous view should be untouched, got %+v", v)
	}
	if n, _ := rec.Last(); n.Level != notify.LevelError || n.Msg != tasklist.MsgLoadFailed {
		t.Errorf("unexpected notification: %+v", n)
	}
}

func TestFetchPage_StaleResponseDiscarded(t *testing.T) {
	svc := testutil.NewFakeService()
	seed(svc, 4)
	c, _ := newController(svc)

	started, release := svc.BlockList(1)
	done := make(chan error, 1)
	go func() { done <- c.FetchPage(context.Background(), 1) }()
	<-started

	if err := c.FetchPage(context.Background(), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	release()

	if err := <-done; !errors.Is(err, tasklist.ErrStale) {
		t.Errorf("expected ErrStale for the older fetch, got %v", err)
	}
	v := c.View()
	if v.Page != 2 || len(v.Items) != 1 || v.Items[0].Title != "four" {
		t.Errorf("newer fetch should win, got %+v", v)
	}
}

func TestGoToPage_OutOfRange(t *testing.T) {
	svc := testutil.NewFakeService()
	seed(svc, 4)
	c, _ := newController(svc)
	c.FetchPage(context.Background(), 1)

	for _, n := range []int{0, -1, 3, 100} {
		if err := c.GoToPage(context.Background(), n); !errors.Is(err, tasklist.ErrPageOutOfRange) {
			t.Errorf("GoToPage(%d): expected ErrPageOutOfRange, got %v", n, err)
		}
	}
	if len(svc.ListCalls) != 1 {
		t.Errorf("out-of-range navigation must not fetch, got calls %v", svc.ListCalls)
	}
	if c.View().Page != 1 {
		t.Errorf("page should not change, got %d", c.View().Page)
	}

	if err := c.NextPage(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.View().Page != 2 {
		t.Errorf("expected page 2, got %d", c.View().Page)
	}
	if err := c.NextPage(context.Background()); !errors.Is(err, tasklist.ErrPageOutOfRange) {
		t.Errorf("expected ErrPageOutOfRange past the last page, got %v", err)
	}
	if err := c.PrevPage(context.Background()); err != nil || c.View().Page != 1 {
		t.Errorf("expected page 1, got %d (err=%v)", c.View().Page, err)
	}
}

func TestCreate_DefaultsToPending(t *testing.T) {
	svc := testutil.NewFakeService()
	c, rec := newController(svc)
	c.FetchPage(context.Background(), 1)

	c.RequestCreate()
	c.Form().UpdateField(taskform.FieldTitle, "Pay vendor")
	if err := c.SubmitForm(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v := c.View()
	if len(v.Items) != 1 {
		t.Fatalf("expected 1 task after refetch, got %d", len(v.Items))
	}
	if v.Items[0].Title != "Pay vendor" || v.Items[0].Description != "" || v.Items[0].Status != service.StatusPending {
		t.Errorf("unexpected task: %+v", v.Items[0])
	}
	if c.Form().IsOpen() {
		t.Error("form should close after a successful save")
	}
	if n, _ := rec.Last(); n.Level != notify.LevelSuccess || n.Msg != tasklist.MsgAdded {
		t.Errorf("unexpected notification: %+v", n)
	}
}

func TestHandleFormSaved_RefetchesCurrentPage(t *testing.T) {
	svc := testutil.NewFakeService()
	seed(svc, 5)
	c, _ := newController(svc)
	c.FetchPage(context.Background(), 1)
	c.GoToPage(context.Background(), 2)

	c.RequestCreate()
	c.Form().UpdateField(taskform.FieldTitle, "six")
	if err := c.SubmitForm(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if last := svc.ListCalls[len(svc.ListCalls)-1]; last != 2 {
		t.Errorf("expected refetch of page 2, got page %d", last)
	}
	v := c.View()
	if v.Page != 2 || len(v.Items) != 3 || v.Items[2].Title != "six" {
		t.Errorf("unexpected view after save: %+v", v)
	}
}

func TestEdit_StatusOnly(t *testing.T) {
	svc := testutil.NewFakeService()
	task := svc.AddTask("Pay vendor", "invoice 42", service.StatusPending)
	c, rec := newController(svc)
	c.FetchPage(context.Background(), 1)
	c.ToggleMenu(task.ID)

	c.RequestEdit(task)
	if _, open := c.OpenMenu(); open {
		t.Error("opening the form should close the row menu")
	}
	c.Form().UpdateField(taskform.FieldStatus, "completed")
	if err := c.SubmitForm(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := c.View().Items[0]
	if got.ID != task.ID || got.Status != service.StatusCompleted {
		t.Errorf("expected completed status, got %+v", got)
	}
	if got.Title != "Pay vendor" || got.Description != "invoice 42" {
		t.Errorf("title/description should be unchanged, got %+v", got)
	}
	if n, _ := rec.Last(); n.Msg != tasklist.MsgUpdated {
		t.Errorf("unexpected notification: %+v", n)
	}
}

func TestHandleFormSaved_FailureKeepsForm(t *testing.T) {
	svc := testutil.NewFakeService()
	c, rec := newController(svc)
	c.FetchPage(context.Background(), 1)

	svc.CreateErr = &service.APIError{StatusCode: 400, Message: "Title too long", Kind: service.ErrRejected}
	c.RequestCreate()
	c.Form().UpdateField(taskform.FieldTitle, "Pay vendor")
	if err := c.SubmitForm(context.Background()); !errors.Is(err, service.ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}

	if !c.Form().IsOpen() || c.Form().Draft().Title != "Pay vendor" {
		t.Error("form should stay open with its draft")
	}
	if c.Form().Submitting() {
		t.Error("submitting flag should be cleared")
	}
	if n, _ := rec.Last(); n.Level != notify.LevelError || n.Msg != "Title too long" {
		t.Errorf("expected server message notification, got %+v", n)
	}
	if len(svc.ListCalls) != 1 {
		t.Errorf("rejected save should not refetch, got calls %v", svc.ListCalls)
	}

	svc.CreateErr = errors.New("connection reset")
	c.SubmitForm(context.Background())
	if n, _ := rec.Last(); n.Msg != tasklist.MsgSaveFailed {
		t.Errorf("expected generic failure message, got %+v", n)
	}
}

func TestHandleFormSaved_NotFoundRefetches(t *testing.T) {
	svc := testutil.NewFakeService()
	task := svc.AddTask("gone soon", "", service.StatusPending)
	c, _ := newController(svc)
	c.FetchPage(context.Background(), 1)
	svc.Delete(context.Background(), task.ID)

	c.RequestEdit(task)
	c.Form().UpdateField(taskform.FieldTitle, "renamed")
	if err := c.SubmitForm(context.Background()); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(svc.ListCalls) != 2 {
		t.Errorf("expected a self-healing refetch, got calls %v", svc.ListCalls)
	}
	if len(c.View().Items) != 0 {
		t.Errorf("view should reflect the server, got %+v", c.View().Items)
	}
}

func TestDelete_OnlyTaskOnLastPageKeepsPage(t *testing.T) {
	svc := testutil.NewFakeService()
	tasks := seed(svc, 4)
	c, rec := newController(svc)
	c.FetchPage(context.Background(), 1)
	c.GoToPage(context.Background(), 2)
	c.ToggleMenu(tasks[3].ID)

	if err := c.Delete(context.Background(), tasks[3], yes); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v := c.View()
	if v.Page != 2 {
		t.Errorf("controller must not jump pages, got page %d", v.Page)
	}
	if len(v.Items) != 0 {
		t.Errorf("expected empty page, got %+v", v.Items)
	}
	if last := svc.ListCalls[len(svc.ListCalls)-1]; last != 2 {
		t.Errorf("expected refetch of page 2, got %d", last)
	}
	if _, open := c.OpenMenu(); open {
		t.Error("menu should close after delete")
	}
	if n, _ := rec.Last(); n.Level != notify.LevelSuccess || n.Msg != tasklist.MsgDeleted {
		t.Errorf("unexpected notification: %+v", n)
	}
}

func TestDelete_TwoStep(t *testing.T) {
	svc := testutil.NewFakeService()
	tasks := seed(svc, 2)
	c, _ := newController(svc)
	c.FetchPage(context.Background(), 1)
	c.ToggleMenu(tasks[0].ID)

	conf := c.RequestDelete(tasks[0])
	if conf.Prompt != tasklist.DeletePrompt || conf.Task.ID != tasks[0].ID {
		t.Errorf("unexpected confirmation: %+v", conf)
	}
	if len(svc.Tasks()) != 2 {
		t.Fatal("request alone must not delete")
	}

	c.CancelDelete()
	if _, ok := c.PendingDelete(); ok {
		t.Error("cancel should drop the pending delete")
	}
	if id, open := c.OpenMenu(); !open || id != tasks[0].ID {
		t.Error("cancel should leave the menu open")
	}
	if err := c.ConfirmDelete(context.Background()); !errors.Is(err, tasklist.ErrNoPendingDelete) {
		t.Errorf("expected ErrNoPendingDelete, got %v", err)
	}

	c.RequestDelete(tasks[0])
	if err := c.ConfirmDelete(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if remaining := svc.Tasks(); len(remaining) != 1 || remaining[0].ID != tasks[1].ID {
		t.Errorf("unexpected remaining tasks: %+v", remaining)
	}
}

func TestDelete_Declined(t *testing.T) {
	svc := testutil.NewFakeService()
	tasks := seed(svc, 1)
	c, rec := newController(svc)

	no := tasklist.ConfirmFunc(func(context.Context, tasklist.Confirmation) (bool, error) { return false, nil })
	if err := c.Delete(context.Background(), tasks[0], no); !errors.Is(err, tasklist.ErrDeleteCancelled) {
		t.Errorf("expected ErrDeleteCancelled, got %v", err)
	}
	if len(svc.Tasks()) != 1 {
		t.Error("declined delete must not reach the service")
	}
	if len(rec.All()) != 0 {
		t.Errorf("expected no notifications, got %+v", rec.All())
	}
}

func TestDelete_Failure(t *testing.T) {
	svc := testutil.NewFakeService()
	tasks := seed(svc, 2)
	c, rec := newController(svc)
	c.FetchPage(context.Background(), 1)

	svc.DeleteErr = errors.New("connection reset")
	if err := c.Delete(context.Background(), tasks[0], yes); err == nil {
		t.Fatal("expected error")
	}
	if len(c.View().Items) != 2 {
		t.Error("failed delete must not change the view")
	}
	if len(svc.ListCalls) != 1 {
		t.Errorf("failed delete should not refetch, got calls %v", svc.ListCalls)
	}
	if n, _ := rec.Last(); n.Level != notify.LevelError || n.Msg != tasklist.MsgDeleteFailed {
		t.Errorf("unexpected notification: %+v", n)
	}
}

func TestToggleMenu_Exclusive(t *testing.T) {
	c, _ := newController(testutil.NewFakeService())

	if !c.ToggleMenu("a") {
		t.Error("expected menu a open")
	}
	if !c.ToggleMenu("b") {
		t.Error("expected menu b open")
	}
	if id, open := c.OpenMenu(); !open || id != "b" {
		t.Errorf("expected only menu b open, got %q", id)
	}
	if c.ToggleMenu("b") {
		t.Error("toggling the open menu should close it")
	}
	if _, open := c.OpenMenu(); open {
		t.Error("expected no open menu")
	}
}
