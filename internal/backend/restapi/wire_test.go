package restapi

import (
	"encoding/json"
	"testing"
	"time"

	"taskdesk/internal/service"
)

func TestWireTask_LegacyFields(t *testing.T) {
	var w wireTask
	if err := json.Unmarshal([]byte(`{"id":"42","taskName":"Old title","dueDate":"2025-03-01"}`), &w); err != nil {
		t.Fatal(err)
	}
	task, err := w.toTask()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.ID != "42" || task.Title != "Old title" || task.Status != service.StatusPending {
		t.Errorf("unexpected task: %+v", task)
	}
	if task.DueDate == nil || !task.DueDate.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected due date: %v", task.DueDate)
	}
}

func TestWireTask_BadDueDate(t *testing.T) {
	bad := "soon"
	if _, err := (wireTask{ID: "1", DueDate: &bad}).toTask(); err == nil {
		t.Error("expected error for unparseable due date")
	}
}

func TestTaskEnvelope(t *testing.T) {
	cases := map[string]string{
		"bare": `{"_id":"1","title":"a"}`,
		"task": `{"message":"ok","task":{"_id":"1","title":"a"}}`,
		"data": `{"data":{"_id":"1","title":"a"}}`,
	}
	for name, body := range cases {
		var env taskEnvelope
		if err := json.Unmarshal([]byte(body), &env); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		w := env.unwrap()
		if w == nil || w.ID != "1" || w.Title != "a" {
			t.Errorf("%s: unexpected task %+v", name, w)
		}
	}

	var empty taskEnvelope
	json.Unmarshal([]byte(`{"message":"ok"}`), &empty)
	if empty.unwrap() != nil {
		t.Error("expected no task in a bare acknowledgement")
	}
}

func TestNewTaskPayload(t *testing.T) {
	due := time.Date(2025, 3, 1, 9, 30, 0, 0, time.FixedZone("UTC+2", 2*60*60))
	p := newTaskPayload(service.TaskInput{Title: "a", DueDate: &due})
	if p.Status != "pending" {
		t.Errorf("expected default status, got %q", p.Status)
	}
	if p.DueDate == nil || *p.DueDate != "2025-03-01T07:30:00.000Z" {
		t.Errorf("unexpected due date %v", p.DueDate)
	}
}
