package restapi

import (
	"fmt"
	"time"

	"taskdesk/internal/service"
)

// dueLayout is the server's timestamp format: UTC with milliseconds.
const dueLayout = "2006-01-02T15:04:05.000Z07:00"

type wireTask struct {
	ID          string  `json:"_id,omitempty"`
	AltID       string  `json:"id,omitempty"`
	Title       string  `json:"title"`
	TaskName    string  `json:"taskName,omitempty"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	DueDate     *string `json:"dueDate,omitempty"`
}

func (w wireTask) toTask() (service.Task, error) {
	t := service.Task{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		Status:      service.NormalizeStatus(w.Status),
	}
	if t.ID == "" {
		t.ID = w.AltID
	}
	if t.Title == "" {
		t.Title = w.TaskName
	}
	if w.DueDate != nil && *w.DueDate != "" {
		due, err := parseDue(*w.DueDate)
		if err != nil {
			return service.Task{}, fmt.Errorf("%w: task %s: %w", service.ErrTransport, t.ID, err)
		}
		t.DueDate = &due
	}
	return t, nil
}

func parseDue(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

type taskPayload struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	DueDate     *string `json:"dueDate"`
}

func newTaskPayload(in service.TaskInput) taskPayload {
	p := taskPayload{
		Title:       in.Title,
		Description: in.Description,
		Status:      string(in.Status),
	}
	if p.Status == "" {
		p.Status = string(service.StatusPending)
	}
	if in.DueDate != nil {
		s := in.DueDate.UTC().Format(dueLayout)
		p.DueDate = &s
	}
	return p
}

// taskEnvelope accepts a bare task or one wrapped in "task" or "data".
type taskEnvelope struct {
	wireTask
	Task *wireTask `json:"task"`
	Data *wireTask `json:"data"`
}

func (e taskEnvelope) unwrap() *wireTask {
	switch {
	case e.Task != nil:
		return e.Task
	case e.Data != nil:
		return e.Data
	case e.wireTask.ID != "" || e.wireTask.AltID != "" || e.wireTask.Title != "":
		return &e.wireTask
	default:
		return nil
	}
}

type listResponse struct {
	Tasks      []wireTask `json:"tasks"`
	Data       []wireTask `json:"data"`
	Total      int        `json:"total"`
	TotalPages int        `json:"totalPages"`
}

func (r listResponse) result() (service.PageResult, error) {
	items := r.Tasks
	if items == nil {
		items = r.Data
	}

	res := service.PageResult{
		Items:      make([]service.Task, 0, len(items)),
		Total:      r.Total,
		TotalPages: r.TotalPages,
	}
	for _, w := range items {
		t, err := w.toTask()
		if err != nil {
			return service.PageResult{}, err
		}
		res.Items = append(res.Items, t)
	}
	return res, nil
}
