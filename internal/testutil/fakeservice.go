// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"taskdesk/internal/service"
)

// FakeService is an in-memory implementation of service.AuthService and
// service.TaskService for testing.
type FakeService struct {
	mu     sync.Mutex
	users  map[string]string // email -> password
	tasks  []service.Task
	nextID int
	gates  map[int]*gate // page -> gate

	// OmitUser makes Login return no user record.
	OmitUser bool
	// ReportTotalPages makes List report TotalPages instead of Total.
	ReportTotalPages bool

	// Calls
	ListCalls   []int // requested pages, in order
	LogoutCalls int

	// Error injection for testing
	LoginErr  error
	SignupErr error
	LogoutErr error
	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error
}

type gate struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		users: make(map[string]string),
		gates: make(map[int]*gate),
	}
}

// AddUser registers an account.
func (f *FakeService) AddUser(email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[email] = password
}

// AddTask appends a task with a generated ID and returns it.
func (f *FakeService) AddTask(title, description string, status service.Status) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := service.Task{ID: f.newID(), Title: title, Description: description, Status: status}
	f.tasks = append(f.tasks, t)
	return t
}

// Tasks returns a copy of all stored tasks.
func (f *FakeService) Tasks() []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]service.Task, len(f.tasks))
	copy(out, f.tasks)
	return out
}

// BlockList makes the next List calls for page wait until release is called.
// started is closed once such a call has begun.
func (f *FakeService) BlockList(page int) (started <-chan struct{}, release func()) {
	g := &gate{started: make(chan struct{}), release: make(chan struct{})}
	f.mu.Lock()
	f.gates[page] = g
	f.mu.Unlock()

	var once sync.Once
	return g.started, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.gates, page)
			f.mu.Unlock()
			close(g.release)
		})
	}
}

func (f *FakeService) newID() string {
	f.nextID++
	return fmt.Sprintf("task-%d", f.nextID)
}

// Login implements service.AuthService.
func (f *FakeService) Login(ctx context.Context, email, password string) (service.LoginResult, error) {
	if f.LoginErr != nil {
		return service.LoginResult{}, f.LoginErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if pw, ok := f.users[email]; !ok || pw != password {
		return service.LoginResult{}, &service.APIError{StatusCode: 401, Message: "Invalid credentials", Kind: service.ErrAuth}
	}
	res := service.LoginResult{Token: "token-" + email}
	if !f.OmitUser {
		res.User = &service.Identity{ID: "user-" + email, Email: email}
	}
	return res, nil
}

// Signup implements service.AuthService.
func (f *FakeService) Signup(ctx context.Context, email, password string) error {
	if f.SignupErr != nil {
		return f.SignupErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.users[email]; ok {
		return &service.APIError{StatusCode: 409, Message: "User already exists", Kind: service.ErrAuth}
	}
	f.users[email] = password
	return nil
}

// Logout implements service.AuthService.
func (f *FakeService) Logout(ctx context.Context) error {
	f.mu.Lock()
	f.LogoutCalls++
	f.mu.Unlock()
	return f.LogoutErr
}

// List implements service.TaskService.
func (f *FakeService) List(ctx context.Context, page, pageSize int) (service.PageResult, error) {
	f.mu.Lock()
	f.ListCalls = append(f.ListCalls, page)
	g := f.gates[page]
	f.mu.Unlock()

	if g != nil {
		g.once.Do(func() { close(g.started) })
		select {
		case <-g.release:
		case <-ctx.Done():
			return service.PageResult{}, ctx.Err()
		}
	}

	if f.ListErr != nil {
		return service.PageResult{}, f.ListErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(f.tasks) {
		start = len(f.tasks)
	}
	if end > len(f.tasks) {
		end = len(f.tasks)
	}
	items := make([]service.Task, end-start)
	copy(items, f.tasks[start:end])

	res := service.PageResult{Items: items}
	if f.ReportTotalPages {
		res.TotalPages = (len(f.tasks) + pageSize - 1) / pageSize
	} else {
		res.Total = len(f.tasks)
	}
	return res, nil
}

// Create implements service.TaskService.
func (f *FakeService) Create(ctx context.Context, in service.TaskInput) (service.Task, error) {
	if f.CreateErr != nil {
		return service.Task{}, f.CreateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	t := service.Task{
		ID:          f.newID(),
		Title:       in.Title,
		Description: in.Description,
		Status:      service.NormalizeStatus(string(in.Status)),
		DueDate:     in.DueDate,
	}
	f.tasks = append(f.tasks, t)
	return t, nil
}

// Update implements service.TaskService.
func (f *FakeService) Update(ctx context.Context, id string, in service.TaskInput) (service.Task, error) {
	if f.UpdateErr != nil {
		return service.Task{}, f.UpdateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, t := range f.tasks {
		if t.ID == id {
			t.Title = in.Title
			t.Description = in.Description
			t.Status = service.NormalizeStatus(string(in.Status))
			t.DueDate = in.DueDate
			f.tasks[i] = t
			return t, nil
		}
	}
	return service.Task{}, &service.APIError{StatusCode: 404, Message: "Task not found", Kind: service.ErrNotFound}
}

// Delete implements service.TaskService.
func (f *FakeService) Delete(ctx context.Context, id string) error {
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return &service.APIError{StatusCode: 404, Message: "Task not found", Kind: service.ErrNotFound}
}
