package testutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

// APITask is a task as stored by FakeAPI.
type APITask struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// APIRequest is a request observed by FakeAPI.
type APIRequest struct {
	Method    string
	Path      string
	RequestID string
	Bearer    string
	Body      map[string]any
}

// FakeAPI is an in-process task server speaking the REST wire format.
type FakeAPI struct {
	*httptest.Server

	secret []byte

	mu       sync.Mutex
	users    map[string][]byte // email -> bcrypt hash
	revoked  map[string]bool   // token id -> revoked
	tasks    []APITask
	requests []APIRequest
	failures []failure

	// OmitUser makes login respond without a user record.
	OmitUser bool
	// DataEnvelope makes list respond with {data, total} instead of
	// {tasks, totalPages}.
	DataEnvelope bool
}

type failure struct {
	status  int
	message string
}

// NewFakeAPI starts a FakeAPI and stops it when the test ends.
func NewFakeAPI(t testing.TB) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		secret:  []byte("test-secret-" + uuid.NewString()),
		users:   make(map[string][]byte),
		revoked: make(map[string]bool),
	}

	r := mux.NewRouter()
	r.Use(f.record)
	r.HandleFunc("/api/auth/signup", f.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", f.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", f.requireAuth(f.handleLogout)).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks", f.requireAuth(f.handleList)).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks", f.requireAuth(f.handleCreate)).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/{id}", f.requireAuth(f.handleUpdate)).Methods(http.MethodPut)
	r.HandleFunc("/api/tasks/{id}", f.requireAuth(f.handleDelete)).Methods(http.MethodDelete)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Close)
	return f
}

// BaseURL returns the API root to pass to restapi.New.
func (f *FakeAPI) BaseURL() string {
	return f.URL + "/api"
}

// AddUser registers an account.
func (f *FakeAPI) AddUser(email, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[email] = hash
}

// AddTask stores a task and returns its id.
func (f *FakeAPI) AddTask(title, description, status string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.NewString()
	f.tasks = append(f.tasks, APITask{ID: id, Title: title, Description: description, Status: status})
	return id
}

// Tasks returns a copy of the stored tasks.
func (f *FakeAPI) Tasks() []APITask {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]APITask, len(f.tasks))
	copy(out, f.tasks)
	return out
}

// Requests returns the observed requests in order.
func (f *FakeAPI) Requests() []APIRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]APIRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// LastRequest returns the most recent request.
func (f *FakeAPI) LastRequest() APIRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return APIRequest{}
	}
	return f.requests[len(f.requests)-1]
}

// FailNext makes the next request fail with status and a {"message"} body.
// An empty message sends no body.
func (f *FakeAPI) FailNext(status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, failure{status: status, message: message})
}

func (f *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := APIRequest{
			Method:    r.Method,
			Path:      r.URL.Path,
			RequestID: r.Header.Get("X-Request-ID"),
			Bearer:    strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "),
		}
		if r.Body != nil && r.ContentLength != 0 {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
				req.Body = body
				data, _ := json.Marshal(body)
				r.Body = io.NopCloser(bytes.NewReader(data))
			}
		}

		f.mu.Lock()
		f.requests = append(f.requests, req)
		var fail *failure
		if len(f.failures) > 0 {
			fail = &f.failures[0]
			f.failures = f.failures[1:]
		}
		f.mu.Unlock()

		if fail != nil {
			if fail.message == "" {
				w.WriteHeader(fail.status)
				return
			}
			writeJSON(w, fail.status, map[string]string{"message": fail.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not authorized, no token"})
			return
		}

		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return f.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err == nil {
			f.mu.Lock()
			if f.revoked[claims.ID] {
				err = errors.New("token revoked")
			}
			f.mu.Unlock()
		}
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not authorized, token failed"})
			return
		}

		r.Header.Set("X-Token-ID", claims.ID)
		next(w, r)
	}
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Captcha  string `json:"captcha"`
}

func (f *FakeAPI) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" || body.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Email and password are required"})
		return
	}

	f.mu.Lock()
	_, exists := f.users[body.Email]
	f.mu.Unlock()
	if exists {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "User already exists"})
		return
	}

	f.AddUser(body.Email, body.Password)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered"})
}

func (f *FakeAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request"})
		return
	}

	f.mu.Lock()
	hash, ok := f.users[body.Email]
	f.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(body.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
		return
	}

	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   body.Email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString(f.secret)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": err.Error()})
		return
	}

	resp := map[string]any{"token": token}
	if !f.OmitUser {
		resp["user"] = map[string]string{"_id": "user-" + body.Email, "email": body.Email}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (f *FakeAPI) handleLogout(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.revoked[r.Header.Get("X-Token-ID")] = true
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (f *FakeAPI) handleList(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	f.mu.Lock()
	total := len(f.tasks)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)
	items := make([]APITask, end-start)
	copy(items, f.tasks[start:end])
	f.mu.Unlock()

	if f.DataEnvelope {
		writeJSON(w, http.StatusOK, map[string]any{"data": items, "total": total})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tasks":      items,
		"totalPages": (total + limit - 1) / limit,
	})
}

type taskBody struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"dueDate"`
}

func (f *FakeAPI) decodeTask(w http.ResponseWriter, r *http.Request) (taskBody, bool) {
	var body taskBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid task"})
		return body, false
	}
	if strings.TrimSpace(body.Title) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Title is required"})
		return body, false
	}
	if body.Status == "" {
		body.Status = "pending"
	}
	return body, true
}

func (f *FakeAPI) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, ok := f.decodeTask(w, r)
	if !ok {
		return
	}

	task := APITask{ID: uuid.NewString(), Title: body.Title, Description: body.Description, Status: body.Status, DueDate: body.DueDate}
	f.mu.Lock()
	f.tasks = append(f.tasks, task)
	f.mu.Unlock()
	writeJSON(w, http.StatusCreated, task)
}

func (f *FakeAPI) handleUpdate(w http.ResponseWriter, r *http.Request) {
	body, ok := f.decodeTask(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			t.Title = body.Title
			t.Description = body.Description
			t.Status = body.Status
			t.DueDate = body.DueDate
			f.tasks[i] = t
			writeJSON(w, http.StatusOK, map[string]any{"task": t})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Task not found"})
}

func (f *FakeAPI) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Task not found"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
