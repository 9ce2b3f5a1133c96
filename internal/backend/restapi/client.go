// Package restapi implements the auth and task services over the task
// server's JSON HTTP API.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"taskdesk/internal/service"
)

const (
	// DefaultTimeout bounds every request unless WithTimeout is used.
	DefaultTimeout = 10 * time.Second

	// RequestIDHeader carries a per-request correlation id.
	RequestIDHeader = "X-Request-ID"

	// signupCaptcha is the fixed captcha answer the server expects from
	// first-party clients.
	signupCaptcha = "1234"

	maxErrorBody = 1 << 20
)

// Client implements service.AuthService and service.TaskService.
type Client struct {
	baseURL string
	plain   *http.Client
	authed  *http.Client
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.plain = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.plain.Timeout = d
		}
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the API rooted at baseURL, e.g.
// "http://localhost:5000/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		plain:   &http.Client{Timeout: DefaultTimeout},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UseTokenSource makes task and logout requests carry the bearer token
// produced by src. Login and signup never carry one.
func (c *Client) UseTokenSource(src oauth2.TokenSource) {
	c.authed = &http.Client{
		Transport: &oauth2.Transport{Source: src, Base: c.plain.Transport},
		Timeout:   c.plain.Timeout,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Captcha  string `json:"captcha,omitempty"`
}

type wireUser struct {
	ID    string `json:"_id,omitempty"`
	AltID string `json:"id,omitempty"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  *wireUser `json:"user"`
}

// Login implements service.AuthService.
func (c *Client) Login(ctx context.Context, email, password string) (service.LoginResult, error) {
	var resp loginResponse
	err := c.do(ctx, c.plain, http.MethodPost, "/auth/login", credentials{Email: email, Password: password}, &resp, authKind)
	if err != nil {
		return service.LoginResult{}, err
	}

	res := service.LoginResult{Token: resp.Token}
	if resp.User != nil {
		id := resp.User.ID
		if id == "" {
			id = resp.User.AltID
		}
		res.User = &service.Identity{ID: id, Email: resp.User.Email, Name: resp.User.Name}
		if res.User.Email == "" {
			res.User.Email = email
		}
	}
	return res, nil
}

// Signup implements service.AuthService.
func (c *Client) Signup(ctx context.Context, email, password string) error {
	body := credentials{Email: email, Password: password, Captcha: signupCaptcha}
	return c.do(ctx, c.plain, http.MethodPost, "/auth/signup", body, nil, authKind)
}

// Logout implements service.AuthService.
func (c *Client) Logout(ctx context.Context) error {
	hc, err := c.authedClient()
	if err != nil {
		return err
	}
	return c.do(ctx, hc, http.MethodPost, "/auth/logout", nil, nil, authKind)
}

// List implements service.TaskService.
func (c *Client) List(ctx context.Context, page, pageSize int) (service.PageResult, error) {
	hc, err := c.authedClient()
	if err != nil {
		return service.PageResult{}, err
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(pageSize))

	var resp listResponse
	if err := c.do(ctx, hc, http.MethodGet, "/tasks?"+q.Encode(), nil, &resp, taskKind); err != nil {
		return service.PageResult{}, err
	}
	return resp.result()
}

// Create implements service.TaskService.
func (c *Client) Create(ctx context.Context, in service.TaskInput) (service.Task, error) {
	return c.write(ctx, http.MethodPost, "/tasks", in)
}

// Update implements service.TaskService.
func (c *Client) Update(ctx context.Context, id string, in service.TaskInput) (service.Task, error) {
	task, err := c.write(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id), in)
	if err == nil && task.ID == "" {
		task.ID = id
	}
	return task, err
}

// Delete implements service.TaskService.
func (c *Client) Delete(ctx context.Context, id string) error {
	hc, err := c.authedClient()
	if err != nil {
		return err
	}
	return c.do(ctx, hc, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil, taskKind)
}

func (c *Client) write(ctx context.Context, method, path string, in service.TaskInput) (service.Task, error) {
	hc, err := c.authedClient()
	if err != nil {
		return service.Task{}, err
	}

	var resp taskEnvelope
	if err := c.do(ctx, hc, method, path, newTaskPayload(in), &resp, taskKind); err != nil {
		return service.Task{}, err
	}

	wt := resp.unwrap()
	if wt == nil {
		// Server acknowledged without echoing the task.
		return service.Task{Title: in.Title, Description: in.Description, Status: in.Status, DueDate: in.DueDate}, nil
	}
	return wt.toTask()
}

func (c *Client) authedClient() (*http.Client, error) {
	if c.authed == nil {
		return nil, service.ErrNotAuthenticated
	}
	return c.authed, nil
}

// do sends one JSON request. in may be nil for an empty body; out may be nil
// to discard the response. kind maps an HTTP error status to a category.
func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, in, out any, kind func(int) error) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Str("request_id", reqID).Msg("request failed")
		if errors.Is(err, service.ErrAuth) {
			return err
		}
		return fmt.Errorf("%w: %w", service.ErrTransport, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("request_id", reqID).
		Dur("took", time.Since(start)).
		Msg("request")

	if resp.StatusCode >= 400 {
		return &service.APIError{
			StatusCode: resp.StatusCode,
			Message:    readMessage(resp.Body),
			Kind:       kind(resp.StatusCode),
		}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid response: %w", service.ErrTransport, err)
	}
	return nil
}

// authKind categorizes failures of the auth endpoints: any client error
// means the credentials or signup were refused.
func authKind(status int) error {
	if status >= 500 {
		return service.ErrTransport
	}
	return service.ErrAuth
}

func taskKind(status int) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return service.ErrAuth
	case status == http.StatusNotFound:
		return service.ErrNotFound
	case status == http.StatusConflict:
		return service.ErrConflict
	case status >= 500:
		return service.ErrTransport
	default:
		return service.ErrRejected
	}
}

func readMessage(r io.Reader) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(r, maxErrorBody)).Decode(&body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
