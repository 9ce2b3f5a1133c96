// Package googletasks implements service.TaskService over the Google Tasks API
// and service.AuthService over Google's OAuth loopback flow.
package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"taskdesk/internal/service"
)

const (
	// DefaultListID is the special ID for the user's default list.
	DefaultListID = "@default"

	// scanPageSize is the page size used when scanning the whole list.
	scanPageSize = 100

	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	statusNeedsAction = "needsAction"
	statusCompleted   = "completed"
)

// CredentialSource yields the persisted session credential, an oauth2.Token
// encoded as JSON.
type CredentialSource interface {
	CredentialToken() string
}

// CredentialFunc adapts a function to CredentialSource.
type CredentialFunc func() string

// CredentialToken implements CredentialSource.
func (f CredentialFunc) CredentialToken() string { return f() }

// Client implements service.TaskService using the Google Tasks API.
type Client struct {
	svc    *tasks.Service
	listID string
	log    zerolog.Logger
}

// New creates a client whose requests are authorized with the session
// credential, refreshed through oauthConfig as needed.
func New(ctx context.Context, oauthConfig *oauth2.Config, creds CredentialSource, logger zerolog.Logger) (*Client, error) {
	src := oauth2.ReuseTokenSource(nil, &sessionTokenSource{ctx: ctx, config: oauthConfig, creds: creds})
	return NewWithHTTPClient(ctx, oauth2.NewClient(ctx, src), logger)
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, logger zerolog.Logger, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return &Client{svc: svc, listID: DefaultListID, log: logger}, nil
}

type sessionTokenSource struct {
	ctx    context.Context
	config *oauth2.Config
	creds  CredentialSource
}

func (s *sessionTokenSource) Token() (*oauth2.Token, error) {
	raw := s.creds.CredentialToken()
	if raw == "" {
		return nil, service.ErrNotAuthenticated
	}
	tok, err := decodeToken(raw)
	if err != nil {
		return nil, err
	}
	return s.config.TokenSource(s.ctx, tok).Token()
}

func decodeToken(raw string) (*oauth2.Token, error) {
	var tok oauth2.Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return nil, fmt.Errorf("%w: invalid stored token: %w", service.ErrAuth, err)
	}
	return &tok, nil
}

// List implements service.TaskService. The Tasks API pages with opaque tokens,
// so the whole list is scanned and the requested page sliced out of it.
func (c *Client) List(ctx context.Context, page, pageSize int) (service.PageResult, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var all []service.Task
	err := c.svc.Tasks.List(c.listID).
		MaxResults(scanPageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, t := range resp.Items {
				task, err := fromAPI(t)
				if err != nil {
					return err
				}
				all = append(all, task)
			}
			return nil
		})
	if err != nil {
		return service.PageResult{}, wrapError(err)
	}

	start := min(max(page-1, 0)*pageSize, len(all))
	end := min(start+pageSize, len(all))
	c.log.Debug().Int("total", len(all)).Int("page", page).Msg("scanned google tasks")

	return service.PageResult{
		Items: append([]service.Task(nil), all[start:end]...),
		Total: len(all),
	}, nil
}

// Create implements service.TaskService.
func (c *Client) Create(ctx context.Context, in service.TaskInput) (service.Task, error) {
	t, err := toAPI(in)
	if err != nil {
		return service.Task{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	created, err := c.svc.Tasks.Insert(c.listID, t).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	return fromAPI(created)
}

// Update implements service.TaskService.
func (c *Client) Update(ctx context.Context, id string, in service.TaskInput) (service.Task, error) {
	t, err := toAPI(in)
	if err != nil {
		return service.Task{}, err
	}
	if t.Due == "" {
		t.NullFields = append(t.NullFields, "Due")
	}
	if t.Status == statusNeedsAction {
		t.NullFields = append(t.NullFields, "Completed")
	}
	t.ForceSendFields = []string{"Notes"}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	updated, err := c.svc.Tasks.Patch(c.listID, id, t).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	return fromAPI(updated)
}

// Delete implements service.TaskService.
func (c *Client) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	if err := c.svc.Tasks.Delete(c.listID, id).Context(ctx).Do(); err != nil {
		return wrapError(err)
	}
	return nil
}

// toAPI maps a task payload onto the Tasks API. Google Tasks has no
// in-progress state.
func toAPI(in service.TaskInput) (*tasks.Task, error) {
	t := &tasks.Task{Title: in.Title, Notes: in.Description}

	switch in.Status {
	case service.StatusPending, "":
		t.Status = statusNeedsAction
	case service.StatusCompleted:
		t.Status = statusCompleted
	default:
		return nil, &service.APIError{
			Kind:    service.ErrUnsupported,
			Message: fmt.Sprintf("status %q is not supported by Google Tasks", in.Status),
		}
	}

	if in.DueDate != nil {
		t.Due = in.DueDate.UTC().Format(time.RFC3339)
	}
	return t, nil
}

func fromAPI(t *tasks.Task) (service.Task, error) {
	task := service.Task{
		ID:          t.Id,
		Title:       t.Title,
		Description: t.Notes,
		Status:      service.StatusPending,
	}
	if t.Status == statusCompleted {
		task.Status = service.StatusCompleted
	}
	if t.Due != "" {
		due, err := time.Parse(time.RFC3339, t.Due)
		if err != nil {
			return service.Task{}, fmt.Errorf("%w: task %s: invalid due date %q", service.ErrTransport, t.Id, t.Due)
		}
		task.DueDate = &due
	}
	return task, nil
}

// wrapError maps API errors onto the service error categories.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, service.ErrAuth) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &service.APIError{Kind: service.ErrTransport, Message: "request timed out"}
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("%w: %w", service.ErrTransport, err)
	}

	apiErr := &service.APIError{StatusCode: gerr.Code, Message: gerr.Message}
	switch {
	case gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden:
		apiErr.Kind = service.ErrAuth
		apiErr.Message = "token expired or revoked (run: taskdesk login)"
	case gerr.Code == http.StatusNotFound:
		apiErr.Kind = service.ErrNotFound
	case gerr.Code == http.StatusConflict:
		apiErr.Kind = service.ErrConflict
	case gerr.Code >= 500:
		apiErr.Kind = service.ErrTransport
	default:
		apiErr.Kind = service.ErrRejected
	}
	return apiErr
}
