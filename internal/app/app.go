// Package app wires configuration, storage, backends and the session store
// into the object graph used by the CLI and the TUI.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"taskdesk/internal/backend/googletasks"
	"taskdesk/internal/backend/restapi"
	"taskdesk/internal/config"
	"taskdesk/internal/notify"
	"taskdesk/internal/service"
	"taskdesk/internal/session"
	"taskdesk/internal/storage"
	"taskdesk/internal/taskform"
	"taskdesk/internal/tasklist"
)

// App holds the services for one process.
type App struct {
	Config  *config.Config
	Log     zerolog.Logger
	Session *session.Store
	Tasks   service.TaskService

	// In supplies interactive answers (prompts, confirmations).
	In io.Reader

	closers []io.Closer
}

// Factory builds an App from config. The CLI dispatcher takes one so tests
// can substitute in-memory services. New is the production Factory.
type Factory func(ctx context.Context, cfg *config.Config, logger zerolog.Logger, prompt io.Writer) (*App, error)

// New builds an App for the configured backend and session store.
// prompt receives interactive output such as the OAuth URL.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, prompt io.Writer) (*App, error) {
	kv, err := OpenStorage(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Log: logger, In: os.Stdin, closers: []io.Closer{kv}}

	switch cfg.Backend {
	case config.BackendGoogle:
		err = a.wireGoogle(ctx, kv, prompt)
	default:
		a.wireREST(kv)
	}
	if err != nil {
		kv.Close()
		return nil, err
	}
	return a, nil
}

// Assemble builds an App over the given services.
func Assemble(cfg *config.Config, logger zerolog.Logger, auth service.AuthService, tasks service.TaskService, kv storage.Store) *App {
	a := &App{
		Config:  cfg,
		Log:     logger,
		Session: session.NewStore(auth, kv, logger),
		Tasks:   tasks,
		In:      os.Stdin,
	}
	if kv != nil {
		a.closers = append(a.closers, kv)
	}
	return a
}

// OpenStorage opens the configured session storage in the config directory.
func OpenStorage(cfg *config.Config) (storage.Store, error) {
	switch cfg.SessionStore {
	case config.SessionStoreSQLite:
		if err := cfg.EnsureDir(); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		return storage.OpenSQLite(cfg.SessionDBPath())
	default:
		return storage.NewFile(cfg.Dir), nil
	}
}

func (a *App) wireREST(kv storage.Store) {
	api := restapi.New(a.Config.Server,
		restapi.WithTimeout(a.Config.Timeout),
		restapi.WithLogger(a.Log.With().Str("backend", config.BackendREST).Logger()),
	)
	a.Session = session.NewStore(api, kv, a.Log)
	api.UseTokenSource(a.Session)
	a.Tasks = api
}

func (a *App) wireGoogle(ctx context.Context, kv storage.Store, prompt io.Writer) error {
	if !a.Config.HasOAuthClient() {
		return fmt.Errorf("%w: %s not found in %s", service.ErrAuth, config.OAuthClientFile, a.Config.Dir)
	}
	oauthConfig, err := googletasks.LoadOAuthConfig(a.Config.OAuthClientPath())
	if err != nil {
		return fmt.Errorf("%w: %w", service.ErrAuth, err)
	}

	log := a.Log.With().Str("backend", config.BackendGoogle).Logger()
	creds := googletasks.CredentialFunc(func() string { return a.Session.CredentialToken() })
	a.Session = session.NewStore(googletasks.NewAuthenticator(oauthConfig, creds, prompt, log), kv, a.Log)

	client, err := googletasks.New(ctx, oauthConfig, a.Session, log)
	if err != nil {
		return err
	}
	a.Tasks = client
	return nil
}

// FormOptions returns the task form options implied by the config.
func (a *App) FormOptions() []taskform.Option {
	var opts []taskform.Option
	if a.Config.RequireDueDate {
		opts = append(opts, taskform.RequireDueDate())
	}
	return opts
}

// NewController creates a task list controller reporting to n.
func (a *App) NewController(n notify.Notifier) *tasklist.Controller {
	return tasklist.New(a.Tasks, taskform.New(a.FormOptions()...), n, a.Log)
}

// Close releases the session storage.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}
