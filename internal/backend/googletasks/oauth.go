package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"taskdesk/internal/service"
)

const (
	// OAuth scope for Google Tasks
	tasksScope = "https://www.googleapis.com/auth/tasks"

	// OAuth callback timeout
	oauthCallbackTimeout = 5 * time.Minute

	// Token exchange timeout
	tokenExchangeTimeout = 30 * time.Second

	// Starting port for OAuth callback server
	oauthStartPort = 8085

	// Max port attempts
	oauthMaxPortAttempts = 5

	revokeURL = "https://oauth2.googleapis.com/revoke"
)

// LoadOAuthConfig reads an OAuth client file downloaded from the Google
// Cloud console.
func LoadOAuthConfig(path string) (*oauth2.Config, error) {
	clientJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
	}
	cfg, err := google.ConfigFromJSON(clientJSON, tasksScope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
	}
	return cfg, nil
}

// Authenticator implements service.AuthService with Google's installed-app
// OAuth flow. The session token it produces is the OAuth token as JSON.
type Authenticator struct {
	config *oauth2.Config
	creds  CredentialSource
	prompt io.Writer
	log    zerolog.Logger

	// RevokeURL is the token revocation endpoint.
	RevokeURL string
}

// NewAuthenticator creates an Authenticator. The authorization URL is printed
// to prompt.
func NewAuthenticator(config *oauth2.Config, creds CredentialSource, prompt io.Writer, logger zerolog.Logger) *Authenticator {
	return &Authenticator{
		config:    config,
		creds:     creds,
		prompt:    prompt,
		log:       logger,
		RevokeURL: revokeURL,
	}
}

// Login runs the browser flow. Google authenticates the user, so password is
// ignored and email only labels the session.
func (a *Authenticator) Login(ctx context.Context, email, password string) (service.LoginResult, error) {
	token, err := a.authorize(ctx)
	if err != nil {
		return service.LoginResult{}, &service.APIError{Kind: service.ErrAuth, Message: err.Error()}
	}

	data, err := json.Marshal(token)
	if err != nil {
		return service.LoginResult{}, fmt.Errorf("failed to encode token: %w", err)
	}
	return service.LoginResult{
		Token: string(data),
		User:  &service.Identity{Email: email, Name: "Google Tasks"},
	}, nil
}

// Signup implements service.AuthService. Accounts are created with Google.
func (a *Authenticator) Signup(ctx context.Context, email, password string) error {
	return &service.APIError{Kind: service.ErrUnsupported, Message: "signup is not available for the google backend"}
}

// Logout revokes the stored token.
func (a *Authenticator) Logout(ctx context.Context) error {
	raw := a.creds.CredentialToken()
	if raw == "" {
		return nil
	}
	tok, err := decodeToken(raw)
	if err != nil {
		return err
	}
	value := tok.RefreshToken
	if value == "" {
		value = tok.AccessToken
	}

	form := url.Values{"token": {value}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.RevokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", service.ErrTransport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &service.APIError{StatusCode: resp.StatusCode, Kind: service.ErrTransport, Message: "token revocation failed"}
	}
	return nil
}

func (a *Authenticator) authorize(ctx context.Context) (*oauth2.Token, error) {
	port, listener, err := findAvailablePort()
	if err != nil {
		return nil, errors.New("could not bind to local port for OAuth callback")
	}
	defer listener.Close()

	config := *a.config
	config.RedirectURL = fmt.Sprintf("http://localhost:%d/callback", port)

	verifier := oauth2.GenerateVerifier()
	state := uuid.NewString()
	authURL := config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	)

	fmt.Fprintln(a.prompt, "Open this URL in your browser:")
	fmt.Fprintln(a.prompt, authURL)

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "State mismatch", http.StatusBadRequest)
			sendErr(errCh, errors.New("oauth state mismatch"))
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "No code in callback", http.StatusBadRequest)
			sendErr(errCh, errors.New("no code in callback"))
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h1>Authentication successful</h1><p>You may close this window.</p></body></html>")
		select {
		case codeCh <- code:
		default:
		}
	})

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			sendErr(errCh, err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return nil, err
	case <-time.After(oauthCallbackTimeout):
		return nil, errors.New("oauth callback timed out")
	case <-ctx.Done():
		return nil, errors.New("cancelled")
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, tokenExchangeTimeout)
	defer cancel()

	token, err := config.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}
	a.log.Debug().Time("expiry", token.Expiry).Msg("oauth token obtained")
	return token, nil
}

func sendErr(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}

// findAvailablePort tries to find an available port starting from oauthStartPort.
func findAvailablePort() (int, net.Listener, error) {
	for i := 0; i < oauthMaxPortAttempts; i++ {
		port := oauthStartPort + i
		addr := fmt.Sprintf("localhost:%d", port)
		listener, err := net.Listen("tcp", addr)
		if err == nil {
			return port, listener, nil
		}
	}
	return 0, nil, fmt.Errorf("no available port found")
}
