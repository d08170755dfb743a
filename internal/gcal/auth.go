package gcal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	admin "google.golang.org/api/admin/directory/v1"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// CallbackAddr is where the installed-app flow listens for the redirect.
const CallbackAddr = "localhost:8089"

// authTimeout bounds how long TokenFromWeb waits for the browser.
const authTimeout = 2 * time.Minute

const shutdownTimeout = 5 * time.Second

// ServiceAccount holds a parsed service account key with domain-wide
// delegation. Each watched user gets a client impersonating them.
type ServiceAccount struct {
	key []byte
}

// LoadServiceAccount reads a service account JSON key.
func LoadServiceAccount(path string) (*ServiceAccount, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read service account key: %w", err)
	}
	if _, err := google.JWTConfigFromJSON(b, calendar.CalendarReadonlyScope); err != nil {
		return nil, fmt.Errorf("unable to parse service account key: %w", err)
	}
	return &ServiceAccount{key: b}, nil
}

// Client returns an HTTP client acting as subject with the given scopes.
func (sa *ServiceAccount) Client(ctx context.Context, subject string, scopes ...string) (*http.Client, error) {
	conf, err := google.JWTConfigFromJSON(sa.key, scopes...)
	if err != nil {
		return nil, err
	}
	conf.Subject = subject
	return conf.Client(ctx), nil
}

// CalendarService returns a read-only calendar service impersonating user.
func (sa *ServiceAccount) CalendarService(ctx context.Context, user string) (*calendar.Service, error) {
	client, err := sa.Client(ctx, user, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to build client for %s: %w", user, err)
	}
	return calendar.NewService(ctx, option.WithHTTPClient(client))
}

// DirectoryService returns a read-only Admin SDK service impersonating the
// workspace admin.
func (sa *ServiceAccount) DirectoryService(ctx context.Context, adminEmail string) (*admin.Service, error) {
	client, err := sa.Client(ctx, adminEmail, admin.AdminDirectoryGroupMemberReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to build directory client: %w", err)
	}
	return admin.NewService(ctx, option.WithHTTPClient(client))
}

// LoadOAuthConfig reads an installed-app client secret.
func LoadOAuthConfig(path string) (*oauth2.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}
	conf, err := google.ConfigFromJSON(b, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}
	return conf, nil
}

// OAuthService returns a calendar service using a saved user token. The
// token is refreshed by the oauth2 transport as needed.
func OAuthService(ctx context.Context, conf *oauth2.Config, tokenPath string) (*calendar.Service, error) {
	tok, err := LoadToken(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("no usable token at %s, run 'zulip-status-watcher auth': %w", tokenPath, err)
	}
	return calendar.NewService(ctx, option.WithHTTPClient(conf.Client(ctx, tok)))
}

// LoadToken reads a token saved by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// SaveToken writes tok to path, readable only by the owner.
func SaveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to save token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}

// callbackHandler reports the first code or error of the OAuth redirect.
// Later hits never block: the channels hold one value each.
func callbackHandler(codeCh chan<- string, errCh chan<- error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			offer(errCh, errors.New("no code in callback"))
			return
		}
		fmt.Fprintf(w, "Authorization successful. You may close this window.")
		offer(codeCh, code)
	}
}

// offer sends v unless ch is already full.
func offer[T any](ch chan<- T, v T) {
	select {
	case ch <- v:
	default:
	}
}

// TokenFromWeb runs the installed-app flow: it prints the consent URL,
// waits for Google to redirect back to CallbackAddr and exchanges the code.
func TokenFromWeb(ctx context.Context, conf *oauth2.Config, printURL func(string)) (*oauth2.Token, error) {
	conf.RedirectURL = "http://" + CallbackAddr + "/callback"
	printURL(conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline))

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", callbackHandler(codeCh, errCh))

	server := &http.Server{Addr: CallbackAddr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			offer(errCh, err)
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		server.Shutdown(ctx)
	}()

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(authTimeout):
		return nil, errors.New("timeout waiting for authorization")
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to exchange code for token: %w", err)
	}
	return tok, nil
}
