// Package zulip is a small client for the parts of the Zulip REST API the
// watcher needs: looking up users and reading and writing their status.
package zulip

import (
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

	"github.com/logivations/zulip-status-watcher/internal/log"
)

const requestTimeout = 15 * time.Second

var logger = log.New("zulip")

// ErrUserNotFound is returned when no active user matches an address.
var ErrUserNotFound = errors.New("zulip: user not found")

// User is the subset of a Zulip user record the watcher uses.
type User struct {
	UserID   int    `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	IsActive bool   `json:"is_active"`
}

// Status is a user status as the API reads and writes it.
type Status struct {
	StatusText   string `json:"status_text"`
	Away         bool   `json:"away,omitempty"`
	EmojiName    string `json:"emoji_name"`
	EmojiCode    string `json:"emoji_code"`
	ReactionType string `json:"reaction_type"`
}

// APIError is a non-success answer from the server.
type APIError struct {
	StatusCode int
	Code       string
	Msg        string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("zulip: %d %s: %s", e.StatusCode, e.Code, e.Msg)
	}
	return fmt.Sprintf("zulip: %d: %s", e.StatusCode, e.Msg)
}

// response is the envelope shared by all endpoints.
type response struct {
	Result string  `json:"result"`
	Msg    string  `json:"msg"`
	Code   string  `json:"code"`
	User   *User   `json:"user,omitempty"`
	Status *Status `json:"status,omitempty"`

	// GET /users/me answers with the user's fields at the top level.
	UserID   int    `json:"user_id,omitempty"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
}

// Client talks to one Zulip server as one bot or admin account.
type Client struct {
	baseURL string
	email   string
	apiKey  string
	http    *http.Client
}

// NewClient authenticates with email and API key against serverURL, e.g.
// "https://chat.example.com".
func NewClient(serverURL, email, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(serverURL, "/") + "/api/v1",
		email:   email,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// GetUserByEmail looks up a user by address.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var resp response
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(email), nil, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, ErrUserNotFound
	}
	return resp.User, nil
}

// Me returns the account the client authenticates as.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var resp response
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &resp); err != nil {
		return nil, err
	}
	if resp.UserID == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, c.email)
	}
	return &User{UserID: resp.UserID, Email: resp.Email, FullName: resp.FullName, IsActive: true}, nil
}

// FindUser looks up email and, failing that, the same local part under each
// alternate domain. Deactivated accounts are skipped.
func (c *Client) FindUser(ctx context.Context, email string, alternateDomains []string) (*User, error) {
	candidates := []string{email}
	if at := strings.LastIndexByte(email, '@'); at > 0 {
		local := email[:at]
		for _, d := range alternateDomains {
			alt := local + "@" + d
			if !strings.EqualFold(alt, email) {
				candidates = append(candidates, alt)
			}
		}
	}

	for _, candidate := range candidates {
		u, err := c.GetUserByEmail(ctx, candidate)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) || errors.Is(err, ErrUserNotFound) {
				logger.Debug("no zulip user", "email", candidate, "err", err)
				continue
			}
			return nil, err
		}
		if !u.IsActive {
			logger.Debug("zulip user deactivated", "email", candidate)
			continue
		}
		if candidate != email {
			logger.Info("matched zulip user on alternate domain", "calendar", email, "zulip", candidate)
		}
		return u, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUserNotFound, email)
}

// GetStatus reads the status of userID.
func (c *Client) GetStatus(ctx context.Context, userID int) (Status, error) {
	if userID <= 0 {
		return Status{}, fmt.Errorf("zulip: invalid user id %d", userID)
	}
	var resp response
	if err := c.do(ctx, http.MethodGet, "/users/"+strconv.Itoa(userID)+"/status", nil, &resp); err != nil {
		return Status{}, err
	}
	if resp.Status == nil {
		return Status{}, nil
	}
	return *resp.Status, nil
}

// UpdateStatus replaces the status of userID. A zero userID updates the
// authenticated account itself; other users require an administrator.
func (c *Client) UpdateStatus(ctx context.Context, userID int, st Status) error {
	path := "/users/me/status"
	if userID != 0 {
		path = "/users/" + strconv.Itoa(userID) + "/status"
	}

	form := url.Values{}
	form.Set("status_text", st.StatusText)
	form.Set("away", strconv.FormatBool(st.Away))
	form.Set("emoji_name", st.EmojiName)
	form.Set("emoji_code", st.EmojiCode)
	if st.ReactionType != "" {
		form.Set("reaction_type", st.ReactionType)
	}

	return c.do(ctx, http.MethodPost, path, form, &response{})
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out *response) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.email, c.apiKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("zulip request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("unable to read zulip response: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return &APIError{StatusCode: resp.StatusCode, Msg: strings.TrimSpace(string(data))}
		}
		return fmt.Errorf("unable to parse zulip response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || out.Result != "success" {
		return &APIError{StatusCode: resp.StatusCode, Code: out.Code, Msg: out.Msg}
	}
	return nil
}
