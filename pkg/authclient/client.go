// Package authclient is a Go client for the authgate API. It mirrors the
// frontend's auth context: a cookie-backed HTTP client plus an in-memory
// cache of the logged-in user that route guards can read synchronously.
// The cache holds no authority; the server is the sole source of truth.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
)

// ErrUnauthorized is returned when the server rejects the credentials or
// the session. The cached user is cleared whenever it occurs.
var ErrUnauthorized = errors.New("unauthorized")

type (
	// User is the public view returned by the server.
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}

	// APIError carries the server's error body for non-401 failures, with
	// the offending field name for validation and conflict errors.
	APIError struct {
		Status  int
		Message string `json:"message"`
		Field   string `json:"field,omitempty"`
	}

	// Client is an explicitly constructed auth context. It is safe for
	// concurrent use; construct one per consumer instead of sharing a
	// package-level singleton.
	Client struct {
		baseURL string
		http    *http.Client

		mu   sync.RWMutex
		user *User
	}

	userResponse struct {
		User User `json:"user"`
	}
)

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (field %s)", e.Message, e.Field)
	}
	return e.Message
}

// New creates a Client for the given server base URL. The session cookie is
// held in an in-memory jar for the lifetime of the client.
func New(baseURL string) (*Client, error) {
	return NewWithClient(baseURL, &http.Client{})
}

// NewWithClient is like New but uses the provided HTTP client, for callers
// that need custom transports or timeouts. A cookie jar is attached if the
// client has none; without one the session cookie would be dropped.
func NewWithClient(baseURL string, hc *http.Client) (*Client, error) {
	if hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		hc.Jar = jar
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}, nil
}

// CurrentUser returns the cached user, or nil when logged out. Route guards
// read this synchronously to decide whether to render a protected view.
func (c *Client) CurrentUser() *User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil
	}
	user := *c.user
	return &user
}

// IsAuthenticated reports whether a user is cached.
func (c *Client) IsAuthenticated() bool {
	return c.CurrentUser() != nil
}

// Signup registers a new account. It does not log in; the server issues no
// cookie on signup.
func (c *Client) Signup(ctx context.Context, username, email, password string) (*User, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	var out userResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", body, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Login authenticates and caches the returned user. The session cookie ends
// up in the jar and rides along on subsequent calls.
func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	body := map[string]string{"username": username, "password": password}
	var out userResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, http.StatusOK, &out); err != nil {
		return nil, err
	}

	c.mu.Lock()
	user := out.User
	c.user = &user
	c.mu.Unlock()
	return &user, nil
}

// Logout revokes the session server-side and clears the cached user. It is
// idempotent; logging out while logged out succeeds.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, http.StatusOK, nil)
	c.clearUser()
	return err
}

// Rehydrate asks the server who the cookie belongs to and refreshes the
// cache, typically once at startup. An invalid or absent session clears the
// cache and returns ErrUnauthorized.
func (c *Client) Rehydrate(ctx context.Context) (*User, error) {
	var out userResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}

	c.mu.Lock()
	user := out.User
	c.user = &user
	c.mu.Unlock()
	return &user, nil
}

func (c *Client) clearUser() {
	c.mu.Lock()
	c.user = nil
	c.mu.Unlock()
}

// do performs one request/response exchange and decodes either the expected
// body or the server's error body. Every 401 clears the cached user.
func (c *Client) do(ctx context.Context, method, path string, body any, wantStatus int, out any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		reqBody = new(bytes.Buffer)
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			return err
		}
	}

	var req *http.Request
	var err error
	if reqBody != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.clearUser()
		return ErrUnauthorized
	}

	if resp.StatusCode != wantStatus {
		apiErr := &APIError{Status: resp.StatusCode}
		if decodeErr := json.NewDecoder(resp.Body).Decode(apiErr); decodeErr != nil {
			apiErr.Message = resp.Status
		}
		return apiErr
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
