// Package api is an HTTP client for the popcorn users API. It implements
// sessions.Authenticator, sessions.Registrar and preference.Syncer so the session and preference
// thunks can run against a live server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/consilium/popcorn/internal/errors"
	"github.com/consilium/popcorn/pkg/preference"
	"github.com/consilium/popcorn/pkg/sessions"
)

// TokenHeader carries the session token on authenticated requests.
const TokenHeader = "Token"

// Endpoint paths, relative to the base URL.
const (
	PathRegister     = "/api/users/register"
	PathLogin        = "/api/users/login"
	PathLogout       = "/api/users/logout"
	PathAuthenticate = "/api/users/authenticate"
	PathPreference   = "/api/users/preference"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 30 * time.Second

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithToken sets the session token, e.g. from a handed-off current user.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client talks to the popcorn users API.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger

	mu    sync.RWMutex
	token string
}

// Account is a user as the users API returns it, session token included.
type Account struct {
	sessions.User
	SessionToken string `json:"session_token,omitempty"`
}

var (
	_ sessions.Authenticator = (*Client)(nil)
	_ sessions.Registrar     = (*Client)(nil)
	_ preference.Syncer      = (*Client)(nil)
)

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultTimeout},
		logger:  slog.Default().With("component", "api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the current session token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Register creates an account and remembers its session token.
func (c *Client) Register(ctx context.Context, r sessions.Registration) (*sessions.User, error) {
	var a Account
	if err := c.do(ctx, http.MethodPost, PathRegister, r, &a); err != nil {
		return nil, err
	}
	c.setToken(a.SessionToken)
	return &a.User, nil
}

// Login exchanges credentials for a user and remembers its session token.
func (c *Client) Login(ctx context.Context, cred sessions.Credentials) (*sessions.User, error) {
	var a Account
	if err := c.do(ctx, http.MethodPost, PathLogin, cred, &a); err != nil {
		return nil, err
	}
	c.setToken(a.SessionToken)
	return &a.User, nil
}

// Logout ends the server session and forgets the token.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, PathLogout, nil, nil); err != nil {
		return err
	}
	c.setToken("")
	return nil
}

// Authenticate returns the user that owns the current token. It returns a
// nil user when there is no token or the server rejects it.
func (c *Client) Authenticate(ctx context.Context) (*sessions.User, error) {
	if c.Token() == "" {
		return nil, nil
	}
	var a Account
	err := c.do(ctx, http.MethodGet, PathAuthenticate, nil, &a)
	if status, ok := StatusOf(err); ok && status == http.StatusUnauthorized {
		c.setToken("")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if a.SessionToken != "" {
		c.setToken(a.SessionToken)
	}
	return &a.User, nil
}

// SavePreference posts p and returns the server's copy.
func (c *Client) SavePreference(ctx context.Context, p preference.Preference) (preference.Preference, error) {
	var out preference.Preference
	if err := c.do(ctx, http.MethodPost, PathPreference, p, &out); err != nil {
		return preference.Preference{}, err
	}
	if out.Ratings == nil {
		out.Ratings = map[uint]float64{}
	}
	return out, nil
}

// errorBody is what the server renders on failure.
type errorBody struct {
	Error  string   `json:"error"`
	Errors []string `json:"errors"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.New("E160").WithDetail(method + " " + path).Wrap(err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.New("E160").WithDetail(method + " " + path).Wrap(err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set(TokenHeader, token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return errors.New("E160").
			WithDetail(method + " " + path).
			WithSuggestion("Check that the popcorn API is reachable at " + c.baseURL).
			Wrap(err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.New("E160").WithDetail(method + " " + path).Wrap(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{
			Status:  resp.StatusCode,
			Message: errorMessage(data, resp.Status),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.New("E160").
			WithDetailf("%s %s: decoding response: %v", method, path, err)
	}
	return nil
}

func errorMessage(data []byte, status string) string {
	var eb errorBody
	if json.Unmarshal(data, &eb) == nil {
		if eb.Error != "" {
			return eb.Error
		}
		if len(eb.Errors) > 0 {
			return strings.Join(eb.Errors, "; ")
		}
	}
	if msg := strings.TrimSpace(string(data)); msg != "" {
		return msg
	}
	return status
}
