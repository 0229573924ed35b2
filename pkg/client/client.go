package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/naveenspark/protasker/internal/log"
	"github.com/naveenspark/protasker/internal/store"
)

// DefaultTimeout is applied to every request unless overridden.
const DefaultTimeout = 8 * time.Second

// Auth endpoints never carry a stored bearer token.
const (
	pathLogin    = "/users/login"
	pathRegister = "/users/register"
)

// Client is the Pro-Tasker API client. Every request goes through it.
// It reads the bearer token from the store on each call and purges the
// session keys when the API answers 401.
type Client struct {
	baseURL    string
	store      store.Store
	httpClient *http.Client
	logger     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a new API client. baseURL includes the API base path, e.g.
// "https://host/api".
func New(baseURL string, st store.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		store:   st,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: log.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string { return c.baseURL }

func isPublicAuthPath(path string) bool {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimRight(path, "/")
	return path == pathLogin || path == pathRegister
}

func (c *Client) bearerToken(path string) string {
	if c.store == nil || isPublicAuthPath(path) {
		return ""
	}
	tok, ok, err := c.store.Load(store.KeyToken)
	if err != nil || !ok {
		return ""
	}
	return strings.TrimSpace(tok)
}

// purgeSession removes both session keys after the API rejected the token.
func (c *Client) purgeSession() {
	if c.store == nil {
		return
	}
	if err := c.store.Remove(store.KeyToken); err != nil {
		c.logger.WithError(err).Warn("purge token")
	}
	if err := c.store.Remove(store.KeyUser); err != nil {
		c.logger.WithError(err).Warn("purge user record")
	}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) put(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPut, path, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.doRequest(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if tok := c.bearerToken(path); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "api request failed",
			"method", method, "path", path, "request_id", reqID, "error", err.Error())
		return &TransportError{Op: "do request", Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	c.logger.DebugContext(ctx, "api request",
		"method", method, "path", path, "status", resp.StatusCode,
		"request_id", reqID, "duration", time.Since(start).String())

	if resp.StatusCode == http.StatusUnauthorized {
		c.purgeSession()
		c.logger.WarnContext(ctx, "session rejected, cleared stored credentials", "path", path)
	}

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var apiErr struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil {
			if apiErr.Message != "" {
				return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Message, Structured: true}
			}
			if apiErr.Error != "" {
				return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error, Structured: true}
			}
		}
		msg := strings.TrimSpace(string(respBody))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &TransportError{Op: "decode response", Err: err}
		}
	}
	return nil
}
