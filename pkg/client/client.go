// Package client is a typed HTTP client for the SwiftServe API. It keeps
// the session and CSRF cookies in a jar the way the web portals do, so one
// Client acts as one signed-in user.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	csrfHeader     = "X-CSRFToken"
	defaultTimeout = 30 * time.Second
)

type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration

	mu   sync.Mutex
	csrf string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client. A cookie jar is added when
// it has none.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// New returns a client for the server rooted at baseURL, for example
// "https://api.swiftserve.co.ke".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		c.http.Timeout = c.timeout
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.http.Jar = jar
	}
	return c, nil
}

// CSRF fetches a fresh CSRF token and remembers it for later mutations.
func (c *Client) CSRF(ctx context.Context) (string, error) {
	var out struct {
		Token string `json:"csrfToken"`
	}
	if err := c.send(ctx, http.MethodGet, "/api/auth/csrf/", nil, "", &out); err != nil {
		return "", err
	}
	c.mu.Lock()
	c.csrf = out.Token
	c.mu.Unlock()
	return out.Token, nil
}

func (c *Client) csrfToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.csrf
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}
	return c.CSRF(ctx)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.send(ctx, http.MethodGet, path, nil, "", out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	return c.mutate(ctx, http.MethodPost, path, in, out)
}

// mutate sends a JSON body with the CSRF header. A csrf_failed rejection
// refreshes the token and retries once.
func (c *Client) mutate(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	return c.mutateRaw(ctx, method, path, body, "application/json", out)
}

func (c *Client) mutateRaw(ctx context.Context, method, path string, body []byte, contentType string, out any) error {
	if _, err := c.csrfToken(ctx); err != nil {
		return err
	}
	err := c.send(ctx, method, path, body, contentType, out)
	if !isCode(err, codeCSRF) {
		return err
	}
	if _, err := c.CSRF(ctx); err != nil {
		return err
	}
	return c.send(ctx, method, path, body, contentType, out)
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, contentType string, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if method != http.MethodGet {
		c.mu.Lock()
		req.Header.Set(csrfHeader, c.csrf)
		c.mu.Unlock()
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrTransport, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
