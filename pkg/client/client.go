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

	"github.com/naveenspark/backoffice/pkg/domain"
)

// Header names sent with every request.
const (
	HeaderCompanyID = "company-id"
	HeaderRequestID = "X-Request-ID"
)

// AuthSource supplies the bearer token and active tenant for each request.
// It is read per request, so a token set mid-flight is picked up.
type AuthSource interface {
	Token() string
	CompanyID() string
}

// AuthFunc adapts a function to AuthSource.
type AuthFunc func() (token, companyID string)

// Token implements AuthSource.
func (f AuthFunc) Token() string {
	tok, _ := f()
	return tok
}

// CompanyID implements AuthSource.
func (f AuthFunc) CompanyID() string {
	_, id := f()
	return id
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the default 30s request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// OnUnauthorized registers a hook invoked whenever the API answers 401.
func OnUnauthorized(fn func()) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// Client is the admin API client.
type Client struct {
	baseURL        string
	auth           AuthSource
	httpClient     *http.Client
	onUnauthorized func()
}

// New creates a new API client. auth may be nil for anonymous use.
func New(baseURL string, auth AuthSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    auth,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login posts credentials and returns the issued token.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResponse, error) {
	var resp domain.LoginResponse
	if err := c.post(ctx, "/login", creds, &resp); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return &resp, nil
}

// Me returns the authenticated user and permission set for the current token.
func (c *Client) Me(ctx context.Context) (*domain.MeResponse, error) {
	var resp domain.MeResponse
	if err := c.get(ctx, "/me", &resp); err != nil {
		return nil, fmt.Errorf("client.Me: %w", err)
	}
	return &resp, nil
}

// Get fetches path and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	if err := c.get(ctx, path, out); err != nil {
		return fmt.Errorf("client.Get %s: %w", path, err)
	}
	return nil
}

// Post sends body as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	if err := c.post(ctx, path, body, out); err != nil {
		return fmt.Errorf("client.Post %s: %w", path, err)
	}
	return nil
}

// Put replaces the resource at path.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	if err := c.doRequest(ctx, http.MethodPut, path, body, out); err != nil {
		return fmt.Errorf("client.Put %s: %w", path, err)
	}
	return nil
}

// Patch partially updates the resource at path.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	if err := c.doRequest(ctx, http.MethodPatch, path, body, out); err != nil {
		return fmt.Errorf("client.Patch %s: %w", path, err)
	}
	return nil
}

// Delete removes the resource at path.
func (c *Client) Delete(ctx context.Context, path string) error {
	if err := c.doRequest(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("client.Delete %s: %w", path, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
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
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(HeaderRequestID, uuid.NewString())
	if c.auth != nil {
		if tok := c.auth.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		if id := c.auth.CompanyID(); id != "" {
			req.Header.Set(HeaderCompanyID, id)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return readHTTPError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func readHTTPError(resp *http.Response) error {
	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
	if readErr != nil {
		return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
	}
	var apiErr struct {
		Error   string              `json:"error"`
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	if json.Unmarshal(respBody, &apiErr) == nil {
		msg := apiErr.Error
		if msg == "" {
			msg = apiErr.Message
		}
		if msg != "" || len(apiErr.Errors) > 0 {
			return &HTTPError{StatusCode: resp.StatusCode, Message: msg, Errors: apiErr.Errors}
		}
	}
	return &HTTPError{StatusCode: resp.StatusCode, Message: string(respBody)}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}
