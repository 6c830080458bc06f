package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sagarc03/pitfall"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 30 * time.Second

// maxBodySize caps how much of a response body the client reads.
const maxBodySize = 1 << 20

// Client talks to a pitfall server over HTTP.
type Client struct {
	endpoint   string
	httpClient *http.Client
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a Client for cfg.Endpoint.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Endpoint returns the normalized server URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Health calls GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return readStatusError(resp)
	}
	return nil
}

// Login posts credentials as JSON. A 401 comes back as *StatusError.
func (c *Client) Login(ctx context.Context, username, password string) (*pitfall.LoginResult, error) {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return nil, fmt.Errorf("encode login: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/login", bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, readStatusError(resp)
	}

	var result pitfall.LoginResult
	if err := decodeBody(resp, &result); err != nil {
		return nil, fmt.Errorf("decode login: %w", err)
	}
	return &result, nil
}

// File requests GET /file?name=... and reports whatever status came back.
func (c *Client) File(ctx context.Context, name string) (*FileResult, error) {
	resp, err := c.do(ctx, http.MethodGet, "/file?name="+url.QueryEscape(name), nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	result := &FileResult{Name: name, StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read file body: %w", err)
	}

	if resp.StatusCode == http.StatusOK {
		result.Body = string(data)
		return result, nil
	}

	var e errorBody
	if json.Unmarshal(data, &e) == nil {
		result.ErrorCode = e.Error
		result.Message = e.Message
	}
	return result, nil
}

// Duplicates calls GET /duplicates and measures the round trip.
func (c *Client) Duplicates(ctx context.Context) (*DuplicatesResult, error) {
	start := c.now()
	resp, err := c.do(ctx, http.MethodGet, "/duplicates", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, readStatusError(resp)
	}

	var payload struct {
		Duplicates []int `json:"duplicates"`
	}
	if err := decodeBody(resp, &payload); err != nil {
		return nil, fmt.Errorf("decode duplicates: %w", err)
	}

	return &DuplicatesResult{
		Duplicates: payload.Duplicates,
		Elapsed:    c.now().Sub(start),
	}, nil
}

// Monitor starts a server-side monitor task. A zero interval lets the
// server pick its default.
func (c *Client) Monitor(ctx context.Context, interval time.Duration) (int, error) {
	var reqBody io.Reader
	if interval > 0 {
		body, err := json.Marshal(map[string]float64{"interval": float64(interval) / float64(time.Millisecond)})
		if err != nil {
			return 0, fmt.Errorf("encode monitor: %w", err)
		}
		reqBody = bytes.NewReader(body)
	}

	resp, err := c.do(ctx, http.MethodPost, "/monitor", reqBody, "application/json")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return 0, readStatusError(resp)
	}

	var payload struct {
		ID int `json:"id"`
	}
	if err := decodeBody(resp, &payload); err != nil {
		return 0, fmt.Errorf("decode monitor: %w", err)
	}
	return payload.ID, nil
}

// Increment calls POST /increment and returns the counter value.
func (c *Client) Increment(ctx context.Context) (int64, error) {
	resp, err := c.do(ctx, http.MethodPost, "/increment", nil, "")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return 0, readStatusError(resp)
	}

	var payload struct {
		Counter *int64 `json:"counter"`
	}
	if err := decodeBody(resp, &payload); err != nil {
		return 0, fmt.Errorf("decode increment: %w", err)
	}
	if payload.Counter == nil {
		return 0, errors.New("decode increment: missing counter")
	}
	return *payload.Counter, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	if body == nil {
		body = http.NoBody
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func readStatusError(resp *http.Response) error {
	se := &StatusError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return se
	}
	var e errorBody
	if json.Unmarshal(data, &e) == nil {
		se.Code = e.Error
		se.Message = e.Message
	}
	return se
}

func decodeBody(resp *http.Response, v any) error {
	return json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(v)
}
