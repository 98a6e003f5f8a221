package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"zonebourse-go/internal/logger"
)

const (
	userAgent    = "zonebourse-web/1.0"
	maxBodyBytes = 10 << 20
)

// Auth is the set of backend cookies that identify a logged-in user.
type Auth []*http.Cookie

type Client struct {
	http       *http.Client
	base       *url.URL
	timeout    time.Duration
	getRetries int
	retryDelay time.Duration
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.http = client
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithGetRetries sets how many extra attempts idempotent reads get.
func WithGetRetries(retries int, delay time.Duration) Option {
	return func(c *Client) {
		c.getRetries = retries
		c.retryDelay = delay
	}
}

func New(baseURL string, options ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		base:       base,
		timeout:    15 * time.Second,
		retryDelay: 200 * time.Millisecond,
	}
	for _, option := range options {
		option(c)
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	return c, nil
}

func (c *Client) BaseURL() string {
	return c.base.String()
}

func (c *Client) endpoint(path string) string {
	return c.base.String() + path
}

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	auth        Auth
	idempotent  bool
}

// do sends req and returns the response. The caller closes the body and the
// cancel func.
func (c *Client) do(ctx context.Context, req request) (*http.Response, context.CancelFunc, error) {
	attempts := 1
	if req.idempotent && req.body == nil {
		attempts += c.getRetries
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, nil, fmt.Errorf("%w: %v", ErrTransport, ctx.Err())
			case <-time.After(c.retryDelay):
			}
		}

		resp, cancel, err := c.send(ctx, req)
		if err == nil && resp.StatusCode < http.StatusInternalServerError {
			return resp, cancel, nil
		}
		if err == nil {
			lastErr = fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode)
			if attempt == attempts {
				return resp, cancel, nil
			}
			resp.Body.Close()
			cancel()
		} else {
			lastErr = err
		}

		logger.Warn().
			Err(lastErr).
			Str("method", req.method).
			Str("path", req.path).
			Int("attempt", attempt).
			Msg("backend call failed")
	}
	return nil, nil, lastErr
}

func (c *Client) send(ctx context.Context, req request) (*http.Response, context.CancelFunc, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)

	httpReq, err := http.NewRequestWithContext(reqCtx, req.method, c.endpoint(req.path), req.body)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	for _, cookie := range req.auth {
		httpReq.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return resp, cancel, nil
}

func (c *Client) sendJSON(ctx context.Context, method, path string, auth Auth, payload any) (*http.Response, context.CancelFunc, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	return c.do(ctx, request{
		method:      method,
		path:        path,
		body:        bytes.NewReader(body),
		contentType: "application/json",
		auth:        auth,
	})
}

func decodeJSON(resp *http.Response, out any) error {
	decoder := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes))
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// decodeResult reads the {success, message} envelope. Success is decided by
// the body, never by the HTTP status.
func decodeResult(resp *http.Response) (resultEnvelope, error) {
	var env resultEnvelope
	if err := decodeJSON(resp, &env); err != nil {
		return env, err
	}
	if env.Success == nil {
		if env.Error != "" {
			return env, &APIError{Status: resp.StatusCode, Message: env.Error}
		}
		return env, fmt.Errorf("%w: missing success field", ErrDecode)
	}
	if !*env.Success {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		return env, &APIError{Status: resp.StatusCode, Message: msg}
	}
	return env, nil
}
