// Package apiclient issues authenticated requests against source-control
// hosting APIs and maps their failures onto a small error taxonomy.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single API call.
const DefaultTimeout = 10 * time.Second

// Request describes one API call
type Request struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration // zero means the client default
	Into    any           // when set, the body is decoded as JSON into it
}

// Response is a successful (HTTP 200) response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client performs API calls. No retries are attempted.
type Client struct {
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the default per-call timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client
func New(opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{},
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// send issues the request and checks the final status. On success the
// caller owns the response body and must call the returned cancel func
// once it is done with it.
func (c *Client) send(ctx context.Context, method string, r Request) (*http.Response, context.CancelFunc, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)

	req, err := http.NewRequestWithContext(ctx, method, r.URL, nil)
	if err != nil {
		cancel()
		return nil, nil, &APIError{Kind: KindTransport, Message: err.Error(), Err: err}
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		c.logger.Debug("api request failed", "method", method, "url", redact(r.URL), "error", err)
		return nil, nil, &APIError{Kind: KindTransport, Message: transportMessage(err), Err: err}
	}

	c.logger.Debug("api request",
		"method", method,
		"url", redact(r.URL),
		"status", resp.StatusCode,
		"elapsed", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		cancel()
		return nil, nil, &APIError{
			Kind:       KindHTTP,
			StatusCode: resp.StatusCode,
			Message:    HTTPMessage(resp.StatusCode),
		}
	}
	return resp, cancel, nil
}

// Get performs the request. Only a final HTTP 200 counts as success; any
// other final status, a 3xx the transport could not follow included, is an
// HTTP error.
func (c *Client) Get(ctx context.Context, r Request) (*Response, error) {
	resp, cancel, err := c.send(ctx, http.MethodGet, r)
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: KindTransport, Message: err.Error(), Err: err}
	}

	if r.Into != nil {
		if err := json.Unmarshal(body, r.Into); err != nil {
			return nil, &APIError{
				Kind:    KindDecode,
				Message: fmt.Sprintf("cannot decode response: %v", err),
				Err:     err,
			}
		}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// Head checks that a resource exists without transferring its body.
// Redirects are followed with HEAD as well. Into is ignored.
func (c *Client) Head(ctx context.Context, r Request) (*Response, error) {
	resp, cancel, err := c.send(ctx, http.MethodHead, r)
	if err != nil {
		return nil, err
	}
	defer cancel()
	resp.Body.Close()

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header}, nil
}

// Download streams the body of a GET into w. It fails like Get; the
// request's Timeout (or the client default) bounds the whole transfer.
func (c *Client) Download(ctx context.Context, r Request, w io.Writer) (int64, error) {
	resp, cancel, err := c.send(ctx, http.MethodGet, r)
	if err != nil {
		return 0, err
	}
	defer cancel()
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, &APIError{Kind: KindTransport, Message: transportMessage(err), Err: err}
	}
	c.logger.Debug("api download", "url", redact(r.URL), "bytes", n)
	return n, nil
}
