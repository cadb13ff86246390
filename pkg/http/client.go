package http

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
)

const (
	userAgent = "findash/1.0"

	defaultClientTimeout = 30 * time.Second
	defaultMaxBody       = 8 << 20
	errorBodyLimit       = 512
)

const (
	MethodGet  = http.MethodGet
	MethodPost = http.MethodPost
	MethodPut  = http.MethodPut
)

// ClientOption configures Client.
type ClientOption func(*Client)

// RequestOptions describes one outgoing request. Body may be []byte, a
// string, an io.Reader or any value encoded as JSON.
type RequestOptions struct {
	Method  string
	URL     string
	Query   url.Values
	Headers map[string]string
	Body    interface{}
}

// StatusError is returned for non-2xx responses. Body holds the start of
// the response, trimmed.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Client is a small JSON-over-HTTP client for upstream APIs.
type Client struct {
	http    *http.Client
	timeout time.Duration
	maxBody int64
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{timeout: defaultClientTimeout, maxBody: defaultMaxBody}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	return c
}

// WithTimeout bounds each request. Non-positive values are ignored.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithMaxBodyBytes caps how much of a successful response is read.
func WithMaxBodyBytes(n int64) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithHTTPClient replaces the underlying client; WithTimeout is then
// ignored.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// SendAndParse performs the request and reads a 2xx response into dest:
// *[]byte receives the raw body, an io.Writer is copied into, anything
// else is decoded as JSON. A nil dest discards the body.
func (c *Client) SendAndParse(ctx context.Context, opts *RequestOptions, dest interface{}) error {
	req, err := c.newRequest(ctx, opts)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			// The URL may carry credentials; keep only the endpoint.
			return fmt.Errorf("%s %s: %w", opts.Method, endpoint(req.URL), ue.Err)
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	body := io.LimitReader(resp.Body, c.maxBody)
	switch v := dest.(type) {
	case nil:
		_, err = io.Copy(io.Discard, body)
	case *[]byte:
		*v, err = io.ReadAll(body)
	case io.Writer:
		_, err = io.Copy(v, body)
	default:
		if err = json.NewDecoder(body).Decode(dest); err != nil {
			return fmt.Errorf("decode json: %w", err)
		}
	}
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, opts *RequestOptions) (*http.Request, error) {
	body, isJSON, err := encodeBody(opts.Body)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	method := opts.Method
	if method == "" {
		method = MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, opts.URL, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if len(opts.Query) > 0 {
		q := req.URL.Query()
		for k, vs := range opts.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		req.URL.RawQuery = q.Encode()
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, */*")
	if isJSON {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func encodeBody(v interface{}) (io.Reader, bool, error) {
	switch b := v.(type) {
	case nil:
		return nil, false, nil
	case []byte:
		return bytes.NewReader(b), false, nil
	case string:
		return strings.NewReader(b), false, nil
	case url.Values:
		return strings.NewReader(b.Encode()), false, nil
	case io.Reader:
		return b, false, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, false, err
	}
	return bytes.NewReader(raw), true, nil
}

func endpoint(u *url.URL) string {
	return u.Scheme + "://" + u.Host + u.Path
}
