package apiclient

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
	"time"

	legalaid_errors "legalaid-admin/pkg/errors"
	"legalaid-admin/pkg/logger"
)

// Client talks to the platform REST API. Authentication is cookie-based: the
// jar carries the session cookie set by /auth/login across every call, the
// way the browser client sent credentials.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

func New(baseURL string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

// CookieHeader renders the session cookies held for the API origin as a
// Cookie header value, so the websocket dial can reuse the same session.
func (c *Client) CookieHeader() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return ""
	}
	cookies := c.http.Jar.Cookies(u)
	parts := make([]string, 0, len(cookies))
	for _, cookie := range cookies {
		parts = append(parts, cookie.Name+"="+cookie.Value)
	}
	return strings.Join(parts, "; ")
}

type response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if err := statusError(resp.StatusCode, data); err != nil {
		return nil, err
	}
	return data, nil
}

func statusError(code int, body []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}

	var envelope response[json.RawMessage]
	_ = json.Unmarshal(body, &envelope)
	detail := envelope.Error
	if detail == "" {
		detail = http.StatusText(code)
	}

	switch code {
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", detail, legalaid_errors.ErrUnauthorized)
	case http.StatusForbidden:
		return fmt.Errorf("%s: %w", detail, legalaid_errors.ErrForbidden)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", detail, legalaid_errors.ErrNotFound)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", detail, legalaid_errors.ErrConflict)
	case http.StatusBadRequest:
		return fmt.Errorf("%s: %w", detail, legalaid_errors.ErrInvalidInput)
	default:
		return fmt.Errorf("api request failed (%d): %s", code, detail)
	}
}

// request performs a call and unwraps the success envelope into T.
func request[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var zero T
	data, err := c.do(ctx, method, path, body)
	if err != nil {
		return zero, err
	}

	var envelope response[T]
	if err := json.Unmarshal(data, &envelope); err != nil {
		return zero, fmt.Errorf("decode response: %w", err)
	}
	return envelope.Data, nil
}
