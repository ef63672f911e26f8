// Package transport is the single JSON-over-HTTP entry point used by every
// domain API package. It never retries and never validates response schemas.
package transport

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

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const defaultTimeout = 30 * time.Second

// Doer is the subset of *http.Client the transport needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Requester is implemented by *Client. Domain API packages depend on this
// interface so they can be tested without a network.
type Requester interface {
	Request(ctx context.Context, method, path string, opts *RequestOptions, out any) error
}

// Config holds the configuration for the transport client.
type Config struct {
	// BaseURL is prefixed to every request path (e.g. "https://book.example.com").
	BaseURL string
	// Timeout applies when the client builds its own http.Client. Zero means 30s.
	Timeout time.Duration
	// Doer overrides the HTTP client. When nil a client with a cookie jar is
	// created so admin session cookies survive between calls.
	Doer Doer
}

// QueryParam is one URL query parameter. A nil Value means "absent": the
// parameter is omitted from the URL entirely.
type QueryParam struct {
	Name  string
	Value *string
}

// Param builds a defined query parameter.
func Param(name, value string) QueryParam {
	return QueryParam{Name: name, Value: &value}
}

// OptionalParam builds a parameter that is absent when value is empty.
func OptionalParam(name, value string) QueryParam {
	if value == "" {
		return QueryParam{Name: name}
	}
	return Param(name, value)
}

// RequestOptions carries the optional parts of a request.
type RequestOptions struct {
	Body    any
	Query   []QueryParam
	Headers map[string]string
}

// Client performs JSON requests against the booking API.
type Client struct {
	baseURL string
	doer    Doer
	logger  zerolog.Logger
}

// New creates a transport client.
func New(cfg *Config, logger zerolog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("transport config cannot be nil")
	}
	doer := cfg.Doer
	if doer == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		doer = &http.Client{Jar: jar, Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		doer:    doer,
		logger:  logger.With().Str("component", "Transport").Logger(),
	}, nil
}

// Request sends one request and decodes a 2xx JSON body into out (which may be nil).
// Non-2xx responses return *ApiError; unreachable servers return *NetworkError.
func (c *Client) Request(ctx context.Context, method, path string, opts *RequestOptions, out any) error {
	if opts == nil {
		opts = &RequestOptions{}
	}

	var bodyReader io.Reader
	if opts.Body != nil {
		encoded, err := json.Marshal(opts.Body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body for %s %s: %w", method, path, err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	target := c.baseURL + path + buildQueryString(opts.Query)
	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request %s %s: %w", method, path, err)
	}

	req.Header.Set("Accept", "application/json")
	if opts.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, value := range opts.Headers {
		req.Header.Set(name, value)
	}

	started := time.Now()
	resp, err := c.doer.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Msg("Request did not reach the server.")
		return &NetworkError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Method: method, Path: path, Err: fmt.Errorf("read response body: %w", err)}
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(started)).
		Msg("Request completed.")

	// An empty or unparseable body is treated as JSON null.
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		raw = nil
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode response for %s %s: %w", method, path, err)
		}
		return nil
	}

	return newApiError(resp.StatusCode, raw)
}

// newApiError maps an error body of the form {"error":{"code","message","details"}}.
// Missing fields, or a missing body, fall back to defaults.
func newApiError(statusCode int, raw []byte) *ApiError {
	apiErr := &ApiError{
		StatusCode: statusCode,
		Code:       DefaultErrorCode,
		Message:    DefaultErrorMessage,
		Details:    map[string]any{},
	}
	if raw == nil {
		return apiErr
	}

	if code := gjson.GetBytes(raw, "error.code"); code.Type == gjson.String {
		apiErr.Code = code.String()
	}
	if message := gjson.GetBytes(raw, "error.message"); message.Type == gjson.String {
		apiErr.Message = message.String()
	}
	if details := gjson.GetBytes(raw, "error.details"); details.IsObject() {
		if m, ok := details.Value().(map[string]interface{}); ok {
			apiErr.Details = m
		}
	}
	return apiErr
}

// buildQueryString keeps caller order and drops absent values.
func buildQueryString(params []QueryParam) string {
	var parts []string
	for _, p := range params {
		if p.Value == nil {
			continue
		}
		parts = append(parts, url.QueryEscape(p.Name)+"="+url.QueryEscape(*p.Value))
	}
	if len(parts) == 0 {
		return ""
	}
	return "?" + strings.Join(parts, "&")
}

// Get performs a GET and decodes the response into T.
func Get[T any](ctx context.Context, r Requester, path string, query ...QueryParam) (T, error) {
	var out T
	err := r.Request(ctx, http.MethodGet, path, &RequestOptions{Query: query}, &out)
	return out, err
}

// Post performs a POST with a JSON body and decodes the response into T.
func Post[T any](ctx context.Context, r Requester, path string, body any, headers map[string]string) (T, error) {
	var out T
	err := r.Request(ctx, http.MethodPost, path, &RequestOptions{Body: body, Headers: headers}, &out)
	return out, err
}

// Patch performs a PATCH with a JSON body and decodes the response into T.
func Patch[T any](ctx context.Context, r Requester, path string, body any) (T, error) {
	var out T
	err := r.Request(ctx, http.MethodPatch, path, &RequestOptions{Body: body}, &out)
	return out, err
}

// Delete performs a DELETE and discards any response body.
func Delete(ctx context.Context, r Requester, path string) error {
	return r.Request(ctx, http.MethodDelete, path, nil, nil)
}
