package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 512

// StatusError is returned for responses outside the expected status.
type StatusError struct {
	Method string
	Path   string
	Status int
	Code   string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s %s: HTTP %d (%s)", e.Method, e.Path, e.Status, e.Code)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// client is a small JSON client for the VibeVerse API.
type client struct {
	base string
	http *http.Client
}

func newClient(base string, timeout time.Duration) *client {
	return &client{
		base: base,
		http: &http.Client{Timeout: timeout},
	}
}

func (c *client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, http.StatusOK, out)
}

func (c *client) post(ctx context.Context, path string, body any, want int, out any) error {
	return c.do(ctx, http.MethodPost, path, body, want, out)
}

func (c *client) do(ctx context.Context, method, path string, body any, want int, out any) error {
	var r io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != want {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		serr := &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: string(data)}
		var eb struct {
			Code string `json:"code"`
		}
		if json.Unmarshal(data, &eb) == nil {
			serr.Code = eb.Code
		}
		return serr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse %s %s response: %w", method, path, err)
	}
	return nil
}
