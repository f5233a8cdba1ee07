// Package api is the client for the PolicyMitr backend. Every request
// carries the bearer token of the current session.
package api

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

	"policymitr-client/internal/auth"
)

// DefaultTimeout leaves room for slow document analysis and AI answers.
const DefaultTimeout = 2 * time.Minute

type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   auth.Provider
}

func NewClient(baseURL string, timeout time.Duration, sessions auth.Provider) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		sessions:   sessions,
	}
}

// Error is a non-success response from the backend.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend returned status %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// newPublicRequest builds a request that carries no credentials.
func (c *Client) newPublicRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := c.newPublicRequest(ctx, method, path, body, contentType)
	if err != nil {
		return nil, err
	}

	if c.sessions != nil {
		s, err := c.sessions.Session(ctx)
		if err != nil {
			return nil, fmt.Errorf("no session for request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+s.AccessToken)
	}
	return req, nil
}

// do executes req and turns any non-2xx status into *Error. The caller owns
// the returned body.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return nil, decodeError(resp.StatusCode, req.Header.Get("X-Request-ID"), body)
}

// decodeError understands both FastAPI's {"detail": ...} and the
// {"error": {"code", "message"}} envelope.
func decodeError(status int, requestID string, body []byte) *Error {
	apiErr := &Error{StatusCode: status, RequestID: requestID}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
		Error  *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		switch {
		case envelope.Error != nil:
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		case len(envelope.Detail) > 0:
			var detail string
			if json.Unmarshal(envelope.Detail, &detail) == nil {
				apiErr.Message = detail
			} else {
				apiErr.Message = string(envelope.Detail)
			}
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, in interface{}) (*http.Request, error) {
	if in == nil {
		return c.newRequest(ctx, method, path, nil, "")
	}
	b, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.newRequest(ctx, method, path, bytes.NewReader(b), "application/json")
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	req, err := c.newJSONRequest(ctx, method, path, in)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// Health pings the backend. The request is unauthenticated so it works
// outside any user session.
func (c *Client) Health(ctx context.Context) error {
	req, err := c.newPublicRequest(ctx, http.MethodGet, "/health", nil, "")
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}
