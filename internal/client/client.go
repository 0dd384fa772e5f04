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

	"clinicsim/internal/runner"
	"clinicsim/internal/types"
)

// Client talks to a clinicsim server.
type Client struct {
	http  *http.Client
	url   string
	token string
}

func New(baseURL, token string) *Client {
	return &Client{
		http:  &http.Client{Timeout: 10 * time.Minute},
		url:   strings.TrimRight(baseURL, "/"),
		token: token,
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("clinicsim server returned %d: %s", e.StatusCode, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(msg, &apiErr) == nil && apiErr.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// Simulate runs one scenario on the server and waits for its summary.
func (c *Client) Simulate(ctx context.Context, sc runner.Scenario) (runner.Summary, error) {
	var out runner.Summary
	if err := c.do(ctx, http.MethodPost, "/api/simulate", sc, &out); err != nil {
		return runner.Summary{}, err
	}
	return out, nil
}

// Run starts a plan on the server and returns its id. Progress is streamed on /ws.
func (c *Client) Run(ctx context.Context, req types.RunRequest) (string, error) {
	var out struct {
		PlanID string `json:"plan_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/run", req, &out); err != nil {
		return "", err
	}
	return out.PlanID, nil
}

func (c *Client) Metrics(ctx context.Context) (types.MetricsSnapshot, error) {
	var out types.MetricsSnapshot
	err := c.do(ctx, http.MethodGet, "/metrics", nil, &out)
	return out, err
}
