// Package client provides an HTTP client for the datapilot REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Client talks to a running datapilot API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client.
// If baseURL is empty, uses the DATAPILOT_API_URL env var or defaults to
// localhost:8080. Timeout can be configured via DATAPILOT_CLIENT_TIMEOUT
// (default 10m, agent runs can be slow).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("DATAPILOT_API_URL")
	}
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}

	timeout := 10 * time.Minute
	if t := os.Getenv("DATAPILOT_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// apiError is the error payload returned by the server.
type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// do sends one request and decodes the JSON response into result.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("server error (%s): %s", apiErr.Code, apiErr.Error)
		}
		return fmt.Errorf("server error: %s - %s", resp.Status, string(raw))
	}

	if result != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// =============================================================================
// TYPES (matching the API responses)
// =============================================================================

// Health is the server health summary.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Tools   int    `json:"tools"`
}

// RunResult is a synchronous agent answer.
type RunResult struct {
	Status   string `json:"status"`
	Model    string `json:"model,omitempty"`
	Response string `json:"response"`
}

// Task is one tracked asynchronous agent run.
type Task struct {
	ID        string    `json:"task_id"`
	Status    string    `json:"status"`
	Prompt    string    `json:"prompt,omitempty"`
	Result    string    `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToolInfo describes one registered tool.
type ToolInfo struct {
	Category    string `json:"category"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ToolList is the full catalogue listing.
type ToolList struct {
	Categories []string   `json:"categories"`
	Count      int        `json:"count"`
	Tools      []ToolInfo `json:"tools"`
}

// CategoryList lists the tools of one category.
type CategoryList struct {
	Category string     `json:"category"`
	Count    int        `json:"count"`
	Tools    []ToolInfo `json:"tools"`
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Health returns the server health summary.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var health Health
	if err := c.get(ctx, "/health", &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// runRequest is the body for POST /agent/run.
type runRequest struct {
	Prompt string `json:"prompt"`
	Async  bool   `json:"async"`
}

// Run asks the agent and waits for the answer.
func (c *Client) Run(ctx context.Context, prompt string) (*RunResult, error) {
	var result RunResult
	if err := c.post(ctx, "/agent/run", runRequest{Prompt: prompt}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RunAsync starts a background agent run and returns the tracking task.
func (c *Client) RunAsync(ctx context.Context, prompt string) (*Task, error) {
	var task Task
	if err := c.post(ctx, "/agent/run", runRequest{Prompt: prompt, Async: true}, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// TaskStatus retrieves an asynchronous run by task id.
func (c *Client) TaskStatus(ctx context.Context, id string) (*Task, error) {
	var task Task
	if err := c.get(ctx, "/agent/status/"+id, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTools returns the full tool catalogue.
func (c *Client) ListTools(ctx context.Context) (*ToolList, error) {
	var list ToolList
	if err := c.get(ctx, "/tools/list", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// ListCategory returns the tools of one category.
func (c *Client) ListCategory(ctx context.Context, category string) (*CategoryList, error) {
	var list CategoryList
	if err := c.get(ctx, "/tools/list/"+category, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// ToolInfo returns the metadata of one tool.
func (c *Client) ToolInfo(ctx context.Context, category, name string) (*ToolInfo, error) {
	var info ToolInfo
	if err := c.get(ctx, "/tools/"+category+"/"+name+"/info", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// CallTool executes a tool with JSON arguments and returns the raw result.
func (c *Client) CallTool(ctx context.Context, category, name string, args any) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.post(ctx, "/tools/"+category+"/"+name, args, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Metrics returns the server's call metrics snapshot.
func (c *Client) Metrics(ctx context.Context) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.get(ctx, "/metrics", &result); err != nil {
		return nil, err
	}
	return result, nil
}
