package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/datapilot/internal/api"
	"github.com/mkarlsen/datapilot/internal/metrics"
	"github.com/mkarlsen/datapilot/internal/taskstore"
	"github.com/mkarlsen/datapilot/internal/tools"
)

type stubRunner struct {
	answer string
	err    error
}

func (s *stubRunner) Run(_ context.Context, _ string) (string, error) {
	return s.answer, s.err
}

func (s *stubRunner) Model() string {
	return "stub-model"
}

func setupTestApp(t *testing.T, runner api.Runner) (*fiber.App, *taskstore.Store) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	registry := tools.NewRegistry(&tools.Dependencies{
		Metrics: metrics.NewCollector(),
		Logger:  logger,
	})
	registry.RegisterAll()

	store := taskstore.New(16, time.Minute)
	a := api.New(registry, runner, store, metrics.NewCollector(), logger, "0.0.1-test")

	return a.App(), store
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	return resp, raw
}

func TestAPI_Health(t *testing.T) {
	app, _ := setupTestApp(t, &stubRunner{})

	resp, body := doRequest(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]any
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "0.0.1-test", health["version"])
	assert.Equal(t, float64(1), health["tools"])
}

func TestAPI_ListTools(t *testing.T) {
	app, _ := setupTestApp(t, &stubRunner{})

	resp, body := doRequest(t, app, http.MethodGet, "/tools/list", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Categories []string       `json:"categories"`
		Count      int            `json:"count"`
		Tools      []api.ToolInfo `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, []string{"system"}, list.Categories)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "ping", list.Tools[0].Name)
}

func TestAPI_ListCategory(t *testing.T) {
	app, _ := setupTestApp(t, &stubRunner{})

	resp, _ := doRequest(t, app, http.MethodGet, "/tools/list/system", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doRequest(t, app, http.MethodGet, "/tools/list/bigquery", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var errResp api.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "not_found", errResp.Code)
}

func TestAPI_ToolInfo(t *testing.T) {
	app, _ := setupTestApp(t, &stubRunner{})

	resp, body := doRequest(t, app, http.MethodGet, "/tools/system/ping/info", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var info api.ToolInfo
	require.NoError(t, json.Unmarshal(body, &info))
	assert.Equal(t, "ping", info.Name)
	assert.Equal(t, "system", info.Category)

	resp, _ = doRequest(t, app, http.MethodGet, "/tools/system/nope/info", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_CallTool(t *testing.T) {
	app, _ := setupTestApp(t, &stubRunner{})

	resp, body := doRequest(t, app, http.MethodPost, "/tools/system/ping",
		map[string]string{"echo": "hello"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out tools.PingResult
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "hello", out.Message)

	resp, _ = doRequest(t, app, http.MethodPost, "/tools/system/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_AgentRunSync(t *testing.T) {
	app, _ := setupTestApp(t, &stubRunner{answer: "partition the table by day"})

	resp, body := doRequest(t, app, http.MethodPost, "/agent/run",
		api.RunRequest{Prompt: "my query is slow"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var run api.RunResponse
	require.NoError(t, json.Unmarshal(body, &run))
	assert.Equal(t, "success", run.Status)
	assert.Equal(t, "stub-model", run.Model)
	assert.Equal(t, "partition the table by day", run.Response)
}

func TestAPI_AgentRunValidation(t *testing.T) {
	app, _ := setupTestApp(t, &stubRunner{})

	resp, body := doRequest(t, app, http.MethodPost, "/agent/run",
		api.RunRequest{Prompt: ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp api.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "validation_error", errResp.Code)
}

func TestAPI_AgentRunError(t *testing.T) {
	app, _ := setupTestApp(t, &stubRunner{err: errors.New("model unavailable")})

	resp, body := doRequest(t, app, http.MethodPost, "/agent/run",
		api.RunRequest{Prompt: "hello"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), "model unavailable")
}

func TestAPI_AgentRunAsync(t *testing.T) {
	app, store := setupTestApp(t, &stubRunner{answer: "done"})

	resp, body := doRequest(t, app, http.MethodPost, "/agent/run",
		api.RunRequest{Prompt: "backfill yesterday", Async: true})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var task taskstore.Task
	require.NoError(t, json.Unmarshal(body, &task))
	require.NotEmpty(t, task.ID)

	// The background run finishes quickly with a stub runner.
	require.Eventually(t, func() bool {
		got, ok := store.Get(task.ID)
		return ok && got.Status == taskstore.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	resp, body = doRequest(t, app, http.MethodGet, "/agent/status/"+task.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got taskstore.Task
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, taskstore.StatusCompleted, got.Status)
	assert.Equal(t, "done", got.Result)
}

func TestAPI_AgentStatusUnknown(t *testing.T) {
	app, _ := setupTestApp(t, &stubRunner{})

	resp, _ := doRequest(t, app, http.MethodGet, "/agent/status/no-such-task", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_AgentUnavailable(t *testing.T) {
	app, _ := setupTestApp(t, nil)

	resp, body := doRequest(t, app, http.MethodPost, "/agent/run",
		api.RunRequest{Prompt: "hello"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "agent_unavailable")
}
