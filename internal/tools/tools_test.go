package tools_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/datapilot/internal/metrics"
	"github.com/mkarlsen/datapilot/internal/tools"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func testDeps() *tools.Dependencies {
	return &tools.Dependencies{
		Metrics: metrics.NewCollector(),
		Logger:  testLogger(),
	}
}

type echoInput struct {
	Text string `json:"text"`
}

type echoOutput struct {
	Text string `json:"text"`
}

func TestRegistry_CallAndLookup(t *testing.T) {
	deps := testDeps()
	r := tools.NewRegistry(deps)
	tools.Add(r, "system", "echo", "Echo the input text",
		func(ctx context.Context, in echoInput) (any, error) {
			return &echoOutput{Text: in.Text}, nil
		})

	out, err := r.Call(context.Background(), "system", "echo", json.RawMessage(`{"text":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, &echoOutput{Text: "hi"}, out)

	// Empty args decode to the zero input.
	out, err = r.Call(context.Background(), "system", "echo", nil)
	require.NoError(t, err)
	assert.Equal(t, &echoOutput{}, out)

	_, err = r.Call(context.Background(), "system", "nope", nil)
	assert.ErrorContains(t, err, "unknown tool")

	// Wrong category does not resolve the tool.
	_, err = r.Call(context.Background(), "bigquery", "echo", nil)
	assert.ErrorContains(t, err, "unknown tool")

	snap := deps.Metrics.Snapshot()
	assert.Equal(t, int64(2), snap.Tools["system.echo"].Count)
}

func TestRegistry_RegisterAllWithNoBackends(t *testing.T) {
	r := tools.NewRegistry(testDeps())
	r.RegisterAll()

	// Only the system category survives when every backend is nil.
	assert.Equal(t, []string{"system"}, r.Categories())
	require.Len(t, r.List(), 1)
	assert.Equal(t, "ping", r.List()[0].Name)
}

func TestPingOverInMemoryTransport(t *testing.T) {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "test-datapilot",
		Version: "0.0.1-test",
	}, nil)

	r := tools.NewRegistry(testDeps())
	r.RegisterAll()
	r.Attach(server)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Run(ctx, serverTransport)
	}()
	time.Sleep(50 * time.Millisecond)

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	t.Run("tools/list returns ping", func(t *testing.T) {
		result, err := session.ListTools(ctx, nil)
		require.NoError(t, err)
		require.Len(t, result.Tools, 1)
		assert.Equal(t, "ping", result.Tools[0].Name)
	})

	t.Run("ping returns pong", func(t *testing.T) {
		result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "ping"})
		require.NoError(t, err)
		require.Len(t, result.Content, 1)
		text, ok := result.Content[0].(*mcp.TextContent)
		require.True(t, ok)
		assert.Contains(t, text.Text, "pong")
	})

	t.Run("ping echoes input", func(t *testing.T) {
		result, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "ping",
			Arguments: map[string]any{"echo": "hello"},
		})
		require.NoError(t, err)
		text, ok := result.Content[0].(*mcp.TextContent)
		require.True(t, ok)
		assert.Contains(t, text.Text, "hello")
	})
}
