package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Handler executes a tool from raw JSON arguments.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Tool is one registered tool with its metadata.
type Tool struct {
	Category    string `json:"category"`
	Name        string `json:"name"`
	Description string `json:"description"`

	handler Handler
	attach  func(server *mcp.Server)
}

// Registry holds the tool catalogue. Tools are registered once at startup and
// served both over MCP (typed handlers) and over the REST API (JSON dispatch).
type Registry struct {
	deps   *Dependencies
	order  []*Tool
	byName map[string]*Tool
}

// NewRegistry creates an empty registry over the shared dependencies.
func NewRegistry(deps *Dependencies) *Registry {
	return &Registry{
		deps:   deps,
		byName: make(map[string]*Tool),
	}
}

// RegisterAll adds every tool whose backend is configured. Categories with a
// nil backend are skipped with a warning.
func (r *Registry) RegisterAll() {
	registerSystem(r)

	if r.deps.BQ != nil {
		registerBigQuery(r)
	} else {
		r.deps.Logger.Warn("bigquery tools disabled, no GCP project configured")
	}
	if r.deps.Dataform != nil {
		registerDataform(r)
	} else {
		r.deps.Logger.Warn("dataform tools disabled, no repository configured")
	}
	if r.deps.GitHub != nil {
		registerGitHub(r)
	} else {
		r.deps.Logger.Warn("github tools disabled, no token configured")
	}
	if r.deps.DBT != nil {
		registerDBT(r)
	} else {
		r.deps.Logger.Warn("dbt tools disabled, no project dir configured")
	}
	if r.deps.Dataproc != nil {
		registerDataproc(r)
	} else {
		r.deps.Logger.Warn("dataproc tools disabled, no GCP project configured")
	}
	if r.deps.Databricks != nil {
		registerDatabricks(r)
	} else {
		r.deps.Logger.Warn("databricks tools disabled, no host or token configured")
	}

	r.deps.Logger.Info("tool registry built", "tools", len(r.order))
}

// Add registers one typed tool. The same function backs the MCP handler and
// the JSON-dispatch handler used by the REST API.
func Add[In any](r *Registry, category, name, description string, fn func(ctx context.Context, in In) (any, error)) {
	tool := &Tool{
		Category:    category,
		Name:        name,
		Description: description,
	}
	tool.handler = func(ctx context.Context, args json.RawMessage) (any, error) {
		var in In
		if len(args) > 0 {
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, fmt.Errorf("decoding %s arguments: %w", name, err)
			}
		}
		return fn(ctx, in)
	}
	tool.attach = func(server *mcp.Server) {
		mcp.AddTool(server, &mcp.Tool{
			Name:        name,
			Description: description,
		}, func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
			out, err := r.timed(ctx, tool, func(ctx context.Context) (any, error) {
				return fn(ctx, in)
			})
			if err != nil {
				return ErrorResult(err.Error(), ""), nil, nil
			}
			return JSONResult(out), out, nil
		})
	}

	r.order = append(r.order, tool)
	r.byName[name] = tool
}

// timed runs one call, recording metrics and logging failures.
func (r *Registry) timed(ctx context.Context, tool *Tool, fn func(context.Context) (any, error)) (any, error) {
	start := time.Now()
	out, err := fn(ctx)
	if r.deps.Metrics != nil {
		r.deps.Metrics.RecordCall(tool.Category, tool.Name, time.Since(start), err != nil)
	}
	if err != nil {
		r.deps.Logger.Error("tool call failed", "tool", tool.Name, "error", err)
	}
	return out, err
}

// Call dispatches a tool by category and name from raw JSON arguments.
func (r *Registry) Call(ctx context.Context, category, name string, args json.RawMessage) (any, error) {
	tool := r.Lookup(category, name)
	if tool == nil {
		return nil, fmt.Errorf("unknown tool %s/%s", category, name)
	}
	return r.timed(ctx, tool, func(ctx context.Context) (any, error) {
		return tool.handler(ctx, args)
	})
}

// Lookup finds a tool by category and name, nil when absent.
func (r *Registry) Lookup(category, name string) *Tool {
	tool, ok := r.byName[name]
	if !ok || tool.Category != category {
		return nil
	}
	return tool
}

// List returns every tool in registration order.
func (r *Registry) List() []*Tool {
	return r.order
}

// ByCategory returns the tools of one category in registration order.
func (r *Registry) ByCategory(category string) []*Tool {
	var out []*Tool
	for _, tool := range r.order {
		if tool.Category == category {
			out = append(out, tool)
		}
	}
	return out
}

// Categories returns the sorted category names.
func (r *Registry) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tool := range r.order {
		if _, ok := seen[tool.Category]; ok {
			continue
		}
		seen[tool.Category] = struct{}{}
		out = append(out, tool.Category)
	}
	sort.Strings(out)
	return out
}

// Attach registers every tool with the MCP server.
func (r *Registry) Attach(server *mcp.Server) {
	for _, tool := range r.order {
		tool.attach(server)
	}
}
