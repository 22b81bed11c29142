package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/mkarlsen/datapilot/internal/tools"
)

// asyncRunTimeout bounds a background agent run after the HTTP request has
// already been answered.
const asyncRunTimeout = 10 * time.Minute

func (a *API) handleHealth(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"version": a.version,
		"tools":   len(a.registry.List()),
	})
}

func (a *API) handleMetrics(c fiber.Ctx) error {
	return c.JSON(a.metrics.Snapshot())
}

func (a *API) handleListTools(c fiber.Ctx) error {
	list := a.registry.List()

	return c.JSON(fiber.Map{
		"categories": a.registry.Categories(),
		"count":      len(list),
		"tools":      toolInfos(list),
	})
}

func (a *API) handleListCategory(c fiber.Ctx) error {
	category := c.Params("category")

	list := a.registry.ByCategory(category)
	if len(list) == 0 {
		return notFound(c, "unknown tool category: "+category)
	}

	return c.JSON(fiber.Map{
		"category": category,
		"count":    len(list),
		"tools":    toolInfos(list),
	})
}

func (a *API) handleToolInfo(c fiber.Ctx) error {
	category, name := c.Params("category"), c.Params("name")

	tool := a.registry.Lookup(category, name)
	if tool == nil {
		return notFound(c, "unknown tool "+category+"/"+name)
	}

	return c.JSON(ToolInfo{
		Category:    tool.Category,
		Name:        tool.Name,
		Description: tool.Description,
	})
}

func (a *API) handleCallTool(c fiber.Ctx) error {
	category, name := c.Params("category"), c.Params("name")

	if a.registry.Lookup(category, name) == nil {
		return notFound(c, "unknown tool "+category+"/"+name)
	}

	out, err := a.registry.Call(c.Context(), category, name, json.RawMessage(c.Body()))
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(out)
}

func (a *API) handleAgentRun(c fiber.Ctx) error {
	if a.agent == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "agent is not configured",
			Code:  "agent_unavailable",
		})
	}

	var req RunRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := a.validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if req.Async {
		task := a.store.Create(req.Prompt)
		go a.runTask(task.ID, req.Prompt)

		return c.Status(fiber.StatusAccepted).JSON(task)
	}

	answer, err := a.agent.Run(c.Context(), req.Prompt)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(RunResponse{
		Status:   "success",
		Model:    a.agent.Model(),
		Response: answer,
	})
}

func (a *API) handleAgentStatus(c fiber.Ctx) error {
	id := c.Params("id")

	task, ok := a.store.Get(id)
	if !ok {
		return notFound(c, "unknown task: "+id)
	}

	return c.JSON(task)
}

// runTask executes one agent run detached from the originating request.
func (a *API) runTask(id, prompt string) {
	ctx, cancel := context.WithTimeout(context.Background(), asyncRunTimeout)
	defer cancel()

	answer, err := a.agent.Run(ctx, prompt)
	if err != nil {
		a.logger.Error("async agent run failed", "task_id", id, "error", err)
		a.store.Fail(id, err.Error())

		return
	}
	a.store.Complete(id, answer)
}

func toolInfos(list []*tools.Tool) []ToolInfo {
	out := make([]ToolInfo, 0, len(list))
	for _, tool := range list {
		out = append(out, ToolInfo{
			Category:    tool.Category,
			Name:        tool.Name,
			Description: tool.Description,
		})
	}

	return out
}
