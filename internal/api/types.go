// Package api exposes the tool catalogue and the agent over HTTP.
package api

// RunRequest is the body for POST /agent/run.
type RunRequest struct {
	Prompt string `json:"prompt" validate:"required,min=1"`
	Async  bool   `json:"async"`
}

// RunResponse is the synchronous answer to an agent run.
type RunResponse struct {
	Status   string `json:"status"`
	Model    string `json:"model,omitempty"`
	Response string `json:"response"`
}

// ToolInfo describes one registered tool.
type ToolInfo struct {
	Category    string `json:"category"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse represents a standardized API error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
