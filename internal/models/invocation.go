package models

import "time"

// Workflow invocation states as reported by the upstream orchestrator.
const (
	InvocationSucceeded = "SUCCEEDED"
	InvocationFailed    = "FAILED"
	InvocationRunning   = "RUNNING"
	InvocationCancelled = "CANCELLED"
)

// Action states within a single invocation.
const (
	ActionSucceeded = "SUCCEEDED"
	ActionFailed    = "FAILED"
	ActionRunning   = "RUNNING"
	ActionSkipped   = "SKIPPED"
	ActionCancelled = "CANCELLED"
)

// InvocationSummary is one execution run of a declared pipeline.
// A slice of these, in retrieval order, is the unit the health aggregator
// consumes; retrieval order is not guaranteed chronological.
type InvocationSummary struct {
	ID                string    `json:"workflow_invocation_id"`
	WorkflowConfig    string    `json:"workflow_config,omitempty"`
	State             string    `json:"state"`
	CompilationResult string    `json:"compilation_result,omitempty"`
	CreateTime        time.Time `json:"create_time,omitzero"`
	UpdateTime        time.Time `json:"update_time,omitzero"`
}

// ActionSummary is one action (table build, assertion, operation) within an
// invocation.
type ActionSummary struct {
	Name            string `json:"name"`
	Status          string `json:"status"`
	ErrorMessage    string `json:"error_message,omitempty"`
	CanonicalTarget string `json:"canonical_target_name,omitempty"`
	JobID           string `json:"job_id,omitempty"`
}

// Duration returns the wall-clock duration of the invocation and whether both
// timestamps were present.
func (s InvocationSummary) Duration() (time.Duration, bool) {
	if s.CreateTime.IsZero() || s.UpdateTime.IsZero() {
		return 0, false
	}
	return s.UpdateTime.Sub(s.CreateTime), true
}
