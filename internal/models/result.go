// Package models defines shared records exchanged between the tool catalogue,
// the diagnostics layer, and the server surfaces.
package models

import "fmt"

// Status values carried by every tool result.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the uniform envelope embedded in every tool result record.
// Callers branch on Status rather than on Go errors: an upstream failure is
// converted into an error-shaped result at the tool boundary and never
// propagated as an exception to the agent.
type Result struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// OK returns a success envelope.
func OK() Result {
	return Result{Status: StatusSuccess}
}

// Errorf returns an error envelope with a formatted message.
func Errorf(format string, args ...any) Result {
	return Result{Status: StatusError, ErrorMessage: fmt.Sprintf(format, args...)}
}

// IsError reports whether the envelope carries an error.
func (r Result) IsError() bool {
	return r.Status == StatusError
}
