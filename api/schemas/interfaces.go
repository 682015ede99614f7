// File: api/schemas/interfaces.go
package schemas

import "context"

// -- Collaborator Interfaces --
//
// The decision engine never drives a browser directly. It consumes these
// two collaborators, and the only suspension point in a step is awaiting
// them. A non-nil error from either is fatal and propagates to the
// caller; recoverable action failures travel inside ExecutionResult.

// ExecutionResult reports the outcome of one attempted action.
type ExecutionResult struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// StateCapturer produces an immutable CapturedState for the session's
// current page.
type StateCapturer interface {
	CaptureState(ctx context.Context, sessionID string) (*CapturedState, error)
}

// ActionExecutor performs a proposed action against the live page.
type ActionExecutor interface {
	Execute(ctx context.Context, action *ActionProposal) (*ExecutionResult, error)
}
