package coreagent

import (
	"errors"
	"fmt"
)

// ErrMaxTurnsExceeded is returned when a run consumes its entire turn
// budget without reaching a terminal finish reason.
var ErrMaxTurnsExceeded = errors.New("max turns exceeded")

// ErrNoPendingToolCall is returned by Confirm/Deny when the session has no
// outstanding confirmation to resolve.
var ErrNoPendingToolCall = errors.New("no pending tool call to resolve")

// TurnPhase names a stage of the per-request turn loop, for error context.
type TurnPhase string

const (
	PhaseDispatch TurnPhase = "dispatch"
	PhaseGenerate TurnPhase = "generate"
	PhaseToolExec TurnPhase = "tool_exec"
)

// TurnError wraps a failure encountered while advancing a session through
// the turn loop, tagged with the phase and turn it happened in.
type TurnError struct {
	Phase TurnPhase
	Turn  int
	Cause error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("coreagent: turn %d (%s): %v", e.Turn, e.Phase, e.Cause)
}

func (e *TurnError) Unwrap() error {
	return e.Cause
}
