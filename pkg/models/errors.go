package models

import "errors"

// errPendingToolCall is returned when a mutation that requires an empty
// confirmation slot is attempted while one is outstanding.
var errPendingToolCall = errors.New("models: a tool call is pending confirmation")

// ErrPendingToolCall is the exported sentinel for callers using errors.Is.
var ErrPendingToolCall = errPendingToolCall
