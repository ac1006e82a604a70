// Package tools implements the tool registry and sandboxed execution facade:
// a name -> (schema, handler) dictionary that normalizes arguments, enforces
// wall-clock execution bounds, and sanitizes untrusted tool output before it
// re-enters the conversation.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nexuscore/agentcore/pkg/models"
)

// TrustLevel controls how a tool's output is treated once it rejoins the
// message history.
type TrustLevel string

const (
	// TrustTrusted output is appended verbatim.
	TrustTrusted TrustLevel = "trusted"
	// TrustMixed output is sanitized before being appended.
	TrustMixed TrustLevel = "mixed"
	// TrustUntrusted output is sanitized before being appended.
	TrustUntrusted TrustLevel = "untrusted"
)

// sanitized reports whether outputs at this trust level must pass through
// the prompt-injection filter and length cap.
func (t TrustLevel) sanitized() bool {
	return t == TrustMixed || t == TrustUntrusted
}

// DefaultMaxExecutionTime bounds a tool call when its ToolDefinition doesn't
// set MaxExecutionTime.
const DefaultMaxExecutionTime = 30 * time.Second

// ToolDefinition describes a tool's identity, schema, and execution policy.
// Parameters is a JSON Schema document used both for provider-agnostic
// function-calling declarations and for validating incoming arguments.
type ToolDefinition struct {
	Name                 string
	Description          string
	Parameters           json.RawMessage
	RequiresConfirmation bool
	Trust                TrustLevel
	MaxExecutionTime     time.Duration
}

// Handler executes one tool call against normalized arguments. A returned
// error is treated as a tool-body failure ("Tool error: …"); panics are
// recovered by the registry and treated the same way.
type Handler func(ctx context.Context, session *models.Session, arguments map[string]any) (models.ToolResult, error)

// Tool pairs a definition with its handler.
type Tool struct {
	Definition ToolDefinition
	Handler    Handler
}

// NormalizeArguments converts a provider's raw function-call arguments (a
// map, a JSON-encoded string, or nil) into a map. Invalid JSON normalizes to
// an empty map rather than failing, matching the registry's tolerant
// argument contract.
func NormalizeArguments(raw any) map[string]any {
	switch v := raw.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		return v
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return map[string]any{}
		}
		var out map[string]any
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return map[string]any{}
		}
		return out
	case json.RawMessage:
		var out map[string]any
		if err := json.Unmarshal(v, &out); err != nil {
			return map[string]any{}
		}
		return out
	default:
		return map[string]any{}
	}
}

// ErrUnknownTool records a dispatch against an unregistered tool name.
// Execute surfaces this condition as a failed ToolResult, not a Go error;
// this type exists for callers that want to inspect the reason with
// errors.As.
type ErrUnknownTool struct {
	Name string
}

func (e *ErrUnknownTool) Error() string {
	return fmt.Sprintf("tools: unknown tool %q", e.Name)
}
