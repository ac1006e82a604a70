package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nexuscore/agentcore/internal/audit"
	"github.com/nexuscore/agentcore/pkg/models"
)

// Registry is the thread-safe name -> Tool dictionary. Every invocation goes
// through Execute, which expects arguments already normalized by the caller
// (see NormalizeArguments), enforces a wall-clock deadline, recovers
// tool-body panics, emits the tool_exec_start/tool_exec_end audit pair, and
// sanitizes untrusted/mixed output before it is handed back.
type Registry struct {
	mu             sync.RWMutex
	tools          map[string]*Tool
	schemas        map[string]*jsonschema.Schema
	audit          *audit.Logger
	defaultTimeout time.Duration
}

// NewRegistry creates an empty registry. auditLogger may be a disabled
// *audit.Logger (see audit.NewLogger with Config{Enabled: false}); it is
// never nil-checked by callers, so pass one even when audit is off.
func NewRegistry(auditLogger *audit.Logger, defaultTimeout time.Duration) *Registry {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultMaxExecutionTime
	}
	return &Registry{
		tools:          make(map[string]*Tool),
		schemas:        make(map[string]*jsonschema.Schema),
		audit:          auditLogger,
		defaultTimeout: defaultTimeout,
	}
}

// Register adds or replaces a tool by name (idempotent by name). If the
// tool declares a Parameters schema, it is compiled eagerly so a malformed
// schema fails at registration time rather than on first call.
func (r *Registry) Register(tool *Tool) error {
	if tool == nil || tool.Definition.Name == "" {
		return fmt.Errorf("tools: tool must have a non-empty name")
	}

	var schema *jsonschema.Schema
	if len(tool.Definition.Parameters) > 0 {
		compiled, err := jsonschema.CompileString(tool.Definition.Name+".schema.json", string(tool.Definition.Parameters))
		if err != nil {
			return fmt.Errorf("tools: compiling schema for %q: %w", tool.Definition.Name, err)
		}
		schema = compiled
	}
	if tool.Definition.MaxExecutionTime <= 0 {
		tool.Definition.MaxExecutionTime = r.defaultTimeout
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Definition.Name] = tool
	if schema != nil {
		r.schemas[tool.Definition.Name] = schema
	} else {
		delete(r.schemas, tool.Definition.Name)
	}
	return nil
}

// Unregister removes a tool by name. A no-op if the name isn't registered.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
	delete(r.schemas, name)
}

// Definitions returns every registered tool's schema in provider-agnostic
// form, suitable for passing to a model's function-calling declaration.
func (r *Registry) Definitions() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.Definition)
	}
	return out
}

// RequiresConfirmation reports whether name must not execute without a
// prior explicit approval. Unknown names report false.
func (r *Registry) RequiresConfirmation(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return ok && t.Definition.RequiresConfirmation
}

// TrustLevel returns the registered trust level for name, and whether name
// is registered at all.
func (r *Registry) TrustLevel(name string) (TrustLevel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return "", false
	}
	return t.Definition.Trust, true
}

// Has reports whether name is registered. Used by config validation to
// reject skills that require a tool the registry never loaded.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

func (r *Registry) lookup(name string) (*Tool, *jsonschema.Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, nil, false
	}
	return t, r.schemas[name], true
}

// Execute looks up call.Name, validates call.Arguments against its schema
// (if any), runs the handler under a wall-clock deadline, and returns a
// sanitized ToolResult. Two audit events, tool_exec_start and
// tool_exec_end, are emitted for every call that reaches the handler; a
// call whose arguments fail schema validation returns before either.
func (r *Registry) Execute(ctx context.Context, sessionID string, session *models.Session, call models.ToolCall) models.ToolResult {
	tool, schema, ok := r.lookup(call.Name)
	if !ok {
		r.audit.UnknownTool(ctx, sessionID, call.Name, call.ID)
		return models.FailResult(fmt.Sprintf("Unknown tool: %s", call.Name), nil)
	}

	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}

	if schema != nil {
		if err := schema.Validate(toValidatable(args)); err != nil {
			return models.FailResult(fmt.Sprintf("Tool error: invalid arguments: %v", err), nil)
		}
	}

	argsDigest := audit.HashDigest(digestOf(args))
	r.audit.ToolExecStart(ctx, sessionID, call.Name, call.ID, argsDigest)

	start := time.Now()
	result := r.runWithDeadline(ctx, tool, session, args)
	duration := time.Since(start)

	outputDigest := audit.HashDigest(result.Output + result.Error)
	r.audit.ToolExecEnd(ctx, sessionID, call.Name, call.ID, outputDigest, !result.IsError, duration)

	if !result.IsError {
		result.Output = Sanitize(tool.Definition.Trust, result.Output)
	}
	return result
}

func (r *Registry) runWithDeadline(ctx context.Context, tool *Tool, session *models.Session, args map[string]any) models.ToolResult {
	timeout := tool.Definition.MaxExecutionTime
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}
	deadlineCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		result models.ToolResult
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{result: models.FailResult(fmt.Sprintf("Tool error: %v", rec), nil)}
			}
		}()
		res, err := tool.Handler(deadlineCtx, session, args)
		done <- outcome{result: res, err: err}
	}()

	select {
	case <-deadlineCtx.Done():
		return models.FailResult(fmt.Sprintf("Tool execution timed out after %ds", int(timeout.Seconds())), nil)
	case o := <-done:
		if o.err != nil {
			return models.FailResult(fmt.Sprintf("Tool error: %v", o.err), nil)
		}
		return o.result
	}
}

func toValidatable(args map[string]any) any {
	raw, err := json.Marshal(args)
	if err != nil {
		return args
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return args
	}
	return decoded
}

func digestOf(args map[string]any) string {
	raw, err := json.Marshal(args)
	if err != nil {
		return ""
	}
	return string(raw)
}
