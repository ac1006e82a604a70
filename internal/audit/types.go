// Package audit provides append-only, structured audit logging for tool
// invocations, agent actions, permission decisions, and scheduler activity.
package audit

import "time"

// EventType categorizes audit events.
type EventType string

const (
	// Tool events
	EventToolInvocation EventType = "tool.invocation"
	EventToolCompletion EventType = "tool.completion"
	EventToolDenied     EventType = "tool.denied"
	EventToolUnknown    EventType = "tool.unknown"
	EventToolRetry      EventType = "tool.retry"

	// Agent events
	EventAgentAction   EventType = "agent.action"
	EventAgentHandoff  EventType = "agent.handoff"
	EventAgentError    EventType = "agent.error"
	EventAgentStartup  EventType = "agent.startup"
	EventAgentShutdown EventType = "agent.shutdown"

	// Permission events
	EventPermissionGranted EventType = "permission.granted"
	EventPermissionDenied  EventType = "permission.denied"
	EventPermissionRequest EventType = "permission.request"

	// Session events
	EventSessionCreate  EventType = "session.create"
	EventSessionCompact EventType = "session.compact"
	EventSessionEnd     EventType = "session.end"

	// Budget events
	EventBudgetDowngrade EventType = "budget.downgrade"

	// Generation events
	EventCompletion EventType = "generation.completion"

	// Scheduler events
	EventJobFired  EventType = "scheduler.job_fired"
	EventJobFailed EventType = "scheduler.job_failed"
)

// Level represents audit log severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Entry is a single append-only audit record. Timestamp is UTC with
// microsecond precision; Details never carries raw tool input/output, only
// SHA-256-truncated digests and sizes.
type Entry struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Level     Level          `json:"level"`
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"session_id,omitempty"`
	AgentID   string         `json:"agent_id,omitempty"`
	ToolName  string         `json:"tool_name,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	DurationMS int64         `json:"duration_ms,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// OutputFormat specifies the audit log output format.
type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatText OutputFormat = "text"
)

// Config configures the audit logger.
type Config struct {
	Enabled bool         `json:"enabled" yaml:"enabled"`
	Level   Level        `json:"level" yaml:"level"`
	Format  OutputFormat `json:"format" yaml:"format"`

	// Output: "stdout", "stderr", or "file:/path/to/file.log"
	Output string `json:"output" yaml:"output"`

	// MaxFieldSize is accepted and defaulted but not read by the logger;
	// logged fields are not truncated.
	MaxFieldSize int `json:"max_field_size" yaml:"max_field_size"`

	// BufferSize is the size of the async write buffer.
	BufferSize int `json:"buffer_size" yaml:"buffer_size"`

	// FlushInterval is how often the buffer flushes on its own, independent
	// of the channel drain.
	FlushInterval time.Duration `json:"flush_interval" yaml:"flush_interval"`
}

// DefaultConfig returns sane defaults for the audit logger.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		Level:         LevelInfo,
		Format:        FormatJSON,
		Output:        "stdout",
		MaxFieldSize:  1024,
		BufferSize:    1000,
		FlushInterval: 5 * time.Second,
	}
}
