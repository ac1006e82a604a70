// Package models provides the core domain types shared across the agent
// runtime: sessions, messages, tool calls, and their results.
package models

import (
	"sync"
	"time"
)

// Source identifies where a session originated.
type Source string

const (
	SourceInteractive Source = "interactive"
	SourcePrivate     Source = "private"
	SourceGroup       Source = "group"
	SourceScheduled   Source = "scheduled"
)

// SessionStatus is the lifecycle state of a Session.
type SessionStatus string

const (
	StatusActive SessionStatus = "active"
	StatusEnded  SessionStatus = "ended"
)

// ForcedProvider is an explicit user override for which provider class to use.
type ForcedProvider string

const (
	ForcedProviderNone  ForcedProvider = ""
	ForcedProviderLocal ForcedProvider = "local"
	ForcedProviderCloud ForcedProvider = "cloud"
)

// Role indicates the message author type.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is one entry in a session's ordered history.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // set on role=tool messages
	Success    bool       `json:"success,omitempty"`      // meaningful on role=tool messages
	Timestamp  time.Time  `json:"timestamp"`
}

// ToolCall is a model's request to execute a named tool.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResult is the tagged-sum outcome of a tool execution: exactly one of
// Ok/Fail applies, mirrored by the IsError flag.
type ToolResult struct {
	Output   string         `json:"output,omitempty"`
	Error    string         `json:"error,omitempty"`
	IsError  bool           `json:"is_error"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// OkResult builds a successful ToolResult.
func OkResult(output string, metadata map[string]any) ToolResult {
	return ToolResult{Output: output, Metadata: metadata}
}

// FailResult builds a failed ToolResult.
func FailResult(errMsg string, metadata map[string]any) ToolResult {
	return ToolResult{Error: errMsg, IsError: true, Metadata: metadata}
}

// PendingToolCall tracks a tool invocation blocked on user confirmation.
type PendingToolCall struct {
	Call      ToolCall
	CreatedAt time.Time
}

// Session is the transient state of one conversation. Exactly one
// PendingToolCall may be outstanding at a time; Append refuses a new
// assistant message while one is set.
type Session struct {
	mu sync.Mutex

	ID               string
	Messages         []Message
	InputTokens      int
	OutputTokens     int
	TurnCount        int // counts only assistant messages
	CreatedAt        time.Time
	Status           SessionStatus
	Source           Source
	ForcedProvider   ForcedProvider
	ActiveAgent      string
	EnabledSkills    map[string]bool
	PendingToolCall  *PendingToolCall
	FlushInProgress  bool
	lastActivity     time.Time
}

// NewSession creates a fresh active session.
func NewSession(id string, source Source) *Session {
	now := time.Now()
	return &Session{
		ID:            id,
		Status:        StatusActive,
		Source:        source,
		CreatedAt:     now,
		lastActivity:  now,
		EnabledSkills: make(map[string]bool),
	}
}

// Lock acquires the session's exclusive-owner mutex. Every mutation path
// (Append*, tool result folding, pending-call resolution) must hold it;
// suspension points (provider I/O, tool execution) release it first.
func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// AppendAssistant appends an assistant message and increments TurnCount.
// Returns an error if a PendingToolCall is outstanding.
func (s *Session) AppendAssistant(content string, toolCalls []ToolCall) error {
	if s.PendingToolCall != nil {
		return errPendingToolCall
	}
	s.Messages = append(s.Messages, Message{
		Role:      RoleAssistant,
		Content:   content,
		ToolCalls: toolCalls,
		Timestamp: time.Now(),
	})
	s.TurnCount++
	s.touch()
	return nil
}

// AppendUser appends a user-role message. Never blocked by a pending call:
// the flush-marker and steering messages are injected this way mid-turn.
func (s *Session) AppendUser(content string) {
	s.Messages = append(s.Messages, Message{Role: RoleUser, Content: content, Timestamp: time.Now()})
	s.touch()
}

// AppendSystem appends a system-role message (summaries, compacted markers).
func (s *Session) AppendSystem(content string) {
	s.Messages = append(s.Messages, Message{Role: RoleSystem, Content: content, Timestamp: time.Now()})
	s.touch()
}

// AppendToolResult appends a tool-role message carrying the outcome of one
// tool call.
func (s *Session) AppendToolResult(toolCallID, content string, success bool) {
	s.Messages = append(s.Messages, Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: toolCallID,
		Success:    success,
		Timestamp:  time.Now(),
	})
	s.touch()
}

// SetPendingToolCall records a tool call awaiting confirmation. Fails if one
// is already outstanding.
func (s *Session) SetPendingToolCall(call ToolCall) error {
	if s.PendingToolCall != nil {
		return errPendingToolCall
	}
	s.PendingToolCall = &PendingToolCall{Call: call, CreatedAt: time.Now()}
	return nil
}

// ClearPendingToolCall clears the outstanding confirmation slot.
func (s *Session) ClearPendingToolCall() {
	s.PendingToolCall = nil
}

// TrackUsage accumulates token totals reported by a provider response.
func (s *Session) TrackUsage(inputTokens, outputTokens int) {
	s.InputTokens += inputTokens
	s.OutputTokens += outputTokens
	s.touch()
}

func (s *Session) touch() { s.lastActivity = time.Now() }

// Idle reports whether the session has had no activity for at least d.
func (s *Session) Idle(d time.Duration) bool {
	return time.Since(s.lastActivity) >= d
}

// End marks the session as ended.
func (s *Session) End() { s.Status = StatusEnded }
