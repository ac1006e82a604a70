package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nexuscore/agentcore/internal/filelock"
	"github.com/nexuscore/agentcore/internal/metrics"
)

// Logger is an append-only, crash-safe audit writer. Events are buffered on
// a channel and drained by a single background goroutine so that callers on
// the hot path (tool execution, turn completion) never block on I/O.
type Logger struct {
	config  Config
	output  io.WriteCloser
	slog    *slog.Logger
	buffer  chan *Entry
	wg      sync.WaitGroup
	done    chan struct{}
	metrics *metrics.Collector
}

// NewLogger creates an audit logger from config. A disabled logger is a
// valid no-op value: every method becomes a cheap, safe no-op.
func NewLogger(config Config) (*Logger, error) {
	if !config.Enabled {
		return &Logger{config: config}, nil
	}

	if config.BufferSize == 0 {
		config.BufferSize = 1000
	}
	if config.FlushInterval == 0 {
		config.FlushInterval = 5 * time.Second
	}
	if config.MaxFieldSize == 0 {
		config.MaxFieldSize = 1024
	}

	var output io.WriteCloser
	switch {
	case config.Output == "stdout" || config.Output == "":
		output = os.Stdout
	case config.Output == "stderr":
		output = os.Stderr
	case strings.HasPrefix(config.Output, "file:"):
		path := strings.TrimPrefix(config.Output, "file:")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("audit: opening log file: %w", err)
		}
		output = f
	default:
		return nil, fmt.Errorf("audit: unsupported output %q", config.Output)
	}

	l := &Logger{
		config: config,
		output: output,
		buffer: make(chan *Entry, config.BufferSize),
		done:   make(chan struct{}),
	}

	var handler slog.Handler
	if config.Format == FormatText {
		handler = slog.NewTextHandler(output, &slog.HandlerOptions{Level: slogLevel(config.Level)})
	} else {
		handler = slog.NewJSONHandler(output, &slog.HandlerOptions{Level: slogLevel(config.Level)})
	}
	l.slog = slog.New(handler).With("component", "audit")

	l.wg.Add(1)
	go l.writeLoop()

	return l, nil
}

// WithMetrics attaches a Prometheus collector so tool/completion/job audit
// events also update its counters and histograms. Returns l for chaining at
// construction time; safe to call with a nil collector (a no-op).
func (l *Logger) WithMetrics(c *metrics.Collector) *Logger {
	l.metrics = c
	return l
}

// Close flushes remaining entries and releases the output file, if any.
func (l *Logger) Close() error {
	if !l.config.Enabled {
		return nil
	}
	close(l.done)
	l.wg.Wait()
	if l.output != os.Stdout && l.output != os.Stderr {
		return l.output.Close()
	}
	return nil
}

// Log appends an entry, filling in ID/Timestamp if unset. Non-blocking:
// falls back to a direct synchronous write if the buffer is full, so no
// entry is ever silently dropped.
func (l *Logger) Log(ctx context.Context, entry *Entry) {
	if !l.config.Enabled {
		return
	}
	if !l.shouldLog(entry.Level) {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	} else {
		entry.Timestamp = entry.Timestamp.UTC()
	}

	select {
	case l.buffer <- entry:
	default:
		l.write(entry)
	}
}

// HashDigest returns a truncated SHA-256 hex digest of s, for recording tool
// input/output fingerprints without ever persisting the raw payload.
func HashDigest(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])[:16]
}

// ToolExecStart records the start half of a tool execution audit pair.
func (l *Logger) ToolExecStart(ctx context.Context, sessionID, toolName, toolCallID, argsDigest string) {
	l.Log(ctx, &Entry{
		Type:       EventToolInvocation,
		Level:      LevelInfo,
		SessionID:  sessionID,
		ToolName:   toolName,
		ToolCallID: toolCallID,
		Action:     "tool_exec_start",
		Details:    map[string]any{"input_hash": argsDigest},
	})
}

// ToolExecEnd records the end half of a tool execution audit pair.
func (l *Logger) ToolExecEnd(ctx context.Context, sessionID, toolName, toolCallID, outputDigest string, success bool, duration time.Duration) {
	l.metrics.ObserveToolExecution(toolName, success, duration.Seconds())

	level := LevelInfo
	if !success {
		level = LevelWarn
	}
	l.Log(ctx, &Entry{
		Type:       EventToolCompletion,
		Level:      level,
		SessionID:  sessionID,
		ToolName:   toolName,
		ToolCallID: toolCallID,
		Action:     "tool_exec_end",
		Details:    map[string]any{"output_hash": outputDigest, "success": success},
		DurationMS: duration.Milliseconds(),
	})
}

// UnknownTool records a dispatch against an unregistered tool name.
func (l *Logger) UnknownTool(ctx context.Context, sessionID, toolName, toolCallID string) {
	l.Log(ctx, &Entry{
		Type:       EventToolUnknown,
		Level:      LevelWarn,
		SessionID:  sessionID,
		ToolName:   toolName,
		ToolCallID: toolCallID,
		Action:     "unknown_tool",
	})
}

// BudgetDowngrade records a silent cloud->local downgrade triggered by the
// usage tracker's budget gate.
func (l *Logger) BudgetDowngrade(ctx context.Context, sessionID, requestedTier, fallbackTier, reason string) {
	l.metrics.ObserveBudgetDowngrade()

	l.Log(ctx, &Entry{
		Type:      EventBudgetDowngrade,
		Level:     LevelWarn,
		SessionID: sessionID,
		Action:    "budget_downgrade",
		Details: map[string]any{
			"requested_tier": requestedTier,
			"fallback_tier":  fallbackTier,
			"reason":         reason,
		},
	})
}

// Completion records one provider generation: which tier/provider served
// it, how long it took, token usage, and why it stopped.
func (l *Logger) Completion(ctx context.Context, sessionID, provider, finishReason string, duration time.Duration, inputTokens, outputTokens int64, costUSD float64) {
	l.metrics.ObserveCompletion(provider, finishReason)

	l.Log(ctx, &Entry{
		Type:       EventCompletion,
		Level:      LevelInfo,
		SessionID:  sessionID,
		Action:     "completion",
		DurationMS: duration.Milliseconds(),
		Details: map[string]any{
			"provider":      provider,
			"finish_reason": finishReason,
			"input_tokens":  inputTokens,
			"output_tokens": outputTokens,
			"cost_usd":      costUSD,
		},
	})
}

// SessionCompact records a compaction cycle.
func (l *Logger) SessionCompact(ctx context.Context, sessionID string, before, after, tokensSaved int, strategy string) {
	l.Log(ctx, &Entry{
		Type:      EventSessionCompact,
		Level:     LevelInfo,
		SessionID: sessionID,
		Action:    "session_compacted",
		Details: map[string]any{
			"messages_before": before,
			"messages_after":  after,
			"tokens_saved":    tokensSaved,
			"strategy":        strategy,
		},
	})
}

// AgentHandoff records a multi-agent dispatch switching the active agent.
func (l *Logger) AgentHandoff(ctx context.Context, sessionID, fromAgent, toAgent, reason string) {
	l.Log(ctx, &Entry{
		Type:      EventAgentHandoff,
		Level:     LevelInfo,
		SessionID: sessionID,
		AgentID:   toAgent,
		Action:    "agent_handoff",
		Details:   map[string]any{"from_agent": fromAgent, "to_agent": toAgent, "reason": reason},
	})
}

// JobFired records a scheduler job execution.
func (l *Logger) JobFired(ctx context.Context, jobID, kind string, duration time.Duration, err error) {
	l.metrics.ObserveJobFired(err == nil, duration.Seconds())

	entry := &Entry{
		Type:       EventJobFired,
		Level:      LevelInfo,
		Action:     "job_fired",
		Details:    map[string]any{"job_id": jobID, "kind": kind},
		DurationMS: duration.Milliseconds(),
	}
	if err != nil {
		entry.Type = EventJobFailed
		entry.Level = LevelError
		entry.Error = err.Error()
	}
	l.Log(ctx, entry)
}

func (l *Logger) writeLoop() {
	defer l.wg.Done()
	ticker := time.NewTicker(l.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case entry := <-l.buffer:
			l.write(entry)
		case <-ticker.C:
			l.drain()
		case <-l.done:
			l.drain()
			return
		}
	}
}

func (l *Logger) drain() {
	for {
		select {
		case entry := <-l.buffer:
			l.write(entry)
		default:
			return
		}
	}
}

// write emits one entry through the slog handler. When the output is a
// real log file, the write is wrapped in an exclusive advisory lock so a
// crash mid-append never interleaves with another process writing the same
// file; stdout/stderr never need it.
func (l *Logger) write(entry *Entry) {
	if f, ok := l.output.(*os.File); ok && f != os.Stdout && f != os.Stderr {
		_ = filelock.WithLock(f, func() error {
			l.writeAttrs(entry)
			return nil
		})
		return
	}
	l.writeAttrs(entry)
}

func (l *Logger) writeAttrs(entry *Entry) {
	attrs := []any{
		"audit_id", entry.ID,
		"audit_type", entry.Type,
		"action", entry.Action,
		"timestamp", entry.Timestamp.Format("2006-01-02T15:04:05.000000Z07:00"),
	}
	if entry.SessionID != "" {
		attrs = append(attrs, "session_id", entry.SessionID)
	}
	if entry.AgentID != "" {
		attrs = append(attrs, "agent_id", entry.AgentID)
	}
	if entry.ToolName != "" {
		attrs = append(attrs, "tool_name", entry.ToolName)
	}
	if entry.ToolCallID != "" {
		attrs = append(attrs, "tool_call_id", entry.ToolCallID)
	}
	if entry.DurationMS > 0 {
		attrs = append(attrs, "duration_ms", entry.DurationMS)
	}
	if entry.Error != "" {
		attrs = append(attrs, "error", entry.Error)
	}
	for k, v := range entry.Details {
		attrs = append(attrs, k, v)
	}

	switch entry.Level {
	case LevelDebug:
		l.slog.Debug("audit", attrs...)
	case LevelWarn:
		l.slog.Warn("audit", attrs...)
	case LevelError:
		l.slog.Error("audit", attrs...)
	default:
		l.slog.Info("audit", attrs...)
	}
}

func (l *Logger) shouldLog(level Level) bool {
	rank := map[Level]int{LevelDebug: 0, LevelInfo: 1, LevelWarn: 2, LevelError: 3}
	return rank[level] >= rank[l.config.Level]
}

func slogLevel(level Level) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
