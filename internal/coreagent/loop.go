package coreagent

import (
	"context"
	"time"

	"github.com/nexuscore/agentcore/internal/audit"
	"github.com/nexuscore/agentcore/internal/contextwindow"
	"github.com/nexuscore/agentcore/internal/providers"
	"github.com/nexuscore/agentcore/internal/router"
	"github.com/nexuscore/agentcore/internal/tokenbudget"
	"github.com/nexuscore/agentcore/internal/tools"
	"github.com/nexuscore/agentcore/pkg/models"
)

// Config bounds one Runtime's turn loop.
type Config struct {
	// MaxTurns caps assistant-message turns per Run before ErrMaxTurnsExceeded.
	MaxTurns int
	// ContextWindow is the model's total token budget, apportioned across
	// prompt sections and the conversation by internal/tokenbudget.
	ContextWindow int
	// CompactionEnabled toggles the two-phase cooperative compactor; when
	// false only the sliding window ever truncates history.
	CompactionEnabled bool
}

// DefaultConfig returns sane turn-loop bounds.
func DefaultConfig() Config {
	return Config{MaxTurns: 25, ContextWindow: 128000, CompactionEnabled: true}
}

// Outcome classifies how a Run/Confirm/Deny call ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomePending   Outcome = "pending_confirmation"
	OutcomeTruncated Outcome = "truncated"
)

const truncatedSuffix = "\n\n⚠ truncated"

// TurnResult is what a Run/Confirm/Deny call returns: either a completed
// assistant reply or a tool call awaiting user confirmation.
type TurnResult struct {
	Outcome          Outcome
	Content          string
	PendingToolCall  *models.ToolCall
	TurnsUsed        int
}

// Runtime drives one session through the turn loop: prompt assembly,
// context compaction/windowing, tier routing, and tool execution, honoring
// the confirmation resume protocol for tools that require it.
type Runtime struct {
	router    *router.Router
	registry  *tools.Registry
	compactor *contextwindow.Compactor
	prompt    *PromptBuilder
	audit     *audit.Logger
	config    Config
}

// NewRuntime builds a Runtime. audit may be a disabled *audit.Logger (see
// audit.NewLogger with Config{Enabled: false}), never nil-checked here.
func NewRuntime(r *router.Router, registry *tools.Registry, compactor *contextwindow.Compactor, auditLogger *audit.Logger, cfg Config) *Runtime {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultConfig().MaxTurns
	}
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = DefaultConfig().ContextWindow
	}
	return &Runtime{
		router:    r,
		registry:  registry,
		compactor: compactor,
		prompt:    NewPromptBuilder(),
		audit:     auditLogger,
		config:    cfg,
	}
}

// Run appends userMessage to the session and advances the turn loop until
// a terminal outcome, a confirmation is required, or the turn budget is
// exhausted.
func (rt *Runtime) Run(ctx context.Context, session *models.Session, userMessage string, promptIn PromptInput, opts router.Options) (*TurnResult, error) {
	systemPrompt := rt.prompt.Build(session, promptIn)
	session.AppendUser(userMessage)
	return rt.loop(ctx, session, systemPrompt, opts, 0)
}

// Confirm executes the session's outstanding pending tool call (as
// confirmed), appends its result, clears the slot, and re-enters the loop
// with the remaining turn budget.
func (rt *Runtime) Confirm(ctx context.Context, session *models.Session, promptIn PromptInput, opts router.Options) (*TurnResult, error) {
	pending := session.PendingToolCall
	if pending == nil {
		return nil, ErrNoPendingToolCall
	}
	call := pending.Call
	session.ClearPendingToolCall()

	result := rt.registry.Execute(ctx, session.ID, session, call)
	trust, _ := rt.registry.TrustLevel(call.Name)
	rt.appendToolResult(session, call, result, trust)

	systemPrompt := rt.prompt.Build(session, promptIn)
	return rt.loop(ctx, session, systemPrompt, opts, session.TurnCount)
}

// Deny appends a synthetic denial result for the session's pending tool
// call, clears the slot, and re-enters the loop with the remaining turn
// budget.
func (rt *Runtime) Deny(ctx context.Context, session *models.Session, promptIn PromptInput, opts router.Options) (*TurnResult, error) {
	pending := session.PendingToolCall
	if pending == nil {
		return nil, ErrNoPendingToolCall
	}
	call := pending.Call
	session.ClearPendingToolCall()

	result := models.FailResult("Tool execution denied by user", nil)
	rt.appendToolResult(session, call, result, tools.TrustTrusted)

	systemPrompt := rt.prompt.Build(session, promptIn)
	return rt.loop(ctx, session, systemPrompt, opts, session.TurnCount)
}

func (rt *Runtime) appendToolResult(session *models.Session, call models.ToolCall, result models.ToolResult, _ tools.TrustLevel) {
	content := result.Output
	if result.IsError {
		content = result.Error
	}
	session.AppendToolResult(call.ID, content, !result.IsError)
}

func (rt *Runtime) loop(ctx context.Context, session *models.Session, systemPrompt string, opts router.Options, turnsAlreadyUsed int) (*TurnResult, error) {
	conversationBudget, _ := tokenbudget.TokensFor(rt.config.ContextWindow, tokenbudget.SectionConversation)

	for turn := turnsAlreadyUsed; turn < rt.config.MaxTurns; turn++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if rt.compactor != nil {
			if rt.compactor.NeedsFlush(session.Messages, conversationBudget, rt.config.CompactionEnabled, session.FlushInProgress) {
				flush := contextwindow.FlushMessage()
				session.AppendUser(flush.Content)
				session.FlushInProgress = true
			} else if session.FlushInProgress {
				session.Messages = rt.compactor.Compact(ctx, session.Messages)
				session.FlushInProgress = false
			}
		}

		var compressor contextwindow.Compressor
		if rt.compactor != nil {
			compressor = rt.compactor.Compressor
		}
		windowed := contextwindow.Apply(ctx, session.Messages, conversationBudget, compressor)

		req := providers.GenerateRequest{
			Messages:      windowed,
			System:        systemPrompt,
			Tools:         rt.registry.Definitions(),
			ContextWindow: rt.config.ContextWindow,
		}
		opts.ToolDefs = req.Tools

		start := time.Now()
		result, err := rt.router.Generate(ctx, session, req, opts)
		if err != nil {
			return nil, &TurnError{Phase: PhaseGenerate, Turn: turn, Cause: err}
		}
		duration := time.Since(start)

		resp := result.Response
		session.TrackUsage(int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens))
		if rt.audit != nil {
			rt.audit.Completion(ctx, session.ID, string(result.Tier), string(resp.FinishReason), duration, resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.CostUSD)
		}

		switch resp.FinishReason {
		case providers.FinishStop:
			if err := session.AppendAssistant(resp.Content, nil); err != nil {
				return nil, &TurnError{Phase: PhaseGenerate, Turn: turn, Cause: err}
			}
			return &TurnResult{Outcome: OutcomeCompleted, Content: resp.Content, TurnsUsed: session.TurnCount}, nil

		case providers.FinishLength:
			if err := session.AppendAssistant(resp.Content, nil); err != nil {
				return nil, &TurnError{Phase: PhaseGenerate, Turn: turn, Cause: err}
			}
			return &TurnResult{Outcome: OutcomeTruncated, Content: resp.Content + truncatedSuffix, TurnsUsed: session.TurnCount}, nil

		case providers.FinishToolUse:
			if err := session.AppendAssistant(resp.Content, resp.ToolCalls); err != nil {
				return nil, &TurnError{Phase: PhaseGenerate, Turn: turn, Cause: err}
			}
			for _, call := range resp.ToolCalls {
				if rt.registry.RequiresConfirmation(call.Name) {
					if err := session.SetPendingToolCall(call); err != nil {
						return nil, &TurnError{Phase: PhaseToolExec, Turn: turn, Cause: err}
					}
					return &TurnResult{Outcome: OutcomePending, PendingToolCall: &call, TurnsUsed: session.TurnCount}, nil
				}
				toolResult := rt.registry.Execute(ctx, session.ID, session, call)
				trust, _ := rt.registry.TrustLevel(call.Name)
				rt.appendToolResult(session, call, toolResult, trust)
			}
			continue

		default:
			if err := session.AppendAssistant(resp.Content, nil); err != nil {
				return nil, &TurnError{Phase: PhaseGenerate, Turn: turn, Cause: err}
			}
			return &TurnResult{Outcome: OutcomeCompleted, Content: resp.Content, TurnsUsed: session.TurnCount}, nil
		}
	}

	return nil, ErrMaxTurnsExceeded
}
