package router

import (
	"context"
	"fmt"

	"github.com/nexuscore/agentcore/internal/audit"
	"github.com/nexuscore/agentcore/internal/backoff"
	"github.com/nexuscore/agentcore/internal/providers"
	"github.com/nexuscore/agentcore/internal/tokenbudget"
	"github.com/nexuscore/agentcore/internal/tools"
	"github.com/nexuscore/agentcore/internal/usage"
	"github.com/nexuscore/agentcore/pkg/models"
)

// Router selects which tier serves each request, gates cloud dispatch
// against the usage budget, retries local transient failures, and
// escalates a low-quality or exhausted local response to cloud.
type Router struct {
	cfg      Config
	bindings map[Tier]Binding
	budget   *usage.Tracker
	audit    *audit.Logger
}

// New builds a Router. bindings must contain an entry for every tier the
// config can resolve to; a tier with no binding fails at dispatch time.
func New(cfg Config, bindings map[Tier]Binding, budget *usage.Tracker, auditLogger *audit.Logger) *Router {
	return &Router{cfg: cfg, bindings: bindings, budget: budget, audit: auditLogger}
}

// Options carries the per-request inputs to tier resolution beyond the
// session and message content.
type Options struct {
	CallerTier  Tier
	ActiveSkill string
	ToolDefs    []tools.ToolDefinition
}

// Result is a completed routing decision: the response plus how it got
// there, for the caller to log or surface to the user.
type Result struct {
	Response      *providers.NormalizedResponse
	Tier          Tier
	Reason        Reason
	EscalatedFrom Tier
}

// Generate resolves a tier, dispatches to its bound provider, applies the
// local-only quality gate, and escalates to cloud on low quality or
// transient local failure exhaustion.
func (r *Router) Generate(ctx context.Context, session *models.Session, req providers.GenerateRequest, opts Options) (*Result, error) {
	sessionID := ""
	forcedCloud, forcedLocal := false, false
	if session != nil {
		sessionID = session.ID
		forcedCloud = session.ForcedProvider == models.ForcedProviderCloud
		forcedLocal = session.ForcedProvider == models.ForcedProviderLocal
	}

	userMessage := lastUserContent(req.Messages)
	res := r.cfg.resolveTier(forcedCloud, forcedLocal, opts.CallerTier, opts.ActiveSkill, userMessage)
	tier, reason := res.Tier, res.Reason

	if !r.cfg.EscalationEnabled && tier.IsCloud() {
		if local, ok := localEquivalent[tier]; ok {
			tier = local
		}
		reason = ReasonEscalationDisabled
	}

	if tier.IsCloud() {
		if gated, ok := r.applyBudgetGate(ctx, sessionID, tier, req); ok {
			tier = gated
			reason = ReasonBudgetExceeded
		}
	}

	if tier.IsCloud() {
		resp, err := r.dispatch(ctx, tier, req)
		if err != nil {
			return nil, err
		}
		r.recordUsage(tier, resp)
		return &Result{Response: resp, Tier: tier, Reason: reason}, nil
	}

	resp, err := r.generateLocalWithRetries(ctx, tier, req)
	if err != nil {
		if !r.cfg.EscalationEnabled {
			return nil, err
		}
		escTier, ok := EscalationTarget(tier)
		if !ok || !r.budgetAllows(escTier, req) {
			return nil, err
		}
		escResp, escErr := r.dispatch(ctx, escTier, req)
		if escErr != nil {
			return nil, escErr
		}
		r.recordUsage(escTier, escResp)
		return &Result{Response: escResp, Tier: escTier, Reason: ReasonTransientFailure, EscalatedFrom: tier}, nil
	}

	if r.cfg.EscalationEnabled {
		if qReason, bad := lowQuality(resp, opts.ToolDefs); bad {
			escTier, ok := EscalationTarget(tier)
			if ok && r.budgetAllows(escTier, req) {
				escResp, escErr := r.dispatch(ctx, escTier, req)
				if escErr == nil {
					r.recordUsage(escTier, escResp)
					return &Result{Response: escResp, Tier: escTier, Reason: qReason, EscalatedFrom: tier}, nil
				}
			}
		}
	}

	r.recordUsage(tier, resp)
	return &Result{Response: resp, Tier: tier, Reason: reason}, nil
}

// applyBudgetGate reports (fallbackTier, true) when tier is cloud and the
// budget cannot cover it, emitting a BudgetDowngrade audit entry.
func (r *Router) applyBudgetGate(ctx context.Context, sessionID string, tier Tier, req providers.GenerateRequest) (Tier, bool) {
	if r.budgetAllows(tier, req) {
		return "", false
	}
	fallback := r.cfg.FallbackLocalTier
	if r.audit != nil {
		r.audit.BudgetDowngrade(ctx, sessionID, string(tier), string(fallback), "daily_cap_exceeded")
	}
	return fallback, true
}

func (r *Router) budgetAllows(tier Tier, req providers.GenerateRequest) bool {
	if r.budget == nil {
		return true
	}
	binding, ok := r.bindings[tier]
	if !ok {
		return false
	}
	price := providers.PriceFor(binding.Model)
	estimated := estimatedTokens(req)
	return r.budget.CanUseCloud(estimated, price.Input)
}

// generateLocalWithRetries dispatches to a local tier, retrying transient
// failures with a short exponential backoff (local providers are typically
// a loopback model server recovering from a momentary load spike, not a
// rate-limited remote API, so AggressivePolicy's sub-second ceiling fits).
func (r *Router) generateLocalWithRetries(ctx context.Context, tier Tier, req providers.GenerateRequest) (*providers.NormalizedResponse, error) {
	maxAttempts := r.cfg.MaxLocalRetries
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	policy := backoff.AggressivePolicy()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := r.dispatch(ctx, tier, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !providers.IsRetryable(err) {
			return nil, err
		}
		if attempt < maxAttempts {
			if sleepErr := backoff.SleepWithBackoff(ctx, policy, attempt); sleepErr != nil {
				return nil, sleepErr
			}
		}
	}
	return nil, lastErr
}

// recordUsage appends a completed generation to the budget ledger so
// later CanUseCloud checks see its cost. A nil budget (tests, or a process
// running with persistence disabled) makes this a no-op.
func (r *Router) recordUsage(tier Tier, resp *providers.NormalizedResponse) {
	if r.budget == nil || resp == nil {
		return
	}
	r.budget.Record(usage.Record{
		Provider: string(tier),
		Model:    resp.Model,
		Usage:    resp.Usage,
		CostUSD:  resp.CostUSD,
	})
}

func (r *Router) dispatch(ctx context.Context, tier Tier, req providers.GenerateRequest) (*providers.NormalizedResponse, error) {
	binding, ok := r.bindings[tier]
	if !ok || binding.Provider == nil {
		return nil, fmt.Errorf("router: no provider bound for tier %q", tier)
	}
	callReq := req
	if callReq.Model == "" {
		callReq.Model = binding.Model
	}
	return binding.Provider.Generate(ctx, callReq)
}

func estimatedTokens(req providers.GenerateRequest) int {
	total := tokenbudget.Estimate(req.System)
	for _, m := range req.Messages {
		total += tokenbudget.Estimate(m.Content)
	}
	return total
}

func lastUserContent(messages []models.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
