package router

import (
	"context"
	"testing"

	"github.com/nexuscore/agentcore/internal/audit"
	"github.com/nexuscore/agentcore/internal/providers"
	"github.com/nexuscore/agentcore/internal/tools"
	"github.com/nexuscore/agentcore/internal/usage"
	"github.com/nexuscore/agentcore/pkg/models"
)

type fakeProvider struct {
	name      string
	local     bool
	responses []*providers.NormalizedResponse
	errs      []error
	calls     int
}

func (f *fakeProvider) Name() string  { return f.name }
func (f *fakeProvider) IsLocal() bool { return f.local }

func (f *fakeProvider) Generate(ctx context.Context, req providers.GenerateRequest) (*providers.NormalizedResponse, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return f.responses[len(f.responses)-1], nil
}

func (f *fakeProvider) GenerateStream(ctx context.Context, req providers.GenerateRequest, sink providers.StreamSink) (*providers.NormalizedResponse, error) {
	return f.Generate(ctx, req)
}

func (f *fakeProvider) Available(ctx context.Context) bool            { return true }
func (f *fakeProvider) ModelLoaded(ctx context.Context, m string) bool { return true }

func testLogger(t *testing.T) *audit.Logger {
	t.Helper()
	logger, err := audit.NewLogger(audit.Config{Enabled: false})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	return logger
}

func testBudget(t *testing.T, dailyLimit float64) *usage.Tracker {
	t.Helper()
	tr, err := usage.NewTracker(usage.Config{DailyLimitUSD: dailyLimit})
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	return tr
}

func goodResponse(content string) *providers.NormalizedResponse {
	return &providers.NormalizedResponse{Content: content, FinishReason: providers.FinishStop}
}

func baseReq() providers.GenerateRequest {
	return providers.GenerateRequest{
		Messages: []models.Message{{Role: models.RoleUser, Content: "hello there, how are you today?"}},
	}
}

func TestResolveTier_Default(t *testing.T) {
	cfg := Config{DefaultTier: TierWorkhorse}
	res := cfg.resolveTier(false, false, "", "", "hi")
	if res.Tier != TierWorkhorse || res.Reason != ReasonDefault {
		t.Fatalf("got %+v", res)
	}
}

func TestResolveTier_CallerTier(t *testing.T) {
	cfg := Config{DefaultTier: TierWorkhorse}
	res := cfg.resolveTier(false, false, TierCoder, "", "hi")
	if res.Tier != TierCoder || res.Reason != ReasonCallerTier {
		t.Fatalf("got %+v", res)
	}
}

func TestResolveTier_Skill(t *testing.T) {
	cfg := Config{DefaultTier: TierWorkhorse, SkillTiers: map[string]Tier{"coding": TierCoder}}
	res := cfg.resolveTier(false, false, "", "coding", "hi")
	if res.Tier != TierCoder || res.Reason != ReasonSkill {
		t.Fatalf("got %+v", res)
	}
}

func TestResolveTier_Keyword(t *testing.T) {
	cfg := Config{
		DefaultTier:  TierWorkhorse,
		KeywordRules: []KeywordRule{{Keyword: "refactor", Tier: TierCoder}},
	}
	res := cfg.resolveTier(false, false, "", "", "please refactor this function")
	if res.Tier != TierCoder || res.Reason != ReasonKeyword {
		t.Fatalf("got %+v", res)
	}
}

func TestResolveTier_ForcedLocal(t *testing.T) {
	cfg := Config{DefaultTier: TierWorkhorse, FallbackLocalTier: TierWhisper}
	res := cfg.resolveTier(false, true, TierCoder, "", "hi")
	if res.Tier != TierWhisper || res.Reason != ReasonUserOverride {
		t.Fatalf("got %+v", res)
	}
}

func TestResolveTier_ForcedCloud(t *testing.T) {
	cfg := Config{DefaultTier: TierWorkhorse}
	res := cfg.resolveTier(true, false, "", "", "hi")
	if res.Tier != TierCloudFast || res.Reason != ReasonUserOverride {
		t.Fatalf("got %+v", res)
	}
}

func TestRouter_Generate_LocalSuccess(t *testing.T) {
	local := &fakeProvider{name: "ollama", local: true, responses: []*providers.NormalizedResponse{goodResponse("a full sentence here.")}}
	cfg := Config{DefaultTier: TierWorkhorse, EscalationEnabled: true, FallbackLocalTier: TierWorkhorse, MaxLocalRetries: 2}
	bindings := map[Tier]Binding{TierWorkhorse: {Provider: local, Model: "llama3"}}
	r := New(cfg, bindings, testBudget(t, 10), testLogger(t))

	result, err := r.Generate(context.Background(), models.NewSession("s1", models.SourceInteractive), baseReq(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Tier != TierWorkhorse || result.Reason != ReasonDefault {
		t.Fatalf("got %+v", result)
	}
}

func TestRouter_Generate_EscalatesOnLowQuality(t *testing.T) {
	local := &fakeProvider{name: "ollama", local: true, responses: []*providers.NormalizedResponse{goodResponse("")}}
	cloud := &fakeProvider{name: "anthropic", responses: []*providers.NormalizedResponse{goodResponse("a complete, useful answer.")}}
	cfg := Config{DefaultTier: TierWorkhorse, EscalationEnabled: true, FallbackLocalTier: TierWorkhorse, MaxLocalRetries: 1}
	bindings := map[Tier]Binding{
		TierWorkhorse: {Provider: local, Model: "llama3"},
		TierCloudFast: {Provider: cloud, Model: "claude-3-5-sonnet-20241022"},
	}
	r := New(cfg, bindings, testBudget(t, 10), testLogger(t))

	result, err := r.Generate(context.Background(), models.NewSession("s1", models.SourceInteractive), baseReq(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Tier != TierCloudFast || result.EscalatedFrom != TierWorkhorse || result.Reason != ReasonQualityEmpty {
		t.Fatalf("got %+v", result)
	}
}

func TestRouter_Generate_BudgetGateDowngrades(t *testing.T) {
	cloud := &fakeProvider{name: "anthropic", responses: []*providers.NormalizedResponse{goodResponse("would have been cloud")}}
	local := &fakeProvider{name: "ollama", local: true, responses: []*providers.NormalizedResponse{goodResponse("a local fallback sentence.")}}
	cfg := Config{DefaultTier: TierWorkhorse, EscalationEnabled: true, FallbackLocalTier: TierWorkhorse, MaxLocalRetries: 1}
	bindings := map[Tier]Binding{
		TierWorkhorse: {Provider: local, Model: "llama3"},
		TierCloudFast: {Provider: cloud, Model: "claude-3-5-sonnet-20241022"},
	}
	r := New(cfg, bindings, testBudget(t, 0.000001), testLogger(t))

	result, err := r.Generate(context.Background(), models.NewSession("s1", models.SourceInteractive), baseReq(), Options{CallerTier: TierCloudFast})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Tier != TierWorkhorse || result.Reason != ReasonBudgetExceeded {
		t.Fatalf("got %+v", result)
	}
	if cloud.calls != 0 {
		t.Errorf("cloud provider should not have been called, calls=%d", cloud.calls)
	}
}

func TestRouter_Generate_EscalationDisabledForcesLocal(t *testing.T) {
	local := &fakeProvider{name: "ollama", local: true, responses: []*providers.NormalizedResponse{goodResponse("a local answer sentence.")}}
	cloud := &fakeProvider{name: "anthropic", responses: []*providers.NormalizedResponse{goodResponse("cloud answer")}}
	cfg := Config{DefaultTier: TierWorkhorse, EscalationEnabled: false, FallbackLocalTier: TierWorkhorse, MaxLocalRetries: 1}
	bindings := map[Tier]Binding{
		TierWorkhorse: {Provider: local, Model: "llama3"},
		TierCloudFast: {Provider: cloud, Model: "claude-3-5-sonnet-20241022"},
	}
	r := New(cfg, bindings, testBudget(t, 10), testLogger(t))

	result, err := r.Generate(context.Background(), models.NewSession("s1", models.SourceInteractive), baseReq(), Options{CallerTier: TierCloudFast})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Tier != TierWorkhorse || result.Reason != ReasonEscalationDisabled {
		t.Fatalf("got %+v", result)
	}
	if cloud.calls != 0 {
		t.Errorf("cloud provider should not have been called, calls=%d", cloud.calls)
	}
}

func TestRouter_Generate_TransientFailureEscalates(t *testing.T) {
	local := &fakeProvider{
		name: "ollama", local: true,
		errs: []error{providers.NewProviderError("ollama", "llama3", 503, errOverload), providers.NewProviderError("ollama", "llama3", 503, errOverload)},
	}
	cloud := &fakeProvider{name: "anthropic", responses: []*providers.NormalizedResponse{goodResponse("cloud saved the day.")}}
	cfg := Config{DefaultTier: TierWorkhorse, EscalationEnabled: true, FallbackLocalTier: TierWorkhorse, MaxLocalRetries: 2}
	bindings := map[Tier]Binding{
		TierWorkhorse: {Provider: local, Model: "llama3"},
		TierCloudFast: {Provider: cloud, Model: "claude-3-5-sonnet-20241022"},
	}
	r := New(cfg, bindings, testBudget(t, 10), testLogger(t))

	result, err := r.Generate(context.Background(), models.NewSession("s1", models.SourceInteractive), baseReq(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Tier != TierCloudFast || result.Reason != ReasonTransientFailure || result.EscalatedFrom != TierWorkhorse {
		t.Fatalf("got %+v", result)
	}
}

func TestLowQuality_Empty(t *testing.T) {
	resp := &providers.NormalizedResponse{Content: "   ", FinishReason: providers.FinishStop}
	if reason, bad := lowQuality(resp, nil); !bad || reason != ReasonQualityEmpty {
		t.Fatalf("got reason=%v bad=%v", reason, bad)
	}
}

func TestLowQuality_TooShort(t *testing.T) {
	resp := &providers.NormalizedResponse{Content: "ok", FinishReason: providers.FinishStop}
	if reason, bad := lowQuality(resp, nil); !bad || reason != ReasonQualityTooShort {
		t.Fatalf("got reason=%v bad=%v", reason, bad)
	}
}

func TestLowQuality_Repetitive(t *testing.T) {
	content := "go go go go go go go go go go go go go go go go go go go go"
	resp := &providers.NormalizedResponse{Content: content, FinishReason: providers.FinishStop}
	if reason, bad := lowQuality(resp, nil); !bad || reason != ReasonQualityRepetitive {
		t.Fatalf("got reason=%v bad=%v", reason, bad)
	}
}

func TestLowQuality_CutOff(t *testing.T) {
	resp := &providers.NormalizedResponse{Content: "this response just stops abruptly without punctuation", FinishReason: providers.FinishStop}
	if reason, bad := lowQuality(resp, nil); !bad || reason != ReasonQualityCutOff {
		t.Fatalf("got reason=%v bad=%v", reason, bad)
	}
}

func TestLowQuality_MalformedToolCall(t *testing.T) {
	defs := []tools.ToolDefinition{
		{Name: "search", Parameters: []byte(`{"type":"object","properties":{"query":{"type":"string"}},"required":["query"]}`)},
	}
	resp := &providers.NormalizedResponse{
		FinishReason: providers.FinishToolUse,
		ToolCalls:    []models.ToolCall{{ID: "1", Name: "search", Arguments: nil}},
	}
	if reason, bad := lowQuality(resp, defs); !bad || reason != ReasonQualityMalformed {
		t.Fatalf("got reason=%v bad=%v", reason, bad)
	}
}

func TestLowQuality_WellFormedToolCallPasses(t *testing.T) {
	defs := []tools.ToolDefinition{
		{Name: "search", Parameters: []byte(`{"type":"object","properties":{"query":{"type":"string"}},"required":["query"]}`)},
	}
	resp := &providers.NormalizedResponse{
		FinishReason: providers.FinishToolUse,
		ToolCalls:    []models.ToolCall{{ID: "1", Name: "search", Arguments: map[string]any{"query": "weather"}}},
	}
	if _, bad := lowQuality(resp, defs); bad {
		t.Fatal("well-formed tool call should pass quality gate")
	}
}

func TestLowQuality_GoodResponsePasses(t *testing.T) {
	resp := goodResponse("This is a perfectly normal, complete sentence.")
	if _, bad := lowQuality(resp, nil); bad {
		t.Fatal("well-formed response should pass quality gate")
	}
}

var errOverload = &testErr{"service overloaded"}

type testErr struct{ msg string }

func (e *testErr) Error() string { return e.msg }
