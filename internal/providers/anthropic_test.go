package providers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nexuscore/agentcore/internal/tools"
	"github.com/nexuscore/agentcore/pkg/models"
)

func TestNewAnthropicProvider_NoKey(t *testing.T) {
	p := NewAnthropicProvider(AnthropicConfig{})
	if p.Available(context.Background()) {
		t.Error("provider with no API key should report unavailable")
	}
	if p.Name() != "anthropic" {
		t.Errorf("got name %q", p.Name())
	}
	if p.IsLocal() {
		t.Error("anthropic provider must not report IsLocal()")
	}
}

func TestAnthropicProvider_GenerateWithoutKeyFails(t *testing.T) {
	p := NewAnthropicProvider(AnthropicConfig{})
	_, err := p.Generate(context.Background(), GenerateRequest{Model: "claude-sonnet-4-20250514"})
	if err == nil {
		t.Fatal("expected error when API key is missing")
	}
	var secErr *SecurityError
	if !errors.As(err, &secErr) {
		t.Fatalf("expected SecurityError, got %T: %v", err, err)
	}
}

func TestConvertMessagesToAnthropic_SkipsSystemRole(t *testing.T) {
	msgs := []models.Message{
		{Role: models.RoleSystem, Content: "ignored"},
		{Role: models.RoleUser, Content: "hello"},
	}
	out, err := convertMessagesToAnthropic(msgs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected system message to be dropped, got %d messages", len(out))
	}
}

func TestConvertMessagesToAnthropic_ToolResultBlock(t *testing.T) {
	msgs := []models.Message{
		{Role: models.RoleTool, Content: "result text", ToolCallID: "call_1", Success: true},
	}
	out, err := convertMessagesToAnthropic(msgs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one converted message, got %d", len(out))
	}
}

func TestConvertToolsToAnthropic_InvalidSchema(t *testing.T) {
	defs := []tools.ToolDefinition{
		{Name: "broken", Parameters: json.RawMessage(`{not valid json`)},
	}
	_, err := convertToolsToAnthropic(defs)
	if err == nil {
		t.Fatal("expected error for invalid tool schema")
	}
}

func TestConvertToolsToAnthropic_Valid(t *testing.T) {
	defs := []tools.ToolDefinition{
		{
			Name:        "get_weather",
			Description: "fetch current weather",
			Parameters:  json.RawMessage(`{"type":"object","properties":{"city":{"type":"string"}}}`),
		},
	}
	out, err := convertToolsToAnthropic(defs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one converted tool, got %d", len(out))
	}
}

func TestMaxTokensOrDefault(t *testing.T) {
	if got := maxTokensOrDefault(0); got != 4096 {
		t.Errorf("got %d, want 4096", got)
	}
	if got := maxTokensOrDefault(500); got != 500 {
		t.Errorf("got %d, want 500", got)
	}
}

func TestFinishAnthropic_ToolUse(t *testing.T) {
	resp := finishAnthropic("", []models.ToolCall{{ID: "1", Name: "x"}}, "claude-sonnet-4-20250514", 10, 5, "tool_use")
	if resp.FinishReason != FinishToolUse {
		t.Errorf("got %s, want tool_use", resp.FinishReason)
	}
}

func TestFinishAnthropic_MaxTokens(t *testing.T) {
	resp := finishAnthropic("partial", nil, "claude-sonnet-4-20250514", 10, 5, "max_tokens")
	if resp.FinishReason != FinishLength {
		t.Errorf("got %s, want length", resp.FinishReason)
	}
}

func TestFinishAnthropic_CostComputed(t *testing.T) {
	resp := finishAnthropic("hi", nil, "claude-sonnet-4-20250514", 1_000_000, 1_000_000, "end_turn")
	if resp.CostUSD != 18.0 {
		t.Errorf("got cost %v, want 18.0", resp.CostUSD)
	}
}
