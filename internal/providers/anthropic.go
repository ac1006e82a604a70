package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/nexuscore/agentcore/internal/backoff"
	"github.com/nexuscore/agentcore/internal/tools"
	"github.com/nexuscore/agentcore/internal/usage"
	"github.com/nexuscore/agentcore/pkg/models"
)

// AnthropicConfig configures the Anthropic cloud provider.
type AnthropicConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	MaxRetries   int
}

// AnthropicProvider is the cloud backend over Anthropic's Messages API. The
// system prompt is passed separately from the message list, matching the
// API's own shape; tool-role messages become tool_result content blocks.
type AnthropicProvider struct {
	client       anthropic.Client
	hasKey       bool
	defaultModel string
	maxRetries   int
}

var _ Provider = (*AnthropicProvider)(nil)

// NewAnthropicProvider builds the provider even with an empty API key: a
// missing key surfaces as a SecurityError on first call, not at
// construction, so Available() can still report liveness as false.
func NewAnthropicProvider(cfg AnthropicConfig) *AnthropicProvider {
	defaultModel := cfg.DefaultModel
	if defaultModel == "" {
		defaultModel = "claude-sonnet-4-20250514"
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	opts := []option.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicProvider{
		client:       anthropic.NewClient(opts...),
		hasKey:       cfg.APIKey != "",
		defaultModel: defaultModel,
		maxRetries:   maxRetries,
	}
}

func (p *AnthropicProvider) Name() string  { return "anthropic" }
func (p *AnthropicProvider) IsLocal() bool { return false }

// Available reports only whether credentials are configured: a true liveness
// probe against Anthropic would itself consume tokens, which spec forbids.
func (p *AnthropicProvider) Available(ctx context.Context) bool {
	return p.hasKey
}

func (p *AnthropicProvider) ModelLoaded(ctx context.Context, model string) bool {
	return p.hasKey
}

func (p *AnthropicProvider) Generate(ctx context.Context, req GenerateRequest) (*NormalizedResponse, error) {
	return p.generate(ctx, req, nil)
}

func (p *AnthropicProvider) GenerateStream(ctx context.Context, req GenerateRequest, sink StreamSink) (*NormalizedResponse, error) {
	return p.generate(ctx, req, sink)
}

func (p *AnthropicProvider) generate(ctx context.Context, req GenerateRequest, sink StreamSink) (*NormalizedResponse, error) {
	if !p.hasKey {
		return nil, NewSecurityError("anthropic", "API key not configured")
	}

	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	messages, err := convertMessagesToAnthropic(req.Messages)
	if err != nil {
		return nil, NewProviderError("anthropic", model, 0, fmt.Errorf("convert messages: %w", err))
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  messages,
		MaxTokens: int64(maxTokensOrDefault(req.MaxTokens)),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: req.System}}
	}
	if len(req.Tools) > 0 {
		toolParams, err := convertToolsToAnthropic(req.Tools)
		if err != nil {
			return nil, NewProviderError("anthropic", model, 0, fmt.Errorf("convert tools: %w", err))
		}
		params.Tools = toolParams
	}

	policy := backoff.DefaultPolicy()
	var lastErr error
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := p.runStream(ctx, params, model, sink)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == p.maxRetries {
			return nil, err
		}
		if err := backoff.SleepWithBackoff(ctx, policy, attempt); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (p *AnthropicProvider) runStream(ctx context.Context, params anthropic.MessageNewParams, model string, sink StreamSink) (*NormalizedResponse, error) {
	stream := p.client.Messages.NewStreaming(ctx, params)

	var text strings.Builder
	var toolCalls []models.ToolCall
	var currentToolCall *models.ToolCall
	var currentInput strings.Builder
	var inputTok, outputTok int
	stopReason := ""

	for stream.Next() {
		event := stream.Current()
		switch event.Type {
		case "message_start":
			ms := event.AsMessageStart()
			if ms.Message.Usage.InputTokens > 0 {
				inputTok = int(ms.Message.Usage.InputTokens)
			}
		case "content_block_start":
			block := event.AsContentBlockStart().ContentBlock
			if block.Type == "tool_use" {
				toolUse := block.AsToolUse()
				currentToolCall = &models.ToolCall{ID: toolUse.ID, Name: toolUse.Name}
				currentInput.Reset()
			}
		case "content_block_delta":
			delta := event.AsContentBlockDelta().Delta
			switch delta.Type {
			case "text_delta":
				if delta.Text != "" {
					text.WriteString(delta.Text)
					if sink != nil {
						sink(delta.Text)
					}
				}
			case "input_json_delta":
				currentInput.WriteString(delta.PartialJSON)
			}
		case "content_block_stop":
			if currentToolCall != nil {
				currentToolCall.Arguments = decodeArgs(json.RawMessage(currentInput.String()))
				toolCalls = append(toolCalls, *currentToolCall)
				currentToolCall = nil
			}
		case "message_delta":
			md := event.AsMessageDelta()
			if md.Usage.OutputTokens > 0 {
				outputTok = int(md.Usage.OutputTokens)
			}
			stopReason = string(md.Delta.StopReason)
		case "message_stop":
			return finishAnthropic(text.String(), toolCalls, model, inputTok, outputTok, stopReason), nil
		}
	}
	if err := stream.Err(); err != nil {
		return nil, NewProviderError("anthropic", model, 0, err)
	}
	return finishAnthropic(text.String(), toolCalls, model, inputTok, outputTok, stopReason), nil
}

func finishAnthropic(text string, toolCalls []models.ToolCall, model string, inputTok, outputTok int, stopReason string) *NormalizedResponse {
	finish := FinishStop
	switch {
	case len(toolCalls) > 0 || stopReason == "tool_use":
		finish = FinishToolUse
	case stopReason == "max_tokens":
		finish = FinishLength
	}
	u := usage.Usage{InputTokens: int64(inputTok), OutputTokens: int64(outputTok)}
	return &NormalizedResponse{
		Content:      text,
		ToolCalls:    toolCalls,
		Model:        model,
		Usage:        u,
		FinishReason: finish,
		CostUSD:      PriceFor(model).Estimate(u),
	}
}

func maxTokensOrDefault(n int) int {
	if n <= 0 {
		return 4096
	}
	return n
}

func convertMessagesToAnthropic(messages []models.Message) ([]anthropic.MessageParam, error) {
	var out []anthropic.MessageParam
	for _, msg := range messages {
		if msg.Role == models.RoleSystem {
			continue
		}

		var content []anthropic.ContentBlockParamUnion
		if msg.Content != "" {
			content = append(content, anthropic.NewTextBlock(msg.Content))
		}
		if msg.Role == models.RoleTool {
			content = append(content, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, !msg.Success))
		}
		for _, tc := range msg.ToolCalls {
			content = append(content, anthropic.NewToolUseBlock(tc.ID, tc.Arguments, tc.Name))
		}
		if len(content) == 0 {
			continue
		}

		if msg.Role == models.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(content...))
		} else {
			out = append(out, anthropic.NewUserMessage(content...))
		}
	}
	return out, nil
}

func convertToolsToAnthropic(defs []tools.ToolDefinition) ([]anthropic.ToolUnionParam, error) {
	out := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, d := range defs {
		var schema anthropic.ToolInputSchemaParam
		if len(d.Parameters) > 0 {
			if err := json.Unmarshal(d.Parameters, &schema); err != nil {
				return nil, fmt.Errorf("invalid schema for tool %s: %w", d.Name, err)
			}
		}
		param := anthropic.ToolUnionParamOfTool(schema, d.Name)
		if param.OfTool == nil {
			return nil, fmt.Errorf("invalid tool definition for %s", d.Name)
		}
		param.OfTool.Description = anthropic.String(d.Description)
		out = append(out, param)
	}
	return out, nil
}
