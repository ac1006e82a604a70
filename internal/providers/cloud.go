package providers

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nexuscore/agentcore/internal/backoff"
	"github.com/nexuscore/agentcore/internal/usage"
	"github.com/nexuscore/agentcore/pkg/models"
)

// CloudConfig configures an OpenAI-compatible cloud provider.
type CloudConfig struct {
	Name         string // reported by Name(); defaults to "openai"
	APIKey       string
	BaseURL      string // empty uses OpenAI's default endpoint
	DefaultModel string
	MaxRetries   int
}

// CloudProvider is a second, OpenAI-compatible cloud tier. It exists
// alongside AnthropicProvider so the router can escalate across two
// distinct cloud vendors rather than a single point of failure.
type CloudProvider struct {
	client       *openai.Client
	name         string
	hasKey       bool
	defaultModel string
	maxRetries   int
}

var _ Provider = (*CloudProvider)(nil)

func NewCloudProvider(cfg CloudConfig) *CloudProvider {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "openai"
	}
	defaultModel := cfg.DefaultModel
	if defaultModel == "" {
		defaultModel = "gpt-4o"
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var client *openai.Client
	if cfg.APIKey != "" {
		oaCfg := openai.DefaultConfig(cfg.APIKey)
		if strings.TrimSpace(cfg.BaseURL) != "" {
			oaCfg.BaseURL = cfg.BaseURL
		}
		client = openai.NewClientWithConfig(oaCfg)
	}

	return &CloudProvider{
		client:       client,
		name:         name,
		hasKey:       cfg.APIKey != "",
		defaultModel: defaultModel,
		maxRetries:   maxRetries,
	}
}

func (p *CloudProvider) Name() string  { return p.name }
func (p *CloudProvider) IsLocal() bool { return false }

func (p *CloudProvider) Available(ctx context.Context) bool {
	return p.hasKey
}

func (p *CloudProvider) ModelLoaded(ctx context.Context, model string) bool {
	return p.hasKey
}

func (p *CloudProvider) Generate(ctx context.Context, req GenerateRequest) (*NormalizedResponse, error) {
	return p.generate(ctx, req, nil)
}

func (p *CloudProvider) GenerateStream(ctx context.Context, req GenerateRequest, sink StreamSink) (*NormalizedResponse, error) {
	return p.generate(ctx, req, sink)
}

func (p *CloudProvider) generate(ctx context.Context, req GenerateRequest, sink StreamSink) (*NormalizedResponse, error) {
	if !p.hasKey {
		return nil, NewSecurityError(p.name, "API key not configured")
	}

	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    buildOpenAIMessages(req),
		Stream:      true,
		Temperature: float32(req.Temperature),
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = toOpenAITools(req.Tools)
	}

	policy := backoff.DefaultPolicy()
	var lastErr error
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := p.runStream(ctx, chatReq, model, sink)
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

func (p *CloudProvider) runStream(ctx context.Context, chatReq openai.ChatCompletionRequest, model string, sink StreamSink) (*NormalizedResponse, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return nil, NewProviderError(p.name, model, 0, err)
	}
	defer stream.Close()

	var text strings.Builder
	toolArgs := map[int]*strings.Builder{}
	toolNames := map[int]string{}
	toolIDs := map[int]string{}
	var toolOrder []int
	finish := FinishStop
	var inTok, outTok int

	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, NewProviderError(p.name, model, 0, err)
		}
		if chunk.Usage != nil {
			inTok = chunk.Usage.PromptTokens
			outTok = chunk.Usage.CompletionTokens
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]
		if choice.Delta.Content != "" {
			text.WriteString(choice.Delta.Content)
			if sink != nil {
				sink(choice.Delta.Content)
			}
		}
		for _, tc := range choice.Delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			if _, ok := toolArgs[idx]; !ok {
				toolArgs[idx] = &strings.Builder{}
				toolOrder = append(toolOrder, idx)
			}
			if tc.ID != "" {
				toolIDs[idx] = tc.ID
			}
			if tc.Function.Name != "" {
				toolNames[idx] = tc.Function.Name
			}
			toolArgs[idx].WriteString(tc.Function.Arguments)
		}
		switch choice.FinishReason {
		case openai.FinishReasonToolCalls:
			finish = FinishToolUse
		case openai.FinishReasonLength:
			finish = FinishLength
		}
	}

	var toolCalls []models.ToolCall
	for _, idx := range toolOrder {
		toolCalls = append(toolCalls, models.ToolCall{
			ID:        toolIDs[idx],
			Name:      toolNames[idx],
			Arguments: decodeArgs(json.RawMessage(toolArgs[idx].String())),
		})
	}
	if len(toolCalls) > 0 {
		finish = FinishToolUse
	}

	u := usage.Usage{InputTokens: int64(inTok), OutputTokens: int64(outTok)}
	return &NormalizedResponse{
		Content:      text.String(),
		ToolCalls:    toolCalls,
		Model:        model,
		Usage:        u,
		FinishReason: finish,
		CostUSD:      PriceFor(model).Estimate(u),
	}, nil
}

func buildOpenAIMessages(req GenerateRequest) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if system := strings.TrimSpace(req.System); system != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case models.RoleAssistant:
			m := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: msg.Content}
			for _, tc := range msg.ToolCalls {
				args, _ := json.Marshal(tc.Arguments)
				if len(args) == 0 {
					args = []byte(`{}`)
				}
				m.ToolCalls = append(m.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: string(args),
					},
				})
			}
			out = append(out, m)
		case models.RoleTool:
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    msg.Content,
				ToolCallID: msg.ToolCallID,
			})
		case models.RoleSystem:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: msg.Content})
		default:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: msg.Content})
		}
	}
	return out
}
