package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/nexuscore/agentcore/internal/usage"
	"github.com/nexuscore/agentcore/pkg/models"
)

// LocalConfig configures the self-hosted (Ollama-compatible) provider.
type LocalConfig struct {
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
	// KeepAlive is forwarded as the top-level Ollama "keep_alive" field,
	// controlling how long the model stays resident in the server's memory
	// after this request. Ollama's own default is "5m".
	KeepAlive string
}

// LocalProvider talks to an Ollama-compatible /api/chat endpoint. It never
// reports a cost: local inference is free.
type LocalProvider struct {
	client       *http.Client
	baseURL      string
	defaultModel string
	keepAlive    string
}

var _ Provider = (*LocalProvider)(nil)

// NewLocalProvider creates a LocalProvider, defaulting to the standard
// Ollama localhost port.
func NewLocalProvider(cfg LocalConfig) *LocalProvider {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	keepAlive := strings.TrimSpace(cfg.KeepAlive)
	if keepAlive == "" {
		keepAlive = "5m"
	}
	return &LocalProvider{
		client:       &http.Client{Timeout: timeout},
		baseURL:      baseURL,
		defaultModel: strings.TrimSpace(cfg.DefaultModel),
		keepAlive:    keepAlive,
	}
}

func (p *LocalProvider) Name() string  { return "ollama" }
func (p *LocalProvider) IsLocal() bool { return true }

// Available performs a cheap GET against /api/tags; it never sends a
// generation request and so never consumes tokens.
func (p *LocalProvider) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < http.StatusBadRequest
}

// ModelLoaded reports whether model appears in the local tag list.
func (p *LocalProvider) ModelLoaded(ctx context.Context, model string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return false
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false
	}
	for _, m := range tags.Models {
		if m.Name == model {
			return true
		}
	}
	return false
}

func (p *LocalProvider) Generate(ctx context.Context, req GenerateRequest) (*NormalizedResponse, error) {
	return p.chat(ctx, req, nil)
}

func (p *LocalProvider) GenerateStream(ctx context.Context, req GenerateRequest, sink StreamSink) (*NormalizedResponse, error) {
	return p.chat(ctx, req, sink)
}

func (p *LocalProvider) chat(ctx context.Context, req GenerateRequest, sink StreamSink) (*NormalizedResponse, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.defaultModel
	}
	if model == "" {
		return nil, NewProviderError("ollama", req.Model, 0, fmt.Errorf("model is required"))
	}

	payload := ollamaChatRequest{
		Model:     model,
		Stream:    true,
		Messages:  buildOllamaMessages(req),
		KeepAlive: p.keepAlive,
		Options:   map[string]any{"temperature": req.Temperature},
	}
	if len(req.Tools) > 0 {
		payload.Tools = toOpenAITools(req.Tools)
	}
	if req.MaxTokens > 0 {
		payload.Options["num_predict"] = req.MaxTokens
	}
	if req.ContextWindow > 0 {
		payload.Options["num_ctx"] = req.ContextWindow
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewProviderError("ollama", model, 0, fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, NewProviderError("ollama", model, 0, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, NewProviderError("ollama", model, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, NewProviderError("ollama", model, resp.StatusCode, fmt.Errorf("ollama status %d: %s", resp.StatusCode, strings.TrimSpace(string(errBody))))
	}

	return p.readNDJSON(ctx, resp.Body, model, sink)
}

func (p *LocalProvider) readNDJSON(ctx context.Context, body io.Reader, model string, sink StreamSink) (*NormalizedResponse, error) {
	scanner := bufio.NewScanner(body)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var text strings.Builder
	var toolCalls []models.ToolCall
	seen := map[string]struct{}{}
	var inTok, outTok int

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var chunk ollamaChatResponse
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			return nil, NewProviderError("ollama", model, 0, fmt.Errorf("decode response: %w", err))
		}
		if chunk.Error != "" {
			return nil, NewProviderError("ollama", model, 0, fmt.Errorf("%s", chunk.Error))
		}
		if chunk.Message != nil {
			if chunk.Message.Content != "" {
				text.WriteString(chunk.Message.Content)
				if sink != nil {
					sink(chunk.Message.Content)
				}
			}
			for _, tc := range chunk.Message.ToolCalls {
				id := strings.TrimSpace(tc.ID)
				if id == "" {
					id = uuid.NewString()
				}
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				toolCalls = append(toolCalls, models.ToolCall{
					ID:        id,
					Name:      strings.TrimSpace(tc.Function.Name),
					Arguments: decodeArgs(tc.Function.Arguments),
				})
			}
		}
		if chunk.Done {
			inTok, outTok = chunk.PromptEvalCount, chunk.EvalCount
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, NewProviderError("ollama", model, 0, err)
	}

	finish := FinishStop
	if len(toolCalls) > 0 {
		finish = FinishToolUse
	}

	return &NormalizedResponse{
		Content:      text.String(),
		ToolCalls:    toolCalls,
		Model:        model,
		Usage:        usage.Usage{InputTokens: int64(inTok), OutputTokens: int64(outTok)},
		FinishReason: finish,
		CostUSD:      0,
	}, nil
}

func decodeArgs(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}

type ollamaChatRequest struct {
	Model     string              `json:"model"`
	Messages  []ollamaChatMessage `json:"messages"`
	Tools     []openai.Tool       `json:"tools,omitempty"`
	Stream    bool                `json:"stream"`
	Options   map[string]any      `json:"options,omitempty"`
	KeepAlive string              `json:"keep_alive,omitempty"`
}

type ollamaChatMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content,omitempty"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
	ToolName  string           `json:"tool_name,omitempty"`
}

type ollamaChatResponse struct {
	Message         *ollamaChatMessage `json:"message"`
	Done            bool               `json:"done"`
	Error           string             `json:"error"`
	EvalCount       int                `json:"eval_count"`
	PromptEvalCount int                `json:"prompt_eval_count"`
}

type ollamaToolCall struct {
	ID       string             `json:"id,omitempty"`
	Type     string             `json:"type,omitempty"`
	Function ollamaToolFunction `json:"function"`
}

type ollamaToolFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

func buildOllamaMessages(req GenerateRequest) []ollamaChatMessage {
	out := make([]ollamaChatMessage, 0, len(req.Messages)+1)
	toolNames := map[string]string{}
	for _, msg := range req.Messages {
		for _, tc := range msg.ToolCalls {
			if tc.ID != "" && tc.Name != "" {
				toolNames[tc.ID] = tc.Name
			}
		}
	}

	if system := strings.TrimSpace(req.System); system != "" {
		out = append(out, ollamaChatMessage{Role: "system", Content: system})
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case models.RoleAssistant:
			m := ollamaChatMessage{Role: "assistant", Content: msg.Content}
			for _, tc := range msg.ToolCalls {
				args, _ := json.Marshal(tc.Arguments)
				if len(args) == 0 {
					args = []byte(`{}`)
				}
				m.ToolCalls = append(m.ToolCalls, ollamaToolCall{
					ID:       tc.ID,
					Type:     "function",
					Function: ollamaToolFunction{Name: tc.Name, Arguments: args},
				})
			}
			out = append(out, m)
		case models.RoleTool:
			out = append(out, ollamaChatMessage{
				Role:     "tool",
				Content:  msg.Content,
				ToolName: toolNames[msg.ToolCallID],
			})
		case models.RoleSystem:
			out = append(out, ollamaChatMessage{Role: "system", Content: msg.Content})
		default:
			out = append(out, ollamaChatMessage{Role: "user", Content: msg.Content})
		}
	}
	return out
}
