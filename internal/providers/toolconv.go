package providers

import (
	"encoding/json"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nexuscore/agentcore/internal/tools"
)

// toOpenAITools converts tool definitions into the OpenAI/Ollama
// function-calling declaration shape.
func toOpenAITools(defs []tools.ToolDefinition) []openai.Tool {
	out := make([]openai.Tool, 0, len(defs))
	for _, d := range defs {
		var params any
		if len(d.Parameters) > 0 {
			_ = json.Unmarshal(d.Parameters, &params)
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  params,
			},
		})
	}
	return out
}
