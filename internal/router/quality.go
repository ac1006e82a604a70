package router

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/nexuscore/agentcore/internal/providers"
	"github.com/nexuscore/agentcore/internal/tools"
)

const repetitionWindow = 50

var sentenceEnders = []rune{'.', '!', '?', '"', '\'', ')', '`'}

// lowQuality runs the low-quality predictor over a local response. It
// returns the failing reason and true, or ("", false) when the response
// passes. defs supplies each tool's JSON Schema so malformed-call detection
// can tell a genuinely-empty-arguments call from one the tool didn't need
// arguments for.
func lowQuality(resp *providers.NormalizedResponse, defs []tools.ToolDefinition) (Reason, bool) {
	if resp == nil {
		return ReasonQualityEmpty, true
	}

	trimmed := strings.TrimSpace(resp.Content)

	if trimmed == "" && resp.FinishReason != providers.FinishToolUse {
		return ReasonQualityEmpty, true
	}

	if len(trimmed) > 0 && len(trimmed) < 10 {
		return ReasonQualityTooShort, true
	}

	if len(trimmed) >= repetitionWindow && repetitionRatio(trimmed) > 0.5 {
		return ReasonQualityRepetitive, true
	}

	if resp.FinishReason == providers.FinishToolUse {
		schemas := requiredParamsByName(defs)
		for _, call := range resp.ToolCalls {
			if toolCallMalformed(call.Arguments, schemas[call.Name]) {
				return ReasonQualityMalformed, true
			}
		}
	}

	if resp.FinishReason == providers.FinishStop && trimmed != "" && !endsWithSentencePunct(trimmed) {
		return ReasonQualityCutOff, true
	}

	return "", false
}

// repetitionRatio returns 1 - (unique words / total words) over the
// lowercased word split of text.
func repetitionRatio(text string) float64 {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[w] = struct{}{}
	}
	uniqueRatio := float64(len(seen)) / float64(len(words))
	return 1 - uniqueRatio
}

func endsWithSentencePunct(text string) bool {
	r := []rune(strings.TrimSpace(text))
	if len(r) == 0 {
		return false
	}
	last := r[len(r)-1]
	for _, ender := range sentenceEnders {
		if last == ender {
			return true
		}
	}
	return unicode.IsSpace(last)
}

func requiredParamsByName(defs []tools.ToolDefinition) map[string][]string {
	out := make(map[string][]string, len(defs))
	for _, d := range defs {
		if len(d.Parameters) == 0 {
			continue
		}
		var schema struct {
			Required []string `json:"required"`
		}
		if err := json.Unmarshal(d.Parameters, &schema); err != nil {
			continue
		}
		out[d.Name] = schema.Required
	}
	return out
}

// toolCallMalformed reports whether a tool call's arguments are absent
// while the tool's schema declares at least one required parameter.
func toolCallMalformed(args map[string]any, required []string) bool {
	if len(required) == 0 {
		return false
	}
	return len(args) == 0
}
