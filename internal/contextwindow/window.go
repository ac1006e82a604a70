// Package contextwindow implements the two context-management strategies
// that act on a session's conversation history: a sliding window that
// truncates to fit the current token budget, and a two-phase cooperative
// compaction that gives the model one turn to save facts to memory before
// the older history is summarized away.
package contextwindow

import (
	"context"
	"strings"

	"github.com/nexuscore/agentcore/internal/tokenbudget"
	"github.com/nexuscore/agentcore/pkg/models"
)

// Compressor summarizes messages into a short text, hard-truncated to
// maxTokens by the caller. A fast/cheap model tier is expected to back it;
// on error callers fall back to FallbackSummary.
type Compressor interface {
	Summarize(ctx context.Context, messages []models.Message, maxTokens int) (string, error)
}

const conversationSummaryPrefix = "[Conversation summary] "

// windowReserveRatio is the fraction of the conversation budget retained
// for the prefix summary; the remaining 0.80 holds verbatim suffix.
const windowReserveRatio = 0.20

// MessageTokens estimates a message's token cost from its content; tool
// call/result payloads are not separately counted; the content already
// carries everything relevant for this estimator's purpose (a cheap proxy
// for truncation decisions, not a billing figure).
func MessageTokens(m models.Message) int {
	return tokenbudget.Estimate(m.Content)
}

// totalTokens sums MessageTokens across messages.
func totalTokens(messages []models.Message) int {
	total := 0
	for _, m := range messages {
		total += MessageTokens(m)
	}
	return total
}

// Apply implements the sliding-window strategy: when the conversation
// exceeds budget, retain the longest suffix fitting within
// 0.80*budget and prepend a system-role summary of the dropped prefix.
func Apply(ctx context.Context, messages []models.Message, budget int, compressor Compressor) []models.Message {
	if budget <= 0 || totalTokens(messages) <= budget {
		return messages
	}

	reserve := int(float64(budget) * windowReserveRatio)
	retainBudget := budget - reserve

	splitIdx := len(messages)
	used := 0
	for i := len(messages) - 1; i >= 0; i-- {
		cost := MessageTokens(messages[i])
		if used+cost > retainBudget {
			break
		}
		used += cost
		splitIdx = i
	}

	dropped := messages[:splitIdx]
	retained := messages[splitIdx:]
	if len(dropped) == 0 {
		return retained
	}

	summary := summarizeFor(ctx, dropped, reserve, compressor)
	summaryMsg := models.Message{
		Role:    models.RoleSystem,
		Content: conversationSummaryPrefix + tokenbudget.TruncateTo(summary, reserve),
	}

	out := make([]models.Message, 0, len(retained)+1)
	out = append(out, summaryMsg)
	out = append(out, retained...)
	return out
}

func summarizeFor(ctx context.Context, messages []models.Message, maxTokens int, compressor Compressor) string {
	if compressor != nil {
		if text, err := compressor.Summarize(ctx, messages, maxTokens); err == nil {
			return text
		}
	}
	return FallbackSummary(messages)
}

// FallbackSummary is the deterministic summary used when no Compressor is
// available or the Compressor errors: the first non-empty line of each
// user message, one per bullet.
func FallbackSummary(messages []models.Message) string {
	var sb strings.Builder
	for _, m := range messages {
		if m.Role != models.RoleUser {
			continue
		}
		line := firstNonEmptyLine(m.Content)
		if line == "" {
			continue
		}
		sb.WriteString("- ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func firstNonEmptyLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
