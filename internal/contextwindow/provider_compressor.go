package contextwindow

import (
	"context"
	"fmt"
	"strings"

	"github.com/nexuscore/agentcore/internal/providers"
	"github.com/nexuscore/agentcore/pkg/models"
)

const summarizeInstruction = "Summarize the following conversation history concisely, " +
	"preserving facts, decisions, and open action items. Output only the summary."

// ProviderCompressor implements Compressor by asking a bound provider (the
// cheapest local tier, ordinarily) to condense the transcript into prose.
// It never escalates to a cloud tier itself: compaction runs on the hot
// turn-loop path and spending cloud budget on summarization would compete
// with the budget a real user turn needs.
type ProviderCompressor struct {
	Provider providers.Provider
	Model    string
}

var _ Compressor = ProviderCompressor{}

// Summarize renders messages as a flat transcript and asks the bound
// provider to condense it to maxTokens.
func (c ProviderCompressor) Summarize(ctx context.Context, messages []models.Message, maxTokens int) (string, error) {
	if c.Provider == nil {
		return "", fmt.Errorf("contextwindow: no provider bound for summarization")
	}

	var transcript strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&transcript, "%s: %s\n", m.Role, m.Content)
	}

	resp, err := c.Provider.Generate(ctx, providers.GenerateRequest{
		System:    summarizeInstruction,
		Model:     c.Model,
		MaxTokens: maxTokens,
		Messages: []models.Message{
			{Role: models.RoleUser, Content: transcript.String()},
		},
	})
	if err != nil {
		return "", fmt.Errorf("contextwindow: summarizing: %w", err)
	}
	return resp.Content, nil
}
