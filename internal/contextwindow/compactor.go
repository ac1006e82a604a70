package contextwindow

import (
	"context"
	"strings"

	"github.com/nexuscore/agentcore/internal/tokenbudget"
	"github.com/nexuscore/agentcore/pkg/models"
)

// flushMarker is the fixed content prefix of the phase-1 flush instruction;
// Compact strips any remaining messages carrying it from the retained
// suffix.
const flushMarker = "[SYSTEM — CONTEXT MAINTENANCE]"

const flushBody = flushMarker + "\nContext is nearing its budget. You have one turn to call memory-write " +
	"tools for anything worth preserving before older history is summarized away."

const compactedContextPrefix = "[Compacted context] "

// DefaultSoftThreshold is the fraction of the conversation budget at which
// Phase 1 (flush) triggers.
const DefaultSoftThreshold = 0.75

// DefaultPreservedTurns is how many of the most recent assistant messages
// Phase 2 (compact) always keeps verbatim.
const DefaultPreservedTurns = 3

// Compactor runs the two-phase cooperative compaction: NeedsFlush decides
// whether to inject the phase-1 instruction, Compact performs the phase-2
// summarization once the model has had its turn.
type Compactor struct {
	SoftThreshold    float64
	PreservedTurns   int
	Compressor       Compressor
	SummaryMaxTokens int
}

// NewCompactor builds a Compactor with spec defaults for any zero field.
func NewCompactor(compressor Compressor) *Compactor {
	return &Compactor{
		SoftThreshold:    DefaultSoftThreshold,
		PreservedTurns:   DefaultPreservedTurns,
		Compressor:       compressor,
		SummaryMaxTokens: 500,
	}
}

// NeedsFlush reports whether Phase 1 should fire: usage at or above the
// soft threshold, compaction enabled, and no flush already in progress.
func (c *Compactor) NeedsFlush(messages []models.Message, conversationBudget int, enabled, flushInProgress bool) bool {
	if !enabled || flushInProgress || conversationBudget <= 0 {
		return false
	}
	threshold := c.SoftThreshold
	if threshold <= 0 {
		threshold = DefaultSoftThreshold
	}
	return float64(totalTokens(messages)) >= threshold*float64(conversationBudget)
}

// FlushMessage builds the Phase 1 instruction message. Appending it and
// setting the session's flush-in-progress flag is the caller's job.
func FlushMessage() models.Message {
	return models.Message{Role: models.RoleUser, Content: flushBody}
}

// Compact performs Phase 2: it splits the history just after the
// (N+1)th-from-last assistant message, so the retained suffix holds the
// last N assistant messages, summarizes everything before the split
// (truncated to SummaryMaxTokens), strips any leftover flush-marker
// messages from the retained suffix, and
// returns the replacement history. If fewer than PreservedTurns+1
// assistant messages exist, messages is returned unchanged (nothing to
// compact yet).
func (c *Compactor) Compact(ctx context.Context, messages []models.Message) []models.Message {
	preserved := c.PreservedTurns
	if preserved <= 0 {
		preserved = DefaultPreservedTurns
	}

	splitIdx, ok := splitBeforeNthLastAssistant(messages, preserved)
	if !ok {
		return messages
	}

	older := messages[:splitIdx]
	retained := stripFlushMarkers(messages[splitIdx:])

	maxTokens := c.SummaryMaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}
	summary := summarizeFor(ctx, older, maxTokens, c.Compressor)

	summaryMsg := models.Message{
		Role:    models.RoleSystem,
		Content: compactedContextPrefix + tokenbudget.TruncateTo(summary, maxTokens),
	}

	out := make([]models.Message, 0, len(retained)+1)
	out = append(out, summaryMsg)
	out = append(out, retained...)
	return out
}

// splitBeforeNthLastAssistant returns the index just after the (n+1)th
// assistant message counting from the end, so messages[idx:] holds exactly
// the last n assistant messages, and false if fewer than n+1 assistant
// messages exist.
func splitBeforeNthLastAssistant(messages []models.Message, n int) (int, bool) {
	count := 0
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleAssistant {
			count++
			if count == n+1 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

func stripFlushMarkers(messages []models.Message) []models.Message {
	out := make([]models.Message, 0, len(messages))
	for _, m := range messages {
		if strings.HasPrefix(m.Content, flushMarker) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// IsFlushMarker reports whether m is a Phase 1 flush-instruction message,
// for callers that need to recognize one without importing this package's
// internal constant.
func IsFlushMarker(m models.Message) bool {
	return strings.HasPrefix(m.Content, flushMarker)
}
