package contextwindow

import (
	"context"
	"strings"
	"testing"

	"github.com/nexuscore/agentcore/pkg/models"
)

func TestCompactor_NeedsFlush(t *testing.T) {
	c := NewCompactor(nil)
	messages := []models.Message{msg(models.RoleUser, strings.Repeat("word ", 100))}

	if !c.NeedsFlush(messages, 100, true, false) {
		t.Error("expected flush needed when usage exceeds soft threshold")
	}
	if c.NeedsFlush(messages, 100, false, false) {
		t.Error("disabled compaction should never need a flush")
	}
	if c.NeedsFlush(messages, 100, true, true) {
		t.Error("a flush already in progress should not need another")
	}
}

func TestCompactor_NeedsFlush_BelowThreshold(t *testing.T) {
	c := NewCompactor(nil)
	messages := []models.Message{msg(models.RoleUser, "hi")}
	if c.NeedsFlush(messages, 10000, true, false) {
		t.Error("small history should not need a flush")
	}
}

func TestFlushMessage_CarriesMarker(t *testing.T) {
	m := FlushMessage()
	if !IsFlushMarker(m) {
		t.Fatal("FlushMessage output should be recognized by IsFlushMarker")
	}
	if m.Role != models.RoleUser {
		t.Fatalf("expected user-role flush message, got %s", m.Role)
	}
}

func assistantHeavyHistory(n int) []models.Message {
	var out []models.Message
	for i := 0; i < n; i++ {
		out = append(out, msg(models.RoleUser, "question"))
		out = append(out, msg(models.RoleAssistant, "answer"))
	}
	return out
}

func TestCompactor_Compact_PreservesRecentTurns(t *testing.T) {
	c := NewCompactor(nil)
	c.PreservedTurns = 3
	history := assistantHeavyHistory(10)

	out := c.Compact(context.Background(), history)
	if out[0].Role != models.RoleSystem || !strings.HasPrefix(out[0].Content, compactedContextPrefix) {
		t.Fatalf("expected compacted-context system message first, got %+v", out[0])
	}

	assistantCount := 0
	for _, m := range out {
		if m.Role == models.RoleAssistant {
			assistantCount++
		}
	}
	if assistantCount != 3 {
		t.Fatalf("expected exactly 3 preserved assistant messages, got %d", assistantCount)
	}
}

func TestCompactor_Compact_NoOpWhenTooFewAssistantMessages(t *testing.T) {
	c := NewCompactor(nil)
	c.PreservedTurns = 3
	history := assistantHeavyHistory(2)

	out := c.Compact(context.Background(), history)
	if len(out) != len(history) {
		t.Fatalf("expected history unchanged, got %d vs %d", len(out), len(history))
	}
}

func TestCompactor_Compact_StripsFlushMarkers(t *testing.T) {
	c := NewCompactor(nil)
	c.PreservedTurns = 1
	history := []models.Message{
		msg(models.RoleUser, "q1"),
		msg(models.RoleAssistant, "a1"),
		FlushMessage(),
		msg(models.RoleUser, "q2"),
		msg(models.RoleAssistant, "a2"),
	}

	out := c.Compact(context.Background(), history)
	for _, m := range out {
		if IsFlushMarker(m) {
			t.Fatal("expected flush marker stripped from retained suffix")
		}
	}
}

func TestCompactor_Compact_UsesCompressor(t *testing.T) {
	c := NewCompactor(fakeCompressor{text: "condensed history"})
	c.PreservedTurns = 1
	history := assistantHeavyHistory(5)

	out := c.Compact(context.Background(), history)
	if !strings.Contains(out[0].Content, "condensed history") {
		t.Fatalf("expected compressor output in compacted message, got %q", out[0].Content)
	}
}
