package coreagent

import (
	"strings"
	"testing"
	"time"

	"github.com/nexuscore/agentcore/internal/tools"
	"github.com/nexuscore/agentcore/pkg/models"
)

func TestPromptBuilderOrdersAndTagsSections(t *testing.T) {
	b := NewPromptBuilder()
	session := models.NewSession("s1", models.SourceInteractive)
	in := PromptInput{
		Soul:                  "You are a helpful assistant.",
		OperatingInstructions: "Be concise.",
		UserContext:           "User is a Go developer.",
		LongTermMemory:        "User prefers terse answers.",
		MemoryContext:         "Last discussed deploy pipeline.",
		ToolDefs:              []tools.ToolDefinition{{Name: "search", Description: "web search"}},
		ContextWindow:         32000,
		Now:                   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	out := b.Build(session, in)

	order := []string{"soul", "operating_instructions", "user_context", "long_term_memory", "memory_context", "available_tools", "system_info"}
	lastIdx := -1
	for _, tag := range order {
		idx := strings.Index(out, "<"+tag+">")
		if idx < 0 {
			t.Fatalf("missing section %q in:\n%s", tag, out)
		}
		if idx < lastIdx {
			t.Fatalf("section %q out of order", tag)
		}
		lastIdx = idx
	}
	if !strings.Contains(out, "search: web search") {
		t.Fatal("expected rendered tool definition")
	}
}

func TestPromptBuilderOmitsEmptySections(t *testing.T) {
	b := NewPromptBuilder()
	session := models.NewSession("s1", models.SourceInteractive)
	out := b.Build(session, PromptInput{Soul: "hi", ContextWindow: 32000})

	if strings.Contains(out, "<memory_context>") {
		t.Fatal("expected empty memory_context to be omitted")
	}
	if strings.Contains(out, "<available_tools>") {
		t.Fatal("expected empty available_tools to be omitted")
	}
}

func TestPromptBuilderDropsLongTermMemoryForGroupSessions(t *testing.T) {
	b := NewPromptBuilder()
	session := models.NewSession("s1", models.SourceGroup)
	out := b.Build(session, PromptInput{
		Soul:           "hi",
		LongTermMemory: "secret user history",
		ContextWindow:  32000,
	})
	if strings.Contains(out, "long_term_memory") {
		t.Fatal("expected long_term_memory omitted for group sessions")
	}
}

func TestPromptBuilderKeepsLongTermMemoryForPrivateSessions(t *testing.T) {
	b := NewPromptBuilder()
	session := models.NewSession("s1", models.SourcePrivate)
	out := b.Build(session, PromptInput{
		Soul:           "hi",
		LongTermMemory: "remembered fact",
		ContextWindow:  32000,
	})
	if !strings.Contains(out, "remembered fact") {
		t.Fatal("expected long_term_memory retained for private sessions")
	}
}

func TestPromptBuilderTruncatesOversizedSection(t *testing.T) {
	b := NewPromptBuilder()
	session := models.NewSession("s1", models.SourceInteractive)
	huge := strings.Repeat("word ", 100000)
	out := b.Build(session, PromptInput{Soul: huge, ContextWindow: 1000})

	// The system-prompt share of a 1000-token window is small; the
	// rendered soul section must be drastically shorter than the input.
	if len(out) >= len(huge) {
		t.Fatalf("expected truncation, got output length %d >= input length %d", len(out), len(huge))
	}
}
