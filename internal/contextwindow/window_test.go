package contextwindow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nexuscore/agentcore/pkg/models"
)

func msg(role models.Role, content string) models.Message {
	return models.Message{Role: role, Content: content}
}

func TestApply_NoTruncationUnderBudget(t *testing.T) {
	messages := []models.Message{msg(models.RoleUser, "hi"), msg(models.RoleAssistant, "hello")}
	out := Apply(context.Background(), messages, 10000, nil)
	if len(out) != len(messages) {
		t.Fatalf("expected unchanged history, got %d messages", len(out))
	}
}

func TestApply_TruncatesAndPrependsSummary(t *testing.T) {
	var messages []models.Message
	for i := 0; i < 50; i++ {
		messages = append(messages, msg(models.RoleUser, strings.Repeat("word ", 50)))
		messages = append(messages, msg(models.RoleAssistant, strings.Repeat("reply ", 50)))
	}
	out := Apply(context.Background(), messages, 200, nil)
	if len(out) == 0 || out[0].Role != models.RoleSystem {
		t.Fatalf("expected a prepended system summary message, got %d messages", len(out))
	}
	if !strings.HasPrefix(out[0].Content, conversationSummaryPrefix) {
		t.Fatalf("expected conversation summary prefix, got %q", out[0].Content)
	}
	if len(out) >= len(messages) {
		t.Fatal("expected history to shrink")
	}
}

type fakeCompressor struct {
	text string
	err  error
}

func (f fakeCompressor) Summarize(ctx context.Context, messages []models.Message, maxTokens int) (string, error) {
	return f.text, f.err
}

func TestApply_UsesCompressorWhenAvailable(t *testing.T) {
	var messages []models.Message
	for i := 0; i < 50; i++ {
		messages = append(messages, msg(models.RoleUser, strings.Repeat("word ", 50)))
		messages = append(messages, msg(models.RoleAssistant, strings.Repeat("reply ", 50)))
	}
	out := Apply(context.Background(), messages, 200, fakeCompressor{text: "custom summary"})
	if !strings.Contains(out[0].Content, "custom summary") {
		t.Fatalf("expected compressor output in summary, got %q", out[0].Content)
	}
}

func TestApply_FallsBackOnCompressorError(t *testing.T) {
	var messages []models.Message
	for i := 0; i < 50; i++ {
		messages = append(messages, msg(models.RoleUser, "what is the weather today"))
		messages = append(messages, msg(models.RoleAssistant, strings.Repeat("reply ", 50)))
	}
	out := Apply(context.Background(), messages, 200, fakeCompressor{err: errors.New("boom")})
	if !strings.Contains(out[0].Content, "- what is the weather today") {
		t.Fatalf("expected fallback summary bullet, got %q", out[0].Content)
	}
}

func TestFallbackSummary_FirstLineOfEachUserMessage(t *testing.T) {
	messages := []models.Message{
		msg(models.RoleUser, "first question\nmore detail"),
		msg(models.RoleAssistant, "an answer"),
		msg(models.RoleUser, "second question"),
	}
	summary := FallbackSummary(messages)
	if summary != "- first question\n- second question" {
		t.Fatalf("got %q", summary)
	}
}

func TestFallbackSummary_SkipsBlankMessages(t *testing.T) {
	messages := []models.Message{msg(models.RoleUser, "   \n\n")}
	if got := FallbackSummary(messages); got != "" {
		t.Fatalf("expected empty summary, got %q", got)
	}
}
