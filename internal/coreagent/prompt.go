package coreagent

import (
	"fmt"
	"strings"
	"time"

	"github.com/nexuscore/agentcore/internal/tokenbudget"
	"github.com/nexuscore/agentcore/internal/tools"
	"github.com/nexuscore/agentcore/pkg/models"
)

// PromptInput carries everything PromptBuilder.Build needs beyond the
// session itself. Fields left zero-valued produce an omitted section.
type PromptInput struct {
	Soul                 string
	OperatingInstructions string
	UserContext           string
	LongTermMemory        string
	MemoryContext         string
	ToolDefs              []tools.ToolDefinition
	ActiveSkills          []MatchedSkill
	ContextWindow         int
	Now                   time.Time
}

// PromptBuilder assembles the deterministic, XML-tagged system prompt from
// a stable section order. Sections with empty content are omitted.
type PromptBuilder struct{}

// NewPromptBuilder returns a PromptBuilder. It is stateless; one instance
// may be shared across sessions.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// Build assembles the prompt in section order: soul, operating_instructions,
// user_context, long_term_memory (only for interactive/private/nil-source
// sessions, never group), memory_context, available_tools, active_skills,
// system_info. Each group is token-truncated to its C1 budget share before
// being joined.
func (b *PromptBuilder) Build(session *models.Session, in PromptInput) string {
	window := in.ContextWindow
	systemBudget, _ := tokenbudget.TokensFor(window, tokenbudget.SectionSystemPrompt)
	memoryBudget, _ := tokenbudget.TokensFor(window, tokenbudget.SectionMemory)
	skillsBudget, _ := tokenbudget.TokensFor(window, tokenbudget.SectionSkills)

	var sb strings.Builder

	writeTagged(&sb, "soul", tokenbudget.TruncateTo(in.Soul, systemBudget))
	writeTagged(&sb, "operating_instructions", tokenbudget.TruncateTo(in.OperatingInstructions, systemBudget))
	writeTagged(&sb, "user_context", tokenbudget.TruncateTo(in.UserContext, systemBudget))

	if allowsLongTermMemory(session) {
		writeTagged(&sb, "long_term_memory", tokenbudget.TruncateTo(in.LongTermMemory, memoryBudget))
	}
	writeTagged(&sb, "memory_context", tokenbudget.TruncateTo(in.MemoryContext, memoryBudget))

	writeTagged(&sb, "available_tools", renderTools(in.ToolDefs))
	writeTagged(&sb, "active_skills", renderSkills(in.ActiveSkills, skillsBudget))
	writeTagged(&sb, "system_info", renderSystemInfo(in.Now))

	return strings.TrimRight(sb.String(), "\n")
}

func allowsLongTermMemory(session *models.Session) bool {
	if session == nil {
		return true
	}
	switch session.Source {
	case models.SourceInteractive, models.SourcePrivate, "":
		return true
	default:
		return false
	}
}

func writeTagged(sb *strings.Builder, tag, content string) {
	if strings.TrimSpace(content) == "" {
		return
	}
	sb.WriteString("<")
	sb.WriteString(tag)
	sb.WriteString(">\n")
	sb.WriteString(content)
	sb.WriteString("\n</")
	sb.WriteString(tag)
	sb.WriteString(">\n")
}

func renderTools(defs []tools.ToolDefinition) string {
	if len(defs) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, d := range defs {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", d.Name, d.Description))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderSkills(matched []MatchedSkill, budget int) string {
	if len(matched) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, m := range matched {
		sb.WriteString(fmt.Sprintf("<skill name=%q description=%q>\n", m.Skill.Name, m.Skill.Description))
		sb.WriteString(m.Skill.Body)
		sb.WriteString("\n</skill>\n")
	}
	return tokenbudget.TruncateTo(strings.TrimRight(sb.String(), "\n"), budget)
}

func renderSystemInfo(now time.Time) string {
	if now.IsZero() {
		now = time.Now()
	}
	return fmt.Sprintf("wall_clock: %s", now.Format(time.RFC3339))
}

