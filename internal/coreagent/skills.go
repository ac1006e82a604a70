package coreagent

import (
	"math"
	"sort"
	"strings"
)

// Skill is a candidate for prompt injection: a named body of instructions
// that activates when its triggers match the user message, or always when
// AutoActivate is set.
type Skill struct {
	Name         string
	Description  string
	Body         string
	Triggers     []string
	AutoActivate bool
	// Tools lists the tool names this skill's body assumes are available.
	// A skill referencing a tool missing from the registry is never
	// injected.
	Tools []string
}

// MatchedSkill pairs a Skill with the relevance score it earned against the
// current user message.
type MatchedSkill struct {
	Skill Skill
	Score int
}

// MatchSkills builds the candidate set (auto-activating skills union
// explicitly enabled ones), scores each against userMessage, drops skills
// referencing a tool outside availableTools, and returns the matches with a
// positive score sorted by score descending.
func MatchSkills(skills []Skill, enabled map[string]bool, userMessage string, availableTools map[string]bool) []MatchedSkill {
	lowerMsg := strings.ToLower(userMessage)

	var out []MatchedSkill
	for _, s := range skills {
		if !s.AutoActivate && !enabled[s.Name] {
			continue
		}
		if !toolsAvailable(s.Tools, availableTools) {
			continue
		}
		score := scoreSkill(s, lowerMsg)
		if score > 0 {
			out = append(out, MatchedSkill{Skill: s, Score: score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func toolsAvailable(required []string, available map[string]bool) bool {
	for _, name := range required {
		if !available[name] {
			return false
		}
	}
	return true
}

// scoreSkill sums, for every substring-matched trigger, 10 + len(trigger) +
// max(0, 10 - floor(position/10)), where position is the trigger's first
// match offset in the (case-insensitive) message.
func scoreSkill(s Skill, lowerMsg string) int {
	total := 0
	for _, trigger := range s.Triggers {
		t := strings.ToLower(trigger)
		if t == "" {
			continue
		}
		pos := strings.Index(lowerMsg, t)
		if pos < 0 {
			continue
		}
		proximity := 10 - int(math.Floor(float64(pos)/10))
		if proximity < 0 {
			proximity = 0
		}
		total += 10 + len(t) + proximity
	}
	return total
}
