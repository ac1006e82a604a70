package multiagent

import (
	"strings"
	"unicode"
)

// DefaultAgentName is returned by Dispatch when no mention or keyword match
// picks a specific agent.
const DefaultAgentName = "default"

// HintedAgent is a loaded agent's routing identity: its name and the
// keyword vocabulary that scores a message in its favor.
type HintedAgent struct {
	Name  string
	Hints []string
}

// Dispatcher assigns an incoming message to a loaded agent without
// consulting an LLM: an explicit "@name rest" mention wins outright;
// otherwise each agent's hint vocabulary is scored against the message by
// substring count, the highest score wins, ties break by the agents slice's
// insertion order, and a message that scores zero against every agent goes
// to DefaultAgentName.
type Dispatcher struct {
	agents []HintedAgent
}

// NewDispatcher builds a Dispatcher over agents in priority (tie-break)
// order.
func NewDispatcher(agents []HintedAgent) *Dispatcher {
	return &Dispatcher{agents: agents}
}

// Dispatch returns the chosen agent name and the message with any leading
// mention stripped. It never mutates caller state; recording the choice as
// a session's active_agent is the caller's job.
func (d *Dispatcher) Dispatch(message string) (agentName string, rest string) {
	if name, remainder, ok := extractMention(message, d.agents); ok {
		return name, remainder
	}
	return d.classify(message), message
}

// extractMention parses a leading "@name<whitespace>rest" prefix and
// reports whether name matches one of the loaded agents.
func extractMention(message string, agents []HintedAgent) (string, string, bool) {
	trimmed := strings.TrimLeft(message, " \t")
	if !strings.HasPrefix(trimmed, "@") {
		return "", "", false
	}

	body := trimmed[1:]
	idx := strings.IndexFunc(body, unicode.IsSpace)
	var name, rest string
	if idx < 0 {
		name, rest = body, ""
	} else {
		name, rest = body[:idx], strings.TrimLeft(body[idx:], " \t")
	}
	if name == "" {
		return "", "", false
	}

	for _, a := range agents {
		if strings.EqualFold(a.Name, name) {
			return a.Name, rest, true
		}
	}
	return "", "", false
}

// classify scores the message against each agent's hint vocabulary and
// returns the highest-scoring agent's name, breaking ties by slice order.
func (d *Dispatcher) classify(message string) string {
	lower := strings.ToLower(message)

	best := DefaultAgentName
	bestScore := 0
	for _, a := range d.agents {
		score := 0
		for _, hint := range a.Hints {
			h := strings.ToLower(hint)
			if h == "" {
				continue
			}
			score += strings.Count(lower, h)
		}
		if score > bestScore {
			bestScore = score
			best = a.Name
		}
	}
	return best
}
