package coreagent

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nexuscore/agentcore/internal/router"
	"github.com/nexuscore/agentcore/pkg/models"
)

// ScheduledRunner adapts a Runtime to internal/scheduler.AgentRunner:
// RunScheduled(prompt) (string, error). Each call synthesizes a fresh
// Session tagged source=scheduled (spec.md §4.8 "Firing") and runs it
// through the ordinary turn loop with no pre-existing history.
type ScheduledRunner struct {
	Runtime   *Runtime
	PromptIn  PromptInput // Soul/OperatingInstructions/etc. shared by every scheduled firing
	RouterOpt router.Options
}

// RunScheduled satisfies internal/scheduler.AgentRunner by structural
// typing (no import of internal/scheduler from this package).
func (r *ScheduledRunner) RunScheduled(prompt string) (string, error) {
	session := models.NewSession(uuid.NewString(), models.SourceScheduled)
	result, err := r.Runtime.Run(context.Background(), session, prompt, r.PromptIn, r.RouterOpt)
	if err != nil {
		return "", err
	}
	switch result.Outcome {
	case OutcomeCompleted, OutcomeTruncated:
		return result.Content, nil
	case OutcomePending:
		return "", fmt.Errorf("coreagent: scheduled job %q requires confirmation with no interactive user to resolve it", session.ID)
	default:
		return "", fmt.Errorf("coreagent: scheduled job ended in unexpected outcome %q", result.Outcome)
	}
}
