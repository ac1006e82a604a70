// Package scheduler implements cron/interval/one-shot jobs that synthesize
// a fresh session and re-enter the agent loop (spec.md §4.8), plus a
// rate-limited, quiet-hours-aware notification service.
package scheduler

import "time"

// Kind identifies how a Job is triggered.
type Kind string

const (
	KindOneShot  Kind = "one_shot"
	KindCron     Kind = "cron"
	KindInterval Kind = "interval"
)

// Job is a named, persisted schedule definition.
type Job struct {
	Name        string   `json:"name"`
	Kind        Kind     `json:"kind"`
	Schedule    Schedule `json:"schedule"`
	AgentPrompt string   `json:"agent_prompt"`
	Notify      bool     `json:"notify"`
	Paused      bool     `json:"paused"`

	NextRun time.Time `json:"next_run"`
	LastRun time.Time `json:"last_run"`
}

// ExecutionStatus is the outcome of one job firing.
type ExecutionStatus string

const (
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionError     ExecutionStatus = "error"
)

// Execution records one firing of a Job.
type Execution struct {
	JobName       string          `json:"job_name"`
	ExecutedAt    time.Time       `json:"executed_at"`
	Status        ExecutionStatus `json:"status"`
	DurationMS    int64           `json:"duration_ms"`
	ResultSummary string          `json:"result_summary"`
}

// HeartbeatOK is the sentinel content that suppresses notification even
// when Notify is true (spec.md §4.8 "Firing").
const HeartbeatOK = "HEARTBEAT_OK"

// AgentRunner is the subset of the agent loop the scheduler needs: run a
// synthesized prompt against a fresh session and report completed text (or
// an error). Implemented by a thin adapter over coreagent.Runtime.
type AgentRunner interface {
	RunScheduled(prompt string) (content string, err error)
}

// Sink delivers a notification's content to its final destination (a chat
// channel, a desktop notifier, a log — the concrete sink lives outside the
// core per spec.md §1).
type Sink func(content string) error
