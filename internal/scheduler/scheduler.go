package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nexuscore/agentcore/internal/audit"
)

// Option configures a Scheduler at construction.
type Option func(*Scheduler)

// WithLogger overrides the scheduler's ambient logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAudit attaches an audit.Logger so every firing emits a JobFired
// entry.
func WithAudit(a *audit.Logger) Option {
	return func(s *Scheduler) { s.audit = a }
}

// WithTickInterval overrides the polling interval (default 1s; tests use a
// much shorter one).
func WithTickInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithNow overrides the clock, for deterministic tests.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// Scheduler runs one_shot/cron/interval jobs that synthesize a session and
// feed a prompt into the agent loop (spec.md §4.8). A single background
// goroutine polls for due jobs; concrete firing happens synchronously on
// that goroutine's own, freshly-synthesized session, so it never contends
// with interactive sessions.
type Scheduler struct {
	mu   sync.Mutex
	jobs map[string]*Job

	runner   AgentRunner
	store    Store
	notifier *Notifier
	logger   *slog.Logger
	audit    *audit.Logger
	tick     time.Duration
	now      func() time.Time

	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds a Scheduler. runner executes a synthesized prompt through the
// agent loop; store persists job definitions and execution history;
// notifier delivers non-heartbeat completions, rate-limited and
// quiet-hours-aware.
func New(runner AgentRunner, store Store, notifier *Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		jobs:     make(map[string]*Job),
		runner:   runner,
		store:    store,
		notifier: notifier,
		logger:   slog.Default().With("component", "scheduler"),
		tick:     time.Second,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads persisted jobs from the store and registers them, per
// spec.md §4.8 "Persistence: Jobs survive process restart". Call once at
// boot before Start.
func (s *Scheduler) Restore() error {
	jobs, err := s.store.LoadJobs()
	if err != nil {
		return fmt.Errorf("scheduler: restoring jobs: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range jobs {
		s.jobs[j.Name] = j
	}
	return nil
}

// AddOneShot registers a job that fires once after delay elapses.
func (s *Scheduler) AddOneShot(name string, delay time.Duration, prompt string, notify bool) error {
	sched := NewOneShotSchedule(delay, s.now())
	return s.addJob(&Job{Name: name, Kind: KindOneShot, Schedule: sched, AgentPrompt: prompt, Notify: notify, NextRun: sched.At})
}

// AddCron registers a job firing on a cron expression.
func (s *Scheduler) AddCron(name, expr, prompt string, notify bool) error {
	sched, err := NewCronSchedule(expr)
	if err != nil {
		return err
	}
	next, _, err := sched.Next(KindCron, s.now())
	if err != nil {
		return err
	}
	return s.addJob(&Job{Name: name, Kind: KindCron, Schedule: sched, AgentPrompt: prompt, Notify: notify, NextRun: next})
}

// AddInterval registers a job firing every `minutes` minutes. Its first
// firing is due at once, on the next poll.
func (s *Scheduler) AddInterval(name string, minutes int, prompt string, notify bool) error {
	sched, err := NewIntervalSchedule(time.Duration(minutes) * time.Minute)
	if err != nil {
		return err
	}
	return s.addJob(&Job{Name: name, Kind: KindInterval, Schedule: sched, AgentPrompt: prompt, Notify: notify, NextRun: s.now()})
}

func (s *Scheduler) addJob(job *Job) error {
	s.mu.Lock()
	if _, exists := s.jobs[job.Name]; exists {
		s.mu.Unlock()
		return fmt.Errorf("scheduler: job %q already exists", job.Name)
	}
	s.jobs[job.Name] = job
	s.mu.Unlock()
	return s.store.SaveJob(job)
}

// Remove deletes a job by name.
func (s *Scheduler) Remove(name string) error {
	s.mu.Lock()
	delete(s.jobs, name)
	s.mu.Unlock()
	return s.store.DeleteJob(name)
}

// Pause marks a job so it no longer fires, without losing its definition.
func (s *Scheduler) Pause(name string) error {
	return s.setPaused(name, true)
}

// Resume clears a job's paused flag.
func (s *Scheduler) Resume(name string) error {
	return s.setPaused(name, false)
}

func (s *Scheduler) setPaused(name string, paused bool) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("scheduler: job %q not found", name)
	}
	job.Paused = paused
	cp := *job
	s.mu.Unlock()
	return s.store.SaveJob(&cp)
}

// List returns a snapshot of every registered job.
func (s *Scheduler) List() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, *j)
	}
	return out
}

// Status returns one job's current definition and next-run time.
func (s *Scheduler) Status(name string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[name]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// RecentExecutions returns name's execution history, most recent first.
func (s *Scheduler) RecentExecutions(name string, limit int) ([]Execution, error) {
	return s.store.RecentExecutions(name, limit)
}

// Start begins the polling loop in the background until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.RunDue()
				if s.notifier != nil {
					if err := s.notifier.Drain(); err != nil {
						s.logger.Warn("notifier drain failed", "error", err)
					}
				}
			}
		}
	}()
}

// Stop cancels the polling loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// RunDue fires every due, unpaused job and returns how many fired. Exposed
// directly for tests and for a caller that prefers to drive firing
// explicitly rather than via Start's background loop.
func (s *Scheduler) RunDue() int {
	now := s.now()
	var due []*Job
	s.mu.Lock()
	for _, j := range s.jobs {
		if j.Paused || j.NextRun.IsZero() || j.NextRun.After(now) {
			continue
		}
		due = append(due, j)
	}
	s.mu.Unlock()

	for _, j := range due {
		s.fire(j)
	}
	return len(due)
}

func (s *Scheduler) fire(job *Job) {
	start := time.Now()
	content, runErr := s.runner.RunScheduled(job.AgentPrompt)
	duration := time.Since(start)

	status := ExecutionCompleted
	summary := content
	if runErr != nil {
		status = ExecutionError
		summary = runErr.Error()
	}

	exec := Execution{
		JobName:       job.Name,
		ExecutedAt:    s.now(),
		Status:        status,
		DurationMS:    duration.Milliseconds(),
		ResultSummary: summary,
	}
	if err := s.store.AppendExecution(exec); err != nil {
		s.logger.Warn("scheduler: failed to persist execution", "job", job.Name, "error", err)
	}
	if s.audit != nil {
		s.audit.JobFired(context.Background(), job.Name, string(job.Kind), duration, runErr)
	}

	if runErr == nil && job.Notify && content != HeartbeatOK && s.notifier != nil {
		if err := s.notifier.Notify(content); err != nil {
			s.logger.Warn("scheduler: notification delivery failed", "job", job.Name, "error", err)
		}
	}

	s.mu.Lock()
	job.LastRun = exec.ExecutedAt
	next, ok, err := job.Schedule.Next(job.Kind, exec.ExecutedAt)
	if err != nil || !ok {
		job.NextRun = time.Time{} // one-shot exhausted, or a malformed schedule: never fires again
	} else {
		job.NextRun = next
	}
	cp := *job
	s.mu.Unlock()

	if err := s.store.SaveJob(&cp); err != nil {
		s.logger.Warn("scheduler: failed to persist job", "job", job.Name, "error", err)
	}
}

// NewJobID generates a random job identifier for callers that want one
// independent of Job.Name (e.g. correlating with a session id).
func NewJobID() string {
	return uuid.NewString()
}
