package scheduler

import (
	"errors"
	"testing"
	"time"
)

type stubRunner struct {
	content string
	err     error
	calls   int
}

func (r *stubRunner) RunScheduled(prompt string) (string, error) {
	r.calls++
	return r.content, r.err
}

func newTestScheduler(runner AgentRunner, notifier *Notifier, now time.Time) *Scheduler {
	clock := now
	return New(runner, NewMemoryStore(), notifier, WithNow(func() time.Time { return clock }))
}

func TestAddOneShotFiresOnce(t *testing.T) {
	now := time.Now()
	runner := &stubRunner{content: "done"}
	s := New(runner, NewMemoryStore(), nil, WithNow(func() time.Time { return now }))

	if err := s.AddOneShot("job1", time.Minute, "check sensors", false); err != nil {
		t.Fatal(err)
	}

	// Not due yet.
	if fired := s.RunDue(); fired != 0 {
		t.Fatalf("expected 0 due jobs before delay elapses, got %d", fired)
	}

	// Advance the clock past the delay and fire.
	later := now.Add(2 * time.Minute)
	s2 := New(runner, s.store, nil, WithNow(func() time.Time { return later }))
	s2.jobs = s.jobs
	if fired := s2.RunDue(); fired != 1 {
		t.Fatalf("expected 1 due job, got %d", fired)
	}
	if runner.calls != 1 {
		t.Fatalf("expected runner called once, got %d", runner.calls)
	}

	status, ok := s2.Status("job1")
	if !ok {
		t.Fatal("expected job1 to still be registered")
	}
	if !status.NextRun.IsZero() {
		t.Fatal("expected one-shot job to have no further next-run")
	}

	// A second RunDue does not re-fire the exhausted one-shot.
	if fired := s2.RunDue(); fired != 0 {
		t.Fatalf("expected exhausted one-shot not to re-fire, got %d", fired)
	}
}

func TestHeartbeatSuppressesNotification(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	var delivered []string
	notifier := NewNotifier(NotifierConfig{MaxPerHour: 10, Now: func() time.Time { return now }}, func(content string) error {
		delivered = append(delivered, content)
		return nil
	})
	runner := &stubRunner{content: HeartbeatOK}
	s := newTestScheduler(runner, notifier, now)

	if err := s.AddInterval("heartbeat", 5, "check sensors", true); err != nil {
		t.Fatal(err)
	}
	if fired := s.RunDue(); fired != 1 {
		t.Fatalf("expected 1 fired job, got %d", fired)
	}
	if len(delivered) != 0 {
		t.Fatalf("expected HEARTBEAT_OK to suppress notification, got %+v", delivered)
	}

	execs, err := s.RecentExecutions("heartbeat", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(execs) != 1 || execs[0].Status != ExecutionCompleted {
		t.Fatalf("unexpected execution record: %+v", execs)
	}
}

func TestAlertTriggersNotification(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	var delivered []string
	notifier := NewNotifier(NotifierConfig{MaxPerHour: 10, Now: func() time.Time { return now }}, func(content string) error {
		delivered = append(delivered, content)
		return nil
	})
	runner := &stubRunner{content: "ALERT: temp high"}
	s := newTestScheduler(runner, notifier, now)

	if err := s.AddInterval("heartbeat", 5, "check sensors", true); err != nil {
		t.Fatal(err)
	}
	if fired := s.RunDue(); fired != 1 {
		t.Fatalf("expected 1 fired job, got %d", fired)
	}
	if len(delivered) != 1 || delivered[0] != "ALERT: temp high" {
		t.Fatalf("expected alert delivered exactly once, got %+v", delivered)
	}
}

func TestRunnerErrorRecordsErrorExecution(t *testing.T) {
	now := time.Now()
	runner := &stubRunner{err: errors.New("provider down")}
	s := newTestScheduler(runner, nil, now)

	if err := s.AddInterval("j", 1, "prompt", false); err != nil {
		t.Fatal(err)
	}
	s.RunDue()
	execs, err := s.RecentExecutions("j", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(execs) != 1 || execs[0].Status != ExecutionError {
		t.Fatalf("unexpected execution: %+v", execs)
	}
}

func TestPauseSuppressesFiring(t *testing.T) {
	now := time.Now()
	runner := &stubRunner{content: "ok"}
	s := newTestScheduler(runner, nil, now)

	if err := s.AddInterval("j", 1, "prompt", false); err != nil {
		t.Fatal(err)
	}
	if err := s.Pause("j"); err != nil {
		t.Fatal(err)
	}
	if fired := s.RunDue(); fired != 0 {
		t.Fatalf("expected paused job not to fire, got %d", fired)
	}
	if err := s.Resume("j"); err != nil {
		t.Fatal(err)
	}
	if fired := s.RunDue(); fired != 1 {
		t.Fatalf("expected resumed job to fire, got %d", fired)
	}
}

func TestRemoveDeletesJob(t *testing.T) {
	s := newTestScheduler(&stubRunner{}, nil, time.Now())
	if err := s.AddInterval("j", 1, "prompt", false); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove("j"); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Status("j"); ok {
		t.Fatal("expected job removed")
	}
}

func TestAddJobRejectsDuplicateName(t *testing.T) {
	s := newTestScheduler(&stubRunner{}, nil, time.Now())
	if err := s.AddInterval("j", 1, "prompt", false); err != nil {
		t.Fatal(err)
	}
	if err := s.AddInterval("j", 1, "prompt", false); err == nil {
		t.Fatal("expected duplicate job name to error")
	}
}

func TestRestoreLoadsPersistedJobs(t *testing.T) {
	store := NewMemoryStore()
	if err := store.SaveJob(&Job{Name: "restored", Kind: KindInterval, AgentPrompt: "p", NextRun: time.Now().Add(-time.Minute)}); err != nil {
		t.Fatal(err)
	}
	runner := &stubRunner{content: "ok"}
	s := New(runner, store, nil)
	if err := s.Restore(); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Status("restored"); !ok {
		t.Fatal("expected restored job to be registered")
	}
	if fired := s.RunDue(); fired != 1 {
		t.Fatalf("expected restored overdue job to fire, got %d", fired)
	}
}
