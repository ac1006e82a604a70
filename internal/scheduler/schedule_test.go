package scheduler

import (
	"testing"
	"time"
)

func TestOneShotSchedule(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sched := NewOneShotSchedule(5*time.Minute, now)

	next, ok, err := sched.Next(KindOneShot, now)
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	if !next.Equal(now.Add(5 * time.Minute)) {
		t.Errorf("next = %v, want %v", next, now.Add(5*time.Minute))
	}

	// After the fire time, a one-shot has no further occurrence.
	_, ok, err = sched.Next(KindOneShot, next.Add(time.Second))
	if err != nil {
		t.Fatalf("Next after fire: %v", err)
	}
	if ok {
		t.Error("one-shot schedule should not recur")
	}
}

func TestIntervalSchedule(t *testing.T) {
	sched, err := NewIntervalSchedule(10 * time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	next, ok, err := sched.Next(KindInterval, now)
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	if !next.Equal(now.Add(10 * time.Minute)) {
		t.Errorf("next = %v, want %v", next, now.Add(10*time.Minute))
	}
}

func TestIntervalScheduleRejectsNonPositive(t *testing.T) {
	if _, err := NewIntervalSchedule(0); err == nil {
		t.Fatal("expected error for zero interval")
	}
}

func TestCronSchedule(t *testing.T) {
	sched, err := NewCronSchedule("0 * * * *")
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 1, 1, 12, 30, 0, 0, time.UTC)
	next, ok, err := sched.Next(KindCron, now)
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	want := time.Date(2026, 1, 1, 13, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
}

func TestCronScheduleRejectsInvalidExpression(t *testing.T) {
	if _, err := NewCronSchedule("not a cron expression"); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}
