package scheduler

import (
	"errors"
	"testing"
	"time"
)

func TestNotifierDeliversWithinActiveHours(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	var delivered []string
	n := NewNotifier(NotifierConfig{
		MaxPerHour: 10, ActiveHoursStart: 8, ActiveHoursEnd: 22,
		Now: func() time.Time { return now },
	}, func(content string) error {
		delivered = append(delivered, content)
		return nil
	})

	if err := n.Notify("ALERT: temp high"); err != nil {
		t.Fatal(err)
	}
	if len(delivered) != 1 {
		t.Fatalf("want 1 delivery, got %d", len(delivered))
	}
}

func TestNotifierDropsDuringQuietHours(t *testing.T) {
	now := time.Date(2026, 1, 1, 2, 0, 0, 0, time.UTC) // 2am, outside 8-22
	var delivered []string
	n := NewNotifier(NotifierConfig{
		MaxPerHour: 10, ActiveHoursStart: 8, ActiveHoursEnd: 22, Policy: QuietHoursDrop,
		Now: func() time.Time { return now },
	}, func(content string) error {
		delivered = append(delivered, content)
		return nil
	})

	if err := n.Notify("quiet hours message"); err != nil {
		t.Fatal(err)
	}
	if len(delivered) != 0 {
		t.Fatalf("expected drop, got %d deliveries", len(delivered))
	}
}

func TestNotifierQueuesDuringQuietHoursAndDrainsAtEdge(t *testing.T) {
	clock := time.Date(2026, 1, 1, 2, 0, 0, 0, time.UTC)
	var delivered []string
	n := NewNotifier(NotifierConfig{
		MaxPerHour: 10, ActiveHoursStart: 8, ActiveHoursEnd: 22, Policy: QuietHoursQueue,
		Now: func() time.Time { return clock },
	}, func(content string) error {
		delivered = append(delivered, content)
		return nil
	})

	if err := n.Notify("queued message"); err != nil {
		t.Fatal(err)
	}
	if len(delivered) != 0 {
		t.Fatalf("expected no immediate delivery, got %d", len(delivered))
	}

	clock = time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC) // active hours begin
	if err := n.Drain(); err != nil {
		t.Fatal(err)
	}
	if len(delivered) != 1 || delivered[0] != "queued message" {
		t.Fatalf("expected queued message delivered at active-hours edge, got %+v", delivered)
	}

	// Drain again mid-active-hours: no edge, no-op.
	clock = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	if err := n.Drain(); err != nil {
		t.Fatal(err)
	}
	if len(delivered) != 1 {
		t.Fatalf("expected no further drain without a new edge, got %d", len(delivered))
	}
}

func TestNotifierRateLimitDropsExcess(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	var count int
	n := NewNotifier(NotifierConfig{
		MaxPerHour: 2, Now: func() time.Time { return now },
	}, func(content string) error {
		count++
		return nil
	})

	for i := 0; i < 5; i++ {
		if err := n.Notify("msg"); err != nil {
			t.Fatal(err)
		}
	}
	if count != 2 {
		t.Fatalf("want 2 delivered under max_per_hour=2 burst, got %d", count)
	}
}

func TestNotifierPropagatesSinkError(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	n := NewNotifier(NotifierConfig{MaxPerHour: 10, Now: func() time.Time { return now }}, func(content string) error {
		return errors.New("sink down")
	})
	if err := n.Notify("msg"); err == nil {
		t.Fatal("expected sink error to propagate")
	}
}
