package scheduler

import (
	"sync"
	"time"

	"github.com/nexuscore/agentcore/internal/ratelimit"
)

// QuietHoursPolicy controls what happens to a notification raised outside
// active hours.
type QuietHoursPolicy string

const (
	QuietHoursDrop  QuietHoursPolicy = "drop"
	QuietHoursQueue QuietHoursPolicy = "queue"
)

// NotifierConfig configures the Notifier's rate limit and quiet hours.
type NotifierConfig struct {
	MaxPerHour       int
	ActiveHoursStart int // 0-23
	ActiveHoursEnd   int // 0-23
	Policy           QuietHoursPolicy
	Now              func() time.Time // overridable for tests; defaults to time.Now
}

// Notifier is the scheduler's single-writer, single-reader notification
// service: a global per-hour delivery budget (internal/ratelimit) and a
// quiet-hours window during which deliveries are dropped or queued,
// draining the queue at the next active-hours edge (spec.md §4.8).
type Notifier struct {
	cfg    NotifierConfig
	budget *ratelimit.HourlyBudget
	sink   Sink

	mu        sync.Mutex
	queue     []string
	wasActive bool
}

// NewNotifier builds a Notifier delivering through sink.
func NewNotifier(cfg NotifierConfig, sink Sink) *Notifier {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Policy == "" {
		cfg.Policy = QuietHoursDrop
	}
	n := &Notifier{cfg: cfg, budget: ratelimit.NewHourlyBudget(cfg.MaxPerHour), sink: sink}
	n.wasActive = n.isActiveHour(cfg.Now())
	return n
}

// Notify delivers content if within the rate limit and active hours;
// otherwise it is dropped or queued per Policy. Call Drain periodically
// (e.g. from the scheduler's tick loop) to flush a queue once active hours
// resume.
func (n *Notifier) Notify(content string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.notifyLocked(content)
}

func (n *Notifier) notifyLocked(content string) error {
	now := n.cfg.Now()
	if !n.isActiveHour(now) {
		if n.cfg.Policy == QuietHoursQueue {
			n.queue = append(n.queue, content)
		}
		return nil
	}
	if !n.budget.Allow() {
		return nil // global rate limit exceeded; silently dropped, not an error
	}
	return n.sink(content)
}

// Drain checks whether active hours have just begun and, if so, flushes
// any queued notifications (oldest first, each still subject to the rate
// limit).
func (n *Notifier) Drain() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.cfg.Now()
	active := n.isActiveHour(now)
	justOpened := active && !n.wasActive
	n.wasActive = active
	if !justOpened {
		return nil
	}

	pending := n.queue
	n.queue = nil
	for _, content := range pending {
		if !n.budget.Allow() {
			// requeue the remainder for the next edge rather than drop it
			n.queue = append(n.queue, content)
			continue
		}
		if err := n.sink(content); err != nil {
			return err
		}
	}
	return nil
}

func (n *Notifier) isActiveHour(now time.Time) bool {
	start, end := n.cfg.ActiveHoursStart, n.cfg.ActiveHoursEnd
	if start == 0 && end == 0 {
		return true // unconfigured: always active
	}
	hour := now.Hour()
	if start <= end {
		return hour >= start && hour < end
	}
	// wraps past midnight, e.g. 22..6
	return hour >= start || hour < end
}
