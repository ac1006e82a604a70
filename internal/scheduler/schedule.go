package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Schedule is a parsed trigger: a one-shot absolute time, a cron
// expression, or a fixed interval. Exactly one of the three is set,
// matching Kind.
type Schedule struct {
	At       time.Time     `json:"at,omitempty"`
	CronExpr string        `json:"cron_expr,omitempty"`
	Interval time.Duration `json:"interval,omitempty"`
}

// NewOneShotSchedule builds a Schedule firing once after delay elapses.
func NewOneShotSchedule(delay time.Duration, now time.Time) Schedule {
	return Schedule{At: now.Add(delay)}
}

// NewCronSchedule validates expr and builds a cron Schedule.
func NewCronSchedule(expr string) (Schedule, error) {
	if _, err := cronParser.Parse(expr); err != nil {
		return Schedule{}, fmt.Errorf("scheduler: invalid cron expression %q: %w", expr, err)
	}
	return Schedule{CronExpr: expr}, nil
}

// NewIntervalSchedule builds a Schedule firing every d.
func NewIntervalSchedule(d time.Duration) (Schedule, error) {
	if d <= 0 {
		return Schedule{}, fmt.Errorf("scheduler: interval must be positive")
	}
	return Schedule{Interval: d}, nil
}

// Next returns the next fire time strictly after now, and whether the
// schedule has one (a one-shot schedule already fired has none).
func (s Schedule) Next(kind Kind, now time.Time) (time.Time, bool, error) {
	switch kind {
	case KindOneShot:
		if s.At.IsZero() || !s.At.After(now) {
			return time.Time{}, false, nil
		}
		return s.At, true, nil
	case KindInterval:
		if s.Interval <= 0 {
			return time.Time{}, false, fmt.Errorf("scheduler: interval schedule missing duration")
		}
		return now.Add(s.Interval), true, nil
	case KindCron:
		if s.CronExpr == "" {
			return time.Time{}, false, fmt.Errorf("scheduler: cron schedule missing expression")
		}
		sched, err := cronParser.Parse(s.CronExpr)
		if err != nil {
			return time.Time{}, false, err
		}
		return sched.Next(now), true, nil
	default:
		return time.Time{}, false, fmt.Errorf("scheduler: unknown job kind %q", kind)
	}
}
