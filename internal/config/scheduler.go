package config

// SchedulerConfig configures internal/scheduler: durable job storage and
// the notification service's rate limit and quiet hours (spec.md §4.8).
type SchedulerConfig struct {
	StoreDir string `yaml:"store_dir"`

	Notify NotifyConfig `yaml:"notify"`
	Jobs   []JobConfig  `yaml:"jobs"`
}

// NotifyConfig configures the notification service: a global per-hour
// cap and a quiet-hours window during which notifications are dropped or
// queued, per policy.
type NotifyConfig struct {
	MaxPerHour       int    `yaml:"max_per_hour"`
	ActiveHoursStart int    `yaml:"active_hours_start"` // 0-23, local clock hour
	ActiveHoursEnd   int    `yaml:"active_hours_end"`   // 0-23
	QuietHoursPolicy string `yaml:"quiet_hours_policy"` // "drop" | "queue"
}

// JobConfig is the on-disk shape of a scheduler job definition, loaded at
// boot and registered with the scheduler alongside any jobs restored from
// its durable store.
type JobConfig struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"` // "one_shot" | "cron" | "interval"
	Expression  string `yaml:"expression"`  // cron expression, for kind=cron
	Delay       string `yaml:"delay"`       // delay grammar, for kind=one_shot
	IntervalMin int    `yaml:"interval_minutes"` // for kind=interval
	AgentPrompt string `yaml:"agent_prompt"`
	Notify      bool   `yaml:"notify"`
}
