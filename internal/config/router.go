package config

// RouterConfig configures internal/router.Config: resolution defaults,
// the skill->tier map, keyword rules, and escalation/retry policy (spec.md
// §4.5).
type RouterConfig struct {
	DefaultTier       string            `yaml:"default_tier"`
	FallbackLocalTier string            `yaml:"fallback_local_tier"`
	SkillTiers        map[string]string `yaml:"skill_tiers"`
	KeywordRules      []KeywordRule     `yaml:"keyword_rules"`
	EscalationEnabled bool              `yaml:"escalation_enabled"`
	MaxLocalRetries   int               `yaml:"max_local_retries"`
}

// KeywordRule maps a keyword to a tier name; rules are scanned in order,
// first match wins (spec.md §4.5 resolution step 4).
type KeywordRule struct {
	Keyword string `yaml:"keyword"`
	Tier    string `yaml:"tier"`
}

// BudgetConfig configures internal/usage.Tracker's spend caps (spec.md
// §4.4). Zero means unlimited.
type BudgetConfig struct {
	DailyLimitUSD               float64 `yaml:"daily_limit_usd"`
	MonthlyLimitUSD             float64 `yaml:"monthly_limit_usd"`
	LedgerDir                   string  `yaml:"ledger_dir"`
	DefaultInputPricePerMillion float64 `yaml:"default_input_price_per_million"`
}
