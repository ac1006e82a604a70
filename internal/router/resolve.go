package router

import "strings"

// KeywordRule maps a keyword to a tier; rules are scanned in order and the
// first match wins.
type KeywordRule struct {
	Keyword string
	Tier    Tier
}

// Config configures tier resolution, budget gating, and escalation.
type Config struct {
	DefaultTier       Tier
	SkillTiers        map[string]Tier
	KeywordRules      []KeywordRule
	EscalationEnabled bool
	MaxLocalRetries   int
	FallbackLocalTier Tier // local tier used when a cloud budget gate fires
}

// resolution is the outcome of the resolution-order walk, before any
// budget or escalation gating is applied.
type resolution struct {
	Tier   Tier
	Reason Reason
}

// resolveTier implements the five-step resolution order: forced override,
// caller-supplied tier, active-skill mapping, keyword scan, default.
func (cfg Config) resolveTier(forcedCloud, forcedLocal bool, callerTier Tier, activeSkill, userMessage string) resolution {
	if forcedLocal {
		return resolution{Tier: cfg.FallbackLocalTier, Reason: ReasonUserOverride}
	}
	if forcedCloud {
		target, ok := EscalationTarget(cfg.DefaultTier)
		if !ok {
			target = TierCloudFast
		}
		return resolution{Tier: target, Reason: ReasonUserOverride}
	}
	if callerTier != "" {
		return resolution{Tier: callerTier, Reason: ReasonCallerTier}
	}
	if activeSkill != "" {
		if tier, ok := cfg.SkillTiers[activeSkill]; ok {
			return resolution{Tier: tier, Reason: ReasonSkill}
		}
	}
	lower := strings.ToLower(userMessage)
	for _, rule := range cfg.KeywordRules {
		kw := strings.ToLower(strings.TrimSpace(rule.Keyword))
		if kw == "" {
			continue
		}
		if strings.Contains(lower, kw) {
			return resolution{Tier: rule.Tier, Reason: ReasonKeyword}
		}
	}
	return resolution{Tier: cfg.DefaultTier, Reason: ReasonDefault}
}

// localEquivalent maps a cloud tier back to the local tier that escalates
// to it, for forcing an all-local resolution when escalation is disabled.
var localEquivalent = map[Tier]Tier{
	TierCloudFast:     TierWorkhorse,
	TierCloudStandard: TierCoder,
	TierCloudDeep:     TierThinker,
}
