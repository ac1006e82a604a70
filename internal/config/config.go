// Package config loads the static, read-only-after-init configuration the
// runtime needs at boot: tier/provider bindings, agent and skill
// definitions, router and budget policy, and scheduler/notification
// settings. Credentials are never read from this file (spec §6); see
// env.go for the environment variables the core recognizes.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level, process-wide configuration tree. Every field is
// read-only after Load returns.
type Config struct {
	Tiers     []TierConfig    `yaml:"tiers"`
	Agents    []AgentConfig   `yaml:"agents"`
	Skills    []SkillConfig   `yaml:"skills"`
	Router    RouterConfig    `yaml:"router"`
	Budget    BudgetConfig    `yaml:"budget"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// Load reads and parses a YAML configuration file and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks structural invariants that must hold before the runtime
// boots: every tier must be named and carry a provider key, every agent and
// skill name must be unique. A ConfigError here is fatal at boot and is
// never auto-retried (spec §7).
func (c *Config) Validate() error {
	seenTiers := make(map[string]bool, len(c.Tiers))
	for _, t := range c.Tiers {
		if t.Name == "" {
			return fmt.Errorf("tier missing name")
		}
		if t.Provider == "" {
			return fmt.Errorf("tier %q missing provider", t.Name)
		}
		if seenTiers[t.Name] {
			return fmt.Errorf("duplicate tier %q", t.Name)
		}
		seenTiers[t.Name] = true
	}

	seenAgents := make(map[string]bool, len(c.Agents))
	for _, a := range c.Agents {
		if a.Name == "" {
			return fmt.Errorf("agent missing name")
		}
		if seenAgents[a.Name] {
			return fmt.Errorf("duplicate agent %q", a.Name)
		}
		seenAgents[a.Name] = true
	}

	seenSkills := make(map[string]bool, len(c.Skills))
	for _, s := range c.Skills {
		if s.Name == "" {
			return fmt.Errorf("skill missing name")
		}
		if seenSkills[s.Name] {
			return fmt.Errorf("duplicate skill %q", s.Name)
		}
		seenSkills[s.Name] = true
	}

	return nil
}
