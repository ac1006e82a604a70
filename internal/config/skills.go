package config

import "fmt"

// SkillConfig is the on-disk shape of a SkillDefinition (spec.md §3).
// RequiredTools names tools the skill's body assumes are present; a skill
// naming a tool the registry never registered must not load (spec.md §3,
// "Validated at load against the registry").
type SkillConfig struct {
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description"`
	RequiredTools   []string `yaml:"required_tools"`
	ModelPreference string   `yaml:"model_preference"`
	AutoActivate    bool     `yaml:"auto_activate"`
	Triggers        []string `yaml:"triggers"`
	Body            string   `yaml:"body"`
}

// ToolSet reports whether a tool name is registered, e.g. internal/tools.Registry.Has.
type ToolSet interface {
	Has(name string) bool
}

// ValidateSkills applies spec.md §3's load-time validation: if any skill's
// RequiredTools include a name absent from registry, it returns nil and an
// error naming the first such skill and tool; otherwise it returns every
// skill.
func ValidateSkills(skills []SkillConfig, registry ToolSet) ([]SkillConfig, error) {
	var valid []SkillConfig
	for _, s := range skills {
		missing := ""
		for _, tool := range s.RequiredTools {
			if !registry.Has(tool) {
				missing = tool
				break
			}
		}
		if missing != "" {
			return nil, fmt.Errorf("skill %q requires unregistered tool %q", s.Name, missing)
		}
		valid = append(valid, s)
	}
	return valid, nil
}
