package config

// AgentConfig is the on-disk shape of an AgentDefinition (spec.md §3):
// immutable after load, loaded once at boot into internal/multiagent's
// dispatcher and internal/coreagent's prompt builder.
type AgentConfig struct {
	Name            string   `yaml:"name"`
	Persona         string   `yaml:"persona"`
	ToolPolicy      string   `yaml:"tool_policy"`
	AllowedTools    []string `yaml:"allowed_tools"`
	ModelPreference string   `yaml:"model_preference"` // "local" | "cloud" | "auto"
	Hints           []string `yaml:"hints"`            // keyword vocabulary for dispatcher classification
}
