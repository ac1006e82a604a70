package config

// TierConfig is the router's routable unit: a named (provider, model,
// sampling-parameter) bundle, per spec.md §3. Multiple tiers may share one
// provider key; credentials for the provider key come from the
// environment (env.go), never from this struct.
type TierConfig struct {
	Name             string  `yaml:"name"`
	Provider         string  `yaml:"provider"`
	Model            string  `yaml:"model"`
	Temperature      float64 `yaml:"temperature"`
	MaxOutputTokens  int     `yaml:"max_output_tokens"`
	ContextWindow    int     `yaml:"context_window"`
}
