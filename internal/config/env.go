package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names the core recognizes (spec.md §6). All
// behavior-affecting; credentials MUST NOT originate from config files.
const (
	EnvAnthropicAPIKey   = "ANTHROPIC_API_KEY"
	EnvCloudAPIKey       = "OPENAI_API_KEY"
	EnvEscalationEnabled = "ESCALATION_ENABLED"
	EnvLogLevel          = "LOG_LEVEL"
)

// Credentials holds the process's cloud provider credentials, read
// exclusively from the environment.
type Credentials struct {
	AnthropicAPIKey string
	CloudAPIKey     string
}

// LoadCredentials reads provider credentials from the environment.
func LoadCredentials() Credentials {
	return Credentials{
		AnthropicAPIKey: os.Getenv(EnvAnthropicAPIKey),
		CloudAPIKey:     os.Getenv(EnvCloudAPIKey),
	}
}

// EscalationEnabledOverride reports whether ESCALATION_ENABLED is set in
// the environment and, if so, its boolean value. An unset or unparseable
// value reports ok=false, leaving the config file's value in effect.
func EscalationEnabledOverride() (enabled bool, ok bool) {
	raw := strings.TrimSpace(os.Getenv(EnvEscalationEnabled))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// LogLevel returns LOG_LEVEL from the environment, or def if unset.
func LogLevel(def string) string {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		return v
	}
	return def
}
