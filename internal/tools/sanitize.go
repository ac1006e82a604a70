package tools

import "regexp"

// DefaultSanitizedOutputCap bounds untrusted/mixed tool output before it
// re-enters the message history.
const DefaultSanitizedOutputCap = 8000

// injectionPatterns catch common prompt-injection phrasing embedded in tool
// output (web pages, file contents, command output) that tries to redirect
// the model's instructions.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore (all )?(previous|prior|above) instructions`),
	regexp.MustCompile(`(?i)disregard (all )?(previous|prior|your) (instructions|system prompt)`),
	regexp.MustCompile(`(?i)you are now (in )?(developer|admin|dan|jailbreak) mode`),
	regexp.MustCompile(`(?i)new instructions?:\s`),
	regexp.MustCompile(`(?i)\[?system\]?\s*:\s*override`),
}

// Sanitize applies the prompt-injection filter and a length cap to untrusted
// or mixed-trust tool output. Trusted output passes through untouched.
func Sanitize(level TrustLevel, content string) string {
	if !level.sanitized() {
		return content
	}
	for _, re := range injectionPatterns {
		content = re.ReplaceAllString(content, "[filtered]")
	}
	if len(content) > DefaultSanitizedOutputCap {
		content = content[:DefaultSanitizedOutputCap] + "...[truncated]"
	}
	return content
}
