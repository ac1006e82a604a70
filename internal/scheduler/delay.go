package scheduler

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// delayToken matches one concatenated seconds/minutes/hours/days component
// of the delay grammar spec.md §6 names: /^(\d+[smhd])+$/i.
var delayToken = regexp.MustCompile(`(?i)(\d+)([smhd])`)
var delayGrammar = regexp.MustCompile(`(?i)^(\d+[smhd])+$`)

// ParseDelay parses a concatenated seconds/minutes/hours/days duration
// string (e.g. "1h30m", "90s", "2d") into a time.Duration.
func ParseDelay(raw string) (time.Duration, error) {
	if !delayGrammar.MatchString(raw) {
		return 0, fmt.Errorf("scheduler: invalid delay %q", raw)
	}
	var total time.Duration
	for _, m := range delayToken.FindAllStringSubmatch(raw, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, fmt.Errorf("scheduler: invalid delay component %q: %w", m[0], err)
		}
		switch m[2] {
		case "s", "S":
			total += time.Duration(n) * time.Second
		case "m", "M":
			total += time.Duration(n) * time.Minute
		case "h", "H":
			total += time.Duration(n) * time.Hour
		case "d", "D":
			total += time.Duration(n) * 24 * time.Hour
		}
	}
	return total, nil
}
