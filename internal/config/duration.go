package config

import (
	"fmt"
	"strings"
	"time"
)

// DurationOrDefault parses value as a duration, using defaultValue when
// value is blank. Timeouts and TTLs stay strings in the config so yaml
// and env forms read the same way.
func DurationOrDefault(value, defaultValue string) (time.Duration, error) {
	for _, candidate := range []string{value, defaultValue} {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		d, err := time.ParseDuration(candidate)
		if err != nil {
			return 0, fmt.Errorf("parse duration %q: %w", candidate, err)
		}
		return d, nil
	}
	return 0, fmt.Errorf("duration value is empty")
}
