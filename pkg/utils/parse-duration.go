package utils

import (
	"fmt"
	"time"
)

// ParseDurationString parses durations supplied through environment
// variables, e.g. the session inactivity window override.
func ParseDurationString(value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	return d, nil
}
