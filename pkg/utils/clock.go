package utils

import (
	"fmt"
	"strings"
	"time"
)

// Constants
const (
	DATE_LAYOUT = "2006-01-02"
)

var clockLayouts = []string{"15:04", "15:04:05"}

// MinutesSinceMidnight converts a time of day ("08:30" or "08:30:00") to minutes since 00:00
func MinutesSinceMidnight(clock string) (int, error) {
	s := strings.TrimSpace(clock)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour()*60 + t.Minute(), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", clock)
}

// IsDate reports whether s is a calendar date in DATE_LAYOUT
func IsDate(s string) bool {
	_, err := time.Parse(DATE_LAYOUT, strings.TrimSpace(s))
	return err == nil
}
