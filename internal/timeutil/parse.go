package timeutil

import (
	"strings"
	"time"

	koyomiErrors "github.com/harunnryd/koyomi/internal/errors"
)

// Accepted layouts for caller-supplied datetimes, most specific first.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseLocal parses a datetime string and normalizes it to loc. Naive
// inputs are interpreted as already being in loc.
func ParseLocal(raw string, loc *time.Location) (time.Time, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return time.Time{}, koyomiErrors.InvalidInput("empty datetime")
	}

	for _, layout := range datetimeLayouts {
		parsed, err := time.ParseInLocation(layout, candidate, loc)
		if err != nil {
			continue
		}
		return parsed.In(loc), nil
	}
	return time.Time{}, koyomiErrors.InvalidInput("unrecognized datetime " + candidate)
}

// ParseDateOnly parses a date (or datetime) string and truncates it to
// midnight UTC, matching the Google Tasks due-date convention.
func ParseDateOnly(raw string) (time.Time, error) {
	parsed, err := ParseLocal(raw, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	utc := parsed.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC), nil
}

// EndOfDay clamps t to 23:59:59 in its own location.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
