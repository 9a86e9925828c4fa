package timeutil

import (
	"fmt"
	"strings"
	"time"

	koyomiErrors "github.com/harunnryd/koyomi/internal/errors"
)

// WindowDefaults configures the fallback event window used when the
// caller gives a date without explicit times.
type WindowDefaults struct {
	StartTime string // "HH:MM"
	Duration  time.Duration
	Location  *time.Location
	Now       func() time.Time
}

// ResolveEventWindow computes a concrete [start, end) window from an
// optional date and optional start/end times. A missing date means
// today; a missing start uses the configured default start time; a
// missing end is start plus the default duration.
func (d WindowDefaults) ResolveEventWindow(date, start, end string) (time.Time, time.Time, error) {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	nowFn := d.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	dayReference := strings.TrimSpace(date)
	if dayReference == "" {
		dayReference = nowFn().In(loc).Format("2006-01-02")
	}

	var startAt time.Time
	if strings.TrimSpace(start) != "" {
		parsed, err := ParseLocal(start, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		startAt = parsed
	} else {
		var hours, minutes int
		if _, err := fmt.Sscanf(d.StartTime, "%d:%d", &hours, &minutes); err != nil {
			return time.Time{}, time.Time{}, koyomiErrors.Internal("invalid default start time " + d.StartTime)
		}
		day, err := ParseLocal(dayReference, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		startAt = time.Date(day.Year(), day.Month(), day.Day(), hours, minutes, 0, 0, loc)
	}

	var endAt time.Time
	if strings.TrimSpace(end) != "" {
		parsed, err := ParseLocal(end, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		endAt = parsed
	} else {
		duration := d.Duration
		if duration <= 0 {
			duration = time.Hour
		}
		endAt = startAt.Add(duration)
	}

	return startAt, endAt, nil
}
