package notification

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseClock parses a local "HH:MM" string into minutes after midnight.
// The whole string must be the clock value; trailing text is rejected.
func ParseClock(s string) (int, error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	hh, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", s, err)
	}
	mm, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", s, err)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	return hh*60 + mm, nil
}

// locationFor resolves an IANA timezone name, falling back to UTC when the
// name is empty or unknown so a bad preference never blocks evaluation.
func locationFor(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LocalDate returns the calendar date of the given instant in the user's
// timezone, formatted YYYY-MM-DD. Daily summaries are deduplicated on it.
func LocalDate(now time.Time, tz string) string {
	return now.In(locationFor(tz)).Format("2006-01-02")
}

// localMinutes returns minutes after local midnight for the given instant.
func localMinutes(now time.Time, tz string) int {
	local := now.In(locationFor(tz))
	return local.Hour()*60 + local.Minute()
}

// InQuietHours reports whether ambient notification creation (reminders and
// overdue) is currently suppressed for a user. Daily summaries are governed
// by their own time threshold and ignore this gate.
//
// With start <= end the window is [start, end). With start > end the window
// wraps midnight (e.g. 23:00-07:00): suppressed at or after start, or
// before end. Unparseable clock values disable suppression rather than
// blocking notifications.
func InQuietHours(now time.Time, tz string, enabled bool, start, end string) bool {
	if !enabled {
		return false
	}
	startMin, err := ParseClock(start)
	if err != nil {
		return false
	}
	endMin, err := ParseClock(end)
	if err != nil {
		return false
	}

	cur := localMinutes(now, tz)
	if startMin <= endMin {
		return cur >= startMin && cur < endMin
	}
	return cur >= startMin || cur < endMin
}
