package shared

import "time"

const dateOnly = "2006-01-02"

// ParseDate accepts RFC3339 or YYYY-MM-DD. An empty value yields the zero time.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.Parse(dateOnly, value)
}

// EndOfDay widens a date-only upper bound to the last instant of that day.
// Timestamps are returned unchanged.
func EndOfDay(raw string, parsed time.Time) time.Time {
	if len(raw) != len(dateOnly) {
		return parsed
	}
	return parsed.Add(24*time.Hour - time.Nanosecond)
}
