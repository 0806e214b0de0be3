package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DayKeyLayout is the calendar-day key format used across analytics.
const DayKeyLayout = "2006-01-02"

// FormatDayKey formats an instant as a calendar-day key in the caller's
// local time, given the caller's timezone offset in minutes. The offset
// follows the JavaScript getTimezoneOffset convention: positive values are
// behind UTC.
func FormatDayKey(t time.Time, offsetMinutes int) string {
	local := t.UTC().Add(-time.Duration(offsetMinutes) * time.Minute)
	return local.Format(DayKeyLayout)
}

// ParseDayKey parses a day key back to a UTC midnight time.
func ParseDayKey(dayKey string) (time.Time, error) {
	parts := strings.Split(dayKey, "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid day key format: %s", dayKey)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year in day key: %s", dayKey)
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month in day key: %s", dayKey)
	}

	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day in day key: %s", dayKey)
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}
