// Package analytics computes per-tenant rollup reports from raw store rows:
// a day-bucketed timeline, profile and link leaderboards, the acquisition
// funnel, and the onboarding checklist.
package analytics

import (
	"time"

	"github.com/linket-app/linket-go/utils"
)

const (
	minWindowDays = 1
	maxWindowDays = 90

	// Timezone offsets beyond UTC+14/-14 do not exist; anything outside
	// this range is caller garbage and gets clamped.
	maxOffsetMinutes = 840
)

// Window is the resolved query range for one report: UTC instants for the
// store, plus the ordered local calendar-day keys the timeline is bucketed
// into. Pure value; deterministic for a given "now".
type Window struct {
	Days          int
	OffsetMinutes int
	StartUTC      time.Time
	EndUTC        time.Time
	TodayKey      string
	DayKeys       []string
}

// ClampDays normalizes the caller-supplied day count into [1, 90].
func ClampDays(days int) int {
	if days < minWindowDays {
		return minWindowDays
	}
	if days > maxWindowDays {
		return maxWindowDays
	}
	return days
}

// ClampOffsetMinutes normalizes the caller-supplied timezone offset into
// [-840, 840]. The offset follows the JavaScript getTimezoneOffset
// convention: positive values are behind UTC.
func ClampOffsetMinutes(offset int) int {
	if offset < -maxOffsetMinutes {
		return -maxOffsetMinutes
	}
	if offset > maxOffsetMinutes {
		return maxOffsetMinutes
	}
	return offset
}

// NewWindow computes the report window: the caller's local "today" is
// derived by shifting now out of UTC by the offset, the window start is
// local midnight walked back days-1 local days, and both ends are
// re-offset to UTC instants for store queries.
func NewWindow(days, offsetMinutes int, now time.Time) Window {
	days = ClampDays(days)
	offsetMinutes = ClampOffsetMinutes(offsetMinutes)

	utcNow := now.UTC()
	localNow := utcNow.Add(-time.Duration(offsetMinutes) * time.Minute)
	localToday := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, time.UTC)
	localStart := localToday.AddDate(0, 0, -(days - 1))

	dayKeys := make([]string, 0, days)
	for d := localStart; !d.After(localToday); d = d.AddDate(0, 0, 1) {
		dayKeys = append(dayKeys, d.Format(utils.DayKeyLayout))
	}

	return Window{
		Days:          days,
		OffsetMinutes: offsetMinutes,
		StartUTC:      localStart.Add(time.Duration(offsetMinutes) * time.Minute),
		EndUTC:        utcNow,
		TodayKey:      localToday.Format(utils.DayKeyLayout),
		DayKeys:       dayKeys,
	}
}

// DayKey returns the local calendar-day key for an instant under this
// window's timezone offset.
func (w Window) DayKey(t time.Time) string {
	return utils.FormatDayKey(t, w.OffsetMinutes)
}
