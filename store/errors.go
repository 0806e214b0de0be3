package store

import (
	"errors"
	"strings"
)

// ErrEventsTableMissing marks a conversion-event query that failed because
// the app_events table has not been created for this tenant. Product
// funnels are optional; callers degrade to zero conversion events instead
// of failing the report.
var ErrEventsTableMissing = errors.New("app_events table missing")

// isMissingTableErr recognizes the driver-level "no such table" failure.
// SQLite and libsql both report it as a plain message, so detection happens
// here once and everything downstream checks the typed sentinel.
func isMissingTableErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such table")
}
