package analytics

import (
	"time"

	"github.com/linket-app/linket-go/models"
)

const rollingWindowDays = 7

// BuildTimeline buckets reconciled scans and leads into one counter pair
// per local calendar day across the window. Events whose day key falls
// outside the precomputed bucket set are dropped; clock skew at the window
// edges must not invent buckets.
func BuildTimeline(win Window, scans []models.ScanEvent, leads []models.LeadRecord) ([]models.TimelinePoint, models.Totals) {
	buckets := make(map[string]*models.TimelinePoint, len(win.DayKeys))
	timeline := make([]models.TimelinePoint, len(win.DayKeys))
	for i, key := range win.DayKeys {
		timeline[i] = models.TimelinePoint{Date: key}
		buckets[key] = &timeline[i]
	}

	var totals models.Totals
	var lastScanAt time.Time

	for _, ev := range scans {
		if ev.OccurredAt.After(lastScanAt) {
			lastScanAt = ev.OccurredAt
		}
		key := win.DayKey(ev.OccurredAt)
		bucket, ok := buckets[key]
		if !ok {
			continue
		}
		bucket.Scans++
		totals.Scans++
		if key == win.TodayKey {
			totals.ScansToday++
		}
	}

	for _, lead := range leads {
		key := win.DayKey(lead.CreatedAt)
		bucket, ok := buckets[key]
		if !ok {
			continue
		}
		bucket.Leads++
		totals.Leads++
		if key == win.TodayKey {
			totals.LeadsToday++
		}
	}

	if !lastScanAt.IsZero() {
		t := lastScanAt
		totals.LastScanAt = &t
	}

	// Rolling 7-day sums come from the tail of the already-built timeline,
	// shorter windows just sum what they have.
	tail := len(timeline) - rollingWindowDays
	if tail < 0 {
		tail = 0
	}
	for _, point := range timeline[tail:] {
		totals.Scans7d += point.Scans
		totals.Leads7d += point.Leads
	}
	if totals.Scans7d > 0 {
		totals.ConversionRate7d = float64(totals.Leads7d) / float64(totals.Scans7d)
	}

	return timeline, totals
}
