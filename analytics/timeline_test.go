package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linket-app/linket-go/models"
)

func TestBuildTimelineConservation(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	win := NewWindow(7, 0, now)

	var scans []models.ScanEvent
	for i := 0; i < 10; i++ {
		scans = append(scans, models.ScanEvent{
			ID:         string(rune('a' + i)),
			OccurredAt: now.Add(-time.Duration(i*13) * time.Hour),
		})
	}
	leads := []models.LeadRecord{
		{ID: "l1", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "l2", CreatedAt: now.Add(-50 * time.Hour)},
	}

	timeline, totals := BuildTimeline(win, scans, leads)

	require.Len(t, timeline, 7)
	sumScans, sumLeads := 0, 0
	for _, point := range timeline {
		sumScans += point.Scans
		sumLeads += point.Leads
	}
	assert.Equal(t, totals.Scans, sumScans)
	assert.Equal(t, totals.Leads, sumLeads)
	assert.Equal(t, 10, sumScans)
	assert.Equal(t, 2, sumLeads)
}

func TestBuildTimelineDropsOutOfWindowEvents(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	win := NewWindow(7, 0, now)

	scans := []models.ScanEvent{
		{ID: "in", OccurredAt: now.Add(-time.Hour)},
		{ID: "before", OccurredAt: now.AddDate(0, 0, -10)},
		{ID: "after", OccurredAt: now.AddDate(0, 0, 2)},
	}

	timeline, totals := BuildTimeline(win, scans, nil)

	require.Len(t, timeline, 7)
	assert.Equal(t, 1, totals.Scans)
}

func TestBuildTimelineTodayAndLastScan(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	win := NewWindow(7, 0, now)

	latest := now.Add(-30 * time.Minute)
	scans := []models.ScanEvent{
		{ID: "s1", OccurredAt: now.Add(-26 * time.Hour)}, // yesterday
		{ID: "s2", OccurredAt: now.Add(-2 * time.Hour)},
		{ID: "s3", OccurredAt: latest},
	}
	leads := []models.LeadRecord{
		{ID: "l1", CreatedAt: now.Add(-time.Hour)},
	}

	_, totals := BuildTimeline(win, scans, leads)

	assert.Equal(t, 2, totals.ScansToday)
	assert.Equal(t, 1, totals.LeadsToday)
	require.NotNil(t, totals.LastScanAt)
	assert.True(t, totals.LastScanAt.Equal(latest))
}

func TestBuildTimelineRollingSevenDay(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	win := NewWindow(30, 0, now)

	scans := []models.ScanEvent{
		{ID: "old", OccurredAt: now.AddDate(0, 0, -20)}, // in window, outside 7d tail
		{ID: "s1", OccurredAt: now.Add(-time.Hour)},
		{ID: "s2", OccurredAt: now.AddDate(0, 0, -3)},
	}
	leads := []models.LeadRecord{
		{ID: "l1", CreatedAt: now.AddDate(0, 0, -2)},
	}

	_, totals := BuildTimeline(win, scans, leads)

	assert.Equal(t, 3, totals.Scans)
	assert.Equal(t, 2, totals.Scans7d)
	assert.Equal(t, 1, totals.Leads7d)
	assert.InDelta(t, 0.5, totals.ConversionRate7d, 1e-9)
}

func TestBuildTimelineShortWindowRollingSum(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	win := NewWindow(3, 0, now)

	scans := []models.ScanEvent{
		{ID: "s1", OccurredAt: now.Add(-time.Hour)},
		{ID: "s2", OccurredAt: now.AddDate(0, 0, -2)},
	}

	timeline, totals := BuildTimeline(win, scans, nil)

	require.Len(t, timeline, 3)
	assert.Equal(t, 2, totals.Scans7d)
	assert.Zero(t, totals.Leads7d)
	assert.Zero(t, totals.ConversionRate7d)
}

func TestBuildTimelineEmptyInputsStayDense(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	win := NewWindow(14, 0, now)

	timeline, totals := BuildTimeline(win, nil, nil)

	require.Len(t, timeline, 14)
	for _, point := range timeline {
		assert.Zero(t, point.Scans)
		assert.Zero(t, point.Leads)
	}
	assert.Zero(t, totals.Scans)
	assert.Nil(t, totals.LastScanAt)
	assert.Zero(t, totals.ConversionRate7d)
}
