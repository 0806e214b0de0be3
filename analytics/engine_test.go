package analytics

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linket-app/linket-go/logging"
	"github.com/linket-app/linket-go/models"
	"github.com/linket-app/linket-go/store"
)

// fakeQueries is an in-memory stand-in for the store-access layer.
type fakeQueries struct {
	unavailable bool

	assignments []models.TagAssignment
	profiles    []models.Profile
	linkCounts  map[string]int
	leadForm    bool
	links       []models.ProfileLink
	convEvents  []models.ConversionEvent
	leads       []models.LeadRecord
	scansByKey  map[string][]models.ScanEvent
	scansByTag  []models.ScanEvent

	assignmentsErr error
	profilesErr    error
	convErr        error
	leadsErr       error
	scanErrByKey   map[string]error
	tagScanErr     error

	tagScanCalls atomic.Int32
}

func (f *fakeQueries) Available() bool { return !f.unavailable }

func (f *fakeQueries) FetchAssignments(ctx context.Context, tenantID string) ([]models.TagAssignment, error) {
	return f.assignments, f.assignmentsErr
}

func (f *fakeQueries) FetchProfiles(ctx context.Context, tenantID string) ([]models.Profile, error) {
	return f.profiles, f.profilesErr
}

func (f *fakeQueries) FetchActiveLinkCounts(ctx context.Context, tenantID string) (map[string]int, error) {
	return f.linkCounts, nil
}

func (f *fakeQueries) FetchPublishedLeadFormExists(ctx context.Context, tenantID string) (bool, error) {
	return f.leadForm, nil
}

func (f *fakeQueries) FetchActiveLinkPerformance(ctx context.Context, tenantID string) ([]models.ProfileLink, error) {
	return f.links, nil
}

func (f *fakeQueries) FetchConversionEvents(ctx context.Context, tenantID string, eventIDs []string) ([]models.ConversionEvent, error) {
	return f.convEvents, f.convErr
}

func (f *fakeQueries) FetchScanEvents(ctx context.Context, tenantID string, start, end time.Time, attributionKey string) ([]models.ScanEvent, error) {
	if err, ok := f.scanErrByKey[attributionKey]; ok {
		return nil, err
	}
	return f.scansByKey[attributionKey], nil
}

func (f *fakeQueries) FetchScanEventsByTagIDs(ctx context.Context, tenantID string, tagIDs []string, start, end time.Time) ([]models.ScanEvent, error) {
	f.tagScanCalls.Add(1)
	return f.scansByTag, f.tagScanErr
}

func (f *fakeQueries) FetchLeads(ctx context.Context, tenantID string, start, end time.Time) ([]models.LeadRecord, error) {
	return f.leads, f.leadsErr
}

func testLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{})
	require.NoError(t, err)
	return logger
}

func testEngine(t *testing.T, queries Queries, now time.Time) *Engine {
	t.Helper()
	engine := NewEngine(queries, testLogger(t))
	engine.now = func() time.Time { return now }
	return engine
}

func TestGetAnalyticsDegradedWhenUnavailable(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	engine := testEngine(t, &fakeQueries{unavailable: true}, now)

	result, err := engine.GetAnalytics(context.Background(), "tenant-1", Options{})
	require.NoError(t, err)

	assert.False(t, result.Meta.Available)
	assert.Equal(t, 30, result.Meta.Days)
	require.Len(t, result.Timeline, 30)
	for _, point := range result.Timeline {
		assert.Zero(t, point.Scans)
		assert.Zero(t, point.Leads)
	}
	assert.Zero(t, result.Totals.ScansToday)
	assert.Empty(t, result.TopProfiles)
	assert.Empty(t, result.TopLinks)
	assert.Empty(t, result.RecentLeads)
	assert.Len(t, result.Funnel.Steps, 5)
	assert.Len(t, result.Onboarding.Items, 5)
}

func TestGetAnalyticsSevenDayScenario(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)

	queries := &fakeQueries{
		profiles: []models.Profile{{ID: "prof-1", Name: "Acme", Handle: "acme", IsActive: true}},
		scansByKey: map[string][]models.ScanEvent{
			models.AttributionKeyOwner: {
				{ID: "s1", OccurredAt: yesterday, Metadata: map[string]any{"profileId": "prof-1"}},
				{ID: "s2", OccurredAt: yesterday.Add(time.Hour)},
			},
			models.AttributionKeyLegacy: {
				{ID: "s3", OccurredAt: yesterday.Add(2 * time.Hour)},
			},
		},
		leads: []models.LeadRecord{
			{ID: "l1", Name: "Jordan", Handle: "acme", CreatedAt: now.Add(-time.Hour)},
		},
	}

	engine := testEngine(t, queries, now)
	result, err := engine.GetAnalytics(context.Background(), "tenant-1", Options{Days: 7})
	require.NoError(t, err)

	require.Len(t, result.Timeline, 7)
	assert.Equal(t, "2026-08-30", result.Timeline[5].Date)
	assert.Equal(t, 3, result.Timeline[5].Scans)
	assert.Equal(t, "2026-08-31", result.Timeline[6].Date)
	assert.Equal(t, 1, result.Timeline[6].Leads)

	assert.Equal(t, 3, result.Totals.Scans7d)
	assert.Equal(t, 1, result.Totals.Leads7d)
	assert.InDelta(t, 1.0/3.0, result.Totals.ConversionRate7d, 1e-6)
	assert.True(t, result.Meta.Available)

	// The metadata union found rows, so the tag fallback never ran.
	assert.Zero(t, queries.tagScanCalls.Load())
}

func TestGetAnalyticsDeduplicatesAcrossStrategies(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	at := now.Add(-2 * time.Hour)

	queries := &fakeQueries{
		scansByKey: map[string][]models.ScanEvent{
			models.AttributionKeyOwner:  {{ID: "dup", OccurredAt: at}},
			models.AttributionKeyLegacy: {{ID: "dup", OccurredAt: at}, {ID: "s2", OccurredAt: at}},
		},
	}

	engine := testEngine(t, queries, now)
	result, err := engine.GetAnalytics(context.Background(), "tenant-1", Options{Days: 7})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Totals.Scans)
}

func TestGetAnalyticsToleratesFailedStrategy(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	queries := &fakeQueries{
		scanErrByKey: map[string]error{
			models.AttributionKeyOwner: errors.New("json_extract blew up"),
		},
		scansByKey: map[string][]models.ScanEvent{
			models.AttributionKeyLegacy: {{ID: "s1", OccurredAt: now.Add(-time.Hour)}},
		},
	}

	engine := testEngine(t, queries, now)
	result, err := engine.GetAnalytics(context.Background(), "tenant-1", Options{Days: 7})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Totals.Scans)
}

func TestGetAnalyticsTagFallback(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	queries := &fakeQueries{
		assignments: []models.TagAssignment{{TagID: "tag-1", Nickname: "Front desk"}},
		scansByTag: []models.ScanEvent{
			{ID: "s1", TagID: "tag-1", OccurredAt: now.Add(-time.Hour)},
			{ID: "s2", TagID: "tag-1", OccurredAt: now.Add(-2 * time.Hour)},
		},
	}

	engine := testEngine(t, queries, now)
	result, err := engine.GetAnalytics(context.Background(), "tenant-1", Options{Days: 7})
	require.NoError(t, err)

	assert.Equal(t, int32(1), queries.tagScanCalls.Load())
	assert.Equal(t, 2, result.Totals.Scans)
}

func TestGetAnalyticsNoFallbackWithoutTags(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	engine := testEngine(t, &fakeQueries{}, now)

	result, err := engine.GetAnalytics(context.Background(), "tenant-1", Options{Days: 7})
	require.NoError(t, err)

	queries := engine.queries.(*fakeQueries)
	assert.Zero(t, queries.tagScanCalls.Load())
	assert.Zero(t, result.Totals.Scans)
}

func TestGetAnalyticsEventsTableMissing(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	queries := &fakeQueries{
		convErr: fmt.Errorf("conversion events: %w", store.ErrEventsTableMissing),
	}

	engine := testEngine(t, queries, now)
	result, err := engine.GetAnalytics(context.Background(), "tenant-1", Options{Days: 7})
	require.NoError(t, err)

	require.Len(t, result.Funnel.Steps, 5)
	for _, step := range result.Funnel.Steps {
		assert.Zero(t, step.EventCount)
		assert.False(t, step.Completed)
	}
	assert.False(t, result.Onboarding.Items[4].Completed)
}

func TestGetAnalyticsFatalQueryFailure(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	queries := &fakeQueries{profilesErr: errors.New("connection reset")}

	engine := testEngine(t, queries, now)
	result, err := engine.GetAnalytics(context.Background(), "tenant-1", Options{Days: 7})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "profiles query failed")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestGetAnalyticsIdempotent(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	queries := &fakeQueries{
		profiles: []models.Profile{{ID: "prof-1", Name: "Acme", Handle: "acme", IsActive: true}},
		scansByKey: map[string][]models.ScanEvent{
			models.AttributionKeyOwner: {
				{ID: "s1", OccurredAt: now.Add(-30 * time.Hour), Metadata: map[string]any{"profileId": "prof-1"}},
				{ID: "s2", OccurredAt: now.Add(-3 * time.Hour)},
			},
		},
		convEvents: []models.ConversionEvent{
			{EventID: "signup_started", CreatedAt: now.Add(-48 * time.Hour)},
			{EventID: "signup_completed", CreatedAt: now.Add(-47 * time.Hour)},
		},
		leads: []models.LeadRecord{{ID: "l1", Handle: "acme", CreatedAt: now.Add(-time.Hour)}},
	}

	engine := testEngine(t, queries, now)

	first, err := engine.GetAnalytics(context.Background(), "tenant-1", Options{Days: 14})
	require.NoError(t, err)
	second, err := engine.GetAnalytics(context.Background(), "tenant-1", Options{Days: 14})
	require.NoError(t, err)

	assert.Equal(t, first.Timeline, second.Timeline)
	assert.Equal(t, first.Funnel, second.Funnel)
	assert.Equal(t, first.Onboarding, second.Onboarding)
	assert.Equal(t, first.TopProfiles, second.TopProfiles)
}

func TestGetAnalyticsRecentLeads(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	var leads []models.LeadRecord
	for i := 0; i < 15; i++ {
		leads = append(leads, models.LeadRecord{
			ID:        fmt.Sprintf("l%02d", i),
			CreatedAt: now.Add(-time.Duration(i) * time.Hour),
		})
	}
	queries := &fakeQueries{leads: leads}

	engine := testEngine(t, queries, now)
	result, err := engine.GetAnalytics(context.Background(), "tenant-1", Options{Days: 30, RecentLeadCount: 5})
	require.NoError(t, err)

	require.Len(t, result.RecentLeads, 5)
	for i := 1; i < len(result.RecentLeads); i++ {
		assert.True(t, result.RecentLeads[i-1].CreatedAt.After(result.RecentLeads[i].CreatedAt))
	}
	assert.Equal(t, "l00", result.RecentLeads[0].ID)
}

func TestGetAnalyticsClampsOptions(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	engine := testEngine(t, &fakeQueries{}, now)

	result, err := engine.GetAnalytics(context.Background(), "tenant-1", Options{
		Days:                  5000,
		TimezoneOffsetMinutes: 99999,
	})
	require.NoError(t, err)

	assert.Equal(t, 90, result.Meta.Days)
	assert.Len(t, result.Timeline, 90)
}
