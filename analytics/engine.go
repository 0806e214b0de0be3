package analytics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/linket-app/linket-go/logging"
	"github.com/linket-app/linket-go/models"
	"github.com/linket-app/linket-go/store"
)

const (
	defaultWindowDays      = 30
	defaultRecentLeadCount = 10
)

// Queries is the read contract the engine consumes. The store-access layer
// implements it; tests substitute fakes. Every method returns an immutable
// snapshot the engine owns after the call.
type Queries interface {
	// Available reports whether the store can be reached at all. When it
	// cannot, the engine skips every query and returns a degraded report.
	Available() bool

	FetchAssignments(ctx context.Context, tenantID string) ([]models.TagAssignment, error)
	FetchProfiles(ctx context.Context, tenantID string) ([]models.Profile, error)
	FetchActiveLinkCounts(ctx context.Context, tenantID string) (map[string]int, error)
	FetchPublishedLeadFormExists(ctx context.Context, tenantID string) (bool, error)
	FetchActiveLinkPerformance(ctx context.Context, tenantID string) ([]models.ProfileLink, error)
	FetchConversionEvents(ctx context.Context, tenantID string, eventIDs []string) ([]models.ConversionEvent, error)
	FetchScanEvents(ctx context.Context, tenantID string, start, end time.Time, attributionKey string) ([]models.ScanEvent, error)
	FetchScanEventsByTagIDs(ctx context.Context, tenantID string, tagIDs []string, start, end time.Time) ([]models.ScanEvent, error)
	FetchLeads(ctx context.Context, tenantID string, start, end time.Time) ([]models.LeadRecord, error)
}

// Options are the caller-supplied report parameters. Zero values mean
// defaults; out-of-range values are clamped, never rejected.
type Options struct {
	Days                  int
	TimezoneOffsetMinutes int
	RecentLeadCount       int
}

func (o Options) normalized() Options {
	if o.Days == 0 {
		o.Days = defaultWindowDays
	}
	o.Days = ClampDays(o.Days)
	o.TimezoneOffsetMinutes = ClampOffsetMinutes(o.TimezoneOffsetMinutes)
	if o.RecentLeadCount <= 0 {
		o.RecentLeadCount = defaultRecentLeadCount
	}
	return o
}

// Engine computes one analytics report per call: fan out all independent
// store reads, then reduce the snapshots locally. No state survives
// between calls.
type Engine struct {
	queries Queries
	log     *logging.ChanneledLogger
	now     func() time.Time
}

// NewEngine creates an analytics engine over the given query layer.
func NewEngine(queries Queries, logger *logging.ChanneledLogger) *Engine {
	return &Engine{
		queries: queries,
		log:     logger,
		now:     time.Now,
	}
}

// GetAnalytics produces the full rollup report for one tenant. The tenant
// id is trusted as supplied; authorization happens upstream.
func (e *Engine) GetAnalytics(ctx context.Context, tenantID string, opts Options) (*models.AnalyticsResult, error) {
	start := time.Now()
	opts = opts.normalized()
	win := NewWindow(opts.Days, opts.TimezoneOffsetMinutes, e.now())

	if !e.queries.Available() {
		e.log.Analytics().Warn("Store unavailable, returning degraded report", "tenantId", tenantID)
		return e.emptyResult(win), nil
	}

	var (
		assignments []models.TagAssignment
		profiles    []models.Profile
		linkCounts  map[string]int
		leadForm    bool
		links       []models.ProfileLink
		convEvents  []models.ConversionEvent
		leads       []models.LeadRecord
		scanUnion   []models.ScanEvent
	)

	var wg sync.WaitGroup
	errChan := make(chan error, 8)
	wg.Add(8)

	go func() {
		defer wg.Done()
		var err error
		assignments, err = e.queries.FetchAssignments(ctx, tenantID)
		if err != nil {
			errChan <- fmt.Errorf("assignments query failed: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		profiles, err = e.queries.FetchProfiles(ctx, tenantID)
		if err != nil {
			errChan <- fmt.Errorf("profiles query failed: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		linkCounts, err = e.queries.FetchActiveLinkCounts(ctx, tenantID)
		if err != nil {
			errChan <- fmt.Errorf("link counts query failed: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		leadForm, err = e.queries.FetchPublishedLeadFormExists(ctx, tenantID)
		if err != nil {
			errChan <- fmt.Errorf("lead form query failed: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		links, err = e.queries.FetchActiveLinkPerformance(ctx, tenantID)
		if err != nil {
			errChan <- fmt.Errorf("link performance query failed: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		convEvents, err = e.queries.FetchConversionEvents(ctx, tenantID, TrackedEventIDs())
		if err != nil {
			if errors.Is(err, store.ErrEventsTableMissing) {
				e.log.Analytics().Info("Conversion events table missing, funnel degrades to empty", "tenantId", tenantID)
				convEvents = nil
				return
			}
			errChan <- fmt.Errorf("conversion events query failed: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		leads, err = e.queries.FetchLeads(ctx, tenantID, win.StartUTC, win.EndUTC)
		if err != nil {
			errChan <- fmt.Errorf("leads query failed: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		scanUnion = e.unionMetadataScans(ctx, tenantID, win)
	}()

	wg.Wait()
	close(errChan)

	if err := <-errChan; err != nil {
		e.log.Analytics().Error("Analytics computation aborted", "tenantId", tenantID, "error", err.Error())
		return nil, err
	}

	scans, err := e.resolveScans(ctx, tenantID, win, scanUnion, tagIDsOf(assignments))
	if err != nil {
		e.log.Analytics().Error("Analytics computation aborted", "tenantId", tenantID, "error", err.Error())
		return nil, err
	}

	// All I/O has settled; everything below is pure, single-threaded
	// reduction over locally-owned snapshots.
	attr := BuildAttributor(assignments, profiles)
	timeline, totals := BuildTimeline(win, scans, leads)

	result := &models.AnalyticsResult{
		Totals:      totals,
		Timeline:    timeline,
		TopProfiles: RankProfiles(attr, scans, leads),
		TopLinks:    RankLinks(links),
		RecentLeads: recentLeads(leads, opts.RecentLeadCount),
		Funnel:      BuildFunnel(convEvents),
		Onboarding: BuildOnboarding(OnboardingInput{
			Profiles:        profiles,
			LinkCounts:      linkCounts,
			LeadFormLive:    leadForm,
			ShareEventCount: CountShareEvents(convEvents),
		}),
		Meta: models.Meta{
			Days:        win.Days,
			GeneratedAt: e.now().UTC(),
			Available:   true,
		},
	}

	e.log.Analytics().Info("Analytics report computed",
		"tenantId", tenantID,
		"days", win.Days,
		"scans", totals.Scans,
		"leads", totals.Leads,
		"duration", time.Since(start))

	return result, nil
}

// emptyResult is the degraded-mode report: fully shaped, all zeros, every
// invariant intact, flagged unavailable.
func (e *Engine) emptyResult(win Window) *models.AnalyticsResult {
	timeline, totals := BuildTimeline(win, nil, nil)
	return &models.AnalyticsResult{
		Totals:      totals,
		Timeline:    timeline,
		TopProfiles: []models.ProfileRank{},
		TopLinks:    []models.LinkRank{},
		RecentLeads: []models.LeadRecord{},
		Funnel:      BuildFunnel(nil),
		Onboarding:  BuildOnboarding(OnboardingInput{}),
		Meta: models.Meta{
			Days:        win.Days,
			GeneratedAt: e.now().UTC(),
			Available:   false,
		},
	}
}

// recentLeads returns the newest limit leads, independent of timeline
// bucketing.
func recentLeads(leads []models.LeadRecord, limit int) []models.LeadRecord {
	recent := make([]models.LeadRecord, len(leads))
	copy(recent, leads)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > limit {
		recent = recent[:limit]
	}
	return recent
}

func tagIDsOf(assignments []models.TagAssignment) []string {
	var ids []string
	seen := make(map[string]bool, len(assignments))
	for _, as := range assignments {
		if as.TagID == "" || seen[as.TagID] {
			continue
		}
		seen[as.TagID] = true
		ids = append(ids, as.TagID)
	}
	return ids
}
