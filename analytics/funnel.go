package analytics

import (
	"time"

	"github.com/linket-app/linket-go/models"
)

// funnelStage defines one acquisition milestone and the product event ids
// that count toward it. The table is fixed so the funnel shape can never
// drift from five ordered steps.
type funnelStage struct {
	key      string
	label    string
	eventIDs []string
}

var funnelStages = []funnelStage{
	{
		key:   "landing_cta",
		label: "Landing CTA clicked",
		eventIDs: []string{
			"landing_hero_cta_click",
			"landing_pricing_cta_click",
			"landing_footer_cta_click",
		},
	},
	{key: "signup_started", label: "Signup started", eventIDs: []string{"signup_started"}},
	{key: "signup_completed", label: "Signup completed", eventIDs: []string{"signup_completed"}},
	{key: "profile_published", label: "Profile published", eventIDs: []string{"profile_published"}},
	{key: "lead_captured", label: "First lead captured", eventIDs: []string{"lead_captured"}},
}

// shareEventIDs are the conversion events that satisfy the "test a share"
// onboarding item. Fetched together with the funnel events.
var shareEventIDs = []string{"share_completed", "vcard_download_completed"}

// TrackedEventIDs returns every conversion event id the engine queries for:
// the funnel stages plus the share-test events.
func TrackedEventIDs() []string {
	var ids []string
	for _, stage := range funnelStages {
		ids = append(ids, stage.eventIDs...)
	}
	return append(ids, shareEventIDs...)
}

// BuildFunnel reduces the conversion-event stream into the fixed 5-stage
// funnel with per-stage first-occurrence time and stage-over-stage
// conversion ratios.
func BuildFunnel(events []models.ConversionEvent) models.Funnel {
	counts := make([]int, len(funnelStages))
	firsts := make([]*time.Time, len(funnelStages))

	stageByEvent := make(map[string]int)
	for i, stage := range funnelStages {
		for _, id := range stage.eventIDs {
			stageByEvent[id] = i
		}
	}

	for _, ev := range events {
		i, ok := stageByEvent[ev.EventID]
		if !ok {
			continue
		}
		counts[i]++
		at := eventTime(ev)
		if firsts[i] == nil || at.Before(*firsts[i]) {
			t := at
			firsts[i] = &t
		}
	}

	funnel := models.Funnel{Steps: make([]models.FunnelStep, len(funnelStages))}
	for i, stage := range funnelStages {
		step := models.FunnelStep{
			Key:        stage.key,
			Label:      stage.label,
			EventCount: counts[i],
			FirstAt:    firsts[i],
			Completed:  counts[i] > 0,
		}
		if i > 0 && counts[i-1] > 0 {
			ratio := float64(counts[i]) / float64(counts[i-1])
			if ratio > 1 {
				ratio = 1
			}
			step.ConversionFromPrevious = &ratio
		}
		funnel.Steps[i] = step
		if step.Completed {
			funnel.CompletedSteps++
		}
	}
	funnel.CompletionRate = float64(funnel.CompletedSteps) / float64(len(funnelStages))

	return funnel
}

// CountShareEvents tallies the conversion events that count as a completed
// share test.
func CountShareEvents(events []models.ConversionEvent) int {
	share := make(map[string]bool, len(shareEventIDs))
	for _, id := range shareEventIDs {
		share[id] = true
	}
	count := 0
	for _, ev := range events {
		if share[ev.EventID] {
			count++
		}
	}
	return count
}

// eventTime prefers the client-reported timestamp, falling back to the
// server insert time.
func eventTime(ev models.ConversionEvent) time.Time {
	if ev.Timestamp != nil {
		return *ev.Timestamp
	}
	return ev.CreatedAt
}
