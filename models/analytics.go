package models

import "time"

// =============================================================================
// Analytics Result Types
// =============================================================================

// TimelinePoint is one local calendar day in the report window. Every day in
// the window is present, zeroed when no events fell on it.
type TimelinePoint struct {
	Date  string `json:"date"`
	Scans int    `json:"scans"`
	Leads int    `json:"leads"`
}

// Totals summarizes scan/lead volume across the window.
type Totals struct {
	Scans            int        `json:"scans"`
	Leads            int        `json:"leads"`
	ScansToday       int        `json:"scansToday"`
	LeadsToday       int        `json:"leadsToday"`
	Scans7d          int        `json:"scans7d"`
	Leads7d          int        `json:"leads7d"`
	ConversionRate7d float64    `json:"conversionRate7d"`
	LastScanAt       *time.Time `json:"lastScanAt,omitempty"`
}

// ProfileRank is one leaderboard row, keyed by whichever attribution
// identity the underlying events resolved to.
type ProfileRank struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Nickname string `json:"nickname,omitempty"`
	Scans    int    `json:"scans"`
	Leads    int    `json:"leads"`
}

// LinkRank is one link leaderboard row.
type LinkRank struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url,omitempty"`
	ClickCount int    `json:"clickCount"`
}

// FunnelStep is one of the five fixed acquisition stages.
type FunnelStep struct {
	Key                    string     `json:"key"`
	Label                  string     `json:"label"`
	EventCount             int        `json:"eventCount"`
	FirstAt                *time.Time `json:"firstAt,omitempty"`
	Completed              bool       `json:"completed"`
	ConversionFromPrevious *float64   `json:"conversionFromPrevious"`
}

// Funnel carries the five fixed steps plus derived completion figures.
type Funnel struct {
	Steps          []FunnelStep `json:"steps"`
	CompletedSteps int          `json:"completedSteps"`
	CompletionRate float64      `json:"completionRate"`
}

// OnboardingItem is one of the five fixed setup checklist entries.
type OnboardingItem struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Completed bool   `json:"completed"`
	Detail    string `json:"detail,omitempty"`
}

// Onboarding carries the fixed checklist plus derived progress.
type Onboarding struct {
	Items          []OnboardingItem `json:"items"`
	CompletedCount int              `json:"completedCount"`
	Progress       float64          `json:"progress"`
}

// Meta describes how the report was produced.
type Meta struct {
	Days        int       `json:"days"`
	GeneratedAt time.Time `json:"generatedAt"`
	Available   bool      `json:"available"`
}

// AnalyticsResult is the aggregate root returned to the HTTP layer. It is a
// plain serializable snapshot; nothing in it is shared or retained between
// calls.
type AnalyticsResult struct {
	Totals      Totals          `json:"totals"`
	Timeline    []TimelinePoint `json:"timeline"`
	TopProfiles []ProfileRank   `json:"topProfiles"`
	TopLinks    []LinkRank      `json:"topLinks"`
	RecentLeads []LeadRecord    `json:"recentLeads"`
	Funnel      Funnel          `json:"funnel"`
	Onboarding  Onboarding      `json:"onboarding"`
	Meta        Meta            `json:"meta"`
}
