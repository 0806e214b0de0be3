// Package models defines the store record and analytics result types for
// per-tenant Linket analytics processing.
package models

import "time"

// Attribution metadata keys carried on raw scan events. Newer events carry
// the owner key; events written before the metadata migration carry the
// legacy key, and the oldest carry nothing at all.
const (
	AttributionKeyOwner  = "ownerUserId"
	AttributionKeyLegacy = "userId"
	AttributionKeyTag    = "tagId"
)

// ScanEvent is one recorded tap of a physical tag. Metadata is the raw
// key/value bag as written by the ingest path; it is never mutated here.
type ScanEvent struct {
	ID         string         `json:"id"`
	TagID      string         `json:"tagId,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// LeadRecord is a contact captured via a profile's lead form. Leads are
// attributed by profile handle, not by id.
type LeadRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	Message   string    `json:"message,omitempty"`
	SourceURL string    `json:"sourceUrl,omitempty"`
	Handle    string    `json:"handle,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ConversionEvent is a tagged occurrence of a named product event.
// Timestamp is the client-reported instant when present; CreatedAt is the
// server insert time and always set.
type ConversionEvent struct {
	EventID   string     `json:"eventId"`
	CreatedAt time.Time  `json:"createdAt"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// TagAssignment binds a physical tag to an owning profile. Used as the
// fallback attribution path for scans without usable metadata.
type TagAssignment struct {
	TagID     string `json:"tagId"`
	Nickname  string `json:"nickname,omitempty"`
	ProfileID string `json:"profileId,omitempty"`
}

// Profile is a tenant-owned public page.
type Profile struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Handle   string `json:"handle,omitempty"`
	IsActive bool   `json:"isActive"`
}

// ProfileLink is one link row on a profile with its lifetime click count.
type ProfileLink struct {
	ID         string `json:"id"`
	ProfileID  string `json:"profileId,omitempty"`
	Title      string `json:"title,omitempty"`
	URL        string `json:"url,omitempty"`
	ClickCount int    `json:"clickCount"`
	IsActive   bool   `json:"isActive"`
}
