package analytics

import (
	"strings"

	"github.com/linket-app/linket-go/models"
)

// Display placeholders for events that cannot be tied to a profile.
const (
	unassignedName  = "Unassigned"
	publicLinkName  = "Public Linket"
	metadataKeyProf = "profileId"
)

// Attribution is the resolved owner of one scan or lead: a canonical
// accumulator key plus whatever display info was recoverable.
type Attribution struct {
	Key      string
	Name     string
	Nickname string
}

type profileEntry struct {
	id       string
	name     string
	handle   string
	nickname string
}

func (p *profileEntry) displayName() string {
	if p.name != "" {
		return p.name
	}
	if p.handle != "" {
		return p.handle
	}
	return unassignedName
}

// Attributor holds the per-request lookup tables used to attach an owner to
// every scan and lead. Built once per report from assignment and profile
// rows; read-only afterwards.
type Attributor struct {
	profileByID     map[string]*profileEntry
	profileByHandle map[string]*profileEntry
	tagMeta         map[string]models.TagAssignment
}

// BuildAttributor constructs the lookup tables. Assignment nicknames
// augment profile rows that lack one; handle keys are lowercased and blank
// handles are never indexed.
func BuildAttributor(assignments []models.TagAssignment, profiles []models.Profile) *Attributor {
	a := &Attributor{
		profileByID:     make(map[string]*profileEntry, len(profiles)),
		profileByHandle: make(map[string]*profileEntry, len(profiles)),
		tagMeta:         make(map[string]models.TagAssignment, len(assignments)),
	}

	for _, p := range profiles {
		entry := &profileEntry{id: p.ID, name: p.Name, handle: p.Handle}
		a.profileByID[p.ID] = entry
		if handle := normalizeHandle(p.Handle); handle != "" {
			a.profileByHandle[handle] = entry
		}
	}

	for _, as := range assignments {
		if as.TagID != "" {
			a.tagMeta[as.TagID] = as
		}
		if as.ProfileID == "" || as.Nickname == "" {
			continue
		}
		if entry, ok := a.profileByID[as.ProfileID]; ok && entry.nickname == "" {
			entry.nickname = as.Nickname
		}
	}

	return a
}

// AttributeScan resolves the owner of a scan. Precedence: profile id
// declared in the event metadata, then the tag's assignment, then
// "Unassigned" under a synthetic per-row key.
func (a *Attributor) AttributeScan(ev models.ScanEvent) Attribution {
	if pid := metadataString(ev.Metadata, metadataKeyProf); pid != "" {
		if entry, ok := a.profileByID[pid]; ok {
			return Attribution{Key: entry.id, Name: entry.displayName(), Nickname: entry.nickname}
		}
		return Attribution{Key: pid, Name: unassignedName}
	}

	if ev.TagID != "" {
		if as, ok := a.tagMeta[ev.TagID]; ok {
			if entry, found := a.profileByID[as.ProfileID]; found {
				attr := Attribution{Key: entry.id, Name: entry.displayName(), Nickname: entry.nickname}
				if attr.Nickname == "" {
					attr.Nickname = as.Nickname
				}
				return attr
			}
			name := as.Nickname
			if name == "" {
				name = unassignedName
			}
			return Attribution{Key: ev.TagID, Name: name, Nickname: as.Nickname}
		}
		return Attribution{Key: ev.TagID, Name: unassignedName}
	}

	return Attribution{Key: "scan:" + ev.ID, Name: unassignedName}
}

// AttributeLead resolves the owner of a lead by its handle. Unmatched or
// blank handles fall back to the public-page placeholder.
func (a *Attributor) AttributeLead(lead models.LeadRecord) Attribution {
	handle := normalizeHandle(lead.Handle)
	if handle == "" {
		return Attribution{Key: "lead:" + lead.ID, Name: publicLinkName}
	}

	if entry, ok := a.profileByHandle[handle]; ok {
		return Attribution{Key: entry.id, Name: entry.displayName(), Nickname: entry.nickname}
	}
	return Attribution{Key: handle, Name: publicLinkName}
}

func normalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

func metadataString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	if v, ok := meta[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
