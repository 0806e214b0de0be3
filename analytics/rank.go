package analytics

import (
	"sort"

	"github.com/linket-app/linket-go/models"
)

const topProfileLimit = 8

// RankProfiles builds the profile leaderboard: one accumulator per
// canonical attribution key, scans descending with leads as the tie-break,
// capped at the top 8. Recomputed fully on every call.
func RankProfiles(attr *Attributor, scans []models.ScanEvent, leads []models.LeadRecord) []models.ProfileRank {
	accs := make(map[string]*models.ProfileRank)
	var order []string

	accumulate := func(a Attribution) *models.ProfileRank {
		acc, ok := accs[a.Key]
		if !ok {
			acc = &models.ProfileRank{Key: a.Key, Name: a.Name, Nickname: a.Nickname}
			accs[a.Key] = acc
			order = append(order, a.Key)
			return acc
		}
		if betterName(acc.Name, a.Name) {
			acc.Name = a.Name
		}
		if acc.Nickname == "" && a.Nickname != "" {
			acc.Nickname = a.Nickname
		}
		return acc
	}

	for _, ev := range scans {
		accumulate(attr.AttributeScan(ev)).Scans++
	}
	for _, lead := range leads {
		accumulate(attr.AttributeLead(lead)).Leads++
	}

	ranked := make([]models.ProfileRank, 0, len(order))
	for _, key := range order {
		ranked = append(ranked, *accs[key])
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Scans != ranked[j].Scans {
			return ranked[i].Scans > ranked[j].Scans
		}
		return ranked[i].Leads > ranked[j].Leads
	})

	if len(ranked) > topProfileLimit {
		ranked = ranked[:topProfileLimit]
	}
	return ranked
}

// betterName reports whether candidate is a more useful display name than
// current. Placeholders only ever lose to real names.
func betterName(current, candidate string) bool {
	if candidate == "" || candidate == unassignedName || candidate == publicLinkName {
		return false
	}
	return current == "" || current == unassignedName || current == publicLinkName
}

// RankLinks builds the link leaderboard: every active link sorted by click
// count descending, titles alphabetical on ties. Callers truncate for
// display.
func RankLinks(links []models.ProfileLink) []models.LinkRank {
	ranked := make([]models.LinkRank, 0, len(links))
	for _, link := range links {
		if !link.IsActive {
			continue
		}
		title := link.Title
		if title == "" {
			title = link.URL
		}
		ranked = append(ranked, models.LinkRank{
			ID:         link.ID,
			Title:      title,
			URL:        link.URL,
			ClickCount: link.ClickCount,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].ClickCount != ranked[j].ClickCount {
			return ranked[i].ClickCount > ranked[j].ClickCount
		}
		return ranked[i].Title < ranked[j].Title
	})

	return ranked
}
