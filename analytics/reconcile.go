package analytics

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/linket-app/linket-go/models"
)

// scanStrategy is one way of attributing raw scan events to a tenant. The
// strategies form an ordered list so new attribution keys can be added
// without touching reconciliation logic.
type scanStrategy struct {
	key   string
	fetch func(ctx context.Context) ([]models.ScanEvent, error)
}

// metadataStrategies returns the metadata-keyed strategies in precedence
// order: the current owner key first, then the legacy key written before
// the metadata migration.
func (e *Engine) metadataStrategies(tenantID string, win Window) []scanStrategy {
	keys := []string{models.AttributionKeyOwner, models.AttributionKeyLegacy}
	strategies := make([]scanStrategy, 0, len(keys))
	for _, key := range keys {
		key := key
		strategies = append(strategies, scanStrategy{
			key: key,
			fetch: func(ctx context.Context) ([]models.ScanEvent, error) {
				return e.queries.FetchScanEvents(ctx, tenantID, win.StartUTC, win.EndUTC, key)
			},
		})
	}
	return strategies
}

// unionMetadataScans runs every metadata strategy concurrently and unions
// the results by event id, first-seen wins. A failed strategy counts as
// zero rows rather than failing the report.
func (e *Engine) unionMetadataScans(ctx context.Context, tenantID string, win Window) []models.ScanEvent {
	strategies := e.metadataStrategies(tenantID, win)

	results := make([][]models.ScanEvent, len(strategies))
	var wg sync.WaitGroup
	wg.Add(len(strategies))

	for i, strategy := range strategies {
		i, strategy := i, strategy
		go func() {
			defer wg.Done()
			rows, err := strategy.fetch(ctx)
			if err != nil {
				e.log.Analytics().Warn("Scan attribution strategy failed",
					"tenantId", tenantID, "attributionKey", strategy.key, "error", err.Error())
				return
			}
			results[i] = rows
		}()
	}
	wg.Wait()

	// Strategy order keeps the merge deterministic.
	seen := make(map[string]bool)
	var merged []models.ScanEvent
	for _, rows := range results {
		for _, ev := range rows {
			if seen[ev.ID] {
				continue
			}
			seen[ev.ID] = true
			merged = append(merged, ev)
		}
	}
	return merged
}

// resolveScans finishes reconciliation: when the metadata union came up
// empty and at least one tag id is known, a direct tag-id join picks up the
// oldest events that carry no metadata at all. Output is deduplicated and
// ascending by occurrence time.
func (e *Engine) resolveScans(ctx context.Context, tenantID string, win Window, union []models.ScanEvent, tagIDs []string) ([]models.ScanEvent, error) {
	merged := union

	if len(merged) == 0 && len(tagIDs) > 0 {
		rows, err := e.queries.FetchScanEventsByTagIDs(ctx, tenantID, tagIDs, win.StartUTC, win.EndUTC)
		if err != nil {
			return nil, fmt.Errorf("scan tag-id fallback query failed: %w", err)
		}
		seen := make(map[string]bool, len(rows))
		for _, ev := range rows {
			if seen[ev.ID] {
				continue
			}
			seen[ev.ID] = true
			merged = append(merged, ev)
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].OccurredAt.Equal(merged[j].OccurredAt) {
			return merged[i].OccurredAt.Before(merged[j].OccurredAt)
		}
		return merged[i].ID < merged[j].ID
	})

	return merged, nil
}
