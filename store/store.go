// Package store provides the SQL-backed query layer the analytics engine
// reads from. It owns no state beyond the connection; every method returns
// an independent snapshot.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/linket-app/linket-go/logging"
	"github.com/linket-app/linket-go/models"
	"github.com/linket-app/linket-go/pkg/config"
)

// Store is the SQL implementation of the analytics query contract. A nil
// connection means the tenant's store is unconfigured; callers check
// Available and degrade instead of querying.
type Store struct {
	db     *sql.DB
	logger *logging.ChanneledLogger
}

// New creates a store over the given connection. db may be nil for an
// unavailable tenant.
func New(db *sql.DB, logger *logging.ChanneledLogger) *Store {
	return &Store{db: db, logger: logger}
}

// Available reports whether the tenant's store can be queried at all.
func (s *Store) Available() bool {
	return s.db != nil
}

// FetchAssignments loads the tenant's tag assignments.
func (s *Store) FetchAssignments(ctx context.Context, tenantID string) ([]models.TagAssignment, error) {
	const query = `
		SELECT id, COALESCE(nickname, ''), COALESCE(profile_id, '')
		FROM tags
		WHERE user_id = ?`

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		s.logger.Database().Error("Failed to load tag assignments", "error", err.Error(), "tenantId", tenantID)
		return nil, err
	}
	defer rows.Close()

	var assignments []models.TagAssignment
	for rows.Next() {
		var as models.TagAssignment
		if err := rows.Scan(&as.TagID, &as.Nickname, &as.ProfileID); err != nil {
			return nil, err
		}
		assignments = append(assignments, as)
	}
	s.finishQuery(query, start, tenantID)
	return assignments, rows.Err()
}

// FetchProfiles loads every profile owned by the tenant.
func (s *Store) FetchProfiles(ctx context.Context, tenantID string) ([]models.Profile, error) {
	const query = `
		SELECT id, COALESCE(name, ''), COALESCE(handle, ''), is_active
		FROM profiles
		WHERE user_id = ?
		ORDER BY created_at`

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		s.logger.Database().Error("Failed to load profiles", "error", err.Error(), "tenantId", tenantID)
		return nil, err
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.Handle, &p.IsActive); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	s.finishQuery(query, start, tenantID)
	return profiles, rows.Err()
}

// FetchActiveLinkCounts returns the number of active links per profile.
func (s *Store) FetchActiveLinkCounts(ctx context.Context, tenantID string) (map[string]int, error) {
	const query = `
		SELECT l.profile_id, COUNT(*)
		FROM links l
		JOIN profiles p ON p.id = l.profile_id
		WHERE p.user_id = ? AND l.is_active = 1
		GROUP BY l.profile_id`

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		s.logger.Database().Error("Failed to load link counts", "error", err.Error(), "tenantId", tenantID)
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var profileID string
		var count int
		if err := rows.Scan(&profileID, &count); err != nil {
			return nil, err
		}
		counts[profileID] = count
	}
	s.finishQuery(query, start, tenantID)
	return counts, rows.Err()
}

// FetchPublishedLeadFormExists reports whether the tenant has any published
// lead form.
func (s *Store) FetchPublishedLeadFormExists(ctx context.Context, tenantID string) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM lead_forms WHERE user_id = ? AND is_published = 1
		)`

	start := time.Now()
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, tenantID).Scan(&exists); err != nil {
		s.logger.Database().Error("Failed to check lead form", "error", err.Error(), "tenantId", tenantID)
		return false, err
	}
	s.finishQuery(query, start, tenantID)
	return exists, nil
}

// FetchActiveLinkPerformance loads active links with lifetime click counts.
func (s *Store) FetchActiveLinkPerformance(ctx context.Context, tenantID string) ([]models.ProfileLink, error) {
	const query = `
		SELECT l.id, COALESCE(l.profile_id, ''), COALESCE(l.title, ''),
		       COALESCE(l.url, ''), l.click_count, l.is_active
		FROM links l
		JOIN profiles p ON p.id = l.profile_id
		WHERE p.user_id = ? AND l.is_active = 1
		ORDER BY l.click_count DESC`

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		s.logger.Database().Error("Failed to load link performance", "error", err.Error(), "tenantId", tenantID)
		return nil, err
	}
	defer rows.Close()

	var links []models.ProfileLink
	for rows.Next() {
		var link models.ProfileLink
		if err := rows.Scan(&link.ID, &link.ProfileID, &link.Title, &link.URL, &link.ClickCount, &link.IsActive); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	s.finishQuery(query, start, tenantID)
	return links, rows.Err()
}

// FetchConversionEvents loads the tenant's occurrences of the named product
// events. A tenant whose app_events table was never created gets the typed
// ErrEventsTableMissing so the funnel can degrade to empty.
func (s *Store) FetchConversionEvents(ctx context.Context, tenantID string, eventIDs []string) ([]models.ConversionEvent, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(eventIDs))
	placeholders = placeholders[:len(placeholders)-1]
	query := fmt.Sprintf(`
		SELECT event_id, created_at, client_timestamp
		FROM app_events
		WHERE user_id = ? AND event_id IN (%s)
		ORDER BY created_at`, placeholders)

	args := make([]any, 0, len(eventIDs)+1)
	args = append(args, tenantID)
	for _, id := range eventIDs {
		args = append(args, id)
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		if isMissingTableErr(err) {
			s.logger.Database().Info("app_events table not present for tenant", "tenantId", tenantID)
			return nil, fmt.Errorf("conversion events: %w", ErrEventsTableMissing)
		}
		s.logger.Database().Error("Failed to load conversion events", "error", err.Error(), "tenantId", tenantID)
		return nil, err
	}
	defer rows.Close()

	var events []models.ConversionEvent
	for rows.Next() {
		var ev models.ConversionEvent
		var createdAt string
		var clientTS sql.NullString
		if err := rows.Scan(&ev.EventID, &createdAt, &clientTS); err != nil {
			return nil, err
		}
		ev.CreatedAt, err = parseTimestamp(createdAt)
		if err != nil {
			return nil, err
		}
		if clientTS.Valid && clientTS.String != "" {
			if ts, err := parseTimestamp(clientTS.String); err == nil {
				ev.Timestamp = &ts
			}
		}
		events = append(events, ev)
	}
	s.finishQuery(query, start, tenantID)
	return events, rows.Err()
}

// FetchScanEvents loads scan events attributed to the tenant through one
// metadata key.
func (s *Store) FetchScanEvents(ctx context.Context, tenantID string, start, end time.Time, attributionKey string) ([]models.ScanEvent, error) {
	const query = `
		SELECT id, COALESCE(tag_id, ''), occurred_at, COALESCE(metadata, '{}')
		FROM scan_events
		WHERE json_extract(metadata, ?) = ?
		  AND occurred_at >= ? AND occurred_at <= ?
		ORDER BY occurred_at`

	began := time.Now()
	rows, err := s.db.QueryContext(ctx, query,
		"$."+attributionKey, tenantID, formatTimestamp(start), formatTimestamp(end))
	if err != nil {
		s.logger.Database().Error("Failed to load scan events",
			"error", err.Error(), "tenantId", tenantID, "attributionKey", attributionKey)
		return nil, err
	}
	defer rows.Close()

	events, err := s.scanEventRows(rows)
	if err != nil {
		return nil, err
	}
	s.finishQuery(query, began, tenantID)
	return events, nil
}

// FetchScanEventsByTagIDs loads scan events by direct tag-id join, the
// fallback for events written before attribution metadata existed.
func (s *Store) FetchScanEventsByTagIDs(ctx context.Context, tenantID string, tagIDs []string, start, end time.Time) ([]models.ScanEvent, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(tagIDs))
	placeholders = placeholders[:len(placeholders)-1]
	query := fmt.Sprintf(`
		SELECT id, COALESCE(tag_id, ''), occurred_at, COALESCE(metadata, '{}')
		FROM scan_events
		WHERE tag_id IN (%s)
		  AND occurred_at >= ? AND occurred_at <= ?
		ORDER BY occurred_at`, placeholders)

	args := make([]any, 0, len(tagIDs)+2)
	for _, id := range tagIDs {
		args = append(args, id)
	}
	args = append(args, formatTimestamp(start), formatTimestamp(end))

	began := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Database().Error("Failed to load scan events by tag ids", "error", err.Error(), "tenantId", tenantID)
		return nil, err
	}
	defer rows.Close()

	events, err := s.scanEventRows(rows)
	if err != nil {
		return nil, err
	}
	s.finishQuery(query, began, tenantID)
	return events, nil
}

// FetchLeads loads the tenant's captured leads within the window.
func (s *Store) FetchLeads(ctx context.Context, tenantID string, start, end time.Time) ([]models.LeadRecord, error) {
	const query = `
		SELECT id, COALESCE(name, ''), COALESCE(email, ''), COALESCE(phone, ''),
		       COALESCE(company, ''), COALESCE(message, ''), COALESCE(source_url, ''),
		       COALESCE(handle, ''), created_at
		FROM leads
		WHERE user_id = ? AND created_at >= ? AND created_at <= ?
		ORDER BY created_at DESC`

	began := time.Now()
	rows, err := s.db.QueryContext(ctx, query, tenantID, formatTimestamp(start), formatTimestamp(end))
	if err != nil {
		s.logger.Database().Error("Failed to load leads", "error", err.Error(), "tenantId", tenantID)
		return nil, err
	}
	defer rows.Close()

	var leads []models.LeadRecord
	for rows.Next() {
		var lead models.LeadRecord
		var createdAt string
		if err := rows.Scan(&lead.ID, &lead.Name, &lead.Email, &lead.Phone,
			&lead.Company, &lead.Message, &lead.SourceURL, &lead.Handle, &createdAt); err != nil {
			return nil, err
		}
		lead.CreatedAt, err = parseTimestamp(createdAt)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	s.finishQuery(query, began, tenantID)
	return leads, rows.Err()
}

// scanEventRows scans scan_events rows, decoding the raw metadata bag.
func (s *Store) scanEventRows(rows *sql.Rows) ([]models.ScanEvent, error) {
	var events []models.ScanEvent
	for rows.Next() {
		var ev models.ScanEvent
		var occurredAt, metadata string
		if err := rows.Scan(&ev.ID, &ev.TagID, &occurredAt, &metadata); err != nil {
			return nil, err
		}
		var err error
		ev.OccurredAt, err = parseTimestamp(occurredAt)
		if err != nil {
			return nil, err
		}
		if metadata != "" && metadata != "{}" {
			if err := json.Unmarshal([]byte(metadata), &ev.Metadata); err != nil {
				// A corrupt bag loses attribution detail, not the event.
				s.logger.Database().Warn("Unparseable scan metadata", "scanId", ev.ID, "error", err.Error())
			}
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *Store) finishQuery(query string, start time.Time, tenantID string) {
	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		s.logger.LogSlowQuery(query, duration, tenantID)
	}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTimestamp handles both RFC3339 and the space-separated form older
// rows were written with.
func parseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02 15:04:05", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable timestamp %q: %w", value, err)
	}
	return t.UTC(), nil
}
