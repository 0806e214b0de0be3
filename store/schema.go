package store

import (
	"database/sql"
	"fmt"
)

// tables holds the schema for a tenant database. app_events is deliberately
// absent: that table belongs to the product-events ingester and may not
// exist for a tenant, which is exactly the optional-source case the
// conversion-event query degrades around.
var tables = []string{
	`CREATE TABLE IF NOT EXISTS tags (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		profile_id TEXT,
		nickname TEXT,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT,
		handle TEXT,
		is_active INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`,
	`CREATE TABLE IF NOT EXISTS links (
		id TEXT PRIMARY KEY,
		profile_id TEXT,
		title TEXT,
		url TEXT,
		click_count INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS lead_forms (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		profile_id TEXT,
		is_published INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS leads (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT,
		email TEXT,
		phone TEXT,
		company TEXT,
		message TEXT,
		source_url TEXT,
		handle TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS scan_events (
		id TEXT PRIMARY KEY,
		tag_id TEXT,
		occurred_at TEXT NOT NULL,
		metadata TEXT
	)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_tags_user ON tags(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_profiles_user ON profiles(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_links_profile ON links(profile_id)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_user_created ON leads(user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_scans_tag_occurred ON scan_events(tag_id, occurred_at)`,
	`CREATE INDEX IF NOT EXISTS idx_scans_occurred ON scan_events(occurred_at)`,
}

// EnsureSchema builds the tenant's tables and indexes. Idempotent.
func EnsureSchema(db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}
