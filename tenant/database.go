// Package tenant provides database abstraction for multi-tenant support.
package tenant

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"                      // SQLite driver
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver

	"github.com/linket-app/linket-go/pkg/config"
	"github.com/linket-app/linket-go/store"
)

// Database wraps a tenant's store connection. Conn is nil when the tenant
// has no usable store configuration; analytics treats that as degraded, not
// fatal.
type Database struct {
	Conn     *sql.DB
	TenantID string
	UseTurso bool
}

// NewDatabase opens a connection for the specified tenant: Turso when
// credentials are present, an explicitly-configured local SQLite file
// otherwise, or no connection at all.
func NewDatabase(cfg *Config) (*Database, error) {
	var conn *sql.DB
	var err error
	var useTurso bool

	// Try Turso first if credentials are available
	if cfg.TursoDatabase != "" && cfg.TursoToken != "" {
		connStr := cfg.TursoDatabase + "?authToken=" + cfg.TursoToken
		conn, err = sql.Open("libsql", connStr)
		if err == nil {
			if pingErr := conn.Ping(); pingErr == nil {
				useTurso = true
			} else {
				conn.Close()
				conn = nil
			}
		}
	}

	// Fallback to local SQLite only when a path was configured
	if conn == nil && cfg.SQLitePath != "" {
		dbDir := filepath.Dir(cfg.SQLitePath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}

		conn, err = sql.Open("sqlite3", cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database: %w", err)
		}

		if err := conn.Ping(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("SQLite database ping failed: %w", err)
		}
		useTurso = false
	}

	if conn != nil {
		conn.SetMaxOpenConns(config.DBMaxOpenConns)
		conn.SetMaxIdleConns(config.DBMaxIdleConns)
		conn.SetConnMaxLifetime(time.Duration(config.DBConnMaxLifetimeMinutes) * time.Minute)

		if err := store.EnsureSchema(conn); err != nil {
			conn.Close()
			return nil, fmt.Errorf("schema bootstrap failed for tenant %s: %w", cfg.TenantID, err)
		}
	}

	return &Database{
		Conn:     conn,
		TenantID: cfg.TenantID,
		UseTurso: useTurso,
	}, nil
}

// Available reports whether this tenant has a queryable store.
func (db *Database) Available() bool {
	return db.Conn != nil
}

// Close closes the database connection
func (db *Database) Close() error {
	if db.Conn != nil {
		return db.Conn.Close()
	}
	return nil
}

// GetConnectionInfo returns a string describing the database connection
func (db *Database) GetConnectionInfo() string {
	if db.Conn == nil {
		return fmt.Sprintf("unconfigured (tenant: %s)", db.TenantID)
	}
	if db.UseTurso {
		return fmt.Sprintf("Turso (tenant: %s)", db.TenantID)
	}
	return fmt.Sprintf("SQLite (tenant: %s)", db.TenantID)
}
