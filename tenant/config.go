// Package tenant provides multi-tenant configuration and management.
package tenant

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds tenant-specific configuration
type Config struct {
	TenantID      string `json:"tenantId"`
	TursoDatabase string `json:"TURSO_DATABASE_URL"`
	TursoToken    string `json:"TURSO_AUTH_TOKEN"`
	SQLitePath    string `json:"-"` // computed, not from JSON
}

// Registry holds the global tenant configuration
type Registry struct {
	Tenants map[string]Info `json:"tenants"`
}

// Info holds tenant metadata
type Info struct {
	TenantID string   `json:"tenantId"`
	Domains  []string `json:"domains"`
	Status   string   `json:"status"` // "unknown", "inactive", "active"
}

// configRoot is where tenant configs and local databases live.
func configRoot() string {
	if root := os.Getenv("LINKET_CONFIG_ROOT"); root != "" {
		return root
	}
	return filepath.Join(os.Getenv("HOME"), "linket-server")
}

// LoadRegistry loads the global tenant registry, creating a default
// single-tenant one when none exists on disk.
func LoadRegistry() (*Registry, error) {
	registryPath := filepath.Join(configRoot(), "config", "tenants.json")

	if _, err := os.Stat(registryPath); os.IsNotExist(err) {
		return &Registry{
			Tenants: map[string]Info{
				"default": {
					TenantID: "default",
					Domains:  []string{"*"},
					Status:   "active",
				},
			},
		}, nil
	}

	data, err := os.ReadFile(registryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read tenant registry: %w", err)
	}

	var registry Registry
	if err := json.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse tenant registry: %w", err)
	}
	return &registry, nil
}

// LoadConfig loads one tenant's configuration. A missing config file is not
// an error: the tenant simply has no store credentials yet and analytics
// degrades until it does.
func LoadConfig(tenantID string) (*Config, error) {
	config := &Config{TenantID: tenantID}

	configPath := filepath.Join(configRoot(), "config", tenantID, "env.json")
	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse tenant config for %s: %w", tenantID, err)
		}
		config.TenantID = tenantID
	}

	// Global env wins over file config, matching .env-driven deployments.
	if url := os.Getenv("TURSO_DATABASE_URL"); url != "" {
		config.TursoDatabase = url
	}
	if token := os.Getenv("TURSO_AUTH_TOKEN"); token != "" {
		config.TursoToken = token
	}
	// A local SQLite store is opt-in. A tenant with neither Turso
	// credentials nor a local path has no store at all; analytics reports
	// degrade instead of erroring.
	if path := os.Getenv("LINKET_SQLITE_PATH"); path != "" {
		config.SQLitePath = path
	} else if dir := os.Getenv("LINKET_DB_DIR"); dir != "" {
		config.SQLitePath = filepath.Join(dir, tenantID+".db")
	}

	return config, nil
}
