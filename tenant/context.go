// Package tenant provides request context management for multi-tenant support.
package tenant

import (
	"github.com/gin-gonic/gin"

	"github.com/linket-app/linket-go/logging"
)

// Context holds tenant-specific request context
type Context struct {
	TenantID string
	Config   *Config
	Database *Database
}

// Manager coordinates tenant detection and context creation
type Manager struct {
	detector *Detector
	logger   *logging.ChanneledLogger
}

// NewManager creates a new tenant manager
func NewManager(logger *logging.ChanneledLogger) (*Manager, error) {
	detector, err := NewDetector()
	if err != nil {
		return nil, err
	}

	return &Manager{
		detector: detector,
		logger:   logger,
	}, nil
}

// GetContext creates a tenant context for the request
func (m *Manager) GetContext(c *gin.Context) (*Context, error) {
	tenantID, err := m.detector.DetectTenant(c)
	if err != nil {
		return nil, err
	}

	config, err := LoadConfig(tenantID)
	if err != nil {
		return nil, err
	}

	database, err := NewDatabase(config)
	if err != nil {
		return nil, err
	}

	m.logger.Tenant().Debug("Tenant context created",
		"tenantId", tenantID, "store", database.GetConnectionInfo())

	return &Context{
		TenantID: tenantID,
		Config:   config,
		Database: database,
	}, nil
}

// Close cleans up the tenant context
func (ctx *Context) Close() {
	if ctx.Database != nil {
		ctx.Database.Close()
	}
}
