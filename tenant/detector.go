// Package tenant provides multi-tenant detection and validation.
package tenant

import (
	"fmt"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Detector handles tenant detection from HTTP requests
type Detector struct {
	registry    *Registry
	multiTenant bool
}

// NewDetector creates a new tenant detector
func NewDetector() (*Detector, error) {
	registry, err := LoadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant registry: %w", err)
	}

	multiTenant := false
	if val := os.Getenv("ENABLE_MULTI_TENANT"); val != "" {
		multiTenant, _ = strconv.ParseBool(val)
	}

	return &Detector{
		registry:    registry,
		multiTenant: multiTenant,
	}, nil
}

// DetectTenant extracts the tenant ID from the request. In single-tenant
// deployments everything maps to "default".
func (d *Detector) DetectTenant(c *gin.Context) (string, error) {
	if !d.multiTenant {
		return "default", nil
	}

	tenantID := c.GetHeader("X-Tenant-ID")
	if tenantID == "" {
		// EventSource and plain links cannot set custom headers.
		tenantID = c.Query("tenantId")
	}
	if tenantID == "" {
		return "", fmt.Errorf("missing tenant ID header in multi-tenant mode")
	}

	if _, exists := d.registry.Tenants[tenantID]; !exists {
		return "", fmt.Errorf("unknown tenant: %s", tenantID)
	}

	return tenantID, nil
}
