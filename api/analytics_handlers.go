package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/linket-app/linket-go/analytics"
	"github.com/linket-app/linket-go/logging"
	"github.com/linket-app/linket-go/pkg/config"
	"github.com/linket-app/linket-go/store"
	"github.com/linket-app/linket-go/tenant"
)

// AnalyticsHandlers contains the analytics HTTP handlers
type AnalyticsHandlers struct {
	logger *logging.ChanneledLogger
}

// NewAnalyticsHandlers creates analytics handlers with injected dependencies
func NewAnalyticsHandlers(logger *logging.ChanneledLogger) *AnalyticsHandlers {
	return &AnalyticsHandlers{logger: logger}
}

// HandleRollup handles GET /api/v1/analytics/rollup
func (h *AnalyticsHandlers) HandleRollup(c *gin.Context) {
	start := time.Now()
	tenantCtx, exists := GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	opts := h.parseOptions(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), config.AnalyticsTimeout)
	defer cancel()

	engine := analytics.NewEngine(h.queriesFor(tenantCtx), h.logger)
	result, err := engine.GetAnalytics(ctx, tenantCtx.TenantID, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Analytics().Info("Rollup request completed",
		"tenantId", tenantCtx.TenantID,
		"days", opts.Days,
		"available", result.Meta.Available,
		"duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{"analytics": result})
}

// HandleHealth handles GET /api/v1/health
func (h *AnalyticsHandlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// queriesFor builds the query layer bound to this tenant's connection. A
// tenant without a store yields an unavailable query layer, which the
// engine turns into a degraded report.
func (h *AnalyticsHandlers) queriesFor(tenantCtx *tenant.Context) analytics.Queries {
	return store.New(tenantCtx.Database.Conn, h.logger)
}

// parseOptions reads the report parameters from the query string. Garbage
// values fall back to defaults; the engine clamps the rest. Malformed
// input never produces an error response.
func (h *AnalyticsHandlers) parseOptions(c *gin.Context) analytics.Options {
	opts := analytics.Options{
		Days:            config.DefaultWindowDays,
		RecentLeadCount: config.DefaultRecentLeadCount,
	}

	if raw := c.Query("days"); raw != "" {
		if days, err := strconv.Atoi(raw); err == nil {
			opts.Days = days
		}
	}
	if raw := c.Query("timezoneOffset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil {
			opts.TimezoneOffsetMinutes = offset
		}
	}
	if raw := c.Query("leadLimit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			opts.RecentLeadCount = limit
		}
	}

	return opts
}
