// Package router mounts the StorePulse HTTP API on a gin engine.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/storepulse/backend/internal/interfaces/http/handler"
)

const defaultAPIVersion = "v1"

// Handlers groups the HTTP handlers served by the API. A nil handler leaves
// its routes unregistered.
type Handlers struct {
	Snapshot *handler.SnapshotHandler
	System   *handler.SystemHandler
}

// Config controls how the API is mounted.
type Config struct {
	// APIVersion is the path segment after /api, "v1" when empty.
	APIVersion string
	// OrganizationMiddleware runs on every /organizations/:org_id route and
	// may rely on the org_id parameter, e.g. per-organization rate limiting.
	OrganizationMiddleware []gin.HandlerFunc
}

// Setup registers /health and the versioned API on engine.
func Setup(engine *gin.Engine, h Handlers, cfg Config) {
	version := cfg.APIVersion
	if version == "" {
		version = defaultAPIVersion
	}
	api := engine.Group("/api/" + version)

	if h.System != nil {
		engine.GET("/health", h.System.Health)
		api.GET("/system/info", h.System.GetSystemInfo)
	}
	if h.Snapshot != nil {
		org := api.Group("/organizations/:org_id", cfg.OrganizationMiddleware...)
		registerSnapshotRoutes(org, h.Snapshot)
	}
}

func registerSnapshotRoutes(org *gin.RouterGroup, h *handler.SnapshotHandler) {
	snapshots := org.Group("/snapshots")
	{
		snapshots.GET("/:kind/metadata", h.GetMetadata)
		snapshots.GET("/jobs", h.ListJobRuns)
		snapshots.POST("/rebuild", h.Rebuild)
	}

	inventory := org.Group("/inventory")
	{
		inventory.GET("/overview", h.GetInventoryOverview)
		inventory.GET("/products", h.ListProducts)
	}

	customers := org.Group("/customers")
	{
		customers.GET("", h.ListCustomers)
		customers.GET("/overview", h.GetCustomerOverview)
	}

	org.GET("/journey", h.GetJourney)
}
