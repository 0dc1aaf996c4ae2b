package handler

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storepulse/backend/internal/infrastructure/logger"
	"github.com/storepulse/backend/internal/infrastructure/scheduler"
	"github.com/storepulse/backend/internal/interfaces/http/dto"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// poolStatser is implemented by databases that expose pool statistics
type poolStatser interface {
	Stats() (sql.DBStats, error)
}

// SchedulerStatusProvider exposes the rebuild scheduler state
type SchedulerStatusProvider interface {
	GetStatus() scheduler.Status
}

// SystemHandler serves health and runtime information
type SystemHandler struct {
	BaseHandler
	db        Pinger
	scheduler SchedulerStatusProvider
	version   string
	startTime time.Time
}

// NewSystemHandler creates a SystemHandler. sched may be nil.
func NewSystemHandler(db Pinger, sched SchedulerStatusProvider, version string) *SystemHandler {
	return &SystemHandler{
		db:        db,
		scheduler: sched,
		version:   version,
		startTime: time.Now(),
	}
}

// Health reports 200 when the database answers and 503 otherwise
func (h *SystemHandler) Health(c *gin.Context) {
	resp := dto.HealthResponse{
		Status:    "healthy",
		Checks:    map[string]string{"database": "ok"},
		Timestamp: time.Now().UTC(),
	}
	status := http.StatusOK

	if h.db == nil {
		resp.Checks["database"] = "not configured"
	} else if err := h.db.Ping(c.Request.Context()); err != nil {
		logger.GetGinLogger(c).Warn("health check failed", zap.Error(err))
		resp.Status = "unhealthy"
		resp.Checks["database"] = "unreachable"
		status = http.StatusServiceUnavailable
	}

	if h.scheduler != nil {
		if h.scheduler.GetStatus().IsRunning {
			resp.Checks["scheduler"] = "running"
		} else {
			resp.Checks["scheduler"] = "stopped"
		}
	}

	c.JSON(status, resp)
}

// SystemInfoResponse describes the running binary
type SystemInfoResponse struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	GoVersion string            `json:"go_version"`
	Uptime    string            `json:"uptime"`
	Scheduler *scheduler.Status `json:"scheduler,omitempty"`
	Database  *DatabasePool     `json:"database,omitempty"`
}

// DatabasePool summarizes the connection pool
type DatabasePool struct {
	MaxOpen int    `json:"max_open"`
	Open    int    `json:"open"`
	InUse   int    `json:"in_use"`
	Idle    int    `json:"idle"`
	Waits   int64  `json:"waits"`
	WaitFor string `json:"wait_duration"`
}

// GetSystemInfo returns version, uptime and scheduler state
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      "StorePulse Snapshot API",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	if h.scheduler != nil {
		st := h.scheduler.GetStatus()
		info.Scheduler = &st
	}
	if ps, ok := h.db.(poolStatser); ok {
		if stats, err := ps.Stats(); err == nil {
			info.Database = &DatabasePool{
				MaxOpen: stats.MaxOpenConnections,
				Open:    stats.OpenConnections,
				InUse:   stats.InUse,
				Idle:    stats.Idle,
				Waits:   stats.WaitCount,
				WaitFor: stats.WaitDuration.String(),
			}
		}
	}
	h.Success(c, info)
}
