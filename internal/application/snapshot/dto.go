package snapshot

import (
	"time"

	"github.com/google/uuid"

	"github.com/storepulse/backend/internal/domain/snapshot"
)

// Config tunes snapshot rebuilds
type Config struct {
	DefaultWindowDays int           // analysis window when a request gives none
	PageSize          int           // rows per raw collection read
	ItemBatchSize     int           // order ids per order item read
	LeaseTTL          time.Duration // lifetime of the per-organization rebuild lease
}

// DefaultConfig returns default rebuild configuration
func DefaultConfig() Config {
	return Config{
		DefaultWindowDays: snapshot.DefaultAnalysisWindowDays,
		PageSize:          500,
		ItemBatchSize:     500,
		LeaseTTL:          30 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DefaultWindowDays <= 0 {
		c.DefaultWindowDays = d.DefaultWindowDays
	}
	if c.PageSize <= 0 {
		c.PageSize = d.PageSize
	}
	if c.ItemBatchSize <= 0 {
		c.ItemBatchSize = d.ItemBatchSize
	}
	if c.LeaseTTL <= 0 {
		c.LeaseTTL = d.LeaseTTL
	}
	return c
}

// RebuildRequest asks for one snapshot rebuild of an organization.
// WindowStart and WindowEnd override AnalysisWindowDays when set.
type RebuildRequest struct {
	OrganizationID     uuid.UUID
	AnalysisWindowDays int
	WindowStart        *time.Time
	WindowEnd          *time.Time
}

// RebuildResult describes a published generation
type RebuildResult struct {
	OrganizationID uuid.UUID     `json:"organization_id"`
	Kind           snapshot.Kind `json:"kind"`
	GenerationID   uuid.UUID     `json:"generation_id"`
	ComputedAt     time.Time     `json:"computed_at"`
	WindowStart    time.Time     `json:"window_start"`
	WindowEnd      time.Time     `json:"window_end"`
	WindowDays     int           `json:"window_days"`
	RowCount       int           `json:"row_count"`
	Duration       time.Duration `json:"duration"`
}

func resultFor(meta snapshot.Metadata, d time.Duration) *RebuildResult {
	return &RebuildResult{
		OrganizationID: meta.OrganizationID,
		Kind:           meta.Kind,
		GenerationID:   meta.GenerationID,
		ComputedAt:     meta.ComputedAt,
		WindowStart:    meta.WindowStart,
		WindowEnd:      meta.WindowEnd,
		WindowDays:     meta.AnalysisWindowDays,
		RowCount:       meta.RowCount,
		Duration:       d,
	}
}
