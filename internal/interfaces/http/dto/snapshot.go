package dto

import (
	"time"

	"github.com/google/uuid"
)

// RebuildRequest triggers a snapshot rebuild of one organization
type RebuildRequest struct {
	// Kind limits the rebuild to one snapshot kind; empty rebuilds all kinds
	Kind               string     `json:"kind" binding:"omitempty,snapshot_kind"`
	AnalysisWindowDays int        `json:"analysis_window_days" binding:"omitempty,min=1,max=730"`
	WindowStart        *time.Time `json:"window_start" binding:"required_with=WindowEnd"`
	WindowEnd          *time.Time `json:"window_end" binding:"required_with=WindowStart"`
	// Async queues the rebuild on the scheduler instead of waiting for it
	Async bool `json:"async"`
}

// HasExplicitWindow reports whether the request names its window bounds
func (r RebuildRequest) HasExplicitWindow() bool {
	return r.WindowStart != nil || r.WindowEnd != nil
}

// ProductListQuery filters the product summaries of the current inventory snapshot
type ProductListQuery struct {
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=200"`
	OrderBy     string `form:"order_by"`
	OrderDir    string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	StockStatus string `form:"stock_status" binding:"omitempty,oneof=healthy low critical out"`
	ABCTier     string `form:"abc_tier" binding:"omitempty,oneof=A B C"`
}

// CustomerListQuery filters the customer summaries of the current customer snapshot
type CustomerListQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=200"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Segment  string `form:"segment" binding:"omitempty,oneof=prospect new regular vip champion"`
	Status   string `form:"status" binding:"omitempty,oneof=converted abandoned_cart"`
}

// JobResponse describes a queued or finished rebuild job
type JobResponse struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	Kind           string     `json:"kind"`
	Trigger        string     `json:"trigger"`
	Status         string     `json:"status"`
	Error          string     `json:"error,omitempty"`
	RetryCount     int        `json:"retry_count"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
}
