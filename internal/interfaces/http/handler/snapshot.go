package handler

import (
	"context"
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appsnapshot "github.com/storepulse/backend/internal/application/snapshot"
	"github.com/storepulse/backend/internal/domain/shared"
	"github.com/storepulse/backend/internal/domain/snapshot"
	"github.com/storepulse/backend/internal/infrastructure/scheduler"
	"github.com/storepulse/backend/internal/interfaces/http/dto"
	"github.com/storepulse/backend/internal/interfaces/http/middleware"
)

// SnapshotQueries reads published snapshots
type SnapshotQueries interface {
	GetMetadata(ctx context.Context, orgID uuid.UUID, kind snapshot.Kind) (*snapshot.Metadata, error)
	GetInventoryOverview(ctx context.Context, orgID uuid.UUID) (*snapshot.InventoryOverviewSummary, error)
	ListProducts(ctx context.Context, orgID uuid.UUID, filter snapshot.ProductFilter) (shared.Paginated[snapshot.ProductInventorySummary], error)
	GetCustomerOverview(ctx context.Context, orgID uuid.UUID) (*snapshot.CustomerOverviewSummary, error)
	ListCustomers(ctx context.Context, orgID uuid.UUID, filter snapshot.CustomerFilter) (shared.Paginated[snapshot.CustomerMetricsSummary], error)
	GetJourneyFunnel(ctx context.Context, orgID uuid.UUID) (*snapshot.JourneyFunnel, error)
}

// SnapshotRebuilder rebuilds snapshots synchronously
type SnapshotRebuilder interface {
	Rebuild(ctx context.Context, kind snapshot.Kind, req appsnapshot.RebuildRequest) (*appsnapshot.RebuildResult, error)
	RebuildAll(ctx context.Context, req appsnapshot.RebuildRequest) ([]appsnapshot.RebuildResult, error)
}

// RebuildQueue queues rebuilds on the background scheduler
type RebuildQueue interface {
	TriggerOrganization(orgID uuid.UUID, kind snapshot.Kind, trigger scheduler.Trigger, windowDays int) ([]*scheduler.Job, error)
}

// JobRunLister lists recorded rebuild runs
type JobRunLister interface {
	ListRecent(ctx context.Context, orgID uuid.UUID, limit int) ([]scheduler.JobRunRecord, error)
}

const defaultJobRunLimit = 20

// SnapshotHandler serves snapshot reads and rebuild triggers
type SnapshotHandler struct {
	BaseHandler
	queries   SnapshotQueries
	rebuilder SnapshotRebuilder
	queue     RebuildQueue
	runs      JobRunLister
}

// NewSnapshotHandler creates a SnapshotHandler. queue and runs may be nil
// when the scheduler is disabled.
func NewSnapshotHandler(queries SnapshotQueries, rebuilder SnapshotRebuilder, queue RebuildQueue, runs JobRunLister) *SnapshotHandler {
	return &SnapshotHandler{
		queries:   queries,
		rebuilder: rebuilder,
		queue:     queue,
		runs:      runs,
	}
}

// GetMetadata returns when a snapshot kind was last computed and over which window
func (h *SnapshotHandler) GetMetadata(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}
	kind, err := snapshot.ParseKind(c.Param("kind"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	meta, err := h.queries.GetMetadata(c.Request.Context(), orgID, kind)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, meta)
}

// GetInventoryOverview returns the organization-wide inventory summary
func (h *SnapshotHandler) GetInventoryOverview(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}

	overview, err := h.queries.GetInventoryOverview(c.Request.Context(), orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, overview)
}

// ListProducts returns a page of product summaries
func (h *SnapshotHandler) ListProducts(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}
	var q dto.ProductListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	page, err := h.queries.ListProducts(c.Request.Context(), orgID, snapshot.ProductFilter{
		Filter:      pageFilter(q.Page, q.PageSize, q.OrderBy, q.OrderDir),
		StockStatus: snapshot.StockStatus(q.StockStatus),
		ABCTier:     snapshot.ABCTier(q.ABCTier),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// GetCustomerOverview returns the organization-wide customer summary
func (h *SnapshotHandler) GetCustomerOverview(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}

	overview, err := h.queries.GetCustomerOverview(c.Request.Context(), orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, overview)
}

// ListCustomers returns a page of customer summaries
func (h *SnapshotHandler) ListCustomers(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}
	var q dto.CustomerListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	page, err := h.queries.ListCustomers(c.Request.Context(), orgID, snapshot.CustomerFilter{
		Filter:  pageFilter(q.Page, q.PageSize, q.OrderBy, q.OrderDir),
		Segment: snapshot.CustomerSegment(q.Segment),
		Status:  snapshot.CustomerStatus(q.Status),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// GetJourney returns the estimated acquisition funnel
func (h *SnapshotHandler) GetJourney(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}

	funnel, err := h.queries.GetJourneyFunnel(c.Request.Context(), orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, funnel)
}

// Rebuild recomputes snapshots for the organization. The request waits for
// the rebuild unless async is set, in which case jobs are queued on the
// scheduler and 202 is returned.
func (h *SnapshotHandler) Rebuild(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}

	var req dto.RebuildRequest
	// An empty body rebuilds every kind over the default window.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.HandleValidationError(c, err)
		return
	}

	var kind snapshot.Kind
	if req.Kind != "" {
		k, err := snapshot.ParseKind(req.Kind)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		kind = k
	}

	if req.Async {
		h.enqueue(c, orgID, kind, req)
		return
	}

	appReq := appsnapshot.RebuildRequest{
		OrganizationID:     orgID,
		AnalysisWindowDays: req.AnalysisWindowDays,
		WindowStart:        req.WindowStart,
		WindowEnd:          req.WindowEnd,
	}
	ctx := c.Request.Context()

	if kind != "" {
		result, err := h.rebuilder.Rebuild(ctx, kind, appReq)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, []appsnapshot.RebuildResult{*result})
		return
	}

	results, err := h.rebuilder.RebuildAll(ctx, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, results)
}

func (h *SnapshotHandler) enqueue(c *gin.Context, orgID uuid.UUID, kind snapshot.Kind, req dto.RebuildRequest) {
	if h.queue == nil {
		h.Error(c, dto.ErrCodeUnavailable, "background rebuilds are disabled")
		return
	}
	// Jobs carry a day count only.
	if req.HasExplicitWindow() {
		h.BadRequest(c, "window_start and window_end are not supported for async rebuilds")
		return
	}

	jobs, err := h.queue.TriggerOrganization(orgID, kind, scheduler.TriggerManual, req.AnalysisWindowDays)
	if err != nil {
		if errors.Is(err, scheduler.ErrJobQueueFull) || errors.Is(err, scheduler.ErrSchedulerNotRunning) {
			h.Error(c, dto.ErrCodeUnavailable, err.Error())
			return
		}
		h.HandleError(c, err)
		return
	}

	out := make([]dto.JobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, jobResponse(job))
	}
	h.Accepted(c, out)
}

// ListJobRuns returns the most recent rebuild runs of the organization
func (h *SnapshotHandler) ListJobRuns(c *gin.Context) {
	orgID, ok := h.organizationID(c)
	if !ok {
		return
	}
	if h.runs == nil {
		h.Success(c, []dto.JobResponse{})
		return
	}

	limit := defaultJobRunLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > shared.MaxPageSize {
			h.BadRequest(c, "limit must be between 1 and "+strconv.Itoa(shared.MaxPageSize))
			return
		}
		limit = n
	}

	records, err := h.runs.ListRecent(c.Request.Context(), orgID, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]dto.JobResponse, 0, len(records))
	for i := range records {
		out = append(out, jobRunResponse(&records[i]))
	}
	h.Success(c, out)
}

func pageFilter(page, pageSize int, orderBy, orderDir string) shared.Filter {
	return shared.Filter{
		Page:     page,
		PageSize: pageSize,
		OrderBy:  orderBy,
		OrderDir: orderDir,
	}
}

func jobResponse(job *scheduler.Job) dto.JobResponse {
	return dto.JobResponse{
		ID:             job.ID,
		OrganizationID: job.OrganizationID,
		Kind:           string(job.Kind),
		Trigger:        string(job.Trigger),
		Status:         string(job.Status),
		Error:          job.Error,
		RetryCount:     job.RetryCount,
		StartedAt:      job.StartedAt,
		CompletedAt:    job.CompletedAt,
	}
}

func jobRunResponse(r *scheduler.JobRunRecord) dto.JobResponse {
	createdAt := r.CreatedAt
	return dto.JobResponse{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		Kind:           r.Kind,
		Trigger:        r.Trigger,
		Status:         r.Status,
		Error:          r.Error,
		RetryCount:     r.RetryCount,
		StartedAt:      r.StartedAt,
		CompletedAt:    r.CompletedAt,
		CreatedAt:      &createdAt,
	}
}
