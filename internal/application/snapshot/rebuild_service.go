package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storepulse/backend/internal/domain/commerce"
	"github.com/storepulse/backend/internal/domain/shared"
	"github.com/storepulse/backend/internal/domain/snapshot"
	"github.com/storepulse/backend/internal/infrastructure/logger"
	"github.com/storepulse/backend/internal/infrastructure/scheduler"
	"github.com/storepulse/backend/internal/infrastructure/telemetry"
)

// releaseTimeout bounds the lease release after a rebuild, even a cancelled one
const releaseTimeout = 5 * time.Second

// RebuildService rebuilds and publishes the snapshots of an organization.
// Rebuilds of one organization and kind are serialized by a lease.
type RebuildService struct {
	inventory *InventorySnapshotBuilder
	customers *CustomerSnapshotBuilder
	repo      snapshot.Repository
	locker    snapshot.RebuildLocker
	cfg       Config
	logger    *zap.Logger
	metrics   *telemetry.SnapshotMetrics
	now       func() time.Time
}

// NewRebuildService creates a new RebuildService
func NewRebuildService(
	reader commerce.Reader,
	repo snapshot.Repository,
	locker snapshot.RebuildLocker,
	cfg Config,
	logger *zap.Logger,
) *RebuildService {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RebuildService{
		inventory: NewInventorySnapshotBuilder(reader, cfg),
		customers: NewCustomerSnapshotBuilder(reader, cfg),
		repo:      repo,
		locker:    locker,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// SetMetrics sets the snapshot metrics collector
func (s *RebuildService) SetMetrics(m *telemetry.SnapshotMetrics) {
	s.metrics = m
}

// RebuildInventory rebuilds and publishes the inventory snapshot
func (s *RebuildService) RebuildInventory(ctx context.Context, req RebuildRequest) (*RebuildResult, error) {
	return s.Rebuild(ctx, snapshot.KindInventory, req)
}

// RebuildCustomers rebuilds and publishes the customer snapshot
func (s *RebuildService) RebuildCustomers(ctx context.Context, req RebuildRequest) (*RebuildResult, error) {
	return s.Rebuild(ctx, snapshot.KindCustomer, req)
}

// RebuildAll rebuilds every snapshot kind independently. A failing kind does
// not stop the others; their errors are joined.
func (s *RebuildService) RebuildAll(ctx context.Context, req RebuildRequest) ([]RebuildResult, error) {
	var results []RebuildResult
	var errs []error
	for _, kind := range snapshot.AllKinds() {
		res, err := s.Rebuild(ctx, kind, req)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", kind, err))
			continue
		}
		results = append(results, *res)
	}
	return results, errors.Join(errs...)
}

// Execute runs a scheduler job
func (s *RebuildService) Execute(ctx context.Context, job *scheduler.Job) error {
	_, err := s.Rebuild(ctx, job.Kind, RebuildRequest{
		OrganizationID:     job.OrganizationID,
		AnalysisWindowDays: job.WindowDays,
	})
	return err
}

// Rebuild computes a fresh generation of one snapshot kind and publishes it.
// The window is validated before any read. ErrRebuildInProgress is returned
// when another rebuild of the same organization and kind holds the lease. The
// rebuild is cancelled once the lease TTL elapses.
func (s *RebuildService) Rebuild(ctx context.Context, kind snapshot.Kind, req RebuildRequest) (*RebuildResult, error) {
	if req.OrganizationID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithDetail("organization id is required")
	}
	if _, err := snapshot.ParseKind(string(kind)); err != nil {
		return nil, err
	}

	days := req.AnalysisWindowDays
	if days <= 0 {
		days = s.cfg.DefaultWindowDays
	}
	computedAt := s.now().UTC()
	window, err := snapshot.NewWindow(computedAt, days, req.WindowStart, req.WindowEnd)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartRebuildSpan(ctx, req.OrganizationID, string(kind), window.Days)
	defer span.End()

	ctx, log := logger.WithOrganizationID(ctx, s.logger, req.OrganizationID)
	log = log.With(zap.String("kind", string(kind)))
	started := time.Now()

	release, err := s.locker.Acquire(ctx, snapshot.LockKey(req.OrganizationID, kind), s.cfg.LeaseTTL)
	if err != nil {
		if errors.Is(err, snapshot.ErrRebuildInProgress) {
			log.Info("Snapshot rebuild skipped, lease held by another rebuild")
			s.recordRebuild(ctx, req.OrganizationID, kind, telemetry.RebuildResultSkipped, started)
			if s.metrics != nil {
				s.metrics.RecordLeaseContended(ctx, req.OrganizationID, string(kind))
			}
			return nil, err
		}
		telemetry.RecordError(span, err)
		s.recordRebuild(ctx, req.OrganizationID, kind, telemetry.RebuildResultFailure, started)
		return nil, fmt.Errorf("acquire rebuild lease: %w", err)
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			log.Warn("Failed to release rebuild lease", zap.Error(err))
		}
	}()

	// The lease is not renewed, so the rebuild must not outlive it.
	ctx, cancel := context.WithTimeout(ctx, s.cfg.LeaseTTL)
	defer cancel()

	generationID := uuid.New()
	ctx, log = logger.WithGenerationID(ctx, log, generationID)
	log.Info("Snapshot rebuild started",
		zap.Time("window_start", window.Start),
		zap.Time("window_end", window.End),
		zap.Int("window_days", window.Days),
	)

	var meta snapshot.Metadata
	switch kind {
	case snapshot.KindInventory:
		meta, err = s.rebuildInventory(ctx, req.OrganizationID, generationID, window, computedAt)
	case snapshot.KindCustomer:
		meta, err = s.rebuildCustomers(ctx, req.OrganizationID, generationID, window, computedAt)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		s.recordRebuild(ctx, req.OrganizationID, kind, telemetry.RebuildResultFailure, started)
		log.Error("Snapshot rebuild failed", zap.Error(err), zap.Duration("duration", time.Since(started)))
		return nil, err
	}

	elapsed := time.Since(started)
	telemetry.MarkPublished(span, generationID, meta.RowCount)
	s.recordRebuild(ctx, req.OrganizationID, kind, telemetry.RebuildResultSuccess, started)
	if s.metrics != nil {
		s.metrics.RecordPublished(ctx, req.OrganizationID, string(kind), meta.RowCount)
	}
	log.Info("Snapshot rebuild published",
		zap.Int("rows", meta.RowCount),
		zap.Duration("duration", elapsed),
	)
	return resultFor(meta, elapsed), nil
}

func (s *RebuildService) rebuildInventory(ctx context.Context, orgID, generationID uuid.UUID, w snapshot.Window, computedAt time.Time) (snapshot.Metadata, error) {
	snap, err := s.inventory.Build(ctx, orgID, w, computedAt)
	if err != nil {
		return snapshot.Metadata{}, fmt.Errorf("build inventory snapshot: %w", err)
	}
	snap.Metadata.GenerationID = generationID
	if err := s.repo.PublishInventory(ctx, snap); err != nil {
		return snapshot.Metadata{}, fmt.Errorf("publish inventory snapshot: %w", err)
	}

	if s.metrics != nil {
		o := snap.Overview
		lowStock := o.LowStockCount + o.CriticalCount
		value, _ := o.TotalInventoryValue.Float64()
		s.metrics.RecordInventoryHealth(ctx, orgID, lowStock, o.DeadStockCount, value)
	}
	return snap.Metadata, nil
}

func (s *RebuildService) rebuildCustomers(ctx context.Context, orgID, generationID uuid.UUID, w snapshot.Window, computedAt time.Time) (snapshot.Metadata, error) {
	snap, err := s.customers.Build(ctx, orgID, w, computedAt)
	if err != nil {
		return snapshot.Metadata{}, fmt.Errorf("build customer snapshot: %w", err)
	}
	snap.Metadata.GenerationID = generationID
	if err := s.repo.PublishCustomers(ctx, snap); err != nil {
		return snapshot.Metadata{}, fmt.Errorf("publish customer snapshot: %w", err)
	}
	return snap.Metadata, nil
}

func (s *RebuildService) recordRebuild(ctx context.Context, orgID uuid.UUID, kind snapshot.Kind, result telemetry.RebuildResult, started time.Time) {
	if s.metrics != nil {
		s.metrics.RecordRebuild(ctx, orgID, string(kind), result, time.Since(started))
	}
}

var _ scheduler.JobExecutor = (*RebuildService)(nil)
