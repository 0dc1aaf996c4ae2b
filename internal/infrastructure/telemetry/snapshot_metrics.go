package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// RebuildResult labels the outcome of a snapshot rebuild.
type RebuildResult string

const (
	RebuildResultSuccess RebuildResult = "success"
	RebuildResultFailure RebuildResult = "failure"
	RebuildResultSkipped RebuildResult = "skipped"
)

// SnapshotMetrics records snapshot rebuild activity and the health figures of
// freshly published snapshots.
type SnapshotMetrics struct {
	logger *zap.Logger

	rebuildTotal    *Counter
	rebuildDuration *Histogram
	leaseContended  *Counter
	rowsPublished   *Gauge[int64]
	lowStockCount   *Gauge[int64]
	deadStockCount  *Gauge[int64]
	inventoryValue  *Gauge[float64]
}

// SnapshotMetricsConfig holds configuration for snapshot metrics.
type SnapshotMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// RebuildDurationBuckets are bucket boundaries for rebuild duration (seconds).
var RebuildDurationBuckets = []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 900}

// NewSnapshotMetrics creates a new SnapshotMetrics instance.
func NewSnapshotMetrics(cfg SnapshotMetricsConfig) (*SnapshotMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &SnapshotMetrics{logger: logger}
	var err error

	if sm.rebuildTotal, err = NewCounter(cfg.Meter,
		"sp_snapshot_rebuild_total",
		"Total number of snapshot rebuilds by kind and result",
		"{rebuilds}",
	); err != nil {
		return nil, err
	}
	if sm.rebuildDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "sp_snapshot_rebuild_duration_seconds",
		Description: "Snapshot rebuild latency distribution in seconds",
		Unit:        "s",
		Boundaries:  RebuildDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if sm.leaseContended, err = NewCounter(cfg.Meter,
		"sp_snapshot_lease_contended_total",
		"Rebuilds rejected because another rebuild held the lease",
		"{rebuilds}",
	); err != nil {
		return nil, err
	}
	if sm.rowsPublished, err = NewGauge(cfg.Meter,
		"sp_snapshot_rows_published",
		"Summary rows in the latest published generation",
		"{rows}",
	); err != nil {
		return nil, err
	}
	if sm.lowStockCount, err = NewGauge(cfg.Meter,
		"sp_inventory_low_stock_count",
		"Products in low or critical stock in the latest inventory snapshot",
		"{products}",
	); err != nil {
		return nil, err
	}
	if sm.deadStockCount, err = NewGauge(cfg.Meter,
		"sp_inventory_dead_stock_count",
		"Dead stock variants in the latest inventory snapshot",
		"{variants}",
	); err != nil {
		return nil, err
	}
	if sm.inventoryValue, err = NewFloatGauge(cfg.Meter,
		"sp_inventory_value",
		"Total inventory value at cost in the latest inventory snapshot",
		"{currency}",
	); err != nil {
		return nil, err
	}

	return sm, nil
}

// RecordRebuild records a finished rebuild attempt.
func (sm *SnapshotMetrics) RecordRebuild(ctx context.Context, orgID uuid.UUID, kind string, result RebuildResult, d time.Duration) {
	attrs := []attribute.KeyValue{
		AttrOrganizationID.String(orgID.String()),
		AttrSnapshotKind.String(kind),
		AttrRebuildResult.String(string(result)),
	}
	sm.rebuildTotal.Inc(ctx, attrs...)
	sm.rebuildDuration.RecordDuration(ctx, d, attrs...)
}

// RecordLeaseContended records a rebuild turned away by a held lease.
func (sm *SnapshotMetrics) RecordLeaseContended(ctx context.Context, orgID uuid.UUID, kind string) {
	sm.leaseContended.Inc(ctx,
		AttrOrganizationID.String(orgID.String()),
		AttrSnapshotKind.String(kind),
	)
}

// RecordPublished records the row count of a newly published generation.
func (sm *SnapshotMetrics) RecordPublished(ctx context.Context, orgID uuid.UUID, kind string, rows int) {
	sm.rowsPublished.Record(ctx, int64(rows),
		AttrOrganizationID.String(orgID.String()),
		AttrSnapshotKind.String(kind),
	)
}

// RecordInventoryHealth records the headline figures of an inventory snapshot.
func (sm *SnapshotMetrics) RecordInventoryHealth(ctx context.Context, orgID uuid.UUID, lowStock, deadStock int, value float64) {
	attr := AttrOrganizationID.String(orgID.String())
	sm.lowStockCount.Record(ctx, int64(lowStock), attr)
	sm.deadStockCount.Record(ctx, int64(deadStock), attr)
	sm.inventoryValue.Record(ctx, value, attr)
}

// MetricsError represents an error in metrics operations.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewSnapshotMetrics", Err: "meter cannot be nil"}
