package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storepulse/backend/internal/domain/shared"
	"github.com/storepulse/backend/internal/domain/snapshot"
	"github.com/storepulse/backend/internal/infrastructure/persistence/models"
)

const defaultSnapshotBatchSize = 500

// GormSnapshotRepository stores snapshot generations. Rows are staged under a
// new generation id, then the organization's generation pointer is flipped and
// older generations are removed in one transaction. A generation older than
// the current one is never published.
type GormSnapshotRepository struct {
	db        *gorm.DB
	batchSize int
}

// NewGormSnapshotRepository creates a new GormSnapshotRepository
func NewGormSnapshotRepository(db *gorm.DB) *GormSnapshotRepository {
	return &GormSnapshotRepository{db: db, batchSize: defaultSnapshotBatchSize}
}

// WithBatchSize sets the insert batch size used while staging rows
func (r *GormSnapshotRepository) WithBatchSize(size int) *GormSnapshotRepository {
	if size > 0 {
		r.batchSize = size
	}
	return r
}

// PublishInventory stages and publishes an inventory generation
func (r *GormSnapshotRepository) PublishInventory(ctx context.Context, snap snapshot.InventorySnapshot) error {
	meta := snap.Metadata
	if err := validateGeneration(meta, snapshot.KindInventory); err != nil {
		return err
	}

	rows := make([]models.ProductInventorySummaryModel, len(snap.Products))
	for i, p := range snap.Products {
		rows[i].FromDomain(meta.GenerationID, p)
	}
	var overview models.InventoryOverviewSummaryModel
	overview.FromDomain(meta.GenerationID, snap.Overview)

	tables := generationTables{rows: &models.ProductInventorySummaryModel{}, overview: &models.InventoryOverviewSummaryModel{}}
	err := r.stage(ctx, meta, tables, func(db *gorm.DB) error {
		if len(rows) > 0 {
			if err := db.CreateInBatches(rows, r.batchSize).Error; err != nil {
				return fmt.Errorf("stage product summaries: %w", err)
			}
		}
		if err := db.Create(&overview).Error; err != nil {
			return fmt.Errorf("stage inventory overview: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return r.flip(ctx, meta, tables)
}

// PublishCustomers stages and publishes a customer generation
func (r *GormSnapshotRepository) PublishCustomers(ctx context.Context, snap snapshot.CustomerSnapshot) error {
	meta := snap.Metadata
	if err := validateGeneration(meta, snapshot.KindCustomer); err != nil {
		return err
	}

	rows := make([]models.CustomerMetricsSummaryModel, len(snap.Customers))
	for i, c := range snap.Customers {
		rows[i].FromDomain(meta.GenerationID, c)
	}
	var overview models.CustomerOverviewSummaryModel
	overview.FromDomain(meta.GenerationID, snap.Overview)

	tables := generationTables{rows: &models.CustomerMetricsSummaryModel{}, overview: &models.CustomerOverviewSummaryModel{}}
	err := r.stage(ctx, meta, tables, func(db *gorm.DB) error {
		if len(rows) > 0 {
			if err := db.CreateInBatches(rows, r.batchSize).Error; err != nil {
				return fmt.Errorf("stage customer summaries: %w", err)
			}
		}
		if err := db.Create(&overview).Error; err != nil {
			return fmt.Errorf("stage customer overview: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return r.flip(ctx, meta, tables)
}

// generationTables names the row and overview tables of one snapshot kind
type generationTables struct {
	rows     any
	overview any
}

func (t generationTables) all() []any {
	return []any{t.rows, t.overview}
}

// stage inserts the rows of a generation that is not yet visible to readers.
// A failed stage removes whatever it managed to insert.
func (r *GormSnapshotRepository) stage(ctx context.Context, meta snapshot.Metadata, tables generationTables, insert func(*gorm.DB) error) error {
	if err := insert(r.db.WithContext(ctx)); err != nil {
		return errors.Join(err, r.discard(ctx, meta, tables))
	}
	return nil
}

// discard deletes the rows of a generation that will never be published.
// It runs even when ctx is already cancelled.
func (r *GormSnapshotRepository) discard(ctx context.Context, meta snapshot.Metadata, tables generationTables) error {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	var errs []error
	for _, table := range tables.all() {
		if err := r.db.WithContext(cleanupCtx).
			Where("organization_id = ? AND generation_id = ?", meta.OrganizationID, meta.GenerationID).
			Delete(table).Error; err != nil {
			errs = append(errs, fmt.Errorf("discard staged %s generation %s: %w", meta.Kind, meta.GenerationID, err))
		}
	}
	return errors.Join(errs...)
}

// flip makes the staged generation current and drops every other generation.
// It refuses with ErrStaleGeneration when a newer generation is already
// current or the staged rows were dropped by another flip, and then discards
// the staged rows.
func (r *GormSnapshotRepository) flip(ctx context.Context, meta snapshot.Metadata, tables generationTables) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkFlippable(tx, meta, tables.overview); err != nil {
			return err
		}

		var pointer models.SnapshotGenerationModel
		pointer.FromDomain(meta)
		pointer.UpdatedAt = time.Now()

		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "organization_id"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"generation_id", "computed_at", "analysis_window_days",
				"window_start", "window_end", "row_count", "updated_at",
			}),
		}).Create(&pointer).Error; err != nil {
			return fmt.Errorf("flip %s generation: %w", meta.Kind, err)
		}

		for _, table := range tables.all() {
			if err := tx.Where("organization_id = ? AND generation_id <> ?", meta.OrganizationID, meta.GenerationID).
				Delete(table).Error; err != nil {
				return fmt.Errorf("drop stale %s generations: %w", meta.Kind, err)
			}
		}
		return nil
	})
	if errors.Is(err, snapshot.ErrStaleGeneration) {
		return errors.Join(
			fmt.Errorf("flip %s generation %s: %w", meta.Kind, meta.GenerationID, err),
			r.discard(ctx, meta, tables),
		)
	}
	return err
}

// checkFlippable reads the current pointer, locking it on Postgres so
// concurrent flips of one organization and kind are serialized.
func checkFlippable(tx *gorm.DB, meta snapshot.Metadata, overview any) error {
	query := tx.Where("organization_id = ? AND kind = ?", meta.OrganizationID, meta.Kind)
	if tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var current models.SnapshotGenerationModel
	err := query.Take(&current).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return fmt.Errorf("read %s generation pointer: %w", meta.Kind, err)
	case current.ComputedAt.After(meta.ComputedAt):
		return snapshot.ErrStaleGeneration
	}

	var staged int64
	if err := tx.Model(overview).
		Where("organization_id = ? AND generation_id = ?", meta.OrganizationID, meta.GenerationID).
		Count(&staged).Error; err != nil {
		return fmt.Errorf("check staged %s generation: %w", meta.Kind, err)
	}
	if staged == 0 {
		return snapshot.ErrStaleGeneration
	}
	return nil
}

// GetMetadata returns the current generation of a snapshot kind
func (r *GormSnapshotRepository) GetMetadata(ctx context.Context, orgID uuid.UUID, kind snapshot.Kind) (*snapshot.Metadata, error) {
	var pointer models.SnapshotGenerationModel
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND kind = ?", orgID, kind).
		First(&pointer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, snapshot.ErrSnapshotNotReady
		}
		return nil, fmt.Errorf("get snapshot metadata: %w", err)
	}
	return pointer.ToDomain(), nil
}

// ListProducts returns product summaries of the current inventory generation
func (r *GormSnapshotRepository) ListProducts(ctx context.Context, orgID uuid.UUID, filter snapshot.ProductFilter) (shared.Paginated[snapshot.ProductInventorySummary], error) {
	const table = "product_inventory_summaries"
	var empty shared.Paginated[snapshot.ProductInventorySummary]
	filter.Filter = filter.Normalized()
	if _, err := r.GetMetadata(ctx, orgID, snapshot.KindInventory); err != nil {
		return empty, err
	}

	scoped := func() *gorm.DB {
		query := r.currentGeneration(ctx, &models.ProductInventorySummaryModel{}, table, orgID, snapshot.KindInventory)
		if filter.StockStatus != "" {
			query = query.Where(table+".stock_status = ?", filter.StockStatus)
		}
		if filter.ABCTier != "" {
			query = query.Where(table+".abc_tier = ?", filter.ABCTier)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return empty, fmt.Errorf("count product summaries: %w", err)
	}

	var rows []models.ProductInventorySummaryModel
	if err := scoped().
		Select(table + ".*").
		Order(productSortColumns.orderBy(table, filter.OrderBy, filter.OrderDir)).
		Order(table + ".product_id ASC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return empty, fmt.Errorf("list product summaries: %w", err)
	}

	items := make([]snapshot.ProductInventorySummary, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// GetInventoryOverview returns the overview row of the current inventory generation
func (r *GormSnapshotRepository) GetInventoryOverview(ctx context.Context, orgID uuid.UUID) (*snapshot.InventoryOverviewSummary, error) {
	var row models.InventoryOverviewSummaryModel
	err := r.currentGeneration(ctx, &models.InventoryOverviewSummaryModel{}, "inventory_overview_summaries", orgID, snapshot.KindInventory).
		Select("inventory_overview_summaries.*").
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, snapshot.ErrSnapshotNotReady
		}
		return nil, fmt.Errorf("get inventory overview: %w", err)
	}
	return row.ToDomain(), nil
}

// ListCustomers returns customer summaries of the current customer generation
func (r *GormSnapshotRepository) ListCustomers(ctx context.Context, orgID uuid.UUID, filter snapshot.CustomerFilter) (shared.Paginated[snapshot.CustomerMetricsSummary], error) {
	const table = "customer_metrics_summaries"
	var empty shared.Paginated[snapshot.CustomerMetricsSummary]
	filter.Filter = filter.Normalized()
	if _, err := r.GetMetadata(ctx, orgID, snapshot.KindCustomer); err != nil {
		return empty, err
	}

	scoped := func() *gorm.DB {
		query := r.currentGeneration(ctx, &models.CustomerMetricsSummaryModel{}, table, orgID, snapshot.KindCustomer)
		if filter.Segment != "" {
			query = query.Where(table+".segment = ?", filter.Segment)
		}
		if filter.Status != "" {
			query = query.Where(table+".status = ?", filter.Status)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return empty, fmt.Errorf("count customer summaries: %w", err)
	}

	var rows []models.CustomerMetricsSummaryModel
	if err := scoped().
		Select(table + ".*").
		Order(customerSortColumns.orderBy(table, filter.OrderBy, filter.OrderDir)).
		Order(table + ".customer_id ASC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return empty, fmt.Errorf("list customer summaries: %w", err)
	}

	items := make([]snapshot.CustomerMetricsSummary, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// GetCustomerOverview returns the overview row of the current customer generation
func (r *GormSnapshotRepository) GetCustomerOverview(ctx context.Context, orgID uuid.UUID) (*snapshot.CustomerOverviewSummary, error) {
	var row models.CustomerOverviewSummaryModel
	err := r.currentGeneration(ctx, &models.CustomerOverviewSummaryModel{}, "customer_overview_summaries", orgID, snapshot.KindCustomer).
		Select("customer_overview_summaries.*").
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, snapshot.ErrSnapshotNotReady
		}
		return nil, fmt.Errorf("get customer overview: %w", err)
	}
	return row.ToDomain(), nil
}

// currentGeneration scopes a snapshot table to the rows of the published
// generation, resolved in the same statement as the read.
func (r *GormSnapshotRepository) currentGeneration(ctx context.Context, model any, table string, orgID uuid.UUID, kind snapshot.Kind) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(model).
		Joins("JOIN snapshot_generations ON snapshot_generations.organization_id = "+table+".organization_id "+
			"AND snapshot_generations.generation_id = "+table+".generation_id "+
			"AND snapshot_generations.kind = ?", kind).
		Where(table+".organization_id = ?", orgID)
}

func validateGeneration(meta snapshot.Metadata, kind snapshot.Kind) error {
	if meta.GenerationID == uuid.Nil {
		return shared.ErrInvalidInput.WithDetail("publish %s snapshot without generation", kind)
	}
	if meta.Kind != kind {
		return shared.ErrInvalidInput.WithDetail("publish %s snapshot with %q metadata", kind, meta.Kind)
	}
	return nil
}

var _ snapshot.Repository = (*GormSnapshotRepository)(nil)
