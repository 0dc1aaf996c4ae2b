package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/storepulse/backend/internal/domain/shared"
	"github.com/storepulse/backend/internal/domain/snapshot"
	"github.com/storepulse/backend/internal/infrastructure/persistence/models"
)

func setupSnapshotTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.SnapshotModels()...))
	return db
}

func inventorySnapshotFixture(orgID uuid.UUID, computedAt time.Time, revenues ...int64) snapshot.InventorySnapshot {
	products := make([]snapshot.ProductInventorySummary, len(revenues))
	for i, rev := range revenues {
		products[i] = snapshot.ProductInventorySummary{
			OrganizationID: orgID,
			ProductID:      uuid.New(),
			Title:          "Product",
			Available:      int64(10 * (i + 1)),
			StockStatus:    snapshot.StockStatusHealthy,
			Revenue:        decimal.NewFromInt(rev),
			UnitsSold:      rev / 10,
			ABCTier:        snapshot.ABCTierC,
			Variants: []snapshot.VariantRollup{
				{VariantID: uuid.New(), SKU: "SKU", Available: int64(10 * (i + 1))},
			},
			WindowDays: 30,
			ComputedAt: computedAt,
		}
	}
	if len(products) > 0 {
		products[0].ABCTier = snapshot.ABCTierA
		products[0].StockStatus = snapshot.StockStatusLow
	}
	return snapshot.InventorySnapshot{
		Metadata: snapshot.Metadata{
			OrganizationID:     orgID,
			Kind:               snapshot.KindInventory,
			GenerationID:       uuid.New(),
			ComputedAt:         computedAt,
			AnalysisWindowDays: 30,
			WindowStart:        computedAt.AddDate(0, 0, -30),
			WindowEnd:          computedAt,
			RowCount:           len(products),
		},
		Products: products,
		Overview: snapshot.InventoryOverviewSummary{
			OrganizationID: orgID,
			TotalProducts:  len(products),
			WindowStart:    computedAt.AddDate(0, 0, -30),
			WindowEnd:      computedAt,
			WindowDays:     30,
			ComputedAt:     computedAt,
		},
	}
}

func customerSnapshotFixture(orgID uuid.UUID, computedAt time.Time, segments ...snapshot.CustomerSegment) snapshot.CustomerSnapshot {
	customers := make([]snapshot.CustomerMetricsSummary, len(segments))
	for i, seg := range segments {
		customers[i] = snapshot.CustomerMetricsSummary{
			OrganizationID: orgID,
			CustomerID:     uuid.New(),
			FullName:       "Customer",
			LifetimeOrders: int64(i + 1),
			LifetimeValue:  decimal.NewFromInt(int64(100 * (i + 1))),
			Segment:        seg,
			Status:         snapshot.CustomerStatusAbandonedCart,
			WindowDays:     30,
			ComputedAt:     computedAt,
		}
	}
	return snapshot.CustomerSnapshot{
		Metadata: snapshot.Metadata{
			OrganizationID:     orgID,
			Kind:               snapshot.KindCustomer,
			GenerationID:       uuid.New(),
			ComputedAt:         computedAt,
			AnalysisWindowDays: 30,
			WindowStart:        computedAt.AddDate(0, 0, -30),
			WindowEnd:          computedAt,
			RowCount:           len(customers),
		},
		Customers: customers,
		Overview: snapshot.CustomerOverviewSummary{
			OrganizationID: orgID,
			TotalCustomers: int64(len(customers)),
			WindowStart:    computedAt.AddDate(0, 0, -30),
			WindowEnd:      computedAt,
			WindowDays:     30,
			ComputedAt:     computedAt,
		},
	}
}

func TestGormSnapshotRepository_NotReadyBeforeFirstPublish(t *testing.T) {
	repo := NewGormSnapshotRepository(setupSnapshotTestDB(t))
	ctx := context.Background()
	orgID := uuid.New()

	_, err := repo.GetMetadata(ctx, orgID, snapshot.KindInventory)
	assert.ErrorIs(t, err, snapshot.ErrSnapshotNotReady)

	_, err = repo.ListProducts(ctx, orgID, snapshot.ProductFilter{Filter: shared.DefaultFilter()})
	assert.ErrorIs(t, err, snapshot.ErrSnapshotNotReady)

	_, err = repo.GetInventoryOverview(ctx, orgID)
	assert.ErrorIs(t, err, snapshot.ErrSnapshotNotReady)

	_, err = repo.ListCustomers(ctx, orgID, snapshot.CustomerFilter{Filter: shared.DefaultFilter()})
	assert.ErrorIs(t, err, snapshot.ErrSnapshotNotReady)

	_, err = repo.GetCustomerOverview(ctx, orgID)
	assert.ErrorIs(t, err, snapshot.ErrSnapshotNotReady)
}

func TestGormSnapshotRepository_PublishInventory(t *testing.T) {
	repo := NewGormSnapshotRepository(setupSnapshotTestDB(t))
	ctx := context.Background()
	orgID := uuid.New()
	computedAt := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)

	snap := inventorySnapshotFixture(orgID, computedAt, 500, 300, 100)
	require.NoError(t, repo.PublishInventory(ctx, snap))

	meta, err := repo.GetMetadata(ctx, orgID, snapshot.KindInventory)
	require.NoError(t, err)
	assert.Equal(t, snap.Metadata.GenerationID, meta.GenerationID)
	assert.Equal(t, 3, meta.RowCount)
	assert.Equal(t, 30, meta.AnalysisWindowDays)
	assert.True(t, meta.ComputedAt.Equal(computedAt))

	page, err := repo.ListProducts(ctx, orgID, snapshot.ProductFilter{Filter: shared.DefaultFilter()})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, int64(3), page.Total)
	assert.True(t, page.Items[0].Revenue.Equal(decimal.NewFromInt(500)))
	assert.True(t, page.Items[2].Revenue.Equal(decimal.NewFromInt(100)))
	require.Len(t, page.Items[0].Variants, 1)
	assert.Equal(t, snap.Products[0].Variants[0].VariantID, page.Items[0].Variants[0].VariantID)

	overview, err := repo.GetInventoryOverview(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, 3, overview.TotalProducts)

	// The customer kind stays unpublished.
	_, err = repo.GetMetadata(ctx, orgID, snapshot.KindCustomer)
	assert.ErrorIs(t, err, snapshot.ErrSnapshotNotReady)
}

func TestGormSnapshotRepository_RepublishReplacesGeneration(t *testing.T) {
	db := setupSnapshotTestDB(t)
	repo := NewGormSnapshotRepository(db)
	ctx := context.Background()
	orgID := uuid.New()
	first := time.Date(2026, 3, 30, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.PublishInventory(ctx, inventorySnapshotFixture(orgID, first, 500, 300, 100, 50)))

	// The catalog shrank: the next generation has fewer products.
	second := inventorySnapshotFixture(orgID, first.Add(24*time.Hour), 900)
	require.NoError(t, repo.PublishInventory(ctx, second))

	page, err := repo.ListProducts(ctx, orgID, snapshot.ProductFilter{Filter: shared.DefaultFilter()})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, second.Products[0].ProductID, page.Items[0].ProductID)

	var stale int64
	require.NoError(t, db.Model(&models.ProductInventorySummaryModel{}).
		Where("generation_id <> ?", second.Metadata.GenerationID).
		Count(&stale).Error)
	assert.Zero(t, stale)

	var overviews int64
	require.NoError(t, db.Model(&models.InventoryOverviewSummaryModel{}).Count(&overviews).Error)
	assert.Equal(t, int64(1), overviews)

	meta, err := repo.GetMetadata(ctx, orgID, snapshot.KindInventory)
	require.NoError(t, err)
	assert.Equal(t, second.Metadata.GenerationID, meta.GenerationID)
}

func TestGormSnapshotRepository_EmptyGeneration(t *testing.T) {
	repo := NewGormSnapshotRepository(setupSnapshotTestDB(t))
	ctx := context.Background()
	orgID := uuid.New()

	require.NoError(t, repo.PublishInventory(ctx, inventorySnapshotFixture(orgID, time.Now().UTC())))

	page, err := repo.ListProducts(ctx, orgID, snapshot.ProductFilter{Filter: shared.DefaultFilter()})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Total)

	overview, err := repo.GetInventoryOverview(ctx, orgID)
	require.NoError(t, err)
	assert.Zero(t, overview.TotalProducts)
}

func TestGormSnapshotRepository_OrganizationsAreIsolated(t *testing.T) {
	repo := NewGormSnapshotRepository(setupSnapshotTestDB(t))
	ctx := context.Background()
	orgA, orgB := uuid.New(), uuid.New()
	now := time.Now().UTC()

	require.NoError(t, repo.PublishInventory(ctx, inventorySnapshotFixture(orgA, now, 100, 200)))
	require.NoError(t, repo.PublishInventory(ctx, inventorySnapshotFixture(orgB, now, 300)))
	// Republishing B must not touch A's rows.
	require.NoError(t, repo.PublishInventory(ctx, inventorySnapshotFixture(orgB, now, 400)))

	pageA, err := repo.ListProducts(ctx, orgA, snapshot.ProductFilter{Filter: shared.DefaultFilter()})
	require.NoError(t, err)
	assert.Equal(t, int64(2), pageA.Total)

	pageB, err := repo.ListProducts(ctx, orgB, snapshot.ProductFilter{Filter: shared.DefaultFilter()})
	require.NoError(t, err)
	require.Len(t, pageB.Items, 1)
	assert.True(t, pageB.Items[0].Revenue.Equal(decimal.NewFromInt(400)))
}

func TestGormSnapshotRepository_ListProductsFilters(t *testing.T) {
	repo := NewGormSnapshotRepository(setupSnapshotTestDB(t))
	ctx := context.Background()
	orgID := uuid.New()
	require.NoError(t, repo.PublishInventory(ctx, inventorySnapshotFixture(orgID, time.Now().UTC(), 500, 300, 100)))

	t.Run("by stock status", func(t *testing.T) {
		page, err := repo.ListProducts(ctx, orgID, snapshot.ProductFilter{
			Filter:      shared.DefaultFilter(),
			StockStatus: snapshot.StockStatusLow,
		})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, snapshot.StockStatusLow, page.Items[0].StockStatus)
	})

	t.Run("by tier", func(t *testing.T) {
		page, err := repo.ListProducts(ctx, orgID, snapshot.ProductFilter{
			Filter:  shared.DefaultFilter(),
			ABCTier: snapshot.ABCTierC,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
	})

	t.Run("ascending sort with pagination", func(t *testing.T) {
		page, err := repo.ListProducts(ctx, orgID, snapshot.ProductFilter{
			Filter: shared.Filter{Page: 2, PageSize: 2, OrderBy: "available", OrderDir: "asc"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.Total)
		assert.Equal(t, 2, page.TotalPages)
		require.Len(t, page.Items, 1)
		assert.Equal(t, int64(30), page.Items[0].Available)
	})

	t.Run("unknown sort field falls back to revenue", func(t *testing.T) {
		page, err := repo.ListProducts(ctx, orgID, snapshot.ProductFilter{
			Filter: shared.Filter{Page: 1, PageSize: 10, OrderBy: "revenue; DROP TABLE products", OrderDir: "desc"},
		})
		require.NoError(t, err)
		require.Len(t, page.Items, 3)
		assert.True(t, page.Items[0].Revenue.Equal(decimal.NewFromInt(500)))
	})
}

func TestGormSnapshotRepository_PublishCustomers(t *testing.T) {
	repo := NewGormSnapshotRepository(setupSnapshotTestDB(t))
	ctx := context.Background()
	orgID := uuid.New()
	now := time.Now().UTC()

	snap := customerSnapshotFixture(orgID, now, snapshot.SegmentProspect, snapshot.SegmentNew, snapshot.SegmentNew)
	require.NoError(t, repo.PublishCustomers(ctx, snap))

	page, err := repo.ListCustomers(ctx, orgID, snapshot.CustomerFilter{Filter: shared.DefaultFilter()})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.True(t, page.Items[0].LifetimeValue.Equal(decimal.NewFromInt(300)))

	page, err = repo.ListCustomers(ctx, orgID, snapshot.CustomerFilter{
		Filter:  shared.DefaultFilter(),
		Segment: snapshot.SegmentNew,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	overview, err := repo.GetCustomerOverview(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), overview.TotalCustomers)

	// Inventory and customer generations are independent.
	require.NoError(t, repo.PublishInventory(ctx, inventorySnapshotFixture(orgID, now, 10)))
	page, err = repo.ListCustomers(ctx, orgID, snapshot.CustomerFilter{Filter: shared.DefaultFilter()})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
}

func TestGormSnapshotRepository_RejectsInvalidMetadata(t *testing.T) {
	repo := NewGormSnapshotRepository(setupSnapshotTestDB(t))
	ctx := context.Background()

	snap := inventorySnapshotFixture(uuid.New(), time.Now().UTC(), 10)
	snap.Metadata.GenerationID = uuid.Nil
	assert.ErrorIs(t, repo.PublishInventory(ctx, snap), shared.ErrInvalidInput)

	cust := customerSnapshotFixture(uuid.New(), time.Now().UTC())
	cust.Metadata.Kind = snapshot.KindInventory
	assert.ErrorIs(t, repo.PublishCustomers(ctx, cust), shared.ErrInvalidInput)
}

func TestGormSnapshotRepository_FailedStageKeepsPreviousGeneration(t *testing.T) {
	db := setupSnapshotTestDB(t)
	repo := NewGormSnapshotRepository(db)
	ctx := context.Background()
	orgID := uuid.New()
	now := time.Now().UTC()

	first := inventorySnapshotFixture(orgID, now, 100, 200)
	require.NoError(t, repo.PublishInventory(ctx, first))

	// Duplicate product ids violate the primary key midway through staging.
	broken := inventorySnapshotFixture(orgID, now.Add(time.Hour), 300, 400)
	broken.Products[1].ProductID = broken.Products[0].ProductID
	require.Error(t, repo.PublishInventory(ctx, broken))

	meta, err := repo.GetMetadata(ctx, orgID, snapshot.KindInventory)
	require.NoError(t, err)
	assert.Equal(t, first.Metadata.GenerationID, meta.GenerationID)

	var staged int64
	require.NoError(t, db.Model(&models.ProductInventorySummaryModel{}).
		Where("generation_id = ?", broken.Metadata.GenerationID).
		Count(&staged).Error)
	assert.Zero(t, staged)

	page, err := repo.ListProducts(ctx, orgID, snapshot.ProductFilter{Filter: shared.DefaultFilter()})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
}

func stageInventoryGeneration(t *testing.T, repo *GormSnapshotRepository, snap snapshot.InventorySnapshot) generationTables {
	t.Helper()
	tables := generationTables{rows: &models.ProductInventorySummaryModel{}, overview: &models.InventoryOverviewSummaryModel{}}
	rows := make([]models.ProductInventorySummaryModel, len(snap.Products))
	for i, p := range snap.Products {
		rows[i].FromDomain(snap.Metadata.GenerationID, p)
	}
	var overview models.InventoryOverviewSummaryModel
	overview.FromDomain(snap.Metadata.GenerationID, snap.Overview)

	require.NoError(t, repo.stage(context.Background(), snap.Metadata, tables, func(db *gorm.DB) error {
		if err := db.Create(&rows).Error; err != nil {
			return err
		}
		return db.Create(&overview).Error
	}))
	return tables
}

func TestGormSnapshotRepository_OverlappingRebuilds(t *testing.T) {
	started := time.Date(2026, 4, 1, 3, 0, 0, 0, time.UTC)

	t.Run("older generation finishing last is not published", func(t *testing.T) {
		db := setupSnapshotTestDB(t)
		repo := NewGormSnapshotRepository(db)
		ctx := context.Background()
		orgID := uuid.New()

		slow := inventorySnapshotFixture(orgID, started, 100, 200)
		tables := stageInventoryGeneration(t, repo, slow)

		fast := inventorySnapshotFixture(orgID, started.Add(time.Minute), 300, 400, 500)
		require.NoError(t, repo.PublishInventory(ctx, fast))

		err := repo.flip(ctx, slow.Metadata, tables)
		assert.ErrorIs(t, err, snapshot.ErrStaleGeneration)

		meta, err := repo.GetMetadata(ctx, orgID, snapshot.KindInventory)
		require.NoError(t, err)
		assert.Equal(t, fast.Metadata.GenerationID, meta.GenerationID)

		overview, err := repo.GetInventoryOverview(ctx, orgID)
		require.NoError(t, err)
		assert.Equal(t, 3, overview.TotalProducts)

		page, err := repo.ListProducts(ctx, orgID, snapshot.ProductFilter{Filter: shared.DefaultFilter()})
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.Total)
	})

	t.Run("generation whose rows were dropped is not published", func(t *testing.T) {
		db := setupSnapshotTestDB(t)
		repo := NewGormSnapshotRepository(db)
		ctx := context.Background()
		orgID := uuid.New()

		newer := inventorySnapshotFixture(orgID, started.Add(time.Hour), 100)
		tables := stageInventoryGeneration(t, repo, newer)

		// Publishing another generation drops every staged generation.
		older := inventorySnapshotFixture(orgID, started, 700, 800)
		require.NoError(t, repo.PublishInventory(ctx, older))

		err := repo.flip(ctx, newer.Metadata, tables)
		assert.ErrorIs(t, err, snapshot.ErrStaleGeneration)

		meta, err := repo.GetMetadata(ctx, orgID, snapshot.KindInventory)
		require.NoError(t, err)
		assert.Equal(t, older.Metadata.GenerationID, meta.GenerationID)

		page, err := repo.ListProducts(ctx, orgID, snapshot.ProductFilter{Filter: shared.DefaultFilter()})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
	})

	t.Run("refused generation leaves no staged rows", func(t *testing.T) {
		db := setupSnapshotTestDB(t)
		repo := NewGormSnapshotRepository(db)
		ctx := context.Background()
		orgID := uuid.New()

		require.NoError(t, repo.PublishInventory(ctx, inventorySnapshotFixture(orgID, started.Add(time.Hour), 10)))

		stale := inventorySnapshotFixture(orgID, started, 20, 30)
		assert.ErrorIs(t, repo.PublishInventory(ctx, stale), snapshot.ErrStaleGeneration)

		var staged int64
		require.NoError(t, db.Model(&models.ProductInventorySummaryModel{}).
			Where("generation_id = ?", stale.Metadata.GenerationID).
			Count(&staged).Error)
		assert.Zero(t, staged)
	})
}
