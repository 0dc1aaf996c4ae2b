package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storepulse/backend/internal/domain/snapshot"
)

// SnapshotGenerationModel points an organization's snapshot kind at its
// currently published generation.
type SnapshotGenerationModel struct {
	OrganizationID     uuid.UUID     `gorm:"type:uuid;primaryKey"`
	Kind               snapshot.Kind `gorm:"type:varchar(20);primaryKey"`
	GenerationID       uuid.UUID     `gorm:"type:uuid;not null"`
	ComputedAt         time.Time     `gorm:"not null"`
	AnalysisWindowDays int           `gorm:"not null"`
	WindowStart        time.Time     `gorm:"not null"`
	WindowEnd          time.Time     `gorm:"not null"`
	RowCount           int           `gorm:"not null;default:0"`
	UpdatedAt          time.Time     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SnapshotGenerationModel) TableName() string {
	return "snapshot_generations"
}

// ToDomain converts the pointer row to snapshot metadata.
func (m *SnapshotGenerationModel) ToDomain() *snapshot.Metadata {
	return &snapshot.Metadata{
		OrganizationID:     m.OrganizationID,
		Kind:               m.Kind,
		GenerationID:       m.GenerationID,
		ComputedAt:         m.ComputedAt,
		AnalysisWindowDays: m.AnalysisWindowDays,
		WindowStart:        m.WindowStart,
		WindowEnd:          m.WindowEnd,
		RowCount:           m.RowCount,
	}
}

// FromDomain populates the pointer row from snapshot metadata.
func (m *SnapshotGenerationModel) FromDomain(meta snapshot.Metadata) {
	m.OrganizationID = meta.OrganizationID
	m.Kind = meta.Kind
	m.GenerationID = meta.GenerationID
	m.ComputedAt = meta.ComputedAt
	m.AnalysisWindowDays = meta.AnalysisWindowDays
	m.WindowStart = meta.WindowStart
	m.WindowEnd = meta.WindowEnd
	m.RowCount = meta.RowCount
}

// ProductInventorySummaryModel is one product row of an inventory generation.
type ProductInventorySummaryModel struct {
	GenerationID   uuid.UUID            `gorm:"type:uuid;primaryKey"`
	ProductID      uuid.UUID            `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID            `gorm:"type:uuid;not null;index"`
	Title          string               `gorm:"type:varchar(255);not null"`
	Handle         string               `gorm:"type:varchar(255)"`
	ProductType    string               `gorm:"type:varchar(100)"`
	Vendor         string               `gorm:"type:varchar(100)"`
	ImageURL       string               `gorm:"type:text"`
	VariantCount   int                  `gorm:"not null;default:0"`
	StockOnHand    int64                `gorm:"not null;default:0"`
	Available      int64                `gorm:"not null;default:0"`
	Reserved       int64                `gorm:"not null;default:0"`
	Incoming       int64                `gorm:"not null;default:0"`
	ReorderPoint   int64                `gorm:"not null;default:0"`
	StockStatus    snapshot.StockStatus `gorm:"type:varchar(20);not null;index"`
	Price          decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	WeightedCost   decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	Margin         decimal.Decimal      `gorm:"type:decimal(10,4);not null;default:0"`
	TurnoverRate   decimal.Decimal      `gorm:"type:decimal(10,4);not null;default:0"`
	AvgDailySales  decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	UnitsSold      int64                `gorm:"not null;default:0"`
	Revenue        decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	COGS           decimal.Decimal      `gorm:"column:cogs;type:decimal(18,4);not null;default:0"`
	LastSoldAt     *time.Time
	ABCTier        snapshot.ABCTier         `gorm:"column:abc_tier;type:varchar(1);not null;index"`
	Variants       []snapshot.VariantRollup `gorm:"type:jsonb;serializer:json"`
	WindowDays     int                      `gorm:"not null"`
	ComputedAt     time.Time                `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductInventorySummaryModel) TableName() string {
	return "product_inventory_summaries"
}

// ToDomain converts the persistence model to a domain summary.
func (m *ProductInventorySummaryModel) ToDomain() snapshot.ProductInventorySummary {
	return snapshot.ProductInventorySummary{
		OrganizationID: m.OrganizationID,
		ProductID:      m.ProductID,
		Title:          m.Title,
		Handle:         m.Handle,
		ProductType:    m.ProductType,
		Vendor:         m.Vendor,
		ImageURL:       m.ImageURL,
		VariantCount:   m.VariantCount,
		StockOnHand:    m.StockOnHand,
		Available:      m.Available,
		Reserved:       m.Reserved,
		Incoming:       m.Incoming,
		ReorderPoint:   m.ReorderPoint,
		StockStatus:    m.StockStatus,
		Price:          m.Price,
		WeightedCost:   m.WeightedCost,
		Margin:         m.Margin,
		TurnoverRate:   m.TurnoverRate,
		AvgDailySales:  m.AvgDailySales,
		UnitsSold:      m.UnitsSold,
		Revenue:        m.Revenue,
		COGS:           m.COGS,
		LastSoldAt:     m.LastSoldAt,
		ABCTier:        m.ABCTier,
		Variants:       m.Variants,
		WindowDays:     m.WindowDays,
		ComputedAt:     m.ComputedAt,
	}
}

// FromDomain populates the persistence model from a domain summary.
func (m *ProductInventorySummaryModel) FromDomain(generationID uuid.UUID, s snapshot.ProductInventorySummary) {
	m.GenerationID = generationID
	m.ProductID = s.ProductID
	m.OrganizationID = s.OrganizationID
	m.Title = s.Title
	m.Handle = s.Handle
	m.ProductType = s.ProductType
	m.Vendor = s.Vendor
	m.ImageURL = s.ImageURL
	m.VariantCount = s.VariantCount
	m.StockOnHand = s.StockOnHand
	m.Available = s.Available
	m.Reserved = s.Reserved
	m.Incoming = s.Incoming
	m.ReorderPoint = s.ReorderPoint
	m.StockStatus = s.StockStatus
	m.Price = s.Price
	m.WeightedCost = s.WeightedCost
	m.Margin = s.Margin
	m.TurnoverRate = s.TurnoverRate
	m.AvgDailySales = s.AvgDailySales
	m.UnitsSold = s.UnitsSold
	m.Revenue = s.Revenue
	m.COGS = s.COGS
	m.LastSoldAt = s.LastSoldAt
	m.ABCTier = s.ABCTier
	m.Variants = s.Variants
	m.WindowDays = s.WindowDays
	m.ComputedAt = s.ComputedAt
}

// InventoryOverviewSummaryModel is the single overview row of an inventory generation.
type InventoryOverviewSummaryModel struct {
	GenerationID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrganizationID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	TotalInventoryValue decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	TotalCOGS           decimal.Decimal `gorm:"column:total_cogs;type:decimal(20,4);not null;default:0"`
	TotalUnitsInStock   int64           `gorm:"not null;default:0"`
	TotalUnitsSold      int64           `gorm:"not null;default:0"`
	TotalRevenue        decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	TotalSKUs           int             `gorm:"column:total_skus;not null;default:0"`
	TotalProducts       int             `gorm:"not null;default:0"`
	StockCoverageDays   int64           `gorm:"not null;default:0"`
	DeadStockCount      int             `gorm:"not null;default:0"`
	HealthyCount        int             `gorm:"not null;default:0"`
	LowStockCount       int             `gorm:"not null;default:0"`
	CriticalCount       int             `gorm:"not null;default:0"`
	OutOfStockCount     int             `gorm:"not null;default:0"`
	TierACount          int             `gorm:"column:tier_a_count;not null;default:0"`
	TierBCount          int             `gorm:"column:tier_b_count;not null;default:0"`
	TierCCount          int             `gorm:"column:tier_c_count;not null;default:0"`
	WindowStart         time.Time       `gorm:"not null"`
	WindowEnd           time.Time       `gorm:"not null"`
	WindowDays          int             `gorm:"not null"`
	ComputedAt          time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InventoryOverviewSummaryModel) TableName() string {
	return "inventory_overview_summaries"
}

// ToDomain converts the persistence model to a domain overview.
func (m *InventoryOverviewSummaryModel) ToDomain() *snapshot.InventoryOverviewSummary {
	return &snapshot.InventoryOverviewSummary{
		OrganizationID:      m.OrganizationID,
		TotalInventoryValue: m.TotalInventoryValue,
		TotalCOGS:           m.TotalCOGS,
		TotalUnitsInStock:   m.TotalUnitsInStock,
		TotalUnitsSold:      m.TotalUnitsSold,
		TotalRevenue:        m.TotalRevenue,
		TotalSKUs:           m.TotalSKUs,
		TotalProducts:       m.TotalProducts,
		StockCoverageDays:   m.StockCoverageDays,
		DeadStockCount:      m.DeadStockCount,
		HealthyCount:        m.HealthyCount,
		LowStockCount:       m.LowStockCount,
		CriticalCount:       m.CriticalCount,
		OutOfStockCount:     m.OutOfStockCount,
		TierACount:          m.TierACount,
		TierBCount:          m.TierBCount,
		TierCCount:          m.TierCCount,
		WindowStart:         m.WindowStart,
		WindowEnd:           m.WindowEnd,
		WindowDays:          m.WindowDays,
		ComputedAt:          m.ComputedAt,
	}
}

// FromDomain populates the persistence model from a domain overview.
func (m *InventoryOverviewSummaryModel) FromDomain(generationID uuid.UUID, o snapshot.InventoryOverviewSummary) {
	m.GenerationID = generationID
	m.OrganizationID = o.OrganizationID
	m.TotalInventoryValue = o.TotalInventoryValue
	m.TotalCOGS = o.TotalCOGS
	m.TotalUnitsInStock = o.TotalUnitsInStock
	m.TotalUnitsSold = o.TotalUnitsSold
	m.TotalRevenue = o.TotalRevenue
	m.TotalSKUs = o.TotalSKUs
	m.TotalProducts = o.TotalProducts
	m.StockCoverageDays = o.StockCoverageDays
	m.DeadStockCount = o.DeadStockCount
	m.HealthyCount = o.HealthyCount
	m.LowStockCount = o.LowStockCount
	m.CriticalCount = o.CriticalCount
	m.OutOfStockCount = o.OutOfStockCount
	m.TierACount = o.TierACount
	m.TierBCount = o.TierBCount
	m.TierCCount = o.TierCCount
	m.WindowStart = o.WindowStart
	m.WindowEnd = o.WindowEnd
	m.WindowDays = o.WindowDays
	m.ComputedAt = o.ComputedAt
}

// CustomerMetricsSummaryModel is one customer row of a customer generation.
type CustomerMetricsSummaryModel struct {
	GenerationID       uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CustomerID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrganizationID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	FullName           string          `gorm:"type:varchar(200)"`
	Email              string          `gorm:"type:varchar(200)"`
	City               string          `gorm:"type:varchar(100)"`
	Country            string          `gorm:"type:varchar(100)"`
	LifetimeOrders     int64           `gorm:"not null;default:0"`
	LifetimeValue      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AverageOrderValue  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PeriodOrders       int64           `gorm:"not null;default:0"`
	PeriodRevenue      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	FirstOrderAt       *time.Time
	LastOrderAt        *time.Time
	DaysSinceLastOrder *int64
	Segment            snapshot.CustomerSegment `gorm:"type:varchar(20);not null;index"`
	Status             snapshot.CustomerStatus  `gorm:"type:varchar(20);not null"`
	IsReturning        bool                     `gorm:"not null;default:false"`
	WindowDays         int                      `gorm:"not null"`
	ComputedAt         time.Time                `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerMetricsSummaryModel) TableName() string {
	return "customer_metrics_summaries"
}

// ToDomain converts the persistence model to a domain summary.
func (m *CustomerMetricsSummaryModel) ToDomain() snapshot.CustomerMetricsSummary {
	return snapshot.CustomerMetricsSummary{
		OrganizationID:     m.OrganizationID,
		CustomerID:         m.CustomerID,
		FullName:           m.FullName,
		Email:              m.Email,
		City:               m.City,
		Country:            m.Country,
		LifetimeOrders:     m.LifetimeOrders,
		LifetimeValue:      m.LifetimeValue,
		AverageOrderValue:  m.AverageOrderValue,
		PeriodOrders:       m.PeriodOrders,
		PeriodRevenue:      m.PeriodRevenue,
		FirstOrderAt:       m.FirstOrderAt,
		LastOrderAt:        m.LastOrderAt,
		DaysSinceLastOrder: m.DaysSinceLastOrder,
		Segment:            m.Segment,
		Status:             m.Status,
		IsReturning:        m.IsReturning,
		WindowDays:         m.WindowDays,
		ComputedAt:         m.ComputedAt,
	}
}

// FromDomain populates the persistence model from a domain summary.
func (m *CustomerMetricsSummaryModel) FromDomain(generationID uuid.UUID, s snapshot.CustomerMetricsSummary) {
	m.GenerationID = generationID
	m.CustomerID = s.CustomerID
	m.OrganizationID = s.OrganizationID
	m.FullName = s.FullName
	m.Email = s.Email
	m.City = s.City
	m.Country = s.Country
	m.LifetimeOrders = s.LifetimeOrders
	m.LifetimeValue = s.LifetimeValue
	m.AverageOrderValue = s.AverageOrderValue
	m.PeriodOrders = s.PeriodOrders
	m.PeriodRevenue = s.PeriodRevenue
	m.FirstOrderAt = s.FirstOrderAt
	m.LastOrderAt = s.LastOrderAt
	m.DaysSinceLastOrder = s.DaysSinceLastOrder
	m.Segment = s.Segment
	m.Status = s.Status
	m.IsReturning = s.IsReturning
	m.WindowDays = s.WindowDays
	m.ComputedAt = s.ComputedAt
}

// CustomerOverviewSummaryModel is the single overview row of a customer generation.
type CustomerOverviewSummaryModel struct {
	GenerationID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrganizationID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	TotalCustomers         int64           `gorm:"not null;default:0"`
	ConvertedCustomers     int64           `gorm:"not null;default:0"`
	AbandonedCartCustomers int64           `gorm:"not null;default:0"`
	ReturningCustomers     int64           `gorm:"not null;default:0"`
	NewCustomers           int64           `gorm:"not null;default:0"`
	ActiveCustomers        int64           `gorm:"not null;default:0"`
	PeriodOrders           int64           `gorm:"not null;default:0"`
	PeriodRevenue          decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	AverageOrderValue      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ProspectCount          int64           `gorm:"not null;default:0"`
	NewSegmentCount        int64           `gorm:"not null;default:0"`
	RegularCount           int64           `gorm:"not null;default:0"`
	VIPCount               int64           `gorm:"column:vip_count;not null;default:0"`
	ChampionCount          int64           `gorm:"not null;default:0"`
	WindowStart            time.Time       `gorm:"not null"`
	WindowEnd              time.Time       `gorm:"not null"`
	WindowDays             int             `gorm:"not null"`
	ComputedAt             time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerOverviewSummaryModel) TableName() string {
	return "customer_overview_summaries"
}

// ToDomain converts the persistence model to a domain overview.
func (m *CustomerOverviewSummaryModel) ToDomain() *snapshot.CustomerOverviewSummary {
	return &snapshot.CustomerOverviewSummary{
		OrganizationID:         m.OrganizationID,
		TotalCustomers:         m.TotalCustomers,
		ConvertedCustomers:     m.ConvertedCustomers,
		AbandonedCartCustomers: m.AbandonedCartCustomers,
		ReturningCustomers:     m.ReturningCustomers,
		NewCustomers:           m.NewCustomers,
		ActiveCustomers:        m.ActiveCustomers,
		PeriodOrders:           m.PeriodOrders,
		PeriodRevenue:          m.PeriodRevenue,
		AverageOrderValue:      m.AverageOrderValue,
		ProspectCount:          m.ProspectCount,
		NewSegmentCount:        m.NewSegmentCount,
		RegularCount:           m.RegularCount,
		VIPCount:               m.VIPCount,
		ChampionCount:          m.ChampionCount,
		WindowStart:            m.WindowStart,
		WindowEnd:              m.WindowEnd,
		WindowDays:             m.WindowDays,
		ComputedAt:             m.ComputedAt,
	}
}

// FromDomain populates the persistence model from a domain overview.
func (m *CustomerOverviewSummaryModel) FromDomain(generationID uuid.UUID, o snapshot.CustomerOverviewSummary) {
	m.GenerationID = generationID
	m.OrganizationID = o.OrganizationID
	m.TotalCustomers = o.TotalCustomers
	m.ConvertedCustomers = o.ConvertedCustomers
	m.AbandonedCartCustomers = o.AbandonedCartCustomers
	m.ReturningCustomers = o.ReturningCustomers
	m.NewCustomers = o.NewCustomers
	m.ActiveCustomers = o.ActiveCustomers
	m.PeriodOrders = o.PeriodOrders
	m.PeriodRevenue = o.PeriodRevenue
	m.AverageOrderValue = o.AverageOrderValue
	m.ProspectCount = o.ProspectCount
	m.NewSegmentCount = o.NewSegmentCount
	m.RegularCount = o.RegularCount
	m.VIPCount = o.VIPCount
	m.ChampionCount = o.ChampionCount
	m.WindowStart = o.WindowStart
	m.WindowEnd = o.WindowEnd
	m.WindowDays = o.WindowDays
	m.ComputedAt = o.ComputedAt
}

// SnapshotModels returns every snapshot table model, for test migrations
func SnapshotModels() []any {
	return []any{
		&SnapshotGenerationModel{},
		&ProductInventorySummaryModel{},
		&InventoryOverviewSummaryModel{},
		&CustomerMetricsSummaryModel{},
		&CustomerOverviewSummaryModel{},
	}
}
