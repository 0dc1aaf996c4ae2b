package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storepulse/backend/internal/domain/commerce"
)

// OrganizationModel is the persistence model for a merchant organization.
type OrganizationModel struct {
	BaseModel
	Name   string `gorm:"type:varchar(200);not null"`
	Active bool   `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (OrganizationModel) TableName() string {
	return "organizations"
}

// ToDomain converts the persistence model to a domain Organization.
func (m *OrganizationModel) ToDomain() commerce.Organization {
	return commerce.Organization{ID: m.ID, Name: m.Name, Active: m.Active}
}

// OrderModel is the persistence model for a synced order.
type OrderModel struct {
	OrganizationScopedModel
	CustomerID      *uuid.UUID      `gorm:"type:uuid;index"`
	TotalPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	FinancialStatus string          `gorm:"type:varchar(30);not null;default:'pending'"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order.
func (m *OrderModel) ToDomain() commerce.Order {
	return commerce.Order{
		ID:              m.ID,
		OrganizationID:  m.OrganizationID,
		CustomerID:      m.CustomerID,
		TotalPrice:      m.TotalPrice,
		FinancialStatus: m.FinancialStatus,
		CreatedAt:       m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain Order.
func (m *OrderModel) FromDomain(o commerce.Order) {
	m.ID = o.ID
	m.OrganizationID = o.OrganizationID
	m.CustomerID = o.CustomerID
	m.TotalPrice = o.TotalPrice
	m.FinancialStatus = o.FinancialStatus
	m.CreatedAt = o.CreatedAt
	m.UpdatedAt = o.CreatedAt
}

// OrderItemModel is the persistence model for an order line.
type OrderItemModel struct {
	BaseModel
	OrganizationID uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	VariantID      *uuid.UUID      `gorm:"type:uuid;index"`
	Quantity       int64           `gorm:"not null;default:0"`
	Price          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalDiscount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem.
func (m *OrderItemModel) ToDomain() commerce.OrderItem {
	return commerce.OrderItem{
		ID:            m.ID,
		OrderID:       m.OrderID,
		VariantID:     m.VariantID,
		Quantity:      m.Quantity,
		Price:         m.Price,
		TotalDiscount: m.TotalDiscount,
	}
}

// ProductModel is the persistence model for a synced product.
type ProductModel struct {
	OrganizationScopedModel
	Title       string `gorm:"type:varchar(255);not null"`
	Handle      string `gorm:"type:varchar(255)"`
	ProductType string `gorm:"type:varchar(100)"`
	Vendor      string `gorm:"type:varchar(100)"`
	ImageURL    string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product.
func (m *ProductModel) ToDomain() commerce.Product {
	return commerce.Product{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		Title:          m.Title,
		Handle:         m.Handle,
		ProductType:    m.ProductType,
		Vendor:         m.Vendor,
		ImageURL:       m.ImageURL,
	}
}

// ProductVariantModel is the persistence model for a product variant.
type ProductVariantModel struct {
	OrganizationScopedModel
	ProductID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	SKU               string           `gorm:"column:sku;type:varchar(100)"`
	Title             string           `gorm:"type:varchar(255)"`
	Price             decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	CompareAtPrice    *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Cost              *decimal.Decimal `gorm:"type:decimal(18,4)"`
	InventoryQuantity int64            `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductVariantModel) TableName() string {
	return "product_variants"
}

// ToDomain converts the persistence model to a domain ProductVariant.
func (m *ProductVariantModel) ToDomain() commerce.ProductVariant {
	return commerce.ProductVariant{
		ID:                m.ID,
		OrganizationID:    m.OrganizationID,
		ProductID:         m.ProductID,
		SKU:               m.SKU,
		Title:             m.Title,
		Price:             m.Price,
		CompareAtPrice:    m.CompareAtPrice,
		Cost:              m.Cost,
		InventoryQuantity: m.InventoryQuantity,
	}
}

// InventoryLevelModel is the persistence model for per-location stock.
type InventoryLevelModel struct {
	OrganizationScopedModel
	VariantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	LocationID string    `gorm:"type:varchar(100)"`
	Available  int64     `gorm:"not null;default:0"`
	Committed  int64     `gorm:"not null;default:0"`
	Incoming   int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (InventoryLevelModel) TableName() string {
	return "inventory_levels"
}

// ToDomain converts the persistence model to a domain InventoryLevel.
func (m *InventoryLevelModel) ToDomain() commerce.InventoryLevel {
	return commerce.InventoryLevel{
		ID:         m.ID,
		VariantID:  m.VariantID,
		LocationID: m.LocationID,
		Available:  m.Available,
		Committed:  m.Committed,
		Incoming:   m.Incoming,
	}
}

// CostComponentModel is the persistence model for merchant supplied unit costs.
type CostComponentModel struct {
	OrganizationScopedModel
	VariantID       uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex"`
	COGSPerUnit     *decimal.Decimal `gorm:"column:cogs_per_unit;type:decimal(18,4)"`
	HandlingPerUnit decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	TaxPercent      decimal.Decimal  `gorm:"type:decimal(8,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (CostComponentModel) TableName() string {
	return "cost_components"
}

// ToDomain converts the persistence model to a domain CostComponent.
func (m *CostComponentModel) ToDomain() commerce.CostComponent {
	return commerce.CostComponent{
		VariantID:       m.VariantID,
		COGSPerUnit:     m.COGSPerUnit,
		HandlingPerUnit: m.HandlingPerUnit,
		TaxPercent:      m.TaxPercent,
	}
}

// CustomerModel is the persistence model for a synced customer.
type CustomerModel struct {
	OrganizationScopedModel
	FirstName   string          `gorm:"type:varchar(100)"`
	LastName    string          `gorm:"type:varchar(100)"`
	Email       string          `gorm:"type:varchar(200);index"`
	OrdersCount int64           `gorm:"not null;default:0"`
	TotalSpent  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	City        string          `gorm:"type:varchar(100)"`
	Country     string          `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer.
func (m *CustomerModel) ToDomain() commerce.Customer {
	return commerce.Customer{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		FirstName:      m.FirstName,
		LastName:       m.LastName,
		Email:          m.Email,
		OrdersCount:    m.OrdersCount,
		TotalSpent:     m.TotalSpent,
		City:           m.City,
		Country:        m.Country,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// AdInsightModel is one day of ad platform delivery for an organization.
type AdInsightModel struct {
	OrganizationScopedModel
	Date        time.Time       `gorm:"type:date;not null;index"`
	Impressions int64           `gorm:"not null;default:0"`
	Clicks      int64           `gorm:"not null;default:0"`
	Conversions int64           `gorm:"not null;default:0"`
	Spend       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (AdInsightModel) TableName() string {
	return "ad_insights"
}

// CommerceModels returns every raw collection model, for test migrations
func CommerceModels() []any {
	return []any{
		&OrganizationModel{},
		&OrderModel{},
		&OrderItemModel{},
		&ProductModel{},
		&ProductVariantModel{},
		&InventoryLevelModel{},
		&CostComponentModel{},
		&CustomerModel{},
		&AdInsightModel{},
	}
}
