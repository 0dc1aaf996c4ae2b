package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/storepulse/backend/internal/domain/commerce"
	"github.com/storepulse/backend/internal/infrastructure/persistence/models"
)

// GormCommerceRepository implements commerce.Reader over the synced raw tables
type GormCommerceRepository struct {
	db *gorm.DB
}

// NewGormCommerceRepository creates a new GormCommerceRepository
func NewGormCommerceRepository(db *gorm.DB) *GormCommerceRepository {
	return &GormCommerceRepository{db: db}
}

// ListActiveOrganizations returns every organization whose snapshots are maintained
func (r *GormCommerceRepository) ListActiveOrganizations(ctx context.Context) ([]commerce.Organization, error) {
	var rows []models.OrganizationModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list active organizations: %w", err)
	}
	orgs := make([]commerce.Organization, len(rows))
	for i := range rows {
		orgs[i] = rows[i].ToDomain()
	}
	return orgs, nil
}

// ListOrders returns one page of orders created in [from, to]
func (r *GormCommerceRepository) ListOrders(ctx context.Context, orgID uuid.UUID, from, to time.Time, page commerce.PageRequest) ([]commerce.Order, error) {
	query := r.db.WithContext(ctx).Where("organization_id = ?", orgID)
	if !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("created_at <= ?", to)
	}

	var rows []models.OrderModel
	if err := paginate(query, page).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	orders := make([]commerce.Order, len(rows))
	for i := range rows {
		orders[i] = rows[i].ToDomain()
	}
	return orders, nil
}

// ListOrderItems returns the lines of the given orders
func (r *GormCommerceRepository) ListOrderItems(ctx context.Context, orgID uuid.UUID, orderIDs []uuid.UUID) ([]commerce.OrderItem, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var rows []models.OrderItemModel
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND order_id IN ?", orgID, orderIDs).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	items := make([]commerce.OrderItem, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}
	return items, nil
}

// ListProducts returns one page of products
func (r *GormCommerceRepository) ListProducts(ctx context.Context, orgID uuid.UUID, page commerce.PageRequest) ([]commerce.Product, error) {
	var rows []models.ProductModel
	if err := paginate(r.db.WithContext(ctx).Where("organization_id = ?", orgID), page).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	products := make([]commerce.Product, len(rows))
	for i := range rows {
		products[i] = rows[i].ToDomain()
	}
	return products, nil
}

// ListVariants returns one page of product variants
func (r *GormCommerceRepository) ListVariants(ctx context.Context, orgID uuid.UUID, page commerce.PageRequest) ([]commerce.ProductVariant, error) {
	var rows []models.ProductVariantModel
	if err := paginate(r.db.WithContext(ctx).Where("organization_id = ?", orgID), page).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	variants := make([]commerce.ProductVariant, len(rows))
	for i := range rows {
		variants[i] = rows[i].ToDomain()
	}
	return variants, nil
}

// ListInventoryLevels returns one page of inventory levels
func (r *GormCommerceRepository) ListInventoryLevels(ctx context.Context, orgID uuid.UUID, page commerce.PageRequest) ([]commerce.InventoryLevel, error) {
	var rows []models.InventoryLevelModel
	if err := paginate(r.db.WithContext(ctx).Where("organization_id = ?", orgID), page).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list inventory levels: %w", err)
	}
	levels := make([]commerce.InventoryLevel, len(rows))
	for i := range rows {
		levels[i] = rows[i].ToDomain()
	}
	return levels, nil
}

// ListCostComponents returns every cost component of the organization in one read
func (r *GormCommerceRepository) ListCostComponents(ctx context.Context, orgID uuid.UUID) ([]commerce.CostComponent, error) {
	var rows []models.CostComponentModel
	if err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list cost components: %w", err)
	}
	components := make([]commerce.CostComponent, len(rows))
	for i := range rows {
		components[i] = rows[i].ToDomain()
	}
	return components, nil
}

// ListCustomers returns one page of customers
func (r *GormCommerceRepository) ListCustomers(ctx context.Context, orgID uuid.UUID, page commerce.PageRequest) ([]commerce.Customer, error) {
	var rows []models.CustomerModel
	if err := paginate(r.db.WithContext(ctx).Where("organization_id = ?", orgID), page).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	customers := make([]commerce.Customer, len(rows))
	for i := range rows {
		customers[i] = rows[i].ToDomain()
	}
	return customers, nil
}

// SoldVariantIDs returns the distinct variants ordered in [from, to]
func (r *GormCommerceRepository) SoldVariantIDs(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.OrderItemModel{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.organization_id = ? AND order_items.variant_id IS NOT NULL", orgID).
		Where("orders.created_at >= ? AND orders.created_at <= ?", from, to).
		Distinct().
		Pluck("order_items.variant_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list sold variants: %w", err)
	}
	return ids, nil
}

// SumAdInsights totals ad delivery for days in [from, to]
func (r *GormCommerceRepository) SumAdInsights(ctx context.Context, orgID uuid.UUID, from, to time.Time) (commerce.AdTotals, error) {
	var row struct {
		Impressions int64
		Clicks      int64
		Conversions int64
		Spend       decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.AdInsightModel{}).
		Select("COALESCE(SUM(impressions), 0) AS impressions, COALESCE(SUM(clicks), 0) AS clicks, "+
			"COALESCE(SUM(conversions), 0) AS conversions, COALESCE(SUM(spend), 0) AS spend").
		Where("organization_id = ? AND date >= ? AND date <= ?", orgID, from, to).
		Scan(&row).Error; err != nil {
		return commerce.AdTotals{}, fmt.Errorf("sum ad insights: %w", err)
	}
	return commerce.AdTotals{
		Impressions: row.Impressions,
		Clicks:      row.Clicks,
		Conversions: row.Conversions,
		Spend:       row.Spend,
	}, nil
}

func paginate(query *gorm.DB, page commerce.PageRequest) *gorm.DB {
	if page.Limit > 0 {
		query = query.Limit(page.Limit)
	}
	if page.Offset > 0 {
		query = query.Offset(page.Offset)
	}
	return query
}

var _ commerce.Reader = (*GormCommerceRepository)(nil)
