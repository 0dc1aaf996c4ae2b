package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/storepulse/backend/internal/domain/commerce"
	"github.com/storepulse/backend/internal/domain/shared"
	"github.com/storepulse/backend/internal/domain/snapshot"
)

var (
	testOrgID = uuid.MustParse("00000000-0000-0000-0000-0000000000aa")
	testNow   = time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fakeReader serves raw collections from memory, honoring pagination
type fakeReader struct {
	mu sync.Mutex

	orgs       []commerce.Organization
	products   []commerce.Product
	variants   []commerce.ProductVariant
	levels     []commerce.InventoryLevel
	components []commerce.CostComponent
	customers  []commerce.Customer
	orders     []commerce.Order
	items      []commerce.OrderItem
	sold       []uuid.UUID
	ads        commerce.AdTotals

	err          error
	reads        int
	itemBatches  [][]uuid.UUID
	adWindowFrom time.Time
	adWindowTo   time.Time
}

func page[T any](all []T, p commerce.PageRequest) []T {
	if p.Offset >= len(all) {
		return nil
	}
	end := min(p.Offset+p.Limit, len(all))
	return all[p.Offset:end]
}

func (f *fakeReader) read() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return f.err
}

func (f *fakeReader) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

func (f *fakeReader) ListActiveOrganizations(ctx context.Context) ([]commerce.Organization, error) {
	return f.orgs, f.read()
}

func (f *fakeReader) ListOrders(ctx context.Context, orgID uuid.UUID, from, to time.Time, p commerce.PageRequest) ([]commerce.Order, error) {
	if err := f.read(); err != nil {
		return nil, err
	}
	var matched []commerce.Order
	for _, o := range f.orders {
		if !from.IsZero() && o.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && o.CreatedAt.After(to) {
			continue
		}
		matched = append(matched, o)
	}
	return page(matched, p), nil
}

func (f *fakeReader) ListOrderItems(ctx context.Context, orgID uuid.UUID, orderIDs []uuid.UUID) ([]commerce.OrderItem, error) {
	if err := f.read(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.itemBatches = append(f.itemBatches, orderIDs)
	f.mu.Unlock()

	wanted := make(map[uuid.UUID]bool, len(orderIDs))
	for _, id := range orderIDs {
		wanted[id] = true
	}
	var matched []commerce.OrderItem
	for _, it := range f.items {
		if wanted[it.OrderID] {
			matched = append(matched, it)
		}
	}
	return matched, nil
}

func (f *fakeReader) ListProducts(ctx context.Context, orgID uuid.UUID, p commerce.PageRequest) ([]commerce.Product, error) {
	return page(f.products, p), f.read()
}

func (f *fakeReader) ListVariants(ctx context.Context, orgID uuid.UUID, p commerce.PageRequest) ([]commerce.ProductVariant, error) {
	return page(f.variants, p), f.read()
}

func (f *fakeReader) ListInventoryLevels(ctx context.Context, orgID uuid.UUID, p commerce.PageRequest) ([]commerce.InventoryLevel, error) {
	return page(f.levels, p), f.read()
}

func (f *fakeReader) ListCostComponents(ctx context.Context, orgID uuid.UUID) ([]commerce.CostComponent, error) {
	return f.components, f.read()
}

func (f *fakeReader) ListCustomers(ctx context.Context, orgID uuid.UUID, p commerce.PageRequest) ([]commerce.Customer, error) {
	return page(f.customers, p), f.read()
}

func (f *fakeReader) SoldVariantIDs(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]uuid.UUID, error) {
	return f.sold, f.read()
}

func (f *fakeReader) SumAdInsights(ctx context.Context, orgID uuid.UUID, from, to time.Time) (commerce.AdTotals, error) {
	f.mu.Lock()
	f.adWindowFrom, f.adWindowTo = from, to
	f.mu.Unlock()
	return f.ads, f.read()
}

// MockSnapshotRepository is a mock implementation of snapshot.Repository
type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) PublishInventory(ctx context.Context, snap snapshot.InventorySnapshot) error {
	return m.Called(ctx, snap).Error(0)
}

func (m *MockSnapshotRepository) PublishCustomers(ctx context.Context, snap snapshot.CustomerSnapshot) error {
	return m.Called(ctx, snap).Error(0)
}

func (m *MockSnapshotRepository) GetMetadata(ctx context.Context, orgID uuid.UUID, kind snapshot.Kind) (*snapshot.Metadata, error) {
	args := m.Called(ctx, orgID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*snapshot.Metadata), args.Error(1)
}

func (m *MockSnapshotRepository) ListProducts(ctx context.Context, orgID uuid.UUID, filter snapshot.ProductFilter) (shared.Paginated[snapshot.ProductInventorySummary], error) {
	args := m.Called(ctx, orgID, filter)
	return args.Get(0).(shared.Paginated[snapshot.ProductInventorySummary]), args.Error(1)
}

func (m *MockSnapshotRepository) GetInventoryOverview(ctx context.Context, orgID uuid.UUID) (*snapshot.InventoryOverviewSummary, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*snapshot.InventoryOverviewSummary), args.Error(1)
}

func (m *MockSnapshotRepository) ListCustomers(ctx context.Context, orgID uuid.UUID, filter snapshot.CustomerFilter) (shared.Paginated[snapshot.CustomerMetricsSummary], error) {
	args := m.Called(ctx, orgID, filter)
	return args.Get(0).(shared.Paginated[snapshot.CustomerMetricsSummary]), args.Error(1)
}

func (m *MockSnapshotRepository) GetCustomerOverview(ctx context.Context, orgID uuid.UUID) (*snapshot.CustomerOverviewSummary, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*snapshot.CustomerOverviewSummary), args.Error(1)
}

// catalogFixture seeds a small shop: two products, three variants, paid and
// cancelled orders inside the default window.
func catalogFixture() *fakeReader {
	p1 := commerce.Product{ID: uuid.New(), OrganizationID: testOrgID, Title: "Mug", Handle: "mug"}
	p2 := commerce.Product{ID: uuid.New(), OrganizationID: testOrgID, Title: "Tee", Handle: "tee"}
	v1 := commerce.ProductVariant{ID: uuid.New(), OrganizationID: testOrgID, ProductID: p1.ID, SKU: "MUG-1", Price: dec("12.00"), InventoryQuantity: 40}
	v2 := commerce.ProductVariant{ID: uuid.New(), OrganizationID: testOrgID, ProductID: p2.ID, SKU: "TEE-S", Price: dec("20.00"), InventoryQuantity: 3}
	v3 := commerce.ProductVariant{ID: uuid.New(), OrganizationID: testOrgID, ProductID: p2.ID, SKU: "TEE-M", Price: dec("22.00"), InventoryQuantity: 0}

	customerID := uuid.New()
	paid := commerce.Order{ID: uuid.New(), OrganizationID: testOrgID, CustomerID: &customerID, TotalPrice: dec("44.00"), FinancialStatus: "paid", CreatedAt: testNow.AddDate(0, 0, -5)}
	paid2 := commerce.Order{ID: uuid.New(), OrganizationID: testOrgID, CustomerID: &customerID, TotalPrice: dec("12.00"), FinancialStatus: "paid", CreatedAt: testNow.AddDate(0, 0, -2)}
	cancelled := commerce.Order{ID: uuid.New(), OrganizationID: testOrgID, TotalPrice: dec("20.00"), FinancialStatus: "cancelled", CreatedAt: testNow.AddDate(0, 0, -3)}

	return &fakeReader{
		orgs:     []commerce.Organization{{ID: testOrgID, Name: "Shop", Active: true}},
		products: []commerce.Product{p1, p2},
		variants: []commerce.ProductVariant{v1, v2, v3},
		customers: []commerce.Customer{
			{ID: customerID, OrganizationID: testOrgID, FirstName: "Ada", LastName: "Lee", Email: "ada@example.com", CreatedAt: testNow.AddDate(0, -6, 0)},
			{ID: uuid.New(), OrganizationID: testOrgID, FirstName: "Bo", Email: "bo@example.com", CreatedAt: testNow.AddDate(0, 0, -1)},
		},
		orders: []commerce.Order{paid, paid2, cancelled},
		items: []commerce.OrderItem{
			{ID: uuid.New(), OrderID: paid.ID, VariantID: &v1.ID, Quantity: 2, Price: dec("12.00")},
			{ID: uuid.New(), OrderID: paid.ID, VariantID: &v2.ID, Quantity: 1, Price: dec("20.00")},
			{ID: uuid.New(), OrderID: paid2.ID, VariantID: &v1.ID, Quantity: 1, Price: dec("12.00")},
			{ID: uuid.New(), OrderID: cancelled.ID, VariantID: &v2.ID, Quantity: 1, Price: dec("20.00")},
		},
		sold: []uuid.UUID{v1.ID, v2.ID},
	}
}
