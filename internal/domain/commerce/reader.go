package commerce

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PageRequest bounds a single read against the raw collections
type PageRequest struct {
	Offset int
	Limit  int
}

// Reader is the read-only view of the synced raw collections.
// All list methods are scoped to one organization.
type Reader interface {
	ListActiveOrganizations(ctx context.Context) ([]Organization, error)

	// ListOrders returns orders created in [from, to]. A zero from or to leaves
	// that side unbounded.
	ListOrders(ctx context.Context, orgID uuid.UUID, from, to time.Time, page PageRequest) ([]Order, error)
	ListOrderItems(ctx context.Context, orgID uuid.UUID, orderIDs []uuid.UUID) ([]OrderItem, error)
	ListProducts(ctx context.Context, orgID uuid.UUID, page PageRequest) ([]Product, error)
	ListVariants(ctx context.Context, orgID uuid.UUID, page PageRequest) ([]ProductVariant, error)
	ListInventoryLevels(ctx context.Context, orgID uuid.UUID, page PageRequest) ([]InventoryLevel, error)
	ListCostComponents(ctx context.Context, orgID uuid.UUID) ([]CostComponent, error)
	ListCustomers(ctx context.Context, orgID uuid.UUID, page PageRequest) ([]Customer, error)

	// SoldVariantIDs returns the distinct variants on any order line of orders
	// created in [from, to], regardless of financial status.
	SoldVariantIDs(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]uuid.UUID, error)
	SumAdInsights(ctx context.Context, orgID uuid.UUID, from, to time.Time) (AdTotals, error)
}

// ReadAll drains a paginated read into a single slice
func ReadAll[T any](ctx context.Context, pageSize int, fetch func(context.Context, PageRequest) ([]T, error)) ([]T, error) {
	if pageSize <= 0 {
		pageSize = 500
	}
	var all []T
	for offset := 0; ; offset += pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := fetch(ctx, PageRequest{Offset: offset, Limit: pageSize})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

// Chunk splits ids into batches of at most size elements
func Chunk(ids []uuid.UUID, size int) [][]uuid.UUID {
	if size <= 0 {
		size = len(ids)
	}
	var batches [][]uuid.UUID
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		batches = append(batches, ids[start:end])
	}
	return batches
}
