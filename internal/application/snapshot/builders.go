package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/storepulse/backend/internal/domain/commerce"
	"github.com/storepulse/backend/internal/domain/snapshot"
)

// InventorySnapshotBuilder reads the raw catalog, stock and sales of an
// organization and computes its inventory snapshot.
type InventorySnapshotBuilder struct {
	reader commerce.Reader
	cfg    Config
}

// NewInventorySnapshotBuilder creates a new InventorySnapshotBuilder
func NewInventorySnapshotBuilder(reader commerce.Reader, cfg Config) *InventorySnapshotBuilder {
	return &InventorySnapshotBuilder{reader: reader, cfg: cfg.withDefaults()}
}

// Build loads every input of the inventory snapshot and computes it in memory.
// The result has no generation id yet.
func (b *InventorySnapshotBuilder) Build(ctx context.Context, orgID uuid.UUID, w snapshot.Window, computedAt time.Time) (snapshot.InventorySnapshot, error) {
	var in snapshot.InventoryInput
	var components []commerce.CostComponent

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		in.Products, err = commerce.ReadAll(gctx, b.cfg.PageSize, func(ctx context.Context, p commerce.PageRequest) ([]commerce.Product, error) {
			return b.reader.ListProducts(ctx, orgID, p)
		})
		return wrap("load products", err)
	})
	g.Go(func() (err error) {
		in.Variants, err = commerce.ReadAll(gctx, b.cfg.PageSize, func(ctx context.Context, p commerce.PageRequest) ([]commerce.ProductVariant, error) {
			return b.reader.ListVariants(ctx, orgID, p)
		})
		return wrap("load variants", err)
	})
	g.Go(func() (err error) {
		in.Levels, err = commerce.ReadAll(gctx, b.cfg.PageSize, func(ctx context.Context, p commerce.PageRequest) ([]commerce.InventoryLevel, error) {
			return b.reader.ListInventoryLevels(ctx, orgID, p)
		})
		return wrap("load inventory levels", err)
	})
	g.Go(func() (err error) {
		components, err = b.reader.ListCostComponents(gctx, orgID)
		return wrap("load cost components", err)
	})
	g.Go(func() (err error) {
		in.RecentlySold, err = b.reader.SoldVariantIDs(gctx, orgID, w.DeadStockSince(), w.End)
		return wrap("load recently sold variants", err)
	})
	g.Go(func() (err error) {
		in.Orders, err = commerce.ReadAll(gctx, b.cfg.PageSize, func(ctx context.Context, p commerce.PageRequest) ([]commerce.Order, error) {
			return b.reader.ListOrders(ctx, orgID, w.Start, w.End, p)
		})
		if err != nil {
			return wrap("load window orders", err)
		}
		in.Items, err = loadOrderItems(gctx, b.reader, orgID, in.Orders, b.cfg.ItemBatchSize)
		return err
	})
	if err := g.Wait(); err != nil {
		return snapshot.InventorySnapshot{}, err
	}

	in.Costs = snapshot.NewCostResolver(components)
	return snapshot.ComputeInventorySnapshot(orgID, in, w, computedAt), nil
}

// CustomerSnapshotBuilder reads the customers and full order history of an
// organization and computes its customer snapshot.
type CustomerSnapshotBuilder struct {
	reader commerce.Reader
	cfg    Config
}

// NewCustomerSnapshotBuilder creates a new CustomerSnapshotBuilder
func NewCustomerSnapshotBuilder(reader commerce.Reader, cfg Config) *CustomerSnapshotBuilder {
	return &CustomerSnapshotBuilder{reader: reader, cfg: cfg.withDefaults()}
}

// Build loads every input of the customer snapshot and computes it in memory.
func (b *CustomerSnapshotBuilder) Build(ctx context.Context, orgID uuid.UUID, w snapshot.Window, computedAt time.Time) (snapshot.CustomerSnapshot, error) {
	var in snapshot.CustomerInput

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		in.Customers, err = commerce.ReadAll(gctx, b.cfg.PageSize, func(ctx context.Context, p commerce.PageRequest) ([]commerce.Customer, error) {
			return b.reader.ListCustomers(ctx, orgID, p)
		})
		return wrap("load customers", err)
	})
	g.Go(func() (err error) {
		// Lifetime metrics need every order, not only the window.
		in.Orders, err = commerce.ReadAll(gctx, b.cfg.PageSize, func(ctx context.Context, p commerce.PageRequest) ([]commerce.Order, error) {
			return b.reader.ListOrders(ctx, orgID, time.Time{}, time.Time{}, p)
		})
		return wrap("load orders", err)
	})
	if err := g.Wait(); err != nil {
		return snapshot.CustomerSnapshot{}, err
	}

	return snapshot.ComputeCustomerSnapshot(orgID, in, w, computedAt), nil
}

func loadOrderItems(ctx context.Context, reader commerce.Reader, orgID uuid.UUID, orders []commerce.Order, batchSize int) ([]commerce.OrderItem, error) {
	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		if !o.IsCancelled() {
			ids = append(ids, o.ID)
		}
	}

	var items []commerce.OrderItem
	for _, batch := range commerce.Chunk(ids, batchSize) {
		page, err := reader.ListOrderItems(ctx, orgID, batch)
		if err != nil {
			return nil, fmt.Errorf("load order items: %w", err)
		}
		items = append(items, page...)
	}
	return items, nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
