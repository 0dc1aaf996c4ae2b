package snapshot

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/storepulse/backend/internal/domain/shared"
)

// Kind identifies an independently rebuilt snapshot
type Kind string

const (
	KindInventory Kind = "inventory"
	KindCustomer  Kind = "customer"
)

// AllKinds returns every snapshot kind
func AllKinds() []Kind {
	return []Kind{KindInventory, KindCustomer}
}

// ParseKind validates a snapshot kind
func ParseKind(s string) (Kind, error) {
	for _, k := range AllKinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", ErrUnknownKind
}

// Metadata describes the currently published generation of a snapshot
type Metadata struct {
	OrganizationID     uuid.UUID `json:"organization_id"`
	Kind               Kind      `json:"kind"`
	GenerationID       uuid.UUID `json:"generation_id"`
	ComputedAt         time.Time `json:"computed_at"`
	AnalysisWindowDays int       `json:"analysis_window_days"`
	WindowStart        time.Time `json:"window_start"`
	WindowEnd          time.Time `json:"window_end"`
	RowCount           int       `json:"row_count"`
}

// ProductFilter narrows product summary reads
type ProductFilter struct {
	shared.Filter
	StockStatus StockStatus
	ABCTier     ABCTier
}

// CustomerFilter narrows customer summary reads
type CustomerFilter struct {
	shared.Filter
	Segment CustomerSegment
	Status  CustomerStatus
}

// Repository stores published snapshots. Publishing makes a new generation
// visible atomically; readers never observe a partially written generation.
// Reads return ErrSnapshotNotReady until a first generation exists.
type Repository interface {
	PublishInventory(ctx context.Context, snap InventorySnapshot) error
	PublishCustomers(ctx context.Context, snap CustomerSnapshot) error

	GetMetadata(ctx context.Context, orgID uuid.UUID, kind Kind) (*Metadata, error)
	ListProducts(ctx context.Context, orgID uuid.UUID, filter ProductFilter) (shared.Paginated[ProductInventorySummary], error)
	GetInventoryOverview(ctx context.Context, orgID uuid.UUID) (*InventoryOverviewSummary, error)
	ListCustomers(ctx context.Context, orgID uuid.UUID, filter CustomerFilter) (shared.Paginated[CustomerMetricsSummary], error)
	GetCustomerOverview(ctx context.Context, orgID uuid.UUID) (*CustomerOverviewSummary, error)
}

// RebuildLocker grants a per-key lease so only one rebuild of an organization
// runs at a time. Acquire returns ErrRebuildInProgress when the lease is held.
type RebuildLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// LockKey returns the lease key of an organization's rebuild of a kind
func LockKey(orgID uuid.UUID, kind Kind) string {
	return "snapshot:rebuild:" + string(kind) + ":" + orgID.String()
}
