package snapshot

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/storepulse/backend/internal/domain/commerce"
	"github.com/storepulse/backend/internal/domain/shared"
	"github.com/storepulse/backend/internal/domain/snapshot"
	"github.com/storepulse/backend/internal/infrastructure/telemetry"
)

// QueryService serves reads of the published snapshots.
// Every read returns snapshot.ErrSnapshotNotReady until a first rebuild of the
// organization has been published.
type QueryService struct {
	repo   snapshot.Repository
	reader commerce.Reader
}

// NewQueryService creates a new QueryService
func NewQueryService(repo snapshot.Repository, reader commerce.Reader) *QueryService {
	return &QueryService{repo: repo, reader: reader}
}

// GetMetadata returns the metadata of the current generation of a kind
func (s *QueryService) GetMetadata(ctx context.Context, orgID uuid.UUID, kind snapshot.Kind) (*snapshot.Metadata, error) {
	if err := requireOrganization(orgID); err != nil {
		return nil, err
	}
	if _, err := snapshot.ParseKind(string(kind)); err != nil {
		return nil, err
	}
	return s.repo.GetMetadata(ctx, orgID, kind)
}

// ListProducts returns a page of product summaries
func (s *QueryService) ListProducts(ctx context.Context, orgID uuid.UUID, filter snapshot.ProductFilter) (shared.Paginated[snapshot.ProductInventorySummary], error) {
	if err := requireOrganization(orgID); err != nil {
		return shared.Paginated[snapshot.ProductInventorySummary]{}, err
	}
	filter.Filter = filter.Filter.Normalized()
	return s.repo.ListProducts(ctx, orgID, filter)
}

// GetInventoryOverview returns the organization's inventory rollup
func (s *QueryService) GetInventoryOverview(ctx context.Context, orgID uuid.UUID) (*snapshot.InventoryOverviewSummary, error) {
	if err := requireOrganization(orgID); err != nil {
		return nil, err
	}
	return s.repo.GetInventoryOverview(ctx, orgID)
}

// ListCustomers returns a page of customer summaries
func (s *QueryService) ListCustomers(ctx context.Context, orgID uuid.UUID, filter snapshot.CustomerFilter) (shared.Paginated[snapshot.CustomerMetricsSummary], error) {
	if err := requireOrganization(orgID); err != nil {
		return shared.Paginated[snapshot.CustomerMetricsSummary]{}, err
	}
	filter.Filter = filter.Filter.Normalized()
	return s.repo.ListCustomers(ctx, orgID, filter)
}

// GetCustomerOverview returns the organization's customer rollup
func (s *QueryService) GetCustomerOverview(ctx context.Context, orgID uuid.UUID) (*snapshot.CustomerOverviewSummary, error) {
	if err := requireOrganization(orgID); err != nil {
		return nil, err
	}
	return s.repo.GetCustomerOverview(ctx, orgID)
}

// GetJourneyFunnel estimates the customer journey from the published customer
// overview and the ad delivery totals over the same window.
func (s *QueryService) GetJourneyFunnel(ctx context.Context, orgID uuid.UUID) (*snapshot.JourneyFunnel, error) {
	if err := requireOrganization(orgID); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartQuerySpan(ctx, "journey_funnel", orgID)
	defer span.End()

	overview, err := s.repo.GetCustomerOverview(ctx, orgID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	ads, err := s.reader.SumAdInsights(ctx, orgID, overview.WindowStart, overview.WindowEnd)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("sum ad insights: %w", err)
	}

	funnel := snapshot.EstimateJourneyFunnel(ads, *overview)
	telemetry.SetOK(span)
	return &funnel, nil
}

func requireOrganization(orgID uuid.UUID) error {
	if orgID == uuid.Nil {
		return shared.ErrInvalidInput.WithDetail("organization id is required")
	}
	return nil
}
