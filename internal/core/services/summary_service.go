package services

import (
	"context"
	"fmt"
	"time"

	"github.com/vetdesk/accounts/internal/apperrors"
	portsrepo "github.com/vetdesk/accounts/internal/core/ports/repositories"
	portssvc "github.com/vetdesk/accounts/internal/core/ports/services"
	"github.com/vetdesk/accounts/internal/dto"
	"github.com/vetdesk/accounts/internal/platform/logging"
)

const defaultSummaryPageSize = 25

// balanceSummaryService serves the paged multi-customer balance listing.
type balanceSummaryService struct {
	summaryRepo portsrepo.SummaryRepository
}

// NewBalanceSummaryService creates the balance summary service.
func NewBalanceSummaryService(summaryRepo portsrepo.SummaryRepository) portssvc.BalanceSummarySvcFacade {
	return &balanceSummaryService{summaryRepo: summaryRepo}
}

var _ portssvc.BalanceSummarySvcFacade = (*balanceSummaryService)(nil)

// ListBalanceSummaries returns one page of per-customer balance rows. Rows
// are keyed by customer reference: customers sharing a display name each get
// their own row.
func (s *balanceSummaryService) ListBalanceSummaries(ctx context.Context, params dto.BalanceSummaryParams) (*dto.BalanceSummaryResponse, error) {
	logger := logging.FromContext(ctx)

	if params.Date.IsZero() {
		params.Date = time.Now().UTC()
	}
	if params.Limit <= 0 {
		params.Limit = defaultSummaryPageSize
	}
	if params.Location == "" {
		params.Location = dto.LocationAll
	}
	if params.Location == dto.LocationSet && len(params.LocationIDs) == 0 {
		return nil, fmt.Errorf("%w: location filter SET requires at least one location", apperrors.ErrValidation)
	}
	if params.OverdueFromDays < 0 || params.OverdueToDays < 0 {
		return nil, fmt.Errorf("%w: overdue day window must not be negative", apperrors.ErrValidation)
	}
	if params.OverdueFromDays > 0 && params.OverdueToDays > 0 && params.OverdueToDays < params.OverdueFromDays {
		return nil, fmt.Errorf("%w: overdue day window is inverted", apperrors.ErrValidation)
	}

	rows, nextToken, err := s.summaryRepo.ListBalanceSummaries(ctx, params)
	if err != nil {
		logger.Error("Failed to list balance summaries", "error", err)
		return nil, fmt.Errorf("failed to retrieve balance summaries: %w", err)
	}

	logger.Info("Balance summaries listed", "count", len(rows))
	return &dto.BalanceSummaryResponse{Rows: rows, NextToken: nextToken}, nil
}
