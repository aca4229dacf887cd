package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vetdesk/accounts/internal/apperrors"
	"github.com/vetdesk/accounts/internal/core/domain"
	portsrepo "github.com/vetdesk/accounts/internal/core/ports/repositories"
	portssvc "github.com/vetdesk/accounts/internal/core/ports/services"
)

// tillService manages till balances for payment and refund acts.
type tillService struct {
	tillRepo portsrepo.TillRepositoryFacade
}

// NewTillService creates the till collaborator service.
func NewTillService(tillRepo portsrepo.TillRepositoryFacade) portssvc.TillSvcFacade {
	return &tillService{tillRepo: tillRepo}
}

var _ portssvc.TillSvcFacade = (*tillService)(nil)

// UnclearedBalance returns the till's open uncleared balance, creating a
// fresh zero balance when none exists.
func (s *tillService) UnclearedBalance(ctx context.Context, tillID string) (*domain.TillBalance, error) {
	balance, err := s.tillRepo.FindUnclearedTillBalance(ctx, tillID)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to fetch uncleared balance for till %s: %w", tillID, err)
	}

	now := time.Now().UTC()
	fresh := domain.TillBalance{
		TillBalanceID: uuid.NewString(),
		TillID:        tillID,
		Status:        domain.TillUncleared,
		StartTime:     now,
		Total:         decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			LastUpdatedAt: now,
		},
	}
	if err := s.tillRepo.SaveTillBalance(ctx, fresh); err != nil {
		return nil, fmt.Errorf("failed to create uncleared balance for till %s: %w", tillID, err)
	}
	return &fresh, nil
}

// AddToBalance adds a signed amount to a till balance's running total.
func (s *tillService) AddToBalance(ctx context.Context, tillBalanceID string, amount decimal.Decimal) error {
	if amount.IsZero() {
		return nil
	}
	return s.tillRepo.AddToTillBalance(ctx, tillBalanceID, amount)
}
