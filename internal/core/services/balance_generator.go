package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vetdesk/accounts/internal/apperrors"
	"github.com/vetdesk/accounts/internal/core/domain"
	portsrepo "github.com/vetdesk/accounts/internal/core/ports/repositories"
	portssvc "github.com/vetdesk/accounts/internal/core/ports/services"
	"github.com/vetdesk/accounts/internal/dto"
	"github.com/vetdesk/accounts/internal/platform/logging"
)

// balanceGeneratorService rebuilds a customer's balance state from the
// complete act history: the repair path for the denormalized allocation and
// participation bookkeeping.
type balanceGeneratorService struct {
	actRepo portsrepo.ActRepositoryWithTx
	calc    BalanceCalculator
}

// NewBalanceGeneratorService creates the balance rebuild service.
func NewBalanceGeneratorService(actRepo portsrepo.ActRepositoryWithTx) portssvc.BalanceGeneratorSvcFacade {
	return &balanceGeneratorService{actRepo: actRepo}
}

var _ portssvc.BalanceGeneratorSvcFacade = (*balanceGeneratorService)(nil)

// Generate clears and recomputes every allocation relationship and balance
// participation for the customer, persists the result and returns the
// balance. Running it twice over an unchanged act set yields the same final
// state; it is not safe to run concurrently with another mutation for the
// same customer.
func (s *balanceGeneratorService) Generate(ctx context.Context, customerID string) (decimal.Decimal, error) {
	logger := logging.FromContext(ctx)

	balance := decimal.Zero
	err := s.actRepo.WithTx(ctx, func(repo portsrepo.ActRepositoryFacade) error {
		acts, err := repo.FindActsByCustomer(ctx, customerID)
		if err != nil {
			return fmt.Errorf("failed to fetch acts for customer %s: %w", customerID, err)
		}

		allocations := rebuildState(acts)

		if err := repo.DeleteAllocationsByCustomer(ctx, customerID); err != nil {
			return fmt.Errorf("failed to clear allocations for customer %s: %w", customerID, err)
		}
		now := time.Now().UTC()
		for i := range acts {
			acts[i].LastUpdatedAt = now
		}
		if err := repo.UpdateActs(ctx, acts); err != nil {
			return fmt.Errorf("failed to update acts for customer %s: %w", customerID, err)
		}
		if len(allocations) > 0 {
			if err := repo.UpsertAllocations(ctx, allocations); err != nil {
				return fmt.Errorf("failed to save allocations for customer %s: %w", customerID, err)
			}
		}

		balance = s.calc.Balance(acts)
		logger.Info("Customer balance rebuilt",
			slog.String("customer_id", customerID),
			slog.Int("acts", len(acts)),
			slog.Int("allocations", len(allocations)),
			slog.String("balance", balance.String()),
		)
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// Preview computes what Generate would produce without persisting anything.
func (s *balanceGeneratorService) Preview(ctx context.Context, customerID string) (*dto.RebuildPreview, error) {
	acts, err := s.actRepo.FindActsByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch acts for customer %s: %w", customerID, err)
	}
	existing, err := s.actRepo.FindAllocationsByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch allocations for customer %s: %w", customerID, err)
	}

	current := s.calc.Balance(acts)

	rebuilt := make([]domain.FinancialAct, len(acts))
	copy(rebuilt, acts)
	allocations := rebuildState(rebuilt)

	participants := 0
	for i := range rebuilt {
		if rebuilt[i].BalanceParticipation {
			participants++
		}
	}

	preview := &dto.RebuildPreview{
		CustomerID:      customerID,
		CurrentBalance:  current,
		RebuiltBalance:  s.calc.Balance(rebuilt),
		AllocationCount: len(allocations),
		ParticipantActs: participants,
	}
	preview.InSync = preview.CurrentBalance.Equal(preview.RebuiltBalance) &&
		sameAllocations(existing, allocations) &&
		sameParticipations(acts, rebuilt)
	return preview, nil
}

// VerifyAllocations checks the allocated-amount consistency invariant: the
// sum of allocation relationships touching an act must equal the act's
// allocated field. The first mismatch fails with an InvalidBalance rule
// error naming the act.
func (s *balanceGeneratorService) VerifyAllocations(ctx context.Context, customerID string) error {
	acts, err := s.actRepo.FindActsByCustomer(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to fetch acts for customer %s: %w", customerID, err)
	}
	for i := range acts {
		act := &acts[i]
		allocations, err := s.actRepo.FindAllocationsForAct(ctx, act.ActID)
		if err != nil {
			return fmt.Errorf("failed to fetch allocations for act %s: %w", act.ActID, err)
		}
		sum := decimal.Zero
		for _, alloc := range allocations {
			sum = sum.Add(alloc.Amount)
		}
		if !sum.Equal(act.Allocated) {
			return apperrors.NewRuleError(apperrors.InvalidBalance, act.ActID, act.Allocated, sum)
		}
	}
	return nil
}

func sameAllocations(a, b []domain.Allocation) bool {
	if len(a) != len(b) {
		return false
	}
	amounts := make(map[allocPair]decimal.Decimal, len(a))
	for _, alloc := range a {
		amounts[allocPair{alloc.SourceID, alloc.TargetID}] = alloc.Amount
	}
	for _, alloc := range b {
		amount, ok := amounts[allocPair{alloc.SourceID, alloc.TargetID}]
		if !ok || !amount.Equal(alloc.Amount) {
			return false
		}
	}
	return true
}

func sameParticipations(a, b []domain.FinancialAct) bool {
	if len(a) != len(b) {
		return false
	}
	flags := make(map[string]bool, len(a))
	for i := range a {
		flags[a[i].ActID] = a[i].BalanceParticipation
	}
	for i := range b {
		if flags[b[i].ActID] != b[i].BalanceParticipation {
			return false
		}
	}
	return true
}
