package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vetdesk/accounts/internal/apperrors"
	"github.com/vetdesk/accounts/internal/core/domain"
	portsrepo "github.com/vetdesk/accounts/internal/core/ports/repositories"
	"github.com/vetdesk/accounts/internal/dto"
	"github.com/vetdesk/accounts/internal/platform/logging"
)

// Reverse creates the compensating act for a posted act and links the two.
// The original is never edited: its allocations stay exactly as they were and
// only the reversal contributes a fresh balancing entry, which then takes
// part in ordinary allocation like any newly saved act.
func (s *customerAccountService) Reverse(ctx context.Context, actID string, req dto.ReverseActRequest) (*domain.FinancialAct, error) {
	logger := logging.FromContext(ctx)

	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	original, err := s.actRepo.FindActByID(ctx, actID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch act %s: %w", actID, err)
	}
	if !original.IsPosted() {
		return nil, fmt.Errorf("%w: %s status is %s", apperrors.ErrConflict, ErrNotPosted, original.Status)
	}

	reversalKind, ok := domain.ReversalKind(original.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotReversible, original.Kind)
	}

	// One reversal per act.
	if _, err := s.actRepo.FindReversalBySource(ctx, actID); err == nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrConflict, ErrAlreadyReversed)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check reversal state of act %s: %w", actID, err)
	}

	isSecondGeneration := false
	if _, err := s.actRepo.FindReversalByTarget(ctx, actID); err == nil {
		isSecondGeneration = true
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check reversal state of act %s: %w", actID, err)
	}

	// Hiding a reversal-of-a-reversal would make statements fail to
	// reconcile, so the request is silently dropped for the second
	// generation onwards.
	hide := req.Hide
	if isSecondGeneration {
		hide = false
	}

	reference := req.Reference
	if reference == "" {
		reference = original.ActID
	}

	now := time.Now().UTC()
	reversal := &domain.FinancialAct{
		ActID:      uuid.NewString(),
		CustomerID: original.CustomerID,
		Kind:       reversalKind,
		Status:     domain.StatusPosted,
		StartTime:  req.StartTime,
		Total:      original.Total,
		Allocated:  decimal.Zero,
		Hidden:     hide,
		Notes:      req.Notes,
		Reference:  reference,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     req.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: req.UserID,
		},
	}

	switch {
	case domain.IsChargeKind(original.Kind):
		reversal.Items = reverseChargeItems(original, reversal.ActID)
	case domain.IsPaymentLikeKind(original.Kind):
		reversal.Items = reverseTenderItems(original, reversal.ActID)
		reversal.TillID = original.TillID
	}

	// The till and stock propagation runs inside the same transaction
	// boundary as the reversal writes: a collaborator failure rolls back
	// the act, the link and the allocation instead of committing a
	// reversal whose side effects never happened.
	err = s.actRepo.WithTx(ctx, func(repo portsrepo.ActRepositoryFacade) error {
		if domain.IsPaymentLikeKind(reversal.Kind) {
			tillBalanceID, err := s.reversalTillBalance(ctx, original, req.TillBalanceID)
			if err != nil {
				return err
			}
			reversal.TillBalanceID = tillBalanceID
		}
		if err := repo.SaveAct(ctx, reversal); err != nil {
			return fmt.Errorf("failed to save reversal act: %w", err)
		}
		link := domain.Reversal{
			SourceID:  original.ActID,
			TargetID:  reversal.ActID,
			Notes:     req.Notes,
			Reference: reference,
			CreatedAt: now,
			CreatedBy: req.UserID,
		}
		if err := repo.SaveReversal(ctx, link); err != nil {
			return fmt.Errorf("failed to link reversal: %w", err)
		}
		if hide && !original.Hidden {
			if err := repo.UpdateActFlags(ctx, original.ActID, true, original.Printed, req.UserID, now); err != nil {
				return fmt.Errorf("failed to hide original act: %w", err)
			}
		}
		if err := s.onActSaved(ctx, repo, reversal); err != nil {
			return err
		}
		return s.applyReversalSideEffects(ctx, original, reversal)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Act reversed",
		slog.String("act_id", original.ActID),
		slog.String("reversal_id", reversal.ActID),
		slog.String("kind", string(original.Kind)),
		slog.String("total", original.Total.String()),
		slog.Bool("hidden", hide),
	)
	return reversal, nil
}

// reverseChargeItems builds one reversal item per original charge item with
// the same totals and quantities. Clinical history links (medication,
// investigation, document, reminder) are deliberately not copied: the
// reversal negates money and stock, not patient records.
func reverseChargeItems(original *domain.FinancialAct, reversalID string) []domain.ActItem {
	items := make([]domain.ActItem, 0, len(original.Items))
	for _, item := range original.Items {
		items = append(items, domain.ActItem{
			ItemID:    uuid.NewString(),
			ActID:     reversalID,
			Total:     item.Total,
			ProductID: item.ProductID,
			PatientID: item.PatientID,
			Quantity:  item.Quantity,
		})
	}
	return items
}

// reverseTenderItems builds one reversal item per original tender, matching
// the payment method. Cash tenders mirror the original's rounded amount but
// never its tendered/change figures: the refund record does not retain
// tender details, so tendered defaults to the rounded amount and change to
// zero.
func reverseTenderItems(original *domain.FinancialAct, reversalID string) []domain.ActItem {
	items := make([]domain.ActItem, 0, len(original.Items))
	for _, item := range original.Items {
		reversed := domain.ActItem{
			ItemID: uuid.NewString(),
			ActID:  reversalID,
			Total:  item.Total,
			Method: item.Method,
		}
		if item.Method == domain.MethodCash {
			reversed.RoundedAmount = item.RoundedAmount
			reversed.Tendered = item.RoundedAmount
			reversed.Change = decimal.Zero
		}
		items = append(items, reversed)
	}
	return items
}

// reversalTillBalance resolves the till balance a payment/refund reversal
// attaches to: the explicitly requested one, else the till's current
// uncleared balance. Attaching to the original's balance makes that balance
// converge toward zero instead of opening a fresh floating one.
func (s *customerAccountService) reversalTillBalance(ctx context.Context, original *domain.FinancialAct, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	if original.TillID == "" {
		return "", nil
	}
	balance, err := s.tillSvc.UnclearedBalance(ctx, original.TillID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve uncleared balance for till %s: %w", original.TillID, err)
	}
	return balance.TillBalanceID, nil
}

// applyReversalSideEffects propagates the reversal to the till and stock
// collaborators.
func (s *customerAccountService) applyReversalSideEffects(ctx context.Context, original, reversal *domain.FinancialAct) error {
	if err := s.applyTillMovement(ctx, reversal); err != nil {
		return err
	}

	if domain.IsChargeKind(original.Kind) {
		// Invert the stock movement of the original charge: a debit charge
		// consumed stock, so its reversal returns it; a credit charge did
		// the opposite.
		location, err := s.stockLocationFor(ctx, original.CustomerID)
		if err != nil {
			return err
		}
		for _, item := range original.Items {
			if item.ProductID == "" || item.Quantity.IsZero() {
				continue
			}
			delta := item.Quantity
			if !original.IsDebit() {
				delta = delta.Neg()
			}
			if err := s.stockSvc.Adjust(ctx, item.ProductID, location, delta); err != nil {
				return fmt.Errorf("failed to adjust stock for product %s: %w", item.ProductID, err)
			}
		}
	}
	return nil
}

// stockLocationFor resolves the stock location of a customer's charges: the
// customer's practice location.
func (s *customerAccountService) stockLocationFor(ctx context.Context, customerID string) (string, error) {
	customer, err := s.customerRepo.FindCustomerByID(ctx, customerID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch customer %s: %w", customerID, err)
	}
	return customer.LocationID, nil
}
