package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vetdesk/accounts/internal/apperrors"
	"github.com/vetdesk/accounts/internal/core/domain"
	portsrepo "github.com/vetdesk/accounts/internal/core/ports/repositories"
	portssvc "github.com/vetdesk/accounts/internal/core/ports/services"
	"github.com/vetdesk/accounts/internal/dto"
	"github.com/vetdesk/accounts/internal/platform/logging"
)

var (
	ErrNegativeTotal   = errors.New("act total must not be negative")
	ErrUnknownActKind  = errors.New("unknown act kind")
	ErrNotPosted       = errors.New("act must be posted to be reversed")
	ErrAlreadyReversed = errors.New("act has already been reversed")
	ErrNotReversible   = errors.New("act kind cannot be reversed")
)

// customerAccountService is the customer account rules facade: the balance
// query surface, the save trigger and the reversal state machine.
type customerAccountService struct {
	actRepo      portsrepo.ActRepositoryWithTx
	customerRepo portsrepo.CustomerRepositoryFacade
	tillSvc      portssvc.TillSvcFacade
	stockSvc     portssvc.StockSvcFacade
	calc         BalanceCalculator
	validate     *validator.Validate
}

// NewCustomerAccountService creates the customer account rules facade.
func NewCustomerAccountService(actRepo portsrepo.ActRepositoryWithTx, customerRepo portsrepo.CustomerRepositoryFacade, tillSvc portssvc.TillSvcFacade, stockSvc portssvc.StockSvcFacade) portssvc.CustomerAccountSvcFacade {
	return &customerAccountService{
		actRepo:      actRepo,
		customerRepo: customerRepo,
		tillSvc:      tillSvc,
		stockSvc:     stockSvc,
		validate:     validator.New(),
	}
}

var _ portssvc.CustomerAccountSvcFacade = (*customerAccountService)(nil)

// SaveAct validates, persists and posts a new account act.
func (s *customerAccountService) SaveAct(ctx context.Context, req dto.SaveActRequest, userID string) (*domain.FinancialAct, error) {
	logger := logging.FromContext(ctx)

	if req.CustomerID == "" {
		return nil, apperrors.NewRuleError(apperrors.MissingCustomer, req.Kind)
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if !domain.IsValidKind(req.Kind) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownActKind, req.Kind)
	}
	if req.Total.IsNegative() {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrNegativeTotal)
	}
	for _, item := range req.Items {
		if item.Total.IsNegative() {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrNegativeTotal)
		}
	}

	if _, err := s.customerRepo.FindCustomerByID(ctx, req.CustomerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: customer %s", apperrors.ErrNotFound, req.CustomerID)
		}
		return nil, fmt.Errorf("failed to fetch customer %s: %w", req.CustomerID, err)
	}

	now := time.Now().UTC()
	act := &domain.FinancialAct{
		ActID:      uuid.NewString(),
		CustomerID: req.CustomerID,
		Kind:       req.Kind,
		Status:     req.Status,
		StartTime:  req.StartTime,
		Total:      req.Total,
		Allocated:  decimal.Zero,
		Notes:      req.Notes,
		TillID:     req.TillID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	for _, itemReq := range req.Items {
		act.Items = append(act.Items, domain.ActItem{
			ItemID:          uuid.NewString(),
			ActID:           act.ActID,
			Total:           itemReq.Total,
			ProductID:       itemReq.ProductID,
			PatientID:       itemReq.PatientID,
			Quantity:        itemReq.Quantity,
			Method:          itemReq.Method,
			RoundedAmount:   itemReq.RoundedAmount,
			Tendered:        itemReq.Tendered,
			Change:          itemReq.Change,
			ClinicalLinkIDs: itemReq.ClinicalLinkIDs,
		})
	}

	err := s.actRepo.WithTx(ctx, func(repo portsrepo.ActRepositoryFacade) error {
		if domain.IsPaymentLikeKind(act.Kind) && act.TillID != "" {
			balance, err := s.tillSvc.UnclearedBalance(ctx, act.TillID)
			if err != nil {
				return fmt.Errorf("failed to resolve uncleared balance for till %s: %w", act.TillID, err)
			}
			act.TillBalanceID = balance.TillBalanceID
		}
		if err := repo.SaveAct(ctx, act); err != nil {
			return fmt.Errorf("failed to save act: %w", err)
		}
		if err := s.onActSaved(ctx, repo, act); err != nil {
			return err
		}
		return s.applyTillMovement(ctx, act)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Act saved",
		slog.String("act_id", act.ActID),
		slog.String("customer_id", act.CustomerID),
		slog.String("kind", string(act.Kind)),
		slog.String("total", act.Total.String()),
	)
	return act, nil
}

// applyTillMovement propagates a posted payment-like act to its till
// balance: payments add to the till, refunds draw from it.
func (s *customerAccountService) applyTillMovement(ctx context.Context, act *domain.FinancialAct) error {
	if !domain.IsPaymentLikeKind(act.Kind) || act.TillBalanceID == "" || !act.IsPosted() {
		return nil
	}
	amount := act.Total
	if act.Kind == domain.KindRefund {
		amount = amount.Neg()
	}
	if err := s.tillSvc.AddToBalance(ctx, act.TillBalanceID, amount); err != nil {
		return fmt.Errorf("failed to update till balance %s: %w", act.TillBalanceID, err)
	}
	return nil
}

// OnActSaved is the save trigger for acts persisted outside SaveAct. It runs
// inside its own repository transaction.
func (s *customerAccountService) OnActSaved(ctx context.Context, act *domain.FinancialAct) error {
	return s.actRepo.WithTx(ctx, func(repo portsrepo.ActRepositoryFacade) error {
		return s.onActSaved(ctx, repo, act)
	})
}

// onActSaved maintains the act's balance participation, enforces the initial
// balance rule and runs oldest-first allocation for the customer.
func (s *customerAccountService) onActSaved(ctx context.Context, repo portsrepo.ActRepositoryFacade, act *domain.FinancialAct) error {
	if act.CustomerID == "" {
		return apperrors.NewRuleError(apperrors.MissingCustomer, act.ActID)
	}
	if act.Total.IsNegative() {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrNegativeTotal)
	}

	if act.Kind == domain.KindInitialBalance {
		acts, err := repo.FindActsByCustomer(ctx, act.CustomerID)
		if err != nil {
			return fmt.Errorf("failed to fetch acts for customer %s: %w", act.CustomerID, err)
		}
		for i := range acts {
			if acts[i].ActID != act.ActID {
				return apperrors.NewRuleError(apperrors.CannotCreateInitialBalance, act.CustomerID)
			}
		}
	}

	// Participation is derived state, recomputed on every save. A zero total
	// removes it at any status.
	act.BalanceParticipation = participates(act) && !act.FullyAllocated()
	if err := repo.UpdateActs(ctx, []domain.FinancialAct{*act}); err != nil {
		return fmt.Errorf("failed to update act participation: %w", err)
	}

	return s.allocateCustomer(ctx, repo, act.CustomerID)
}

// allocateCustomer runs the oldest-first matching over the customer's open
// balance set and persists the outcome.
func (s *customerAccountService) allocateCustomer(ctx context.Context, repo portsrepo.ActRepositoryFacade, customerID string) error {
	open, err := repo.FindParticipatingActs(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to fetch open acts for customer %s: %w", customerID, err)
	}
	existing, err := repo.FindAllocationsByCustomer(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to fetch allocations for customer %s: %w", customerID, err)
	}

	refs := make([]*domain.FinancialAct, len(open))
	for i := range open {
		refs[i] = &open[i]
	}
	changedActs, changedAllocations := allocate(refs, existing)
	if len(changedActs) == 0 {
		return nil
	}

	updates := make([]domain.FinancialAct, len(changedActs))
	for i, a := range changedActs {
		updates[i] = *a
	}
	if err := repo.UpdateActs(ctx, updates); err != nil {
		return fmt.Errorf("failed to update allocated acts: %w", err)
	}
	if err := repo.UpsertAllocations(ctx, changedAllocations); err != nil {
		return fmt.Errorf("failed to save allocations: %w", err)
	}
	return nil
}

// Balance returns the customer's current balance.
func (s *customerAccountService) Balance(ctx context.Context, customerID string) (decimal.Decimal, error) {
	open, err := s.actRepo.FindParticipatingActs(ctx, customerID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch open acts for customer %s: %w", customerID, err)
	}
	return s.calc.Balance(open), nil
}

// RunningBalance applies amount against the current balance as a payment or
// refund without persisting anything.
func (s *customerAccountService) RunningBalance(ctx context.Context, customerID string, amount decimal.Decimal, isPayment bool) (decimal.Decimal, error) {
	balance, err := s.Balance(ctx, customerID)
	if err != nil {
		return decimal.Zero, err
	}
	if isPayment {
		return balance.Sub(amount), nil
	}
	return balance.Add(amount), nil
}

// DefinitiveBalance recomputes the balance from the full posted history and
// asserts it matches the incrementally maintained one.
func (s *customerAccountService) DefinitiveBalance(ctx context.Context, customerID string) (decimal.Decimal, error) {
	acts, err := s.actRepo.FindActsByCustomer(ctx, customerID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch acts for customer %s: %w", customerID, err)
	}
	definitive := s.calc.DefinitiveBalance(acts)
	incremental := s.calc.Balance(acts)
	if !definitive.Equal(incremental) {
		return decimal.Zero, apperrors.NewRuleError(apperrors.InvalidBalance, customerID, definitive, incremental)
	}
	return definitive, nil
}

// OverdueBalance returns the debit-only balance older than the payment-terms
// cutoff for date. Customers without an account type classification are
// treated as due immediately.
func (s *customerAccountService) OverdueBalance(ctx context.Context, customerID string, date time.Time) (decimal.Decimal, error) {
	accountType, err := s.customerRepo.FindAccountTypeForCustomer(ctx, customerID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return decimal.Zero, fmt.Errorf("failed to fetch account type for customer %s: %w", customerID, err)
	}
	cutoff := domain.AccountType{}.OverdueCutoff(date)
	if accountType != nil {
		cutoff = accountType.OverdueCutoff(date)
	}
	return s.OverdueBalanceAsOf(ctx, customerID, date, cutoff)
}

// OverdueBalanceAsOf returns the debit-only balance of posted debit acts
// dated on or before overdueDate, evaluated at statementDate. Acts dated
// after statementDate are not part of the statement and never count; credits
// dated after overdueDate do not reduce the figure.
func (s *customerAccountService) OverdueBalanceAsOf(ctx context.Context, customerID string, statementDate, overdueDate time.Time) (decimal.Decimal, error) {
	acts, err := s.actRepo.FindActsByCustomer(ctx, customerID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch acts for customer %s: %w", customerID, err)
	}
	allocations, err := s.actRepo.FindAllocationsByCustomer(ctx, customerID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch allocations for customer %s: %w", customerID, err)
	}
	onStatement := make([]domain.FinancialAct, 0, len(acts))
	for i := range acts {
		if !acts[i].StartTime.After(statementDate) {
			onStatement = append(onStatement, acts[i])
		}
	}
	return s.calc.OverdueBalance(onStatement, allocations, overdueDate), nil
}

// CreditBalance returns the credit-signed portion of the balance.
func (s *customerAccountService) CreditBalance(ctx context.Context, customerID string) (decimal.Decimal, error) {
	open, err := s.actRepo.FindParticipatingActs(ctx, customerID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch open acts for customer %s: %w", customerID, err)
	}
	return s.calc.CreditBalance(open), nil
}

// UnbilledAmount returns the signed total of charge acts not yet posted.
func (s *customerAccountService) UnbilledAmount(ctx context.Context, customerID string) (decimal.Decimal, error) {
	acts, err := s.actRepo.FindActsByCustomer(ctx, customerID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch acts for customer %s: %w", customerID, err)
	}
	return s.calc.UnbilledAmount(acts), nil
}

// HasAccountActs reports whether the customer has any account acts.
func (s *customerAccountService) HasAccountActs(ctx context.Context, customerID string) (bool, error) {
	return s.actRepo.HasAccountActs(ctx, customerID)
}

// Invoice returns the customer's most relevant open invoice.
func (s *customerAccountService) Invoice(ctx context.Context, customerID string) (*domain.FinancialAct, error) {
	return s.latestOpenAct(ctx, customerID, domain.KindInvoice)
}

// CreditAct returns the customer's most relevant open credit.
func (s *customerAccountService) CreditAct(ctx context.Context, customerID string) (*domain.FinancialAct, error) {
	return s.latestOpenAct(ctx, customerID, domain.KindCredit)
}

// latestOpenAct prefers the most recent IN_PROGRESS act of the kind and falls
// back to COMPLETED. POSTED and ON_HOLD acts are never returned.
func (s *customerAccountService) latestOpenAct(ctx context.Context, customerID string, kind domain.ActKind) (*domain.FinancialAct, error) {
	act, err := s.actRepo.FindLatestAct(ctx, customerID, kind, domain.StatusInProgress)
	if err == nil {
		return act, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to fetch latest %s for customer %s: %w", kind, customerID, err)
	}
	act, err = s.actRepo.FindLatestAct(ctx, customerID, kind, domain.StatusCompleted)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch latest %s for customer %s: %w", kind, customerID, err)
	}
	return act, nil
}

const defaultHistoryPageSize = 25

// ActHistory returns one page of the customer's act history, oldest first.
func (s *customerAccountService) ActHistory(ctx context.Context, customerID, nextToken string, limit int) ([]domain.FinancialAct, string, error) {
	if limit <= 0 {
		limit = defaultHistoryPageSize
	}
	acts, token, err := s.actRepo.FindActPage(ctx, customerID, nextToken, limit)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch act history for customer %s: %w", customerID, err)
	}
	return acts, token, nil
}

// IsReversed reports whether the act has an outgoing reversal link.
func (s *customerAccountService) IsReversed(ctx context.Context, actID string) (bool, error) {
	_, err := s.actRepo.FindReversalBySource(ctx, actID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// IsReversal reports whether the act has an incoming reversal link.
func (s *customerAccountService) IsReversal(ctx context.Context, actID string) (bool, error) {
	_, err := s.actRepo.FindReversalByTarget(ctx, actID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SetHidden toggles the hidden flag, one of the two fields still editable on
// a posted act. Hidden acts keep counting toward the balance.
func (s *customerAccountService) SetHidden(ctx context.Context, actID string, hidden bool, userID string) error {
	act, err := s.actRepo.FindActByID(ctx, actID)
	if err != nil {
		return fmt.Errorf("failed to fetch act %s: %w", actID, err)
	}
	if act.Hidden == hidden {
		return nil
	}
	return s.actRepo.UpdateActFlags(ctx, actID, hidden, act.Printed, userID, time.Now().UTC())
}

// SetPrinted marks an act as printed on a customer statement. Like SetHidden
// it is a display-only edit and never touches balance totals.
func (s *customerAccountService) SetPrinted(ctx context.Context, actID string, printed bool, userID string) error {
	act, err := s.actRepo.FindActByID(ctx, actID)
	if err != nil {
		return fmt.Errorf("failed to fetch act %s: %w", actID, err)
	}
	if act.Printed == printed {
		return nil
	}
	return s.actRepo.UpdateActFlags(ctx, actID, act.Hidden, printed, userID, time.Now().UTC())
}
