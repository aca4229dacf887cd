package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vetdesk/accounts/internal/core/domain"
	"github.com/vetdesk/accounts/internal/dto"
)

// CustomerAccountReaderSvc defines the balance query operations.
type CustomerAccountReaderSvc interface {
	// Balance returns the customer's current balance from the acts carrying
	// a balance participation: debits positive, credits negative.
	Balance(ctx context.Context, customerID string) (decimal.Decimal, error)

	// RunningBalance returns the balance as it would be after applying
	// amount as a payment (isPayment) or refund, without persisting
	// anything. Pure arithmetic against the current balance.
	RunningBalance(ctx context.Context, customerID string, amount decimal.Decimal, isPayment bool) (decimal.Decimal, error)

	// DefinitiveBalance recomputes the balance from the complete posted act
	// history and verifies it against the incremental balance, failing with
	// an InvalidBalance rule error on mismatch.
	DefinitiveBalance(ctx context.Context, customerID string) (decimal.Decimal, error)

	// OverdueBalance returns the debit-only balance older than the
	// payment-terms cutoff derived from date.
	OverdueBalance(ctx context.Context, customerID string, date time.Time) (decimal.Decimal, error)

	// OverdueBalanceAsOf returns the debit-only balance of acts dated on or
	// before overdueDate, evaluated at statementDate. Acts dated after
	// statementDate never count.
	OverdueBalanceAsOf(ctx context.Context, customerID string, statementDate, overdueDate time.Time) (decimal.Decimal, error)

	// CreditBalance returns the credit-signed portion of the balance.
	CreditBalance(ctx context.Context, customerID string) (decimal.Decimal, error)

	// UnbilledAmount returns the total of charge acts not yet posted.
	UnbilledAmount(ctx context.Context, customerID string) (decimal.Decimal, error)

	// HasAccountActs reports whether the customer has any account acts.
	HasAccountActs(ctx context.Context, customerID string) (bool, error)

	// Invoice returns the customer's most relevant open invoice: the most
	// recent IN_PROGRESS one, falling back to COMPLETED. Never POSTED or
	// ON_HOLD.
	Invoice(ctx context.Context, customerID string) (*domain.FinancialAct, error)

	// CreditAct is Invoice for credit acts.
	CreditAct(ctx context.Context, customerID string) (*domain.FinancialAct, error)

	// IsReversed reports whether the act has an outgoing reversal link.
	IsReversed(ctx context.Context, actID string) (bool, error)

	// IsReversal reports whether the act has an incoming reversal link.
	IsReversal(ctx context.Context, actID string) (bool, error)

	// ActHistory returns one page of the customer's act history, oldest
	// first, with an opaque token for the next page. The token is empty on
	// the last page.
	ActHistory(ctx context.Context, customerID, nextToken string, limit int) ([]domain.FinancialAct, string, error)
}

// CustomerAccountWriterSvc defines the balance mutating operations. Each call
// runs inside one repository transaction; callers must serialize mutations
// per customer.
type CustomerAccountWriterSvc interface {
	// SaveAct validates, persists and posts a new account act into the
	// customer's balance.
	SaveAct(ctx context.Context, req dto.SaveActRequest, userID string) (*domain.FinancialAct, error)

	// OnActSaved is the save trigger: it maintains the act's balance
	// participation, enforces the initial balance rule and runs allocation.
	// Invoked after the act row is written, inside the same transaction.
	OnActSaved(ctx context.Context, act *domain.FinancialAct) error

	// Reverse creates the compensating act for a posted, not yet reversed
	// act and links it to the original.
	Reverse(ctx context.Context, actID string, req dto.ReverseActRequest) (*domain.FinancialAct, error)

	// SetHidden toggles the hidden flag of an act. Hidden acts still count
	// toward the balance.
	SetHidden(ctx context.Context, actID string, hidden bool, userID string) error

	// SetPrinted toggles the printed flag of an act.
	SetPrinted(ctx context.Context, actID string, printed bool, userID string) error
}

// CustomerAccountSvcFacade combines the account reader and writer interfaces.
type CustomerAccountSvcFacade interface {
	CustomerAccountReaderSvc
	CustomerAccountWriterSvc
}

// BalanceGeneratorSvcFacade rebuilds a customer's balance state from the
// complete act history. Generate is idempotent but not atomic across calls;
// it must not run concurrently with another mutation for the same customer.
type BalanceGeneratorSvcFacade interface {
	// Generate clears and recomputes allocations and participations for the
	// customer, persists the result and returns the balance.
	Generate(ctx context.Context, customerID string) (decimal.Decimal, error)

	// Preview computes what Generate would produce without persisting.
	Preview(ctx context.Context, customerID string) (*dto.RebuildPreview, error)

	// VerifyAllocations checks that every act's allocated amount equals the
	// sum of the allocation relationships touching it, failing with an
	// InvalidBalance rule error on the first mismatch.
	VerifyAllocations(ctx context.Context, customerID string) error
}

// BalanceSummarySvcFacade serves the paged multi-customer balance listing.
type BalanceSummarySvcFacade interface {
	ListBalanceSummaries(ctx context.Context, params dto.BalanceSummaryParams) (*dto.BalanceSummaryResponse, error)
}
