package services

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vetdesk/accounts/internal/core/domain"
)

// BalanceCalculator computes customer balances from act slices. All methods
// are pure: they never touch the repository, so the same math serves both the
// incremental fast path and the definitive-balance oracle.
type BalanceCalculator struct{}

// Balance sums (total - allocated) signed by polarity over the acts currently
// carrying a balance participation. Only posted acts contribute; drafts carry
// a participation but count zero until posted.
func (BalanceCalculator) Balance(acts []domain.FinancialAct) decimal.Decimal {
	sum := decimal.Zero
	for i := range acts {
		a := &acts[i]
		if !a.BalanceParticipation || !a.IsPosted() || a.Total.IsZero() {
			continue
		}
		sum = sum.Add(a.SignedRemaining())
	}
	return sum
}

// DefinitiveBalance recomputes the balance from the complete act history,
// independent of participation and allocation bookkeeping: the sum of signed
// totals over every posted act.
func (BalanceCalculator) DefinitiveBalance(acts []domain.FinancialAct) decimal.Decimal {
	sum := decimal.Zero
	for i := range acts {
		a := &acts[i]
		if !a.IsPosted() {
			continue
		}
		sum = sum.Add(a.SignedTotal())
	}
	return sum
}

// OverdueBalance sums the unpaid portion of posted debit acts dated on or
// before cutoff. Only allocations against credits themselves dated on or
// before the cutoff reduce the figure: a credit dated after the cutoff never
// suppresses an overdue debit dated before it, even though it reduces the
// current balance.
func (BalanceCalculator) OverdueBalance(acts []domain.FinancialAct, allocations []domain.Allocation, cutoff time.Time) decimal.Decimal {
	starts := make(map[string]time.Time, len(acts))
	overdueDebits := make(map[string]struct{})

	sum := decimal.Zero
	for i := range acts {
		a := &acts[i]
		starts[a.ActID] = a.StartTime
		if !a.IsPosted() || !a.IsDebit() || a.Total.IsZero() {
			continue
		}
		if !domain.IsAllocatableKind(a.Kind) {
			continue
		}
		if a.StartTime.After(cutoff) {
			continue
		}
		overdueDebits[a.ActID] = struct{}{}
		sum = sum.Add(a.Total)
	}
	if len(overdueDebits) == 0 {
		return decimal.Zero
	}

	for _, alloc := range allocations {
		if _, ok := overdueDebits[alloc.SourceID]; !ok {
			continue
		}
		creditStart, ok := starts[alloc.TargetID]
		if !ok || creditStart.After(cutoff) {
			continue
		}
		sum = sum.Sub(alloc.Amount)
	}
	if sum.IsNegative() {
		return decimal.Zero
	}
	return sum
}

// CreditBalance sums the credit-signed contributions of the balance: the
// unallocated portion of posted credit acts, negated. Zero or negative.
func (BalanceCalculator) CreditBalance(acts []domain.FinancialAct) decimal.Decimal {
	sum := decimal.Zero
	for i := range acts {
		a := &acts[i]
		if !a.BalanceParticipation || !a.IsPosted() || a.IsDebit() || a.Total.IsZero() {
			continue
		}
		sum = sum.Add(a.SignedRemaining())
	}
	return sum
}

// UnbilledAmount sums the signed totals of charge acts not yet posted:
// invoices and counter sales positive, credits negative. Cancelled acts are
// excluded.
func (BalanceCalculator) UnbilledAmount(acts []domain.FinancialAct) decimal.Decimal {
	sum := decimal.Zero
	for i := range acts {
		a := &acts[i]
		if !domain.IsChargeKind(a.Kind) {
			continue
		}
		switch a.Status {
		case domain.StatusInProgress, domain.StatusOnHold, domain.StatusCompleted:
			sum = sum.Add(a.SignedTotal())
		}
	}
	return sum
}
