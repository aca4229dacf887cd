package services

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/vetdesk/accounts/internal/core/domain"
)

// allocPair keys an allocation relationship: debit act -> credit act.
type allocPair struct {
	source string // debit act
	target string // credit act
}

// allocate matches open posted debits against open posted credits, oldest
// first, mutating the acts' Allocated and BalanceParticipation fields in
// place. open must be ordered by (start time, sequence) ascending. existing
// holds the allocation amounts already recorded between the acts.
//
// It returns the acts whose allocation state changed and the changed
// allocation relationships with their new absolute amounts, both in
// deterministic order.
func allocate(open []*domain.FinancialAct, existing []domain.Allocation) ([]*domain.FinancialAct, []domain.Allocation) {
	amounts := make(map[allocPair]decimal.Decimal, len(existing))
	for _, a := range existing {
		amounts[allocPair{a.SourceID, a.TargetID}] = a.Amount
	}

	var debits, credits []*domain.FinancialAct
	for _, a := range open {
		if !a.IsPosted() || !domain.IsAllocatableKind(a.Kind) {
			continue
		}
		if a.Total.IsZero() || a.FullyAllocated() {
			continue
		}
		if a.IsDebit() {
			debits = append(debits, a)
		} else {
			credits = append(credits, a)
		}
	}

	changedActs := make(map[string]*domain.FinancialAct)
	changedPairs := make(map[allocPair]decimal.Decimal)

	ci := 0
	for _, debit := range debits {
		for ci < len(credits) && !debit.FullyAllocated() {
			credit := credits[ci]
			if credit.FullyAllocated() {
				ci++
				continue
			}

			matched := decimal.Min(debit.Remaining(), credit.Remaining())
			debit.Allocated = debit.Allocated.Add(matched)
			credit.Allocated = credit.Allocated.Add(matched)

			pair := allocPair{debit.ActID, credit.ActID}
			total := amounts[pair].Add(matched)
			amounts[pair] = total
			changedPairs[pair] = total
			changedActs[debit.ActID] = debit
			changedActs[credit.ActID] = credit

			// A fully allocated act leaves the open balance set.
			if debit.FullyAllocated() {
				debit.BalanceParticipation = false
			}
			if credit.FullyAllocated() {
				credit.BalanceParticipation = false
				ci++
			}
		}
		if ci >= len(credits) {
			break
		}
	}

	acts := make([]*domain.FinancialAct, 0, len(changedActs))
	for _, a := range changedActs {
		acts = append(acts, a)
	}
	sort.Slice(acts, func(i, j int) bool { return acts[i].Sequence < acts[j].Sequence })

	allocations := make([]domain.Allocation, 0, len(changedPairs))
	for pair, amount := range changedPairs {
		allocations = append(allocations, domain.Allocation{SourceID: pair.source, TargetID: pair.target, Amount: amount})
	}
	sort.Slice(allocations, func(i, j int) bool {
		if allocations[i].SourceID != allocations[j].SourceID {
			return allocations[i].SourceID < allocations[j].SourceID
		}
		return allocations[i].TargetID < allocations[j].TargetID
	})

	return acts, allocations
}

// participates reports whether an act should carry a balance participation
// given zero allocation: any non-cancelled act with a non-zero total.
func participates(a *domain.FinancialAct) bool {
	if a.Total.IsZero() || a.Status == domain.StatusCancelled {
		return false
	}
	return true
}

// rebuildState recomputes allocation state for a customer's complete act
// history from scratch: allocated amounts are zeroed, participations rederived
// and the oldest-first matching re-run over the posted acts. acts must be
// ordered by (start time, sequence) ascending; they are mutated in place.
// Returns the full allocation set.
func rebuildState(acts []domain.FinancialAct) []domain.Allocation {
	open := make([]*domain.FinancialAct, 0, len(acts))
	for i := range acts {
		a := &acts[i]
		a.Allocated = decimal.Zero
		a.BalanceParticipation = participates(a)
		if a.BalanceParticipation {
			open = append(open, a)
		}
	}
	_, allocations := allocate(open, nil)
	return allocations
}
