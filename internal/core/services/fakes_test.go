package services_test

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vetdesk/accounts/internal/apperrors"
	"github.com/vetdesk/accounts/internal/core/domain"
	portsrepo "github.com/vetdesk/accounts/internal/core/ports/repositories"
	"github.com/vetdesk/accounts/internal/utils/pagination"
)

// fakeActRepo is an in-memory act store for exercising the account rules
// end to end: saves assign sequences, queries return copies in the same
// (start time, sequence) order the database would.
type fakeActRepo struct {
	acts        map[string]domain.FinancialAct
	allocations map[[2]string]decimal.Decimal
	reversals   map[string]domain.Reversal // keyed by source act
	nextSeq     int64
}

func newFakeActRepo() *fakeActRepo {
	return &fakeActRepo{
		acts:        make(map[string]domain.FinancialAct),
		allocations: make(map[[2]string]decimal.Decimal),
		reversals:   make(map[string]domain.Reversal),
	}
}

var _ portsrepo.ActRepositoryWithTx = (*fakeActRepo)(nil)

// WithTx mirrors a database transaction: when fn fails, the store reverts
// to its pre-call state.
func (f *fakeActRepo) WithTx(ctx context.Context, fn func(repo portsrepo.ActRepositoryFacade) error) error {
	acts := make(map[string]domain.FinancialAct, len(f.acts))
	for id, act := range f.acts {
		acts[id] = act
	}
	allocations := make(map[[2]string]decimal.Decimal, len(f.allocations))
	for pair, amount := range f.allocations {
		allocations[pair] = amount
	}
	reversals := make(map[string]domain.Reversal, len(f.reversals))
	for id, reversal := range f.reversals {
		reversals[id] = reversal
	}
	seq := f.nextSeq

	if err := fn(f); err != nil {
		f.acts, f.allocations, f.reversals, f.nextSeq = acts, allocations, reversals, seq
		return err
	}
	return nil
}

func (f *fakeActRepo) SaveAct(ctx context.Context, act *domain.FinancialAct) error {
	if _, ok := f.acts[act.ActID]; ok {
		return apperrors.ErrDuplicate
	}
	f.nextSeq++
	act.Sequence = f.nextSeq
	f.acts[act.ActID] = *act
	return nil
}

func (f *fakeActRepo) UpdateActs(ctx context.Context, acts []domain.FinancialAct) error {
	for _, act := range acts {
		if _, ok := f.acts[act.ActID]; !ok {
			return apperrors.ErrNotFound
		}
		f.acts[act.ActID] = act
	}
	return nil
}

func (f *fakeActRepo) UpdateActFlags(ctx context.Context, actID string, hidden, printed bool, updatedBy string, updatedAt time.Time) error {
	act, ok := f.acts[actID]
	if !ok {
		return apperrors.ErrNotFound
	}
	act.Hidden = hidden
	act.Printed = printed
	act.LastUpdatedBy = updatedBy
	act.LastUpdatedAt = updatedAt
	f.acts[actID] = act
	return nil
}

func (f *fakeActRepo) FindActByID(ctx context.Context, actID string) (*domain.FinancialAct, error) {
	act, ok := f.acts[actID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &act, nil
}

func (f *fakeActRepo) findActs(customerID string, keep func(domain.FinancialAct) bool) []domain.FinancialAct {
	var acts []domain.FinancialAct
	for _, act := range f.acts {
		if act.CustomerID == customerID && keep(act) {
			acts = append(acts, act)
		}
	}
	sort.Slice(acts, func(i, j int) bool {
		if !acts[i].StartTime.Equal(acts[j].StartTime) {
			return acts[i].StartTime.Before(acts[j].StartTime)
		}
		return acts[i].Sequence < acts[j].Sequence
	})
	return acts
}

func (f *fakeActRepo) FindActsByCustomer(ctx context.Context, customerID string) ([]domain.FinancialAct, error) {
	return f.findActs(customerID, func(domain.FinancialAct) bool { return true }), nil
}

func (f *fakeActRepo) FindParticipatingActs(ctx context.Context, customerID string) ([]domain.FinancialAct, error) {
	return f.findActs(customerID, func(a domain.FinancialAct) bool { return a.BalanceParticipation }), nil
}

func (f *fakeActRepo) FindActPage(ctx context.Context, customerID, nextToken string, limit int) ([]domain.FinancialAct, string, error) {
	var afterTime time.Time
	var afterSeq int64
	if nextToken != "" {
		var err error
		afterTime, afterSeq, err = pagination.DecodeToken(nextToken)
		if err != nil {
			return nil, "", err
		}
	}
	acts := f.findActs(customerID, func(a domain.FinancialAct) bool {
		if nextToken == "" {
			return true
		}
		if a.StartTime.After(afterTime) {
			return true
		}
		return a.StartTime.Equal(afterTime) && a.Sequence > afterSeq
	})
	if len(acts) <= limit {
		return acts, "", nil
	}
	page := acts[:limit]
	last := page[len(page)-1]
	return page, pagination.EncodeToken(last.StartTime, last.Sequence), nil
}

func (f *fakeActRepo) HasAccountActs(ctx context.Context, customerID string) (bool, error) {
	for _, act := range f.acts {
		if act.CustomerID == customerID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeActRepo) FindLatestAct(ctx context.Context, customerID string, kind domain.ActKind, status domain.ActStatus) (*domain.FinancialAct, error) {
	matches := f.findActs(customerID, func(a domain.FinancialAct) bool {
		return a.Kind == kind && a.Status == status
	})
	if len(matches) == 0 {
		return nil, apperrors.ErrNotFound
	}
	latest := matches[len(matches)-1]
	return &latest, nil
}

func (f *fakeActRepo) allocationSlice(keep func(domain.Allocation) bool) []domain.Allocation {
	var allocations []domain.Allocation
	for pair, amount := range f.allocations {
		alloc := domain.Allocation{SourceID: pair[0], TargetID: pair[1], Amount: amount}
		if keep(alloc) {
			allocations = append(allocations, alloc)
		}
	}
	sort.Slice(allocations, func(i, j int) bool {
		if allocations[i].SourceID != allocations[j].SourceID {
			return allocations[i].SourceID < allocations[j].SourceID
		}
		return allocations[i].TargetID < allocations[j].TargetID
	})
	return allocations
}

func (f *fakeActRepo) FindAllocationsForAct(ctx context.Context, actID string) ([]domain.Allocation, error) {
	return f.allocationSlice(func(a domain.Allocation) bool {
		return a.SourceID == actID || a.TargetID == actID
	}), nil
}

func (f *fakeActRepo) FindAllocationsByCustomer(ctx context.Context, customerID string) ([]domain.Allocation, error) {
	return f.allocationSlice(func(a domain.Allocation) bool {
		return f.acts[a.SourceID].CustomerID == customerID
	}), nil
}

func (f *fakeActRepo) UpsertAllocations(ctx context.Context, allocations []domain.Allocation) error {
	for _, alloc := range allocations {
		f.allocations[[2]string{alloc.SourceID, alloc.TargetID}] = alloc.Amount
	}
	return nil
}

func (f *fakeActRepo) DeleteAllocationsByCustomer(ctx context.Context, customerID string) error {
	for pair := range f.allocations {
		if f.acts[pair[0]].CustomerID == customerID {
			delete(f.allocations, pair)
		}
	}
	return nil
}

func (f *fakeActRepo) FindReversalBySource(ctx context.Context, actID string) (*domain.Reversal, error) {
	reversal, ok := f.reversals[actID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &reversal, nil
}

func (f *fakeActRepo) FindReversalByTarget(ctx context.Context, actID string) (*domain.Reversal, error) {
	for _, reversal := range f.reversals {
		if reversal.TargetID == actID {
			r := reversal
			return &r, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeActRepo) SaveReversal(ctx context.Context, reversal domain.Reversal) error {
	if _, ok := f.reversals[reversal.SourceID]; ok {
		return apperrors.ErrDuplicate
	}
	f.reversals[reversal.SourceID] = reversal
	return nil
}

// fakeCustomerRepo is an in-memory customer store.
type fakeCustomerRepo struct {
	customers    map[string]domain.Customer
	accountTypes map[string]domain.AccountType
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{
		customers:    make(map[string]domain.Customer),
		accountTypes: make(map[string]domain.AccountType),
	}
}

var _ portsrepo.CustomerRepositoryFacade = (*fakeCustomerRepo)(nil)

func (f *fakeCustomerRepo) FindCustomerByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	customer, ok := f.customers[customerID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &customer, nil
}

func (f *fakeCustomerRepo) FindAccountTypeForCustomer(ctx context.Context, customerID string) (*domain.AccountType, error) {
	customer, ok := f.customers[customerID]
	if !ok || customer.AccountTypeID == "" {
		return nil, nil
	}
	accountType, ok := f.accountTypes[customer.AccountTypeID]
	if !ok {
		return nil, nil
	}
	return &accountType, nil
}

func (f *fakeCustomerRepo) SaveCustomer(ctx context.Context, customer domain.Customer) error {
	f.customers[customer.CustomerID] = customer
	return nil
}

func (f *fakeCustomerRepo) SaveAccountType(ctx context.Context, accountType domain.AccountType) error {
	f.accountTypes[accountType.AccountTypeID] = accountType
	return nil
}

// fakeTillRepo is an in-memory till balance store.
type fakeTillRepo struct {
	balances map[string]domain.TillBalance
}

func newFakeTillRepo() *fakeTillRepo {
	return &fakeTillRepo{balances: make(map[string]domain.TillBalance)}
}

var _ portsrepo.TillRepositoryFacade = (*fakeTillRepo)(nil)

func (f *fakeTillRepo) FindTillBalanceByID(ctx context.Context, tillBalanceID string) (*domain.TillBalance, error) {
	balance, ok := f.balances[tillBalanceID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &balance, nil
}

func (f *fakeTillRepo) FindUnclearedTillBalance(ctx context.Context, tillID string) (*domain.TillBalance, error) {
	for _, balance := range f.balances {
		if balance.TillID == tillID && balance.Status == domain.TillUncleared {
			b := balance
			return &b, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeTillRepo) SaveTillBalance(ctx context.Context, balance domain.TillBalance) error {
	f.balances[balance.TillBalanceID] = balance
	return nil
}

func (f *fakeTillRepo) AddToTillBalance(ctx context.Context, tillBalanceID string, amount decimal.Decimal) error {
	balance, ok := f.balances[tillBalanceID]
	if !ok {
		return apperrors.ErrNotFound
	}
	balance.Total = balance.Total.Add(amount)
	f.balances[tillBalanceID] = balance
	return nil
}

// fakeStockRepo is an in-memory stock level store. Setting adjustErr makes
// every adjustment fail, for exercising collaborator failure paths.
type fakeStockRepo struct {
	levels    map[[2]string]decimal.Decimal // (product, location) -> quantity
	adjustErr error
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{levels: make(map[[2]string]decimal.Decimal)}
}

var _ portsrepo.StockRepositoryFacade = (*fakeStockRepo)(nil)

func (f *fakeStockRepo) FindStockLevel(ctx context.Context, productID, locationID string) (*domain.StockLevel, error) {
	return &domain.StockLevel{
		ProductID:  productID,
		LocationID: locationID,
		Quantity:   f.levels[[2]string{productID, locationID}],
	}, nil
}

func (f *fakeStockRepo) AdjustStock(ctx context.Context, productID, locationID string, delta decimal.Decimal) error {
	if f.adjustErr != nil {
		return f.adjustErr
	}
	key := [2]string{productID, locationID}
	f.levels[key] = f.levels[key].Add(delta)
	return nil
}
