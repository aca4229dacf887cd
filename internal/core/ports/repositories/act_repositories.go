package repositories

import (
	"context"
	"time"

	"github.com/vetdesk/accounts/internal/core/domain"
)

// ActReader defines read operations for customer account acts.
type ActReader interface {
	// FindActByID retrieves an act and its items by identifier.
	FindActByID(ctx context.Context, actID string) (*domain.FinancialAct, error)

	// FindActsByCustomer retrieves the complete account act history for a
	// customer ordered by (start time, sequence) ascending.
	FindActsByCustomer(ctx context.Context, customerID string) ([]domain.FinancialAct, error)

	// FindParticipatingActs retrieves the acts currently carrying a balance
	// participation for the customer, ordered by (start time, sequence).
	FindParticipatingActs(ctx context.Context, customerID string) ([]domain.FinancialAct, error)

	// FindActPage retrieves one keyset page of the customer's acts ordered
	// by (start time, sequence), without items. nextToken is the opaque
	// cursor returned alongside the previous page, empty for the first;
	// the returned token is empty on the last page.
	FindActPage(ctx context.Context, customerID, nextToken string, limit int) ([]domain.FinancialAct, string, error)

	// HasAccountActs reports whether the customer has any account acts.
	HasAccountActs(ctx context.Context, customerID string) (bool, error)

	// FindLatestAct retrieves the act of the given kind and status with the
	// most recent start time, or ErrNotFound.
	FindLatestAct(ctx context.Context, customerID string, kind domain.ActKind, status domain.ActStatus) (*domain.FinancialAct, error)
}

// ActWriter defines write operations for customer account acts.
type ActWriter interface {
	// SaveAct inserts a new act with its items. The repository assigns the
	// persistence sequence and sets it on the act.
	SaveAct(ctx context.Context, act *domain.FinancialAct) error

	// UpdateActs persists allocation state changes (allocated amount,
	// participation flag) and status for existing acts.
	UpdateActs(ctx context.Context, acts []domain.FinancialAct) error

	// UpdateActFlags updates the hidden and printed flags, the only fields
	// editable on a posted act.
	UpdateActFlags(ctx context.Context, actID string, hidden, printed bool, updatedBy string, updatedAt time.Time) error
}

// AllocationReader defines read operations for allocation relationships.
type AllocationReader interface {
	// FindAllocationsForAct retrieves every allocation touching the act as
	// source or target.
	FindAllocationsForAct(ctx context.Context, actID string) ([]domain.Allocation, error)

	// FindAllocationsByCustomer retrieves every allocation between the
	// customer's acts.
	FindAllocationsByCustomer(ctx context.Context, customerID string) ([]domain.Allocation, error)
}

// AllocationWriter defines write operations for allocation relationships.
type AllocationWriter interface {
	// UpsertAllocations inserts or replaces allocations keyed by
	// (source, target), storing the absolute allocated amount.
	UpsertAllocations(ctx context.Context, allocations []domain.Allocation) error

	// DeleteAllocationsByCustomer removes every allocation between the
	// customer's acts.
	DeleteAllocationsByCustomer(ctx context.Context, customerID string) error
}

// ReversalReader defines read operations for reversal relationships.
type ReversalReader interface {
	// FindReversalBySource retrieves the reversal leaving the act, or
	// ErrNotFound if the act has not been reversed.
	FindReversalBySource(ctx context.Context, actID string) (*domain.Reversal, error)

	// FindReversalByTarget retrieves the reversal arriving at the act, or
	// ErrNotFound if the act is not itself a reversal.
	FindReversalByTarget(ctx context.Context, actID string) (*domain.Reversal, error)
}

// ReversalWriter defines write operations for reversal relationships.
type ReversalWriter interface {
	// SaveReversal records the one-to-one link from an original act to its
	// reversal. Fails with ErrDuplicate if the source already has one.
	SaveReversal(ctx context.Context, reversal domain.Reversal) error
}

// ActRepositoryFacade combines all act-related repository interfaces.
type ActRepositoryFacade interface {
	ActReader
	ActWriter
	AllocationReader
	AllocationWriter
	ReversalReader
	ReversalWriter
}

// ActRepositoryWithTx extends ActRepositoryFacade with the ability to run a
// sequence of repository calls inside one database transaction. The engine's
// balance-mutating operations assume all their writes commit or roll back
// together; WithTx is how callers provide that boundary.
type ActRepositoryWithTx interface {
	ActRepositoryFacade

	// WithTx executes fn against a transaction-bound view of the repository.
	WithTx(ctx context.Context, fn func(repo ActRepositoryFacade) error) error
}
