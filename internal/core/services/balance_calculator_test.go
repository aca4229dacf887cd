package services_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/vetdesk/accounts/internal/core/domain"
	"github.com/vetdesk/accounts/internal/core/services"
)

func act(kind domain.ActKind, status domain.ActStatus, total, allocated int64, startTime time.Time, participates bool) domain.FinancialAct {
	return domain.FinancialAct{
		ActID:                string(kind) + "-" + string(status) + "-" + startTime.Format("01021504"),
		Kind:                 kind,
		Status:               status,
		Total:                decimal.NewFromInt(total),
		Allocated:            decimal.NewFromInt(allocated),
		StartTime:            startTime,
		BalanceParticipation: participates,
	}
}

func TestBalanceSumsSignedRemainders(t *testing.T) {
	calc := services.BalanceCalculator{}
	now := time.Now()
	acts := []domain.FinancialAct{
		act(domain.KindInvoice, domain.StatusPosted, 100, 40, now, true),
		act(domain.KindPayment, domain.StatusPosted, 50, 40, now, true),
		// Drafts participate but contribute nothing until posted.
		act(domain.KindInvoice, domain.StatusInProgress, 999, 0, now, true),
		// Fully allocated acts have left the open set.
		act(domain.KindInvoice, domain.StatusPosted, 30, 30, now, false),
	}
	assert.True(t, calc.Balance(acts).Equal(decimal.NewFromInt(50)))
}

func TestDefinitiveBalanceIgnoresBookkeeping(t *testing.T) {
	calc := services.BalanceCalculator{}
	now := time.Now()
	acts := []domain.FinancialAct{
		act(domain.KindInvoice, domain.StatusPosted, 100, 100, now, false),
		act(domain.KindPayment, domain.StatusPosted, 70, 70, now, false),
		act(domain.KindInvoice, domain.StatusInProgress, 999, 0, now, true),
	}
	assert.True(t, calc.DefinitiveBalance(acts).Equal(decimal.NewFromInt(30)))
}

func TestEmptyHistoryIsZero(t *testing.T) {
	calc := services.BalanceCalculator{}
	assert.True(t, calc.Balance(nil).IsZero())
	assert.True(t, calc.DefinitiveBalance(nil).IsZero())
	assert.True(t, calc.CreditBalance(nil).IsZero())
	assert.True(t, calc.UnbilledAmount(nil).IsZero())
	assert.True(t, calc.OverdueBalance(nil, nil, time.Now()).IsZero())
}

func TestOverdueBalanceFloorsAtZero(t *testing.T) {
	calc := services.BalanceCalculator{}
	d := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	invoice := act(domain.KindInvoice, domain.StatusPosted, 40, 40, d, false)
	credit := act(domain.KindCredit, domain.StatusPosted, 100, 40, d.AddDate(0, 0, 1), true)
	allocations := []domain.Allocation{
		{SourceID: invoice.ActID, TargetID: credit.ActID, Amount: decimal.NewFromInt(40)},
	}

	cutoff := d.AddDate(0, 0, 10)
	overdue := calc.OverdueBalance([]domain.FinancialAct{invoice, credit}, allocations, cutoff)
	assert.True(t, overdue.IsZero())
}

func TestUnbilledSignsCharges(t *testing.T) {
	calc := services.BalanceCalculator{}
	now := time.Now()
	acts := []domain.FinancialAct{
		act(domain.KindInvoice, domain.StatusInProgress, 100, 0, now, true),
		act(domain.KindCredit, domain.StatusCompleted, 30, 0, now, true),
		// Posted and cancelled charges are not "unbilled".
		act(domain.KindInvoice, domain.StatusPosted, 500, 0, now, true),
		act(domain.KindInvoice, domain.StatusCancelled, 500, 0, now, false),
		// Payments are never unbilled, whatever their status.
		act(domain.KindPayment, domain.StatusInProgress, 500, 0, now, true),
	}
	assert.True(t, calc.UnbilledAmount(acts).Equal(decimal.NewFromInt(70)))
}
