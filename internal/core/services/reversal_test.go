package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/vetdesk/accounts/internal/apperrors"
	"github.com/vetdesk/accounts/internal/core/domain"
	portssvc "github.com/vetdesk/accounts/internal/core/ports/services"
	"github.com/vetdesk/accounts/internal/core/services"
	"github.com/vetdesk/accounts/internal/dto"
)

type ReversalTestSuite struct {
	suite.Suite
	actRepo      *fakeActRepo
	customerRepo *fakeCustomerRepo
	tillRepo     *fakeTillRepo
	stockRepo    *fakeStockRepo
	service      portssvc.CustomerAccountSvcFacade
}

func (s *ReversalTestSuite) SetupTest() {
	s.actRepo = newFakeActRepo()
	s.customerRepo = newFakeCustomerRepo()
	s.tillRepo = newFakeTillRepo()
	s.stockRepo = newFakeStockRepo()

	s.Require().NoError(s.customerRepo.SaveCustomer(context.Background(), domain.Customer{
		CustomerID: testCustomerID,
		Name:       "J Smith",
		LocationID: "loc-main",
		Active:     true,
	}))

	s.service = services.NewCustomerAccountService(
		s.actRepo, s.customerRepo,
		services.NewTillService(s.tillRepo),
		services.NewStockService(s.stockRepo),
	)
}

func (s *ReversalTestSuite) saveAct(req dto.SaveActRequest) *domain.FinancialAct {
	act, err := s.service.SaveAct(context.Background(), req, testUserID)
	s.Require().NoError(err)
	return act
}

func (s *ReversalTestSuite) reverse(actID string, req dto.ReverseActRequest) *domain.FinancialAct {
	if req.StartTime.IsZero() {
		req.StartTime = baseDate.AddDate(0, 0, 30)
	}
	if req.UserID == "" {
		req.UserID = testUserID
	}
	reversal, err := s.service.Reverse(context.Background(), actID, req)
	s.Require().NoError(err)
	return reversal
}

func (s *ReversalTestSuite) storedAct(actID string) domain.FinancialAct {
	act, err := s.actRepo.FindActByID(context.Background(), actID)
	s.Require().NoError(err)
	return *act
}

func (s *ReversalTestSuite) balance() decimal.Decimal {
	balance, err := s.service.Balance(context.Background(), testCustomerID)
	s.Require().NoError(err)
	return balance
}

func (s *ReversalTestSuite) TestReverseInvoiceRestoresBalance() {
	invoice := s.saveAct(dto.SaveActRequest{
		CustomerID: testCustomerID,
		Kind:       domain.KindInvoice,
		Status:     domain.StatusPosted,
		StartTime:  baseDate,
		Total:      decimal.NewFromInt(100),
	})
	s.True(s.balance().Equal(decimal.NewFromInt(100)))

	reversal := s.reverse(invoice.ActID, dto.ReverseActRequest{Notes: "posted in error"})
	s.Equal(domain.KindCredit, reversal.Kind)
	s.Equal(domain.StatusPosted, reversal.Status)
	s.True(reversal.Total.Equal(decimal.NewFromInt(100)))
	s.Equal(invoice.ActID, reversal.Reference)
	s.Equal("posted in error", reversal.Notes)

	// The reversal enters ordinary allocation and cancels the invoice out.
	s.True(s.balance().IsZero())
	s.True(s.storedAct(invoice.ActID).Allocated.Equal(decimal.NewFromInt(100)))
	s.True(s.storedAct(reversal.ActID).Allocated.Equal(decimal.NewFromInt(100)))

	link, err := s.actRepo.FindReversalBySource(context.Background(), invoice.ActID)
	s.Require().NoError(err)
	s.Equal(reversal.ActID, link.TargetID)
}

func (s *ReversalTestSuite) TestReverseReversalRoundTrip() {
	invoice := s.saveAct(dto.SaveActRequest{
		CustomerID: testCustomerID,
		Kind:       domain.KindInvoice,
		Status:     domain.StatusPosted,
		StartTime:  baseDate,
		Total:      decimal.NewFromInt(100),
	})
	first := s.reverse(invoice.ActID, dto.ReverseActRequest{})
	s.True(s.balance().IsZero())

	second := s.reverse(first.ActID, dto.ReverseActRequest{StartTime: baseDate.AddDate(0, 0, 31)})
	s.Equal(domain.KindInvoice, second.Kind)
	s.True(s.balance().Equal(decimal.NewFromInt(100)), "reversing the reversal restores the original balance")
}

func (s *ReversalTestSuite) TestDoubleReversalRejected() {
	invoice := s.saveAct(dto.SaveActRequest{
		CustomerID: testCustomerID,
		Kind:       domain.KindInvoice,
		Status:     domain.StatusPosted,
		StartTime:  baseDate,
		Total:      decimal.NewFromInt(100),
	})
	s.reverse(invoice.ActID, dto.ReverseActRequest{})

	_, err := s.service.Reverse(context.Background(), invoice.ActID, dto.ReverseActRequest{
		StartTime: baseDate.AddDate(0, 0, 31),
		UserID:    testUserID,
	})
	s.Require().ErrorIs(err, apperrors.ErrConflict)
}

func (s *ReversalTestSuite) TestReverseRequiresPosted() {
	draft := s.saveAct(dto.SaveActRequest{
		CustomerID: testCustomerID,
		Kind:       domain.KindInvoice,
		Status:     domain.StatusInProgress,
		StartTime:  baseDate,
		Total:      decimal.NewFromInt(100),
	})
	_, err := s.service.Reverse(context.Background(), draft.ActID, dto.ReverseActRequest{
		StartTime: baseDate.AddDate(0, 0, 1),
		UserID:    testUserID,
	})
	s.Require().ErrorIs(err, apperrors.ErrConflict)
}

func (s *ReversalTestSuite) TestIrreversibleKindRejected() {
	opening := s.saveAct(dto.SaveActRequest{
		CustomerID: testCustomerID,
		Kind:       domain.KindOpeningBalance,
		Status:     domain.StatusPosted,
		StartTime:  baseDate,
		Total:      decimal.NewFromInt(100),
	})
	_, err := s.service.Reverse(context.Background(), opening.ActID, dto.ReverseActRequest{
		StartTime: baseDate.AddDate(0, 0, 1),
		UserID:    testUserID,
	})
	s.Require().ErrorIs(err, services.ErrNotReversible)
}

func (s *ReversalTestSuite) TestHideAppliesToBothEnds() {
	invoice := s.saveAct(dto.SaveActRequest{
		CustomerID: testCustomerID,
		Kind:       domain.KindInvoice,
		Status:     domain.StatusPosted,
		StartTime:  baseDate,
		Total:      decimal.NewFromInt(100),
	})
	reversal := s.reverse(invoice.ActID, dto.ReverseActRequest{Hide: true})

	s.True(s.storedAct(invoice.ActID).Hidden)
	s.True(s.storedAct(reversal.ActID).Hidden)
	// Hidden acts still count toward balance.
	s.True(s.balance().IsZero())
}

func (s *ReversalTestSuite) TestHideIgnoredOnReversalOfReversal() {
	invoice := s.saveAct(dto.SaveActRequest{
		CustomerID: testCustomerID,
		Kind:       domain.KindInvoice,
		Status:     domain.StatusPosted,
		StartTime:  baseDate,
		Total:      decimal.NewFromInt(100),
	})
	first := s.reverse(invoice.ActID, dto.ReverseActRequest{})

	second := s.reverse(first.ActID, dto.ReverseActRequest{
		StartTime: baseDate.AddDate(0, 0, 31),
		Hide:      true,
	})

	// Hiding a reversal-of-a-reversal would break statement reconciliation;
	// the request is dropped silently.
	s.False(s.storedAct(first.ActID).Hidden)
	s.False(s.storedAct(second.ActID).Hidden)
}

func (s *ReversalTestSuite) TestChargeReversalStripsClinicalLinks() {
	invoice := s.saveAct(dto.SaveActRequest{
		CustomerID: testCustomerID,
		Kind:       domain.KindInvoice,
		Status:     domain.StatusPosted,
		StartTime:  baseDate,
		Total:      decimal.NewFromInt(45),
		Items: []dto.SaveActItemRequest{
			{
				Total:           decimal.NewFromInt(45),
				ProductID:       "prod-1",
				PatientID:       "pat-1",
				Quantity:        decimal.NewFromInt(3),
				ClinicalLinkIDs: []string{"med-1", "doc-2"},
			},
		},
	})

	reversal := s.reverse(invoice.ActID, dto.ReverseActRequest{})
	s.Require().Len(reversal.Items, 1)
	item := reversal.Items[0]
	s.True(item.Total.Equal(decimal.NewFromInt(45)))
	s.Equal("prod-1", item.ProductID)
	s.Equal("pat-1", item.PatientID)
	s.True(item.Quantity.Equal(decimal.NewFromInt(3)))
	s.Empty(item.ClinicalLinkIDs, "clinical history links must never carry over")
}

func (s *ReversalTestSuite) TestChargeReversalInvertsStockMovement() {
	invoice := s.saveAct(dto.SaveActRequest{
		CustomerID: testCustomerID,
		Kind:       domain.KindInvoice,
		Status:     domain.StatusPosted,
		StartTime:  baseDate,
		Total:      decimal.NewFromInt(45),
		Items: []dto.SaveActItemRequest{
			{Total: decimal.NewFromInt(45), ProductID: "prod-1", Quantity: decimal.NewFromInt(3)},
		},
	})
	s.reverse(invoice.ActID, dto.ReverseActRequest{})

	// The invoice consumed 3 units; its reversal returns them to the
	// customer's practice location.
	level, err := s.stockRepo.FindStockLevel(context.Background(), "prod-1", "loc-main")
	s.Require().NoError(err)
	s.True(level.Quantity.Equal(decimal.NewFromInt(3)))
}

func (s *ReversalTestSuite) TestCreditReversalSubtractsStock() {
	credit := s.saveAct(dto.SaveActRequest{
		CustomerID: testCustomerID,
		Kind:       domain.KindCredit,
		Status:     domain.StatusPosted,
		StartTime:  baseDate,
		Total:      decimal.NewFromInt(45),
		Items: []dto.SaveActItemRequest{
			{Total: decimal.NewFromInt(45), ProductID: "prod-1", Quantity: decimal.NewFromInt(2)},
		},
	})
	s.reverse(credit.ActID, dto.ReverseActRequest{})

	level, err := s.stockRepo.FindStockLevel(context.Background(), "prod-1", "loc-main")
	s.Require().NoError(err)
	s.True(level.Quantity.Equal(decimal.NewFromInt(-2)))
}

func (s *ReversalTestSuite) TestCashRefundRecomputesTenderFields() {
	payment := s.saveAct(dto.SaveActRequest{
		CustomerID: testCustomerID,
		Kind:       domain.KindPayment,
		Status:     domain.StatusPosted,
		StartTime:  baseDate,
		Total:      decimal.NewFromInt(99),
		TillID:     "till-1",
		Items: []dto.SaveActItemRequest{
			{
				Total:         decimal.NewFromInt(99),
				Method:        domain.MethodCash,
				RoundedAmount: decimal.NewFromInt(100),
				Tendered:      decimal.NewFromInt(120),
				Change:        decimal.NewFromInt(20),
			},
		},
	})

	refund := s.reverse(payment.ActID, dto.ReverseActRequest{})
	s.Equal(domain.KindRefund, refund.Kind)
	s.Require().Len(refund.Items, 1)
	item := refund.Items[0]
	s.Equal(domain.MethodCash, item.Method)
	// The rounded amount mirrors the original; tendered and change are
	// recomputed because the refund does not retain tender details.
	s.True(item.RoundedAmount.Equal(decimal.NewFromInt(100)))
	s.True(item.Tendered.Equal(decimal.NewFromInt(100)))
	s.True(item.Change.IsZero())
}

func (s *ReversalTestSuite) TestPaymentReversalDrawsFromUnclearedTill() {
	payment := s.saveAct(dto.SaveActRequest{
		CustomerID: testCustomerID,
		Kind:       domain.KindPayment,
		Status:     domain.StatusPosted,
		StartTime:  baseDate,
		Total:      decimal.NewFromInt(80),
		TillID:     "till-1",
		Items: []dto.SaveActItemRequest{
			{Total: decimal.NewFromInt(80), Method: domain.MethodEFT},
		},
	})

	// Saving the payment attached it to the till's uncleared balance.
	s.Require().NotEmpty(payment.TillBalanceID)
	balance, err := s.tillRepo.FindTillBalanceByID(context.Background(), payment.TillBalanceID)
	s.Require().NoError(err)
	s.True(balance.Total.Equal(decimal.NewFromInt(80)))

	refund := s.reverse(payment.ActID, dto.ReverseActRequest{})
	s.Equal(payment.TillBalanceID, refund.TillBalanceID)
	s.Equal("till-1", refund.TillID)

	balance, err = s.tillRepo.FindTillBalanceByID(context.Background(), refund.TillBalanceID)
	s.Require().NoError(err)
	s.Equal(domain.TillUncleared, balance.Status)
	s.True(balance.Total.IsZero(), "the refund draws the payment back out of the till")
}

func (s *ReversalTestSuite) TestReversalAttachesToRequestedTillBalance() {
	existing := domain.TillBalance{
		TillBalanceID: "tb-original",
		TillID:        "till-1",
		Status:        domain.TillUncleared,
		StartTime:     baseDate,
	}
	s.Require().NoError(s.tillRepo.SaveTillBalance(context.Background(), existing))

	payment := s.saveAct(dto.SaveActRequest{
		CustomerID: testCustomerID,
		Kind:       domain.KindPayment,
		Status:     domain.StatusPosted,
		StartTime:  baseDate,
		Total:      decimal.NewFromInt(80),
		TillID:     "till-1",
		Items: []dto.SaveActItemRequest{
			{Total: decimal.NewFromInt(80), Method: domain.MethodEFT},
		},
	})
	s.Equal("tb-original", payment.TillBalanceID)

	// The balance holding the payment gets cleared before the mistake is
	// noticed; a fresh uncleared balance would open at -80 on reversal.
	existing.Status = domain.TillCleared
	existing.Total = decimal.NewFromInt(80)
	s.Require().NoError(s.tillRepo.SaveTillBalance(context.Background(), existing))

	refund := s.reverse(payment.ActID, dto.ReverseActRequest{TillBalanceID: "tb-original"})
	s.Equal("tb-original", refund.TillBalanceID)

	// The targeted balance converges toward zero instead.
	balance, err := s.tillRepo.FindTillBalanceByID(context.Background(), "tb-original")
	s.Require().NoError(err)
	s.True(balance.Total.IsZero())
}

func (s *ReversalTestSuite) TestCollaboratorFailureRollsBackReversal() {
	invoice := s.saveAct(dto.SaveActRequest{
		CustomerID: testCustomerID,
		Kind:       domain.KindInvoice,
		Status:     domain.StatusPosted,
		StartTime:  baseDate,
		Total:      decimal.NewFromInt(100),
		Items: []dto.SaveActItemRequest{
			{Total: decimal.NewFromInt(100), ProductID: "prod-1", Quantity: decimal.NewFromInt(3)},
		},
	})

	s.stockRepo.adjustErr = errors.New("stock location offline")
	_, err := s.service.Reverse(context.Background(), invoice.ActID, dto.ReverseActRequest{
		StartTime: baseDate.AddDate(0, 0, 30),
		UserID:    testUserID,
	})
	s.Require().Error(err)

	// Nothing committed: the act is not reversed, the balance is intact and
	// the stock level untouched.
	reversed, lookupErr := s.service.IsReversed(context.Background(), invoice.ActID)
	s.Require().NoError(lookupErr)
	s.False(reversed)
	s.True(s.balance().Equal(decimal.NewFromInt(100)))
	s.True(s.storedAct(invoice.ActID).Allocated.IsZero())

	// Once the collaborator recovers the reversal goes through.
	s.stockRepo.adjustErr = nil
	s.reverse(invoice.ActID, dto.ReverseActRequest{})
	s.True(s.balance().IsZero())
	level, err := s.stockRepo.FindStockLevel(context.Background(), "prod-1", "loc-main")
	s.Require().NoError(err)
	s.True(level.Quantity.Equal(decimal.NewFromInt(3)))
}

func (s *ReversalTestSuite) TestReversalOfPartiallyAllocatedActKeepsAllocations() {
	invoice := s.saveAct(dto.SaveActRequest{
		CustomerID: testCustomerID,
		Kind:       domain.KindInvoice,
		Status:     domain.StatusPosted,
		StartTime:  baseDate,
		Total:      decimal.NewFromInt(100),
	})
	payment := s.saveAct(dto.SaveActRequest{
		CustomerID: testCustomerID,
		Kind:       domain.KindPayment,
		Status:     domain.StatusPosted,
		StartTime:  baseDate.AddDate(0, 0, 1),
		Total:      decimal.NewFromInt(40),
	})
	s.True(s.storedAct(invoice.ActID).Allocated.Equal(decimal.NewFromInt(40)))

	reversal := s.reverse(invoice.ActID, dto.ReverseActRequest{})

	// The original's existing allocation is never unwound; the reversal
	// contributes a fresh balancing credit that absorbs the remainder.
	allocations, err := s.actRepo.FindAllocationsForAct(context.Background(), payment.ActID)
	s.Require().NoError(err)
	s.Require().Len(allocations, 1)
	s.Equal(invoice.ActID, allocations[0].SourceID)
	s.True(allocations[0].Amount.Equal(decimal.NewFromInt(40)))

	s.True(s.storedAct(invoice.ActID).Allocated.Equal(decimal.NewFromInt(100)))
	s.True(s.storedAct(reversal.ActID).Allocated.Equal(decimal.NewFromInt(60)))
	s.True(s.balance().Equal(decimal.NewFromInt(-40)), "the over-collected payment stays as credit")
}

func (s *ReversalTestSuite) TestIsReversedAndIsReversal() {
	invoice := s.saveAct(dto.SaveActRequest{
		CustomerID: testCustomerID,
		Kind:       domain.KindInvoice,
		Status:     domain.StatusPosted,
		StartTime:  baseDate,
		Total:      decimal.NewFromInt(100),
	})
	reversal := s.reverse(invoice.ActID, dto.ReverseActRequest{})

	reversed, err := s.service.IsReversed(context.Background(), invoice.ActID)
	s.Require().NoError(err)
	s.True(reversed)

	isReversal, err := s.service.IsReversal(context.Background(), reversal.ActID)
	s.Require().NoError(err)
	s.True(isReversal)

	reversed, err = s.service.IsReversed(context.Background(), reversal.ActID)
	s.Require().NoError(err)
	s.False(reversed)

	isReversal, err = s.service.IsReversal(context.Background(), invoice.ActID)
	s.Require().NoError(err)
	s.False(isReversal)
}

func (s *ReversalTestSuite) TestAdjustmentReversalHasNoItems() {
	adjust := s.saveAct(dto.SaveActRequest{
		CustomerID: testCustomerID,
		Kind:       domain.KindDebitAdjust,
		Status:     domain.StatusPosted,
		StartTime:  baseDate,
		Total:      decimal.NewFromInt(15),
	})
	reversal := s.reverse(adjust.ActID, dto.ReverseActRequest{})
	s.Equal(domain.KindCreditAdjust, reversal.Kind)
	s.Empty(reversal.Items)
	s.True(s.balance().IsZero())
}

func TestReversalTestSuite(t *testing.T) {
	suite.Run(t, new(ReversalTestSuite))
}
