package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/vetdesk/accounts/internal/apperrors"
	"github.com/vetdesk/accounts/internal/core/domain"
	portssvc "github.com/vetdesk/accounts/internal/core/ports/services"
	"github.com/vetdesk/accounts/internal/core/services"
	"github.com/vetdesk/accounts/internal/dto"
)

// MockSummaryRepository is a mock type for the SummaryRepository interface
type MockSummaryRepository struct {
	mock.Mock
}

func (m *MockSummaryRepository) ListBalanceSummaries(ctx context.Context, params dto.BalanceSummaryParams) ([]domain.BalanceSummaryRow, *string, error) {
	args := m.Called(ctx, params)
	var rows []domain.BalanceSummaryRow
	if args.Get(0) != nil {
		rows = args.Get(0).([]domain.BalanceSummaryRow)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return rows, token, args.Error(2)
}

type SummaryServiceTestSuite struct {
	suite.Suite
	mockRepo *MockSummaryRepository
	service  portssvc.BalanceSummarySvcFacade
}

func (s *SummaryServiceTestSuite) SetupTest() {
	s.mockRepo = new(MockSummaryRepository)
	s.service = services.NewBalanceSummaryService(s.mockRepo)
}

func (s *SummaryServiceTestSuite) TestDefaultsApplied() {
	ctx := context.Background()
	rows := []domain.BalanceSummaryRow{
		{CustomerID: "cust-1", CustomerName: "J Smith", Balance: decimal.NewFromInt(120)},
	}
	s.mockRepo.On("ListBalanceSummaries", ctx, mock.MatchedBy(func(p dto.BalanceSummaryParams) bool {
		return !p.Date.IsZero() && p.Limit == 25 && p.Location == dto.LocationAll
	})).Return(rows, nil, nil).Once()

	resp, err := s.service.ListBalanceSummaries(ctx, dto.BalanceSummaryParams{})
	s.Require().NoError(err)
	s.Require().Len(resp.Rows, 1)
	s.Equal("cust-1", resp.Rows[0].CustomerID)
	s.Nil(resp.NextToken)
	s.mockRepo.AssertExpectations(s.T())
}

func (s *SummaryServiceTestSuite) TestPassesFiltersAndToken() {
	ctx := context.Background()
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	params := dto.BalanceSummaryParams{
		Date:            date,
		AccountTypeID:   "type-30d",
		Name:            "Smi*",
		Location:        dto.LocationSet,
		LocationIDs:     []string{"loc-main"},
		OverdueFromDays: 30,
		OverdueToDays:   90,
		ExcludeCredit:   true,
		Limit:           10,
	}
	next := "token-2"
	s.mockRepo.On("ListBalanceSummaries", ctx, params).
		Return([]domain.BalanceSummaryRow{{CustomerID: "cust-1"}}, &next, nil).Once()

	resp, err := s.service.ListBalanceSummaries(ctx, params)
	s.Require().NoError(err)
	s.Require().NotNil(resp.NextToken)
	s.Equal("token-2", *resp.NextToken)
	s.mockRepo.AssertExpectations(s.T())
}

func (s *SummaryServiceTestSuite) TestLocationSetRequiresIDs() {
	_, err := s.service.ListBalanceSummaries(context.Background(), dto.BalanceSummaryParams{
		Location: dto.LocationSet,
	})
	s.Require().ErrorIs(err, apperrors.ErrValidation)
	s.mockRepo.AssertNotCalled(s.T(), "ListBalanceSummaries", mock.Anything, mock.Anything)
}

func (s *SummaryServiceTestSuite) TestNegativeOverdueWindowRejected() {
	_, err := s.service.ListBalanceSummaries(context.Background(), dto.BalanceSummaryParams{
		OverdueFromDays: -1,
	})
	s.Require().ErrorIs(err, apperrors.ErrValidation)
}

func (s *SummaryServiceTestSuite) TestInvertedOverdueWindowRejected() {
	_, err := s.service.ListBalanceSummaries(context.Background(), dto.BalanceSummaryParams{
		OverdueFromDays: 60,
		OverdueToDays:   30,
	})
	s.Require().ErrorIs(err, apperrors.ErrValidation)
}

func (s *SummaryServiceTestSuite) TestRepositoryErrorWrapped() {
	ctx := context.Background()
	s.mockRepo.On("ListBalanceSummaries", ctx, mock.Anything).
		Return(nil, nil, apperrors.ErrInternal).Once()

	_, err := s.service.ListBalanceSummaries(ctx, dto.BalanceSummaryParams{})
	s.Require().ErrorIs(err, apperrors.ErrInternal)
	s.mockRepo.AssertExpectations(s.T())
}

func TestSummaryServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SummaryServiceTestSuite))
}
