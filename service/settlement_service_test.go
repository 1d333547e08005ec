package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"matka/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// createAwaitingRound returns a round with a declared result waiting to be
// settled
func createAwaitingRound(roundID int64, winningNumber int) *models.Round {
	round := createOpenRound(roundID)
	round.Status = models.RoundStatusAwaitingSettlement
	digit := models.DeriveDigit(winningNumber)
	declaredAt := testNow.Add(-time.Minute)
	round.WinningNumber = &winningNumber
	round.DigitResult = &digit
	round.DeclaredAt = &declaredAt
	return round
}

func createTestSettlementService() (*settlementService, *MockWalletService, *MockUnitOfWork, *MockRoundRepository, *MockBetRepository) {
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockRoundRepo := new(MockRoundRepository)
	mockBetRepo := new(MockBetRepository)
	mockWallet := new(MockWalletService)

	mockUoW.SetRepositories(mockRoundRepo, mockBetRepo, nil, nil, nil, nil)
	mockFactory.On("Create").Return(mockUoW)

	svc := NewSettlementService(mockFactory, mockWallet, testConfig()).(*settlementService)
	svc.now = func() time.Time { return testNow }
	return svc, mockWallet, mockUoW, mockRoundRepo, mockBetRepo
}

func TestSettlementService_Settle(t *testing.T) {
	ctx := context.Background()

	t.Run("full settlement pays winners and completes", func(t *testing.T) {
		svc, mockWallet, mockUoW, mockRoundRepo, mockBetRepo := createTestSettlementService()
		setupTransactionMocks(mockUoW)

		round := createAwaitingRound(1, 123)
		mockRoundRepo.On("GetByID", mock.Anything, int64(1)).Return(round, nil)

		tripleWinner := &models.Bet{ID: 1, RoundID: 1, UserID: 10, NumberType: models.NumberTypeTriple, Number: 123, ClassTag: "A", Amount: 30, Outcome: models.BetOutcomePending, CreditRef: "ref-1"}
		singleWinner := &models.Bet{ID: 2, RoundID: 1, UserID: 11, NumberType: models.NumberTypeSingle, Number: 6, Amount: 500, Outcome: models.BetOutcomePending, CreditRef: "ref-2"}
		loser := &models.Bet{ID: 3, RoundID: 1, UserID: 12, NumberType: models.NumberTypeSingle, Number: 3, Amount: 200, Outcome: models.BetOutcomePending, CreditRef: "ref-3"}
		mockBetRepo.On("GetByRound", mock.Anything, int64(1)).Return([]*models.Bet{tripleWinner, singleWinner, loser}, nil)

		mockBetRepo.On("SettleOutcomes", mock.Anything, mock.AnythingOfType("[]*models.Bet")).Run(func(args mock.Arguments) {
			settled := args.Get(1).([]*models.Bet)
			require.Len(t, settled, 3)
		}).Return(nil)

		// After outcomes are written both winners are still unpaid
		paidTriple := *tripleWinner
		paidTriple.Outcome = models.BetOutcomeWon
		paidTriple.WinAmount = 2700
		paidSingle := *singleWinner
		paidSingle.Outcome = models.BetOutcomeWon
		paidSingle.WinAmount = 4500
		mockBetRepo.On("GetUnpaidWinners", mock.Anything, int64(1)).Return([]*models.Bet{&paidTriple, &paidSingle}, nil)

		mockWallet.On("Credit", mock.Anything, int64(10), int64(2700), "ref-1").Return(nil)
		mockWallet.On("Credit", mock.Anything, int64(11), int64(4500), "ref-2").Return(nil)
		mockBetRepo.On("MarkPaid", mock.Anything, int64(1), testNow).Return(true, nil)
		mockBetRepo.On("MarkPaid", mock.Anything, int64(2), testNow).Return(true, nil)
		mockRoundRepo.On("MarkCompleted", mock.Anything, int64(1), testNow).Return(true, nil)

		report, err := svc.Settle(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, 123, report.WinningNumber)
		assert.Equal(t, 6, report.DigitResult)
		assert.Equal(t, 3, report.TotalBets)
		assert.Equal(t, 2, report.WonBets)
		assert.Equal(t, 1, report.LostBets)
		assert.Equal(t, int64(730), report.TotalStaked)
		assert.Equal(t, int64(7200), report.TotalPaidOut)
		assert.Equal(t, 0, report.CreditsSkipped)
		mockWallet.AssertExpectations(t)
		mockRoundRepo.AssertCalled(t, "MarkCompleted", mock.Anything, int64(1), testNow)
	})

	t.Run("resume skips already paid winners", func(t *testing.T) {
		svc, mockWallet, mockUoW, mockRoundRepo, mockBetRepo := createTestSettlementService()
		setupTransactionMocks(mockUoW)

		round := createAwaitingRound(1, 123)
		mockRoundRepo.On("GetByID", mock.Anything, int64(1)).Return(round, nil)

		// Outcomes were already written by the interrupted attempt
		paidAt := testNow.Add(-time.Minute)
		alreadyPaid := &models.Bet{ID: 1, RoundID: 1, UserID: 10, NumberType: models.NumberTypeTriple, Number: 123, ClassTag: "A", Amount: 30, Outcome: models.BetOutcomeWon, WinAmount: 2700, CreditRef: "ref-1", PaidAt: &paidAt}
		stillUnpaid := &models.Bet{ID: 2, RoundID: 1, UserID: 11, NumberType: models.NumberTypeSingle, Number: 6, Amount: 500, Outcome: models.BetOutcomeWon, WinAmount: 4500, CreditRef: "ref-2"}
		mockBetRepo.On("GetByRound", mock.Anything, int64(1)).Return([]*models.Bet{alreadyPaid, stillUnpaid}, nil)
		mockBetRepo.On("SettleOutcomes", mock.Anything, mock.AnythingOfType("[]*models.Bet")).Return(nil)
		mockBetRepo.On("GetUnpaidWinners", mock.Anything, int64(1)).Return([]*models.Bet{stillUnpaid}, nil)

		mockWallet.On("Credit", mock.Anything, int64(11), int64(4500), "ref-2").Return(nil)
		mockBetRepo.On("MarkPaid", mock.Anything, int64(2), testNow).Return(true, nil)
		mockRoundRepo.On("MarkCompleted", mock.Anything, int64(1), testNow).Return(true, nil)

		report, err := svc.Settle(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, 2, report.WonBets)
		assert.Equal(t, 1, report.CreditsSkipped)
		// The paid winner's wallet is never touched again
		mockWallet.AssertNotCalled(t, "Credit", mock.Anything, int64(10), mock.Anything, mock.Anything)
	})

	t.Run("wallet failure leaves round awaiting settlement", func(t *testing.T) {
		svc, mockWallet, mockUoW, mockRoundRepo, mockBetRepo := createTestSettlementService()
		setupTransactionMocks(mockUoW)

		round := createAwaitingRound(1, 123)
		mockRoundRepo.On("GetByID", mock.Anything, int64(1)).Return(round, nil)

		winner := &models.Bet{ID: 1, RoundID: 1, UserID: 10, NumberType: models.NumberTypeTriple, Number: 123, ClassTag: "A", Amount: 30, Outcome: models.BetOutcomePending, CreditRef: "ref-1"}
		mockBetRepo.On("GetByRound", mock.Anything, int64(1)).Return([]*models.Bet{winner}, nil)
		mockBetRepo.On("SettleOutcomes", mock.Anything, mock.AnythingOfType("[]*models.Bet")).Return(nil)

		wonBet := *winner
		wonBet.Outcome = models.BetOutcomeWon
		wonBet.WinAmount = 2700
		mockBetRepo.On("GetUnpaidWinners", mock.Anything, int64(1)).Return([]*models.Bet{&wonBet}, nil)

		mockWallet.On("Credit", mock.Anything, int64(10), int64(2700), "ref-1").Return(errors.New("wallet unavailable"))

		_, err := svc.Settle(ctx, 1)

		assert.ErrorIs(t, err, ErrWalletCreditFailed)
		mockBetRepo.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything)
		mockRoundRepo.AssertNotCalled(t, "MarkCompleted", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("transient wallet failure is retried", func(t *testing.T) {
		svc, mockWallet, mockUoW, mockRoundRepo, mockBetRepo := createTestSettlementService()
		setupTransactionMocks(mockUoW)

		round := createAwaitingRound(1, 123)
		mockRoundRepo.On("GetByID", mock.Anything, int64(1)).Return(round, nil)

		winner := &models.Bet{ID: 1, RoundID: 1, UserID: 10, NumberType: models.NumberTypeTriple, Number: 123, ClassTag: "A", Amount: 30, Outcome: models.BetOutcomePending, CreditRef: "ref-1"}
		mockBetRepo.On("GetByRound", mock.Anything, int64(1)).Return([]*models.Bet{winner}, nil)
		mockBetRepo.On("SettleOutcomes", mock.Anything, mock.AnythingOfType("[]*models.Bet")).Return(nil)

		wonBet := *winner
		wonBet.Outcome = models.BetOutcomeWon
		wonBet.WinAmount = 2700
		mockBetRepo.On("GetUnpaidWinners", mock.Anything, int64(1)).Return([]*models.Bet{&wonBet}, nil)

		mockWallet.On("Credit", mock.Anything, int64(10), int64(2700), "ref-1").Return(errors.New("timeout")).Once()
		mockWallet.On("Credit", mock.Anything, int64(10), int64(2700), "ref-1").Return(nil)
		mockBetRepo.On("MarkPaid", mock.Anything, int64(1), testNow).Return(true, nil)
		mockRoundRepo.On("MarkCompleted", mock.Anything, int64(1), testNow).Return(true, nil)

		report, err := svc.Settle(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, 1, report.WonBets)
		mockWallet.AssertNumberOfCalls(t, "Credit", 2)
	})

	t.Run("void bets are excluded from the report", func(t *testing.T) {
		svc, _, mockUoW, mockRoundRepo, mockBetRepo := createTestSettlementService()
		setupTransactionMocks(mockUoW)

		round := createAwaitingRound(1, 123)
		mockRoundRepo.On("GetByID", mock.Anything, int64(1)).Return(round, nil)
		mockBetRepo.On("GetByRound", mock.Anything, int64(1)).Return([]*models.Bet{
			{ID: 1, RoundID: 1, NumberType: models.NumberTypeSingle, Number: 3, Amount: 200, Outcome: models.BetOutcomeVoid},
		}, nil)
		mockBetRepo.On("SettleOutcomes", mock.Anything, mock.AnythingOfType("[]*models.Bet")).Return(nil)
		mockBetRepo.On("GetUnpaidWinners", mock.Anything, int64(1)).Return(nil, nil)
		mockRoundRepo.On("MarkCompleted", mock.Anything, int64(1), testNow).Return(true, nil)

		report, err := svc.Settle(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, 0, report.TotalBets)
		assert.Equal(t, int64(0), report.TotalStaked)
	})

	t.Run("already completed round", func(t *testing.T) {
		svc, _, mockUoW, mockRoundRepo, _ := createTestSettlementService()
		setupTransactionMocks(mockUoW)

		round := createAwaitingRound(1, 123)
		round.Status = models.RoundStatusCompleted
		mockRoundRepo.On("GetByID", mock.Anything, int64(1)).Return(round, nil)

		_, err := svc.Settle(ctx, 1)
		assert.ErrorIs(t, err, ErrAlreadySettled)
	})

	t.Run("round without declared result", func(t *testing.T) {
		svc, _, mockUoW, mockRoundRepo, _ := createTestSettlementService()
		setupTransactionMocks(mockUoW)

		mockRoundRepo.On("GetByID", mock.Anything, int64(1)).Return(createOpenRound(1), nil)

		_, err := svc.Settle(ctx, 1)
		assert.ErrorIs(t, err, ErrNoResultYet)
	})

	t.Run("round not found", func(t *testing.T) {
		svc, _, mockUoW, mockRoundRepo, _ := createTestSettlementService()
		setupTransactionMocks(mockUoW)

		mockRoundRepo.On("GetByID", mock.Anything, int64(9)).Return(nil, nil)

		_, err := svc.Settle(ctx, 9)
		assert.ErrorIs(t, err, ErrRoundNotFound)
	})

	t.Run("lost completion race", func(t *testing.T) {
		svc, _, mockUoW, mockRoundRepo, mockBetRepo := createTestSettlementService()
		setupTransactionMocks(mockUoW)

		round := createAwaitingRound(1, 123)
		mockRoundRepo.On("GetByID", mock.Anything, int64(1)).Return(round, nil)
		mockBetRepo.On("GetByRound", mock.Anything, int64(1)).Return(nil, nil)
		mockBetRepo.On("SettleOutcomes", mock.Anything, mock.AnythingOfType("[]*models.Bet")).Return(nil)
		mockBetRepo.On("GetUnpaidWinners", mock.Anything, int64(1)).Return(nil, nil)
		mockRoundRepo.On("MarkCompleted", mock.Anything, int64(1), testNow).Return(false, nil)

		_, err := svc.Settle(ctx, 1)
		assert.ErrorIs(t, err, ErrAlreadySettled)
	})
}
