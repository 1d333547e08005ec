package service

import (
	"context"
	"time"

	"matka/events"
	"matka/models"

	"github.com/stretchr/testify/mock"
)

// MockRoundRepository is a mock implementation of RoundRepository
type MockRoundRepository struct {
	mock.Mock
}

func (m *MockRoundRepository) GetOrCreate(ctx context.Context, round *models.Round) (*models.Round, error) {
	args := m.Called(ctx, round)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Round), args.Error(1)
}

func (m *MockRoundRepository) GetByID(ctx context.Context, id int64) (*models.Round, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Round), args.Error(1)
}

func (m *MockRoundRepository) DeclareResult(ctx context.Context, roundID int64, winningNumber, digitResult int, declaredAt time.Time) (bool, error) {
	args := m.Called(ctx, roundID, winningNumber, digitResult, declaredAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoundRepository) MarkCompleted(ctx context.Context, roundID int64, settledAt time.Time) (bool, error) {
	args := m.Called(ctx, roundID, settledAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoundRepository) Cancel(ctx context.Context, roundID int64, cancelledAt time.Time) (bool, error) {
	args := m.Called(ctx, roundID, cancelledAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoundRepository) GetAwaitingSettlement(ctx context.Context) ([]*models.Round, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Round), args.Error(1)
}

// MockBetRepository is a mock implementation of BetRepository
type MockBetRepository struct {
	mock.Mock
}

func (m *MockBetRepository) Create(ctx context.Context, bet *models.Bet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockBetRepository) GetByID(ctx context.Context, id int64) (*models.Bet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bet), args.Error(1)
}

func (m *MockBetRepository) GetByRound(ctx context.Context, roundID int64) ([]*models.Bet, error) {
	args := m.Called(ctx, roundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bet), args.Error(1)
}

func (m *MockBetRepository) SettleOutcomes(ctx context.Context, bets []*models.Bet) error {
	args := m.Called(ctx, bets)
	return args.Error(0)
}

func (m *MockBetRepository) MarkPaid(ctx context.Context, betID int64, paidAt time.Time) (bool, error) {
	args := m.Called(ctx, betID, paidAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockBetRepository) GetUnpaidWinners(ctx context.Context, roundID int64) ([]*models.Bet, error) {
	args := m.Called(ctx, roundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bet), args.Error(1)
}

func (m *MockBetRepository) VoidPending(ctx context.Context, roundID int64) (int, error) {
	args := m.Called(ctx, roundID)
	return args.Int(0), args.Error(1)
}

// MockAggregateRepository is a mock implementation of AggregateRepository
type MockAggregateRepository struct {
	mock.Mock
}

func (m *MockAggregateRepository) IncrementAndGet(ctx context.Context, roundID int64, numberType models.NumberType, number int, amount int64) (*models.NumberAggregate, error) {
	args := m.Called(ctx, roundID, numberType, number, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NumberAggregate), args.Error(1)
}

func (m *MockAggregateRepository) Lock(ctx context.Context, roundID int64, numberType models.NumberType, number int) error {
	args := m.Called(ctx, roundID, numberType, number)
	return args.Error(0)
}

func (m *MockAggregateRepository) Get(ctx context.Context, roundID int64, numberType models.NumberType, number int) (*models.NumberAggregate, error) {
	args := m.Called(ctx, roundID, numberType, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NumberAggregate), args.Error(1)
}

func (m *MockAggregateRepository) GetByRound(ctx context.Context, roundID int64, numberType models.NumberType) ([]*models.NumberAggregate, error) {
	args := m.Called(ctx, roundID, numberType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.NumberAggregate), args.Error(1)
}

func (m *MockAggregateRepository) GetLockedNumbers(ctx context.Context, roundID int64, numberType models.NumberType) ([]int, error) {
	args := m.Called(ctx, roundID, numberType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

// MockResultRepository is a mock implementation of ResultRepository
type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) Record(ctx context.Context, result *models.Result) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockResultRepository) GetByRound(ctx context.Context, roundID int64) (*models.Result, error) {
	args := m.Called(ctx, roundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Result), args.Error(1)
}

func (m *MockResultRepository) List(ctx context.Context, filter models.ResultFilter, limit, offset int) ([]*models.Result, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Result), args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, id int64, username string, initialBalance int64) (*models.User, error) {
	args := m.Called(ctx, id, username, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) AddBalance(ctx context.Context, id int64, amount int64) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockUserRepository) DeductBalance(ctx context.Context, id int64, amount int64) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

// MockWalletTransactionRepository is a mock implementation of WalletTransactionRepository
type MockWalletTransactionRepository struct {
	mock.Mock
}

func (m *MockWalletTransactionRepository) Record(ctx context.Context, tx *models.WalletTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockWalletTransactionRepository) Exists(ctx context.Context, reference string) (bool, error) {
	args := m.Called(ctx, reference)
	return args.Bool(0), args.Error(1)
}

func (m *MockWalletTransactionRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.WalletTransaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WalletTransaction), args.Error(1)
}

// MockWalletService is a mock implementation of WalletService
type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) Credit(ctx context.Context, userID int64, amount int64, reference string) error {
	args := m.Called(ctx, userID, amount, reference)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// injected through SetRepositories rather than expectation calls, so tests
// only assert on the transaction boundary methods.
type MockUnitOfWork struct {
	mock.Mock

	roundRepo    RoundRepository
	betRepo      BetRepository
	aggRepo      AggregateRepository
	resultRepo   ResultRepository
	userRepo     UserRepository
	walletTxRepo WalletTransactionRepository
	eventBus     EventPublisher
}

// SetRepositories wires the mock repositories the unit of work hands out.
// Pass nil for repositories the test never touches.
func (m *MockUnitOfWork) SetRepositories(roundRepo RoundRepository, betRepo BetRepository, aggRepo AggregateRepository, resultRepo ResultRepository, userRepo UserRepository, walletTxRepo WalletTransactionRepository) {
	m.roundRepo = roundRepo
	m.betRepo = betRepo
	m.aggRepo = aggRepo
	m.resultRepo = resultRepo
	m.userRepo = userRepo
	m.walletTxRepo = walletTxRepo
}

// SetEventBus wires the publisher returned by EventBus
func (m *MockUnitOfWork) SetEventBus(bus EventPublisher) {
	m.eventBus = bus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) RoundRepository() RoundRepository {
	return m.roundRepo
}

func (m *MockUnitOfWork) BetRepository() BetRepository {
	return m.betRepo
}

func (m *MockUnitOfWork) AggregateRepository() AggregateRepository {
	return m.aggRepo
}

func (m *MockUnitOfWork) ResultRepository() ResultRepository {
	return m.resultRepo
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) WalletTransactionRepository() WalletTransactionRepository {
	return m.walletTxRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.eventBus == nil {
		return &noopPublisher{}
	}
	return m.eventBus
}

type noopPublisher struct{}

func (p *noopPublisher) Publish(event events.Event) {}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
