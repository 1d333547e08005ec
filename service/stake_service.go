package service

import (
	"context"
	"fmt"
	"time"

	"matka/config"
	"matka/events"
	"matka/models"

	"github.com/google/uuid"
)

type stakeService struct {
	uowFactory      UnitOfWorkFactory
	lockPolicy      *LockPolicy
	localWallet     bool
	startingBalance int64
	now             func() time.Time
}

// NewStakeService creates a new stake ledger service
func NewStakeService(uowFactory UnitOfWorkFactory, cfg *config.Config) StakeService {
	return &stakeService{
		uowFactory:      uowFactory,
		lockPolicy:      NewLockPolicy(cfg.LockThresholds),
		localWallet:     cfg.WalletMode == "local",
		startingBalance: cfg.StartingBalance,
		now:             time.Now,
	}
}

// PlaceBet validates and persists a stake against an open round
func (s *stakeService) PlaceBet(ctx context.Context, roundID, userID int64, numberType models.NumberType, number int, classTag string, amount int64) (*models.Bet, error) {
	// Validate inputs
	if !models.ValidNumber(numberType, number) {
		return nil, fmt.Errorf("number %d is not valid for type %s: %w", number, numberType, ErrInvalidNumber)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("stake of %d rejected: %w", amount, ErrInvalidStake)
	}

	// Create unit of work
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Get the round and check it accepts bets
	round, err := uow.RoundRepository().GetByID(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	if round == nil {
		return nil, ErrRoundNotFound
	}
	if !round.CanAcceptBets(s.now()) {
		return nil, fmt.Errorf("round %d is %s: %w", roundID, round.EffectiveStatus(s.now()), ErrRoundNotAcceptingBets)
	}

	// Reject bets on numbers already locked
	aggregate, err := uow.AggregateRepository().Get(ctx, roundID, numberType, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get number aggregate: %w", err)
	}
	if s.lockPolicy.IsLocked(aggregate, classTag) {
		return nil, fmt.Errorf("number %d: %w", number, ErrNumberLocked)
	}

	// Debit the stake from the local wallet
	if s.localWallet {
		if err := s.debitStake(ctx, uow, userID, roundID, amount); err != nil {
			return nil, err
		}
	}

	// Persist the bet. The credit reference is minted here so settlement
	// retries reuse the same idempotency key.
	bet := &models.Bet{
		RoundID:    roundID,
		UserID:     userID,
		NumberType: numberType,
		Number:     number,
		ClassTag:   classTag,
		Amount:     amount,
		Outcome:    models.BetOutcomePending,
		CreditRef:  uuid.NewString(),
	}
	if err := uow.BetRepository().Create(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}

	// Atomically roll the stake into the aggregate and re-evaluate the lock
	// policy against the post-increment total
	updated, err := uow.AggregateRepository().IncrementAndGet(ctx, roundID, numberType, number, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to update number aggregate: %w", err)
	}
	// A concurrent bet may have crossed the cap and locked the number between
	// the pre-check and this increment. Rolling back withdraws the stake.
	if updated.Locked {
		return nil, fmt.Errorf("number %d: %w", number, ErrNumberLocked)
	}
	if s.lockPolicy.IsLocked(updated, classTag) {
		if err := uow.AggregateRepository().Lock(ctx, roundID, numberType, number); err != nil {
			return nil, fmt.Errorf("failed to lock number %d: %w", number, err)
		}
		uow.EventBus().Publish(events.NumberLockedEvent{
			RoundID:     roundID,
			NumberType:  numberType,
			Number:      number,
			TotalStaked: updated.TotalStaked,
		})
	}

	uow.EventBus().Publish(events.BetPlacedEvent{
		RoundID:    roundID,
		BetID:      bet.ID,
		UserID:     userID,
		NumberType: numberType,
		Number:     number,
		Amount:     amount,
	})

	// Commit the transaction
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return bet, nil
}

// debitStake takes the stake out of the user's wallet and records the ledger
// entry, inside the caller's transaction
func (s *stakeService) debitStake(ctx context.Context, uow UnitOfWork, userID, roundID, amount int64) error {
	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		// First stake from this user opens a wallet account
		user, err = uow.UserRepository().Create(ctx, userID, fmt.Sprintf("player-%d", userID), s.startingBalance)
		if err != nil {
			return fmt.Errorf("failed to create wallet account: %w", err)
		}
		initialTx := &models.WalletTransaction{
			UserID:          userID,
			BalanceBefore:   0,
			BalanceAfter:    user.Balance,
			ChangeAmount:    user.Balance,
			TransactionType: models.TransactionTypeInitial,
			Reference:       uuid.NewString(),
		}
		if err := uow.WalletTransactionRepository().Record(ctx, initialTx); err != nil {
			return fmt.Errorf("failed to record initial balance: %w", err)
		}
	}

	if err := uow.UserRepository().DeductBalance(ctx, userID, amount); err != nil {
		return fmt.Errorf("failed to deduct stake: %w", err)
	}

	walletTx := &models.WalletTransaction{
		UserID:          userID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    user.Balance - amount,
		ChangeAmount:    -amount,
		TransactionType: models.TransactionTypeStake,
		Reference:       uuid.NewString(),
		Metadata: map[string]any{
			"round_id": roundID,
		},
		RoundID: &roundID,
	}
	if err := uow.WalletTransactionRepository().Record(ctx, walletTx); err != nil {
		return fmt.Errorf("failed to record stake transaction: %w", err)
	}

	return nil
}

// GetAggregates returns the number table for a round, sorted by total staked
// descending with ties broken by ascending number
func (s *stakeService) GetAggregates(ctx context.Context, roundID int64, numberType models.NumberType) ([]*models.NumberAggregate, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	aggregates, err := uow.AggregateRepository().GetByRound(ctx, roundID, numberType)
	if err != nil {
		return nil, fmt.Errorf("failed to get aggregates: %w", err)
	}

	return aggregates, nil
}

// GetLockedNumbers returns the locked set for a round and number space
func (s *stakeService) GetLockedNumbers(ctx context.Context, roundID int64, numberType models.NumberType) ([]int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	locked, err := uow.AggregateRepository().GetLockedNumbers(ctx, roundID, numberType)
	if err != nil {
		return nil, fmt.Errorf("failed to get locked numbers: %w", err)
	}

	return locked, nil
}
