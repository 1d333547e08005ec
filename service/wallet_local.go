package service

import (
	"context"
	"fmt"

	"matka/models"
)

// localWalletService keeps wallet balances in the engine's own database.
// Credits de-duplicate on the transaction reference: a settlement retry that
// replays a credit finds the existing ledger entry and leaves the balance
// untouched.
type localWalletService struct {
	uowFactory UnitOfWorkFactory
}

// NewLocalWalletService creates a wallet service backed by the local users
// table and wallet ledger
func NewLocalWalletService(uowFactory UnitOfWorkFactory) WalletService {
	return &localWalletService{uowFactory: uowFactory}
}

// Credit adds winnings to a user's balance exactly once per reference
func (s *localWalletService) Credit(ctx context.Context, userID int64, amount int64, reference string) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	if reference == "" {
		return fmt.Errorf("credit reference is required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Replay guard: the reference is unique in the ledger
	exists, err := uow.WalletTransactionRepository().Exists(ctx, reference)
	if err != nil {
		return fmt.Errorf("failed to check credit reference: %w", err)
	}
	if exists {
		return nil
	}

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("crediting user %d: %w", userID, ErrUserNotFound)
	}

	if err := uow.UserRepository().AddBalance(ctx, userID, amount); err != nil {
		return fmt.Errorf("failed to add winnings: %w", err)
	}

	walletTx := &models.WalletTransaction{
		UserID:          userID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    user.Balance + amount,
		ChangeAmount:    amount,
		TransactionType: models.TransactionTypeWin,
		Reference:       reference,
	}
	if err := uow.WalletTransactionRepository().Record(ctx, walletTx); err != nil {
		return fmt.Errorf("failed to record credit transaction: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
