package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"matka/database"
	"matka/models"
)

// WalletTransactionRepository implements the WalletTransactionRepository interface
type WalletTransactionRepository struct {
	q queryable
}

// NewWalletTransactionRepository creates a new wallet transaction repository
func NewWalletTransactionRepository(db *database.DB) *WalletTransactionRepository {
	return &WalletTransactionRepository{q: db.Pool}
}

// newWalletTransactionRepositoryWithTx creates a new wallet transaction repository with a transaction
func newWalletTransactionRepositoryWithTx(tx queryable) *WalletTransactionRepository {
	return &WalletTransactionRepository{q: tx}
}

// Record appends a wallet transaction entry. The unique index on reference
// rejects a second entry with the same reference, which is what makes credit
// replays observable before they change a balance.
func (r *WalletTransactionRepository) Record(ctx context.Context, tx *models.WalletTransaction) error {
	metadataJSON, err := json.Marshal(tx.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction metadata: %w", err)
	}

	query := `
		INSERT INTO wallet_transactions
		(user_id, balance_before, balance_after, change_amount, transaction_type, reference, metadata, round_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		tx.UserID,
		tx.BalanceBefore,
		tx.BalanceAfter,
		tx.ChangeAmount,
		tx.TransactionType,
		tx.Reference,
		metadataJSON,
		tx.RoundID,
	).Scan(&tx.ID, &tx.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record wallet transaction for user %d: %w", tx.UserID, err)
	}
	return nil
}

// Exists reports whether a transaction with the reference was recorded
func (r *WalletTransactionRepository) Exists(ctx context.Context, reference string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM wallet_transactions WHERE reference = $1)`

	var exists bool
	if err := r.q.QueryRow(ctx, query, reference).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check reference %s: %w", reference, err)
	}
	return exists, nil
}

// GetByUser returns recent transactions for a user, newest first
func (r *WalletTransactionRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.WalletTransaction, error) {
	query := `
		SELECT id, user_id, balance_before, balance_after, change_amount,
		       transaction_type, reference, metadata, round_id, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet transactions for user %d: %w", userID, err)
	}
	defer rows.Close()

	var transactions []*models.WalletTransaction
	for rows.Next() {
		var tx models.WalletTransaction
		var metadataJSON []byte

		err := rows.Scan(
			&tx.ID,
			&tx.UserID,
			&tx.BalanceBefore,
			&tx.BalanceAfter,
			&tx.ChangeAmount,
			&tx.TransactionType,
			&tx.Reference,
			&metadataJSON,
			&tx.RoundID,
			&tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet transaction: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &tx.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal transaction metadata: %w", err)
			}
		}

		transactions = append(transactions, &tx)
	}
	return transactions, rows.Err()
}
