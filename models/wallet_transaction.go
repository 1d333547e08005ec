package models

import (
	"time"
)

// TransactionType represents the type of wallet balance change
type TransactionType string

const (
	TransactionTypeInitial TransactionType = "initial"
	TransactionTypeStake   TransactionType = "stake"
	TransactionTypeWin     TransactionType = "win"
)

// WalletTransaction is an append-only record of a wallet balance change.
// Reference is unique per credit and is what makes settlement retries
// de-duplicable: a second credit attempt with the same reference is a no-op.
type WalletTransaction struct {
	ID              int64           `db:"id"`
	UserID          int64           `db:"user_id"`
	BalanceBefore   int64           `db:"balance_before"`
	BalanceAfter    int64           `db:"balance_after"`
	ChangeAmount    int64           `db:"change_amount"`
	TransactionType TransactionType `db:"transaction_type"`
	Reference       string          `db:"reference"`
	Metadata        map[string]any  `db:"metadata"`
	RoundID         *int64          `db:"round_id"`
	CreatedAt       time.Time       `db:"created_at"`
}
