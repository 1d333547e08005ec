package repository

import (
	"context"
	"testing"

	"matka/models"
	"matka/repository/testutil"
	"matka/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Balances(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, err := repo.Create(ctx, 10, "player", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), user.Balance)

	t.Run("add balance", func(t *testing.T) {
		require.NoError(t, repo.AddBalance(ctx, 10, 500))

		got, err := repo.GetByID(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1500), got.Balance)
	})

	t.Run("deduct balance", func(t *testing.T) {
		require.NoError(t, repo.DeductBalance(ctx, 10, 1500))

		got, err := repo.GetByID(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(0), got.Balance)
	})

	t.Run("overdraft refused", func(t *testing.T) {
		err := repo.DeductBalance(ctx, 10, 1)
		assert.ErrorIs(t, err, service.ErrInsufficientFunds)
	})

	t.Run("unknown user", func(t *testing.T) {
		got, err := repo.GetByID(ctx, 42)
		require.NoError(t, err)
		assert.Nil(t, got)

		assert.ErrorIs(t, repo.AddBalance(ctx, 42, 100), service.ErrUserNotFound)
	})
}

func TestWalletTransactionRepository_Ledger(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testDB := testutil.SetupTestDatabase(t)

	users := NewUserRepository(testDB.DB)
	repo := NewWalletTransactionRepository(testDB.DB)
	ctx := context.Background()

	_, err := users.Create(ctx, 10, "player", 100000)
	require.NoError(t, err)

	tx := testutil.CreateTestWalletTransaction(10, -5000, models.TransactionTypeStake)
	require.NoError(t, repo.Record(ctx, tx))
	assert.NotZero(t, tx.ID)

	t.Run("reference lookup", func(t *testing.T) {
		exists, err := repo.Exists(ctx, tx.Reference)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.Exists(ctx, "never-used")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("duplicate reference rejected", func(t *testing.T) {
		dup := testutil.CreateTestWalletTransaction(10, 2700, models.TransactionTypeWin)
		dup.Reference = tx.Reference
		assert.Error(t, repo.Record(ctx, dup))
	})

	t.Run("listing preserves metadata", func(t *testing.T) {
		transactions, err := repo.GetByUser(ctx, 10, 10)
		require.NoError(t, err)
		require.Len(t, transactions, 1)
		assert.Equal(t, models.TransactionTypeStake, transactions[0].TransactionType)
		assert.Equal(t, true, transactions[0].Metadata["test"])
	})
}
