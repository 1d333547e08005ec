package repository

import (
	"context"
	"testing"
	"time"

	"matka/models"
	"matka/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBetFixtures(t *testing.T) (*BetRepository, *models.Round, *models.User) {
	t.Helper()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	round, err := NewRoundRepository(testDB.DB).GetOrCreate(ctx, testutil.CreateTestRound("main", time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC), 45, 5))
	require.NoError(t, err)

	user, err := NewUserRepository(testDB.DB).Create(ctx, 10, "player", 100000)
	require.NoError(t, err)

	return NewBetRepository(testDB.DB), round, user
}

func TestBetRepository_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	repo, round, user := setupBetFixtures(t)
	ctx := context.Background()

	bet := testutil.CreateTestBet(round.ID, user.ID, models.NumberTypeTriple, 456, 2000)
	require.NoError(t, repo.Create(ctx, bet))
	assert.NotZero(t, bet.ID)

	got, err := repo.GetByID(ctx, bet.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.BetOutcomePending, got.Outcome)
	assert.Equal(t, bet.CreditRef, got.CreditRef)
	assert.Nil(t, got.PaidAt)

	missing, err := repo.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBetRepository_SettleOutcomes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	repo, round, user := setupBetFixtures(t)
	ctx := context.Background()

	winner := testutil.CreateTestBet(round.ID, user.ID, models.NumberTypeTriple, 123, 30)
	loser := testutil.CreateTestBet(round.ID, user.ID, models.NumberTypeSingle, 3, 200)
	require.NoError(t, repo.Create(ctx, winner))
	require.NoError(t, repo.Create(ctx, loser))

	winner.Outcome = models.BetOutcomeWon
	winner.WinAmount = 2700
	loser.Outcome = models.BetOutcomeLost
	require.NoError(t, repo.SettleOutcomes(ctx, []*models.Bet{winner, loser}))

	t.Run("outcomes written", func(t *testing.T) {
		got, err := repo.GetByID(ctx, winner.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BetOutcomeWon, got.Outcome)
		assert.Equal(t, int64(2700), got.WinAmount)
	})

	t.Run("replay cannot flip a settled outcome", func(t *testing.T) {
		winner.Outcome = models.BetOutcomeLost
		winner.WinAmount = 0
		require.NoError(t, repo.SettleOutcomes(ctx, []*models.Bet{winner}))

		got, err := repo.GetByID(ctx, winner.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BetOutcomeWon, got.Outcome)
		assert.Equal(t, int64(2700), got.WinAmount)
	})

	t.Run("unpaid winners and paid marker", func(t *testing.T) {
		unpaid, err := repo.GetUnpaidWinners(ctx, round.ID)
		require.NoError(t, err)
		require.Len(t, unpaid, 1)
		assert.Equal(t, winner.ID, unpaid[0].ID)

		paidAt := time.Now().UTC().Truncate(time.Microsecond)
		marked, err := repo.MarkPaid(ctx, winner.ID, paidAt)
		require.NoError(t, err)
		assert.True(t, marked)

		// Second mark is a no-op
		marked, err = repo.MarkPaid(ctx, winner.ID, paidAt)
		require.NoError(t, err)
		assert.False(t, marked)

		unpaid, err = repo.GetUnpaidWinners(ctx, round.ID)
		require.NoError(t, err)
		assert.Empty(t, unpaid)
	})
}

func TestBetRepository_VoidPending(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	repo, round, user := setupBetFixtures(t)
	ctx := context.Background()

	pending := testutil.CreateTestBet(round.ID, user.ID, models.NumberTypeSingle, 5, 100)
	settled := testutil.CreateTestBet(round.ID, user.ID, models.NumberTypeSingle, 6, 100)
	require.NoError(t, repo.Create(ctx, pending))
	require.NoError(t, repo.Create(ctx, settled))

	settled.Outcome = models.BetOutcomeWon
	settled.WinAmount = 900
	require.NoError(t, repo.SettleOutcomes(ctx, []*models.Bet{settled}))

	voided, err := repo.VoidPending(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, voided)

	got, err := repo.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BetOutcomeVoid, got.Outcome)

	// Settled bets are untouched
	got, err = repo.GetByID(ctx, settled.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BetOutcomeWon, got.Outcome)
}
