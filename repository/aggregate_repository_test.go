package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"matka/models"
	"matka/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateRepository_IncrementAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testDB := testutil.SetupTestDatabase(t)

	rounds := NewRoundRepository(testDB.DB)
	repo := NewAggregateRepository(testDB.DB)
	ctx := context.Background()

	round, err := rounds.GetOrCreate(ctx, testutil.CreateTestRound("main", time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC), 45, 5))
	require.NoError(t, err)

	t.Run("first stake creates the row", func(t *testing.T) {
		agg, err := repo.IncrementAndGet(ctx, round.ID, models.NumberTypeTriple, 456, 3000)
		require.NoError(t, err)

		assert.Equal(t, int64(3000), agg.TotalStaked)
		assert.Equal(t, 1, agg.EntryCount)
		assert.False(t, agg.Locked)
	})

	t.Run("subsequent stakes accumulate", func(t *testing.T) {
		agg, err := repo.IncrementAndGet(ctx, round.ID, models.NumberTypeTriple, 456, 2000)
		require.NoError(t, err)

		assert.Equal(t, int64(5000), agg.TotalStaked)
		assert.Equal(t, 2, agg.EntryCount)
	})

	t.Run("number spaces are independent", func(t *testing.T) {
		agg, err := repo.IncrementAndGet(ctx, round.ID, models.NumberTypeSingle, 4, 100)
		require.NoError(t, err)

		assert.Equal(t, int64(100), agg.TotalStaked)
	})

	t.Run("concurrent stakes serialize on the row", func(t *testing.T) {
		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.IncrementAndGet(ctx, round.ID, models.NumberTypeTriple, 789, 100)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		agg, err := repo.Get(ctx, round.ID, models.NumberTypeTriple, 789)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), agg.TotalStaked)
		assert.Equal(t, 10, agg.EntryCount)
	})
}

func TestAggregateRepository_Lock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testDB := testutil.SetupTestDatabase(t)

	rounds := NewRoundRepository(testDB.DB)
	repo := NewAggregateRepository(testDB.DB)
	ctx := context.Background()

	round, err := rounds.GetOrCreate(ctx, testutil.CreateTestRound("main", time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC), 45, 5))
	require.NoError(t, err)

	_, err = repo.IncrementAndGet(ctx, round.ID, models.NumberTypeTriple, 456, 10000)
	require.NoError(t, err)
	_, err = repo.IncrementAndGet(ctx, round.ID, models.NumberTypeTriple, 123, 500)
	require.NoError(t, err)

	require.NoError(t, repo.Lock(ctx, round.ID, models.NumberTypeTriple, 456))

	t.Run("lock flag persists", func(t *testing.T) {
		agg, err := repo.Get(ctx, round.ID, models.NumberTypeTriple, 456)
		require.NoError(t, err)
		assert.True(t, agg.Locked)
	})

	t.Run("lock survives further increments", func(t *testing.T) {
		agg, err := repo.IncrementAndGet(ctx, round.ID, models.NumberTypeTriple, 456, 100)
		require.NoError(t, err)
		assert.True(t, agg.Locked)
	})

	t.Run("locked set", func(t *testing.T) {
		locked, err := repo.GetLockedNumbers(ctx, round.ID, models.NumberTypeTriple)
		require.NoError(t, err)
		assert.Equal(t, []int{456}, locked)
	})

	t.Run("ordering by total staked", func(t *testing.T) {
		aggregates, err := repo.GetByRound(ctx, round.ID, models.NumberTypeTriple)
		require.NoError(t, err)
		require.Len(t, aggregates, 2)
		assert.Equal(t, 456, aggregates[0].Number)
		assert.Equal(t, 123, aggregates[1].Number)
	})

	t.Run("get missing aggregate", func(t *testing.T) {
		agg, err := repo.Get(ctx, round.ID, models.NumberTypeTriple, 999)
		require.NoError(t, err)
		assert.Nil(t, agg)
	})
}
