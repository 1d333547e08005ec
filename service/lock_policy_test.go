package service

import (
	"testing"

	"matka/models"

	"github.com/stretchr/testify/assert"
)

func testThresholds() models.LockThresholds {
	return models.LockThresholds{
		SingleThreshold: 50000,
		TripleThresholds: map[string]int64{
			"A": 10000,
			"B": 12000,
			"C": 15000,
		},
	}
}

func TestLockPolicyIsLocked(t *testing.T) {
	policy := NewLockPolicy(testThresholds())

	t.Run("nil aggregate is never locked", func(t *testing.T) {
		assert.False(t, policy.IsLocked(nil, "A"))
	})

	t.Run("below threshold", func(t *testing.T) {
		agg := &models.NumberAggregate{NumberType: models.NumberTypeTriple, TotalStaked: 9999}
		assert.False(t, policy.IsLocked(agg, "A"))
	})

	t.Run("exactly at threshold locks", func(t *testing.T) {
		agg := &models.NumberAggregate{NumberType: models.NumberTypeTriple, TotalStaked: 10000}
		assert.True(t, policy.IsLocked(agg, "A"))
	})

	t.Run("threshold depends on class tag", func(t *testing.T) {
		agg := &models.NumberAggregate{NumberType: models.NumberTypeTriple, TotalStaked: 11000}
		assert.True(t, policy.IsLocked(agg, "A"))
		assert.False(t, policy.IsLocked(agg, "B"))
	})

	t.Run("lock flag wins regardless of total", func(t *testing.T) {
		agg := &models.NumberAggregate{NumberType: models.NumberTypeTriple, TotalStaked: 1, Locked: true}
		assert.True(t, policy.IsLocked(agg, "C"))
	})

	t.Run("single digit space uses its own threshold", func(t *testing.T) {
		agg := &models.NumberAggregate{NumberType: models.NumberTypeSingle, TotalStaked: 49999}
		assert.False(t, policy.IsLocked(agg, "A"))
		agg.TotalStaked = 50000
		assert.True(t, policy.IsLocked(agg, "A"))
	})
}
