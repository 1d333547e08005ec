package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testRound() *Round {
	start := time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)
	return &Round{
		ID:              1,
		GameClass:       "main",
		SlotLabel:       "10:30-11:15",
		SlotStart:       start,
		SlotEnd:         start.Add(45 * time.Minute),
		BettingClosesAt: start.Add(40 * time.Minute),
		Status:          RoundStatusScheduled,
	}
}

func TestRoundEffectiveStatus(t *testing.T) {
	round := testRound()

	t.Run("before slot start", func(t *testing.T) {
		now := round.SlotStart.Add(-time.Minute)
		assert.Equal(t, RoundStatusScheduled, round.EffectiveStatus(now))
		assert.False(t, round.CanAcceptBets(now))
	})

	t.Run("during betting window", func(t *testing.T) {
		now := round.SlotStart.Add(10 * time.Minute)
		assert.Equal(t, RoundStatusBettingOpen, round.EffectiveStatus(now))
		assert.True(t, round.CanAcceptBets(now))
	})

	t.Run("exactly at slot start", func(t *testing.T) {
		assert.Equal(t, RoundStatusBettingOpen, round.EffectiveStatus(round.SlotStart))
	})

	t.Run("exactly at betting close", func(t *testing.T) {
		now := round.BettingClosesAt
		assert.Equal(t, RoundStatusAdminPeriod, round.EffectiveStatus(now))
		assert.False(t, round.CanAcceptBets(now))
		assert.True(t, round.InAdminPeriod(now))
	})

	t.Run("after slot end stays in admin period until declared", func(t *testing.T) {
		now := round.SlotEnd.Add(time.Hour)
		assert.Equal(t, RoundStatusAdminPeriod, round.EffectiveStatus(now))
		assert.True(t, round.InAdminPeriod(now))
	})

	t.Run("terminal statuses pass through", func(t *testing.T) {
		for _, status := range []RoundStatus{RoundStatusAwaitingSettlement, RoundStatusCompleted, RoundStatusCancelled} {
			r := testRound()
			r.Status = status
			// Even at a time when the slot would be betting_open
			now := r.SlotStart.Add(10 * time.Minute)
			assert.Equal(t, status, r.EffectiveStatus(now))
			assert.False(t, r.CanAcceptBets(now))
		}
	})
}

func TestRoundIsTerminal(t *testing.T) {
	round := testRound()
	assert.False(t, round.IsTerminal())

	round.Status = RoundStatusAwaitingSettlement
	assert.False(t, round.IsTerminal())

	round.Status = RoundStatusCompleted
	assert.True(t, round.IsTerminal())

	round.Status = RoundStatusCancelled
	assert.True(t, round.IsTerminal())
}

func TestRoundHasResult(t *testing.T) {
	round := testRound()
	assert.False(t, round.HasResult())

	winning := 123
	round.WinningNumber = &winning
	assert.True(t, round.HasResult())
}
