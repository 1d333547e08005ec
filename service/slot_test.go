package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCurrentSlot(t *testing.T) {
	t.Run("maps instant into its window", func(t *testing.T) {
		now := time.Date(2024, 6, 1, 10, 50, 12, 0, time.UTC)
		slot := CurrentSlot(now, 45)

		assert.Equal(t, time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC), slot.Start)
		assert.Equal(t, time.Date(2024, 6, 1, 11, 15, 0, 0, time.UTC), slot.End)
		assert.Equal(t, "10:30-11:15", slot.Label())
	})

	t.Run("deterministic across callers", func(t *testing.T) {
		now := time.Date(2024, 6, 1, 23, 59, 59, 0, time.UTC)
		assert.Equal(t, CurrentSlot(now, 45), CurrentSlot(now, 45))
	})

	t.Run("midnight boundary", func(t *testing.T) {
		now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		slot := CurrentSlot(now, 45)
		assert.Equal(t, now, slot.Start)
	})

	t.Run("slot start is inclusive, slot end exclusive", func(t *testing.T) {
		boundary := time.Date(2024, 6, 1, 11, 15, 0, 0, time.UTC)
		slot := CurrentSlot(boundary, 45)
		assert.Equal(t, boundary, slot.Start)
	})

	t.Run("normalizes to UTC", func(t *testing.T) {
		loc := time.FixedZone("plus-two", 2*60*60)
		local := time.Date(2024, 6, 1, 12, 50, 0, 0, loc) // 10:50 UTC
		slot := CurrentSlot(local, 45)
		assert.Equal(t, time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC), slot.Start)
	})
}

func TestNextSlot(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 50, 0, 0, time.UTC)
	next := NextSlot(now, 45)

	assert.Equal(t, time.Date(2024, 6, 1, 11, 15, 0, 0, time.UTC), next.Start)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), next.End)
}
