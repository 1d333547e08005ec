package service

import (
	"fmt"
	"time"
)

// Slot is a fixed-duration window of the day during which exactly one round
// per game class is active.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Label renders the slot in the form shown to operators, e.g. "10:30-11:15"
func (s Slot) Label() string {
	return fmt.Sprintf("%s-%s", s.Start.Format("15:04"), s.End.Format("15:04"))
}

// CurrentSlot partitions the day into consecutive windows of slotMinutes,
// anchored at midnight UTC, and returns the window containing the given
// instant. Deterministic: the same instant always maps to the same slot, so
// concurrent callers derive the same slot key.
func CurrentSlot(now time.Time, slotMinutes int) Slot {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	elapsed := now.Sub(midnight)
	slotLen := time.Duration(slotMinutes) * time.Minute
	index := int(elapsed / slotLen)

	start := midnight.Add(time.Duration(index) * slotLen)
	return Slot{Start: start, End: start.Add(slotLen)}
}

// NextSlot returns the slot immediately after the one containing now
func NextSlot(now time.Time, slotMinutes int) Slot {
	current := CurrentSlot(now, slotMinutes)
	slotLen := time.Duration(slotMinutes) * time.Minute
	return Slot{Start: current.End, End: current.End.Add(slotLen)}
}
