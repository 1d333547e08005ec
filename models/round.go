package models

import (
	"time"
)

// RoundStatus represents the lifecycle state of a betting round
type RoundStatus string

const (
	RoundStatusScheduled   RoundStatus = "scheduled"
	RoundStatusBettingOpen RoundStatus = "betting_open"
	RoundStatusAdminPeriod RoundStatus = "admin_period"

	// RoundStatusAwaitingSettlement is the pre-settlement point: a winning
	// number has been declared but wallets are not fully paid yet. Settle
	// may be retried from here.
	RoundStatusAwaitingSettlement RoundStatus = "awaiting_settlement"

	RoundStatusCompleted RoundStatus = "completed"
	RoundStatusCancelled RoundStatus = "cancelled"
)

// Round represents a single betting period within a time slot
type Round struct {
	ID              int64       `db:"id"`
	GameClass       string      `db:"game_class"`
	SlotLabel       string      `db:"slot_label"`
	SlotStart       time.Time   `db:"slot_start"`
	SlotEnd         time.Time   `db:"slot_end"`
	BettingClosesAt time.Time   `db:"betting_closes_at"`
	Status          RoundStatus `db:"status"`
	WinningNumber   *int        `db:"winning_number"`
	DigitResult     *int        `db:"digit_result"`
	DeclaredAt      *time.Time  `db:"declared_at"`
	SettledAt       *time.Time  `db:"settled_at"`
	CancelledAt     *time.Time  `db:"cancelled_at"`
	CreatedAt       time.Time   `db:"created_at"`
}

// EffectiveStatus computes the round status as of a point in time. The
// stored status only records terminal transitions (declaration, settlement,
// cancellation); the time-driven states are derived from slot boundaries so
// that merely querying a round never mutates it.
func (r *Round) EffectiveStatus(now time.Time) RoundStatus {
	switch r.Status {
	case RoundStatusAwaitingSettlement, RoundStatusCompleted, RoundStatusCancelled:
		return r.Status
	}

	switch {
	case now.Before(r.SlotStart):
		return RoundStatusScheduled
	case now.Before(r.BettingClosesAt):
		return RoundStatusBettingOpen
	default:
		return RoundStatusAdminPeriod
	}
}

// IsTerminal checks if the round has reached a terminal state
func (r *Round) IsTerminal() bool {
	return r.Status == RoundStatusCompleted || r.Status == RoundStatusCancelled
}

// CanAcceptBets checks if the round accepts bets at the given time
func (r *Round) CanAcceptBets(now time.Time) bool {
	return r.EffectiveStatus(now) == RoundStatusBettingOpen
}

// InAdminPeriod checks if the round is closed for betting but not yet declared
func (r *Round) InAdminPeriod(now time.Time) bool {
	return r.EffectiveStatus(now) == RoundStatusAdminPeriod
}

// HasResult checks if a winning number has been declared
func (r *Round) HasResult() bool {
	return r.WinningNumber != nil
}
