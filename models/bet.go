package models

import "time"

// NumberType distinguishes the two number spaces bets are placed in
type NumberType string

const (
	NumberTypeSingle NumberType = "single"
	NumberTypeTriple NumberType = "triple"
)

// BetOutcome represents the settlement outcome of a bet
type BetOutcome string

const (
	BetOutcomePending BetOutcome = "pending"
	BetOutcomeWon     BetOutcome = "won"
	BetOutcomeLost    BetOutcome = "lost"
	// BetOutcomeVoid marks bets on a cancelled round. Win amount stays zero;
	// whether stakes are refunded is an external policy decision.
	BetOutcomeVoid BetOutcome = "void"
)

// Bet represents a single stake on a number within a round
type Bet struct {
	ID         int64      `db:"id"`
	RoundID    int64      `db:"round_id"`
	UserID     int64      `db:"user_id"`
	NumberType NumberType `db:"number_type"`
	Number     int        `db:"number"`
	ClassTag   string     `db:"class_tag"`
	Amount     int64      `db:"amount"`
	Outcome    BetOutcome `db:"outcome"`
	WinAmount  int64      `db:"win_amount"`
	CreditRef  string     `db:"credit_ref"`
	PaidAt     *time.Time `db:"paid_at"`
	CreatedAt  time.Time  `db:"created_at"`
}

// IsPending checks if the bet has not been settled yet
func (b *Bet) IsPending() bool {
	return b.Outcome == BetOutcomePending
}

// Wins reports whether this bet matches the declared winning number and its
// derived single digit. Triple bets match the full winning number; single
// bets match the derived digit.
func (b *Bet) Wins(winningNumber, digitResult int) bool {
	switch b.NumberType {
	case NumberTypeTriple:
		return b.Number == winningNumber
	case NumberTypeSingle:
		return b.Number == digitResult
	}
	return false
}

// SettlementReport summarizes the outcome of settling a round
type SettlementReport struct {
	RoundID       int64
	WinningNumber int
	DigitResult   int
	TotalBets     int
	WonBets       int
	LostBets      int
	TotalStaked   int64
	TotalPaidOut  int64
	// CreditsSkipped counts winning bets that were already paid by a prior
	// settlement attempt and therefore not credited again.
	CreditsSkipped int
}
