package models

import "time"

// Result is an archived round outcome
type Result struct {
	ID            int64     `db:"id"`
	RoundID       int64     `db:"round_id"`
	GameClass     string    `db:"game_class"`
	SlotLabel     string    `db:"slot_label"`
	WinningNumber int       `db:"winning_number"`
	DigitResult   int       `db:"digit_result"`
	DeclaredAt    time.Time `db:"declared_at"`
	CreatedAt     time.Time `db:"created_at"`
}

// ResultFilter narrows a history query. Zero-value fields are ignored.
type ResultFilter struct {
	GameClass string
	SlotLabel string
	From      *time.Time
	To        *time.Time
}
