package repository

import (
	"context"
	"fmt"
	"time"

	"matka/database"
	"matka/models"

	"github.com/jackc/pgx/v5"
)

const betColumns = `
	id, round_id, user_id, number_type, number, class_tag, amount,
	outcome, win_amount, credit_ref, paid_at, created_at
`

// BetRepository implements the BetRepository interface
type BetRepository struct {
	q queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

// newBetRepositoryWithTx creates a new bet repository with a transaction
func newBetRepositoryWithTx(tx queryable) *BetRepository {
	return &BetRepository{q: tx}
}

func scanBet(row pgx.Row) (*models.Bet, error) {
	var bet models.Bet
	err := row.Scan(
		&bet.ID,
		&bet.RoundID,
		&bet.UserID,
		&bet.NumberType,
		&bet.Number,
		&bet.ClassTag,
		&bet.Amount,
		&bet.Outcome,
		&bet.WinAmount,
		&bet.CreditRef,
		&bet.PaidAt,
		&bet.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &bet, nil
}

// Create persists a new bet record
func (r *BetRepository) Create(ctx context.Context, bet *models.Bet) error {
	query := `
		INSERT INTO bets (round_id, user_id, number_type, number, class_tag, amount, outcome, credit_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.RoundID,
		bet.UserID,
		bet.NumberType,
		bet.Number,
		bet.ClassTag,
		bet.Amount,
		bet.Outcome,
		bet.CreditRef,
	).Scan(&bet.ID, &bet.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create bet for user %d: %w", bet.UserID, err)
	}
	return nil
}

// GetByID retrieves a bet by its ID
func (r *BetRepository) GetByID(ctx context.Context, id int64) (*models.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE id = $1`

	bet, err := scanBet(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet %d: %w", id, err)
	}
	return bet, nil
}

// GetByRound returns all bets for a round
func (r *BetRepository) GetByRound(ctx context.Context, roundID int64) ([]*models.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE round_id = $1 ORDER BY id ASC`

	rows, err := r.q.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for round %d: %w", roundID, err)
	}
	defer rows.Close()

	var bets []*models.Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}
	return bets, rows.Err()
}

// SettleOutcomes writes outcome and win amount for the given bets. The
// pending guard makes replays harmless: a bet whose outcome was already
// written keeps it.
func (r *BetRepository) SettleOutcomes(ctx context.Context, bets []*models.Bet) error {
	query := `
		UPDATE bets
		SET outcome = $1, win_amount = $2
		WHERE id = $3 AND outcome = $4
	`

	for _, bet := range bets {
		if _, err := r.q.Exec(ctx, query, bet.Outcome, bet.WinAmount, bet.ID, models.BetOutcomePending); err != nil {
			return fmt.Errorf("failed to settle bet %d: %w", bet.ID, err)
		}
	}
	return nil
}

// MarkPaid records that a winning bet's wallet credit succeeded
func (r *BetRepository) MarkPaid(ctx context.Context, betID int64, paidAt time.Time) (bool, error) {
	query := `
		UPDATE bets
		SET paid_at = $1
		WHERE id = $2 AND outcome = $3 AND paid_at IS NULL
	`

	tag, err := r.q.Exec(ctx, query, paidAt, betID, models.BetOutcomeWon)
	if err != nil {
		return false, fmt.Errorf("failed to mark bet %d paid: %w", betID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetUnpaidWinners returns won bets whose wallet credit is outstanding
func (r *BetRepository) GetUnpaidWinners(ctx context.Context, roundID int64) ([]*models.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE round_id = $1 AND outcome = $2 AND paid_at IS NULL ORDER BY id ASC`

	rows, err := r.q.Query(ctx, query, roundID, models.BetOutcomeWon)
	if err != nil {
		return nil, fmt.Errorf("failed to get unpaid winners for round %d: %w", roundID, err)
	}
	defer rows.Close()

	var bets []*models.Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}
	return bets, rows.Err()
}

// VoidPending marks all pending bets of a round void
func (r *BetRepository) VoidPending(ctx context.Context, roundID int64) (int, error) {
	query := `
		UPDATE bets
		SET outcome = $1, win_amount = 0
		WHERE round_id = $2 AND outcome = $3
	`

	tag, err := r.q.Exec(ctx, query, models.BetOutcomeVoid, roundID, models.BetOutcomePending)
	if err != nil {
		return 0, fmt.Errorf("failed to void pending bets for round %d: %w", roundID, err)
	}
	return int(tag.RowsAffected()), nil
}
