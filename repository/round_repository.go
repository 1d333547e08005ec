package repository

import (
	"context"
	"fmt"
	"time"

	"matka/database"
	"matka/models"

	"github.com/jackc/pgx/v5"
)

const roundColumns = `
	id, game_class, slot_label, slot_start, slot_end, betting_closes_at,
	status, winning_number, digit_result, declared_at, settled_at,
	cancelled_at, created_at
`

// RoundRepository implements the RoundRepository interface
type RoundRepository struct {
	q queryable
}

// NewRoundRepository creates a new round repository
func NewRoundRepository(db *database.DB) *RoundRepository {
	return &RoundRepository{q: db.Pool}
}

// newRoundRepositoryWithTx creates a new round repository with a transaction
func newRoundRepositoryWithTx(tx queryable) *RoundRepository {
	return &RoundRepository{q: tx}
}

func scanRound(row pgx.Row) (*models.Round, error) {
	var round models.Round
	err := row.Scan(
		&round.ID,
		&round.GameClass,
		&round.SlotLabel,
		&round.SlotStart,
		&round.SlotEnd,
		&round.BettingClosesAt,
		&round.Status,
		&round.WinningNumber,
		&round.DigitResult,
		&round.DeclaredAt,
		&round.SettledAt,
		&round.CancelledAt,
		&round.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &round, nil
}

// GetOrCreate returns the round for the given slot key, creating it if
// absent. The unique index on (game_class, slot_start) makes concurrent
// creation converge on one row: losers of the insert race fall through to
// the select.
func (r *RoundRepository) GetOrCreate(ctx context.Context, round *models.Round) (*models.Round, error) {
	insert := `
		INSERT INTO rounds (game_class, slot_label, slot_start, slot_end, betting_closes_at, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_class, slot_start) DO NOTHING
		RETURNING ` + roundColumns

	created, err := scanRound(r.q.QueryRow(ctx, insert,
		round.GameClass,
		round.SlotLabel,
		round.SlotStart,
		round.SlotEnd,
		round.BettingClosesAt,
		round.Status,
	))
	if err == nil {
		return created, nil
	}
	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("failed to create round for slot %s: %w", round.SlotLabel, err)
	}

	// Conflict: the row already exists
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE game_class = $1 AND slot_start = $2`
	existing, err := scanRound(r.q.QueryRow(ctx, query, round.GameClass, round.SlotStart))
	if err != nil {
		return nil, fmt.Errorf("failed to get round for slot %s: %w", round.SlotLabel, err)
	}
	return existing, nil
}

// GetByID retrieves a round by its ID
func (r *RoundRepository) GetByID(ctx context.Context, id int64) (*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE id = $1`

	round, err := scanRound(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round %d: %w", id, err)
	}
	return round, nil
}

// DeclareResult sets the winning number and moves the round to
// awaiting_settlement. The WHERE clause makes concurrent declarations and
// cancellations mutually exclusive: only a round that is still undeclared
// and non-terminal is updated.
func (r *RoundRepository) DeclareResult(ctx context.Context, roundID int64, winningNumber, digitResult int, declaredAt time.Time) (bool, error) {
	query := `
		UPDATE rounds
		SET status = $1, winning_number = $2, digit_result = $3, declared_at = $4
		WHERE id = $5
		  AND winning_number IS NULL
		  AND status NOT IN ($6, $7)
	`

	tag, err := r.q.Exec(ctx, query,
		models.RoundStatusAwaitingSettlement,
		winningNumber,
		digitResult,
		declaredAt,
		roundID,
		models.RoundStatusCompleted,
		models.RoundStatusCancelled,
	)
	if err != nil {
		return false, fmt.Errorf("failed to declare result for round %d: %w", roundID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkCompleted flips an awaiting_settlement round to completed
func (r *RoundRepository) MarkCompleted(ctx context.Context, roundID int64, settledAt time.Time) (bool, error) {
	query := `
		UPDATE rounds
		SET status = $1, settled_at = $2
		WHERE id = $3 AND status = $4
	`

	tag, err := r.q.Exec(ctx, query,
		models.RoundStatusCompleted,
		settledAt,
		roundID,
		models.RoundStatusAwaitingSettlement,
	)
	if err != nil {
		return false, fmt.Errorf("failed to complete round %d: %w", roundID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Cancel terminates an undeclared round
func (r *RoundRepository) Cancel(ctx context.Context, roundID int64, cancelledAt time.Time) (bool, error) {
	query := `
		UPDATE rounds
		SET status = $1, cancelled_at = $2
		WHERE id = $3
		  AND winning_number IS NULL
		  AND status NOT IN ($4, $5)
	`

	tag, err := r.q.Exec(ctx, query,
		models.RoundStatusCancelled,
		cancelledAt,
		roundID,
		models.RoundStatusCompleted,
		models.RoundStatusCancelled,
	)
	if err != nil {
		return false, fmt.Errorf("failed to cancel round %d: %w", roundID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetAwaitingSettlement returns rounds stuck at the pre-settlement point,
// oldest first
func (r *RoundRepository) GetAwaitingSettlement(ctx context.Context) ([]*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE status = $1 ORDER BY declared_at ASC`

	rows, err := r.q.Query(ctx, query, models.RoundStatusAwaitingSettlement)
	if err != nil {
		return nil, fmt.Errorf("failed to get rounds awaiting settlement: %w", err)
	}
	defer rows.Close()

	var rounds []*models.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, round)
	}
	return rounds, rows.Err()
}
