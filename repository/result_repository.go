package repository

import (
	"context"
	"fmt"

	"matka/database"
	"matka/models"

	"github.com/jackc/pgx/v5"
)

// ResultRepository implements the ResultRepository interface
type ResultRepository struct {
	q queryable
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *database.DB) *ResultRepository {
	return &ResultRepository{q: db.Pool}
}

// newResultRepositoryWithTx creates a new result repository with a transaction
func newResultRepositoryWithTx(tx queryable) *ResultRepository {
	return &ResultRepository{q: tx}
}

// Record appends a declared result. The unique index on round_id enforces
// write-once.
func (r *ResultRepository) Record(ctx context.Context, result *models.Result) error {
	query := `
		INSERT INTO results (round_id, game_class, slot_label, winning_number, digit_result, declared_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		result.RoundID,
		result.GameClass,
		result.SlotLabel,
		result.WinningNumber,
		result.DigitResult,
		result.DeclaredAt,
	).Scan(&result.ID, &result.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record result for round %d: %w", result.RoundID, err)
	}
	return nil
}

// GetByRound returns the result for a round, nil if none declared
func (r *ResultRepository) GetByRound(ctx context.Context, roundID int64) (*models.Result, error) {
	query := `
		SELECT id, round_id, game_class, slot_label, winning_number, digit_result, declared_at, created_at
		FROM results
		WHERE round_id = $1
	`

	var result models.Result
	err := r.q.QueryRow(ctx, query, roundID).Scan(
		&result.ID,
		&result.RoundID,
		&result.GameClass,
		&result.SlotLabel,
		&result.WinningNumber,
		&result.DigitResult,
		&result.DeclaredAt,
		&result.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result for round %d: %w", roundID, err)
	}
	return &result, nil
}

// List returns a page of past results ordered by declaration time
// descending. Zero-value filter fields are ignored.
func (r *ResultRepository) List(ctx context.Context, filter models.ResultFilter, limit, offset int) ([]*models.Result, error) {
	query := `
		SELECT id, round_id, game_class, slot_label, winning_number, digit_result, declared_at, created_at
		FROM results
		WHERE ($1 = '' OR game_class = $1)
		  AND ($2 = '' OR slot_label = $2)
		  AND ($3::timestamptz IS NULL OR declared_at >= $3)
		  AND ($4::timestamptz IS NULL OR declared_at < $4)
		ORDER BY declared_at DESC, id DESC
		LIMIT $5 OFFSET $6
	`

	rows, err := r.q.Query(ctx, query, filter.GameClass, filter.SlotLabel, filter.From, filter.To, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []*models.Result
	for rows.Next() {
		var result models.Result
		err := rows.Scan(
			&result.ID,
			&result.RoundID,
			&result.GameClass,
			&result.SlotLabel,
			&result.WinningNumber,
			&result.DigitResult,
			&result.DeclaredAt,
			&result.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, &result)
	}
	return results, rows.Err()
}
