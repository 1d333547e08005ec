package repository

import (
	"context"
	"fmt"

	"matka/database"
	"matka/models"

	"github.com/jackc/pgx/v5"
)

// AggregateRepository implements the AggregateRepository interface
type AggregateRepository struct {
	q queryable
}

// NewAggregateRepository creates a new aggregate repository
func NewAggregateRepository(db *database.DB) *AggregateRepository {
	return &AggregateRepository{q: db.Pool}
}

// newAggregateRepositoryWithTx creates a new aggregate repository with a transaction
func newAggregateRepositoryWithTx(tx queryable) *AggregateRepository {
	return &AggregateRepository{q: tx}
}

// IncrementAndGet atomically adds a stake to the aggregate and returns the
// updated row. The upsert is a single statement, so two concurrent stakes on
// the same number serialize on the row and each observes a total that
// includes every stake accepted before it.
func (r *AggregateRepository) IncrementAndGet(ctx context.Context, roundID int64, numberType models.NumberType, number int, amount int64) (*models.NumberAggregate, error) {
	query := `
		INSERT INTO number_aggregates (round_id, number_type, number, total_staked, entry_count)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (round_id, number_type, number) DO UPDATE
		SET total_staked = number_aggregates.total_staked + EXCLUDED.total_staked,
		    entry_count = number_aggregates.entry_count + 1
		RETURNING round_id, number_type, number, total_staked, entry_count, locked
	`

	var agg models.NumberAggregate
	err := r.q.QueryRow(ctx, query, roundID, numberType, number, amount).Scan(
		&agg.RoundID,
		&agg.NumberType,
		&agg.Number,
		&agg.TotalStaked,
		&agg.EntryCount,
		&agg.Locked,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to increment aggregate for number %d: %w", number, err)
	}
	return &agg, nil
}

// Lock sets the lock flag on a number. The flag only ever goes from false to
// true within a round.
func (r *AggregateRepository) Lock(ctx context.Context, roundID int64, numberType models.NumberType, number int) error {
	query := `
		UPDATE number_aggregates
		SET locked = TRUE
		WHERE round_id = $1 AND number_type = $2 AND number = $3
	`

	if _, err := r.q.Exec(ctx, query, roundID, numberType, number); err != nil {
		return fmt.Errorf("failed to lock number %d: %w", number, err)
	}
	return nil
}

// Get returns the aggregate for a single number, nil if no stakes yet
func (r *AggregateRepository) Get(ctx context.Context, roundID int64, numberType models.NumberType, number int) (*models.NumberAggregate, error) {
	query := `
		SELECT round_id, number_type, number, total_staked, entry_count, locked
		FROM number_aggregates
		WHERE round_id = $1 AND number_type = $2 AND number = $3
	`

	var agg models.NumberAggregate
	err := r.q.QueryRow(ctx, query, roundID, numberType, number).Scan(
		&agg.RoundID,
		&agg.NumberType,
		&agg.Number,
		&agg.TotalStaked,
		&agg.EntryCount,
		&agg.Locked,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get aggregate for number %d: %w", number, err)
	}
	return &agg, nil
}

// GetByRound returns aggregates sorted by total staked descending, ties
// broken by ascending number
func (r *AggregateRepository) GetByRound(ctx context.Context, roundID int64, numberType models.NumberType) ([]*models.NumberAggregate, error) {
	query := `
		SELECT round_id, number_type, number, total_staked, entry_count, locked
		FROM number_aggregates
		WHERE round_id = $1 AND number_type = $2
		ORDER BY total_staked DESC, number ASC
	`

	rows, err := r.q.Query(ctx, query, roundID, numberType)
	if err != nil {
		return nil, fmt.Errorf("failed to get aggregates for round %d: %w", roundID, err)
	}
	defer rows.Close()

	var aggregates []*models.NumberAggregate
	for rows.Next() {
		var agg models.NumberAggregate
		err := rows.Scan(
			&agg.RoundID,
			&agg.NumberType,
			&agg.Number,
			&agg.TotalStaked,
			&agg.EntryCount,
			&agg.Locked,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan aggregate: %w", err)
		}
		aggregates = append(aggregates, &agg)
	}
	return aggregates, rows.Err()
}

// GetLockedNumbers returns the locked numbers for a round, ascending
func (r *AggregateRepository) GetLockedNumbers(ctx context.Context, roundID int64, numberType models.NumberType) ([]int, error) {
	query := `
		SELECT number
		FROM number_aggregates
		WHERE round_id = $1 AND number_type = $2 AND locked = TRUE
		ORDER BY number ASC
	`

	rows, err := r.q.Query(ctx, query, roundID, numberType)
	if err != nil {
		return nil, fmt.Errorf("failed to get locked numbers for round %d: %w", roundID, err)
	}
	defer rows.Close()

	var numbers []int
	for rows.Next() {
		var number int
		if err := rows.Scan(&number); err != nil {
			return nil, fmt.Errorf("failed to scan locked number: %w", err)
		}
		numbers = append(numbers, number)
	}
	return numbers, rows.Err()
}
