package service

import (
	"context"
	"iter"
	"time"

	"matka/events"
	"matka/models"
)

// RoundRepository defines the interface for round data access
type RoundRepository interface {
	// GetOrCreate returns the round for the given round's slot key, creating
	// it if absent. Creation is idempotent under concurrency: the slot key
	// (game_class, slot_start) is unique and concurrent callers converge on
	// the same row.
	GetOrCreate(ctx context.Context, round *models.Round) (*models.Round, error)

	// GetByID retrieves a round by its ID, nil if not found
	GetByID(ctx context.Context, id int64) (*models.Round, error)

	// DeclareResult sets the winning number, derived digit and declaration
	// time, moving the round to awaiting_settlement. Returns false if the
	// round already has a result or has left the declarable state.
	DeclareResult(ctx context.Context, roundID int64, winningNumber, digitResult int, declaredAt time.Time) (bool, error)

	// MarkCompleted flips an awaiting_settlement round to completed.
	// Returns false if the round is not awaiting settlement.
	MarkCompleted(ctx context.Context, roundID int64, settledAt time.Time) (bool, error)

	// Cancel terminates an undeclared round. Returns false if the round has
	// a declared result or is already terminal.
	Cancel(ctx context.Context, roundID int64, cancelledAt time.Time) (bool, error)

	// GetAwaitingSettlement returns rounds stuck at the pre-settlement point
	GetAwaitingSettlement(ctx context.Context) ([]*models.Round, error)
}

// BetRepository defines the interface for bet data access
type BetRepository interface {
	// Create persists a new bet record
	Create(ctx context.Context, bet *models.Bet) error

	// GetByID retrieves a bet by its ID, nil if not found
	GetByID(ctx context.Context, id int64) (*models.Bet, error)

	// GetByRound returns all bets for a round
	GetByRound(ctx context.Context, roundID int64) ([]*models.Bet, error)

	// SettleOutcomes writes outcome and win amount for the given bets.
	// Only bets still pending are touched, so replays cannot flip a
	// settled outcome.
	SettleOutcomes(ctx context.Context, bets []*models.Bet) error

	// MarkPaid records that a winning bet's wallet credit succeeded.
	// Returns false if the bet was already marked paid.
	MarkPaid(ctx context.Context, betID int64, paidAt time.Time) (bool, error)

	// GetUnpaidWinners returns won bets whose wallet credit is outstanding
	GetUnpaidWinners(ctx context.Context, roundID int64) ([]*models.Bet, error)

	// VoidPending marks all pending bets of a round void, returning the count
	VoidPending(ctx context.Context, roundID int64) (int, error)
}

// AggregateRepository defines the interface for per-number stake rollups
type AggregateRepository interface {
	// IncrementAndGet atomically adds a stake to the aggregate for
	// (round, type, number) and returns the updated row. The increment and
	// the read are one statement; concurrent stakes serialize on the row.
	IncrementAndGet(ctx context.Context, roundID int64, numberType models.NumberType, number int, amount int64) (*models.NumberAggregate, error)

	// Lock sets the lock flag on a number. Locking is monotonic: the flag is
	// never cleared within a round.
	Lock(ctx context.Context, roundID int64, numberType models.NumberType, number int) error

	// Get returns the aggregate for a single number, nil if no stakes yet
	Get(ctx context.Context, roundID int64, numberType models.NumberType, number int) (*models.NumberAggregate, error)

	// GetByRound returns aggregates sorted by total staked descending,
	// ties broken by ascending number
	GetByRound(ctx context.Context, roundID int64, numberType models.NumberType) ([]*models.NumberAggregate, error)

	// GetLockedNumbers returns the set of locked numbers for a round
	GetLockedNumbers(ctx context.Context, roundID int64, numberType models.NumberType) ([]int, error)
}

// ResultRepository defines the interface for the results archive
type ResultRepository interface {
	// Record appends a declared result. Write-once per round.
	Record(ctx context.Context, result *models.Result) error

	// GetByRound returns the result for a round, nil if none declared
	GetByRound(ctx context.Context, roundID int64) (*models.Result, error)

	// List returns a page of past results ordered by declaration time
	// descending
	List(ctx context.Context, filter models.ResultFilter, limit, offset int) ([]*models.Result, error)
}

// UserRepository defines the interface for local wallet accounts
type UserRepository interface {
	// GetByID retrieves a user by ID, nil if not found
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// Create creates a new user with the initial balance
	Create(ctx context.Context, id int64, username string, initialBalance int64) (*models.User, error)

	// AddBalance adds to a user's balance atomically
	AddBalance(ctx context.Context, id int64, amount int64) error

	// DeductBalance deducts from a user's balance atomically, failing if
	// insufficient funds
	DeductBalance(ctx context.Context, id int64, amount int64) error
}

// WalletTransactionRepository defines the interface for the wallet ledger
type WalletTransactionRepository interface {
	// Record appends a wallet transaction entry
	Record(ctx context.Context, tx *models.WalletTransaction) error

	// Exists reports whether a transaction with the reference was recorded
	Exists(ctx context.Context, reference string) (bool, error)

	// GetByUser returns recent transactions for a user
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.WalletTransaction, error)
}

// WalletService is the external wallet collaborator. Credit must tolerate
// at-least-once delivery: repeated calls with the same reference credit the
// wallet exactly once.
type WalletService interface {
	Credit(ctx context.Context, userID int64, amount int64, reference string) error
}

// StakeService defines the stake ledger operations
type StakeService interface {
	// PlaceBet validates and persists a stake, atomically updating the
	// number aggregate and evaluating the lock policy
	PlaceBet(ctx context.Context, roundID, userID int64, numberType models.NumberType, number int, classTag string, amount int64) (*models.Bet, error)

	// GetAggregates returns the number table for display and lock decisions
	GetAggregates(ctx context.Context, roundID int64, numberType models.NumberType) ([]*models.NumberAggregate, error)

	// GetLockedNumbers returns the locked set for a round and number space
	GetLockedNumbers(ctx context.Context, roundID int64, numberType models.NumberType) ([]int, error)
}

// RoundService defines round lifecycle operations
type RoundService interface {
	// GetCurrentRound returns the round covering "now" for a game class,
	// creating it if it does not exist yet
	GetCurrentRound(ctx context.Context, gameClass string) (*models.Round, error)

	// GetRound retrieves a round by ID
	GetRound(ctx context.Context, roundID int64) (*models.Round, error)

	// CancelRound administratively aborts a round, voiding pending bets
	CancelRound(ctx context.Context, roundID int64) error
}

// ResultService defines result selection and declaration operations
type ResultService interface {
	// ComputeProfitNumbers ranks triple-digit candidates by the operator's
	// payout liability, ascending
	ComputeProfitNumbers(ctx context.Context, roundID int64) ([]*models.ProfitNumber, error)

	// DeclareResult sets the winning number for a round and triggers
	// settlement
	DeclareResult(ctx context.Context, roundID int64, chosenNumber int) (*models.Result, error)

	// GetResult returns the declared result for a round
	GetResult(ctx context.Context, roundID int64) (*models.Result, error)
}

// SettlementService defines the settlement operation
type SettlementService interface {
	// Settle computes outcomes and credits winners exactly once, flipping
	// the round to completed. Safe to retry: prior partial progress is
	// detected, never repeated.
	Settle(ctx context.Context, roundID int64) (*models.SettlementReport, error)
}

// ArchiveService defines historical result queries
type ArchiveService interface {
	// History yields past results ordered by declaration time descending.
	// The sequence is lazy and restartable: each range re-runs the query.
	History(ctx context.Context, filter models.ResultFilter) iter.Seq2[*models.Result, error]
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	RoundRepository() RoundRepository
	BetRepository() BetRepository
	AggregateRepository() AggregateRepository
	ResultRepository() ResultRepository
	UserRepository() UserRepository
	WalletTransactionRepository() WalletTransactionRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
