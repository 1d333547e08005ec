package repository

import (
	"context"
	"fmt"

	"matka/database"
	"matka/events"
	"matka/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	roundRepo        service.RoundRepository
	betRepo          service.BetRepository
	aggregateRepo    service.AggregateRepository
	resultRepo       service.ResultRepository
	userRepo         service.UserRepository
	walletTxRepo     service.WalletTransactionRepository
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.roundRepo = newRoundRepositoryWithTx(tx)
	u.betRepo = newBetRepositoryWithTx(tx)
	u.aggregateRepo = newAggregateRepositoryWithTx(tx)
	u.resultRepo = newResultRepositoryWithTx(tx)
	u.userRepo = newUserRepositoryWithTx(tx)
	u.walletTxRepo = newWalletTransactionRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// RoundRepository returns the round repository for this unit of work
func (u *unitOfWork) RoundRepository() service.RoundRepository {
	if u.roundRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.roundRepo
}

// BetRepository returns the bet repository for this unit of work
func (u *unitOfWork) BetRepository() service.BetRepository {
	if u.betRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.betRepo
}

// AggregateRepository returns the aggregate repository for this unit of work
func (u *unitOfWork) AggregateRepository() service.AggregateRepository {
	if u.aggregateRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.aggregateRepo
}

// ResultRepository returns the result repository for this unit of work
func (u *unitOfWork) ResultRepository() service.ResultRepository {
	if u.resultRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.resultRepo
}

// UserRepository returns the user repository for this unit of work
func (u *unitOfWork) UserRepository() service.UserRepository {
	if u.userRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.userRepo
}

// WalletTransactionRepository returns the wallet transaction repository for this unit of work
func (u *unitOfWork) WalletTransactionRepository() service.WalletTransactionRepository {
	if u.walletTxRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.walletTxRepo
}

// EventBus returns the transactional event bus for this unit of work.
// Events published here are held until Commit and dropped on Rollback.
func (u *unitOfWork) EventBus() service.EventPublisher {
	return u.transactionalBus
}
