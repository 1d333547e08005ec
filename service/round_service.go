package service

import (
	"context"
	"fmt"
	"time"

	"matka/config"
	"matka/events"
	"matka/models"
)

type roundService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
	now        func() time.Time
}

// NewRoundService creates a new round scheduler service
func NewRoundService(uowFactory UnitOfWorkFactory, cfg *config.Config) RoundService {
	return &roundService{
		uowFactory: uowFactory,
		config:     cfg,
		now:        time.Now,
	}
}

// GetCurrentRound returns the round covering "now" for a game class,
// creating it if none exists for the current slot. Creation is keyed by the
// slot boundaries, so concurrent callers cannot produce duplicate rounds.
func (s *roundService) GetCurrentRound(ctx context.Context, gameClass string) (*models.Round, error) {
	slot := CurrentSlot(s.now(), s.config.SlotMinutes)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	round := &models.Round{
		GameClass:       gameClass,
		SlotLabel:       slot.Label(),
		SlotStart:       slot.Start,
		SlotEnd:         slot.End,
		BettingClosesAt: slot.End.Add(-time.Duration(s.config.AdminLeadMinutes) * time.Minute),
		Status:          models.RoundStatusScheduled,
	}

	round, err := uow.RoundRepository().GetOrCreate(ctx, round)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create round: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return round, nil
}

// GetRound retrieves a round by ID
func (s *roundService) GetRound(ctx context.Context, roundID int64) (*models.Round, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	round, err := uow.RoundRepository().GetByID(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	if round == nil {
		return nil, ErrRoundNotFound
	}

	return round, nil
}

// CancelRound administratively aborts a round. All pending bets are voided
// with zero win amount; refunds are an external policy decision. The cancel
// is mutually exclusive with a concurrent declaration: whichever conditional
// update lands first wins, the other caller gets a state-conflict error.
func (s *roundService) CancelRound(ctx context.Context, roundID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	round, err := uow.RoundRepository().GetByID(ctx, roundID)
	if err != nil {
		return fmt.Errorf("failed to get round: %w", err)
	}
	if round == nil {
		return ErrRoundNotFound
	}
	if round.IsTerminal() {
		return fmt.Errorf("round %d is already %s: %w", roundID, round.Status, ErrAlreadySettled)
	}

	cancelled, err := uow.RoundRepository().Cancel(ctx, roundID, s.now())
	if err != nil {
		return fmt.Errorf("failed to cancel round: %w", err)
	}
	if !cancelled {
		// Lost the race against a declaration or another cancel
		return fmt.Errorf("round %d has left its cancellable state: %w", roundID, ErrAlreadyDeclared)
	}

	voided, err := uow.BetRepository().VoidPending(ctx, roundID)
	if err != nil {
		return fmt.Errorf("failed to void pending bets: %w", err)
	}

	uow.EventBus().Publish(events.RoundCancelledEvent{
		RoundID:    roundID,
		VoidedBets: voided,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
