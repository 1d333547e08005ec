package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"matka/config"
	"matka/events"
	"matka/models"

	log "github.com/sirupsen/logrus"
)

type resultService struct {
	uowFactory UnitOfWorkFactory
	payouts    models.PayoutTable
	settlement SettlementService
	now        func() time.Time
}

// NewResultService creates a new result selector service. The settlement
// service is invoked after a successful declaration.
func NewResultService(uowFactory UnitOfWorkFactory, cfg *config.Config, settlement SettlementService) ResultService {
	return &resultService{
		uowFactory: uowFactory,
		payouts:    cfg.Payouts,
		settlement: settlement,
		now:        time.Now,
	}
}

// ComputeProfitNumbers ranks every triple-digit candidate by the operator's
// payout liability if that candidate were declared: all triple bets on the
// candidate plus all single bets on its derived digit, each multiplied by
// its class's payout multiplier. Sorted ascending so the cheapest
// declarations come first. Locked candidates are included with their flag
// set; they cannot be declared but the operator sees why.
func (s *resultService) ComputeProfitNumbers(ctx context.Context, roundID int64) ([]*models.ProfitNumber, error) {
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

	bets, err := uow.BetRepository().GetByRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets: %w", err)
	}

	lockedNumbers, err := uow.AggregateRepository().GetLockedNumbers(ctx, roundID, models.NumberTypeTriple)
	if err != nil {
		return nil, fmt.Errorf("failed to get locked numbers: %w", err)
	}

	// Bucket liabilities once, then price every candidate. Single-digit
	// liability attaches to a candidate through the shared derived-digit
	// mapping, the same one settlement uses.
	var tripleLiability [models.MaxTripleNumber + 1]int64
	var singleLiability [models.MaxSingleNumber + 1]int64
	for _, bet := range bets {
		if bet.Outcome == models.BetOutcomeVoid {
			continue
		}
		payout := bet.Amount * s.payouts.MultiplierFor(bet.NumberType, bet.ClassTag)
		switch bet.NumberType {
		case models.NumberTypeTriple:
			tripleLiability[bet.Number] += payout
		case models.NumberTypeSingle:
			singleLiability[bet.Number] += payout
		}
	}

	locked := make(map[int]bool, len(lockedNumbers))
	for _, n := range lockedNumbers {
		locked[n] = true
	}

	candidates := make([]*models.ProfitNumber, 0, models.MaxTripleNumber+1)
	for n := models.MinTripleNumber; n <= models.MaxTripleNumber; n++ {
		candidates = append(candidates, &models.ProfitNumber{
			Number:    n,
			Liability: tripleLiability[n] + singleLiability[models.DeriveDigit(n)],
			Locked:    locked[n],
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Liability != candidates[j].Liability {
			return candidates[i].Liability < candidates[j].Liability
		}
		return candidates[i].Number < candidates[j].Number
	})

	return candidates, nil
}

// DeclareResult sets the winning number for a round and triggers settlement.
// The engine never declares on its own; this is always an operator action.
func (s *resultService) DeclareResult(ctx context.Context, roundID int64, chosenNumber int) (*models.Result, error) {
	if !models.ValidNumber(models.NumberTypeTriple, chosenNumber) {
		return nil, fmt.Errorf("winning number %d: %w", chosenNumber, ErrInvalidNumber)
	}

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
	if round.HasResult() {
		return nil, fmt.Errorf("round %d: %w", roundID, ErrAlreadyDeclared)
	}
	if !round.InAdminPeriod(s.now()) {
		return nil, fmt.Errorf("round %d is %s: %w", roundID, round.EffectiveStatus(s.now()), ErrRoundNotInAdminPeriod)
	}

	// A locked number can never be declared the winner
	aggregate, err := uow.AggregateRepository().Get(ctx, roundID, models.NumberTypeTriple, chosenNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get number aggregate: %w", err)
	}
	if aggregate != nil && aggregate.Locked {
		return nil, fmt.Errorf("number %d: %w", chosenNumber, ErrNumberLocked)
	}

	digitResult := models.DeriveDigit(chosenNumber)
	declaredAt := s.now()

	// Conditional update: exactly one concurrent declaration wins, the rest
	// observe the round as already declared
	declared, err := uow.RoundRepository().DeclareResult(ctx, roundID, chosenNumber, digitResult, declaredAt)
	if err != nil {
		return nil, fmt.Errorf("failed to declare result: %w", err)
	}
	if !declared {
		return nil, fmt.Errorf("round %d: %w", roundID, ErrAlreadyDeclared)
	}

	result := &models.Result{
		RoundID:       roundID,
		GameClass:     round.GameClass,
		SlotLabel:     round.SlotLabel,
		WinningNumber: chosenNumber,
		DigitResult:   digitResult,
		DeclaredAt:    declaredAt,
	}
	if err := uow.ResultRepository().Record(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to record result: %w", err)
	}

	uow.EventBus().Publish(events.ResultDeclaredEvent{
		RoundID:       roundID,
		WinningNumber: chosenNumber,
		DigitResult:   digitResult,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Settlement failure leaves the round at the retryable pre-settlement
	// point; the declaration itself stands
	if _, err := s.settlement.Settle(ctx, roundID); err != nil {
		log.WithFields(log.Fields{
			"roundId": roundID,
			"error":   err,
		}).Error("Settlement after declaration failed, round left awaiting settlement")
	}

	return result, nil
}

// GetResult returns the declared result for a round
func (s *resultService) GetResult(ctx context.Context, roundID int64) (*models.Result, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	result, err := uow.ResultRepository().GetByRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	if result != nil {
		return result, nil
	}

	round, err := uow.RoundRepository().GetByID(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	if round == nil {
		return nil, ErrRoundNotFound
	}
	return nil, fmt.Errorf("round %d: %w", roundID, ErrNoResultYet)
}
