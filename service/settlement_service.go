package service

import (
	"context"
	"fmt"
	"time"

	"matka/config"
	"matka/events"
	"matka/models"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	uowFactory      UnitOfWorkFactory
	wallet          WalletService
	payouts         models.PayoutTable
	maxRetryElapsed time.Duration
	now             func() time.Time
}

// NewSettlementService creates a new settlement engine
func NewSettlementService(uowFactory UnitOfWorkFactory, wallet WalletService, cfg *config.Config) SettlementService {
	return &settlementService{
		uowFactory:      uowFactory,
		wallet:          wallet,
		payouts:         cfg.Payouts,
		maxRetryElapsed: cfg.SettlementMaxRetryElapsed,
		now:             time.Now,
	}
}

// Settle pays out a declared round exactly once. It runs in three steps:
// outcomes are written transactionally, unpaid winners are credited through
// the wallet collaborator with a per-bet idempotency reference, and only
// when every winner is paid does the round flip to completed. Any failure
// leaves the round at the pre-settlement point; re-invocation resumes with
// the winners still unpaid and never credits a wallet twice.
func (s *settlementService) Settle(ctx context.Context, roundID int64) (*models.SettlementReport, error) {
	report, err := s.settleOutcomes(ctx, roundID)
	if err != nil {
		return nil, err
	}

	if err := s.creditWinners(ctx, roundID, report); err != nil {
		return nil, err
	}

	if err := s.complete(ctx, roundID, report); err != nil {
		return nil, err
	}

	return report, nil
}

// settleOutcomes writes won/lost outcomes and win amounts for every pending
// bet of the round in a single transaction
func (s *settlementService) settleOutcomes(ctx context.Context, roundID int64) (*models.SettlementReport, error) {
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
	if round.Status == models.RoundStatusCompleted {
		return nil, fmt.Errorf("round %d: %w", roundID, ErrAlreadySettled)
	}
	if round.Status != models.RoundStatusAwaitingSettlement || !round.HasResult() {
		return nil, fmt.Errorf("round %d has no declared result: %w", roundID, ErrNoResultYet)
	}

	winningNumber := *round.WinningNumber
	digitResult := *round.DigitResult

	bets, err := uow.BetRepository().GetByRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets: %w", err)
	}

	report := &models.SettlementReport{
		RoundID:       roundID,
		WinningNumber: winningNumber,
		DigitResult:   digitResult,
	}

	var toSettle []*models.Bet
	for _, bet := range bets {
		if bet.Outcome == models.BetOutcomeVoid {
			continue
		}
		report.TotalBets++
		report.TotalStaked += bet.Amount

		if bet.IsPending() {
			if bet.Wins(winningNumber, digitResult) {
				bet.Outcome = models.BetOutcomeWon
				bet.WinAmount = bet.Amount * s.payouts.MultiplierFor(bet.NumberType, bet.ClassTag)
			} else {
				bet.Outcome = models.BetOutcomeLost
				bet.WinAmount = 0
			}
			toSettle = append(toSettle, bet)
		}

		switch bet.Outcome {
		case models.BetOutcomeWon:
			report.WonBets++
			report.TotalPaidOut += bet.WinAmount
		case models.BetOutcomeLost:
			report.LostBets++
		}
	}

	if err := uow.BetRepository().SettleOutcomes(ctx, toSettle); err != nil {
		return nil, fmt.Errorf("failed to settle bet outcomes: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return report, nil
}

// creditWinners pays every won bet whose credit is still outstanding. The
// bet's credit reference de-duplicates retries on the wallet side; the paid
// marker prevents this process from re-crediting on resume.
func (s *settlementService) creditWinners(ctx context.Context, roundID int64, report *models.SettlementReport) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	unpaid, err := uow.BetRepository().GetUnpaidWinners(ctx, roundID)
	uow.Rollback()
	if err != nil {
		return fmt.Errorf("failed to get unpaid winners: %w", err)
	}

	report.CreditsSkipped = report.WonBets - len(unpaid)

	for _, bet := range unpaid {
		operation := func() error {
			return s.wallet.Credit(ctx, bet.UserID, bet.WinAmount, bet.CreditRef)
		}
		policy := backoff.NewExponentialBackOff()
		policy.MaxElapsedTime = s.maxRetryElapsed
		// The first retry has to land inside the budget; the default
		// half-second interval would already exceed a small one.
		if interval := s.maxRetryElapsed / 10; interval < policy.InitialInterval {
			policy.InitialInterval = interval
		}

		if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
			log.WithFields(log.Fields{
				"roundId": roundID,
				"betId":   bet.ID,
				"userId":  bet.UserID,
				"error":   err,
			}).Error("Wallet credit exhausted retries, round left awaiting settlement")
			return fmt.Errorf("crediting bet %d for user %d: %v: %w", bet.ID, bet.UserID, err, ErrWalletCreditFailed)
		}

		if err := s.markPaid(ctx, bet.ID); err != nil {
			return err
		}
	}

	return nil
}

func (s *settlementService) markPaid(ctx context.Context, betID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := uow.BetRepository().MarkPaid(ctx, betID, s.now()); err != nil {
		return fmt.Errorf("failed to mark bet %d paid: %w", betID, err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// complete flips the round to completed once all winners are paid
func (s *settlementService) complete(ctx context.Context, roundID int64, report *models.SettlementReport) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	completed, err := uow.RoundRepository().MarkCompleted(ctx, roundID, s.now())
	if err != nil {
		return fmt.Errorf("failed to complete round: %w", err)
	}
	if !completed {
		// A concurrent settle finished first
		return fmt.Errorf("round %d: %w", roundID, ErrAlreadySettled)
	}

	uow.EventBus().Publish(events.RoundSettledEvent{
		RoundID:      roundID,
		WonBets:      report.WonBets,
		TotalPaidOut: report.TotalPaidOut,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
