package service

import (
	"context"
	"fmt"
	"time"

	"matka/config"

	log "github.com/sirupsen/logrus"
)

// RoundWorker keeps the schedule alive in the background: it makes sure the
// current round row exists for every configured game class and retries
// rounds stuck at the pre-settlement point.
type RoundWorker struct {
	uowFactory  UnitOfWorkFactory
	rounds      RoundService
	settlement  SettlementService
	gameClasses []string
	interval    time.Duration
}

// NewRoundWorker creates a new background round worker
func NewRoundWorker(uowFactory UnitOfWorkFactory, rounds RoundService, settlement SettlementService, cfg *config.Config) *RoundWorker {
	return &RoundWorker{
		uowFactory:  uowFactory,
		rounds:      rounds,
		settlement:  settlement,
		gameClasses: cfg.GameClasses,
		interval:    time.Minute,
	}
}

// Run ticks until the context is cancelled
func (w *RoundWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *RoundWorker) tick(ctx context.Context) {
	for _, gameClass := range w.gameClasses {
		if _, err := w.rounds.GetCurrentRound(ctx, gameClass); err != nil {
			log.WithFields(log.Fields{
				"gameClass": gameClass,
				"error":     err,
			}).Error("Failed to ensure current round")
		}
	}

	if err := w.resumeSettlements(ctx); err != nil {
		log.WithError(err).Error("Failed to resume pending settlements")
	}
}

// resumeSettlements retries rounds whose settlement was interrupted. Settle
// is idempotent, so re-running it on a half-paid round only credits the
// winners still outstanding.
func (w *RoundWorker) resumeSettlements(ctx context.Context) error {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	pending, err := uow.RoundRepository().GetAwaitingSettlement(ctx)
	uow.Rollback()
	if err != nil {
		return fmt.Errorf("failed to get rounds awaiting settlement: %w", err)
	}

	for _, round := range pending {
		report, err := w.settlement.Settle(ctx, round.ID)
		if err != nil {
			log.WithFields(log.Fields{
				"roundId": round.ID,
				"error":   err,
			}).Warn("Settlement retry failed, will try again next tick")
			continue
		}
		log.WithFields(log.Fields{
			"roundId":      round.ID,
			"wonBets":      report.WonBets,
			"totalPaidOut": report.TotalPaidOut,
		}).Info("Resumed settlement completed")
	}
	return nil
}
