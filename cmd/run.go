package cmd

import (
	"context"
	"fmt"
	"time"

	"matka/api"
	"matka/config"
	"matka/database"
	"matka/events"
	"matka/repository"
	"matka/service"
	"matka/wallet"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting round engine...")

	cfg := config.Get()

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	eventBus := events.NewBus()
	registerEventLogging(eventBus)
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// The wallet collaborator is either our own users table or an external
	// service reached over HTTP
	var walletService service.WalletService
	switch cfg.WalletMode {
	case "remote":
		walletService = wallet.NewClient(cfg.WalletURL)
	default:
		walletService = service.NewLocalWalletService(uowFactory)
	}

	log.Info("Initializing services...")
	stakeService := service.NewStakeService(uowFactory, cfg)
	roundService := service.NewRoundService(uowFactory, cfg)
	settlementService := service.NewSettlementService(uowFactory, walletService, cfg)
	resultService := service.NewResultService(uowFactory, cfg, settlementService)
	archiveService := service.NewArchiveService(uowFactory)

	// Background worker pre-creates rounds and resumes interrupted settlements
	worker := service.NewRoundWorker(uowFactory, roundService, settlementService, cfg)
	go worker.Run(ctx)

	server := api.NewServer(cfg, stakeService, roundService, resultService, archiveService)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	log.WithField("environment", cfg.Environment).Info("Engine is running")

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}

	db.Close()
	log.Info("Shutdown completed")

	return nil
}

// registerEventLogging records the domain event stream in the application log
func registerEventLogging(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBetPlaced, func(ctx context.Context, e events.Event) {
		ev := e.(events.BetPlacedEvent)
		log.WithFields(log.Fields{
			"roundID": ev.RoundID,
			"betID":   ev.BetID,
			"userID":  ev.UserID,
			"number":  ev.Number,
			"amount":  ev.Amount,
		}).Info("Bet placed")
	})
	bus.Subscribe(events.EventTypeNumberLocked, func(ctx context.Context, e events.Event) {
		ev := e.(events.NumberLockedEvent)
		log.WithFields(log.Fields{
			"roundID":     ev.RoundID,
			"number":      ev.Number,
			"totalStaked": ev.TotalStaked,
		}).Warn("Number locked for further betting")
	})
	bus.Subscribe(events.EventTypeResultDeclared, func(ctx context.Context, e events.Event) {
		ev := e.(events.ResultDeclaredEvent)
		log.WithFields(log.Fields{
			"roundID":       ev.RoundID,
			"winningNumber": ev.WinningNumber,
			"digitResult":   ev.DigitResult,
		}).Info("Result declared")
	})
	bus.Subscribe(events.EventTypeRoundSettled, func(ctx context.Context, e events.Event) {
		ev := e.(events.RoundSettledEvent)
		log.WithFields(log.Fields{
			"roundID":      ev.RoundID,
			"wonBets":      ev.WonBets,
			"totalPaidOut": ev.TotalPaidOut,
		}).Info("Round settled")
	})
	bus.Subscribe(events.EventTypeRoundCancelled, func(ctx context.Context, e events.Event) {
		ev := e.(events.RoundCancelledEvent)
		log.WithFields(log.Fields{
			"roundID":    ev.RoundID,
			"voidedBets": ev.VoidedBets,
		}).Info("Round cancelled")
	})
}
