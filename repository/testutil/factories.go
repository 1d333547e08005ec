package testutil

import (
	"time"

	"matka/models"

	"github.com/google/uuid"
)

// CreateTestUser creates a test user with default values
func CreateTestUser(id int64, username string) *models.User {
	now := time.Now()
	return &models.User{
		ID:        id,
		Username:  username,
		Balance:   100000,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateTestRound creates a round whose betting window covers "now"
func CreateTestRound(gameClass string, slotStart time.Time, slotMinutes, adminLeadMinutes int) *models.Round {
	slotEnd := slotStart.Add(time.Duration(slotMinutes) * time.Minute)
	return &models.Round{
		GameClass:       gameClass,
		SlotLabel:       slotStart.Format("15:04") + "-" + slotEnd.Format("15:04"),
		SlotStart:       slotStart,
		SlotEnd:         slotEnd,
		BettingClosesAt: slotEnd.Add(-time.Duration(adminLeadMinutes) * time.Minute),
		Status:          models.RoundStatusScheduled,
	}
}

// CreateTestBet creates a pending bet with a fresh credit reference
func CreateTestBet(roundID, userID int64, numberType models.NumberType, number int, amount int64) *models.Bet {
	return &models.Bet{
		RoundID:    roundID,
		UserID:     userID,
		NumberType: numberType,
		Number:     number,
		ClassTag:   "A",
		Amount:     amount,
		Outcome:    models.BetOutcomePending,
		CreditRef:  uuid.NewString(),
	}
}

// CreateTestWalletTransaction creates a stake ledger entry
func CreateTestWalletTransaction(userID int64, change int64, transactionType models.TransactionType) *models.WalletTransaction {
	return &models.WalletTransaction{
		UserID:          userID,
		BalanceBefore:   100000,
		BalanceAfter:    100000 + change,
		ChangeAmount:    change,
		TransactionType: transactionType,
		Reference:       uuid.NewString(),
		Metadata: map[string]any{
			"test": true,
		},
	}
}
