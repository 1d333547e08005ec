package service

import "errors"

// Error taxonomy surfaced to callers. Validation and state-conflict errors
// are final: the caller must re-query and decide, never blindly retry.
// Collaborator failures are retried internally before being surfaced.
var (
	// Validation errors
	ErrInvalidNumber = errors.New("number is out of range for its number type")
	ErrInvalidStake  = errors.New("stake amount must be positive")

	// State-conflict errors
	ErrRoundNotAcceptingBets = errors.New("round is not accepting bets")
	ErrNumberLocked          = errors.New("number is locked")
	ErrRoundNotInAdminPeriod = errors.New("round is not in its admin period")
	ErrAlreadyDeclared       = errors.New("result already declared for round")
	ErrAlreadySettled        = errors.New("round already settled")

	// Not-found errors
	ErrRoundNotFound = errors.New("round not found")
	ErrNoResultYet   = errors.New("no result declared for round yet")
	ErrUserNotFound  = errors.New("user not found")

	// Collaborator failures
	ErrWalletCreditFailed = errors.New("wallet credit failed")
	ErrInsufficientFunds  = errors.New("insufficient balance")
)
