package services

import "errors"

// Precondition errors. These are deterministic functions of state and time and
// are safe to show to end users.
var (
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrInvalidAccount   = errors.New("account is required")
	ErrNotStarted       = errors.New("ticket sale has not started")
	ErrEnded            = errors.New("ticket sale has ended")
	ErrExceedsMax       = errors.New("purchase exceeds maximum tickets")
	ErrTooEarly         = errors.New("draw time has not been reached")
	ErrAlreadyDrawn     = errors.New("draw already requested")
	ErrNotCancelled     = errors.New("lottery is not cancelled")
	ErrRefundInProgress = errors.New("refund already in progress")
	ErrPayoutInProgress = errors.New("payout already in progress")
	ErrLotteryNotFound  = errors.New("lottery not found")
)

// Collaborator errors
var (
	ErrTransferFailed    = errors.New("payment transfer failed")
	ErrPayoutFailed      = errors.New("one or more payouts failed")
	ErrOracleUnavailable = errors.New("randomness oracle unavailable")
	ErrUnknownRequest    = errors.New("unknown or stale draw request")
)

// Selection errors
var (
	ErrNoTickets          = errors.New("no tickets in ledger")
	ErrNotEnoughOwners    = errors.New("more prize tiers than distinct ticket owners")
	ErrSelectionExhausted = errors.New("winner selection exhausted its retries")
)

// Fatal errors. An engine that hits one of these halts and rejects every later
// mutation until an operator intervenes.
var (
	ErrInvariantViolation = errors.New("lottery invariant violated")
	ErrHalted             = errors.New("lottery halted pending manual intervention")
)
