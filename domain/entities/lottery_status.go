package entities

import "time"

// LotteryStatus represents the lifecycle state of a lottery
type LotteryStatus string

const (
	LotteryStatusPending       LotteryStatus = "pending"
	LotteryStatusActive        LotteryStatus = "active"
	LotteryStatusSaleEnded     LotteryStatus = "sale_ended"
	LotteryStatusDrawRequested LotteryStatus = "draw_requested"
	LotteryStatusCompleted     LotteryStatus = "completed"
	LotteryStatusCancelled     LotteryStatus = "cancelled"
)

// Status codes surfaced to external collaborators. UIs branch on these values,
// so they must never be renumbered.
const (
	StatusCodeOpen          = 0 // pending or active
	StatusCodeCompleted     = 1
	StatusCodeCancelled     = 2
	StatusCodeSaleEnded     = 3
	StatusCodeDrawRequested = 4
)

// IsTerminal returns true for completed and cancelled lotteries
func (s LotteryStatus) IsTerminal() bool {
	return s == LotteryStatusCompleted || s == LotteryStatusCancelled
}

// Code returns the external integer code for the status
func (s LotteryStatus) Code() int {
	switch s {
	case LotteryStatusCompleted:
		return StatusCodeCompleted
	case LotteryStatusCancelled:
		return StatusCodeCancelled
	case LotteryStatusSaleEnded:
		return StatusCodeSaleEnded
	case LotteryStatusDrawRequested:
		return StatusCodeDrawRequested
	default:
		return StatusCodeOpen
	}
}

// DeriveStatus computes the time-derived status for a lottery that has not been
// explicitly moved into a draw state. Explicit states are returned unchanged.
func DeriveStatus(explicit LotteryStatus, cfg LotteryConfig, now time.Time) LotteryStatus {
	switch explicit {
	case LotteryStatusDrawRequested, LotteryStatusCompleted, LotteryStatusCancelled:
		return explicit
	}
	switch {
	case now.Before(cfg.StartTime):
		return LotteryStatusPending
	case now.Before(cfg.EndTime):
		return LotteryStatusActive
	default:
		return LotteryStatusSaleEnded
	}
}
