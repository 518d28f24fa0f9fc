package entities

import (
	"errors"
	"fmt"
	"time"
)

// BasisPointsTotal is the sum every prize share sequence must reach (100%)
const BasisPointsTotal int64 = 10000

// ErrInvalidConfig is wrapped by every lottery configuration validation failure
var ErrInvalidConfig = errors.New("invalid lottery config")

// LotteryID identifies a lottery instance in the registry
type LotteryID string

// AccountID identifies a participant (creator, buyer, winner) on the payment rail
type AccountID string

// LotteryConfig is the immutable configuration of a single lottery
type LotteryConfig struct {
	PaymentToken string    `json:"payment_token" yaml:"payment_token"`
	TicketPrice  int64     `json:"ticket_price" yaml:"ticket_price"`
	MaxTickets   int64     `json:"max_tickets" yaml:"max_tickets"`
	MinTickets   int64     `json:"min_tickets" yaml:"min_tickets"`
	StartTime    time.Time `json:"start_time" yaml:"start_time"`
	EndTime      time.Time `json:"end_time" yaml:"end_time"`
	DrawTime     time.Time `json:"draw_time" yaml:"draw_time"`
	PrizeShares  []int64   `json:"prize_shares" yaml:"prize_shares"` // basis points per tier, tier 0 first
}

// Validate checks the configuration and returns an error wrapping ErrInvalidConfig
func (c LotteryConfig) Validate() error {
	if c.PaymentToken == "" {
		return fmt.Errorf("%w: payment token is required", ErrInvalidConfig)
	}
	if c.TicketPrice <= 0 {
		return fmt.Errorf("%w: ticket price must be positive, got %d", ErrInvalidConfig, c.TicketPrice)
	}
	if c.MinTickets <= 0 {
		return fmt.Errorf("%w: min tickets must be positive, got %d", ErrInvalidConfig, c.MinTickets)
	}
	if c.MaxTickets <= 0 {
		return fmt.Errorf("%w: max tickets must be positive, got %d", ErrInvalidConfig, c.MaxTickets)
	}
	if c.MinTickets > c.MaxTickets {
		return fmt.Errorf("%w: min tickets %d exceeds max tickets %d", ErrInvalidConfig, c.MinTickets, c.MaxTickets)
	}
	if !c.StartTime.Before(c.EndTime) || !c.EndTime.Before(c.DrawTime) {
		return fmt.Errorf("%w: times must satisfy start < end < draw", ErrInvalidConfig)
	}
	if err := ValidatePrizeShares(c.PrizeShares); err != nil {
		return err
	}
	if c.MaxTickets > (1<<63-1)/c.TicketPrice {
		return fmt.Errorf("%w: max tickets * ticket price overflows", ErrInvalidConfig)
	}
	return nil
}

// ValidatePrizeShares checks that shares are positive and sum to exactly BasisPointsTotal
func ValidatePrizeShares(shares []int64) error {
	if len(shares) == 0 {
		return fmt.Errorf("%w: at least one prize tier is required", ErrInvalidConfig)
	}
	var sum int64
	for i, share := range shares {
		if share <= 0 {
			return fmt.Errorf("%w: prize share %d must be positive, got %d", ErrInvalidConfig, i, share)
		}
		sum += share
		if sum > BasisPointsTotal {
			break
		}
	}
	if sum != BasisPointsTotal {
		return fmt.Errorf("%w: prize shares must sum to %d basis points", ErrInvalidConfig, BasisPointsTotal)
	}
	return nil
}

// TierCount returns the number of prize tiers, which is also the number of winners
func (c LotteryConfig) TierCount() int {
	return len(c.PrizeShares)
}

// Cost returns the price of quantity tickets
func (c LotteryConfig) Cost(quantity int64) int64 {
	return c.TicketPrice * quantity
}
