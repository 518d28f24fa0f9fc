package entities

import (
	"encoding/hex"
	"fmt"
	"time"
)

// Seed is the 256-bit random value delivered by the randomness oracle
type Seed [32]byte

// ParseSeed decodes a hex encoded seed
func ParseSeed(s string) (Seed, error) {
	var seed Seed
	raw, err := hex.DecodeString(s)
	if err != nil {
		return seed, fmt.Errorf("failed to decode seed: %w", err)
	}
	if len(raw) != len(seed) {
		return seed, fmt.Errorf("seed must be %d bytes, got %d", len(seed), len(raw))
	}
	copy(seed[:], raw)
	return seed, nil
}

// String returns the hex encoding of the seed
func (s Seed) String() string {
	return hex.EncodeToString(s[:])
}

// RequestID correlates a randomness request with its fulfilment
type RequestID string

// PayoutStatus tracks the transfer of one prize tier
type PayoutStatus string

const (
	PayoutStatusPending PayoutStatus = "pending"
	PayoutStatusPaid    PayoutStatus = "paid"
	PayoutStatusFailed  PayoutStatus = "failed"
)

// Winner is one resolved prize tier
type Winner struct {
	TierIndex    int          `json:"tier_index"`
	TicketNumber int64        `json:"ticket_number"`
	Owner        AccountID    `json:"owner"`
	PayoutAmount int64        `json:"payout_amount"`
	PayoutStatus PayoutStatus `json:"payout_status"`
	Attempts     int          `json:"attempts"`
	LastError    string       `json:"last_error,omitempty"`
	PaidAt       *time.Time   `json:"paid_at,omitempty"`
}

// IsPaid returns true once the payout transfer succeeded
func (w *Winner) IsPaid() bool {
	return w.PayoutStatus == PayoutStatusPaid
}

// MarkPaid records a successful payout
func (w *Winner) MarkPaid(at time.Time) {
	w.PayoutStatus = PayoutStatusPaid
	w.LastError = ""
	w.PaidAt = &at
}

// MarkFailed records a failed payout attempt
func (w *Winner) MarkFailed(err error) {
	w.PayoutStatus = PayoutStatusFailed
	w.LastError = err.Error()
}

// RefundEntry mirrors a ticket block on the cancelled path
type RefundEntry struct {
	Owner       AccountID  `json:"owner"`
	FirstTicket int64      `json:"first_ticket"`
	Amount      int64      `json:"amount"`
	Refunded    bool       `json:"refunded"`
	RefundedAt  *time.Time `json:"refunded_at,omitempty"`
}
