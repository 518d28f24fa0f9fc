package oracle

import (
	"time"

	"prizedraw/domain/entities"
)

// Subjects and stream of the NATS randomness transport
const (
	StreamName          = "randomness_oracle"
	RequestSubject      = "oracle.requests"
	FulfillmentSubject  = "oracle.fulfillments"
	streamDescription   = "Randomness requests and fulfilments for lottery draws"
	streamRetentionDays = 7
)

// Subjects returns every subject of the oracle stream
func Subjects() []string {
	return []string{RequestSubject, FulfillmentSubject}
}

// RandomnessRequest is published when a lottery asks for a seed
type RandomnessRequest struct {
	RequestID   entities.RequestID `json:"request_id"`
	LotteryID   entities.LotteryID `json:"lottery_id"`
	RequestedAt time.Time          `json:"requested_at"`
}

// RandomnessFulfillment carries the hex encoded seed for a request
type RandomnessFulfillment struct {
	RequestID   entities.RequestID `json:"request_id"`
	LotteryID   entities.LotteryID `json:"lottery_id"`
	Seed        string             `json:"seed"`
	FulfilledAt time.Time          `json:"fulfilled_at"`
}
