package interfaces

import (
	"context"
	"time"

	"prizedraw/domain/entities"
	"prizedraw/domain/events"
)

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// PaymentRail moves fungible tokens between participants and a lottery's escrow.
// Each call either fully succeeds or leaves balances unchanged.
type PaymentRail interface {
	// TransferIn debits amount from the payer into escrow
	TransferIn(ctx context.Context, from entities.AccountID, amount int64) error

	// TransferOut credits amount from escrow to the payee
	TransferOut(ctx context.Context, to entities.AccountID, amount int64) error
}

// RailFactory binds a PaymentRail to one lottery's escrow for a given token
type RailFactory interface {
	RailFor(lotteryID entities.LotteryID, token string) PaymentRail
}

// Fulfillment is a seed delivered by the randomness oracle for a request
type Fulfillment struct {
	LotteryID entities.LotteryID
	RequestID entities.RequestID
	Seed      entities.Seed
}

// RandomnessOracle issues asynchronous randomness requests. Fulfilments are
// delivered on the Fulfillments channel, never from inside Request.
type RandomnessOracle interface {
	// Request asks for one seed bound to the returned request identifier
	Request(ctx context.Context, lotteryID entities.LotteryID) (entities.RequestID, error)

	// Fulfillments returns the channel on which seeds are delivered
	Fulfillments() <-chan Fulfillment
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}
