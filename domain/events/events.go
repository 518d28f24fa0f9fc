package events

import (
	"prizedraw/domain/entities"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeLotteryCreated   EventType = "lottery_created"
	EventTypeTicketsPurchased EventType = "tickets_purchased"
	EventTypeDrawRequested    EventType = "draw_requested"
	EventTypeDrawCompleted    EventType = "draw_completed"
	EventTypeLotteryCancelled EventType = "lottery_cancelled"
	EventTypeRefundClaimed    EventType = "refund_claimed"
	EventTypePayoutFailed     EventType = "payout_failed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// LotteryCreatedEvent is emitted once the registry has stored a new lottery
type LotteryCreatedEvent struct {
	Creator   entities.AccountID `json:"creator"`
	LotteryID entities.LotteryID `json:"lottery_id"`
	DrawTime  int64              `json:"draw_time"`
}

func (e LotteryCreatedEvent) Type() EventType {
	return EventTypeLotteryCreated
}

// TicketsPurchasedEvent is emitted after a purchase commits to the ledger
type TicketsPurchasedEvent struct {
	LotteryID   entities.LotteryID   `json:"lottery_id"`
	Buyer       entities.AccountID   `json:"buyer"`
	Range       entities.TicketRange `json:"range"`
	TicketsSold int64                `json:"tickets_sold"`
	Amount      int64                `json:"amount"`
}

func (e TicketsPurchasedEvent) Type() EventType {
	return EventTypeTicketsPurchased
}

// DrawRequestedEvent is emitted when a randomness request was issued
type DrawRequestedEvent struct {
	LotteryID entities.LotteryID `json:"lottery_id"`
	RequestID entities.RequestID `json:"request_id"`
	Reissued  bool               `json:"reissued"`
}

func (e DrawRequestedEvent) Type() EventType {
	return EventTypeDrawRequested
}

// DrawCompletedEvent is emitted once every winner has been paid
type DrawCompletedEvent struct {
	LotteryID entities.LotteryID `json:"lottery_id"`
	Winners   []entities.Winner  `json:"winners"`
	PrizePool int64              `json:"prize_pool"`
}

func (e DrawCompletedEvent) Type() EventType {
	return EventTypeDrawCompleted
}

// LotteryCancelledEvent is emitted when a lottery is under-subscribed at draw time
type LotteryCancelledEvent struct {
	LotteryID   entities.LotteryID `json:"lottery_id"`
	TicketsSold int64              `json:"tickets_sold"`
	MinTickets  int64              `json:"min_tickets"`
}

func (e LotteryCancelledEvent) Type() EventType {
	return EventTypeLotteryCancelled
}

// RefundClaimedEvent is emitted after a successful refund transfer
type RefundClaimedEvent struct {
	LotteryID entities.LotteryID `json:"lottery_id"`
	Buyer     entities.AccountID `json:"buyer"`
	Amount    int64              `json:"amount"`
}

func (e RefundClaimedEvent) Type() EventType {
	return EventTypeRefundClaimed
}

// PayoutFailedEvent is emitted when a prize transfer to a winner fails
type PayoutFailedEvent struct {
	LotteryID entities.LotteryID `json:"lottery_id"`
	TierIndex int                `json:"tier_index"`
	Owner     entities.AccountID `json:"owner"`
	Amount    int64              `json:"amount"`
	Error     string             `json:"error"`
}

func (e PayoutFailedEvent) Type() EventType {
	return EventTypePayoutFailed
}
