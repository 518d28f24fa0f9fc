package entities

import "time"

// LotteryDetails is the read-only view exposed to collaborators
type LotteryDetails struct {
	ID           LotteryID     `json:"id"`
	PaymentToken string        `json:"token"`
	TicketPrice  int64         `json:"ticket_price"`
	MaxTickets   int64         `json:"max_tickets"`
	MinTickets   int64         `json:"min_tickets"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	DrawTime     time.Time     `json:"draw_time"`
	TicketsSold  int64         `json:"tickets_sold"`
	Status       LotteryStatus `json:"status"`
	StatusCode   int           `json:"status_code"`
}

// LotterySnapshot is the complete persisted state of one lottery
type LotterySnapshot struct {
	ID              LotteryID
	Creator         AccountID
	Config          LotteryConfig
	Status          LotteryStatus // explicit status; time-derived states are stored as pending
	TicketsSold     int64
	EscrowBalance   int64
	Blocks          []TicketBlock
	DrawRequestID   *RequestID
	DrawRequestedAt *time.Time
	Seed            *Seed
	Winners         []Winner
	Refunds         []RefundEntry
	Halted          bool
	HaltReason      string
	CreatedAt       time.Time
	ResolvedAt      *time.Time
}

// ExpectedEscrow returns the escrow balance implied by the tickets sold
func (s *LotterySnapshot) ExpectedEscrow() int64 {
	return s.Config.Cost(s.TicketsSold)
}
