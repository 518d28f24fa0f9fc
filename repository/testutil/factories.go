package testutil

import (
	"time"

	"prizedraw/domain/entities"
)

// CreateTestSnapshot returns a fresh lottery snapshot with no tickets sold
func CreateTestSnapshot(id entities.LotteryID, start time.Time) *entities.LotterySnapshot {
	return &entities.LotterySnapshot{
		ID:      id,
		Creator: "creator",
		Config: entities.LotteryConfig{
			PaymentToken: "CHIP",
			TicketPrice:  10,
			MaxTickets:   100,
			MinTickets:   5,
			StartTime:    start,
			EndTime:      start.Add(24 * time.Hour),
			DrawTime:     start.Add(25 * time.Hour),
			PrizeShares:  []int64{5000, 3000, 2000},
		},
		Status:    entities.LotteryStatusPending,
		CreatedAt: start,
	}
}

// AddTestBlock appends a block of count tickets for owner and keeps the
// sold and escrow totals consistent
func AddTestBlock(s *entities.LotterySnapshot, owner entities.AccountID, count int64, at time.Time) {
	s.Blocks = append(s.Blocks, entities.TicketBlock{
		Owner:       owner,
		FirstTicket: s.TicketsSold + 1,
		Count:       count,
		PurchasedAt: at,
	})
	s.TicketsSold += count
	s.EscrowBalance = s.ExpectedEscrow()
}
