package entities

import (
	"sort"
	"time"
)

// TicketBlock is a contiguous range of ticket numbers issued to one buyer in one purchase
type TicketBlock struct {
	Owner       AccountID `json:"owner"`
	FirstTicket int64     `json:"first_ticket"`
	Count       int64     `json:"count"`
	PurchasedAt time.Time `json:"purchased_at"`
}

// LastTicket returns the final ticket number in the block
func (b TicketBlock) LastTicket() int64 {
	return b.FirstTicket + b.Count - 1
}

// Contains reports whether the ticket number falls inside the block
func (b TicketBlock) Contains(ticket int64) bool {
	return ticket >= b.FirstTicket && ticket <= b.LastTicket()
}

// TicketRange is the confirmation returned to a buyer
type TicketRange struct {
	First int64 `json:"first"`
	Last  int64 `json:"last"`
}

// Count returns the number of tickets in the range
func (r TicketRange) Count() int64 {
	return r.Last - r.First + 1
}

// TicketLedger is the ordered list of ticket blocks for one lottery. Blocks are
// appended with monotonically increasing, non-overlapping ranges starting at 1.
type TicketLedger struct {
	blocks []TicketBlock
	total  int64
}

// NewTicketLedger rebuilds a ledger from persisted blocks. Blocks must already be
// sorted and contiguous; ok is false otherwise.
func NewTicketLedger(blocks []TicketBlock) (ledger TicketLedger, ok bool) {
	next := int64(1)
	for _, b := range blocks {
		if b.FirstTicket != next || b.Count <= 0 {
			return TicketLedger{}, false
		}
		next += b.Count
	}
	copied := make([]TicketBlock, len(blocks))
	copy(copied, blocks)
	return TicketLedger{blocks: copied, total: next - 1}, true
}

// Append issues count tickets to owner and returns the assigned range
func (l *TicketLedger) Append(owner AccountID, count int64, at time.Time) TicketRange {
	block := TicketBlock{
		Owner:       owner,
		FirstTicket: l.total + 1,
		Count:       count,
		PurchasedAt: at,
	}
	l.blocks = append(l.blocks, block)
	l.total += count
	return TicketRange{First: block.FirstTicket, Last: block.LastTicket()}
}

// RemoveLast drops the most recently appended block. Used to undo an append
// whose persistence failed.
func (l *TicketLedger) RemoveLast() {
	if len(l.blocks) == 0 {
		return
	}
	last := l.blocks[len(l.blocks)-1]
	l.blocks = l.blocks[:len(l.blocks)-1]
	l.total -= last.Count
}

// Total returns the number of tickets issued
func (l TicketLedger) Total() int64 {
	return l.total
}

// Len returns the number of blocks
func (l TicketLedger) Len() int {
	return len(l.blocks)
}

// Blocks returns a copy of the blocks
func (l TicketLedger) Blocks() []TicketBlock {
	out := make([]TicketBlock, len(l.blocks))
	copy(out, l.blocks)
	return out
}

// OwnerOf resolves a ticket number to its owner by binary search over block start offsets
func (l TicketLedger) OwnerOf(ticket int64) (AccountID, bool) {
	if ticket < 1 || ticket > l.total {
		return "", false
	}
	// first block whose last ticket is >= ticket
	i := sort.Search(len(l.blocks), func(i int) bool {
		return l.blocks[i].LastTicket() >= ticket
	})
	if i == len(l.blocks) || !l.blocks[i].Contains(ticket) {
		return "", false
	}
	return l.blocks[i].Owner, true
}

// DistinctOwners returns the number of distinct ticket holders
func (l TicketLedger) DistinctOwners() int {
	seen := make(map[AccountID]struct{}, len(l.blocks))
	for _, b := range l.blocks {
		seen[b.Owner] = struct{}{}
	}
	return len(seen)
}

// TicketsOf returns the blocks owned by owner
func (l TicketLedger) TicketsOf(owner AccountID) []TicketBlock {
	var out []TicketBlock
	for _, b := range l.blocks {
		if b.Owner == owner {
			out = append(out, b)
		}
	}
	return out
}

// ParticipantSummary aggregates ticket counts per owner in first-purchase order
func (l TicketLedger) ParticipantSummary() []ParticipantInfo {
	index := make(map[AccountID]int)
	var out []ParticipantInfo
	for _, b := range l.blocks {
		i, ok := index[b.Owner]
		if !ok {
			index[b.Owner] = len(out)
			out = append(out, ParticipantInfo{Owner: b.Owner, TicketCount: b.Count})
			continue
		}
		out[i].TicketCount += b.Count
	}
	return out
}

// ParticipantInfo summarises one participant's holdings
type ParticipantInfo struct {
	Owner       AccountID `json:"owner"`
	TicketCount int64     `json:"ticket_count"`
}
