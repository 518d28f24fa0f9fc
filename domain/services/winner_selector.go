package services

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"prizedraw/domain/entities"

	"github.com/holiman/uint256"
)

const (
	// maxCandidateRetries bounds the hash(seed || i || retry) re-derivations per tier
	// before falling back to sampling directly among the eligible tickets.
	maxCandidateRetries = 256

	// maxSampleRetries bounds the rejection loop of the wide modulo. A rejection
	// happens with probability below n/2^256, so reaching this is a hard failure.
	maxSampleRetries = 64
)

// Selection is one winning ticket, in tier order
type Selection struct {
	TicketNumber int64
	Owner        entities.AccountID
}

// SelectWinners maps seed onto k distinct tickets with distinct owners. The result
// is a pure function of its inputs.
//
// For tier i the candidate value is sha256(seed || be32(i)); on a rejected or
// ineligible candidate it is re-derived as sha256(seed || be32(i) || be32(retry)).
// Each 256-bit value is reduced with a wide modulo and rejection sampling, so the
// mapping onto [1, n] is exactly uniform.
func SelectWinners(seed entities.Seed, ledger entities.TicketLedger, k int) ([]Selection, error) {
	if k <= 0 {
		return nil, fmt.Errorf("winner count must be positive, got %d", k)
	}
	total := ledger.Total()
	if total == 0 {
		return nil, ErrNoTickets
	}
	if owners := ledger.DistinctOwners(); k > owners {
		return nil, fmt.Errorf("%w: %d tiers, %d owners", ErrNotEnoughOwners, k, owners)
	}

	selections := make([]Selection, 0, k)
	usedTickets := make(map[int64]struct{}, k)
	usedOwners := make(map[entities.AccountID]struct{}, k)

	for i := 0; i < k; i++ {
		sel, err := selectTier(seed, ledger, uint32(i), usedTickets, usedOwners)
		if err != nil {
			return nil, fmt.Errorf("failed to select tier %d: %w", i, err)
		}
		usedTickets[sel.TicketNumber] = struct{}{}
		usedOwners[sel.Owner] = struct{}{}
		selections = append(selections, sel)
	}

	return selections, nil
}

func selectTier(seed entities.Seed, ledger entities.TicketLedger, tier uint32, usedTickets map[int64]struct{}, usedOwners map[entities.AccountID]struct{}) (Selection, error) {
	total := ledger.Total()
	retry := uint32(0)

	for ; retry < maxCandidateRetries; retry++ {
		r, ok := wideModulo(deriveValue(seed, tier, retry), uint64(total))
		if !ok {
			continue
		}
		ticket := int64(r) + 1
		if _, dup := usedTickets[ticket]; dup {
			continue
		}
		owner, found := ledger.OwnerOf(ticket)
		if !found {
			return Selection{}, fmt.Errorf("ticket %d has no owner", ticket)
		}
		if _, won := usedOwners[owner]; won {
			continue
		}
		return Selection{TicketNumber: ticket, Owner: owner}, nil
	}

	// Most of the ledger belongs to owners who already won. Sample uniformly among
	// the remaining eligible tickets instead, which yields the same distribution as
	// continuing to reject.
	eligible := eligibleCount(ledger, usedOwners)
	if eligible == 0 {
		return Selection{}, ErrNotEnoughOwners
	}
	for attempt := uint32(0); attempt < maxSampleRetries; attempt++ {
		r, ok := wideModulo(deriveValue(seed, tier, retry+attempt), uint64(eligible))
		if !ok {
			continue
		}
		return nthEligible(ledger, usedOwners, int64(r))
	}

	return Selection{}, ErrSelectionExhausted
}

// deriveValue returns sha256(seed || be32(tier)) for retry 0 and
// sha256(seed || be32(tier) || be32(retry)) afterwards
func deriveValue(seed entities.Seed, tier, retry uint32) [32]byte {
	buf := make([]byte, 0, len(seed)+8)
	buf = append(buf, seed[:]...)
	buf = binary.BigEndian.AppendUint32(buf, tier)
	if retry > 0 {
		buf = binary.BigEndian.AppendUint32(buf, retry)
	}
	return sha256.Sum256(buf)
}

// wideModulo reduces a 256-bit value into [0, n). Values at or above the largest
// multiple of n that fits in 2^256 are rejected (ok is false).
func wideModulo(h [32]byte, n uint64) (uint64, bool) {
	v := new(uint256.Int).SetBytes32(h[:])
	modulus := uint256.NewInt(n)

	bound, full := acceptanceBound(modulus)
	if !full && !v.Lt(bound) {
		return 0, false
	}
	return new(uint256.Int).Mod(v, modulus).Uint64(), true
}

// acceptanceBound returns 2^256 - (2^256 mod n). full is true when n divides 2^256,
// in which case every value is accepted.
func acceptanceBound(n *uint256.Int) (*uint256.Int, bool) {
	max := new(uint256.Int).SetAllOne()
	rem := new(uint256.Int).Mod(max, n) // (2^256 - 1) mod n
	rem.AddUint64(rem, 1)
	if rem.Eq(n) {
		return nil, true
	}
	// 2^256 - rem == max - (rem - 1)
	return new(uint256.Int).Sub(max, rem.SubUint64(rem, 1)), false
}

func eligibleCount(ledger entities.TicketLedger, usedOwners map[entities.AccountID]struct{}) int64 {
	var count int64
	for _, b := range ledger.Blocks() {
		if _, won := usedOwners[b.Owner]; !won {
			count += b.Count
		}
	}
	return count
}

// nthEligible returns the zero-indexed r-th ticket whose owner has not won yet
func nthEligible(ledger entities.TicketLedger, usedOwners map[entities.AccountID]struct{}, r int64) (Selection, error) {
	for _, b := range ledger.Blocks() {
		if _, won := usedOwners[b.Owner]; won {
			continue
		}
		if r < b.Count {
			return Selection{TicketNumber: b.FirstTicket + r, Owner: b.Owner}, nil
		}
		r -= b.Count
	}
	return Selection{}, ErrSelectionExhausted
}
