package services

import (
	"fmt"

	"prizedraw/domain/entities"

	"github.com/holiman/uint256"
)

// ComputePayouts splits prizePool across tiers by basis points. Each tier receives
// floor(prizePool * share / 10000); the flooring residual, at most len(shares)-1
// units, goes to tier 0 so the payouts always sum to prizePool exactly.
func ComputePayouts(prizePool int64, shares []int64) ([]int64, error) {
	if prizePool < 0 {
		return nil, fmt.Errorf("%w: negative prize pool %d", ErrInvariantViolation, prizePool)
	}
	if err := entities.ValidatePrizeShares(shares); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvariantViolation, err)
	}

	pool := uint256.NewInt(uint64(prizePool))
	denominator := uint256.NewInt(uint64(entities.BasisPointsTotal))

	payouts := make([]int64, len(shares))
	var distributed int64
	for i, share := range shares {
		amount, overflow := new(uint256.Int).MulDivOverflow(pool, uint256.NewInt(uint64(share)), denominator)
		if overflow {
			return nil, fmt.Errorf("%w: payout overflow for tier %d", ErrInvariantViolation, i)
		}
		payouts[i] = int64(amount.Uint64())
		distributed += payouts[i]
	}

	residual := prizePool - distributed
	if residual < 0 || residual > int64(len(shares)-1) {
		return nil, fmt.Errorf("%w: rounding residual %d out of range", ErrInvariantViolation, residual)
	}
	payouts[0] += residual

	return payouts, nil
}
