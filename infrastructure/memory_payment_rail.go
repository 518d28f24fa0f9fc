package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"prizedraw/domain/entities"
	"prizedraw/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// ErrInsufficientBalance is returned when an account or escrow cannot cover a transfer
var ErrInsufficientBalance = errors.New("insufficient balance")

type accountKey struct {
	token   string
	account entities.AccountID
}

// MemoryTokenLedger keeps token balances and lottery escrows in memory. It backs
// the payment rail in development and single-process deployments.
type MemoryTokenLedger struct {
	mu       sync.Mutex
	balances map[accountKey]int64
	escrows  map[entities.LotteryID]int64
}

// NewMemoryTokenLedger creates an empty ledger
func NewMemoryTokenLedger() *MemoryTokenLedger {
	return &MemoryTokenLedger{
		balances: make(map[accountKey]int64),
		escrows:  make(map[entities.LotteryID]int64),
	}
}

// Credit mints amount of token into account
func (l *MemoryTokenLedger) Credit(_ context.Context, token string, account entities.AccountID, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[accountKey{token, account}] += amount
	return nil
}

// Balance returns the balance of account in token
func (l *MemoryTokenLedger) Balance(_ context.Context, token string, account entities.AccountID) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[accountKey{token, account}], nil
}

// Escrow returns the funds held for a lottery
func (l *MemoryTokenLedger) Escrow(lotteryID entities.LotteryID) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.escrows[lotteryID]
}

// RailFor binds a payment rail to one lottery's escrow
func (l *MemoryTokenLedger) RailFor(lotteryID entities.LotteryID, token string) interfaces.PaymentRail {
	return &memoryRail{ledger: l, lotteryID: lotteryID, token: token}
}

type memoryRail struct {
	ledger    *MemoryTokenLedger
	lotteryID entities.LotteryID
	token     string
}

func (r *memoryRail) TransferIn(ctx context.Context, from entities.AccountID, amount int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l := r.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	key := accountKey{r.token, from}
	if l.balances[key] < amount {
		return fmt.Errorf("%w: %s holds %d %s, needs %d", ErrInsufficientBalance, from, l.balances[key], r.token, amount)
	}
	l.balances[key] -= amount
	l.escrows[r.lotteryID] += amount

	log.WithFields(log.Fields{
		"lotteryID": r.lotteryID,
		"from":      from,
		"amount":    amount,
		"token":     r.token,
	}).Debug("Transferred funds into escrow")
	return nil
}

func (r *memoryRail) TransferOut(ctx context.Context, to entities.AccountID, amount int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l := r.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.escrows[r.lotteryID] < amount {
		return fmt.Errorf("%w: escrow of %s holds %d, needs %d", ErrInsufficientBalance, r.lotteryID, l.escrows[r.lotteryID], amount)
	}
	l.escrows[r.lotteryID] -= amount
	l.balances[accountKey{r.token, to}] += amount

	log.WithFields(log.Fields{
		"lotteryID": r.lotteryID,
		"to":        to,
		"amount":    amount,
		"token":     r.token,
	}).Debug("Transferred funds out of escrow")
	return nil
}
