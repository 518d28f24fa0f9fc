package testhelpers

import (
	"context"
	"errors"
	"sync"
	"time"

	"prizedraw/domain/entities"
	"prizedraw/domain/events"
)

// FakeClock is a settable clock for time travel in tests
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a clock frozen at now
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ErrInsufficientFunds is returned by FakeRail when a payer cannot cover a debit
var ErrInsufficientFunds = errors.New("insufficient funds")

// FakeRail is an in-memory payment rail with per-account balances and
// injectable payout failures
type FakeRail struct {
	mu        sync.Mutex
	balances  map[entities.AccountID]int64
	escrow    int64
	failOut   map[entities.AccountID]int
	transfers int
}

// NewFakeRail creates a rail where every listed account starts with balance
func NewFakeRail(balance int64, accounts ...entities.AccountID) *FakeRail {
	r := &FakeRail{
		balances: make(map[entities.AccountID]int64),
		failOut:  make(map[entities.AccountID]int),
	}
	for _, a := range accounts {
		r.balances[a] = balance
	}
	return r
}

func (r *FakeRail) TransferIn(_ context.Context, from entities.AccountID, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.balances[from] < amount {
		return ErrInsufficientFunds
	}
	r.balances[from] -= amount
	r.escrow += amount
	r.transfers++
	return nil
}

func (r *FakeRail) TransferOut(_ context.Context, to entities.AccountID, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := r.failOut[to]; n > 0 {
		r.failOut[to] = n - 1
		return errors.New("payee rejected transfer")
	}
	if r.escrow < amount {
		return ErrInsufficientFunds
	}
	r.escrow -= amount
	r.balances[to] += amount
	r.transfers++
	return nil
}

// FailTransfersTo makes the next n transfers to account fail
func (r *FakeRail) FailTransfersTo(account entities.AccountID, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failOut[account] = n
}

// Balance returns the balance of account
func (r *FakeRail) Balance(account entities.AccountID) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[account]
}

// Escrow returns the funds held by the rail
func (r *FakeRail) Escrow() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.escrow
}

// Transfers returns the number of successful transfers
func (r *FakeRail) Transfers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transfers
}

// RecordingPublisher keeps every published event
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *RecordingPublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns the published events
func (p *RecordingPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

// OfType returns the published events of type t
func (p *RecordingPublisher) OfType(t events.EventType) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}
