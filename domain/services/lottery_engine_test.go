package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"prizedraw/domain/entities"
	"prizedraw/domain/events"
	"prizedraw/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testLotteryID = entities.LotteryID("lottery-1")

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() entities.LotteryConfig {
	return entities.LotteryConfig{
		PaymentToken: "USDC",
		TicketPrice:  10,
		MaxTickets:   100,
		MinTickets:   10,
		StartTime:    testStart,
		EndTime:      testStart.Add(24 * time.Hour),
		DrawTime:     testStart.Add(25 * time.Hour),
		PrizeShares:  []int64{5000, 3000, 2000},
	}
}

type engineFixture struct {
	engine    *LotteryEngine
	clock     *testhelpers.FakeClock
	rail      *testhelpers.FakeRail
	oracle    *testhelpers.MockRandomnessOracle
	publisher *testhelpers.RecordingPublisher
}

func newEngineFixture(opts ...func(*EngineDeps)) *engineFixture {
	f := &engineFixture{
		clock:     testhelpers.NewFakeClock(testStart),
		rail:      testhelpers.NewFakeRail(1000, "alice", "bob", "carol", "dave"),
		oracle:    testhelpers.NewMockRandomnessOracle(),
		publisher: &testhelpers.RecordingPublisher{},
	}
	deps := EngineDeps{
		Clock:     f.clock,
		Rail:      f.rail,
		Oracle:    f.oracle,
		Publisher: f.publisher,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	f.engine = NewLotteryEngine(testLotteryID, "creator", testConfig(), deps)
	return f
}

func (f *engineFixture) buy(t *testing.T, buyer entities.AccountID, quantity int64) entities.TicketRange {
	t.Helper()
	r, err := f.engine.BuyTickets(context.Background(), buyer, quantity)
	require.NoError(t, err)
	return r
}

func (f *engineFixture) toDrawTime() {
	f.clock.Set(testConfig().DrawTime)
}

func TestLotteryEngine_CompletedDraw(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	ctx := context.Background()

	assert.Equal(t, entities.TicketRange{First: 1, Last: 10}, f.buy(t, "alice", 10))
	assert.Equal(t, entities.TicketRange{First: 11, Last: 18}, f.buy(t, "bob", 8))
	assert.Equal(t, entities.TicketRange{First: 19, Last: 23}, f.buy(t, "carol", 5))

	details := f.engine.Details()
	assert.Equal(t, int64(23), details.TicketsSold)
	assert.Equal(t, entities.LotteryStatusActive, details.Status)
	assert.Equal(t, entities.StatusCodeOpen, details.StatusCode)

	f.toDrawTime()
	f.oracle.On("Request", mock.Anything, testLotteryID).Return(entities.RequestID("req-1"), nil).Once()
	require.NoError(t, f.engine.RequestDraw(ctx))

	assert.Equal(t, entities.StatusCodeDrawRequested, f.engine.Details().StatusCode)
	assert.Equal(t, int64(230), f.engine.EscrowBalance())

	require.NoError(t, f.engine.FulfillDraw(ctx, "req-1", seedFor(42)))

	winners := f.engine.Winners()
	require.Len(t, winners, 3)
	owners := map[entities.AccountID]bool{}
	var paid int64
	for i, w := range winners {
		assert.Equal(t, i, w.TierIndex)
		assert.True(t, w.IsPaid())
		owners[w.Owner] = true
		paid += w.PayoutAmount
	}
	assert.Len(t, owners, 3)
	assert.Equal(t, []int64{115, 69, 46}, []int64{winners[0].PayoutAmount, winners[1].PayoutAmount, winners[2].PayoutAmount})
	assert.Equal(t, int64(230), paid)

	details = f.engine.Details()
	assert.Equal(t, entities.LotteryStatusCompleted, details.Status)
	assert.Equal(t, entities.StatusCodeCompleted, details.StatusCode)
	assert.Equal(t, int64(0), f.engine.EscrowBalance())
	assert.Equal(t, int64(0), f.rail.Escrow())
	assert.Equal(t, int64(3000), f.rail.Balance("alice")+f.rail.Balance("bob")+f.rail.Balance("carol"))

	completed := f.publisher.OfType(events.EventTypeDrawCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, int64(230), completed[0].(events.DrawCompletedEvent).PrizePool)
	f.oracle.AssertExpectations(t)
}

func TestLotteryEngine_CancelledDrawRefunds(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	ctx := context.Background()

	f.buy(t, "alice", 2)
	f.buy(t, "bob", 2)
	f.buy(t, "carol", 1)

	f.toDrawTime()
	require.NoError(t, f.engine.RequestDraw(ctx))
	f.oracle.AssertNotCalled(t, "Request", mock.Anything, mock.Anything)

	assert.Equal(t, entities.StatusCodeCancelled, f.engine.Details().StatusCode)
	assert.Len(t, f.publisher.OfType(events.EventTypeLotteryCancelled), 1)

	for buyer, want := range map[entities.AccountID]int64{"alice": 20, "bob": 20, "carol": 10} {
		amount, err := f.engine.ClaimRefund(ctx, buyer)
		require.NoError(t, err)
		assert.Equal(t, want, amount, buyer)

		again, err := f.engine.ClaimRefund(ctx, buyer)
		require.NoError(t, err)
		assert.Equal(t, int64(0), again, buyer)

		assert.Equal(t, int64(1000), f.rail.Balance(buyer))
	}

	amount, err := f.engine.ClaimRefund(ctx, "dave")
	require.NoError(t, err)
	assert.Equal(t, int64(0), amount)

	assert.Equal(t, int64(0), f.engine.EscrowBalance())
	assert.Len(t, f.publisher.OfType(events.EventTypeRefundClaimed), 3)
	for _, r := range f.engine.Refunds() {
		assert.True(t, r.Refunded)
	}
}

func TestLotteryEngine_CancelsWhenFewerOwnersThanTiers(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	f.buy(t, "alice", 10)
	f.buy(t, "bob", 10)

	f.toDrawTime()
	require.NoError(t, f.engine.RequestDraw(context.Background()))

	assert.Equal(t, entities.LotteryStatusCancelled, f.engine.Status())
	f.oracle.AssertNotCalled(t, "Request", mock.Anything, mock.Anything)
}

func TestLotteryEngine_BuyTicketsWindow(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	tests := []struct {
		name     string
		now      time.Time
		prebuy   int64
		quantity int64
		wantErr  error
	}{
		{name: "before start", now: cfg.StartTime.Add(-time.Nanosecond), quantity: 1, wantErr: ErrNotStarted},
		{name: "at start", now: cfg.StartTime, quantity: 1},
		{name: "just before end", now: cfg.EndTime.Add(-time.Nanosecond), quantity: 1},
		{name: "at end", now: cfg.EndTime, quantity: 1, wantErr: ErrEnded},
		{name: "after draw time", now: cfg.DrawTime, quantity: 1, wantErr: ErrEnded},
		{name: "zero quantity", now: cfg.StartTime, quantity: 0, wantErr: ErrInvalidQuantity},
		{name: "negative quantity", now: cfg.StartTime, quantity: -3, wantErr: ErrInvalidQuantity},
		{name: "fills capacity", now: cfg.StartTime, prebuy: 95, quantity: 5},
		{name: "exceeds capacity", now: cfg.StartTime, prebuy: 95, quantity: 6, wantErr: ErrExceedsMax},
		{name: "single purchase above max", now: cfg.StartTime, quantity: 101, wantErr: ErrExceedsMax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newEngineFixture()
			f.rail = testhelpers.NewFakeRail(10000, "alice", "bob")
			f.engine.deps.Rail = f.rail

			if tt.prebuy > 0 {
				f.buy(t, "bob", tt.prebuy)
			}
			f.clock.Set(tt.now)

			_, err := f.engine.BuyTickets(context.Background(), "alice", tt.quantity)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.prebuy, f.engine.Details().TicketsSold)
				assert.Equal(t, int64(10000), f.rail.Balance("alice"))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.prebuy+tt.quantity, f.engine.Details().TicketsSold)
			assert.Equal(t, f.engine.Details().TicketsSold*10, f.engine.EscrowBalance())
		})
	}
}

func TestLotteryEngine_BuyTicketsTransferFailure(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	f.buy(t, "alice", 5)

	// erin has no funds on the rail
	_, err := f.engine.BuyTickets(context.Background(), "erin", 2)
	require.ErrorIs(t, err, ErrTransferFailed)

	assert.Equal(t, int64(5), f.engine.Details().TicketsSold)
	assert.Equal(t, int64(50), f.engine.EscrowBalance())
	assert.Empty(t, f.engine.TicketsOf("erin"))

	r := f.buy(t, "bob", 3)
	assert.Equal(t, entities.TicketRange{First: 6, Last: 8}, r)
}

func TestLotteryEngine_ConcurrentPurchasesRespectCapacity(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	var buyers []entities.AccountID
	for i := 0; i < 50; i++ {
		buyers = append(buyers, entities.AccountID(fmt.Sprintf("buyer-%02d", i)))
	}
	f.rail = testhelpers.NewFakeRail(1000, buyers...)
	f.engine.deps.Rail = f.rail

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for _, buyer := range buyers {
		wg.Add(1)
		go func(buyer entities.AccountID) {
			defer wg.Done()
			_, err := f.engine.BuyTickets(context.Background(), buyer, 3)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrExceedsMax)
		}(buyer)
	}
	wg.Wait()

	assert.Equal(t, 33, succeeded)
	assert.Equal(t, int64(99), f.engine.Details().TicketsSold)
	assert.Equal(t, int64(990), f.engine.EscrowBalance())
	assert.Equal(t, int64(990), f.rail.Escrow())
}

func TestLotteryEngine_RequestDrawAtMostOnce(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	ctx := context.Background()
	f.buy(t, "alice", 5)
	f.buy(t, "bob", 5)
	f.buy(t, "carol", 5)

	f.clock.Set(testConfig().DrawTime.Add(-time.Second))
	assert.ErrorIs(t, f.engine.RequestDraw(ctx), ErrTooEarly)

	f.toDrawTime()
	f.oracle.On("Request", mock.Anything, testLotteryID).Return(entities.RequestID("req-1"), nil).Once()
	require.NoError(t, f.engine.RequestDraw(ctx))
	assert.ErrorIs(t, f.engine.RequestDraw(ctx), ErrAlreadyDrawn)

	// no timeout configured, so waiting does not allow a second request
	f.clock.Advance(48 * time.Hour)
	assert.ErrorIs(t, f.engine.RequestDraw(ctx), ErrAlreadyDrawn)

	require.NoError(t, f.engine.FulfillDraw(ctx, "req-1", seedFor(1)))
	first := f.engine.Winners()

	assert.ErrorIs(t, f.engine.FulfillDraw(ctx, "req-1", seedFor(2)), ErrUnknownRequest)
	assert.ErrorIs(t, f.engine.RequestDraw(ctx), ErrAlreadyDrawn)
	assert.Equal(t, first, f.engine.Winners())

	f.oracle.AssertNumberOfCalls(t, "Request", 1)
	assert.Len(t, f.publisher.OfType(events.EventTypeDrawCompleted), 1)
}

func TestLotteryEngine_RejectsMismatchedFulfilment(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	ctx := context.Background()

	assert.ErrorIs(t, f.engine.FulfillDraw(ctx, "req-1", seedFor(1)), ErrUnknownRequest)

	f.buy(t, "alice", 5)
	f.buy(t, "bob", 5)
	f.buy(t, "carol", 5)
	f.toDrawTime()
	f.oracle.On("Request", mock.Anything, testLotteryID).Return(entities.RequestID("req-1"), nil).Once()
	require.NoError(t, f.engine.RequestDraw(ctx))

	assert.ErrorIs(t, f.engine.FulfillDraw(ctx, "req-spoofed", seedFor(1)), ErrUnknownRequest)
	assert.Nil(t, f.engine.Winners())
	assert.Equal(t, entities.LotteryStatusDrawRequested, f.engine.Status())
}

func TestLotteryEngine_OracleUnavailable(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	ctx := context.Background()
	f.buy(t, "alice", 5)
	f.buy(t, "bob", 5)
	f.buy(t, "carol", 5)
	f.toDrawTime()

	f.oracle.On("Request", mock.Anything, testLotteryID).Return(entities.RequestID(""), errors.New("connection refused")).Once()
	assert.ErrorIs(t, f.engine.RequestDraw(ctx), ErrOracleUnavailable)
	assert.Equal(t, entities.LotteryStatusSaleEnded, f.engine.Status())

	f.oracle.On("Request", mock.Anything, testLotteryID).Return(entities.RequestID("req-2"), nil).Once()
	require.NoError(t, f.engine.RequestDraw(ctx))
	assert.Equal(t, entities.LotteryStatusDrawRequested, f.engine.Status())
}

func TestLotteryEngine_OracleTimeoutReissuesRequest(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(func(d *EngineDeps) { d.OracleTimeout = time.Hour })
	ctx := context.Background()
	f.buy(t, "alice", 5)
	f.buy(t, "bob", 5)
	f.buy(t, "carol", 5)
	f.toDrawTime()

	f.oracle.On("Request", mock.Anything, testLotteryID).Return(entities.RequestID("req-1"), nil).Once()
	f.oracle.On("Request", mock.Anything, testLotteryID).Return(entities.RequestID("req-2"), nil).Once()

	require.NoError(t, f.engine.RequestDraw(ctx))
	f.clock.Advance(59 * time.Minute)
	assert.ErrorIs(t, f.engine.RequestDraw(ctx), ErrAlreadyDrawn)

	f.clock.Advance(time.Minute)
	require.NoError(t, f.engine.RequestDraw(ctx))

	assert.ErrorIs(t, f.engine.FulfillDraw(ctx, "req-1", seedFor(1)), ErrUnknownRequest)
	require.NoError(t, f.engine.FulfillDraw(ctx, "req-2", seedFor(1)))
	assert.Equal(t, entities.LotteryStatusCompleted, f.engine.Status())

	requested := f.publisher.OfType(events.EventTypeDrawRequested)
	require.Len(t, requested, 2)
	assert.False(t, requested[0].(events.DrawRequestedEvent).Reissued)
	assert.True(t, requested[1].(events.DrawRequestedEvent).Reissued)
	f.oracle.AssertExpectations(t)
}

func TestLotteryEngine_PayoutFailureIsRetriedPerWinner(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	ctx := context.Background()
	f.buy(t, "alice", 10)
	f.buy(t, "bob", 8)
	f.buy(t, "carol", 5)
	f.toDrawTime()
	f.oracle.On("Request", mock.Anything, testLotteryID).Return(entities.RequestID("req-1"), nil).Once()
	require.NoError(t, f.engine.RequestDraw(ctx))

	f.rail.FailTransfersTo("bob", 1)
	err := f.engine.FulfillDraw(ctx, "req-1", seedFor(9))
	require.ErrorIs(t, err, ErrPayoutFailed)

	assert.Equal(t, entities.LotteryStatusDrawRequested, f.engine.Status())
	assert.True(t, f.engine.HasPendingPayouts())

	var bobAmount int64
	balances := map[entities.AccountID]int64{}
	for _, w := range f.engine.Winners() {
		balances[w.Owner] = f.rail.Balance(w.Owner)
		if w.Owner == "bob" {
			bobAmount = w.PayoutAmount
			assert.Equal(t, entities.PayoutStatusFailed, w.PayoutStatus)
			assert.NotEmpty(t, w.LastError)
			continue
		}
		assert.True(t, w.IsPaid())
	}
	assert.Equal(t, bobAmount, f.engine.EscrowBalance())

	failed := f.publisher.OfType(events.EventTypePayoutFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, entities.AccountID("bob"), failed[0].(events.PayoutFailedEvent).Owner)

	winnersBefore := f.engine.Winners()
	require.NoError(t, f.engine.RetryPayouts(ctx))

	assert.Equal(t, entities.LotteryStatusCompleted, f.engine.Status())
	assert.False(t, f.engine.HasPendingPayouts())
	assert.Equal(t, int64(0), f.engine.EscrowBalance())
	for i, w := range f.engine.Winners() {
		assert.Equal(t, winnersBefore[i].TicketNumber, w.TicketNumber)
		assert.True(t, w.IsPaid())
		if w.Owner == "bob" {
			assert.Equal(t, 2, w.Attempts)
			assert.Equal(t, balances["bob"]+bobAmount, f.rail.Balance("bob"))
		} else {
			assert.Equal(t, 1, w.Attempts)
			assert.Equal(t, balances[w.Owner], f.rail.Balance(w.Owner))
		}
	}

	require.NoError(t, f.engine.RetryPayouts(ctx))
	assert.Len(t, f.publisher.OfType(events.EventTypeDrawCompleted), 1)
}

func TestLotteryEngine_RefundFailureIsRetryable(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	ctx := context.Background()
	f.buy(t, "alice", 3)

	_, err := f.engine.ClaimRefund(ctx, "alice")
	assert.ErrorIs(t, err, ErrNotCancelled)

	f.toDrawTime()
	require.NoError(t, f.engine.RequestDraw(ctx))

	f.rail.FailTransfersTo("alice", 1)
	_, err = f.engine.ClaimRefund(ctx, "alice")
	require.ErrorIs(t, err, ErrTransferFailed)
	assert.Equal(t, int64(30), f.engine.EscrowBalance())

	amount, err := f.engine.ClaimRefund(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(30), amount)
	assert.Equal(t, int64(1000), f.rail.Balance("alice"))
}

func TestLotteryEngine_PersistFailureUndoesPurchase(t *testing.T) {
	t.Parallel()

	repo := new(testhelpers.MockLotteryRepository)
	f := newEngineFixture(func(d *EngineDeps) { d.Repository = repo })
	ctx := context.Background()

	repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
	_, err := f.engine.BuyTickets(ctx, "alice", 4)
	require.Error(t, err)

	assert.Equal(t, int64(0), f.engine.Details().TicketsSold)
	assert.Equal(t, int64(0), f.engine.EscrowBalance())
	assert.Equal(t, int64(1000), f.rail.Balance("alice"))

	repo.On("Save", mock.Anything, mock.MatchedBy(func(s *entities.LotterySnapshot) bool {
		return s.TicketsSold == 4 && s.EscrowBalance == 40 && len(s.Blocks) == 1
	})).Return(nil).Once()
	r, err := f.engine.BuyTickets(ctx, "alice", 4)
	require.NoError(t, err)
	assert.Equal(t, entities.TicketRange{First: 1, Last: 4}, r)
	repo.AssertExpectations(t)
}

// blockingRail holds TransferIn until released
type blockingRail struct {
	*testhelpers.FakeRail
	entered chan struct{}
	release chan struct{}
}

func (r *blockingRail) TransferIn(ctx context.Context, from entities.AccountID, amount int64) error {
	close(r.entered)
	<-r.release
	return r.FakeRail.TransferIn(ctx, from, amount)
}

func TestLotteryEngine_PurchaseInFlightDuringDrawIsReturned(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	rail := &blockingRail{FakeRail: f.rail, entered: make(chan struct{}), release: make(chan struct{})}
	f.engine.deps.Rail = rail
	ctx := context.Background()

	f.clock.Set(testConfig().EndTime.Add(-time.Second))
	errCh := make(chan error, 1)
	go func() {
		_, err := f.engine.BuyTickets(ctx, "alice", 2)
		errCh <- err
	}()
	<-rail.entered

	f.toDrawTime()
	require.NoError(t, f.engine.RequestDraw(ctx))
	assert.Equal(t, entities.LotteryStatusCancelled, f.engine.Status())

	close(rail.release)
	assert.ErrorIs(t, <-errCh, ErrEnded)
	assert.Equal(t, int64(1000), f.rail.Balance("alice"))
	assert.Equal(t, int64(0), f.engine.Details().TicketsSold)
}

func TestLotteryEngine_PurchaseCompletingAfterSaleEndIsReturned(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	rail := &blockingRail{FakeRail: f.rail, entered: make(chan struct{}), release: make(chan struct{})}
	f.engine.deps.Rail = rail
	ctx := context.Background()

	f.clock.Set(testConfig().EndTime.Add(-time.Second))
	errCh := make(chan error, 1)
	go func() {
		_, err := f.engine.BuyTickets(ctx, "alice", 2)
		errCh <- err
	}()
	<-rail.entered

	// no draw requested, the window simply closed
	f.clock.Set(testConfig().EndTime.Add(time.Minute))
	close(rail.release)

	assert.ErrorIs(t, <-errCh, ErrEnded)
	assert.Equal(t, int64(1000), f.rail.Balance("alice"))
	assert.Equal(t, int64(0), f.engine.Details().TicketsSold)
	assert.Equal(t, int64(0), f.engine.Snapshot().EscrowBalance)
	assert.Equal(t, entities.LotteryStatusSaleEnded, f.engine.Status())
}

func TestLotteryEngine_HaltsOnEscrowMismatch(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	f.buy(t, "alice", 5)
	f.buy(t, "bob", 5)
	f.buy(t, "carol", 5)

	snapshot := f.engine.Snapshot()
	requestID := entities.RequestID("req-1")
	snapshot.Status = entities.LotteryStatusDrawRequested
	snapshot.DrawRequestID = &requestID
	snapshot.EscrowBalance = 149

	engine, err := RestoreLotteryEngine(snapshot, f.engine.deps)
	require.NoError(t, err)

	err = engine.FulfillDraw(context.Background(), requestID, seedFor(1))
	require.ErrorIs(t, err, ErrInvariantViolation)

	halted, reason := engine.Halted()
	assert.True(t, halted)
	assert.NotEmpty(t, reason)
	assert.Nil(t, engine.Winners())

	_, err = engine.BuyTickets(context.Background(), "dave", 1)
	assert.ErrorIs(t, err, ErrHalted)
	assert.ErrorIs(t, engine.RequestDraw(context.Background()), ErrHalted)
	assert.ErrorIs(t, engine.FulfillDraw(context.Background(), requestID, seedFor(1)), ErrHalted)
}

func TestRestoreLotteryEngine(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	f.buy(t, "alice", 5)
	f.buy(t, "bob", 2)

	restored, err := RestoreLotteryEngine(f.engine.Snapshot(), f.engine.deps)
	require.NoError(t, err)
	assert.Equal(t, f.engine.Details(), restored.Details())
	assert.Equal(t, f.engine.Snapshot(), restored.Snapshot())

	r := f.buy(t, "carol", 1)
	rr, err := restored.BuyTickets(context.Background(), "carol", 1)
	require.NoError(t, err)
	assert.Equal(t, r, rr)

	broken := f.engine.Snapshot()
	broken.TicketsSold = 99
	_, err = RestoreLotteryEngine(broken, f.engine.deps)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}
