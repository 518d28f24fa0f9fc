package application

import (
	"context"
	"testing"
	"time"

	"prizedraw/domain/entities"
	"prizedraw/domain/interfaces"
	"prizedraw/domain/services"
	"prizedraw/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() entities.LotteryConfig {
	return entities.LotteryConfig{
		PaymentToken: "CHIP",
		TicketPrice:  10,
		MaxTickets:   100,
		MinTickets:   10,
		StartTime:    testStart,
		EndTime:      testStart.Add(24 * time.Hour),
		DrawTime:     testStart.Add(25 * time.Hour),
		PrizeShares:  []int64{5000, 3000, 2000},
	}
}

type workerFixture struct {
	registry  *services.Registry
	clock     *testhelpers.FakeClock
	rail      *testhelpers.FakeRail
	oracle    *testhelpers.MockRandomnessOracle
	publisher *testhelpers.RecordingPublisher
	worker    *DrawWorker
}

func newWorkerFixture() *workerFixture {
	f := &workerFixture{
		clock:     testhelpers.NewFakeClock(testStart),
		rail:      testhelpers.NewFakeRail(1000, "alice", "bob", "carol"),
		oracle:    testhelpers.NewMockRandomnessOracle(),
		publisher: &testhelpers.RecordingPublisher{},
	}
	f.registry = services.NewRegistry(services.RegistryDeps{
		Clock:         f.clock,
		Rails:         testhelpers.StaticRailFactory{Rail: f.rail},
		Oracle:        f.oracle,
		Publisher:     f.publisher,
		OracleTimeout: 10 * time.Minute,
	})
	f.worker = NewDrawWorker(f.registry, f.clock, time.Hour)
	return f
}

// newSoldLottery creates a lottery and sells tickets to the given buyers
func (f *workerFixture) newSoldLottery(t *testing.T, sales map[entities.AccountID]int64) *services.LotteryEngine {
	t.Helper()
	ctx := context.Background()

	id, err := f.registry.Create(ctx, "house", testConfig())
	require.NoError(t, err)
	engine, err := f.registry.Get(id)
	require.NoError(t, err)

	for _, buyer := range []entities.AccountID{"alice", "bob", "carol"} {
		if n := sales[buyer]; n > 0 {
			_, err := engine.BuyTickets(ctx, buyer, n)
			require.NoError(t, err)
		}
	}
	return engine
}

func TestDrawWorker_RequestsDueDraws(t *testing.T) {
	t.Parallel()

	f := newWorkerFixture()
	ctx := context.Background()
	engine := f.newSoldLottery(t, map[entities.AccountID]int64{"alice": 10, "bob": 8, "carol": 5})

	// sale ended but the draw time has not arrived
	f.clock.Set(testConfig().EndTime.Add(time.Minute))
	assert.Equal(t, DrawPassResult{}, f.worker.RunOnce(ctx))

	f.clock.Set(testConfig().DrawTime)
	f.oracle.On("Request", mock.Anything, engine.ID()).Return(entities.RequestID("req-1"), nil).Once()

	result := f.worker.RunOnce(ctx)
	assert.Equal(t, 1, result.DrawsRequested)
	assert.Equal(t, entities.LotteryStatusDrawRequested, engine.Status())

	// the request is outstanding, nothing to do
	assert.Equal(t, DrawPassResult{}, f.worker.RunOnce(ctx))
	f.oracle.AssertNumberOfCalls(t, "Request", 1)
}

func TestDrawWorker_ReissuesTimedOutRequests(t *testing.T) {
	t.Parallel()

	f := newWorkerFixture()
	ctx := context.Background()
	engine := f.newSoldLottery(t, map[entities.AccountID]int64{"alice": 10, "bob": 8, "carol": 5})

	f.clock.Set(testConfig().DrawTime)
	f.oracle.On("Request", mock.Anything, engine.ID()).Return(entities.RequestID("req-1"), nil).Once()
	f.oracle.On("Request", mock.Anything, engine.ID()).Return(entities.RequestID("req-2"), nil).Once()

	require.Equal(t, 1, f.worker.RunOnce(ctx).DrawsRequested)

	f.clock.Advance(10 * time.Minute)
	assert.Equal(t, 1, f.worker.RunOnce(ctx).Reissued)

	dispatcher := NewFulfillmentDispatcher(f.registry, f.oracle)
	err := dispatcher.Dispatch(ctx, interfaces.Fulfillment{LotteryID: engine.ID(), RequestID: "req-1", Seed: entities.Seed{1}})
	assert.ErrorIs(t, err, services.ErrUnknownRequest)

	require.NoError(t, dispatcher.Dispatch(ctx, interfaces.Fulfillment{LotteryID: engine.ID(), RequestID: "req-2", Seed: entities.Seed{1}}))
	assert.Equal(t, entities.LotteryStatusCompleted, engine.Status())
}

func TestDrawWorker_CancelsUndersubscribed(t *testing.T) {
	t.Parallel()

	f := newWorkerFixture()
	ctx := context.Background()
	engine := f.newSoldLottery(t, map[entities.AccountID]int64{"alice": 3, "bob": 2})

	f.clock.Set(testConfig().DrawTime)
	result := f.worker.RunOnce(ctx)

	assert.Equal(t, 1, result.DrawsRequested)
	assert.Equal(t, entities.LotteryStatusCancelled, engine.Status())
	f.oracle.AssertNotCalled(t, "Request", mock.Anything, mock.Anything)

	// terminal lotteries are left alone
	assert.Equal(t, DrawPassResult{}, f.worker.RunOnce(ctx))
}

func TestDrawWorker_RetriesFailedPayouts(t *testing.T) {
	t.Parallel()

	f := newWorkerFixture()
	ctx := context.Background()
	engine := f.newSoldLottery(t, map[entities.AccountID]int64{"alice": 10, "bob": 8, "carol": 5})

	f.clock.Set(testConfig().DrawTime)
	f.oracle.On("Request", mock.Anything, engine.ID()).Return(entities.RequestID("req-1"), nil).Once()
	require.Equal(t, 1, f.worker.RunOnce(ctx).DrawsRequested)

	// three owners and three tiers, so bob always wins something
	f.rail.FailTransfersTo("bob", 1)
	dispatcher := NewFulfillmentDispatcher(f.registry, f.oracle)
	err := dispatcher.Dispatch(ctx, interfaces.Fulfillment{LotteryID: engine.ID(), RequestID: "req-1", Seed: entities.Seed{7}})
	require.ErrorIs(t, err, services.ErrPayoutFailed)
	assert.Equal(t, entities.LotteryStatusDrawRequested, engine.Status())

	result := f.worker.RunOnce(ctx)
	assert.Equal(t, 1, result.PayoutsRetried)
	assert.Equal(t, entities.LotteryStatusCompleted, engine.Status())
	assert.Equal(t, int64(0), f.rail.Escrow())
	assert.Len(t, f.publisher.OfType("draw_completed"), 1)
}

func TestDrawWorker_StartStop(t *testing.T) {
	t.Parallel()

	f := newWorkerFixture()
	engine := f.newSoldLottery(t, map[entities.AccountID]int64{"alice": 1})
	f.clock.Set(testConfig().DrawTime)

	stop := f.worker.Start(context.Background())
	assert.Eventually(t, func() bool {
		return engine.Status() == entities.LotteryStatusCancelled
	}, time.Second, 10*time.Millisecond)

	stop()
	stop()
}

func TestFulfillmentDispatcher_UnknownLottery(t *testing.T) {
	t.Parallel()

	f := newWorkerFixture()
	dispatcher := NewFulfillmentDispatcher(f.registry, f.oracle)

	err := dispatcher.Dispatch(context.Background(), interfaces.Fulfillment{LotteryID: "missing", RequestID: "req-1"})
	assert.ErrorIs(t, err, services.ErrLotteryNotFound)
}

func TestFulfillmentDispatcher_Start(t *testing.T) {
	t.Parallel()

	f := newWorkerFixture()
	engine := f.newSoldLottery(t, map[entities.AccountID]int64{"alice": 10, "bob": 8, "carol": 5})
	f.clock.Set(testConfig().DrawTime)
	f.oracle.On("Request", mock.Anything, engine.ID()).Return(entities.RequestID("req-1"), nil).Once()
	require.NoError(t, engine.RequestDraw(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := NewFulfillmentDispatcher(f.registry, f.oracle).Start(ctx)

	// unknown and stale fulfilments do not stop the loop
	f.oracle.Deliver(interfaces.Fulfillment{LotteryID: "missing", RequestID: "req-1"})
	f.oracle.Deliver(interfaces.Fulfillment{LotteryID: engine.ID(), RequestID: "req-0"})
	f.oracle.Deliver(interfaces.Fulfillment{LotteryID: engine.ID(), RequestID: "req-1", Seed: entities.Seed{9}})

	assert.Eventually(t, func() bool {
		return engine.Status() == entities.LotteryStatusCompleted
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}
