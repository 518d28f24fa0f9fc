package oracle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"prizedraw/domain/entities"
	"prizedraw/domain/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryBus delivers published messages synchronously to subscribers
type memoryBus struct {
	mu       sync.Mutex
	handlers map[string][]func([]byte) error
	streams  []string
}

func newMemoryBus() *memoryBus {
	return &memoryBus{handlers: make(map[string][]func([]byte) error)}
}

func (b *memoryBus) Publish(_ context.Context, subject string, data []byte) error {
	b.mu.Lock()
	handlers := append([]func([]byte) error(nil), b.handlers[subject]...)
	b.mu.Unlock()
	for _, h := range handlers {
		if err := h(data); err != nil {
			return err
		}
	}
	return nil
}

func (b *memoryBus) Subscribe(subject string, handler func([]byte) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[subject] = append(b.handlers[subject], handler)
	return nil
}

func (b *memoryBus) EnsureStream(streamName, _ string, _ []string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.streams = append(b.streams, streamName)
	return nil
}

func fixedSeed(b byte) SeedSource {
	return func() (entities.Seed, error) {
		var seed entities.Seed
		for i := range seed {
			seed[i] = b
		}
		return seed, nil
	}
}

func receive(t *testing.T, ch <-chan interfaces.Fulfillment) interfaces.Fulfillment {
	t.Helper()
	select {
	case f := <-ch:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("no fulfilment delivered")
		return interfaces.Fulfillment{}
	}
}

func TestLocalOracle_DeliversAsynchronously(t *testing.T) {
	t.Parallel()

	oracle := NewLocalOracle(fixedSeed(7), 0)
	defer oracle.Close()

	first, err := oracle.Request(context.Background(), "lottery-1")
	require.NoError(t, err)
	second, err := oracle.Request(context.Background(), "lottery-2")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	got := map[entities.RequestID]entities.LotteryID{}
	for i := 0; i < 2; i++ {
		f := receive(t, oracle.Fulfillments())
		assert.Equal(t, byte(7), f.Seed[0])
		got[f.RequestID] = f.LotteryID
	}
	assert.Equal(t, entities.LotteryID("lottery-1"), got[first])
	assert.Equal(t, entities.LotteryID("lottery-2"), got[second])
}

func TestLocalOracle_SeedFailureDropsFulfilment(t *testing.T) {
	t.Parallel()

	oracle := NewLocalOracle(func() (entities.Seed, error) {
		return entities.Seed{}, errors.New("entropy exhausted")
	}, 0)

	_, err := oracle.Request(context.Background(), "lottery-1")
	require.NoError(t, err)
	oracle.Close()

	_, open := <-oracle.Fulfillments()
	assert.False(t, open)

	_, err = oracle.Request(context.Background(), "lottery-1")
	assert.Error(t, err)
}

func TestLocalOracle_CloseDoesNotWaitForReaders(t *testing.T) {
	t.Parallel()

	oracle := NewLocalOracle(fixedSeed(3), 0)
	// more requests than the channel buffers, with nobody reading
	for i := 0; i < 100; i++ {
		_, err := oracle.Request(context.Background(), "lottery-1")
		require.NoError(t, err)
	}

	delayed := NewLocalOracle(fixedSeed(3), time.Hour)
	_, err := delayed.Request(context.Background(), "lottery-2")
	require.NoError(t, err)

	closed := make(chan struct{})
	go func() {
		oracle.Close()
		delayed.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on undelivered fulfilments")
	}

	delivered := 0
	for range oracle.Fulfillments() {
		delivered++
	}
	assert.LessOrEqual(t, delivered, 64)
	_, open := <-delayed.Fulfillments()
	assert.False(t, open)
}

func TestNATSOracle_RoundTripThroughResponder(t *testing.T) {
	t.Parallel()

	bus := newMemoryBus()
	natsOracle := NewNATSOracle(bus)
	require.NoError(t, natsOracle.Start())
	require.NoError(t, NewResponder(bus, fixedSeed(0xab)).Start())
	assert.Contains(t, bus.streams, StreamName)

	requestID, err := natsOracle.Request(context.Background(), "lottery-9")
	require.NoError(t, err)

	f := receive(t, natsOracle.Fulfillments())
	assert.Equal(t, requestID, f.RequestID)
	assert.Equal(t, entities.LotteryID("lottery-9"), f.LotteryID)
	assert.Equal(t, byte(0xab), f.Seed[31])
}

func TestNATSOracle_DropsMalformedFulfilments(t *testing.T) {
	t.Parallel()

	bus := newMemoryBus()
	natsOracle := NewNATSOracle(bus)
	require.NoError(t, natsOracle.Start())

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, FulfillmentSubject, []byte("not json")))
	require.NoError(t, bus.Publish(ctx, FulfillmentSubject, []byte(`{"request_id":"r","lottery_id":"l","seed":"abcd"}`)))

	select {
	case f := <-natsOracle.Fulfillments():
		t.Fatalf("unexpected fulfilment %v", f)
	default:
	}
}

func TestCryptoSeed(t *testing.T) {
	t.Parallel()

	a, err := CryptoSeed()
	require.NoError(t, err)
	b, err := CryptoSeed()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
