package oracle

import (
	"context"
	"sync"
	"time"

	"prizedraw/domain/entities"
	"prizedraw/domain/interfaces"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// LocalOracle answers randomness requests in-process from a SeedSource. Each
// fulfilment is delivered from its own goroutine after delay, never from inside
// Request.
type LocalOracle struct {
	seeds        SeedSource
	delay        time.Duration
	fulfillments chan interfaces.Fulfillment

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewLocalOracle creates an oracle that fulfils requests after delay
func NewLocalOracle(seeds SeedSource, delay time.Duration) *LocalOracle {
	if seeds == nil {
		seeds = CryptoSeed
	}
	return &LocalOracle{
		seeds:        seeds,
		delay:        delay,
		fulfillments: make(chan interfaces.Fulfillment, 64),
		done:         make(chan struct{}),
	}
}

// Request issues a new request id and schedules its fulfilment
func (o *LocalOracle) Request(ctx context.Context, lotteryID entities.LotteryID) (entities.RequestID, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return "", context.Canceled
	}

	requestID := entities.RequestID(uuid.NewString())
	o.wg.Add(1)
	go o.fulfill(lotteryID, requestID)

	log.WithFields(log.Fields{
		"lotteryID": lotteryID,
		"requestID": requestID,
	}).Debug("Local randomness request scheduled")
	return requestID, nil
}

func (o *LocalOracle) fulfill(lotteryID entities.LotteryID, requestID entities.RequestID) {
	defer o.wg.Done()
	logger := log.WithFields(log.Fields{
		"lotteryID": lotteryID,
		"requestID": requestID,
	})

	if o.delay > 0 {
		timer := time.NewTimer(o.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-o.done:
			logger.Debug("Oracle closed before fulfilment, request will time out")
			return
		}
	}

	seed, err := o.seeds()
	if err != nil {
		logger.WithError(err).Error("Failed to generate seed, request will time out")
		return
	}

	select {
	case o.fulfillments <- interfaces.Fulfillment{LotteryID: lotteryID, RequestID: requestID, Seed: seed}:
	case <-o.done:
		logger.Warn("Oracle closed with no reader, fulfilment dropped and request will time out")
	}
}

// Fulfillments returns the channel on which seeds are delivered
func (o *LocalOracle) Fulfillments() <-chan interfaces.Fulfillment {
	return o.fulfillments
}

// Close stops accepting requests, abandons fulfilments that are still waiting on
// their delay or on a reader, and closes the channel
func (o *LocalOracle) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	close(o.done)
	o.mu.Unlock()

	o.wg.Wait()
	close(o.fulfillments)
}
