package application

import (
	"context"
	"errors"
	"sync"

	"prizedraw/domain/interfaces"
	"prizedraw/domain/services"

	log "github.com/sirupsen/logrus"
)

// FulfillmentDispatcher routes oracle fulfilments to the engine that asked
type FulfillmentDispatcher struct {
	lotteries LotterySource
	oracle    interfaces.RandomnessOracle
}

// NewFulfillmentDispatcher creates a new dispatcher
func NewFulfillmentDispatcher(lotteries LotterySource, oracle interfaces.RandomnessOracle) *FulfillmentDispatcher {
	return &FulfillmentDispatcher{lotteries: lotteries, oracle: oracle}
}

// Start consumes fulfilments until ctx is cancelled or the oracle closes its
// channel. Each fulfilment is delivered on its own goroutine, since fulfilling
// a draw pays winners through the rail. The returned channel is closed once the
// loop and every delivery have finished.
func (d *FulfillmentDispatcher) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	fulfillments := d.oracle.Fulfillments()

	go func() {
		var deliveries sync.WaitGroup
		defer func() {
			deliveries.Wait()
			close(done)
		}()
		log.Info("Fulfillment dispatcher started")

		for {
			select {
			case <-ctx.Done():
				log.Info("Fulfillment dispatcher shutting down...")
				return
			case f, ok := <-fulfillments:
				if !ok {
					log.Info("Oracle closed its fulfillment channel")
					return
				}
				deliveries.Add(1)
				go func() {
					defer deliveries.Done()
					_ = d.Dispatch(ctx, f)
				}()
			}
		}
	}()

	return done
}

// Dispatch delivers one fulfilment. Rejections are logged and never fatal.
func (d *FulfillmentDispatcher) Dispatch(ctx context.Context, f interfaces.Fulfillment) error {
	logger := log.WithFields(log.Fields{
		"lotteryID": f.LotteryID,
		"requestID": f.RequestID,
	})

	engine, err := d.lotteries.Get(f.LotteryID)
	if err != nil {
		logger.WithError(err).Warn("Dropping fulfillment for unknown lottery")
		return err
	}

	err = engine.FulfillDraw(ctx, f.RequestID, f.Seed)
	switch {
	case err == nil:
		logger.Info("Draw fulfilled")
	case errors.Is(err, services.ErrUnknownRequest):
		logger.WithError(err).Warn("Rejected stale or unknown fulfillment")
	case errors.Is(err, services.ErrPayoutFailed):
		logger.WithError(err).Error("Winners selected but payouts are outstanding")
	default:
		logger.WithError(err).Error("Failed to fulfill draw")
	}
	return err
}
