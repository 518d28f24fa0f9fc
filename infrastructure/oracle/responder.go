package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// Responder answers randomness requests arriving over NATS. It runs as its own
// process so the seed source is separated from the lottery engine.
type Responder struct {
	bus   MessageBus
	seeds SeedSource
}

// NewResponder creates a responder using seeds
func NewResponder(bus MessageBus, seeds SeedSource) *Responder {
	if seeds == nil {
		seeds = CryptoSeed
	}
	return &Responder{bus: bus, seeds: seeds}
}

// Start subscribes to randomness requests
func (r *Responder) Start() error {
	if err := EnsureStream(r.bus); err != nil {
		return err
	}
	return r.bus.Subscribe(RequestSubject, r.handleRequest)
}

func (r *Responder) handleRequest(data []byte) error {
	var request RandomnessRequest
	if err := json.Unmarshal(data, &request); err != nil {
		log.WithError(err).Warn("Dropping malformed randomness request")
		return nil
	}

	seed, err := r.seeds()
	if err != nil {
		return err
	}

	fulfillment := RandomnessFulfillment{
		RequestID:   request.RequestID,
		LotteryID:   request.LotteryID,
		Seed:        seed.String(),
		FulfilledAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(fulfillment)
	if err != nil {
		return fmt.Errorf("failed to marshal randomness fulfilment: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.bus.Publish(ctx, FulfillmentSubject, payload); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"lotteryID": request.LotteryID,
		"requestID": request.RequestID,
	}).Info("Fulfilled randomness request")
	return nil
}
