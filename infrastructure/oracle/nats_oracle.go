package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"prizedraw/domain/entities"
	"prizedraw/domain/interfaces"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// MessageBus is the subset of the NATS client the oracle transport uses
type MessageBus interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Subscribe(subject string, handler func([]byte) error) error
	EnsureStream(streamName, description string, subjects []string, maxAge time.Duration) error
}

// NATSOracle publishes randomness requests to JetStream and receives fulfilments
// from an external responder
type NATSOracle struct {
	bus          MessageBus
	fulfillments chan interfaces.Fulfillment
}

// NewNATSOracle creates the oracle; Start must be called before requests are made
func NewNATSOracle(bus MessageBus) *NATSOracle {
	return &NATSOracle{
		bus:          bus,
		fulfillments: make(chan interfaces.Fulfillment, 64),
	}
}

// Start ensures the oracle stream and subscribes to fulfilments
func (o *NATSOracle) Start() error {
	if err := EnsureStream(o.bus); err != nil {
		return err
	}
	return o.bus.Subscribe(FulfillmentSubject, o.handleFulfillment)
}

// EnsureStream creates the randomness oracle stream
func EnsureStream(bus MessageBus) error {
	return bus.EnsureStream(StreamName, streamDescription, Subjects(), streamRetentionDays*24*time.Hour)
}

// Request publishes a randomness request and returns its id
func (o *NATSOracle) Request(ctx context.Context, lotteryID entities.LotteryID) (entities.RequestID, error) {
	request := RandomnessRequest{
		RequestID:   entities.RequestID(uuid.NewString()),
		LotteryID:   lotteryID,
		RequestedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal randomness request: %w", err)
	}
	if err := o.bus.Publish(ctx, RequestSubject, data); err != nil {
		return "", fmt.Errorf("failed to publish randomness request: %w", err)
	}

	log.WithFields(log.Fields{
		"lotteryID": lotteryID,
		"requestID": request.RequestID,
	}).Info("Published randomness request")
	return request.RequestID, nil
}

// Fulfillments returns the channel on which seeds are delivered
func (o *NATSOracle) Fulfillments() <-chan interfaces.Fulfillment {
	return o.fulfillments
}

func (o *NATSOracle) handleFulfillment(data []byte) error {
	var msg RandomnessFulfillment
	if err := json.Unmarshal(data, &msg); err != nil {
		// malformed messages are acked and dropped; redelivery cannot fix them
		log.WithError(err).Warn("Dropping malformed randomness fulfilment")
		return nil
	}
	seed, err := entities.ParseSeed(msg.Seed)
	if err != nil {
		log.WithError(err).WithField("requestID", msg.RequestID).Warn("Dropping randomness fulfilment with invalid seed")
		return nil
	}

	select {
	case o.fulfillments <- interfaces.Fulfillment{LotteryID: msg.LotteryID, RequestID: msg.RequestID, Seed: seed}:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("fulfilment queue full, request %s", msg.RequestID)
	}
}
