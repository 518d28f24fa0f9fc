package testhelpers

import (
	"context"

	"prizedraw/domain/entities"
	"prizedraw/domain/events"
	"prizedraw/domain/interfaces"

	"github.com/stretchr/testify/mock"
)

// MockLotteryRepository is a mock implementation of LotteryRepository
type MockLotteryRepository struct {
	mock.Mock
}

func (m *MockLotteryRepository) Save(ctx context.Context, snapshot *entities.LotterySnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockLotteryRepository) GetByID(ctx context.Context, id entities.LotteryID) (*entities.LotterySnapshot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LotterySnapshot), args.Error(1)
}

func (m *MockLotteryRepository) LoadAll(ctx context.Context) ([]*entities.LotterySnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LotterySnapshot), args.Error(1)
}

// MockPaymentRail is a mock implementation of PaymentRail
type MockPaymentRail struct {
	mock.Mock
}

func (m *MockPaymentRail) TransferIn(ctx context.Context, from entities.AccountID, amount int64) error {
	args := m.Called(ctx, from, amount)
	return args.Error(0)
}

func (m *MockPaymentRail) TransferOut(ctx context.Context, to entities.AccountID, amount int64) error {
	args := m.Called(ctx, to, amount)
	return args.Error(0)
}

// StaticRailFactory hands out the same rail for every lottery
type StaticRailFactory struct {
	Rail interfaces.PaymentRail
}

func (f StaticRailFactory) RailFor(entities.LotteryID, string) interfaces.PaymentRail {
	return f.Rail
}

// MockRandomnessOracle is a mock implementation of RandomnessOracle. Fulfilments
// are pushed by the test through Deliver.
type MockRandomnessOracle struct {
	mock.Mock
	fulfillments chan interfaces.Fulfillment
}

// NewMockRandomnessOracle creates an oracle mock with a buffered fulfilment channel
func NewMockRandomnessOracle() *MockRandomnessOracle {
	return &MockRandomnessOracle{fulfillments: make(chan interfaces.Fulfillment, 16)}
}

func (m *MockRandomnessOracle) Request(ctx context.Context, lotteryID entities.LotteryID) (entities.RequestID, error) {
	args := m.Called(ctx, lotteryID)
	return args.Get(0).(entities.RequestID), args.Error(1)
}

func (m *MockRandomnessOracle) Fulfillments() <-chan interfaces.Fulfillment {
	return m.fulfillments
}

// Deliver queues a fulfilment as if the oracle had answered
func (m *MockRandomnessOracle) Deliver(f interfaces.Fulfillment) {
	m.fulfillments <- f
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}
