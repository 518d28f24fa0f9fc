package notifier

import (
	"context"
	"errors"
	"testing"

	"prizedraw/domain/entities"
	"prizedraw/domain/events"
	eventbus "prizedraw/events"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(channelID, data)
	msg, _ := args.Get(0).(*discordgo.Message)
	return msg, args.Error(1)
}

func TestFormatAmount(t *testing.T) {
	t.Parallel()

	tests := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		1234567:  "1,234,567",
		-1234567: "-1,234,567",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatAmount(in))
	}
}

func TestCreateDrawResultEmbed(t *testing.T) {
	t.Parallel()

	embed := CreateDrawResultEmbed(events.DrawCompletedEvent{
		LotteryID: "lottery-1",
		PrizePool: 2300,
		Winners: []entities.Winner{
			{TierIndex: 0, TicketNumber: 7, Owner: "alice", PayoutAmount: 1150},
			{TierIndex: 1, TicketNumber: 12, Owner: "bob", PayoutAmount: 690},
			{TierIndex: 2, TicketNumber: 20, Owner: "carol", PayoutAmount: 460},
		},
	})

	assert.Equal(t, "Draw complete - 2,300 prize pool", embed.Title)
	assert.Equal(t, ColorSuccess, embed.Color)
	require.Len(t, embed.Fields, 2)
	assert.Equal(t, "**1st** alice - ticket #7 - 1,150\n**2nd** bob - ticket #12 - 690\n**3rd** carol - ticket #20 - 460", embed.Fields[1].Value)
}

func TestAnnouncer_Handle(t *testing.T) {
	t.Parallel()

	sender := new(mockSender)
	announcer := NewAnnouncer(sender, "channel-1")

	sender.On("ChannelMessageSendComplex", "channel-1", mock.MatchedBy(func(m *discordgo.MessageSend) bool {
		return len(m.Embeds) == 1 && m.Embeds[0].Title == "Draw cancelled"
	})).Return(&discordgo.Message{ID: "1"}, nil).Once()

	announcer.Handle(context.Background(), events.LotteryCancelledEvent{LotteryID: "lottery-1", TicketsSold: 4, MinTickets: 10})

	// purchases are not announced
	announcer.Handle(context.Background(), events.TicketsPurchasedEvent{LotteryID: "lottery-1"})

	sender.AssertExpectations(t)
	sender.AssertNumberOfCalls(t, "ChannelMessageSendComplex", 1)
}

func TestAnnouncer_SendFailureIsLogged(t *testing.T) {
	t.Parallel()

	sender := new(mockSender)
	sender.On("ChannelMessageSendComplex", "channel-1", mock.Anything).Return(nil, errors.New("missing access")).Once()

	assert.NotPanics(t, func() {
		NewAnnouncer(sender, "channel-1").Handle(context.Background(), events.PayoutFailedEvent{LotteryID: "lottery-1", Error: "rail down"})
	})
	sender.AssertExpectations(t)
}

func TestAnnouncer_Subscribe(t *testing.T) {
	t.Parallel()

	sender := new(mockSender)
	sender.On("ChannelMessageSendComplex", "channel-1", mock.Anything).Return(&discordgo.Message{ID: "1"}, nil)

	bus := eventbus.NewBus()
	NewAnnouncer(sender, "channel-1").Subscribe(bus)

	require.NoError(t, bus.Publish(events.LotteryCreatedEvent{LotteryID: "lottery-1", Creator: "house", DrawTime: 1772456400}))
	require.NoError(t, bus.Publish(events.RefundClaimedEvent{LotteryID: "lottery-1"}))
	bus.Wait()

	sender.AssertNumberOfCalls(t, "ChannelMessageSendComplex", 1)
}
