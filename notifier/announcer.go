package notifier

import (
	"context"
	"fmt"

	"prizedraw/domain/events"
	eventbus "prizedraw/events"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// MessageSender is the part of a discordgo session the announcer uses
type MessageSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Announcer posts lottery notifications to a Discord channel
type Announcer struct {
	sender    MessageSender
	channelID string
}

// NewAnnouncer creates an announcer for channelID
func NewAnnouncer(sender MessageSender, channelID string) *Announcer {
	return &Announcer{sender: sender, channelID: channelID}
}

// NewSession opens a bot session for announcements
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("failed to open Discord session: %w", err)
	}
	return session, nil
}

// Subscribe registers the announcer on the bus
func (a *Announcer) Subscribe(bus *eventbus.Bus) {
	bus.Subscribe(events.EventTypeLotteryCreated, a.Handle)
	bus.Subscribe(events.EventTypeDrawCompleted, a.Handle)
	bus.Subscribe(events.EventTypeLotteryCancelled, a.Handle)
	bus.Subscribe(events.EventTypePayoutFailed, a.Handle)
}

// Handle posts one event. Unknown events are ignored.
func (a *Announcer) Handle(ctx context.Context, event events.Event) {
	var embed *discordgo.MessageEmbed
	switch e := event.(type) {
	case events.LotteryCreatedEvent:
		embed = CreateLotteryCreatedEmbed(e)
	case events.DrawCompletedEvent:
		embed = CreateDrawResultEmbed(e)
	case events.LotteryCancelledEvent:
		embed = CreateCancelledEmbed(e)
	case events.PayoutFailedEvent:
		embed = CreatePayoutFailedEmbed(e)
	default:
		return
	}

	_, err := a.sender.ChannelMessageSendComplex(a.channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"eventType": event.Type(),
			"channelID": a.channelID,
		}).Error("Failed to post lottery announcement to Discord")
		return
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"channelID": a.channelID,
	}).Info("Posted lottery announcement to Discord")
}
