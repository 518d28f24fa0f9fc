package notifier

import (
	"fmt"
	"strings"

	"prizedraw/domain/events"

	"github.com/bwmarrin/discordgo"
)

// Embed colors
const (
	ColorSuccess = 0x57F287 // Green
	ColorDanger  = 0xED4245 // Red
	ColorWarning = 0xFEE75C // Yellow
	ColorInfo    = 0x3498DB // Blue
)

var tierNames = []string{"1st", "2nd", "3rd"}

func tierName(i int) string {
	if i < len(tierNames) {
		return tierNames[i]
	}
	return fmt.Sprintf("%dth", i+1)
}

// FormatAmount formats a token amount with thousand separators
func FormatAmount(amount int64) string {
	str := fmt.Sprintf("%d", amount)
	negative := strings.HasPrefix(str, "-")
	if negative {
		str = str[1:]
	}

	n := len(str)
	var result strings.Builder
	if negative {
		result.WriteByte('-')
	}
	for i, digit := range str {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}
	return result.String()
}

// CreateLotteryCreatedEmbed announces a new lottery
func CreateLotteryCreatedEmbed(event events.LotteryCreatedEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "New prize draw",
		Color:       ColorInfo,
		Description: fmt.Sprintf("Draws <t:%d:d> <t:%d:t>", event.DrawTime, event.DrawTime),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Lottery", Value: string(event.LotteryID), Inline: true},
			{Name: "Creator", Value: string(event.Creator), Inline: true},
		},
	}
}

// CreateDrawResultEmbed lists the winners of a completed draw in tier order
func CreateDrawResultEmbed(event events.DrawCompletedEvent) *discordgo.MessageEmbed {
	lines := make([]string, 0, len(event.Winners))
	for _, w := range event.Winners {
		lines = append(lines, fmt.Sprintf("**%s** %s - ticket #%d - %s",
			tierName(w.TierIndex), w.Owner, w.TicketNumber, FormatAmount(w.PayoutAmount)))
	}
	winnerStr := "No winners"
	if len(lines) > 0 {
		winnerStr = strings.Join(lines, "\n")
	}

	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Draw complete - %s prize pool", FormatAmount(event.PrizePool)),
		Color: ColorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Lottery", Value: string(event.LotteryID), Inline: true},
			{Name: "Winners", Value: winnerStr, Inline: false},
		},
	}
}

// CreateCancelledEmbed tells participants a lottery was cancelled and refunds are open
func CreateCancelledEmbed(event events.LotteryCancelledEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Draw cancelled",
		Color:       ColorWarning,
		Description: "Not enough tickets were sold. Every buyer can claim a full refund.",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Lottery", Value: string(event.LotteryID), Inline: true},
			{Name: "Tickets Sold", Value: fmt.Sprintf("%d of %d needed", event.TicketsSold, event.MinTickets), Inline: true},
		},
	}
}

// CreatePayoutFailedEmbed alerts operators to a prize that could not be paid
func CreatePayoutFailedEmbed(event events.PayoutFailedEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Prize payout failed",
		Color:       ColorDanger,
		Description: "The payout will be retried automatically.",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Lottery", Value: string(event.LotteryID), Inline: true},
			{Name: "Tier", Value: tierName(event.TierIndex), Inline: true},
			{Name: "Winner", Value: string(event.Owner), Inline: true},
			{Name: "Amount", Value: FormatAmount(event.Amount), Inline: true},
			{Name: "Error", Value: event.Error, Inline: false},
		},
	}
}
