package infrastructure

import (
	"testing"

	"prizedraw/domain/events"

	"github.com/stretchr/testify/assert"
)

func TestEventSubjectMapper_RoundTrip(t *testing.T) {
	t.Parallel()

	mapper := NewEventSubjectMapper()
	all := []events.Event{
		events.LotteryCreatedEvent{},
		events.TicketsPurchasedEvent{},
		events.DrawRequestedEvent{},
		events.DrawCompletedEvent{},
		events.LotteryCancelledEvent{},
		events.RefundClaimedEvent{},
		events.PayoutFailedEvent{},
	}

	subjects := mapper.GetAllSubjects()
	assert.Len(t, subjects, len(all))
	for _, event := range all {
		subject := mapper.MapEventToSubject(event)
		assert.Contains(t, subjects, subject)
		assert.Equal(t, event.Type(), mapper.MapSubjectToEventType(subject))
	}

	assert.Equal(t, "lottery.draw_completed", mapper.MapEventToSubject(events.DrawCompletedEvent{}))
}
