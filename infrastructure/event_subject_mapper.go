package infrastructure

import (
	"fmt"

	"prizedraw/domain/events"
)

// LotteryEventStream is the JetStream stream holding lottery notifications
const LotteryEventStream = "lottery_events"

// EventSubjectMapper handles mapping between lottery events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

var subjectsByType = map[events.EventType]string{
	events.EventTypeLotteryCreated:   "lottery.created",
	events.EventTypeTicketsPurchased: "lottery.tickets_purchased",
	events.EventTypeDrawRequested:    "lottery.draw_requested",
	events.EventTypeDrawCompleted:    "lottery.draw_completed",
	events.EventTypeLotteryCancelled: "lottery.cancelled",
	events.EventTypeRefundClaimed:    "lottery.refund_claimed",
	events.EventTypePayoutFailed:     "lottery.payout_failed",
}

// MapEventToSubject converts a lottery event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := subjectsByType[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("unknown.%s", event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range subjectsByType {
		if s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// GetAllSubjects returns all subjects that lottery events are published to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"lottery.created",
		"lottery.tickets_purchased",
		"lottery.draw_requested",
		"lottery.draw_completed",
		"lottery.cancelled",
		"lottery.refund_claimed",
		"lottery.payout_failed",
	}
}
