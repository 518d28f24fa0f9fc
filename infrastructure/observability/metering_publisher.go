package observability

import (
	"prizedraw/domain/events"
	"prizedraw/domain/interfaces"
)

// MeteringPublisher derives lottery metrics from domain events before handing
// them to the wrapped publisher
type MeteringPublisher struct {
	next    interfaces.EventPublisher
	metrics *MetricsProvider
}

// NewMeteringPublisher wraps next
func NewMeteringPublisher(next interfaces.EventPublisher, metrics *MetricsProvider) *MeteringPublisher {
	return &MeteringPublisher{next: next, metrics: metrics}
}

// Publish records metrics for event and forwards it
func (p *MeteringPublisher) Publish(event events.Event) error {
	switch e := event.(type) {
	case events.LotteryCreatedEvent:
		p.metrics.RecordLotteryCreated()
	case events.TicketsPurchasedEvent:
		p.metrics.RecordTicketsSold(e.Range.Count())
	case events.DrawRequestedEvent:
		p.metrics.RecordDraw(OutcomeRequested)
	case events.DrawCompletedEvent:
		p.metrics.RecordDraw(OutcomeCompleted)
		for range e.Winners {
			p.metrics.RecordPayout(OutcomeCompleted)
		}
	case events.LotteryCancelledEvent:
		p.metrics.RecordDraw(OutcomeCancelled)
	case events.RefundClaimedEvent:
		p.metrics.RecordRefund()
	case events.PayoutFailedEvent:
		p.metrics.RecordPayout(OutcomeFailed)
	}

	if p.next == nil {
		return nil
	}
	return p.next.Publish(event)
}
